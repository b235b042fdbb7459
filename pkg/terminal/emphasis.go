package terminal

import "github.com/fatih/color"

// Emphasis is a semantic text style.
type Emphasis int

// Emphasis values.
const (
	EmphasisNone Emphasis = iota
	// EmphasisStrongNegative is bold red.
	EmphasisStrongNegative
	// EmphasisWarning is yellow.
	EmphasisWarning
	// EmphasisPositive is green.
	EmphasisPositive
	// EmphasisMuted is faint text for secondary information.
	EmphasisMuted
)

func (e Emphasis) attributes() []color.Attribute {
	switch e {
	case EmphasisStrongNegative:
		return []color.Attribute{color.FgRed, color.Bold}
	case EmphasisWarning:
		return []color.Attribute{color.FgYellow}
	case EmphasisPositive:
		return []color.Attribute{color.FgGreen}
	case EmphasisMuted:
		return []color.Attribute{color.Faint}
	default:
		return nil
	}
}

// Colorize applies the emphasis to text. If NoColor is set or the emphasis
// is EmphasisNone, text is returned unchanged.
func (c Config) Colorize(text string, emphasis Emphasis) string {
	attrs := emphasis.attributes()
	if c.NoColor || len(attrs) == 0 {
		return text
	}

	styled := color.New(attrs...)
	styled.EnableColor()

	return styled.Sprint(text)
}
