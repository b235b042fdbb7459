package terminal

import "github.com/jedib0t/go-pretty/v6/text"

// Ellipsis is prepended to paths shortened by TruncateLeft.
const Ellipsis = "..."

// EllipsisLen is the display width of the ellipsis string.
const EllipsisLen = 3

// TruncateLeft shortens s to maxWidth display columns by dropping leading
// runes and prefixing "...", which keeps the file name at the end of a path
// visible. A non-positive maxWidth disables truncation.
func TruncateLeft(s string, maxWidth int) string {
	if maxWidth <= 0 || text.StringWidthWithoutEscSequences(s) <= maxWidth {
		return s
	}

	if maxWidth <= EllipsisLen {
		return Ellipsis[:maxWidth]
	}

	runes := []rune(s)
	budget := maxWidth - EllipsisLen
	start := len(runes)

	for start > 0 {
		width := text.RuneWidth(runes[start-1])
		if width > budget {
			break
		}

		budget -= width
		start--
	}

	return Ellipsis + string(runes[start:])
}
