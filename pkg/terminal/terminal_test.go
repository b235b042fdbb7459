package terminal //nolint:testpackage // testing internal implementation.

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
)

func TestDetectWidth(t *testing.T) {
	tests := []struct {
		name    string
		columns string
		want    int
	}{
		{"unset", "", 0},
		{"valid", "120", 120},
		{"invalid", "wide", 0},
		{"too narrow", "20", MinWidth},
		{"too wide", "500", MaxWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COLUMNS", tt.columns)

			assert.Equal(t, tt.want, DetectWidth())
		})
	}
}

func TestNewConfig_NoColorFromEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.True(t, NewConfig().NoColor)
}

func TestColorize(t *testing.T) {
	t.Parallel()

	colored := Config{}
	plain := Config{NoColor: true}

	assert.True(t, strings.HasPrefix(colored.Colorize("42%", EmphasisStrongNegative), "\x1b[31;1m42%\x1b["))
	assert.True(t, strings.HasPrefix(colored.Colorize("60%", EmphasisWarning), "\x1b[33m60%\x1b["))
	assert.True(t, strings.HasPrefix(colored.Colorize("95%", EmphasisPositive), "\x1b[32m95%\x1b["))
	assert.Equal(t, "80%", colored.Colorize("80%", EmphasisNone))
	assert.Equal(t, "42%", plain.Colorize("42%", EmphasisStrongNegative))
}

func TestTruncateLeft(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pkg/a.go", TruncateLeft("pkg/a.go", 20))
	assert.Equal(t, "...ng/path/a.go", TruncateLeft("some/long/path/a.go", 15))
	assert.Equal(t, "..", TruncateLeft("abcdef", 2))
	assert.Equal(t, "abcdef", TruncateLeft("abcdef", 0))
}

func TestTruncateLeft_MultiByte(t *testing.T) {
	t.Parallel()

	got := TruncateLeft("données/résumé/été.go", 12)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "...mé/été.go", got)
	assert.Equal(t, 12, text.StringWidthWithoutEscSequences(got))
}

func TestTruncateLeft_WideRunes(t *testing.T) {
	t.Parallel()

	got := TruncateLeft("パッケージ/ファイル.go", 10)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, text.StringWidthWithoutEscSequences(got), 10)
	assert.Equal(t, "...イル.go", got)
}
