package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTheme_Empty(t *testing.T) {
	theme, err := LoadTheme("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme(), theme)
}

func TestLoadTheme_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	content := `theme:
  title_suffix: Practice Review
  accent: "#222"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	theme, err := LoadTheme(path)
	require.NoError(t, err)
	assert.Equal(t, "Practice Review", theme.TitleSuffix)
	assert.Equal(t, "#222", theme.Accent)
	assert.Equal(t, DefaultTheme().GradientHigh, theme.GradientHigh)
	assert.Len(t, theme.Closing, 2)
}

func TestLoadTheme_Errors(t *testing.T) {
	_, err := LoadTheme(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: [unclosed"), 0o644))
	_, err = LoadTheme(path)
	assert.Error(t, err)
}

func TestLoadTheme_RejectsBadColour(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{name: "gradient word", content: "theme:\n  gradient_low: reddish\n", key: "gradient_low"},
		{name: "gradient bad digits", content: "theme:\n  gradient_high: \"#30bd7g\"\n", key: "gradient_high"},
		{name: "empty track", content: "theme:\n  track: \"\"\n", key: "track"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "theme.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadTheme(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestTheme_Validate(t *testing.T) {
	assert.NoError(t, DefaultTheme().Validate())

	theme := DefaultTheme()
	theme.GradientMid = "yellow"
	assert.Error(t, theme.Validate())
}
