package render

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Theme holds the report copy and colours that vary per deployment.
type Theme struct {
	TitleSuffix  string   `yaml:"title_suffix"`
	Closing      []string `yaml:"closing"`
	Accent       string   `yaml:"accent"`
	Track        string   `yaml:"track"`
	BadgeFill    string   `yaml:"badge_fill"`
	BadgeText    string   `yaml:"badge_text"`
	GradientLow  string   `yaml:"gradient_low"`
	GradientMid  string   `yaml:"gradient_mid"`
	GradientHigh string   `yaml:"gradient_high"`
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	return Theme{
		TitleSuffix: "Online Analysis",
		Closing: []string{
			"Learn more about GROWTH Practice Optimization Partnership, the new Zero Risk way to win in dentistry!",
			`"We love helping practices double their profitability risk free without having to come up with money out of their pocket. It's a game changer for the practice and unbelievably fulfilling for our team, for practices that qualify." Shawn Rowbotham`,
		},
		Accent:       "#111111",
		Track:        "#e2e8f0",
		BadgeFill:    "#d1fae5",
		BadgeText:    "#047857",
		GradientLow:  "#f84949",
		GradientMid:  "#fedc4f",
		GradientHigh: "#30bd7e",
	}
}

// LoadTheme reads a theme YAML file. Fields missing from the file keep their
// default values. An empty path returns DefaultTheme.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()
	if path == "" {
		return theme, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, eris.Wrapf(err, "render: read theme %s", path)
	}

	// The YAML has a top-level "theme" key.
	var wrapper struct {
		Theme Theme `yaml:"theme"`
	}
	wrapper.Theme = theme
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Theme{}, eris.Wrap(err, "render: parse theme")
	}
	if err := wrapper.Theme.Validate(); err != nil {
		return Theme{}, eris.Wrapf(err, "render: theme %s", path)
	}
	return wrapper.Theme, nil
}

// Validate checks that every colour in the theme is a hex colour.
func (t Theme) Validate() error {
	colours := []struct {
		key, value string
	}{
		{"accent", t.Accent},
		{"track", t.Track},
		{"badge_fill", t.BadgeFill},
		{"badge_text", t.BadgeText},
		{"gradient_low", t.GradientLow},
		{"gradient_mid", t.GradientMid},
		{"gradient_high", t.GradientHigh},
	}
	for _, c := range colours {
		if _, err := ParseHexColor(c.value); err != nil {
			return eris.Wrapf(err, "render: theme %s", c.key)
		}
	}
	return nil
}
