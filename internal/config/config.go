package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	PDF       PDFConfig       `yaml:"pdf" mapstructure:"pdf"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Drilldown DrilldownConfig `yaml:"drilldown" mapstructure:"drilldown"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Blurb     BlurbConfig     `yaml:"blurb" mapstructure:"blurb"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host                string  `yaml:"host" mapstructure:"host"`
	Port                int     `yaml:"port" mapstructure:"port"`
	MaxBodyBytes        int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RateLimit           float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst           int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	ShutdownTimeoutSecs int     `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ShutdownTimeout returns the graceful shutdown budget.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSecs) * time.Second
}

// PDFConfig selects and tunes the PDF engine.
type PDFConfig struct {
	Engine      string `yaml:"engine" mapstructure:"engine"` // "chrome" or "native"
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ChromePath  string `yaml:"chrome_path" mapstructure:"chrome_path"`
}

// Timeout returns the per-conversion deadline.
func (p PDFConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// RenderConfig configures HTML rendering.
type RenderConfig struct {
	ThemePath string `yaml:"theme_path" mapstructure:"theme_path"`
}

// DrilldownConfig configures drill-down table import.
type DrilldownConfig struct {
	StrictQuotes bool   `yaml:"strict_quotes" mapstructure:"strict_quotes"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
	Charset      string `yaml:"charset" mapstructure:"charset"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BlurbConfig configures section option generation.
type BlurbConfig struct {
	Model             string `yaml:"model" mapstructure:"model"`
	OptionsPerSection int    `yaml:"options_per_section" mapstructure:"options_per_section"`
	MaxConcurrency    int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	MaxTokens         int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxAttempts       int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	FailureThreshold  int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 4001)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("pdf.engine", "chrome")
	v.SetDefault("pdf.timeout_secs", 30)
	v.SetDefault("pdf.chrome_path", "")
	v.SetDefault("render.theme_path", "")
	v.SetDefault("drilldown.strict_quotes", false)
	v.SetDefault("drilldown.sheet", "")
	v.SetDefault("drilldown.charset", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("blurb.model", "claude-haiku-4-5-20251001")
	v.SetDefault("blurb.options_per_section", 3)
	v.SetDefault("blurb.max_concurrency", 4)
	v.SetDefault("blurb.max_tokens", 1024)
	v.SetDefault("blurb.max_attempts", 3)
	v.SetDefault("blurb.failure_threshold", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the given command mode depends on. Modes are
// "serve", "render", "export", "drilldown" and "draft". All problems are
// reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	checkPDF := func() {
		switch c.PDF.Engine {
		case "chrome", "native":
		default:
			errs = append(errs, fmt.Sprintf("pdf.engine must be chrome or native, got %q", c.PDF.Engine))
		}
		if c.PDF.TimeoutSecs <= 0 {
			errs = append(errs, "pdf.timeout_secs must be > 0")
		}
	}

	switch mode {
	case "serve":
		checkPDF()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MaxBodyBytes <= 0 {
			errs = append(errs, "server.max_body_bytes must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
			errs = append(errs, "server.rate_burst must be > 0 when rate limiting")
		}
	case "export":
		checkPDF()
	case "render", "drilldown":
	case "draft":
		if strings.TrimSpace(c.Anthropic.Key) == "" {
			errs = append(errs, "anthropic.key is required")
		}
		if c.Blurb.OptionsPerSection < 1 || c.Blurb.OptionsPerSection > 10 {
			errs = append(errs, "blurb.options_per_section must be between 1 and 10")
		}
		if c.Blurb.MaxConcurrency < 1 || c.Blurb.MaxConcurrency > 20 {
			errs = append(errs, "blurb.max_concurrency must be between 1 and 20")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
