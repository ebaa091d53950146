package config

import (
	"github.com/jackzampolin/stockpilot/internal/run"
)

// Config holds stockpilot configuration.
// Loaded from ./config.yaml or ~/.stockpilot/config.yaml.
type Config struct {
	Server   ServerCfg   `mapstructure:"server" yaml:"server"`
	Portal   PortalCfg   `mapstructure:"portal" yaml:"portal"`
	Driver   DriverCfg   `mapstructure:"driver" yaml:"driver"`
	Analyzer AnalyzerCfg `mapstructure:"analyzer" yaml:"analyzer"`
	Defaults run.Config  `mapstructure:"defaults" yaml:"defaults"`
}

// ServerCfg holds HTTP server settings.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// APIKey gates /api/* routes when RequireAPIKey is set
	// (supports ${ENV_VAR} syntax).
	APIKey        string `mapstructure:"api_key" yaml:"api_key"`
	RequireAPIKey bool   `mapstructure:"require_api_key" yaml:"require_api_key"`
}

// PortalCfg holds the target portal's URLs and credentials.
type PortalCfg struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	LoginURL  string `mapstructure:"login_url" yaml:"login_url"`
	UploadURL string `mapstructure:"upload_url" yaml:"upload_url"`
	// Username and Password support ${ENV_VAR} syntax.
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// DriverCfg holds browser-driver container configuration.
type DriverCfg struct {
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Image         string `mapstructure:"image" yaml:"image"`
	Port          string `mapstructure:"port" yaml:"port"`
	Headless      bool   `mapstructure:"headless" yaml:"headless"`
}

// AnalyzerCfg holds image-analysis settings. The analyzer is optional; runs
// proceed without it when disabled or unconfigured.
type AnalyzerCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Model   string `mapstructure:"model" yaml:"model"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:          "127.0.0.1",
			Port:          "8080",
			APIKey:        "${STOCKPILOT_API_KEY}",
			RequireAPIKey: false,
		},
		Portal: PortalCfg{
			BaseURL:   "https://www.dreamstime.com",
			LoginURL:  "https://www.dreamstime.com/login",
			UploadURL: "https://www.dreamstime.com/upload",
			Username:  "${PORTAL_USERNAME}",
			Password:  "${PORTAL_PASSWORD}",
		},
		Driver: DriverCfg{
			Headless: true,
		},
		Analyzer: AnalyzerCfg{
			Enabled: true,
			APIKey:  "${OPENAI_API_KEY}",
			Model:   "gpt-4o",
		},
		Defaults: run.DefaultConfig(),
	}
}
