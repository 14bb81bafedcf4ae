package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/webcall"
	configFile = "config.yaml"

	DefaultGatewayFunction = "retell-calls"
	DefaultScriptURL       = "https://cdn.retellai.com/sdk/web-sdk.js"
	DefaultContainerID     = "retell-call-widget"
	DefaultButtonText      = "Start Call"
	DefaultListenAddr      = "127.0.0.1:8787"
	DefaultGatewayTimeout  = 15 * time.Second
	DefaultAgentCacheTTL   = 10 * time.Minute
)

// Config holds all runtime settings for webcall
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Widget  WidgetConfig  `yaml:"widget"`
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
}

// GatewayConfig locates the backend call gateway
type GatewayConfig struct {
	URL      string        `yaml:"url"`
	Key      string        `yaml:"key"`
	Function string        `yaml:"function"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WidgetConfig describes how the browser widget runtime is loaded and rendered
type WidgetConfig struct {
	ScriptURL   string `yaml:"script_url"`
	ContainerID string `yaml:"container_id"`
	ButtonText  string `yaml:"button_text"`
}

// ServerConfig configures the local host view server
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// CacheConfig configures the agent directory cache
type CacheConfig struct {
	Path     string        `yaml:"path"`
	TTL      time.Duration `yaml:"ttl"`
	Disabled bool          `yaml:"disabled"`
}

// DefaultConfig returns a config populated with defaults
func DefaultConfig() *Config {
	cachePath := ""
	if home, err := os.UserHomeDir(); err == nil {
		cachePath = filepath.Join(home, ".webcall-cache", "agents.db")
	}
	return &Config{
		Gateway: GatewayConfig{
			Function: DefaultGatewayFunction,
			Timeout:  DefaultGatewayTimeout,
		},
		Widget: WidgetConfig{
			ScriptURL:   DefaultScriptURL,
			ContainerID: DefaultContainerID,
			ButtonText:  DefaultButtonText,
		},
		Server: ServerConfig{Listen: DefaultListenAddr},
		Cache:  CacheConfig{Path: cachePath, TTL: DefaultAgentCacheTTL},
	}
}

// DefaultConfigPath returns ~/.config/webcall/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// LoadConfig reads the config file at path (or the default location when empty),
// then applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("failed to parse: %w", err)}
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist) && !explicit:
			LogDebug("No config file at %s, using defaults", path)
		default:
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("WEBCALL_GATEWAY_URL"); v != "" {
		c.Gateway.URL = v
	}
	if v := getenv("WEBCALL_GATEWAY_KEY"); v != "" {
		c.Gateway.Key = v
	}
	if v := getenv("WEBCALL_GATEWAY_FUNCTION"); v != "" {
		c.Gateway.Function = v
	}
	if v := getenv("WEBCALL_LISTEN"); v != "" {
		c.Server.Listen = v
	}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Gateway.Function == "" {
		c.Gateway.Function = d.Gateway.Function
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = d.Gateway.Timeout
	}
	if c.Widget.ScriptURL == "" {
		c.Widget.ScriptURL = d.Widget.ScriptURL
	}
	if c.Widget.ContainerID == "" {
		c.Widget.ContainerID = d.Widget.ContainerID
	}
	if c.Widget.ButtonText == "" {
		c.Widget.ButtonText = d.Widget.ButtonText
	}
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = d.Cache.TTL
	}
}

// Validate checks the settings needed to reach the gateway
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.URL) == "" {
		return &ConfigError{Path: "gateway", Field: "url", Err: errors.New("is required (set gateway.url or WEBCALL_GATEWAY_URL)")}
	}
	if !strings.HasPrefix(c.Gateway.URL, "http://") && !strings.HasPrefix(c.Gateway.URL, "https://") {
		return &ConfigError{Path: "gateway", Field: "url", Err: fmt.Errorf("must be an http(s) URL, got %q", c.Gateway.URL)}
	}
	return nil
}
