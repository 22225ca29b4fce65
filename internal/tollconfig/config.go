// Package tollconfig loads the demo host's configuration from a YAML file
// with environment variable overrides, following the same Load(path) ->
// defaults -> file -> env -> finalize pipeline as the ambient config
// loaders this module is descended from.
package tollconfig

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as Go
// duration strings ("300s", "1h") instead of raw nanoseconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or
// bare numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		d.Duration = 0
		return nil
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		d.Duration = parsed
		return nil
	}
	if secs, err := time.ParseDuration(raw + "s"); err == nil {
		d.Duration = secs
		return nil
	}
	return fmt.Errorf("invalid duration value %q", raw)
}

// RouteConfig configures one gated route.
type RouteConfig struct {
	Sats         int64  `yaml:"sats"`
	Description  string `yaml:"description"`
	FreeRequests int    `yaml:"free_requests"`
	FreeWindow   string `yaml:"free_window"`
}

// WalletConfig selects and configures the Lightning wallet adapter.
type WalletConfig struct {
	// Mode is "mock" or "nwc".
	Mode   string `yaml:"mode"`
	NWCURL string `yaml:"nwc_url"`
}

// ServerConfig configures the demo HTTP host.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the demo host's full configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Wallet  WalletConfig  `yaml:"wallet"`

	// Secret is the macaroon signing key; its bytes are used as-is, with
	// no hex or base64 decoding. Loaded only from
	// TOLL_SECRET — never written to or read from the YAML file, so it
	// never ends up checked into a config repo by accident.
	Secret string `yaml:"-"`

	DefaultSats     int64                  `yaml:"default_sats"`
	InvoiceExpiry   Duration               `yaml:"invoice_expiry"`
	MacaroonExpiry  Duration               `yaml:"macaroon_expiry"`
	BindEndpoint    bool                   `yaml:"bind_endpoint"`
	BindMethod      bool                   `yaml:"bind_method"`
	BindIP          bool                   `yaml:"bind_ip"`
	ReplayCacheSize int                    `yaml:"replay_cache_size"`
	ReplayCacheTTL  Duration               `yaml:"replay_cache_ttl"`
	Routes          map[string]RouteConfig `yaml:"routes"`
}

func defaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Wallet:  WalletConfig{Mode: "mock"},

		DefaultSats:    10,
		InvoiceExpiry:  Duration{Duration: 300 * time.Second},
		MacaroonExpiry: Duration{Duration: 3600 * time.Second},
		BindEndpoint:   true,
		BindMethod:     true,
		BindIP:         false,
		Routes:         make(map[string]RouteConfig),
	}
}

// Load reads path (if non-empty) as YAML over the defaults, then applies
// environment overrides, then validates. A missing path is not an error:
// the zero-config case is a fully-defaulted mock-wallet demo host.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	setIfEnv(&c.Server.Address, "TOLL_SERVER_ADDRESS")
	setIfEnv(&c.Logging.Level, "TOLL_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "TOLL_LOG_FORMAT")
	setIfEnv(&c.Wallet.Mode, "TOLL_WALLET_MODE")
	setIfEnv(&c.Wallet.NWCURL, "TOLL_WALLET_NWC_URL")
	setIfEnv(&c.Secret, "TOLL_SECRET")

	if raw, ok := os.LookupEnv("TOLL_DEFAULT_SATS"); ok {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.DefaultSats = v
		}
	}
	setDurationIfEnv(&c.InvoiceExpiry, "TOLL_INVOICE_EXPIRY")
	setDurationIfEnv(&c.MacaroonExpiry, "TOLL_MACAROON_EXPIRY")
	setBoolIfEnv(&c.BindEndpoint, "TOLL_BIND_ENDPOINT")
	setBoolIfEnv(&c.BindMethod, "TOLL_BIND_METHOD")
	setBoolIfEnv(&c.BindIP, "TOLL_BIND_IP")
}

func (c *Config) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("tollconfig: TOLL_SECRET is required")
	}
	switch c.Wallet.Mode {
	case "mock":
	case "nwc":
		if c.Wallet.NWCURL == "" {
			return fmt.Errorf("tollconfig: wallet.nwc_url is required when wallet.mode is \"nwc\"")
		}
	default:
		return fmt.Errorf("tollconfig: unknown wallet mode %q", c.Wallet.Mode)
	}
	if c.DefaultSats < 0 {
		return fmt.Errorf("tollconfig: default_sats must be non-negative")
	}
	return nil
}

func setIfEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setBoolIfEnv(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDurationIfEnv(dst *Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(v); err == nil {
			dst.Duration = parsed
		}
	}
}
