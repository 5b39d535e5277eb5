package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/linkage/pkg/transport"
)

// FileName is the config file name without extension
const FileName = "linkage"

// EnvPrefix prefixes environment overrides, e.g. LINKAGE_BASE_URL
const EnvPrefix = "LINKAGE"

// Config represents the linkage configuration
type Config struct {
	BaseURL    string            `mapstructure:"base_url" yaml:"base_url"`
	SchemaFile string            `mapstructure:"schema_file" yaml:"schema_file"`
	Timeout    time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Retry      RetryConfig       `mapstructure:"retry" yaml:"retry"`
	Headers    map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	Auth       AuthConfig        `mapstructure:"auth" yaml:"auth,omitempty"`
	Log        LogConfig         `mapstructure:"log" yaml:"log"`
	Output     OutputConfig      `mapstructure:"output" yaml:"output"`
}

// RetryConfig bounds transport retries
type RetryConfig struct {
	Max     int           `mapstructure:"max" yaml:"max"`
	WaitMin time.Duration `mapstructure:"wait_min" yaml:"wait_min"`
	WaitMax time.Duration `mapstructure:"wait_max" yaml:"wait_max"`
}

// AuthConfig holds request credentials. A JWT secret takes precedence over a
// static token.
type AuthConfig struct {
	Token string    `mapstructure:"token" yaml:"token,omitempty"`
	JWT   JWTConfig `mapstructure:"jwt" yaml:"jwt,omitempty"`
}

// JWTConfig configures signed bearer tokens
type JWTConfig struct {
	Secret  string        `mapstructure:"secret" yaml:"secret,omitempty"`
	Issuer  string        `mapstructure:"issuer" yaml:"issuer,omitempty"`
	Subject string        `mapstructure:"subject" yaml:"subject,omitempty"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Color bool `mapstructure:"color" yaml:"color"`
}

// Default returns the configuration used when no file or env is present
func Default() *Config {
	return &Config{
		SchemaFile: "schema.yaml",
		Timeout:    30 * time.Second,
		Retry: RetryConfig{
			Max:     3,
			WaitMin: 100 * time.Millisecond,
			WaitMax: 2 * time.Second,
		},
		Log:    LogConfig{Level: "warn"},
		Output: OutputConfig{Color: true},
	}
}

// Load reads linkage.yaml from path, or searches the working directory and
// $HOME/.config/linkage when path is empty. A missing file is not an error
// unless path names it explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("schema_file", d.SchemaFile)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("retry.max", d.Retry.Max)
	v.SetDefault("retry.wait_min", d.Retry.WaitMin)
	v.SetDefault("retry.wait_max", d.Retry.WaitMax)
	v.SetDefault("headers", map[string]string{})
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "")
	v.SetDefault("auth.jwt.subject", "")
	v.SetDefault("auth.jwt.ttl", time.Duration(0))
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("output.color", d.Output.Color)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Write stores cfg as YAML at path
func Write(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration. An empty base_url is allowed here and
// rejected by commands that need one.
func Validate(cfg *Config) error {
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url is invalid: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url must use http or https, got: %s", cfg.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("base_url must include a host, got: %s", cfg.BaseURL)
		}
		if strings.HasSuffix(cfg.BaseURL, "/") {
			return fmt.Errorf("base_url must not end with '/', got: %s", cfg.BaseURL)
		}
	}

	if cfg.Retry.Max < 0 {
		return fmt.Errorf("retry.max must not be negative, got: %d", cfg.Retry.Max)
	}
	if cfg.Retry.WaitMax > 0 && cfg.Retry.WaitMin > cfg.Retry.WaitMax {
		return fmt.Errorf("retry.wait_min (%s) exceeds retry.wait_max (%s)", cfg.Retry.WaitMin, cfg.Retry.WaitMax)
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a zap level name. Empty means warn.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.WarnLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("log.level %q is invalid: %w", level, err)
	}
	return l, nil
}

// Credentials returns the transport credentials described by the auth
// section, or nil when none are configured.
func (c *Config) Credentials() transport.Credentials {
	if c.Auth.JWT.Secret != "" {
		signer := transport.NewJWTSigner(c.Auth.JWT.Secret, c.Auth.JWT.TTL)
		signer.Issuer = c.Auth.JWT.Issuer
		signer.Subject = c.Auth.JWT.Subject
		return signer
	}
	if c.Auth.Token != "" {
		return transport.BearerToken(c.Auth.Token)
	}
	return nil
}

// Transport returns the HTTP transport configuration for c
func (c *Config) Transport() transport.Config {
	tc := transport.DefaultConfig()
	if c.Timeout > 0 {
		tc.Timeout = c.Timeout
	}
	tc.RetryMax = c.Retry.Max
	if c.Retry.WaitMin > 0 {
		tc.RetryWaitMin = c.Retry.WaitMin
	}
	if c.Retry.WaitMax > 0 {
		tc.RetryWaitMax = c.Retry.WaitMax
	}
	tc.Headers = c.Headers
	tc.Credentials = c.Credentials()
	return tc
}
