// Package config provides configuration management for seqeth.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/seqeth/internal/chain"
	"github.com/mrz1836/seqeth/internal/fileutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version" validate:"gte=1"`
	Home     string         `yaml:"home"`
	Network  NetworkConfig  `yaml:"network"`
	Receipts ReceiptsConfig `yaml:"receipts"`
	Gas      GasConfig      `yaml:"gas"`
	Keys     KeysConfig     `yaml:"keys"`
	Tokens   []TokenConfig  `yaml:"tokens" validate:"dive"`
	Journal  JournalConfig  `yaml:"journal"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NetworkConfig defines the node endpoint and client-side limits.
type NetworkConfig struct {
	RPC            string          `yaml:"rpc" validate:"required,url"`
	ChainID        uint64          `yaml:"chain_id"` // 0 asks the node
	TimeoutSeconds int             `yaml:"timeout_seconds" validate:"gte=1,lte=600"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines the per-endpoint token bucket. A zero rate
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=1"`
}

// ReceiptsConfig defines receipt polling.
type ReceiptsConfig struct {
	PollAttempts    int `yaml:"poll_attempts" validate:"gte=1,lte=1000"`
	PollBaseDelayMs int `yaml:"poll_base_delay_ms" validate:"gte=1"`
	PollMaxDelayMs  int `yaml:"poll_max_delay_ms" validate:"gtefield=PollBaseDelayMs"`
}

// GasConfig defines the default gas price tier.
type GasConfig struct {
	Speed string `yaml:"speed" validate:"oneof=slow medium fast"`
}

// KeysConfig defines where signing keys come from when no flag is given.
type KeysConfig struct {
	File            string `yaml:"file"`
	DerivationIndex uint32 `yaml:"derivation_index"`
}

// TokenConfig defines an ERC-20 token known by symbol.
type TokenConfig struct {
	Symbol  string `yaml:"symbol" validate:"required"`
	Address string `yaml:"address" validate:"required,eth_addr"`
}

// JournalConfig defines the deployment journal location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" validate:"oneof=auto text json"`
	Color         string `yaml:"color" validate:"oneof=auto always never"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=off none error debug"`
	File  string `yaml:"file"` // empty means <home>/seqeth.log
}

// Load reads configuration from the specified file. Fields missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, seqerr.WithDetails(
			seqerr.WrapAs(seqerr.KindInvalidInput, err, "parsing config"),
			map[string]string{"path": path},
		)
	}

	return cfg, nil
}

// LoadOrDefault reads path, returning defaults when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks field constraints and reports the first violation as
// an INVALID_INPUT error naming the field.
func (c *Config) Validate() error {
	err := validate().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return seqerr.WrapAs(seqerr.KindInvalidInput, err, "invalid config")
	}
	fe := fieldErrs[0]
	return seqerr.WithSuggestion(
		seqerr.WithDetails(
			seqerr.Newf(seqerr.KindInvalidInput, "invalid config value for %s", fe.Namespace()),
			map[string]string{"field": fe.Namespace(), "rule": fe.Tag(), "value": valueString(fe.Value())},
		),
		"edit the config file or run 'seqeth config show' to see the effective values",
	)
}

func validate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	return v
}

func valueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// GetHome returns the seqeth home directory path.
func (c *Config) GetHome() string {
	return ExpandPath(c.Home)
}

// Timeout returns the per-request network timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// ReceiptRetry returns the receipt polling schedule.
func (c *Config) ReceiptRetry() chain.RetryConfig {
	return chain.RetryConfig{
		MaxAttempts: c.Receipts.PollAttempts,
		BaseDelay:   time.Duration(c.Receipts.PollBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.Receipts.PollMaxDelayMs) * time.Millisecond,
	}
}

// RateLimiter builds the limiter described by the rate_limit section.
func (c *Config) RateLimiter() *chain.RateLimiter {
	return chain.NewRateLimiter(c.Network.RateLimit.RequestsPerSecond, c.Network.RateLimit.Burst)
}

// JournalPath returns the journal file, defaulting to the home directory.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return ExpandPath(c.Journal.Path)
	}
	return filepath.Join(c.GetHome(), "journal.db")
}

// LogPath returns the log file, defaulting to the home directory.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return ExpandPath(c.Logging.File)
	}
	return filepath.Join(c.GetHome(), "seqeth.log")
}

// Token looks up a configured token by symbol, case-insensitively.
func (c *Config) Token(symbol string) (TokenConfig, bool) {
	for _, t := range c.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return TokenConfig{}, false
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// DefaultHome returns the default seqeth home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".seqeth"
	}
	return filepath.Join(home, ".seqeth")
}
