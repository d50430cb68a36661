// Package config loads the subwaved daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/subwave/payment/stripe"
)

// Environment variables consulted for secrets.
const (
	EnvJWTSecret    = "SUBWAVE_JWT_SECRET"
	EnvStripeAPIKey = "STRIPE_API_KEY"
)

// Store drivers.
const (
	StoreMemory  = "memory"
	StoreLevelDB = "leveldb"
)

// Lock drivers. The daemon's stores are process-local, so only the in-process
// locker is accepted. The Redis locker serializes several processes sharing a
// grove store and is wired through the Forge extension's WithLocker.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// ErrSharedLockUnsupported rejects a cross-process locker in front of a store
// only one process can open.
var ErrSharedLockUnsupported = errors.New("lock: redis locking needs a store shared across processes; use the memory locker with the daemon's stores")

// Gateway drivers.
const (
	GatewayTokenLedger = "tokenledger"
	GatewayStripe      = "stripe"
)

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return errors.New("duration must be string")
	}
	if value.Value == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// Config captures the runtime configuration for subwaved.
type Config struct {
	ListenAddress   string        `yaml:"listen"`
	ShutdownTimeout Duration      `yaml:"shutdown_timeout"`
	HookTimeout     Duration      `yaml:"hook_timeout"`
	Log             LogConfig     `yaml:"log"`
	Auth            AuthConfig    `yaml:"auth"`
	Store           StoreConfig   `yaml:"store"`
	Lock            LockConfig    `yaml:"lock"`
	Gateway         GatewayConfig `yaml:"gateway"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Issuer       string `yaml:"issuer"`
	JWTSecret    string `yaml:"jwt_secret"`
	JWTSecretEnv string `yaml:"jwt_secret_env"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LockConfig tunes the per-record locker.
type LockConfig struct {
	Driver  string   `yaml:"driver"`
	TTL     Duration `yaml:"ttl"`
	Timeout Duration `yaml:"timeout"`
}

// GatewayConfig selects the payment gateway.
type GatewayConfig struct {
	Driver    string                 `yaml:"driver"`
	Balances  []Balance              `yaml:"balances"`
	StripeKey string                 `yaml:"stripe_key"`
	StripeEnv string                 `yaml:"stripe_key_env"`
	Directory stripe.StaticDirectory `yaml:"directory"`
}

// Balance seeds the in-process token ledger.
type Balance struct {
	Holder string `yaml:"holder"`
	Mint   string `yaml:"mint"`
	Amount uint64 `yaml:"amount"`
}

// Load reads configuration from the supplied path.
func Load(path string) (Config, error) {
	cfg := Config{}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	resolveSecrets(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns a configuration for a single in-memory node.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	resolveSecrets(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	if cfg.ShutdownTimeout.Duration == 0 {
		cfg.ShutdownTimeout.Duration = 10 * time.Second
	}
	if cfg.HookTimeout.Duration == 0 {
		cfg.HookTimeout.Duration = 5 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Auth.JWTSecretEnv == "" {
		cfg.Auth.JWTSecretEnv = EnvJWTSecret
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreMemory
	}
	if cfg.Lock.Driver == "" {
		cfg.Lock.Driver = LockMemory
	}
	if cfg.Lock.TTL.Duration == 0 {
		cfg.Lock.TTL.Duration = 30 * time.Second
	}
	if cfg.Lock.Timeout.Duration == 0 {
		cfg.Lock.Timeout.Duration = 10 * time.Second
	}
	if cfg.Gateway.Driver == "" {
		cfg.Gateway.Driver = GatewayTokenLedger
	}
	if cfg.Gateway.StripeEnv == "" {
		cfg.Gateway.StripeEnv = EnvStripeAPIKey
	}
}

// resolveSecrets fills secrets from the environment when the file leaves
// them empty.
func resolveSecrets(cfg *Config) {
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = strings.TrimSpace(os.Getenv(cfg.Auth.JWTSecretEnv))
	}
	if cfg.Gateway.StripeKey == "" {
		cfg.Gateway.StripeKey = strings.TrimSpace(os.Getenv(cfg.Gateway.StripeEnv))
	}
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth: jwt secret is required (set auth.jwt_secret or %s)", c.Auth.JWTSecretEnv)
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreLevelDB:
		if c.Store.Path == "" {
			return errors.New("store: leveldb requires a path")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}
	switch c.Lock.Driver {
	case LockMemory:
	case LockRedis:
		return fmt.Errorf("%w (store driver %q)", ErrSharedLockUnsupported, c.Store.Driver)
	default:
		return fmt.Errorf("lock: unknown driver %q", c.Lock.Driver)
	}
	switch c.Gateway.Driver {
	case GatewayTokenLedger:
	case GatewayStripe:
		if c.Gateway.StripeKey == "" {
			return fmt.Errorf("gateway: stripe requires an api key (set gateway.stripe_key or %s)", c.Gateway.StripeEnv)
		}
	default:
		return fmt.Errorf("gateway: unknown driver %q", c.Gateway.Driver)
	}
	return nil
}

// SlogLevel parses the configured log level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
