// Package extension provides the Forge extension adapter for subwave.
//
// It implements the forge.Extension interface to integrate the subscription
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.subwave" or "subwave" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/store"
	"github.com/xraph/subwave/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "subwave"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Recurring payment subscriptions with time-boxed entitlement"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts subwave as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *subwave.Engine
	store      store.Store
	engineOpts []subwave.Option
}

// New creates a new subwave Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *subwave.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = subwave.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*subwave.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("subwave: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("subwave: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs subwave.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []subwave.Option {
	opts := make([]subwave.Option, 0, len(e.engineOpts)+4)

	if e.config.LockTTL > 0 {
		opts = append(opts, subwave.WithLockTTL(e.config.LockTTL))
	}
	if e.config.LockTimeout > 0 {
		opts = append(opts, subwave.WithLockTimeout(e.config.LockTimeout))
	}
	if e.config.HookTimeout > 0 {
		opts = append(opts, subwave.WithHookTimeout(e.config.HookTimeout))
	}
	if e.config.DisableMigrate {
		opts = append(opts, subwave.WithoutMigrate())
	}

	// Pass-through options go last so they win.
	return append(opts, e.engineOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("subwave: configuration is required but not found in config files; " +
				"ensure 'extensions.subwave' or 'subwave' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("subwave: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("lock_ttl", e.config.LockTTL),
		forge.F("lock_timeout", e.config.LockTimeout),
		forge.F("hook_timeout", e.config.HookTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.subwave", "subwave"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("subwave: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("subwave: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = defaults.LockTimeout
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.LockTTL == 0 {
		yamlConfig.LockTTL = programmaticConfig.LockTTL
	}
	if yamlConfig.LockTimeout == 0 {
		yamlConfig.LockTimeout = programmaticConfig.LockTimeout
	}
	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	return mergeWithDefaults(yamlConfig)
}
