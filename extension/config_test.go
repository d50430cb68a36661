package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{LockTTL: time.Minute})

	assert.Equal(t, time.Minute, cfg.LockTTL)
	assert.Equal(t, DefaultConfig().LockTimeout, cfg.LockTimeout)
	assert.Equal(t, DefaultConfig().HookTimeout, cfg.HookTimeout)
}

func TestMergeConfigurationsYAMLWins(t *testing.T) {
	yamlCfg := Config{LockTimeout: 2 * time.Second}
	progCfg := Config{LockTimeout: 7 * time.Second, LockTTL: time.Minute, DisableMigrate: true}

	cfg := mergeConfigurations(yamlCfg, progCfg)

	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, time.Minute, cfg.LockTTL)
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, DefaultConfig().HookTimeout, cfg.HookTimeout)
}

func TestBuildEngineOpts(t *testing.T) {
	e := New(WithDisableMigrate(), WithLockTTL(time.Second))
	e.config = mergeWithDefaults(e.config)

	// lock ttl, lock timeout, hook timeout, skip migrate
	assert.Len(t, e.buildEngineOpts(), 4)
}
