package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boltoncivic/crawlctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetPackageFlags restores every package-level flag variable to the
// default its flag is registered with in init(), mirroring what cobra would
// do between separate process invocations. Tests that mutate these vars
// must call this first.
func resetPackageFlags() {
	cfgFile = ""
	domainGlobs = nil
	maxURLs = 0
	maxDepth = 3
	workers = 8
	rateDelayMs = 2000
	seedFile = defaultSeedFile
	dryRun = false
	resume = false
	verbose = false
}

func TestBuildConfig_DefaultsWhenNoFlags(t *testing.T) {
	resetPackageFlags()
	t.Cleanup(resetPackageFlags)

	cfg, err := buildConfig()
	require.NoError(t, err)

	defaultCfg, err := config.WithDefault(nil).Build()
	require.NoError(t, err)

	assert.Equal(t, defaultCfg.MaxDepth(), cfg.MaxDepth())
	assert.Equal(t, defaultCfg.Workers(), cfg.Workers())
	assert.False(t, cfg.DryRun())
	assert.False(t, cfg.Resume())
}

func TestBuildConfig_FlagsOverrideDefaults(t *testing.T) {
	resetPackageFlags()
	t.Cleanup(resetPackageFlags)

	domainGlobs = []string{"*.bolton.gov.uk"}
	maxDepth = 5
	workers = 16
	rateDelayMs = 500
	seedFile = "custom-seeds.yaml"
	dryRun = true
	resume = true

	cfg, err := buildConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"*.bolton.gov.uk"}, cfg.DomainGlobs())
	assert.Equal(t, 5, cfg.MaxDepth())
	assert.Equal(t, 16, cfg.Workers())
	assert.Equal(t, "custom-seeds.yaml", cfg.SeedFile())
	assert.True(t, cfg.DryRun())
	assert.True(t, cfg.Resume())
}

func TestBuildConfig_MaxURLsOnlyAppliedWhenPositive(t *testing.T) {
	resetPackageFlags()
	t.Cleanup(resetPackageFlags)

	cfg, err := buildConfig()
	require.NoError(t, err)
	defaultCfg, err := config.WithDefault(nil).Build()
	require.NoError(t, err)
	assert.Equal(t, defaultCfg.MaxURLs(), cfg.MaxURLs())

	resetPackageFlags()
	maxURLs = 250
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.MaxURLs())
}

func TestBuildConfig_EnvVarsOverrideWhenSet(t *testing.T) {
	resetPackageFlags()
	t.Cleanup(resetPackageFlags)

	t.Setenv("CRAWL_USER_AGENT", "crawlctl-test/1.0")
	t.Setenv("CRAWL_DATA_DIR", t.TempDir())
	t.Setenv("CRAWL_MAX_FILE_SIZE_MB", "42")

	cfg, err := buildConfig()
	require.NoError(t, err)

	assert.Equal(t, "crawlctl-test/1.0", cfg.UserAgent())
	assert.Equal(t, int64(42*1024*1024), cfg.MaxFileSize())
}

func TestBuildConfig_InvalidMaxFileSizeEnvReturnsConfigError(t *testing.T) {
	resetPackageFlags()
	t.Cleanup(resetPackageFlags)

	t.Setenv("CRAWL_MAX_FILE_SIZE_MB", "not-a-number")

	_, err := buildConfig()
	require.Error(t, err)
	assert.True(t, isConfigError(err))
}

func TestBuildConfig_ConfigFileTakesPrecedenceOverFlags(t *testing.T) {
	resetPackageFlags()
	t.Cleanup(resetPackageFlags)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"maxDepth": 9, "workers": 3}`), 0o644))

	cfgFile = path
	maxDepth = 99
	workers = 99

	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxDepth())
	assert.Equal(t, 3, cfg.Workers())
}

func TestSinkFor_DryRunReturnsNullSinkRegardlessOfStorageKind(t *testing.T) {
	cfg, err := config.WithDefault(nil).WithDryRun(true).WithStorageKind("postgres").Build()
	require.NoError(t, err)

	sink, err := sinkFor(cfg)
	require.NoError(t, err)
	assert.NotNil(t, sink)
}

func TestSinkFor_DefaultKindIsJSONFile(t *testing.T) {
	cfg, err := config.WithDefault(nil).WithDataDir(t.TempDir()).Build()
	require.NoError(t, err)

	sink, err := sinkFor(cfg)
	require.NoError(t, err)
	assert.NotNil(t, sink)
}

func TestSinkFor_UnknownStorageKindIsConfigError(t *testing.T) {
	cfg, err := config.WithDefault(nil).WithStorageKind("carrier-pigeon").Build()
	require.NoError(t, err)

	_, err = sinkFor(cfg)
	require.Error(t, err)
	assert.True(t, isConfigError(err))
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, isConfigError(&config.ConfigError{Message: "bad"}))
	assert.False(t, isConfigError(nil))
	assert.False(t, isConfigError(os.ErrNotExist))
}
