package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/timeutil"
)

// ConfigError reports an invalid or unreadable configuration. It is always
// fatal: the program should exit rather than attempt to run a crawl with a
// configuration it could not validate.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

var _ failure.ClassifiedError = (*ConfigError)(nil)

// Config is a builder-chain value covering every CLI flag and environment
// variable the crawl understands. Construct with WithDefault(...), chain
// With* overrides, then call Build().
type Config struct {
	//===============
	// Crawl scope
	//===============
	// Domain glob patterns this run is restricted to; empty means every
	// domain in the seed registry.
	domainGlobs []string
	seedFile    string

	//===============
	// Limits
	//===============
	maxDepth       int
	maxURLs        int
	perHostSoftCap int

	//===============
	// Politeness
	//===============
	workers                int
	fileWorkers            int
	baseDelay              time.Duration
	jitter                 time.Duration
	randomSeed             int64
	maxAttempt             int
	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	backoffMaxDuration     time.Duration

	//===============
	// Fetch
	//===============
	timeout      time.Duration
	userAgent    string
	maxFileSize  int64
	maxRedirects int

	//===============
	// Storage / output
	//===============
	dataDir         string
	storageKind     string
	storageDSN      string
	backpressureCap int

	//===============
	// Run mode
	//===============
	dryRun bool
	resume bool
}

type configDTO struct {
	DomainGlobs            []string      `json:"domainGlobs,omitempty"`
	SeedFile               string        `json:"seedFile,omitempty"`
	MaxDepth               int           `json:"maxDepth,omitempty"`
	MaxURLs                int           `json:"maxUrls,omitempty"`
	PerHostSoftCap         int           `json:"perHostSoftCap,omitempty"`
	Workers                int           `json:"workers,omitempty"`
	FileWorkers            int           `json:"fileWorkers,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	MaxFileSize            int64         `json:"maxFileSize,omitempty"`
	MaxRedirects           int           `json:"maxRedirects,omitempty"`
	DataDir                string        `json:"dataDir,omitempty"`
	StorageKind            string        `json:"storageKind,omitempty"`
	StorageDSN             string        `json:"storageDsn,omitempty"`
	BackpressureCap        int           `json:"backpressureCap,omitempty"`
	DryRun                 bool          `json:"dryRun,omitempty"`
	Resume                 bool          `json:"resume,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg, err := WithDefault(dto.DomainGlobs).Build()
	if err != nil {
		return Config{}, err
	}

	if dto.SeedFile != "" {
		cfg.seedFile = dto.SeedFile
	}
	if dto.MaxDepth != 0 {
		cfg.maxDepth = dto.MaxDepth
	}
	if dto.MaxURLs != 0 {
		cfg.maxURLs = dto.MaxURLs
	}
	if dto.PerHostSoftCap != 0 {
		cfg.perHostSoftCap = dto.PerHostSoftCap
	}
	if dto.Workers != 0 {
		cfg.workers = dto.Workers
	}
	if dto.FileWorkers != 0 {
		cfg.fileWorkers = dto.FileWorkers
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.MaxFileSize != 0 {
		cfg.maxFileSize = dto.MaxFileSize
	}
	if dto.MaxRedirects != 0 {
		cfg.maxRedirects = dto.MaxRedirects
	}
	if dto.DataDir != "" {
		cfg.dataDir = dto.DataDir
	}
	if dto.StorageKind != "" {
		cfg.storageKind = dto.StorageKind
	}
	if dto.StorageDSN != "" {
		cfg.storageDSN = dto.StorageDSN
	}
	if dto.BackpressureCap != 0 {
		cfg.backpressureCap = dto.BackpressureCap
	}
	cfg.dryRun = dto.DryRun
	cfg.resume = dto.Resume

	return cfg, nil
}

// WithConfigFile loads a Config from a JSON file, layered on top of
// WithDefault's values — fields absent from the file keep their default.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, &ConfigError{Message: "file does not exist", Cause: fmt.Errorf("%w: %s", ErrFileDoesNotExist, err)}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Message: "failed to read config file", Cause: fmt.Errorf("%w: %s", ErrReadConfigFail, err)}
	}

	var dto configDTO
	if err := json.Unmarshal(content, &dto); err != nil {
		return Config{}, &ConfigError{Message: "failed to parse config file", Cause: fmt.Errorf("%w: %s", ErrConfigParsingFail, err)}
	}

	return newConfigFromDTO(dto)
}

// WithDefault creates a new Config scoped to the given domain globs (empty
// means every domain in the seed registry) with every other field at its
// default. domainGlobs is validated in Build(), not here, so builder chains
// can still freely override it.
func WithDefault(domainGlobs []string) *Config {
	return &Config{
		domainGlobs:            append([]string(nil), domainGlobs...),
		seedFile:               "",
		maxDepth:               3,
		maxURLs:                0,
		perHostSoftCap:         2000,
		workers:                8,
		fileWorkers:            2,
		baseDelay:              2 * time.Second,
		jitter:                 1 * time.Second,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 2 * time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		timeout:                30 * time.Second,
		userAgent:              "boltoncivic-crawlctl/1.0 (+civic transparency crawler)",
		maxFileSize:            50 * 1024 * 1024,
		maxRedirects:           5,
		dataDir:                "data",
		storageKind:            "jsonfile",
		storageDSN:             "",
		backpressureCap:        1024,
		dryRun:                 false,
		resume:                 false,
	}
}

func (c *Config) WithDomainGlobs(globs []string) *Config {
	c.domainGlobs = globs
	return c
}

func (c *Config) WithSeedFile(path string) *Config {
	c.seedFile = path
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithMaxURLs(max int) *Config {
	c.maxURLs = max
	return c
}

func (c *Config) WithPerHostSoftCap(cap int) *Config {
	c.perHostSoftCap = cap
	return c
}

func (c *Config) WithWorkers(workers int) *Config {
	c.workers = workers
	return c
}

func (c *Config) WithFileWorkers(workers int) *Config {
	c.fileWorkers = workers
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithMaxFileSize(bytes int64) *Config {
	c.maxFileSize = bytes
	return c
}

func (c *Config) WithMaxRedirects(max int) *Config {
	c.maxRedirects = max
	return c
}

func (c *Config) WithDataDir(dir string) *Config {
	c.dataDir = dir
	return c
}

func (c *Config) WithStorageKind(kind string) *Config {
	c.storageKind = kind
	return c
}

func (c *Config) WithStorageDSN(dsn string) *Config {
	c.storageDSN = dsn
	return c
}

func (c *Config) WithBackpressureCap(backpressureCap int) *Config {
	c.backpressureCap = backpressureCap
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) WithResume(resume bool) *Config {
	c.resume = resume
	return c
}

// Build validates the accumulated settings and returns the final Config.
// A crawl with no seed data at all is a configuration error: Build does not
// itself read the seed registry (internal/seedregistry does, at load time),
// but it does refuse a run that is definitely unrunnable: a zero worker
// count or a negative max depth.
func (c *Config) Build() (Config, error) {
	if c.workers <= 0 {
		return Config{}, &ConfigError{Message: "workers must be positive", Cause: ErrInvalidConfig}
	}
	if c.fileWorkers <= 0 {
		return Config{}, &ConfigError{Message: "fileWorkers must be positive", Cause: ErrInvalidConfig}
	}
	if c.maxDepth < 0 {
		return Config{}, &ConfigError{Message: "maxDepth must be non-negative", Cause: ErrInvalidConfig}
	}
	if c.backoffMultiplier <= 0 {
		return Config{}, &ConfigError{Message: "backoffMultiplier must be positive", Cause: ErrInvalidConfig}
	}
	if c.maxFileSize <= 0 {
		return Config{}, &ConfigError{Message: "maxFileSize must be positive", Cause: ErrInvalidConfig}
	}
	return *c, nil
}

func (c Config) DomainGlobs() []string {
	out := make([]string, len(c.domainGlobs))
	copy(out, c.domainGlobs)
	return out
}

func (c Config) SeedFile() string { return c.seedFile }

func (c Config) MaxDepth() int { return c.maxDepth }

func (c Config) MaxURLs() int { return c.maxURLs }

func (c Config) PerHostSoftCap() int { return c.perHostSoftCap }

func (c Config) Workers() int { return c.workers }

func (c Config) FileWorkers() int { return c.fileWorkers }

func (c Config) BaseDelay() time.Duration { return c.baseDelay }

func (c Config) Jitter() time.Duration { return c.jitter }

func (c Config) RandomSeed() int64 { return c.randomSeed }

func (c Config) MaxAttempt() int { return c.maxAttempt }

func (c Config) BackoffInitialDuration() time.Duration { return c.backoffInitialDuration }

func (c Config) BackoffMultiplier() float64 { return c.backoffMultiplier }

func (c Config) BackoffMaxDuration() time.Duration { return c.backoffMaxDuration }

func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration)
}

func (c Config) Timeout() time.Duration { return c.timeout }

func (c Config) UserAgent() string { return c.userAgent }

func (c Config) MaxFileSize() int64 { return c.maxFileSize }

func (c Config) MaxRedirects() int { return c.maxRedirects }

func (c Config) DataDir() string { return c.dataDir }

func (c Config) StorageKind() string { return c.storageKind }

func (c Config) StorageDSN() string { return c.storageDSN }

func (c Config) BackpressureCap() int { return c.backpressureCap }

func (c Config) DryRun() bool { return c.dryRun }

func (c Config) Resume() bool { return c.resume }
