// Package cmd wires the crawlctl CLI: flag/env parsing into a
// config.Config, constructing every supporting package, and running one
// crawl via internal/orchestrator.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/boltoncivic/crawlctl/internal/build"
	"github.com/boltoncivic/crawlctl/internal/config"
	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/logging"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/internal/orchestrator"
	"github.com/boltoncivic/crawlctl/internal/seedregistry"
	"github.com/boltoncivic/crawlctl/internal/storage"
)

const defaultSeedFile = "seeds.yaml"

var (
	cfgFile     string
	domainGlobs []string
	maxURLs     int
	maxDepth    int
	workers     int
	rateDelayMs int
	seedFile    string
	dryRun      bool
	resume      bool
	verbose     bool
)

// Exit codes per the CLI's external contract: 0 normal completion, 1
// configuration error, 2 cancelled, 3 fatal internal error.
const (
	exitOK            = 0
	exitConfigError   = 1
	exitCancelled     = 2
	exitInternalError = 3
)

var rootCmd = &cobra.Command{
	Use:   "crawlctl",
	Short: "Crawls council transparency websites into structured records.",
	Long: `crawlctl discovers, fetches, and classifies the documents a UK local
council publishes under its transparency obligations — spending CSVs,
budget breakdowns, planning applications, committee agendas and minutes —
and writes validated, deduplicated records to a Storage Sink.

A single run is seeded from a YAML registry of allowed domains, respects
robots.txt and per-host crawl delays, and ends with a Coverage report
naming every domain/category gap against what the registry expected.`,
	Version: build.FullVersion(),
	RunE:    runCrawl,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "JSON config file path, overrides every other flag")
	rootCmd.Flags().StringArrayVar(&domainGlobs, "domain", nil, "restrict the crawl to a domain glob (repeatable)")
	rootCmd.Flags().IntVar(&maxURLs, "max-urls", 0, "global URL cap across the whole run (0 for unlimited)")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 3, "maximum link depth from a seed URL")
	rootCmd.Flags().IntVar(&workers, "workers", 8, "number of concurrent fetch workers")
	rootCmd.Flags().IntVar(&rateDelayMs, "rate-delay", 2000, "base politeness delay per host, in milliseconds")
	rootCmd.Flags().StringVar(&seedFile, "seed-file", defaultSeedFile, "seed registry YAML file")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "exercise the full pipeline without writing to Storage")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "honor a previously persisted seen-URL snapshot")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
}

// Execute runs the root command and terminates the process with the exit
// code matching what happened, per the CLI's external contract. It is
// called by main.main and nowhere else.
func Execute() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		var cancelledErr *orchestrator.CancelledError
		switch {
		case errors.As(err, &cancelledErr):
			return exitCancelled
		case isConfigError(err):
			return exitConfigError
		default:
			return exitInternalError
		}
	}
	return exitOK
}

func isConfigError(err error) bool {
	var configErr *config.ConfigError
	return errors.As(err, &configErr)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	registry, err := seedregistry.Load(cfg.SeedFile())
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	sink, err := sinkFor(cfg)
	if err != nil {
		return err
	}

	monitor := coverage.NewMonitor(expectedCounts(registry))
	recorder := logging.NewRecorder(log, monitor)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	monitor.Start(ctx)
	defer monitor.Stop()

	o := orchestrator.New(cfg, registry, sink, recorder, monitor)
	result, runErr := o.Run(ctx)

	printReport(result.Report)

	if runErr != nil {
		return runErr
	}
	return nil
}

// expectedCounts flattens the seed registry's per-domain/category quotas
// into the "domain|category|dataType" key the Coverage Monitor indexes by.
// dataType is not known ahead of a crawl, so it is left blank: the Monitor
// treats a blank dataType as "any kind counts toward this category".
func expectedCounts(registry *seedregistry.Registry) map[string]int {
	expected := make(map[string]int)
	for _, entry := range registry.Entries() {
		expected[entry.Domain+"|"+entry.Category+"|"] = entry.ExpectedCount[entry.Category]
	}
	return expected
}

func sinkFor(cfg config.Config) (storage.Sink, error) {
	if cfg.DryRun() {
		return storage.NewNullSink(), nil
	}
	switch cfg.StorageKind() {
	case "", "jsonfile":
		return storage.NewJSONFileSink(cfg.DataDir()), nil
	case "postgres":
		pool, err := connectPostgres(cfg.StorageDSN())
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresSink(pool), nil
	default:
		return nil, &config.ConfigError{Message: fmt.Sprintf("unknown storage kind %q", cfg.StorageKind())}
	}
}

// buildConfig applies --config-file if given, otherwise builds a Config
// from flags and environment variables using the builder chain, following
// the same "file wins outright, otherwise flags/env" precedence the
// teacher's CLI uses.
func buildConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.WithConfigFile(cfgFile)
	}

	builder := config.WithDefault(domainGlobs).
		WithMaxDepth(maxDepth).
		WithWorkers(workers).
		WithBaseDelay(time.Duration(rateDelayMs) * time.Millisecond).
		WithSeedFile(seedFile).
		WithDryRun(dryRun).
		WithResume(resume)

	if maxURLs > 0 {
		builder = builder.WithMaxURLs(maxURLs)
	}
	if agent := os.Getenv("CRAWL_USER_AGENT"); agent != "" {
		builder = builder.WithUserAgent(agent)
	}
	if dataDir := os.Getenv("CRAWL_DATA_DIR"); dataDir != "" {
		builder = builder.WithDataDir(dataDir)
	}
	if maxSizeMB := os.Getenv("CRAWL_MAX_FILE_SIZE_MB"); maxSizeMB != "" {
		mb, err := strconv.ParseInt(maxSizeMB, 10, 64)
		if err != nil {
			return config.Config{}, &config.ConfigError{Message: "invalid CRAWL_MAX_FILE_SIZE_MB", Cause: err}
		}
		builder = builder.WithMaxFileSize(mb * 1024 * 1024)
	}

	return builder.Build()
}

// printReport renders the Coverage Monitor's final report to stdout as two
// tables: per-domain fetch stats, then per-category coverage against what
// the seed registry expected, recommendations last.
func printReport(report model.CoverageReport) {
	domains := table.NewWriter()
	domains.SetOutputMirror(os.Stdout)
	domains.SetTitle("Domain Stats")
	domains.AppendHeader(table.Row{"Domain", "Requests", "OK", "Failed", "Avg Response", "Last Crawled"})
	for _, d := range report.DomainStats {
		domains.AppendRow(table.Row{
			d.Domain, d.TotalRequests, d.SuccessfulRequests, d.FailedRequests,
			d.AvgResponseTime.Round(time.Millisecond), d.LastCrawled.Format(time.RFC3339),
		})
	}
	domains.Render()

	metrics := table.NewWriter()
	metrics.SetOutputMirror(os.Stdout)
	metrics.SetTitle("Coverage")
	metrics.AppendHeader(table.Row{"Domain", "Category", "Expected", "Actual", "Gap"})
	for _, m := range report.CoverageMetrics {
		metrics.AppendRow(table.Row{m.Domain, m.Category, m.ExpectedCount, m.ActualCount, m.ExpectedCount - m.ActualCount})
	}
	metrics.Render()

	if len(report.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range report.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}
