package orchestrator_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boltoncivic/crawlctl/internal/config"
	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/orchestrator"
	"github.com/boltoncivic/crawlctl/internal/seedregistry"
	"github.com/boltoncivic/crawlctl/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const htmlSeedPage = `<!DOCTYPE html>
<html><head><title>Transparency Home</title></head>
<body>
<a href="/spending.csv">Spending data</a>
<a href="http://external.example.org/other.html">External link</a>
</body></html>`

const spendingCSV = "Date,Supplier,Department,Amount,Description\n" +
	"01/06/2025,Acme Ltd,Highways,£1250.00,Road resurfacing\n" +
	"15/07/2025,Beta Supplies,Parks,£300.50,Bench repair\n"

func newCrawlableServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(htmlSeedPage))
	})
	mux.HandleFunc("/spending.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(spendingCSV))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func registryFor(t *testing.T, server *httptest.Server) *seedregistry.Registry {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "seeds.yaml")
	content := fmt.Sprintf(`domains:
  - domain: %s
    categories:
      - category: transparency
        expected: 10
        seeds:
          - %s/
`, u.Hostname(), server.URL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := seedregistry.Load(path)
	require.NoError(t, err)
	return reg
}

func testConfig(t *testing.T, dataDir string) config.Config {
	t.Helper()
	cfg, err := config.WithDefault(nil).
		WithBaseDelay(0).
		WithJitter(0).
		WithWorkers(2).
		WithFileWorkers(1).
		WithMaxDepth(2).
		WithDataDir(dataDir).
		Build()
	require.NoError(t, err)
	return cfg
}

// newOrchestrator wires a real Orchestrator against a local httptest server,
// with a real robots.Checker, frontier, file pipeline, and JSONFileSink, the
// same way the CLI layer wires one. Nothing about fetch/file processing is
// faked; only the network endpoint is local.
func newOrchestrator(t *testing.T, registry *seedregistry.Registry, dataDir string) (*orchestrator.Orchestrator, *coverage.Monitor) {
	t.Helper()
	cfg := testConfig(t, dataDir)
	sink := storage.NewJSONFileSink(dataDir)
	monitor := coverage.NewMonitor(nil)
	return orchestrator.New(cfg, registry, sink, monitor, monitor), monitor
}

func TestRun_CrawlsSeedPageAndDiscoveredCSV(t *testing.T) {
	server := newCrawlableServer(t)
	registry := registryFor(t, server)
	dataDir := t.TempDir()
	o, monitor := newOrchestrator(t, registry, dataDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	monitor.Start(ctx)
	defer monitor.Stop()

	result, err := o.Run(ctx)
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	assert.Equal(t, 0, result.TotalErrors)

	var sawPage, sawFileArtifact, sawSpending bool
	for _, wr := range result.WriteResults {
		switch wr.Kind {
		case storage.KindPageRecord:
			sawPage = true
		case storage.KindFileArtifact:
			sawFileArtifact = true
		case storage.KindSpendingRecord:
			sawSpending = true
		}
	}
	assert.True(t, sawPage, "expected the seed page to be stored")
	assert.True(t, sawFileArtifact, "expected the linked CSV to be stored as a file artifact")
	assert.True(t, sawSpending, "expected the CSV's spending rows to be extracted")
	assert.False(t, result.Report.GeneratedAt.IsZero())
}

func TestRun_RobotsDisallowDropsSeedSilently(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(htmlSeedPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	registry := registryFor(t, server)
	dataDir := t.TempDir()
	o, monitor := newOrchestrator(t, registry, dataDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	monitor.Start(ctx)
	defer monitor.Stop()

	result, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalErrors, "a robots disallow is a normal outcome, not an error")

	for _, wr := range result.WriteResults {
		assert.NotEqual(t, storage.KindPageRecord, wr.Kind, "a disallowed seed must never be fetched")
	}
}

func TestRun_ContextCancelledReturnsCancelledError(t *testing.T) {
	server := newCrawlableServer(t)
	registry := registryFor(t, server)
	dataDir := t.TempDir()
	o, monitor := newOrchestrator(t, registry, dataDir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	monitor.Start(ctx)
	defer monitor.Stop()

	result, err := o.Run(ctx)
	require.Error(t, err)
	assert.True(t, result.Cancelled)

	var cancelledErr *orchestrator.CancelledError
	assert.ErrorAs(t, err, &cancelledErr)
}
