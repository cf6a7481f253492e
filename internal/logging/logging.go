// Package logging provides the crawl's structured, operator-facing output:
// one zap logger per run, plus a decorator that logs every telemetry event
// a coverage.Recorder receives on its way through to the Coverage Monitor.
//
// Nothing here feeds scheduling, retry, or abort decisions: those live in
// pkg/failure.ClassifiedError and the Coverage Monitor's in-memory state.
// A logging failure must never be able to change what the crawl does.
package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/model"
)

// NewLogger builds the run's zap.Logger. verbose switches the minimum level
// from Info to Debug; production encoding is used either way since the
// crawler runs unattended far more often than it runs interactively.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// Recorder decorates a coverage.Recorder, logging every event at the
// appropriate level before forwarding it unchanged. It exists so an
// operator tailing stdout sees failures and redirects as they happen,
// without the Coverage Monitor itself taking on logging concerns.
type Recorder struct {
	log  *zap.Logger
	next coverage.Recorder
}

func NewRecorder(log *zap.Logger, next coverage.Recorder) *Recorder {
	return &Recorder{log: log, next: next}
}

func (r *Recorder) RecordFetch(url, host string, httpStatus int, duration time.Duration, contentType string, retryCount, crawlDepth int, success bool) {
	level := r.log.Debug
	if !success {
		level = r.log.Warn
	}
	level("fetch",
		zap.String("url", url),
		zap.String("host", host),
		zap.Int("http_status", httpStatus),
		zap.Duration("duration", duration),
		zap.String("content_type", contentType),
		zap.Int("retry_count", retryCount),
		zap.Int("crawl_depth", crawlDepth),
		zap.Bool("success", success),
	)
	r.next.RecordFetch(url, host, httpStatus, duration, contentType, retryCount, crawlDepth, success)
}

func (r *Recorder) RecordError(record coverage.ErrorRecord, domain, category string, kind model.CrawlErrorType, url string) {
	fields := []zap.Field{
		zap.String("package", record.PackageName),
		zap.String("action", record.Action),
		zap.String("cause", record.Cause.String()),
		zap.String("domain", domain),
		zap.String("category", category),
		zap.String("kind", string(kind)),
		zap.String("url", url),
	}
	for _, attr := range record.Attrs {
		fields = append(fields, zap.String(string(attr.Key), attr.Value))
	}
	r.log.Warn(record.ErrorString, fields...)
	r.next.RecordError(record, domain, category, kind, url)
}

func (r *Recorder) RecordArtifact(domain, category, dataType string) {
	r.log.Debug("artifact",
		zap.String("domain", domain),
		zap.String("category", category),
		zap.String("data_type", dataType),
	)
	r.next.RecordArtifact(domain, category, dataType)
}

func (r *Recorder) RecordRedirect(oldURL, newURL string) {
	r.log.Info("redirect", zap.String("from", oldURL), zap.String("to", newURL))
	r.next.RecordRedirect(oldURL, newURL)
}

func (r *Recorder) MarkResolved(id string) {
	r.log.Debug("resolved", zap.String("id", id))
	r.next.MarkResolved(id)
}

var _ coverage.Recorder = (*Recorder)(nil)
