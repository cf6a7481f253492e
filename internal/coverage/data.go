package coverage

import (
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
)

/*
Collected

- Fetch timestamps, HTTP status codes, durations, content types
- Per-domain success/failure tallies
- Coverage of expected content against what was actually extracted

Structured logging is preferred over ad-hoc string formatting; callers pass
Attribute pairs rather than building messages themselves.
*/

// ErrorCause is a closed, canonical classification used exclusively for
// observability (logging, metrics, reporting).
//
// Rules:
//   - ErrorCause is for observability only.
//   - It must never be used to derive retry, continuation, or abort decisions;
//     that classification lives in pkg/failure.ClassifiedError instead.
//   - Pipeline packages may map their local errors to ErrorCause, but must
//     not invent new meanings.
//
// If a failure does not clearly match a defined cause, CauseUnknown must be
// used.
type ErrorCause int

const (
	// CauseUnknown is the safe fallback for unclassified failures.
	CauseUnknown ErrorCause = iota
	// CauseNetworkFailure covers transport and remote-availability failures:
	// timeouts, DNS failures, connection resets.
	CauseNetworkFailure
	// CausePolicyDisallow covers robots.txt disallow, 401/403, and rate-limit
	// enforcement.
	CausePolicyDisallow
	// CauseContentInvalid covers fetched content that could not be processed:
	// unsupported content types, empty bodies, broken markup.
	CauseContentInvalid
	// CauseStorageFailure covers failures persisting crawl artifacts.
	CauseStorageFailure
	// CauseInvariantViolation covers system-level invariant breaks.
	CauseInvariantViolation
	// CauseRetryFailure covers exhaustion of the retry budget.
	CauseRetryFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseRetryFailure:
		return "retry_failure"
	default:
		return "unknown"
	}
}

// AttributeKey names a field attached to an ErrorRecord.
type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrAssetURL   AttributeKey = "asset_url"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)

// Attribute is one key/value pair attached to an ErrorRecord. Values are
// kept as primitive strings so records serialize without custom logic.
type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{Key: key, Value: val}
}

// ErrorRecord is one observed failure, carrying enough context for a
// post-run audit without implying anything about retryability.
type ErrorRecord struct {
	PackageName string
	Action      string
	Cause       ErrorCause
	ErrorString string
	ObservedAt  time.Time
	Attrs       []Attribute
}

// fetchEvent, errorEvent, artifactEvent, redirectEvent and resolvedEvent are
// the message shapes the Monitor's single-writer goroutine drains from its
// event channel. artifactEvent feeds CoverageMetric's ActualCount.
type fetchEvent struct {
	url         string
	host        string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
	crawlDepth  int
	success     bool
}

type errorEvent struct {
	record   ErrorRecord
	domain   string
	category string
	kind     model.CrawlErrorType
	url      string
}

type artifactEvent struct {
	domain   string
	category string
	dataType string
}

type redirectEvent struct {
	oldURL string
	newURL string
}

type resolvedEvent struct {
	id string
}
