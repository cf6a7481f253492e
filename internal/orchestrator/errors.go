package orchestrator

import "github.com/boltoncivic/crawlctl/pkg/failure"

// CancelledError is returned by Run when ctx is cancelled before the
// frontier drains on its own. It is recoverable in the failure.Severity
// sense (a cancelled run is a normal outcome, not an internal fault) but
// the CLI layer maps it to its own dedicated exit code rather than the
// generic error one.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "crawl cancelled"
	}
	return "crawl cancelled: " + e.Reason
}

func (e *CancelledError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

var _ failure.ClassifiedError = (*CancelledError)(nil)
