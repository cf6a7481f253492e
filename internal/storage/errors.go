package storage

import (
	"errors"
	"fmt"

	"github.com/boltoncivic/crawlctl/pkg/failure"
)

var (
	errUnknownKind = errors.New("storage: unknown record kind")
)

// StorageErrorCause classifies a write failure for observability.
type StorageErrorCause string

const (
	ErrCauseWriteFailure  StorageErrorCause = "write failed"
	ErrCauseDiskFull      StorageErrorCause = "disk is full"
	ErrCausePathError     StorageErrorCause = "path error"
	ErrCauseEncodeFailure StorageErrorCause = "encode failure"
	ErrCauseConnFailure   StorageErrorCause = "connection failure"
	ErrCauseQueryFailure  StorageErrorCause = "query failure"
	ErrCauseUnknownKind   StorageErrorCause = "unknown record kind"
)

// StorageError is the Sink's typed failure. Write failures are retryable
// only when the underlying resource (disk, connection) is plausibly
// transient; encode failures and unknown kinds never are.
type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Kind      RecordKind
	Key       string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s (kind=%s key=%s)", e.Cause, e.Kind, e.Key)
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
