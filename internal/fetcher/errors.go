package fetcher

import (
	"fmt"

	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseRedirectLimitExceeded FetchErrorCause = "reached redirect limit"
	ErrCauseRequestForbidden      FetchErrorCause = "forbidden"
	ErrCauseRequestTooMany        FetchErrorCause = "too many requests"
	ErrCauseRequest5xx            FetchErrorCause = "5xx"
	ErrCauseRequestClientError    FetchErrorCause = "4xx"
	ErrCauseContentTooLarge       FetchErrorCause = "content exceeds max file size"
)

// FetchError is the Fetcher's classification of a failed attempt.
type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// Is lets errors.Is match any *FetchError without comparing fields, the same
// convention pkg/retry uses for RetryError.
func (e *FetchError) Is(target error) bool {
	_, ok := target.(*FetchError)
	return ok
}

var _ failure.ClassifiedError = (*FetchError)(nil)

// mapFetchErrorToCause maps fetcher-local error semantics to the canonical
// coverage.ErrorCause table. This mapping is observational only and must
// never be used to derive control-flow decisions.
func mapFetchErrorToCause(err *FetchError) coverage.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure:
		return coverage.CauseNetworkFailure
	case ErrCauseRequestTooMany, ErrCauseRequestForbidden:
		return coverage.CausePolicyDisallow
	case ErrCauseContentTooLarge:
		return coverage.CauseContentInvalid
	default:
		return coverage.CauseUnknown
	}
}
