// Package validate runs each extracted record through a schema of
// field-presence, type, and range checks before it is handed to Storage.
// There is no reflection-based dispatch here: each record kind names its
// own validator function and the caller picks the right one directly,
// replacing the "call out to external validator by reflection" pattern
// the source system used.
package validate

import (
	"fmt"
	"strings"

	"github.com/boltoncivic/crawlctl/pkg/failure"
)

// MinYear and MaxYear bound every date field this package checks. A date
// outside this range is treated as a parsing artifact, not a real fact
// about the world.
const (
	MinYear = 2000
	MaxYear = 2030
)

// FieldError names the single field that failed a check, carrying enough
// detail for the parsing_error CrawlError the caller logs against the
// record's source URL.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SchemaError is the ClassifiedError produced when a record fails its
// schema and is dropped. It is always fatal for that one record: a schema
// failure reflects the record's own content, not a transient condition a
// retry would clear.
type SchemaError struct {
	Kind   string
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed schema: ", e.Kind)
	for i, fe := range e.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe.Error())
	}
	return b.String()
}

func (e *SchemaError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Outcome is the result of validating a single record of type T. Record
// always holds the trimmed/normalized copy, whether or not it is Valid, so
// a caller can log the rejection with the same cleaned field values it
// checked.
type Outcome[T any] struct {
	Record        T
	Valid         bool
	Anomaly       bool
	MissingFields []string
	Errors        []FieldError
}
