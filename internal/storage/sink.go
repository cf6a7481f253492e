package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/fileutil"
	"github.com/boltoncivic/crawlctl/pkg/hashutil"
)

// filenameFor turns an arbitrary identity key into a filesystem-safe
// filename by hashing it, matching the teacher's hash-derived filename
// convention rather than sanitizing the key's raw characters.
func filenameFor(key string) string {
	h, err := hashutil.HashBytes([]byte(key), hashutil.HashAlgoSHA256)
	if err != nil {
		return "unknown"
	}
	return h[:16]
}

/*
Responsibilities
- Accept validated records from every pipeline stage and persist them
- Derive a stable dedup key per RecordKind so at-least-once delivery from
  upstream retries collapses into one stored record
- Never read back: the core's scheduling decisions depend only on the
  Coverage Monitor's in-memory state, not on what Storage contains

Output Characteristics
- Idempotent writes: re-writing the same (kind, key) updates in place
- Record-atomic: a write either lands whole or not at all, so a cancelled
  run can never leave a half-written record behind
*/

// Sink is the opaque interface the core depends on. Every concrete
// implementation must be safe for concurrent callers.
type Sink interface {
	Write(kind RecordKind, record any) (WriteResult, failure.ClassifiedError)
}

// JSONFileSink persists one JSON file per (kind, key) under outputDir,
// grouped into a subdirectory per kind. A second write to the same key
// overwrites the file in place and is reported as Deduplicated.
type JSONFileSink struct {
	mu        sync.Mutex
	outputDir string
	seen      map[RecordKind]map[string]struct{}
}

func NewJSONFileSink(outputDir string) *JSONFileSink {
	return &JSONFileSink{
		outputDir: outputDir,
		seen:      make(map[RecordKind]map[string]struct{}),
	}
}

func (s *JSONFileSink) Write(kind RecordKind, record any) (WriteResult, failure.ClassifiedError) {
	key, err := IdentityKey(kind, record)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseUnknownKind,
			Kind:      kind,
		}
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Kind:      kind,
			Key:       key,
		}
	}

	kindDir := filepath.Join(s.outputDir, string(kind))
	if classified := fileutil.EnsureDir(kindDir); classified != nil {
		return WriteResult{}, &StorageError{
			Message:   classified.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Kind:      kind,
			Key:       key,
		}
	}

	filename := filenameFor(key) + ".json"
	fullPath := filepath.Join(kindDir, filename)

	s.mu.Lock()
	dedup := s.markSeen(kind, key)
	s.mu.Unlock()

	if err := os.WriteFile(fullPath, payload, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Kind:      kind,
			Key:       key,
		}
	}

	return WriteResult{Kind: kind, Key: key, Deduplicated: dedup}, nil
}

// markSeen records key under kind and reports whether it had already been
// written earlier in this sink's lifetime.
func (s *JSONFileSink) markSeen(kind RecordKind, key string) bool {
	byKind, ok := s.seen[kind]
	if !ok {
		byKind = make(map[string]struct{})
		s.seen[kind] = byKind
	}
	_, dup := byKind[key]
	byKind[key] = struct{}{}
	return dup
}

// NullSink derives the identity key for every record but never persists
// anything, so --dry-run can exercise the full fetch/extract/validate
// chain including dedup-key derivation without writing to disk.
type NullSink struct{}

func NewNullSink() *NullSink { return &NullSink{} }

func (NullSink) Write(kind RecordKind, record any) (WriteResult, failure.ClassifiedError) {
	key, err := IdentityKey(kind, record)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseUnknownKind,
			Kind:      kind,
		}
	}
	return WriteResult{Kind: kind, Key: key}, nil
}

var _ Sink = (*NullSink)(nil)
