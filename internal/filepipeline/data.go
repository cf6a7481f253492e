package filepipeline

import (
	"fmt"

	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/failure"
)

// FileErrorCause enumerates why Resolve could not turn a fetched resource
// into a FileArtifact.
type FileErrorCause string

const (
	ErrCauseNotAFile    FileErrorCause = "not a file resource"
	ErrCauseOverSize    FileErrorCause = "over size limit"
	ErrCauseHashError   FileErrorCause = "hash error"
	ErrCauseWriteFailure FileErrorCause = "write failure"
	ErrCausePathError   FileErrorCause = "path error"
)

// FileError is the Pipeline's ClassifiedError. None of its causes are
// retryable: every one reflects the fetched bytes themselves, not a
// transient condition a retry would clear.
type FileError struct {
	Message string
	Cause   FileErrorCause
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file pipeline error: %s: %s", e.Cause, e.Message)
}

func (e *FileError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *FileError) Is(target error) bool {
	_, ok := target.(*FileError)
	return ok
}

// ResolveParam configures where Resolve writes files and how large one may
// be, mirroring the teacher's assets.ResolveParam split between output
// directory and size ceiling.
type ResolveParam struct {
	OutputDir   string
	MaxFileSize int64
}

func NewResolveParam(outputDir string, maxFileSize int64) ResolveParam {
	return ResolveParam{OutputDir: outputDir, MaxFileSize: maxFileSize}
}

// Result is what Resolve hands back: the artifact and citation edge record,
// whether the bytes were already known (content-hash dedup), and where on
// disk the bytes live (empty when deduplicated against a prior write).
type Result struct {
	Artifact     model.FileArtifact
	Edge         model.CitationEdge
	Deduplicated bool
	LocalPath    string
	ContentHash  string
}
