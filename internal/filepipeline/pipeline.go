// Package filepipeline turns a fetched non-HTML resource (a PDF, CSV, Excel
// or text file already in a model.FetchResult) into a model.FileArtifact and
// a model.CitationEdge, writing the bytes to disk once per distinct content
// hash. It is the crawler's equivalent of the teacher's assets.Resolver,
// generalized from "markdown image" to "tabular/PDF/text data file".
package filepipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boltoncivic/crawlctl/internal/citation"
	"github.com/boltoncivic/crawlctl/internal/classify"
	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/failure"
	"github.com/boltoncivic/crawlctl/pkg/fileutil"
	"github.com/boltoncivic/crawlctl/pkg/hashutil"
)

// extensionFor maps a ResourceKind to the extension its written copy gets on
// disk; content-type and URL suffix already disagree often enough in the
// wild that the artifact's own kind is the more reliable source.
var extensionFor = map[model.ResourceKind]string{
	model.ResourcePDF:  ".pdf",
	model.ResourceCSV:  ".csv",
	model.ResourceExcel: ".xlsx",
	model.ResourceText: ".txt",
}

// Pipeline resolves fetched resources into written, deduplicated file
// artifacts. A single Pipeline is shared across workers; writtenHashes
// guards the one piece of mutable state (content-hash -> local path) the
// same way the teacher's LocalResolver guards writtenAssets/hashToPath.
type Pipeline struct {
	mu           sync.Mutex
	writtenHashes map[string]string
	recorder     coverage.Recorder
}

// NewPipeline constructs a Pipeline. recorder may be nil in tests that don't
// care about coverage bookkeeping.
func NewPipeline(recorder coverage.Recorder) *Pipeline {
	return &Pipeline{
		writtenHashes: make(map[string]string),
		recorder:      recorder,
	}
}

// Resolve classifies result, writes its bytes to outputDir/files once per
// distinct content hash, and returns the resulting FileArtifact and
// CitationEdge. result must already be classified as a non-HTML resource;
// calling Resolve on an HTML page or ResourceOther is a caller error.
func (p *Pipeline) Resolve(result model.FetchResult, parentPageURL, category string, param ResolveParam) (Result, failure.ClassifiedError) {
	kind := classify.Classify(result)
	ext, ok := extensionFor[kind]
	if !ok {
		return Result{}, &FileError{
			Message: fmt.Sprintf("resource kind %q is not a file", kind),
			Cause:   ErrCauseNotAFile,
		}
	}

	if param.MaxFileSize > 0 && int64(len(result.Body)) > param.MaxFileSize {
		return Result{}, &FileError{
			Message: fmt.Sprintf("%d bytes exceeds limit of %d", len(result.Body), param.MaxFileSize),
			Cause:   ErrCauseOverSize,
		}
	}

	contentHash, err := hashutil.HashBytes(result.Body, hashutil.HashAlgoBLAKE3)
	if err != nil {
		return Result{}, &FileError{Message: err.Error(), Cause: ErrCauseHashError}
	}

	fileURL := result.FinalURL
	if fileURL == "" {
		fileURL = result.URL
	}
	analysis := citation.Analyze(fileURL)
	domain := analysis.Domain

	p.mu.Lock()
	localPath, alreadyWritten := p.writtenHashes[contentHash]
	if !alreadyWritten {
		localPath, err = p.writeFile(param.OutputDir, contentHash, ext, result.Body)
		if err != nil {
			p.mu.Unlock()
			return Result{}, err
		}
		p.writtenHashes[contentHash] = localPath
	}
	p.mu.Unlock()

	artifact := model.FileArtifact{
		FileURL:       fileURL,
		ParentPageURL: parentPageURL,
		FileType:      string(kind),
		FileSize:      int64(len(result.Body)),
		Category:      category,
	}
	edge := model.CitationEdge{
		FileURL:            fileURL,
		ParentPageURL:      parentPageURL,
		SuggestedType:      analysis.SuggestedType,
		IsDirectFile:       true,
		FileType:           string(kind),
		Domain:             analysis.Domain,
		IsGovernmentDomain: analysis.IsGovernmentDomain,
		RecordedAt:         time.Now(),
	}

	if !alreadyWritten && p.recorder != nil {
		p.recorder.RecordArtifact(domain, category, string(kind))
	}

	return Result{
		Artifact:     artifact,
		Edge:         edge,
		Deduplicated: alreadyWritten,
		LocalPath:    localPath,
		ContentHash:  contentHash,
	}, nil
}

func (p *Pipeline) writeFile(outputDir, contentHash, ext string, data []byte) (string, *FileError) {
	filesDir := filepath.Join(outputDir, "files")
	if ferr := fileutil.EnsureDir(filesDir); ferr != nil {
		return "", &FileError{Message: ferr.Error(), Cause: ErrCausePathError}
	}

	localPath := filepath.Join(filesDir, contentHash+ext)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", &FileError{Message: err.Error(), Cause: ErrCauseWriteFailure}
	}
	return localPath, nil
}
