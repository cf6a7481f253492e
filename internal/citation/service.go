package citation

import (
	"sync"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// edgeKey is the (fileURL, parentPageURL) pair RecordEdge is idempotent on.
type edgeKey struct {
	fileURL   string
	parentURL string
}

// Service is the Citation Service's queryable state: every CitationEdge
// recorded so far, keyed for idempotent recording and for both query
// directions the external interface names. A single mutex is the sole
// writer gate, matching the concurrency model's "CitationEdges:
// single-writer" rule without needing its own channel-fed actor goroutine,
// since edge recording has no ordering dependency on anything else the way
// Coverage Monitor's rolling averages do.
type Service struct {
	mu    sync.RWMutex
	edges map[edgeKey]model.CitationEdge
}

// NewService builds an empty Citation Service.
func NewService() *Service {
	return &Service{edges: make(map[edgeKey]model.CitationEdge)}
}

// RecordEdge creates the CitationEdge for (fileURL, parentPageURL) on its
// first call and returns the same stored edge on every subsequent call for
// the same pair, per the "idempotent on (fileUrl, parentPageUrl)" contract.
// The edge's classification fields come from Analyze(fileURL).
func (s *Service) RecordEdge(fileURL, parentPageURL string) model.CitationEdge {
	key := edgeKey{fileURL: fileURL, parentURL: parentPageURL}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.edges[key]; ok {
		return existing
	}

	analysis := Analyze(fileURL)
	edge := model.CitationEdge{
		FileURL:            fileURL,
		ParentPageURL:      parentPageURL,
		SuggestedType:      analysis.SuggestedType,
		IsDirectFile:       analysis.IsDirectFile,
		FileType:           analysis.FileType,
		Domain:             analysis.Domain,
		IsGovernmentDomain: analysis.IsGovernmentDomain,
		RecordedAt:         time.Now(),
	}
	s.edges[key] = edge
	return edge
}

// EdgesForFile returns every recorded edge whose FileURL is fileURL, one
// per distinct citing page.
func (s *Service) EdgesForFile(fileURL string) []model.CitationEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.CitationEdge
	for k, e := range s.edges {
		if k.fileURL == fileURL {
			out = append(out, e)
		}
	}
	return out
}

// FilesForPage returns the distinct file URLs cited by parentPageURL.
func (s *Service) FilesForPage(parentPageURL string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for k := range s.edges {
		if k.parentURL != parentPageURL {
			continue
		}
		if _, ok := seen[k.fileURL]; ok {
			continue
		}
		seen[k.fileURL] = struct{}{}
		out = append(out, k.fileURL)
	}
	return out
}
