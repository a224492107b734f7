package memory

import (
	"context"
	"sort"
	"sync"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.AnalysisRecord // keyed by analysis_id
	byCode map[string]string                 // short_code -> analysis_id
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		data:   make(map[string]*domain.AnalysisRecord),
		byCode: make(map[string]string),
	}
}

// Insert adds a new analysis. Returns ErrDuplicateKey if analysis_id
// or short_code exists.
func (s *AnalysisStore) Insert(_ context.Context, rec *domain.AnalysisRecord) error {
	if rec == nil || rec.AnalysisID == "" || rec.ShortCode == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.AnalysisID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byCode[rec.ShortCode]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recCopy := *rec
	s.data[rec.AnalysisID] = &recCopy
	s.byCode[rec.ShortCode] = rec.AnalysisID
	return nil
}

// GetByID retrieves an analysis by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(_ context.Context, analysisID string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[analysisID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// GetByShortCode retrieves an analysis by its share code. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByShortCode(_ context.Context, shortCode string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	analysisID, exists := s.byCode[shortCode]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *s.data[analysisID]
	return &recCopy, nil
}

// LatestForToken retrieves the most recent analysis for a token address.
func (s *AnalysisStore) LatestForToken(_ context.Context, tokenAddress string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.AnalysisRecord
	for _, rec := range s.data {
		if rec.TokenAddress != tokenAddress {
			continue
		}
		if best == nil || rec.GeneratedAt > best.GeneratedAt ||
			(rec.GeneratedAt == best.GeneratedAt && rec.AnalysisID < best.AnalysisID) {
			best = rec
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}

	recCopy := *best
	return &recCopy, nil
}

// ListRecent retrieves up to limit analyses, newest first.
func (s *AnalysisStore) ListRecent(_ context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AnalysisRecord, 0, len(s.data))
	for _, rec := range s.data {
		recCopy := *rec
		result = append(result, &recCopy)
	}

	// Sort by generated_at DESC, analysis_id ASC for a stable order
	sort.Slice(result, func(i, j int) bool {
		if result[i].GeneratedAt != result[j].GeneratedAt {
			return result[i].GeneratedAt > result[j].GeneratedAt
		}
		return result[i].AnalysisID < result[j].AnalysisID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the total number of stored analyses.
func (s *AnalysisStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data)), nil
}

// Verify interface compliance at compile time.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)
