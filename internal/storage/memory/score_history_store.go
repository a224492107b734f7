package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bsc-token-sentinel/internal/domain"
	"bsc-token-sentinel/internal/storage"
)

// ScoreHistoryStore is an in-memory implementation of storage.ScoreHistoryStore.
type ScoreHistoryStore struct {
	mu     sync.RWMutex
	points []*domain.ScorePoint
	seen   map[string]bool // "token_address|generated_at" -> true
}

// NewScoreHistoryStore creates a new in-memory score history store.
func NewScoreHistoryStore() *ScoreHistoryStore {
	return &ScoreHistoryStore{
		seen: make(map[string]bool),
	}
}

func pointKey(p *domain.ScorePoint) string {
	return fmt.Sprintf("%s|%d", p.TokenAddress, p.GeneratedAt)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate
// (token_address, generated_at).
func (s *ScoreHistoryStore) InsertBulk(_ context.Context, points []*domain.ScorePoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject the whole batch before storing anything
	batch := make(map[string]bool, len(points))
	for _, p := range points {
		key := pointKey(p)
		if s.seen[key] || batch[key] {
			return storage.ErrDuplicateKey
		}
		batch[key] = true
	}

	for _, p := range points {
		pointCopy := *p
		s.points = append(s.points, &pointCopy)
		s.seen[pointKey(p)] = true
	}
	return nil
}

// GetByToken retrieves all points for a token, ordered by generated_at ASC.
func (s *ScoreHistoryStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.ScorePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScorePoint
	for _, p := range s.points {
		if p.TokenAddress == tokenAddress {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt < result[j].GeneratedAt
	})
	return result, nil
}

// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
func (s *ScoreHistoryStore) GetByTimeRange(_ context.Context, tokenAddress string, start, end int64) ([]*domain.ScorePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScorePoint
	for _, p := range s.points {
		if p.TokenAddress != tokenAddress {
			continue
		}
		if p.GeneratedAt < start || p.GeneratedAt > end {
			continue
		}
		pointCopy := *p
		result = append(result, &pointCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt < result[j].GeneratedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)
