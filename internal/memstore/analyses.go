package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// SaveAnalysis stores an analysis run
func (s *Store) SaveAnalysis(_ context.Context, a *types.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.ID] = *a
	return nil
}

// GetAnalysis returns a stored analysis run
func (s *Store) GetAnalysis(_ context.Context, id uuid.UUID) (*types.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, &types.NotFoundError{Resource: "analysis", ID: id.String()}
	}
	return &a, nil
}

// MarkApplied records that an analysis run's decision was applied. A run can be
// applied once.
func (s *Store) MarkApplied(_ context.Context, id uuid.UUID, at time.Time, stats *types.UpdateStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok {
		return &types.NotFoundError{Resource: "analysis", ID: id.String()}
	}
	if a.AppliedAt != nil {
		return &types.ConflictError{Resource: "analysis", ID: id.String()}
	}
	a.AppliedAt = &at
	a.Statistics = stats
	s.analyses[id] = a
	return nil
}
