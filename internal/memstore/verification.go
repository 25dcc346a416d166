package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/jonathan/talent-reconciler/internal/verification"
)

var _ verification.Store = (*Store)(nil)

func (s *Store) keyLock(key verificationKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[key] = l
	}
	return l
}

// WithinTx runs fn against a working copy of one key's record and history and
// commits both when fn returns nil
func (s *Store) WithinTx(ctx context.Context, talentID, skillGroupID uuid.UUID, fn func(tx verification.Tx) error) error {
	key := verificationKey{talentID: talentID, skillGroupID: skillGroupID}
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	tx := &verificationTx{key: key, history: append([]types.SkillGroupAssessment(nil), s.assessments[key]...)}
	if v, ok := s.verifications[key]; ok {
		tx.stored = &v
		cp := v
		tx.record = &cp
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.record != nil {
		s.verifications[key] = *tx.record
	}
	s.assessments[key] = tx.history
	return nil
}

// GetVerification returns nil, nil when the key has no record
func (s *Store) GetVerification(_ context.Context, talentID, skillGroupID uuid.UUID) (*types.SkillGroupVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[verificationKey{talentID: talentID, skillGroupID: skillGroupID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// ListAssessments returns the key's history in insertion order
func (s *Store) ListAssessments(_ context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillGroupAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.SkillGroupAssessment(nil), s.assessments[verificationKey{talentID: talentID, skillGroupID: skillGroupID}]...), nil
}

type verificationTx struct {
	key     verificationKey
	stored  *types.SkillGroupVerification
	record  *types.SkillGroupVerification
	history []types.SkillGroupAssessment
}

func (t *verificationTx) LoadVerification(_ context.Context) (*types.SkillGroupVerification, error) {
	if t.record == nil {
		return nil, nil
	}
	v := *t.record
	return &v, nil
}

func (t *verificationTx) LatestAssessment(_ context.Context) (*types.SkillGroupAssessment, error) {
	var latest *types.SkillGroupAssessment
	for i := range t.history {
		if latest == nil || t.history[i].Sequence > latest.Sequence {
			latest = &t.history[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	a := *latest
	return &a, nil
}

func (t *verificationTx) DeactivateAssessment(_ context.Context, id uuid.UUID) error {
	for i := range t.history {
		if t.history[i].ID == id {
			t.history[i].IsActive = false
			return nil
		}
	}
	return &types.NotFoundError{Resource: "skill_group_assessment", ID: id.String()}
}

func (t *verificationTx) AppendAssessment(_ context.Context, a types.SkillGroupAssessment) error {
	if a.IsActive {
		for _, h := range t.history {
			if h.IsActive {
				return &types.ConflictError{Resource: "skill_group_assessment", ID: h.ID.String()}
			}
		}
	}
	t.history = append(t.history, a)
	return nil
}

func (t *verificationTx) SaveVerification(_ context.Context, v types.SkillGroupVerification) error {
	var want int64 = 1
	if t.stored != nil {
		want = t.stored.Version + 1
	}
	if v.Version != want {
		return &types.ConflictError{
			Resource: "skill_group_verification",
			ID:       fmt.Sprintf("%s/%s", t.key.talentID, t.key.skillGroupID),
		}
	}
	t.record = &v
	return nil
}
