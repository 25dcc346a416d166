package verification

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/locking"
	"github.com/jonathan/talent-reconciler/internal/types"
	"go.uber.org/zap"
)

// Options configures a Machine
type Options struct {
	Locker locking.Locker
	Now    func() time.Time
	NewID  func() uuid.UUID
	Logger *zap.Logger
}

// Machine runs verification transitions. Transitions on one (talent, skill
// group) are serialized through the locker and run in a single store transaction.
type Machine struct {
	store   Store
	experts ExpertDirectory
	skills  SkillSource
	locker  locking.Locker
	now     func() time.Time
	newID   func() uuid.UUID
	logger  *zap.Logger
}

// NewMachine creates a machine. Without a locker an in-process keyed mutex is used.
func NewMachine(store Store, experts ExpertDirectory, skills SkillSource, opts Options) *Machine {
	m := &Machine{
		store:   store,
		experts: experts,
		skills:  skills,
		locker:  opts.Locker,
		now:     opts.Now,
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
	if m.locker == nil {
		m.locker = locking.NewKeyedMutex()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.New
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

func lockKey(talentID, skillGroupID uuid.UUID) string {
	return fmt.Sprintf("skill-group-verification:%s:%s", talentID, skillGroupID)
}

// Verify records an expert's pass/fail judgment. The request is validated first,
// then the expert's assignment to the group is checked; either failure leaves
// the record untouched.
func (m *Machine) Verify(ctx context.Context, req types.VerifyRequest) (*types.SkillGroupVerification, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	assigned, err := m.experts.IsAssigned(ctx, req.ExpertID, req.SkillGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to check expert assignment: %w", err)
	}
	if !assigned {
		return nil, &types.AuthorizationError{ExpertID: req.ExpertID, SkillGroupID: req.SkillGroupID}
	}

	record, err := m.transition(ctx, Event{
		Kind:         EventVerify,
		TalentID:     req.TalentID,
		SkillGroupID: req.SkillGroupID,
		ExpertID:     req.ExpertID,
		Result:       req.Result,
		Note:         req.Note,
	}, req.SnapshotEnabled)
	if err != nil {
		return nil, err
	}

	m.logger.Info("skill group verified",
		zap.String("talent_id", req.TalentID.String()),
		zap.String("skill_group_id", req.SkillGroupID.String()),
		zap.String("expert_id", req.ExpertID.String()),
		zap.String("result", string(req.Result)),
	)
	return record, nil
}

// Invalidate withdraws the current verification without an expert judgment
func (m *Machine) Invalidate(ctx context.Context, req types.InvalidateRequest) (*types.SkillGroupVerification, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record, err := m.transition(ctx, Event{
		Kind:         EventInvalidate,
		TalentID:     req.TalentID,
		SkillGroupID: req.SkillGroupID,
		Reason:       req.Reason,
	}, false)
	if err != nil {
		return nil, err
	}

	m.logger.Info("skill group invalidated",
		zap.String("talent_id", req.TalentID.String()),
		zap.String("skill_group_id", req.SkillGroupID.String()),
		zap.String("reason", req.Reason),
	)
	return record, nil
}

// transition applies ev under the key lock. The assessment time is taken before
// the skill snapshot is read, so a skill write the snapshot misses carries a
// later timestamp and shows up as needing reverification.
func (m *Machine) transition(ctx context.Context, ev Event, snapshot bool) (*types.SkillGroupVerification, error) {
	unlock, err := m.locker.Lock(ctx, lockKey(ev.TalentID, ev.SkillGroupID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock skill group: %w", err)
	}
	defer unlock()

	at := m.now().UTC()
	if snapshot {
		ev.Snapshot, err = m.snapshot(ctx, ev.TalentID, ev.SkillGroupID)
		if err != nil {
			return nil, err
		}
	}

	var saved types.SkillGroupVerification
	err = m.store.WithinTx(ctx, ev.TalentID, ev.SkillGroupID, func(tx Tx) error {
		current, err := tx.LoadVerification(ctx)
		if err != nil {
			return fmt.Errorf("failed to load verification: %w", err)
		}
		latest, err := tx.LatestAssessment(ctx)
		if err != nil {
			return fmt.Errorf("failed to load latest assessment: %w", err)
		}

		ev.At = at
		ev.AssessmentID = m.newID()
		out, err := Transition(current, latest, ev)
		if err != nil {
			return err
		}

		if out.Deactivate != nil {
			if err := tx.DeactivateAssessment(ctx, *out.Deactivate); err != nil {
				return fmt.Errorf("failed to deactivate assessment: %w", err)
			}
		}
		if err := tx.AppendAssessment(ctx, out.Append); err != nil {
			return fmt.Errorf("failed to append assessment: %w", err)
		}
		if err := tx.SaveVerification(ctx, out.Record); err != nil {
			return fmt.Errorf("failed to save verification: %w", err)
		}
		saved = out.Record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (m *Machine) snapshot(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillSnapshotItem, error) {
	skills, err := m.skills.GroupSkills(ctx, talentID, skillGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group skills: %w", err)
	}
	items := make([]types.SkillSnapshotItem, 0, len(skills))
	for _, s := range skills {
		items = append(items, types.SkillSnapshotItem{
			SkillID:  s.SkillID,
			Name:     s.Name,
			Level:    s.Level,
			YearsExp: s.YearsExp,
		})
	}
	return items, nil
}

// Status returns the verification record with needsReverification computed from
// the group's current skills. A key with no record reads as unverified.
func (m *Machine) Status(ctx context.Context, talentID, skillGroupID uuid.UUID) (*types.SkillGroupVerification, error) {
	if err := requireKey(talentID, skillGroupID); err != nil {
		return nil, err
	}

	record, err := m.store.GetVerification(ctx, talentID, skillGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	var skills []types.GroupSkill
	if record != nil && record.IsVerified {
		skills, err = m.skills.GroupSkills(ctx, talentID, skillGroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to load group skills: %w", err)
		}
	}

	status := Derive(record, talentID, skillGroupID, skills)
	return &status, nil
}

// History returns every assessment of the key, most recent first
func (m *Machine) History(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillGroupAssessment, error) {
	if err := requireKey(talentID, skillGroupID); err != nil {
		return nil, err
	}

	history, err := m.store.ListAssessments(ctx, talentID, skillGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	SortHistory(history)
	return history, nil
}

// SortHistory orders assessments by date descending, newest sequence first on ties
func SortHistory(history []types.SkillGroupAssessment) {
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i], history[j]
		if !a.AssessmentDate.Equal(b.AssessmentDate) {
			return a.AssessmentDate.After(b.AssessmentDate)
		}
		return a.Sequence > b.Sequence
	})
}

func requireKey(talentID, skillGroupID uuid.UUID) error {
	if talentID == uuid.Nil {
		return &types.ValidationError{Field: "talent_id", Message: "is required"}
	}
	if skillGroupID == uuid.Nil {
		return &types.ValidationError{Field: "skill_group_id", Message: "is required"}
	}
	return nil
}
