// Package verification tracks expert attestation of a talent's skill groups.
package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// Store persists verification records and their append-only assessment history
type Store interface {
	// WithinTx runs fn in one transaction scoped to a (talent, skill group) key.
	// Implementations hold a row lock on the key for the duration.
	WithinTx(ctx context.Context, talentID, skillGroupID uuid.UUID, fn func(tx Tx) error) error
	// GetVerification returns nil, nil when the key has no record
	GetVerification(ctx context.Context, talentID, skillGroupID uuid.UUID) (*types.SkillGroupVerification, error)
	ListAssessments(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillGroupAssessment, error)
}

// Tx is the transactional view of one key
type Tx interface {
	LoadVerification(ctx context.Context) (*types.SkillGroupVerification, error)
	// LatestAssessment returns the assessment with the highest sequence, or nil
	LatestAssessment(ctx context.Context) (*types.SkillGroupAssessment, error)
	DeactivateAssessment(ctx context.Context, id uuid.UUID) error
	AppendAssessment(ctx context.Context, a types.SkillGroupAssessment) error
	// SaveVerification inserts or updates the record. An update whose Version is
	// not the stored version plus one fails with *types.ConflictError.
	SaveVerification(ctx context.Context, v types.SkillGroupVerification) error
}

// ExpertDirectory answers whether an expert is assigned to a skill group
type ExpertDirectory interface {
	IsAssigned(ctx context.Context, expertID, skillGroupID uuid.UUID) (bool, error)
}

// SkillSource lists a talent's skills that belong to a skill group
type SkillSource interface {
	GroupSkills(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.GroupSkill, error)
}
