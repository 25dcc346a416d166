package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// VerificationState is the tagged state of a skill group verification
type VerificationState string

// Verification states. NeedsReverification is derived on read and never stored.
const (
	StateUnverified          VerificationState = "unverified"
	StateVerified            VerificationState = "verified"
	StateInvalid             VerificationState = "invalid"
	StateNeedsReverification VerificationState = "needs_reverification"
)

// AssessmentResult is an expert's pass/fail judgment
type AssessmentResult string

// Assessment results
const (
	AssessmentPass AssessmentResult = "pass"
	AssessmentFail AssessmentResult = "fail"
)

// AssessmentKind distinguishes expert judgments from system-authored history lines
type AssessmentKind string

// Assessment kinds
const (
	AssessmentKindExpert             AssessmentKind = "expert"
	AssessmentKindSystemInvalidation AssessmentKind = "system_invalidation"
)

// InvalidationNotePrefix marks system-authored invalidation lines in a note trail
const InvalidationNotePrefix = "Invalidated: "

// SkillSnapshotItem is one skill frozen at verification time
type SkillSnapshotItem struct {
	SkillID  uuid.UUID  `json:"skill_id"`
	Name     string     `json:"name"`
	Level    SkillLevel `json:"level"`
	YearsExp *float64   `json:"years_exp,omitempty"`
}

// SkillGroupVerification is the verification record of one (talent, skill group)
type SkillGroupVerification struct {
	TalentID               uuid.UUID         `json:"talent_id"`
	SkillGroupID           uuid.UUID         `json:"skill_group_id"`
	State                  VerificationState `json:"state"`
	IsVerified             bool              `json:"is_verified"`
	LastVerifiedDate       *time.Time        `json:"last_verified_date,omitempty"`
	LastVerifiedByExpertID *uuid.UUID        `json:"last_verified_by_expert_id,omitempty"`
	NeedsReverification    bool              `json:"needs_reverification"`
	Reason                 string            `json:"reason,omitempty"`
	ChangedSkills          []string          `json:"changed_skills,omitempty"`
	Version                int64             `json:"version"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// SkillGroupAssessment is one append-only audit record
type SkillGroupAssessment struct {
	ID             uuid.UUID           `json:"id"`
	SkillGroupID   uuid.UUID           `json:"skill_group_id"`
	TalentID       uuid.UUID           `json:"talent_id"`
	ExpertID       *uuid.UUID          `json:"expert_id,omitempty"`
	Kind           AssessmentKind      `json:"kind"`
	AssessmentDate time.Time           `json:"assessment_date"`
	IsVerified     bool                `json:"is_verified"`
	IsActive       bool                `json:"is_active"`
	Note           string              `json:"note"`
	SkillSnapshot  []SkillSnapshotItem `json:"skill_snapshot,omitempty"`
	Sequence       int64               `json:"sequence"`
}

// GroupSkill is a talent skill that belongs to a skill group, with the timestamps
// reverification is computed from
type GroupSkill struct {
	SkillID   uuid.UUID  `json:"skill_id"`
	Name      string     `json:"name"`
	Level     SkillLevel `json:"level"`
	YearsExp  *float64   `json:"years_exp,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// VerifyRequest asks an expert-authored transition
type VerifyRequest struct {
	TalentID        uuid.UUID        `json:"talent_id"`
	SkillGroupID    uuid.UUID        `json:"skill_group_id"`
	ExpertID        uuid.UUID        `json:"expert_id"`
	Result          AssessmentResult `json:"result" validate:"required,oneof=pass fail"`
	Note            string           `json:"note,omitempty" validate:"max=4000"`
	SnapshotEnabled bool             `json:"snapshot_enabled,omitempty"`
}

// Validate checks ids, the result value and that a failing verdict carries a note
func (r *VerifyRequest) Validate() error {
	if err := requireIDs(r.TalentID, r.SkillGroupID); err != nil {
		return err
	}
	if r.ExpertID == uuid.Nil {
		return &ValidationError{Field: "expert_id", Message: "is required"}
	}
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return fromValidator(err)
	}
	if r.Result == AssessmentFail && isBlank(r.Note) {
		return &ValidationError{Field: "note", Message: "is required when result is fail"}
	}
	return nil
}

// InvalidateRequest asks a system-authored invalidation
type InvalidateRequest struct {
	TalentID     uuid.UUID `json:"talent_id"`
	SkillGroupID uuid.UUID `json:"skill_group_id"`
	Reason       string    `json:"reason" validate:"max=4000"`
}

// Validate checks ids and that a reason is given
func (r *InvalidateRequest) Validate() error {
	if err := requireIDs(r.TalentID, r.SkillGroupID); err != nil {
		return err
	}
	if isBlank(r.Reason) {
		return &ValidationError{Field: "reason", Message: "is required"}
	}
	validate := validator.New()
	return fromValidator(validate.Struct(r))
}

func requireIDs(talentID, skillGroupID uuid.UUID) error {
	if talentID == uuid.Nil {
		return &ValidationError{Field: "talent_id", Message: "is required"}
	}
	if skillGroupID == uuid.Nil {
		return &ValidationError{Field: "skill_group_id", Message: "is required"}
	}
	return nil
}
