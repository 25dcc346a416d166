package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ActionType is what to do with one entry of a comparison result
type ActionType string

// Decision action types. Remove is only valid for skills.
const (
	ActionAdd    ActionType = "add"
	ActionUpdate ActionType = "update"
	ActionSkip   ActionType = "skip"
	ActionRemove ActionType = "remove"
)

// SkillPayload overrides what is written for a skill action
type SkillPayload struct {
	SkillID  uuid.UUID  `json:"skill_id,omitempty"`
	Level    SkillLevel `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	YearsExp *float64   `json:"years_exp,omitempty" validate:"omitempty,gte=0"`
}

// SkillAction is a reviewer decision about one skill entry
type SkillAction struct {
	ActionType       ActionType    `json:"action_type" validate:"required,oneof=add update skip remove"`
	TargetExistingID *uuid.UUID    `json:"target_existing_id,omitempty"`
	SourceKey        string        `json:"source_key,omitempty"`
	Payload          *SkillPayload `json:"payload,omitempty"`
}

// WorkExperienceAction is a reviewer decision about one work experience entry.
// A nil payload means "use the extracted record as is".
type WorkExperienceAction struct {
	ActionType       ActionType               `json:"action_type" validate:"required,oneof=add update skip"`
	TargetExistingID *uuid.UUID               `json:"target_existing_id,omitempty"`
	SourceKey        string                   `json:"source_key,omitempty"`
	Payload          *ExtractedWorkExperience `json:"payload,omitempty"`
}

// ProjectAction is a reviewer decision about one project entry
type ProjectAction struct {
	ActionType       ActionType        `json:"action_type" validate:"required,oneof=add update skip"`
	TargetExistingID *uuid.UUID        `json:"target_existing_id,omitempty"`
	SourceKey        string            `json:"source_key,omitempty"`
	Payload          *ExtractedProject `json:"payload,omitempty"`
}

// CertificatePayload overrides what is written for a certificate action
type CertificatePayload struct {
	CertificateTypeID uuid.UUID `json:"certificate_type_id,omitempty"`
	Name              string    `json:"name,omitempty"`
	Issuer            string    `json:"issuer,omitempty"`
	IssuedDate        string    `json:"issued_date,omitempty"`
	ExpiryDate        string    `json:"expiry_date,omitempty"`
}

// CertificateAction is a reviewer decision about one certificate entry
type CertificateAction struct {
	ActionType       ActionType          `json:"action_type" validate:"required,oneof=add update skip"`
	TargetExistingID *uuid.UUID          `json:"target_existing_id,omitempty"`
	SourceKey        string              `json:"source_key,omitempty"`
	Payload          *CertificatePayload `json:"payload,omitempty"`
}

// JobRoleLevelPayload overrides what is written for a job-role-level action
type JobRoleLevelPayload struct {
	JobRoleLevelID uuid.UUID `json:"job_role_level_id,omitempty"`
	YearsOfExp     *float64  `json:"years_of_exp,omitempty" validate:"omitempty,gte=0"`
	RatePerMonth   *float64  `json:"rate_per_month,omitempty" validate:"omitempty,gte=0"`
}

// JobRoleLevelAction is a reviewer decision about one job-role-level entry
type JobRoleLevelAction struct {
	ActionType       ActionType           `json:"action_type" validate:"required,oneof=add update skip"`
	TargetExistingID *uuid.UUID           `json:"target_existing_id,omitempty"`
	SourceKey        string               `json:"source_key,omitempty"`
	Payload          *JobRoleLevelPayload `json:"payload,omitempty"`
}

// BasicInfoDecision lists the basic info fields to take from the CV
type BasicInfoDecision struct {
	Fields []string `json:"fields" validate:"dive,oneof=full_name email phone date_of_birth location links working_mode"`
}

// UpdateDecision is the reviewer-authored decision set for one analysis run
type UpdateDecision struct {
	AnalysisID      uuid.UUID              `json:"analysis_id"`
	BasicInfo       *BasicInfoDecision     `json:"basic_info,omitempty" validate:"omitempty"`
	Skills          []SkillAction          `json:"skills,omitempty" validate:"dive"`
	WorkExperiences []WorkExperienceAction `json:"work_experiences,omitempty" validate:"dive"`
	Projects        []ProjectAction        `json:"projects,omitempty" validate:"dive"`
	Certificates    []CertificateAction    `json:"certificates,omitempty" validate:"dive"`
	JobRoleLevels   []JobRoleLevelAction   `json:"job_role_levels,omitempty" validate:"dive"`
}

// Validate checks field-level rules and the per-action requirements: Update and
// Remove need a target id, Add needs a source key.
func (d *UpdateDecision) Validate() error {
	if d.AnalysisID == uuid.Nil {
		return &ValidationError{Field: "analysis_id", Message: "is required"}
	}

	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return fromValidator(err)
	}

	for i, a := range d.Skills {
		if err := checkAction(CategorySkills, i, a.ActionType, a.TargetExistingID, a.SourceKey); err != nil {
			return err
		}
	}
	for i, a := range d.WorkExperiences {
		if err := checkAction(CategoryWorkExperiences, i, a.ActionType, a.TargetExistingID, a.SourceKey); err != nil {
			return err
		}
	}
	for i, a := range d.Projects {
		if err := checkAction(CategoryProjects, i, a.ActionType, a.TargetExistingID, a.SourceKey); err != nil {
			return err
		}
	}
	for i, a := range d.Certificates {
		if err := checkAction(CategoryCertificates, i, a.ActionType, a.TargetExistingID, a.SourceKey); err != nil {
			return err
		}
	}
	for i, a := range d.JobRoleLevels {
		if err := checkAction(CategoryJobRoleLevels, i, a.ActionType, a.TargetExistingID, a.SourceKey); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the decision carries no actionable entries
func (d *UpdateDecision) IsEmpty() bool {
	return (d.BasicInfo == nil || len(d.BasicInfo.Fields) == 0) &&
		len(d.Skills) == 0 && len(d.WorkExperiences) == 0 && len(d.Projects) == 0 &&
		len(d.Certificates) == 0 && len(d.JobRoleLevels) == 0
}

func checkAction(category Category, index int, action ActionType, target *uuid.UUID, sourceKey string) error {
	field := fmt.Sprintf("%s[%d]", category, index)
	switch action {
	case ActionUpdate, ActionRemove:
		if target == nil || *target == uuid.Nil {
			return &ValidationError{Field: field, Message: fmt.Sprintf("%s requires target_existing_id", action)}
		}
	case ActionAdd:
		if sourceKey == "" {
			return &ValidationError{Field: field, Message: "add requires source_key"}
		}
	}
	return nil
}

// ActionFailure describes one decision entry that was rejected during application
type ActionFailure struct {
	Category         Category   `json:"category"`
	Index            int        `json:"index"`
	TargetExistingID *uuid.UUID `json:"target_existing_id,omitempty"`
	Error            string     `json:"error"`
}

// UpdateStatistics counts what a decision actually changed
type UpdateStatistics struct {
	SkillsAdded            int             `json:"skills_added"`
	SkillsUpdated          int             `json:"skills_updated"`
	SkillsRemoved          int             `json:"skills_removed"`
	WorkExperiencesAdded   int             `json:"work_experiences_added"`
	WorkExperiencesUpdated int             `json:"work_experiences_updated"`
	ProjectsAdded          int             `json:"projects_added"`
	ProjectsUpdated        int             `json:"projects_updated"`
	CertificatesAdded      int             `json:"certificates_added"`
	CertificatesUpdated    int             `json:"certificates_updated"`
	JobRoleLevelsAdded     int             `json:"job_role_levels_added"`
	JobRoleLevelsUpdated   int             `json:"job_role_levels_updated"`
	BasicInfoFieldsUpdated int             `json:"basic_info_fields_updated"`
	Failed                 []ActionFailure `json:"failed,omitempty"`
}

// Changes returns the total number of applied mutations
func (s *UpdateStatistics) Changes() int {
	return s.SkillsAdded + s.SkillsUpdated + s.SkillsRemoved +
		s.WorkExperiencesAdded + s.WorkExperiencesUpdated +
		s.ProjectsAdded + s.ProjectsUpdated +
		s.CertificatesAdded + s.CertificatesUpdated +
		s.JobRoleLevelsAdded + s.JobRoleLevelsUpdated +
		s.BasicInfoFieldsUpdated
}
