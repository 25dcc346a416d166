package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recommendation is the engine's suggestion for a potential duplicate
type Recommendation string

// Recommendations for potential duplicates
const (
	RecommendationMergeUpdate     Recommendation = "merge_update"
	RecommendationKeepBoth        Recommendation = "keep_both"
	RecommendationIgnoreDuplicate Recommendation = "ignore_duplicate"
)

// DuplicateCheck pairs an extracted record with the existing record it most likely restates
type DuplicateCheck[T any] struct {
	ExistingID         uuid.UUID      `json:"existing_id"`
	Existing           T              `json:"existing"`
	SourceKey          string         `json:"source_key"`
	FromCV             T              `json:"from_cv"`
	SimilarityScore    float64        `json:"similarity_score"`
	Recommendation     Recommendation `json:"recommendation"`
	DifferencesSummary []string       `json:"differences_summary"`
}

// NewEntry is an extracted record with no existing counterpart above the duplicate threshold
type NewEntry[T any] struct {
	SourceKey string `json:"source_key"`
	Record    T      `json:"record"`
}

// EntityComparison is the result for a fuzzily matched category
type EntityComparison[T any] struct {
	PotentialDuplicates []DuplicateCheck[T] `json:"potential_duplicates"`
	NewEntries          []NewEntry[T]       `json:"new_entries"`
}

// SkillMatch is an extracted skill resolved to a catalog entry
type SkillMatch struct {
	SourceKeys      []string       `json:"source_keys"`
	FromCV          ExtractedSkill `json:"from_cv"`
	CatalogSkill    CatalogSkill   `json:"catalog_skill"`
	NormalizedLevel SkillLevel     `json:"normalized_level"`
	Existing        *TalentSkill   `json:"existing,omitempty"`
	LevelChanged    bool           `json:"level_changed,omitempty"`
}

// UnmatchedSkill is an extracted skill with no catalog entry. It cannot be added
// directly and is surfaced as a catalog curation suggestion.
type UnmatchedSkill struct {
	SourceKeys      []string       `json:"source_keys"`
	FromCV          ExtractedSkill `json:"from_cv"`
	NormalizedLevel SkillLevel     `json:"normalized_level"`
	Suggestion      string         `json:"suggestion"`
}

// SkillsComparison partitions extracted skills
type SkillsComparison struct {
	Existing  []SkillMatch     `json:"existing"`
	NewFromCV []SkillMatch     `json:"new_from_cv"`
	Unmatched []UnmatchedSkill `json:"unmatched"`
}

// CertificateMatch is an extracted certificate resolved to a certificate type
type CertificateMatch struct {
	SourceKey       string               `json:"source_key"`
	FromCV          ExtractedCertificate `json:"from_cv"`
	CertificateType CertificateType      `json:"certificate_type"`
	Existing        *TalentCertificate   `json:"existing,omitempty"`
}

// UnmatchedCertificate is an extracted certificate with no catalog entry
type UnmatchedCertificate struct {
	SourceKey string               `json:"source_key"`
	FromCV    ExtractedCertificate `json:"from_cv"`
}

// CertificatesComparison partitions extracted certificates
type CertificatesComparison struct {
	Existing  []CertificateMatch     `json:"existing"`
	NewFromCV []CertificateMatch     `json:"new_from_cv"`
	Unmatched []UnmatchedCertificate `json:"unmatched"`
}

// JobRoleLevelMatch is an extracted position resolved to a job role and level
type JobRoleLevelMatch struct {
	SourceKey      string                `json:"source_key"`
	FromCV         ExtractedJobRoleLevel `json:"from_cv"`
	JobRoleID      uuid.UUID             `json:"job_role_id"`
	JobRoleName    string                `json:"job_role_name"`
	JobRoleLevelID uuid.UUID             `json:"job_role_level_id"`
	LevelName      string                `json:"level_name"`
	Existing       *TalentJobRoleLevel   `json:"existing,omitempty"`
	LevelChanged   bool                  `json:"level_changed,omitempty"`
}

// UnmatchedJobRoleLevel is an extracted position with no job-role catalog entry
type UnmatchedJobRoleLevel struct {
	SourceKey string                `json:"source_key"`
	FromCV    ExtractedJobRoleLevel `json:"from_cv"`
}

// JobRoleLevelsComparison partitions extracted job-role-levels
type JobRoleLevelsComparison struct {
	Existing  []JobRoleLevelMatch     `json:"existing"`
	NewFromCV []JobRoleLevelMatch     `json:"new_from_cv"`
	Unmatched []UnmatchedJobRoleLevel `json:"unmatched"`
}

// Basic info field names
const (
	FieldFullName    = "full_name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldDateOfBirth = "date_of_birth"
	FieldLocation    = "location"
	FieldLinks       = "links"
	FieldWorkingMode = "working_mode"
)

// LinksSeparator joins links into a FieldChange value
const LinksSeparator = ", "

// SplitLinks reverses the rendering of a links FieldChange value
func SplitLinks(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, LinksSeparator)
}

// FieldChange is the old/new pair of one basic info field
type FieldChange struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Changed bool   `json:"changed"`
}

// BasicInfoComparison is the field-by-field diff of basic info
type BasicInfoComparison struct {
	HasChanges bool          `json:"has_changes"`
	Fields     []FieldChange `json:"fields"`
}

// DataQualityWarning records an empty or low-confidence extracted field that was
// absorbed by a default. It never stops processing.
type DataQualityWarning struct {
	SourceKey string `json:"source_key"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

// ComparisonResult is the read-only output of one reconciliation run
type ComparisonResult struct {
	AnalysisID      uuid.UUID                                 `json:"analysis_id"`
	TalentID        uuid.UUID                                 `json:"talent_id"`
	CVID            uuid.UUID                                 `json:"cv_id"`
	AsOf            time.Time                                 `json:"as_of"`
	BasicInfo       BasicInfoComparison                       `json:"basic_info"`
	Skills          SkillsComparison                          `json:"skills"`
	WorkExperiences EntityComparison[ExtractedWorkExperience] `json:"work_experiences"`
	Projects        EntityComparison[ExtractedProject]        `json:"projects"`
	Certificates    CertificatesComparison                    `json:"certificates"`
	JobRoleLevels   JobRoleLevelsComparison                   `json:"job_role_levels"`
	Warnings        []DataQualityWarning                      `json:"warnings"`
}
