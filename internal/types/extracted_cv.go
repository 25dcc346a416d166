// Package types provides type definitions for structured data used throughout the talent-reconciler system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Category identifies one section of a talent profile
type Category string

// Profile categories compared during reconciliation
const (
	CategoryBasicInfo       Category = "basic_info"
	CategorySkills          Category = "skills"
	CategoryWorkExperiences Category = "work_experiences"
	CategoryProjects        Category = "projects"
	CategoryCertificates    Category = "certificates"
	CategoryJobRoleLevels   Category = "job_role_levels"
)

// SourceKey returns the stable key of the index-th extracted record of a category,
// e.g. "work_experiences:2".
func SourceKey(category Category, index int) string {
	return fmt.Sprintf("%s:%d", category, index)
}

// ExtractedCVData is the structured output of CV extraction. It is immutable for the
// duration of one analysis run.
type ExtractedCVData struct {
	CVID            uuid.UUID                 `json:"cv_id"`
	BasicInfo       ExtractedBasicInfo        `json:"basic_info"`
	Skills          []ExtractedSkill          `json:"skills"`
	WorkExperiences []ExtractedWorkExperience `json:"work_experiences"`
	Projects        []ExtractedProject        `json:"projects"`
	Certificates    []ExtractedCertificate    `json:"certificates"`
	JobRoleLevels   []ExtractedJobRoleLevel   `json:"job_role_levels"`
}

// ExtractedBasicInfo holds the personal details found on a CV
type ExtractedBasicInfo struct {
	FullName    string   `json:"full_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	Location    string   `json:"location,omitempty"`
	Links       []string `json:"links,omitempty"`
	WorkingMode string   `json:"working_mode,omitempty"`
}

// ExtractedSkill is a free-text skill mention
type ExtractedSkill struct {
	Name     string   `json:"name"`
	Level    string   `json:"level,omitempty"`
	YearsExp *float64 `json:"years_exp,omitempty"`
}

// ExtractedWorkExperience is one employment entry. Dates are free text as produced
// by extraction; an empty EndDate means the position is ongoing.
type ExtractedWorkExperience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// ExtractedProject is one project entry
type ExtractedProject struct {
	Name         string   `json:"name"`
	Position     string   `json:"position,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// ExtractedCertificate is one certificate entry
type ExtractedCertificate struct {
	Name       string `json:"name"`
	Issuer     string `json:"issuer,omitempty"`
	IssuedDate string `json:"issued_date,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// ExtractedJobRoleLevel is a position/level claim, optionally with experience and rate
type ExtractedJobRoleLevel struct {
	Position     string   `json:"position"`
	Level        string   `json:"level,omitempty"`
	YearsOfExp   *float64 `json:"years_of_exp,omitempty"`
	RatePerMonth *float64 `json:"rate_per_month,omitempty"`
}
