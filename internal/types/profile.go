package types

import (
	"time"

	"github.com/google/uuid"
)

// SkillLevel is the profile's proficiency vocabulary
type SkillLevel string

// Skill levels, lowest first
const (
	SkillLevelBeginner     SkillLevel = "beginner"
	SkillLevelIntermediate SkillLevel = "intermediate"
	SkillLevelAdvanced     SkillLevel = "advanced"
	SkillLevelExpert       SkillLevel = "expert"
)

// Rank orders levels from 1 (beginner) to 4 (expert). Unknown levels rank 0.
func (l SkillLevel) Rank() int {
	switch l {
	case SkillLevelBeginner:
		return 1
	case SkillLevelIntermediate:
		return 2
	case SkillLevelAdvanced:
		return 3
	case SkillLevelExpert:
		return 4
	default:
		return 0
	}
}

// BasicInfo holds the stored personal details of a talent
type BasicInfo struct {
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	Location    string   `json:"location,omitempty"`
	Links       []string `json:"links,omitempty"`
	WorkingMode string   `json:"working_mode,omitempty"`
}

// TalentSkill is a catalog skill attached to a talent profile
type TalentSkill struct {
	ID         uuid.UUID  `json:"id"`
	TalentID   uuid.UUID  `json:"talent_id"`
	SkillID    uuid.UUID  `json:"skill_id"`
	SkillName  string     `json:"skill_name"`
	Level      SkillLevel `json:"level"`
	YearsExp   *float64   `json:"years_exp,omitempty"`
	SourceCVID *uuid.UUID `json:"source_cv_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// WorkExperience is a stored employment entry
type WorkExperience struct {
	ID          uuid.UUID  `json:"id"`
	TalentID    uuid.UUID  `json:"talent_id"`
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Description string     `json:"description,omitempty"`
	SourceCVID  *uuid.UUID `json:"source_cv_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// View returns the comparable fields of the record
func (w WorkExperience) View() ExtractedWorkExperience {
	return ExtractedWorkExperience{
		Company:     w.Company,
		Position:    w.Position,
		StartDate:   w.StartDate,
		EndDate:     w.EndDate,
		Description: w.Description,
	}
}

// Project is a stored project entry
type Project struct {
	ID           uuid.UUID  `json:"id"`
	TalentID     uuid.UUID  `json:"talent_id"`
	Name         string     `json:"name"`
	Position     string     `json:"position,omitempty"`
	Technologies []string   `json:"technologies,omitempty"`
	Description  string     `json:"description,omitempty"`
	SourceCVID   *uuid.UUID `json:"source_cv_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// View returns the comparable fields of the record
func (p Project) View() ExtractedProject {
	return ExtractedProject{
		Name:         p.Name,
		Position:     p.Position,
		Technologies: p.Technologies,
		Description:  p.Description,
	}
}

// TalentCertificate is a stored certificate
type TalentCertificate struct {
	ID                uuid.UUID  `json:"id"`
	TalentID          uuid.UUID  `json:"talent_id"`
	CertificateTypeID uuid.UUID  `json:"certificate_type_id"`
	Name              string     `json:"name"`
	Issuer            string     `json:"issuer,omitempty"`
	IssuedDate        string     `json:"issued_date,omitempty"`
	ExpiryDate        string     `json:"expiry_date,omitempty"`
	SourceCVID        *uuid.UUID `json:"source_cv_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TalentJobRoleLevel is a stored position/level of a talent
type TalentJobRoleLevel struct {
	ID             uuid.UUID  `json:"id"`
	TalentID       uuid.UUID  `json:"talent_id"`
	JobRoleID      uuid.UUID  `json:"job_role_id"`
	JobRoleLevelID uuid.UUID  `json:"job_role_level_id"`
	Position       string     `json:"position"`
	Level          string     `json:"level"`
	YearsOfExp     *float64   `json:"years_of_exp,omitempty"`
	RatePerMonth   *float64   `json:"rate_per_month,omitempty"`
	SourceCVID     *uuid.UUID `json:"source_cv_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TalentProfile is a read-only snapshot of everything stored for one talent
type TalentProfile struct {
	TalentID        uuid.UUID            `json:"talent_id"`
	BasicInfo       BasicInfo            `json:"basic_info"`
	Skills          []TalentSkill        `json:"skills"`
	WorkExperiences []WorkExperience     `json:"work_experiences"`
	Projects        []Project            `json:"projects"`
	Certificates    []TalentCertificate  `json:"certificates"`
	JobRoleLevels   []TalentJobRoleLevel `json:"job_role_levels"`
}
