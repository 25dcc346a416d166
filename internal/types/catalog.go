package types

import "github.com/google/uuid"

// CatalogSkill is a canonical skill-catalog entry
type CatalogSkill struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	SkillGroupIDs []uuid.UUID `json:"skill_group_ids,omitempty"`
}

// SkillGroup is a named cluster of related skills, the unit of expert verification
type SkillGroup struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	SkillIDs []uuid.UUID `json:"skill_ids"`
}

// CertificateType is a certificate-catalog entry
type CertificateType struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Issuer string    `json:"issuer,omitempty"`
}

// JobRole is a job-role catalog entry with its ordered levels
type JobRole struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Levels []JobRoleLevel `json:"levels"`
}

// JobRoleLevel is one level of a job role; lower Ordinal is more junior
type JobRoleLevel struct {
	ID        uuid.UUID `json:"id"`
	JobRoleID uuid.UUID `json:"job_role_id"`
	Name      string    `json:"name"`
	Ordinal   int       `json:"ordinal"`
}

// Catalogs bundles the read-only catalogs reconciliation resolves against
type Catalogs struct {
	Skills           []CatalogSkill    `json:"skills"`
	SkillGroups      []SkillGroup      `json:"skill_groups"`
	CertificateTypes []CertificateType `json:"certificate_types"`
	JobRoles         []JobRole         `json:"job_roles"`
}
