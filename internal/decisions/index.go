package decisions

import (
	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

type skillEntry struct {
	match     *types.SkillMatch
	unmatched *types.UnmatchedSkill
}

type certEntry struct {
	match     *types.CertificateMatch
	unmatched *types.UnmatchedCertificate
}

type roleEntry struct {
	match     *types.JobRoleLevelMatch
	unmatched *types.UnmatchedJobRoleLevel
}

// pairing is the existing record a potential duplicate was paired with
type pairing struct {
	existingID     uuid.UUID
	recommendation types.Recommendation
}

// comparisonIndex looks up comparison entries by source key and the existing
// ids each category offered as update targets
type comparisonIndex struct {
	skills         map[string]skillEntry
	skillTargets   map[uuid.UUID]bool
	work           map[string]types.ExtractedWorkExperience
	workPairs      map[string]pairing
	workTargets    map[uuid.UUID]bool
	projects       map[string]types.ExtractedProject
	projectPairs   map[string]pairing
	projectTargets map[uuid.UUID]bool
	certs          map[string]certEntry
	certTargets    map[uuid.UUID]bool
	roles          map[string]roleEntry
	roleTargets    map[uuid.UUID]bool
	basic          map[string]types.FieldChange
}

func indexComparison(c *types.ComparisonResult) *comparisonIndex {
	idx := &comparisonIndex{
		skills:         map[string]skillEntry{},
		skillTargets:   map[uuid.UUID]bool{},
		work:           map[string]types.ExtractedWorkExperience{},
		workPairs:      map[string]pairing{},
		workTargets:    map[uuid.UUID]bool{},
		projects:       map[string]types.ExtractedProject{},
		projectPairs:   map[string]pairing{},
		projectTargets: map[uuid.UUID]bool{},
		certs:          map[string]certEntry{},
		certTargets:    map[uuid.UUID]bool{},
		roles:          map[string]roleEntry{},
		roleTargets:    map[uuid.UUID]bool{},
		basic:          map[string]types.FieldChange{},
	}

	for i := range c.Skills.Existing {
		m := &c.Skills.Existing[i]
		for _, k := range m.SourceKeys {
			idx.skills[k] = skillEntry{match: m}
		}
		if m.Existing != nil {
			idx.skillTargets[m.Existing.ID] = true
		}
	}
	for i := range c.Skills.NewFromCV {
		m := &c.Skills.NewFromCV[i]
		for _, k := range m.SourceKeys {
			idx.skills[k] = skillEntry{match: m}
		}
	}
	for i := range c.Skills.Unmatched {
		u := &c.Skills.Unmatched[i]
		for _, k := range u.SourceKeys {
			idx.skills[k] = skillEntry{unmatched: u}
		}
	}

	for _, d := range c.WorkExperiences.PotentialDuplicates {
		idx.work[d.SourceKey] = d.FromCV
		idx.workPairs[d.SourceKey] = pairing{existingID: d.ExistingID, recommendation: d.Recommendation}
		idx.workTargets[d.ExistingID] = true
	}
	for _, n := range c.WorkExperiences.NewEntries {
		idx.work[n.SourceKey] = n.Record
	}

	for _, d := range c.Projects.PotentialDuplicates {
		idx.projects[d.SourceKey] = d.FromCV
		idx.projectPairs[d.SourceKey] = pairing{existingID: d.ExistingID, recommendation: d.Recommendation}
		idx.projectTargets[d.ExistingID] = true
	}
	for _, n := range c.Projects.NewEntries {
		idx.projects[n.SourceKey] = n.Record
	}

	for i := range c.Certificates.Existing {
		m := &c.Certificates.Existing[i]
		idx.certs[m.SourceKey] = certEntry{match: m}
		if m.Existing != nil {
			idx.certTargets[m.Existing.ID] = true
		}
	}
	for i := range c.Certificates.NewFromCV {
		idx.certs[c.Certificates.NewFromCV[i].SourceKey] = certEntry{match: &c.Certificates.NewFromCV[i]}
	}
	for i := range c.Certificates.Unmatched {
		idx.certs[c.Certificates.Unmatched[i].SourceKey] = certEntry{unmatched: &c.Certificates.Unmatched[i]}
	}

	for i := range c.JobRoleLevels.Existing {
		m := &c.JobRoleLevels.Existing[i]
		idx.roles[m.SourceKey] = roleEntry{match: m}
		if m.Existing != nil {
			idx.roleTargets[m.Existing.ID] = true
		}
	}
	for i := range c.JobRoleLevels.NewFromCV {
		idx.roles[c.JobRoleLevels.NewFromCV[i].SourceKey] = roleEntry{match: &c.JobRoleLevels.NewFromCV[i]}
	}
	for i := range c.JobRoleLevels.Unmatched {
		idx.roles[c.JobRoleLevels.Unmatched[i].SourceKey] = roleEntry{unmatched: &c.JobRoleLevels.Unmatched[i]}
	}

	for _, f := range c.BasicInfo.Fields {
		idx.basic[f.Field] = f
	}

	return idx
}

// owned holds the ids currently on the profile, per category
type owned struct {
	skills     map[uuid.UUID]types.TalentSkill
	skillIDs   map[uuid.UUID]bool
	work       map[uuid.UUID]types.WorkExperience
	projects   map[uuid.UUID]types.Project
	certs      map[uuid.UUID]types.TalentCertificate
	roles      map[uuid.UUID]types.TalentJobRoleLevel
	heldRoleID map[uuid.UUID]bool
}

func indexProfile(p *types.TalentProfile) *owned {
	o := &owned{
		skills:     make(map[uuid.UUID]types.TalentSkill, len(p.Skills)),
		skillIDs:   make(map[uuid.UUID]bool, len(p.Skills)),
		work:       make(map[uuid.UUID]types.WorkExperience, len(p.WorkExperiences)),
		projects:   make(map[uuid.UUID]types.Project, len(p.Projects)),
		certs:      make(map[uuid.UUID]types.TalentCertificate, len(p.Certificates)),
		roles:      make(map[uuid.UUID]types.TalentJobRoleLevel, len(p.JobRoleLevels)),
		heldRoleID: make(map[uuid.UUID]bool, len(p.JobRoleLevels)),
	}
	for _, s := range p.Skills {
		o.skills[s.ID] = s
		o.skillIDs[s.SkillID] = true
	}
	for _, w := range p.WorkExperiences {
		o.work[w.ID] = w
	}
	for _, pr := range p.Projects {
		o.projects[pr.ID] = pr
	}
	for _, c := range p.Certificates {
		o.certs[c.ID] = c
	}
	for _, r := range p.JobRoleLevels {
		o.roles[r.ID] = r
		o.heldRoleID[r.JobRoleID] = true
	}
	return o
}

// catalogIndex resolves catalog ids named by decision payloads
type catalogIndex struct {
	skills    map[uuid.UUID]types.CatalogSkill
	certTypes map[uuid.UUID]types.CertificateType
	roles     map[uuid.UUID]types.JobRole
	levels    map[uuid.UUID]types.JobRoleLevel
}

func indexCatalogs(c *types.Catalogs) *catalogIndex {
	idx := &catalogIndex{
		skills:    map[uuid.UUID]types.CatalogSkill{},
		certTypes: map[uuid.UUID]types.CertificateType{},
		roles:     map[uuid.UUID]types.JobRole{},
		levels:    map[uuid.UUID]types.JobRoleLevel{},
	}
	if c == nil {
		return idx
	}
	for _, s := range c.Skills {
		idx.skills[s.ID] = s
	}
	for _, ct := range c.CertificateTypes {
		idx.certTypes[ct.ID] = ct
	}
	for _, r := range c.JobRoles {
		idx.roles[r.ID] = r
		for _, l := range r.Levels {
			// the owning role is authoritative for a level
			l.JobRoleID = r.ID
			idx.levels[l.ID] = l
		}
	}
	return idx
}
