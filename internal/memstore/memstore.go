// Package memstore holds talent profiles, catalogs, verification history and
// analysis runs in memory. It backs the offline CLI and service tests.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

type verificationKey struct {
	talentID     uuid.UUID
	skillGroupID uuid.UUID
}

// Store is safe for concurrent use
type Store struct {
	mu            sync.RWMutex
	profiles      map[uuid.UUID]*types.TalentProfile
	catalogs      types.Catalogs
	experts       map[uuid.UUID]map[uuid.UUID]bool // skill group -> experts
	verifications map[verificationKey]types.SkillGroupVerification
	assessments   map[verificationKey][]types.SkillGroupAssessment
	keyLocks      map[verificationKey]*sync.Mutex
	talentLocks   map[uuid.UUID]*sync.Mutex
	analyses      map[uuid.UUID]types.Analysis
}

// New creates an empty store
func New() *Store {
	return &Store{
		profiles:      make(map[uuid.UUID]*types.TalentProfile),
		experts:       make(map[uuid.UUID]map[uuid.UUID]bool),
		verifications: make(map[verificationKey]types.SkillGroupVerification),
		assessments:   make(map[verificationKey][]types.SkillGroupAssessment),
		keyLocks:      make(map[verificationKey]*sync.Mutex),
		talentLocks:   make(map[uuid.UUID]*sync.Mutex),
		analyses:      make(map[uuid.UUID]types.Analysis),
	}
}

// PutProfile stores a copy of a profile, replacing any previous one
func (s *Store) PutProfile(p types.TalentProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneProfile(&p)
	s.profiles[p.TalentID] = cp
}

// SetCatalogs replaces the catalogs
func (s *Store) SetCatalogs(c types.Catalogs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs = c
}

// AssignExpert assigns an expert to a skill group
func (s *Store) AssignExpert(expertID, skillGroupID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.experts[skillGroupID] == nil {
		s.experts[skillGroupID] = make(map[uuid.UUID]bool)
	}
	s.experts[skillGroupID][expertID] = true
}

// LoadCatalogs returns a copy of the catalogs
func (s *Store) LoadCatalogs(_ context.Context) (*types.Catalogs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := types.Catalogs{
		Skills:           append([]types.CatalogSkill(nil), s.catalogs.Skills...),
		SkillGroups:      append([]types.SkillGroup(nil), s.catalogs.SkillGroups...),
		CertificateTypes: append([]types.CertificateType(nil), s.catalogs.CertificateTypes...),
		JobRoles:         append([]types.JobRole(nil), s.catalogs.JobRoles...),
	}
	return &c, nil
}

// IsAssigned implements verification.ExpertDirectory
func (s *Store) IsAssigned(_ context.Context, expertID, skillGroupID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.experts[skillGroupID][expertID], nil
}

// GroupSkills implements verification.SkillSource. Membership comes from the
// skill group's SkillIDs and from each catalog skill's SkillGroupIDs.
func (s *Store) GroupSkills(_ context.Context, talentID, skillGroupID uuid.UUID) ([]types.GroupSkill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make(map[uuid.UUID]bool)
	for _, g := range s.catalogs.SkillGroups {
		if g.ID == skillGroupID {
			for _, id := range g.SkillIDs {
				members[id] = true
			}
		}
	}
	for _, c := range s.catalogs.Skills {
		for _, gid := range c.SkillGroupIDs {
			if gid == skillGroupID {
				members[c.ID] = true
			}
		}
	}

	p, ok := s.profiles[talentID]
	if !ok {
		return nil, nil
	}
	var out []types.GroupSkill
	for _, sk := range p.Skills {
		if members[sk.SkillID] {
			out = append(out, types.GroupSkill{
				SkillID:   sk.SkillID,
				Name:      sk.SkillName,
				Level:     sk.Level,
				YearsExp:  sk.YearsExp,
				CreatedAt: sk.CreatedAt,
				UpdatedAt: sk.UpdatedAt,
			})
		}
	}
	return out, nil
}

func cloneProfile(p *types.TalentProfile) *types.TalentProfile {
	cp := *p
	cp.BasicInfo.Links = append([]string(nil), p.BasicInfo.Links...)
	cp.Skills = append([]types.TalentSkill(nil), p.Skills...)
	cp.WorkExperiences = append([]types.WorkExperience(nil), p.WorkExperiences...)
	cp.Projects = make([]types.Project, len(p.Projects))
	for i, pr := range p.Projects {
		pr.Technologies = append([]string(nil), pr.Technologies...)
		cp.Projects[i] = pr
	}
	cp.Certificates = append([]types.TalentCertificate(nil), p.Certificates...)
	cp.JobRoleLevels = append([]types.TalentJobRoleLevel(nil), p.JobRoleLevels...)
	return &cp
}
