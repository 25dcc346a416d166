package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/decisions"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// GetProfile returns a copy of a talent's profile
func (s *Store) GetProfile(_ context.Context, talentID uuid.UUID) (*types.TalentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[talentID]
	if !ok {
		return nil, &types.NotFoundError{Resource: "talent", ID: talentID.String()}
	}
	return cloneProfile(p), nil
}

// UpdateProfile runs fn against a working copy of the profile and commits it
// when fn returns nil. Updates of one talent are serialized; fn may read other
// store data.
func (s *Store) UpdateProfile(ctx context.Context, talentID uuid.UUID, fn func(decisions.MutableProfile) error) error {
	l := s.talentLock(talentID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	p, ok := s.profiles[talentID]
	var work *profileTx
	if ok {
		work = &profileTx{profile: cloneProfile(p)}
	}
	s.mu.RUnlock()
	if !ok {
		return &types.NotFoundError{Resource: "talent", ID: talentID.String()}
	}

	if err := fn(work); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[talentID] = work.profile
	return nil
}

func (s *Store) talentLock(talentID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.talentLocks[talentID]
	if !ok {
		l = &sync.Mutex{}
		s.talentLocks[talentID] = l
	}
	return l
}

// profileTx is the uncommitted working copy of one profile
type profileTx struct {
	profile *types.TalentProfile
}

func (t *profileTx) Snapshot(_ context.Context) (*types.TalentProfile, error) {
	return cloneProfile(t.profile), nil
}

func (t *profileTx) UpdateBasicInfo(_ context.Context, info types.BasicInfo) error {
	t.profile.BasicInfo = info
	return nil
}

func (t *profileTx) AddSkill(_ context.Context, skill types.TalentSkill) error {
	skill.TalentID = t.profile.TalentID
	t.profile.Skills = append(t.profile.Skills, skill)
	return nil
}

func (t *profileTx) UpdateSkill(_ context.Context, skill types.TalentSkill) error {
	for i := range t.profile.Skills {
		if t.profile.Skills[i].ID == skill.ID {
			skill.TalentID = t.profile.TalentID
			t.profile.Skills[i] = skill
			return nil
		}
	}
	return &types.NotFoundError{Resource: "skill", ID: skill.ID.String()}
}

func (t *profileTx) RemoveSkill(_ context.Context, id uuid.UUID) error {
	for i := range t.profile.Skills {
		if t.profile.Skills[i].ID == id {
			t.profile.Skills = append(t.profile.Skills[:i], t.profile.Skills[i+1:]...)
			return nil
		}
	}
	return &types.NotFoundError{Resource: "skill", ID: id.String()}
}

func (t *profileTx) AddWorkExperience(_ context.Context, we types.WorkExperience) error {
	we.TalentID = t.profile.TalentID
	t.profile.WorkExperiences = append(t.profile.WorkExperiences, we)
	return nil
}

func (t *profileTx) UpdateWorkExperience(_ context.Context, we types.WorkExperience) error {
	for i := range t.profile.WorkExperiences {
		if t.profile.WorkExperiences[i].ID == we.ID {
			we.TalentID = t.profile.TalentID
			t.profile.WorkExperiences[i] = we
			return nil
		}
	}
	return &types.NotFoundError{Resource: "work_experience", ID: we.ID.String()}
}

func (t *profileTx) AddProject(_ context.Context, p types.Project) error {
	p.TalentID = t.profile.TalentID
	t.profile.Projects = append(t.profile.Projects, p)
	return nil
}

func (t *profileTx) UpdateProject(_ context.Context, p types.Project) error {
	for i := range t.profile.Projects {
		if t.profile.Projects[i].ID == p.ID {
			p.TalentID = t.profile.TalentID
			t.profile.Projects[i] = p
			return nil
		}
	}
	return &types.NotFoundError{Resource: "project", ID: p.ID.String()}
}

func (t *profileTx) AddCertificate(_ context.Context, c types.TalentCertificate) error {
	c.TalentID = t.profile.TalentID
	t.profile.Certificates = append(t.profile.Certificates, c)
	return nil
}

func (t *profileTx) UpdateCertificate(_ context.Context, c types.TalentCertificate) error {
	for i := range t.profile.Certificates {
		if t.profile.Certificates[i].ID == c.ID {
			c.TalentID = t.profile.TalentID
			t.profile.Certificates[i] = c
			return nil
		}
	}
	return &types.NotFoundError{Resource: "certificate", ID: c.ID.String()}
}

func (t *profileTx) AddJobRoleLevel(_ context.Context, jrl types.TalentJobRoleLevel) error {
	jrl.TalentID = t.profile.TalentID
	t.profile.JobRoleLevels = append(t.profile.JobRoleLevels, jrl)
	return nil
}

func (t *profileTx) UpdateJobRoleLevel(_ context.Context, jrl types.TalentJobRoleLevel) error {
	for i := range t.profile.JobRoleLevels {
		if t.profile.JobRoleLevels[i].ID == jrl.ID {
			jrl.TalentID = t.profile.TalentID
			t.profile.JobRoleLevels[i] = jrl
			return nil
		}
	}
	return &types.NotFoundError{Resource: "job_role_level", ID: jrl.ID.String()}
}

var _ decisions.MutableProfile = (*profileTx)(nil)
