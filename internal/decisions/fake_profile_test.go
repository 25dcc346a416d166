package decisions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// fakeProfile is an in-memory MutableProfile that records writes
type fakeProfile struct {
	profile   types.TalentProfile
	writes    int
	failWrite error
}

func (f *fakeProfile) Snapshot(_ context.Context) (*types.TalentProfile, error) {
	p := f.profile
	return &p, nil
}

func (f *fakeProfile) write() error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.writes++
	return nil
}

func (f *fakeProfile) UpdateBasicInfo(_ context.Context, info types.BasicInfo) error {
	if err := f.write(); err != nil {
		return err
	}
	f.profile.BasicInfo = info
	return nil
}

func (f *fakeProfile) AddSkill(_ context.Context, s types.TalentSkill) error {
	if err := f.write(); err != nil {
		return err
	}
	f.profile.Skills = append(f.profile.Skills, s)
	return nil
}

func (f *fakeProfile) UpdateSkill(_ context.Context, s types.TalentSkill) error {
	for i := range f.profile.Skills {
		if f.profile.Skills[i].ID == s.ID {
			f.profile.Skills[i] = s
			return f.write()
		}
	}
	return &types.NotFoundError{Resource: "skill", ID: s.ID.String()}
}

func (f *fakeProfile) RemoveSkill(_ context.Context, id uuid.UUID) error {
	for i := range f.profile.Skills {
		if f.profile.Skills[i].ID == id {
			f.profile.Skills = append(f.profile.Skills[:i], f.profile.Skills[i+1:]...)
			return f.write()
		}
	}
	return &types.NotFoundError{Resource: "skill", ID: id.String()}
}

func (f *fakeProfile) AddWorkExperience(_ context.Context, we types.WorkExperience) error {
	if err := f.write(); err != nil {
		return err
	}
	f.profile.WorkExperiences = append(f.profile.WorkExperiences, we)
	return nil
}

func (f *fakeProfile) UpdateWorkExperience(_ context.Context, we types.WorkExperience) error {
	for i := range f.profile.WorkExperiences {
		if f.profile.WorkExperiences[i].ID == we.ID {
			f.profile.WorkExperiences[i] = we
			return f.write()
		}
	}
	return &types.NotFoundError{Resource: "work_experience", ID: we.ID.String()}
}

func (f *fakeProfile) AddProject(_ context.Context, p types.Project) error {
	if err := f.write(); err != nil {
		return err
	}
	f.profile.Projects = append(f.profile.Projects, p)
	return nil
}

func (f *fakeProfile) UpdateProject(_ context.Context, p types.Project) error {
	for i := range f.profile.Projects {
		if f.profile.Projects[i].ID == p.ID {
			f.profile.Projects[i] = p
			return f.write()
		}
	}
	return &types.NotFoundError{Resource: "project", ID: p.ID.String()}
}

func (f *fakeProfile) AddCertificate(_ context.Context, c types.TalentCertificate) error {
	if err := f.write(); err != nil {
		return err
	}
	f.profile.Certificates = append(f.profile.Certificates, c)
	return nil
}

func (f *fakeProfile) UpdateCertificate(_ context.Context, c types.TalentCertificate) error {
	for i := range f.profile.Certificates {
		if f.profile.Certificates[i].ID == c.ID {
			f.profile.Certificates[i] = c
			return f.write()
		}
	}
	return &types.NotFoundError{Resource: "certificate", ID: c.ID.String()}
}

func (f *fakeProfile) AddJobRoleLevel(_ context.Context, jrl types.TalentJobRoleLevel) error {
	if err := f.write(); err != nil {
		return err
	}
	f.profile.JobRoleLevels = append(f.profile.JobRoleLevels, jrl)
	return nil
}

func (f *fakeProfile) UpdateJobRoleLevel(_ context.Context, jrl types.TalentJobRoleLevel) error {
	for i := range f.profile.JobRoleLevels {
		if f.profile.JobRoleLevels[i].ID == jrl.ID {
			f.profile.JobRoleLevels[i] = jrl
			return f.write()
		}
	}
	return &types.NotFoundError{Resource: "job_role_level", ID: jrl.ID.String()}
}

var errStoreDown = errors.New("store unavailable")
