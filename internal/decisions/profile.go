// Package decisions applies reviewer decisions from a reconciliation run to a
// talent profile.
package decisions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// MutableProfile is the write side of one talent's profile. Update and remove
// methods return a *types.NotFoundError when the id is not owned by the talent.
type MutableProfile interface {
	Snapshot(ctx context.Context) (*types.TalentProfile, error)

	UpdateBasicInfo(ctx context.Context, info types.BasicInfo) error

	AddSkill(ctx context.Context, skill types.TalentSkill) error
	UpdateSkill(ctx context.Context, skill types.TalentSkill) error
	RemoveSkill(ctx context.Context, id uuid.UUID) error

	AddWorkExperience(ctx context.Context, we types.WorkExperience) error
	UpdateWorkExperience(ctx context.Context, we types.WorkExperience) error

	AddProject(ctx context.Context, p types.Project) error
	UpdateProject(ctx context.Context, p types.Project) error

	AddCertificate(ctx context.Context, c types.TalentCertificate) error
	UpdateCertificate(ctx context.Context, c types.TalentCertificate) error

	AddJobRoleLevel(ctx context.Context, jrl types.TalentJobRoleLevel) error
	UpdateJobRoleLevel(ctx context.Context, jrl types.TalentJobRoleLevel) error
}
