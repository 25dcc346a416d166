package decisions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/reconcile"
	"github.com/jonathan/talent-reconciler/internal/similarity"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now           = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)
	goSkillID     = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	pgSkillID     = uuid.MustParse("10000000-0000-0000-0000-000000000002")
	rustLangID    = uuid.MustParse("10000000-0000-0000-0000-000000000003")
	pythonSkillID = uuid.MustParse("10000000-0000-0000-0000-000000000004")

	awsTypeID = uuid.MustParse("20000000-0000-0000-0000-000000000001")
	ckaTypeID = uuid.MustParse("20000000-0000-0000-0000-000000000002")

	backendRoleID  = uuid.MustParse("30000000-0000-0000-0000-000000000001")
	backendJunior  = uuid.MustParse("30000000-0000-0000-0000-000000000011")
	backendMiddle  = uuid.MustParse("30000000-0000-0000-0000-000000000012")
	backendSenior  = uuid.MustParse("30000000-0000-0000-0000-000000000013")
	platformRoleID = uuid.MustParse("30000000-0000-0000-0000-000000000002")
	platformMid    = uuid.MustParse("30000000-0000-0000-0000-000000000021")
)

type fixture struct {
	profile    *fakeProfile
	comparison *types.ComparisonResult
	catalogs   *types.Catalogs
	applier    *Applier
	goSkill    uuid.UUID // talent skill id
	acme       uuid.UUID // work experience id
	awsCert    uuid.UUID // certificate id
	ckaCert    uuid.UUID // certificate id
	backend    uuid.UUID // talent job role level id
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	talentID := uuid.New()
	goSkill := uuid.New()
	acme := uuid.New()
	awsCert := uuid.New()
	ckaCert := uuid.New()
	backend := uuid.New()
	profile := &fakeProfile{profile: types.TalentProfile{
		TalentID:  talentID,
		BasicInfo: types.BasicInfo{FullName: "An Nguyen", Email: "an@example.com", Location: "Hanoi"},
		Skills: []types.TalentSkill{
			{ID: goSkill, TalentID: talentID, SkillID: goSkillID, SkillName: "Go", Level: types.SkillLevelIntermediate},
		},
		WorkExperiences: []types.WorkExperience{
			{ID: acme, TalentID: talentID, Company: "Acme", Position: "Dev", StartDate: "2020-01", EndDate: "2021-01", Description: "APIs"},
		},
		Certificates: []types.TalentCertificate{
			{ID: awsCert, TalentID: talentID, CertificateTypeID: awsTypeID, Name: "AWS SAA", IssuedDate: "2021-05"},
			{ID: ckaCert, TalentID: talentID, CertificateTypeID: ckaTypeID, Name: "CKA", IssuedDate: "2022-09"},
		},
		JobRoleLevels: []types.TalentJobRoleLevel{
			{ID: backend, TalentID: talentID, JobRoleID: backendRoleID, JobRoleLevelID: backendMiddle, Position: "Backend Developer", Level: "Middle"},
		},
	}}

	extracted := &types.ExtractedCVData{
		CVID:      uuid.New(),
		BasicInfo: types.ExtractedBasicInfo{FullName: "An Nguyen", Location: "Da Nang", Phone: "0912345678"},
		Skills: []types.ExtractedSkill{
			{Name: "Go", Level: "expert"},
			{Name: "PostgreSQL", Level: "intermediate"},
			{Name: "Rust"},
		},
		WorkExperiences: []types.ExtractedWorkExperience{
			{Company: "Acme", Position: "Developer", StartDate: "2020-02", EndDate: "2021-01"},
			{Company: "Globex", Position: "Tech Lead", StartDate: "2021-02"},
		},
		Projects:     []types.ExtractedProject{{Name: "Payment Gateway", Technologies: []string{"Go"}}},
		Certificates: []types.ExtractedCertificate{{Name: "AWS Solutions Architect Associate", IssuedDate: "2024-01"}},
		JobRoleLevels: []types.ExtractedJobRoleLevel{
			{Position: "Backend Developer", Level: "Senior"},
			{Position: "Platform Eng.", Level: "Mid"},
		},
	}
	catalogs := &types.Catalogs{
		Skills: []types.CatalogSkill{
			{ID: goSkillID, Name: "Go"},
			{ID: pgSkillID, Name: "PostgreSQL"},
			{ID: rustLangID, Name: "Rust (language)"},
		},
		CertificateTypes: []types.CertificateType{
			{ID: awsTypeID, Name: "AWS Solutions Architect Associate", Issuer: "Amazon"},
			{ID: ckaTypeID, Name: "Certified Kubernetes Administrator", Issuer: "CNCF"},
		},
		JobRoles: []types.JobRole{
			{ID: backendRoleID, Name: "Backend Developer", Levels: []types.JobRoleLevel{
				{ID: backendJunior, Name: "Junior", Ordinal: 0},
				{ID: backendMiddle, Name: "Middle", Ordinal: 1},
				{ID: backendSenior, Name: "Senior", Ordinal: 2},
			}},
			{ID: platformRoleID, Name: "Platform Engineer", Levels: []types.JobRoleLevel{
				{ID: platformMid, Name: "Mid", Ordinal: 0},
			}},
		},
	}

	snapshot, err := profile.Snapshot(context.Background())
	require.NoError(t, err)
	comparison, err := reconcile.NewEngine(similarity.DefaultConfig(), nil).
		Analyze(context.Background(), extracted, snapshot, catalogs, now)
	require.NoError(t, err)
	comparison.AnalysisID = uuid.New()

	ids := 0
	applier := NewApplier(Options{
		Now: func() time.Time { return now },
		NewID: func() uuid.UUID {
			ids++
			return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(ids)})
		},
	})

	return &fixture{
		profile:    profile,
		comparison: comparison,
		catalogs:   catalogs,
		applier:    applier,
		goSkill:    goSkill,
		acme:       acme,
		awsCert:    awsCert,
		ckaCert:    ckaCert,
		backend:    backend,
	}
}

func ptrID(id uuid.UUID) *uuid.UUID { return &id }

func TestApply_EmptyDecisionIsNoOp(t *testing.T) {
	f := newFixture(t)

	stats, err := f.applier.Apply(context.Background(), &types.UpdateDecision{AnalysisID: f.comparison.AnalysisID}, f.comparison, f.catalogs, f.profile)

	require.NoError(t, err)
	assert.Equal(t, &types.UpdateStatistics{}, stats)
	assert.Zero(t, f.profile.writes)
}

func TestApply_AllSkipIsNoOp(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID:      f.comparison.AnalysisID,
		Skills:          []types.SkillAction{{ActionType: types.ActionSkip, SourceKey: "skills:1"}},
		WorkExperiences: []types.WorkExperienceAction{{ActionType: types.ActionSkip, SourceKey: "work_experiences:0"}},
		Projects:        []types.ProjectAction{{ActionType: types.ActionSkip}},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

	require.NoError(t, err)
	assert.Zero(t, stats.Changes())
	assert.Empty(t, stats.Failed)
	assert.Zero(t, f.profile.writes)
}

func TestApply_MergeAndAdd(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		WorkExperiences: []types.WorkExperienceAction{
			{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.acme), SourceKey: "work_experiences:0"},
			{ActionType: types.ActionAdd, SourceKey: "work_experiences:1"},
		},
		Projects: []types.ProjectAction{{ActionType: types.ActionAdd, SourceKey: "projects:0"}},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.WorkExperiencesUpdated)
	assert.Equal(t, 1, stats.WorkExperiencesAdded)
	assert.Equal(t, 1, stats.ProjectsAdded)

	require.Len(t, f.profile.profile.WorkExperiences, 2)
	merged := f.profile.profile.WorkExperiences[0]
	assert.Equal(t, f.acme, merged.ID)
	assert.Equal(t, f.profile.profile.TalentID, merged.TalentID)
	assert.Equal(t, "Developer", merged.Position)
	assert.Equal(t, "2020-02", merged.StartDate)
	assert.Equal(t, "APIs", merged.Description, "blank CV fields do not erase stored values")
	require.NotNil(t, merged.SourceCVID)
	assert.Equal(t, f.comparison.CVID, *merged.SourceCVID)
	assert.Equal(t, now, merged.UpdatedAt)

	added := f.profile.profile.WorkExperiences[1]
	assert.Equal(t, "Globex", added.Company)
	assert.Equal(t, now, added.CreatedAt)
	require.NotNil(t, added.SourceCVID)
}

func TestApply_PayloadOverridesExtractedRecord(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		WorkExperiences: []types.WorkExperienceAction{{
			ActionType: types.ActionAdd,
			SourceKey:  "work_experiences:1",
			Payload:    &types.ExtractedWorkExperience{Company: "Globex Corp", Position: "Lead Engineer", StartDate: "2021-03"},
		}},
	}

	_, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)

	added := f.profile.profile.WorkExperiences[1]
	assert.Equal(t, "Globex Corp", added.Company)
	assert.Equal(t, "Lead Engineer", added.Position)
}

func TestApply_UnownedTargetFailsOnlyThatEntry(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		Skills: []types.SkillAction{
			{ActionType: types.ActionAdd, SourceKey: "skills:1"},
		},
		WorkExperiences: []types.WorkExperienceAction{
			{ActionType: types.ActionUpdate, TargetExistingID: ptrID(stranger), SourceKey: "work_experiences:0"},
			{ActionType: types.ActionAdd, SourceKey: "work_experiences:1"},
		},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

	var partial *types.PartialApplyError
	require.True(t, errors.As(err, &partial))
	require.Len(t, partial.Failures, 1)
	var nf *types.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, stranger.String(), nf.ID)

	assert.Equal(t, 1, stats.SkillsAdded)
	assert.Equal(t, 1, stats.WorkExperiencesAdded)
	assert.Zero(t, stats.WorkExperiencesUpdated)
	require.Len(t, stats.Failed, 1)
	assert.Equal(t, types.CategoryWorkExperiences, stats.Failed[0].Category)
	assert.Equal(t, 0, stats.Failed[0].Index)
}

func TestApply_TargetDeletedSinceAnalysis(t *testing.T) {
	f := newFixture(t)
	f.profile.profile.WorkExperiences = nil
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		WorkExperiences: []types.WorkExperienceAction{
			{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.acme), SourceKey: "work_experiences:0"},
		},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

	var nf *types.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Zero(t, stats.Changes())
}

func TestApply_Skills(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		Skills: []types.SkillAction{
			{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.goSkill), SourceKey: "skills:0"},
			{ActionType: types.ActionAdd, SourceKey: "skills:1"},
		},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkillsUpdated)
	assert.Equal(t, 1, stats.SkillsAdded)
	require.Len(t, f.profile.profile.Skills, 2)
	assert.Equal(t, types.SkillLevelExpert, f.profile.profile.Skills[0].Level)
	assert.Equal(t, goSkillID, f.profile.profile.Skills[0].SkillID)
	assert.Equal(t, pgSkillID, f.profile.profile.Skills[1].SkillID)
	assert.Equal(t, types.SkillLevelIntermediate, f.profile.profile.Skills[1].Level)
	assert.Equal(t, now, f.profile.profile.Skills[1].CreatedAt)
}

func TestApply_RemoveSkill(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		Skills:     []types.SkillAction{{ActionType: types.ActionRemove, TargetExistingID: ptrID(f.goSkill)}},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkillsRemoved)
	assert.Empty(t, f.profile.profile.Skills)
}

func TestApply_UnmatchedSkillNeedsCatalogID(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		Skills:     []types.SkillAction{{ActionType: types.ActionAdd, SourceKey: "skills:2"}},
	}

	_, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "skills[0]", verr.Field)
	assert.Zero(t, f.profile.writes)

	decision.Skills[0].Payload = &types.SkillPayload{SkillID: uuid.New()}
	_, err = f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.True(t, errors.As(err, &verr), "an id outside the skill catalog is rejected")
	assert.Contains(t, verr.Message, "skill catalog")
	assert.Zero(t, f.profile.writes)

	decision.Skills[0].Payload = &types.SkillPayload{SkillID: rustLangID}
	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkillsAdded)
	assert.Equal(t, rustLangID, f.profile.profile.Skills[1].SkillID)
	assert.Equal(t, "Rust (language)", f.profile.profile.Skills[1].SkillName)
}

func TestApply_BasicInfo(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		BasicInfo:  &types.BasicInfoDecision{Fields: []string{types.FieldLocation, types.FieldPhone, types.FieldFullName, types.FieldEmail}},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)

	// full_name is unchanged and email is absent from the CV
	assert.Equal(t, 2, stats.BasicInfoFieldsUpdated)
	assert.Equal(t, "Da Nang", f.profile.profile.BasicInfo.Location)
	assert.Equal(t, "0912345678", f.profile.profile.BasicInfo.Phone)
	assert.Equal(t, "an@example.com", f.profile.profile.BasicInfo.Email)
}

func TestApply_ValidationRejectsWholeDecision(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, d *types.UpdateDecision)
	}{
		{"update without target", func(f *fixture, d *types.UpdateDecision) {
			d.WorkExperiences = append(d.WorkExperiences, types.WorkExperienceAction{ActionType: types.ActionUpdate, SourceKey: "work_experiences:0"})
		}},
		{"wrong analysis", func(f *fixture, d *types.UpdateDecision) {
			d.AnalysisID = uuid.New()
		}},
		{"unknown source key", func(f *fixture, d *types.UpdateDecision) {
			d.Projects = []types.ProjectAction{{ActionType: types.ActionAdd, SourceKey: "projects:9"}}
		}},
		{"source key from another category", func(f *fixture, d *types.UpdateDecision) {
			d.Projects = []types.ProjectAction{{ActionType: types.ActionAdd, SourceKey: "work_experiences:1"}}
		}},
		{"source key used twice", func(f *fixture, d *types.UpdateDecision) {
			d.WorkExperiences = append(d.WorkExperiences, types.WorkExperienceAction{ActionType: types.ActionAdd, SourceKey: "work_experiences:1"})
		}},
		{"skill already on profile", func(f *fixture, d *types.UpdateDecision) {
			d.Skills = []types.SkillAction{{ActionType: types.ActionAdd, SourceKey: "skills:0"}}
		}},
		{"remove is only for skills", func(f *fixture, d *types.UpdateDecision) {
			d.Projects = []types.ProjectAction{{ActionType: types.ActionRemove, TargetExistingID: ptrID(uuid.New())}}
		}},
		{"invalid level", func(f *fixture, d *types.UpdateDecision) {
			d.Skills = []types.SkillAction{{ActionType: types.ActionAdd, SourceKey: "skills:1", Payload: &types.SkillPayload{Level: "godlike"}}}
		}},
		{"certificate type outside the catalog", func(f *fixture, d *types.UpdateDecision) {
			d.Certificates = []types.CertificateAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.awsCert), Payload: &types.CertificatePayload{CertificateTypeID: uuid.New()}}}
		}},
		{"job role level outside the catalog", func(f *fixture, d *types.UpdateDecision) {
			d.JobRoleLevels = []types.JobRoleLevelAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.backend), SourceKey: "job_role_levels:0", Payload: &types.JobRoleLevelPayload{JobRoleLevelID: uuid.New()}}}
		}},
		{"add of a held certificate", func(f *fixture, d *types.UpdateDecision) {
			d.Certificates = []types.CertificateAction{{ActionType: types.ActionAdd, SourceKey: "certificates:0"}}
		}},
		{"add of an unmatched position without a level", func(f *fixture, d *types.UpdateDecision) {
			d.JobRoleLevels = []types.JobRoleLevelAction{{ActionType: types.ActionAdd, SourceKey: "job_role_levels:1"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			decision := &types.UpdateDecision{
				AnalysisID:      f.comparison.AnalysisID,
				WorkExperiences: []types.WorkExperienceAction{{ActionType: types.ActionAdd, SourceKey: "work_experiences:1"}},
			}
			tt.mutate(f, decision)

			stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

			var verr *types.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
			assert.Nil(t, stats)
			assert.Zero(t, f.profile.writes)
		})
	}
}

func TestApply_StoreFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.profile.failWrite = errStoreDown
	decision := &types.UpdateDecision{
		AnalysisID:      f.comparison.AnalysisID,
		WorkExperiences: []types.WorkExperienceAction{{ActionType: types.ActionAdd, SourceKey: "work_experiences:1"}},
	}

	_, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

	assert.ErrorIs(t, err, errStoreDown)
	var partial *types.PartialApplyError
	assert.False(t, errors.As(err, &partial))
}

func TestApply_UpdateMustTargetThePairedRecord(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, d *types.UpdateDecision)
		want   string
	}{
		{"skill target from another source key", func(f *fixture, d *types.UpdateDecision) {
			python := uuid.New()
			f.profile.profile.Skills = append(f.profile.profile.Skills, types.TalentSkill{
				ID: python, TalentID: f.profile.profile.TalentID, SkillID: pythonSkillID, SkillName: "Python", Level: types.SkillLevelBeginner,
			})
			d.Skills = []types.SkillAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(python), SourceKey: "skills:0"}}
		}, "was paired with"},
		{"skill update of a new entry", func(f *fixture, d *types.UpdateDecision) {
			d.Skills = []types.SkillAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.goSkill), SourceKey: "skills:1"}}
		}, "use add"},
		{"work update of a new entry", func(f *fixture, d *types.UpdateDecision) {
			d.WorkExperiences = []types.WorkExperienceAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.acme), SourceKey: "work_experiences:1"}}
		}, "use add"},
		{"work target the duplicate was not paired with", func(f *fixture, d *types.UpdateDecision) {
			other := uuid.New()
			f.profile.profile.WorkExperiences = append(f.profile.profile.WorkExperiences, types.WorkExperience{
				ID: other, TalentID: f.profile.profile.TalentID, Company: "Initech", Position: "QA",
			})
			d.WorkExperiences = []types.WorkExperienceAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(other), SourceKey: "work_experiences:0"}}
		}, "was paired with"},
		{"certificate of another type", func(f *fixture, d *types.UpdateDecision) {
			d.Certificates = []types.CertificateAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.ckaCert), SourceKey: "certificates:0"}}
		}, "was paired with"},
		{"job role held under another role", func(f *fixture, d *types.UpdateDecision) {
			platform := uuid.New()
			f.profile.profile.JobRoleLevels = append(f.profile.profile.JobRoleLevels, types.TalentJobRoleLevel{
				ID: platform, TalentID: f.profile.profile.TalentID, JobRoleID: platformRoleID, JobRoleLevelID: platformMid, Position: "Platform Engineer", Level: "Mid",
			})
			d.JobRoleLevels = []types.JobRoleLevelAction{{ActionType: types.ActionUpdate, TargetExistingID: ptrID(platform), SourceKey: "job_role_levels:0"}}
		}, "was paired with"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			decision := &types.UpdateDecision{AnalysisID: f.comparison.AnalysisID}
			tt.mutate(f, decision)
			before := f.profile.profile

			stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

			var verr *types.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Message, tt.want)
			assert.Nil(t, stats)
			assert.Zero(t, f.profile.writes)
			assert.Equal(t, before, f.profile.profile)
		})
	}
}

func TestApply_UpdateOfRecordTheRunNeverOfferedFailsAlone(t *testing.T) {
	f := newFixture(t)
	python := uuid.New()
	f.profile.profile.Skills = append(f.profile.profile.Skills, types.TalentSkill{
		ID: python, TalentID: f.profile.profile.TalentID, SkillID: pythonSkillID, SkillName: "Python", Level: types.SkillLevelBeginner,
	})
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		Skills: []types.SkillAction{
			{ActionType: types.ActionUpdate, TargetExistingID: ptrID(python), Payload: &types.SkillPayload{Level: types.SkillLevelExpert}},
			{ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.goSkill), SourceKey: "skills:0"},
		},
	}

	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

	var partial *types.PartialApplyError
	require.True(t, errors.As(err, &partial), "got %v", err)
	require.Len(t, partial.Failures, 1)
	var nf *types.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, python.String(), nf.ID)

	assert.Equal(t, 1, stats.SkillsUpdated)
	require.Len(t, stats.Failed, 1)
	assert.Equal(t, types.CategorySkills, stats.Failed[0].Category)
	assert.Equal(t, 0, stats.Failed[0].Index)
	assert.Equal(t, types.SkillLevelBeginner, f.profile.profile.Skills[1].Level)
	assert.Equal(t, types.SkillLevelExpert, f.profile.profile.Skills[0].Level)
}

func TestApply_AddOfPotentialDuplicateFollowsRecommendation(t *testing.T) {
	tests := []struct {
		recommendation types.Recommendation
		allowed        bool
	}{
		{types.RecommendationKeepBoth, true},
		{types.RecommendationMergeUpdate, false},
		{types.RecommendationIgnoreDuplicate, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.recommendation), func(t *testing.T) {
			f := newFixture(t)
			require.Len(t, f.comparison.WorkExperiences.PotentialDuplicates, 1)
			f.comparison.WorkExperiences.PotentialDuplicates[0].Recommendation = tt.recommendation
			decision := &types.UpdateDecision{
				AnalysisID:      f.comparison.AnalysisID,
				WorkExperiences: []types.WorkExperienceAction{{ActionType: types.ActionAdd, SourceKey: "work_experiences:0"}},
			}

			stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

			if !tt.allowed {
				var verr *types.ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Contains(t, verr.Message, "potential duplicate")
				assert.Zero(t, f.profile.writes)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, stats.WorkExperiencesAdded)
			require.Len(t, f.profile.profile.WorkExperiences, 2)
			assert.Equal(t, "Dev", f.profile.profile.WorkExperiences[0].Position)
			assert.Equal(t, "Developer", f.profile.profile.WorkExperiences[1].Position)
		})
	}
}

func TestApply_CertificateUpdateKeepsItsType(t *testing.T) {
	f := newFixture(t)
	decision := &types.UpdateDecision{
		AnalysisID: f.comparison.AnalysisID,
		Certificates: []types.CertificateAction{{
			ActionType:       types.ActionUpdate,
			TargetExistingID: ptrID(f.awsCert),
			SourceKey:        "certificates:0",
			Payload:          &types.CertificatePayload{CertificateTypeID: ckaTypeID},
		}},
	}

	_, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Zero(t, f.profile.writes)

	decision.Certificates[0].Payload = &types.CertificatePayload{ExpiryDate: "2027-01"}
	stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CertificatesUpdated)
	cert := f.profile.profile.Certificates[0]
	assert.Equal(t, awsTypeID, cert.CertificateTypeID)
	assert.Equal(t, "2024-01", cert.IssuedDate)
	assert.Equal(t, "2027-01", cert.ExpiryDate)
	assert.Equal(t, "CKA", f.profile.profile.Certificates[1].Name, "the unrelated certificate is untouched")
}

func TestApply_JobRoleLevelPayload(t *testing.T) {
	t.Run("level of another role is rejected", func(t *testing.T) {
		f := newFixture(t)
		decision := &types.UpdateDecision{
			AnalysisID: f.comparison.AnalysisID,
			JobRoleLevels: []types.JobRoleLevelAction{{
				ActionType:       types.ActionUpdate,
				TargetExistingID: ptrID(f.backend),
				SourceKey:        "job_role_levels:0",
				Payload:          &types.JobRoleLevelPayload{JobRoleLevelID: platformMid},
			}},
		}

		_, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)

		var verr *types.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Contains(t, verr.Message, "another job role")
		assert.Zero(t, f.profile.writes)
		assert.Equal(t, backendMiddle, f.profile.profile.JobRoleLevels[0].JobRoleLevelID)
	})

	t.Run("update follows the matched level", func(t *testing.T) {
		f := newFixture(t)
		decision := &types.UpdateDecision{
			AnalysisID: f.comparison.AnalysisID,
			JobRoleLevels: []types.JobRoleLevelAction{{
				ActionType: types.ActionUpdate, TargetExistingID: ptrID(f.backend), SourceKey: "job_role_levels:0",
			}},
		}

		_, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
		require.NoError(t, err)

		jrl := f.profile.profile.JobRoleLevels[0]
		assert.Equal(t, backendSenior, jrl.JobRoleLevelID)
		assert.Equal(t, "Senior", jrl.Level)
	})

	t.Run("payload level overrides the matched level", func(t *testing.T) {
		f := newFixture(t)
		years := 4.5
		decision := &types.UpdateDecision{
			AnalysisID: f.comparison.AnalysisID,
			JobRoleLevels: []types.JobRoleLevelAction{{
				ActionType:       types.ActionUpdate,
				TargetExistingID: ptrID(f.backend),
				SourceKey:        "job_role_levels:0",
				Payload:          &types.JobRoleLevelPayload{JobRoleLevelID: backendJunior, YearsOfExp: &years},
			}},
		}

		stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
		require.NoError(t, err)

		assert.Equal(t, 1, stats.JobRoleLevelsUpdated)
		jrl := f.profile.profile.JobRoleLevels[0]
		assert.Equal(t, backendRoleID, jrl.JobRoleID)
		assert.Equal(t, backendJunior, jrl.JobRoleLevelID)
		assert.Equal(t, "Junior", jrl.Level, "the level name follows the level id")
		require.NotNil(t, jrl.YearsOfExp)
		assert.InDelta(t, 4.5, *jrl.YearsOfExp, 0.001)
	})

	t.Run("unmatched position takes the payload level's role", func(t *testing.T) {
		f := newFixture(t)
		decision := &types.UpdateDecision{
			AnalysisID: f.comparison.AnalysisID,
			JobRoleLevels: []types.JobRoleLevelAction{{
				ActionType: types.ActionAdd,
				SourceKey:  "job_role_levels:1",
				Payload:    &types.JobRoleLevelPayload{JobRoleLevelID: platformMid},
			}},
		}

		stats, err := f.applier.Apply(context.Background(), decision, f.comparison, f.catalogs, f.profile)
		require.NoError(t, err)

		assert.Equal(t, 1, stats.JobRoleLevelsAdded)
		require.Len(t, f.profile.profile.JobRoleLevels, 2)
		added := f.profile.profile.JobRoleLevels[1]
		assert.Equal(t, platformRoleID, added.JobRoleID)
		assert.Equal(t, platformMid, added.JobRoleLevelID)
		assert.Equal(t, "Platform Engineer", added.Position)
		assert.Equal(t, "Mid", added.Level)
	})
}
