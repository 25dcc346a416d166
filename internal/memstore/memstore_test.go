package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/decisions"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/jonathan/talent-reconciler/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	talentID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	groupID  = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	goID     = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	sqlID    = uuid.MustParse("00000000-0000-0000-0000-0000000000b2")
	expertID = uuid.MustParse("00000000-0000-0000-0000-0000000000e1")
)

func seeded() *Store {
	s := New()
	s.SetCatalogs(types.Catalogs{
		Skills: []types.CatalogSkill{
			{ID: goID, Name: "Go"},
			{ID: sqlID, Name: "SQL", SkillGroupIDs: []uuid.UUID{groupID}},
		},
		SkillGroups: []types.SkillGroup{{ID: groupID, Name: "Backend", SkillIDs: []uuid.UUID{goID}}},
	})
	s.PutProfile(types.TalentProfile{
		TalentID:  talentID,
		BasicInfo: types.BasicInfo{FullName: "Nguyen Van A", Links: []string{"https://github.com/a"}},
		Skills: []types.TalentSkill{
			{ID: uuid.New(), SkillID: goID, SkillName: "Go", Level: types.SkillLevelAdvanced},
			{ID: uuid.New(), SkillID: sqlID, SkillName: "SQL", Level: types.SkillLevelIntermediate},
		},
	})
	s.AssignExpert(expertID, groupID)
	return s
}

func TestGetProfile_ReturnsCopy(t *testing.T) {
	s := seeded()
	p, err := s.GetProfile(context.Background(), talentID)
	require.NoError(t, err)
	p.BasicInfo.Links[0] = "changed"
	p.Skills = nil

	again, err := s.GetProfile(context.Background(), talentID)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/a", again.BasicInfo.Links[0])
	assert.Len(t, again.Skills, 2)
}

func TestGetProfile_NotFound(t *testing.T) {
	_, err := New().GetProfile(context.Background(), uuid.New())
	var nf *types.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestUpdateProfile_CommitsOnSuccess(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	err := s.UpdateProfile(ctx, talentID, func(p decisions.MutableProfile) error {
		return p.AddWorkExperience(ctx, types.WorkExperience{ID: uuid.New(), Company: "FPT Software"})
	})
	require.NoError(t, err)

	p, err := s.GetProfile(ctx, talentID)
	require.NoError(t, err)
	require.Len(t, p.WorkExperiences, 1)
	assert.Equal(t, talentID, p.WorkExperiences[0].TalentID)
}

func TestUpdateProfile_RollsBackOnError(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.UpdateProfile(ctx, talentID, func(p decisions.MutableProfile) error {
		require.NoError(t, p.AddProject(ctx, types.Project{ID: uuid.New(), Name: "CRM"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.GetProfile(ctx, talentID)
	require.NoError(t, err)
	assert.Empty(t, p.Projects)
}

func TestUpdateProfile_UnknownRecordIsNotFound(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	err := s.UpdateProfile(ctx, talentID, func(p decisions.MutableProfile) error {
		return p.UpdateCertificate(ctx, types.TalentCertificate{ID: uuid.New()})
	})
	var nf *types.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "certificate", nf.Resource)
}

func TestGroupSkills_UsesBothMembershipSources(t *testing.T) {
	s := seeded()
	skills, err := s.GroupSkills(context.Background(), talentID, groupID)
	require.NoError(t, err)
	names := make([]string, 0, len(skills))
	for _, sk := range skills {
		names = append(names, sk.Name)
	}
	assert.ElementsMatch(t, []string{"Go", "SQL"}, names)
}

func TestIsAssigned(t *testing.T) {
	s := seeded()
	ok, err := s.IsAssigned(context.Background(), expertID, groupID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAssigned(context.Background(), uuid.New(), groupID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithinTx_VersionConflict(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	err := s.WithinTx(ctx, talentID, groupID, func(tx verification.Tx) error {
		return tx.SaveVerification(ctx, types.SkillGroupVerification{
			TalentID: talentID, SkillGroupID: groupID, State: types.StateVerified, Version: 1, UpdatedAt: now,
		})
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, talentID, groupID, func(tx verification.Tx) error {
		return tx.SaveVerification(ctx, types.SkillGroupVerification{
			TalentID: talentID, SkillGroupID: groupID, State: types.StateInvalid, Version: 1,
		})
	})
	var conflict *types.ConflictError
	require.True(t, errors.As(err, &conflict))

	v, err := s.GetVerification(ctx, talentID, groupID)
	require.NoError(t, err)
	assert.Equal(t, types.StateVerified, v.State)
}

func TestWithinTx_SecondActiveAssessmentRejected(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	err := s.WithinTx(ctx, talentID, groupID, func(tx verification.Tx) error {
		require.NoError(t, tx.AppendAssessment(ctx, types.SkillGroupAssessment{ID: uuid.New(), IsActive: true, Sequence: 1}))
		return tx.AppendAssessment(ctx, types.SkillGroupAssessment{ID: uuid.New(), IsActive: true, Sequence: 2})
	})
	var conflict *types.ConflictError
	assert.True(t, errors.As(err, &conflict))

	history, err := s.ListAssessments(ctx, talentID, groupID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGetVerification_NoneIsNil(t *testing.T) {
	v, err := seeded().GetVerification(context.Background(), talentID, groupID)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAnalyses_MarkAppliedOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, s.SaveAnalysis(ctx, &types.Analysis{ID: id, TalentID: talentID}))

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkApplied(ctx, id, at, &types.UpdateStatistics{SkillsAdded: 1}))

	a, err := s.GetAnalysis(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, a.AppliedAt)
	assert.Equal(t, 1, a.Statistics.SkillsAdded)

	err = s.MarkApplied(ctx, id, at, nil)
	var conflict *types.ConflictError
	assert.True(t, errors.As(err, &conflict))

	_, err = s.GetAnalysis(ctx, uuid.New())
	var nf *types.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
