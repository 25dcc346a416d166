package talent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/memstore"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalogs struct {
	mock.Mock
}

func (m *mockCatalogs) LoadCatalogs(ctx context.Context) (*types.Catalogs, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(*types.Catalogs)
	return c, args.Error(1)
}

type mockAnalyses struct {
	mock.Mock
}

func (m *mockAnalyses) SaveAnalysis(ctx context.Context, a *types.Analysis) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAnalyses) GetAnalysis(ctx context.Context, id uuid.UUID) (*types.Analysis, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*types.Analysis)
	return a, args.Error(1)
}

func (m *mockAnalyses) MarkApplied(ctx context.Context, id uuid.UUID, at time.Time, stats *types.UpdateStatistics) error {
	return m.Called(ctx, id, at, stats).Error(0)
}

func newMockedService(t *testing.T, catalogs CatalogStore, analyses AnalysisStore) *Service {
	t.Helper()
	store := memstore.New()
	store.PutProfile(types.TalentProfile{
		TalentID:  talentID,
		BasicInfo: types.BasicInfo{FullName: "An Nguyen"},
	})
	return NewService(Stores{
		Profiles:      store,
		Catalogs:      catalogs,
		Analyses:      analyses,
		Verifications: store,
		Experts:       store,
		GroupSkills:   store,
	}, Options{Now: func() time.Time { return day1 }})
}

func TestAnalyze_CatalogFailureSavesNothing(t *testing.T) {
	catalogs := &mockCatalogs{}
	analyses := &mockAnalyses{}
	boom := errors.New("catalog unavailable")
	catalogs.On("LoadCatalogs", mock.Anything).Return(nil, boom).Once()

	svc := newMockedService(t, catalogs, analyses)
	_, err := svc.Analyze(context.Background(), talentID, extractedCV())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	catalogs.AssertExpectations(t)
	analyses.AssertNotCalled(t, "SaveAnalysis", mock.Anything, mock.Anything)
}

func TestAnalyze_SaveFailureIsWrapped(t *testing.T) {
	catalogs := &mockCatalogs{}
	analyses := &mockAnalyses{}
	boom := errors.New("disk full")
	catalogs.On("LoadCatalogs", mock.Anything).Return(&types.Catalogs{}, nil)
	analyses.On("SaveAnalysis", mock.Anything, mock.MatchedBy(func(a *types.Analysis) bool {
		return a.TalentID == talentID && a.Result.AnalysisID == a.ID
	})).Return(boom).Once()

	svc := newMockedService(t, catalogs, analyses)
	_, err := svc.Analyze(context.Background(), talentID, extractedCV())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to save analysis")
	analyses.AssertExpectations(t)
}

func TestApplyDecisions_StoreFailureIsNotValidation(t *testing.T) {
	analyses := &mockAnalyses{}
	analysisID := uuid.New()
	boom := errors.New("connection reset")
	analyses.On("GetAnalysis", mock.Anything, analysisID).Return(nil, boom).Once()

	svc := newMockedService(t, &mockCatalogs{}, analyses)
	_, err := svc.ApplyDecisions(context.Background(), talentID, &types.UpdateDecision{
		AnalysisID: analysisID,
		BasicInfo:  &types.BasicInfoDecision{Fields: []string{types.FieldPhone}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var verr *types.ValidationError
	assert.False(t, errors.As(err, &verr))
	analyses.AssertNotCalled(t, "MarkApplied", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyDecisions_AlreadyAppliedSkipsProfile(t *testing.T) {
	analyses := &mockAnalyses{}
	analysisID := uuid.New()
	applied := day1.Add(-time.Hour)
	analyses.On("GetAnalysis", mock.Anything, analysisID).Return(&types.Analysis{
		ID:        analysisID,
		TalentID:  talentID,
		AppliedAt: &applied,
	}, nil)

	svc := newMockedService(t, &mockCatalogs{}, analyses)
	_, err := svc.ApplyDecisions(context.Background(), talentID, &types.UpdateDecision{
		AnalysisID: analysisID,
		BasicInfo:  &types.BasicInfoDecision{Fields: []string{types.FieldPhone}},
	})

	var conflict *types.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "analysis", conflict.Resource)
	analyses.AssertNotCalled(t, "MarkApplied", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
