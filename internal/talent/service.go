// Package talent exposes reconciliation and skill-group verification as one
// service over pluggable stores.
package talent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/decisions"
	"github.com/jonathan/talent-reconciler/internal/reconcile"
	"github.com/jonathan/talent-reconciler/internal/similarity"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/jonathan/talent-reconciler/internal/verification"
	"go.uber.org/zap"
)

// ProfileStore reads profiles and runs transactional profile updates
type ProfileStore interface {
	GetProfile(ctx context.Context, talentID uuid.UUID) (*types.TalentProfile, error)
	// UpdateProfile commits the writes made through the MutableProfile when fn
	// returns nil and discards them otherwise
	UpdateProfile(ctx context.Context, talentID uuid.UUID, fn func(decisions.MutableProfile) error) error
}

// CatalogStore loads the skill, certificate and job-role catalogs
type CatalogStore interface {
	LoadCatalogs(ctx context.Context) (*types.Catalogs, error)
}

// AnalysisStore persists analysis runs
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a *types.Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*types.Analysis, error)
	// MarkApplied fails with *types.ConflictError when the run was already applied
	MarkApplied(ctx context.Context, id uuid.UUID, at time.Time, stats *types.UpdateStatistics) error
}

// Stores bundles the collaborators of a Service
type Stores struct {
	Profiles      ProfileStore
	Catalogs      CatalogStore
	Analyses      AnalysisStore
	Verifications verification.Store
	Experts       verification.ExpertDirectory
	GroupSkills   verification.SkillSource
}

// Options configures a Service
type Options struct {
	Matching     similarity.Config
	Verification verification.Options
	Now          func() time.Time
	NewID        func() uuid.UUID
	Logger       *zap.Logger
}

// Service is the entry point used by the HTTP server and the CLI
type Service struct {
	stores  Stores
	engine  *reconcile.Engine
	applier *decisions.Applier
	machine *verification.Machine
	now     func() time.Time
	newID   func() uuid.UUID
	logger  *zap.Logger
}

// NewService wires the engine, the applier and the verification machine
func NewService(stores Stores, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	vopts := opts.Verification
	if vopts.Now == nil {
		vopts.Now = opts.Now
	}
	if vopts.NewID == nil {
		vopts.NewID = opts.NewID
	}
	if vopts.Logger == nil {
		vopts.Logger = opts.Logger.Named("verification")
	}

	return &Service{
		stores: stores,
		engine: reconcile.NewEngine(opts.Matching, opts.Logger.Named("reconcile")),
		applier: decisions.NewApplier(decisions.Options{
			Now:    opts.Now,
			NewID:  opts.NewID,
			Logger: opts.Logger.Named("decisions"),
		}),
		machine: verification.NewMachine(stores.Verifications, stores.Experts, stores.GroupSkills, vopts),
		now:     opts.Now,
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
}

// Analyze reconciles extracted CV data against the talent's profile and
// persists the run. Nothing on the profile changes.
func (s *Service) Analyze(ctx context.Context, talentID uuid.UUID, extracted *types.ExtractedCVData) (*types.Analysis, error) {
	if talentID == uuid.Nil {
		return nil, &types.ValidationError{Field: "talent_id", Message: "is required"}
	}
	if extracted == nil {
		return nil, &types.ValidationError{Field: "extracted", Message: "is required"}
	}

	profile, err := s.stores.Profiles.GetProfile(ctx, talentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	catalogs, err := s.stores.Catalogs.LoadCatalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}

	now := s.now().UTC()
	result, err := s.engine.Analyze(ctx, extracted, profile, catalogs, now)
	if err != nil {
		return nil, err
	}

	analysis := &types.Analysis{
		ID:        s.newID(),
		TalentID:  talentID,
		CVID:      extracted.CVID,
		Extracted: *extracted,
		CreatedAt: now,
	}
	result.AnalysisID = analysis.ID
	analysis.Result = *result

	if err := s.stores.Analyses.SaveAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	s.logger.Info("cv analyzed",
		zap.String("talent_id", talentID.String()),
		zap.String("analysis_id", analysis.ID.String()),
		zap.Int("warnings", len(result.Warnings)),
	)
	return analysis, nil
}

// GetAnalysis returns a persisted run of the talent
func (s *Service) GetAnalysis(ctx context.Context, talentID, analysisID uuid.UUID) (*types.Analysis, error) {
	a, err := s.stores.Analyses.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if a.TalentID != talentID {
		return nil, &types.NotFoundError{Resource: "analysis", ID: analysisID.String()}
	}
	return a, nil
}

// ApplyDecisions commits a reviewer decision for one analysis run in a single
// profile transaction. Entries that fail alone are reported through a
// *types.PartialApplyError alongside the statistics of what was committed. A
// run can be applied once; a second decision for it is a *types.ConflictError.
func (s *Service) ApplyDecisions(ctx context.Context, talentID uuid.UUID, decision *types.UpdateDecision) (*types.UpdateStatistics, error) {
	if talentID == uuid.Nil {
		return nil, &types.ValidationError{Field: "talent_id", Message: "is required"}
	}
	if decision == nil {
		return nil, &types.ValidationError{Field: "decision", Message: "is required"}
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	analysis, err := s.GetAnalysis(ctx, talentID, decision.AnalysisID)
	if err != nil {
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			return nil, &types.ValidationError{Field: "analysis_id", Message: "analysis not found"}
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	if analysis.AppliedAt != nil {
		return nil, &types.ConflictError{Resource: "analysis", ID: analysis.ID.String()}
	}
	catalogs, err := s.stores.Catalogs.LoadCatalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}

	var (
		stats   *types.UpdateStatistics
		partial *types.PartialApplyError
	)
	err = s.stores.Profiles.UpdateProfile(ctx, talentID, func(p decisions.MutableProfile) error {
		st, err := s.applier.Apply(ctx, decision, &analysis.Result, catalogs, p)
		if err != nil && !errors.As(err, &partial) {
			return err
		}
		stats = st
		// a decision that changes nothing leaves the run open for another one
		if st.Changes() == 0 && len(st.Failed) == 0 {
			return nil
		}
		return s.stores.Analyses.MarkApplied(ctx, analysis.ID, s.now().UTC(), st)
	})
	if err != nil {
		return nil, err
	}

	if partial != nil {
		return stats, partial
	}
	return stats, nil
}

// VerifySkillGroup records an expert's judgment on a talent's skill group
func (s *Service) VerifySkillGroup(ctx context.Context, req types.VerifyRequest) (*types.SkillGroupVerification, error) {
	return s.machine.Verify(ctx, req)
}

// InvalidateSkillGroup withdraws a skill group's verification
func (s *Service) InvalidateSkillGroup(ctx context.Context, req types.InvalidateRequest) (*types.SkillGroupVerification, error) {
	return s.machine.Invalidate(ctx, req)
}

// GetVerificationStatus returns the verification with needsReverification derived
func (s *Service) GetVerificationStatus(ctx context.Context, talentID, skillGroupID uuid.UUID) (*types.SkillGroupVerification, error) {
	return s.machine.Status(ctx, talentID, skillGroupID)
}

// GetAssessmentHistory returns the assessment trail, most recent first
func (s *Service) GetAssessmentHistory(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillGroupAssessment, error) {
	return s.machine.History(ctx, talentID, skillGroupID)
}
