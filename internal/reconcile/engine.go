// Package reconcile compares structured CV data with a talent's stored profile
// and assembles one ComparisonResult per analysis run.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/matching"
	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/similarity"
	"github.com/jonathan/talent-reconciler/internal/skills"
	"github.com/jonathan/talent-reconciler/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine runs reconciliation. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	cfg    similarity.Config
	logger *zap.Logger
}

// NewEngine creates an engine with the given scoring configuration
func NewEngine(cfg similarity.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Analyze compares extracted CV data against the profile snapshot. It performs
// no writes and returns the same result for the same inputs and asOf. The
// returned result has no AnalysisID; callers that persist it assign one.
//
// Only malformed input is an error. Empty or low-confidence fields are absorbed
// and reported as warnings.
func (e *Engine) Analyze(
	ctx context.Context,
	extracted *types.ExtractedCVData,
	profile *types.TalentProfile,
	catalogs *types.Catalogs,
	asOf time.Time,
) (*types.ComparisonResult, error) {
	if extracted == nil {
		return nil, &types.ValidationError{Field: "extracted", Message: "is required"}
	}
	if profile == nil || profile.TalentID == uuid.Nil {
		return nil, &types.ValidationError{Field: "talent_id", Message: "is required"}
	}
	if catalogs == nil {
		catalogs = &types.Catalogs{}
	}

	result := &types.ComparisonResult{
		TalentID: profile.TalentID,
		CVID:     extracted.CVID,
		AsOf:     asOf.UTC(),
	}
	scorer := similarity.NewScorer(e.cfg, asOf)

	// Each branch writes only its own fields and warning slice
	var (
		skillWarnings, workWarnings, projectWarnings []types.DataQualityWarning
		certWarnings, roleWarnings                   []types.DataQualityWarning
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result.BasicInfo = CompareBasicInfo(profile.BasicInfo, extracted.BasicInfo)
		return gCtx.Err()
	})

	g.Go(func() error {
		res := skills.Resolve(extracted.Skills, catalogs.Skills, profile.Skills)
		result.Skills = res.Comparison
		skillWarnings = res.Warnings
		return gCtx.Err()
	})

	g.Go(func() error {
		m := &matching.Matcher[types.ExtractedWorkExperience]{
			Category: types.CategoryWorkExperiences,
			Config:   e.cfg,
			Score:    scorer.WorkExperience,
			Diff:     similarity.WorkExperienceDifferences,
		}
		existing := make([]matching.Existing[types.ExtractedWorkExperience], 0, len(profile.WorkExperiences))
		for _, we := range profile.WorkExperiences {
			existing = append(existing, matching.Existing[types.ExtractedWorkExperience]{
				ID: we.ID, CreatedAt: we.CreatedAt, Record: we.View(),
			})
		}
		result.WorkExperiences = m.Match(existing, extracted.WorkExperiences)
		workWarnings = workExperienceWarnings(extracted.WorkExperiences)
		return gCtx.Err()
	})

	g.Go(func() error {
		m := &matching.Matcher[types.ExtractedProject]{
			Category: types.CategoryProjects,
			Config:   e.cfg,
			Score:    scorer.Project,
			Diff:     similarity.ProjectDifferences,
		}
		existing := make([]matching.Existing[types.ExtractedProject], 0, len(profile.Projects))
		for _, p := range profile.Projects {
			existing = append(existing, matching.Existing[types.ExtractedProject]{
				ID: p.ID, CreatedAt: p.CreatedAt, Record: p.View(),
			})
		}
		result.Projects = m.Match(existing, extracted.Projects)
		projectWarnings = projectWarningsFor(extracted.Projects)
		return gCtx.Err()
	})

	g.Go(func() error {
		result.Certificates, certWarnings = CompareCertificates(extracted.Certificates, catalogs.CertificateTypes, profile.Certificates)
		return gCtx.Err()
	})

	g.Go(func() error {
		result.JobRoleLevels, roleWarnings = CompareJobRoleLevels(extracted.JobRoleLevels, catalogs.JobRoles, profile.JobRoleLevels)
		return gCtx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconciliation aborted: %w", err)
	}

	// Fixed category order keeps warnings deterministic
	result.Warnings = make([]types.DataQualityWarning, 0,
		len(skillWarnings)+len(workWarnings)+len(projectWarnings)+len(certWarnings)+len(roleWarnings))
	result.Warnings = append(result.Warnings, skillWarnings...)
	result.Warnings = append(result.Warnings, workWarnings...)
	result.Warnings = append(result.Warnings, projectWarnings...)
	result.Warnings = append(result.Warnings, certWarnings...)
	result.Warnings = append(result.Warnings, roleWarnings...)

	e.logger.Debug("reconciliation complete",
		zap.String("talent_id", profile.TalentID.String()),
		zap.String("cv_id", extracted.CVID.String()),
		zap.Int("skills_new", len(result.Skills.NewFromCV)),
		zap.Int("skills_unmatched", len(result.Skills.Unmatched)),
		zap.Int("work_duplicates", len(result.WorkExperiences.PotentialDuplicates)),
		zap.Int("work_new", len(result.WorkExperiences.NewEntries)),
		zap.Int("project_duplicates", len(result.Projects.PotentialDuplicates)),
		zap.Int("project_new", len(result.Projects.NewEntries)),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

func workExperienceWarnings(records []types.ExtractedWorkExperience) []types.DataQualityWarning {
	warnings := []types.DataQualityWarning{}
	for i, we := range records {
		key := types.SourceKey(types.CategoryWorkExperiences, i)
		if parsing.FoldText(we.Company) == "" {
			warnings = append(warnings, types.DataQualityWarning{SourceKey: key, Field: "company", Message: "company is empty"})
		}
		if parsing.FoldText(we.Position) == "" {
			warnings = append(warnings, types.DataQualityWarning{SourceKey: key, Field: "position", Message: "position is empty"})
		}
		warnings = appendDateWarning(warnings, key, "start_date", we.StartDate, false)
		warnings = appendDateWarning(warnings, key, "end_date", we.EndDate, true)
	}
	return warnings
}

func appendDateWarning(warnings []types.DataQualityWarning, key, field, raw string, ongoingAllowed bool) []types.DataQualityWarning {
	_, kind := parsing.ParseCVDate(raw)
	switch {
	case kind == parsing.DateKnown:
		return warnings
	case kind == parsing.DateOngoing && ongoingAllowed:
		return warnings
	case kind == parsing.DateMissing && raw == "" && ongoingAllowed:
		return warnings
	case kind == parsing.DateMissing && raw == "":
		return append(warnings, types.DataQualityWarning{SourceKey: key, Field: field, Message: field + " is missing, date overlap scored as neutral"})
	default:
		return append(warnings, types.DataQualityWarning{SourceKey: key, Field: field, Message: fmt.Sprintf("could not parse %q", raw)})
	}
}

func projectWarningsFor(records []types.ExtractedProject) []types.DataQualityWarning {
	warnings := []types.DataQualityWarning{}
	for i, p := range records {
		if parsing.FoldText(p.Name) == "" {
			warnings = append(warnings, types.DataQualityWarning{
				SourceKey: types.SourceKey(types.CategoryProjects, i),
				Field:     "name",
				Message:   "project name is empty",
			})
		}
	}
	return warnings
}
