package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintComparison(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	existing := types.TalentSkill{SkillName: "Go", Level: types.SkillLevelAdvanced}
	result := &types.ComparisonResult{
		AnalysisID: uuid.New(),
		TalentID:   uuid.New(),
		AsOf:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		BasicInfo: types.BasicInfoComparison{
			HasChanges: true,
			Fields: []types.FieldChange{
				{Field: types.FieldPhone, Old: "", New: "+84 123", Changed: true},
				{Field: types.FieldEmail, Old: "a@x.com", New: "a@x.com"},
			},
		},
		Skills: types.SkillsComparison{
			Existing: []types.SkillMatch{{
				CatalogSkill: types.CatalogSkill{Name: "Go"}, NormalizedLevel: types.SkillLevelExpert,
				Existing: &existing, LevelChanged: true,
			}},
			NewFromCV: []types.SkillMatch{{CatalogSkill: types.CatalogSkill{Name: "Kafka"}, NormalizedLevel: types.SkillLevelIntermediate}},
			Unmatched: []types.UnmatchedSkill{{FromCV: types.ExtractedSkill{Name: "Fortran 77"}}},
		},
		WorkExperiences: types.EntityComparison[types.ExtractedWorkExperience]{
			PotentialDuplicates: []types.DuplicateCheck[types.ExtractedWorkExperience]{{
				FromCV:             types.ExtractedWorkExperience{Company: "Acme", Position: "Developer"},
				SimilarityScore:    0.91,
				Recommendation:     types.RecommendationMergeUpdate,
				DifferencesSummary: []string{"position: Dev → Developer"},
			}},
		},
		Projects: types.EntityComparison[types.ExtractedProject]{
			NewEntries: []types.NewEntry[types.ExtractedProject]{{Record: types.ExtractedProject{Name: "Billing"}}},
		},
		Warnings: []types.DataQualityWarning{{SourceKey: "skills:3", Field: "name", Message: "empty skill name"}},
	}

	p.PrintComparison(result)
	output := buf.String()

	assert.Contains(t, output, "CV COMPARISON")
	assert.Contains(t, output, "phone")
	assert.NotContains(t, output, "a@x.com")
	assert.Contains(t, output, "+ Kafka (intermediate)")
	assert.Contains(t, output, "~ Go (advanced → expert)")
	assert.Contains(t, output, "? Fortran 77")
	assert.Contains(t, output, "Developer @ Acme [0.91, merge_update]")
	assert.Contains(t, output, "position: Dev → Developer")
	assert.Contains(t, output, "+ Billing")
	assert.Contains(t, output, "Warnings: 1")
}

func TestPrintComparison_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintComparison(nil)
	assert.Empty(t, buf.String())
}

func TestPrintComparison_TruncatesLists(t *testing.T) {
	var buf bytes.Buffer
	result := &types.ComparisonResult{}
	for i := 0; i < 8; i++ {
		result.Skills.Unmatched = append(result.Skills.Unmatched, types.UnmatchedSkill{FromCV: types.ExtractedSkill{Name: "x"}})
	}

	NewPrinter(&buf).PrintComparison(result)
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintStatistics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatistics(&types.UpdateStatistics{
		SkillsAdded:            2,
		ProjectsAdded:          1,
		BasicInfoFieldsUpdated: 1,
		Failed: []types.ActionFailure{
			{Category: types.CategoryWorkExperiences, Index: 0, Error: "work experience not found"},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "APPLIED DECISION")
	assert.Contains(t, output, "+2 ~0 -0")
	assert.Contains(t, output, "Total changes:    4")
	assert.Contains(t, output, "work_experiences[0]: work experience not found")
}

func TestPrintVerification(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	verified := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expert := uuid.New()
	v := &types.SkillGroupVerification{
		SkillGroupID:           uuid.New(),
		State:                  types.StateNeedsReverification,
		IsVerified:             true,
		LastVerifiedDate:       &verified,
		LastVerifiedByExpertID: &expert,
		NeedsReverification:    true,
		Reason:                 "skills changed since last verification",
		ChangedSkills:          []string{"Kafka"},
	}
	history := []types.SkillGroupAssessment{
		{AssessmentDate: verified, IsVerified: true, IsActive: true, Kind: types.AssessmentKindExpert, Note: "strong\nsecond line"},
		{AssessmentDate: verified.AddDate(0, 0, -7), Kind: types.AssessmentKindSystemInvalidation, Note: "Invalidated: edits"},
	}

	p.PrintVerification(v, history)
	output := buf.String()

	assert.Contains(t, output, "needs_reverification")
	assert.Contains(t, output, expert.String())
	assert.Contains(t, output, "Changed:     Kafka")
	assert.Contains(t, output, "* 2026-03-01  pass        strong …")
	assert.Contains(t, output, "invalidated")
	assert.NotContains(t, output, "second line")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 200))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
