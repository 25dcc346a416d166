// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/talent-reconciler/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// listMore appends the "... and N more" trailer when a list was cut
func listMore(sb *strings.Builder, total int) {
	if total > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", total-maxItemsToShow))
	}
}

// PrintComparison outputs a human-readable summary of a reconciliation run.
func (p *Printer) PrintComparison(result *types.ComparisonResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analysis: %s\n", result.AnalysisID))
	sb.WriteString(fmt.Sprintf("Talent:   %s\n", result.TalentID))
	sb.WriteString(fmt.Sprintf("As of:    %s\n\n", result.AsOf.Format("2006-01-02 15:04")))

	// Basic info
	if result.BasicInfo.HasChanges {
		sb.WriteString("Basic info changes:\n")
		for _, f := range result.BasicInfo.Fields {
			if f.Changed {
				sb.WriteString(fmt.Sprintf("  • %s: %q → %q\n", f.Field, f.Old, f.New))
			}
		}
		sb.WriteString("\n")
	}

	// Skills
	skills := result.Skills
	sb.WriteString(fmt.Sprintf("Skills: %d existing, %d new, %d unmatched\n",
		len(skills.Existing), len(skills.NewFromCV), len(skills.Unmatched)))
	for i, m := range skills.NewFromCV {
		if i == maxItemsToShow {
			break
		}
		sb.WriteString(fmt.Sprintf("  + %s (%s)\n", m.CatalogSkill.Name, m.NormalizedLevel))
	}
	listMore(&sb, len(skills.NewFromCV))
	for i, m := range skills.Existing {
		if i == maxItemsToShow {
			break
		}
		if m.LevelChanged && m.Existing != nil {
			sb.WriteString(fmt.Sprintf("  ~ %s (%s → %s)\n", m.CatalogSkill.Name, m.Existing.Level, m.NormalizedLevel))
		}
	}
	for i, u := range skills.Unmatched {
		if i == maxItemsToShow {
			break
		}
		sb.WriteString(fmt.Sprintf("  ? %s\n", u.FromCV.Name))
	}
	listMore(&sb, len(skills.Unmatched))
	sb.WriteString("\n")

	// Fuzzily matched categories
	writeEntities(&sb, "Work experiences", result.WorkExperiences, func(w types.ExtractedWorkExperience) string {
		return w.Position + " @ " + w.Company
	})
	writeEntities(&sb, "Projects", result.Projects, func(pr types.ExtractedProject) string {
		return pr.Name
	})

	sb.WriteString(fmt.Sprintf("Certificates: %d existing, %d new, %d unmatched\n",
		len(result.Certificates.Existing), len(result.Certificates.NewFromCV), len(result.Certificates.Unmatched)))
	sb.WriteString(fmt.Sprintf("Job role levels: %d existing, %d new, %d unmatched\n",
		len(result.JobRoleLevels.Existing), len(result.JobRoleLevels.NewFromCV), len(result.JobRoleLevels.Unmatched)))

	if len(result.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("\nWarnings: %d\n", len(result.Warnings)))
		for i, w := range result.Warnings {
			if i == maxItemsToShow {
				break
			}
			sb.WriteString(fmt.Sprintf("  ! %s %s: %s\n", w.SourceKey, w.Field, w.Message))
		}
		listMore(&sb, len(result.Warnings))
	}

	p.printBox("CV COMPARISON", strings.TrimSuffix(sb.String(), "\n"))
}

func writeEntities[T any](sb *strings.Builder, title string, c types.EntityComparison[T], label func(T) string) {
	sb.WriteString(fmt.Sprintf("%s: %d potential duplicates, %d new\n", title, len(c.PotentialDuplicates), len(c.NewEntries)))
	for i, d := range c.PotentialDuplicates {
		if i == maxItemsToShow {
			break
		}
		sb.WriteString(fmt.Sprintf("  = %s [%.2f, %s]\n", label(d.FromCV), d.SimilarityScore, d.Recommendation))
		for _, diff := range d.DifferencesSummary {
			sb.WriteString(fmt.Sprintf("      %s\n", diff))
		}
	}
	listMore(sb, len(c.PotentialDuplicates))
	for i, n := range c.NewEntries {
		if i == maxItemsToShow {
			break
		}
		sb.WriteString(fmt.Sprintf("  + %s\n", label(n.Record)))
	}
	listMore(sb, len(c.NewEntries))
	sb.WriteString("\n")
}

// PrintStatistics outputs what an applied decision changed.
func (p *Printer) PrintStatistics(stats *types.UpdateStatistics) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Skills:           +%d ~%d -%d\n", stats.SkillsAdded, stats.SkillsUpdated, stats.SkillsRemoved))
	sb.WriteString(fmt.Sprintf("Work experiences: +%d ~%d\n", stats.WorkExperiencesAdded, stats.WorkExperiencesUpdated))
	sb.WriteString(fmt.Sprintf("Projects:         +%d ~%d\n", stats.ProjectsAdded, stats.ProjectsUpdated))
	sb.WriteString(fmt.Sprintf("Certificates:     +%d ~%d\n", stats.CertificatesAdded, stats.CertificatesUpdated))
	sb.WriteString(fmt.Sprintf("Job role levels:  +%d ~%d\n", stats.JobRoleLevelsAdded, stats.JobRoleLevelsUpdated))
	sb.WriteString(fmt.Sprintf("Basic info:       %d fields\n", stats.BasicInfoFieldsUpdated))
	sb.WriteString(fmt.Sprintf("Total changes:    %d\n", stats.Changes()))

	if len(stats.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("\nFailed entries: %d\n", len(stats.Failed)))
		for _, f := range stats.Failed {
			sb.WriteString(fmt.Sprintf("  ✗ %s[%d]: %s\n", f.Category, f.Index, f.Error))
		}
	}

	p.printBox("APPLIED DECISION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintVerification outputs a verification status and its most recent assessments.
func (p *Printer) PrintVerification(v *types.SkillGroupVerification, history []types.SkillGroupAssessment) {
	if v == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Skill group: %s\n", v.SkillGroupID))
	sb.WriteString(fmt.Sprintf("State:       %s\n", v.State))
	if v.LastVerifiedDate != nil {
		sb.WriteString(fmt.Sprintf("Verified:    %s", v.LastVerifiedDate.Format("2006-01-02")))
		if v.LastVerifiedByExpertID != nil {
			sb.WriteString(fmt.Sprintf(" by %s", *v.LastVerifiedByExpertID))
		}
		sb.WriteString("\n")
	}
	if v.NeedsReverification {
		sb.WriteString(fmt.Sprintf("Reverify:    %s\n", v.Reason))
		if len(v.ChangedSkills) > 0 {
			sb.WriteString(fmt.Sprintf("Changed:     %s\n", strings.Join(v.ChangedSkills, ", ")))
		}
	}

	if len(history) > 0 {
		sb.WriteString("\nHistory:\n")
		for i, a := range history {
			if i == maxItemsToShow {
				break
			}
			marker := " "
			if a.IsActive {
				marker = "*"
			}
			verdict := "fail"
			if a.IsVerified {
				verdict = "pass"
			}
			if a.Kind == types.AssessmentKindSystemInvalidation {
				verdict = "invalidated"
			}
			sb.WriteString(fmt.Sprintf(" %s %s  %-11s %s\n", marker, a.AssessmentDate.Format("2006-01-02"), verdict,
				firstLine(a.Note)))
		}
		listMore(&sb, len(history))
	}

	p.printBox("SKILL GROUP VERIFICATION", strings.TrimSuffix(sb.String(), "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
