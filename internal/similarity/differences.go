package similarity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// WorkExperienceDifferences lists the human-readable differences a candidate
// would introduce over an existing record. Fields the CV leaves empty are not
// differences.
func WorkExperienceDifferences(existing, candidate types.ExtractedWorkExperience) []string {
	diffs := []string{}
	diffs = appendTextDiff(diffs, "company", existing.Company, candidate.Company)
	diffs = appendTextDiff(diffs, "position", existing.Position, candidate.Position)
	diffs = appendDateDiff(diffs, "start_date", existing.StartDate, candidate.StartDate, false)
	diffs = appendDateDiff(diffs, "end_date", existing.EndDate, candidate.EndDate, true)
	diffs = appendDescriptionDiff(diffs, existing.Description, candidate.Description)
	return diffs
}

// ProjectDifferences lists the differences a candidate project would introduce
func ProjectDifferences(existing, candidate types.ExtractedProject) []string {
	diffs := []string{}
	diffs = appendTextDiff(diffs, "name", existing.Name, candidate.Name)
	diffs = appendTextDiff(diffs, "position", existing.Position, candidate.Position)

	if len(candidate.Technologies) > 0 {
		have := parsing.TermSet(existing.Technologies)
		want := parsing.TermSet(candidate.Technologies)
		if added := missingFrom(have, want); len(added) > 0 {
			diffs = append(diffs, fmt.Sprintf("technologies added: %s", strings.Join(added, ", ")))
		}
		if dropped := missingFrom(want, have); len(dropped) > 0 {
			diffs = append(diffs, fmt.Sprintf("technologies not on CV: %s", strings.Join(dropped, ", ")))
		}
	}

	diffs = appendDescriptionDiff(diffs, existing.Description, candidate.Description)
	return diffs
}

func appendTextDiff(diffs []string, field, was, now string) []string {
	if strings.TrimSpace(now) == "" {
		return diffs
	}
	if parsing.FoldText(was) == parsing.FoldText(now) {
		return diffs
	}
	return append(diffs, fmt.Sprintf("%s: %q -> %q", field, strings.TrimSpace(was), strings.TrimSpace(now)))
}

// appendDateDiff compares dates by month. For end dates an empty value and an
// "ongoing" marker are the same thing.
func appendDateDiff(diffs []string, field, was, now string, isEnd bool) []string {
	newT, newKind := parsing.ParseCVDate(now)
	oldT, oldKind := parsing.ParseCVDate(was)

	if isEnd {
		if newKind == parsing.DateMissing && strings.TrimSpace(now) == "" {
			newKind = parsing.DateOngoing
		}
		if oldKind == parsing.DateMissing && strings.TrimSpace(was) == "" {
			oldKind = parsing.DateOngoing
		}
	} else if strings.TrimSpace(now) == "" {
		return diffs
	}

	switch {
	case newKind == parsing.DateKnown && oldKind == parsing.DateKnown:
		if newT.Equal(oldT) {
			return diffs
		}
	case newKind == oldKind && newKind == parsing.DateOngoing:
		return diffs
	case newKind == parsing.DateMissing && oldKind == parsing.DateMissing:
		if parsing.FoldText(was) == parsing.FoldText(now) {
			return diffs
		}
	}
	return append(diffs, fmt.Sprintf("%s: %s -> %s", field, displayDate(was, isEnd), displayDate(now, isEnd)))
}

func appendDescriptionDiff(diffs []string, was, now string) []string {
	newTokens := parsing.TokenSet(now)
	if len(newTokens) == 0 {
		return diffs
	}
	oldTokens := parsing.TokenSet(was)
	if len(missingFrom(oldTokens, newTokens)) == 0 && len(missingFrom(newTokens, oldTokens)) == 0 {
		return diffs
	}
	return append(diffs, "description changed")
}

// missingFrom returns the sorted members of want that are not in have
func missingFrom(have, want map[string]struct{}) []string {
	var out []string
	for k := range want {
		if _, ok := have[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func displayDate(raw string, isEnd bool) string {
	if strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw)
	}
	if isEnd {
		return "present"
	}
	return "(none)"
}
