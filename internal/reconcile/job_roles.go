package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// CompareJobRoleLevels resolves each extracted position against the job-role
// catalog and its level against that role's levels. A missing or unknown level
// falls back to the role's most junior level with a warning.
func CompareJobRoleLevels(
	extracted []types.ExtractedJobRoleLevel,
	roles []types.JobRole,
	held []types.TalentJobRoleLevel,
) (types.JobRoleLevelsComparison, []types.DataQualityWarning) {
	result := types.JobRoleLevelsComparison{
		Existing:  []types.JobRoleLevelMatch{},
		NewFromCV: []types.JobRoleLevelMatch{},
		Unmatched: []types.UnmatchedJobRoleLevel{},
	}
	warnings := []types.DataQualityWarning{}

	byName := make(map[string]types.JobRole, len(roles))
	for _, r := range roles {
		key := parsing.FoldText(r.Name)
		if _, dup := byName[key]; key != "" && !dup {
			byName[key] = r
		}
	}

	heldByRole := make(map[uuid.UUID]*types.TalentJobRoleLevel, len(held))
	for i := range held {
		if _, dup := heldByRole[held[i].JobRoleID]; !dup {
			heldByRole[held[i].JobRoleID] = &held[i]
		}
	}

	for i, jrl := range extracted {
		key := types.SourceKey(types.CategoryJobRoleLevels, i)

		role, ok := byName[parsing.FoldText(jrl.Position)]
		if !ok || len(role.Levels) == 0 {
			if strings.TrimSpace(jrl.Position) == "" {
				warnings = append(warnings, types.DataQualityWarning{SourceKey: key, Field: "position", Message: "position is empty"})
			}
			result.Unmatched = append(result.Unmatched, types.UnmatchedJobRoleLevel{SourceKey: key, FromCV: jrl})
			continue
		}

		level, found := resolveLevel(role, jrl.Level)
		if !found {
			msg := fmt.Sprintf("unknown level %q for %s, defaulted to %s", jrl.Level, role.Name, level.Name)
			if strings.TrimSpace(jrl.Level) == "" {
				msg = fmt.Sprintf("level missing for %s, defaulted to %s", role.Name, level.Name)
			}
			warnings = append(warnings, types.DataQualityWarning{SourceKey: key, Field: "level", Message: msg})
		}

		match := types.JobRoleLevelMatch{
			SourceKey:      key,
			FromCV:         jrl,
			JobRoleID:      role.ID,
			JobRoleName:    role.Name,
			JobRoleLevelID: level.ID,
			LevelName:      level.Name,
		}
		if existing, ok := heldByRole[role.ID]; ok {
			match.Existing = existing
			match.LevelChanged = found && existing.JobRoleLevelID != level.ID
			result.Existing = append(result.Existing, match)
			continue
		}
		result.NewFromCV = append(result.NewFromCV, match)
	}

	return result, warnings
}

// resolveLevel finds the role level named raw. The fallback is the level with
// the lowest ordinal.
func resolveLevel(role types.JobRole, raw string) (types.JobRoleLevel, bool) {
	levels := make([]types.JobRoleLevel, len(role.Levels))
	copy(levels, role.Levels)
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Ordinal < levels[j].Ordinal
	})

	if want := parsing.FoldText(raw); want != "" {
		for _, l := range levels {
			if parsing.FoldText(l.Name) == want {
				return l, true
			}
		}
	}
	return levels[0], false
}
