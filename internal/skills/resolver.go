// Package skills resolves free-text CV skill mentions against the skill catalog.
package skills

import (
	"fmt"
	"strings"

	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// Resolution is the output of Resolve
type Resolution struct {
	Comparison types.SkillsComparison
	Warnings   []types.DataQualityWarning
}

// Resolve partitions extracted skills into those already on the profile, catalog
// skills the talent does not have yet and mentions with no catalog entry.
//
// Matching is normalized exact name equality. Mentions that resolve to the same
// skill collapse into one entry carrying every source key and the highest level
// mentioned. Results keep the order of first mention.
func Resolve(extracted []types.ExtractedSkill, catalog []types.CatalogSkill, existing []types.TalentSkill) Resolution {
	res := Resolution{
		Comparison: types.SkillsComparison{
			Existing:  []types.SkillMatch{},
			NewFromCV: []types.SkillMatch{},
			Unmatched: []types.UnmatchedSkill{},
		},
		Warnings: []types.DataQualityWarning{},
	}

	// First catalog entry wins when two names normalize the same
	catalogByName := make(map[string]types.CatalogSkill, len(catalog))
	for _, c := range catalog {
		key := parsing.NormalizeSkillName(c.Name)
		if _, dup := catalogByName[key]; key != "" && !dup {
			catalogByName[key] = c
		}
	}

	onProfile := make(map[string]*types.TalentSkill, len(existing))
	for i := range existing {
		onProfile[existing[i].SkillID.String()] = &existing[i]
	}

	matched := make(map[string]*skillInfo)
	unmatched := make(map[string]*skillInfo)
	var matchedOrder, unmatchedOrder []*skillInfo

	for i, skill := range extracted {
		sourceKey := types.SourceKey(types.CategorySkills, i)

		level, recognized := NormalizeLevel(skill.Level)
		if !recognized {
			msg := fmt.Sprintf("unrecognized level %q, defaulted to %s", skill.Level, level)
			if strings.TrimSpace(skill.Level) == "" {
				msg = fmt.Sprintf("level missing, defaulted to %s", level)
			}
			res.Warnings = append(res.Warnings, types.DataQualityWarning{SourceKey: sourceKey, Field: "level", Message: msg})
		}

		name := parsing.NormalizeSkillName(skill.Name)
		if name == "" {
			res.Warnings = append(res.Warnings, types.DataQualityWarning{
				SourceKey: sourceKey,
				Field:     "name",
				Message:   "skill name is empty",
			})
			// Blank mentions are kept individually; there is nothing to merge them on
			unmatchedOrder = append(unmatchedOrder, &skillInfo{
				sourceKeys: []string{sourceKey},
				fromCV:     skill,
				level:      level,
			})
			continue
		}

		if c, ok := catalogByName[name]; ok {
			matchedOrder = addOrUpdateSkill(matched, matchedOrder, c.ID.String(), sourceKey, skill, level, &c)
			continue
		}
		unmatchedOrder = addOrUpdateSkill(unmatched, unmatchedOrder, name, sourceKey, skill, level, nil)
	}

	for _, info := range matchedOrder {
		m := types.SkillMatch{
			SourceKeys:      info.sourceKeys,
			FromCV:          info.fromCV,
			CatalogSkill:    *info.catalog,
			NormalizedLevel: info.level,
		}
		if ts, ok := onProfile[info.catalog.ID.String()]; ok {
			m.Existing = ts
			m.LevelChanged = info.levelStated && ts.Level != info.level
			res.Comparison.Existing = append(res.Comparison.Existing, m)
			continue
		}
		res.Comparison.NewFromCV = append(res.Comparison.NewFromCV, m)
	}

	for _, info := range unmatchedOrder {
		suggestion := ""
		if trimmed := strings.TrimSpace(info.fromCV.Name); trimmed != "" {
			suggestion = fmt.Sprintf("add %q to the skill catalog", trimmed)
		}
		res.Comparison.Unmatched = append(res.Comparison.Unmatched, types.UnmatchedSkill{
			SourceKeys:      info.sourceKeys,
			FromCV:          info.fromCV,
			NormalizedLevel: info.level,
			Suggestion:      suggestion,
		})
	}

	return res
}

// skillInfo accumulates the mentions of one skill
type skillInfo struct {
	sourceKeys  []string
	fromCV      types.ExtractedSkill
	level       types.SkillLevel
	levelStated bool
	catalog     *types.CatalogSkill
}

// addOrUpdateSkill records a mention, keeping the highest level and the largest
// years of experience across repeated mentions.
func addOrUpdateSkill(
	skillMap map[string]*skillInfo,
	order []*skillInfo,
	key, sourceKey string,
	skill types.ExtractedSkill,
	level types.SkillLevel,
	catalog *types.CatalogSkill,
) []*skillInfo {
	stated := strings.TrimSpace(skill.Level) != ""

	info, exists := skillMap[key]
	if !exists {
		info = &skillInfo{
			sourceKeys:  []string{sourceKey},
			fromCV:      skill,
			level:       level,
			levelStated: stated,
			catalog:     catalog,
		}
		skillMap[key] = info
		return append(order, info)
	}

	info.sourceKeys = append(info.sourceKeys, sourceKey)
	if level.Rank() > info.level.Rank() {
		info.level = level
		info.fromCV.Level = skill.Level
	}
	info.levelStated = info.levelStated || stated
	if skill.YearsExp != nil && (info.fromCV.YearsExp == nil || *skill.YearsExp > *info.fromCV.YearsExp) {
		years := *skill.YearsExp
		info.fromCV.YearsExp = &years
	}
	return order
}
