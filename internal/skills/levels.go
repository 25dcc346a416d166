package skills

import (
	"strings"

	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// Level keywords in folded form, checked from the highest level down so that
// "upper intermediate to advanced" resolves to advanced.
var levelKeywords = []struct {
	level    types.SkillLevel
	keywords []string
}{
	{types.SkillLevelExpert, []string{"expert", "master", "guru", "chuyen gia", "xuat sac", "thanh thao"}},
	{types.SkillLevelAdvanced, []string{"advanced", "senior", "proficient", "strong", "fluent", "gioi", "nang cao"}},
	{types.SkillLevelIntermediate, []string{"intermediate", "middle", "mid", "competent", "good", "working knowledge", "kha", "trung binh", "trung cap"}},
	{types.SkillLevelBeginner, []string{"beginner", "basic", "basics", "junior", "novice", "fresher", "elementary", "entry", "co ban", "so cap", "moi hoc"}},
}

// numeric ratings on a 1-5 scale
var digitLevels = map[string]types.SkillLevel{
	"1": types.SkillLevelBeginner,
	"2": types.SkillLevelIntermediate,
	"3": types.SkillLevelIntermediate,
	"4": types.SkillLevelAdvanced,
	"5": types.SkillLevelExpert,
}

// NormalizeLevel maps a free-text CV level into the profile vocabulary by keyword
// containment. The second return is false when nothing was recognized, in which
// case the level is Beginner.
func NormalizeLevel(raw string) (types.SkillLevel, bool) {
	folded := parsing.FoldText(raw)
	if folded == "" {
		return types.SkillLevelBeginner, false
	}

	padded := " " + folded + " "
	for _, group := range levelKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return group.level, true
			}
		}
	}

	// "4/5" folds to "4 5"; the first number is the rating
	for _, tok := range strings.Fields(folded) {
		if level, ok := digitLevels[tok]; ok {
			return level, true
		}
	}

	return types.SkillLevelBeginner, false
}
