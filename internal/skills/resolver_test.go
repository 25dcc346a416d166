package skills

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []types.CatalogSkill {
	return []types.CatalogSkill{
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Name: "Go"},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Name: "PostgreSQL"},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), Name: "C++"},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000004"), Name: "Tiếng Nhật"},
	}
}

func ptr(f float64) *float64 { return &f }

func TestResolve_Partitions(t *testing.T) {
	catalog := testCatalog()
	existing := []types.TalentSkill{
		{ID: uuid.New(), SkillID: catalog[0].ID, SkillName: "Go", Level: types.SkillLevelIntermediate},
	}
	extracted := []types.ExtractedSkill{
		{Name: "go", Level: "Advanced"},
		{Name: " PostgreSQL ", Level: "Intermediate"},
		{Name: "Rust", Level: "beginner"},
	}

	res := Resolve(extracted, catalog, existing)

	require.Len(t, res.Comparison.Existing, 1)
	assert.Equal(t, catalog[0].ID, res.Comparison.Existing[0].CatalogSkill.ID)
	assert.Equal(t, types.SkillLevelAdvanced, res.Comparison.Existing[0].NormalizedLevel)
	assert.True(t, res.Comparison.Existing[0].LevelChanged)
	require.NotNil(t, res.Comparison.Existing[0].Existing)

	require.Len(t, res.Comparison.NewFromCV, 1)
	assert.Equal(t, "PostgreSQL", res.Comparison.NewFromCV[0].CatalogSkill.Name)
	assert.Equal(t, []string{"skills:1"}, res.Comparison.NewFromCV[0].SourceKeys)

	require.Len(t, res.Comparison.Unmatched, 1)
	assert.Equal(t, "Rust", res.Comparison.Unmatched[0].FromCV.Name)
	assert.Contains(t, res.Comparison.Unmatched[0].Suggestion, "Rust")
	assert.Empty(t, res.Warnings)
}

func TestResolve_DiacriticAndSymbolInsensitiveOnlyWhereSafe(t *testing.T) {
	res := Resolve([]types.ExtractedSkill{
		{Name: "tieng nhat", Level: "Khá"},
		{Name: "C#", Level: "Khá"},
		{Name: "c++", Level: "Khá"},
	}, testCatalog(), nil)

	require.Len(t, res.Comparison.NewFromCV, 2)
	assert.Equal(t, "Tiếng Nhật", res.Comparison.NewFromCV[0].CatalogSkill.Name)
	assert.Equal(t, "C++", res.Comparison.NewFromCV[1].CatalogSkill.Name)
	require.Len(t, res.Comparison.Unmatched, 1)
	assert.Equal(t, "C#", res.Comparison.Unmatched[0].FromCV.Name)
}

func TestResolve_RepeatedMentionsCollapse(t *testing.T) {
	res := Resolve([]types.ExtractedSkill{
		{Name: "Go", Level: "beginner", YearsExp: ptr(1)},
		{Name: "Rust"},
		{Name: "GO", Level: "expert", YearsExp: ptr(5)},
		{Name: "rust", Level: "good"},
	}, testCatalog(), nil)

	require.Len(t, res.Comparison.NewFromCV, 1)
	goMatch := res.Comparison.NewFromCV[0]
	assert.Equal(t, []string{"skills:0", "skills:2"}, goMatch.SourceKeys)
	assert.Equal(t, types.SkillLevelExpert, goMatch.NormalizedLevel)
	require.NotNil(t, goMatch.FromCV.YearsExp)
	assert.Equal(t, 5.0, *goMatch.FromCV.YearsExp)

	require.Len(t, res.Comparison.Unmatched, 1)
	assert.Equal(t, []string{"skills:1", "skills:3"}, res.Comparison.Unmatched[0].SourceKeys)
	assert.Equal(t, types.SkillLevelIntermediate, res.Comparison.Unmatched[0].NormalizedLevel)
}

func TestResolve_UnknownLevelDefaultsWithWarning(t *testing.T) {
	res := Resolve([]types.ExtractedSkill{{Name: "Go", Level: "ninja"}}, testCatalog(), nil)

	require.Len(t, res.Comparison.NewFromCV, 1)
	assert.Equal(t, types.SkillLevelBeginner, res.Comparison.NewFromCV[0].NormalizedLevel)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "skills:0", res.Warnings[0].SourceKey)
	assert.Equal(t, "level", res.Warnings[0].Field)
}

func TestResolve_UnstatedLevelIsNotAChange(t *testing.T) {
	catalog := testCatalog()
	existing := []types.TalentSkill{{ID: uuid.New(), SkillID: catalog[0].ID, Level: types.SkillLevelExpert}}

	res := Resolve([]types.ExtractedSkill{{Name: "Go"}}, catalog, existing)

	require.Len(t, res.Comparison.Existing, 1)
	assert.False(t, res.Comparison.Existing[0].LevelChanged)
}

func TestResolve_BlankNameIsUnmatchedNotDropped(t *testing.T) {
	res := Resolve([]types.ExtractedSkill{{Name: "  ", Level: "expert"}, {Name: ""}}, testCatalog(), nil)

	require.Len(t, res.Comparison.Unmatched, 2)
	assert.Empty(t, res.Comparison.Unmatched[0].Suggestion)
	assert.Equal(t, []string{"skills:1"}, res.Comparison.Unmatched[1].SourceKeys)

	fields := []string{}
	for _, w := range res.Warnings {
		fields = append(fields, w.Field)
	}
	assert.Contains(t, fields, "name")
}

func TestResolve_EveryMentionAccountedFor(t *testing.T) {
	extracted := []types.ExtractedSkill{
		{Name: "Go"}, {Name: "go"}, {Name: "PostgreSQL"}, {Name: "Kafka"}, {Name: ""}, {Name: "kafka"},
	}

	res := Resolve(extracted, testCatalog(), nil)

	seen := map[string]int{}
	for _, m := range res.Comparison.Existing {
		for _, k := range m.SourceKeys {
			seen[k]++
		}
	}
	for _, m := range res.Comparison.NewFromCV {
		for _, k := range m.SourceKeys {
			seen[k]++
		}
	}
	for _, m := range res.Comparison.Unmatched {
		for _, k := range m.SourceKeys {
			seen[k]++
		}
	}
	assert.Len(t, seen, len(extracted))
	for k, n := range seen {
		assert.Equal(t, 1, n, k)
	}
}
