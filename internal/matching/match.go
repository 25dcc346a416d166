// Package matching pairs extracted CV records with existing profile records of the
// same category.
package matching

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/similarity"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// Existing is a stored record reduced to its comparable view
type Existing[T any] struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Record    T
}

// ScoreFunc scores a candidate against an existing baseline
type ScoreFunc[T any] func(existing, candidate T) float64

// DiffFunc summarizes what a candidate changes over an existing record
type DiffFunc[T any] func(existing, candidate T) []string

// Matcher runs greedy one-to-one duplicate detection for one category
type Matcher[T any] struct {
	Category types.Category
	Config   similarity.Config
	Score    ScoreFunc[T]
	Diff     DiffFunc[T]
}

type pair struct {
	existing  int
	extracted int
	score     float64
}

// Match scores every extracted record against every existing record and assigns
// pairs in descending score order. An existing record is claimed by at most one
// extracted record; extracted records left unclaimed, or whose best score is
// below the duplicate threshold, become new entries.
//
// Ties are broken by the most recently created existing record, then by input
// order, so the result is stable for identical inputs.
func (m *Matcher[T]) Match(existing []Existing[T], extracted []T) types.EntityComparison[T] {
	result := types.EntityComparison[T]{
		PotentialDuplicates: []types.DuplicateCheck[T]{},
		NewEntries:          []types.NewEntry[T]{},
	}

	pairs := make([]pair, 0, len(existing)*len(extracted))
	for xi, x := range extracted {
		for ei, e := range existing {
			score := m.Score(e.Record, x)
			if score >= m.Config.DuplicateThreshold {
				pairs = append(pairs, pair{existing: ei, extracted: xi, score: score})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.score != b.score {
			return a.score > b.score
		}
		ca, cb := existing[a.existing].CreatedAt, existing[b.existing].CreatedAt
		if !ca.Equal(cb) {
			return ca.After(cb)
		}
		if a.extracted != b.extracted {
			return a.extracted < b.extracted
		}
		return a.existing < b.existing
	})

	claimed := make([]bool, len(existing))
	assigned := make(map[int]pair, len(extracted))
	for _, p := range pairs {
		if claimed[p.existing] {
			continue
		}
		if _, done := assigned[p.extracted]; done {
			continue
		}
		claimed[p.existing] = true
		assigned[p.extracted] = p
	}

	// Emit in extracted order
	for xi, x := range extracted {
		key := types.SourceKey(m.Category, xi)
		p, ok := assigned[xi]
		if !ok {
			result.NewEntries = append(result.NewEntries, types.NewEntry[T]{SourceKey: key, Record: x})
			continue
		}

		e := existing[p.existing]
		diffs := []string{}
		if m.Diff != nil {
			diffs = m.Diff(e.Record, x)
		}
		result.PotentialDuplicates = append(result.PotentialDuplicates, types.DuplicateCheck[T]{
			ExistingID:         e.ID,
			Existing:           e.Record,
			SourceKey:          key,
			FromCV:             x,
			SimilarityScore:    round(p.score),
			Recommendation:     Recommend(m.Config, p.score, diffs),
			DifferencesSummary: diffs,
		})
	}

	return result
}

// round keeps scores stable across platforms when serialized
func round(v float64) float64 {
	const scale = 1e6
	return float64(int64(v*scale+0.5)) / scale
}
