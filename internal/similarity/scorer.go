package similarity

import (
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// Scorer computes similarity scores in [0, 1]. Open-ended date ranges are
// resolved against AsOf so scores are reproducible.
type Scorer struct {
	cfg  Config
	asOf time.Time
	jw   *metrics.JaroWinkler
}

// NewScorer creates a scorer for one analysis run
func NewScorer(cfg Config, asOf time.Time) *Scorer {
	return &Scorer{
		cfg:  cfg,
		asOf: asOf.UTC(),
		jw:   metrics.NewJaroWinkler(),
	}
}

// Config returns the configuration the scorer was built with
func (s *Scorer) Config() Config {
	return s.cfg
}

// Text returns the Jaro-Winkler similarity of two folded strings.
// Both empty is neutral, one empty is 0.
func (s *Scorer) Text(a, b string) float64 {
	fa, fb := parsing.FoldText(a), parsing.FoldText(b)
	switch {
	case fa == "" && fb == "":
		return neutral
	case fa == "" || fb == "":
		return 0
	case fa == fb:
		return 1
	}
	return strutil.Similarity(fa, fb, s.jw)
}

// WorkExperience scores a candidate work experience against an existing one:
// a weighted combination of company/position name similarity and month-level
// date overlap.
func (s *Scorer) WorkExperience(existing, candidate types.ExtractedWorkExperience) float64 {
	total := s.cfg.NameWeight + s.cfg.DateWeight
	if total == 0 {
		return 0
	}

	name := (s.Text(existing.Company, candidate.Company) + s.Text(existing.Position, candidate.Position)) / 2
	dates := s.DateOverlap(existing, candidate)

	return clamp((s.cfg.NameWeight*name + s.cfg.DateWeight*dates) / total)
}

// Project scores a candidate project against an existing one from name
// similarity, technology overlap and description token overlap.
func (s *Scorer) Project(existing, candidate types.ExtractedProject) float64 {
	total := s.cfg.NameWeight + s.cfg.TechnologiesWeight + s.cfg.DescriptionWeight
	if total == 0 {
		return 0
	}

	name := s.Text(existing.Name, candidate.Name)
	tech := jaccard(parsing.TermSet(existing.Technologies), parsing.TermSet(candidate.Technologies))
	desc := jaccard(parsing.TokenSet(existing.Description), parsing.TokenSet(candidate.Description))

	score := s.cfg.NameWeight*name + s.cfg.TechnologiesWeight*tech + s.cfg.DescriptionWeight*desc
	return clamp(score / total)
}

// DateOverlap returns the intersection-over-union of the two month ranges.
// A missing start date on either side yields the neutral score.
func (s *Scorer) DateOverlap(a, b types.ExtractedWorkExperience) float64 {
	aStart, aEnd, okA := s.monthRange(a.StartDate, a.EndDate)
	bStart, bEnd, okB := s.monthRange(b.StartDate, b.EndDate)
	if !okA || !okB {
		return neutral
	}

	inter := min(aEnd, bEnd) - max(aStart, bStart) + 1
	if inter <= 0 {
		return 0
	}
	union := max(aEnd, bEnd) - min(aStart, bStart) + 1
	return float64(inter) / float64(union)
}

// monthRange resolves a start/end pair into inclusive month indexes. A missing
// or ongoing end runs until asOf.
func (s *Scorer) monthRange(startRaw, endRaw string) (int, int, bool) {
	start, kind := parsing.ParseCVDate(startRaw)
	if kind != parsing.DateKnown {
		return 0, 0, false
	}
	startIdx := parsing.MonthIndex(start)

	endIdx := parsing.MonthIndex(s.asOf)
	if end, endKind := parsing.ParseCVDate(endRaw); endKind == parsing.DateKnown {
		endIdx = parsing.MonthIndex(end)
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}
	return startIdx, endIdx, true
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return neutral
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
