package matching

import (
	"github.com/jonathan/talent-reconciler/internal/similarity"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// Recommend classifies a pair that scored at or above the duplicate threshold.
//
// Under PolicyContent a pair whose candidate introduces no differences is an
// IgnoreDuplicate whatever its score. Under PolicyScore only scores at or above
// RestatementThreshold are. Remaining pairs are MergeUpdate from
// NearIdenticalThreshold and KeepBoth below it.
func Recommend(cfg similarity.Config, score float64, differences []string) types.Recommendation {
	switch cfg.Policy {
	case similarity.PolicyScore:
		if score >= cfg.RestatementThreshold {
			return types.RecommendationIgnoreDuplicate
		}
	default:
		if len(differences) == 0 {
			return types.RecommendationIgnoreDuplicate
		}
	}

	if score >= cfg.NearIdenticalThreshold {
		return types.RecommendationMergeUpdate
	}
	return types.RecommendationKeepBoth
}
