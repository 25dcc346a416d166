package types

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is a persisted reconciliation run: the extracted data it was computed
// from, its result and, once decided, what was applied
type Analysis struct {
	ID         uuid.UUID         `json:"id"`
	TalentID   uuid.UUID         `json:"talent_id"`
	CVID       uuid.UUID         `json:"cv_id"`
	Extracted  ExtractedCVData   `json:"extracted"`
	Result     ComparisonResult  `json:"result"`
	CreatedAt  time.Time         `json:"created_at"`
	AppliedAt  *time.Time        `json:"applied_at,omitempty"`
	Statistics *UpdateStatistics `json:"statistics,omitempty"`
}
