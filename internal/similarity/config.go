// Package similarity scores how likely an extracted CV record restates an existing
// profile record.
package similarity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Policy decides where KeepBoth ends and IgnoreDuplicate begins
type Policy string

// Recommendation policies
const (
	// PolicyContent recommends IgnoreDuplicate when the extracted record adds nothing
	// over the existing one, regardless of score.
	PolicyContent Policy = "content"
	// PolicyScore recommends IgnoreDuplicate only above RestatementThreshold.
	PolicyScore Policy = "score"
)

// neutral is the component score used when neither side carries the field
const neutral = 0.5

// Config holds scoring weights and classification thresholds. NameWeight covers
// company/position for work experience and the project name for projects.
type Config struct {
	NameWeight             float64 `json:"name_weight" mapstructure:"name_weight" validate:"gte=0"`
	DateWeight             float64 `json:"date_weight" mapstructure:"date_weight" validate:"gte=0"`
	TechnologiesWeight     float64 `json:"technologies_weight" mapstructure:"technologies_weight" validate:"gte=0"`
	DescriptionWeight      float64 `json:"description_weight" mapstructure:"description_weight" validate:"gte=0"`
	DuplicateThreshold     float64 `json:"duplicate_threshold" mapstructure:"duplicate_threshold" validate:"gt=0,lte=1"`
	NearIdenticalThreshold float64 `json:"near_identical_threshold" mapstructure:"near_identical_threshold" validate:"gt=0,lte=1"`
	RestatementThreshold   float64 `json:"restatement_threshold" mapstructure:"restatement_threshold" validate:"gt=0,lte=1"`
	Policy                 Policy  `json:"policy" mapstructure:"policy" validate:"oneof=content score"`
}

// DefaultConfig returns the recommended weights and thresholds
func DefaultConfig() Config {
	return Config{
		NameWeight:             0.6,
		DateWeight:             0.4,
		TechnologiesWeight:     0.25,
		DescriptionWeight:      0.15,
		DuplicateThreshold:     0.6,
		NearIdenticalThreshold: 0.85,
		RestatementThreshold:   0.98,
		Policy:                 PolicyContent,
	}
}

// Validate checks ranges and that thresholds are ordered
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid similarity config: %w", err)
	}
	if c.NameWeight+c.DateWeight == 0 {
		return fmt.Errorf("invalid similarity config: name_weight and date_weight cannot both be zero")
	}
	if c.NearIdenticalThreshold < c.DuplicateThreshold {
		return fmt.Errorf("invalid similarity config: near_identical_threshold (%.2f) is below duplicate_threshold (%.2f)",
			c.NearIdenticalThreshold, c.DuplicateThreshold)
	}
	if c.RestatementThreshold < c.NearIdenticalThreshold {
		return fmt.Errorf("invalid similarity config: restatement_threshold (%.2f) is below near_identical_threshold (%.2f)",
			c.RestatementThreshold, c.NearIdenticalThreshold)
	}
	return nil
}
