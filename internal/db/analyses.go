package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// SaveAnalysis stores an analysis run with its extracted input and result as JSONB
func (db *DB) SaveAnalysis(ctx context.Context, a *types.Analysis) error {
	extracted, err := json.Marshal(a.Extracted)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted data: %w", err)
	}
	result, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison result: %w", err)
	}

	var cvID *uuid.UUID
	if a.CVID != uuid.Nil {
		cvID = &a.CVID
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO cv_analyses (id, talent_id, cv_id, extracted, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.TalentID, cvID, extracted, result, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves an analysis run by id
func (db *DB) GetAnalysis(ctx context.Context, id uuid.UUID) (*types.Analysis, error) {
	var (
		a                            types.Analysis
		cvID                         *uuid.UUID
		extracted, result, statsJSON []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, talent_id, cv_id, extracted, result, statistics, created_at, applied_at
		 FROM cv_analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.TalentID, &cvID, &extracted, &result, &statsJSON, &a.CreatedAt, &a.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.NotFoundError{Resource: "analysis", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if cvID != nil {
		a.CVID = *cvID
	}
	if err := json.Unmarshal(extracted, &a.Extracted); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extracted data: %w", err)
	}
	if err := json.Unmarshal(result, &a.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison result: %w", err)
	}
	if len(statsJSON) > 0 {
		a.Statistics = &types.UpdateStatistics{}
		if err := json.Unmarshal(statsJSON, a.Statistics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal statistics: %w", err)
		}
	}
	return &a, nil
}

// MarkApplied records the statistics of the decision applied to a run. A run
// already applied yields a ConflictError.
func (db *DB) MarkApplied(ctx context.Context, id uuid.UUID, at time.Time, stats *types.UpdateStatistics) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE cv_analyses SET applied_at = $2, statistics = $3 WHERE id = $1 AND applied_at IS NULL`,
		id, at, statsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to mark analysis applied: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cv_analyses WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check analysis: %w", err)
	}
	if !exists {
		return &types.NotFoundError{Resource: "analysis", ID: id.String()}
	}
	return &types.ConflictError{Resource: "analysis", ID: id.String()}
}
