package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-reconciler/internal/types"
	"github.com/jonathan/talent-reconciler/internal/verification"
)

var _ verification.Store = (*DB)(nil)

// verificationLockKey names the advisory lock of one (talent, skill group)
func verificationLockKey(talentID, skillGroupID uuid.UUID) string {
	return fmt.Sprintf("skill_group_verification:%s:%s", talentID, skillGroupID)
}

// WithinTx runs fn in a transaction holding a transaction-scoped advisory lock on
// the key, which also covers keys that have no verification row yet
func (db *DB) WithinTx(ctx context.Context, talentID, skillGroupID uuid.UUID, fn func(tx verification.Tx) error) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			verificationLockKey(talentID, skillGroupID),
		); err != nil {
			return fmt.Errorf("failed to lock skill group verification: %w", err)
		}
		return fn(&verificationTx{tx: tx, talentID: talentID, skillGroupID: skillGroupID})
	})
}

// GetVerification returns nil, nil when the key has no record
func (db *DB) GetVerification(ctx context.Context, talentID, skillGroupID uuid.UUID) (*types.SkillGroupVerification, error) {
	return loadVerification(ctx, db.pool, talentID, skillGroupID, false)
}

// ListAssessments returns every assessment of a key, oldest sequence first
func (db *DB) ListAssessments(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.SkillGroupAssessment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+assessmentColumns+`
		 FROM skill_group_assessments
		 WHERE talent_id = $1 AND skill_group_id = $2
		 ORDER BY sequence`,
		talentID, skillGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var out []types.SkillGroupAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func loadVerification(ctx context.Context, q querier, talentID, skillGroupID uuid.UUID, forUpdate bool) (*types.SkillGroupVerification, error) {
	query := `SELECT talent_id, skill_group_id, state, is_verified, last_verified_date, last_verified_by_expert_id,
	                 reason, version, created_at, updated_at
	          FROM skill_group_verifications WHERE talent_id = $1 AND skill_group_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var v types.SkillGroupVerification
	err := q.QueryRow(ctx, query, talentID, skillGroupID).Scan(
		&v.TalentID, &v.SkillGroupID, &v.State, &v.IsVerified, &v.LastVerifiedDate, &v.LastVerifiedByExpertID,
		&v.Reason, &v.Version, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}
	return &v, nil
}

const assessmentColumns = `id, talent_id, skill_group_id, expert_id, kind, assessment_date, is_verified, is_active,
	note, skill_snapshot, sequence`

func scanAssessment(row pgx.Row) (*types.SkillGroupAssessment, error) {
	var (
		a        types.SkillGroupAssessment
		snapshot []byte
	)
	if err := row.Scan(&a.ID, &a.TalentID, &a.SkillGroupID, &a.ExpertID, &a.Kind, &a.AssessmentDate,
		&a.IsVerified, &a.IsActive, &a.Note, &snapshot, &a.Sequence); err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &a.SkillSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skill snapshot: %w", err)
		}
	}
	return &a, nil
}

// verificationTx is the transactional view of one key
type verificationTx struct {
	tx           pgx.Tx
	talentID     uuid.UUID
	skillGroupID uuid.UUID
}

func (t *verificationTx) LoadVerification(ctx context.Context) (*types.SkillGroupVerification, error) {
	return loadVerification(ctx, t.tx, t.talentID, t.skillGroupID, true)
}

func (t *verificationTx) LatestAssessment(ctx context.Context) (*types.SkillGroupAssessment, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+assessmentColumns+`
		 FROM skill_group_assessments
		 WHERE talent_id = $1 AND skill_group_id = $2
		 ORDER BY sequence DESC
		 LIMIT 1`,
		t.talentID, t.skillGroupID,
	)
	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	return a, nil
}

func (t *verificationTx) DeactivateAssessment(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE skill_group_assessments SET is_active = FALSE
		 WHERE id = $1 AND talent_id = $2 AND skill_group_id = $3`,
		id, t.talentID, t.skillGroupID,
	)
	return affected(tag, err, "skill_group_assessment", id)
}

func (t *verificationTx) AppendAssessment(ctx context.Context, a types.SkillGroupAssessment) error {
	var snapshot []byte
	if len(a.SkillSnapshot) > 0 {
		var err error
		if snapshot, err = json.Marshal(a.SkillSnapshot); err != nil {
			return fmt.Errorf("failed to marshal skill snapshot: %w", err)
		}
	}

	_, err := t.tx.Exec(ctx,
		`INSERT INTO skill_group_assessments (`+assessmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, t.talentID, t.skillGroupID, a.ExpertID, a.Kind, a.AssessmentDate, a.IsVerified, a.IsActive,
		a.Note, snapshot, a.Sequence,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &types.ConflictError{Resource: "skill_group_assessment", ID: a.ID.String()}
		}
		return fmt.Errorf("failed to append assessment: %w", err)
	}
	return nil
}

func (t *verificationTx) SaveVerification(ctx context.Context, v types.SkillGroupVerification) error {
	conflict := &types.ConflictError{
		Resource: "skill_group_verification",
		ID:       fmt.Sprintf("%s/%s", t.talentID, t.skillGroupID),
	}

	if v.Version == 1 {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO skill_group_verifications (talent_id, skill_group_id, state, is_verified, last_verified_date,
			        last_verified_by_expert_id, reason, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.talentID, t.skillGroupID, v.State, v.IsVerified, v.LastVerifiedDate, v.LastVerifiedByExpertID,
			v.Reason, v.Version, v.CreatedAt, v.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return conflict
			}
			return fmt.Errorf("failed to insert verification: %w", err)
		}
		return nil
	}

	tag, err := t.tx.Exec(ctx,
		`UPDATE skill_group_verifications
		 SET state = $3, is_verified = $4, last_verified_date = $5, last_verified_by_expert_id = $6,
		     reason = $7, version = $8, updated_at = $9
		 WHERE talent_id = $1 AND skill_group_id = $2 AND version = $8 - 1`,
		t.talentID, t.skillGroupID, v.State, v.IsVerified, v.LastVerifiedDate, v.LastVerifiedByExpertID,
		v.Reason, v.Version, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return conflict
	}
	return nil
}
