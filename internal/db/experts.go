package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// AssignExpert assigns an expert to a skill group
func (db *DB) AssignExpert(ctx context.Context, expertID, skillGroupID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO skill_group_experts (skill_group_id, expert_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		skillGroupID, expertID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign expert: %w", err)
	}
	return nil
}

// IsAssigned reports whether an expert may verify a skill group
func (db *DB) IsAssigned(ctx context.Context, expertID, skillGroupID uuid.UUID) (bool, error) {
	var ok bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM skill_group_experts WHERE skill_group_id = $1 AND expert_id = $2)`,
		skillGroupID, expertID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check expert assignment: %w", err)
	}
	return ok, nil
}

// GroupSkills lists the talent's skills that belong to a skill group
func (db *DB) GroupSkills(ctx context.Context, talentID, skillGroupID uuid.UUID) ([]types.GroupSkill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT ts.skill_id, ts.skill_name, ts.level, ts.years_exp, ts.created_at, ts.updated_at
		 FROM talent_skills ts
		 JOIN skill_group_skills g ON g.skill_id = ts.skill_id
		 WHERE ts.talent_id = $1 AND g.skill_group_id = $2
		 ORDER BY ts.skill_name, ts.skill_id`,
		talentID, skillGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group skills: %w", err)
	}
	defer rows.Close()

	var out []types.GroupSkill
	for rows.Next() {
		var s types.GroupSkill
		if err := rows.Scan(&s.SkillID, &s.Name, &s.Level, &s.YearsExp, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
