package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// LoadCatalogs reads the skill, skill group, certificate and job role catalogs
func (db *DB) LoadCatalogs(ctx context.Context) (*types.Catalogs, error) {
	c := &types.Catalogs{}
	var err error
	if c.Skills, err = db.listCatalogSkills(ctx); err != nil {
		return nil, err
	}
	if c.SkillGroups, err = db.listSkillGroups(ctx); err != nil {
		return nil, err
	}
	if c.CertificateTypes, err = db.listCertificateTypes(ctx); err != nil {
		return nil, err
	}
	if c.JobRoles, err = db.listJobRoles(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) listCatalogSkills(ctx context.Context) ([]types.CatalogSkill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT s.id, s.name, COALESCE(array_agg(g.skill_group_id) FILTER (WHERE g.skill_group_id IS NOT NULL), '{}')
		 FROM skills s
		 LEFT JOIN skill_group_skills g ON g.skill_id = s.id
		 GROUP BY s.id, s.name
		 ORDER BY s.name, s.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog skills: %w", err)
	}
	defer rows.Close()

	var out []types.CatalogSkill
	for rows.Next() {
		var s types.CatalogSkill
		if err := rows.Scan(&s.ID, &s.Name, &s.SkillGroupIDs); err != nil {
			return nil, fmt.Errorf("failed to scan catalog skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) listSkillGroups(ctx context.Context) ([]types.SkillGroup, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT g.id, g.name, COALESCE(array_agg(m.skill_id) FILTER (WHERE m.skill_id IS NOT NULL), '{}')
		 FROM skill_groups g
		 LEFT JOIN skill_group_skills m ON m.skill_group_id = g.id
		 GROUP BY g.id, g.name
		 ORDER BY g.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill groups: %w", err)
	}
	defer rows.Close()

	var out []types.SkillGroup
	for rows.Next() {
		var g types.SkillGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.SkillIDs); err != nil {
			return nil, fmt.Errorf("failed to scan skill group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (db *DB) listCertificateTypes(ctx context.Context) ([]types.CertificateType, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name, issuer FROM certificate_types ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificate types: %w", err)
	}
	defer rows.Close()

	var out []types.CertificateType
	for rows.Next() {
		var c types.CertificateType
		if err := rows.Scan(&c.ID, &c.Name, &c.Issuer); err != nil {
			return nil, fmt.Errorf("failed to scan certificate type: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) listJobRoles(ctx context.Context) ([]types.JobRole, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT r.id, r.name, l.id, l.name, l.ordinal
		 FROM job_roles r
		 LEFT JOIN job_role_levels l ON l.job_role_id = r.id
		 ORDER BY r.name, r.id, l.ordinal`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job roles: %w", err)
	}
	defer rows.Close()

	var out []types.JobRole
	for rows.Next() {
		var (
			roleID    uuid.UUID
			roleName  string
			levelID   *uuid.UUID
			levelName *string
			ordinal   *int
		)
		if err := rows.Scan(&roleID, &roleName, &levelID, &levelName, &ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan job role: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != roleID {
			out = append(out, types.JobRole{ID: roleID, Name: roleName})
		}
		if levelID != nil {
			role := &out[len(out)-1]
			role.Levels = append(role.Levels, types.JobRoleLevel{
				ID:        *levelID,
				JobRoleID: roleID,
				Name:      *levelName,
				Ordinal:   *ordinal,
			})
		}
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Catalog writes
// -----------------------------------------------------------------------------

// CreateSkill adds a skill to the catalog
func (db *DB) CreateSkill(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx, `INSERT INTO skills (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create skill: %w", err)
	}
	return id, nil
}

// CreateSkillGroup adds a skill group with its member skills
func (db *DB) CreateSkillGroup(ctx context.Context, name string, skillIDs []uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO skill_groups (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
			return fmt.Errorf("failed to create skill group: %w", err)
		}
		for _, skillID := range skillIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO skill_group_skills (skill_group_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				id, skillID,
			); err != nil {
				return fmt.Errorf("failed to add skill %s to group: %w", skillID, err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// CreateCertificateType adds a certificate type to the catalog
func (db *DB) CreateCertificateType(ctx context.Context, name, issuer string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO certificate_types (name, issuer) VALUES ($1, $2) RETURNING id`, name, issuer,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create certificate type: %w", err)
	}
	return id, nil
}

// CreateJobRole adds a job role with its levels, lowest first
func (db *DB) CreateJobRole(ctx context.Context, name string, levels []string) (*types.JobRole, error) {
	role := &types.JobRole{Name: name}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO job_roles (name) VALUES ($1) RETURNING id`, name).Scan(&role.ID); err != nil {
			return fmt.Errorf("failed to create job role: %w", err)
		}
		for i, levelName := range levels {
			level := types.JobRoleLevel{JobRoleID: role.ID, Name: levelName, Ordinal: i + 1}
			if err := tx.QueryRow(ctx,
				`INSERT INTO job_role_levels (job_role_id, name, ordinal) VALUES ($1, $2, $3) RETURNING id`,
				role.ID, levelName, level.Ordinal,
			).Scan(&level.ID); err != nil {
				return fmt.Errorf("failed to create job role level %s: %w", levelName, err)
			}
			role.Levels = append(role.Levels, level)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}
