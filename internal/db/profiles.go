package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/talent-reconciler/internal/decisions"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// -----------------------------------------------------------------------------
// Profile reads
// -----------------------------------------------------------------------------

// GetProfile loads everything stored for a talent
func (db *DB) GetProfile(ctx context.Context, talentID uuid.UUID) (*types.TalentProfile, error) {
	return loadProfile(ctx, db.pool, talentID)
}

// CreateTalent inserts a talent with its basic info and returns its id
func (db *DB) CreateTalent(ctx context.Context, info types.BasicInfo) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO talents (full_name, email, phone, date_of_birth, location, links, working_mode)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		info.FullName, info.Email, info.Phone, info.DateOfBirth, info.Location, nonNil(info.Links), info.WorkingMode,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create talent: %w", err)
	}
	return id, nil
}

func loadProfile(ctx context.Context, q querier, talentID uuid.UUID) (*types.TalentProfile, error) {
	p := &types.TalentProfile{TalentID: talentID}

	err := q.QueryRow(ctx,
		`SELECT full_name, email, phone, date_of_birth, location, links, working_mode
		 FROM talents WHERE id = $1`,
		talentID,
	).Scan(&p.BasicInfo.FullName, &p.BasicInfo.Email, &p.BasicInfo.Phone, &p.BasicInfo.DateOfBirth,
		&p.BasicInfo.Location, &p.BasicInfo.Links, &p.BasicInfo.WorkingMode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.NotFoundError{Resource: "talent", ID: talentID.String()}
		}
		return nil, fmt.Errorf("failed to get talent: %w", err)
	}

	if p.Skills, err = listTalentSkills(ctx, q, talentID); err != nil {
		return nil, err
	}
	if p.WorkExperiences, err = listWorkExperiences(ctx, q, talentID); err != nil {
		return nil, err
	}
	if p.Projects, err = listProjects(ctx, q, talentID); err != nil {
		return nil, err
	}
	if p.Certificates, err = listCertificates(ctx, q, talentID); err != nil {
		return nil, err
	}
	if p.JobRoleLevels, err = listJobRoleLevels(ctx, q, talentID); err != nil {
		return nil, err
	}
	return p, nil
}

func listTalentSkills(ctx context.Context, q querier, talentID uuid.UUID) ([]types.TalentSkill, error) {
	rows, err := q.Query(ctx,
		`SELECT id, talent_id, skill_id, skill_name, level, years_exp, source_cv_id, created_at, updated_at
		 FROM talent_skills WHERE talent_id = $1 ORDER BY created_at, id`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var out []types.TalentSkill
	for rows.Next() {
		var s types.TalentSkill
		if err := rows.Scan(&s.ID, &s.TalentID, &s.SkillID, &s.SkillName, &s.Level, &s.YearsExp,
			&s.SourceCVID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func listWorkExperiences(ctx context.Context, q querier, talentID uuid.UUID) ([]types.WorkExperience, error) {
	rows, err := q.Query(ctx,
		`SELECT id, talent_id, company, position, start_date, end_date, description, source_cv_id, created_at, updated_at
		 FROM work_experiences WHERE talent_id = $1 ORDER BY created_at, id`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list work experiences: %w", err)
	}
	defer rows.Close()

	var out []types.WorkExperience
	for rows.Next() {
		var w types.WorkExperience
		if err := rows.Scan(&w.ID, &w.TalentID, &w.Company, &w.Position, &w.StartDate, &w.EndDate,
			&w.Description, &w.SourceCVID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work experience: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func listProjects(ctx context.Context, q querier, talentID uuid.UUID) ([]types.Project, error) {
	rows, err := q.Query(ctx,
		`SELECT id, talent_id, name, position, technologies, description, source_cv_id, created_at, updated_at
		 FROM projects WHERE talent_id = $1 ORDER BY created_at, id`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.TalentID, &p.Name, &p.Position, &p.Technologies, &p.Description,
			&p.SourceCVID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func listCertificates(ctx context.Context, q querier, talentID uuid.UUID) ([]types.TalentCertificate, error) {
	rows, err := q.Query(ctx,
		`SELECT id, talent_id, certificate_type_id, name, issuer, issued_date, expiry_date, source_cv_id, created_at, updated_at
		 FROM talent_certificates WHERE talent_id = $1 ORDER BY created_at, id`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var out []types.TalentCertificate
	for rows.Next() {
		var c types.TalentCertificate
		if err := rows.Scan(&c.ID, &c.TalentID, &c.CertificateTypeID, &c.Name, &c.Issuer, &c.IssuedDate,
			&c.ExpiryDate, &c.SourceCVID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func listJobRoleLevels(ctx context.Context, q querier, talentID uuid.UUID) ([]types.TalentJobRoleLevel, error) {
	rows, err := q.Query(ctx,
		`SELECT id, talent_id, job_role_id, job_role_level_id, position, level, years_of_exp, rate_per_month,
		        source_cv_id, created_at, updated_at
		 FROM talent_job_role_levels WHERE talent_id = $1 ORDER BY created_at, id`,
		talentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job role levels: %w", err)
	}
	defer rows.Close()

	var out []types.TalentJobRoleLevel
	for rows.Next() {
		var j types.TalentJobRoleLevel
		if err := rows.Scan(&j.ID, &j.TalentID, &j.JobRoleID, &j.JobRoleLevelID, &j.Position, &j.Level,
			&j.YearsOfExp, &j.RatePerMonth, &j.SourceCVID, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job role level: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Profile writes
// -----------------------------------------------------------------------------

// UpdateProfile runs fn in one transaction holding a row lock on the talent.
// The writes made through the MutableProfile commit when fn returns nil.
func (db *DB) UpdateProfile(ctx context.Context, talentID uuid.UUID, fn func(decisions.MutableProfile) error) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM talents WHERE id = $1 FOR UPDATE`, talentID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &types.NotFoundError{Resource: "talent", ID: talentID.String()}
			}
			return fmt.Errorf("failed to lock talent: %w", err)
		}
		return fn(&profileTx{tx: tx, talentID: talentID})
	})
}

// profileTx writes one talent's records inside a transaction. Updates are
// scoped to the talent, so an id owned by another talent reads as not found.
type profileTx struct {
	tx       pgx.Tx
	talentID uuid.UUID
}

var _ decisions.MutableProfile = (*profileTx)(nil)

func (p *profileTx) Snapshot(ctx context.Context) (*types.TalentProfile, error) {
	return loadProfile(ctx, p.tx, p.talentID)
}

func (p *profileTx) UpdateBasicInfo(ctx context.Context, info types.BasicInfo) error {
	_, err := p.tx.Exec(ctx,
		`UPDATE talents SET full_name = $2, email = $3, phone = $4, date_of_birth = $5, location = $6,
		        links = $7, working_mode = $8, updated_at = NOW()
		 WHERE id = $1`,
		p.talentID, info.FullName, info.Email, info.Phone, info.DateOfBirth, info.Location, nonNil(info.Links), info.WorkingMode,
	)
	if err != nil {
		return fmt.Errorf("failed to update basic info: %w", err)
	}
	return nil
}

func (p *profileTx) AddSkill(ctx context.Context, s types.TalentSkill) error {
	_, err := p.tx.Exec(ctx,
		`INSERT INTO talent_skills (id, talent_id, skill_id, skill_name, level, years_exp, source_cv_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, p.talentID, s.SkillID, s.SkillName, s.Level, s.YearsExp, s.SourceCVID, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add skill: %w", err)
	}
	return nil
}

func (p *profileTx) UpdateSkill(ctx context.Context, s types.TalentSkill) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE talent_skills SET level = $3, years_exp = $4, source_cv_id = $5, updated_at = $6
		 WHERE id = $1 AND talent_id = $2`,
		s.ID, p.talentID, s.Level, s.YearsExp, s.SourceCVID, s.UpdatedAt,
	)
	return affected(tag, err, "skill", s.ID)
}

func (p *profileTx) RemoveSkill(ctx context.Context, id uuid.UUID) error {
	tag, err := p.tx.Exec(ctx, `DELETE FROM talent_skills WHERE id = $1 AND talent_id = $2`, id, p.talentID)
	return affected(tag, err, "skill", id)
}

func (p *profileTx) AddWorkExperience(ctx context.Context, w types.WorkExperience) error {
	_, err := p.tx.Exec(ctx,
		`INSERT INTO work_experiences (id, talent_id, company, position, start_date, end_date, description,
		                               source_cv_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		w.ID, p.talentID, w.Company, w.Position, w.StartDate, w.EndDate, w.Description, w.SourceCVID, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add work experience: %w", err)
	}
	return nil
}

func (p *profileTx) UpdateWorkExperience(ctx context.Context, w types.WorkExperience) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE work_experiences SET company = $3, position = $4, start_date = $5, end_date = $6,
		        description = $7, source_cv_id = $8, updated_at = $9
		 WHERE id = $1 AND talent_id = $2`,
		w.ID, p.talentID, w.Company, w.Position, w.StartDate, w.EndDate, w.Description, w.SourceCVID, w.UpdatedAt,
	)
	return affected(tag, err, "work_experience", w.ID)
}

func (p *profileTx) AddProject(ctx context.Context, pr types.Project) error {
	_, err := p.tx.Exec(ctx,
		`INSERT INTO projects (id, talent_id, name, position, technologies, description, source_cv_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pr.ID, p.talentID, pr.Name, pr.Position, nonNil(pr.Technologies), pr.Description, pr.SourceCVID, pr.CreatedAt, pr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}
	return nil
}

func (p *profileTx) UpdateProject(ctx context.Context, pr types.Project) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE projects SET name = $3, position = $4, technologies = $5, description = $6,
		        source_cv_id = $7, updated_at = $8
		 WHERE id = $1 AND talent_id = $2`,
		pr.ID, p.talentID, pr.Name, pr.Position, nonNil(pr.Technologies), pr.Description, pr.SourceCVID, pr.UpdatedAt,
	)
	return affected(tag, err, "project", pr.ID)
}

func (p *profileTx) AddCertificate(ctx context.Context, c types.TalentCertificate) error {
	_, err := p.tx.Exec(ctx,
		`INSERT INTO talent_certificates (id, talent_id, certificate_type_id, name, issuer, issued_date, expiry_date,
		                                  source_cv_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, p.talentID, c.CertificateTypeID, c.Name, c.Issuer, c.IssuedDate, c.ExpiryDate, c.SourceCVID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add certificate: %w", err)
	}
	return nil
}

func (p *profileTx) UpdateCertificate(ctx context.Context, c types.TalentCertificate) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE talent_certificates SET name = $3, issuer = $4, issued_date = $5, expiry_date = $6,
		        source_cv_id = $7, updated_at = $8
		 WHERE id = $1 AND talent_id = $2`,
		c.ID, p.talentID, c.Name, c.Issuer, c.IssuedDate, c.ExpiryDate, c.SourceCVID, c.UpdatedAt,
	)
	return affected(tag, err, "certificate", c.ID)
}

func (p *profileTx) AddJobRoleLevel(ctx context.Context, j types.TalentJobRoleLevel) error {
	_, err := p.tx.Exec(ctx,
		`INSERT INTO talent_job_role_levels (id, talent_id, job_role_id, job_role_level_id, position, level,
		                                     years_of_exp, rate_per_month, source_cv_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, p.talentID, j.JobRoleID, j.JobRoleLevelID, j.Position, j.Level, j.YearsOfExp, j.RatePerMonth,
		j.SourceCVID, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add job role level: %w", err)
	}
	return nil
}

func (p *profileTx) UpdateJobRoleLevel(ctx context.Context, j types.TalentJobRoleLevel) error {
	tag, err := p.tx.Exec(ctx,
		`UPDATE talent_job_role_levels SET job_role_level_id = $3, position = $4, level = $5, years_of_exp = $6,
		        rate_per_month = $7, source_cv_id = $8, updated_at = $9
		 WHERE id = $1 AND talent_id = $2`,
		j.ID, p.talentID, j.JobRoleLevelID, j.Position, j.Level, j.YearsOfExp, j.RatePerMonth, j.SourceCVID, j.UpdatedAt,
	)
	return affected(tag, err, "job_role_level", j.ID)
}

// affected maps an update that touched no row to a NotFoundError
func affected(tag pgconn.CommandTag, err error, resource string, id uuid.UUID) error {
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", resource, id, err)
	}
	if tag.RowsAffected() == 0 {
		return &types.NotFoundError{Resource: resource, ID: id.String()}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
