package decisions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
	"go.uber.org/zap"
)

// Options configures an Applier
type Options struct {
	Now    func() time.Time
	NewID  func() uuid.UUID
	Logger *zap.Logger
}

// Applier commits an UpdateDecision to a MutableProfile
type Applier struct {
	now    func() time.Time
	newID  func() uuid.UUID
	logger *zap.Logger
}

// NewApplier creates an applier; zero options use the wall clock and random ids
func NewApplier(opts Options) *Applier {
	a := &Applier{now: opts.Now, newID: opts.NewID, logger: opts.Logger}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.New
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// run carries the state of one Apply call
type run struct {
	ctx        context.Context
	profile    MutableProfile
	comparison *types.ComparisonResult
	idx        *comparisonIndex
	catalog    *catalogIndex
	owned      *owned
	snapshot   *types.TalentProfile
	now        time.Time
	sourceCV   *uuid.UUID
	stats      *types.UpdateStatistics
	failures   []error
}

// Apply validates the decision against the comparison it answers and the current
// catalogs, and executes it.
//
// A *types.ValidationError rejects the whole decision before any write. An Update
// whose target is not owned by the talent, or was not offered as an update
// target by the comparison, fails alone with a *types.NotFoundError;
// the rest are applied and the failures are returned in a *types.PartialApplyError
// together with statistics of what was written. Any other error is returned as is
// and the caller is expected to roll back.
func (a *Applier) Apply(
	ctx context.Context,
	decision *types.UpdateDecision,
	comparison *types.ComparisonResult,
	catalogs *types.Catalogs,
	profile MutableProfile,
) (*types.UpdateStatistics, error) {
	if decision == nil {
		return nil, &types.ValidationError{Field: "decision", Message: "is required"}
	}
	if comparison == nil {
		return nil, &types.ValidationError{Field: "analysis_id", Message: "analysis not found"}
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	if decision.AnalysisID != comparison.AnalysisID {
		return nil, &types.ValidationError{
			Field:   "analysis_id",
			Message: fmt.Sprintf("decision is for analysis %s, not %s", decision.AnalysisID, comparison.AnalysisID),
		}
	}

	stats := &types.UpdateStatistics{}
	if decision.IsEmpty() {
		return stats, nil
	}

	snapshot, err := profile.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if snapshot.TalentID != comparison.TalentID {
		return nil, &types.ValidationError{Field: "analysis_id", Message: "analysis belongs to another talent"}
	}

	idx := indexComparison(comparison)
	cat := indexCatalogs(catalogs)
	o := indexProfile(snapshot)
	if err := crossValidate(decision, idx, cat, o); err != nil {
		return nil, err
	}

	r := &run{
		ctx:        ctx,
		profile:    profile,
		comparison: comparison,
		idx:        idx,
		catalog:    cat,
		owned:      o,
		snapshot:   snapshot,
		now:        a.now().UTC(),
		stats:      stats,
	}
	if comparison.CVID != uuid.Nil {
		cvID := comparison.CVID
		r.sourceCV = &cvID
	}

	steps := []func(*Applier, *run, *types.UpdateDecision) error{
		(*Applier).applyBasicInfo,
		(*Applier).applySkills,
		(*Applier).applyWorkExperiences,
		(*Applier).applyProjects,
		(*Applier).applyCertificates,
		(*Applier).applyJobRoleLevels,
	}
	for _, step := range steps {
		if err := step(a, r, decision); err != nil {
			return stats, err
		}
	}

	a.logger.Info("decision applied",
		zap.String("talent_id", snapshot.TalentID.String()),
		zap.String("analysis_id", decision.AnalysisID.String()),
		zap.Int("changes", stats.Changes()),
		zap.Int("failed", len(stats.Failed)),
	)

	if len(r.failures) > 0 {
		return stats, &types.PartialApplyError{Failures: r.failures}
	}
	return stats, nil
}

// record turns a not-found error into a per-entry failure. Other errors abort.
func (r *run) record(category types.Category, index int, target *uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		return fmt.Errorf("%s[%d]: %w", category, index, err)
	}
	r.failures = append(r.failures, err)
	r.stats.Failed = append(r.stats.Failed, types.ActionFailure{
		Category:         category,
		Index:            index,
		TargetExistingID: target,
		Error:            err.Error(),
	})
	return nil
}

func (a *Applier) applyBasicInfo(r *run, d *types.UpdateDecision) error {
	if d.BasicInfo == nil || len(d.BasicInfo.Fields) == 0 {
		return nil
	}

	info := r.snapshot.BasicInfo
	updated := 0
	for _, field := range d.BasicInfo.Fields {
		fc, ok := r.idx.basic[field]
		if !ok || !fc.Changed {
			continue
		}
		switch field {
		case types.FieldFullName:
			info.FullName = fc.New
		case types.FieldEmail:
			info.Email = fc.New
		case types.FieldPhone:
			info.Phone = fc.New
		case types.FieldDateOfBirth:
			info.DateOfBirth = fc.New
		case types.FieldLocation:
			info.Location = fc.New
		case types.FieldLinks:
			info.Links = types.SplitLinks(fc.New)
		case types.FieldWorkingMode:
			info.WorkingMode = fc.New
		default:
			continue
		}
		updated++
	}
	if updated == 0 {
		return nil
	}

	if err := r.profile.UpdateBasicInfo(r.ctx, info); err != nil {
		return fmt.Errorf("basic_info: %w", err)
	}
	r.stats.BasicInfoFieldsUpdated = updated
	return nil
}

func (a *Applier) applySkills(r *run, d *types.UpdateDecision) error {
	for i, act := range d.Skills {
		var err error
		switch act.ActionType {
		case types.ActionAdd:
			err = a.addSkill(r, act)
			if err == nil {
				r.stats.SkillsAdded++
			}
		case types.ActionUpdate:
			err = a.updateSkill(r, act)
			if err == nil {
				r.stats.SkillsUpdated++
			}
		case types.ActionRemove:
			err = a.removeSkill(r, *act.TargetExistingID)
			if err == nil {
				r.stats.SkillsRemoved++
			}
		}
		if err := r.record(types.CategorySkills, i, act.TargetExistingID, err); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) addSkill(r *run, act types.SkillAction) error {
	entry := r.idx.skills[act.SourceKey]
	skill := types.TalentSkill{
		ID:         a.newID(),
		TalentID:   r.snapshot.TalentID,
		SourceCVID: r.sourceCV,
		CreatedAt:  r.now,
		UpdatedAt:  r.now,
	}
	switch {
	case entry.match != nil:
		skill.SkillID = entry.match.CatalogSkill.ID
		skill.SkillName = entry.match.CatalogSkill.Name
		skill.Level = entry.match.NormalizedLevel
		skill.YearsExp = entry.match.FromCV.YearsExp
	case entry.unmatched != nil:
		skill.SkillName = strings.TrimSpace(entry.unmatched.FromCV.Name)
		skill.Level = entry.unmatched.NormalizedLevel
		skill.YearsExp = entry.unmatched.FromCV.YearsExp
	}
	applySkillPayload(&skill, act.Payload)
	if c, ok := r.catalog.skills[skill.SkillID]; ok {
		skill.SkillName = c.Name
	}
	if skill.Level == "" {
		skill.Level = types.SkillLevelBeginner
	}
	return r.profile.AddSkill(r.ctx, skill)
}

func (a *Applier) updateSkill(r *run, act types.SkillAction) error {
	target := *act.TargetExistingID
	skill, ok := r.owned.skills[target]
	if !ok || !r.idx.skillTargets[target] {
		return &types.NotFoundError{Resource: "skill", ID: target.String()}
	}

	if entry := r.idx.skills[act.SourceKey]; entry.match != nil {
		skill.Level = entry.match.NormalizedLevel
		if entry.match.FromCV.YearsExp != nil {
			skill.YearsExp = entry.match.FromCV.YearsExp
		}
	}
	// The catalog skill of an existing record is its identity
	if act.Payload != nil {
		payload := *act.Payload
		payload.SkillID = uuid.Nil
		applySkillPayload(&skill, &payload)
	}
	skill.SourceCVID = r.sourceCV
	skill.UpdatedAt = r.now
	return r.profile.UpdateSkill(r.ctx, skill)
}

func (a *Applier) removeSkill(r *run, target uuid.UUID) error {
	if _, ok := r.owned.skills[target]; !ok {
		return &types.NotFoundError{Resource: "skill", ID: target.String()}
	}
	return r.profile.RemoveSkill(r.ctx, target)
}

func applySkillPayload(skill *types.TalentSkill, p *types.SkillPayload) {
	if p == nil {
		return
	}
	if p.SkillID != uuid.Nil {
		skill.SkillID = p.SkillID
	}
	if p.Level != "" {
		skill.Level = p.Level
	}
	if p.YearsExp != nil {
		skill.YearsExp = p.YearsExp
	}
}

func (a *Applier) applyWorkExperiences(r *run, d *types.UpdateDecision) error {
	for i, act := range d.WorkExperiences {
		var err error
		candidate := r.idx.work[act.SourceKey]
		if act.Payload != nil {
			candidate = *act.Payload
		}

		switch act.ActionType {
		case types.ActionAdd:
			err = r.profile.AddWorkExperience(r.ctx, types.WorkExperience{
				ID:          a.newID(),
				TalentID:    r.snapshot.TalentID,
				Company:     strings.TrimSpace(candidate.Company),
				Position:    strings.TrimSpace(candidate.Position),
				StartDate:   strings.TrimSpace(candidate.StartDate),
				EndDate:     strings.TrimSpace(candidate.EndDate),
				Description: strings.TrimSpace(candidate.Description),
				SourceCVID:  r.sourceCV,
				CreatedAt:   r.now,
				UpdatedAt:   r.now,
			})
			if err == nil {
				r.stats.WorkExperiencesAdded++
			}
		case types.ActionUpdate:
			target := *act.TargetExistingID
			existing, ok := r.owned.work[target]
			if !ok || !r.idx.workTargets[target] {
				err = &types.NotFoundError{Resource: "work_experience", ID: target.String()}
				break
			}
			mergeText(&existing.Company, candidate.Company)
			mergeText(&existing.Position, candidate.Position)
			mergeText(&existing.StartDate, candidate.StartDate)
			mergeText(&existing.EndDate, candidate.EndDate)
			mergeText(&existing.Description, candidate.Description)
			existing.SourceCVID = r.sourceCV
			existing.UpdatedAt = r.now
			err = r.profile.UpdateWorkExperience(r.ctx, existing)
			if err == nil {
				r.stats.WorkExperiencesUpdated++
			}
		}
		if err := r.record(types.CategoryWorkExperiences, i, act.TargetExistingID, err); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) applyProjects(r *run, d *types.UpdateDecision) error {
	for i, act := range d.Projects {
		var err error
		candidate := r.idx.projects[act.SourceKey]
		if act.Payload != nil {
			candidate = *act.Payload
		}

		switch act.ActionType {
		case types.ActionAdd:
			err = r.profile.AddProject(r.ctx, types.Project{
				ID:           a.newID(),
				TalentID:     r.snapshot.TalentID,
				Name:         strings.TrimSpace(candidate.Name),
				Position:     strings.TrimSpace(candidate.Position),
				Technologies: candidate.Technologies,
				Description:  strings.TrimSpace(candidate.Description),
				SourceCVID:   r.sourceCV,
				CreatedAt:    r.now,
				UpdatedAt:    r.now,
			})
			if err == nil {
				r.stats.ProjectsAdded++
			}
		case types.ActionUpdate:
			target := *act.TargetExistingID
			existing, ok := r.owned.projects[target]
			if !ok || !r.idx.projectTargets[target] {
				err = &types.NotFoundError{Resource: "project", ID: target.String()}
				break
			}
			mergeText(&existing.Name, candidate.Name)
			mergeText(&existing.Position, candidate.Position)
			mergeText(&existing.Description, candidate.Description)
			if len(candidate.Technologies) > 0 {
				existing.Technologies = candidate.Technologies
			}
			existing.SourceCVID = r.sourceCV
			existing.UpdatedAt = r.now
			err = r.profile.UpdateProject(r.ctx, existing)
			if err == nil {
				r.stats.ProjectsUpdated++
			}
		}
		if err := r.record(types.CategoryProjects, i, act.TargetExistingID, err); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) applyCertificates(r *run, d *types.UpdateDecision) error {
	for i, act := range d.Certificates {
		var err error
		entry := r.idx.certs[act.SourceKey]
		var fromCV types.ExtractedCertificate
		typeID := uuid.Nil
		switch {
		case entry.match != nil:
			fromCV = entry.match.FromCV
			typeID = entry.match.CertificateType.ID
		case entry.unmatched != nil:
			fromCV = entry.unmatched.FromCV
		}

		switch act.ActionType {
		case types.ActionAdd:
			cert := types.TalentCertificate{
				ID:                a.newID(),
				TalentID:          r.snapshot.TalentID,
				CertificateTypeID: typeID,
				Name:              strings.TrimSpace(fromCV.Name),
				Issuer:            strings.TrimSpace(fromCV.Issuer),
				IssuedDate:        strings.TrimSpace(fromCV.IssuedDate),
				ExpiryDate:        strings.TrimSpace(fromCV.ExpiryDate),
				SourceCVID:        r.sourceCV,
				CreatedAt:         r.now,
				UpdatedAt:         r.now,
			}
			applyCertificatePayload(&cert, act.Payload)
			err = r.profile.AddCertificate(r.ctx, cert)
			if err == nil {
				r.stats.CertificatesAdded++
			}
		case types.ActionUpdate:
			target := *act.TargetExistingID
			cert, ok := r.owned.certs[target]
			if !ok || !r.idx.certTargets[target] {
				err = &types.NotFoundError{Resource: "certificate", ID: target.String()}
				break
			}
			mergeText(&cert.Name, fromCV.Name)
			mergeText(&cert.Issuer, fromCV.Issuer)
			mergeText(&cert.IssuedDate, fromCV.IssuedDate)
			mergeText(&cert.ExpiryDate, fromCV.ExpiryDate)
			// The certificate type of an existing record is its identity
			if act.Payload != nil {
				payload := *act.Payload
				payload.CertificateTypeID = uuid.Nil
				applyCertificatePayload(&cert, &payload)
			}
			cert.SourceCVID = r.sourceCV
			cert.UpdatedAt = r.now
			err = r.profile.UpdateCertificate(r.ctx, cert)
			if err == nil {
				r.stats.CertificatesUpdated++
			}
		}
		if err := r.record(types.CategoryCertificates, i, act.TargetExistingID, err); err != nil {
			return err
		}
	}
	return nil
}

func applyCertificatePayload(cert *types.TalentCertificate, p *types.CertificatePayload) {
	if p == nil {
		return
	}
	if p.CertificateTypeID != uuid.Nil {
		cert.CertificateTypeID = p.CertificateTypeID
	}
	mergeText(&cert.Name, p.Name)
	mergeText(&cert.Issuer, p.Issuer)
	mergeText(&cert.IssuedDate, p.IssuedDate)
	mergeText(&cert.ExpiryDate, p.ExpiryDate)
}

func (a *Applier) applyJobRoleLevels(r *run, d *types.UpdateDecision) error {
	for i, act := range d.JobRoleLevels {
		var err error
		entry := r.idx.roles[act.SourceKey]

		switch act.ActionType {
		case types.ActionAdd:
			jrl := types.TalentJobRoleLevel{
				ID:         a.newID(),
				TalentID:   r.snapshot.TalentID,
				SourceCVID: r.sourceCV,
				CreatedAt:  r.now,
				UpdatedAt:  r.now,
			}
			switch {
			case entry.match != nil:
				jrl.JobRoleID = entry.match.JobRoleID
				jrl.JobRoleLevelID = entry.match.JobRoleLevelID
				jrl.Position = entry.match.JobRoleName
				jrl.Level = entry.match.LevelName
				jrl.YearsOfExp = entry.match.FromCV.YearsOfExp
				jrl.RatePerMonth = entry.match.FromCV.RatePerMonth
			case entry.unmatched != nil:
				jrl.Position = strings.TrimSpace(entry.unmatched.FromCV.Position)
				jrl.Level = strings.TrimSpace(entry.unmatched.FromCV.Level)
				jrl.YearsOfExp = entry.unmatched.FromCV.YearsOfExp
				jrl.RatePerMonth = entry.unmatched.FromCV.RatePerMonth
			}
			r.applyJobRoleLevelPayload(&jrl, act.Payload)
			err = r.profile.AddJobRoleLevel(r.ctx, jrl)
			if err == nil {
				r.stats.JobRoleLevelsAdded++
			}
		case types.ActionUpdate:
			target := *act.TargetExistingID
			jrl, ok := r.owned.roles[target]
			if !ok || !r.idx.roleTargets[target] {
				err = &types.NotFoundError{Resource: "job_role_level", ID: target.String()}
				break
			}
			// The job role is the identity; only the level and figures move
			if entry.match != nil && entry.match.JobRoleID == jrl.JobRoleID {
				jrl.JobRoleLevelID = entry.match.JobRoleLevelID
				jrl.Level = entry.match.LevelName
				if entry.match.FromCV.YearsOfExp != nil {
					jrl.YearsOfExp = entry.match.FromCV.YearsOfExp
				}
				if entry.match.FromCV.RatePerMonth != nil {
					jrl.RatePerMonth = entry.match.FromCV.RatePerMonth
				}
			}
			r.applyJobRoleLevelPayload(&jrl, act.Payload)
			jrl.SourceCVID = r.sourceCV
			jrl.UpdatedAt = r.now
			err = r.profile.UpdateJobRoleLevel(r.ctx, jrl)
			if err == nil {
				r.stats.JobRoleLevelsUpdated++
			}
		}
		if err := r.record(types.CategoryJobRoleLevels, i, act.TargetExistingID, err); err != nil {
			return err
		}
	}
	return nil
}

// applyJobRoleLevelPayload moves the record to the payload's catalog level. A
// record without a job role takes the level's role.
func (r *run) applyJobRoleLevelPayload(jrl *types.TalentJobRoleLevel, p *types.JobRoleLevelPayload) {
	if p == nil {
		return
	}
	if level, ok := r.catalog.levels[p.JobRoleLevelID]; ok {
		jrl.JobRoleLevelID = level.ID
		jrl.Level = level.Name
		if jrl.JobRoleID == uuid.Nil {
			jrl.JobRoleID = level.JobRoleID
			jrl.Position = r.catalog.roles[level.JobRoleID].Name
		}
	}
	if p.YearsOfExp != nil {
		jrl.YearsOfExp = p.YearsOfExp
	}
	if p.RatePerMonth != nil {
		jrl.RatePerMonth = p.RatePerMonth
	}
}

// mergeText overwrites dst only when the incoming value is not blank
func mergeText(dst *string, incoming string) {
	if v := strings.TrimSpace(incoming); v != "" {
		*dst = v
	}
}
