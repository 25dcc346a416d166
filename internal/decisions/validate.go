package decisions

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// crossValidate checks a decision against the comparison it answers, the
// current catalogs and the current profile. Any failure rejects the whole
// decision before a write.
//
// An Update that names a source key must target the existing record the run
// paired with that key. An Add must name a new entry, or a potential duplicate
// the run recommended keeping alongside its existing record.
func crossValidate(d *types.UpdateDecision, idx *comparisonIndex, cat *catalogIndex, o *owned) error {
	if err := validateSkills(d.Skills, idx, cat, o); err != nil {
		return err
	}

	used := map[string]bool{}
	for i, a := range d.WorkExperiences {
		field := fmt.Sprintf("%s[%d]", types.CategoryWorkExperiences, i)
		if err := checkSourceKey(field, a.ActionType, a.SourceKey, a.Payload == nil, used, func(k string) bool {
			_, ok := idx.work[k]
			return ok
		}); err != nil {
			return err
		}
		if err := checkDuplicatePairing(field, a.ActionType, a.TargetExistingID, a.SourceKey, idx.workPairs); err != nil {
			return err
		}
	}

	used = map[string]bool{}
	for i, a := range d.Projects {
		field := fmt.Sprintf("%s[%d]", types.CategoryProjects, i)
		if err := checkSourceKey(field, a.ActionType, a.SourceKey, a.Payload == nil, used, func(k string) bool {
			_, ok := idx.projects[k]
			return ok
		}); err != nil {
			return err
		}
		if err := checkDuplicatePairing(field, a.ActionType, a.TargetExistingID, a.SourceKey, idx.projectPairs); err != nil {
			return err
		}
	}

	if err := validateCertificates(d.Certificates, idx, cat, o); err != nil {
		return err
	}
	return validateJobRoleLevels(d.JobRoleLevels, idx, cat, o)
}

func validateSkills(actions []types.SkillAction, idx *comparisonIndex, cat *catalogIndex, o *owned) error {
	used := map[string]bool{}
	adding := map[uuid.UUID]bool{}

	for i, a := range actions {
		field := fmt.Sprintf("%s[%d]", types.CategorySkills, i)
		if a.ActionType == types.ActionRemove {
			continue
		}
		if err := checkSourceKey(field, a.ActionType, a.SourceKey, a.Payload == nil, used, func(k string) bool {
			_, ok := idx.skills[k]
			return ok
		}); err != nil {
			return err
		}

		switch a.ActionType {
		case types.ActionUpdate:
			if a.SourceKey == "" {
				continue
			}
			var existing *types.TalentSkill
			if entry := idx.skills[a.SourceKey]; entry.match != nil {
				existing = entry.match.Existing
			}
			if err := checkPaired(field, a.SourceKey, *a.TargetExistingID, existing, func(s *types.TalentSkill) uuid.UUID { return s.ID }); err != nil {
				return err
			}

		case types.ActionAdd:
			skillID := uuid.Nil
			if entry := idx.skills[a.SourceKey]; entry.match != nil {
				skillID = entry.match.CatalogSkill.ID
			}
			if a.Payload != nil && a.Payload.SkillID != uuid.Nil {
				skillID = a.Payload.SkillID
			}
			if skillID == uuid.Nil {
				return &types.ValidationError{Field: field, Message: "skill is not in the catalog; payload.skill_id is required"}
			}
			if _, ok := cat.skills[skillID]; !ok {
				return &types.ValidationError{Field: field, Message: fmt.Sprintf("skill %s is not in the skill catalog", skillID)}
			}
			if o.skillIDs[skillID] {
				return &types.ValidationError{Field: field, Message: "skill is already on the profile; use update"}
			}
			if adding[skillID] {
				return &types.ValidationError{Field: field, Message: "skill is added twice"}
			}
			adding[skillID] = true
		}
	}
	return nil
}

func validateCertificates(actions []types.CertificateAction, idx *comparisonIndex, cat *catalogIndex, o *owned) error {
	used := map[string]bool{}
	for i, a := range actions {
		field := fmt.Sprintf("%s[%d]", types.CategoryCertificates, i)
		if err := checkSourceKey(field, a.ActionType, a.SourceKey, a.Payload == nil, used, func(k string) bool {
			_, ok := idx.certs[k]
			return ok
		}); err != nil {
			return err
		}
		if a.ActionType == types.ActionSkip {
			continue
		}
		entry := idx.certs[a.SourceKey]

		typeID := uuid.Nil
		if a.Payload != nil {
			typeID = a.Payload.CertificateTypeID
		}
		if typeID != uuid.Nil {
			if _, ok := cat.certTypes[typeID]; !ok {
				return &types.ValidationError{Field: field, Message: fmt.Sprintf("certificate type %s is not in the catalog", typeID)}
			}
		}

		switch a.ActionType {
		case types.ActionUpdate:
			target := *a.TargetExistingID
			if a.SourceKey != "" {
				var existing *types.TalentCertificate
				if entry.match != nil {
					existing = entry.match.Existing
				}
				if err := checkPaired(field, a.SourceKey, target, existing, func(c *types.TalentCertificate) uuid.UUID { return c.ID }); err != nil {
					return err
				}
			}
			if held, ok := o.certs[target]; ok && typeID != uuid.Nil && typeID != held.CertificateTypeID {
				return &types.ValidationError{Field: field, Message: "payload.certificate_type_id differs from the certificate being updated"}
			}

		case types.ActionAdd:
			if entry.match != nil && entry.match.Existing != nil {
				return &types.ValidationError{Field: field, Message: "certificate is already on the profile; use update"}
			}
			if entry.unmatched != nil && typeID == uuid.Nil {
				return &types.ValidationError{Field: field, Message: "certificate is not in the catalog; payload.certificate_type_id is required"}
			}
		}
	}
	return nil
}

func validateJobRoleLevels(actions []types.JobRoleLevelAction, idx *comparisonIndex, cat *catalogIndex, o *owned) error {
	used := map[string]bool{}
	for i, a := range actions {
		field := fmt.Sprintf("%s[%d]", types.CategoryJobRoleLevels, i)
		if err := checkSourceKey(field, a.ActionType, a.SourceKey, a.Payload == nil, used, func(k string) bool {
			_, ok := idx.roles[k]
			return ok
		}); err != nil {
			return err
		}
		if a.ActionType == types.ActionSkip {
			continue
		}
		entry := idx.roles[a.SourceKey]

		var level *types.JobRoleLevel
		if a.Payload != nil && a.Payload.JobRoleLevelID != uuid.Nil {
			l, ok := cat.levels[a.Payload.JobRoleLevelID]
			if !ok {
				return &types.ValidationError{Field: field, Message: fmt.Sprintf("job role level %s is not in the catalog", a.Payload.JobRoleLevelID)}
			}
			level = &l
		}

		switch a.ActionType {
		case types.ActionUpdate:
			target := *a.TargetExistingID
			if a.SourceKey != "" {
				var existing *types.TalentJobRoleLevel
				if entry.match != nil {
					existing = entry.match.Existing
				}
				if err := checkPaired(field, a.SourceKey, target, existing, func(j *types.TalentJobRoleLevel) uuid.UUID { return j.ID }); err != nil {
					return err
				}
			}
			// an unowned target fails alone when the decision is applied
			if held, ok := o.roles[target]; ok && level != nil && level.JobRoleID != held.JobRoleID {
				return &types.ValidationError{Field: field, Message: "payload.job_role_level_id belongs to another job role"}
			}

		case types.ActionAdd:
			roleID := uuid.Nil
			if entry.match != nil {
				roleID = entry.match.JobRoleID
			}
			switch {
			case level != nil && roleID != uuid.Nil && level.JobRoleID != roleID:
				return &types.ValidationError{Field: field, Message: "payload.job_role_level_id belongs to another job role"}
			case level != nil:
				roleID = level.JobRoleID
			case entry.unmatched != nil:
				return &types.ValidationError{Field: field, Message: "position is not in the catalog; payload.job_role_level_id is required"}
			}
			if o.heldRoleID[roleID] {
				return &types.ValidationError{Field: field, Message: "job role is already on the profile; use update"}
			}
		}
	}
	return nil
}

// checkPaired requires an Update's target to be the existing record the run
// resolved the source key to
func checkPaired[T any](field, key string, target uuid.UUID, existing *T, id func(*T) uuid.UUID) error {
	if existing == nil {
		return &types.ValidationError{Field: field, Message: fmt.Sprintf("source_key %q has no existing record to update; use add", key)}
	}
	if paired := id(existing); paired != target {
		return &types.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("source_key %q was paired with %s, not target_existing_id %s", key, paired, target),
		}
	}
	return nil
}

// checkDuplicatePairing applies the pairing rules to the fuzzily matched
// categories. Adding a potential duplicate is allowed only when the run
// recommended keeping both records.
func checkDuplicatePairing(field string, action types.ActionType, target *uuid.UUID, key string, pairs map[string]pairing) error {
	if key == "" {
		return nil
	}
	pair, isDuplicate := pairs[key]
	switch action {
	case types.ActionUpdate:
		if !isDuplicate {
			return &types.ValidationError{Field: field, Message: fmt.Sprintf("source_key %q has no existing record to update; use add", key)}
		}
		if pair.existingID != *target {
			return &types.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("source_key %q was paired with %s, not target_existing_id %s", key, pair.existingID, *target),
			}
		}
	case types.ActionAdd:
		if isDuplicate && pair.recommendation != types.RecommendationKeepBoth {
			return &types.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("source_key %q is a potential duplicate of %s (%s); use update or skip", key, pair.existingID, pair.recommendation),
			}
		}
	}
	return nil
}

// checkSourceKey enforces that Add names a known source key, that Update has
// either a known source key or a payload, and that no source key is acted on twice.
func checkSourceKey(field string, action types.ActionType, key string, noPayload bool, used map[string]bool, known func(string) bool) error {
	if action == types.ActionSkip {
		return nil
	}
	if key == "" {
		if action == types.ActionUpdate && noPayload {
			return &types.ValidationError{Field: field, Message: "update requires source_key or payload"}
		}
		return nil
	}
	if !known(key) {
		return &types.ValidationError{Field: field, Message: fmt.Sprintf("source_key %q is not part of this analysis", key)}
	}
	if used[key] {
		return &types.ValidationError{Field: field, Message: fmt.Sprintf("source_key %q is used by more than one action", key)}
	}
	used[key] = true
	return nil
}
