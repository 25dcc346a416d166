package verification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// EventKind names what happened to a skill group
type EventKind string

// Events
const (
	EventVerify     EventKind = "verify"
	EventInvalidate EventKind = "invalidate"
)

// Event is the input of Transition
type Event struct {
	Kind         EventKind
	TalentID     uuid.UUID
	SkillGroupID uuid.UUID
	At           time.Time
	AssessmentID uuid.UUID

	// Verify
	ExpertID uuid.UUID
	Result   types.AssessmentResult
	Note     string
	Snapshot []types.SkillSnapshotItem

	// Invalidate
	Reason string
}

// Outcome is what a transition writes
type Outcome struct {
	Record     types.SkillGroupVerification
	Deactivate *uuid.UUID
	Append     types.SkillGroupAssessment
}

// Transition computes the next verification record and the history change for an
// event. current and latest are nil when the key has no record or no
// assessments. It performs no I/O.
//
//	unverified --verify(pass)--> verified
//	unverified --verify(fail)--> invalid
//	verified   --verify(*)-----> verified | invalid
//	invalid    --verify(*)-----> verified | invalid
//	verified   --invalidate----> invalid
//	invalid    --invalidate----> invalid
func Transition(current *types.SkillGroupVerification, latest *types.SkillGroupAssessment, ev Event) (Outcome, error) {
	var out Outcome

	record := types.SkillGroupVerification{
		TalentID:     ev.TalentID,
		SkillGroupID: ev.SkillGroupID,
		State:        types.StateUnverified,
		CreatedAt:    ev.At,
	}
	if current != nil {
		record = *current
	}
	record.NeedsReverification = false
	record.ChangedSkills = nil
	record.UpdatedAt = ev.At
	record.Version++

	var seq int64 = 1
	if latest != nil {
		seq = latest.Sequence + 1
		if latest.IsActive {
			id := latest.ID
			out.Deactivate = &id
		}
	}

	switch ev.Kind {
	case EventVerify:
		if ev.Result == types.AssessmentFail && strings.TrimSpace(ev.Note) == "" {
			return out, &types.ValidationError{Field: "note", Message: "is required when result is fail"}
		}
		passed := ev.Result == types.AssessmentPass
		expertID := ev.ExpertID
		at := ev.At

		record.IsVerified = passed
		record.State = types.StateInvalid
		if passed {
			record.State = types.StateVerified
		}
		record.LastVerifiedDate = &at
		record.LastVerifiedByExpertID = &expertID
		record.Reason = ""

		out.Append = types.SkillGroupAssessment{
			ID:             ev.AssessmentID,
			SkillGroupID:   ev.SkillGroupID,
			TalentID:       ev.TalentID,
			ExpertID:       &expertID,
			Kind:           types.AssessmentKindExpert,
			AssessmentDate: at,
			IsVerified:     passed,
			IsActive:       true,
			Note:           strings.TrimSpace(ev.Note),
			SkillSnapshot:  ev.Snapshot,
			Sequence:       seq,
		}

	case EventInvalidate:
		if current == nil {
			return out, &types.NotFoundError{
				Resource: "skill_group_verification",
				ID:       fmt.Sprintf("%s/%s", ev.TalentID, ev.SkillGroupID),
			}
		}
		reason := strings.TrimSpace(ev.Reason)
		if reason == "" {
			return out, &types.ValidationError{Field: "reason", Message: "is required"}
		}

		trail := ""
		if latest != nil {
			trail = latest.Note
		}
		line := types.InvalidationNotePrefix + reason
		if trail != "" {
			line = trail + "\n" + line
		}

		record.IsVerified = false
		record.State = types.StateInvalid
		record.Reason = reason

		out.Append = types.SkillGroupAssessment{
			ID:             ev.AssessmentID,
			SkillGroupID:   ev.SkillGroupID,
			TalentID:       ev.TalentID,
			Kind:           types.AssessmentKindSystemInvalidation,
			AssessmentDate: ev.At,
			IsVerified:     false,
			IsActive:       false,
			Note:           line,
			Sequence:       seq,
		}

	default:
		return out, &types.ValidationError{Field: "event", Message: fmt.Sprintf("unknown event %q", ev.Kind)}
	}

	out.Record = record
	return out, nil
}

// Derive fills the read-time fields of a record from the group's current skills.
// A verified group needs reverification when any member skill was created or
// updated after the last verification. The result is never stored.
func Derive(record *types.SkillGroupVerification, talentID, skillGroupID uuid.UUID, skills []types.GroupSkill) types.SkillGroupVerification {
	if record == nil {
		return types.SkillGroupVerification{
			TalentID:     talentID,
			SkillGroupID: skillGroupID,
			State:        types.StateUnverified,
		}
	}

	out := *record
	out.NeedsReverification = false
	out.ChangedSkills = nil
	if !out.IsVerified || out.LastVerifiedDate == nil {
		return out
	}

	last := *out.LastVerifiedDate
	for _, s := range skills {
		if s.CreatedAt.After(last) || s.UpdatedAt.After(last) {
			out.ChangedSkills = append(out.ChangedSkills, s.Name)
		}
	}
	if len(out.ChangedSkills) > 0 {
		out.NeedsReverification = true
		out.State = types.StateNeedsReverification
		out.Reason = fmt.Sprintf("%d skill(s) changed since last verification on %s: %s",
			len(out.ChangedSkills), last.Format(time.RFC3339), strings.Join(out.ChangedSkills, ", "))
	}
	return out
}
