package reconcile

import (
	"sort"
	"strings"

	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// CompareBasicInfo diffs basic info field by field. A field counts as changed only
// when the CV states a value that differs from the stored one after
// normalization. Every field is listed, changed or not.
func CompareBasicInfo(current types.BasicInfo, extracted types.ExtractedBasicInfo) types.BasicInfoComparison {
	fields := []types.FieldChange{
		textField(types.FieldFullName, current.FullName, extracted.FullName),
		emailField(current.Email, extracted.Email),
		phoneField(current.Phone, extracted.Phone),
		textField(types.FieldDateOfBirth, current.DateOfBirth, extracted.DateOfBirth),
		textField(types.FieldLocation, current.Location, extracted.Location),
		linksField(current.Links, extracted.Links),
		textField(types.FieldWorkingMode, current.WorkingMode, extracted.WorkingMode),
	}

	cmp := types.BasicInfoComparison{Fields: fields}
	for _, f := range fields {
		if f.Changed {
			cmp.HasChanges = true
			break
		}
	}
	return cmp
}

func textField(name, was, now string) types.FieldChange {
	return change(name, was, now, parsing.FoldText)
}

func emailField(was, now string) types.FieldChange {
	return change(types.FieldEmail, was, now, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// phoneField compares digits only, so "+84 912-345-678" equals "+84912345678"
func phoneField(was, now string) types.FieldChange {
	return change(types.FieldPhone, was, now, func(s string) string {
		var b strings.Builder
		for _, r := range s {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		return b.String()
	})
}

// linksField compares link sets ignoring order, case and trailing slashes
func linksField(was, now []string) types.FieldChange {
	fc := types.FieldChange{Field: types.FieldLinks, Old: joinLinks(was), New: joinLinks(now)}
	if fc.New != "" {
		fc.Changed = canonicalLinks(was) != canonicalLinks(now)
	}
	return fc
}

func joinLinks(links []string) string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, types.LinksSeparator)
}

func canonicalLinks(links []string) string {
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		l = strings.TrimRight(strings.TrimSpace(l), "/")
		if l != "" {
			set[strings.ToLower(l)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return strings.Join(out, types.LinksSeparator)
}

func change(name, was, now string, normalize func(string) string) types.FieldChange {
	was, now = strings.TrimSpace(was), strings.TrimSpace(now)
	fc := types.FieldChange{Field: name, Old: was, New: now}
	if now == "" {
		return fc
	}
	fc.Changed = normalize(was) != normalize(now)
	return fc
}
