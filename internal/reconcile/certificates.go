package reconcile

import (
	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/parsing"
	"github.com/jonathan/talent-reconciler/internal/types"
)

// CompareCertificates resolves certificates by folded name against the
// certificate-type catalog. A resolved certificate the talent already holds is
// Existing, otherwise NewFromCV. Names with no catalog entry are Unmatched.
func CompareCertificates(
	extracted []types.ExtractedCertificate,
	catalog []types.CertificateType,
	held []types.TalentCertificate,
) (types.CertificatesComparison, []types.DataQualityWarning) {
	result := types.CertificatesComparison{
		Existing:  []types.CertificateMatch{},
		NewFromCV: []types.CertificateMatch{},
		Unmatched: []types.UnmatchedCertificate{},
	}
	warnings := []types.DataQualityWarning{}

	byName := make(map[string]types.CertificateType, len(catalog))
	for _, ct := range catalog {
		key := parsing.FoldText(ct.Name)
		if _, dup := byName[key]; key != "" && !dup {
			byName[key] = ct
		}
	}

	heldByType := make(map[uuid.UUID]*types.TalentCertificate, len(held))
	for i := range held {
		if _, dup := heldByType[held[i].CertificateTypeID]; !dup {
			heldByType[held[i].CertificateTypeID] = &held[i]
		}
	}

	for i, cert := range extracted {
		key := types.SourceKey(types.CategoryCertificates, i)
		name := parsing.FoldText(cert.Name)
		if name == "" {
			warnings = append(warnings, types.DataQualityWarning{SourceKey: key, Field: "name", Message: "certificate name is empty"})
		}

		ct, ok := byName[name]
		if !ok {
			result.Unmatched = append(result.Unmatched, types.UnmatchedCertificate{SourceKey: key, FromCV: cert})
			continue
		}

		match := types.CertificateMatch{SourceKey: key, FromCV: cert, CertificateType: ct}
		if existing, ok := heldByType[ct.ID]; ok {
			match.Existing = existing
			result.Existing = append(result.Existing, match)
			continue
		}
		result.NewFromCV = append(result.NewFromCV, match)
	}

	return result, warnings
}
