// Package catalog holds the versioned requirement catalog: which groups of
// documents a person must provide for each purpose.
//
// A version is immutable once registered. Activating a newer version only
// affects aggregation from then on; decided documents are never revisited.
package catalog

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"talentkyc/internal/kyc/models"
	dErrors "talentkyc/pkg/domain-errors"
)

// BuiltinVersion is the catalog version compiled into the binary.
const BuiltinVersion = "v1"

// Catalog is one immutable version of the requirement rules.
type Catalog struct {
	Version  string
	Purposes map[models.Purpose][]models.RequirementGroup
	// Validity is the default lifetime stamped on a verified document of the
	// type when the submitter supplied no expiry date.
	Validity map[models.DocumentType]time.Duration
}

// Builtin returns the default catalog.
func Builtin() Catalog {
	identityDocument := models.RequirementGroup{
		ID:            "identity_document",
		DocumentTypes: []models.DocumentType{models.DocumentTypePassport, models.DocumentTypeNationalID},
		Mode:          models.ModeOneOf,
	}
	return Catalog{
		Version: BuiltinVersion,
		Purposes: map[models.Purpose][]models.RequirementGroup{
			models.PurposeIdentityKYC: {
				identityDocument,
				{
					ID:            "proof_of_address",
					DocumentTypes: []models.DocumentType{models.DocumentTypeAddressProof},
					Mode:          models.ModeAllOf,
				},
				{
					ID:            "professional_documents",
					DocumentTypes: []models.DocumentType{models.DocumentTypeEducationCertificate, models.DocumentTypeProfessionalCertificate},
					Mode:          models.ModeOneOf,
					Optional:      true,
				},
			},
			models.PurposeProfessionalBackground: {
				identityDocument.Clone(),
				{
					ID:            "education",
					DocumentTypes: []models.DocumentType{models.DocumentTypeEducationCertificate},
					Mode:          models.ModeAllOf,
				},
				{
					ID:            "professional_certification",
					DocumentTypes: []models.DocumentType{models.DocumentTypeProfessionalCertificate},
					Mode:          models.ModeAllOf,
					Optional:      true,
				},
			},
		},
		Validity: map[models.DocumentType]time.Duration{
			models.DocumentTypeAddressProof: 180 * 24 * time.Hour,
		},
	}
}

// Validate enforces the structural rules of a catalog version: every group
// has an id unique within its purpose, a known mode and at least one type,
// and no type is referenced by two groups of the same purpose.
func (c Catalog) Validate() error {
	if c.Version == "" {
		return dErrors.New(dErrors.CodeValidation, "catalog version is required")
	}
	if len(c.Purposes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "catalog must define at least one purpose")
	}
	for purpose, groups := range c.Purposes {
		if purpose == "" {
			return dErrors.New(dErrors.CodeValidation, "purpose name is required")
		}
		groupIDs := make(map[string]struct{}, len(groups))
		owners := make(map[models.DocumentType]string)
		for _, g := range groups {
			if g.ID == "" {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("purpose %s: group id is required", purpose))
			}
			if _, dup := groupIDs[g.ID]; dup {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("purpose %s: duplicate group %s", purpose, g.ID))
			}
			groupIDs[g.ID] = struct{}{}
			if !g.Mode.IsValid() {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("purpose %s: group %s has unknown mode %q", purpose, g.ID, g.Mode))
			}
			if len(g.DocumentTypes) == 0 {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("purpose %s: group %s is empty", purpose, g.ID))
			}
			for _, t := range g.DocumentTypes {
				if t == "" {
					return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("purpose %s: group %s lists an empty type", purpose, g.ID))
				}
				if other, taken := owners[t]; taken {
					return dErrors.New(dErrors.CodeValidation,
						fmt.Sprintf("purpose %s: type %s appears in groups %s and %s", purpose, t, other, g.ID))
				}
				owners[t] = g.ID
			}
		}
	}
	for t, d := range c.Validity {
		if d <= 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("validity for %s must be positive", t))
		}
	}
	return nil
}

// Types lists every document type the catalog references, sorted.
func (c Catalog) Types() []models.DocumentType {
	seen := make(map[models.DocumentType]struct{})
	for _, groups := range c.Purposes {
		for _, g := range groups {
			for _, t := range g.DocumentTypes {
				seen[t] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (c Catalog) clone() Catalog {
	out := Catalog{
		Version:  c.Version,
		Purposes: make(map[models.Purpose][]models.RequirementGroup, len(c.Purposes)),
		Validity: maps.Clone(c.Validity),
	}
	for p, groups := range c.Purposes {
		out.Purposes[p] = cloneGroups(groups)
	}
	return out
}

func cloneGroups(groups []models.RequirementGroup) []models.RequirementGroup {
	out := make([]models.RequirementGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
