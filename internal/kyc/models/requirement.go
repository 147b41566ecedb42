package models

import "slices"

// Purpose selects which requirement groups apply, e.g. identity KYC for
// onboarding versus the checks run before a placement.
type Purpose string

const (
	PurposeIdentityKYC            Purpose = "identity_kyc"
	PurposeProfessionalBackground Purpose = "professional_background"
)

func (p Purpose) String() string {
	return string(p)
}

// RequirementMode decides how a group's member types combine.
type RequirementMode string

const (
	ModeAllOf RequirementMode = "ALL_OF"
	ModeOneOf RequirementMode = "ONE_OF"
)

func (m RequirementMode) IsValid() bool {
	return m == ModeAllOf || m == ModeOneOf
}

// RequirementGroup is one line of a catalog: a set of document types that
// together (ALL_OF) or alternatively (ONE_OF) satisfy a requirement.
type RequirementGroup struct {
	ID            string          `json:"id"`
	DocumentTypes []DocumentType  `json:"document_types"`
	Mode          RequirementMode `json:"mode"`
	Optional      bool            `json:"optional"`
}

// Covers reports whether t is one of the group's member types.
func (g RequirementGroup) Covers(t DocumentType) bool {
	return slices.Contains(g.DocumentTypes, t)
}

// Clone returns a copy that shares nothing with g.
func (g RequirementGroup) Clone() RequirementGroup {
	g.DocumentTypes = slices.Clone(g.DocumentTypes)
	return g
}
