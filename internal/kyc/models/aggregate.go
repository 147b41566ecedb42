package models

import "slices"

// GroupState is how far a requirement group has been satisfied.
type GroupState string

const (
	GroupFull        GroupState = "FULL"
	GroupPartial     GroupState = "PARTIAL"
	GroupUnsatisfied GroupState = "UNSATISFIED"
)

// GroupProgress is the per-group breakdown behind an aggregate status.
type GroupProgress struct {
	ID          string          `json:"id"`
	Mode        RequirementMode `json:"mode"`
	Optional    bool            `json:"optional"`
	State       GroupState      `json:"state"`
	SatisfiedBy []DocumentType  `json:"satisfied_by,omitempty"`
}

// AggregateStatus is the derived trust status for one owner and purpose.
// It is computed on demand and never stored on a document.
type AggregateStatus struct {
	Status               KYCStatus       `json:"status"`
	CompletionPercentage int             `json:"completion_percentage"`
	MissingRequirements  []string        `json:"missing_requirements"`
	Groups               []GroupProgress `json:"groups"`
	Purpose              Purpose         `json:"purpose,omitempty"`
	CatalogVersion       string          `json:"catalog_version,omitempty"`
	Generation           string          `json:"generation,omitempty"`
}

// SameOutcome reports whether two aggregates would read the same to a person.
func (a AggregateStatus) SameOutcome(b AggregateStatus) bool {
	return a.Status == b.Status && a.CompletionPercentage == b.CompletionPercentage
}

// Clone returns a copy that shares no slices with the receiver.
func (a AggregateStatus) Clone() AggregateStatus {
	c := a
	c.MissingRequirements = slices.Clone(a.MissingRequirements)
	c.Groups = slices.Clone(a.Groups)
	for i := range c.Groups {
		c.Groups[i].SatisfiedBy = slices.Clone(a.Groups[i].SatisfiedBy)
	}
	return c
}
