// Package aggregate derives a person's single trust status from their
// documents and a set of requirement groups. It performs no I/O.
package aggregate

import (
	"math"

	"talentkyc/internal/kyc/models"
)

// Aggregate computes the aggregate status of docs against groups. The result
// depends only on its inputs; callers stamp Purpose, CatalogVersion and
// Generation.
func Aggregate(docs []*models.Document, groups []models.RequirementGroup) models.AggregateStatus {
	relevant := make(map[models.DocumentType]struct{})
	for _, g := range groups {
		for _, t := range g.DocumentTypes {
			relevant[t] = struct{}{}
		}
	}
	current := CurrentByType(docs, relevant)

	result := models.AggregateStatus{
		MissingRequirements: []string{},
		Groups:              make([]models.GroupProgress, 0, len(groups)),
	}

	var required, full int
	var anyRejected, anyExpired, anyUnsatisfied, anyPartial bool
	for _, g := range groups {
		ev := evaluate(g, current)
		result.Groups = append(result.Groups, ev.progress)
		if g.Optional {
			continue
		}
		required++
		switch ev.progress.State {
		case models.GroupFull:
			full++
		case models.GroupPartial:
			anyPartial = true
		default:
			anyUnsatisfied = true
		}
		if ev.progress.State != models.GroupFull {
			result.MissingRequirements = append(result.MissingRequirements, g.ID)
		}
		anyRejected = anyRejected || ev.rejected
		anyExpired = anyExpired || ev.expired
	}

	result.CompletionPercentage = completion(full, required)

	switch {
	case anyRejected:
		result.Status = models.KYCRejected
	case anyExpired:
		result.Status = models.KYCExpired
	case len(current) == 0:
		result.Status = models.KYCNotStarted
	case anyUnsatisfied:
		result.Status = models.KYCIncomplete
	case anyPartial:
		result.Status = models.KYCPendingReview
	default:
		result.Status = models.KYCVerified
	}
	return result
}

// CurrentByType keeps, per document type in relevant, the most recently
// submitted non-retired document. Equal submission times fall back to the
// larger id so the choice never depends on input order.
func CurrentByType(docs []*models.Document, relevant map[models.DocumentType]struct{}) map[models.DocumentType]*models.Document {
	current := make(map[models.DocumentType]*models.Document)
	for _, d := range docs {
		if d == nil || d.IsRetired() {
			continue
		}
		if _, ok := relevant[d.Type]; !ok {
			continue
		}
		prev, ok := current[d.Type]
		if !ok || newer(d, prev) {
			current[d.Type] = d
		}
	}
	return current
}

func newer(a, b *models.Document) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.After(b.SubmittedAt)
	}
	return a.ID.String() > b.ID.String()
}

type evaluation struct {
	progress models.GroupProgress
	rejected bool
	expired  bool
}

func evaluate(g models.RequirementGroup, current map[models.DocumentType]*models.Document) evaluation {
	ev := evaluation{progress: models.GroupProgress{
		ID:       g.ID,
		Mode:     g.Mode,
		Optional: g.Optional,
		State:    models.GroupUnsatisfied,
	}}

	var verified, inReview, present int
	var rejected, expired bool
	for _, t := range g.DocumentTypes {
		d, ok := current[t]
		if !ok {
			continue
		}
		present++
		switch d.Status {
		case models.StatusVerified:
			verified++
			ev.progress.SatisfiedBy = append(ev.progress.SatisfiedBy, t)
		case models.StatusPending, models.StatusUnderReview:
			inReview++
		case models.StatusRejected:
			rejected = true
		case models.StatusExpired:
			expired = true
		}
	}

	members := len(g.DocumentTypes)
	switch g.Mode {
	case models.ModeOneOf:
		switch {
		case verified > 0:
			ev.progress.State = models.GroupFull
		case inReview > 0:
			ev.progress.State = models.GroupPartial
		}
		// A failed alternative only matters when nothing else in the group
		// is verified or awaiting review.
		if ev.progress.State == models.GroupUnsatisfied {
			ev.rejected = rejected
			ev.expired = expired
		}
	default:
		switch {
		case verified == members:
			ev.progress.State = models.GroupFull
		case present == members && verified+inReview == members:
			ev.progress.State = models.GroupPartial
		}
		ev.rejected = rejected
		ev.expired = expired
	}
	return ev
}

func completion(full, required int) int {
	if required == 0 {
		return 100
	}
	return int(math.Round(100 * float64(full) / float64(required)))
}
