package handler

import (
	"time"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
)

type historyEntryResponse struct {
	Sequence    int       `json:"sequence"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	PerformedBy string    `json:"performedBy"`
	Notes       string    `json:"notes,omitempty"`
}

type documentResponse struct {
	ID                 string                 `json:"id"`
	UserID             string                 `json:"userId"`
	DocumentType       string                 `json:"documentType"`
	VerificationStatus string                 `json:"verificationStatus"`
	StatusLabel        string                 `json:"statusLabel"`
	FileURL            string                 `json:"fileUrl"`
	FileName           string                 `json:"fileName,omitempty"`
	SubmittedAt        time.Time              `json:"submittedAt"`
	DecidedAt          *time.Time             `json:"decidedAt,omitempty"`
	ExpiresAt          *time.Time             `json:"expiresAt,omitempty"`
	UpdatedAt          time.Time              `json:"updatedAt"`
	RejectionReason    string                 `json:"rejectionReason,omitempty"`
	ReviewNotes        string                 `json:"reviewNotes,omitempty"`
	ClaimedBy          string                 `json:"claimedBy,omitempty"`
	Version            int64                  `json:"version"`
	RetiredAt          *time.Time             `json:"retiredAt,omitempty"`
	SupersededBy       string                 `json:"supersededBy,omitempty"`
	History            []historyEntryResponse `json:"history,omitempty"`
}

type historyResponse struct {
	DocumentID string                 `json:"documentId"`
	History    []historyEntryResponse `json:"history"`
}

type queueResponse struct {
	Items        []documentResponse `json:"items"`
	Total        int                `json:"total"`
	Page         int                `json:"page"`
	PageSize     int                `json:"pageSize"`
	StatusCounts map[string]int     `json:"statusCounts"`
}

type ownerDocumentsResponse struct {
	UserID    string             `json:"userId"`
	Documents []documentResponse `json:"documents"`
}

type groupResponse struct {
	ID          string   `json:"id"`
	Mode        string   `json:"mode"`
	Optional    bool     `json:"optional"`
	State       string   `json:"state"`
	SatisfiedBy []string `json:"satisfiedBy,omitempty"`
}

type kycStatusResponse struct {
	UserID               string          `json:"userId"`
	Purpose              string          `json:"purpose"`
	Status               string          `json:"status"`
	StatusLabel          string          `json:"statusLabel"`
	CompletionPercentage int             `json:"completionPercentage"`
	MissingRequirements  []string        `json:"missingRequirements"`
	Groups               []groupResponse `json:"groups"`
	CatalogVersion       string          `json:"catalogVersion"`
}

func toDocumentResponse(d *models.Document, withHistory bool) documentResponse {
	resp := documentResponse{
		ID:                 d.ID.String(),
		UserID:             d.OwnerID.String(),
		DocumentType:       d.Type.String(),
		VerificationStatus: d.Status.String(),
		StatusLabel:        d.Status.Label(),
		FileURL:            d.FileRef,
		FileName:           d.FileName,
		SubmittedAt:        d.SubmittedAt,
		DecidedAt:          d.DecidedAt,
		ExpiresAt:          d.ExpiresAt,
		UpdatedAt:          d.UpdatedAt,
		RejectionReason:    d.RejectionReason,
		ReviewNotes:        d.ReviewNotes,
		ClaimedBy:          d.ClaimedBy.String(),
		Version:            d.Version,
		RetiredAt:          d.RetiredAt,
	}
	if d.SupersededBy != nil {
		resp.SupersededBy = d.SupersededBy.String()
	}
	if withHistory {
		resp.History = toHistoryResponse(d.History)
	}
	return resp
}

func toHistoryResponse(entries []models.HistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = historyEntryResponse{
			Sequence:    e.Sequence,
			Status:      e.Status.String(),
			Timestamp:   e.Timestamp,
			PerformedBy: e.PerformedBy,
			Notes:       e.Notes,
		}
	}
	return out
}

func toQueueResponse(p *models.QueuePage) queueResponse {
	items := make([]documentResponse, len(p.Items))
	for i, d := range p.Items {
		items[i] = toDocumentResponse(d, false)
	}
	counts := make(map[string]int, len(p.StatusCounts))
	for st, n := range p.StatusCounts {
		counts[st.String()] = n
	}
	return queueResponse{
		Items:        items,
		Total:        p.Total,
		Page:         p.Page,
		PageSize:     p.PageSize,
		StatusCounts: counts,
	}
}

func toKYCStatusResponse(owner id.OwnerID, st *models.AggregateStatus) kycStatusResponse {
	groups := make([]groupResponse, len(st.Groups))
	for i, g := range st.Groups {
		var by []string
		for _, t := range g.SatisfiedBy {
			by = append(by, t.String())
		}
		groups[i] = groupResponse{
			ID:          g.ID,
			Mode:        string(g.Mode),
			Optional:    g.Optional,
			State:       string(g.State),
			SatisfiedBy: by,
		}
	}
	missing := st.MissingRequirements
	if missing == nil {
		missing = []string{}
	}
	return kycStatusResponse{
		UserID:               owner.String(),
		Purpose:              string(st.Purpose),
		Status:               string(st.Status),
		StatusLabel:          st.Status.Label(),
		CompletionPercentage: st.CompletionPercentage,
		MissingRequirements:  missing,
		Groups:               groups,
		CatalogVersion:       st.CatalogVersion,
	}
}
