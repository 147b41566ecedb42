// Package handler exposes the verification engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"talentkyc/internal/kyc/models"
	"talentkyc/internal/kyc/service"
	"talentkyc/internal/platform/metrics"
	"talentkyc/internal/platform/middleware"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/platform/httputil"
	"talentkyc/pkg/requestcontext"
)

// Service defines the engine operations the HTTP layer calls.
type Service interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*models.Document, error)
	ClaimForReview(ctx context.Context, docID id.DocumentID, reviewer id.ReviewerID) (*models.Document, error)
	ReleaseClaim(ctx context.Context, docID id.DocumentID, reviewer id.ReviewerID) (*models.Document, error)
	Decide(ctx context.Context, req service.DecideRequest) (*models.Document, error)
	ListQueue(ctx context.Context, filter models.QueueFilter, page, pageSize int) (*models.QueuePage, error)
	GetDocument(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	History(ctx context.Context, docID id.DocumentID) ([]models.HistoryEntry, error)
	ListOwnerDocuments(ctx context.Context, owner id.OwnerID) ([]*models.Document, error)
	GetAggregateStatusForVersion(ctx context.Context, owner id.OwnerID, purpose models.Purpose, version string) (*models.AggregateStatus, error)
}

// Handler handles document and KYC status endpoints.
type Handler struct {
	service        Service
	logger         *slog.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

// New creates a new Handler. A zero requestTimeout selects 30s.
func New(svc Service, logger *slog.Logger, m *metrics.Metrics, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Handler{
		service:        svc,
		logger:         logger,
		metrics:        m,
		requestTimeout: requestTimeout,
	}
}

// Register registers the routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	kycRouter := chi.NewRouter()
	kycRouter.Use(middleware.Recovery(h.logger, h.metrics))
	kycRouter.Use(middleware.RequestID)
	kycRouter.Use(middleware.RequestTime)
	kycRouter.Use(middleware.Logger(h.logger))
	kycRouter.Use(middleware.Timeout(h.requestTimeout))
	kycRouter.Use(middleware.ContentTypeJSON)
	kycRouter.Use(middleware.LatencyMiddleware(h.metrics))
	kycRouter.Use(middleware.RequireActor(h.logger))

	kycRouter.Post("/documents", h.handleSubmit)
	kycRouter.Get("/documents/verification-queue", h.handleListQueue)
	kycRouter.Get("/documents/{id}", h.handleGetDocument)
	kycRouter.Get("/documents/{id}/history", h.handleHistory)
	kycRouter.Post("/documents/{id}/claim", h.handleClaim)
	kycRouter.Post("/documents/{id}/release", h.handleRelease)
	kycRouter.Put("/documents/{id}/verify", h.handleVerify)
	kycRouter.Get("/users/{id}/documents", h.handleListOwnerDocuments)
	kycRouter.Get("/users/{id}/kyc-status", h.handleKYCStatus)

	r.Mount("/", kycRouter)
}

// handleSubmit registers an uploaded file for the calling user.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	doc, err := h.service.Submit(ctx, service.SubmitRequest{
		OwnerID:   id.OwnerID(requestcontext.Actor(ctx)),
		Type:      models.DocumentType(req.DocumentType),
		FileRef:   req.FileURL,
		FileName:  req.FileName,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.fail(ctx, w, "failed to submit document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDocumentResponse(doc, true))
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.ClaimForReview(ctx, docID, id.ReviewerID(requestcontext.Actor(ctx)))
	if err != nil {
		h.fail(ctx, w, "failed to claim document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc, false))
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.ReleaseClaim(ctx, docID, id.ReviewerID(requestcontext.Actor(ctx)))
	if err != nil {
		h.fail(ctx, w, "failed to release claim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc, false))
}

// handleVerify records the calling reviewer's decision.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	doc, err := h.service.Decide(ctx, service.DecideRequest{
		DocumentID:      docID,
		ReviewerID:      id.ReviewerID(requestcontext.Actor(ctx)),
		Decision:        req.decision,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		h.fail(ctx, w, "failed to decide document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc, true))
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		h.fail(ctx, w, "invalid queue request", dErrors.New(dErrors.CodeValidation, "page must be an integer"))
		return
	}
	pageSize, err := intParam(q.Get("pageSize"), 0)
	if err != nil {
		h.fail(ctx, w, "invalid queue request", dErrors.New(dErrors.CodeValidation, "pageSize must be an integer"))
		return
	}
	statuses, err := statusParams(q["status"])
	if err != nil {
		h.fail(ctx, w, "invalid queue request", err)
		return
	}

	result, err := h.service.ListQueue(ctx, models.QueueFilter{
		DocumentType: models.DocumentType(strings.ToLower(strings.TrimSpace(q.Get("documentType")))),
		SearchTerm:   q.Get("search"),
		Statuses:     statuses,
	}, page, pageSize)
	if err != nil {
		h.fail(ctx, w, "failed to list verification queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toQueueResponse(result))
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.GetDocument(ctx, docID)
	if err != nil {
		h.fail(ctx, w, "failed to load document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc, true))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, ok := h.documentID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(ctx, docID)
	if err != nil {
		h.fail(ctx, w, "failed to load history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{
		DocumentID: docID.String(),
		History:    toHistoryResponse(entries),
	})
}

func (h *Handler) handleListOwnerDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid user id", dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}
	docs, err := h.service.ListOwnerDocuments(ctx, owner)
	if err != nil {
		h.fail(ctx, w, "failed to list documents", err)
		return
	}
	items := make([]documentResponse, len(docs))
	for i, d := range docs {
		items[i] = toDocumentResponse(d, false)
	}
	httputil.WriteJSON(w, http.StatusOK, ownerDocumentsResponse{UserID: owner.String(), Documents: items})
}

// handleKYCStatus returns the derived trust status for a user. The purpose
// defaults to identity_kyc; catalogVersion defaults to the active catalog.
func (h *Handler) handleKYCStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "invalid user id", dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}
	purpose := models.Purpose(strings.TrimSpace(r.URL.Query().Get("purpose")))
	if purpose == "" {
		purpose = models.PurposeIdentityKYC
	}
	status, err := h.service.GetAggregateStatusForVersion(ctx, owner, purpose, strings.TrimSpace(r.URL.Query().Get("catalogVersion")))
	if err != nil {
		h.fail(ctx, w, "failed to compute kyc status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toKYCStatusResponse(owner, status))
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (id.DocumentID, bool) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(r.Context(), w, "invalid document id", dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return id.DocumentID{}, false
	}
	return docID, true
}

// fail logs err at a level matching its code and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func intParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// statusParams accepts repeated and comma-separated status values.
func statusParams(values []string) ([]models.VerificationStatus, error) {
	var out []models.VerificationStatus
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := models.ParseVerificationStatus(part)
			if err != nil {
				return nil, dErrors.New(dErrors.CodeValidation, err.Error())
			}
			out = append(out, st)
		}
	}
	return out, nil
}
