package transport

import (
	"context"
	"net/http"

	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/middleware"
	"faishion-storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// DraftRequest carries the edit buffers
type DraftRequest struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=2000"`
}

// SaveRequest optionally overrides the stored buffers on save
type SaveRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content *string `json:"content" validate:"omitempty,max=2000"`
}

// DeleteRequest confirms a delete
type DeleteRequest struct {
	Confirm bool `json:"confirm"`
}

// AnswerDraftRequest carries the answer being typed
type AnswerDraftRequest struct {
	Answer string `json:"answer" validate:"max=2000"`
}

// SubmitAnswerRequest optionally overrides the stored answer draft
type SubmitAnswerRequest struct {
	Answer *string `json:"answer" validate:"omitempty,max=2000"`
}

// QnaHandler handles HTTP requests for the Q&A screens
type QnaHandler struct {
	qnaService service.QnaService
	logger     *zap.Logger
}

// NewQnaHandler creates a new QnaHandler
func NewQnaHandler(qnaService service.QnaService, logger *zap.Logger) *QnaHandler {
	return &QnaHandler{
		qnaService: qnaService,
		logger:     logger,
	}
}

// RegisterRoutes registers all Q&A routes
func (h *QnaHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/qna", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.List)
		r.Route("/{qnaID}", func(r chi.Router) {
			r.Get("/", h.Open)
			r.Delete("/view", h.Close)
			r.Post("/edit", h.BeginEdit)
			r.Put("/edit", h.UpdateDraft)
			r.Delete("/edit", h.CancelEdit)
			r.Post("/save", h.Save)
			r.Post("/delete", h.Delete)
			r.Put("/answer", h.UpdateAnswerDraft)
			r.Post("/answer", h.SubmitAnswer)
		})
	})
}

type qnaOp func(ctx context.Context, sess domain.Session, qnaID int64) (*service.QnaResult, error)

func (h *QnaHandler) run(w http.ResponseWriter, r *http.Request, op qnaOp) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	qnaID, ok := idParam(w, r, "qnaID")
	if !ok {
		return
	}

	result, err := op(r.Context(), sess, qnaID)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondView(w, result.View, result.Outcome)
}

// List proxies a page of the question listing
func (h *QnaHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page", 0)
	if err != nil || page < 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid page")
		return
	}
	size, err := queryInt(r, "size", defaultPageSize)
	if err != nil || size <= 0 || size > maxPageSize {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid size")
		return
	}

	result, err := h.qnaService.List(r.Context(), sess, r.URL.Query().Get("q"), page, size)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondView(w, result, service.Outcome{})
}

// Open loads or refreshes the detail view
func (h *QnaHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.qnaService.Open)
}

// Close tears the detail view down
func (h *QnaHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	qnaID, ok := idParam(w, r, "qnaID")
	if !ok {
		return
	}

	if err := h.qnaService.Close(r.Context(), sess, qnaID); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BeginEdit enters edit mode
func (h *QnaHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.qnaService.BeginEdit)
}

// UpdateDraft stores the edit buffers
func (h *QnaHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, qnaID int64) (*service.QnaResult, error) {
		return h.qnaService.UpdateDraft(ctx, sess, qnaID, req.Title, req.Content)
	})
}

// CancelEdit leaves edit mode
func (h *QnaHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.qnaService.CancelEdit)
}

// Save submits the edit
func (h *QnaHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := middleware.DecodeOptional(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, qnaID int64) (*service.QnaResult, error) {
		return h.qnaService.Save(ctx, sess, qnaID, req.Title, req.Content)
	})
}

// Delete asks for confirmation or deletes the question
func (h *QnaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := middleware.DecodeOptional(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, qnaID int64) (*service.QnaResult, error) {
		return h.qnaService.Delete(ctx, sess, qnaID, req.Confirm)
	})
}

// UpdateAnswerDraft stores the answer being typed
func (h *QnaHandler) UpdateAnswerDraft(w http.ResponseWriter, r *http.Request) {
	var req AnswerDraftRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, qnaID int64) (*service.QnaResult, error) {
		return h.qnaService.UpdateAnswerDraft(ctx, sess, qnaID, req.Answer)
	})
}

// SubmitAnswer sends the answer
func (h *QnaHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req SubmitAnswerRequest
	if err := middleware.DecodeOptional(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, sess domain.Session, qnaID int64) (*service.QnaResult, error) {
		return h.qnaService.SubmitAnswer(ctx, sess, qnaID, req.Answer)
	})
}
