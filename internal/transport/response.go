package transport

import (
	"errors"
	"net/http"
	"strconv"

	"faishion-storefront/internal/domain"
	"faishion-storefront/internal/logger"
	"faishion-storefront/internal/middleware"
	"faishion-storefront/internal/qnaview"
	"faishion-storefront/internal/selector"
	"faishion-storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ViewResponse is the envelope of every screen response
type ViewResponse struct {
	View     interface{}         `json:"view"`
	Notice   string              `json:"notice,omitempty"`
	Navigate *service.Navigation `json:"navigate,omitempty"`
	Confirm  string              `json:"confirm,omitempty"`
}

func respondView(w http.ResponseWriter, view interface{}, outcome service.Outcome) {
	middleware.RespondWithJSON(w, http.StatusOK, ViewResponse{
		View:     view,
		Notice:   outcome.Notice,
		Navigate: outcome.Navigate,
		Confirm:  outcome.Confirm,
	})
}

// statusFor maps a service error to its HTTP status and client message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, service.ErrViewNotOpen):
		return http.StatusNotFound, "view is not open"
	case errors.Is(err, selector.ErrLineNotFound):
		return http.StatusNotFound, "selected line not found"
	case errors.Is(err, selector.ErrUnknownColor):
		return http.StatusBadRequest, "color is not offered for this product"
	case errors.Is(err, service.ErrStaleFetch):
		return http.StatusConflict, "view was replaced while loading"
	case errors.Is(err, qnaview.ErrNotEditing):
		return http.StatusConflict, "question is not being edited"
	case errors.Is(err, qnaview.ErrNotLoaded):
		return http.StatusConflict, "question is not loaded"
	case errors.Is(err, service.ErrBackendFailure):
		return http.StatusBadGateway, "backend unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

func respondServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, message := statusFor(err)
	l := logger.WithRequest(r.Context(), log)
	if status >= http.StatusInternalServerError {
		l.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		l.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	middleware.RespondWithError(w, status, message)
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return sess, ok
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid line index")
		return 0, false
	}
	return index, true
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
