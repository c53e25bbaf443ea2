// Package v1handler implements the version 1 HTTP API: on-demand scans,
// scan history and the tracked file set.
package v1handler

import (
	"context"
	"encoding/json"
	"errors"
	"filescanner/internal/worker"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"filescanner/pkg/serrors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; history imports are the largest payloads.
const maxBodyBytes = 32 << 20

// HistoryStore is the scan history as seen by the API.
type HistoryStore interface {
	// Recent returns up to n entries newest first; all of them when n is 0.
	Recent(n int) []domain.ScanResult
	Replace(ctx context.Context, results []domain.ScanResult) error
	Clear(ctx context.Context) error
}

// TrackedFiles is the tracked file set as seen by the API.
type TrackedFiles interface {
	Track(path string) (bool, error)
	Untrack(path string) bool
	Paths() []string
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Pipeline worker.Pipeline
	History  HistoryStore
	Tracked  TrackedFiles
}

// Handler serves the v1 routes.
type Handler struct {
	deps Deps
}

// New creates a Handler.
func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Register mounts the v1 routes on router, which is expected to be the
// subrouter of the /v1 prefix.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/scans", h.CreateScan).Methods(http.MethodPost)

	router.HandleFunc("/history", h.ListHistory).Methods(http.MethodGet)
	router.HandleFunc("/history", h.ImportHistory).Methods(http.MethodPut)
	router.HandleFunc("/history", h.ClearHistory).Methods(http.MethodDelete)

	router.HandleFunc("/tracked", h.ListTracked).Methods(http.MethodGet)
	router.HandleFunc("/tracked", h.TrackFile).Methods(http.MethodPost)
	router.HandleFunc("/tracked", h.UntrackFile).Methods(http.MethodDelete)
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is an error mapped to its HTTP representation.
type ErrorResponse struct {
	StatusCode int
	Response   ErrorBody
}

// NewError maps err to an HTTP error response. Only kinds meant for API
// clients keep their message; everything else is reported as an internal error.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	status, kind := http.StatusInternalServerError, serrors.ErrInternal
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		status, kind = http.StatusNotFound, serrors.ErrNotFound
	case errors.Is(err, serrors.ErrBadRequest):
		status, kind = http.StatusBadRequest, serrors.ErrBadRequest
	case errors.Is(err, serrors.ErrUnauthorized):
		status, kind = http.StatusUnauthorized, serrors.ErrUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))

		return &ErrorResponse{
			StatusCode: status,
			Response:   ErrorBody{Code: kind.Error(), Message: "internal error"},
		}
	}

	message := defaultMessage(status)
	var se *serrors.Error
	if errors.As(err, &se) && se.Message() != "" {
		message = se.Message()
	}

	return &ErrorResponse{
		StatusCode: status,
		Response:   ErrorBody{Code: kind.Error(), Message: message},
	}
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	writeJSON(r.Context(), w, res.StatusCode, res.Response)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return serrors.Wrap(serrors.ErrBadRequest, err, "invalid JSON body")
	}

	return nil
}
