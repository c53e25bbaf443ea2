package v1handler

import (
	"filescanner/pkg/domain"
	"filescanner/pkg/serrors"
	"net/http"
	"strconv"
)

// DefaultLimit is the number of history entries listed when no limit is given.
const DefaultLimit = 20

// HistoryList is the body of GET /v1/history.
type HistoryList struct {
	// Items are ordered newest first.
	Items []domain.ScanResult `json:"items"`
}

// ListHistory returns the most recent scans, newest first. limit=0 lists
// every entry.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, serrors.With(serrors.ErrBadRequest, "limit must be a non-negative integer"))

			return
		}
		limit = n
	}

	items := h.deps.History.Recent(limit)
	if items == nil {
		items = []domain.ScanResult{}
	}

	writeJSON(r.Context(), w, http.StatusOK, HistoryList{Items: items})
}

// ImportHistory replaces the history with the posted entries, oldest first,
// as produced by the export command.
func (h *Handler) ImportHistory(w http.ResponseWriter, r *http.Request) {
	var results []domain.ScanResult
	if err := decodeJSON(r, &results); err != nil {
		h.writeError(w, r, err)

		return
	}
	if err := h.deps.History.Replace(r.Context(), results); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory removes every history entry.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.History.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
