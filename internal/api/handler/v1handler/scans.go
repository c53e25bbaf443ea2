package v1handler

import (
	"filescanner/internal/scanner"
	"filescanner/pkg/serrors"
	"net/http"

	"github.com/google/uuid"
)

// CreateScanRequest is the body of POST /v1/scans.
type CreateScanRequest struct {
	Path string `json:"path"`
}

// CreateScanResponse identifies an accepted scan. The ID is carried by the
// STARTED and COMPLETED or FAILED events of the scan.
type CreateScanResponse struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`
}

// CreateScan submits a file to the scan pipeline and returns immediately.
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	var req CreateScanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	path, err := scanner.NormalizePath(req.Path)
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid path"))

		return
	}

	id := h.deps.Pipeline.Submit(path)
	writeJSON(r.Context(), w, http.StatusAccepted, CreateScanResponse{ID: id, Path: path})
}
