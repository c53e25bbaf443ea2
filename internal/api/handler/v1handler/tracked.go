package v1handler

import (
	"filescanner/internal/scanner"
	"filescanner/pkg/serrors"
	"net/http"
)

// TrackRequest is the body of POST /v1/tracked.
type TrackRequest struct {
	Path string `json:"path"`
}

// TrackedList is the body of GET /v1/tracked.
type TrackedList struct {
	Paths []string `json:"paths"`
}

// TrackResponse reports the outcome of POST /v1/tracked.
type TrackResponse struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
}

// ListTracked returns the tracked files in lexical order.
func (h *Handler) ListTracked(w http.ResponseWriter, r *http.Request) {
	paths := h.deps.Tracked.Paths()
	if paths == nil {
		paths = []string{}
	}

	writeJSON(r.Context(), w, http.StatusOK, TrackedList{Paths: paths})
}

// TrackFile adds a file to the set the background scheduler rescans. It
// answers 201 for a new file and 200 for one already tracked.
func (h *Handler) TrackFile(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}
	path, err := scanner.NormalizePath(req.Path)
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid path"))

		return
	}

	created, err := h.deps.Tracked.Track(path)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(r.Context(), w, status, TrackResponse{Path: path, Created: created})
}

// UntrackFile removes the file named by the path query parameter.
func (h *Handler) UntrackFile(w http.ResponseWriter, r *http.Request) {
	path, err := scanner.NormalizePath(r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid path"))

		return
	}
	if !h.deps.Tracked.Untrack(path) {
		h.writeError(w, r, serrors.With(serrors.ErrNotFound, "%s is not tracked", path))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
