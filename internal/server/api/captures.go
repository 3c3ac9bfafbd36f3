package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/ayusman/facesnap/internal/store"
)

// DefaultListLimit caps list responses when no limit is given.
const DefaultListLimit = 100

// CaptureHandler handles HTTP requests for capture resources.
type CaptureHandler struct {
	store *store.Store
}

// NewCaptureHandler creates a new CaptureHandler with the given store.
func NewCaptureHandler(s *store.Store) *CaptureHandler {
	return &CaptureHandler{store: s}
}

// ServeHTTP routes /api/captures, /api/captures/{id} and
// /api/captures/{id}/image.
func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/captures")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch {
	case sub == "image" && r.Method == http.MethodGet:
		h.image(w, r, id)
	case sub != "":
		writeError(w, http.StatusNotFound, "Not found")
	case r.Method == http.MethodGet:
		h.get(w, r, id)
	case r.Method == http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type captureResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Subject   string `json:"subject"`
	Streak    int    `json:"streak"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

type listCapturesResponse struct {
	Captures []captureResponse `json:"captures"`
}

// toCaptureResponse converts a store.Capture to a captureResponse.
func toCaptureResponse(c *store.Capture) captureResponse {
	return captureResponse{
		ID:        c.ID,
		SessionID: c.SessionID,
		Subject:   c.Subject,
		Streak:    c.Streak,
		Path:      c.Path,
		SizeBytes: c.SizeBytes,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/captures[?session=id][&limit=n].
func (h *CaptureHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r, DefaultListLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	var (
		captures []*store.Capture
		err      error
	)
	if sessionID := r.URL.Query().Get("session"); sessionID != "" {
		captures, err = h.store.Captures().ListBySession(sessionID)
	} else {
		captures, err = h.store.Captures().List(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}

	response := listCapturesResponse{
		Captures: make([]captureResponse, 0, len(captures)),
	}
	for _, c := range captures {
		response.Captures = append(response.Captures, toCaptureResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/captures/{id} and returns a single capture.
func (h *CaptureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCaptureResponse(c))
}

// image handles GET /api/captures/{id}/image and serves the JPEG file.
func (h *CaptureHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if _, err := os.Stat(c.Path); err != nil {
		writeError(w, http.StatusNotFound, "Photo file missing")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, c.Path)
}

// delete handles DELETE /api/captures/{id}. The record and its photo file
// are removed.
func (h *CaptureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if err := h.store.Captures().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete capture")
		return
	}

	if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not remove photo", "path", c.Path, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CaptureHandler) lookup(w http.ResponseWriter, id string) (*store.Capture, bool) {
	c, err := h.store.Captures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Capture not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get capture")
		return nil, false
	}
	return c, true
}
