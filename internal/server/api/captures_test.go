package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/facesnap/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "facesnap-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedCapture creates a session and a capture whose photo file exists.
func seedCapture(t *testing.T, s *store.Store, sessionID, captureID string) *store.Capture {
	t.Helper()

	if _, err := s.Sessions().GetByID(sessionID); err != nil {
		if err := s.Sessions().Create(&store.Session{ID: sessionID, Profile: "front"}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), captureID+".jpg")
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0fake-jpeg"), 0644); err != nil {
		t.Fatalf("failed to write photo: %v", err)
	}

	c := &store.Capture{
		ID:        captureID,
		SessionID: sessionID,
		Subject:   "subject-" + captureID,
		Streak:    15,
		Path:      path,
		SizeBytes: 13,
		CreatedAt: time.Now(),
	}
	if err := s.Captures().Create(c); err != nil {
		t.Fatalf("failed to create capture: %v", err)
	}
	return c
}

func TestCaptureHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewCaptureHandler(s)

	seedCapture(t, s, "s1", "c1")
	seedCapture(t, s, "s1", "c2")
	seedCapture(t, s, "s2", "c3")

	tests := []struct {
		name      string
		url       string
		wantCode  int
		wantCount int
	}{
		{"all", "/api/captures", http.StatusOK, 3},
		{"limited", "/api/captures?limit=2", http.StatusOK, 2},
		{"by session", "/api/captures?session=s1", http.StatusOK, 2},
		{"bad limit", "/api/captures?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var response listCapturesResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(response.Captures) != tt.wantCount {
				t.Errorf("expected %d captures, got %d", tt.wantCount, len(response.Captures))
			}
		})
	}
}

func TestCaptureHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewCaptureHandler(s)
	c := seedCapture(t, s, "s1", "c1")

	req := httptest.NewRequest(http.MethodGet, "/api/captures/c1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response captureResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID != "c1" || response.SessionID != "s1" || response.Path != c.Path || response.Streak != 15 {
		t.Errorf("unexpected capture: %+v", response)
	}
}

func TestCaptureHandler_GetNotFound(t *testing.T) {
	handler := NewCaptureHandler(newTestStore(t))

	for _, url := range []string{"/api/captures/missing", "/api/captures/missing/image"} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", url, http.StatusNotFound, rec.Code)
		}
	}
}

func TestCaptureHandler_Image(t *testing.T) {
	s := newTestStore(t)
	handler := NewCaptureHandler(s)
	seedCapture(t, s, "s1", "c1")

	req := httptest.NewRequest(http.MethodGet, "/api/captures/c1/image", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected Content-Type image/jpeg, got %s", ct)
	}
	if rec.Body.String() != "\xff\xd8\xff\xe0fake-jpeg" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestCaptureHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	handler := NewCaptureHandler(s)
	c := seedCapture(t, s, "s1", "c1")

	req := httptest.NewRequest(http.MethodDelete, "/api/captures/c1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := os.Stat(c.Path); !os.IsNotExist(err) {
		t.Error("photo file should be removed")
	}

	// Deleting again reports not found
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/captures/c1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCaptureHandler_MethodNotAllowed(t *testing.T) {
	handler := NewCaptureHandler(newTestStore(t))

	tests := []struct {
		method string
		url    string
	}{
		{http.MethodPost, "/api/captures"},
		{http.MethodPut, "/api/captures/c1"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.url, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
