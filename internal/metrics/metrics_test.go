package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.FrameRead()
	m.FrameRead()
	m.FrameError()
	m.Observation("appeared")
	m.Observation("updated")
	m.Observation("updated")
	m.Notification()
	m.Capture()
	m.ActionError("mqtt")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frameErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.observations.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.captures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionErrors.WithLabelValues("mqtt")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetSessionActive(true)
	m.SetStreak(7)
	m.FrameProcessed(1, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "facesnap_session_active 1")
	assert.Contains(t, body, "facesnap_streak 7")
	assert.True(t, strings.Contains(body, "facesnap_faces_per_frame_count 1"))
}
