package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/monitor"
)

func TestDefault_Profiles(t *testing.T) {
	front, err := Default("")
	require.NoError(t, err)
	assert.Equal(t, ProfileFront, front.Profile)
	assert.Equal(t, 15, front.Monitor.StabilityThreshold)
	assert.Equal(t, ActionCapture, front.Action.Kind)
	assert.True(t, front.Action.StopAfterCapture)
	assert.Equal(t, "front", front.Camera.Facing)
	require.NoError(t, Validate(front))

	back, err := Default(ProfileBack)
	require.NoError(t, err)
	assert.Equal(t, 20, back.Monitor.StabilityThreshold)
	assert.Equal(t, ActionLog, back.Action.Kind)
	assert.False(t, back.Action.StopAfterCapture)
	assert.Equal(t, "back", back.Camera.Facing)
	require.NoError(t, Validate(back))

	_, err = Default("side")
	assert.Error(t, err)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("", ProfileBack)
	require.NoError(t, err)
	assert.Equal(t, ProfileBack, cfg.Profile)
	assert.Equal(t, 20, cfg.Monitor.StabilityThreshold)
}

func TestLoad_FileOverridesProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facesnap.yaml")
	data := `
profile: back
camera:
  fps: 10
monitor:
  stability_threshold: 8
  stale_updates: reassign
action:
  plugin_timeout: 2s
  plugins:
    - name: notify
      config:
        title: Hello
  mqtt:
    broker: tcp://localhost:1883
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ProfileBack, cfg.Profile)
	assert.Equal(t, 10, cfg.Camera.FPS)
	assert.Equal(t, capture.DefaultWidth, cfg.Camera.Width, "unset fields keep profile defaults")
	assert.Equal(t, "back", cfg.Camera.Facing)
	assert.Equal(t, 8, cfg.Monitor.StabilityThreshold)
	assert.True(t, cfg.Monitor.RefireOnNewStreak)
	assert.Equal(t, 2*time.Second, cfg.Action.PluginTimeout)
	require.Len(t, cfg.Action.Plugins, 1)
	assert.Equal(t, "notify", cfg.Action.Plugins[0].Action, "plugin action defaults to notify")
	assert.Equal(t, "Hello", cfg.Action.Plugins[0].Config["title"])
	assert.Equal(t, "facesnap/notifications", cfg.Action.MQTT.Topic)
	assert.Equal(t, "json", cfg.Log.Format)

	mc := cfg.MonitorConfig()
	assert.Equal(t, monitor.ReassignOnStale, mc.StaleUpdates)
	assert.Equal(t, 8, mc.StabilityThreshold)
}

func TestLoad_ProfileFlagOverridesFile(t *testing.T) {
	cfg, err := Parse([]byte("profile: back\n"), ProfileFront)
	require.NoError(t, err)
	assert.Equal(t, ProfileFront, cfg.Profile)
	assert.Equal(t, 15, cfg.Monitor.StabilityThreshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("camera: [1, 2"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Monitor.StabilityThreshold = 0 }},
		{"unknown stale policy", func(c *Config) { c.Monitor.StaleUpdates = "maybe" }},
		{"zero fps", func(c *Config) { c.Camera.FPS = 0 }},
		{"bad facing", func(c *Config) { c.Camera.Facing = "up" }},
		{"odd rotation", func(c *Config) { c.Camera.DisplayRotation = 45 }},
		{"bad quality", func(c *Config) { c.Camera.JPEGQuality = 101 }},
		{"unknown detector", func(c *Config) { c.Detector.Kind = "dlib" }},
		{"yunet without model", func(c *Config) { c.Detector.ModelPath = "" }},
		{"bad iou", func(c *Config) { c.Tracking.IoUThreshold = 1.5 }},
		{"unknown action", func(c *Config) { c.Action.Kind = "upload" }},
		{"stop without capture", func(c *Config) { c.Action.Kind = ActionLog }},
		{"unnamed plugin", func(c *Config) { c.Action.Plugins = []PluginRef{{Action: "notify"}} }},
		{"bad qos", func(c *Config) { c.Action.MQTT.QoS = 3 }},
		{"broker without topic", func(c *Config) {
			c.Action.MQTT.Broker = "tcp://localhost:1883"
			c.Action.MQTT.Topic = ""
		}},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default(ProfileFront)
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestConversions(t *testing.T) {
	cfg, err := Default(ProfileFront)
	require.NoError(t, err)

	assert.Equal(t, monitor.DefaultConfig(), cfg.MonitorConfig())
	assert.Equal(t, capture.FacingFront, cfg.CameraOptions().Facing)
	assert.Equal(t, cfg.Detector.ModelPath, cfg.DetectorConfig().ModelPath)
	assert.Equal(t, cfg.Tracking.MaxMissing, cfg.TrackingConfig().MaxMissing)

	// Front sensor at 270 with an upright display needs a quarter turn.
	assert.Equal(t, 90, cfg.PhotoRotation())
}

func TestResolvePaths(t *testing.T) {
	cfg, err := Default(ProfileFront)
	require.NoError(t, err)
	cfg.Storage.DataDir = "/data"

	require.NoError(t, cfg.ResolvePaths())
	assert.Equal(t, filepath.Join("/data", "facesnap.db"), cfg.Storage.DBPath)
	assert.Equal(t, filepath.Join("/data", "photos"), cfg.Storage.PhotoDir)
	assert.Equal(t, filepath.Join("/data", "plugins"), cfg.Action.PluginDir)

	cfg.Storage.PhotoDir = "/elsewhere"
	require.NoError(t, cfg.ResolvePaths())
	assert.Equal(t, "/elsewhere", cfg.Storage.PhotoDir)
}
