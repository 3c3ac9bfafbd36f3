package config

import (
	"fmt"

	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/detector"
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	switch cfg.Profile {
	case ProfileFront, ProfileBack:
	default:
		return fmt.Errorf("profile must be %q or %q, got %q", ProfileFront, ProfileBack, cfg.Profile)
	}

	// Camera
	if cfg.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be > 0")
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		return fmt.Errorf("camera.width and camera.height must be > 0")
	}
	switch capture.Facing(cfg.Camera.Facing) {
	case capture.FacingFront, capture.FacingBack:
	default:
		return fmt.Errorf("camera.facing must be front or back, got %q", cfg.Camera.Facing)
	}
	for name, deg := range map[string]int{
		"camera.sensor_orientation": cfg.Camera.SensorOrientation,
		"camera.display_rotation":   cfg.Camera.DisplayRotation,
	} {
		if deg%90 != 0 {
			return fmt.Errorf("%s must be a multiple of 90, got %d", name, deg)
		}
	}
	if cfg.Camera.JPEGQuality < 1 || cfg.Camera.JPEGQuality > 100 {
		return fmt.Errorf("camera.jpeg_quality must be in 1..100, got %d", cfg.Camera.JPEGQuality)
	}

	// Detector
	switch cfg.Detector.Kind {
	case detector.KindYuNet:
		if cfg.Detector.ModelPath == "" {
			return fmt.Errorf("detector.model_path is required for yunet")
		}
	case detector.KindCascade:
		if cfg.Detector.CascadePath == "" {
			return fmt.Errorf("detector.cascade_path is required for cascade")
		}
	case detector.KindMock:
	default:
		return fmt.Errorf("detector.kind must be yunet, cascade or mock, got %q", cfg.Detector.Kind)
	}
	if cfg.Detector.MinConfidence < 0 || cfg.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be in 0..1")
	}

	// Tracking
	if cfg.Tracking.IoUThreshold <= 0 || cfg.Tracking.IoUThreshold > 1 {
		return fmt.Errorf("tracking.iou_threshold must be in (0, 1]")
	}
	if cfg.Tracking.MaxMissing < 0 {
		return fmt.Errorf("tracking.max_missing must be >= 0")
	}

	// Monitor
	switch cfg.Monitor.StaleUpdates {
	case StaleIgnore, StaleReassign:
	default:
		return fmt.Errorf("monitor.stale_updates must be ignore or reassign, got %q", cfg.Monitor.StaleUpdates)
	}
	if err := cfg.MonitorConfig().Validate(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	// Action
	switch cfg.Action.Kind {
	case ActionCapture, ActionLog:
	default:
		return fmt.Errorf("action.kind must be capture or log, got %q", cfg.Action.Kind)
	}
	if cfg.Action.StopAfterCapture && cfg.Action.Kind != ActionCapture {
		return fmt.Errorf("action.stop_after_capture requires action.kind capture")
	}
	for i, p := range cfg.Action.Plugins {
		if p.Name == "" {
			return fmt.Errorf("action.plugins[%d].name is required", i)
		}
		if p.Action == "" {
			cfg.Action.Plugins[i].Action = "notify"
		}
	}
	if cfg.Action.MQTT.Broker != "" && cfg.Action.MQTT.Topic == "" {
		return fmt.Errorf("action.mqtt.topic is required when a broker is set")
	}
	if cfg.Action.MQTT.QoS > 2 {
		return fmt.Errorf("action.mqtt.qos must be 0, 1 or 2")
	}

	// Log
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	return nil
}
