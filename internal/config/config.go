// Package config loads the facesnap YAML configuration.
//
// A configuration starts from the defaults of a named profile (front or
// back) and the file overrides any field it sets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/detector"
	"github.com/ayusman/facesnap/internal/monitor"
	"github.com/ayusman/facesnap/internal/tracking"
)

// Profile names.
const (
	ProfileFront = "front"
	ProfileBack  = "back"
)

// Action kinds.
const (
	ActionCapture = "capture" // take a photo, then run plugins and mqtt
	ActionLog     = "log"     // log the notification, then run plugins and mqtt
)

// Stale update policies as written in YAML.
const (
	StaleIgnore   = "ignore"
	StaleReassign = "reassign"
)

// Config represents the complete facesnap configuration.
type Config struct {
	Profile  string         `yaml:"profile"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Tracking TrackingConfig `yaml:"tracking"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Action   ActionConfig   `yaml:"action"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Tray     TrayConfig     `yaml:"tray"`
}

// CameraConfig contains camera settings
type CameraConfig struct {
	DeviceID          int    `yaml:"device_id"`
	Width             int    `yaml:"width"`
	Height            int    `yaml:"height"`
	FPS               int    `yaml:"fps"`
	Facing            string `yaml:"facing"`             // front, back
	SensorOrientation int    `yaml:"sensor_orientation"` // degrees the sensor is mounted at
	DisplayRotation   int    `yaml:"display_rotation"`   // current display rotation in degrees
	JPEGQuality       int    `yaml:"jpeg_quality"`
}

// DetectorConfig contains face detector settings
type DetectorConfig struct {
	Kind          string  `yaml:"kind"` // yunet, cascade, mock
	ModelPath     string  `yaml:"model_path"`
	CascadePath   string  `yaml:"cascade_path"`
	MinConfidence float64 `yaml:"min_confidence"`
	MinFaceSize   int     `yaml:"min_face_size"`
}

// TrackingConfig contains focus tracker settings
type TrackingConfig struct {
	IoUThreshold float64 `yaml:"iou_threshold"`
	MaxMissing   int     `yaml:"max_missing"`
}

// MonitorConfig contains stability monitor settings
type MonitorConfig struct {
	StabilityThreshold int    `yaml:"stability_threshold"`
	RefireOnNewStreak  bool   `yaml:"refire_on_new_streak"`
	StaleUpdates       string `yaml:"stale_updates"` // ignore, reassign
}

// ActionConfig selects what happens when a face becomes stable.
type ActionConfig struct {
	Kind             string        `yaml:"kind"` // capture, log
	StopAfterCapture bool          `yaml:"stop_after_capture"`
	Mute             bool          `yaml:"mute"`
	PluginDir        string        `yaml:"plugin_dir"`
	PluginTimeout    time.Duration `yaml:"plugin_timeout"`
	Plugins          []PluginRef   `yaml:"plugins"`
	MQTT             MQTTConfig    `yaml:"mqtt"`
}

// PluginRef binds a plugin action to notifications.
type PluginRef struct {
	Name   string         `yaml:"name"`
	Action string         `yaml:"action"`
	Config map[string]any `yaml:"config"`
}

// MQTTConfig contains MQTT broker settings. An empty broker disables publishing.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// StorageConfig contains database and photo locations
type StorageConfig struct {
	DataDir  string `yaml:"data_dir"`
	DBPath   string `yaml:"db_path"`
	PhotoDir string `yaml:"photo_dir"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TrayConfig contains system tray settings
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration for a profile. An empty name selects
// the front profile.
func Default(profile string) (*Config, error) {
	cfg := &Config{
		Profile: ProfileFront,
		Camera: CameraConfig{
			DeviceID:    0,
			Width:       capture.DefaultWidth,
			Height:      capture.DefaultHeight,
			FPS:         capture.DefaultFPS,
			JPEGQuality: capture.DefaultJPEGQuality,
		},
		Detector: DetectorConfig{
			Kind:          detector.KindYuNet,
			ModelPath:     detector.DefaultConfig().ModelPath,
			CascadePath:   detector.DefaultConfig().CascadePath,
			MinConfidence: detector.DefaultConfig().MinConfidence,
			MinFaceSize:   detector.DefaultConfig().MinFaceSize,
		},
		Tracking: TrackingConfig{
			IoUThreshold: tracking.DefaultConfig().IoUThreshold,
			MaxMissing:   tracking.DefaultConfig().MaxMissing,
		},
		Monitor: MonitorConfig{
			RefireOnNewStreak: true,
			StaleUpdates:      StaleIgnore,
		},
		Action: ActionConfig{
			PluginTimeout: 5 * time.Second,
			MQTT: MQTTConfig{
				ClientID: "facesnap",
				Topic:    "facesnap/notifications",
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	switch profile {
	case "", ProfileFront:
		cfg.Profile = ProfileFront
		cfg.Camera.Facing = string(capture.FacingFront)
		cfg.Camera.SensorOrientation = 270
		cfg.Monitor.StabilityThreshold = 15
		cfg.Action.Kind = ActionCapture
		cfg.Action.StopAfterCapture = true
		cfg.Action.Mute = true
	case ProfileBack:
		cfg.Profile = ProfileBack
		cfg.Camera.Facing = string(capture.FacingBack)
		cfg.Camera.SensorOrientation = 90
		cfg.Monitor.StabilityThreshold = 20
		cfg.Action.Kind = ActionLog
	default:
		return nil, fmt.Errorf("unknown profile %q", profile)
	}

	return cfg, nil
}

// Load reads and parses a YAML configuration file. A non-empty profile
// overrides the profile named in the file. An empty path loads the
// profile defaults.
func Load(path, profile string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Parse(data, profile)
}

// Parse decodes YAML over the defaults of the selected profile.
func Parse(data []byte, profile string) (*Config, error) {
	if profile == "" {
		var head struct {
			Profile string `yaml:"profile"`
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		profile = head.Profile
	}

	cfg, err := Default(profile)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// The file may name a different profile than the override.
	cfg.Profile = profile
	if cfg.Profile == "" {
		cfg.Profile = ProfileFront
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MonitorConfig returns the stability monitor settings.
func (c *Config) MonitorConfig() monitor.Config {
	policy := monitor.IgnoreStale
	if c.Monitor.StaleUpdates == StaleReassign {
		policy = monitor.ReassignOnStale
	}
	return monitor.Config{
		StabilityThreshold: c.Monitor.StabilityThreshold,
		RefireOnNewStreak:  c.Monitor.RefireOnNewStreak,
		StaleUpdates:       policy,
	}
}

// DetectorConfig returns the face detector settings.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		Kind:          c.Detector.Kind,
		ModelPath:     c.Detector.ModelPath,
		CascadePath:   c.Detector.CascadePath,
		MinConfidence: c.Detector.MinConfidence,
		MinFaceSize:   c.Detector.MinFaceSize,
	}
}

// TrackingConfig returns the focus tracker settings.
func (c *Config) TrackingConfig() tracking.Config {
	return tracking.Config{
		IoUThreshold: c.Tracking.IoUThreshold,
		MaxMissing:   c.Tracking.MaxMissing,
	}
}

// CameraOptions returns the device camera settings.
func (c *Config) CameraOptions() capture.Options {
	return capture.Options{
		DeviceID: c.Camera.DeviceID,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
		Facing:   capture.Facing(c.Camera.Facing),
	}
}

// PhotoRotation returns the clockwise rotation applied to saved photos.
func (c *Config) PhotoRotation() int {
	return capture.Orientation(capture.Facing(c.Camera.Facing), c.Camera.SensorOrientation, c.Camera.DisplayRotation)
}

// ResolvePaths fills the storage paths left empty, relative to DataDir.
// An empty DataDir resolves to ~/.facesnap.
func (c *Config) ResolvePaths() error {
	if c.Storage.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.Storage.DataDir = filepath.Join(home, ".facesnap")
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = filepath.Join(c.Storage.DataDir, "facesnap.db")
	}
	if c.Storage.PhotoDir == "" {
		c.Storage.PhotoDir = filepath.Join(c.Storage.DataDir, "photos")
	}
	if c.Action.PluginDir == "" {
		c.Action.PluginDir = filepath.Join(c.Storage.DataDir, "plugins")
	}
	return nil
}
