// Package plugin discovers and runs external plugin executables that react to
// stable-face notifications.
package plugin

import (
	"encoding/json"
	"errors"
	"slices"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// validate checks the fields required to run the plugin.
func (m *Manifest) validate() error {
	if m.Name == "" {
		return errors.New("manifest has no name")
	}
	if m.Executable == "" {
		return errors.New("manifest has no executable")
	}
	return nil
}

// Request is written to a plugin's stdin as JSON for each notification.
type Request struct {
	Action    string          `json:"action"`
	Subject   string          `json:"subject"`
	Streak    int             `json:"streak"`
	Session   string          `json:"session"`
	PhotoPath string          `json:"photo_path,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the plugin declares action.
// A plugin with no declared actions accepts any action.
func (p *Plugin) Supports(action string) bool {
	if len(p.Manifest.Actions) == 0 {
		return true
	}
	return slices.Contains(p.Manifest.Actions, action)
}
