// Package main provides a desktop notification plugin.
// It uses osascript on macOS and notify-send on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Subject   string          `json:"subject"`
	Streak    int             `json:"streak"`
	Session   string          `json:"session"`
	PhotoPath string          `json:"photo_path,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type config struct {
	Title string `json:"title"`
	Sound bool   `json:"sound"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "notify" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	cfg := config{Title: "facesnap"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	if err := notify(cfg, message(req)); err != nil {
		writeErrorResponse(fmt.Sprintf("notify failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// message builds the notification body for req.
func message(req Request) string {
	if req.PhotoPath != "" {
		return "Photo saved: " + req.PhotoPath
	}
	return "Face held steady for " + strconv.Itoa(req.Streak) + " frames"
}

func notify(cfg config, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, cfg.Title)
		if cfg.Sound {
			script += ` sound name "Glass"`
		}
		return run("osascript", "-e", script)
	case "linux":
		return run("notify-send", cfg.Title, body)
	default:
		return errors.New("notifications not supported on " + runtime.GOOS)
	}
}

// run executes a command and returns any error with its output.
func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: false,
		Error:   errMsg,
	})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{
		Success: true,
	})
}
