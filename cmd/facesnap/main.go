package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/facesnap/internal/action"
	"github.com/ayusman/facesnap/internal/app"
	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/config"
	"github.com/ayusman/facesnap/internal/detector"
	"github.com/ayusman/facesnap/internal/metrics"
	"github.com/ayusman/facesnap/internal/plugin"
	"github.com/ayusman/facesnap/internal/server"
	"github.com/ayusman/facesnap/internal/store"
	"github.com/ayusman/facesnap/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	profile := flag.String("profile", "", "Configuration profile: front or back")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	withTray := flag.Bool("tray", false, "Show the system tray menu")
	autostart := flag.Bool("autostart", false, "Start a monitoring session immediately")
	flag.Parse()

	cfg, err := config.Load(*configPath, *profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "facesnap: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *withTray {
		cfg.Tray.Enabled = true
	}

	slog.SetDefault(newLogger(cfg.Log))

	if err := run(cfg, *autostart); err != nil {
		slog.Error("facesnap failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, autostart bool) error {
	if err := cfg.ResolvePaths(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	slog.Info("starting facesnap",
		"profile", cfg.Profile,
		"threshold", cfg.Monitor.StabilityThreshold,
		"action", cfg.Action.Kind,
		"data_dir", cfg.Storage.DataDir,
	)

	st, err := store.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	cam := capture.NewCameraWithOptions(cfg.CameraOptions())

	det, err := detector.New(cfg.DetectorConfig())
	if err != nil {
		slog.Warn("face detector unavailable, no faces will be reported", "kind", cfg.Detector.Kind, "error", err)
		det = detector.NewMockDetector()
	}

	m := metrics.New()

	plugins := plugin.NewManager(cfg.Action.PluginDir)
	if err := plugins.Discover(); err != nil {
		slog.Warn("plugin discovery failed", "dir", cfg.Action.PluginDir, "error", err)
	}
	for _, p := range plugins.List() {
		slog.Info("plugin loaded", "name", p.Manifest.Name, "version", p.Manifest.Version)
	}

	deps := action.Deps{
		Shutter:  cam,
		Photos:   capture.NewPhotoWriter(cfg.Storage.PhotoDir, cfg.PhotoRotation(), cfg.Camera.JPEGQuality),
		Captures: st.Captures(),
		Plugins:  plugins,
		Executor: plugin.NewExecutor(cfg.Action.PluginTimeout),
	}
	if cfg.Action.MQTT.Broker != "" {
		client, err := action.ConnectMQTT(cfg.Action.MQTT)
		if err != nil {
			slog.Warn("mqtt disabled", "error", err)
		} else {
			defer client.Disconnect(250)
			deps.MQTT = client
		}
	}

	chain, err := action.Build(cfg.Action, deps)
	if err != nil {
		return fmt.Errorf("build actions: %w", err)
	}
	chain.OnError = func(name string, err error) {
		m.ActionError(name)
	}

	hub := server.NewHub()
	var tr *tray.Tray
	events := eventFanout{hub}
	if cfg.Tray.Enabled {
		tr = tray.New()
		events = append(events, trayEvents{tr})
	}

	application, err := app.New(app.Config{
		Profile:          cfg.Profile,
		Monitor:          cfg.MonitorConfig(),
		Tracking:         cfg.TrackingConfig(),
		StopAfterCapture: cfg.Action.StopAfterCapture,
		PreviewQuality:   cfg.Camera.JPEGQuality,
	}, app.Deps{
		Camera:   cam,
		Detector: det,
		Actions:  chain,
		Store:    st,
		Metrics:  m,
		Events:   events,
	})
	if err != nil {
		return err
	}
	defer application.Close()

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.Storage.DataDir)
	}
	if staticDir != "" {
		slog.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:  staticDir,
		Store:      st,
		Controller: application,
		Hub:        hub,
		Metrics:    m.Handler(),
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	if autostart {
		if _, err := application.StartSession(); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if tr != nil {
		url := "http://" + localAddr(cfg.Server.Addr)
		tr.SetEnabled(application.IsEnabled())
		tr.OnToggle(application.SetEnabled)
		tr.OnSession(func(start bool) {
			if start {
				if _, err := application.StartSession(); err != nil {
					slog.Warn("could not start session", "error", err)
				}
				return
			}
			if err := application.StopSession(); err != nil {
				slog.Warn("could not stop session", "error", err)
			}
		})
		tr.OnOpen(func() { openBrowser(url) })
		tr.OnQuit(stopOnQuit(application))
		go func() {
			select {
			case sig := <-sigCh:
				slog.Info("received shutdown signal", "signal", sig)
			case err := <-errCh:
				slog.Error("http server stopped", "error", err)
			}
			tr.Quit()
		}()
		// The tray owns the main thread until Quit.
		tr.Run()
		slog.Info("facesnap stopped")
		return nil
	}

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("facesnap stopped")
	return nil
}

// eventFanout publishes every event to each sink.
type eventFanout []app.EventSink

func (f eventFanout) Publish(e app.Event) {
	for _, s := range f {
		s.Publish(e)
	}
}

// sessionStopper is the part of the app the tray quit item needs.
type sessionStopper interface {
	StopSession() error
}

// stopOnQuit ends a running session before the tray exits.
func stopOnQuit(s sessionStopper) func() {
	return func() {
		if err := s.StopSession(); err != nil && !errors.Is(err, app.ErrNoSession) {
			slog.Warn("could not stop session on quit", "error", err)
		}
	}
}

// trayEvents mirrors session, capture and toggle events into the tray menu.
type trayEvents struct {
	tray *tray.Tray
}

func (t trayEvents) Publish(e app.Event) {
	switch e.Type {
	case app.EventSessionStarted:
		t.tray.SetRunning(true)
	case app.EventSessionStopped:
		t.tray.SetRunning(false)
	case app.EventCapture:
		t.tray.SetLastCapture(e.Time.Format("15:04:05"))
	case app.EventEnabled:
		if e.Enabled != nil {
			t.tray.SetEnabled(*e.Enabled)
		}
	}
}

// localAddr turns a listen address such as ":8080" into a dialable one.
func localAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("could not open browser", "url", url, "error", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
