package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"layerctl/internal/api"
	"layerctl/pkg/catalog"
	"layerctl/pkg/config"
	"layerctl/pkg/control"
	"layerctl/pkg/logging"
	"layerctl/pkg/surface/memsurface"
	"layerctl/pkg/tracker"
	"layerctl/pkg/version"
)

const defaultConfigPath = "configs/layerctl.yaml"

// envConfigPath overrides the config path.
const envConfigPath = "LAYERCTL_CONFIG"

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	configPath := defaultConfigPath
	if p := os.Getenv(envConfigPath); p != "" {
		configPath = p
	}

	if *initConfig {
		if err := config.GenerateDefault(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", configPath)
		return
	}

	if err := run(context.Background(), configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("layerctl started", "version", version.Version, "config", configPath)

	cat, err := catalog.Build(appCfg.Layers)
	if err != nil {
		return fmt.Errorf("failed to build layer catalog: %w", err)
	}

	tr := tracker.New()
	hub := api.NewHub(appCfg.Server.WSPingPeriod.Std())
	session := newSession(appCfg, cat, hub, tr)

	return runServer(ctx, appCfg, session, hub, tr)
}

func newSession(cfg *config.Config, cat *catalog.Catalog, hub *api.Hub, tr *tracker.Tracker) *api.Session {
	m := memsurface.New(orb.Point{cfg.Map.CenterLon, cfg.Map.CenterLat}, cfg.Map.Zoom)
	m.SetLogger(slog.Default().With("component", "map"))

	ctl := control.New(control.Config{
		Collapsed:       cfg.Control.Collapsed,
		AutoZIndex:      cfg.Control.AutoZIndex,
		ExclusiveGroups: cfg.Control.ExclusiveGroups,
		GroupCheckboxes: cfg.Control.GroupCheckboxes,
	}, cat.Base, cat.Overlays,
		control.WithLogger(slog.Default().With("component", "control")),
		control.WithRenderer(hub),
	)

	slog.Info("Layer catalog loaded", "layers", cat.Len(), "active", len(cat.Active))
	return api.NewSession(ctl, m, tr, cat.Active...)
}

func runServer(ctx context.Context, cfg *config.Config, session *api.Session, hub *api.Hub, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server,
		api.NewControlHandler(session, hub),
		api.NewMapHandler(session),
		api.NewStatsHandler(tr, hub),
		shutdownFunc,
	)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
