package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Roelanb/autoremove-webui/internal/api"
	"github.com/Roelanb/autoremove-webui/internal/config"
	"github.com/Roelanb/autoremove-webui/internal/history"
	"github.com/Roelanb/autoremove-webui/internal/observability"
	"github.com/Roelanb/autoremove-webui/internal/runner"
	"github.com/Roelanb/autoremove-webui/internal/settings"
	"github.com/Roelanb/autoremove-webui/internal/watch"
)

func serveCmd() *cobra.Command {
	v := settings.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the config API, preview/run endpoints and overview page",
		Long: `Serve the HTTP backend. Settings come from the environment:
CONFIG_PATH, OPTS, AUTOREMOVE_CMD, WEBUI_HOST, WEBUI_PORT, LOG_LEVEL,
HISTORY_PATH and WORK_DIR. Flags override the matching variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("host", "", "Listen host (WEBUI_HOST)")
	cmd.Flags().Int("port", 0, "Listen port (WEBUI_PORT)")
	cmd.Flags().String("log-level", "", "Log level: debug|info|warn|error (LOG_LEVEL)")
	cmd.Flags().String("history", "", "History database path (HISTORY_PATH)")
	for key, flag := range map[string]string{
		settings.KeyHost:        "host",
		settings.KeyPort:        "port",
		settings.KeyLogLevel:    "log-level",
		settings.KeyHistoryPath: "history",
	} {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	s, err := settings.Load(v)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	logger := observability.NewLogger(s.LogLevel)
	defer logger.Sync() //nolint:errcheck
	logger.Infow("starting", "version", version, "config", s.ConfigPath, "cmd", s.AutoremoveCmd, "opts", s.Opts)

	// history is optional; a read-only volume still gets an editor
	var hist history.Store
	if db, err := history.OpenBBolt(s.HistoryPath); err != nil {
		logger.Warnw("history disabled", "path", s.HistoryPath, "error", err)
	} else {
		defer db.Close()
		hist = db
	}

	store := config.NewStore(s.ConfigPath)
	run := runner.New(logger, runner.Options{
		Command: s.AutoremoveCmd,
		Opts:    s.Opts,
		WorkDir: s.WorkDir,
	})
	svc := api.NewService(logger, store, run, hist)
	svc.RecordExternal()
	srv := api.New(logger, svc, s.Addr())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		return watchConfig(gctx, logger, s.ConfigPath, svc)
	})
	err = g.Wait()
	logger.Infow("shutdown complete")
	return err
}

// watchConfig records edits made to the config file outside the server.
// A watcher that cannot start is logged and ignored.
func watchConfig(ctx context.Context, log observability.Logger, path string, svc *api.Service) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Warnw("config watch disabled", "path", path, "error", err)
		return nil
	}
	w, err := watch.New(watch.Options{Path: abs, Debounce: 500 * time.Millisecond})
	if err != nil {
		log.Warnw("config watch disabled", "path", abs, "error", err)
		return nil
	}
	defer w.Close()
	events, err := w.Start(ctx)
	if err != nil {
		log.Warnw("config watch disabled", "path", abs, "error", err)
		return nil
	}
	log.Infow("watching config", "path", abs)
	for ev := range events {
		log.Debugw("config changed on disk", "path", ev.Path, "at", ev.Time)
		svc.RecordExternal()
	}
	return nil
}
