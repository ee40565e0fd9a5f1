package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/veleda/ansuz/internal/events"
	"github.com/veleda/ansuz/internal/gitsync"
	"github.com/veleda/ansuz/internal/index"
	"github.com/veleda/ansuz/internal/ops"
	"github.com/veleda/ansuz/internal/storage"
)

// Runtime bundles the live collaborators a front-end drives: the index for
// navigation and search, the bus for change notifications, the sync
// controller, and the side-effect ports.
type Runtime struct {
	Index     *index.Index
	Bus       *events.Bus
	Sync      *gitsync.Controller
	Editor    ops.Editor
	Clipboard ops.Clipboard
	Theme     map[string]string
}

// RunSync executes one sync pass off the interactive path and reports the
// outcome through the bus and the index's sync status.
func (rt *Runtime) RunSync(ctx context.Context) {
	rt.Bus.Publish(events.Event{Kind: events.SyncStarted})
	go func() {
		res := rt.Sync.Run(ctx)
		rt.Index.SetSyncStatus(res.Message)
		rt.Bus.Publish(events.Event{Kind: events.SyncFinished, Message: res.Message})
	}()
}

// Run starts the application with the given options and blocks until the
// context is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("sort_mode", cfg.App.SortMode),
		slog.Bool("auto_sync", cfg.Sync.Auto),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the archive directory exists.
	if err := os.MkdirAll(cfg.Archive.Path, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Archive.Path, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Build the in-memory index.
	ix, err := index.New(store, logger, cfg.App.SortKey())
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	logger.Info("Index built", slog.Int("notes", ix.Len()))

	// Event bus between the core and the renderer.
	bus := events.NewBus(0)
	defer bus.Close()

	// Sync controller over the git primitives.
	runner := app.gitRunner
	if runner == nil {
		runner = gitsync.NewGit(store.Root(), logger)
	}
	syncCtl := gitsync.NewController(runner, logger, cfg.Sync.Timeout())

	rt := &Runtime{
		Index:     ix,
		Bus:       bus,
		Sync:      syncCtl,
		Editor:    ops.NewExecEditor(cfg.Editor.Cmd, store.Root()),
		Clipboard: ops.SystemClipboard{},
		Theme:     cfg.Theme.Colors,
	}
	if app.onReady != nil {
		app.onReady(rt)
	}

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher keeps the index consistent with external edits.
	g.Go(func() error {
		return index.Watch(gCtx, ix, store.Root(), logger, bus)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		if cfg.Sync.Auto {
			// Exit is deferred until this one bounded sync concludes; the
			// controller's timeout guarantees it cannot hang forever.
			logger.Info("Auto-sync before exit")
			res := syncCtl.Run(context.Background())
			logger.Info("Auto-sync finished",
				slog.String("state", res.State.String()),
				slog.String("message", res.Message))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped")
	return nil
}
