package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vellum/scenecore/internal/config"
	"github.com/vellum/scenecore/internal/data"
	"github.com/vellum/scenecore/internal/loader"
	"github.com/vellum/scenecore/internal/persist"
	"github.com/vellum/scenecore/internal/scene"
	"github.com/vellum/scenecore/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/scenecore.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("name", cfg.Core.Name),
		zap.Int("frame_rate", cfg.Core.FrameRate),
		zap.String("assets", cfg.Resources.Root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Optional save store in PostgreSQL
	var store loader.Store
	if cfg.Database.Enabled {
		dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			dbCancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		err = db.Migrate(dbCtx)
		dbCancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		store = persist.NewResourceRepo(db)
	}

	// 4. Resource platform and core
	platform := loader.New(loader.Options{
		Root:      cfg.Resources.Root,
		Workers:   cfg.Resources.Workers,
		QueueSize: cfg.Resources.QueueSize,
	}, store, log)
	platform.Start(ctx)
	defer func() {
		if err := platform.Close(); err != nil {
			log.Warn("loader shutdown", zap.Error(err))
		}
	}()

	core := scene.NewCore(platform, scene.Options{QueueCapacity: cfg.Core.QueueCapacity}, log)

	// 5. Scripted constraints
	var engine *scripting.Engine
	if cfg.Scripting.Dir != "" {
		engine, err = scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
	}

	// 6. Preload manifest
	if cfg.Manifest.Path != "" {
		m, err := data.LoadManifest(cfg.Manifest.Path)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		if _, err := buildStage(core, m, engine, log); err != nil {
			return fmt.Errorf("build stage: %w", err)
		}
	}

	// 7. File watcher
	var changes <-chan string
	if cfg.Resources.Watch {
		w, err := loader.NewWatcher(cfg.Resources.Root, cfg.Resources.Debounce, log)
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("watcher stopped", zap.Error(err))
			}
		}()
		changes = w.Changes()
	}

	// 8. Update loop on its own goroutine; this one is the event side.
	interval := cfg.Core.FrameInterval()
	updateDone := make(chan struct{})
	go func() {
		defer close(updateDone)
		runUpdates(ctx, core, interval)
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("scene core ready", zap.Duration("frame", interval))

	for {
		select {
		case <-ticker.C:
			core.ProcessEvents()
		case path, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			core.ReloadImages(path)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			cancel()
			<-updateDone
			log.Info("stopped", zap.Uint64("frames", core.UpdateManager().Counter().Frame()))
			return nil
		}
	}
}

// runUpdates processes one frame per tick until ctx is done.
func runUpdates(ctx context.Context, core *scene.Core, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			core.Update(now.Sub(last))
			last = now
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
