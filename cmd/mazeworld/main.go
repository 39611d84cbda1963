package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maze-engine/world/internal/config"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	"github.com/maze-engine/world/internal/persist"
	"github.com/maze-engine/world/internal/scene"
	"github.com/maze-engine/world/internal/scripting"
	"github.com/maze-engine/world/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Maze World  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main loop ──────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/world.toml"
	if p := os.Getenv("MAZE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Optional snapshot database
	var snapshots *persist.SnapshotRepo
	if cfg.Database.Enabled {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(dbCtx, db); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		snapshots = persist.NewSnapshotRepo(db)
		printOK("PostgreSQL ready")
	}

	// 4. Scene document: file first, latest snapshot second
	printSection("scene")
	registry := scene.NewDefaultRegistry()
	doc, err := loadScene(ctx, cfg.Scene.Path, snapshots, log)
	if err != nil {
		return err
	}

	seed := ecs.EntityID(cfg.World.EntityIDSeed)
	if doc != nil && doc.IDCounter > seed {
		seed = doc.IDCounter
	}
	world := ecs.NewWorld(
		ecs.WithLogger(log.Named("ecs")),
		ecs.WithEntityIDSeed(seed),
		ecs.WithMaxEventDepth(cfg.World.MaxEventDepth),
	)
	world.OnEntityAdded.Subscribe(func(e *ecs.Entity) {
		log.Debug("entity added", zap.Int32("entity", int32(e.ID())))
	})
	world.OnEntityRemoved.Subscribe(func(e *ecs.Entity) {
		log.Debug("entity removed", zap.Int32("entity", int32(e.ID())))
	})

	if doc != nil {
		entities, err := scene.Instantiate(world, registry, doc)
		if err != nil {
			return fmt.Errorf("instantiate scene: %w", err)
		}
		printStat("entities", len(entities))
	}
	printStat("component types", len(registry.Names()))

	// 5. Systems
	printSection("systems")
	system.RegisterLinearMovement(world)
	system.RegisterRotor(world)
	system.RegisterLifetime(world, log)
	health := system.NewHealthSystem(world, log)
	defer health.Close()

	var snap *system.SnapshotSystem
	if snapshots != nil {
		snap = system.NewSnapshotSystem(world, registry, snapshots, log, cfg.Database.SnapshotEvery, cfg.Database.KeepSnapshots)
		world.AddGlobalSystem(snap)
	}

	// 6. Scripting
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(world, registry, cfg.Scripting.Dir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		engine.RegisterScriptSystem(coresys.Order(cfg.Scripting.ScriptOrder))
	}
	printStat("systems", len(world.Systems()))
	fmt.Println()

	// 7. Tick loop
	log.Info("world running", zap.Duration("tick_rate", cfg.World.TickRate))
	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	last := time.Now()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			world.Update(now.Sub(last))
			last = now
			if cfg.World.MaxTicks > 0 && world.Tick() >= cfg.World.MaxTicks {
				break loop
			}
		}
	}

	// 8. Shutdown
	stats := world.Stats()
	log.Info("world stopping",
		zap.Uint64("tick", stats.Tick),
		zap.Int("entities", stats.Live),
		zap.Int("samples", stats.Samples),
	)
	if cfg.Scene.SavePath != "" {
		out, err := scene.Capture(world, registry)
		if err != nil {
			return fmt.Errorf("capture scene: %w", err)
		}
		if err := out.Save(cfg.Scene.SavePath); err != nil {
			return err
		}
		log.Info("scene saved", zap.String("path", cfg.Scene.SavePath))
	}
	if snap != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := snap.SaveNow(saveCtx); err != nil {
			log.Error("final snapshot failed", zap.Error(err))
		}
	}
	return nil
}

func loadScene(ctx context.Context, path string, snapshots *persist.SnapshotRepo, log *zap.Logger) (*scene.Document, error) {
	if path != "" {
		doc, err := scene.Load(path)
		if err == nil {
			printOK("scene file " + path)
			return doc, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Warn("scene file missing", zap.String("path", path))
	}
	if snapshots == nil {
		return nil, nil
	}
	latest, err := snapshots.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	doc, err := scene.Parse(latest.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", latest.ID, err)
	}
	printOK("snapshot " + latest.ID.String())
	return doc, nil
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
