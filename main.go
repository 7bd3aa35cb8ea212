package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sarahckohl/mousechase/api"
	"github.com/sarahckohl/mousechase/api/rest"
	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/config"
	dbadapter "github.com/sarahckohl/mousechase/db"
	"github.com/sarahckohl/mousechase/game/ai"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/sarahckohl/mousechase/game/event"
	"github.com/sarahckohl/mousechase/game/world"
	"github.com/sarahckohl/mousechase/journal"
	"github.com/sarahckohl/mousechase/model"
	"github.com/sarahckohl/mousechase/resource"
	"github.com/sarahckohl/mousechase/scheduler"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	taskTimeout     = 2 * time.Second
	shutdownTimeout = 10 * time.Second
	leaseTTL        = 30 * time.Second
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKeyHash == "" || cfg.Server.TokenSecret == "" {
		logger.Warn("server.admin_key_hash or server.token_secret is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	switch {
	case errors.Is(err, dbadapter.ErrDisabled):
		logger.Warn("database disabled; clock and journal will not persist")
		db = nil
	case err != nil:
		log.Fatalf("db: %v", err)
	default:
		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))
	}

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Journal ----
	jr := journal.New(db, pubsub, logger.Named("journal"))

	// ---- Level ----
	loader := resource.NewLoader(cfg.World.LevelPath)
	if err := loader.Load(); err != nil {
		log.Fatalf("level: %v", err)
	}
	logger.Info("level loaded",
		zap.String("level", loader.Level.Name),
		zap.Int("refuges", len(loader.Level.Refuges)))

	// ---- Clock ----
	store := world.NewClockStore(db)
	drv, err := startClock(ctx, cfg, store, logger)
	if err != nil {
		log.Fatalf("clock: %v", err)
	}

	// ---- Room ----
	room, err := world.NewRoom(roomConfig(cfg), loader.Level, loader.Grid, drv,
		event.NewBus(logger.Named("bus")), jr, logger.Named("world"))
	if err != nil {
		log.Fatalf("room: %v", err)
	}
	lease := world.NewLease(c, cfg.World.Name, uuid.NewString(), leaseTTL)
	if err := lease.Acquire(ctx); err != nil {
		log.Fatalf("room lease: %v", err)
	}

	// ---- Periodic Scheduler Tasks ----
	sched := scheduler.New(logger.Named("scheduler"))
	snapshots := world.NewCacheWriter(room, c, 3*cfg.World.SnapshotInterval)
	sched.AddTicker("snapshot", cfg.World.SnapshotInterval, task(logger, "snapshot", snapshots.Flush))
	sched.AddTicker("room_lease", leaseTTL/3, task(logger, "room_lease", lease.Refresh))
	if db != nil {
		sched.AddTicker("clock_persist", cfg.Clock.PersistInterval, task(logger, "clock_persist", func(ctx context.Context) error {
			return store.Persist(ctx, room)
		}))
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	var events rest.EventLog
	if db != nil {
		events = jr
	}
	router := api.NewRouter(ctx, api.Deps{
		Room:   room,
		Events: events,
		Cache:  c,
		PubSub: pubsub,
		Sched:  sched,
		Server: cfg.Server,
		Logger: logger,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		room.Run()
		return nil
	})
	g.Go(func() error {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		sched.Stop()
		shutdownRoom(sctx, room, db, store, snapshots, logger)
		if err := lease.Release(sctx); err != nil {
			logger.Warn("release room lease", zap.Error(err))
		}
		jr.Stop(sctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}

// startClock restores the saved game time of the room, falling back to the
// configured start time.
func startClock(ctx context.Context, cfg *config.Config, store *world.ClockStore, logger *zap.Logger) (*clock.Driver, error) {
	start, err := clock.Parse(cfg.Clock.Start)
	if err != nil {
		return nil, err
	}
	saved, _, err := store.Load(ctx, cfg.World.Name)
	switch {
	case err == nil:
		start = saved
		logger.Info("clock restored", zap.Stringer("time", saved))
	case errors.Is(err, world.ErrNoSavedClock):
		logger.Info("clock starting fresh", zap.Stringer("time", start))
	default:
		logger.Warn("clock restore failed, starting fresh", zap.Error(err))
	}
	drv := clock.NewDriver(nil)
	if err := drv.Initialize(cfg.Clock.TimeScale, start); err != nil {
		return nil, err
	}
	return drv, nil
}

func roomConfig(cfg *config.Config) world.Config {
	return world.Config{
		Name:      cfg.World.Name,
		Tick:      time.Duration(cfg.World.TickMs) * time.Millisecond,
		Mice:      cfg.World.Mice,
		Seed:      cfg.World.Seed,
		SelfSpeed: cfg.Chase.SelfSpeed,
		Stopping:  cfg.Chase.StoppingDistance,
		Chase: chase.Config{
			MinimumWait:       cfg.Chase.MinimumWait,
			HideDistance:      cfg.Chase.HideDistance,
			MaxSelectAttempts: cfg.Chase.MaxSelectAttempts,
			WarpEnabled:       cfg.Chase.WarpEnabled,
		},
		Brain: ai.BrainConfig{
			SlowSpeed:      cfg.Pursuer.SlowSpeed,
			FastSpeed:      cfg.Pursuer.TopSpeed,
			ViewRadius:     cfg.Pursuer.ViewRadius,
			StrikeDistance: cfg.Pursuer.StrikeDistance,
			StrikeCooldown: cfg.Pursuer.StrikeCooldown,
			RepathInterval: cfg.Pursuer.RepathInterval,
		},
		GuardRadius:  cfg.Pursuer.GuardRadius,
		BlockTTL:     cfg.Chase.BlockTTL,
		RouteWorkers: cfg.World.RouteWorkers,
	}
}

// task adapts a context-taking job to a scheduler ticker.
func task(logger *zap.Logger, name string, fn func(context.Context) error) scheduler.TaskFn {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warn("scheduled task failed", zap.String("task", name), zap.Error(err))
		}
	}
}

// shutdownRoom saves the clock while the room still answers, then stops it.
func shutdownRoom(ctx context.Context, room *world.Room, db *gorm.DB, store *world.ClockStore, snapshots *world.CacheWriter, logger *zap.Logger) {
	if db != nil {
		if err := store.Persist(ctx, room); err != nil {
			logger.Warn("persist clock on shutdown", zap.Error(err))
		} else {
			logger.Info("clock persisted")
		}
	}
	room.Stop()
	<-room.Done()
	if err := snapshots.Flush(ctx); err != nil {
		logger.Warn("final snapshot flush", zap.Error(err))
	}
}
