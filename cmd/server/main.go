// Package main - точка входа Placement Hub.
//
// Один процесс обслуживает:
// - REST API (рекомендации стажировок, уведомления, внутренние триггеры)
// - шину событий и движок автоматизации уведомлений
// - планировщик периодических задач (истечение стажировок, напоминания)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/islandscholars/placement-hub/config"
	"github.com/islandscholars/placement-hub/internal/application/automation"
	"github.com/islandscholars/placement-hub/internal/application/command"
	"github.com/islandscholars/placement-hub/internal/application/notify"
	"github.com/islandscholars/placement-hub/internal/application/suggestion"
	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/infrastructure/messaging"
	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/postgres"
	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/redis"
	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/sqlite"
	"github.com/islandscholars/placement-hub/internal/infrastructure/scheduler"
	"github.com/islandscholars/placement-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/islandscholars/placement-hub/internal/interface/http"
	"github.com/islandscholars/placement-hub/internal/interface/http/handlers"
	"github.com/islandscholars/placement-hub/pkg/logger"
	"github.com/islandscholars/placement-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	hashKey := flag.String("hash-api-key", "", "print the bcrypt hash of an internal API key and exit")
	issueToken := flag.String("issue-token", "", "print a 24h bearer token for a user ID (uses JWT_SECRET) and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := handlers.HashAPIKey(*hashKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *issueToken); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, issueTokenFor string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if issueTokenFor != "" {
		token, err := handlers.GenerateJWT(cfg.Auth.JWTSecret, issueTokenFor, "", 24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	log := logger.New(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	slog.SetDefault(log)
	log.Info("starting Placement Hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
		"db_driver", cfg.Database.Driver,
	)

	health := handlers.NewHealthChecker(cfg.App.Name, cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()
	health.AddCheck("database", store.ping)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально: кеш рекомендаций и блокировки задач)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache *redis.Cache
		locker     scheduler.Locker
	)
	if !cfg.Redis.Disabled {
		redisOpts := &goredis.Options{
			Addr:         net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port)),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}

		redisCache, err = retry.DoWithData(ctx, func(ctx context.Context) (*redis.Cache, error) {
			return redis.NewCache(ctx, redisOpts)
		}, retry.WithMaxAttempts(3), retry.WithInitialDelay(200*time.Millisecond), retry.WithMaxDelay(2*time.Second))
		if err != nil {
			log.Warn("failed to connect to Redis, caching and job locks disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			locker = redis.NewLocker(redisCache)
			health.AddCheck("redis", handlers.PingCheck(redisCache))
			log.Info("Redis connection established", "addr", redisOpts.Addr)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПРИКЛАДНОЙ СЛОЙ
	// ─────────────────────────────────────────────────────────────────────────
	dispatcher := notify.NewDispatcher(store.notifications, log)

	engine := suggestion.NewEngine(store.repos, suggestion.Config{Location: cfg.App.Location}, log)
	var (
		ranker             handlers.SuggestionService = engine
		studentInvalidator automation.SuggestionInvalidator
		allInvalidator     jobs.SuggestionInvalidator
	)
	if redisCache != nil {
		cached := suggestion.NewCachedEngine(engine, redis.NewSuggestionCache(redisCache, cfg.Redis.SuggestionTTL), log)
		ranker = cached
		studentInvalidator = cached
		allInvalidator = cached
	}

	bus := messaging.NewInMemoryEventBus(log)
	defer bus.Close()

	automationEngine := automation.NewEngine(store.repos, dispatcher, studentInvalidator, log)
	if err := automationEngine.Subscribe(bus); err != nil {
		return fmt.Errorf("failed to subscribe automation engine: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = log
	schedCfg.Timezone = cfg.App.Location
	schedCfg.Locker = locker
	schedCfg.LockTTL = cfg.Scheduler.LockTTL
	schedCfg.InitialDelay = cfg.Scheduler.InitialDelay
	sched := scheduler.NewScheduler(schedCfg)

	if err := registerJobs(sched, cfg, store, dispatcher, allInvalidator, log); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	server := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     1 << 20,
		JWTSecret:          cfg.Auth.JWTSecret,
		InternalAPIKeyHash: cfg.Auth.InternalAPIKeyHash,
		Debug:              cfg.IsDevelopment(),
	}, httpapi.Dependencies{
		Students:          store.repos.Students,
		Suggestions:       ranker,
		Notifications:     dispatcher,
		Events:            bus,
		ReviewApplication: command.NewReviewApplicationHandler(store.repos.Applications, bus, log),
		AssignSupervisor:  command.NewAssignSupervisorHandler(store.repos, bus, log),
		Jobs:              sched,
		Health:            health,
		Logger:            log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	if cfg.Scheduler.Enabled {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		log.Info("scheduler disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if sched.IsRunning() {
			if err := sched.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	log.Info("Placement Hub is running", "address", cfg.HTTP.Addr())

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// notificationStore is what both drivers provide for notifications.
type notificationStore interface {
	notification.Store
	notification.ReminderLedger
}

type storeHandle struct {
	repos         placement.Repositories
	notifications notificationStore
	ping          func(ctx context.Context) error
	close         func()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storeHandle, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		log.Info("opening sqlite database...", "path", cfg.Database.SQLitePath)
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if cfg.Database.SeedFile != "" {
			fixtures, err := sqlite.LoadFixtures(cfg.Database.SeedFile)
			if err != nil {
				db.Close()
				return nil, err
			}
			if err := db.Seed(ctx, fixtures); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("database seeded", "file", cfg.Database.SeedFile)
		}
		return &storeHandle{
			repos:         db.Repositories(),
			notifications: db.Notifications(),
			ping:          db.Ping,
			close:         func() { _ = db.Close() },
		}, nil

	default:
		log.Info("connecting to database...")
		pool := postgres.DefaultPoolConfig()
		pool.MaxConns = int32(cfg.Database.MaxConns)
		pool.MinConns = int32(cfg.Database.MinConns)
		pool.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pool.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
		conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, pool)
		},
			retry.WithMaxAttempts(cfg.Database.ConnectAttempts),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("database not ready, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("database schema is up to date")
		}
		return &storeHandle{
			repos:         postgres.NewRepositories(conn),
			notifications: postgres.NewNotificationRepository(conn),
			ping:          conn.Ping,
			close:         conn.Close,
		}, nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// JOBS
// ══════════════════════════════════════════════════════════════════════════════

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	store *storeHandle,
	sender jobs.NotificationSender,
	invalidator jobs.SuggestionInvalidator,
	log *slog.Logger,
) error {
	loc := cfg.App.Location

	expire := jobs.NewExpireInternshipsJob(store.repos.Internships, invalidator, log, jobs.ExpireInternshipsConfig{
		Location: loc,
		Timeout:  cfg.Scheduler.JobTimeout,
	})
	deadline := jobs.NewDeadlineReminderJob(store.repos, store.notifications, sender, log, jobs.DeadlineReminderConfig{
		ReminderDays: cfg.Scheduler.ReminderDays,
		Location:     loc,
		Timeout:      cfg.Scheduler.JobTimeout,
	})
	documents := jobs.NewDocumentReminderJob(store.repos, sender, log, cfg.Scheduler.JobTimeout)

	for _, r := range []struct {
		job      scheduler.Job
		interval time.Duration
	}{
		{expire, cfg.Scheduler.ExpireInternshipsInterval},
		{deadline, cfg.Scheduler.DeadlineReminderInterval},
		{documents, cfg.Scheduler.DocumentReminderInterval},
	} {
		if err := sched.Register(r.job, scheduler.Every(r.interval)); err != nil {
			return fmt.Errorf("failed to register job %s: %w", r.job.Name(), err)
		}
	}
	return nil
}
