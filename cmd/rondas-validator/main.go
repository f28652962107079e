package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weblidercontrol/common/database"
	logpkg "weblidercontrol/common/logger"
	mqttcommon "weblidercontrol/common/mqtt"
	rediscommon "weblidercontrol/common/redis"
	"weblidercontrol/internal/audit"
	"weblidercontrol/internal/config"
	httpapi "weblidercontrol/internal/http"
	"weblidercontrol/internal/notify"
	"weblidercontrol/internal/repository"
	"weblidercontrol/internal/schedule"
	"weblidercontrol/internal/service"
	"weblidercontrol/internal/store"
	"weblidercontrol/internal/validator"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env 可选，已存在的环境变量优先
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "rondas-validator")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis：审计流 + 可选的合规记录存储
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		c := rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(ctx, c); err != nil {
			log.Warn("Redis unavailable, audit entries go to the log only", zap.Error(err))
			_ = c.Close()
		} else {
			redisClient = c
		}
	}

	// Postgres；连不上时回退到内存仓库（本地联调）
	var db *sql.DB
	if cfg.StoreBackend == config.BackendPostgres || cfg.ComplianceBackend == config.BackendPostgres {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("Postgres store enabled", zap.String("host", cfg.Database.Host))
			if cfg.AutoMigrate {
				if err := repository.EnsureSchema(ctx, db); err != nil {
					log.Fatal("Failed to apply schema", zap.Error(err))
				}
			}
		} else {
			log.Warn("Postgres connection failed", zap.Error(err))
		}
	}

	rounds, err := buildRoundsRepo(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to initialize rounds repository", zap.Error(err))
	}
	records, err := buildComplianceRepo(cfg, db, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize compliance repository", zap.Error(err))
	}

	// 审计：Redis Stream 优先，始终同时写日志
	sinks := audit.MultiSink{audit.NewLogSink(log)}
	if redisClient != nil {
		sinks = append(sinks, audit.NewStreamSink(redisClient, cfg.Audit.Stream, cfg.Audit.MaxLen))
	}

	var notifier notify.Publisher = notify.NopPublisher{}
	var mqttClient *mqttcommon.Client
	if cfg.MQTTEnabled {
		if c, err := mqttcommon.NewClient(&cfg.MQTT); err == nil {
			mqttClient = c
			notifier = notify.NewMQTTPublisher(c, cfg.Notify.TopicPrefix, c.QoS())
			log.Info("MQTT notifications enabled", zap.String("broker", cfg.MQTT.Broker))
		} else {
			log.Warn("MQTT connection failed, notifications disabled", zap.Error(err))
		}
	}

	clock := schedule.NewClock(cfg.Validation.UTCOffset, nil)
	recorder := validator.NewRecorder(records, sinks, notifier, log)
	checker := validator.NewChecker(rounds, records, recorder, clock, cfg.Validation.UnknownFrequencyPolicy, log)
	cadences := validator.DefaultCadences(cfg.Scheduler.MinuteInterval, cfg.Scheduler.FiveMinuteInterval, cfg.Scheduler.FreshnessFilter)

	router := httpapi.NewRouter(log)
	router.RegisterValidationRoutes(httpapi.NewValidationHandler(checker, cadences, rounds, records, clock, log))
	router.RegisterHealthRoutes()
	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	scheduler := service.NewScheduler(checker, log, cadences.All()...)
	if cfg.Scheduler.Enabled {
		scheduler.Start(ctx)
	} else {
		log.Info("Validation schedules disabled, manual trigger only")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server error", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", zap.Error(err))
	}
	scheduler.Wait()

	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = rediscommon.Close(redisClient)
	_ = database.Close(db)
	log.Info("Service stopped")
}

func buildRoundsRepo(cfg *config.Config, db *sql.DB, log *zap.Logger) (repository.RoundsRepository, error) {
	if cfg.StoreBackend == config.BackendPostgres && db != nil {
		return repository.NewPostgresRoundsRepository(db), nil
	}
	mem := repository.NewMemoryRoundsRepo()
	if cfg.RoundsSeedFile != "" {
		seed, err := repository.LoadRoundsFromFile(cfg.RoundsSeedFile)
		if err != nil {
			return nil, err
		}
		for _, round := range seed {
			mem.Upsert(round)
		}
		log.Info("Loaded rounds seed file",
			zap.String("path", cfg.RoundsSeedFile),
			zap.Int("rounds", len(seed)),
		)
	}
	return mem, nil
}

// buildComplianceRepo 合规记录存储不可用时默认失败退出；
// 只有显式开启 COMPLIANCE_MEMORY_FALLBACK 才退回进程内存储
func buildComplianceRepo(cfg *config.Config, db *sql.DB, redisClient *redis.Client, log *zap.Logger) (repository.ComplianceRepository, error) {
	switch {
	case cfg.ComplianceBackend == config.BackendRedis && redisClient != nil:
		log.Info("Compliance records stored in Redis", zap.String("prefix", cfg.CompliancePrefix))
		return repository.NewRedisComplianceRepository(store.NewRedisKV(redisClient), cfg.CompliancePrefix), nil
	case cfg.ComplianceBackend == config.BackendPostgres && db != nil:
		return repository.NewPostgresComplianceRepository(db), nil
	case cfg.ComplianceBackend == config.BackendMemory:
		log.Warn("Compliance records kept in memory")
		return repository.NewMemoryComplianceRepo(), nil
	case cfg.ComplianceMemoryFallback:
		log.Warn("Compliance store unavailable, falling back to memory", zap.String("backend", cfg.ComplianceBackend))
		return repository.NewMemoryComplianceRepo(), nil
	default:
		return nil, fmt.Errorf("compliance backend %s unavailable", cfg.ComplianceBackend)
	}
}
