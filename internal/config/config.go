package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "weblidercontrol/common/config"
	"weblidercontrol/internal/schedule"
)

// 存储后端
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config rondas-validator 配置
type Config struct {
	HTTP struct {
		Addr string
	}

	// StoreBackend 巡检规则与合规记录的存储：postgres / memory
	StoreBackend string
	// ComplianceBackend 合规记录单独使用的存储，空值与 StoreBackend 相同；可选 redis
	ComplianceBackend string
	// ComplianceMemoryFallback 合规记录存储不可用时退回进程内存储，默认关闭
	ComplianceMemoryFallback bool
	// AutoMigrate 启动时建表
	AutoMigrate bool
	Database    commoncfg.DatabaseConfig

	RedisEnabled bool
	Redis        commoncfg.RedisConfig

	MQTTEnabled bool
	MQTT        commoncfg.MQTTConfig

	Log struct {
		Level  string
		Format string
	}

	Validation ValidationConfig
	Scheduler  SchedulerConfig
	Audit      AuditConfig
	Notify     NotifyConfig

	// RoundsSeedFile memory 模式下加载的巡检规则 JSON
	RoundsSeedFile string
	// CompliancePrefix Redis 合规记录 key 前缀
	CompliancePrefix string
}

// ValidationConfig 校验规则配置
type ValidationConfig struct {
	// UTCOffset 设施固定时区偏移，不做夏令时
	UTCOffset time.Duration
	// UnknownFrequencyPolicy 频率为空或无法识别时的处理：skip / run
	UnknownFrequencyPolicy schedule.FrequencyPolicy
}

// SchedulerConfig 两个校验节奏
type SchedulerConfig struct {
	Enabled            bool
	MinuteInterval     time.Duration
	FiveMinuteInterval time.Duration
	// FreshnessFilter 5 分钟节奏只校验当天创建的巡检规则
	FreshnessFilter bool
}

// AuditConfig 审计流配置
type AuditConfig struct {
	Stream string
	MaxLen int64
}

// NotifyConfig 漏巡通知配置
type NotifyConfig struct {
	TopicPrefix string
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres))
	switch cfg.StoreBackend {
	case BackendPostgres, BackendMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND: %s", cfg.StoreBackend)
	}
	cfg.ComplianceBackend = strings.ToLower(getEnv("COMPLIANCE_BACKEND", cfg.StoreBackend))
	switch cfg.ComplianceBackend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("unsupported COMPLIANCE_BACKEND: %s", cfg.ComplianceBackend)
	}
	cfg.ComplianceMemoryFallback = getEnv("COMPLIANCE_MEMORY_FALLBACK", "false") == "true"
	cfg.AutoMigrate = getEnv("DB_AUTO_MIGRATE", "false") == "true"

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "weblidercontrol",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "rondas-validator",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	offset, err := parseUTCOffset(getEnv("FACILITY_UTC_OFFSET", "-05:00"))
	if err != nil {
		return nil, err
	}
	cfg.Validation.UTCOffset = offset

	policy, err := schedule.ParseFrequencyPolicy(getEnv("UNKNOWN_FREQUENCY_POLICY", string(schedule.PolicySkipUnknown)))
	if err != nil {
		return nil, err
	}
	cfg.Validation.UnknownFrequencyPolicy = policy

	cfg.Scheduler.Enabled = getEnv("SCHEDULER_ENABLED", "true") == "true"
	cfg.Scheduler.MinuteInterval = parseDuration(getEnv("MINUTE_CADENCE_INTERVAL", "1m"), time.Minute)
	cfg.Scheduler.FiveMinuteInterval = parseDuration(getEnv("FIVE_MINUTE_CADENCE_INTERVAL", "5m"), 5*time.Minute)
	cfg.Scheduler.FreshnessFilter = getEnv("FIVE_MINUTE_FRESHNESS_FILTER", "true") == "true"

	cfg.Audit.Stream = getEnv("AUDIT_STREAM", "rondas:audit")
	cfg.Audit.MaxLen = int64(parseInt(getEnv("AUDIT_STREAM_MAXLEN", "100000"), 100000))

	cfg.Notify.TopicPrefix = getEnv("NOTIFY_TOPIC_PREFIX", "rondas/notifications")

	cfg.RoundsSeedFile = getEnv("ROUNDS_SEED_FILE", "")
	cfg.CompliancePrefix = getEnv("REDIS_COMPLIANCE_PREFIX", "rondas:compliance:")

	return cfg, nil
}

// parseUTCOffset 支持 "-05:00"、"-5"（小时）、"-5h" 三种写法
func parseUTCOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return validOffset(d, s)
	}
	if hours, err := strconv.Atoi(s); err == nil {
		return validOffset(time.Duration(hours)*time.Hour, s)
	}

	sign := time.Duration(1)
	rest := s
	switch {
	case strings.HasPrefix(rest, "-"):
		sign = -1
		rest = rest[1:]
	case strings.HasPrefix(rest, "+"):
		rest = rest[1:]
	}
	parts := strings.Split(rest, ":")
	if len(parts) == 2 {
		h, errH := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		if errH == nil && errM == nil && h >= 0 && m >= 0 && m < 60 {
			return validOffset(sign*(time.Duration(h)*time.Hour+time.Duration(m)*time.Minute), s)
		}
	}
	return 0, fmt.Errorf("invalid FACILITY_UTC_OFFSET: %q", s)
}

func validOffset(d time.Duration, raw string) (time.Duration, error) {
	if d < -14*time.Hour || d > 14*time.Hour {
		return 0, fmt.Errorf("FACILITY_UTC_OFFSET out of range: %q", raw)
	}
	return d, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
