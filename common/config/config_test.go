package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "rondas", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=rondas sslmode=disable", cfg.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "pg.internal")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_NAME", "rondas")
	t.Setenv("PG_MAX_CONNS", "not-a-number")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, MaxConns: 10}
	cfg.LoadFromEnv("PG")
	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "rondas", cfg.Database)
	assert.Equal(t, 10, cfg.MaxConns)
}

func TestRedisAndMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("R_ADDR", "redis:6379")
	t.Setenv("R_DB", "3")
	redisCfg := RedisConfig{}
	redisCfg.LoadFromEnv("R")
	assert.Equal(t, "redis:6379", redisCfg.Addr)
	assert.Equal(t, 3, redisCfg.DB)

	t.Setenv("M_BROKER", "tcp://broker:1883")
	t.Setenv("M_QOS", "5")
	mqttCfg := MQTTConfig{QoS: 1}
	mqttCfg.LoadFromEnv("M")
	assert.Equal(t, "tcp://broker:1883", mqttCfg.Broker)
	assert.Equal(t, byte(1), mqttCfg.QoS)
}
