package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	DBDSN       string `mapstructure:"DB_DSN"`
	Store       string `mapstructure:"STORE"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`

	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTTTL      time.Duration `mapstructure:"JWT_TTL"`
	LockTimeout time.Duration `mapstructure:"LOCK_TIMEOUT"`

	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"` // пусто - бот не запускается

	RedisAddr     string        `mapstructure:"REDIS_ADDR"` // пусто - коды привязки хранятся в памяти
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	LinkCodeTTL   time.Duration `mapstructure:"LINK_CODE_TTL"`

	RateRPS        float64       `mapstructure:"RATE_RPS"`
	RateBurst      int           `mapstructure:"RATE_BURST"`
	ReconcileEvery time.Duration `mapstructure:"RECONCILE_EVERY"` // 0 - сверка резервов выключена
	OTelEnabled    bool          `mapstructure:"OTEL_ENABLED"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из getenv с дефолтами и проверкой обязательных полей
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Environment:    p.asStr("ENV", "development"),
		DBDSN:          p.asStr("DB_DSN", ""),
		Store:          strings.ToLower(p.asStr("STORE", StorePostgres)),
		HTTPAddr:       p.asStr("HTTP_ADDR", ":8080"),
		JWTSecret:      p.asStr("JWT_SECRET", ""),
		JWTTTL:         p.asDuration("JWT_TTL", 24*time.Hour),
		LockTimeout:    p.asDuration("LOCK_TIMEOUT", 3*time.Second),
		TelegramToken:  p.asStr("TELEGRAM_TOKEN", ""),
		RedisAddr:      p.asStr("REDIS_ADDR", ""),
		RedisPassword:  p.asStr("REDIS_PASSWORD", ""),
		RedisDB:        p.asInt("REDIS_DB", 0),
		LinkCodeTTL:    p.asDuration("LINK_CODE_TTL", 10*time.Minute),
		RateRPS:        p.asFloat("RATE_RPS", 1),
		RateBurst:      p.asInt("RATE_BURST", 5),
		ReconcileEvery: p.asDuration("RECONCILE_EVERY", 5*time.Minute),
		OTelEnabled:    p.asBool("OTEL_ENABLED", false),
		CORSOrigins:    p.asList("CORS_ORIGINS"),
	}
	if p.err != nil {
		return nil, p.err
	}

	// Проверяем обязательные поля
	switch cfg.Store {
	case StorePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if cfg.LockTimeout <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT must be positive")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// IsProduction включает production-логгер и release-режим gin
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// parser запоминает первую ошибку разбора, чтобы не проверять каждое поле отдельно
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) asStr(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) asDuration(key string, def time.Duration) time.Duration {
	raw := p.asStr(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) asInt(key string, def int) int {
	raw := p.asStr(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) asFloat(key string, def float64) float64 {
	raw := p.asStr(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return f
}

func (p *parser) asBool(key string, def bool) bool {
	raw := p.asStr(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

// list разбирает значения через запятую; пустые элементы отбрасываются
func (p *parser) asList(key string) []string {
	var out []string
	for _, item := range strings.Split(p.getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
