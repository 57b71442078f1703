package configs

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// AppConfig: semua ENV yang dibaca aplikasi.
type AppConfig struct {
	Port string `envconfig:"PORT" default:"8080"`

	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_NAME"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Kosong = event tidak dikirim (NopPublisher)
	RabbitURL      string `envconfig:"RABBIT_URL"`
	KhatmaExchange string `envconfig:"KHATMA_EXCHANGE" default:"khatma.exchange"`

	// "postgres" (default) atau "memory" untuk dev tanpa DB
	KhatmaStore string `envconfig:"KHATMA_STORE" default:"postgres"`

	ReconcileCron  string `envconfig:"RECONCILE_CRON" default:"@every 15m"`
	ReconcileBatch int    `envconfig:"RECONCILE_BATCH" default:"200"`

	CorsOrigins []string `envconfig:"CORS_ORIGINS"`

	// Data demo (internals/seeds), hanya untuk dev
	RunSeed bool `envconfig:"RUN_SEED" default:"false"`
}

func (c AppConfig) UseMemoryStore() bool {
	return strings.EqualFold(strings.TrimSpace(c.KhatmaStore), "memory")
}

func (c AppConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=khatmaku&options=-c statement_timeout=3000",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}
}

// Load: LoadEnv lalu isi AppConfig.
func Load() (AppConfig, error) {
	LoadEnv()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	if !cfg.UseMemoryStore() && (cfg.DBName == "" || cfg.DBUser == "") {
		return AppConfig{}, fmt.Errorf("load config: DB_NAME dan DB_USER wajib kalau KHATMA_STORE=%s", cfg.KhatmaStore)
	}
	log.Printf("✅ Config dimuat (port=%s store=%s rabbit=%t)", cfg.Port, cfg.KhatmaStore, cfg.RabbitURL != "")
	return cfg, nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

// NewGormLogger: level dari GORM_LOG (silent|error|warn|info), default warn.
func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	switch strings.ToLower(GetEnv("GORM_LOG")) {
	case "silent":
		level = gormLogger.Silent
	case "error":
		level = gormLogger.Error
	case "info":
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
