// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	App         AppConfig
	Cache       CacheConfig
	Procurement ProcurementConfig
	Storage     StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogFormat      string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

type AppConfig struct {
	SnapshotDir string
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RiskTTLSeconds int
}

// ProcurementConfig holds the policy defaults applied when a product has no
// explicit procurement settings.
type ProcurementConfig struct {
	DomesticLeadTimeDays   int
	ImportedLeadTimeDays   int
	DefaultSafetyStockDays int
	LookbackMonths         int
	OrderRoundingKg        float64
	ForecastWorkers        int
}

// StorageConfig points at the S3-compatible bucket used for risk snapshots.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())

		ensureDir(instance.App.SnapshotDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_LOG_FORMAT", "console")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "laminates")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_SNAPSHOT_DIR", "./data/snapshots")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_RISK_TTL_SECONDS", 60)
	v.SetDefault("PROCUREMENT_DOMESTIC_LEAD_TIME_DAYS", 10)
	v.SetDefault("PROCUREMENT_IMPORTED_LEAD_TIME_DAYS", 60)
	v.SetDefault("PROCUREMENT_SAFETY_STOCK_DAYS", 15)
	v.SetDefault("PROCUREMENT_LOOKBACK_MONTHS", 3)
	v.SetDefault("PROCUREMENT_ORDER_ROUNDING_KG", 50)
	v.SetDefault("PROCUREMENT_FORECAST_WORKERS", 4)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "procurement")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "snapshots")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogFormat:      v.GetString("SERVER_LOG_FORMAT"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			URL:      v.GetString("DATABASE_URL"),
		},
		App: AppConfig{
			SnapshotDir: v.GetString("APP_SNAPSHOT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:        v.GetBool("CACHE_ENABLED"),
			RedisURL:       v.GetString("REDIS_URL"),
			RedisHost:      v.GetString("REDIS_HOST"),
			RedisPort:      v.GetString("REDIS_PORT"),
			RedisPassword:  v.GetString("REDIS_PASSWORD"),
			RedisDB:        v.GetInt("REDIS_DB"),
			RiskTTLSeconds: v.GetInt("CACHE_RISK_TTL_SECONDS"),
		},
		Procurement: ProcurementConfig{
			DomesticLeadTimeDays:   v.GetInt("PROCUREMENT_DOMESTIC_LEAD_TIME_DAYS"),
			ImportedLeadTimeDays:   v.GetInt("PROCUREMENT_IMPORTED_LEAD_TIME_DAYS"),
			DefaultSafetyStockDays: v.GetInt("PROCUREMENT_SAFETY_STOCK_DAYS"),
			LookbackMonths:         v.GetInt("PROCUREMENT_LOOKBACK_MONTHS"),
			OrderRoundingKg:        v.GetFloat64("PROCUREMENT_ORDER_ROUNDING_KG"),
			ForecastWorkers:        v.GetInt("PROCUREMENT_FORECAST_WORKERS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
