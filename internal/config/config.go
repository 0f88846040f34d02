package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	// Driver selects the document store: "postgres" or "memory".
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	// ConnectTimeout bounds the startup ping retries.
	ConnectTimeout time.Duration
}

// StorageConfig selects where uploaded profile pictures are written.
type StorageConfig struct {
	// Backend is "local" (files under PublicDir/uploads) or "minio".
	Backend        string
	PublicDir      string
	UploadMaxBytes int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ChainConfig holds the blockchain collaborator settings.
// RPCURL and SpaceRegistryAddress are required for ownership checks; when they are
// empty the service still starts and reports the chain as unavailable.
type ChainConfig struct {
	RPCURL               string
	SpaceRegistryAddress string
	ENSRegistryAddress   string
	CallTimeout          time.Duration
	StartBlock           uint64
}

// RedisConfig enables cross-instance profile notifications when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// BrowserConfig configures the space browser read model.
type BrowserConfig struct {
	// Source is "chain", "store" or "seed".
	Source string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Database DatabaseConfig
	Storage  StorageConfig
	MinIO    MinIOConfig
	Chain    ChainConfig
	Redis    RedisConfig
	Browser  BrowserConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "postgres"),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectTimeout:     getEnvDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "local"),
			PublicDir:      getEnv("PUBLIC_DIR", "public"),
			UploadMaxBytes: getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Chain: ChainConfig{
			RPCURL:               getEnv("RPC_URL", ""),
			SpaceRegistryAddress: getEnv("SPACE_REGISTRY_ADDRESS", ""),
			ENSRegistryAddress:   getEnv("ENS_REGISTRY_ADDRESS", ""),
			CallTimeout:          getEnvDuration("CHAIN_CALL_TIMEOUT", 5*time.Second),
			StartBlock:           uint64(getEnvInt("CHAIN_START_BLOCK", 0)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_CHANNEL", "zamahub.spaces"),
		},
		Browser: BrowserConfig{
			Source: getEnv("BROWSER_SOURCE", "store"),
		},
	}
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}
