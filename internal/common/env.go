package common

import (
	"os"
	"strconv"
	"time"
)

// Config mirrors the environment variables the deployment sets.
type Config struct {
	AppEnv         string
	DBDriver       string // mysql | sqlite
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	SQLitePath     string // used when DBDriver is sqlite
	RedisAddr      string
	RedisPassword  string
	LogPath        string
	KeyPath        string
	CertPath       string
	WebhookSecret  string
	MaxConcurrency int
	StepTimeout    time.Duration
}

var config Config

func GetConfig() Config {
	return config
}

func InitConf() {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "3306"))
	maxConcurrency, _ := strconv.Atoi(getEnv("MAX_CONCURRENCY", "5"))
	stepTimeout, err := time.ParseDuration(getEnv("STEP_TIMEOUT", "10m"))
	if err != nil {
		stepTimeout = 10 * time.Minute
	}

	config = Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         dbPort,
		DBUser:         getEnv("DB_USER", ""),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "mast"),
		SQLitePath:     getEnv("SQLITE_PATH", "./mast.db"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		LogPath:        getEnv("LOG_PATH", "./logs/mast.log"),
		KeyPath:        getEnv("KEY_PATH", ""),
		CertPath:       getEnv("CERT_PATH", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		MaxConcurrency: maxConcurrency,
		StepTimeout:    stepTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
