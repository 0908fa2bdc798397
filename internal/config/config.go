package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	DefaultDriverAPIBaseURL = "https://bustrack-zjyo.onrender.com/api"
)

type Config struct {
	Store    *Storeconfig
	DB       *DBconfig
	Auth     *Authconfig
	Srv      *Serviceconfig
	Upstream *Upstreamconfig
	RabbitMq *RabbitMqconfig
	Redis    *Redisconfig
	MQTT     *MQTTconfig
	Log      *Loggerconfig
}

type Storeconfig struct {
	Driver     string
	SQLitePath string
}

type DBconfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	MaxRetries int
}

// DSN renders a postgres URL usable by both pgx and golang-migrate.
func (c *DBconfig) DSN() string {
	return fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type Authconfig struct {
	JwtSecret string
	TokenTTL  time.Duration
}

type Serviceconfig struct {
	DriverServicePort string
	UserServicePort   string
	AllowedOrigins    []string
}

type Upstreamconfig struct {
	DriverAPIBaseURL string
	Timeout          time.Duration
	Retries          int
}

type RabbitMqconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

func (c *RabbitMqconfig) Enabled() bool { return c.Host != "" }

type Redisconfig struct {
	Addr     string
	CacheTTL time.Duration
}

func (c *Redisconfig) Enabled() bool { return c.Addr != "" }

type MQTTconfig struct {
	Broker   string
	ClientID string
}

func (c *MQTTconfig) Enabled() bool { return c.Broker != "" }

type Loggerconfig struct {
	Level string
}

// New reads the environment, after loading .env if one exists.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []string

	getEnv := func(key, def string) string {
		val, ok := os.LookupEnv(key)
		if !ok {
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return val
	}

	getEnvDuration := func(key string, def time.Duration) time.Duration {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := time.ParseDuration(valStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return val
	}

	cnf := &Config{
		Store: &Storeconfig{
			Driver:     getEnv("STORE_DRIVER", StorePostgres),
			SQLitePath: getEnv("SQLITE_PATH", "bustrack.db"),
		},
		DB: &DBconfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "bustrack"),
			Password:   getEnv("DB_PASSWORD", "bustrack"),
			Database:   getEnv("DB_NAME", "bustrack"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
		},
		Auth: &Authconfig{
			JwtSecret: getEnv("DRIVER_JWT_SECRET", "driver-secret-key"),
			TokenTTL:  getEnvDuration("DRIVER_TOKEN_TTL", 2*time.Hour),
		},
		Srv: &Serviceconfig{
			DriverServicePort: getEnv("DRIVER_SERVICE_PORT", "5001"),
			UserServicePort:   getEnv("USER_SERVICE_PORT", "5002"),
			AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Upstream: &Upstreamconfig{
			DriverAPIBaseURL: strings.TrimRight(getEnv("DRIVER_API_BASE_URL", DefaultDriverAPIBaseURL), "/"),
			Timeout:          getEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second),
			Retries:          clamp(getEnvInt("UPSTREAM_RETRIES", 1), 0, 1),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", ""),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Redis: &Redisconfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			CacheTTL: getEnvDuration("BUS_CACHE_TTL", 30*time.Second),
		},
		MQTT: &MQTTconfig{
			Broker:   getEnv("MQTT_BROKER", ""),
			ClientID: getEnv("MQTT_CLIENT_ID", "bustrack-driver-service"),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	if cnf.Store.Driver != StorePostgres && cnf.Store.Driver != StoreSQLite {
		errs = append(errs, fmt.Sprintf("STORE_DRIVER: unknown driver %q", cnf.Store.Driver))
	}
	if cnf.Auth.JwtSecret == "" {
		errs = append(errs, "DRIVER_JWT_SECRET: must not be empty")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return cnf, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
