// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	JWTToken                `yaml:"jwttoken"`
	GoogleAuth              `yaml:"google"`
	PasswordHashing         `yaml:"password"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`

	// Ограничение частоты для открытых маршрутов /auth.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env-default:"5"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес означает, что redis не используется.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env-default:"3s"`
}

// RabbitMQ структура для настройки брокера. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// GoogleAuth настройки входа через Google. Пустой client id отключает вход.
type GoogleAuth struct {
	GoogleClientID string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
}

// PasswordHashing настройки хеширования паролей.
type PasswordHashing struct {
	BcryptSaltRounds int `yaml:"bcrypt_salt_rounds" env:"BCRYPT_SALT_ROUNDS" env-default:"12"`
}

// Scheduler настройки ежедневного списания дней подписки.
type Scheduler struct {
	DecrementSpec string        `yaml:"decrement_spec" env-default:"0 0 * * *"`
	Timezone      string        `yaml:"timezone" env-default:"UTC"`
	RunTimeout    time.Duration `yaml:"run_timeout" env-default:"10m"`
	DailyGuard    bool          `yaml:"daily_guard"`

	// Адрес, на котором планировщик отдаёт /metrics.
	MetricsAddress string `yaml:"metrics_address" env-default:":9091"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH. Перед этим подхватывает .env, если он есть.
func MustLoad() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Fatalf("cannot load .env: %s", err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("%s: invalid scheduler timezone %q: %w", op, cfg.Timezone, err)
	}
	return &cfg, nil
}

// Location возвращает часовой пояс планировщика. Значение уже проверено в Load.
func (s Scheduler) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
