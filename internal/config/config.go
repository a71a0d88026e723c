package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultResourceID = "i-0293dc76e816f7b99"
	defaultRegion     = "us-east-1"
)

// Config конфигурация приложения
type Config struct {
	ResourceID         string        `yaml:"resource_id" validate:"required"`
	Region             string        `yaml:"region" validate:"required"`
	Window             time.Duration `yaml:"window" validate:"gt=0"`
	Period             time.Duration `yaml:"period" validate:"gt=0,ltefield=Window,whole_seconds"`
	CloudWatchEndpoint string        `yaml:"cloudwatch_endpoint" validate:"omitempty,url"`
	Server             ServerConfig  `yaml:"server"`
	Redis              RedisConfig   `yaml:"redis"`
}

// ServerConfig параметры HTTP сервера
type ServerConfig struct {
	Port  string `yaml:"port" validate:"required,numeric"`
	Debug bool   `yaml:"debug"`
}

// RedisConfig хранилище счетчиков запусков. Пустой Addr отключает Redis.
type RedisConfig struct {
	Addr           string        `yaml:"addr" validate:"omitempty,hostname_port"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db" validate:"gte=0"`
	StatsRetention time.Duration `yaml:"stats_retention" validate:"gt=0"`
}

// wholeSeconds CloudWatch принимает период только в целых секундах
func wholeSeconds(fl validator.FieldLevel) bool {
	return time.Duration(fl.Field().Int())%time.Second == 0
}

// Default значения по умолчанию
func Default() Config {
	return Config{
		ResourceID: defaultResourceID,
		Region:     defaultRegion,
		Window:     3 * time.Hour,
		Period:     5 * time.Minute,
		Server: ServerConfig{
			Port: "5000",
		},
		Redis: RedisConfig{
			StatsRetention: 24 * time.Hour,
		},
	}
}

// Load читает YAML файл (если path не пустой), затем применяет environment
// и валидирует результат
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	v := validator.New()
	if err := v.RegisterValidation("whole_seconds", wholeSeconds); err != nil {
		return nil, err
	}
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv environment переопределяет значения из файла
func (c *Config) applyEnv() {
	c.ResourceID = getEnv("RESOURCE_ID", c.ResourceID)
	c.Region = getEnv("AWS_REGION", c.Region)
	c.Window = getEnvAsDuration("METRIC_WINDOW", c.Window)
	c.Period = getEnvAsDuration("METRIC_PERIOD", c.Period)
	c.CloudWatchEndpoint = getEnv("CLOUDWATCH_ENDPOINT", c.CloudWatchEndpoint)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Debug = getEnvAsBool("DEBUG", c.Server.Debug)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	if hours := getEnvAsInt("STATS_RETENTION_HOURS", 0); hours > 0 {
		c.Redis.StatsRetention = time.Duration(hours) * time.Hour
	}
}

// getEnv получает environment variable или возвращает default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt получает environment variable как int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool получает environment variable как bool
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration получает environment variable как time.Duration ("3h", "5m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
