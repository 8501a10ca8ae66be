package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxel-engine/internal/util"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Generator GeneratorConfig `yaml:"generator"`
	Streaming StreamingConfig `yaml:"streaming"`
	Storage   StorageConfig   `yaml:"storage"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed int64 `yaml:"seed"`
	// ID экземпляра мира; пустой означает новый ID при каждом запуске
	ID string `yaml:"id"`
}

type GeneratorConfig struct {
	SeaLevel      int32            `yaml:"sea_level"`
	ScaleFactor   float64          `yaml:"scale_factor"`
	Elevation     util.NoiseParams `yaml:"elevation"`
	Climate       util.NoiseParams `yaml:"climate"`
	ClimateScale  float64          `yaml:"climate_scale"`
	DirtDepth     int32            `yaml:"dirt_depth"`
	SandThreshold float64          `yaml:"sand_threshold"`
}

type StreamingConfig struct {
	RenderRadius     int `yaml:"render_radius"`
	MaxInFlightLoads int `yaml:"max_inflight_loads"`
	// Workers ограничивает число одновременно выполняемых задач загрузки и мешинга
	Workers int `yaml:"workers"`
}

type StorageConfig struct {
	// Backend: badger, sqlite, mysql, redis, memory
	Backend     string      `yaml:"backend"`
	Path        string      `yaml:"path"`
	DSN         string      `yaml:"dsn"`
	Redis       RedisConfig `yaml:"redis"`
	Compression bool        `yaml:"compression"`
	// RedisCache включает Redis как горячий кеш перед основным backend
	RedisCache bool `yaml:"redis_cache"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type PhysicsConfig struct {
	Gravity float64 `yaml:"gravity"`
	// Friction задаёт коэффициент горизонтального затухания скорости в секунду
	Friction float64 `yaml:"friction"`
}

type ServerConfig struct {
	TickRate    int  `yaml:"tick_rate"`
	MetricsPort int  `yaml:"metrics_port"`
	Telemetry   bool `yaml:"telemetry"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{Seed: 0},
		Generator: GeneratorConfig{
			SeaLevel:    60,
			ScaleFactor: 250,
			Elevation:   util.DefaultElevationParams(),
			Climate: util.NoiseParams{
				Octaves:     1,
				Amplitude:   1,
				Frequency:   1,
				Persistence: 0.5,
				Lacunarity:  2,
			},
			ClimateScale:  400,
			DirtDepth:     3,
			SandThreshold: 0.7,
		},
		Streaming: StreamingConfig{
			RenderRadius:     6,
			MaxInFlightLoads: 25,
			Workers:          8,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "data",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "voxel:",
			},
		},
		Physics: PhysicsConfig{
			Gravity:  9.81 * 2.5,
			Friction: 9,
		},
		Server: ServerConfig{
			TickRate: 20,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Streaming.RenderRadius < 0 {
		return fmt.Errorf("streaming.render_radius не может быть отрицательным: %d", c.Streaming.RenderRadius)
	}
	if c.Streaming.MaxInFlightLoads <= 0 {
		return fmt.Errorf("streaming.max_inflight_loads должен быть больше 0")
	}
	if c.Streaming.Workers <= 0 {
		return fmt.Errorf("streaming.workers должен быть больше 0")
	}
	if c.Generator.ScaleFactor <= 0 || c.Generator.ClimateScale <= 0 {
		return fmt.Errorf("масштабы генератора должны быть положительными")
	}
	switch c.Storage.Backend {
	case "badger", "sqlite", "mysql", "redis", "memory":
	default:
		return fmt.Errorf("неизвестный backend хранилища: %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "mysql" && c.Storage.GetDSN() == "" {
		return fmt.Errorf("для backend mysql требуется storage.dsn или VOXEL_MYSQL_DSN")
	}
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate должен быть больше 0")
	}
	return nil
}

// GetDSN возвращает DSN с приоритетом: config -> env
func (s *StorageConfig) GetDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	return os.Getenv("VOXEL_MYSQL_DSN")
}

// GetRedisAddr возвращает адрес Redis с приоритетом: env -> config
func (s *StorageConfig) GetRedisAddr() string {
	if addr := os.Getenv("VOXEL_REDIS_ADDR"); addr != "" {
		return addr
	}
	return s.Redis.Addr
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// TickInterval возвращает длительность одного тика
func (s *ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
