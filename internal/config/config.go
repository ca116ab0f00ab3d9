package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Redis      RedisConfig
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Challenges ChallengesConfig `mapstructure:"challenges"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool   `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool   `mapstructure:"-"` // 仅迁移模式（迁移后退出）
	Path         string `mapstructure:"-"` // 配置文件所在目录
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// ChallengesConfig 每日挑战配置，Catalog 为每天实例化的模板列表
type ChallengesConfig struct {
	Timezone              string              `mapstructure:"timezone"`
	LockTTLSeconds        int                 `mapstructure:"lock_ttl_seconds"`
	LockWaitSeconds       int                 `mapstructure:"lock_wait_seconds"`
	CacheSize             int                 `mapstructure:"cache_size"`
	ReevaluateConcurrency int                 `mapstructure:"reevaluate_concurrency"`
	Catalog               []ChallengeTemplate `mapstructure:"catalog"`
}

type ChallengeTemplate struct {
	Kind        string         `mapstructure:"kind"`
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	TargetValue int            `mapstructure:"target_value"`
	Difficulty  string         `mapstructure:"difficulty"`
	Levels      []string       `mapstructure:"levels"`
	Rewards     TemplateReward `mapstructure:"rewards"`
}

type TemplateReward struct {
	XPBonus       int    `mapstructure:"xp_bonus"`
	StreakBonus   int    `mapstructure:"streak_bonus"`
	SpecialReward string `mapstructure:"special_reward"`
	Badge         string `mapstructure:"badge"`
}

func (c ChallengesConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func (c ChallengesConfig) LockWait() time.Duration {
	if c.LockWaitSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.LockWaitSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("THAI_LEARN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("challenges.cache_size", 64)
	v.SetDefault("challenges.reevaluate_concurrency", 8)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Challenges
	v.BindEnv("challenges.timezone", "CHALLENGES_TIMEZONE")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Path = path

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if _, err := time.LoadLocation(cfg.Challenges.Timezone); cfg.Challenges.Timezone != "" && err != nil {
		return nil, fmt.Errorf("invalid challenges.timezone %q: %w", cfg.Challenges.Timezone, err)
	}

	return &cfg, nil
}
