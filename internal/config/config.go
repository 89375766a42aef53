package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// Role selects which halves of the pipeline a process runs.
type Role string

const (
	RoleAll    Role = "all"
	RoleAPI    Role = "api"
	RoleWorker Role = "worker"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Credits    CreditsConfig
	Queue      QueueConfig
	Redispatch RedispatchConfig
	Agent      AgentConfig
	Webhook    WebhookConfig
	Admin      AdminConfig
	RateLimit  RateLimitConfig
	Secure     SecureConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port            string
	Role            Role
	ShutdownTimeout time.Duration
}

// DatabaseConfig: an empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL            string
	MaxConns       int32
	MigrateOnStart bool
}

// RedisConfig: an empty URL selects the in-process queue and memory rate limit store.
type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	PublicKeyPath  string
	PrivateKeyPath string
	Issuer         string
	Audience       string
}

type CreditsConfig struct {
	FreePoints     int64
	ProPoints      int64
	WindowHours    int64
	GenerationCost int64
}

type QueueConfig struct {
	Name        string
	MaxRetry    int
	Timeout     time.Duration
	Retention   time.Duration
	Concurrency int
}

type RedispatchConfig struct {
	Interval time.Duration
	After    time.Duration
}

// AgentConfig: an empty URL selects the static generator.
type AgentConfig struct {
	URL            string
	Token          string
	SandboxBaseURL string
}

type WebhookConfig struct {
	URL    string
	Secret string
}

// AdminConfig guards /admin/*. Secret may be plain text or an argon2id
// encoding produced by `scaffoldctl hash-secret`.
type AdminConfig struct {
	Secret          string
	MaxFailures     int
	LockoutCooldown time.Duration
}

type RateLimitConfig struct {
	RatePerIP   string
	RatePerUser string
}

type SecureConfig struct {
	IsDevelopment bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ROLE", string(RoleAll))
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("DATABASE_MIGRATE", true)
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("CREDITS_FREE_POINTS", 5)
	v.SetDefault("CREDITS_PRO_POINTS", 100)
	v.SetDefault("CREDITS_WINDOW_HOURS", 720)
	v.SetDefault("GENERATION_COST", 1)
	v.SetDefault("QUEUE_NAME", "generation")
	v.SetDefault("QUEUE_MAX_RETRY", 5)
	v.SetDefault("QUEUE_TIMEOUT_SECONDS", 600)
	v.SetDefault("QUEUE_RETENTION_HOURS", 24)
	v.SetDefault("QUEUE_CONCURRENCY", 4)
	v.SetDefault("REDISPATCH_INTERVAL_SECONDS", 60)
	v.SetDefault("REDISPATCH_AFTER_SECONDS", 300)
	v.SetDefault("RATE_LIMIT_PER_IP", "300-M")
	v.SetDefault("RATE_LIMIT_PER_USER", "30-M")
	v.SetDefault("SECURE_DEVELOPMENT", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("ADMIN_MAX_FAILURES", 5)
	v.SetDefault("ADMIN_LOCKOUT_SECONDS", 900)
}

// Load reads the environment, plus CONFIG_FILE when set.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			Role:            Role(strings.ToLower(v.GetString("ROLE"))),
			ShutdownTimeout: seconds(v, "SHUTDOWN_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			MaxConns:       v.GetInt32("DATABASE_MAX_CONNS"),
			MigrateOnStart: v.GetBool("DATABASE_MIGRATE"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		JWT: JWTConfig{
			PublicKeyPath:  v.GetString("JWT_PUBLIC_KEY_PATH"),
			PrivateKeyPath: v.GetString("JWT_PRIVATE_KEY_PATH"),
			Issuer:         v.GetString("JWT_ISSUER"),
			Audience:       v.GetString("JWT_AUDIENCE"),
		},
		Credits: CreditsConfig{
			FreePoints:     v.GetInt64("CREDITS_FREE_POINTS"),
			ProPoints:      v.GetInt64("CREDITS_PRO_POINTS"),
			WindowHours:    v.GetInt64("CREDITS_WINDOW_HOURS"),
			GenerationCost: v.GetInt64("GENERATION_COST"),
		},
		Queue: QueueConfig{
			Name:        v.GetString("QUEUE_NAME"),
			MaxRetry:    v.GetInt("QUEUE_MAX_RETRY"),
			Timeout:     seconds(v, "QUEUE_TIMEOUT_SECONDS"),
			Retention:   time.Duration(v.GetInt64("QUEUE_RETENTION_HOURS")) * time.Hour,
			Concurrency: v.GetInt("QUEUE_CONCURRENCY"),
		},
		Redispatch: RedispatchConfig{
			Interval: seconds(v, "REDISPATCH_INTERVAL_SECONDS"),
			After:    seconds(v, "REDISPATCH_AFTER_SECONDS"),
		},
		Agent: AgentConfig{
			URL:            v.GetString("AGENT_URL"),
			Token:          v.GetString("AGENT_TOKEN"),
			SandboxBaseURL: v.GetString("SANDBOX_BASE_URL"),
		},
		Webhook: WebhookConfig{
			URL:    v.GetString("WEBHOOK_URL"),
			Secret: v.GetString("WEBHOOK_SECRET"),
		},
		Admin: AdminConfig{
			Secret:          v.GetString("ADMIN_SECRET"),
			MaxFailures:     v.GetInt("ADMIN_MAX_FAILURES"),
			LockoutCooldown: seconds(v, "ADMIN_LOCKOUT_SECONDS"),
		},
		RateLimit: RateLimitConfig{
			RatePerIP:   v.GetString("RATE_LIMIT_PER_IP"),
			RatePerUser: v.GetString("RATE_LIMIT_PER_USER"),
		},
		Secure: SecureConfig{
			IsDevelopment: v.GetBool("SECURE_DEVELOPMENT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Role {
	case RoleAll, RoleAPI, RoleWorker:
	default:
		return fmt.Errorf("ROLE must be all, api or worker, got %q", c.Server.Role)
	}
	if c.Credits.GenerationCost < 0 {
		return fmt.Errorf("GENERATION_COST must not be negative")
	}
	if c.Credits.FreePoints < 0 || c.Credits.ProPoints < 0 {
		return fmt.Errorf("CREDITS_*_POINTS must not be negative")
	}
	if c.Credits.WindowHours <= 0 {
		return fmt.Errorf("CREDITS_WINDOW_HOURS must be positive")
	}
	if c.Server.Role != RoleAll && c.Redis.URL == "" {
		return fmt.Errorf("ROLE=%s needs REDIS_URL: split roles share the job bus", c.Server.Role)
	}
	return nil
}

// CreditPolicy returns the ledger policy.
func (c *Config) CreditPolicy() domain.CreditPolicy {
	return domain.CreditPolicy{
		FreePoints: c.Credits.FreePoints,
		ProPoints:  c.Credits.ProPoints,
		Window:     time.Duration(c.Credits.WindowHours) * time.Hour,
	}
}

// RunsAPI reports whether this process serves HTTP.
func (c *Config) RunsAPI() bool { return c.Server.Role != RoleWorker }

// RunsWorker reports whether this process consumes jobs.
func (c *Config) RunsWorker() bool { return c.Server.Role != RoleAPI }

// LoadJWTPublicKey reads the PEM file, or returns nil when unset.
func (c *Config) LoadJWTPublicKey() ([]byte, error) {
	if c.JWT.PublicKeyPath == "" {
		return nil, nil
	}
	return os.ReadFile(c.JWT.PublicKeyPath)
}

// LoadJWTPrivateKey reads the PEM file, or returns nil when unset.
func (c *Config) LoadJWTPrivateKey() ([]byte, error) {
	if c.JWT.PrivateKeyPath == "" {
		return nil, nil
	}
	return os.ReadFile(c.JWT.PrivateKeyPath)
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
