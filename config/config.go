package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Withdrawal WithdrawalConfig `yaml:"withdrawal"`
	Push       PushConfig       `yaml:"push"`
	Notify     NotifyConfig     `yaml:"notify"`
	AI         AIConfig         `yaml:"ai"`
	Auth       AuthConfig       `yaml:"auth"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// MonitorConfig holds the health monitor intervals and liveness thresholds.
// The thresholds classify elapsed time since an ATM's last liveness ping.
type MonitorConfig struct {
	Enabled                 bool `yaml:"enabled"`
	PingIntervalSeconds     int  `yaml:"ping_interval_seconds"`
	EvaluateIntervalSeconds int  `yaml:"evaluate_interval_seconds"`
	WarningAfterSeconds     int  `yaml:"warning_after_seconds"`
	CriticalAfterSeconds    int  `yaml:"critical_after_seconds"`
	DegradedAfterSeconds    int  `yaml:"degraded_after_seconds"`

	PingInterval     time.Duration `yaml:"-"`
	EvaluateInterval time.Duration `yaml:"-"`
	WarningAfter     time.Duration `yaml:"-"`
	CriticalAfter    time.Duration `yaml:"-"`
	DegradedAfter    time.Duration `yaml:"-"`
}

// WithdrawalConfig holds the withdrawal simulator settings.
type WithdrawalConfig struct {
	CorrectPIN     string `yaml:"correct_pin"`
	MaxPINAttempts int    `yaml:"max_pin_attempts"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// NotifyConfig holds the outbound text/email provider endpoints.
type NotifyConfig struct {
	TextURL        string `yaml:"text_url"`
	TextAPIKey     string `yaml:"text_api_key"`
	EmailURL       string `yaml:"email_url"`
	EmailAPIKey    string `yaml:"email_api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AIConfig holds the text-generation collaborator settings.
type AIConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AuthConfig holds the JWT verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	// The thresholds must stay ordered warning < critical < degraded for
	// classification to make sense.
	if cfg.Monitor.PingIntervalSeconds <= 0 {
		cfg.Monitor.PingIntervalSeconds = 300
	}
	if cfg.Monitor.EvaluateIntervalSeconds <= 0 {
		cfg.Monitor.EvaluateIntervalSeconds = 5
	}
	if cfg.Monitor.WarningAfterSeconds <= 0 {
		cfg.Monitor.WarningAfterSeconds = 6
	}
	if cfg.Monitor.CriticalAfterSeconds <= 0 {
		cfg.Monitor.CriticalAfterSeconds = 10
	}
	if cfg.Monitor.DegradedAfterSeconds <= 0 {
		cfg.Monitor.DegradedAfterSeconds = 15
	}
	cfg.Monitor.PingInterval = time.Duration(cfg.Monitor.PingIntervalSeconds) * time.Second
	cfg.Monitor.EvaluateInterval = time.Duration(cfg.Monitor.EvaluateIntervalSeconds) * time.Second
	cfg.Monitor.WarningAfter = time.Duration(cfg.Monitor.WarningAfterSeconds) * time.Second
	cfg.Monitor.CriticalAfter = time.Duration(cfg.Monitor.CriticalAfterSeconds) * time.Second
	cfg.Monitor.DegradedAfter = time.Duration(cfg.Monitor.DegradedAfterSeconds) * time.Second

	if cfg.Withdrawal.CorrectPIN == "" {
		cfg.Withdrawal.CorrectPIN = "1234"
	}
	if cfg.Withdrawal.MaxPINAttempts <= 0 {
		cfg.Withdrawal.MaxPINAttempts = 3
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Notify.TimeoutSeconds <= 0 {
		cfg.Notify.TimeoutSeconds = 10
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash"
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
