package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App        AppSettings        `mapstructure:"app"`
	Mongo      MongoSettings      `mapstructure:"mongo"`
	Redis      RedisSettings      `mapstructure:"redis"`
	Kafka      KafkaSettings      `mapstructure:"kafka"`
	Session    SessionSettings    `mapstructure:"session"`
	Telemetry  TelemetrySettings  `mapstructure:"telemetry"`
	RateLimit  RateLimitSettings  `mapstructure:"rate_limit"`
	PBKDF2     PBKDF2Settings     `mapstructure:"pbkdf2"`
	Password   PasswordSettings   `mapstructure:"password"`
	Revocation RevocationSettings `mapstructure:"revocation"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IsTestEnv reports whether the service runs under a test environment, which
// relaxes a few response behaviors such as echoing reset tokens.
func (s AppSettings) IsTestEnv() bool {
	return s.Env == "test"
}

type MongoSettings struct {
	URI              string        `mapstructure:"uri"`
	Database         string        `mapstructure:"database"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	DB               int           `mapstructure:"db"`
	Password         string        `mapstructure:"password"`
	TLSEnabled       bool          `mapstructure:"tls_enabled"`
	RevocationPrefix string        `mapstructure:"revocation_prefix"`
	RevocationTTL    time.Duration `mapstructure:"revocation_ttl"`
	RateLimitPrefix  string        `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// SessionSettings configures token issuance.
type SessionSettings struct {
	Issuer        string        `mapstructure:"issuer"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	InviteSecret  string        `mapstructure:"invite_secret"`
	InviteTTL     time.Duration `mapstructure:"invite_ttl"`
	ResetTTL      time.Duration `mapstructure:"reset_ttl"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

// PBKDF2Settings configures PBKDF2-SHA512 password hashing parameters
type PBKDF2Settings struct {
	Iterations int `mapstructure:"iterations"`
	SaltLength int `mapstructure:"salt_length"`
	KeyLength  int `mapstructure:"key_length"`
}

// PasswordSettings configures the password acceptance policy.
type PasswordSettings struct {
	Pattern          string `mapstructure:"pattern"`
	MinStrengthScore int    `mapstructure:"min_strength_score"`
}

type TelemetrySettings struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	ServiceName    string `mapstructure:"service_name"`
}

type RevocationSettings struct {
	DegradationPolicy string `mapstructure:"degradation_policy"`
}

// defaults is the full configuration surface. Every key listed here is also
// overridable through the environment, with or without the AUTH_ prefix
// (session.session_secret -> AUTH_SESSION_SESSION_SECRET).
var defaults = map[string]any{
	"app.name":            "admin-auth",
	"app.env":             "development",
	"app.host":            "0.0.0.0",
	"app.port":            8080,
	"app.allowed_origins": []string{"*"},

	"mongo.uri":               "mongodb://localhost:27017",
	"mongo.database":          "admin_auth",
	"mongo.operation_timeout": "5s",

	"redis.host":              "localhost",
	"redis.port":              6379,
	"redis.db":                0,
	"redis.password":          "",
	"redis.tls_enabled":       false,
	"redis.revocation_prefix": "auth:revoked",
	"redis.revocation_ttl":    "48h",
	"redis.rate_limit_prefix": "auth:ratelimit",

	"kafka.brokers":      []string{"localhost:9092"},
	"kafka.topic_prefix": "auth",

	"session.issuer":         "admin-auth",
	"session.session_secret": "",
	"session.session_ttl":    "12h",
	"session.invite_secret":  "",
	"session.invite_ttl":     "3h",
	"session.reset_ttl":      "24h",

	"telemetry.metrics_enabled": true,
	"telemetry.service_name":    "admin-auth",

	"rate_limit.window_duration":             "1m",
	"rate_limit.login_max_attempts":          5,
	"rate_limit.password_reset_max_attempts": 3,

	"pbkdf2.iterations":  10000,
	"pbkdf2.salt_length": 16,
	"pbkdf2.key_length":  512,

	"password.pattern":            "",
	"password.min_strength_score": 0,

	"revocation.degradation_policy": "lenient",
}

// Load resolves the configuration from defaults and environment variables.
// The session signing secret has no usable default and must be provided.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("AUTH")

	for key, value := range defaults {
		v.SetDefault(key, value)
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "AUTH_"+envKey, envKey); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Session.SessionSecret == "" {
		return nil, fmt.Errorf("session.session_secret must be set")
	}

	return &cfg, nil
}
