package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Midtrans   MidtransConfig
	Email      EmailConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Invitation InvitationConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port            string
	BaseURL         string
	StaticDir       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver       string // mysql, postgres or sqlite
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	DSN          string // overrides the discrete fields when set
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

type MidtransConfig struct {
	ServerKey        string
	ClientKey        string
	SnapURL          string
	APIURL           string
	SessionTimeout   time.Duration
	StatusTimeout    time.Duration
	RequireSignature bool
	CACertPath       string
}

type EmailConfig struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topics  TopicConfig
}

type TopicConfig struct {
	Transactions string
	Invitations  string
}

type InvitationConfig struct {
	DefaultTemplateID string
	ExtraFields       []string
}

type LogConfig struct {
	Dir string
}

func Load() *Config {
	port := getEnv("PORT", "3000")

	return &Config{
		Server: ServerConfig{
			Port:            port,
			BaseURL:         strings.TrimRight(getEnv("BASE_URL", "https://localhost:"+port), "/"),
			StaticDir:       getEnv("STATIC_DIR", ""),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "root"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "wedding_db"),
			DSN:          getEnv("DB_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Midtrans: MidtransConfig{
			ServerKey:        getEnv("MIDTRANS_SERVER_KEY", ""),
			ClientKey:        getEnv("MIDTRANS_CLIENT_KEY", ""),
			SnapURL:          getEnv("MIDTRANS_SNAP_URL", "https://app.midtrans.com/snap/v1/transactions"),
			APIURL:           strings.TrimRight(getEnv("MIDTRANS_API_URL", "https://api.midtrans.com"), "/"),
			SessionTimeout:   getEnvDuration("MIDTRANS_SESSION_TIMEOUT", 30*time.Second),
			StatusTimeout:    getEnvDuration("MIDTRANS_STATUS_TIMEOUT", 10*time.Second),
			RequireSignature: getEnvBool("MIDTRANS_REQUIRE_SIGNATURE", false),
			CACertPath:       getEnv("MIDTRANS_CA_CERT_PATH", ""),
		},
		Email: EmailConfig{
			Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			Secure:   getEnvBool("EMAIL_SECURE", false),
			Username: getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", ""),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", ""),
			LockTTL: getEnvDuration("PAYMENT_LOCK_TTL", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topics: TopicConfig{
				Transactions: getEnv("KAFKA_TOPIC_TRANSACTIONS", "rabbitmoon.transactions"),
				Invitations:  getEnv("KAFKA_TOPIC_INVITATIONS", "rabbitmoon.invitations"),
			},
		},
		Invitation: InvitationConfig{
			DefaultTemplateID: getEnv("DEFAULT_TEMPLATE_ID", "basic"),
			ExtraFields:       getEnvList("INVITATION_EXTRA_FIELDS", nil),
		},
		Log: LogConfig{
			Dir: getEnv("LOG_DIR", "logs"),
		},
	}
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	var missing []string

	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Database == "") {
			missing = append(missing, "DB_HOST/DB_NAME or DB_DSN")
		}
	case "sqlite":
		if c.Database.DSN == "" {
			missing = append(missing, "DB_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Server.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		missing = append(missing, "KAFKA_BROKERS")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
