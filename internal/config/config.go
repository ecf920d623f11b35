package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration (MySQL, relational side)
	Database DatabaseConfig `json:"database"`

	// MongoDB Configuration (document side, chat messages)
	MongoDB MongoDBConfig `json:"mongodb"`

	// Firebase Configuration (push notifications)
	Firebase FirebaseConfig `json:"firebase"`

	// Notification Configuration
	Notification NotificationConfig `json:"notification"`

	// Chat Configuration (feed bridge + client sync tuning)
	Chat ChatConfig `json:"chat"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port          string `json:"port"`
	Host          string `json:"host"`
	ReadTimeout   int    `json:"read_timeout"`
	WriteTimeout  int    `json:"write_timeout"`
	Environment   string `json:"environment"` // development, staging, production
	WebhookSecret string `json:"-"`
}

// DatabaseConfig contains MySQL connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// MongoDBConfig contains the document store connection configuration
type MongoDBConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// FirebaseConfig contains Firebase Cloud Messaging configuration
type FirebaseConfig struct {
	ProjectID           string `json:"project_id"`
	CredentialsFilePath string `json:"credentials_file_path"`
	Enabled             bool   `json:"enabled"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Workers           int  `json:"workers"`             // Number of worker goroutines
	ChannelBufferSize int  `json:"channel_buffer_size"` // Event channel buffer size
	Enabled           bool `json:"enabled"`
}

// ChatConfig tunes the change feed bridge and the client sync engine.
//
// ReconcileWindow is the tolerance used to match an optimistic pending
// message against its server-confirmed counterpart (same body, same
// sender, timestamps within the window). Widening it risks merging two
// identical messages sent back to back by one user; narrowing it risks
// a brief duplicate until the next delta. 5s matches observed send
// round-trip times and is the default, not a law.
type ChatConfig struct {
	PollInterval      time.Duration `json:"poll_interval"`       // bridge store poll cadence
	StreamMaxLifetime time.Duration `json:"stream_max_lifetime"` // bridge self-termination backstop
	SnapshotLimit     int           `json:"snapshot_limit"`      // messages per snapshot fetch
	UpdatesLimit      int           `json:"updates_limit"`       // default limit for cursor fetches
	MaxBodyLen        int           `json:"max_body_len"`        // message body length bound
	ReconcileWindow   time.Duration `json:"reconcile_window"`
	ReconnectDelay    time.Duration `json:"reconnect_delay"` // client-side spacing between reconnect attempts
}

// Load builds a Config from environment variables, falling back to
// development defaults. godotenv is loaded by main before this runs.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnvOrDefault("SERVER_PORT", "8080"),
			Host:          getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:   getEnvIntOrDefault("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:  getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 15),
			Environment:   getEnvOrDefault("ENVIRONMENT", "development"),
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "villagesq_user"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", "villagesq_db"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDBConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: os.Getenv("MONGO_USER"),
			Password: os.Getenv("MONGO_PASSWORD"),
			Database: getEnvOrDefault("MONGO_DB", "villagesq_chat"),
		},
		Firebase: FirebaseConfig{
			ProjectID:           os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsFilePath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
			Enabled:             getEnvOrDefault("FIREBASE_ENABLED", "false") == "true",
		},
		Notification: NotificationConfig{
			Workers:           getEnvIntOrDefault("NOTIF_WORKERS", 4),
			ChannelBufferSize: getEnvIntOrDefault("NOTIF_BUFFER_SIZE", 1000),
			Enabled:           getEnvOrDefault("NOTIF_ENABLED", "true") == "true",
		},
		Chat: ChatConfig{
			PollInterval:      getEnvDurationOrDefault("CHAT_POLL_INTERVAL", 5*time.Second),
			StreamMaxLifetime: getEnvDurationOrDefault("CHAT_STREAM_MAX_LIFETIME", 30*time.Minute),
			SnapshotLimit:     getEnvIntOrDefault("CHAT_SNAPSHOT_LIMIT", 100),
			UpdatesLimit:      getEnvIntOrDefault("CHAT_UPDATES_LIMIT", 50),
			MaxBodyLen:        getEnvIntOrDefault("CHAT_MAX_BODY_LEN", 1000),
			ReconcileWindow:   getEnvDurationOrDefault("CHAT_RECONCILE_WINDOW", 5*time.Second),
			ReconnectDelay:    getEnvDurationOrDefault("CHAT_RECONNECT_DELAY", 5*time.Second),
		},
	}
}

// DSN builds the MySQL connection string from the database group.
func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

// GetMongoURI builds the MongoDB connection string from the mongodb group.
func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username != "" && cfg.MongoDB.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
			cfg.MongoDB.Username,
			cfg.MongoDB.Password,
			cfg.MongoDB.Host,
			cfg.MongoDB.Port,
			cfg.MongoDB.Database,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
