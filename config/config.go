package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"

	SpoolBackendMinio = "minio"
	SpoolBackendGCS   = "gcs"
)

type Config struct {
	ServerHost     string
	ServerPort     int
	AllowedOrigins []string
	Log            LogConfig
	Database       DatabaseConfig
	MQBackend      string
	RabbitMQ       RabbitMQConfig
	PubSub         PubSubConfig
	Events         EventsConfig
	Hasher         HasherConfig
	SpoolBackend   string
	Minio          MinioConfig
	GCS            GCSConfig
}

type LogConfig struct {
	Format string
	Level  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type RabbitMQConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	VHost       string
	DialTimeout time.Duration
}

// URL builds the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	vhost := strings.TrimPrefix(c.VHost, "/")
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, vhost)
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type EventsConfig struct {
	Queue          string
	PublishTimeout time.Duration
}

type HasherConfig struct {
	Iterations int
	KeyLength  int
	SaltLength int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", ""),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	rabbitConfig := RabbitMQConfig{
		Host:        getEnv("RABBITMQ_HOST", ""),
		Port:        getEnvInt("RABBITMQ_PORT", 5672),
		User:        getEnv("RABBITMQ_USER", "guest"),
		Password:    getEnv("RABBITMQ_PASSWORD", "guest"),
		VHost:       getEnv("RABBITMQ_VHOST", "/"),
		DialTimeout: getEnvDuration("RABBITMQ_DIAL_TIMEOUT", 3*time.Second),
	}

	return Config{
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:     getEnvInt("SERVER_PORT", 5002),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "text"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
		Database:  dbConfig,
		MQBackend: strings.ToLower(getEnv("MQ_BACKEND", MQBackendRabbitMQ)),
		RabbitMQ:  rabbitConfig,
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Events: EventsConfig{
			Queue:          getEnv("RABBITMQ_QUEUE", "user-events"),
			PublishTimeout: getEnvDuration("PUBLISH_TIMEOUT", 5*time.Second),
		},
		Hasher: HasherConfig{
			Iterations: getEnvInt("HASH_ITERATIONS", 100000),
			KeyLength:  getEnvInt("HASH_KEY_LENGTH", 64),
			SaltLength: getEnvInt("HASH_SALT_LENGTH", 16),
		},
		SpoolBackend: strings.ToLower(getEnv("SPOOL_BACKEND", "")),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "user-events-spool"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}
}

// Validate reports every missing setting the service cannot start without.
func (c Config) Validate() error {
	var errs []error

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.Database.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}

	switch c.MQBackend {
	case MQBackendRabbitMQ:
		if c.RabbitMQ.Host == "" {
			errs = append(errs, errors.New("RABBITMQ_HOST is required"))
		}
	case MQBackendPubSub:
		if c.PubSub.ProjectID == "" {
			errs = append(errs, errors.New("PUBSUB_PROJECT_ID is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MQ_BACKEND %q", c.MQBackend))
	}
	if strings.TrimSpace(c.Events.Queue) == "" {
		errs = append(errs, errors.New("RABBITMQ_QUEUE must not be empty"))
	}
	if c.Events.PublishTimeout <= 0 {
		errs = append(errs, errors.New("PUBLISH_TIMEOUT must be positive"))
	}

	if c.Hasher.Iterations < 1 || c.Hasher.KeyLength < 1 || c.Hasher.SaltLength < 1 {
		errs = append(errs, errors.New("HASH_ITERATIONS, HASH_KEY_LENGTH and HASH_SALT_LENGTH must be positive"))
	}

	switch c.SpoolBackend {
	case "", SpoolBackendMinio, SpoolBackendGCS:
	default:
		errs = append(errs, fmt.Errorf("unknown SPOOL_BACKEND %q", c.SpoolBackend))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on", "require":
			return true
		default:
			return false
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			values = append(values, value)
		}
	}
	return values
}
