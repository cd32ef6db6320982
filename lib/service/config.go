package service

import (
	"github.com/getAlby/rgbhub.go/db"
)

type Config struct {
	DatabaseUri                  string  `envconfig:"DATABASE_URI" default:"file:rgbhub.db?cache=shared"`
	DatabaseMaxConns             int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns         int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime      int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN                    string  `envconfig:"SENTRY_DSN"`
	DatadogAgentUrl              string  `envconfig:"DATADOG_AGENT_URL"`
	SentryTracesSampleRate       float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath                  string  `envconfig:"LOG_FILE_PATH"`
	LogLevel                     int     `envconfig:"LOG_LEVEL" default:"1"` // gommon levels, 1 is DEBUG
	JWTSecret                    []byte  `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessTokenExpiry         int     `envconfig:"JWT_ACCESS_EXPIRY" default:"172800"` // in seconds, default 2 days
	AdminToken                   string  `envconfig:"ADMIN_TOKEN"`
	Host                         string  `envconfig:"HOST" default:"localhost:3000"`
	Port                         int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit             int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit              int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit               int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus             bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort               int     `envconfig:"PROMETHEUS_PORT" default:"9092"`
	WebhookUrl                   string  `envconfig:"WEBHOOK_URL"`
	RabbitMQUri                  string  `envconfig:"RABBITMQ_URI"`
	RabbitMQEventExchange        string  `envconfig:"RABBITMQ_EVENT_EXCHANGE" default:"rgbhub_event"`
	RabbitMQRefreshExchange      string  `envconfig:"RABBITMQ_REFRESH_EXCHANGE" default:"rgbhub_refresh"`
	RabbitMQRefreshQueueName     string  `envconfig:"RABBITMQ_REFRESH_QUEUE_NAME" default:"rgbhub_refresh_consumer"`
	RefreshInterval              int     `envconfig:"REFRESH_INTERVAL" default:"15"`    // in seconds
	RefreshMaxBackoff            int     `envconfig:"REFRESH_MAX_BACKOFF" default:"60"` // in seconds
	RefreshWorkers               int     `envconfig:"REFRESH_WORKERS" default:"4"`
	MediaCacheSize               int     `envconfig:"MEDIA_CACHE_SIZE" default:"64"`
	BitcoindRPCUser              string  `envconfig:"BITCOIND_RPC_USER" default:"user"`
	BitcoindRPCPassword          string  `envconfig:"BITCOIND_RPC_PASSWORD" default:"password"`
	BackupDir                    string  `envconfig:"BACKUP_DIR" default:"./backups"`
	BackupEmailID                string  `envconfig:"BACKUP_EMAIL_ID"`
	BackupEmailPassword          string  `envconfig:"BACKUP_EMAIL_PASSWORD"`
	GoogleAuthenticator          string  `envconfig:"GOOGLE_AUTHENTICATOR"`
	NativeAuthenticationPassword string  `envconfig:"NATIVE_AUTHENTICATION_PASSWORD"`
	KeyringService               string  `envconfig:"KEYRING_SERVICE" default:"rgbhub"`
}

func (c *Config) DBConfig() *db.Config {
	return &db.Config{
		DatabaseUri:             c.DatabaseUri,
		DatabaseMaxConns:        c.DatabaseMaxConns,
		DatabaseMaxIdleConns:    c.DatabaseMaxIdleConns,
		DatabaseConnMaxLifetime: c.DatabaseConnMaxLifetime,
		DatadogAgentUrl:         c.DatadogAgentUrl,
	}
}
