package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Credential   CredentialConfig
	Provider     ProviderConfig
	Poller       PollerConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INKDROP_APP_ENV" required:"true"`
	Port         string `envconfig:"INKDROP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INKDROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INKDROP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"INKDROP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"INKDROP_DB_DSN"`
	Driver string `envconfig:"INKDROP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INKDROP_DB_HOST"`
	LegacyPort     int    `envconfig:"INKDROP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INKDROP_DB_USER"`
	LegacyPassword string `envconfig:"INKDROP_DB_PASSWORD"`
	LegacyName     string `envconfig:"INKDROP_DB_NAME"`
	LegacySSLMode  string `envconfig:"INKDROP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INKDROP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INKDROP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INKDROP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INKDROP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INKDROP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INKDROP_REDIS_ADDR"`
	Password     string        `envconfig:"INKDROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"INKDROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INKDROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INKDROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INKDROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INKDROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INKDROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"INKDROP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"INKDROP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"INKDROP_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CredentialConfig tunes the argon2id parameters for guest credential hashes.
type CredentialConfig struct {
	ArgonMemoryKB    int `envconfig:"INKDROP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INKDROP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INKDROP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INKDROP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INKDROP_ARGON_KEY_LEN" default:"32"`
}

// ProviderConfig points at the external generative image provider.
type ProviderConfig struct {
	BaseURL string        `envconfig:"INKDROP_PROVIDER_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"INKDROP_PROVIDER_API_KEY"`
	Timeout time.Duration `envconfig:"INKDROP_PROVIDER_TIMEOUT" default:"30s"`

	// Hosts whose URLs are treated as volatile, time-limited references.
	VolatileHosts []string `envconfig:"INKDROP_PROVIDER_VOLATILE_HOSTS" default:"cdn.inkdrop-gen.ai,blob.core.windows.net"`
}

// PollerConfig bounds the client durability poll loop.
type PollerConfig struct {
	Interval    time.Duration `envconfig:"INKDROP_POLL_INTERVAL" default:"1s"`
	MaxAttempts int           `envconfig:"INKDROP_POLL_MAX_ATTEMPTS" default:"12"`
}

type RateLimitConfig struct {
	GenerateWindow time.Duration `envconfig:"INKDROP_RATE_LIMIT_GENERATE_WINDOW" default:"1m"`
	GenerateLimit  int           `envconfig:"INKDROP_RATE_LIMIT_GENERATE_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INKDROP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INKDROP_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"INKDROP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"INKDROP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"INKDROP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"INKDROP_GCS_BUCKET_NAME" required:"true"`
	// Public base used to build durable URLs, e.g. https://storage.googleapis.com.
	PublicBaseURL string `envconfig:"INKDROP_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type PubSubConfig struct {
	ArtifactTopic        string `envconfig:"INKDROP_PUBSUB_ARTIFACT_TOPIC" required:"true"`
	ArtifactSubscription string `envconfig:"INKDROP_PUBSUB_ARTIFACT_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"INKDROP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"INKDROP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"INKDROP_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"INKDROP_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
