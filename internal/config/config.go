package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// DefaultSQLitePath is the database file used when the sqlite driver has no
// STORAGE_DSN.
const DefaultSQLitePath = "creatorhub.db"

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `env:"APP_NAME" env-default:"CreatorHub"`
	AppEnv         string        `env:"APP_ENV" env-default:"development"`
	Port           string        `env:"PORT" env-default:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	Storage Storage

	RedisURL       string        `env:"REDIS_URL"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" env-default:"24h"`
	LoginAttempts  int           `env:"LOGIN_ATTEMPTS_PER_MINUTE" env-default:"5"`
	DemoLogin      bool          `env:"DEMO_LOGIN" env-default:"true"`
	SeedFile       string        `env:"SEED_FILE"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" env-separator:","`

	Cloudinary Cloudinary
}

// Storage selects and addresses the key/value backend.
type Storage struct {
	Driver    string `env:"STORAGE_DRIVER" env-default:"sqlite"`
	DSN       string `env:"STORAGE_DSN"`
	Namespace string `env:"STORAGE_NAMESPACE"`
}

// Cloudinary holds the profile photo upload credentials. Uploads are
// disabled unless all three secrets are present.
type Cloudinary struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	Folder    string `env:"CLOUDINARY_FOLDER" env-default:"creatorhub/profiles"`
}

// Enabled reports whether uploads can be made.
func (c Cloudinary) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Storage.DSN = strings.TrimSpace(cfg.Storage.DSN)
	if cfg.Storage.Driver == DriverSQLite && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = DefaultSQLitePath
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the combinations cleanenv cannot express.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverRedis:
		if c.RedisURL == "" && !strings.HasPrefix(c.Storage.DSN, "redis") {
			return fmt.Errorf("STORAGE_DRIVER=redis needs REDIS_URL or STORAGE_DSN")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("STORAGE_DRIVER=postgres needs STORAGE_DSN")
		}
		// pgx takes a URL or a keyword/value string such as "host=db user=app".
		if !hasScheme(c.Storage.DSN, "postgres://", "postgresql://") && !strings.Contains(c.Storage.DSN, "=") {
			return fmt.Errorf("STORAGE_DSN %q is not a postgres connection string", c.Storage.DSN)
		}
	case DriverMongo:
		if c.Storage.DSN == "" {
			return fmt.Errorf("STORAGE_DRIVER=mongo needs STORAGE_DSN")
		}
		if !hasScheme(c.Storage.DSN, "mongodb://", "mongodb+srv://") {
			return fmt.Errorf("STORAGE_DSN %q is not a mongodb:// URI", c.Storage.DSN)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.ShutdownPeriod <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.LoginAttempts < 0 {
		return fmt.Errorf("LOGIN_ATTEMPTS_PER_MINUTE cannot be negative")
	}
	return nil
}

// StorageRedisURL is the Redis address used by the redis driver: a redis://
// STORAGE_DSN wins over REDIS_URL.
func (c Config) StorageRedisURL() string {
	if strings.HasPrefix(c.Storage.DSN, "redis") {
		return c.Storage.DSN
	}
	return c.RedisURL
}

func hasScheme(dsn string, schemes ...string) bool {
	for _, scheme := range schemes {
		if len(dsn) >= len(scheme) && strings.EqualFold(dsn[:len(scheme)], scheme) {
			return true
		}
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
