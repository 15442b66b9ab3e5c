package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/sololev-backend/internal/data/db"
	"github.com/yungbote/sololev-backend/internal/observability"
	"github.com/yungbote/sololev-backend/internal/platform/envutil"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
	"github.com/yungbote/sololev-backend/internal/realtime/bus"
)

const (
	ServiceName      = "sololev-api"
	defaultJWTSecret = "defaultsecret"
	configPathEnv    = "SOLOLEV_CONFIG"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Progress ProgressConfig `yaml:"progress"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Otel     OtelConfig     `yaml:"otel"`
}

type ServerConfig struct {
	Port             string   `yaml:"port"`
	LogMode          string   `yaml:"log_mode"`
	PublicBaseURL    string   `yaml:"public_base_url"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

type DatabaseConfig struct {
	Driver           string `yaml:"driver"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`
	SQLitePath       string `yaml:"sqlite_path"`
}

type AuthConfig struct {
	JWTSecret            string        `yaml:"jwt_secret"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	StateTTL             time.Duration `yaml:"oauth_state_ttl"`
	PurgeInterval        time.Duration `yaml:"purge_interval"`
	GoogleClientID       string        `yaml:"google_client_id"`
	GoogleClientSecret   string        `yaml:"google_client_secret"`
	GoogleCallbackURL    string        `yaml:"google_callback_url"`
	GoogleExtraAudiences []string      `yaml:"google_extra_audiences"`
	AppRedirectURL       string        `yaml:"app_redirect_url"`
}

type ProgressConfig struct {
	Timezone   string `yaml:"timezone"`
	MaxRetries int    `yaml:"max_retries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
}

type StorageConfig struct {
	Mode        string `yaml:"mode"`
	Bucket      string `yaml:"bucket"`
	CDNDomain   string `yaml:"cdn_domain"`
	Credentials string `yaml:"credentials"`
	LocalDir    string `yaml:"local_dir"`
	ColorsPath  string `yaml:"avatar_colors_path"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Environment string  `yaml:"environment"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:          "8080",
			LogMode:       "development",
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver:       db.DriverPostgres,
			PostgresHost: "localhost",
			PostgresPort: "5432",
			PostgresUser: "postgres",
			PostgresName: "sololev",
			SQLitePath:   "sololev.db",
		},
		Auth: AuthConfig{
			JWTSecret:         defaultJWTSecret,
			SessionTTL:        7 * 24 * time.Hour,
			StateTTL:          10 * time.Minute,
			PurgeInterval:     time.Hour,
			GoogleCallbackURL: "http://localhost:8080/api/auth/callback/google",
			AppRedirectURL:    "sololev://auth/callback",
		},
		Progress: ProgressConfig{
			Timezone:   "UTC",
			MaxRetries: 3,
		},
		Redis: RedisConfig{
			Channel: "sololev:sse",
		},
		Storage: StorageConfig{
			Mode:     string(storage.ModeLocal),
			LocalDir: "media",
		},
		Otel: OtelConfig{
			SampleRatio: 1,
			Environment: "development",
		},
	}
}

// LoadConfig layers defaults, the YAML file named by SOLOLEV_CONFIG (if any)
// and environment variables, in that order.
func LoadConfig() (Config, error) {
	return LoadConfigFile(os.Getenv(configPathEnv))
}

// LoadConfigFile is LoadConfig with an explicit file path. An empty path
// skips the file layer.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envutil.String("PORT", c.Server.Port)
	c.Server.LogMode = envutil.String("LOG_MODE", c.Server.LogMode)
	c.Server.PublicBaseURL = envutil.String("PUBLIC_BASE_URL", c.Server.PublicBaseURL)
	c.Server.CORSAllowOrigins = envutil.List("CORS_ALLOW_ORIGINS", c.Server.CORSAllowOrigins)

	c.Database.Driver = envutil.String("DB_DRIVER", c.Database.Driver)
	c.Database.PostgresHost = envutil.String("POSTGRES_HOST", c.Database.PostgresHost)
	c.Database.PostgresPort = envutil.String("POSTGRES_PORT", c.Database.PostgresPort)
	c.Database.PostgresUser = envutil.String("POSTGRES_USER", c.Database.PostgresUser)
	c.Database.PostgresPassword = envutil.String("POSTGRES_PASSWORD", c.Database.PostgresPassword)
	c.Database.PostgresName = envutil.String("POSTGRES_NAME", c.Database.PostgresName)
	c.Database.PostgresSSLMode = envutil.String("POSTGRES_SSLMODE", c.Database.PostgresSSLMode)
	c.Database.SQLitePath = envutil.String("SQLITE_PATH", c.Database.SQLitePath)

	c.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.SessionTTL = envutil.Seconds("SESSION_TTL", c.Auth.SessionTTL)
	c.Auth.StateTTL = envutil.Seconds("OAUTH_STATE_TTL", c.Auth.StateTTL)
	c.Auth.PurgeInterval = envutil.Seconds("SESSION_PURGE_INTERVAL", c.Auth.PurgeInterval)
	c.Auth.GoogleClientID = envutil.String("GOOGLE_CLIENT_ID", c.Auth.GoogleClientID)
	c.Auth.GoogleClientSecret = envutil.String("GOOGLE_CLIENT_SECRET", c.Auth.GoogleClientSecret)
	c.Auth.GoogleCallbackURL = envutil.String("GOOGLE_CALLBACK_URL", c.Auth.GoogleCallbackURL)
	c.Auth.GoogleExtraAudiences = envutil.List("GOOGLE_EXTRA_AUDIENCES", c.Auth.GoogleExtraAudiences)
	c.Auth.AppRedirectURL = envutil.String("APP_REDIRECT_URL", c.Auth.AppRedirectURL)

	c.Progress.Timezone = envutil.String("PROGRESS_TIMEZONE", c.Progress.Timezone)
	c.Progress.MaxRetries = envutil.Int("COMPLETE_DAY_MAX_RETRIES", c.Progress.MaxRetries)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.Channel = envutil.String("REDIS_CHANNEL", c.Redis.Channel)

	c.Storage.Mode = envutil.String("AVATAR_STORAGE", c.Storage.Mode)
	c.Storage.Bucket = envutil.String("AVATAR_BUCKET", c.Storage.Bucket)
	c.Storage.CDNDomain = envutil.String("AVATAR_CDN_DOMAIN", c.Storage.CDNDomain)
	c.Storage.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", c.Storage.Credentials)
	c.Storage.LocalDir = envutil.String("AVATAR_LOCAL_DIR", c.Storage.LocalDir)
	c.Storage.ColorsPath = envutil.String("AVATAR_COLORS_PATH", c.Storage.ColorsPath)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Otel.Headers)
	c.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
	c.Otel.Environment = envutil.String("OTEL_ENVIRONMENT", c.Otel.Environment)
	if raw := envutil.String("OTEL_SAMPLE_RATIO", ""); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Otel.SampleRatio = ratio
		}
	}
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Server.LogMode)) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	} else if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET_KEY must be set in production"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	mode, err := storage.ParseMode(c.Storage.Mode)
	if err != nil {
		errs = append(errs, err)
	} else if mode == storage.ModeGCS && strings.TrimSpace(c.Storage.Bucket) == "" {
		errs = append(errs, errors.New("AVATAR_BUCKET is required when AVATAR_STORAGE=gcs"))
	}
	if c.Progress.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("COMPLETE_DAY_MAX_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}

// Location is the reference zone that decides which calendar day "today" is.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Progress.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown PROGRESS_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func (c Config) dbConfig() db.Config {
	return db.Config{
		Driver:           c.Database.Driver,
		PostgresHost:     c.Database.PostgresHost,
		PostgresPort:     c.Database.PostgresPort,
		PostgresUser:     c.Database.PostgresUser,
		PostgresPassword: c.Database.PostgresPassword,
		PostgresName:     c.Database.PostgresName,
		PostgresSSLMode:  c.Database.PostgresSSLMode,
		SQLitePath:       c.Database.SQLitePath,
	}
}

func (c Config) storageConfig() (storage.Config, error) {
	mode, err := storage.ParseMode(c.Storage.Mode)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Mode:          mode,
		BucketName:    c.Storage.Bucket,
		CDNDomain:     c.Storage.CDNDomain,
		Credentials:   c.Storage.Credentials,
		LocalDir:      c.Storage.LocalDir,
		PublicBaseURL: c.Server.PublicBaseURL,
	}, nil
}

func (c Config) redisConfig() bus.RedisConfig {
	return bus.RedisConfig{Addr: c.Redis.Addr, Password: c.Redis.Password, Channel: c.Redis.Channel}
}

func (c Config) otelConfig(version string) observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: ServiceName,
		Environment: c.Otel.Environment,
		Version:     version,
		Endpoint:    c.Otel.Endpoint,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		Insecure:    c.Otel.Insecure,
		SampleRatio: c.Otel.SampleRatio,
	}
}
