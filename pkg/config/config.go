package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backends selectable through DB_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Mail transports selectable through MAIL_DRIVER.
const (
	MailDriverLog      = "log"
	MailDriverSendGrid = "sendgrid"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	DBDriver  string

	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Mail      MailConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
}

// MongoConfig configures the document store backend.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig tunes the password reset flow.
type AuthConfig struct {
	ResetTokenTTL time.Duration
	ResetURL      string
	BcryptCost    int
}

// MailConfig selects and configures outbound mail delivery.
type MailConfig struct {
	Driver         string
	SendGridAPIKey string
	From           string
	FromName       string
	Workers        int
	Retries        int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	TopTypes     int
	RecentLimit  int
}

// ReportsConfig carries the institutional header printed on NADE forms.
type ReportsConfig struct {
	HeaderLines []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.DBDriver = strings.ToLower(v.GetString("DB_DRIVER"))

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_TIMEOUT"), 10*time.Second),
		MaxPoolSize:    v.GetUint64("MONGO_MAX_POOL_SIZE"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		ResetTokenTTL: parseDuration(v.GetString("AUTH_RESET_TOKEN_TTL"), 10*time.Minute),
		ResetURL:      v.GetString("AUTH_RESET_URL"),
		BcryptCost:    v.GetInt("AUTH_BCRYPT_COST"),
	}

	cfg.Mail = MailConfig{
		Driver:         strings.ToLower(v.GetString("MAIL_DRIVER")),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		From:           v.GetString("MAIL_FROM"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		Workers:        v.GetInt("MAIL_WORKERS"),
		Retries:        v.GetInt("MAIL_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("ENABLE_DASHBOARD_CACHE"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 30*time.Second),
		TopTypes:     v.GetInt("DASHBOARD_TOP_TYPES"),
		RecentLimit:  v.GetInt("DASHBOARD_RECENT_LIMIT"),
	}

	cfg.Reports = ReportsConfig{
		HeaderLines: splitPipe(v.GetString("REPORT_HEADER_LINES")),
	}

	if cfg.DBDriver != DriverMongo && cfg.DBDriver != DriverPostgres {
		return nil, errors.New("DB_DRIVER must be mongo or postgres")
	}
	if cfg.Env == EnvProduction && cfg.JWT.Secret == "dev_secret" {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("DB_DRIVER", DriverMongo)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "nade")
	v.SetDefault("MONGO_TIMEOUT", "10s")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 20)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "nade")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "nade-api")

	v.SetDefault("AUTH_RESET_TOKEN_TTL", "10m")
	v.SetDefault("AUTH_RESET_URL", "http://localhost:3000/reset-password")
	v.SetDefault("AUTH_BCRYPT_COST", 12)

	v.SetDefault("MAIL_DRIVER", MailDriverLog)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "no-reply@nade.local")
	v.SetDefault("MAIL_FROM_NAME", "NADE")
	v.SetDefault("MAIL_WORKERS", 1)
	v.SetDefault("MAIL_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")
	v.SetDefault("DASHBOARD_TOP_TYPES", 10)
	v.SetDefault("DASHBOARD_RECENT_LIMIT", 5)

	v.SetDefault("REPORT_HEADER_LINES", "SECRETARIA DE EDUCAÇÃO E CULTURA|Núcleo de Apoio Disciplinar Escolar - NADE|Relatório de atendimento")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	return splitOn(raw, ",")
}

func splitPipe(raw string) []string {
	return splitOn(raw, "|")
}

func splitOn(raw, sep string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// viper reports a missing explicit config file as a *fs.PathError rather
// than ConfigFileNotFoundError when SetConfigFile is used.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}
