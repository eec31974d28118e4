package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceHost string
	ServicePort int
	AppBaseURL  string   // адрес фронтенда для magic link
	CORSOrigins []string `mapstructure:"cors_origins"`
	LogLevel    string   `mapstructure:"log_level"`
	LogFormat   string   `mapstructure:"log_format"` // text | json

	Auth     AuthConfig
	Upload   UploadConfig
	JWT      JWTConfig      `mapstructure:"-"`
	Redis    RedisConfig    `mapstructure:"-"`
	Minio    MinioConfig    `mapstructure:"-"`
	Mailgun  MailgunConfig  `mapstructure:"-"`
	Webhooks WebhooksConfig `mapstructure:"-"`
}

type AuthConfig struct {
	MagicLinkTTL    time.Duration `mapstructure:"magic_link_ttl"`
	LoginCodeTTL    time.Duration `mapstructure:"login_code_ttl"`
	MaxCodeAttempts int           `mapstructure:"max_code_attempts"`
	AdminEmails     []string      `mapstructure:"admin_emails"` // аккаунты с этими email создаются администраторами
}

type UploadConfig struct {
	MaxDocumentSize int64 `mapstructure:"max_document_size"`
}

type JWTConfig struct {
	Token         string
	ExpiresIn     time.Duration
	SigningMethod jwt.SigningMethod
}

type RedisConfig struct {
	Host        string
	Password    string
	Port        int
	User        string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MailgunConfig struct {
	Domain string
	APIKey string
	From   string
	APIURL string
}

type WebhooksConfig struct {
	StripeSecret   string
	TypeformSecret string
}

const (
	envRedisHost = "REDIS_HOST"
	envRedisPort = "REDIS_PORT"
	envRedisUser = "REDIS_USER"
	envRedisPass = "REDIS_PASSWORD"

	envJWTSecret    = "JWT_SECRET"
	envJWTExpiresIn = "JWT_EXPIRES_IN"

	envMinioEndpoint  = "MINIO_ENDPOINT"
	envMinioAccessKey = "MINIO_ACCESS_KEY"
	envMinioSecretKey = "MINIO_SECRET_KEY"
	envMinioBucket    = "MINIO_BUCKET"
	envMinioUseSSL    = "MINIO_USE_SSL"

	envMailgunDomain = "MAILGUN_DOMAIN"
	envMailgunAPIKey = "MAILGUN_API_KEY"
	envMailgunFrom   = "MAILGUN_FROM"
	envMailgunAPIURL = "MAILGUN_API_URL"

	envStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	envTypeformSecret      = "TYPEFORM_SECRET"
)

func NewConfig() (*Config, error) {
	var err error

	configName := "config"
	_ = godotenv.Load()
	if os.Getenv("CONFIG_NAME") != "" {
		configName = os.Getenv("CONFIG_NAME")
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	setDefaults(v)

	err = v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, err
	}

	if err = cfg.loadEnv(); err != nil {
		return nil, err
	}

	log.Info("config parsed")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ServiceHost", "0.0.0.0")
	v.SetDefault("ServicePort", 8080)
	v.SetDefault("AppBaseURL", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("auth.magic_link_ttl", 15*time.Minute)
	v.SetDefault("auth.login_code_ttl", 10*time.Minute)
	v.SetDefault("auth.max_code_attempts", 5)
	v.SetDefault("upload.max_document_size", 10<<20)
}

// loadEnv - секреты и адреса внешних сервисов берутся только из окружения
func (cfg *Config) loadEnv() error {
	var err error

	// инициализация JWT конфигурации
	cfg.JWT = JWTConfig{
		Token:         os.Getenv(envJWTSecret),
		ExpiresIn:     24 * time.Hour,
		SigningMethod: jwt.SigningMethodHS256,
	}
	if cfg.JWT.Token == "" {
		return fmt.Errorf("%s must be set", envJWTSecret)
	}
	if raw := os.Getenv(envJWTExpiresIn); raw != "" {
		cfg.JWT.ExpiresIn, err = time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("jwt expires in must be duration: %w", err)
		}
	}

	// инициализация Redis конфигурации из env
	cfg.Redis.Host = os.Getenv(envRedisHost)
	cfg.Redis.Port, err = strconv.Atoi(getEnv(envRedisPort, "6379"))
	if err != nil {
		return fmt.Errorf("redis port must be int value: %w", err)
	}
	cfg.Redis.Password = os.Getenv(envRedisPass)
	cfg.Redis.User = os.Getenv(envRedisUser)
	cfg.Redis.DialTimeout = 10 * time.Second
	cfg.Redis.ReadTimeout = 10 * time.Second

	// объектное хранилище (MinIO / S3-совместимый GCS)
	cfg.Minio.Endpoint = os.Getenv(envMinioEndpoint)
	cfg.Minio.AccessKey = os.Getenv(envMinioAccessKey)
	cfg.Minio.SecretKey = os.Getenv(envMinioSecretKey)
	cfg.Minio.Bucket = getEnv(envMinioBucket, "sprintdesk")
	cfg.Minio.UseSSL = strings.EqualFold(os.Getenv(envMinioUseSSL), "true")

	cfg.Mailgun.Domain = os.Getenv(envMailgunDomain)
	cfg.Mailgun.APIKey = os.Getenv(envMailgunAPIKey)
	cfg.Mailgun.From = os.Getenv(envMailgunFrom)
	cfg.Mailgun.APIURL = getEnv(envMailgunAPIURL, "https://api.mailgun.net/v3")

	cfg.Webhooks.StripeSecret = os.Getenv(envStripeWebhookSecret)
	cfg.Webhooks.TypeformSecret = os.Getenv(envTypeformSecret)

	return nil
}

// IsAdminEmail - email из списка admin_emails получает роль администратора при первом входе
func (cfg *Config) IsAdminEmail(email string) bool {
	for _, e := range cfg.Auth.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// ConfigureLogger выставляет уровень и формат logrus
func (cfg *Config) ConfigureLogger() {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
