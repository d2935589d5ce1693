package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	App        `yaml:"app"`
	Tokens     `yaml:"tokens"`
	RabbitMQ   `yaml:"rabbitmq"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	RateLimit  `yaml:"rate_limit"`
	SMS        `yaml:"sms"`
}

type App struct {
	// PublicURL is the frontend origin used to build verification links.
	PublicURL string `yaml:"public_url" env:"APP_PUBLIC_URL" env-default:"http://localhost:5173"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type Tokens struct {
	VerificationTokenTTL    time.Duration `yaml:"verification_token_ttl" env-default:"168h"`
	VerificationTokenSecret string        `yaml:"verification_token_secret" env:"VERIFICATION_TOKEN_SECRET" env-required:"true"`
	AccessTokenSecret       string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"notifications"`
}

type RateLimit struct {
	Enabled bool `yaml:"enabled" env-default:"true"`
}

// MailSenderConfig configures the notification consumer.
type MailSenderConfig struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	Email    `yaml:"email"`
	AWS      `yaml:"aws"`
	SMS      `yaml:"sms"`
}

type Email struct {
	Provider string `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"smtp"`
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"EMAIL_FROM" env-required:"true"`
}

type AWS struct {
	Region string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
}

type SMS struct {
	Enabled bool `yaml:"enabled" env:"SMS_ENABLED" env-default:"false"`
}

func MustLoad(configPath string) *Config {
	var cfg Config

	mustRead(configPath, &cfg)

	return &cfg
}

func MustLoadMailSender(configPath string) *MailSenderConfig {
	var cfg MailSenderConfig

	mustRead(configPath, &cfg)

	return &cfg
}

// Path returns CONFIG_PATH or the given fallback.
func Path(fallback string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}

	return fallback
}

func mustRead(configPath string, cfg any) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}
}
