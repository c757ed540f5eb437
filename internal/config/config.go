package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	ModelOpenAI = "openai"

	SMSTwilio = "twilio"
	SMSLog    = "log"
)

type Config struct {
	Env         string      `yaml:"env" env:"ENV" env-default:"local"`
	Storage     Storage     `yaml:"storage"`
	Database    Database    `yaml:"database"`
	HTTPServer  HTTPServer  `yaml:"http_server"`
	Agent       Agent       `yaml:"agent"`
	Model       Model       `yaml:"model"`
	SMS         SMS         `yaml:"sms"`
	Translation Translation `yaml:"translation"`
	Metrics     Metrics     `yaml:"metrics"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	CSVDir string `yaml:"csv_dir" env:"STORAGE_CSV_DIR"`
}

type Database struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME" env-default:"bookings"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// WriteTimeout bounds the whole response, so it must cover a full agent run.
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"120s"`
}

type Agent struct {
	MaxRounds   int           `yaml:"max_rounds" env:"AGENT_MAX_ROUNDS" env-default:"12"`
	Timeout     time.Duration `yaml:"timeout" env:"AGENT_TIMEOUT" env-default:"90s"`
	ToolTimeout time.Duration `yaml:"tool_timeout" env:"AGENT_TOOL_TIMEOUT" env-default:"15s"`
}

type Model struct {
	Provider    string        `yaml:"provider" env:"MODEL_PROVIDER" env-default:"openai"`
	Name        string        `yaml:"name" env:"MODEL_NAME" env-default:"gpt-4-turbo-preview"`
	BaseURL     string        `yaml:"base_url" env:"MODEL_BASE_URL" env-default:"https://api.openai.com/v1"`
	APIKey      string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	Temperature float64       `yaml:"temperature" env-default:"0"`
	Timeout     time.Duration `yaml:"timeout" env:"MODEL_TIMEOUT" env-default:"60s"`
}

type SMS struct {
	Provider   string `yaml:"provider" env:"SMS_PROVIDER" env-default:"log"`
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	From       string `yaml:"from" env:"TWILIO_PHONE_NUMBER"`
}

type Translation struct {
	Enabled bool          `yaml:"enabled" env:"TRANSLATION_ENABLED" env-default:"false"`
	BaseURL string        `yaml:"base_url" env:"TRANSLATION_BASE_URL" env-default:"https://one-lang-api.vercel.app"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path" env-default:"/metrics"`
}

func MustLoad() *Config {
	// .env is optional; it only seeds variables that are not already set.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigError{Path: configPath, Reason: "config file does not exist"}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, &ConfigError{Path: configPath, Reason: "cannot read config", Err: err}
	}

	if err := cfg.validate(); err != nil {
		return nil, &ConfigError{Path: configPath, Reason: "invalid config", Err: err}
	}

	return &cfg, nil
}
