package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	S3       S3Config       `yaml:"s3"`
	JWT      JWTConfig      `yaml:"jwt"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	CORS     CORSConfig     `yaml:"cors"`
	Upload   UploadConfig   `yaml:"upload"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration. url is an optional full
// connection URL set from the environment; it wins over the individual
// fields and never round-trips through YAML.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	url string
}

// S3Config holds object storage configuration
type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`   // custom endpoint for S3-compatible providers
	PublicURL string `yaml:"public_url"` // base URL objects are served from
}

// JWTConfig holds owner-auth configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// OpenAIConfig holds AI integration configuration. An empty APIKey means
// the AI endpoints report "not configured" instead of failing requests.
type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ChatModel  string `yaml:"chat_model"`
	ImageModel string `yaml:"image_model"`
	AudioModel string `yaml:"audio_model"`
}

// CORSConfig holds allowed origins for browser clients
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// UploadConfig holds upload size limits in megabytes
type UploadConfig struct {
	MaxImageMB int64 `yaml:"max_image_mb"`
	MaxPhotoMB int64 `yaml:"max_photo_mb"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file. Secrets can be overridden
// through JWT_SECRET, OPENAI_API_KEY and DATABASE_URL so that config
// files checked into deployments never need to carry them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.ImageModel == "" {
		c.OpenAI.ImageModel = "dall-e-3"
	}
	if c.OpenAI.AudioModel == "" {
		c.OpenAI.AudioModel = "whisper-1"
	}
	if c.Upload.MaxImageMB == 0 {
		c.Upload.MaxImageMB = 25
	}
	if c.Upload.MaxPhotoMB == 0 {
		c.Upload.MaxPhotoMB = 10
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.url = v
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.url != "" {
		return c.url
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
