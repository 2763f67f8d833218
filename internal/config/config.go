package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Duration is a time.Duration written as "60s" in the config file
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds application configuration
type Config struct {
	AppEnv       string `json:"app_env"`
	Port         string `json:"port"`
	AuthPassword string `json:"auth_password"`

	// AI gateway: "vertex" or "gemini"
	AIProvider            string   `json:"ai_provider"`
	GoogleCloudProject    string   `json:"google_cloud_project"`
	GoogleCloudLocation   string   `json:"google_cloud_location"`
	GoogleCredentialsPath string   `json:"google_credentials_path"`
	GeminiAPIKey          string   `json:"gemini_api_key"`
	Model                 string   `json:"model"`
	AITimeout             Duration `json:"ai_timeout"`

	// Candidate store: "memory" or "postgres"
	StoreDriver string `json:"store_driver"`
	DatabaseURL string `json:"database_url"`
	SeedFile    string `json:"seed_file"`
	SeedOnStart bool   `json:"seed_on_start"`

	// Operation lock: "memory" or "redis"
	LockDriver string   `json:"lock_driver"`
	RedisURL   string   `json:"redis_url"`
	LockTTL    Duration `json:"lock_ttl"`

	// Workflow events: "log", "nats" or "amqp"
	EventsDriver string `json:"events_driver"`
	NATSURL      string `json:"nats_url"`
	AMQPURL      string `json:"amqp_url"`
	AMQPExchange string `json:"amqp_exchange"`

	// Resume files: "local" or "s3"
	BlobDriver  string `json:"blob_driver"`
	UploadsDir  string `json:"uploads_dir"`
	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	// Mail: "log" or "gmail"
	MailDriver           string `json:"mail_driver"`
	GmailCredentialsPath string `json:"gmail_credentials_path"`
	GmailTokenPath       string `json:"gmail_token_path"`
	MailFrom             string `json:"mail_from"`

	PDFToPPMPath     string   `json:"pdftoppm_path"`
	SkillCheckTTL    Duration `json:"skill_check_ttl"`
	OTELCollectorURL string   `json:"otel_collector_url"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		AppEnv:              "production",
		Port:                "8080",
		AuthPassword:        "password",
		AIProvider:          "vertex",
		GoogleCloudLocation: "us-central1",
		Model:               "gemini-2.5-flash",
		AITimeout:           Duration{60 * time.Second},
		StoreDriver:         "memory",
		SeedOnStart:         true,
		LockDriver:          "memory",
		LockTTL:             Duration{5 * time.Minute},
		EventsDriver:        "log",
		AMQPExchange:        "resmo.events",
		BlobDriver:          "local",
		UploadsDir:          "uploads",
		MailDriver:          "log",
		GmailTokenPath:      "token.json",
		PDFToPPMPath:        "pdftoppm",
		SkillCheckTTL:       Duration{time.Hour},
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/Resmo/config.json
// On Unix: ~/.config/Resmo/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "Resmo")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "Resmo")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadUnvalidated reads .env, the config file (RESMO_CONFIG or the default
// path) and then applies environment overrides.
func LoadUnvalidated() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv("RESMO_CONFIG")
	if configPath == "" {
		var err error
		if configPath, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides file values with environment variables
func (c *Config) ApplyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.Port = getEnv("PORT", c.Port)
	c.AuthPassword = getEnv("AUTH_PASSWORD", c.AuthPassword)

	c.AIProvider = getEnv("AI_PROVIDER", c.AIProvider)
	c.GoogleCloudProject = getEnv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	c.GoogleCloudLocation = getEnv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	c.GoogleCredentialsPath = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.Model = getEnv("AI_MODEL", c.Model)
	c.AITimeout.Duration = getEnvAsDuration("AI_TIMEOUT", c.AITimeout.Duration)

	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
	c.SeedOnStart = getEnvAsBool("SEED_ON_START", c.SeedOnStart)

	c.LockDriver = getEnv("LOCK_DRIVER", c.LockDriver)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.LockTTL.Duration = getEnvAsDuration("LOCK_TTL", c.LockTTL.Duration)

	c.EventsDriver = getEnv("EVENTS_DRIVER", c.EventsDriver)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)

	c.BlobDriver = getEnv("BLOB_DRIVER", c.BlobDriver)
	c.UploadsDir = getEnv("UPLOADS_DIR", c.UploadsDir)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3AccessKey = getEnv("S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = getEnv("S3_SECRET_KEY", c.S3SecretKey)

	c.MailDriver = getEnv("MAIL_DRIVER", c.MailDriver)
	c.GmailCredentialsPath = getEnv("GMAIL_CREDENTIALS", c.GmailCredentialsPath)
	c.GmailTokenPath = getEnv("GMAIL_TOKEN", c.GmailTokenPath)
	c.MailFrom = getEnv("MAIL_FROM", c.MailFrom)

	c.PDFToPPMPath = getEnv("PDFTOPPM_PATH", c.PDFToPPMPath)
	c.SkillCheckTTL.Duration = getEnvAsDuration("SKILL_CHECK_TTL", c.SkillCheckTTL.Duration)
	c.OTELCollectorURL = getEnv("OTEL_COLLECTOR_URL", c.OTELCollectorURL)
}

// IsDevelopment reports whether development logging is wanted
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}

	switch c.AIProvider {
	case "vertex":
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required")
		}
		if c.GoogleCredentialsPath != "" {
			if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
				return fmt.Errorf("google credentials file not found: %w", err)
			}
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("gemini_api_key is required")
		}
	default:
		return fmt.Errorf("unknown ai_provider %q (vertex, gemini)", c.AIProvider)
	}

	if c.AITimeout.Duration <= 0 {
		return fmt.Errorf("ai_timeout must be positive")
	}

	switch c.StoreDriver {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store_driver %q (memory, postgres)", c.StoreDriver)
	}

	switch c.LockDriver {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis_url is required for the redis lock")
		}
	default:
		return fmt.Errorf("unknown lock_driver %q (memory, redis)", c.LockDriver)
	}

	switch c.EventsDriver {
	case "log":
	case "nats":
		if c.NATSURL == "" {
			return fmt.Errorf("nats_url is required for nats events")
		}
	case "amqp":
		if c.AMQPURL == "" || c.AMQPExchange == "" {
			return fmt.Errorf("amqp_url and amqp_exchange are required for amqp events")
		}
	default:
		return fmt.Errorf("unknown events_driver %q (log, nats, amqp)", c.EventsDriver)
	}

	switch c.BlobDriver {
	case "local":
		if c.UploadsDir == "" {
			return fmt.Errorf("uploads_dir is required for local resume storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required for s3 resume storage")
		}
	default:
		return fmt.Errorf("unknown blob_driver %q (local, s3)", c.BlobDriver)
	}

	switch c.MailDriver {
	case "log":
	case "gmail":
		if c.GmailCredentialsPath == "" {
			return fmt.Errorf("gmail_credentials_path is required for gmail")
		}
		if _, err := os.Stat(c.GmailCredentialsPath); err != nil {
			return fmt.Errorf("gmail credentials file not found: %w", err)
		}
	default:
		return fmt.Errorf("unknown mail_driver %q (log, gmail)", c.MailDriver)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
