// Package config loads the application configuration from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bulk email pipeline.
type Config struct {
	AWS     AWSConfig     `yaml:"aws"`
	SES     SESConfig     `yaml:"ses"`
	Bounces BounceConfig  `yaml:"bounces"`
	Queue   QueueConfig   `yaml:"queue"`
	Bulk    BulkConfig    `yaml:"bulk"`
	Tokens  TokenConfig   `yaml:"tokens"`
	Logging LoggingConfig `yaml:"logging"`
}

// AWSConfig holds shared AWS credentials and region. When AccessKey and
// SecretKey are empty, the SDK default credential chain is used.
type AWSConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Profile   string `yaml:"profile"`
}

// SESConfig holds sender identity defaults for SES sends.
type SESConfig struct {
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	ReplyTo        string `yaml:"reply_to"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BounceConfig holds the DynamoDB bounce store location.
type BounceConfig struct {
	TableName string `yaml:"table_name"`
	IndexName string `yaml:"index_name"`
}

// QueueConfig holds the SQS queue used for large-batch fan-out.
type QueueConfig struct {
	URL                      string `yaml:"url"`
	WaitTimeSeconds          int    `yaml:"wait_time_seconds"`
	VisibilityTimeoutSeconds int    `yaml:"visibility_timeout_seconds"`
}

// BulkConfig holds the strategy and pacing knobs of the send pipeline.
type BulkConfig struct {
	ImmediateThreshold int `yaml:"immediate_threshold"`
	ChunkSize          int `yaml:"chunk_size"`
	SendDelayMS        int `yaml:"send_delay_ms"`
}

// SendDelay returns the inter-send delay as a duration.
func (b BulkConfig) SendDelay() time.Duration {
	return time.Duration(b.SendDelayMS) * time.Millisecond
}

// TokenConfig holds the signing key for action-link tokens.
type TokenConfig struct {
	SigningKey         string `yaml:"signing_key"`
	TTLHours           int    `yaml:"ttl_hours"`
	UnsubscribeBaseURL string `yaml:"unsubscribe_base_url"`
}

// TTL returns the token lifetime as a duration.
func (t TokenConfig) TTL() time.Duration {
	return time.Duration(t.TTLHours) * time.Hour
}

// LoggingConfig holds log level and redaction settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// RedactEnabled defaults to true when not set.
func (l LoggingConfig) RedactEnabled() bool {
	return l.RedactPII == nil || *l.RedactPII
}

// Load reads and parses the configuration file and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with only defaults applied, for callers
// that wire everything programmatically.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.Bounces.IndexName == "" {
		cfg.Bounces.IndexName = "bounce_type-timestamp-index"
	}
	if cfg.Queue.WaitTimeSeconds == 0 {
		cfg.Queue.WaitTimeSeconds = 20
	}
	if cfg.Queue.VisibilityTimeoutSeconds == 0 {
		cfg.Queue.VisibilityTimeoutSeconds = 120
	}
	if cfg.Bulk.ImmediateThreshold == 0 {
		cfg.Bulk.ImmediateThreshold = 50
	}
	if cfg.Bulk.ChunkSize == 0 {
		cfg.Bulk.ChunkSize = 50
	}
	if cfg.Bulk.SendDelayMS == 0 {
		cfg.Bulk.SendDelayMS = 50
	}
	if cfg.Tokens.TTLHours == 0 {
		cfg.Tokens.TTLHours = 720
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.AWS.Region = region
	}
	if accessKey := os.Getenv("AWS_ACCESS_KEY_ID"); accessKey != "" {
		cfg.AWS.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY"); secretKey != "" {
		cfg.AWS.SecretKey = secretKey
	}
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		cfg.AWS.Profile = profile
	}
	if fromEmail := os.Getenv("SES_FROM_EMAIL"); fromEmail != "" {
		cfg.SES.FromEmail = fromEmail
	}
	if queueURL := os.Getenv("QUEUE_URL"); queueURL != "" {
		cfg.Queue.URL = queueURL
	}
	if table := os.Getenv("BOUNCE_TABLE"); table != "" {
		cfg.Bounces.TableName = table
	}
	if key := os.Getenv("TOKEN_SIGNING_KEY"); key != "" {
		cfg.Tokens.SigningKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}

// Validate checks the settings required for the worker binary.
func (c *Config) Validate() error {
	if c.SES.FromEmail == "" {
		return fmt.Errorf("ses.from_email is required")
	}
	if c.Queue.URL == "" {
		return fmt.Errorf("queue.url is required")
	}
	if c.Bounces.TableName == "" {
		return fmt.Errorf("bounces.table_name is required")
	}
	return nil
}
