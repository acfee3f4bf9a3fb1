package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sitepunch.app/sitepunch/infrastructure/devops"
	"sitepunch.app/sitepunch/security"
)

const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	PayPeriod PayPeriodConfig `mapstructure:"payperiod"`
	Export    ExportConfig    `mapstructure:"export"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	SSM       SSMConfig       `mapstructure:"ssm"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

type StoreConfig struct {
	Driver         string `mapstructure:"driver"`
	DSN            string `mapstructure:"dsn"`
	MongoURI       string `mapstructure:"mongo_uri"`
	MongoDatabase  string `mapstructure:"mongo_database"`
	MaxConnections int    `mapstructure:"max_connections"`
	LogLevel       string `mapstructure:"log_level"`
}

type AuthConfig struct {
	SigningSecret string        `mapstructure:"signing_secret"` // base64
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// SigningKey returns the decoded signing secret.
func (c AuthConfig) SigningKey() ([]byte, error) {
	return security.DecodeSecret(c.SigningSecret)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PayPeriodConfig struct {
	WindowDays        int     `mapstructure:"window_days"`
	OvertimeThreshold float64 `mapstructure:"overtime_threshold"`
}

type ExportConfig struct {
	Bucket string `mapstructure:"bucket"`
}

type NotifyConfig struct {
	SlackToken        string `mapstructure:"slack_token"`
	SlackInfoChannel  string `mapstructure:"slack_info_channel"`
	SlackErrorChannel string `mapstructure:"slack_error_channel"`
	EmailFrom         string `mapstructure:"email_from"`
}

type SSMConfig struct {
	Parameter string `mapstructure:"parameter"`
}

// InLambda reports whether the process runs inside AWS Lambda.
func InLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// Load reads configuration from defaults, the optional config file, and
// SITEPUNCH_ environment variables, in increasing priority. When
// ssm.parameter is set the secrets it holds replace the loaded values.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if cfg.SSM.Parameter != "" {
		secrets, err := devops.LoadSecrets(ctx, cfg.SSM.Parameter)
		if err != nil {
			return nil, fmt.Errorf("load secrets: %w", err)
		}
		cfg.Apply(secrets)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("store.driver", DriverMySQL)
	v.SetDefault("store.dsn", "root:development@tcp(localhost:3306)/sitepunch?parseTime=true&loc=UTC")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "sitepunch")
	v.SetDefault("store.max_connections", 10)
	v.SetDefault("store.log_level", "warn")

	v.SetDefault("auth.signing_secret", "")
	v.SetDefault("auth.token_ttl", "720h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("payperiod.window_days", 14)
	v.SetDefault("payperiod.overtime_threshold", 40)

	v.SetDefault("export.bucket", "sitepunch-exports")

	v.SetDefault("notify.slack_token", "")
	v.SetDefault("notify.slack_info_channel", "")
	v.SetDefault("notify.slack_error_channel", "")
	v.SetDefault("notify.email_from", "")

	ssmDefault := ""
	if InLambda() {
		ssmDefault = "sitepunch"
	}
	v.SetDefault("ssm.parameter", ssmDefault)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SITEPUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Apply overlays the non-empty secrets.
func (c *Config) Apply(s *devops.Secrets) {
	if s.DSN != "" {
		c.Store.DSN = s.DSN
	}
	if s.MongoURI != "" {
		c.Store.MongoURI = s.MongoURI
	}
	if s.SigningSecret != "" {
		c.Auth.SigningSecret = s.SigningSecret
	}
	if s.SlackToken != "" {
		c.Notify.SlackToken = s.SlackToken
	}
}

func (c *Config) Validate() error {
	if c.Auth.SigningSecret == "" {
		return errors.New("config: auth.signing_secret is required")
	}
	if _, err := c.Auth.SigningKey(); err != nil {
		return fmt.Errorf("config: auth.signing_secret: %w", err)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}
	switch c.Store.Driver {
	case DriverMySQL, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("config: server.port must be between 1 and 65535")
	}
	if c.PayPeriod.WindowDays < 0 || c.PayPeriod.OvertimeThreshold < 0 {
		return errors.New("config: payperiod values must not be negative")
	}
	return nil
}
