package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"farmgear-backend/internal/gateway"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host                  string `yaml:"host"`
	HTTPPort              int    `yaml:"http_port"`
	GRPCPort              int    `yaml:"grpc_port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// JWTConfig contains identity token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// GatewayConfig selects and configures the payment provider
type GatewayConfig struct {
	Type               string `yaml:"type"` // "mock" or "alipay"
	AppID              string `yaml:"app_id"`
	MerchantPrivateKey string `yaml:"merchant_private_key"`
	AlipayPublicKey    string `yaml:"alipay_public_key"`
	NotifyURL          string `yaml:"notify_url"`
	ReturnURL          string `yaml:"return_url"`
	GatewayURL         string `yaml:"gateway_url"`
	Sandbox            bool   `yaml:"sandbox"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpireStalePendingOrders string `yaml:"expire_stale_pending_orders"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	if val := os.Getenv("DB_AUTO_MIGRATE"); val != "" {
		c.Database.AutoMigrate, _ = strconv.ParseBool(val)
	}

	// JWT
	envString("JWT_SECRET", &c.JWT.Secret)

	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("HTTP_PORT", &c.Server.HTTPPort)
	envInt("GRPC_PORT", &c.Server.GRPCPort)

	// Gateway
	envString("PAYMENT_GATEWAY", &c.Gateway.Type)
	envString("ALIPAY_APP_ID", &c.Gateway.AppID)
	envString("ALIPAY_MERCHANT_PRIVATE_KEY", &c.Gateway.MerchantPrivateKey)
	envString("ALIPAY_PUBLIC_KEY", &c.Gateway.AlipayPublicKey)
	envString("ALIPAY_NOTIFY_URL", &c.Gateway.NotifyURL)
	envString("ALIPAY_RETURN_URL", &c.Gateway.ReturnURL)
	envString("ALIPAY_GATEWAY_URL", &c.Gateway.GatewayURL)
	if val := os.Getenv("ALIPAY_SANDBOX"); val != "" {
		c.Gateway.Sandbox, _ = strconv.ParseBool(val)
	}

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}
	if c.Server.GRPCPort != 0 && c.Server.GRPCPort == c.Server.HTTPPort {
		return fmt.Errorf("http and grpc ports must differ")
	}
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = 30
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Gateway validation. The mock gateway accepts unsigned callbacks, so it
	// must be chosen explicitly.
	switch c.Gateway.Type {
	case "":
		return fmt.Errorf("payment gateway type is required (mock or alipay)")
	case gateway.TypeMock:
	case gateway.TypeAlipay:
		if c.Gateway.AppID == "" || c.Gateway.MerchantPrivateKey == "" || c.Gateway.AlipayPublicKey == "" {
			return fmt.Errorf("alipay gateway requires app_id, merchant_private_key and alipay_public_key")
		}
		if c.Gateway.NotifyURL == "" {
			return fmt.Errorf("alipay gateway requires notify_url")
		}
	default:
		return fmt.Errorf("unknown payment gateway type: %q", c.Gateway.Type)
	}

	// Scheduler defaults
	if c.Scheduler.ExpireStalePendingOrders == "" {
		c.Scheduler.ExpireStalePendingOrders = "0 15 0 * * *" // 00:15 UTC daily
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetHTTPAddress returns the REST listener address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GetGRPCAddress returns the gRPC health listener address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

// GatewayConfig converts the gateway section for gateway.New.
func (c *Config) GatewayConfig() gateway.Config {
	g := c.Gateway
	return gateway.Config{
		Type:               g.Type,
		AppID:              g.AppID,
		MerchantPrivateKey: g.MerchantPrivateKey,
		AlipayPublicKey:    g.AlipayPublicKey,
		NotifyURL:          g.NotifyURL,
		ReturnURL:          g.ReturnURL,
		GatewayURL:         g.GatewayURL,
		Sandbox:            g.Sandbox,
	}
}
