package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Log      LogConfig      `mapstructure:"log"`
	Market   MarketConfig   `mapstructure:"market"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type GatewayConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type MarketConfig struct {
	MaxListingsPerSeller  int               `mapstructure:"max_listings_per_seller"`
	TaxRate               float64           `mapstructure:"tax_rate"`
	DefaultDuration       time.Duration     `mapstructure:"default_duration"`
	SweepInterval         time.Duration     `mapstructure:"sweep_interval"`
	DisposalPolicy        string            `mapstructure:"disposal_policy"`
	WalletBackend         string            `mapstructure:"wallet_backend"`
	PendingReturnsBackend string            `mapstructure:"pending_returns_backend"`
	CategoryBackend       string            `mapstructure:"category_backend"`
	CurrencySymbol        string            `mapstructure:"currency_symbol"`
	StartingBalance       float64           `mapstructure:"starting_balance"`
	CustodySlots          int               `mapstructure:"custody_slots"`
	History               HistoryConfig     `mapstructure:"history"`
	Categories            map[string]string `mapstructure:"categories"`
}

type HistoryConfig struct {
	MaxEntries int           `mapstructure:"max_entries"`
	MaxAge     time.Duration `mapstructure:"max_age"`
}

const (
	DisposalQueue = "queue"
	DisposalDrop  = "drop"

	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("gateway.port", 8081)
	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "market_user:market_pass@tcp(localhost:3306)/market_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("instance.id", "market-service-1")

	v.SetDefault("market.max_listings_per_seller", 5)
	v.SetDefault("market.tax_rate", 0.05)
	v.SetDefault("market.default_duration", 48*time.Hour)
	v.SetDefault("market.sweep_interval", 3*time.Minute)
	v.SetDefault("market.disposal_policy", DisposalQueue)
	v.SetDefault("market.wallet_backend", BackendMemory)
	v.SetDefault("market.pending_returns_backend", BackendMemory)
	v.SetDefault("market.category_backend", BackendMemory)
	v.SetDefault("market.currency_symbol", "$")
	v.SetDefault("market.starting_balance", 0)
	v.SetDefault("market.custody_slots", 36)
	v.SetDefault("market.history.max_entries", 1000)
	v.SetDefault("market.history.max_age", 24*time.Hour)
}

var envBindings = map[string]string{
	"server.port":                    "SERVER_PORT",
	"server.host":                    "SERVER_HOST",
	"gateway.port":                   "GATEWAY_PORT",
	"gateway.host":                   "GATEWAY_HOST",
	"redis.address":                  "REDIS_ADDRESS",
	"redis.password":                 "REDIS_PASSWORD",
	"redis.db":                       "REDIS_DB",
	"mysql.dsn":                      "MYSQL_DSN",
	"mysql.max_open_conns":           "MYSQL_MAX_OPEN_CONNS",
	"mysql.max_idle_conns":           "MYSQL_MAX_IDLE_CONNS",
	"mysql.conn_max_lifetime":        "MYSQL_CONN_MAX_LIFETIME",
	"log.level":                      "LOG_LEVEL",
	"instance.id":                    "INSTANCE_ID",
	"market.max_listings_per_seller": "MARKET_MAX_LISTINGS_PER_SELLER",
	"market.tax_rate":                "MARKET_TAX_RATE",
	"market.default_duration":        "MARKET_DEFAULT_DURATION",
	"market.sweep_interval":          "MARKET_SWEEP_INTERVAL",
	"market.disposal_policy":         "MARKET_DISPOSAL_POLICY",
	"market.wallet_backend":          "MARKET_WALLET_BACKEND",
	"market.pending_returns_backend": "MARKET_PENDING_RETURNS_BACKEND",
	"market.category_backend":        "MARKET_CATEGORY_BACKEND",
	"market.starting_balance":        "MARKET_STARTING_BALANCE",
}

// Load reads defaults, an optional config.yaml and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-house/")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path on top of the defaults.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Market.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (m MarketConfig) Validate() error {
	if m.MaxListingsPerSeller < 1 {
		return fmt.Errorf("market.max_listings_per_seller must be at least 1, got %d", m.MaxListingsPerSeller)
	}
	if m.TaxRate < 0 || m.TaxRate >= 1 {
		return fmt.Errorf("market.tax_rate must be in [0, 1), got %v", m.TaxRate)
	}
	if m.SweepInterval <= 0 {
		return fmt.Errorf("market.sweep_interval must be positive, got %s", m.SweepInterval)
	}
	if m.DefaultDuration <= 0 {
		return fmt.Errorf("market.default_duration must be positive, got %s", m.DefaultDuration)
	}
	switch m.DisposalPolicy {
	case DisposalQueue, DisposalDrop:
	default:
		return fmt.Errorf("unknown market.disposal_policy %q", m.DisposalPolicy)
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Gateway: %s:%d, Redis: %s, Instance: %s, Wallet: %s, Disposal: %s",
		c.Server.Host,
		c.Server.Port,
		c.Gateway.Host,
		c.Gateway.Port,
		c.Redis.Address,
		c.Instance.ID,
		c.Market.WalletBackend,
		c.Market.DisposalPolicy,
	)
}
