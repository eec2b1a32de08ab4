package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	// RateLimitRPS is the per-client steady request rate; RateLimitBurst is
	// the per-client bucket capacity
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// LedgerConfig holds the ledger principals and compliance gate levels
type LedgerConfig struct {
	Registrar        string `mapstructure:"registrar"`
	Attestor         string `mapstructure:"attestor"`
	Oracle           string `mapstructure:"oracle"`
	VoteKycLevel     uint32 `mapstructure:"vote_kyc_level"`
	TransferKycLevel uint32 `mapstructure:"transfer_kyc_level"`
	HarvestKycLevel  uint32 `mapstructure:"harvest_kyc_level"`
}

// ChainConfig holds the block-height clock configuration. The daemon derives
// the current height from wall time: height = elapsed(genesis) / interval.
type ChainConfig struct {
	GenesisTime       time.Time     `mapstructure:"genesis_time"`
	BlockInterval     time.Duration `mapstructure:"block_interval"`
	MaxPriceStaleness uint64        `mapstructure:"max_price_staleness"`
}

// NotifierConfig holds webhook fan-out configuration
type NotifierConfig struct {
	// ClientsPath points to the JSON file of registered webhook clients
	ClientsPath string `mapstructure:"clients_path"`
	// PoolSize bounds concurrent deliveries
	PoolSize int `mapstructure:"pool_size"`
	// HTTPTimeout bounds one delivery attempt
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// MaxRetries bounds delivery attempts per event per client
	MaxRetries int `mapstructure:"max_retries"`
}

// LedgerdConfig holds configuration for the ledgerd daemon
type LedgerdConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	Chain      ChainConfig    `mapstructure:"chain"`
	Notifier   NotifierConfig `mapstructure:"notifier"`
}

// LoadLedgerdConfig loads configuration for the ledgerd daemon
func LoadLedgerdConfig(configFile string, envPath string) (*LedgerdConfig, error) {
	v := configureViper("ledgerd", configFile, envPath)

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LEDGER_EVENTS")
	v.SetDefault("nats.connection_name", "ledgerd")
	v.SetDefault("chain.block_interval", "10s")
	v.SetDefault("chain.max_price_staleness", 144)
	v.SetDefault("ledger.vote_kyc_level", 1)
	v.SetDefault("ledger.transfer_kyc_level", 2)
	v.SetDefault("ledger.harvest_kyc_level", 2)
	v.SetDefault("notifier.pool_size", 8)
	v.SetDefault("notifier.http_timeout", "10s")
	v.SetDefault("notifier.max_retries", 5)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config LedgerdConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks required fields that have no sensible default
func (c *LedgerdConfig) Validate() error {
	if c.Ledger.Registrar == "" {
		return fmt.Errorf("ledger.registrar is required")
	}
	if c.Ledger.Attestor == "" {
		return fmt.Errorf("ledger.attestor is required")
	}
	if c.Ledger.Oracle == "" {
		return fmt.Errorf("ledger.oracle is required")
	}
	if c.Chain.GenesisTime.IsZero() {
		return fmt.Errorf("chain.genesis_time is required")
	}
	if c.Chain.BlockInterval <= 0 {
		return fmt.Errorf("chain.block_interval must be positive")
	}
	return nil
}

// configureViper builds a viper instance with env and file sources
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("RWA_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// loadEnv loads .env files from the given path, later files overriding earlier
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate)
	}
}

// bindAllEnvVars explicitly binds config keys so AutomaticEnv picks them up
// even when the key is absent from the config file
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Server
		"server.host",
		"server.port",
		"server.metrics_port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.rate_limit_rps",
		"server.rate_limit_burst",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Ledger
		"ledger.registrar",
		"ledger.attestor",
		"ledger.oracle",
		"ledger.vote_kyc_level",
		"ledger.transfer_kyc_level",
		"ledger.harvest_kyc_level",
		// Chain
		"chain.genesis_time",
		"chain.block_interval",
		"chain.max_price_staleness",
		// Notifier
		"notifier.clients_path",
		"notifier.pool_size",
		"notifier.http_timeout",
		"notifier.max_retries",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// ChdirRepoRoot walks up from the working directory until it finds the
// config directory, so relative paths resolve the same from any cmd
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
