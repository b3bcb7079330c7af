package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-ticket-mirror/internal/domain"
)

const serviceName = "ticket-reconciler"

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables publishing.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// EthereumConfig holds ledger RPC configuration
type EthereumConfig struct {
	WebSocketURL         string        `mapstructure:"websocket_url"`
	RPCURL               string        `mapstructure:"rpc_url"`
	ChainID              domain.Chain  `mapstructure:"chain_id"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`
	MaxRetries           uint64        `mapstructure:"max_retries"`
	RequestsPerSecond    float64       `mapstructure:"requests_per_second"` // 0 disables RPC throttling
	RequestBurst         int           `mapstructure:"request_burst"`
}

// ContractsConfig holds the two emitter addresses the reconciler follows
type ContractsConfig struct {
	TicketRegistry string `mapstructure:"ticket_registry"`
	Marketplace    string `mapstructure:"marketplace"`
}

// ReconcilerSettings holds the poll loop and checkpoint configuration
type ReconcilerSettings struct {
	ProcessID             string        `mapstructure:"process_id"`
	StartBlock            uint64        `mapstructure:"start_block"`  // first block of a fresh deployment, 0 to start behind the head
	StartOffset           uint64        `mapstructure:"start_offset"` // blocks behind the head a fresh deployment starts from
	BatchSize             uint64        `mapstructure:"batch_size"`
	Confirmations         uint64        `mapstructure:"confirmations"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	ChunkTimeout          time.Duration `mapstructure:"chunk_timeout"`
	TimestampWorkers      int           `mapstructure:"timestamp_workers"`
	FailureBackoffInitial time.Duration `mapstructure:"failure_backoff_initial"`
	FailureBackoffMax     time.Duration `mapstructure:"failure_backoff_max"`
}

// ServerConfig holds status server configuration. Port 0 disables the server.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	MaxLagBlocks uint64 `mapstructure:"max_lag_blocks"`
}

// ReconcilerConfig holds configuration for ticket-reconciler
type ReconcilerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig     `mapstructure:"database"`
	NATS       NATSConfig         `mapstructure:"nats"`
	Ethereum   EthereumConfig     `mapstructure:"ethereum"`
	Contracts  ContractsConfig    `mapstructure:"contracts"`
	Reconciler ReconcilerSettings `mapstructure:"reconciler"`
	Server     ServerConfig       `mapstructure:"server"`
}

// LoadReconcilerConfig loads configuration for ticket-reconciler
func LoadReconcilerConfig(configFile string, envPath string) (*ReconcilerConfig, error) {
	v := configureViper(serviceName, configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.subject_prefix", "tickets")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", serviceName)
	v.SetDefault("ethereum.chain_id", "eip155:1")
	v.SetDefault("ethereum.block_head_ttl", "12s")
	v.SetDefault("ethereum.block_head_stale_window", "60s")
	v.SetDefault("ethereum.max_retries", 3)
	v.SetDefault("ethereum.requests_per_second", 0)
	v.SetDefault("ethereum.request_burst", 10)
	v.SetDefault("reconciler.process_id", serviceName)
	v.SetDefault("reconciler.start_offset", domain.DEFAULT_START_OFFSET)
	v.SetDefault("reconciler.batch_size", 2000)
	v.SetDefault("reconciler.confirmations", 0)
	v.SetDefault("reconciler.poll_interval", "12s")
	v.SetDefault("reconciler.chunk_timeout", "2m")
	v.SetDefault("reconciler.timestamp_workers", 8)
	v.SetDefault("reconciler.failure_backoff_initial", "5s")
	v.SetDefault("reconciler.failure_backoff_max", "5m")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 60)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config ReconcilerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate reports every setting that prevents the reconciler from starting
func (c *ReconcilerConfig) Validate() error {
	var problems []string

	if !domain.IsValidChain(c.Ethereum.ChainID) {
		problems = append(problems, fmt.Sprintf("unsupported chain_id %q", c.Ethereum.ChainID))
	}
	if c.Ethereum.RPCURL == "" {
		problems = append(problems, "ethereum.rpc_url is required")
	}

	registry, registryOK := parseContract(c.Contracts.TicketRegistry)
	if !registryOK {
		problems = append(problems, fmt.Sprintf("contracts.ticket_registry %q is not a valid address", c.Contracts.TicketRegistry))
	}
	marketplace, marketplaceOK := parseContract(c.Contracts.Marketplace)
	if !marketplaceOK {
		problems = append(problems, fmt.Sprintf("contracts.marketplace %q is not a valid address", c.Contracts.Marketplace))
	}
	if registryOK && marketplaceOK && registry == marketplace {
		problems = append(problems, "contracts.ticket_registry and contracts.marketplace must differ")
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		problems = append(problems, "database.host and database.dbname are required")
	}

	if c.Reconciler.ProcessID == "" {
		problems = append(problems, "reconciler.process_id is required")
	}
	if c.Reconciler.BatchSize == 0 {
		problems = append(problems, "reconciler.batch_size must be positive")
	}
	if c.Reconciler.PollInterval <= 0 {
		problems = append(problems, "reconciler.poll_interval must be positive")
	}
	if c.Reconciler.ChunkTimeout <= 0 {
		problems = append(problems, "reconciler.chunk_timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

// TicketRegistryAddress returns the parsed ticket registry address
func (c *ContractsConfig) TicketRegistryAddress() common.Address {
	return common.HexToAddress(c.TicketRegistry)
}

// MarketplaceAddress returns the parsed marketplace address
func (c *ContractsConfig) MarketplaceAddress() common.Address {
	return common.HexToAddress(c.Marketplace)
}

func parseContract(address string) (common.Address, bool) {
	if !common.IsHexAddress(address) {
		return common.Address{}, false
	}
	parsed := common.HexToAddress(address)
	if parsed == (common.Address{}) {
		return common.Address{}, false
	}
	return parsed, true
}

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
		// 2. Service-specific directory (e.g., cmd/ticket-reconciler/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("TICKET_MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
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
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.block_head_ttl",
		"ethereum.block_head_stale_window",
		"ethereum.max_retries",
		"ethereum.requests_per_second",
		"ethereum.request_burst",
		// Contracts
		"contracts.ticket_registry",
		"contracts.marketplace",
		// Reconciler
		"reconciler.process_id",
		"reconciler.start_block",
		"reconciler.start_offset",
		"reconciler.batch_size",
		"reconciler.confirmations",
		"reconciler.poll_interval",
		"reconciler.chunk_timeout",
		"reconciler.timestamp_workers",
		"reconciler.failure_backoff_initial",
		"reconciler.failure_backoff_max",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.max_lag_blocks",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
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

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
