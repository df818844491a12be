package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidCreditGate     = errors.New("invalid credit gate policy")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
	CurrentWorkerVersion = 1
)

// Credit gate policies applied when a judge is not in good standing.
const (
	CreditGateAllow  = "allow"
	CreditGateBlock  = "block"
	CreditGateReduce = "reduce"
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	API    APIConfig    `koanf:"api"`
	Worker WorkerConfig `koanf:"worker"`
}

// CommonConfig contains configuration shared between the api and the worker.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
	Settlement Settlement `koanf:"settlement"`
	Reputation Reputation `koanf:"reputation"`
	Stream     Stream     `koanf:"stream"`
}

// APIConfig contains HTTP API specific configuration.
type APIConfig struct {
	// Version of the api config.
	Version int `koanf:"version"`
	// Host address to listen on.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Requests per second allowed per client.
	RateLimit float64 `koanf:"rate_limit"`
	// Burst size allowed per client.
	BurstLimit int `koanf:"burst_limit"`
	// Header carrying the authenticated user id set by the upstream gateway.
	IdentityHeader string `koanf:"identity_header"`
}

// WorkerConfig contains side-effect worker specific configuration.
type WorkerConfig struct {
	// Version of the worker config.
	Version int `koanf:"version"`
	// Consumer name within the stream group. Defaults to the hostname.
	ConsumerName string `koanf:"consumer_name"`
	// Maximum entries read per poll.
	BatchSize int64 `koanf:"batch_size"`
	// Maximum entries applied concurrently.
	Concurrency int `koanf:"concurrency"`
	// Poll interval in milliseconds when the stream is empty.
	PollInterval int `koanf:"poll_interval"`
	// Minimum idle time in milliseconds before a pending entry is reclaimed.
	ClaimIdle int `koanf:"claim_idle"`
	// Deliveries after which a failing entry is moved to the dead-letter stream.
	MaxDeliveries int64 `koanf:"max_deliveries"`
	// Interval in seconds between pending refund sweeps. Zero disables the sweep.
	RefundSweepInterval int `koanf:"refund_sweep_interval"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Enable OpenTelemetry export.
	Enabled bool `koanf:"enabled"`
	// Uptrace DSN the spans are exported to.
	DSN string `koanf:"dsn"`
	// Service name attached to every span.
	ServiceName string `koanf:"service_name"`
	// Deployment environment attached to every span.
	Environment string `koanf:"environment"`
}

// Settlement contains judgment settlement configuration.
type Settlement struct {
	// Judge payout in cents per request tier.
	Payouts map[string]int64 `koanf:"payouts"`
	// Credit price charged per verdict for each request tier.
	Prices map[string]int64 `koanf:"prices"`
	// Spendable credits awarded to a judge per judgment.
	CreditAward int64 `koanf:"credit_award"`
	// Policy for judges not in good standing (allow, block, reduce).
	CreditGate string `koanf:"credit_gate"`
	// Award multiplier used by the reduce policy.
	ReducedCreditFactor float64 `koanf:"reduced_credit_factor"`
	// Attempts for the earning pre-create.
	EarningAttempts int `koanf:"earning_attempts"`
	// Initial earning retry delay in milliseconds.
	EarningRetryDelay int `koanf:"earning_retry_delay"`
	// Maximum feedback length in characters.
	MaxFeedbackLength int `koanf:"max_feedback_length"`
}

// Reputation contains reputation engine thresholds.
type Reputation struct {
	// Reviews required before the status gates apply.
	GracePeriodReviews int `koanf:"grace_period_reviews"`
	// Score below which a judge needs calibration.
	CalibrationThreshold float64 `koanf:"calibration_threshold"`
	// Score below which a judge is on probation.
	ProbationThreshold float64 `koanf:"probation_threshold"`
	// Minimum score change recorded in the history.
	HistoryDelta float64 `koanf:"history_delta"`
}

// Stream contains side-effect stream configuration.
type Stream struct {
	// Publish side effects to the stream instead of running them inline.
	Enabled bool `koanf:"enabled"`
	// Stream key.
	Key string `koanf:"key"`
	// Consumer group name.
	Group string `koanf:"group"`
	// Approximate maximum stream length.
	MaxLen int64 `koanf:"max_len"`
	// Notification channel prefix.
	NotifyChannel string `koanf:"notify_channel"`
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".verdict",
		homeDir + "/.verdict/config",
		"/etc/verdict/config",
		"/app/config",
		"config",
		".",
	}

	return LoadConfigFrom(configPaths)
}

// LoadConfigFrom loads the configuration from the first path holding each file.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "api", "worker"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("worker", config.Worker.Version, CurrentWorkerVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// applyDefaults fills unset values with their documented defaults.
func (c *Config) applyDefaults() {
	d := &c.Common.Debug
	if d.LogLevel == "" {
		d.LogLevel = "info"
	}
	if d.MaxLogsToKeep == 0 {
		d.MaxLogsToKeep = 10
	}
	if d.MaxLogLines == 0 {
		d.MaxLogLines = 10000
	}

	s := &c.Common.Settlement
	if s.Payouts == nil {
		s.Payouts = map[string]int64{}
	}
	for tier, cents := range DefaultPayouts() {
		if _, ok := s.Payouts[tier]; !ok {
			s.Payouts[tier] = cents
		}
	}
	if s.Prices == nil {
		s.Prices = map[string]int64{}
	}
	for tier, price := range DefaultPrices() {
		if _, ok := s.Prices[tier]; !ok {
			s.Prices[tier] = price
		}
	}
	if s.CreditAward == 0 {
		s.CreditAward = 1
	}
	if s.CreditGate == "" {
		s.CreditGate = CreditGateAllow
	}
	if s.ReducedCreditFactor == 0 {
		s.ReducedCreditFactor = 0.5
	}
	if s.EarningAttempts == 0 {
		s.EarningAttempts = 3
	}
	if s.EarningRetryDelay == 0 {
		s.EarningRetryDelay = 100
	}
	if s.MaxFeedbackLength == 0 {
		s.MaxFeedbackLength = 5000
	}

	r := &c.Common.Reputation
	if r.GracePeriodReviews == 0 {
		r.GracePeriodReviews = 10
	}
	if r.CalibrationThreshold == 0 {
		r.CalibrationThreshold = 2.0
	}
	if r.ProbationThreshold == 0 {
		r.ProbationThreshold = 3.0
	}
	if r.HistoryDelta == 0 {
		r.HistoryDelta = 0.1
	}

	st := &c.Common.Stream
	if st.Key == "" {
		st.Key = "verdict:side_effects"
	}
	if st.Group == "" {
		st.Group = "settlement"
	}
	if st.MaxLen == 0 {
		st.MaxLen = 100000
	}
	if st.NotifyChannel == "" {
		st.NotifyChannel = "verdict:notify"
	}

	if c.API.IdentityHeader == "" {
		c.API.IdentityHeader = "X-User-ID"
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 50
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 8
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = 1000
	}
	if c.Worker.ClaimIdle == 0 {
		c.Worker.ClaimIdle = 60000
	}
	if c.Worker.MaxDeliveries == 0 {
		c.Worker.MaxDeliveries = 10
	}
}

// validate rejects settings that cannot be applied.
func (c *Config) validate() error {
	switch c.Common.Settlement.CreditGate {
	case CreditGateAllow, CreditGateBlock, CreditGateReduce:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCreditGate, c.Common.Settlement.CreditGate)
	}
	return nil
}

// DefaultPayouts returns the judge payout in cents per tier.
func DefaultPayouts() map[string]int64 {
	return map[string]int64{
		"community": 10,
		"standard":  25,
		"pro":       50,
	}
}

// DefaultPrices returns the credit price per verdict for each tier.
func DefaultPrices() map[string]int64 {
	return map[string]int64{
		"community": 1,
		"standard":  2,
		"pro":       4,
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/verdict/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
