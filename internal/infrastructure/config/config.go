package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for choreod.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Robot       RobotConfig       `yaml:"robot"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Database    DatabaseConfig    `yaml:"database"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

// RobotConfig identifies the robot this service drives.
type RobotConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DatabaseConfig contains SQLite database settings for performance history.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for command telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PerformanceConfig contains settings for the choreography tick loop.
type PerformanceConfig struct {
	// ScriptPath is the path to a YAML choreography script.
	// Empty means the built-in default choreography is used.
	ScriptPath string `yaml:"script_path"`

	// TickMillis is the latch loop period in milliseconds.
	TickMillis int `yaml:"tick_millis"`

	// WaitLogSeconds is the debounce window for "waiting for subscribers"
	// log messages while the readiness gate has not passed.
	WaitLogSeconds int `yaml:"wait_log_seconds"`

	// Readiness controls how many connected consumers each outbound
	// channel needs before a performance may start. The defaults mirror
	// the original robot behaviour: velocity requires a consumer, the
	// light ring does not.
	Readiness ReadinessConfig `yaml:"readiness"`
}

// ReadinessConfig contains per-channel subscriber thresholds for the
// readiness gate.
type ReadinessConfig struct {
	MinVelocitySubscribers  int `yaml:"min_velocity_subscribers"`
	MinLightRingSubscribers int `yaml:"min_lightring_subscribers"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CHOREOD_SECTION_KEY
// For example: CHOREOD_DATABASE_PATH, CHOREOD_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{
			ID:   "rover-001",
			Name: "Rover",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "choreod",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/choreod.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Performance: PerformanceConfig{
			TickMillis:     50,
			WaitLogSeconds: 5,
			Readiness: ReadinessConfig{
				MinVelocitySubscribers:  1,
				MinLightRingSubscribers: 0,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CHOREOD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("CHOREOD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("CHOREOD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("CHOREOD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CHOREOD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("CHOREOD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Performance
	if v := os.Getenv("CHOREOD_SCRIPT_PATH"); v != "" {
		cfg.Performance.ScriptPath = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Robot validation
	if c.Robot.ID == "" {
		errs = append(errs, "robot.id is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Performance validation
	if c.Performance.TickMillis <= 0 {
		errs = append(errs, "performance.tick_millis must be positive")
	}
	if c.Performance.WaitLogSeconds <= 0 {
		errs = append(errs, "performance.wait_log_seconds must be positive")
	}
	if c.Performance.Readiness.MinVelocitySubscribers < 0 {
		errs = append(errs, "performance.readiness.min_velocity_subscribers must not be negative")
	}
	if c.Performance.Readiness.MinLightRingSubscribers < 0 {
		errs = append(errs, "performance.readiness.min_lightring_subscribers must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TickPeriod returns the latch loop period as a Duration.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Performance.TickMillis) * time.Millisecond
}

// WaitLogInterval returns the waiting-log debounce window as a Duration.
func (c *Config) WaitLogInterval() time.Duration {
	return time.Duration(c.Performance.WaitLogSeconds) * time.Second
}
