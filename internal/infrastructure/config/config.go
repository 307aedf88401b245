package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds supported by TransportConfig.Kind.
const (
	TransportMQTT = "mqtt"
	TransportNATS = "nats"
)

// Config is the root configuration structure for the command core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site          SiteConfig         `yaml:"site"`
	Transport     TransportConfig    `yaml:"transport"`
	MQTT          MQTTConfig         `yaml:"mqtt"`
	NATS          NATSConfig         `yaml:"nats"`
	Topics        TopicsConfig       `yaml:"topics"`
	Monitor       MonitorConfig      `yaml:"monitor"`
	Backend       BackendConfig      `yaml:"backend"`
	Firmware      FirmwareConfig     `yaml:"firmware"`
	Database      DatabaseConfig     `yaml:"database"`
	InfluxDB      InfluxDBConfig     `yaml:"influxdb"`
	Logging       LoggingConfig      `yaml:"logging"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// SiteConfig contains deployment identification.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// TransportConfig selects the publish/subscribe transport used for commands.
type TransportConfig struct {
	// Kind is "mqtt" (default) or "nats".
	Kind string `yaml:"kind"`
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

// NATSConfig contains NATS connection settings, used when transport.kind is "nats".
type NATSConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
	// ReconnectWait is the delay between reconnect attempts in milliseconds.
	ReconnectWait int `yaml:"reconnect_wait"`
}

// TopicsConfig holds the per-deployment topic suffixes appended to
// "/<productId>/<serialNumber>". An empty suffix disables that route.
type TopicsConfig struct {
	PropertyOnline  string `yaml:"property_online"`
	PropertyOffline string `yaml:"property_offline"`
	FunctionOnline  string `yaml:"function_online"`
	FunctionOffline string `yaml:"function_offline"`
	OTA             string `yaml:"ota"`
	Monitor         string `yaml:"monitor"`
	// MonitorPost is the suffix devices publish monitor samples on.
	MonitorPost string `yaml:"monitor_post"`
}

// MonitorConfig contains real-time monitoring settings.
type MonitorConfig struct {
	// IntervalMS is the push period sent to devices when monitoring starts.
	IntervalMS int `yaml:"interval_ms"`
}

// BackendConfig describes the external device-management REST API.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// FirmwareConfig contains OTA settings.
type FirmwareConfig struct {
	// AssetBaseURL is prepended verbatim to the firmware file path.
	AssetBaseURL string `yaml:"asset_base_url"`
}

// DatabaseConfig contains SQLite database settings for the command audit log.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
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

// NotificationConfig controls where user-facing notifications are published.
type NotificationConfig struct {
	// UIClientID, when set, enables MQTT UI notifications on
	// commandcore/ui/<UIClientID>/notification.
	UIClientID string `yaml:"ui_client_id"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: COMMANDCORE_SECTION_KEY
// For example: COMMANDCORE_MQTT_HOST, COMMANDCORE_BACKEND_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "IoT Command Core",
		},
		Transport: TransportConfig{
			Kind: TransportMQTT,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "commandcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Name:          "commandcore",
			ReconnectWait: 500,
		},
		Topics: TopicsConfig{
			PropertyOnline:  "/property-online/get",
			PropertyOffline: "/property-offline/get",
			FunctionOnline:  "/function-online/get",
			FunctionOffline: "/function-offline/get",
			OTA:             "/ota/get",
			Monitor:         "/monitor/get",
			MonitorPost:     "/monitor/post",
		},
		Monitor: MonitorConfig{
			IntervalMS: 1000,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/commandcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: COMMANDCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COMMANDCORE_TRANSPORT"); v != "" {
		cfg.Transport.Kind = v
	}

	// MQTT
	if v := os.Getenv("COMMANDCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("COMMANDCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("COMMANDCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("COMMANDCORE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}

	// Backend API
	if v := os.Getenv("COMMANDCORE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("COMMANDCORE_BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}

	if v := os.Getenv("COMMANDCORE_FIRMWARE_ASSET_URL"); v != "" {
		cfg.Firmware.AssetBaseURL = v
	}

	if v := os.Getenv("COMMANDCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("COMMANDCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Topic suffixes are deliberately not required: an empty suffix means the
// route is not configured and matching commands are skipped at runtime.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	switch c.Transport.Kind {
	case TransportMQTT:
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required")
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			errs = append(errs, "nats.url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("transport.kind %q must be %q or %q", c.Transport.Kind, TransportMQTT, TransportNATS))
	}

	if c.Monitor.IntervalMS <= 0 {
		errs = append(errs, "monitor.interval_ms must be positive")
	}

	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBackendTimeout returns the backend HTTP timeout as a Duration.
func (c *Config) GetBackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

// GetMonitorInterval returns the monitoring push period as a Duration.
func (c *Config) GetMonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalMS) * time.Millisecond
}
