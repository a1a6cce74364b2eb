// Package config loads the crossval-agent configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/transport"
	"github.com/mash-protocol/crossval-go/pkg/version"
	"github.com/mash-protocol/crossval-go/pkg/wifi"
)

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid config")

// MaxFrameLimit caps max_message_size.
const MaxFrameLimit = 1 << 20

// Config is the agent configuration.
type Config struct {
	// Listen is the host link listen address.
	Listen string `yaml:"listen"`

	// MaxMessageSize is the largest accepted frame payload.
	MaxMessageSize uint32 `yaml:"max_message_size"`

	// TrustedSender is the only sender instance ID accepted for host
	// messages.
	TrustedSender uint32 `yaml:"trusted_sender"`

	// ReportInternalFailures transmits failures that are otherwise only
	// logged.
	ReportInternalFailures bool `yaml:"report_internal_failures"`

	// HeapLimit is the outbound buffer budget in bytes.
	HeapLimit int `yaml:"heap_limit"`

	// QueueSize is the event queue capacity.
	QueueSize int `yaml:"queue_size"`

	// ProtocolVersion is the "major.minor" protocol version the host
	// harness speaks. It must share the agent's major version.
	ProtocolVersion string `yaml:"protocol_version"`

	Log  LogConfig  `yaml:"log"`
	Wifi WifiConfig `yaml:"wifi"`
}

// LogConfig configures operational and protocol logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// ProtocolLog is the path of the CBOR protocol log. Empty disables it.
	ProtocolLog string `yaml:"protocol_log"`
}

// WifiConfig configures the simulated WiFi subsystem.
type WifiConfig struct {
	Delay          time.Duration `yaml:"delay"`
	RejectRequests bool          `yaml:"reject_requests"`
	FailAsync      bool          `yaml:"fail_async"`
	ErrorCode      uint8         `yaml:"error_code"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:          transport.DefaultAddress,
		MaxMessageSize:  transport.DefaultMaxMessageSize,
		TrustedSender:   hub.SystemInstanceID,
		HeapLimit:       hub.DefaultHeapLimit,
		QueueSize:       hub.DefaultQueueSize,
		ProtocolVersion: version.Protocol,
		Log: LogConfig{
			Level: "info",
		},
		Wifi: WifiConfig{
			Delay: wifi.DefaultDelay,
		},
	}
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w: listen %q: %v", ErrInvalidConfig, c.Listen, err)
	}
	if c.MaxMessageSize == 0 || c.MaxMessageSize > MaxFrameLimit {
		return fmt.Errorf("%w: max_message_size must be in 1..%d", ErrInvalidConfig, MaxFrameLimit)
	}
	if c.HeapLimit <= 0 {
		return fmt.Errorf("%w: heap_limit must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.HostProtocol(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Wifi.Delay < 0 {
		return fmt.Errorf("%w: wifi.delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// HostProtocol returns the configured host protocol version. It fails
// when the version is malformed or has a different major version than
// the agent.
func (c *Config) HostProtocol() (version.ProtocolVersion, error) {
	v, err := version.Parse(c.ProtocolVersion)
	if err != nil {
		return version.ProtocolVersion{}, fmt.Errorf("%w: protocol_version: %v", ErrInvalidConfig, err)
	}
	if agent := version.Current(); !agent.Compatible(v) {
		return version.ProtocolVersion{}, fmt.Errorf("%w: protocol_version %s is not compatible with agent protocol %s",
			ErrInvalidConfig, v, agent)
	}
	return v, nil
}

// SlogLevel returns the configured operational log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// WifiBehavior returns the simulator behavior.
func (c *Config) WifiBehavior() wifi.Behavior {
	return wifi.Behavior{
		Delay:          c.Wifi.Delay,
		RejectRequests: c.Wifi.RejectRequests,
		FailAsync:      c.Wifi.FailAsync,
		ErrorCode:      c.Wifi.ErrorCode,
	}
}

// ParseLevel maps a level name such as "debug" or "warn+2" to an
// slog.Level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	return level, nil
}
