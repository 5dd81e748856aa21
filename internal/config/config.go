// Package config loads the commander's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/comalice/commanderx/internal/extensibility"
)

// ErrInvalid wraps every validation failure returned by Load and Validate.
var ErrInvalid = errors.New("invalid configuration")

// DefaultBlockRequest is the device publication-block ioctl number.
const DefaultBlockRequest = 0x102

type Config struct {
	Log         Log           `yaml:"log"`
	Vehicle     Vehicle       `yaml:"vehicle"`
	Devices     Devices       `yaml:"devices"`
	MAVLink     MAVLink       `yaml:"mavlink"`
	Persistence Persistence   `yaml:"persistence"`
	Tick        time.Duration `yaml:"tick"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Vehicle struct {
	ID         string `yaml:"id"`
	RotaryWing bool   `yaml:"rotary_wing"`
}

// Devices configures sensor blocking on HIL entry. An empty Root disables it.
type Devices struct {
	Root         string   `yaml:"root"`
	SkipPrefixes []string `yaml:"skip_prefixes"`
	SkipNames    []string `yaml:"skip_names"`
	BlockRequest uint     `yaml:"block_request"`
}

// MAVLink configures the ground and autopilot link. A zero RCTimeout
// disables RC signal monitoring.
type MAVLink struct {
	Endpoints        []Endpoint    `yaml:"endpoints"`
	SystemID         uint8         `yaml:"system_id"`
	ComponentID      uint8         `yaml:"component_id"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
	RCTimeout        time.Duration `yaml:"rc_timeout"`
	HeartbeatPeriod  time.Duration `yaml:"heartbeat_period"`
	StatusQueue      int           `yaml:"status_queue"`
}

// Endpoint types.
const (
	EndpointUDPServer = "udp-server"
	EndpointUDPClient = "udp-client"
	EndpointTCPClient = "tcp-client"
	EndpointSerial    = "serial"
)

type Endpoint struct {
	Type    string `yaml:"type"`
	Address string `yaml:"address,omitempty"`
	Device  string `yaml:"device,omitempty"`
	Baud    int    `yaml:"baud,omitempty"`
}

// Persistence configures snapshot storage. An empty Dir disables it.
type Persistence struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Default returns a configuration usable without a file: no MAVLink
// endpoints, no device blocking, no persistence.
func Default() Config {
	return Config{
		Log:     Log{Level: "info"},
		Vehicle: Vehicle{ID: "vehicle", RotaryWing: true},
		Devices: Devices{
			SkipPrefixes: slices.Clone(extensibility.DefaultSkipPrefixes),
			SkipNames:    slices.Clone(extensibility.DefaultSkipNames),
			BlockRequest: DefaultBlockRequest,
		},
		MAVLink: MAVLink{
			SystemID:         1,
			ComponentID:      1,
			HeartbeatTimeout: 3 * time.Second,
			RCTimeout:        time.Second,
			HeartbeatPeriod:  time.Second,
			StatusQueue:      32,
		},
		Persistence: Persistence{Format: "json"},
		Tick:        100 * time.Millisecond,
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate reports the first problem found.
func (c Config) Validate() error {
	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		return invalid("unknown log level %q", c.Log.Level)
	}
	if c.Vehicle.ID == "" {
		return invalid("vehicle.id is empty")
	}
	if strings.ContainsAny(c.Vehicle.ID, `/\`) {
		return invalid("vehicle.id %q contains a path separator", c.Vehicle.ID)
	}
	if c.Tick <= 0 {
		return invalid("tick must be positive, got %s", c.Tick)
	}
	if c.MAVLink.SystemID == 0 {
		return invalid("mavlink.system_id must be 1-255")
	}
	if len(c.MAVLink.Endpoints) > 0 && c.MAVLink.HeartbeatTimeout <= 0 {
		return invalid("mavlink.heartbeat_timeout must be positive")
	}
	if len(c.MAVLink.Endpoints) > 0 && c.MAVLink.HeartbeatPeriod <= 0 {
		return invalid("mavlink.heartbeat_period must be positive")
	}
	if c.MAVLink.RCTimeout < 0 {
		return invalid("mavlink.rc_timeout must not be negative")
	}
	for i, e := range c.MAVLink.Endpoints {
		if err := e.validate(); err != nil {
			return invalid("mavlink.endpoints[%d]: %v", i, err)
		}
	}
	switch c.Persistence.Format {
	case "", "json", "yaml", "yml":
	default:
		return invalid("unknown persistence format %q", c.Persistence.Format)
	}
	return nil
}

func (e Endpoint) validate() error {
	switch e.Type {
	case EndpointUDPServer, EndpointUDPClient, EndpointTCPClient:
		if e.Address == "" {
			return fmt.Errorf("%s endpoint needs an address", e.Type)
		}
	case EndpointSerial:
		if e.Device == "" || e.Baud <= 0 {
			return errors.New("serial endpoint needs a device and baud rate")
		}
	default:
		return fmt.Errorf("unknown endpoint type %q", e.Type)
	}
	return nil
}
