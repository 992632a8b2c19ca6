// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/sweeney/pushbutton/internal/button"
	"github.com/sweeney/pushbutton/internal/gpio"
)

// Config defines the struct of the configuration file.
// Duration fields are derived from their integer counterparts by Load.
type Config struct {
	Button     ButtonConfig  `yaml:"button"`
	GPIO       GPIOConfig    `yaml:"gpio"`
	PollMs     int           `yaml:"poll_ms"`
	Poll       time.Duration `yaml:"-"`
	HeartbeatS int           `yaml:"heartbeat_s"`
	Heartbeat  time.Duration `yaml:"-"`
	MQTT       MQTTConfig    `yaml:"mqtt"`
	HTTP       HTTPConfig    `yaml:"http"`
	Log        LogConfig     `yaml:"log"`
}

// ButtonConfig describes how the button is wired.
type ButtonConfig struct {
	Pin          int    `yaml:"pin"`
	PullUp       bool   `yaml:"pull_up"`
	DefaultState string `yaml:"default_state"` // "high" or "low"
}

// GPIOConfig selects the GPIO driver.
type GPIOConfig struct {
	Backend string `yaml:"backend"` // "gpiocdev" or "periph"
	Chip    string `yaml:"chip"`
}

// MQTTConfig defines the mqtt client configuration. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// HTTPConfig defines the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig defines the log level and destination.
type LogConfig struct {
	Level  string         `yaml:"level"`
	File   string         `yaml:"file"` // "stderr", "stdout" or a path
	Output io.WriteCloser `yaml:"-"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Button: ButtonConfig{
			Pin:          gpio.DefaultPin,
			PullUp:       true,
			DefaultState: "high",
		},
		GPIO: GPIOConfig{
			Backend: gpio.BackendCdev,
			Chip:    gpio.DefaultChip,
		},
		PollMs:     1,
		HeartbeatS: 900,
		MQTT: MQTTConfig{
			Broker:   "tcp://127.0.0.1:1883",
			ClientID: "pushbutton",
			Topic:    "home/pushbutton",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Log: LogConfig{
			Level: "info",
			File:  "stderr",
		},
	}
}

// Load overlays the YAML file at path (if path is not empty) onto c and
// derives the duration fields.
func (c *Config) Load(path string) error {
	if path != "" {
		if err := c.readFile(path); err != nil {
			return fmt.Errorf("error reading config file %q: %w", path, err)
		}
	}
	return c.Finish()
}

// Finish derives computed fields and validates the result. Call it again
// after overriding fields from flags.
func (c *Config) Finish() error {
	c.Poll = time.Duration(c.PollMs) * time.Millisecond
	c.Heartbeat = time.Duration(c.HeartbeatS) * time.Second
	return c.Validate()
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Button.Pin < 0 {
		return fmt.Errorf("invalid pin %d", c.Button.Pin)
	}
	if _, err := ParseLevel(c.Button.DefaultState); err != nil {
		return err
	}
	if c.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", c.PollMs)
	}
	if c.HeartbeatS < 0 {
		return fmt.Errorf("heartbeat_s must not be negative, got %d", c.HeartbeatS)
	}
	switch c.GPIO.Backend {
	case gpio.BackendCdev, gpio.BackendPeriph:
	default:
		return fmt.Errorf("unknown gpio backend %q", c.GPIO.Backend)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// ButtonConfig converts the button section to a button.Config.
func (c *Config) ButtonConfig() button.Config {
	level, _ := ParseLevel(c.Button.DefaultState)
	return button.Config{
		Pin:          c.Button.Pin,
		PullUp:       c.Button.PullUp,
		DefaultState: level,
	}
}

// ParseLevel parses "high"/"low" (also "1"/"0") into a button.Level.
func ParseLevel(s string) (button.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1":
		return button.High, nil
	case "low", "0":
		return button.Low, nil
	default:
		return button.Low, fmt.Errorf("invalid default state %q (want high or low)", s)
	}
}

func (c *Config) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	return decoder.Decode(c)
}

// SetupLogging applies the log section to the standard logrus logger.
// The caller closes Log.Output when it is a file.
func (c *Config) SetupLogging() (err error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	switch c.Log.File {
	case "", "stderr":
		c.Log.Output = os.Stderr
	case "stdout":
		c.Log.Output = os.Stdout
	default:
		if c.Log.Output, err = os.OpenFile(c.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return fmt.Errorf("unable to open log file %q: %w", c.Log.File, err)
		}
	}
	log.SetOutput(c.Log.Output)
	return nil
}
