// Package config loads the lutron-bridge configuration.
//
// Configuration is read from YAML on top of built-in defaults, then
// overridden by LUTRON_BRIDGE_* environment variables, then validated.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Lutron    LutronConfig  `yaml:"lutron"`
	Buttons   ButtonsConfig `yaml:"buttons"`
	GPIO      GPIOConfig    `yaml:"gpio"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	Logbook   LogbookConfig `yaml:"logbook"`
	HTTP      HTTPConfig    `yaml:"http"`
	Logging   LoggingConfig `yaml:"logging"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// LutronConfig contains main repeater connection settings.
type LutronConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// XMLPath is the path of the integration database on the repeater's
	// web server.
	XMLPath        string        `yaml:"xml_path"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// ButtonsConfig tunes button classification.
type ButtonsConfig struct {
	LongPress      time.Duration `yaml:"long_press"`
	SuperLongPress time.Duration `yaml:"super_long_press"`
	EventName      string        `yaml:"event_name"`
}

// GPIOConfig describes locally wired buttons. Empty Buttons disables GPIO.
type GPIOConfig struct {
	Chip     string             `yaml:"chip"`
	Debounce time.Duration      `yaml:"debounce"`
	Buttons  []GPIOButtonConfig `yaml:"buttons"`
}

// GPIOButtonConfig is one active-low momentary button.
type GPIOButtonConfig struct {
	Name string `yaml:"name"`
	Area string `yaml:"area"`
	Line int    `yaml:"line"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	BufferSize int    `yaml:"buffer_size"`
}

// LogbookConfig contains logbook journal settings.
type LogbookConfig struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// HTTPConfig contains status server settings. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

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

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Lutron: LutronConfig{
			Port:           23,
			XMLPath:        "/DbXmlInfo.xml",
			ReconnectDelay: 5 * time.Second,
		},
		Buttons: ButtonsConfig{
			LongPress:      500 * time.Millisecond,
			SuperLongPress: 1 * time.Second,
			EventName:      "button_activity",
		},
		GPIO: GPIOConfig{
			Chip:     "gpiochip0",
			Debounce: 20 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://localhost:1883",
			ClientID:   "lutron-bridge",
			BufferSize: 1000,
		},
		Logbook: LogbookConfig{
			Path:       "/var/lib/lutron-bridge/logbook.db",
			MaxEntries: 10000,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Heartbeat: 15 * time.Minute,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LUTRON_BRIDGE_LUTRON_HOST"); v != "" {
		cfg.Lutron.Host = v
	}
	if v := os.Getenv("LUTRON_BRIDGE_LUTRON_USERNAME"); v != "" {
		cfg.Lutron.Username = v
	}
	if v := os.Getenv("LUTRON_BRIDGE_LUTRON_PASSWORD"); v != "" {
		cfg.Lutron.Password = v
	}
	if v := os.Getenv("LUTRON_BRIDGE_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("LUTRON_BRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("LUTRON_BRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Lutron.Host == "" {
		errs = append(errs, "lutron.host is required")
	}
	if c.Lutron.Username == "" {
		errs = append(errs, "lutron.username is required")
	}
	if c.Lutron.Password == "" {
		errs = append(errs, "lutron.password is required (set LUTRON_BRIDGE_LUTRON_PASSWORD)")
	}
	if c.Lutron.Port < 1 || c.Lutron.Port > 65535 {
		errs = append(errs, "lutron.port must be between 1 and 65535")
	}
	if c.Lutron.ReconnectDelay <= 0 {
		errs = append(errs, "lutron.reconnect_delay must be positive")
	}

	if c.Buttons.LongPress <= 0 {
		errs = append(errs, "buttons.long_press must be positive")
	}
	if c.Buttons.SuperLongPress <= 0 {
		errs = append(errs, "buttons.super_long_press must be positive")
	}
	if c.Buttons.EventName == "" {
		errs = append(errs, "buttons.event_name is required")
	}

	seen := make(map[int]bool)
	for i, b := range c.GPIO.Buttons {
		if b.Name == "" {
			errs = append(errs, fmt.Sprintf("gpio.buttons[%d].name is required", i))
		}
		if b.Line < 0 {
			errs = append(errs, fmt.Sprintf("gpio.buttons[%d].line must not be negative", i))
		}
		if seen[b.Line] {
			errs = append(errs, fmt.Sprintf("gpio.buttons[%d].line %d is used twice", i, b.Line))
		}
		seen[b.Line] = true
	}

	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.MQTT.BufferSize < 1 {
		errs = append(errs, "mqtt.buffer_size must be at least 1")
	}

	if c.Logbook.Path == "" {
		errs = append(errs, "logbook.path is required")
	}
	if c.Logbook.MaxEntries < 1 {
		errs = append(errs, "logbook.max_entries must be at least 1")
	}

	if c.Heartbeat < 0 {
		errs = append(errs, "heartbeat must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.GPIO.Buttons = append([]GPIOButtonConfig(nil), c.GPIO.Buttons...)
	if out.Lutron.Password != "" {
		out.Lutron.Password = "********"
	}
	if out.MQTT.Password != "" {
		out.MQTT.Password = "********"
	}
	return out
}

// LutronAddr returns host:port of the repeater's integration port.
func (c *Config) LutronAddr() string {
	return fmt.Sprintf("%s:%d", c.Lutron.Host, c.Lutron.Port)
}

// LutronXMLURL returns the URL of the repeater's integration database.
func (c *Config) LutronXMLURL() string {
	path := c.Lutron.XMLPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + c.Lutron.Host + path
}
