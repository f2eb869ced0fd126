package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
lutron:
  host: "192.168.1.50"
  username: "lutron"
  password: "integration"
buttons:
  long_press: 750ms
gpio:
  buttons:
    - name: "Doorbell"
      area: "Porch"
      line: 17
mqtt:
  broker: "tcp://broker:1883"
heartbeat: 5m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Lutron.Host != "192.168.1.50" {
		t.Errorf("Lutron.Host = %q", cfg.Lutron.Host)
	}
	if cfg.Buttons.LongPress != 750*time.Millisecond {
		t.Errorf("Buttons.LongPress = %v", cfg.Buttons.LongPress)
	}
	// Defaults survive for keys not in the file.
	if cfg.Buttons.SuperLongPress != time.Second {
		t.Errorf("Buttons.SuperLongPress = %v, want default 1s", cfg.Buttons.SuperLongPress)
	}
	if cfg.Lutron.Port != 23 {
		t.Errorf("Lutron.Port = %d, want default 23", cfg.Lutron.Port)
	}
	if len(cfg.GPIO.Buttons) != 1 || cfg.GPIO.Buttons[0].Line != 17 {
		t.Errorf("GPIO.Buttons = %+v", cfg.GPIO.Buttons)
	}
	if cfg.Heartbeat != 5*time.Minute {
		t.Errorf("Heartbeat = %v", cfg.Heartbeat)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("MQTT.Broker = %q", cfg.MQTT.Broker)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
lutron:
  host: ""
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"lutron.host", "lutron.username", "lutron.password"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
lutron:
  host: "from-file"
  username: "lutron"
`)
	t.Setenv("LUTRON_BRIDGE_LUTRON_HOST", "from-env")
	t.Setenv("LUTRON_BRIDGE_LUTRON_PASSWORD", "secret")
	t.Setenv("LUTRON_BRIDGE_MQTT_BROKER", "tcp://env:1883")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Lutron.Host != "from-env" {
		t.Errorf("Lutron.Host = %q, want from-env", cfg.Lutron.Host)
	}
	if cfg.Lutron.Password != "secret" {
		t.Errorf("Lutron.Password not overridden")
	}
	if cfg.MQTT.Broker != "tcp://env:1883" {
		t.Errorf("MQTT.Broker = %q", cfg.MQTT.Broker)
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Lutron.Host = "repeater"
	cfg.Lutron.Username = "lutron"
	cfg.Lutron.Password = "integration"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Lutron.Port = 0 }, "lutron.port"},
		{"zero long press", func(c *Config) { c.Buttons.LongPress = 0 }, "buttons.long_press"},
		{"zero super long press", func(c *Config) { c.Buttons.SuperLongPress = 0 }, "buttons.super_long_press"},
		{"empty event name", func(c *Config) { c.Buttons.EventName = "" }, "buttons.event_name"},
		{"empty broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"zero buffer", func(c *Config) { c.MQTT.BufferSize = 0 }, "mqtt.buffer_size"},
		{"empty logbook path", func(c *Config) { c.Logbook.Path = "" }, "logbook.path"},
		{"negative heartbeat", func(c *Config) { c.Heartbeat = -time.Second }, "heartbeat"},
		{"unnamed gpio button", func(c *Config) {
			c.GPIO.Buttons = []GPIOButtonConfig{{Line: 4}}
		}, "gpio.buttons[0].name"},
		{"duplicate gpio line", func(c *Config) {
			c.GPIO.Buttons = []GPIOButtonConfig{{Name: "a", Line: 4}, {Name: "b", Line: 4}}
		}, "used twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	cfg.MQTT.Password = "mqtt-secret"

	r := cfg.Redacted()
	if r.Lutron.Password == "integration" || r.MQTT.Password == "mqtt-secret" {
		t.Error("secrets not redacted")
	}
	if cfg.Lutron.Password != "integration" {
		t.Error("Redacted modified the original")
	}
}

func TestLutronURLs(t *testing.T) {
	cfg := validConfig()
	if got := cfg.LutronAddr(); got != "repeater:23" {
		t.Errorf("LutronAddr = %q", got)
	}
	if got := cfg.LutronXMLURL(); got != "http://repeater/DbXmlInfo.xml" {
		t.Errorf("LutronXMLURL = %q", got)
	}
	cfg.Lutron.XMLPath = "db.xml"
	if got := cfg.LutronXMLURL(); got != "http://repeater/db.xml" {
		t.Errorf("LutronXMLURL = %q", got)
	}
}
