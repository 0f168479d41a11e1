package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
core:
  base_url: "http://core.local:8080"
  telegram_topic: "graylogic/knx/telegram"
monitor:
  min_buffer: 500
  growth_factor: 0.2
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8090
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Core.BaseURL != "http://core.local:8080" {
		t.Errorf("Core.BaseURL = %q, want %q", cfg.Core.BaseURL, "http://core.local:8080")
	}

	if cfg.Monitor.MinBuffer != 500 {
		t.Errorf("Monitor.MinBuffer = %d, want 500", cfg.Monitor.MinBuffer)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
api:
  port: 8090
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	validCore := CoreConfig{
		BaseURL:       "http://localhost:8080",
		TelegramTopic: "graylogic/knx/telegram",
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Site: SiteConfig{ID: "site-001"},
				Core: validCore,
				Database: DatabaseConfig{
					Path: "/data/graymonitor.db",
				},
				MQTT: MQTTConfig{
					QoS: 1,
				},
				API: APIConfig{
					Port: 8090,
				},
			},
			wantErr: false,
		},
		{
			name: "missing site ID",
			config: &Config{
				Site:     SiteConfig{ID: ""},
				Core:     validCore,
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				API:      APIConfig{Port: 8090},
			},
			wantErr: true,
		},
		{
			name: "missing core base URL",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     CoreConfig{TelegramTopic: "graylogic/knx/telegram"},
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				API:      APIConfig{Port: 8090},
			},
			wantErr: true,
		},
		{
			name: "missing telegram topic",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     CoreConfig{BaseURL: "http://localhost:8080"},
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				API:      APIConfig{Port: 8090},
			},
			wantErr: true,
		},
		{
			name: "missing database path",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     validCore,
				Database: DatabaseConfig{Path: ""},
				API:      APIConfig{Port: 8090},
			},
			wantErr: true,
		},
		{
			name: "invalid QoS",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     validCore,
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				MQTT:     MQTTConfig{QoS: 3},
				API:      APIConfig{Port: 8090},
			},
			wantErr: true,
		},
		{
			name: "invalid port low",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     validCore,
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				MQTT:     MQTTConfig{QoS: 1},
				API:      APIConfig{Port: 0},
			},
			wantErr: true,
		},
		{
			name: "invalid port high",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     validCore,
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				MQTT:     MQTTConfig{QoS: 1},
				API:      APIConfig{Port: 70000},
			},
			wantErr: true,
		},
		{
			name: "negative growth factor",
			config: &Config{
				Site:     SiteConfig{ID: "site-001"},
				Core:     validCore,
				Monitor:  MonitorConfig{GrowthFactor: -0.5},
				Database: DatabaseConfig{Path: "/data/graymonitor.db"},
				MQTT:     MQTTConfig{QoS: 1},
				API:      APIConfig{Port: 8090},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Core: CoreConfig{RequestTimeout: 10},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetCoreRequestTimeout().Seconds(); got != 10 {
		t.Errorf("GetCoreRequestTimeout() = %v, want 10", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("GRAYMONITOR_CORE_BASE_URL", "http://core.example.com")
	t.Setenv("GRAYMONITOR_CORE_TELEGRAM_TOPIC", "site/knx/telegram")
	t.Setenv("GRAYMONITOR_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYMONITOR_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYMONITOR_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYMONITOR_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYMONITOR_API_HOST", "192.168.1.1")
	t.Setenv("GRAYMONITOR_API_PORT", "9000")
	t.Setenv("GRAYMONITOR_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Core.BaseURL != "http://core.example.com" {
		t.Errorf("Core.BaseURL = %q, want %q", cfg.Core.BaseURL, "http://core.example.com")
	}

	if cfg.Core.TelegramTopic != "site/knx/telegram" {
		t.Errorf("Core.TelegramTopic = %q, want %q", cfg.Core.TelegramTopic, "site/knx/telegram")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Core.TelegramTopic == "" {
		t.Error("defaultConfig should have non-empty Core.TelegramTopic")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8090 {
		t.Errorf("defaultConfig API.Port = %d, want 8090", cfg.API.Port)
	}

	if cfg.Monitor.MinBuffer != 1000 {
		t.Errorf("defaultConfig Monitor.MinBuffer = %d, want 1000", cfg.Monitor.MinBuffer)
	}
}
