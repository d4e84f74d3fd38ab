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
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nlogd.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
instance:
  name: "billing"
pipeline:
  config_file: "billing.nlog.yaml"
  search_dirs: ["/etc/nlog", "/opt/nlog"]
  watch: true
  debounce_ms: 100
  reload_interval: 30
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
    client_id: "nlogd-test"
  qos: 1
admin:
  enabled: true
  port: 9999
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Instance.Name != "billing" {
		t.Errorf("Instance.Name = %q, want %q", cfg.Instance.Name, "billing")
	}
	if cfg.Pipeline.ConfigFile != "billing.nlog.yaml" {
		t.Errorf("Pipeline.ConfigFile = %q, want %q", cfg.Pipeline.ConfigFile, "billing.nlog.yaml")
	}
	if len(cfg.Pipeline.SearchDirs) != 2 || cfg.Pipeline.SearchDirs[1] != "/opt/nlog" {
		t.Errorf("Pipeline.SearchDirs = %v, want [/etc/nlog /opt/nlog]", cfg.Pipeline.SearchDirs)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Admin.Port != 9999 {
		t.Errorf("Admin.Port = %d, want 9999", cfg.Admin.Port)
	}
	// Defaults survive for keys not in the file.
	if cfg.Pipeline.ReloadTimeout != 30 {
		t.Errorf("Pipeline.ReloadTimeout = %d, want default 30", cfg.Pipeline.ReloadTimeout)
	}
}

// TestLoad_ShippedConfig keeps configs/nlogd.yaml loadable.
func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "nlogd.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Admin.Port != 9180 || !cfg.Database.Enabled {
		t.Errorf("unexpected shipped defaults: admin.port=%d database.enabled=%v",
			cfg.Admin.Port, cfg.Database.Enabled)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/nlogd.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
instance:
  name: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for empty instance.name, got nil")
	}
	if !strings.Contains(err.Error(), "instance.name") {
		t.Errorf("Load() error = %v, want mention of instance.name", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing instance name",
			mutate:  func(c *Config) { c.Instance.Name = "" },
			wantErr: true,
		},
		{
			name:    "unknown logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "logging level is case insensitive",
			mutate:  func(c *Config) { c.Logging.Level = "WARN" },
			wantErr: false,
		},
		{
			name: "no config file and no default names",
			mutate: func(c *Config) {
				c.Pipeline.ConfigFile = ""
				c.Pipeline.DefaultFileNames = nil
			},
			wantErr: true,
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Pipeline.DebounceMS = -1 },
			wantErr: true,
		},
		{
			name:    "negative reload interval",
			mutate:  func(c *Config) { c.Pipeline.ReloadInterval = -5 },
			wantErr: true,
		},
		{
			name: "database enabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name: "invalid QoS ignored when mqtt disabled",
			mutate: func(c *Config) {
				c.MQTT.QoS = 3
			},
			wantErr: false,
		},
		{
			name: "invalid QoS",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "admin port low",
			mutate: func(c *Config) {
				c.Admin.Enabled = true
				c.Admin.Port = 0
			},
			wantErr: true,
		},
		{
			name: "admin port high",
			mutate: func(c *Config) {
				c.Admin.Enabled = true
				c.Admin.Port = 70000
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDurations(t *testing.T) {
	cfg := &Config{
		Pipeline: PipelineConfig{
			DebounceMS:     250,
			ReloadInterval: 15,
			ReloadTimeout:  20,
		},
		Admin: AdminConfig{
			Timeouts: AdminTimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
			Auth: AdminAuthConfig{TokenTTL: 12},
		},
	}

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"debounce", cfg.GetDebounce(), 250 * time.Millisecond},
		{"reload interval", cfg.GetReloadInterval(), 15 * time.Second},
		{"reload timeout", cfg.GetReloadTimeout(), 20 * time.Second},
		{"read", cfg.GetReadTimeout(), 30 * time.Second},
		{"write", cfg.GetWriteTimeout(), 45 * time.Second},
		{"idle", cfg.GetIdleTimeout(), 60 * time.Second},
		{"token ttl", cfg.GetTokenTTL(), 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	searchDirs := strings.Join([]string{"/one", "/two"}, string(os.PathListSeparator))
	t.Setenv("NLOG_INSTANCE_NAME", "from-env")
	t.Setenv("NLOG_LOGGING_LEVEL", "debug")
	t.Setenv("NLOG_PIPELINE_CONFIG_FILE", "/etc/nlog/custom.yaml")
	t.Setenv("NLOG_PIPELINE_SEARCH_DIRS", searchDirs)
	t.Setenv("NLOG_DATABASE_PATH", "/custom/audit.db")
	t.Setenv("NLOG_MQTT_HOST", "mqtt.example.com")
	t.Setenv("NLOG_MQTT_USERNAME", "testuser")
	t.Setenv("NLOG_MQTT_PASSWORD", "testpass")
	t.Setenv("NLOG_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("NLOG_ADMIN_PORT", "9300")
	t.Setenv("NLOG_ADMIN_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Instance.Name != "from-env" {
		t.Errorf("Instance.Name = %q, want %q", cfg.Instance.Name, "from-env")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Pipeline.ConfigFile != "/etc/nlog/custom.yaml" {
		t.Errorf("Pipeline.ConfigFile = %q, want %q", cfg.Pipeline.ConfigFile, "/etc/nlog/custom.yaml")
	}
	if len(cfg.Pipeline.SearchDirs) != 2 || cfg.Pipeline.SearchDirs[0] != "/one" {
		t.Errorf("Pipeline.SearchDirs = %v, want [/one /two]", cfg.Pipeline.SearchDirs)
	}
	if cfg.Database.Path != "/custom/audit.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/audit.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v, want testuser/testpass", cfg.MQTT.Auth)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Admin.Port != 9300 {
		t.Errorf("Admin.Port = %d, want 9300", cfg.Admin.Port)
	}
	if cfg.Admin.Auth.JWTSecret != "jwt-secret" {
		t.Errorf("Admin.Auth.JWTSecret = %q, want %q", cfg.Admin.Auth.JWTSecret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := Default()
	t.Setenv("NLOG_ADMIN_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.Admin.Port != 9180 {
		t.Errorf("Admin.Port = %d, want default 9180", cfg.Admin.Port)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Instance.Name == "" {
		t.Error("Default should have non-empty Instance.Name")
	}
	if len(cfg.Pipeline.DefaultFileNames) == 0 {
		t.Error("Default should list default logging config file names")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.Database.Enabled || cfg.Admin.Enabled {
		t.Error("Default should leave optional infrastructure disabled")
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		t.Setenv("NLOG_INSTANCE_NAME", "from-env")
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadOrDefault() error = %v", err)
		}
		if cfg.Instance.Name != "from-env" {
			t.Errorf("Instance.Name = %q, want from-env", cfg.Instance.Name)
		}
		if cfg.Admin.Port != 9180 {
			t.Errorf("Admin.Port = %d, want default 9180", cfg.Admin.Port)
		}
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		path := writeConfig(t, "instance:\n  name: from-file\n")
		cfg, err := LoadOrDefault(path)
		if err != nil {
			t.Fatalf("LoadOrDefault() error = %v", err)
		}
		if cfg.Instance.Name != "from-file" {
			t.Errorf("Instance.Name = %q, want from-file", cfg.Instance.Name)
		}
	})

	t.Run("invalid file is still an error", func(t *testing.T) {
		path := writeConfig(t, "instance: [unclosed\n")
		if _, err := LoadOrDefault(path); err == nil {
			t.Error("LoadOrDefault() error = nil, want parse error")
		}
	})
}
