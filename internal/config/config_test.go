package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreMemory)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "admin", cfg.Auth.Username)
	assert.Equal(t, 30, cfg.Reporting.WindowDays)
	assert.Equal(t, "Asia/Makassar", cfg.Reporting.Location().String())
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreMemory)
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("RECONCILE_REPAIR", "true")
	t.Setenv("REPORT_WINDOW_DAYS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Reporting.ReconcileRepair)
	assert.Equal(t, 7, cfg.Reporting.WindowDays)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Store:     StoreConfig{Backend: StoreMongoDB},
			MongoDB:   MongoDBConfig{URI: "mongodb://localhost", DBName: "stock"},
			Auth:      AuthConfig{Username: "admin", Password: "pw", TokenSecret: "s"},
			Reporting: ReportingConfig{CronSchedule: "0 20 * * 5", WindowDays: 30, Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "memory backend skips mongo", modify: func(c *Config) { c.Store.Backend = StoreMemory; c.MongoDB = MongoDBConfig{} }},
		{name: "unknown backend", modify: func(c *Config) { c.Store.Backend = "redis" }, wantErr: true},
		{name: "missing mongo uri", modify: func(c *Config) { c.MongoDB.URI = "" }, wantErr: true},
		{name: "missing password", modify: func(c *Config) { c.Auth.Password = "" }, wantErr: true},
		{name: "sheets without credentials", modify: func(c *Config) { c.Sheets.SpreadsheetID = "abc" }, wantErr: true},
		{name: "zero window", modify: func(c *Config) { c.Reporting.WindowDays = 0 }, wantErr: true},
		{name: "bad timezone", modify: func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "kafka without topic", modify: func(c *Config) { c.Kafka.Brokers = []string{"x:1"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
