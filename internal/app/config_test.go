package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "objectdms", cfg.Database.Postgres.Database)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "objectdms-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 45*time.Minute, cfg.Auth.JWT.TTL)

	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@hourly", cfg.Maintenance.AuditSchedule)
	require.Equal(t, "@daily", cfg.Maintenance.AssignmentSchedule)

	require.Equal(t, "root", cfg.Bootstrap.AdminUsername)
	require.Equal(t, "bootstrap-pass", cfg.Bootstrap.AdminPassword)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
}

func TestDatabaseOptionsMapsDriverSettings(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "mysql"
	cfg.Database.MySQL.Host = "mysql.internal"
	cfg.Database.MySQL.Port = 3307
	cfg.Database.MySQL.Database = "dms"
	cfg.Database.MySQL.Username = "app"
	cfg.Database.MySQL.Password = "pw"

	opts := cfg.DatabaseOptions()
	require.Equal(t, "mysql", opts.Driver)
	require.Equal(t, "mysql.internal", opts.Host)
	require.Equal(t, 3307, opts.Port)
	require.Equal(t, "dms", opts.Name)
	require.Equal(t, "app", opts.User)
	require.Equal(t, "pw", opts.Password)
}
