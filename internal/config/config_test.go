package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 15*time.Minute, c.AccessTTL())
	assert.Equal(t, 14*24*time.Hour, c.RefreshTTL())
	assert.Equal(t, 10, c.Rate.Login.Limit)
	assert.Equal(t, 0, c.Sweep.BoundaryHour)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9000"
storage:
  driver: postgres
  dsn: postgres://localhost/chamba
jwt:
  access_ttl: 10m
sweep:
  enabled: true
  boundary_hour: 3
  timezone: America/Argentina/Buenos_Aires
`)
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("JWT_ACCESS_SECRET", "secreto-access-de-al-menos-32-bytes!")

	c, err := Load(p)
	require.NoError(t, err)

	// Env pisa YAML.
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, 10*time.Minute, c.AccessTTL())
	assert.Equal(t, 3, c.Sweep.BoundaryHour)
	assert.Equal(t, "America/Argentina/Buenos_Aires", c.SweepLocation().String())
	assert.Equal(t, "secreto-access-de-al-menos-32-bytes!", c.JWT.AccessSecret)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad duration", "jwt:\n  access_ttl: nope\n"},
		{"bad boundary hour", "sweep:\n  boundary_hour: 24\n"},
		{"bad driver", "storage:\n  driver: oracle\n"},
		{"bad timezone", "sweep:\n  timezone: Mars/Olympus\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeYAML(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}
