package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Remote.StartupTimeout)
	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, "v5", cfg.Sync.CacheVersion)
	assert.Equal(t, 1, cfg.Sync.WriteAttempts)
	assert.Equal(t, []string{"09:00", "16:00"}, cfg.Calendar.CitaSlots)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, ":8098", cfg.Store.Addr)

	ws, err := cfg.WeekStart()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, ws)
}

func TestNewConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CALENDAR_WEEK_START", "Sunday")
	t.Setenv("CALENDAR_CITA_SLOTS", "10:00, 12:30")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("SYNC_INTERVAL", "30s")

	cfg, err := NewConfig()
	require.NoError(t, err)

	ws, _ := cfg.WeekStart()
	assert.Equal(t, time.Sunday, ws)
	assert.Equal(t, []string{"10:00", "12:30"}, cfg.Calendar.CitaSlots)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"week start", map[string]string{"CALENDAR_WEEK_START": "friday"}},
		{"slot", map[string]string{"CALENDAR_CITA_SLOTS": "9am"}},
		{"window", map[string]string{"CALENDAR_DAY_START": "21:00"}},
		{"interval", map[string]string{"SYNC_INTERVAL": "0s"}},
		{"backend", map[string]string{"CACHE_BACKEND": "memcached"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
