package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-sobriety/internal/config"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v, t.TempDir())
	return v
}

func TestLoad_Defaults(t *testing.T) {
	v := newViper(t)

	s, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, s.ServerPort)
	assert.Equal(t, config.DefaultLanguage, s.Language)
	assert.Equal(t, config.DefaultTickInterval, s.TickInterval)
	assert.Equal(t, config.DefaultReloadInterval, s.ReloadInterval)
	assert.Equal(t, config.DBFileName, filepath.Base(s.DBPath))
	assert.True(t, s.FeedTokenRequired)
	assert.False(t, s.Reminder.Enabled)
	assert.Empty(t, s.ReminderTrigger())
}

func TestLoad_FromTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
server_port = 9000
language = "fr"
tick_interval = "500ms"

[reminder]
enabled = true
value = 2
unit = "h"
direction = "after"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	s, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "9000", s.ServerPort)
	assert.Equal(t, "fr", s.Language)
	assert.Equal(t, 500*time.Millisecond, s.TickInterval)
	assert.Equal(t, "P2H", s.ReminderTrigger())
}

func TestLoad_RepairsBadValues(t *testing.T) {
	v := newViper(t)
	v.Set(config.KeyLanguage, "xx")
	v.Set(config.KeyTickInterval, "-1s")
	v.Set(config.KeyReminderValue, 0)

	s, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLanguage, s.Language, "unsupported languages fall back to the default")
	assert.Equal(t, config.DefaultTickInterval, s.TickInterval)
	assert.Equal(t, config.DefaultReminderValue, s.Reminder.Value)
}

func TestLoad_InvalidPort(t *testing.T) {
	v := newViper(t)
	v.Set(config.KeyServerPort, "70000")

	_, err := config.Load(v)
	assert.EqualError(t, err, config.ErrPortRange)
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr string
	}{
		{"Valid", "8080", ""},
		{"Lower bound", "1", ""},
		{"Upper bound", "65535", ""},
		{"Empty", "", config.ErrPortRequired},
		{"Not a number", "http", config.ErrPortNumber},
		{"Zero", "0", config.ErrPortRange},
		{"Too large", "65536", config.ErrPortRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidatePort(tt.port)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestSettings_ReminderTrigger tests the conversion of reminder settings to
// the ISO 8601 trigger used in the calendar feed.
func TestSettings_ReminderTrigger(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		val         int
		unit        string
		direction   string
		wantTrigger string // Expected ISO8601 string
	}{
		{
			name:        "Disabled",
			enabled:     false,
			val:         1,
			wantTrigger: "",
		},
		{
			name:        "1 Day Before",
			enabled:     true,
			val:         1,
			unit:        config.UnitDays,
			direction:   config.DirBefore,
			wantTrigger: "-P1D",
		},
		{
			name:        "2 Hours After",
			enabled:     true,
			val:         2,
			unit:        config.UnitHours,
			direction:   config.DirAfter,
			wantTrigger: "P2H",
		},
		{
			name:        "30 Minutes Before",
			enabled:     true,
			val:         30,
			unit:        config.UnitMinutes,
			direction:   config.DirBefore,
			wantTrigger: "-P30M",
		},
		{
			name:        "Unknown unit falls back to days",
			enabled:     true,
			val:         3,
			unit:        "w",
			direction:   config.DirBefore,
			wantTrigger: "-P3D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Settings{Reminder: config.ReminderSettings{
				Enabled:   tt.enabled,
				Value:     tt.val,
				Unit:      tt.unit,
				Direction: tt.direction,
			}}
			assert.Equal(t, tt.wantTrigger, s.ReminderTrigger())
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("language = \"en\"\n"), 0o600))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	changes := make(chan config.Settings, 8)
	config.Watch(v, func(s config.Settings) { changes <- s })

	require.NoError(t, os.WriteFile(path, []byte("language = \"fr\"\n"), 0o600))

	// A write may surface as several events; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-changes:
			if s.Language == "fr" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestAppDir_CreatesDirectory(t *testing.T) {
	base := t.TempDir()

	dir, err := config.AppDir(func() (string, error) { return base, nil }, config.ErrConfigDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, config.AppID), dir)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
