package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReminderSettings describes the alarm attached to upcoming milestone events.
type ReminderSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	Value     int    `mapstructure:"value"`
	Unit      string `mapstructure:"unit"`      // UnitDays, UnitHours or UnitMinutes
	Direction string `mapstructure:"direction"` // DirBefore or DirAfter
}

// Settings holds the runtime configuration.
// Values are populated from config.toml, SOBRIETY_* env vars, and CLI flags.
type Settings struct {
	DBPath            string           `mapstructure:"db_path"`
	ServerPort        string           `mapstructure:"server_port"`
	Language          string           `mapstructure:"language"`
	TickInterval      time.Duration    `mapstructure:"tick_interval"`
	ReloadInterval    time.Duration    `mapstructure:"reload_interval"`
	FeedTokenRequired bool             `mapstructure:"feed_token_required"`
	Reminder          ReminderSettings `mapstructure:"reminder"`
}

// SetDefaults registers the built-in defaults on v. dataDir is where the
// database lives unless overridden.
func SetDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault(KeyDBPath, filepath.Join(dataDir, DBFileName))
	v.SetDefault(KeyServerPort, DefaultPort)
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeyTickInterval, DefaultTickInterval)
	v.SetDefault(KeyReloadInterval, DefaultReloadInterval)
	v.SetDefault(KeyFeedToken, true)
	v.SetDefault(KeyReminderEnabled, false)
	v.SetDefault(KeyReminderValue, DefaultReminderValue)
	v.SetDefault(KeyReminderUnit, UnitDays)
	v.SetDefault(KeyReminderDir, DirBefore)
}

// Load decodes the settings held by v and repairs values that would make the
// tracker or the server misbehave.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrConfigRead, err)
	}

	if err := ValidatePort(s.ServerPort); err != nil {
		return Settings{}, err
	}
	if s.TickInterval <= 0 {
		s.TickInterval = DefaultTickInterval
	}
	if s.ReloadInterval <= 0 {
		s.ReloadInterval = DefaultReloadInterval
	}
	if !slices.Contains(SupportedLanguages, s.Language) {
		s.Language = DefaultLanguage
	}
	if s.Reminder.Value <= 0 {
		s.Reminder.Value = DefaultReminderValue
	}
	return s, nil
}

// ValidatePort checks that p is a usable TCP port number.
func ValidatePort(p string) error {
	if p == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrPortNumber, err)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// ReminderTrigger converts the reminder settings into an ISO 8601 duration
// usable as a VALARM TRIGGER ("-P1D", "P2H"). Empty when reminders are off.
func (s Settings) ReminderTrigger() string {
	r := s.Reminder
	if !r.Enabled {
		return ""
	}

	sign := ISOPeriodPrefix
	if r.Direction == DirBefore {
		sign = ISONegativePrefix
	}

	switch r.Unit {
	case UnitHours:
		return fmt.Sprintf("%s%d%s", sign, r.Value, ISOHour)
	case UnitMinutes:
		return fmt.Sprintf("%s%d%s", sign, r.Value, ISOMinute)
	default:
		return fmt.Sprintf("%s%d%s", sign, r.Value, ISODay)
	}
}

// Watch reloads the settings whenever the config file read by v changes and
// hands the result to onChange. Invalid edits are logged and ignored.
func Watch(v *viper.Viper, onChange func(Settings)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		s, err := Load(v)
		if err != nil {
			slog.Warn(ErrConfigRead,
				LogKeyComponent, CompConfig,
				LogKeyFile, e.Name,
				LogKeyError, err,
			)
			return
		}
		slog.Info(MsgConfigChanged,
			LogKeyComponent, CompConfig,
			LogKeyFile, e.Name,
		)
		onChange(s)
	})
	v.WatchConfig()
}

// AppDir returns (and creates) the application directory under base, one of
// os.UserConfigDir or os.UserCacheDir.
func AppDir(base func() (string, error), errMsg string) (string, error) {
	root, err := base()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errMsg, err)
	}

	dir := filepath.Join(root, AppID)

	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	return dir, nil
}
