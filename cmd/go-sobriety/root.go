package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"
	"github.com/tartampluch/go-sobriety/internal/locale"
	"github.com/tartampluch/go-sobriety/internal/store"
	"github.com/tartampluch/go-sobriety/internal/tracker"
)

// cli carries the state shared by every command.
type cli struct {
	out    io.Writer
	errOut io.Writer
	clock  engine.Clock

	v        *viper.Viper
	settings config.Settings
	locale   *locale.Locale

	configFile  string
	debug       bool
	showVersion bool

	logCloser io.Closer
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{
		out:    stdout,
		errOut: stderr,
		clock:  engine.RealClock{},
	}
}

func (a *cli) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close() // Best effort close
	}
}

func newRootCmd(a *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           config.BinaryName,
		Short:         config.CmdShortRoot,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.showVersion {
				return nil
			}
			return a.initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.showVersion {
				printVersion(a.out)
				return nil
			}
			return cmd.Help()
		},
	}

	root.Flags().BoolVar(&a.showVersion, config.FlagVersion, false, config.FlagDescVersion)
	root.PersistentFlags().BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)
	root.PersistentFlags().StringVar(&a.configFile, config.FlagConfig, "", config.FlagDescConfig)
	root.PersistentFlags().String(config.FlagDB, "", config.FlagDescDB)
	root.PersistentFlags().String(config.FlagLanguage, "", config.FlagDescLanguage)

	root.AddCommand(
		newStatusCmd(a),
		newSetCmd(a),
		newUpdateCmd(a),
		newResetCmd(a),
		newHistoryCmd(a),
		newMilestonesCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
	)
	return root
}

// initConfig layers defaults, the TOML config file, SOBRIETY_* environment
// variables and command line flags, then starts logging.
func (a *cli) initConfig(cmd *cobra.Command) error {
	dataDir, err := config.AppDir(os.UserConfigDir, config.ErrConfigDir)
	if err != nil {
		return err
	}

	v := viper.New()
	config.SetDefaults(v, dataDir)

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
	} else {
		v.SetConfigName(config.ConfigFileName)
		v.SetConfigType(config.ConfigFileType)
		v.AddConfigPath(dataDir)
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(config.EnvKeySeparator, config.EnvSeparator))
	v.AutomaticEnv()

	flagKeys := map[string]string{
		config.FlagDB:       config.KeyDBPath,
		config.FlagLanguage: config.KeyLanguage,
		config.FlagPort:     config.KeyServerPort,
	}
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	// A missing default config file is fine; an explicit one must exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("%s: %w", config.ErrConfigRead, err)
		}
	}

	settings, err := config.Load(v)
	if err != nil {
		return err
	}

	var console io.Writer
	if a.debug || cmd.Name() == serveCmdName {
		console = a.errOut
	}
	a.logCloser = setupLogging(a.debug, console)

	a.v = v
	a.settings = settings
	a.locale = locale.New(settings.Language)
	return nil
}

// openStore opens the record store, creating its directory when needed.
func (a *cli) openStore(ctx context.Context) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(a.settings.DBPath), config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return store.Open(ctx, a.settings.DBPath, a.clock)
}

// newTracker builds a tracker with the localized formatters.
func (a *cli) newTracker(s tracker.RecordStore, pub tracker.Publisher) *tracker.Tracker {
	return tracker.New(s, tracker.Options{
		Clock:             a.clock,
		Publisher:         pub,
		Format:            a.locale.FormatBreakdown,
		NoRecordText:      a.locale.NoActiveRecord(),
		FormatSummary:     a.locale.Summary,
		FormatDescription: a.locale.MilestoneDescription,
		TickInterval:      a.settings.TickInterval,
		ReloadInterval:    a.settings.ReloadInterval,
		ReminderTrigger:   a.settings.ReminderTrigger(),
	})
}
