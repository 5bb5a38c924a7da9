// Package cmdutil holds the cobra and viper wiring shared by the
// chrome-remote-debug and gwm root commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/devlaunch/internal/config"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/logging"
)

// LogDirName is the directory under a tool's data root that holds debug.log.
const LogDirName = "logs"

// initConfig loads configuration before any command runs. It is registered
// once for the process; every root created by SetupRoot shares it.
var initConfig = func() {
	config.Init(viper.GetString("config"))
}

func init() {
	cobra.OnInitialize(func() { initConfig() })
}

// SetupRoot applies the settings every root command shares: silenced cobra
// output, --config and --log-level flags bound through viper, configuration
// loading before any command runs, and flag errors reported as
// configuration errors.
func SetupRoot(root *cobra.Command) {
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/devlaunch/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	BindFlag(root.PersistentFlags(), "config", "config")
	BindFlag(root.PersistentFlags(), "logging.level", "log-level")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewConfigError(err.Error()).WithCause(err)
	})
}

// BindFlag binds a viper key to a flag so an explicitly set flag overrides
// the config file and environment.
func BindFlag(flags *pflag.FlagSet, key, name string) {
	_ = viper.BindPFlag(key, flags.Lookup(name))
}

// LoadConfig returns the validated configuration.
func LoadConfig() (*config.Config, error) {
	return config.Load()
}

// CreateLogger returns a logger writing to {logDir}/debug.log with rotation
// taken from cfg. Failing to open the log must not stop the command, so a
// warning is written to warnOut and a no-op logger returned.
func CreateLogger(logDir string, cfg *config.Config, warnOut io.Writer) *logging.Logger {
	rotationConfig := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}

	logger, err := logging.NewLoggerWithRotation(logDir, logging.ParseLevel(cfg.Logging.Level), rotationConfig)
	if err != nil {
		if warnOut == nil {
			warnOut = os.Stderr
		}
		fmt.Fprintf(warnOut, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

// ExactArgs is cobra.ExactArgs reporting a configuration error with usage.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.NewConfigError(fmt.Sprintf("expected %d argument(s), got %d; usage: %s", n, len(args), cmd.UseLine()))
		}
		return nil
	}
}
