package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

// EnvPrefix is prepended to every environment override, e.g.
// DEVLAUNCH_CHROME_LAUNCH_TIMEOUT.
const EnvPrefix = "DEVLAUNCH"

// Config represents the complete devlaunch configuration
type Config struct {
	Chrome   ChromeConfig   `mapstructure:"chrome"`
	Profile  ProfileConfig  `mapstructure:"profile"`
	Worktree WorktreeConfig `mapstructure:"worktree"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ChromeConfig controls how Chrome is found and launched
type ChromeConfig struct {
	// Path is an explicit Chrome executable. Also read from CHROME_PATH.
	Path string `mapstructure:"path"`
	// LaunchTimeout bounds the wait for the DevTools endpoint (default: 30s)
	LaunchTimeout time.Duration `mapstructure:"launch_timeout"`
	// AdditionalArgs are extra Chrome flags, filtered against the safe list
	AdditionalArgs []string `mapstructure:"additional_args"`
	// StopGrace is how long Chrome gets to exit after SIGTERM (default: 5s)
	StopGrace time.Duration `mapstructure:"stop_grace"`
}

// ProfileConfig controls where browser profiles live
type ProfileConfig struct {
	// RootDir holds one user data directory per profile (default: ~/.ih-dopen)
	RootDir string `mapstructure:"root_dir"`
}

// WorktreeConfig controls gwm
type WorktreeConfig struct {
	// BaseDir holds provisioned worktrees (default: ~/.git-worktree-manager)
	BaseDir string `mapstructure:"base_dir"`
	// GitBinary is the git executable to run (default: git)
	GitBinary string `mapstructure:"git_binary"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `mapstructure:"level"`
	// MaxSizeMB is the size at which debug.log is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Chrome: ChromeConfig{
			Path:           "",
			LaunchTimeout:  30 * time.Second,
			AdditionalArgs: []string{},
			StopGrace:      5 * time.Second,
		},
		Profile: ProfileConfig{
			RootDir: "~/.ih-dopen",
		},
		Worktree: WorktreeConfig{
			BaseDir:   "~/.git-worktree-manager",
			GitBinary: "git",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Chrome defaults
	viper.SetDefault("chrome.path", defaults.Chrome.Path)
	viper.SetDefault("chrome.launch_timeout", defaults.Chrome.LaunchTimeout)
	viper.SetDefault("chrome.additional_args", defaults.Chrome.AdditionalArgs)
	viper.SetDefault("chrome.stop_grace", defaults.Chrome.StopGrace)

	// Profile defaults
	viper.SetDefault("profile.root_dir", defaults.Profile.RootDir)

	// Worktree defaults
	viper.SetDefault("worktree.base_dir", defaults.Worktree.BaseDir)
	viper.SetDefault("worktree.git_binary", defaults.Worktree.GitBinary)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Init registers defaults, environment bindings and the config file with
// viper. cfgFile overrides the default search path. A missing or unreadable
// config file is not an error.
func Init(cfgFile string) {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
	}

	viper.SetEnvPrefix(EnvPrefix)
	// Map nested keys like chrome.launch_timeout to DEVLAUNCH_CHROME_LAUNCH_TIMEOUT
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("chrome.path", EnvPrefix+"_CHROME_PATH", "CHROME_PATH")

	_ = viper.ReadInConfig()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError("cannot decode configuration").WithCause(err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError("invalid configuration").WithCause(ValidationErrors(errs))
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devlaunch")
	}
	// Fall back to ~/.config/devlaunch
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devlaunch"
	}
	return filepath.Join(home, ".config", "devlaunch")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ExpandPath expands a leading ~ to the user's home directory and makes
// relative paths absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.NewConfigError("cannot determine home directory").WithCause(err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewConfigError("cannot resolve path").WithValue(path).WithCause(err)
	}
	return abs, nil
}

// ProfileRootDir returns the expanded profile root directory.
func (c *Config) ProfileRootDir() (string, error) {
	return ExpandPath(c.Profile.RootDir)
}

// WorktreeBaseDir returns the expanded worktree base directory.
func (c *Config) WorktreeBaseDir() (string, error) {
	return ExpandPath(c.Worktree.BaseDir)
}
