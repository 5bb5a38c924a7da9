package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Chrome.LaunchTimeout != 30*time.Second {
		t.Errorf("Chrome.LaunchTimeout = %v, want 30s", cfg.Chrome.LaunchTimeout)
	}
	if cfg.Chrome.StopGrace != 5*time.Second {
		t.Errorf("Chrome.StopGrace = %v, want 5s", cfg.Chrome.StopGrace)
	}
	if cfg.Profile.RootDir != "~/.ih-dopen" {
		t.Errorf("Profile.RootDir = %q", cfg.Profile.RootDir)
	}
	if cfg.Worktree.BaseDir != "~/.git-worktree-manager" {
		t.Errorf("Worktree.BaseDir = %q", cfg.Worktree.BaseDir)
	}
	if cfg.Worktree.GitBinary != "git" {
		t.Errorf("Worktree.GitBinary = %q, want git", cfg.Worktree.GitBinary)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/devlaunch" {
			t.Errorf("ConfigDir() = %q, want /custom/config/devlaunch", got)
		}
	})

	t.Run("falls back to ~/.config/devlaunch", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		want := filepath.Join(home, ".config", "devlaunch")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/devlaunch/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~", home},
		{"~/.ih-dopen", filepath.Join(home, ".ih-dopen")},
		{"/abs/path", "/abs/path"},
		{"relative/dir", filepath.Join(cwd, "relative/dir")},
		{"~user/x", filepath.Join(cwd, "~user/x")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfig_DirAccessors(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	root, err := cfg.ProfileRootDir()
	if err != nil || root != filepath.Join(home, ".ih-dopen") {
		t.Errorf("ProfileRootDir() = %q, %v", root, err)
	}
	base, err := cfg.WorktreeBaseDir()
	if err != nil || base != filepath.Join(home, ".git-worktree-manager") {
		t.Errorf("WorktreeBaseDir() = %q, %v", base, err)
	}
}

func TestInitAndLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	content := `chrome:
  launch_timeout: 45s
  additional_args:
    - --headless
profile:
  root_dir: /tmp/profiles
logging:
  level: debug
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHROME_PATH", "/opt/chrome/chrome")
	t.Setenv("DEVLAUNCH_WORKTREE_GIT_BINARY", "/usr/local/bin/git")

	Init(cfgFile)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chrome.LaunchTimeout != 45*time.Second {
		t.Errorf("Chrome.LaunchTimeout = %v, want 45s", cfg.Chrome.LaunchTimeout)
	}
	if len(cfg.Chrome.AdditionalArgs) != 1 || cfg.Chrome.AdditionalArgs[0] != "--headless" {
		t.Errorf("Chrome.AdditionalArgs = %v", cfg.Chrome.AdditionalArgs)
	}
	if cfg.Chrome.Path != "/opt/chrome/chrome" {
		t.Errorf("Chrome.Path = %q, want CHROME_PATH value", cfg.Chrome.Path)
	}
	if cfg.Profile.RootDir != "/tmp/profiles" {
		t.Errorf("Profile.RootDir = %q", cfg.Profile.RootDir)
	}
	if cfg.Worktree.GitBinary != "/usr/local/bin/git" {
		t.Errorf("Worktree.GitBinary = %q, want env override", cfg.Worktree.GitBinary)
	}
	if cfg.Worktree.BaseDir != "~/.git-worktree-manager" {
		t.Errorf("Worktree.BaseDir = %q, want default", cfg.Worktree.BaseDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("chrome.launch_timeout", "0s")
	viper.Set("logging.level", "verbose")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error")
	}
	if errors.KindOf(err) != errors.KindConfiguration {
		t.Errorf("KindOf = %v, want configuration", errors.KindOf(err))
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("ValidationErrors = %v", verrs)
	}

	if got := Get(); got.Chrome.LaunchTimeout != 30*time.Second {
		t.Errorf("Get() did not fall back to defaults: %+v", got.Chrome)
	}
}
