package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

func TestDefaultBaseDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DefaultBaseDir()
	if err != nil {
		t.Fatalf("DefaultBaseDir() error = %v", err)
	}
	if want := filepath.Join(home, DefaultBaseDirName); got != want {
		t.Errorf("DefaultBaseDir() = %q, want %q", got, want)
	}
}

func TestDirectory_EnsureBaseDir(t *testing.T) {
	t.Run("creates nested directory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "a", "b", DefaultBaseDirName)

		got, err := NewDirectory(base).EnsureBaseDir()
		if err != nil {
			t.Fatalf("EnsureBaseDir() error = %v", err)
		}
		if got != base {
			t.Errorf("EnsureBaseDir() = %q, want %q", got, base)
		}
		if info, err := os.Stat(base); err != nil || !info.IsDir() {
			t.Errorf("base dir not created: %v", err)
		}
	})

	t.Run("file in the way", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(base, nil, 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := NewDirectory(base).EnsureBaseDir()
		if errors.KindOf(err) != errors.KindConfiguration {
			t.Errorf("KindOf() = %v, want configuration (%v)", errors.KindOf(err), err)
		}
	})

	t.Run("not writable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root bypasses permission checks")
		}
		base := filepath.Join(t.TempDir(), "readonly")
		if err := os.Mkdir(base, 0o555); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chmod(base, 0o755) })

		_, err := NewDirectory(base).EnsureBaseDir()
		if errors.KindOf(err) != errors.KindConfiguration {
			t.Errorf("KindOf() = %v, want configuration (%v)", errors.KindOf(err), err)
		}
	})
}

func TestDirectory_TargetPath(t *testing.T) {
	d := NewDirectory("/home/me/.git-worktree-manager")

	tests := []struct {
		name      string
		repo      string
		sanitized string
		want      string
		wantErr   bool
	}{
		{"simple", "devlaunch", "feature_login_QA_fix", "/home/me/.git-worktree-manager/devlaunch_feature_login_QA_fix", false},
		{"repo sanitized", "my repo", "main", "/home/me/.git-worktree-manager/my_repo_main", false},
		{"unsanitized branch rejected", "repo", "feature/x", "", true},
		{"empty branch rejected", "repo", "", "", true},
		{"unsafe repo rejected", "???", "main", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.TargetPath(tt.repo, tt.sanitized)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TargetPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TargetPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
