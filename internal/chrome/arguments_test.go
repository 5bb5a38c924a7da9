package chrome

import (
	"reflect"
	"testing"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

func TestBuildArguments(t *testing.T) {
	got := BuildArguments(Arguments{
		Port:        9222,
		UserDataDir: "/home/me/.ih-dopen/dev",
		URL:         "https://example.com",
		Extra:       []string{"--headless", "--window-size=800,600"},
	})
	want := []string{
		"--remote-debugging-port=9222",
		"--user-data-dir=/home/me/.ih-dopen/dev",
		"--no-first-run",
		"--headless",
		"--window-size=800,600",
		"https://example.com",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArguments() = %v, want %v", got, want)
	}

	bare := BuildArguments(Arguments{Port: 1024, UserDataDir: "/d", URL: "http://x"})
	if len(bare) != 4 || bare[3] != "http://x" {
		t.Errorf("BuildArguments() without extras = %v", bare)
	}
}

func TestFilterSafeFlags(t *testing.T) {
	tests := []struct {
		name         string
		input        []string
		wantAllowed  []string
		wantRejected []string
	}{
		{
			name:        "allowed with and without values",
			input:       []string{"--headless", "--window-size=800,600", "--proxy-server=http://p:8080"},
			wantAllowed: []string{"--headless", "--window-size=800,600", "--proxy-server=http://p:8080"},
		},
		{
			name:         "dangerous by name",
			input:        []string{"--disable-web-security", "--allow-running-insecure-content=1"},
			wantRejected: []string{"--disable-web-security", "--allow-running-insecure-content=1"},
		},
		{
			name:         "dangerous whole flag",
			input:        []string{"--disable-features=IsolateOrigins,site-per-process"},
			wantRejected: []string{"--disable-features=IsolateOrigins,site-per-process"},
		},
		{
			name:         "unknown flags rejected",
			input:        []string{"--incognito", "--kiosk", "not-a-flag"},
			wantAllowed:  []string{"--kiosk"},
			wantRejected: []string{"--incognito", "not-a-flag"},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSafeFlags(tt.input)
			if !reflect.DeepEqual(got.Allowed, tt.wantAllowed) {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if !reflect.DeepEqual(got.Rejected, tt.wantRejected) {
				t.Errorf("Rejected = %v, want %v", got.Rejected, tt.wantRejected)
			}
		})
	}
}

func TestNormalizeFlags(t *testing.T) {
	got := NormalizeFlags([]string{" --headless ", "", "  ", "--disable-gpu"})
	want := []string{"--headless", "--disable-gpu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeFlags() = %v, want %v", got, want)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://localhost:3000/path?q=1", false},
		{"", true},
		{"   ", true},
		{"ftp://example.com", true},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"example.com", true},
		{"http://", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && errors.KindOf(err) != errors.KindConfiguration {
				t.Errorf("KindOf = %v, want configuration", errors.KindOf(err))
			}
		})
	}
}
