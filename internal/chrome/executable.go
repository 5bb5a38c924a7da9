// Package chrome locates the Chrome executable and builds its command line.
package chrome

import (
	"os/exec"
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

// EnvChromePath names the environment variable holding an explicit
// executable path.
const EnvChromePath = "CHROME_PATH"

// defaultPaths lists well-known install locations per GOOS, in preference
// order.
var defaultPaths = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
	"linux": {
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	},
}

// searchNames are looked up on PATH when no default location matches.
var searchNames = []string{"google-chrome-stable", "google-chrome", "chromium-browser", "chromium"}

// Detector finds a Chrome executable. The zero value is not usable; call
// NewDetector.
type Detector struct {
	goos       string
	candidates []string
	lookPath   func(string) (string, error)
	executable func(string) bool
}

// NewDetector returns a Detector for the running platform.
func NewDetector() *Detector {
	return &Detector{
		goos:       runtime.GOOS,
		candidates: defaultPaths[runtime.GOOS],
		lookPath:   exec.LookPath,
		executable: IsExecutable,
	}
}

// IsExecutable reports whether path exists and the current user may
// execute it.
func IsExecutable(path string) bool {
	return path != "" && unix.Access(path, unix.X_OK) == nil
}

// Detect returns the Chrome executable path. A non-empty override is used
// as-is and must be executable. Otherwise the platform's default locations
// are tried, then (on Linux) PATH.
func (d *Detector) Detect(override string) (string, error) {
	if override != "" {
		if d.executable(override) {
			return override, nil
		}
		return "", errors.NewExecutableNotFoundError("configured Chrome path is not executable: " + override).
			WithPath(override)
	}

	for _, path := range d.candidates {
		if d.executable(path) {
			return path, nil
		}
	}

	if d.goos == "linux" {
		for _, name := range searchNames {
			path, err := d.lookPath(name)
			if err == nil && d.executable(path) {
				return path, nil
			}
		}
	}

	return "", errors.NewExecutableNotFoundError(
		"Chrome executable not found; set " + EnvChromePath + " or pass --chrome-path")
}

// DetectExecutable is Detect on a Detector for the running platform.
func DetectExecutable(override string) (string, error) {
	return NewDetector().Detect(override)
}
