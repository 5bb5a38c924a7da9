package chrome

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

// Arguments are the inputs to BuildArguments.
type Arguments struct {
	Port        int
	UserDataDir string
	URL         string
	Extra       []string
}

// BuildArguments returns the Chrome command line (without the executable).
// The target URL is always last.
func BuildArguments(a Arguments) []string {
	args := make([]string, 0, 4+len(a.Extra))
	args = append(args,
		"--remote-debugging-port="+strconv.Itoa(a.Port),
		"--user-data-dir="+a.UserDataDir,
		"--no-first-run",
	)
	args = append(args, a.Extra...)
	return append(args, a.URL)
}

var safeFlags = newFlagSet(
	"--window-size",
	"--window-position",
	"--start-maximized",
	"--start-fullscreen",
	"--kiosk",
	"--headless",
	"--disable-gpu",
	"--enable-logging",
	"--v",
	"--vmodule",
	"--proxy-server",
	"--proxy-bypass-list",
	"--disable-extensions",
	"--disable-background-networking",
	"--disable-sync",
	"--metrics-recording-only",
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-default-apps",
	"--disable-component-update",
)

// dangerousFlags are matched against both the flag name and the whole flag.
var dangerousFlags = newFlagSet(
	"--disable-web-security",
	"--allow-running-insecure-content",
	"--unsafely-treat-insecure-origin-as-secure",
	"--disable-features=IsolateOrigins,site-per-process",
)

func newFlagSet(flags ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		set[f] = struct{}{}
	}
	return set
}

// FilterResult splits user-supplied flags into those passed to Chrome and
// those dropped.
type FilterResult struct {
	Allowed  []string
	Rejected []string
}

// FilterSafeFlags keeps flags whose name (the part before '=') is on the
// allow list and not on the deny list. Order is preserved.
func FilterSafeFlags(flags []string) FilterResult {
	var result FilterResult
	for _, flag := range flags {
		name := flagName(flag)
		_, deniedName := dangerousFlags[name]
		_, deniedFlag := dangerousFlags[flag]
		_, allowed := safeFlags[name]
		if deniedName || deniedFlag || !allowed {
			result.Rejected = append(result.Rejected, flag)
			continue
		}
		result.Allowed = append(result.Allowed, flag)
	}
	return result
}

func flagName(flag string) string {
	if i := strings.IndexByte(flag, '='); i >= 0 {
		return flag[:i]
	}
	return flag
}

// NormalizeFlags trims whitespace around each flag and drops empty ones.
func NormalizeFlags(flags []string) []string {
	var out []string
	for _, part := range flags {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.NewConfigError("url is required").WithField("url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.NewConfigError("url is not valid").WithField("url").WithValue(raw).WithCause(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewConfigError("url must use http or https").WithField("url").WithValue(raw)
	}
	if u.Host == "" {
		return errors.NewConfigError("url must include a host").WithField("url").WithValue(raw)
	}
	return nil
}
