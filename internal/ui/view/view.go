// Package view renders the result summaries printed by the CLIs.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/devlaunch/internal/remotedebug"
	"github.com/Iron-Ham/devlaunch/internal/ui/styles"
	"github.com/Iron-Ham/devlaunch/internal/util"
	"github.com/Iron-Ham/devlaunch/internal/worktree"
)

// TimeFormat is used for every timestamp shown to the user.
const TimeFormat = time.RFC3339

type rows struct {
	sb    strings.Builder
	width int
}

func (r *rows) line(s string) {
	if r.width > 0 {
		s = util.TruncateANSI(s, r.width)
	}
	r.sb.WriteString(s)
	r.sb.WriteByte('\n')
}

func (r *rows) field(label, value string) {
	r.line(styles.Label.Render(label) + styles.Value.Render(value))
}

// RestoreMessage says whether the profile's previous browser state is
// reused.
func RestoreMessage(previous *time.Time) string {
	if previous == nil {
		return "first launch, creating a new user data directory"
	}
	return "reusing data from the launch at " + previous.Local().Format(TimeFormat)
}

// LaunchSummary renders a successful Chrome launch. width truncates each
// line when positive.
func LaunchSummary(resp *remotedebug.Response, width int) string {
	r := &rows{width: width}
	r.line(styles.Success.Render("✓ Chrome is ready"))
	r.field("Profile", resp.Profile.Name)
	r.field("Directory", resp.Profile.DataDirectory)
	r.field("Restore", RestoreMessage(resp.Profile.PreviousLaunchAt))
	r.field("Port", fmt.Sprintf("%d", resp.Port))
	r.field("DevTools", resp.WSEndpoint)
	if resp.PID > 0 {
		r.field("PID", fmt.Sprintf("%d", resp.PID))
	}
	if resp.LaunchDuration > 0 {
		r.field("Launch time", fmt.Sprintf("%dms", resp.LaunchDuration.Milliseconds()))
	}
	if len(resp.RejectedFlags) > 0 {
		r.line(styles.Warning.Render("! Ignored unsafe flags: " + strings.Join(resp.RejectedFlags, " ")))
	}
	return r.sb.String()
}

// ProfileStatus renders the status subcommand's output.
func ProfileStatus(status *remotedebug.ProfileStatus, width int) string {
	r := &rows{width: width}
	p := status.Profile
	r.line(styles.Title.Render("Profile " + p.Name))
	r.field("Directory", p.DataDirectory)
	if !p.CreatedAt.IsZero() {
		r.field("Created", p.CreatedAt.Local().Format(TimeFormat))
	}
	if p.LastLaunchedAt != nil {
		r.field("Last launch", p.LastLaunchedAt.Local().Format(TimeFormat))
	} else {
		r.field("Last launch", "never")
	}

	switch {
	case !p.Locked:
		r.field("Lock", styles.Secondary.Render("unlocked"))
	case status.Lock == nil:
		r.field("Lock", styles.Warning.Render("locked (lock file unreadable)"))
	default:
		state := styles.Error.Render("locked")
		if !status.LockAlive {
			state = styles.Warning.Render("locked (stale, run unlock to clear)")
		}
		r.field("Lock", state)
		r.field("Session", status.Lock.SessionID)
		if status.Lock.ChromePID > 0 {
			r.field("Chrome PID", fmt.Sprintf("%d", status.Lock.ChromePID))
		}
		r.field("Since", status.Lock.StartedAt.Local().Format(TimeFormat))
	}

	if s := status.Session; s != nil {
		icon := lipgloss.NewStyle().Foreground(styles.StatusColor(string(s.Status))).Render(styles.StatusIcon(string(s.Status)))
		r.field("Active", icon+" "+string(s.Status))
		if s.WSEndpoint != "" {
			r.field("DevTools", s.WSEndpoint)
		}
	}
	return r.sb.String()
}

// WorktreeSummary renders a provisioned worktree.
func WorktreeSummary(result *worktree.Result, width int) string {
	r := &rows{width: width}
	r.line(styles.Success.Render("✓ Worktree created"))
	r.field("Path", result.TargetPath)
	r.field("Branch", result.BranchName)
	r.field("HEAD", result.HeadCommit)
	if result.SanitizedBranchName != result.BranchName {
		r.field("Sanitized", result.BranchName+" -> "+result.SanitizedBranchName)
	}
	return r.sb.String()
}

// WorktreeLine is the machine-readable summary line printed by gwm.
func WorktreeLine(result *worktree.Result) string {
	return fmt.Sprintf("PATH=%s BRANCH=%s HEAD=%s", result.TargetPath, result.BranchName, result.HeadCommit)
}
