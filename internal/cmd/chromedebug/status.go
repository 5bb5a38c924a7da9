package chromedebug

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/devlaunch/internal/cmd/cmdutil"
	"github.com/Iron-Ham/devlaunch/internal/remotedebug"
	"github.com/Iron-Ham/devlaunch/internal/session"
	"github.com/Iron-Ham/devlaunch/internal/ui/progress"
	"github.com/Iron-Ham/devlaunch/internal/ui/view"
)

func newStatusCmd(registry *session.Registry, opts []remotedebug.Option) *cobra.Command {
	var profileName string

	cmd := &cobra.Command{
		Use:   "status --profile <name>",
		Short: "Show a profile's directory, launch history and lock state",
		Args:  cmdutil.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("profile", profileName); err != nil {
				return err
			}

			e, err := newEnv(cmd, registry, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			status, err := e.service.ProfileStatus(profileName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, view.ProfileStatus(status, progress.Width(out)))
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "profile name (required)")
	return cmd
}
