package chromedebug

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/devlaunch/internal/cmd/cmdutil"
	"github.com/Iron-Ham/devlaunch/internal/ui/styles"
)

func newUnlockCmd() *cobra.Command {
	var (
		profileName string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "unlock --profile <name>",
		Short: "Remove a profile's lock left behind by a Chrome that is no longer running",
		Long: `unlock deletes <profile>/session.lock when neither the launching process nor
the Chrome it started is still running. Use --force to remove the lock
regardless, for example when the lock file is unreadable.`,
		Args: cmdutil.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("profile", profileName); err != nil {
				return err
			}

			e, err := newEnv(cmd, nil, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			cleared, err := e.store.ClearStaleLock(profileName, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !cleared {
				fmt.Fprintf(out, "Profile %q is not locked.\n", profileName)
				return nil
			}
			fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("✓ Removed lock for profile %q", profileName)))
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "profile name (required)")
	cmd.Flags().BoolVar(&force, "force", false, "remove the lock even if its holder appears to be running")
	return cmd
}
