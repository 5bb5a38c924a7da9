// Package chromedebug implements the chrome-remote-debug command.
package chromedebug

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/devlaunch/internal/cmd/cmdutil"
	"github.com/Iron-Ham/devlaunch/internal/config"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/logging"
	"github.com/Iron-Ham/devlaunch/internal/profile"
	"github.com/Iron-Ham/devlaunch/internal/remotedebug"
	"github.com/Iron-Ham/devlaunch/internal/session"
	"github.com/Iron-Ham/devlaunch/internal/ui/progress"
	"github.com/Iron-Ham/devlaunch/internal/ui/styles"
	"github.com/Iron-Ham/devlaunch/internal/ui/view"
)

// env bundles what every subcommand builds from configuration.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   *profile.Store
	service *remotedebug.Service
}

func (e *env) Close() {
	_ = e.logger.Close()
}

type launchOptions struct {
	url     string
	profile string
	port    int
	detach  bool
}

// NewRootCmd builds the chrome-remote-debug command tree around registry.
func NewRootCmd(registry *session.Registry, opts ...remotedebug.Option) *cobra.Command {
	var lo launchOptions

	root := &cobra.Command{
		Use:   "chrome-remote-debug --url <url> --profile <name>",
		Short: "Launch Chrome with remote debugging enabled",
		Long: `chrome-remote-debug starts Chrome with a dedicated user data directory per
profile and a remote debugging port, then prints the DevTools WebSocket
endpoint once Chrome is listening.

Profiles live under ~/.ih-dopen/<profile> (profile.root_dir). Chrome keeps
running until it is closed or this command is interrupted, unless --detach
is given.`,
		Example: `  chrome-remote-debug --url https://example.com --profile dev-login
  chrome-remote-debug --url https://staging.example.com --profile qa --port 9223`,
		Args: cmdutil.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, registry, opts, lo)
		},
	}
	cmdutil.SetupRoot(root)

	flags := root.Flags()
	flags.StringVar(&lo.url, "url", "", "URL to open (http or https, required)")
	flags.StringVar(&lo.profile, "profile", "", "profile name: lowercase letters, digits, '-' and '_' (required)")
	flags.IntVar(&lo.port, "port", 0, "remote debugging port, 1024-65535 (default: chosen by the OS)")
	flags.String("chrome-path", "", "Chrome executable (default: CHROME_PATH or platform locations)")
	flags.StringSlice("additional-args", nil, "extra Chrome flags, comma separated; unsafe flags are ignored")
	flags.BoolVar(&lo.detach, "detach", false, "leave Chrome running and exit once it is ready")
	cmdutil.BindFlag(flags, "chrome.path", "chrome-path")
	cmdutil.BindFlag(flags, "chrome.additional_args", "additional-args")

	root.AddCommand(newStatusCmd(registry, opts), newUnlockCmd())
	return root
}

// newEnv loads configuration and builds the profile store, logger and
// service.
func newEnv(cmd *cobra.Command, registry *session.Registry, opts []remotedebug.Option) (*env, error) {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return nil, err
	}
	root, err := cfg.ProfileRootDir()
	if err != nil {
		return nil, err
	}

	logger := cmdutil.CreateLogger(filepath.Join(root, cmdutil.LogDirName), cfg, cmd.ErrOrStderr())
	store := profile.NewStore(root, logger)

	serviceOpts := append([]remotedebug.Option{
		remotedebug.WithLaunchTimeout(cfg.Chrome.LaunchTimeout),
		remotedebug.WithStopGrace(cfg.Chrome.StopGrace),
	}, opts...)

	return &env{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: remotedebug.NewService(registry, store, logger, serviceOpts...),
	}, nil
}

func requireFlag(name, value string) error {
	if value == "" {
		return errors.NewConfigError(fmt.Sprintf("--%s is required", name)).WithField(name)
	}
	return nil
}

func runLaunch(cmd *cobra.Command, registry *session.Registry, opts []remotedebug.Option, lo launchOptions) error {
	if err := requireFlag("url", lo.url); err != nil {
		return err
	}
	if err := requireFlag("profile", lo.profile); err != nil {
		return err
	}

	e, err := newEnv(cmd, registry, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	req := remotedebug.Request{
		URL:            lo.url,
		ProfileName:    lo.profile,
		ChromePath:     viper.GetString("chrome.path"),
		AdditionalArgs: viper.GetStringSlice("chrome.additional_args"),
		Detached:       lo.detach,
	}
	if cmd.Flags().Changed("port") {
		p := lo.port
		req.Port = &p
	}

	e.logger.Info("chrome-remote-debug started", "profile", lo.profile, "url", lo.url, "detach", lo.detach)

	ctx := cmd.Context()
	defer func() {
		// Ends anything not already ended or detached.
		if err := e.service.Shutdown(context.WithoutCancel(ctx)); err != nil {
			e.logger.Error("shutdown failed", "error", err.Error())
		}
	}()

	var resp *remotedebug.Response
	err = progress.Run(ctx, cmd.ErrOrStderr(), "Launching Chrome...", func(ctx context.Context) error {
		var err error
		resp, err = e.service.CreateSession(ctx, req)
		return err
	})
	if err != nil {
		e.logger.Failure("launch failed", err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, view.LaunchSummary(resp, progress.Width(out)))

	if lo.detach {
		if err := e.service.Detach(resp.SessionID); err != nil {
			return err
		}
		fmt.Fprintln(out, styles.Muted.Render(fmt.Sprintf(
			"Chrome left running. Profile %q stays locked until it exits; then run: chrome-remote-debug unlock --profile %s",
			lo.profile, lo.profile)))
		return nil
	}

	fmt.Fprintln(out, styles.Muted.Render("Press Ctrl+C to close Chrome."))

	err = e.service.Wait(ctx, resp.SessionID)
	if ctx.Err() != nil {
		// Interrupted: close Chrome ourselves. The exit code comes from the signal.
		return e.service.EndSession(context.WithoutCancel(ctx), resp.SessionID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, styles.Muted.Render("Chrome exited."))
	return nil
}
