// Command chrome-remote-debug launches Chrome with remote debugging enabled
// on a persistent, locked profile.
package main

import (
	"context"
	"os"

	"github.com/Iron-Ham/devlaunch/internal/cli"
	"github.com/Iron-Ham/devlaunch/internal/cmd/chromedebug"
	"github.com/Iron-Ham/devlaunch/internal/session"
)

func main() {
	ctx, term := cli.NotifyTermination(context.Background())

	err := chromedebug.NewRootCmd(session.NewRegistry()).ExecuteContext(ctx)
	term.Stop()
	if err != nil && term.Signal() == nil {
		cli.HandleFailure(err, os.Stderr)
	}
	os.Exit(term.ExitCode(err))
}
