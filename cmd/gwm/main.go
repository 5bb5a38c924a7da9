// Command gwm checks out an existing branch into a dedicated git worktree.
package main

import (
	"context"
	"os"

	"github.com/Iron-Ham/devlaunch/internal/cli"
	"github.com/Iron-Ham/devlaunch/internal/cmd/gwm"
)

func main() {
	ctx, term := cli.NotifyTermination(context.Background())

	err := gwm.NewRootCmd().ExecuteContext(ctx)
	term.Stop()
	if err != nil && term.Signal() == nil {
		cli.HandleFailure(err, os.Stderr)
	}
	os.Exit(term.ExitCode(err))
}
