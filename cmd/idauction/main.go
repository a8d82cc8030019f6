// Command idauction operates an identifier auction database.
//
// # Commands
//
// exec: Apply a YAML batch of ledger calls.
//
//	idauction exec --db auction.db calls.yaml
//
// state, trace: Inspect committed state and the receipt journal.
//
//	idauction state --db auction.db --identifier 990
//	idauction trace --db auction.db --caller b2
//
// replay: Re-execute the journal and compare state digests.
//
//	idauction replay --db auction.db
//
// validate, test: Check a CUE config file or run YAML scenarios.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/idauction/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
