package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
)

type verifyCmd struct {
	repair bool
}

func (c *verifyCmd) Name() string {
	if c.repair {
		return "repair"
	}
	return "verify"
}

func (c *verifyCmd) Synopsis() string {
	if c.repair {
		return "rebuild drifted wallet aggregates from their transactions"
	}
	return "compare cached wallet aggregates with their transactions"
}

func (c *verifyCmd) Usage() string {
	return fmt.Sprintf(`walletctl %s

  Folds every wallet's transactions and compares the result with the cached
  balance, spent amount and sales counter. Exits non-zero when any wallet
  drifted and was not repaired. Repairs are not forwarded to the remote store.

  Repair takes the same store lock as the API, so it waits for in-flight
  mutations and holds off new ones while it writes.
`, c.Name())
}

func (c *verifyCmd) SetFlags(*flag.FlagSet) {}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	injector, release, err := openInjector(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer release()

	output, err := injector.Reconcile.Execute(ctx, bigfish.ReconcileWalletsInput{Repair: c.repair})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printDrift(os.Stdout, output)
	if len(output.Drifted) > 0 && !output.Repaired {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printDrift(w io.Writer, output *bigfish.ReconcileWalletsOutput) {
	fmt.Fprintf(w, "checked %d wallets, %d drifted\n", output.Checked, len(output.Drifted))
	for _, d := range output.Drifted {
		fmt.Fprintf(w, "%s\tbalance %s -> %s\tspent %s -> %s\tsales %d -> %d\n",
			d.WalletID,
			d.Cached.Balance.StringFixed(2), d.Expected.Balance.StringFixed(2),
			d.Cached.SpentAmount.StringFixed(2), d.Expected.SpentAmount.StringFixed(2),
			d.Cached.CurrentSales, d.Expected.CurrentSales,
		)
	}
	if output.Repaired {
		fmt.Fprintln(w, "repaired")
	}
}
