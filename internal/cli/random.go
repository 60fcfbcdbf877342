package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Insert a batch of random readings for one tenant in a single transaction",
	Long: `Random binds a connection to a single tenant and writes count office
and count home readings in one transaction, then prints the latest
office readings visible on that session.

Unlike seed, every row belongs to the one bound tenant and the batch
commits atomically; any failure rolls all of it back.

Examples:
  # 100 office + 100 home readings for a random tenant
  pgrls random -d sensors

  # 500 of each for tenant 3
  pgrls random -d sensors --tenant 3 --count 500`,
	Args: cobra.NoArgs,
	RunE: runRandom,
}

var randomFlags struct {
	conn   connFlagValues
	tenant int64
	count  int
}

func init() {
	rootCmd.AddCommand(randomCmd)
	addConnectionFlags(randomCmd, &randomFlags.conn)
	randomCmd.Flags().Int64Var(&randomFlags.tenant, "tenant", 0,
		"Tenant to bind the session to (default: random tenant)")
	randomCmd.Flags().IntVar(&randomFlags.count, "count", 100,
		"Readings per location to generate (total rows = 2 x count)")
}

func runRandom(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	runner, _, err := buildRunner(&randomFlags.conn, verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readings, err := runner.InsertBatch(ctx, randomFlags.tenant, randomFlags.count)
	if err != nil {
		return err
	}

	for _, r := range readings {
		fmt.Printf("id=%d tenant=%d location=%s temperature=%s humidity=%s\n",
			r.ID, r.TenantID, r.Location, formatMeasurement(r.Temperature), formatMeasurement(r.Humidity))
	}
	return nil
}
