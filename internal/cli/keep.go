package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var keepCmd = &cobra.Command{
	Use:   "keep",
	Short: "Continuously insert readings for one tenant until interrupted",
	Long: `Keep binds a connection to a single tenant and writes one office
and one home reading per interval over that same session, for as long
as the process runs. Useful for watching rows accumulate while querying
the table from other tenants' sessions.

Stop with Ctrl+C; the session binding is cleared before exit.

Examples:
  # One reading per second for a random tenant
  pgrls keep -d sensors

  # One reading every 250ms for tenant 7
  pgrls keep -d sensors --tenant 7 --interval 250ms`,
	Args: cobra.NoArgs,
	RunE: runKeep,
}

var keepFlags struct {
	conn     connFlagValues
	tenant   int64
	interval time.Duration
}

func init() {
	rootCmd.AddCommand(keepCmd)
	addConnectionFlags(keepCmd, &keepFlags.conn)
	keepCmd.Flags().Int64Var(&keepFlags.tenant, "tenant", 0,
		"Tenant to bind the session to (default: random tenant)")
	keepCmd.Flags().DurationVar(&keepFlags.interval, "interval", time.Second,
		"Delay between inserts (examples: 250ms, 1s, 5s)")
}

func runKeep(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	runner, _, err := buildRunner(&keepFlags.conn, verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.KeepInserting(ctx, keepFlags.tenant, keepFlags.interval)
}
