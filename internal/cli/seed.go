package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgrls/internal/config"
	"github.com/vvka-141/pgrls/internal/db"
	"github.com/vvka-141/pgrls/internal/ingest"
	"github.com/vvka-141/pgrls/internal/tui"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk-load synthetic readings, one concurrent worker per tenant",
	Long: `Seed generates synthetic office and home readings spread across the
tenants, partitions them by tenant, and loads each tenant's rows over
its own bound connection. Workers run concurrently up to the
parallelism cap; each worker commits its batches sequentially.

A failed batch is rolled back and recorded without stopping the rest of
the run. When any batch failed, seed exits with code 13 and the summary
reports exactly how many rows are missing.

Write Strategies:
  default   Multi-row parameterized INSERT (accepts null measurements)
  --copy    Binary COPY streaming, roughly an order of magnitude faster
            (rejects null measurements before streaming)

Examples:
  # 100k rows with the insert strategy
  pgrls seed -d sensors --count 100000

  # 1M rows with binary COPY, 20 concurrent tenant workers
  pgrls seed -d sensors --count 1000000 --copy --parallelism 20`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var seedcopyCmd = &cobra.Command{
	Use:   "seedcopy",
	Short: "Bulk-load with the binary COPY strategy (alias for seed --copy)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seedFlags.useCopy = true
		return runSeed(cmd, args)
	},
}

var seedFlags struct {
	conn        connFlagValues
	count       int
	parallelism int
	batchSize   int
	useCopy     bool
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(seedcopyCmd)
	addConnectionFlags(seedCmd, &seedFlags.conn)
	addConnectionFlags(seedcopyCmd, &seedFlags.conn)

	for _, cmd := range []*cobra.Command{seedCmd, seedcopyCmd} {
		cmd.Flags().IntVar(&seedFlags.count, "count", 100000,
			"Number of readings to generate and load\n"+
				"Overrides the seed.count value in pgrls.yaml")
		cmd.Flags().IntVar(&seedFlags.parallelism, "parallelism", 0,
			fmt.Sprintf("Maximum concurrent tenant workers (default %d)", pgrls.DefaultParallelism))
		cmd.Flags().IntVar(&seedFlags.batchSize, "batch-size", 0,
			fmt.Sprintf("Rows per transaction (default %d for insert, %d for copy)",
				pgrls.DefaultInsertBatchSize, pgrls.DefaultCopyBatchSize))
	}
	seedCmd.Flags().BoolVar(&seedFlags.useCopy, "copy", false,
		"Use binary COPY streaming instead of batched inserts")
}

func runSeed(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	runner, connCfg, err := buildRunner(&seedFlags.conn, verbose)
	if err != nil {
		return err
	}

	seedCfg := pgrls.SeedConfig{
		ConnectionString: db.BuildConnectionString(connCfg),
		Count:            seedFlags.count,
		Parallelism:      seedFlags.parallelism,
		BatchSize:        seedFlags.batchSize,
		UseCopy:          seedFlags.useCopy,
		Verbose:          verbose,
	}
	applyProjectSeedDefaults(cmd, &seedCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strategy := "insert"
	if seedCfg.UseCopy {
		strategy = "copy"
	}

	var summary pgrls.Summary
	if tui.IsInteractive() && !verbose {
		summary, err = tui.RunSeed(ctx, strategy, seedCfg.Count,
			func(ctx context.Context, onProgress func(ingest.Progress)) (pgrls.Summary, error) {
				return runner.Seed(ctx, seedCfg, onProgress)
			})
	} else {
		summary, err = runner.Seed(ctx, seedCfg, nil)
	}

	printSummary(summary)
	return err
}

// applyProjectSeedDefaults fills seed parameters from pgrls.yaml for any
// flag the user did not set explicitly.
func applyProjectSeedDefaults(cmd *cobra.Command, cfg *pgrls.SeedConfig) {
	projectCfg, err := config.Load(".")
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %v\n", config.ConfigFileName, err)
		}
		return
	}

	if projectCfg.Seed.Count > 0 && !cmd.Flags().Changed("count") {
		cfg.Count = projectCfg.Seed.Count
	}
	if projectCfg.Seed.Parallelism > 0 && !cmd.Flags().Changed("parallelism") {
		cfg.Parallelism = projectCfg.Seed.Parallelism
	}
	if projectCfg.Seed.BatchSize > 0 && !cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = projectCfg.Seed.BatchSize
	}
}

func printSummary(summary pgrls.Summary) {
	if summary.Planned == 0 && summary.Completed == 0 {
		return
	}
	fmt.Printf("run %s: %s\n", summary.RunID, summary.State)
	fmt.Printf("  planned   %d rows\n", summary.Planned)
	fmt.Printf("  completed %d rows\n", summary.Completed)
	fmt.Printf("  duration  %.1fsec\n", summary.Elapsed.Seconds())
	for _, f := range summary.FailedBatches {
		fmt.Printf("  failed: tenant %d batch %d (%d rows): %v\n",
			f.TenantID, f.BatchIndex, f.Rows, f.Err)
	}
}
