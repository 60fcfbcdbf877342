package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const asciiLogo = `
                  _
  _ __   __ _ _ __| |___
 | '_ \ / _` + "`" + ` | '__| / __|
 | |_) | (_| | |  | \__ \
 | .__/ \__, |_|  |_|___/
 |_|    |___/`

var rootCmd = &cobra.Command{
	Use:   "pgrls",
	Short: "Tenant-isolated data loading for PostgreSQL row-level security",
	Long: asciiLogo + `

pgrls works with multi-tenant tables protected by PostgreSQL row-level
security. Every connection is bound to exactly one tenant before any
data flows, so a session can only ever see or write its own tenant's
rows. The seed commands load synthetic sensor readings concurrently,
one worker per tenant.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - Tenant session binding failed or mismatched
  13 - Seeding finished with rolled-back batches`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgrls")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
