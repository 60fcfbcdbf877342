package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestAllCommandsRegistered(t *testing.T) {
	for _, name := range []string{"insert", "keep", "random", "seed", "seedcopy", "version"} {
		findCommand(t, name)
	}
}

func TestRootHelpDocumentsExitCodes(t *testing.T) {
	for _, fragment := range []string{
		"0  - Success",
		"11 - Database connection failed",
		"12 - Tenant session binding failed or mismatched",
		"13 - Seeding finished with rolled-back batches",
	} {
		assert.Contains(t, rootCmd.Long, fragment)
	}
}

func TestSeedFlags(t *testing.T) {
	seed := findCommand(t, "seed")

	for _, flag := range []string{
		"connection", "host", "port", "username", "database", "sslmode",
		"azure", "azure-tenant-id", "azure-client-id",
		"aws-iam", "aws-region", "google-instance",
		"tenant-key", "count", "parallelism", "batch-size", "copy",
	} {
		require.NotNil(t, seed.Flags().Lookup(flag), "seed must define --%s", flag)
	}
}

func TestSeedcopyOmitsCopyFlag(t *testing.T) {
	seedcopy := findCommand(t, "seedcopy")
	assert.Nil(t, seedcopy.Flags().Lookup("copy"), "seedcopy always copies")
	require.NotNil(t, seedcopy.Flags().Lookup("count"))
}

func TestInsertAndKeepTenantFlags(t *testing.T) {
	insert := findCommand(t, "insert")
	for _, flag := range []string{"tenant", "location", "temperature", "humidity"} {
		require.NotNil(t, insert.Flags().Lookup(flag), "insert must define --%s", flag)
	}
	keep := findCommand(t, "keep")
	require.NotNil(t, keep.Flags().Lookup("tenant"))
	require.NotNil(t, keep.Flags().Lookup("interval"))
}

func TestRandomFlags(t *testing.T) {
	random := findCommand(t, "random")
	require.NotNil(t, random.Flags().Lookup("tenant"))
	require.NotNil(t, random.Flags().Lookup("count"))
	require.NotNil(t, random.Flags().Lookup("connection"))
}

func TestCommandsRejectPositionalArgs(t *testing.T) {
	for _, name := range []string{"insert", "keep", "random", "seed", "seedcopy"} {
		cmd := findCommand(t, name)
		assert.Error(t, cmd.Args(cmd, []string{"unexpected"}), name)
	}
}

func TestVerboseIsPersistent(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}
