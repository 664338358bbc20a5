package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapguri/facility-flow/internal/cli"
	"github.com/mapguri/facility-flow/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the current schema version without migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorageRaw()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	status, _ := cmd.Flags().GetBool("status")

	version, err := store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if status {
		fmt.Fprintf(os.Stdout, "Schema version: %d (expected %d)\n", version, storage.ExpectedSchemaVersion)
		if version < storage.ExpectedSchemaVersion {
			fmt.Fprintln(os.Stdout, cli.FormatWarning("Pending migrations; run 'facflow migrate' to apply"))
		}
		return nil
	}

	if version >= storage.ExpectedSchemaVersion {
		fmt.Fprintln(os.Stdout, cli.FormatInfo("Schema already up to date"))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Fprintln(os.Stdout, cli.FormatSuccess(fmt.Sprintf("Migrated schema to version %d", storage.ExpectedSchemaVersion)))
	return nil
}
