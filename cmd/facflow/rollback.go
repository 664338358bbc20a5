package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mapguri/facility-flow/internal/cli"
	"github.com/mapguri/facility-flow/internal/engine"
)

func rollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback [upload-id]",
		Short: "Undo a committed upload job",
		Long: `Delete every live facility record produced by the given upload job, in
chunks, then remove the job from the ledger. A failed rollback leaves the
ledger untouched so the same command can be retried.`,
		Args: cobra.ExactArgs(1),
		RunE: runRollback,
	}

	cmd.Flags().Int("chunk-size", 0, "records per delete chunk (default 50)")

	return cmd
}

func runRollback(cmd *cobra.Command, args []string) error {
	uploadID := args[0]
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	if chunkSize <= 0 {
		chunkSize = viper.GetInt("ingest.chunk_size")
	}

	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Show what we're about to undo before deleting anything.
	job, err := store.GetUploadJob(ctx, uploadID)
	if err != nil {
		return err
	}

	slog.Info("Rolling back upload",
		"upload_id", uploadID,
		"file", job.FileName,
		"record_count", len(job.FacilityIDs))

	rb := engine.NewRollback(store, chunkSize)
	reporter := cli.NewProgressReporter(os.Stdout, false)

	if err := rb.Run(ctx, uploadID, reporter.RollbackFunc()); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, cli.FormatSuccess(fmt.Sprintf(
		"Rolled back %d records from %s", len(job.FacilityIDs), job.FileName)))
	return nil
}
