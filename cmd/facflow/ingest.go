package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mapguri/facility-flow/internal/boundary"
	"github.com/mapguri/facility-flow/internal/cli"
	"github.com/mapguri/facility-flow/internal/engine"
	"github.com/mapguri/facility-flow/internal/geocode"
	"github.com/mapguri/facility-flow/internal/storage"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a delimited facility file",
		Long: `Ingest a comma-separated facility file: parse, geocode, validate, and
classify each row, commit accepted rows in batches, and stage the rest for
review.

Examples:
  # Ingest a UTF-8 file
  facflow ingest ~/Downloads/facilities.csv

  # Ingest a legacy EUC-KR export
  facflow ingest --encoding euc-kr ~/Downloads/seoul_toilets.csv

  # Preview without committing
  facflow ingest --dry-run ~/Downloads/facilities.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringP("encoding", "e", "utf-8", "input encoding (utf-8, euc-kr)")
	cmd.Flags().BoolP("dry-run", "d", false, "classify without committing")
	cmd.Flags().BoolP("verbose", "v", false, "echo each row's log line")
	cmd.Flags().String("uploaded-by", "", "operator name recorded in the ledger")
	cmd.Flags().Int("chunk-size", 0, "records per commit chunk (default 50)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	encoding, _ := cmd.Flags().GetString("encoding")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	uploadedBy, _ := cmd.Flags().GetString("uploaded-by")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	handler := cli.NewInterruptHandler(os.Stdout)
	ctx := handler.HandleInterrupts(cmd.Context())

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	geocoder := geocode.NewClient(
		viper.GetString("geocode.base_url"),
		viper.GetString("geocode.api_key"),
	)
	land := boundary.NewValidator(boundary.NewAuthorityClient(
		viper.GetString("boundary.base_url"),
		viper.GetString("boundary.api_key"),
	))

	cfg := engine.DefaultConfig()
	cfg.ToleranceM = viper.GetFloat64("classify.tolerance_m")
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	} else if v := viper.GetInt("ingest.chunk_size"); v > 0 {
		cfg.ChunkSize = v
	}

	ingestor := engine.NewIngestor(store, geocoder, land, cfg)
	reporter := cli.NewProgressReporter(os.Stdout, verbose)
	ingestor.SetProgress(reporter.Func())

	slog.Info("Starting ingestion",
		"file", filepath.Base(filePath),
		"encoding", encoding,
		"dry_run", dryRun,
		"chunk_size", cfg.ChunkSize)

	summary, err := ingestor.Run(ctx, raw, engine.Options{
		FileName:   filepath.Base(filePath),
		Encoding:   encoding,
		UploadedBy: uploadedBy,
		DryRun:     dryRun,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && handler.WasInterrupted() {
			// Undo whatever landed before the interrupt. The run's context is
			// gone, so the rollback gets a fresh one.
			if summary != nil && len(summary.FacilityIDs) > 0 {
				return undoPartialRun(store, summary.UploadID, cfg.ChunkSize)
			}
			return nil
		}
		if summary != nil && len(summary.FacilityIDs) > 0 {
			fmt.Fprintln(os.Stdout, cli.FormatWarning(fmt.Sprintf(
				"run failed after committing %d rows; undo with: facflow rollback %s",
				len(summary.FacilityIDs), summary.UploadID)))
		}
		return err
	}

	fmt.Fprintln(os.Stdout, cli.RenderSummary(summary, dryRun))
	return nil
}

// undoPartialRun rolls back the rows an interrupted run managed to commit.
func undoPartialRun(store *storage.SQLiteStorage, uploadID string, chunkSize int) error {
	fmt.Fprintln(os.Stdout, cli.FormatInfo("Rolling back interrupted run "+uploadID))

	rb := engine.NewRollback(store, chunkSize)
	reporter := cli.NewProgressReporter(os.Stdout, false)

	if err := rb.Run(context.Background(), uploadID, reporter.RollbackFunc()); err != nil {
		fmt.Fprintln(os.Stdout, cli.FormatWarning(fmt.Sprintf(
			"rollback did not finish; retry with: facflow rollback %s", uploadID)))
		return err
	}

	fmt.Fprintln(os.Stdout, cli.FormatSuccess("Interrupted run rolled back"))
	return nil
}
