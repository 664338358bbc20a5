package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapguri/facility-flow/internal/cli"
)

func uploadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List upload-job ledger entries",
		RunE:  runUploads,
	}

	cmd.Flags().String("logs", "", "print the full row transcript for one upload id")

	return cmd
}

func runUploads(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	logsID, _ := cmd.Flags().GetString("logs")
	if logsID != "" {
		job, err := store.GetUploadJob(ctx, logsID)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, cli.FormatTitle(fmt.Sprintf("Transcript for %s (%s)", job.ID, job.FileName)))
		for _, line := range job.Logs {
			fmt.Fprintln(os.Stdout, "  "+line)
		}
		return nil
	}

	jobs, err := store.ListUploadJobs(ctx)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(os.Stdout, cli.FormatInfo("No uploads recorded"))
		return nil
	}

	fmt.Fprintln(os.Stdout, cli.FormatTitle("Upload jobs"))
	for _, job := range jobs {
		fmt.Fprintf(os.Stdout, "  %s  %s  %s  total=%d accepted=%d failed=%d\n",
			job.ID,
			job.UploadedAt.Format("2006-01-02 15:04"),
			job.FileName,
			job.TotalCount,
			job.SuccessCount,
			job.FailCount)
	}

	return nil
}
