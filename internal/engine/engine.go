package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mapguri/facility-flow/internal/common"
	"github.com/mapguri/facility-flow/internal/enrich"
	"github.com/mapguri/facility-flow/internal/model"
	"github.com/mapguri/facility-flow/internal/service"
	"github.com/mapguri/facility-flow/internal/tabular"
)

// Config holds tuning options for the ingestion pipeline.
type Config struct {
	ChunkSize  int
	ToleranceM float64
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:  DefaultChunkSize,
		ToleranceM: DefaultToleranceM,
	}
}

// Ingestor runs the bulk facility-ingestion pipeline: parse, resolve columns,
// enrich, geocode, validate, classify, commit in chunks, and write the ledger.
// Rows are processed strictly sequentially; the geocoder's pacing makes
// parallelism pointless and quota-hostile.
type Ingestor struct {
	storage    service.Storage
	geocoder   service.Geocoder
	classifier *Classifier
	committer  *Committer
	progress   service.ProgressFunc
}

// Options describes one ingestion run.
type Options struct {
	FileName   string
	Encoding   string
	UploadedBy string
	DryRun     bool
}

// NewIngestor creates an ingestion pipeline with the given dependencies.
func NewIngestor(storage service.Storage, geocoder service.Geocoder, land service.LandChecker, cfg Config) *Ingestor {
	return &Ingestor{
		storage:    storage,
		geocoder:   geocoder,
		classifier: NewClassifier(land, cfg.ToleranceM),
		committer:  NewCommitter(storage, cfg.ChunkSize),
	}
}

// SetProgress installs the progress callback invoked after each row.
func (in *Ingestor) SetProgress(fn service.ProgressFunc) {
	in.progress = fn
}

// Run ingests one file. The returned summary is valid even when err is
// non-nil: a commit-chunk failure leaves the summary (and the persisted
// ledger) reflecting exactly the chunks that landed before the failure.
func (in *Ingestor) Run(ctx context.Context, raw []byte, opts Options) (*service.IngestSummary, error) {
	started := time.Now()

	text, err := tabular.Decode(raw, opts.Encoding)
	if err != nil {
		return nil, common.NewUserError("could not decode input file", err)
	}

	parsed := tabular.Parse(text)
	if len(parsed.Rows) == 0 {
		return nil, common.NewUserError("nothing to ingest", common.ErrEmptyFile)
	}

	uploadID := uuid.NewString()
	summary := &service.IngestSummary{
		UploadID:   uploadID,
		TotalCount: len(parsed.Rows),
	}

	mapping := tabular.ResolveColumns(parsed.Header)
	summary.Logs = append(summary.Logs, mapping.Summary())
	slog.Info("Resolved column mapping",
		"upload_id", uploadID,
		"mapping", mapping.Summary())

	if parsed.UnterminatedQuote {
		warn := "warning: file ended inside a quoted field; last field recovered best-effort"
		summary.Logs = append(summary.Logs, warn)
		slog.Warn("Unterminated quote in input file", "file", opts.FileName)
	}

	var accepted, staged []model.Outcome

	for i, row := range parsed.Rows {
		select {
		case <-ctx.Done():
			summary.Logs = append(summary.Logs, fmt.Sprintf("run canceled after row %d", i))
			summary.Duration = time.Since(started)
			return summary, ctx.Err()
		default:
		}

		outcome, line, rowErr := in.processRow(ctx, row, mapping, i)
		if rowErr != nil {
			// Only context cancellation propagates from row processing.
			summary.Logs = append(summary.Logs, fmt.Sprintf("run canceled during row %d", i))
			summary.Duration = time.Since(started)
			return summary, rowErr
		}

		summary.Logs = append(summary.Logs, line)

		switch {
		case outcome == nil:
			summary.SkippedCount++
		case outcome.Kind == model.OutcomeImmediate:
			summary.SuccessCount++
			accepted = append(accepted, *outcome)
		case outcome.Kind == model.OutcomeReview:
			summary.ReviewCount++
			staged = append(staged, *outcome)
		default:
			staged = append(staged, *outcome)
		}

		if in.progress != nil {
			in.progress((i+1)*100/len(parsed.Rows), line)
		}
	}

	// Review and reject rows both count as failures in the ledger: neither
	// produced a live record.
	summary.FailCount = summary.TotalCount - summary.SuccessCount - summary.SkippedCount

	if opts.DryRun {
		summary.Logs = append(summary.Logs, "dry run: nothing committed")
		summary.Duration = time.Since(started)
		return summary, nil
	}

	commitResult, commitErr := in.committer.Commit(ctx, uploadID, accepted, staged)
	summary.FacilityIDs = commitResult.FacilityIDs
	summary.AddedCount = len(commitResult.FacilityIDs)
	if commitErr != nil {
		summary.Logs = append(summary.Logs,
			fmt.Sprintf("commit failed after %d live rows: %v", len(commitResult.FacilityIDs), commitErr))
	}

	// The ledger is written even after a partial commit: it is the only
	// record of which rows can still be rolled back. A canceled run context
	// must not block it, or committed rows become unreachable from rollback.
	ledgerCtx := context.WithoutCancel(ctx)
	job := &model.UploadJob{
		UploadedAt:   time.Now(),
		ID:           uploadID,
		FileName:     opts.FileName,
		UploadedBy:   opts.UploadedBy,
		FacilityIDs:  summary.FacilityIDs,
		Logs:         summary.Logs,
		TotalCount:   summary.TotalCount,
		SuccessCount: summary.SuccessCount,
		AddedCount:   summary.AddedCount,
		UpdatedCount: summary.UpdatedCount,
		FailCount:    summary.FailCount,
	}
	if err := in.storage.SaveUploadJob(ledgerCtx, job); err != nil {
		summary.Duration = time.Since(started)
		if commitErr != nil {
			return summary, fmt.Errorf("commit failed (%v) and ledger write failed: %w", commitErr, err)
		}
		return summary, fmt.Errorf("failed to write upload ledger: %w", err)
	}

	summary.Duration = time.Since(started)

	if commitErr != nil {
		return summary, commitErr
	}

	slog.Info("Ingestion complete",
		"upload_id", uploadID,
		"total", summary.TotalCount,
		"accepted", summary.SuccessCount,
		"review", summary.ReviewCount,
		"failed", summary.FailCount,
		"skipped", summary.SkippedCount,
		"duration", summary.Duration)

	return summary, nil
}

// processRow classifies a single row. A nil outcome with nil error means the
// row was skipped (empty name). A row-level panic is caught here so one
// malformed row never halts the file.
func (in *Ingestor) processRow(ctx context.Context, row tabular.Row, mapping tabular.ColumnMapping, rowIndex int) (outcome *model.Outcome, logLine string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Row processing panicked",
				"row", rowIndex,
				"panic", r)
			outcome = &model.Outcome{
				Kind:   model.OutcomeReject,
				Reason: fmt.Sprintf("row processing error: %v", r),
				Logs:   []string{fmt.Sprintf("unexpected error while processing row %d: %v", rowIndex, r)},
				Candidate: model.Candidate{
					RowIndex: rowIndex,
				},
			}
			logLine = fmt.Sprintf("row %d [REJECT] processing error: %v", rowIndex, r)
			err = nil
		}
	}()

	name := tabular.Field(row, mapping.Name)
	if name == "" {
		return nil, fmt.Sprintf("row %d skipped: empty name", rowIndex), nil
	}

	address := tabular.Field(row, mapping.RoadAddress)
	if address == "" {
		address = tabular.Field(row, mapping.LotAddress)
	}

	latRaw := tabular.Field(row, mapping.Lat)
	lngRaw := tabular.Field(row, mapping.Lng)
	lat, _ := strconv.ParseFloat(latRaw, 64)
	lng, _ := strconv.ParseFloat(lngRaw, 64)

	enriched := enrich.Enrich(name, address)

	cand := model.Candidate{
		Name:     enriched.Name,
		Address:  address,
		Query:    enriched.Query,
		Category: tabular.Field(row, mapping.Category),
		Note:     tabular.Field(row, mapping.Note),
		LatRaw:   latRaw,
		LngRaw:   lngRaw,
		Lat:      lat,
		Lng:      lng,
		Floor:    enriched.Floor,
		RowIndex: rowIndex,
	}

	var geo *model.GeocodeResult
	if cand.Query != "" {
		geo, err = in.geocoder.Geocode(ctx, cand.Query)
		if err != nil {
			return nil, "", err
		}
	}

	result := in.classifier.Classify(ctx, cand, geo)
	logLine = fmt.Sprintf("row %d [%s] %s: %s", rowIndex, result.Kind, result.Name, result.Reason)
	return &result, logLine, nil
}
