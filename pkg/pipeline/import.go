package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aomi-labs/db-master/internal/metrics"
	"github.com/aomi-labs/db-master/pkg/contract"
	"github.com/aomi-labs/db-master/pkg/contractstore"
)

// DefaultBatchSize is the number of records per import transaction.
const DefaultBatchSize = 50

// Importer writes one batch of records in a single transaction. Implemented
// by contractstore.
type Importer interface {
	UpsertBatch(ctx context.Context, records []contract.Record) (contractstore.BatchStats, error)
}

// BatchFailure records one batch whose transaction failed and rolled back.
type BatchFailure struct {
	Batch   int
	Records int
	Err     error
}

// ImportSummary is the result of one import run.
type ImportSummary struct {
	Batches       int
	Inserted      int
	Updated       int
	FailedRecords int
	Failures      []BatchFailure
}

// ImportPipeline chunks a dataset and drives an Importer batch by batch.
// Batches are independent transactions: a failed batch rolls back alone and
// the run continues.
type ImportPipeline struct {
	importer  Importer
	batchSize int
	logger    *zap.Logger
	progress  ProgressFunc
}

// NewImportPipeline creates an import pipeline around the given importer.
func NewImportPipeline(imp Importer, batchSize int, opts ...Option) *ImportPipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	s := applyOptions(opts)
	return &ImportPipeline{
		importer:  imp,
		batchSize: batchSize,
		logger:    s.logger.With(zap.String("run_id", uuid.NewString())),
		progress:  s.progress,
	}
}

// Run imports a fully materialized dataset. The returned error is non-nil
// only for cancellation; batch failures live in the summary.
func (p *ImportPipeline) Run(ctx context.Context, records []contract.Record) (*ImportSummary, error) {
	summary := &ImportSummary{}
	total := (len(records) + p.batchSize - 1) / p.batchSize

	p.logger.Info("starting contract import",
		zap.Int("records", len(records)),
		zap.Int("batches", total),
		zap.Int("batch_size", p.batchSize))

	for start := 0; start < len(records); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("import cancelled",
				zap.Int("done", summary.Batches),
				zap.Int("total", total))
			return summary, err
		}

		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		importBatch(ctx, p.importer, batch, summary, p.logger)

		if p.progress != nil {
			p.progress(summary.Batches, total, fmt.Sprintf("batch %d/%d", summary.Batches, total))
		}
	}

	p.logger.Info("contract import finished",
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("failed_records", summary.FailedRecords))

	return summary, nil
}

// importBatch runs one batch through the importer and folds the outcome into
// the summary. Shared by ImportPipeline and FetchPipeline.RunToImporter.
func importBatch(ctx context.Context, imp Importer, batch []contract.Record, summary *ImportSummary, logger *zap.Logger) {
	summary.Batches++

	stats, err := imp.UpsertBatch(ctx, batch)
	if err != nil {
		summary.FailedRecords += len(batch)
		summary.Failures = append(summary.Failures, BatchFailure{
			Batch:   summary.Batches,
			Records: len(batch),
			Err:     err,
		})
		metrics.ImportBatches.WithLabelValues("error").Inc()
		metrics.RowsImported.WithLabelValues("failed").Add(float64(len(batch)))
		logger.Warn("import batch failed",
			zap.Int("batch", summary.Batches),
			zap.Int("records", len(batch)),
			zap.Error(err))
		return
	}

	summary.Inserted += stats.Inserted
	summary.Updated += stats.Updated
	metrics.ImportBatches.WithLabelValues("success").Inc()
	metrics.RowsImported.WithLabelValues("inserted").Add(float64(stats.Inserted))
	metrics.RowsImported.WithLabelValues("updated").Add(float64(stats.Updated))
	logger.Debug("imported batch",
		zap.Int("batch", summary.Batches),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated))
}
