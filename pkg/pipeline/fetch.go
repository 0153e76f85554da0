// Package pipeline orchestrates the fetch and import runs: sequential
// rate-limited fetching into datasets, and chunked idempotent imports into
// the contract store. Per-item failures are collected as outcome values and
// reported in run summaries; they never abort a run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aomi-labs/db-master/internal/metrics"
	"github.com/aomi-labs/db-master/pkg/contract"
	"github.com/aomi-labs/db-master/pkg/etherscan"
)

// Fetcher fetches one contract's metadata. Implemented by etherscan.Client.
type Fetcher interface {
	FetchContract(ctx context.Context, address string, chainID int64, protocol string) (*contract.Record, error)
}

// FetchFailure records one address that could not be fetched.
type FetchFailure struct {
	Entry contract.AddressEntry
	Err   error
}

// FetchSummary is the result of one fetch run.
type FetchSummary struct {
	Total    int
	Fetched  int
	Failed   int
	Records  []contract.Record
	Failures []FetchFailure
}

// FetchPipeline drives a Fetcher over a curated address list, one address at
// a time. The fetcher's rate limiter is the only pacing mechanism; the
// pipeline adds no concurrency because the API budget is per key, not per
// connection.
type FetchPipeline struct {
	fetcher  Fetcher
	logger   *zap.Logger
	progress ProgressFunc
	runID    string
}

// NewFetchPipeline creates a fetch pipeline around the given fetcher.
func NewFetchPipeline(f Fetcher, opts ...Option) *FetchPipeline {
	s := applyOptions(opts)
	runID := uuid.NewString()
	return &FetchPipeline{
		fetcher:  f,
		logger:   s.logger.With(zap.String("run_id", runID)),
		progress: s.progress,
		runID:    runID,
	}
}

// Run fetches every entry sequentially and returns the collected records
// plus per-address outcomes. Cancellation is honored at address boundaries
// only, so every record in the summary is fully fetched. The returned error
// is non-nil only for cancellation; the summary is valid either way.
func (p *FetchPipeline) Run(ctx context.Context, entries []contract.AddressEntry) (*FetchSummary, error) {
	summary := &FetchSummary{Total: len(entries)}

	p.logger.Info("starting contract fetch",
		zap.Int("addresses", len(entries)))

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("fetch cancelled",
				zap.Int("done", i),
				zap.Int("total", len(entries)))
			return summary, err
		}

		p.fetchOne(ctx, entry, summary)

		if p.progress != nil {
			p.progress(i+1, len(entries), entry.Address)
		}
	}

	p.logger.Info("contract fetch finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

// RunToImporter fetches every entry and flushes records to imp in batches of
// batchSize, without materializing an intermediate dataset file. Batch
// failures are recorded in the import summary and later batches proceed.
func (p *FetchPipeline) RunToImporter(ctx context.Context, entries []contract.AddressEntry, imp Importer, batchSize int) (*FetchSummary, *ImportSummary, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	fetchSummary := &FetchSummary{Total: len(entries)}
	importSummary := &ImportSummary{}

	p.logger.Info("starting fetch-to-store run",
		zap.Int("addresses", len(entries)),
		zap.Int("batch_size", batchSize))

	var batch []contract.Record
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		importBatch(ctx, imp, batch, importSummary, p.logger)
		batch = batch[:0]
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			// the partial batch still commits after a stop; a cancelled
			// context cannot open the transaction
			flush(context.WithoutCancel(ctx))
			return fetchSummary, importSummary, err
		}

		before := len(fetchSummary.Records)
		p.fetchOne(ctx, entry, fetchSummary)
		if len(fetchSummary.Records) > before {
			batch = append(batch, fetchSummary.Records[len(fetchSummary.Records)-1])
		}

		if len(batch) >= batchSize {
			flush(ctx)
		}
		if p.progress != nil {
			p.progress(i+1, len(entries), entry.Address)
		}
	}
	flush(ctx)

	p.logger.Info("fetch-to-store run finished",
		zap.Int("fetched", fetchSummary.Fetched),
		zap.Int("failed", fetchSummary.Failed),
		zap.Int("inserted", importSummary.Inserted),
		zap.Int("updated", importSummary.Updated))

	return fetchSummary, importSummary, nil
}

func (p *FetchPipeline) fetchOne(ctx context.Context, entry contract.AddressEntry, summary *FetchSummary) {
	chain := contract.ChainName(entry.ChainID)
	start := time.Now()

	rec, err := p.fetcher.FetchContract(ctx, entry.Address, entry.ChainID, entry.Protocol)
	metrics.FetchDuration.WithLabelValues(chain).Observe(time.Since(start).Seconds())

	if err != nil {
		summary.Failed++
		summary.Failures = append(summary.Failures, FetchFailure{Entry: entry, Err: err})
		metrics.ContractsFetched.WithLabelValues(chain, fetchStatus(err)).Inc()
		p.logger.Warn("failed to fetch contract",
			zap.String("address", entry.Address),
			zap.Int64("chain_id", entry.ChainID),
			zap.Error(err))
		return
	}

	summary.Fetched++
	summary.Records = append(summary.Records, *rec)
	metrics.ContractsFetched.WithLabelValues(chain, "success").Inc()
	p.logger.Info("fetched contract",
		zap.String("address", rec.Address),
		zap.String("name", rec.Name),
		zap.Bool("is_proxy", rec.IsProxy))
}

func fetchStatus(err error) string {
	if etherscan.IsNotVerified(err) {
		return "not_verified"
	}
	return "error"
}
