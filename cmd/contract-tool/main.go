package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aomi-labs/db-master/internal/metrics"
	"github.com/aomi-labs/db-master/pkg/config"
	"github.com/aomi-labs/db-master/pkg/contract"
	"github.com/aomi-labs/db-master/pkg/contractstore"
	"github.com/aomi-labs/db-master/pkg/dataset"
	"github.com/aomi-labs/db-master/pkg/etherscan"
	"github.com/aomi-labs/db-master/pkg/pgutil"
	"github.com/aomi-labs/db-master/pkg/pipeline"
)

const usageText = `Usage: contract-tool <command> [flags]

Commands:
  fetch                    Fetch contracts from Etherscan and save to a dataset
  import                   Import a dataset into the database
  fetch-to-db              Fetch contracts and import directly, no dataset file
  stats                    Show statistics about a dataset
  fetch-from-metadata-csv  Fetch addresses listed in a metadata CSV into the database

Run 'contract-tool <command> -h' for command flags.
`

func main() {
	// Credentials may live in a local .env during development
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "fetch":
		err = runFetch(args)
	case "import":
		err = runImport(args)
	case "fetch-to-db":
		err = runFetchToDB(args)
	case "stats":
		err = runStats(args)
	case "fetch-from-metadata-csv":
		err = runFetchFromMetadataCSV(args)
	case "-h", "--help", "help":
		fmt.Print(usageText)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usageText)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	cfg    *config.Config
	logger *zap.Logger
}

func setup(configPath string) (*commonFlags, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if cfg.Monitoring.Enabled {
		startMetricsServer(cfg.Monitoring, logger)
	}
	return &commonFlags{cfg: cfg, logger: logger}, nil
}

// startMetricsServer exposes /metrics and /health for the duration of the
// run. Long fetch runs get scraped like any other service.
func startMetricsServer(cfg config.MonitoringConfig, logger *zap.Logger) {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.MetricsPort)
	go func() {
		if err := http.ListenAndServe(addr, r); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics server listening", zap.String("addr", addr))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func progressPrinter(unit string) pipeline.ProgressFunc {
	return func(done, total int, last string) {
		fmt.Printf("[%d/%d] %s %s\n", done, total, unit, last)
	}
}

func runFetch(args []string) error {
	fs := newFlagSet("fetch")
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	input := fs.String("input", "curated-addresses.txt", "Input file with curated addresses")
	output := fs.String("output", "contracts.csv", "Output dataset file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	common, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer common.logger.Sync()

	if err := common.cfg.ValidateFetch(); err != nil {
		return err
	}

	entries, err := contract.LoadAddressList(*input)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d addresses to fetch\n", len(entries))

	client, err := newEtherscanClient(common)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	p := pipeline.NewFetchPipeline(client,
		pipeline.WithLogger(common.logger),
		pipeline.WithProgress(progressPrinter("fetched")))
	summary, runErr := p.Run(ctx, entries)

	// A cancelled run still writes the records it completed
	if len(summary.Records) > 0 || runErr == nil {
		if err := dataset.Write(*output, summary.Records); err != nil {
			return err
		}
		metrics.DatasetRecords.Set(float64(len(summary.Records)))
	}

	printFetchSummary(summary, *output)
	return runErr
}

func runImport(args []string) error {
	fs := newFlagSet("import")
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	input := fs.String("input", "contracts.csv", "Input dataset file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	common, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer common.logger.Sync()

	if err := common.cfg.ValidateImport(); err != nil {
		return err
	}

	records, err := dataset.Read(*input)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d contracts in dataset\n", len(records))

	db, err := pgutil.ConnectDB(&common.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signalContext()
	defer stop()

	p := pipeline.NewImportPipeline(contractstore.NewStore(db), common.cfg.Importer.BatchSize,
		pipeline.WithLogger(common.logger),
		pipeline.WithProgress(progressPrinter("imported")))
	summary, runErr := p.Run(ctx, records)

	printImportSummary(summary)
	return runErr
}

func runFetchToDB(args []string) error {
	fs := newFlagSet("fetch-to-db")
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	input := fs.String("input", "curated-addresses.txt", "Input file with curated addresses")
	if err := fs.Parse(args); err != nil {
		return err
	}

	common, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer common.logger.Sync()

	entries, err := contract.LoadAddressList(*input)
	if err != nil {
		return err
	}
	return fetchIntoStore(common, entries)
}

func runFetchFromMetadataCSV(args []string) error {
	fs := newFlagSet("fetch-from-metadata-csv")
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	input := fs.String("input", "contracts-metadata.csv", "Input metadata CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	common, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer common.logger.Sync()

	entries, err := dataset.ReadMetadataAddresses(*input)
	if err != nil {
		return err
	}
	return fetchIntoStore(common, entries)
}

// fetchIntoStore is the shared tail of fetch-to-db and
// fetch-from-metadata-csv: fetch sequentially, flush to the store in batches.
func fetchIntoStore(common *commonFlags, entries []contract.AddressEntry) error {
	if err := common.cfg.ValidateFetch(); err != nil {
		return err
	}
	if err := common.cfg.ValidateImport(); err != nil {
		return err
	}

	fmt.Printf("Found %d addresses to fetch\n", len(entries))

	client, err := newEtherscanClient(common)
	if err != nil {
		return err
	}

	db, err := pgutil.ConnectDB(&common.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signalContext()
	defer stop()

	p := pipeline.NewFetchPipeline(client,
		pipeline.WithLogger(common.logger),
		pipeline.WithProgress(progressPrinter("fetched")))
	fetchSummary, importSummary, runErr := p.RunToImporter(ctx, entries,
		contractstore.NewStore(db), common.cfg.Importer.BatchSize)

	printFetchSummary(fetchSummary, "")
	printImportSummary(importSummary)
	return runErr
}

func runStats(args []string) error {
	fs := newFlagSet("stats")
	input := fs.String("input", "contracts.csv", "Input dataset file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := dataset.Read(*input)
	if err != nil {
		return err
	}

	stats := dataset.Summarize(records)

	fmt.Println("Contract Statistics:")
	fmt.Printf("  Total contracts: %d\n", stats.Total)
	fmt.Printf("  With symbols:    %d\n", stats.WithSymbol)
	fmt.Printf("  Proxies:         %d\n", stats.Proxies)
	fmt.Printf("  With protocol:   %d\n", stats.WithProtocol)

	if protocols := stats.ProtocolCounts(); len(protocols) > 0 {
		fmt.Println("\nBy Protocol:")
		for _, p := range protocols {
			fmt.Printf("  %s: %d\n", p.Key, p.Count)
		}
	}

	fmt.Println("\nBy Chain:")
	for _, c := range stats.ChainCounts() {
		fmt.Printf("  %s (%d): %d\n", contract.ChainName(c.Key), c.Key, c.Count)
	}

	return nil
}

func newEtherscanClient(common *commonFlags) (*etherscan.Client, error) {
	return etherscan.New(&etherscan.Config{
		APIKey:            common.cfg.Etherscan.APIKey,
		BaseURL:           common.cfg.Etherscan.BaseURL,
		RequestsPerSecond: common.cfg.Etherscan.RequestsPerSecond,
		MaxRetries:        common.cfg.Etherscan.MaxRetries,
		RequestTimeout:    common.cfg.Etherscan.RequestTimeout,
	}, etherscan.WithLogger(common.logger))
}

func printFetchSummary(s *pipeline.FetchSummary, output string) {
	fmt.Printf("\nFetch summary: attempted=%d fetched=%d failed=%d\n", s.Total, s.Fetched, s.Failed)
	for _, f := range s.Failures {
		fmt.Printf("  failed: %s (chain %d): %v\n", f.Entry.Address, f.Entry.ChainID, f.Err)
	}
	if output != "" {
		fmt.Printf("Wrote %d contracts to %s\n", len(s.Records), output)
	}
}

func printImportSummary(s *pipeline.ImportSummary) {
	fmt.Printf("Import summary: batches=%d inserted=%d updated=%d failed=%d\n",
		s.Batches, s.Inserted, s.Updated, s.FailedRecords)
	for _, f := range s.Failures {
		fmt.Printf("  batch %d failed (%d records): %v\n", f.Batch, f.Records, f.Err)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}
