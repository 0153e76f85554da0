package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContractsFetched counts fetch attempts by chain and outcome
	ContractsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_contracts_fetched_total",
			Help: "Total number of contract fetch attempts",
		},
		[]string{"chain", "status"},
	)

	// FetchDuration tracks how long one contract fetch takes, rate-limit
	// wait included
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_fetch_duration_seconds",
			Help:    "Contract fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain"},
	)

	// ImportBatches counts import batches by outcome
	ImportBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_import_batches_total",
			Help: "Total number of import batches",
		},
		[]string{"status"},
	)

	// RowsImported counts imported rows by outcome
	RowsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_rows_imported_total",
			Help: "Total number of rows written by the importer",
		},
		[]string{"status"},
	)

	// DatasetRecords tracks the size of the last written dataset
	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_dataset_records",
			Help: "Number of records in the last written dataset",
		},
	)
)
