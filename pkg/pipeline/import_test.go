package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aomi-labs/db-master/pkg/contract"
	"github.com/aomi-labs/db-master/pkg/contractstore"
)

// fakeImporter records every batch it receives. Batches whose 1-based index
// appears in failOn roll back with an error. Like the real store it cannot
// open a transaction on a dead context.
type fakeImporter struct {
	batches [][]contract.Record
	failOn  map[int]bool
}

func (f *fakeImporter) UpsertBatch(ctx context.Context, records []contract.Record) (contractstore.BatchStats, error) {
	if err := ctx.Err(); err != nil {
		return contractstore.BatchStats{}, err
	}
	f.batches = append(f.batches, append([]contract.Record(nil), records...))
	if f.failOn[len(f.batches)] {
		return contractstore.BatchStats{}, errors.New("deadlock detected")
	}
	return contractstore.BatchStats{Inserted: len(records)}, nil
}

func makeRecords(n int) []contract.Record {
	out := make([]contract.Record, n)
	for i := range out {
		out[i] = contract.Record{Address: string(rune('a' + i)), ChainID: 1}
	}
	return out
}

func TestImportPipeline_Run_Chunks(t *testing.T) {
	imp := &fakeImporter{}

	var progress []int
	p := NewImportPipeline(imp, 2, WithProgress(func(done, total int, last string) {
		progress = append(progress, done)
		assert.Equal(t, 3, total)
	}))

	summary, err := p.Run(context.Background(), makeRecords(5))
	require.NoError(t, err)

	require.Len(t, imp.batches, 3)
	assert.Len(t, imp.batches[0], 2)
	assert.Len(t, imp.batches[1], 2)
	assert.Len(t, imp.batches[2], 1)

	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 5, summary.Inserted)
	assert.Equal(t, 0, summary.FailedRecords)
	assert.Empty(t, summary.Failures)

	// progress reported after every batch
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestImportPipeline_Run_EmptyDataset(t *testing.T) {
	imp := &fakeImporter{}
	p := NewImportPipeline(imp, 2)

	summary, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Batches)
	assert.Empty(t, imp.batches)
}

func TestImportPipeline_Run_FailedBatchIsIsolated(t *testing.T) {
	imp := &fakeImporter{failOn: map[int]bool{2: true}}
	p := NewImportPipeline(imp, 2)

	summary, err := p.Run(context.Background(), makeRecords(6))
	require.NoError(t, err)

	// batch 2 rolled back alone, batches 1 and 3 landed
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 4, summary.Inserted)
	assert.Equal(t, 2, summary.FailedRecords)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, 2, summary.Failures[0].Batch)
	assert.Equal(t, 2, summary.Failures[0].Records)
	assert.ErrorContains(t, summary.Failures[0].Err, "deadlock")
}

func TestImportPipeline_Run_CancelledAtBatchBoundary(t *testing.T) {
	imp := &fakeImporter{}
	ctx, cancel := context.WithCancel(context.Background())

	p := NewImportPipeline(imp, 2, WithProgress(func(done, total int, last string) {
		if done == 1 {
			cancel()
		}
	}))

	summary, err := p.Run(ctx, makeRecords(6))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Batches)
	assert.Len(t, imp.batches, 1)
}

func TestImportPipeline_DefaultBatchSize(t *testing.T) {
	imp := &fakeImporter{}
	p := NewImportPipeline(imp, 0)

	summary, err := p.Run(context.Background(), makeRecords(DefaultBatchSize+1))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Batches)
	require.Len(t, imp.batches, 2)
	assert.Len(t, imp.batches[0], DefaultBatchSize)
	assert.Len(t, imp.batches[1], 1)
}
