package dataset

import (
	"sort"

	"github.com/aomi-labs/db-master/pkg/contract"
)

// Stats summarizes a dataset for the stats report.
type Stats struct {
	Total        int
	WithSymbol   int
	Proxies      int
	WithProtocol int
	ByProtocol   map[string]int
	ByChain      map[int64]int
}

// Summarize computes summary statistics over a set of records.
func Summarize(records []contract.Record) Stats {
	s := Stats{
		ByProtocol: make(map[string]int),
		ByChain:    make(map[int64]int),
	}
	for i := range records {
		r := &records[i]
		s.Total++
		if r.Symbol != "" {
			s.WithSymbol++
		}
		if r.IsProxy {
			s.Proxies++
		}
		if r.Protocol != "" {
			s.WithProtocol++
			s.ByProtocol[r.Protocol]++
		}
		s.ByChain[r.ChainID]++
	}
	return s
}

// ProtocolCounts returns per-protocol counts ordered by count descending.
func (s *Stats) ProtocolCounts() []CountEntry[string] {
	return sortedCounts(s.ByProtocol)
}

// ChainCounts returns per-chain counts ordered by count descending.
func (s *Stats) ChainCounts() []CountEntry[int64] {
	return sortedCounts(s.ByChain)
}

// CountEntry is one row of a grouped count.
type CountEntry[K comparable] struct {
	Key   K
	Count int
}

func sortedCounts[K comparable](m map[K]int) []CountEntry[K] {
	out := make([]CountEntry[K], 0, len(m))
	for k, v := range m {
		out = append(out, CountEntry[K]{Key: k, Count: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
