package pivot

import (
	"sort"

	"github.com/foundersandcoders/app-data/internal/records"
)

// Matrix is the aggregation result: dimension key -> period -> summed
// measure. First-seen key order is preserved so that later tie-breaks
// are stable. A fresh matrix is built per report invocation; nothing is
// shared across calls.
type Matrix struct {
	cells map[records.Key]map[PeriodKey]int
	order []records.Key
}

// NewMatrix returns an empty matrix.
func NewMatrix() *Matrix {
	return &Matrix{cells: make(map[records.Key]map[PeriodKey]int)}
}

// MostRecentPeriod returns the lexicographically greatest base period
// observed across records. Valid because periods are zero-padded
// "YYYY-YY" strings. Empty input yields "".
func MostRecentPeriod(recs []records.Record) string {
	most := ""
	for _, r := range recs {
		if r.Period > most {
			most = r.Period
		}
	}
	return most
}

// HasSubPeriod reports whether any record for the given base period
// carries the given sub-period ordinal. Callers use it for the
// "year is complete once Q4 reports" heuristic.
func HasSubPeriod(recs []records.Record, base string, sub int) bool {
	for _, r := range recs {
		if r.Period == base && r.SubPeriod == sub {
			return true
		}
	}
	return false
}

// Aggregate folds records into a matrix. A record lands under a refined
// key only when its base period is the most recent one, it carries a
// sub-period, and explode is set; otherwise under its base period. No
// record is dropped: empty dimension values aggregate under the empty
// key and callers filter upstream if they want them gone.
func Aggregate(recs []records.Record, mostRecent string, explode bool) *Matrix {
	m := NewMatrix()
	for _, r := range recs {
		key := PeriodKey{Base: r.Period}
		if explode && r.Period == mostRecent && r.SubPeriod > 0 {
			key.Sub = r.SubPeriod
		}
		m.add(r.Key, key, r.Measure)
	}
	return m
}

func (m *Matrix) add(key records.Key, period PeriodKey, measure int) {
	periods, ok := m.cells[key]
	if !ok {
		periods = make(map[PeriodKey]int)
		m.cells[key] = periods
		m.order = append(m.order, key)
	}
	periods[period] += measure
}

// Keys returns the dimension keys in first-seen order.
func (m *Matrix) Keys() []records.Key {
	return append([]records.Key(nil), m.order...)
}

// Len is the number of distinct dimension keys.
func (m *Matrix) Len() int { return len(m.order) }

// Adjustments are additive corrections applied after aggregation and
// before any totals, keyed by dimension then period. An adjustment for a
// key absent from the matrix creates it.
type Adjustments map[records.Key]map[PeriodKey]int

// WithAdjustments returns a copy of the matrix with the corrections
// folded in. Keys created by an adjustment are appended in sorted order
// so the result is deterministic. The receiver is left untouched.
func (m *Matrix) WithAdjustments(adj Adjustments) *Matrix {
	out := NewMatrix()
	for _, key := range m.order {
		for pk, v := range m.cells[key] {
			out.add(key, pk, v)
		}
	}
	adjKeys := make([]records.Key, 0, len(adj))
	for key := range adj {
		adjKeys = append(adjKeys, key)
	}
	sort.Slice(adjKeys, func(i, j int) bool {
		if adjKeys[i].Primary != adjKeys[j].Primary {
			return adjKeys[i].Primary < adjKeys[j].Primary
		}
		return adjKeys[i].Secondary < adjKeys[j].Secondary
	})
	for _, key := range adjKeys {
		periods := adj[key]
		pks := make([]PeriodKey, 0, len(periods))
		for pk := range periods {
			pks = append(pks, pk)
		}
		sort.Slice(pks, func(i, j int) bool { return pks[i].Less(pks[j]) })
		for _, pk := range pks {
			out.add(key, pk, periods[pk])
		}
	}
	return out
}

// valueAt resolves a single cell. A synthetic column is never read from
// the matrix: its value is the sum across the refined keys for the same
// base period, keeping refinement a display-time decomposition.
func (m *Matrix) valueAt(key records.Key, col Column) int {
	periods := m.cells[key]
	if periods == nil {
		return 0
	}
	if !col.Synthetic {
		return periods[col.Key]
	}
	total := 0
	for pk, v := range periods {
		if pk.Base == col.Key.Base && pk.Refined() {
			total += v
		}
	}
	return total
}

// recentTotal sums a key's values across every period key for the most
// recent base period, refined or not. This is the default sort measure
// and the threshold-bucketing measure.
func (m *Matrix) recentTotal(key records.Key, mostRecent string) int {
	total := 0
	for pk, v := range m.cells[key] {
		if pk.Base == mostRecent {
			total += v
		}
	}
	return total
}

// maxAnnual is the largest unrefined single-period value for a key,
// used by policies that threshold on "ever had N starts in a year".
func (m *Matrix) maxAnnual(key records.Key) int {
	most := 0
	for pk, v := range m.cells[key] {
		if !pk.Refined() && v > most {
			most = v
		}
	}
	return most
}

func (m *Matrix) periods(key records.Key) map[PeriodKey]int {
	return m.cells[key]
}
