package pivot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundersandcoders/app-data/internal/records"
)

func rec(primary, period string, sub, measure int) records.Record {
	return records.Record{
		Key:       records.Key{Primary: primary},
		Period:    period,
		SubPeriod: sub,
		Measure:   measure,
	}
}

func TestMostRecentPeriod(t *testing.T) {
	recs := []records.Record{
		rec("A", "2022-23", 0, 1),
		rec("B", "2024-25", 1, 2),
		rec("C", "2023-24", 0, 3),
	}
	assert.Equal(t, "2024-25", MostRecentPeriod(recs))
	assert.Equal(t, "", MostRecentPeriod(nil))
}

func TestAggregateRefinesOnlyMostRecent(t *testing.T) {
	recs := []records.Record{
		rec("A", "2023-24", 2, 5), // older period: quarter ignored
		rec("A", "2024-25", 1, 3),
		rec("A", "2024-25", 2, 4),
		rec("A", "2024-25", 0, 2), // unknown sub-period stays on the base key
	}
	m := Aggregate(recs, "2024-25", true)

	periods := m.periods(records.Key{Primary: "A"})
	require.NotNil(t, periods)
	assert.Equal(t, 5, periods[PeriodKey{Base: "2023-24"}])
	assert.Equal(t, 3, periods[PeriodKey{Base: "2024-25", Sub: 1}])
	assert.Equal(t, 4, periods[PeriodKey{Base: "2024-25", Sub: 2}])
	assert.Equal(t, 2, periods[PeriodKey{Base: "2024-25"}])
}

func TestAggregateRefinementConservation(t *testing.T) {
	recs := []records.Record{
		rec("A", "2024-25", 1, 3),
		rec("A", "2024-25", 2, 4),
		rec("A", "2024-25", 3, 1),
	}
	exploded := Aggregate(recs, "2024-25", true)
	flat := Aggregate(recs, "2024-25", false)

	key := records.Key{Primary: "A"}
	sum := 0
	for pk, v := range exploded.periods(key) {
		require.True(t, pk.Refined())
		sum += v
	}
	assert.Equal(t, flat.periods(key)[PeriodKey{Base: "2024-25"}], sum,
		"refinement must be a pure display-time decomposition")
}

func TestAggregateIdempotence(t *testing.T) {
	recs := []records.Record{
		rec("A", "2023-24", 0, 5),
		rec("B", "2024-25", 2, 1),
		rec("", "2024-25", 1, 2), // empty dimension values are kept
	}
	a := Aggregate(recs, "2024-25", true)
	b := Aggregate(recs, "2024-25", true)
	if diff := cmp.Diff(a.cells, b.cells); diff != "" {
		t.Fatalf("matrices differ (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.order, b.order)
	assert.Equal(t, 3, a.Len())
}

func TestWithAdjustmentsCreatesMissingKey(t *testing.T) {
	m := Aggregate([]records.Record{rec("A", "2023-24", 0, 5)}, "2023-24", false)
	adj := Adjustments{
		records.Key{Primary: "B"}: {PeriodKey{Base: "2023-24"}: 3},
		records.Key{Primary: "A"}: {PeriodKey{Base: "2023-24"}: 2},
	}
	out := m.WithAdjustments(adj)

	assert.Equal(t, 7, out.periods(records.Key{Primary: "A"})[PeriodKey{Base: "2023-24"}])
	assert.Equal(t, 3, out.periods(records.Key{Primary: "B"})[PeriodKey{Base: "2023-24"}])
	// receiver untouched
	assert.Equal(t, 5, m.periods(records.Key{Primary: "A"})[PeriodKey{Base: "2023-24"}])
	assert.Equal(t, 1, m.Len())
}
