package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundersandcoders/app-data/internal/records"
)

func buildPlan(t *testing.T, m *Matrix, mostRecent string) Plan {
	t.Helper()
	plan, err := PlanColumns(m, mostRecent)
	require.NoError(t, err)
	return plan
}

func findRow(t *testing.T, rows []Row, label string) Row {
	t.Helper()
	for _, row := range rows {
		if row.Label == label {
			return row
		}
	}
	t.Fatalf("no row labelled %q in %v", label, rows)
	return Row{}
}

func TestShapeThresholdBucketing(t *testing.T) {
	recs := []records.Record{
		rec("Big", "2024-25", 0, 10),
		rec("Tiny", "2024-25", 0, 2),
		rec("Mid", "2024-25", 0, 6),
		rec("Micro", "2024-25", 0, 1),
	}
	m := Aggregate(recs, "2024-25", false)
	plan := buildPlan(t, m, "2024-25")
	rows, err := Shape(m, plan, Policy{
		Grouping:     GroupThreshold,
		MinRecent:    3,
		PooledLabel:  "All other providers",
		TotalLeading: true,
	})
	require.NoError(t, err)

	var labels []string
	for _, row := range rows {
		labels = append(labels, row.Label)
	}
	assert.Equal(t, []string{"Total", "Big", "Mid", "All other providers"}, labels)
	assert.Equal(t, []int{19}, rows[0].Values)
	assert.True(t, rows[0].Bold)
	assert.Equal(t, []int{3}, findRow(t, rows, "All other providers").Values)
}

func TestShapeTotalInvariant(t *testing.T) {
	recs := []records.Record{
		rec("A", "2023-24", 0, 4),
		rec("A", "2024-25", 1, 2),
		rec("B", "2024-25", 2, 9),
		rec("C", "2024-25", 1, 1),
		rec("D", "2023-24", 0, 7),
	}
	m := Aggregate(recs, "2024-25", true)
	plan := buildPlan(t, m, "2024-25")
	rows, err := Shape(m, plan, Policy{
		Grouping:    GroupThreshold,
		MinRecent:   2,
		PooledLabel: "All other providers",
	})
	require.NoError(t, err)

	total := findRow(t, rows, "Total")
	for i := range plan.Columns {
		sum := 0
		for _, row := range rows {
			if row.Bold || row.Label == total.Label {
				continue
			}
			sum += row.Values[i]
		}
		assert.Equal(t, total.Values[i], sum,
			"total must equal shown plus pooled for column %s", plan.Columns[i].Label)
	}
}

func TestShapeAlwaysShowOverridesThreshold(t *testing.T) {
	recs := []records.Record{
		rec("FOUNDERS & CODERS", "2024-25", 0, 1),
		rec("Giant", "2024-25", 0, 50),
	}
	m := Aggregate(recs, "2024-25", false)
	plan := buildPlan(t, m, "2024-25")
	rows, err := Shape(m, plan, Policy{
		Grouping:    GroupThreshold,
		MinRecent:   3,
		AlwaysShow:  []string{"FOUNDERS & CODERS"},
		PooledLabel: "All other providers",
	})
	require.NoError(t, err)
	findRow(t, rows, "FOUNDERS & CODERS")
	for _, row := range rows {
		assert.NotEqual(t, "All other providers", row.Label, "nothing left to pool")
	}
}

func TestShapeExclusionOutsideTotals(t *testing.T) {
	recs := []records.Record{
		rec("Open College", "2024-25", 0, 8),
		rec("Closed College", "2024-25", 0, 5),
	}
	m := Aggregate(recs, "2024-25", false)
	plan := buildPlan(t, m, "2024-25")
	rows, err := Shape(m, plan, Policy{
		Grouping:        GroupNone,
		Exclusions:      []string{"Closed College"},
		ExclusionSuffix: " (closed)",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{8}, findRow(t, rows, "Total").Values)
	excluded := findRow(t, rows, "Closed College (closed)")
	assert.Equal(t, []int{5}, excluded.Values)
	// excluded row renders last
	assert.Equal(t, excluded.Label, rows[len(rows)-1].Label)
}

func TestShapeAdjustmentCreatesRow(t *testing.T) {
	recs := []records.Record{
		rec("A", "2022-23", 0, 4),
		rec("A", "2023-24", 0, 6),
	}
	pol := Policy{
		Grouping: GroupNone,
		Adjustments: Adjustments{
			records.Key{Primary: "Ghost"}: {PeriodKey{Base: "2023-24"}: 3},
		},
	}
	table, err := Build(recs, "t", "Provider", pol)
	require.NoError(t, err)

	assert.Equal(t, []string{"Provider", "2022-23", "2023-24"}, table.Headers)
	ghost := findRow(t, table.Rows, "Ghost")
	assert.Equal(t, []int{0, 3}, ghost.Values)
	assert.Equal(t, []int{4, 9}, findRow(t, table.Rows, "Total").Values)
}

func TestShapeFixedCategoriesZeroFillsMissing(t *testing.T) {
	recs := []records.Record{
		rec("Large employers (levy-funded)", "2023-24", 0, 12),
	}
	m := Aggregate(recs, "2023-24", false)
	plan := buildPlan(t, m, "2023-24")
	rows, err := Shape(m, plan, Policy{
		Grouping:     GroupFixed,
		Categories:   []string{"Large employers (levy-funded)", "SMEs (other funding)"},
		Fallback:     FallbackThreshold,
		TotalLeading: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{12}, findRow(t, rows, "Large employers (levy-funded)").Values)
	assert.Equal(t, []int{0}, findRow(t, rows, "SMEs (other funding)").Values)
}

func TestShapeFixedCategoriesPoolFallback(t *testing.T) {
	recs := []records.Record{
		rec("Aug", "2023-24", 0, 3),
		rec("Unknown", "2023-24", 0, 2),
	}
	m := Aggregate(recs, "2023-24", false)
	plan := buildPlan(t, m, "2023-24")
	rows, err := Shape(m, plan, Policy{
		Grouping:    GroupFixed,
		Categories:  []string{"Aug", "Sep"},
		Fallback:    FallbackPool,
		PooledLabel: "Unknown",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2}, findRow(t, rows, "Unknown").Values)
	assert.Equal(t, []int{5}, findRow(t, rows, "Total").Values)
}

func TestShapePinnedRowLeads(t *testing.T) {
	recs := []records.Record{
		rec("Huge", "2024-25", 0, 40),
		rec("FOUNDERS & CODERS", "2024-25", 0, 2),
	}
	m := Aggregate(recs, "2024-25", false)
	plan := buildPlan(t, m, "2024-25")
	rows, err := Shape(m, plan, Policy{
		Grouping: GroupNone,
		Pinned:   []string{"FOUNDERS & CODERS"},
	})
	require.NoError(t, err)
	assert.Equal(t, "FOUNDERS & CODERS", rows[0].Label)
	assert.Equal(t, "Huge", rows[1].Label)
}

func TestShapeMajorSplit(t *testing.T) {
	mkRec := func(region, funding, period string, sub, n int) records.Record {
		return records.Record{
			Key:       records.Key{Primary: region, Secondary: funding},
			Period:    period,
			SubPeriod: sub,
			Measure:   n,
		}
	}
	recs := []records.Record{
		mkRec("London", "Large employers", "2023-24", 0, 10),
		mkRec("London", "SMEs", "2023-24", 0, 4),
		mkRec("North West", "SMEs", "2023-24", 0, 3),
		mkRec("Wales", "SMEs", "2023-24", 0, 2),
		mkRec("Wales", "Large employers", "2023-24", 0, 1),
	}
	m := Aggregate(recs, "2023-24", false)
	plan := buildPlan(t, m, "2023-24")
	rows, err := Shape(m, plan, Policy{
		Grouping:       GroupMajorSplit,
		MajorPrimaries: []string{"London", "North West", "South East"},
		SecondaryOrder: []string{"Large employers", "SMEs"},
		PooledLabel:    "All other regions",
		TotalLabel:     "Grand Total",
	})
	require.NoError(t, err)

	assert.Equal(t, "Grand Total", rows[0].Label)
	assert.Equal(t, []int{20}, rows[0].Values)
	assert.Equal(t, []int{10}, findRow(t, rows, "London (large employers)").Values)
	assert.Equal(t, []int{0}, findRow(t, rows, "South East (smes)").Values)
	assert.Equal(t, []int{1}, findRow(t, rows, "All other regions (large employers)").Values)
	assert.Equal(t, []int{2}, findRow(t, rows, "All other regions (smes)").Values)
	assert.Equal(t, []int{11}, findRow(t, rows, "Total large employers").Values)
	assert.Equal(t, []int{9}, findRow(t, rows, "Total smes").Values)
}

func TestBuildNoData(t *testing.T) {
	table, err := Build(nil, "title", "Provider", Policy{Grouping: GroupNone})
	require.NoError(t, err)
	assert.True(t, table.NoData())
	assert.Equal(t, []string{"Provider", "No data available"}, table.Headers)
}

func TestBuildEmptyInputIgnoresAdjustments(t *testing.T) {
	pol := Policy{
		Grouping: GroupThreshold,
		Explode:  true,
		Adjustments: Adjustments{
			records.Key{Primary: "FOUNDERS & CODERS"}: {
				{Base: "2024-25", Sub: 3}: 1,
				{Base: "2023-24"}:         3,
			},
		},
	}
	table, err := Build(nil, "title", "Provider", pol)
	require.NoError(t, err)
	assert.True(t, table.NoData())
	assert.Empty(t, table.Rows)
}

func TestBuildAnnualWhenComplete(t *testing.T) {
	recs := []records.Record{
		rec("London", "2023-24", 0, 5),
		rec("London", "2024-25", 1, 1),
		rec("London", "2024-25", 4, 2),
	}
	pol := Policy{Grouping: GroupNone, Explode: true, AnnualWhenComplete: true}
	table, err := Build(recs, "t", "Region", pol)
	require.NoError(t, err)
	// Q4 present: the year is complete, so no quarterly columns.
	assert.Equal(t, []string{"Region", "2023-24", "2024-25"}, table.Headers)
	assert.Equal(t, []int{5, 3}, findRow(t, table.Rows, "London").Values)
}
