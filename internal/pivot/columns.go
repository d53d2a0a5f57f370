package pivot

import "sort"

// Column is one planned table column.
type Column struct {
	Key   PeriodKey
	Label string
	// Synthetic marks the inserted most-recent-period total column whose
	// value is recomputed from the refined keys rather than read from the
	// matrix.
	Synthetic bool
}

// Plan is the ordered, duplicate-free column list for one table.
type Plan struct {
	Columns    []Column
	MostRecent string
	// Exploded is true when the most recent period appears as quarterly
	// columns behind a synthetic total column.
	Exploded bool
}

// Empty reports whether the plan has no columns; callers must render a
// "no data" placeholder instead of an empty header row.
func (p Plan) Empty() bool { return len(p.Columns) == 0 }

// Labels returns the display labels in column order.
func (p Plan) Labels() []string {
	labels := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		labels[i] = c.Label
	}
	return labels
}

// PlanColumns converts the period keys observed in the matrix into an
// ordered column list. When refined keys exist for the most recent base
// period, a synthetic total column is inserted immediately before the
// first refined column, whether or not an unrefined record contributed
// to that period directly.
func PlanColumns(m *Matrix, mostRecent string) (Plan, error) {
	seen := make(map[PeriodKey]bool)
	var keys []PeriodKey
	for _, periods := range m.cells {
		for pk := range periods {
			if !seen[pk] {
				seen[pk] = true
				keys = append(keys, pk)
			}
		}
	}
	if len(keys) == 0 {
		return Plan{MostRecent: mostRecent}, nil
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	exploded := false
	for _, pk := range keys {
		if pk.Base == mostRecent && pk.Refined() {
			exploded = true
			break
		}
	}

	plan := Plan{MostRecent: mostRecent, Exploded: exploded}
	first := firstRefined(keys, mostRecent)
	for _, pk := range keys {
		if exploded && pk.Base == mostRecent && !pk.Refined() {
			// The observed unrefined key is superseded by the synthetic
			// total column inserted below; keeping both would duplicate it.
			continue
		}
		if exploded && pk.Base == mostRecent && pk.Sub == first {
			plan.Columns = append(plan.Columns, Column{
				Key:       PeriodKey{Base: mostRecent},
				Label:     mostRecent,
				Synthetic: true,
			})
		}
		label, err := pk.Label()
		if err != nil {
			return Plan{}, err
		}
		plan.Columns = append(plan.Columns, Column{Key: pk, Label: label})
	}
	return plan, nil
}

func firstRefined(keys []PeriodKey, base string) int {
	for _, pk := range keys {
		if pk.Base == base && pk.Refined() {
			return pk.Sub
		}
	}
	return 0
}
