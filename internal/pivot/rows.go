package pivot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/foundersandcoders/app-data/internal/records"
)

// Row is one shaped table row. Bold marks total rows; renderers decide
// what, if anything, bold means in their format.
type Row struct {
	Label  string
	Values []int
	Bold   bool
}

// Shape applies a policy to an adjusted matrix and a column plan,
// producing the final ordered rows including the Total row. The Total
// row is always recomputed as the sum over every contributing key per
// column, never copied from another row, so it doubles as a cross-check
// on the bucketing.
func Shape(m *Matrix, plan Plan, pol Policy) ([]Row, error) {
	if pol.Grouping == GroupMajorSplit {
		return shapeMajorSplit(m, plan, pol)
	}
	return shapeByPrimary(m, plan, pol)
}

func shapeByPrimary(m *Matrix, plan Plan, pol Policy) ([]Row, error) {
	var excludedKeys, candidates []records.Key
	for _, key := range m.Keys() {
		if pol.excluded(key.Primary) {
			excludedKeys = append(excludedKeys, key)
		} else {
			candidates = append(candidates, key)
		}
	}

	var shown, pooled []records.Key
	var dropped []records.Key
	var fixedRows []Row

	switch pol.Grouping {
	case GroupNone:
		shown = candidates

	case GroupThreshold:
		shown, pooled = splitByThreshold(m, plan, pol, candidates)

	case GroupFixed:
		listed := make(map[string]bool, len(pol.Categories))
		byPrimary := make(map[string]records.Key, len(candidates))
		for _, key := range candidates {
			byPrimary[key.Primary] = key
		}
		for _, category := range pol.Categories {
			listed[category] = true
			key, ok := byPrimary[category]
			if !ok {
				// A listed category absent from the data still gets its
				// row, with all-zero values.
				fixedRows = append(fixedRows, Row{Label: category, Values: make([]int, len(plan.Columns))})
				continue
			}
			fixedRows = append(fixedRows, Row{Label: key.Primary, Values: rowValues(m, plan, key)})
		}
		var unlisted []records.Key
		for _, key := range candidates {
			if !listed[key.Primary] {
				unlisted = append(unlisted, key)
			}
		}
		switch pol.Fallback {
		case FallbackDrop:
			dropped = unlisted
		case FallbackPool:
			pooled = unlisted
		case FallbackThreshold:
			shown, pooled = splitByThreshold(m, plan, pol, unlisted)
		}

	default:
		return nil, fmt.Errorf("unsupported grouping %d", pol.Grouping)
	}

	// Pinned keys lead the individual rows in pinned order; the rest sort
	// descending by most-recent-period total with stable ties.
	var pinned, unpinned []records.Key
	for _, key := range shown {
		if pol.pinnedIndex(key.Primary) >= 0 {
			pinned = append(pinned, key)
		} else {
			unpinned = append(unpinned, key)
		}
	}
	sort.SliceStable(pinned, func(i, j int) bool {
		return pol.pinnedIndex(pinned[i].Primary) < pol.pinnedIndex(pinned[j].Primary)
	})
	if pol.FallbackByName {
		sort.SliceStable(unpinned, func(i, j int) bool {
			return unpinned[i].Primary < unpinned[j].Primary
		})
	} else {
		sort.SliceStable(unpinned, func(i, j int) bool {
			return m.recentTotal(unpinned[i], plan.MostRecent) > m.recentTotal(unpinned[j], plan.MostRecent)
		})
	}

	var rows []Row
	for _, key := range pinned {
		rows = append(rows, Row{Label: key.Primary, Values: rowValues(m, plan, key)})
	}
	rows = append(rows, fixedRows...)
	for _, key := range unpinned {
		rows = append(rows, Row{Label: key.Primary, Values: rowValues(m, plan, key)})
	}
	if len(pooled) > 0 {
		rows = append(rows, Row{Label: pol.pooledLabel(), Values: sumValues(m, plan, pooled)})
	}

	contributing := make([]records.Key, 0, len(candidates))
	droppedSet := make(map[records.Key]bool, len(dropped))
	for _, key := range dropped {
		droppedSet[key] = true
	}
	for _, key := range candidates {
		if !droppedSet[key] {
			contributing = append(contributing, key)
		}
	}
	// Adjustment-created keys are already in the matrix, so the total
	// picks them up like any other contributor.
	total := Row{Label: pol.totalLabel(), Values: sumValues(m, plan, contributing), Bold: true}
	if pol.TotalLeading {
		rows = append([]Row{total}, rows...)
	} else {
		rows = append(rows, total)
	}

	for _, key := range excludedKeys {
		rows = append(rows, Row{Label: key.Primary + pol.ExclusionSuffix, Values: rowValues(m, plan, key)})
	}
	return rows, nil
}

func splitByThreshold(m *Matrix, plan Plan, pol Policy, keys []records.Key) (shown, pooled []records.Key) {
	for _, key := range keys {
		measure := m.recentTotal(key, plan.MostRecent)
		if pol.OnMaxAnnual {
			measure = m.maxAnnual(key)
		}
		if measure >= pol.MinRecent || pol.alwaysShown(key.Primary) {
			shown = append(shown, key)
		} else {
			pooled = append(pooled, key)
		}
	}
	return shown, pooled
}

func shapeMajorSplit(m *Matrix, plan Plan, pol Policy) ([]Row, error) {
	if len(pol.SecondaryOrder) == 0 {
		return nil, fmt.Errorf("major split requires a secondary order")
	}
	major := make(map[string]bool, len(pol.MajorPrimaries))
	for _, name := range pol.MajorPrimaries {
		major[name] = true
	}

	all := m.Keys()
	grand := Row{Label: pol.totalLabel(), Values: sumValues(m, plan, all), Bold: true}

	rows := []Row{grand}
	for _, primary := range pol.MajorPrimaries {
		for _, secondary := range pol.SecondaryOrder {
			key := records.Key{Primary: primary, Secondary: secondary}
			rows = append(rows, Row{
				Label:  fmt.Sprintf("%s (%s)", primary, strings.ToLower(secondary)),
				Values: rowValues(m, plan, key),
			})
		}
	}
	for _, secondary := range pol.SecondaryOrder {
		var others []records.Key
		for _, key := range all {
			if key.Secondary == secondary && !major[key.Primary] {
				others = append(others, key)
			}
		}
		rows = append(rows, Row{
			Label:  fmt.Sprintf("%s (%s)", pol.pooledLabel(), strings.ToLower(secondary)),
			Values: sumValues(m, plan, others),
		})
	}
	for _, secondary := range pol.SecondaryOrder {
		var matching []records.Key
		for _, key := range all {
			if key.Secondary == secondary {
				matching = append(matching, key)
			}
		}
		rows = append(rows, Row{
			Label:  fmt.Sprintf("Total %s", strings.ToLower(secondary)),
			Values: sumValues(m, plan, matching),
			Bold:   true,
		})
	}
	return rows, nil
}

func (p Policy) pooledLabel() string {
	if p.PooledLabel == "" {
		return "All other"
	}
	return p.PooledLabel
}

func rowValues(m *Matrix, plan Plan, key records.Key) []int {
	values := make([]int, len(plan.Columns))
	for i, col := range plan.Columns {
		values[i] = m.valueAt(key, col)
	}
	return values
}

func sumValues(m *Matrix, plan Plan, keys []records.Key) []int {
	values := make([]int, len(plan.Columns))
	for i, col := range plan.Columns {
		for _, key := range keys {
			values[i] += m.valueAt(key, col)
		}
	}
	return values
}
