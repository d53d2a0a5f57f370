package pivot

// Grouping selects how dimension keys become rows.
type Grouping int

const (
	// GroupNone gives every dimension key its own row.
	GroupNone Grouping = iota
	// GroupThreshold shows keys at or above a threshold individually and
	// pools the rest into one "All other ..." row.
	GroupThreshold
	// GroupFixed shows a fixed category list in the listed order; keys
	// outside the list follow the Fallback mode.
	GroupFixed
	// GroupMajorSplit crosses a small set of major primary values with
	// every secondary value, pooling the remaining primaries per
	// secondary and adding per-secondary totals.
	GroupMajorSplit
)

// Fallback is what happens to keys a fixed category list does not name.
type Fallback int

const (
	// FallbackDrop omits unlisted keys from rows and from every total.
	FallbackDrop Fallback = iota
	// FallbackPool sums unlisted keys into one pooled row.
	FallbackPool
	// FallbackThreshold applies the threshold rule to unlisted keys,
	// after the listed categories.
	FallbackThreshold
)

// Policy is the per-report row-shaping configuration. Thresholds, pinned
// rows, adjustments and exclusions are all explicit values passed at
// call time; the engine keeps no process-wide state.
type Policy struct {
	Grouping Grouping

	// Explode requests quarterly columns for the most recent period.
	// AnnualWhenComplete suppresses the explosion once Q4 has reported,
	// a heuristic whose correctness the caller owns.
	Explode            bool
	AnnualWhenComplete bool

	// Threshold bucketing. MinRecent applies to the most-recent-period
	// total unless OnMaxAnnual selects the largest single unrefined
	// period instead. AlwaysShow names primaries shown regardless.
	MinRecent   int
	OnMaxAnnual bool
	AlwaysShow  []string
	PooledLabel string

	// Fixed category ordering. FallbackByName sorts the fallback rows
	// alphabetically instead of by most-recent-period total.
	Categories     []string
	Fallback       Fallback
	FallbackByName bool

	// Major split.
	MajorPrimaries []string
	SecondaryOrder []string

	// Corrections and exclusions.
	Adjustments     Adjustments
	Exclusions      []string
	ExclusionSuffix string

	// Pinned primaries appear first among the individual rows, in the
	// order given, regardless of magnitude.
	Pinned []string

	TotalLabel   string
	TotalLeading bool
}

func (p Policy) totalLabel() string {
	if p.TotalLabel == "" {
		return "Total"
	}
	return p.TotalLabel
}

func (p Policy) alwaysShown(primary string) bool {
	for _, name := range p.AlwaysShow {
		if name == primary {
			return true
		}
	}
	return false
}

func (p Policy) excluded(primary string) bool {
	for _, name := range p.Exclusions {
		if name == primary {
			return true
		}
	}
	return false
}

func (p Policy) pinnedIndex(primary string) int {
	for i, name := range p.Pinned {
		if name == primary {
			return i
		}
	}
	return -1
}
