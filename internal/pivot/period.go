// Package pivot turns normalized count records into league-table reports:
// a dimension on rows, reporting periods on columns, with the most recent
// period optionally exploded into quarterly sub-periods.
package pivot

import "fmt"

// PeriodKey identifies a table column period. Sub is 0 for a plain base
// period ("2024-25") and 1-4 for a quarterly refinement ("2024-25 Q2").
// Refined keys exist only for the single most recent base period.
type PeriodKey struct {
	Base string
	Sub  int
}

// Refined reports whether the key carries a sub-period.
func (k PeriodKey) Refined() bool { return k.Sub > 0 }

// Less orders keys by (base, sub) so an unrefined key sorts before its
// own refinements.
func (k PeriodKey) Less(other PeriodKey) bool {
	if k.Base != other.Base {
		return k.Base < other.Base
	}
	return k.Sub < other.Sub
}

// Label renders the display form of the key. Only quarterly refinements
// are labelled; a sub-period beyond 4 is a caller error and fails loudly
// rather than mis-labelling the column.
func (k PeriodKey) Label() (string, error) {
	if k.Sub == 0 {
		return k.Base, nil
	}
	if k.Sub > 4 {
		return "", fmt.Errorf("sub-period %d out of quarter range for %s", k.Sub, k.Base)
	}
	return fmt.Sprintf("%s Q%d", k.Base, k.Sub), nil
}
