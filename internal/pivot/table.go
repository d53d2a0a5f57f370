package pivot

import (
	"github.com/foundersandcoders/app-data/internal/records"
)

// Table is the final format-independent report: a title, ordered
// headers, and ordered rows. Rendering is someone else's job.
type Table struct {
	Title   string
	Headers []string
	Rows    []Row
}

// NoData reports whether the table is the empty-input placeholder.
func (t Table) NoData() bool {
	return len(t.Rows) == 0 && len(t.Headers) == 2 && t.Headers[1] == noDataHeader
}

const noDataHeader = "No data available"

// Build runs the full pivot for one report: aggregate, adjust, plan
// columns, shape rows, assemble. Pure with respect to its inputs.
func Build(recs []records.Record, title, dimensionLabel string, pol Policy) (Table, error) {
	// Adjustments correct observed data; they never conjure a report out
	// of an empty input.
	if len(recs) == 0 {
		return Table{Title: title, Headers: []string{dimensionLabel, noDataHeader}}, nil
	}

	mostRecent := MostRecentPeriod(recs)
	explode := pol.Explode
	if explode && pol.AnnualWhenComplete && HasSubPeriod(recs, mostRecent, 4) {
		explode = false
	}

	matrix := Aggregate(recs, mostRecent, explode).WithAdjustments(pol.Adjustments)
	plan, err := PlanColumns(matrix, mostRecent)
	if err != nil {
		return Table{}, err
	}
	if plan.Empty() {
		return Table{Title: title, Headers: []string{dimensionLabel, noDataHeader}}, nil
	}

	rows, err := Shape(matrix, plan, pol)
	if err != nil {
		return Table{}, err
	}
	return Assemble(title, dimensionLabel, plan, rows), nil
}

// Assemble is pure composition: headers are the dimension label followed
// by the planned column labels.
func Assemble(title, dimensionLabel string, plan Plan, rows []Row) Table {
	headers := append([]string{dimensionLabel}, plan.Labels()...)
	return Table{Title: title, Headers: headers, Rows: rows}
}
