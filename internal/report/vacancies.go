package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/foundersandcoders/app-data/internal/records"
	"github.com/foundersandcoders/app-data/internal/render"
)

// vacancy is one advertised position row after normalization.
type vacancy struct {
	Employer  string
	Provider  string
	Town      string
	Positions int
}

// Vacancies reports currently advertised positions. It is the one
// non-temporal report: a providers table and an employers table split
// by location, or a tiered per-provider breakdown in CSV format.
func Vacancies(env Env, req Request, w io.Writer) error {
	path, err := env.resolveFile(req.InputFile, env.Config.VacancyPattern, "")
	if err != nil {
		return err
	}

	cfg := env.Config
	f := cfg.Fields
	rows, err := records.ReadRows(path, func(row records.Row) bool {
		return row.Get(f.FrameworkName) == "Software developer"
	})
	if err != nil {
		return err
	}

	vacancies := make([]vacancy, 0, len(rows))
	for _, row := range rows {
		vacancies = append(vacancies, vacancy{
			Employer:  records.CleanCompanyName(row.Get(f.EmployerFullName)),
			Provider:  records.CleanCompanyName(row.Get(f.ProviderFullName)),
			Town:      row.Get(f.VacancyTown),
			Positions: records.ParseCount(row.Get(f.Positions), 0),
		})
	}

	if req.Format == render.CSV {
		return render.WriteGrid(w, tieredBreakdown(vacancies, cfg.VacancyLargeThreshold, cfg.VacancyMediumMin), req.Format)
	}
	if err := render.WriteGrid(w, providersGrid(vacancies), req.Format); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return render.WriteGrid(w, employersGrid(vacancies, cfg.LondonKeyword, cfg.NonLondonMinPositions), req.Format)
}

// providersGrid is the provider league: distinct employers and total
// positions per provider, sorted by positions descending.
func providersGrid(vacancies []vacancy) render.Grid {
	type stats struct {
		employers map[string]bool
		positions int
	}
	byProvider := make(map[string]*stats)
	var order []string
	for _, v := range vacancies {
		s, ok := byProvider[v.Provider]
		if !ok {
			s = &stats{employers: make(map[string]bool)}
			byProvider[v.Provider] = s
			order = append(order, v.Provider)
		}
		s.employers[v.Employer] = true
		s.positions += v.Positions
	}
	sort.SliceStable(order, func(i, j int) bool {
		return byProvider[order[i]].positions > byProvider[order[j]].positions
	})

	g := render.Grid{Title: "Providers", Headers: []string{"Provider", "Employers", "Vacancies"}}
	for _, provider := range order {
		s := byProvider[provider]
		g.Rows = append(g.Rows, []string{provider, strconv.Itoa(len(s.employers)), strconv.Itoa(s.positions)})
	}
	return g
}

// employersGrid splits employers into London, sizeable non-London, and
// a pooled remainder, headed by UK and London totals.
func employersGrid(vacancies []vacancy, londonKeyword string, nonLondonMin int) render.Grid {
	type agg struct {
		vacancy
		london bool
	}
	byKey := make(map[[3]string]*agg)
	var order [][3]string
	totalUK, totalLondon := 0, 0

	for _, v := range vacancies {
		totalUK += v.Positions
		london := v.Town != "" && strings.Contains(strings.ToLower(v.Town), londonKeyword)
		if london {
			totalLondon += v.Positions
		}
		key := [3]string{v.Employer, v.Provider, v.Town}
		a, ok := byKey[key]
		if !ok {
			a = &agg{vacancy: vacancy{Employer: v.Employer, Provider: v.Provider, Town: v.Town}, london: london}
			byKey[key] = a
			order = append(order, key)
		}
		a.Positions += v.Positions
	}

	var london, others []*agg
	for _, key := range order {
		a := byKey[key]
		if a.london {
			london = append(london, a)
		} else if a.Positions >= nonLondonMin {
			others = append(others, a)
		}
	}
	sort.SliceStable(london, func(i, j int) bool { return london[i].Positions > london[j].Positions })
	sort.SliceStable(others, func(i, j int) bool { return others[i].Positions > others[j].Positions })

	accounted := totalLondon
	for _, a := range others {
		accounted += a.Positions
	}

	g := render.Grid{Title: "Employers", Headers: []string{"Employer", "Provider", "Town", "Positions"}}
	g.Rows = append(g.Rows,
		[]string{"UK total", "All providers", "UK", strconv.Itoa(totalUK)},
		[]string{"London total", "All providers", "London", strconv.Itoa(totalLondon)},
	)
	for _, a := range london {
		town := a.Town
		if town == "" {
			town = "London"
		}
		g.Rows = append(g.Rows, []string{a.Employer, a.Provider, town, strconv.Itoa(a.Positions)})
	}
	for _, a := range others {
		g.Rows = append(g.Rows, []string{a.Employer, a.Provider, a.Town, strconv.Itoa(a.Positions)})
	}
	if remaining := totalUK - accounted; remaining > 0 {
		g.Rows = append(g.Rows, []string{"All other employers", "All providers", "Rest of UK", strconv.Itoa(remaining)})
	}
	return g
}

// tieredBreakdown is the CSV export: providers over largeThreshold get
// per-employer detail plus a subtotal, providers at or above mediumMin
// get one summary line, and the rest collapse into a single line.
func tieredBreakdown(vacancies []vacancy, largeThreshold, mediumMin int) render.Grid {
	byProvider := make(map[string][]vacancy)
	var order []string
	for _, v := range vacancies {
		if _, ok := byProvider[v.Provider]; !ok {
			order = append(order, v.Provider)
		}
		byProvider[v.Provider] = append(byProvider[v.Provider], v)
	}
	totals := make(map[string]int, len(order))
	for provider, vs := range byProvider {
		for _, v := range vs {
			totals[provider] += v.Positions
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })

	g := render.Grid{Headers: []string{"Provider", "Employer", "Town", "Positions"}}
	smallCount, smallPositions := 0, 0

	for _, provider := range order {
		total := totals[provider]
		switch {
		case total > largeThreshold:
			g.Rows = append(g.Rows, detailRows(provider, byProvider[provider])...)
			g.Rows = append(g.Rows, []string{provider + " SUBTOTAL", "", "", strconv.Itoa(total)})
		case total >= mediumMin:
			g.Rows = append(g.Rows, []string{provider, "(multiple employers)", "", strconv.Itoa(total)})
		default:
			smallCount++
			smallPositions += total
		}
	}
	if smallCount > 0 {
		label := fmt.Sprintf("%d other %s", smallCount, plural(smallCount, "provider"))
		g.Rows = append(g.Rows, []string{label, "(various employers)", "", strconv.Itoa(smallPositions)})
	}
	return g
}

// detailRows lists a large provider's employers: multi-position
// employers individually, single-position ones as one pooled line.
func detailRows(provider string, vs []vacancy) [][]string {
	type agg struct {
		employer, town string
		positions      int
	}
	byKey := make(map[[2]string]*agg)
	employerTotals := make(map[string]int)
	var order [][2]string
	for _, v := range vs {
		key := [2]string{v.Employer, v.Town}
		a, ok := byKey[key]
		if !ok {
			a = &agg{employer: v.Employer, town: v.Town}
			byKey[key] = a
			order = append(order, key)
		}
		a.positions += v.Positions
		employerTotals[v.Employer] += v.Positions
	}

	var multi []*agg
	otherCount, otherPositions := 0, 0
	for _, key := range order {
		a := byKey[key]
		if employerTotals[a.employer] == 1 {
			otherCount++
			otherPositions += a.positions
		} else {
			multi = append(multi, a)
		}
	}
	sort.SliceStable(multi, func(i, j int) bool {
		if multi[i].positions != multi[j].positions {
			return multi[i].positions > multi[j].positions
		}
		return multi[i].employer < multi[j].employer
	})

	var rows [][]string
	for _, a := range multi {
		town := a.town
		if town == "NULL" {
			town = ""
		}
		rows = append(rows, []string{provider, a.employer, town, strconv.Itoa(a.positions)})
	}
	if otherCount > 0 {
		label := fmt.Sprintf("%d other %s", otherCount, plural(otherCount, "employer"))
		rows = append(rows, []string{provider, label, "", strconv.Itoa(otherPositions)})
	}
	return rows
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
