// Package filter narrows and orders dataset records for display.
package filter

import (
	"sort"
	"strings"

	"github.com/devel-adr/medistream/internal/model"
)

// Criteria is the user's current filter selection. Empty fields match
// everything.
type Criteria struct {
	Query           string
	Laboratory      string
	DrugName        string
	TherapeuticArea string
	FavoritesOnly   bool
}

// Active reports whether any filter is set.
func (c Criteria) Active() bool {
	return c.Query != "" || c.Laboratory != "" || c.DrugName != "" ||
		c.TherapeuticArea != "" || c.FavoritesOnly
}

// Apply returns the records matching c, in their original order.
func Apply(records []model.Record, c Criteria, favorites map[int64]bool) []model.Record {
	query := strings.ToLower(strings.TrimSpace(c.Query))

	var out []model.Record
	for _, r := range records {
		if c.FavoritesOnly && !favorites[r.RecordID()] {
			continue
		}
		if !matchSelect(r, c) {
			continue
		}
		if query != "" && !matchQuery(r, query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchSelect(r model.Record, c Criteria) bool {
	return equalFold(c.Laboratory, r.Field(model.ColumnLaboratory)) &&
		equalFold(c.DrugName, r.Field(model.ColumnDrugName)) &&
		equalFold(c.TherapeuticArea, r.Field(model.ColumnTherapeuticArea))
}

// equalFold matches when want is empty or equals got ignoring case.
func equalFold(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

func matchQuery(r model.Record, query string) bool {
	for _, col := range r.Columns() {
		if strings.Contains(strings.ToLower(r.Field(col.Key)), query) {
			return true
		}
	}
	return false
}

// Options are the values offered by the three dependent selectors.
type Options struct {
	Laboratories     []string
	DrugNames        []string
	TherapeuticAreas []string
}

// OptionsFor lists the selectable values given the parent selections in
// c: every laboratory, the drugs of the selected laboratory, and the
// areas of the selected laboratory and drug. Lists are sorted and
// de-duplicated; empty values are left out.
func OptionsFor(records []model.Record, c Criteria) Options {
	labs := newValueSet()
	drugs := newValueSet()
	areas := newValueSet()

	for _, r := range records {
		lab := r.Field(model.ColumnLaboratory)
		labs.add(lab)
		if !equalFold(c.Laboratory, lab) {
			continue
		}
		drug := r.Field(model.ColumnDrugName)
		drugs.add(drug)
		if !equalFold(c.DrugName, drug) {
			continue
		}
		areas.add(r.Field(model.ColumnTherapeuticArea))
	}

	return Options{
		Laboratories:     labs.sorted(),
		DrugNames:        drugs.sorted(),
		TherapeuticAreas: areas.sorted(),
	}
}

// Cascade clears child selections that are no longer offered after a
// parent selection changed.
func Cascade(records []model.Record, c Criteria) Criteria {
	opts := OptionsFor(records, Criteria{Laboratory: c.Laboratory})
	if c.DrugName != "" && !containsFold(opts.DrugNames, c.DrugName) {
		c.DrugName = ""
	}

	opts = OptionsFor(records, Criteria{Laboratory: c.Laboratory, DrugName: c.DrugName})
	if c.TherapeuticArea != "" && !containsFold(opts.TherapeuticAreas, c.TherapeuticArea) {
		c.TherapeuticArea = ""
	}
	return c
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

type valueSet map[string]string

func newValueSet() valueSet { return make(valueSet) }

func (s valueSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	key := strings.ToLower(v)
	if _, ok := s[key]; !ok {
		s[key] = v
	}
}

func (s valueSet) sorted() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
