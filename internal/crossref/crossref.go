// Package crossref finds the rows of other datasets that relate to a
// selected row.
package crossref

import (
	"strings"

	"github.com/devel-adr/medistream/internal/model"
)

// Relation describes why two rows are linked.
type Relation string

const (
	// DerivedFrom links a tactic to the unmet need it addresses.
	DerivedFrom Relation = "derived from"
	// Addressed links an unmet need to a tactic that addresses it.
	Addressed Relation = "addressed by"
	// SameDrug links rows of different datasets naming the same drug.
	SameDrug Relation = "same drug"
)

// Link is one related row.
type Link struct {
	Relation Relation
	Record   model.Record
}

// Find returns the rows of others related to rec. Explicit references
// come first, then rows of other datasets naming the same drug. A row is
// listed once, under its first relation.
func Find(rec model.Record, others map[model.DatasetKind][]model.Record) []Link {
	if rec == nil {
		return nil
	}

	type key struct {
		kind model.DatasetKind
		id   int64
	}
	seen := map[key]bool{{rec.Kind(), rec.RecordID()}: true}
	var links []Link
	add := func(rel Relation, r model.Record) {
		k := key{r.Kind(), r.RecordID()}
		if seen[k] {
			return
		}
		seen[k] = true
		links = append(links, Link{Relation: rel, Record: r})
	}

	switch v := rec.(type) {
	case model.PharmaTactic:
		if v.UnmetNeedID != nil {
			for _, r := range others[model.KindUnmetNeeds] {
				if r.RecordID() == *v.UnmetNeedID {
					add(DerivedFrom, r)
				}
			}
		}
	case model.UnmetNeed:
		for _, r := range others[model.KindTactics] {
			if t, ok := r.(model.PharmaTactic); ok && t.UnmetNeedID != nil && *t.UnmetNeedID == v.ID {
				add(Addressed, r)
			}
		}
	}

	drug := normalize(rec.DrugName())
	if drug == "" {
		return links
	}
	for _, kind := range model.Kinds() {
		if kind == rec.Kind() {
			continue
		}
		for _, r := range others[kind] {
			if normalize(r.DrugName()) == drug {
				add(SameDrug, r)
			}
		}
	}
	return links
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
