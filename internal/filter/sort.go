package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/devel-adr/medistream/internal/model"
)

// SortSpec orders records by one column. An empty Column keeps the
// fetch order (newest first).
type SortSpec struct {
	Column string
	Desc   bool
}

// Toggle cycles a column through ascending, descending and unsorted.
// Choosing a different column starts again at ascending.
func (s SortSpec) Toggle(column string) SortSpec {
	switch {
	case s.Column != column:
		return SortSpec{Column: column}
	case !s.Desc:
		return SortSpec{Column: column, Desc: true}
	default:
		return SortSpec{}
	}
}

// Sort returns a sorted copy of records. Values that parse as numbers
// compare numerically, others case-insensitively; ties keep their order.
func Sort(records []model.Record, spec SortSpec) []model.Record {
	out := make([]model.Record, len(records))
	copy(out, records)
	if spec.Column == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i].Field(spec.Column), out[j].Field(spec.Column))
		if spec.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
