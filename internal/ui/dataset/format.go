package dataset

import (
	"fmt"
	"time"

	"github.com/devel-adr/medistream/internal/model"
)

// relativeTime returns a human-friendly age of t as seen at now.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// columnWidths spreads the available width over the dataset columns.
// The id column is narrow; every other column gets an equal share.
func columnWidths(total int, cols []model.Column) []int {
	const (
		idWidth  = 6
		minWidth = 8
		// favourite marker column plus the padding of each cell
		overhead = 3
	)

	widths := make([]int, len(cols))
	if len(cols) == 0 {
		return widths
	}

	free := total - overhead - 2*len(cols)
	flexible := 0
	for _, c := range cols {
		if c.Key == model.ColumnID {
			free -= idWidth
		} else {
			flexible++
		}
	}

	share := minWidth
	if flexible > 0 && free/flexible > minWidth {
		share = free / flexible
	}

	for i, c := range cols {
		if c.Key == model.ColumnID {
			widths[i] = idWidth
		} else {
			widths[i] = share
		}
	}
	return widths
}
