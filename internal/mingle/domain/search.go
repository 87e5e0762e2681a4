package domain

import (
	"slices"
	"strings"

	"github.com/aussiebroadwan/mingle/pkg/idx"
)

// SearchQuery narrows an event listing. From is the viewer's effective
// coordinate; when nil the distance filter is skipped.
type SearchQuery struct {
	Text             string
	MaxDistanceMiles float64
	From             *Coordinate
}

// FilterEvents returns the events matching q, ordered by date ascending with
// ties kept in their original order. hostNames maps host id to display name
// for the text match.
func FilterEvents(events []Event, hostNames map[idx.ID]string, q SearchQuery) []Event {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if needle != "" && !strings.Contains(haystack(e, hostNames[e.HostID]), needle) {
			continue
		}
		if !withinDistance(e, q) {
			continue
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b Event) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

func haystack(e Event, hostName string) string {
	return strings.ToLower(strings.Join([]string{e.Title, e.City, e.Address(), hostName}, " "))
}

func withinDistance(e Event, q SearchQuery) bool {
	if q.From == nil {
		return true
	}
	if e.Location == nil {
		return false
	}
	return DistanceMiles(*q.From, *e.Location) <= q.MaxDistanceMiles
}
