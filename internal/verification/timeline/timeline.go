// Package timeline flattens relationship-status changes from profile
// evidence into one chronologically ordered sequence.
package timeline

import (
	"cmp"
	"slices"
	"time"

	"pastmatters/internal/verification/models"
)

const dateLayout = "2006-01-02"

// Merge emits one event per status change across profiles, newest first.
// Events with a missing or unparseable date sort after every dated event
// and keep their input order among themselves.
func Merge(profiles []models.ProfileRecord) []models.TimelineEvent {
	events := make([]models.TimelineEvent, 0)
	for _, p := range profiles {
		for _, change := range p.StatusHistory {
			events = append(events, models.TimelineEvent{
				Date:           change.Date,
				PreviousStatus: change.PreviousStatus,
				NewStatus:      change.NewStatus,
				Platform:       p.Platform,
			})
		}
	}

	slices.SortStableFunc(events, func(a, b models.TimelineEvent) int {
		return cmp.Compare(sortKey(b.Date), sortKey(a.Date))
	})
	return events
}

// sortKey is the date itself when it is a valid ISO date, otherwise empty.
func sortKey(date string) string {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ""
	}
	return date
}
