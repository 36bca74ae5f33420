package store

import (
	"sort"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// Map iteration is random, so ties on time are broken by id to keep results
// stable across calls.
func sortAlertsByTimeAndID(alerts []models.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].OccurredAt.Equal(alerts[j].OccurredAt) {
			return alerts[i].OccurredAt.After(alerts[j].OccurredAt)
		}
		return alerts[i].ID < alerts[j].ID
	})
}

func sortQuakesByTimeAndID(quakes []models.Earthquake) {
	sort.Slice(quakes, func(i, j int) bool {
		if !quakes[i].Time.Equal(quakes[j].Time) {
			return quakes[i].Time.After(quakes[j].Time)
		}
		return quakes[i].ID < quakes[j].ID
	})
}
