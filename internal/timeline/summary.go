// Package timeline synthesizes auditable event sequences from risk profiles
// and transaction summaries.
package timeline

import (
	"github.com/opensource-finance/harrier/internal/domain"
)

// DailySummaries groups a transaction batch by UTC calendar day.
// Keys use the ISO date form "2006-01-02".
func DailySummaries(txns []*domain.Transaction) map[string]domain.DailySummary {
	summaries := make(map[string]domain.DailySummary)
	for _, tx := range txns {
		key := tx.Timestamp.UTC().Format("2006-01-02")
		s := summaries[key]
		s.Count++
		s.TotalAmount += tx.Amount
		summaries[key] = s
	}
	return summaries
}

// HourlySummaries groups a transaction batch by UTC hour of day (0-23).
func HourlySummaries(txns []*domain.Transaction) map[int]domain.HourlySummary {
	summaries := make(map[int]domain.HourlySummary)
	for _, tx := range txns {
		hour := tx.Timestamp.UTC().Hour()
		s := summaries[hour]
		s.Count++
		s.TotalAmount += tx.Amount
		summaries[hour] = s
	}
	return summaries
}

// PeakHour returns the hour of day with the highest transaction count, and
// false when the summary is empty. Ties resolve to the earliest hour.
func PeakHour(summaries map[int]domain.HourlySummary) (int, bool) {
	if len(summaries) == 0 {
		return 0, false
	}
	peak := -1
	best := -1
	for hour := 0; hour < 24; hour++ {
		if s, ok := summaries[hour]; ok && s.Count > best {
			peak = hour
			best = s.Count
		}
	}
	return peak, true
}
