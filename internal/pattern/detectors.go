package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// detectLateNight counts transactions whose hour falls inside the nocturnal
// window. The window wraps midnight when StartHour > EndHour.
func detectLateNight(txns []*domain.Transaction, cfg LateNightConfig) *domain.DetectedPattern {
	if cfg.MinTransactions <= 0 {
		return nil
	}

	count := 0
	for _, tx := range txns {
		if inNocturnalWindow(tx.Timestamp.UTC().Hour(), cfg.StartHour, cfg.EndHour) {
			count++
		}
	}

	if count < cfg.MinTransactions {
		return nil
	}

	return &domain.DetectedPattern{
		Type:            domain.PatternLateNight,
		ConfidenceScore: float64(count) / float64(cfg.MinTransactions),
		Characteristics: map[string]any{
			"start_hour":       float64(cfg.StartHour),
			"end_hour":         float64(cfg.EndHour),
			"min_transactions": float64(cfg.MinTransactions),
			"late_night_count": float64(count),
		},
		RedFlags: []string{
			fmt.Sprintf("%d transactions during late-night hours", count),
		},
	}
}

func inNocturnalWindow(hour, start, end int) bool {
	if start > end {
		// Wrap-around window, e.g. 23:00-04:00
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// detectVelocitySpike slides a time-bounded window over the sorted timestamps
// with two pointers and counts positions where the window holds at least
// Threshold transactions.
func detectVelocitySpike(txns []*domain.Transaction, cfg VelocityConfig) *domain.DetectedPattern {
	if cfg.Threshold <= 0 {
		return nil
	}

	times := make([]time.Time, len(txns))
	for i, tx := range txns {
		times[i] = tx.Timestamp
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	window := time.Duration(cfg.WindowSeconds) * time.Second
	spikes := 0
	start := 0
	for end := range times {
		for times[end].Sub(times[start]) > window {
			start++
		}
		if end-start+1 >= cfg.Threshold {
			spikes++
		}
	}

	if spikes == 0 {
		return nil
	}

	return &domain.DetectedPattern{
		Type:            domain.PatternVelocitySpike,
		ConfidenceScore: float64(spikes) / float64(cfg.Threshold),
		Characteristics: map[string]any{
			"window_seconds": float64(cfg.WindowSeconds),
			"threshold":      float64(cfg.Threshold),
			"spike_count":    float64(spikes),
		},
		RedFlags: []string{
			fmt.Sprintf("%d velocity spikes detected within %ds windows", spikes, cfg.WindowSeconds),
		},
	}
}

// detectSplitTransactions greedily clusters the sorted batch by time gap. A
// transaction joins the current cluster when it falls within GapMinutes of the
// cluster's last transaction; clusters below MinClusterSize are discarded. A
// kept cluster is suspicious when its total reaches AmountThreshold.
func detectSplitTransactions(txns []*domain.Transaction, cfg SplitConfig) *domain.DetectedPattern {
	if cfg.MinClusterSize <= 0 {
		return nil
	}

	sorted := make([]*domain.Transaction, len(txns))
	copy(sorted, txns)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	type cluster struct {
		size  int
		total float64
	}

	gap := time.Duration(cfg.GapMinutes) * time.Minute
	var clusters []cluster
	var cur cluster
	var last time.Time

	flush := func() {
		if cur.size >= cfg.MinClusterSize {
			clusters = append(clusters, cur)
		}
		cur = cluster{}
	}

	for _, tx := range sorted {
		if cur.size > 0 && tx.Timestamp.Sub(last) > gap {
			flush()
		}
		cur.size++
		cur.total += tx.Amount
		last = tx.Timestamp
	}
	flush()

	if len(clusters) == 0 {
		return nil
	}

	suspicious := 0
	totalSize := 0
	for _, c := range clusters {
		totalSize += c.size
		if c.total >= cfg.AmountThreshold {
			suspicious++
		}
	}

	if suspicious == 0 {
		return nil
	}

	meanSize := float64(totalSize) / float64(len(clusters))

	return &domain.DetectedPattern{
		Type:            domain.PatternSplitTransactions,
		ConfidenceScore: float64(suspicious) / float64(len(clusters)),
		Characteristics: map[string]any{
			"gap_minutes":         float64(cfg.GapMinutes),
			"min_cluster_size":    float64(cfg.MinClusterSize),
			"amount_threshold":    cfg.AmountThreshold,
			"cluster_count":       float64(len(clusters)),
			"suspicious_clusters": float64(suspicious),
			"mean_cluster_size":   meanSize,
		},
		RedFlags: []string{
			fmt.Sprintf("%d of %d transaction clusters total at least %.2f", suspicious, len(clusters), cfg.AmountThreshold),
			fmt.Sprintf("mean cluster size %.1f transactions", meanSize),
		},
	}
}

// detectRoundAmount counts transactions whose amount is an exact multiple of
// RoundFactor.
func detectRoundAmount(txns []*domain.Transaction, cfg RoundAmountConfig) *domain.DetectedPattern {
	if cfg.MinCount <= 0 || cfg.RoundFactor <= 0 {
		return nil
	}

	count := 0
	for _, tx := range txns {
		if math.Mod(tx.Amount, cfg.RoundFactor) == 0 {
			count++
		}
	}

	if count < cfg.MinCount {
		return nil
	}

	return &domain.DetectedPattern{
		Type:            domain.PatternRoundAmount,
		ConfidenceScore: float64(count) / float64(cfg.MinCount),
		Characteristics: map[string]any{
			"round_factor": cfg.RoundFactor,
			"min_count":    float64(cfg.MinCount),
			"round_count":  float64(count),
		},
		RedFlags: []string{
			fmt.Sprintf("%d transactions with amounts divisible by %g", count, cfg.RoundFactor),
		},
	}
}

// detectCustomerConcentration counts transactions per customer and flags any
// customer at or above CustomerThreshold. Flags are emitted in customer-ID
// order so repeated runs produce identical evidence.
func detectCustomerConcentration(txns []*domain.Transaction, cfg ConcentrationConfig) *domain.DetectedPattern {
	if cfg.CustomerThreshold <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, tx := range txns {
		counts[tx.CustomerID]++
	}

	var concentrated []string
	for customer, count := range counts {
		if count >= cfg.CustomerThreshold {
			concentrated = append(concentrated, customer)
		}
	}

	if len(concentrated) == 0 {
		return nil
	}
	sort.Strings(concentrated)

	flags := make([]string, 0, len(concentrated))
	for _, customer := range concentrated {
		flags = append(flags, fmt.Sprintf("Customer %s has %d transactions", customer, counts[customer]))
	}

	return &domain.DetectedPattern{
		Type:            domain.PatternCustomerConcentration,
		ConfidenceScore: float64(len(concentrated)) / float64(cfg.CustomerThreshold),
		Characteristics: map[string]any{
			"customer_threshold":     float64(cfg.CustomerThreshold),
			"concentrated_customers": float64(len(concentrated)),
		},
		RedFlags: flags,
	}
}
