package pattern

// Config holds the typed thresholds for every detector. One Config is loaded
// per analysis run and treated as read-only.
type Config struct {
	LateNight     LateNightConfig     `json:"lateNight"`
	Velocity      VelocityConfig      `json:"velocity"`
	Split         SplitConfig         `json:"split"`
	RoundAmount   RoundAmountConfig   `json:"roundAmount"`
	Concentration ConcentrationConfig `json:"concentration"`
}

// LateNightConfig bounds the nocturnal trading window. The window wraps
// midnight when StartHour > EndHour (e.g. 23-4).
type LateNightConfig struct {
	StartHour       int `json:"startHour"`
	EndHour         int `json:"endHour"`
	MinTransactions int `json:"minTransactions"`
}

// VelocityConfig parameterizes sliding-window spike detection.
type VelocityConfig struct {
	WindowSeconds int `json:"windowSeconds"`
	Threshold     int `json:"threshold"`
}

// SplitConfig parameterizes time-gap clustering of potential split payments.
type SplitConfig struct {
	GapMinutes      int     `json:"gapMinutes"`
	MinClusterSize  int     `json:"minClusterSize"`
	AmountThreshold float64 `json:"amountThreshold"`
}

// RoundAmountConfig parameterizes round-amount counting.
type RoundAmountConfig struct {
	RoundFactor float64 `json:"roundFactor"`
	MinCount    int     `json:"minCount"`
}

// ConcentrationConfig parameterizes per-customer concentration counting.
type ConcentrationConfig struct {
	CustomerThreshold int `json:"customerThreshold"`
}

// DefaultConfig returns the standard detection thresholds.
func DefaultConfig() Config {
	return Config{
		LateNight: LateNightConfig{
			StartHour:       23,
			EndHour:         4,
			MinTransactions: 50,
		},
		Velocity: VelocityConfig{
			WindowSeconds: 3600,
			Threshold:     100,
		},
		Split: SplitConfig{
			GapMinutes:      30,
			MinClusterSize:  3,
			AmountThreshold: 10000,
		},
		RoundAmount: RoundAmountConfig{
			RoundFactor: 10,
			MinCount:    5,
		},
		Concentration: ConcentrationConfig{
			CustomerThreshold: 50,
		},
	}
}
