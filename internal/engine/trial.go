package engine

// Trial is one entry in the generated stimulus sequence. Trials are
// immutable once generated; PositionMatch and AudioMatch are the ground
// truth against the trial N steps earlier.
type Trial struct {
	Index         int    `json:"index"`
	Position      int    `json:"position"` // 0-8 on the 3x3 grid
	Letter        string `json:"letter"`
	PositionMatch bool   `json:"position_match"`
	AudioMatch    bool   `json:"audio_match"`
}

// Classification is the outcome of one (trial, modality) pair.
type Classification string

const (
	Hit              Classification = "hit"
	Miss             Classification = "miss"
	FalseAlarm       Classification = "false_alarm"
	CorrectRejection Classification = "correct_rejection"
)

// Classify maps ground truth and the user's response to a
// Classification. The table is exhaustive and exclusive.
func Classify(truth, response bool) Classification {
	switch {
	case truth && response:
		return Hit
	case truth && !response:
		return Miss
	case !truth && response:
		return FalseAlarm
	default:
		return CorrectRejection
	}
}

// TrialOutcome carries both modalities' classifications for one scored
// trial, plus response latencies for whichever modalities were pressed.
type TrialOutcome struct {
	Index             int            `json:"index"`
	Position          Classification `json:"position"`
	Audio             Classification `json:"audio"`
	PositionLatencyMs *float64       `json:"position_latency_ms,omitempty"`
	AudioLatencyMs    *float64       `json:"audio_latency_ms,omitempty"`
}
