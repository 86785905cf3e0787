package engine

import "math"

// ModalityResult aggregates one modality's classifications. Raw counts
// are always exposed so downstream consumers can recompute alternative
// formulas without re-running the session.
type ModalityResult struct {
	Hits              int     `json:"hits"`
	Misses            int     `json:"misses"`
	FalseAlarms       int     `json:"false_alarms"`
	CorrectRejections int     `json:"correct_rejections"`
	Score             float64 `json:"score"`

	// Latency statistics over hits, reported in clinical mode only.
	MeanLatencyMs float64 `json:"mean_latency_ms,omitempty"`
	LatencySDMs   float64 `json:"latency_sd_ms,omitempty"`
}

// SessionResult is the immutable end-of-session aggregate handed to the
// persistence collaborator.
type SessionResult struct {
	Mode          ScoringMode    `json:"scoring_mode"`
	NLevel        int            `json:"n_level"`
	TrialsPlanned int            `json:"trials_planned"`
	TrialsScored  int            `json:"trials_scored"`
	Aborted       bool           `json:"aborted"`
	Position      ModalityResult `json:"position"`
	Audio         ModalityResult `json:"audio"`
}

// ScoreSession aggregates a finished classification history. It is pure
// and idempotent: the same history always yields the same result, and
// an empty history (session aborted before any trial closed) scores
// zero rather than failing.
//
// The scalar is max(0, hits - false alarms) divided by the number of
// match opportunities, i.e. scored trials with index >= NLevel.
func ScoreSession(cfg SessionConfig, outcomes []TrialOutcome, aborted bool) SessionResult {
	result := SessionResult{
		Mode:          cfg.ScoringMode,
		NLevel:        cfg.NLevel,
		TrialsPlanned: cfg.TrialCount,
		TrialsScored:  len(outcomes),
		Aborted:       aborted,
	}

	opportunities := 0
	for _, o := range outcomes {
		if o.Index >= cfg.NLevel {
			opportunities++
		}
	}

	result.Position = scoreModality(outcomes, ModalityPosition, opportunities, cfg.ScoringMode)
	result.Audio = scoreModality(outcomes, ModalityAudio, opportunities, cfg.ScoringMode)
	return result
}

func scoreModality(outcomes []TrialOutcome, m Modality, opportunities int, mode ScoringMode) ModalityResult {
	var r ModalityResult
	var latencies []float64

	for _, o := range outcomes {
		var c Classification
		var latency *float64
		if m == ModalityPosition {
			c, latency = o.Position, o.PositionLatencyMs
		} else {
			c, latency = o.Audio, o.AudioLatencyMs
		}

		switch c {
		case Hit:
			r.Hits++
			if latency != nil {
				latencies = append(latencies, *latency)
			}
		case Miss:
			r.Misses++
		case FalseAlarm:
			r.FalseAlarms++
		case CorrectRejection:
			r.CorrectRejections++
		}
	}

	if opportunities > 0 {
		net := r.Hits - r.FalseAlarms
		if net < 0 {
			net = 0
		}
		r.Score = float64(net) / float64(opportunities)
	}

	if mode == ScoringClinical {
		r.MeanLatencyMs, r.LatencySDMs = latencyStats(latencies)
	}
	return r
}

// latencyStats returns the mean and population standard deviation of
// the recorded hit latencies; both zero when fewer than one or two
// samples exist.
func latencyStats(latencies []float64) (mean, sd float64) {
	if len(latencies) == 0 {
		return 0, 0
	}
	var sum float64
	for _, l := range latencies {
		sum += l
	}
	mean = sum / float64(len(latencies))

	if len(latencies) <= 1 {
		return mean, 0
	}
	var sumSquaredDiff float64
	for _, l := range latencies {
		diff := l - mean
		sumSquaredDiff += diff * diff
	}
	return mean, math.Sqrt(sumSquaredDiff / float64(len(latencies)))
}
