package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CkBcDD/NexBack/internal/engine"
)

// SessionRecord holds the persisted summary of one finished training
// session: aggregate counts, scalar scores and the exact configuration
// that produced the sequence (so clinical runs can be re-verified).
type SessionRecord struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	SessionID string `gorm:"uniqueIndex;size:36" json:"session_id"`

	ScoringMode   string `json:"scoring_mode"`
	NLevel        int    `json:"n_level"`
	TrialsPlanned int    `json:"trials_planned"`
	TrialsScored  int    `json:"trials_scored"`
	Aborted       bool   `json:"aborted"`

	PositionHits              int     `json:"position_hits"`
	PositionMisses            int     `json:"position_misses"`
	PositionFalseAlarms       int     `json:"position_false_alarms"`
	PositionCorrectRejections int     `json:"position_correct_rejections"`
	PositionScore             float64 `json:"position_score"`
	PositionMeanLatencyMs     float64 `json:"position_mean_latency_ms"`
	PositionLatencySDMs       float64 `json:"position_latency_sd_ms"`

	AudioHits              int     `json:"audio_hits"`
	AudioMisses            int     `json:"audio_misses"`
	AudioFalseAlarms       int     `json:"audio_false_alarms"`
	AudioCorrectRejections int     `json:"audio_correct_rejections"`
	AudioScore             float64 `json:"audio_score"`
	AudioMeanLatencyMs     float64 `json:"audio_mean_latency_ms"`
	AudioLatencySDMs       float64 `json:"audio_latency_sd_ms"`

	ConfigSnapshot json.RawMessage `gorm:"type:jsonb" json:"config_snapshot"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TrialRecord is one presented trial within a persisted session:
// stimulus, ground truth, and how each modality was classified.
type TrialRecord struct {
	ID              uint `gorm:"primaryKey" json:"-"`
	SessionRecordID uint `gorm:"index" json:"-"`

	TrialIndex    int    `json:"trial_index"`
	Position      int    `json:"position"`
	Letter        string `json:"letter"`
	PositionMatch bool   `json:"position_match"`
	AudioMatch    bool   `json:"audio_match"`

	PositionOutcome   string   `json:"position_outcome"`
	AudioOutcome      string   `json:"audio_outcome"`
	PositionLatencyMs *float64 `json:"position_latency_ms,omitempty"`
	AudioLatencyMs    *float64 `json:"audio_latency_ms,omitempty"`
}

// NewSessionRecord flattens an engine result into persistence rows. The
// trial rows cover only the scored prefix: an aborted session's
// in-flight trial was never classified and is not stored.
func NewSessionRecord(sessionID string, cfg engine.SessionConfig, result engine.SessionResult, trials []engine.Trial, outcomes []engine.TrialOutcome) (SessionRecord, []TrialRecord, error) {
	snapshot, err := json.Marshal(cfg)
	if err != nil {
		return SessionRecord{}, nil, fmt.Errorf("failed to snapshot session config: %w", err)
	}

	record := SessionRecord{
		SessionID:     sessionID,
		ScoringMode:   string(result.Mode),
		NLevel:        result.NLevel,
		TrialsPlanned: result.TrialsPlanned,
		TrialsScored:  result.TrialsScored,
		Aborted:       result.Aborted,

		PositionHits:              result.Position.Hits,
		PositionMisses:            result.Position.Misses,
		PositionFalseAlarms:       result.Position.FalseAlarms,
		PositionCorrectRejections: result.Position.CorrectRejections,
		PositionScore:             result.Position.Score,
		PositionMeanLatencyMs:     result.Position.MeanLatencyMs,
		PositionLatencySDMs:       result.Position.LatencySDMs,

		AudioHits:              result.Audio.Hits,
		AudioMisses:            result.Audio.Misses,
		AudioFalseAlarms:       result.Audio.FalseAlarms,
		AudioCorrectRejections: result.Audio.CorrectRejections,
		AudioScore:             result.Audio.Score,
		AudioMeanLatencyMs:     result.Audio.MeanLatencyMs,
		AudioLatencySDMs:       result.Audio.LatencySDMs,

		ConfigSnapshot: snapshot,
	}

	rows := make([]TrialRecord, 0, len(outcomes))
	for _, o := range outcomes {
		t := trials[o.Index]
		rows = append(rows, TrialRecord{
			TrialIndex:        t.Index,
			Position:          t.Position,
			Letter:            t.Letter,
			PositionMatch:     t.PositionMatch,
			AudioMatch:        t.AudioMatch,
			PositionOutcome:   string(o.Position),
			AudioOutcome:      string(o.Audio),
			PositionLatencyMs: o.PositionLatencyMs,
			AudioLatencyMs:    o.AudioLatencyMs,
		})
	}

	return record, rows, nil
}
