package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassifyTableIsExhaustive verifies the four-way classification
// table: every (truth, response) pair maps to exactly one kind.
func TestClassifyTableIsExhaustive(t *testing.T) {
	assert.Equal(t, Hit, Classify(true, true))
	assert.Equal(t, Miss, Classify(true, false))
	assert.Equal(t, FalseAlarm, Classify(false, true))
	assert.Equal(t, CorrectRejection, Classify(false, false))
}

func ms(v float64) *float64 { return &v }

// TestScoreSessionCounts verifies raw tallies and the standard scalar:
// max(0, hits - false alarms) over match opportunities.
func TestScoreSessionCounts(t *testing.T) {
	cfg := testConfig(1)
	cfg.NLevel = 2
	cfg.TrialCount = 6

	outcomes := []TrialOutcome{
		{Index: 0, Position: CorrectRejection, Audio: CorrectRejection},
		{Index: 1, Position: FalseAlarm, Audio: CorrectRejection, PositionLatencyMs: ms(300)},
		{Index: 2, Position: Hit, Audio: Miss, PositionLatencyMs: ms(410)},
		{Index: 3, Position: Hit, Audio: CorrectRejection, PositionLatencyMs: ms(390)},
		{Index: 4, Position: CorrectRejection, Audio: Hit, AudioLatencyMs: ms(520)},
		{Index: 5, Position: FalseAlarm, Audio: Miss, PositionLatencyMs: ms(210)},
	}

	r := ScoreSession(cfg, outcomes, false)

	assert.Equal(t, 2, r.Position.Hits)
	assert.Equal(t, 0, r.Position.Misses)
	assert.Equal(t, 2, r.Position.FalseAlarms)
	assert.Equal(t, 2, r.Position.CorrectRejections)

	assert.Equal(t, 1, r.Audio.Hits)
	assert.Equal(t, 2, r.Audio.Misses)
	assert.Equal(t, 0, r.Audio.FalseAlarms)
	assert.Equal(t, 3, r.Audio.CorrectRejections)

	// Opportunities: indices 2..5 => 4.
	assert.InDelta(t, 0.0, r.Position.Score, 1e-9) // 2 hits - 2 FA
	assert.InDelta(t, 0.25, r.Audio.Score, 1e-9)   // 1 hit - 0 FA

	// Standard mode carries no latency statistics.
	assert.Zero(t, r.Position.MeanLatencyMs)
	assert.Zero(t, r.Position.LatencySDMs)
}

// TestScoreSessionClampsNegativeNet verifies more false alarms than
// hits score zero rather than negative.
func TestScoreSessionClampsNegativeNet(t *testing.T) {
	cfg := testConfig(1)
	cfg.NLevel = 1
	cfg.TrialCount = 4

	outcomes := []TrialOutcome{
		{Index: 0, Position: CorrectRejection, Audio: CorrectRejection},
		{Index: 1, Position: FalseAlarm, Audio: CorrectRejection},
		{Index: 2, Position: FalseAlarm, Audio: CorrectRejection},
		{Index: 3, Position: Hit, Audio: CorrectRejection},
	}

	r := ScoreSession(cfg, outcomes, false)
	assert.Zero(t, r.Position.Score)
}

// TestScoreSessionEmptyHistory verifies an aborted-before-anything
// session yields a defined zero result, not a failure.
func TestScoreSessionEmptyHistory(t *testing.T) {
	cfg := testConfig(1)
	r := ScoreSession(cfg, nil, true)

	assert.True(t, r.Aborted)
	assert.Zero(t, r.TrialsScored)
	assert.Zero(t, r.Position.Score)
	assert.Zero(t, r.Audio.Score)
}

// TestScoreSessionIsIdempotent verifies repeated scoring of the same
// finished history returns identical results.
func TestScoreSessionIsIdempotent(t *testing.T) {
	cfg := testConfig(8)
	cfg.TrialCount = 10

	rec := &recorder{}
	e, _ := startEngine(t, cfg, rec)
	trials := e.Trials()
	for i := 0; i < cfg.TrialCount; i++ {
		if trials[i].AudioMatch {
			e.SubmitResponse(ModalityAudio)
		}
		e.CloseWindow()
	}

	outcomes := e.Outcomes()
	first := ScoreSession(cfg, outcomes, false)
	second := ScoreSession(cfg, outcomes, false)
	require.Equal(t, first, second)

	// And matches what the engine emitted.
	result, ok := e.Result()
	require.True(t, ok)
	assert.Equal(t, first, result)
}

// TestClinicalLatencyStats verifies clinical results report mean/SD
// response latency over hits.
func TestClinicalLatencyStats(t *testing.T) {
	seed := int64(3)
	cfg := SessionConfig{
		NLevel:                   1,
		TrialCount:               4,
		Alphabet:                 DefaultAlphabet,
		PositionMatchProbability: 0.3,
		AudioMatchProbability:    0.3,
		ResponseWindow:           3 * time.Second,
		ScoringMode:              ScoringClinical,
		Seed:                     &seed,
	}

	outcomes := []TrialOutcome{
		{Index: 0, Position: CorrectRejection, Audio: CorrectRejection},
		{Index: 1, Position: Hit, Audio: CorrectRejection, PositionLatencyMs: ms(400)},
		{Index: 2, Position: Hit, Audio: CorrectRejection, PositionLatencyMs: ms(600)},
		{Index: 3, Position: Miss, Audio: CorrectRejection},
	}

	r := ScoreSession(cfg, outcomes, false)
	assert.InDelta(t, 500, r.Position.MeanLatencyMs, 1e-9)
	assert.InDelta(t, 100, r.Position.LatencySDMs, 1e-9)
	assert.Zero(t, r.Audio.MeanLatencyMs)
}

// TestParseModality covers the wire-name mapping used by the API.
func TestParseModality(t *testing.T) {
	m, err := ParseModality("position")
	require.NoError(t, err)
	assert.Equal(t, ModalityPosition, m)

	m, err = ParseModality("audio")
	require.NoError(t, err)
	assert.Equal(t, ModalityAudio, m)

	_, err = ParseModality("haptic")
	assert.Error(t, err)
}
