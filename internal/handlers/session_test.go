package handlers

import (
	"testing"
	"time"

	"github.com/CkBcDD/NexBack/internal/config"
	"github.com/CkBcDD/NexBack/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setGameDefaults(t *testing.T) {
	t.Helper()
	config.Conf = &config.Config{
		Game: config.GameConfig{
			NLevel:                   2,
			TrialCount:               20,
			Alphabet:                 engine.DefaultAlphabet,
			PositionMatchProbability: 0.3,
			AudioMatchProbability:    0.3,
			InterferenceProbability:  0.1,
			ResponseWindowMS:         3000,
		},
	}
}

// TestBuildConfigDefaults verifies an empty request yields the
// configured game defaults.
func TestBuildConfigDefaults(t *testing.T) {
	setGameDefaults(t)

	cfg := buildConfig(startRequest{})
	assert.Equal(t, 2, cfg.NLevel)
	assert.Equal(t, 20, cfg.TrialCount)
	assert.Equal(t, engine.DefaultAlphabet, cfg.Alphabet)
	assert.Equal(t, 0.3, cfg.PositionMatchProbability)
	assert.Equal(t, 0.1, cfg.InterferenceProbability)
	assert.Equal(t, 3*time.Second, cfg.ResponseWindow)
	assert.Equal(t, engine.ScoringStandard, cfg.ScoringMode)
	assert.Nil(t, cfg.Seed)
	require.NoError(t, cfg.Validate())
}

// TestBuildConfigExplicitZeroOverrides verifies a client can request a
// 0.0 probability: absent and zero are distinct.
func TestBuildConfigExplicitZeroOverrides(t *testing.T) {
	setGameDefaults(t)

	zero := 0.0
	cfg := buildConfig(startRequest{
		PositionMatchProbability: &zero,
		AudioMatchProbability:    &zero,
		InterferenceProbability:  &zero,
	})
	assert.Zero(t, cfg.PositionMatchProbability)
	assert.Zero(t, cfg.AudioMatchProbability)
	assert.Zero(t, cfg.InterferenceProbability)
	require.NoError(t, cfg.Validate())
}

// TestBuildConfigOverrides verifies every overridable field lands in
// the session config.
func TestBuildConfigOverrides(t *testing.T) {
	setGameDefaults(t)

	n, trials, window := 3, 40, 2500
	alphabet := "ABCD"
	prob := 0.5
	mode := string(engine.ScoringClinical)
	seed := int64(77)

	cfg := buildConfig(startRequest{
		NLevel:                   &n,
		TrialCount:               &trials,
		Alphabet:                 &alphabet,
		PositionMatchProbability: &prob,
		ResponseWindowMS:         &window,
		ScoringMode:              &mode,
		Seed:                     &seed,
	})

	assert.Equal(t, 3, cfg.NLevel)
	assert.Equal(t, 40, cfg.TrialCount)
	assert.Equal(t, "ABCD", cfg.Alphabet)
	assert.Equal(t, 0.5, cfg.PositionMatchProbability)
	assert.Equal(t, 0.3, cfg.AudioMatchProbability, "untouched fields keep their defaults")
	assert.Equal(t, 2500*time.Millisecond, cfg.ResponseWindow)
	assert.Equal(t, engine.ScoringClinical, cfg.ScoringMode)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, seed, *cfg.Seed)
	require.NoError(t, cfg.Validate())
}
