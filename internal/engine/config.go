package engine

import (
	"errors"
	"fmt"
	"time"
)

// GridPositions is the number of cells in the 3x3 stimulus grid.
const GridPositions = 9

// DefaultAlphabet is the pool of spoken letters used when the config
// does not override it.
const DefaultAlphabet = "ABCHKLQR"

// ErrInvalidConfig is returned by New when the session configuration
// cannot produce a meaningful session.
var ErrInvalidConfig = errors.New("invalid session config")

// Modality identifies one of the two independent stimulus channels.
type Modality int

const (
	ModalityPosition Modality = iota
	ModalityAudio

	modalityCount
)

func (m Modality) String() string {
	switch m {
	case ModalityPosition:
		return "position"
	case ModalityAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// ParseModality maps the wire names used by the API back to a Modality.
func ParseModality(s string) (Modality, error) {
	switch s {
	case "position":
		return ModalityPosition, nil
	case "audio":
		return ModalityAudio, nil
	default:
		return 0, fmt.Errorf("unknown modality %q", s)
	}
}

// ScoringMode selects how a finished session is scored.
type ScoringMode string

const (
	// ScoringStandard scores hits minus false alarms, normalized by
	// match opportunities.
	ScoringStandard ScoringMode = "standard"
	// ScoringClinical uses the same arithmetic but requires a fixed
	// seed so repeated runs reproduce the exact trial sequence, and
	// reports response-latency statistics.
	ScoringClinical ScoringMode = "clinical"
)

// SessionConfig holds every parameter of a single training session.
// It is read-only after the session starts.
type SessionConfig struct {
	NLevel     int    `json:"n_level"`
	TrialCount int    `json:"trial_count"`
	Alphabet   string `json:"alphabet"`

	// Match probabilities are independent per modality.
	PositionMatchProbability float64 `json:"position_match_probability"`
	AudioMatchProbability    float64 `json:"audio_match_probability"`

	// InterferenceProbability is the chance that a non-match trial is
	// replaced by an N-1 or N+1 lure instead of a plain random draw.
	InterferenceProbability float64 `json:"interference_probability"`

	ResponseWindow time.Duration `json:"response_window"`

	ScoringMode ScoringMode `json:"scoring_mode"`

	// Seed fixes the random source. Required in clinical mode; when nil
	// the generator draws from fresh entropy.
	Seed *int64 `json:"seed,omitempty"`
}

// Validate checks the configuration against the constraints that make a
// session possible. All failures wrap ErrInvalidConfig.
func (c SessionConfig) Validate() error {
	if c.NLevel < 1 {
		return fmt.Errorf("%w: n_level must be >= 1, got %d", ErrInvalidConfig, c.NLevel)
	}
	if c.TrialCount < c.NLevel+1 {
		return fmt.Errorf("%w: trial_count %d < n_level+1 (%d)", ErrInvalidConfig, c.TrialCount, c.NLevel+1)
	}
	// Distinct runes, not bytes: the redraw pool excludes the n-back
	// letter, so fewer than two distinct letters leaves it empty.
	if len(uniqueRunes(c.Alphabet)) < 2 {
		return fmt.Errorf("%w: alphabet needs at least 2 distinct letters, got %q", ErrInvalidConfig, c.Alphabet)
	}
	if c.PositionMatchProbability < 0 || c.PositionMatchProbability > 1 {
		return fmt.Errorf("%w: position match probability %v out of [0,1]", ErrInvalidConfig, c.PositionMatchProbability)
	}
	if c.AudioMatchProbability < 0 || c.AudioMatchProbability > 1 {
		return fmt.Errorf("%w: audio match probability %v out of [0,1]", ErrInvalidConfig, c.AudioMatchProbability)
	}
	if c.InterferenceProbability < 0 || c.InterferenceProbability > 1 {
		return fmt.Errorf("%w: interference probability %v out of [0,1]", ErrInvalidConfig, c.InterferenceProbability)
	}
	if c.ResponseWindow <= 0 {
		return fmt.Errorf("%w: response window must be positive, got %v", ErrInvalidConfig, c.ResponseWindow)
	}
	switch c.ScoringMode {
	case ScoringStandard:
	case ScoringClinical:
		if c.Seed == nil {
			return fmt.Errorf("%w: clinical mode requires a fixed seed", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown scoring mode %q", ErrInvalidConfig, c.ScoringMode)
	}
	return nil
}
