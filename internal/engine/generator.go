package engine

import (
	"math/rand"
	"time"
)

// newRand builds the session's random source. A nil seed means fresh
// entropy; a fixed seed reproduces the exact sequence (clinical mode).
func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// uniqueRunes returns the alphabet's distinct letters in first-seen
// order. Duplicates would skew the draw and could empty the redraw
// pool.
func uniqueRunes(s string) []rune {
	seen := make(map[rune]struct{}, len(s))
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// generateSequence builds the full trial list for a validated config.
//
// Trials before index NLevel are uniform draws: no reference exists, so
// no match is possible. From index NLevel on, each modality flips an
// independent coin. A designated match copies the N-back stimulus
// exactly; a non-match redraws from the pool excluding the N-back value
// so that no trial coincidentally equals its reference. The same
// exclusion rule applies to both modalities.
func generateSequence(cfg SessionConfig, rng *rand.Rand) []Trial {
	alphabet := uniqueRunes(cfg.Alphabet)
	trials := make([]Trial, cfg.TrialCount)

	for i := range trials {
		t := Trial{Index: i}

		if i < cfg.NLevel {
			t.Position = rng.Intn(GridPositions)
			t.Letter = string(alphabet[rng.Intn(len(alphabet))])
			trials[i] = t
			continue
		}

		ref := trials[i-cfg.NLevel]

		if rng.Float64() < cfg.PositionMatchProbability {
			t.Position = ref.Position
			t.PositionMatch = true
		} else {
			t.Position = drawPositionExcluding(rng, ref.Position)
			if rng.Float64() < cfg.InterferenceProbability {
				if lure, ok := lurePosition(trials, i, cfg.NLevel, ref.Position, rng); ok {
					t.Position = lure
				}
			}
		}

		if rng.Float64() < cfg.AudioMatchProbability {
			t.Letter = ref.Letter
			t.AudioMatch = true
		} else {
			t.Letter = drawLetterExcluding(rng, alphabet, ref.Letter)
			if rng.Float64() < cfg.InterferenceProbability {
				if lure, ok := lureLetter(trials, i, cfg.NLevel, ref.Letter, rng); ok {
					t.Letter = lure
				}
			}
		}

		trials[i] = t
	}

	return trials
}

// drawPositionExcluding draws a grid position uniformly from the 8
// cells that are not the excluded one.
func drawPositionExcluding(rng *rand.Rand, excluded int) int {
	p := rng.Intn(GridPositions - 1)
	if p >= excluded {
		p++
	}
	return p
}

// drawLetterExcluding draws a letter uniformly from the alphabet minus
// the excluded letter.
func drawLetterExcluding(rng *rand.Rand, alphabet []rune, excluded string) string {
	candidates := make([]rune, 0, len(alphabet)-1)
	for _, r := range alphabet {
		if string(r) != excluded {
			candidates = append(candidates, r)
		}
	}
	return string(candidates[rng.Intn(len(candidates))])
}

// lureOffsets lists the N-1 / N+1 lags that have a defined reference at
// trial i. N-1 lures only exist above level one.
func lureOffsets(i, n int) []int {
	var offsets []int
	if n > 1 {
		offsets = append(offsets, n-1)
	}
	if i >= n+1 {
		offsets = append(offsets, n+1)
	}
	return offsets
}

// lurePosition proposes the position from an adjacent lag as an
// interference stimulus. It declines when the lure would collide with
// the true N-back value, keeping the non-match guarantee intact.
func lurePosition(trials []Trial, i, n, nbackValue int, rng *rand.Rand) (int, bool) {
	offsets := lureOffsets(i, n)
	if len(offsets) == 0 {
		return 0, false
	}
	lure := trials[i-offsets[rng.Intn(len(offsets))]].Position
	if lure == nbackValue {
		return 0, false
	}
	return lure, true
}

func lureLetter(trials []Trial, i, n int, nbackValue string, rng *rand.Rand) (string, bool) {
	offsets := lureOffsets(i, n)
	if len(offsets) == 0 {
		return "", false
	}
	lure := trials[i-offsets[rng.Intn(len(offsets))]].Letter
	if lure == nbackValue {
		return "", false
	}
	return lure, true
}
