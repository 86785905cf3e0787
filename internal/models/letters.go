// letters.go
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LetterSound maps one spoken letter to its pre-recorded audio asset.
// Playback itself is the audio collaborator's concern; the engine only
// ever hands out letters.
type LetterSound struct {
	Letter string `yaml:"letter"`
	Asset  string `yaml:"asset"`
}

// LetterManifest holds the full letter-to-asset mapping.
type LetterManifest struct {
	Letters []LetterSound `yaml:"letters"`
}

// LoadLetterManifest reads and parses the letters.yaml file.
func LoadLetterManifest(path string) (*LetterManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read letter manifest: %w", err)
	}

	var manifest LetterManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal letter manifest YAML: %w", err)
	}

	return &manifest, nil
}

// AssetFor returns the audio asset path for a letter.
func (m *LetterManifest) AssetFor(letter string) (string, bool) {
	for _, ls := range m.Letters {
		if ls.Letter == letter {
			return ls.Asset, true
		}
	}
	return "", false
}

// Covers verifies every letter of the alphabet has an asset, so a
// session can never present a letter the audio collaborator cannot play.
func (m *LetterManifest) Covers(alphabet string) error {
	for _, r := range alphabet {
		if _, ok := m.AssetFor(string(r)); !ok {
			return fmt.Errorf("letter manifest missing asset for %q", string(r))
		}
	}
	return nil
}
