// Package artifacts loads the trained pricing model and its categorical encoders.
//
// Artifacts are produced by the offline training pipeline as a single JSON file:
//
//	{
//	  "version": "2024-05-01",
//	  "features": ["type", "color", "brand", "material", "style", "condition"],
//	  "encoders": {"type": ["dress", "jeans"], ...},
//	  "forest": {"trees": [{"children_left": [...], ...}]}
//	}
//
// The encoder key "state" is accepted as a synonym for "condition".
// Loaded artifacts are read-only and safe for concurrent use.
package artifacts

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/logging"
)

// legacyConditionKey is the training pipeline's original column name for condition
const legacyConditionKey = "state"

// Artifacts bundles the codec and estimator produced by one training run
type Artifacts struct {
	Version string
	Codec   *Codec
	Forest  *Forest
}

type artifactFile struct {
	Version  string              `json:"version"`
	Features []string            `json:"features"`
	Encoders map[string][]string `json:"encoders"`
	Forest   struct {
		Trees []Tree `json:"trees"`
	} `json:"forest"`
}

// Load reads and validates an artifact file
func Load(path string) (*Artifacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifacts: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates artifact JSON
func Parse(data []byte) (*Artifacts, error) {
	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode artifacts: %w", err)
	}

	if len(file.Features) > 0 {
		if err := checkFeatureOrder(file.Features); err != nil {
			return nil, err
		}
	}

	encoders := file.Encoders
	if _, ok := encoders[domain.AttrCondition]; !ok {
		if legacy, ok := encoders[legacyConditionKey]; ok {
			encoders[domain.AttrCondition] = legacy
		}
	}

	codec, err := NewCodec(encoders)
	if err != nil {
		return nil, fmt.Errorf("invalid encoders: %w", err)
	}

	forest, err := NewForest(file.Forest.Trees, len(domain.FeatureOrder))
	if err != nil {
		return nil, fmt.Errorf("invalid forest: %w", err)
	}

	return &Artifacts{Version: file.Version, Codec: codec, Forest: forest}, nil
}

func checkFeatureOrder(features []string) error {
	if len(features) != len(domain.FeatureOrder) {
		return fmt.Errorf("artifacts declare %d features, want %d", len(features), len(domain.FeatureOrder))
	}
	for i, name := range features {
		if name == legacyConditionKey {
			name = domain.AttrCondition
		}
		if name != domain.FeatureOrder[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, features[i], domain.FeatureOrder[i])
		}
	}
	return nil
}

var (
	sharedOnce sync.Once
	shared     *Artifacts
	sharedErr  error
)

// Shared loads the process-wide artifacts on first call and returns the same
// instance afterwards. Later calls ignore path.
func Shared(path string) (*Artifacts, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = Load(path)
		if sharedErr == nil {
			logging.Info().
				Str("path", path).
				Str("version", shared.Version).
				Int("trees", len(shared.Forest.Trees)).
				Msg("Model artifacts loaded")
		}
	})
	return shared, sharedErr
}
