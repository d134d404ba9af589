package artifacts

import (
	"fmt"

	"github.com/pricelens/backend/internal/domain"
)

// leafMarker is the child index used for leaves in exported trees
const leafMarker = -1

// Tree is a single regression tree exported as parallel node arrays.
// Node i is a leaf when ChildrenLeft[i] == -1; otherwise samples with
// x[Feature[i]] <= Threshold[i] go left.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// Forest is an averaged ensemble of regression trees
type Forest struct {
	Trees    []Tree `json:"trees"`
	features int
}

// NewForest validates the ensemble shape against the feature count.
func NewForest(trees []Tree, features int) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	for i, t := range trees {
		if err := t.validate(features); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{Trees: trees, features: features}, nil
}

func (t Tree) validate(features int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays have mismatched lengths")
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == leafMarker {
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has out-of-range children (%d, %d)", i, left, right)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= features {
			return fmt.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
	}
	return nil
}

// predict walks one tree. Children always have a larger index than their parent,
// which validate enforces, so the walk terminates.
func (t Tree) predict(x domain.FeatureVector) float64 {
	node := 0
	for t.ChildrenLeft[node] != leafMarker {
		if float64(x[t.Feature[node]]) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Estimate returns the mean tree prediction, floored at zero.
func (f *Forest) Estimate(vector domain.FeatureVector) (float64, error) {
	if len(vector) != f.features {
		return 0, fmt.Errorf("%w: got %d codes, want %d", domain.ErrInvalidFeatureVector, len(vector), f.features)
	}
	for i, code := range vector {
		if code < 0 {
			return 0, fmt.Errorf("%w: negative code at position %d", domain.ErrInvalidFeatureVector, i)
		}
	}

	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(vector)
	}
	price := sum / float64(len(f.Trees))
	if price < 0 {
		price = 0
	}
	return price, nil
}
