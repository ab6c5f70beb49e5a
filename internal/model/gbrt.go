package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoostingConfig holds the gradient boosting hyperparameters.
type BoostingConfig struct {
	NEstimators     int     `json:"n_estimators"`
	LearningRate    float64 `json:"learning_rate"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
	Subsample       float64 `json:"subsample"`
}

// DefaultBoostingConfig is the configuration of the production model.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		NEstimators:     150,
		LearningRate:    0.05,
		MaxDepth:        4,
		MinSamplesSplit: 10,
		MinSamplesLeaf:  2,
		Subsample:       0.85,
	}
}

func (c BoostingConfig) validate() error {
	switch {
	case c.NEstimators <= 0:
		return fmt.Errorf("n_estimators must be positive")
	case c.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be positive")
	case c.MaxDepth <= 0:
		return fmt.Errorf("max_depth must be positive")
	case c.MinSamplesLeaf <= 0:
		return fmt.Errorf("min_samples_leaf must be positive")
	case c.Subsample <= 0 || c.Subsample > 1:
		return fmt.Errorf("subsample must be in (0, 1]")
	}
	return nil
}

// Node is one node of a regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a flattened regression tree; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// GradientBoosting is a least-squares gradient-boosted ensemble of regression
// trees with row subsampling.
type GradientBoosting struct {
	Config BoostingConfig `json:"config"`
	Init   float64        `json:"init"`
	Trees  []Tree         `json:"trees"`
}

// NewGradientBoosting creates an unfitted model.
func NewGradientBoosting(cfg BoostingConfig) *GradientBoosting {
	return &GradientBoosting{Config: cfg}
}

// Fit trains the ensemble. rng drives the subsampling and is the only source
// of randomness.
func (g *GradientBoosting) Fit(X [][]float64, y []float64, rng *rand.Rand) error {
	if err := g.Config.validate(); err != nil {
		return err
	}
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("fit: %d rows, %d targets", len(X), len(y))
	}

	n := len(X)
	g.Init = stat.Mean(y, nil)
	g.Trees = g.Trees[:0]

	pred := make([]float64, n)
	floats.AddConst(g.Init, pred)
	resid := make([]float64, n)

	sampleSize := int(math.Round(g.Config.Subsample * float64(n)))
	if sampleSize < 1 {
		sampleSize = 1
	}

	for m := 0; m < g.Config.NEstimators; m++ {
		floats.SubTo(resid, y, pred)

		idx := rng.Perm(n)[:sampleSize]
		b := treeBuilder{X: X, r: resid, cfg: g.Config}
		b.grow(idx, 0)
		tree := Tree{Nodes: b.nodes}

		for i := range X {
			pred[i] += g.Config.LearningRate * tree.predict(X[i])
		}
		g.Trees = append(g.Trees, tree)
	}
	return nil
}

// Predict evaluates the ensemble on one transformed row.
func (g *GradientBoosting) Predict(x []float64) float64 {
	out := g.Init
	for i := range g.Trees {
		out += g.Config.LearningRate * g.Trees[i].predict(x)
	}
	return out
}

type treeBuilder struct {
	X     [][]float64
	r     []float64
	cfg   BoostingConfig
	nodes []Node
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.mean(idx)})

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || len(idx) < 2*b.cfg.MinSamplesLeaf {
		return at
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return at
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[at] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return at
}

func (b *treeBuilder) mean(idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += b.r[i]
	}
	return s / float64(len(idx))
}

// bestSplit maximises the reduction in squared error over all features and
// thresholds, respecting MinSamplesLeaf on both sides.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	total := 0.0
	for _, i := range idx {
		total += b.r[i]
	}
	base := total * total / float64(n)

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0
	sorted := make([]int, n)
	minLeaf := b.cfg.MinSamplesLeaf

	for f := range b.X[idx[0]] {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		left := 0.0
		for k := 0; k < n-1; k++ {
			left += b.r[sorted[k]]
			nl := k + 1
			if nl < minLeaf || n-nl < minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k]][f], b.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			right := total - left
			gain := left*left/float64(nl) + right*right/float64(n-nl) - base
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
