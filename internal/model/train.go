package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/triage-trend/internal/features"
)

// ErrNotEnoughData is returned when the table cannot be split into non-empty
// train and test sets.
var ErrNotEnoughData = errors.New("not enough rows to train")

// TrainConfig controls the split and the regressor.
type TrainConfig struct {
	TestFraction float64
	Seed         int64
	Boosting     BoostingConfig
}

// DefaultTrainConfig is the production training setup: 70/30 split, seed 42.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		TestFraction: 0.3,
		Seed:         42,
		Boosting:     DefaultBoostingConfig(),
	}
}

// Split shuffles 0..n-1 with seed and returns the train and test indices. The
// test set holds ceil(n*testFraction) rows.
func Split(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction %v outside (0, 1)", testFraction)
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d rows", ErrNotEnoughData, n)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Train fits a pipeline on table, whose columns must follow reg exactly.
// Scaling statistics come from the training split only.
func Train(reg *features.Registry, table *features.Table, cfg TrainConfig) (*Pipeline, error) {
	names := reg.Names()
	if err := features.CheckSchema(names, features.Vector{Names: table.Columns}); err != nil {
		return nil, fmt.Errorf("training table: %w", err)
	}
	trainIdx, testIdx, err := Split(table.Len(), cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}

	rawTrain := pick(table.Rows, trainIdx)
	pre, err := FitPreprocessor(reg.Features(), rawTrain)
	if err != nil {
		return nil, err
	}

	X := make([][]float64, len(rawTrain))
	for i, row := range rawTrain {
		X[i] = pre.Transform(row)
	}
	y := pickTargets(table.Target, trainIdx)

	gb := NewGradientBoosting(cfg.Boosting)
	if err := gb.Fit(X, y, rand.New(rand.NewSource(cfg.Seed))); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	p := &Pipeline{
		RunID:        uuid.New().String(),
		TrainedAt:    time.Now().UTC(),
		Seed:         cfg.Seed,
		FeatureNames: names,
		Preprocessor: pre,
		Model:        gb,
	}

	predicted := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		v, err := p.Predict(table.Row(idx))
		if err != nil {
			return nil, err
		}
		predicted[i] = v
	}
	p.Metrics = Evaluate(predicted, pickTargets(table.Target, testIdx))
	p.Metrics.TrainRows = len(trainIdx)
	p.Metrics.TestRows = len(testIdx)
	return p, nil
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func pickTargets(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
