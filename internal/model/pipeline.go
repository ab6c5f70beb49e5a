package model

import (
	"fmt"
	"time"

	"github.com/i474232898/triage-trend/internal/features"
)

// Pipeline is a fitted preprocessing stage plus regressor, bound to the exact
// feature schema it was trained on. It is read-only after training and safe
// for concurrent Predict calls.
type Pipeline struct {
	RunID        string            `json:"run_id"`
	TrainedAt    time.Time         `json:"trained_at"`
	Seed         int64             `json:"seed"`
	FeatureNames []string          `json:"feature_names"`
	Preprocessor *Preprocessor     `json:"preprocessor"`
	Model        *GradientBoosting `json:"model"`
	Metrics      Metrics           `json:"metrics"`
}

// Predict scores one feature vector. The vector must carry exactly the
// trained columns in the trained order; otherwise features.ErrSchemaMismatch
// is returned and nothing is imputed.
func (p *Pipeline) Predict(v features.Vector) (float64, error) {
	if err := features.CheckSchema(p.FeatureNames, v); err != nil {
		return 0, err
	}
	return p.Model.Predict(p.Preprocessor.Transform(v.Values)), nil
}

func (p *Pipeline) validate() error {
	switch {
	case len(p.FeatureNames) == 0:
		return fmt.Errorf("pipeline has no feature names")
	case p.Preprocessor == nil || len(p.Preprocessor.Columns) != len(p.FeatureNames):
		return fmt.Errorf("preprocessor does not match %d features", len(p.FeatureNames))
	case p.Model == nil || len(p.Model.Trees) == 0:
		return fmt.Errorf("pipeline has no fitted model")
	}
	for i, c := range p.Preprocessor.Columns {
		if c.Name != p.FeatureNames[i] {
			return fmt.Errorf("preprocessor column %d is %q, expected %q", i, c.Name, p.FeatureNames[i])
		}
	}
	return nil
}
