package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics are the held-out evaluation scores of a trained pipeline.
type Metrics struct {
	MSE       float64 `json:"mse"`
	MAE       float64 `json:"mae"`
	R2        float64 `json:"r2"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
}

// Evaluate scores predictions against observed values.
func Evaluate(predicted, observed []float64) Metrics {
	n := float64(len(observed))
	if n == 0 {
		return Metrics{}
	}
	l2 := floats.Distance(predicted, observed, 2)
	return Metrics{
		MSE: l2 * l2 / n,
		MAE: floats.Distance(predicted, observed, 1) / n,
		R2:  finite(stat.RSquaredFrom(predicted, observed, nil)),
	}
}

// finite maps NaN and ±Inf to 0 so metrics stay JSON-encodable. R² is
// undefined when the observed values are constant.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
