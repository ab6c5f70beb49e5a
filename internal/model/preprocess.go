package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/triage-trend/internal/features"
)

// Column is the fitted transform of one input feature.
type Column struct {
	Name string        `json:"name"`
	Kind features.Kind `json:"kind"`
	// Continuous
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Categorical: one indicator column per category, in order.
	Categories []float64 `json:"categories,omitempty"`
}

// Preprocessor standardizes continuous columns, passes flags through and
// one-hot encodes categorical columns.
type Preprocessor struct {
	Columns []Column `json:"columns"`
}

// weekdayCategories are the ordinals of Monday … Sunday.
var weekdayCategories = []float64{0, 1, 2, 3, 4, 5, 6}

// FitPreprocessor learns scaling parameters from rows, which must be the
// training split only.
func FitPreprocessor(schema []features.Feature, rows [][]float64) (*Preprocessor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit preprocessor: no rows")
	}
	p := &Preprocessor{}
	col := make([]float64, len(rows))
	for j, f := range schema {
		c := Column{Name: f.Name, Kind: f.Kind}
		switch f.Kind {
		case features.Continuous:
			for i, r := range rows {
				col[i] = r[j]
			}
			c.Mean, c.Std = stat.PopMeanStdDev(col, nil)
			if c.Std == 0 || math.IsNaN(c.Std) {
				c.Std = 1
			}
		case features.Categorical:
			if f.Name != features.Weekday {
				return nil, fmt.Errorf("fit preprocessor: no categories known for %q", f.Name)
			}
			c.Categories = weekdayCategories
		}
		p.Columns = append(p.Columns, c)
	}
	return p, nil
}

// Width is the number of transformed columns.
func (p *Preprocessor) Width() int {
	n := 0
	for _, c := range p.Columns {
		if c.Kind == features.Categorical {
			n += len(c.Categories)
			continue
		}
		n++
	}
	return n
}

// Transform maps one raw row into model space. Unknown categories encode as
// all-zero indicators.
func (p *Preprocessor) Transform(row []float64) []float64 {
	out := make([]float64, 0, p.Width())
	for j, c := range p.Columns {
		v := row[j]
		switch c.Kind {
		case features.Continuous:
			out = append(out, (v-c.Mean)/c.Std)
		case features.Flag:
			out = append(out, v)
		case features.Categorical:
			for _, cat := range c.Categories {
				if v == cat {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		}
	}
	return out
}
