package features

import (
	"fmt"
	"sort"
	"strings"

	"github.com/i474232898/triage-trend/internal/common"
)

// Vector is an ordered set of named feature values, the exact model input.
type Vector struct {
	Names  []string
	Values []float64
}

// Len returns the number of entries.
func (v Vector) Len() int {
	return len(v.Names)
}

// Get returns the value of name.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as an unordered map.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		out[n] = v.Values[i]
	}
	return out
}

// Vector flattens rec into the registry's ordered schema.
func (r *Registry) Vector(rec DailyRecord) Vector {
	v := Vector{
		Names:  make([]string, 0, len(r.features)),
		Values: make([]float64, 0, len(r.features)),
	}
	for _, f := range r.features {
		v.Names = append(v.Names, f.Name)
		v.Values = append(v.Values, r.value(rec, f.Name))
	}
	return v
}

func (r *Registry) value(rec DailyRecord, name string) float64 {
	switch name {
	case MoonPhase:
		return rec.MoonPhase
	case Weekday:
		return float64(WeekdayOf(rec.Date))
	case IsWeekend:
		return common.BoolToFloat(IsWeekendDay(rec.Date))
	}
	for _, w := range WeatherFeatures {
		switch name {
		case w:
			return weatherValue(rec.Weather, w)
		case RollingFeature(w):
			return weatherValue(rec.Rolling, w)
		}
	}
	for _, region := range r.vacationRegions {
		switch name {
		case VacationFeature(region):
			return common.BoolToFloat(rec.Vacation[region])
		case FirstWeekFeature(region):
			return common.BoolToFloat(rec.FirstWeek[region])
		case WeekAfterFeature(region):
			return common.BoolToFloat(rec.WeekAfter[region])
		}
	}
	for _, region := range r.holidayRegions {
		if name == HolidayFeature(region) {
			return common.BoolToFloat(rec.Holiday[region])
		}
	}
	panic("feature without value mapping: " + name)
}

// CheckSchema verifies that v has exactly the expected columns in the expected
// order. It never fills in missing columns.
func CheckSchema(expected []string, v Vector) error {
	have := make(map[string]bool, len(v.Names))
	for _, n := range v.Names {
		have[n] = true
	}
	want := make(map[string]bool, len(expected))
	var missing, extra []string
	for _, n := range expected {
		want[n] = true
		if !have[n] {
			missing = append(missing, n)
		}
	}
	for _, n := range v.Names {
		if !want[n] {
			extra = append(extra, n)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		return fmt.Errorf("%w: missing [%s], unexpected [%s]", ErrSchemaMismatch,
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	}
	if len(expected) != len(v.Names) {
		return fmt.Errorf("%w: %d columns, expected %d", ErrSchemaMismatch, len(v.Names), len(expected))
	}
	for i, n := range expected {
		if v.Names[i] != n {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, i, v.Names[i], n)
		}
	}
	return nil
}
