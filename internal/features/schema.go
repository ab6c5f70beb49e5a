package features

import (
	"errors"
	"fmt"
	"strings"
)

// Weather feature names, shared by the daily aggregates and their rolling means.
const (
	AverageTemperature     = "Average_Temperature"
	MaxTemperature         = "Max_Temperature"
	TotalRainDuration      = "Total_Rain_Duration"
	AveragePressure        = "Average_Pressure"
	AverageGlobalRadiation = "Average_Global_Radiation"
	Cloudiness             = "Cloudiness"

	MoonPhase = "Moon Phase (%)"
	Weekday   = "Weekday"
	IsWeekend = "IsWeekend"

	// Target is the training label, never part of a feature vector.
	Target = "Date_Occurrences"

	rollingSuffix = "_5day_mean"
)

// WeatherFeatures lists the weather aggregates in canonical order.
var WeatherFeatures = []string{
	AverageTemperature,
	MaxTemperature,
	TotalRainDuration,
	AveragePressure,
	AverageGlobalRadiation,
	Cloudiness,
}

var baseExternal = map[string]string{
	AverageTemperature:     "averageTemperature",
	MaxTemperature:         "maxTemperature",
	TotalRainDuration:      "totalRainDuration",
	AveragePressure:        "averagePressure",
	AverageGlobalRadiation: "averageGlobalRadiation",
	Cloudiness:             "cloudiness",
	MoonPhase:              "moonPhase",
	Weekday:                "weekday",
	IsWeekend:              "isWeekend",
}

// Kind tells the preprocessing stage how to treat a feature.
type Kind int

const (
	// Continuous features are standardized.
	Continuous Kind = iota
	// Flag features are 0/1 and passed through.
	Flag
	// Categorical features are one-hot encoded.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Flag:
		return "flag"
	case Categorical:
		return "categorical"
	}
	return "unknown"
}

// Feature describes one column of the model input.
type Feature struct {
	Name     string
	External string
	Kind     Kind
}

// ErrSchemaMismatch is returned when a feature vector does not carry exactly
// the columns a trained pipeline expects.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Registry is the single source of truth for the feature set: names, order,
// kinds and the external naming used in API responses. Both the training
// table and the prediction vector are built from it.
type Registry struct {
	features        []Feature
	index           map[string]int
	external        map[string]string
	vacationRegions []string
	holidayRegions  []string
}

// NewRegistry builds the canonical schema for the given region sets.
func NewRegistry(vacationRegions, holidayRegions []string) (*Registry, error) {
	r := &Registry{
		index:           make(map[string]int),
		external:        make(map[string]string),
		vacationRegions: append([]string(nil), vacationRegions...),
		holidayRegions:  append([]string(nil), holidayRegions...),
	}

	for _, name := range WeatherFeatures {
		r.add(name, baseExternal[name], Continuous)
	}
	r.add(MoonPhase, baseExternal[MoonPhase], Continuous)
	for _, region := range vacationRegions {
		r.add(VacationFeature(region), "isVacation"+pascal(region), Flag)
	}
	r.add(Weekday, baseExternal[Weekday], Categorical)
	r.add(IsWeekend, baseExternal[IsWeekend], Flag)
	for _, region := range vacationRegions {
		r.add(WeekAfterFeature(region), lowerFirst(pascal(region))+"WeekAfterHoliday", Flag)
		r.add(FirstWeekFeature(region), lowerFirst(pascal(region))+"FirstWeekOfHoliday", Flag)
	}
	for _, name := range WeatherFeatures {
		r.add(RollingFeature(name), baseExternal[name]+"5dayMean", Continuous)
	}
	for _, region := range holidayRegions {
		name := HolidayFeature(region)
		r.add(name, name, Flag)
	}

	if len(r.index) != len(r.features) {
		return nil, fmt.Errorf("duplicate feature names in schema (regions %v / %v)", vacationRegions, holidayRegions)
	}
	seen := make(map[string]string, len(r.external))
	for in, ext := range r.external {
		if other, dup := seen[ext]; dup {
			return nil, fmt.Errorf("features %q and %q share external name %q", other, in, ext)
		}
		seen[ext] = in
	}
	return r, nil
}

func (r *Registry) add(name, external string, kind Kind) {
	r.index[name] = len(r.features)
	r.features = append(r.features, Feature{Name: name, External: external, Kind: kind})
	r.external[name] = external
}

// Features returns the ordered schema.
func (r *Registry) Features() []Feature {
	return append([]Feature(nil), r.features...)
}

// Names returns the ordered feature names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.features))
	for i, f := range r.features {
		out[i] = f.Name
	}
	return out
}

// Len is the number of features.
func (r *Registry) Len() int {
	return len(r.features)
}

// Lookup returns the feature definition for name.
func (r *Registry) Lookup(name string) (Feature, bool) {
	i, ok := r.index[name]
	if !ok {
		return Feature{}, false
	}
	return r.features[i], true
}

// VacationRegions returns the regions with vacation features.
func (r *Registry) VacationRegions() []string {
	return append([]string(nil), r.vacationRegions...)
}

// HolidayRegions returns the regions with public holiday features.
func (r *Registry) HolidayRegions() []string {
	return append([]string(nil), r.holidayRegions...)
}

// External translates an internal feature name to its published camelCase
// name. Unknown names pass through unchanged.
func (r *Registry) External(name string) string {
	if ext, ok := r.external[name]; ok {
		return ext
	}
	return name
}

// Translate maps every entry of v to its external name. No entry is dropped.
func (r *Registry) Translate(v Vector) map[string]float64 {
	out := make(map[string]float64, v.Len())
	for i, name := range v.Names {
		out[r.External(name)] = v.Values[i]
	}
	return out
}

// VacationFeature is the vacation flag column of region.
func VacationFeature(region string) string { return "IsVacation" + region }

// FirstWeekFeature is the first-week-of-vacation column of region.
func FirstWeekFeature(region string) string { return region + "_First_Week_of_Holiday" }

// WeekAfterFeature is the week-after-vacation column of region.
func WeekAfterFeature(region string) string { return region + "_Week_After_Holiday" }

// HolidayFeature is the public holiday column of region.
func HolidayFeature(region string) string { return "publicHoliday" + region }

// RollingFeature is the trailing 5-day mean column of a weather feature.
func RollingFeature(name string) string { return name + rollingSuffix }

// pascal turns "St_gallen" into "StGallen".
func pascal(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
