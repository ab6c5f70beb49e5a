package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/weather"
)

// Paths locates the training inputs. Weather and Cases are required. An empty
// Moon path computes the phase; empty Vacations/Holidays paths derive the
// tables from the calendar configuration.
type Paths struct {
	Weather   string
	Moon      string
	Vacations string
	Holidays  string
	Cases     string
}

// Sources are the loaded per-date inputs of the merge.
type Sources struct {
	Weather   []weather.DailyWeather
	Moon      map[time.Time]float64
	Vacations FlagTable // nil: use Calendar
	Holidays  FlagTable // nil: use Calendar
	Cases     map[time.Time]int
	Calendar  *calendar.Calendar
}

// Report summarises what the merge kept and dropped.
type Report struct {
	WeatherDays      int
	MissingMoon      int
	IncompleteWindow int
	Rows             int
	First, Last      time.Time
}

// Load reads every configured source file.
func Load(p Paths, cal *calendar.Calendar, clim weather.Climatology, log *zap.SugaredLogger) (Sources, error) {
	src := Sources{Calendar: cal}

	obs, err := readFile(p.Weather, ReadObservations)
	if err != nil {
		return src, fmt.Errorf("weather: %w", err)
	}
	src.Weather = weather.AggregateDaily(obs, clim)
	log.Infow("weather aggregated", "observations", len(obs), "days", len(src.Weather))

	if p.Moon != "" {
		if src.Moon, err = readFile(p.Moon, ReadMoon); err != nil {
			return src, fmt.Errorf("moon: %w", err)
		}
		// Prediction always computes the phase, so a table from another
		// source skews the feature between training and serving.
		if n, worst := moonDrift(src.Moon); n > 0 {
			log.Warnw("moon table differs from computed phase; export it with calendar-export",
				"file", p.Moon, "days", n, "max_diff", worst)
		}
	} else {
		src.Moon = ComputeMoon(src.Weather)
		log.Infow("moon phase computed", "days", len(src.Moon))
	}

	if p.Vacations != "" {
		src.Vacations, err = readFile(p.Vacations, func(name string, r io.Reader) (FlagTable, error) {
			return ReadFlags(name, r, VacationPrefix)
		})
		if err != nil {
			return src, fmt.Errorf("vacations: %w", err)
		}
	}
	if p.Holidays != "" {
		src.Holidays, err = readFile(p.Holidays, func(name string, r io.Reader) (FlagTable, error) {
			return ReadFlags(name, r, HolidayPrefix)
		})
		if err != nil {
			return src, fmt.Errorf("holidays: %w", err)
		}
	}

	if src.Cases, err = readFile(p.Cases, ReadCases); err != nil {
		return src, fmt.Errorf("cases: %w", err)
	}
	return src, nil
}

// ComputeMoon evaluates the moon phase for every weather date.
func ComputeMoon(days []weather.DailyWeather) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(days))
	for _, d := range days {
		out[d.Date] = calendar.MoonPhase(d.Date)
	}
	return out
}

// moonTolerance is the allowed gap, in percentage points, between a moon
// table and the computed phase. Exported tables are rounded to two decimals.
const moonTolerance = 0.5

// moonDrift counts the dates whose phase differs from calendar.MoonPhase by
// more than moonTolerance and reports the largest difference.
func moonDrift(moon map[time.Time]float64) (int, float64) {
	n, worst := 0, 0.0
	for d, v := range moon {
		diff := math.Abs(v - calendar.MoonPhase(d))
		if diff > moonTolerance {
			n++
		}
		worst = math.Max(worst, diff)
	}
	return n, worst
}

// Merge joins the sources into daily records, one per weather date:
// moon phase is an inner join, vacations, holidays and case counts are left
// joins defaulting to false/zero. Dates whose rolling window is incomplete
// are excluded.
func Merge(reg *features.Registry, src Sources) ([]features.DailyRecord, Report, error) {
	byDate := make(map[time.Time]weather.DailyWeather, len(src.Weather))
	for _, w := range src.Weather {
		byDate[common.Day(w.Date)] = w
	}

	in, err := src.inputs(reg, byDate)
	if err != nil {
		return nil, Report{}, err
	}

	rep := Report{WeatherDays: len(src.Weather)}
	var out []features.DailyRecord
	for _, w := range src.Weather {
		rec, err := reg.Assemble(in, w.Date)
		switch {
		case errors.Is(err, features.ErrNoMoonPhase):
			rep.MissingMoon++
			continue
		case errors.Is(err, features.ErrIncompleteWindow):
			rep.IncompleteWindow++
			continue
		case err != nil:
			return nil, rep, err
		}
		out = append(out, rec)
	}

	rep.Rows = len(out)
	if len(out) > 0 {
		rep.First, rep.Last = out[0].Date, out[len(out)-1].Date
	}
	return out, rep, nil
}

func (src Sources) inputs(reg *features.Registry, byDate map[time.Time]weather.DailyWeather) (features.Inputs, error) {
	in := features.Inputs{
		Weather: func(t time.Time) (weather.DailyWeather, bool) {
			w, ok := byDate[t]
			return w, ok
		},
		Moon: func(t time.Time) (float64, bool) {
			v, ok := src.Moon[t]
			return v, ok
		},
		Occurrences: func(t time.Time) int { return src.Cases[t] },
	}

	if src.Vacations == nil || src.Holidays == nil {
		if src.Calendar == nil {
			return in, errors.New("no vacation or holiday table and no calendar configured")
		}
		if err := src.Calendar.CheckRegions(reg.VacationRegions(), reg.HolidayRegions()); err != nil {
			return in, err
		}
	}

	in.Vacation = src.Calendar.InVacation
	if src.Vacations != nil {
		in.Vacation = src.Vacations.At
	}
	in.Holiday = src.Calendar.IsHoliday
	if src.Holidays != nil {
		in.Holiday = src.Holidays.At
	}
	return in, nil
}
