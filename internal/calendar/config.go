package calendar

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ErrInvalidCalendar is returned for malformed or overlapping calendar configuration.
var ErrInvalidCalendar = errors.New("invalid calendar configuration")

// File is the on-disk YAML layout of the calendar configuration.
type File struct {
	Vacations []VacationSpec `yaml:"vacations" validate:"unique=Region,dive"`
	Holidays  []HolidaySpec  `yaml:"holidays" validate:"unique=Region,dive"`
}

// VacationSpec lists one region's school vacation periods.
type VacationSpec struct {
	Region  string       `yaml:"region" validate:"required"`
	Periods []PeriodSpec `yaml:"periods" validate:"dive"`
}

// PeriodSpec is a DD.MM–DD.MM vacation period.
type PeriodSpec struct {
	Start string `yaml:"start" validate:"required,datetime=02.01"`
	End   string `yaml:"end" validate:"required,datetime=02.01"`
}

// HolidaySpec lists one region's public holidays.
type HolidaySpec struct {
	Region string    `yaml:"region" validate:"required"`
	Days   []DaySpec `yaml:"days" validate:"dive"`
}

// DaySpec is either a fixed DD.MM date or an offset from Easter Sunday.
type DaySpec struct {
	Name         string `yaml:"name" validate:"required"`
	Date         string `yaml:"date" validate:"omitempty,datetime=02.01"`
	EasterOffset *int   `yaml:"easter_offset" validate:"omitempty,min=-60,max=70"`
}

// Calendar is the validated, static calendar data injected into the feature
// providers. It is read-only after Load.
type Calendar struct {
	vacations []*RegionCalendar
	holidays  []*RegionHolidays
}

// Load reads and validates a YAML calendar file.
func Load(path string) (*Calendar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates YAML calendar data.
func Parse(raw []byte) (*Calendar, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}
	return f.Build()
}

// Build validates the file and converts it to a Calendar. Overlapping periods
// within a region are rejected; adjacent periods are fine.
func (f File) Build() (*Calendar, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	cal := &Calendar{}
	for _, v := range f.Vacations {
		rc := &RegionCalendar{Name: v.Region}
		for _, p := range v.Periods {
			start, err := ParseMonthDay(p.Start)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCalendar, v.Region, err)
			}
			end, err := ParseMonthDay(p.End)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCalendar, v.Region, err)
			}
			rc.Intervals = append(rc.Intervals, Interval{Start: start, End: end})
		}
		if a, b, ok := rc.overlaps(); ok {
			return nil, fmt.Errorf("%w: %s: periods %s and %s overlap", ErrInvalidCalendar, v.Region, a, b)
		}
		cal.vacations = append(cal.vacations, rc)
	}

	for _, h := range f.Holidays {
		rh := &RegionHolidays{Name: h.Region}
		for _, d := range h.Days {
			if (d.Date == "") == (d.EasterOffset == nil) {
				return nil, fmt.Errorf("%w: %s: holiday %q needs exactly one of date or easter_offset", ErrInvalidCalendar, h.Region, d.Name)
			}
			rule := HolidayRule{Name: d.Name}
			if d.EasterOffset != nil {
				off := *d.EasterOffset
				rule.EasterOffset = &off
			} else {
				md, err := ParseMonthDay(d.Date)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCalendar, h.Region, err)
				}
				rule.Fixed = &md
			}
			rh.Rules = append(rh.Rules, rule)
		}
		cal.holidays = append(cal.holidays, rh)
	}

	return cal, nil
}

// VacationRegions returns the vacation region names in configuration order.
func (c *Calendar) VacationRegions() []string {
	out := make([]string, 0, len(c.vacations))
	for _, v := range c.vacations {
		out = append(out, v.Name)
	}
	return out
}

// HolidayRegions returns the holiday region names in configuration order.
func (c *Calendar) HolidayRegions() []string {
	out := make([]string, 0, len(c.holidays))
	for _, h := range c.holidays {
		out = append(out, h.Name)
	}
	return out
}

// Region returns the vacation calendar for name.
func (c *Calendar) Region(name string) (*RegionCalendar, bool) {
	for _, v := range c.vacations {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// RegionHolidays returns the holiday calendar for name.
func (c *Calendar) RegionHolidays(name string) (*RegionHolidays, bool) {
	for _, h := range c.holidays {
		if h.Name == name {
			return h, true
		}
	}
	return nil, false
}

// InVacation reports whether region is on vacation at t. Unknown regions are
// never on vacation.
func (c *Calendar) InVacation(region string, t time.Time) bool {
	rc, ok := c.Region(region)
	return ok && rc.InVacation(t)
}

// IsHoliday reports whether t is a public holiday in region.
func (c *Calendar) IsHoliday(region string, t time.Time) bool {
	rh, ok := c.RegionHolidays(region)
	return ok && rh.IsHoliday(t)
}

// CheckRegions returns an error naming the first vacation or holiday region
// that the calendar does not define.
func (c *Calendar) CheckRegions(vacation, holiday []string) error {
	for _, r := range vacation {
		if _, ok := c.Region(r); !ok {
			return fmt.Errorf("vacation region %q not in calendar", r)
		}
	}
	for _, r := range holiday {
		if _, ok := c.RegionHolidays(r); !ok {
			return fmt.Errorf("holiday region %q not in calendar", r)
		}
	}
	return nil
}

// VacationFlags returns the per-region vacation flag for t.
func (c *Calendar) VacationFlags(t time.Time) map[string]bool {
	out := make(map[string]bool, len(c.vacations))
	for _, v := range c.vacations {
		out[v.Name] = v.InVacation(t)
	}
	return out
}

// HolidayFlags returns the per-region public holiday flag for t.
func (c *Calendar) HolidayFlags(t time.Time) map[string]bool {
	out := make(map[string]bool, len(c.holidays))
	for _, h := range c.holidays {
		out[h.Name] = h.IsHoliday(t)
	}
	return out
}
