package calendar

import (
	"fmt"
	"time"
)

// MonthDay is a year-agnostic calendar day.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses a "DD.MM" boundary such as "23.12". 29.02 is accepted.
func ParseMonthDay(s string) (MonthDay, error) {
	// Year 2000 is a leap year, so 29.02 parses.
	t, err := time.Parse("02.01.2006", s+".2000")
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid day %q, want DD.MM: %w", s, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// Of returns the month/day of t.
func Of(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

func (m MonthDay) ordinal() int {
	return int(m.Month)*100 + m.Day
}

// Before reports whether m falls earlier in the year than o.
func (m MonthDay) Before(o MonthDay) bool {
	return m.ordinal() < o.ordinal()
}

// In anchors m to year. 29.02 in a non-leap year normalises to 01.03.
func (m MonthDay) In(year int) time.Time {
	return time.Date(year, m.Month, m.Day, 0, 0, 0, 0, time.UTC)
}

func (m MonthDay) String() string {
	return fmt.Sprintf("%02d.%02d", m.Day, int(m.Month))
}

// Interval is an annually recurring inclusive range of days. An interval whose
// End is before its Start crosses the year boundary (e.g. 23.12–04.01).
type Interval struct {
	Start MonthDay
	End   MonthDay
}

// Wraps reports whether the interval crosses the year boundary.
func (iv Interval) Wraps() bool {
	return iv.End.Before(iv.Start)
}

// Contains reports whether t's month/day lies within the interval, both ends
// inclusive. Only the month and day of t are considered.
func (iv Interval) Contains(t time.Time) bool {
	md := Of(t)
	if iv.Wraps() {
		// Dec 23–Jan 4 is [Dec 23, Dec 31] ∪ [Jan 1, Jan 4] of the same year.
		return !md.Before(iv.Start) || !iv.End.Before(md)
	}
	return !md.Before(iv.Start) && !iv.End.Before(md)
}

// days enumerates the interval's month/day ordinals over a leap year.
func (iv Interval) days() []int {
	var out []int
	start := iv.Start.In(2000)
	end := iv.End.In(2000)
	if iv.Wraps() {
		end = iv.End.In(2001)
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, Of(d).ordinal())
	}
	return out
}

func (iv Interval) String() string {
	return iv.Start.String() + "–" + iv.End.String()
}

// RegionCalendar holds the school vacation periods of one region (canton).
// Intervals need not be sorted.
type RegionCalendar struct {
	Name      string
	Intervals []Interval
}

// InVacation reports whether t falls inside any vacation interval.
func (c *RegionCalendar) InVacation(t time.Time) bool {
	for _, iv := range c.Intervals {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}

// IsFirstWeek reports whether t is within the first week of a vacation.
func (c *RegionCalendar) IsFirstWeek(t time.Time) bool {
	return Transitions(c.InVacation, t).FirstWeek
}

// IsWeekAfter reports whether t is within the week following a vacation.
func (c *RegionCalendar) IsWeekAfter(t time.Time) bool {
	return Transitions(c.InVacation, t).WeekAfter
}

// overlaps returns the first pair of intervals sharing a day, if any.
// Adjacent intervals do not overlap.
func (c *RegionCalendar) overlaps() (Interval, Interval, bool) {
	seen := make(map[int]int)
	for i, iv := range c.Intervals {
		for _, d := range iv.days() {
			if j, ok := seen[d]; ok && j != i {
				return c.Intervals[j], iv, true
			}
			seen[d] = i
		}
	}
	return Interval{}, Interval{}, false
}
