package calendar

import (
	"time"
)

// HolidayRule is either a fixed annual day or an offset from Easter Sunday.
type HolidayRule struct {
	Name         string
	Fixed        *MonthDay
	EasterOffset *int
}

// On reports whether the rule falls on t.
func (r HolidayRule) On(t time.Time) bool {
	switch {
	case r.Fixed != nil:
		return Of(t) == *r.Fixed
	case r.EasterOffset != nil:
		d := Easter(t.Year()).AddDate(0, 0, *r.EasterOffset)
		return d.Month() == t.Month() && d.Day() == t.Day()
	}
	return false
}

// RegionHolidays lists the public holidays of one region.
type RegionHolidays struct {
	Name  string
	Rules []HolidayRule
}

// IsHoliday reports whether t is a public holiday in the region.
func (h *RegionHolidays) IsHoliday(t time.Time) bool {
	for _, r := range h.Rules {
		if r.On(t) {
			return true
		}
	}
	return false
}

// Easter returns Easter Sunday of the Gregorian year (anonymous Gregorian algorithm).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
