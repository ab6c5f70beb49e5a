package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/weather"
)

// Column names of the source files.
const (
	colWeatherDate     = "Datum"
	colWeatherLocation = "Standort"
	colWeatherParam    = "Parameter"
	colWeatherValue    = "Wert"
	colDate            = "Date"
	colMoonPhase       = "Moon Phase (%)"
	colAdmissionDate   = "Fall_Eintritt_Datum"
)

// Flag column prefixes; the remainder of the header is the region.
const (
	VacationPrefix = "IsVacation"
	HolidayPrefix  = "publicHoliday"
)

var dateLayouts = []string{
	common.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ErrMalformedSource wraps fatal parse failures in training inputs.
var ErrMalformedSource = errors.New("malformed source")

// parseDate accepts ISO dates and timestamps and returns the calendar date in
// the timestamp's own zone.
func parseDate(s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(layouts) == 0 {
		layouts = dateLayouts
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return common.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

type csvFile struct {
	name   string
	r      *csv.Reader
	header map[string]int
	cols   []string
	line   int
}

func openCSV(name string, r io.Reader, required ...string) (*csvFile, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %v", ErrMalformedSource, name, err)
	}
	f := &csvFile{name: name, r: cr, header: make(map[string]int), line: 1}
	for i, h := range head {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		f.header[h] = i
		f.cols = append(f.cols, h)
	}
	for _, c := range required {
		if _, ok := f.header[c]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrMalformedSource, name, c)
		}
	}
	return f, nil
}

// next returns the next record, or io.EOF.
func (f *csvFile) next() ([]string, error) {
	rec, err := f.r.Read()
	f.line++
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedSource, f.name, f.line, err)
	}
	return rec, nil
}

func (f *csvFile) get(rec []string, col string) string {
	i, ok := f.header[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (f *csvFile) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s line %d: %s", ErrMalformedSource, f.name, f.line, fmt.Sprintf(format, args...))
}

// ReadObservations reads raw station rows (Datum, Standort, Parameter, Wert).
// Empty or non-numeric values become NaN and are ignored by the aggregator;
// an unparseable date aborts.
func ReadObservations(name string, r io.Reader) ([]weather.Observation, error) {
	f, err := openCSV(name, r, colWeatherDate, colWeatherLocation, colWeatherParam, colWeatherValue)
	if err != nil {
		return nil, err
	}
	var out []weather.Observation
	for {
		rec, err := f.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		date, err := parseDate(f.get(rec, colWeatherDate))
		if err != nil {
			return nil, f.errorf("%v", err)
		}
		value, err := strconv.ParseFloat(f.get(rec, colWeatherValue), 64)
		if err != nil {
			value = math.NaN()
		}
		out = append(out, weather.Observation{
			Date:      date,
			Location:  f.get(rec, colWeatherLocation),
			Parameter: weather.Parameter(f.get(rec, colWeatherParam)),
			Value:     value,
		})
	}
}

// ReadMoon reads a Date, Moon Phase (%) table.
func ReadMoon(name string, r io.Reader) (map[time.Time]float64, error) {
	f, err := openCSV(name, r, colDate, colMoonPhase)
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]float64)
	for {
		rec, err := f.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		date, err := parseDate(f.get(rec, colDate))
		if err != nil {
			return nil, f.errorf("%v", err)
		}
		v, err := strconv.ParseFloat(f.get(rec, colMoonPhase), 64)
		if err != nil {
			// Treated like a missing row: the inner join drops the date.
			continue
		}
		out[date] = v
	}
}

// FlagTable is a sparse per-date, per-region boolean table.
type FlagTable map[time.Time]map[string]bool

// At returns the flag, false when the date or region is absent.
func (t FlagTable) At(region string, date time.Time) bool {
	return t[common.Day(date)][region]
}

// ReadFlags reads a Date column plus <prefix><Region> flag columns.
func ReadFlags(name string, r io.Reader, prefix string) (FlagTable, error) {
	f, err := openCSV(name, r, colDate)
	if err != nil {
		return nil, err
	}
	regions := make(map[string]string)
	for _, c := range f.cols {
		if strings.HasPrefix(c, prefix) && len(c) > len(prefix) {
			regions[c] = strings.TrimPrefix(c, prefix)
		}
	}
	out := make(FlagTable)
	for {
		rec, err := f.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		date, err := parseDate(f.get(rec, colDate))
		if err != nil {
			return nil, f.errorf("%v", err)
		}
		row := make(map[string]bool, len(regions))
		for col, region := range regions {
			row[region] = parseFlag(f.get(rec, col))
		}
		out[date] = row
	}
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "1.0", "true", "yes":
		return true
	}
	return false
}

// ReadCases counts admissions per admission date. Dates are M/D/YY as
// exported by the clinic system, with or without zero padding; ISO dates are
// accepted too.
func ReadCases(name string, r io.Reader) (map[time.Time]int, error) {
	f, err := openCSV(name, r, colAdmissionDate)
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]int)
	for {
		rec, err := f.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		date, err := parseDate(f.get(rec, colAdmissionDate), "1/2/06", common.DateLayout)
		if err != nil {
			return nil, f.errorf("%v", err)
		}
		out[date]++
	}
}

func readFile[T any](path string, read func(string, io.Reader) (T, error)) (T, error) {
	var zero T
	fh, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer fh.Close()
	return read(path, fh)
}
