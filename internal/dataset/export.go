package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/common"
)

// WriteFlags writes one row per date in [from, to] with a <prefix><Region>
// column per region, readable by ReadFlags.
func WriteFlags(w io.Writer, prefix string, regions []string, from, to time.Time, at func(region string, t time.Time) bool) error {
	cw := csv.NewWriter(w)
	header := []string{colDate}
	for _, r := range regions {
		header = append(header, prefix+r)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	err := eachDay(from, to, func(d time.Time) error {
		rec := []string{common.DateKey(d)}
		for _, r := range regions {
			rec = append(rec, strconv.Itoa(int(common.BoolToFloat(at(r, d)))))
		}
		return cw.Write(rec)
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteMoon writes the computed moon phase for every date in [from, to],
// readable by ReadMoon.
func WriteMoon(w io.Writer, from, to time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colDate, colMoonPhase}); err != nil {
		return err
	}
	err := eachDay(from, to, func(d time.Time) error {
		return cw.Write([]string{common.DateKey(d), strconv.FormatFloat(calendar.MoonPhase(d), 'f', 2, 64)})
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func eachDay(from, to time.Time, fn func(time.Time) error) error {
	from, to = common.Day(from), common.Day(to)
	if to.Before(from) {
		return fmt.Errorf("invalid range %s..%s", common.DateKey(from), common.DateKey(to))
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
