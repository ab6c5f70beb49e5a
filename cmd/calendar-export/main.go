package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/config"
	"github.com/i474232898/triage-trend/internal/dataset"
	"github.com/i474232898/triage-trend/internal/logging"
)

// calendar-export writes the vacation, public holiday and moon phase tables
// for a date range, in the CSV layout the trainer reads.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	calendarPath := flag.String("calendar", cfg.CalendarPath, "calendar YAML")
	fromStr := flag.String("from", "", "first date, YYYY-MM-DD")
	toStr := flag.String("to", "", "last date, YYYY-MM-DD")
	outDir := flag.String("out", "data", "output directory")
	flag.Parse()

	sugar, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer sugar.Sync() //nolint:errcheck

	from, err := common.ParseDate(*fromStr)
	if err != nil {
		sugar.Fatalw("invalid -from", "value", *fromStr)
	}
	to, err := common.ParseDate(*toStr)
	if err != nil {
		sugar.Fatalw("invalid -to", "value", *toStr)
	}

	cal, err := calendar.Load(*calendarPath)
	if err != nil {
		sugar.Fatalw("failed to load calendar", "path", *calendarPath, "error", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		sugar.Fatalw("failed to create output directory", "error", err)
	}

	outputs := map[string]func(io.Writer) error{
		"vacations.csv": func(w io.Writer) error {
			return dataset.WriteFlags(w, dataset.VacationPrefix, cal.VacationRegions(), from, to, cal.InVacation)
		},
		"holidays.csv": func(w io.Writer) error {
			return dataset.WriteFlags(w, dataset.HolidayPrefix, cal.HolidayRegions(), from, to, cal.IsHoliday)
		},
		"moon.csv": func(w io.Writer) error {
			return dataset.WriteMoon(w, from, to)
		},
	}
	for name, write := range outputs {
		path := filepath.Join(*outDir, name)
		if err := writeFile(path, write); err != nil {
			sugar.Fatalw("export failed", "path", path, "error", err)
		}
		sugar.Infow("exported", "path", path, "from", common.DateKey(from), "to", common.DateKey(to))
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}
