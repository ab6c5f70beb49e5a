package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/common"
	"github.com/i474232898/triage-trend/internal/config"
	"github.com/i474232898/triage-trend/internal/dataset"
	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/logging"
	"github.com/i474232898/triage-trend/internal/model"
	"github.com/i474232898/triage-trend/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	tc := cfg.Training

	// Flags override the environment.
	flag.StringVar(&tc.WeatherCSV, "weather", tc.WeatherCSV, "raw weather observations CSV (Datum, Standort, Parameter, Wert)")
	flag.StringVar(&tc.MoonCSV, "moon", tc.MoonCSV, "moon phase CSV; computed when empty")
	flag.StringVar(&tc.VacationsCSV, "vacations", tc.VacationsCSV, "vacation flags CSV; derived from the calendar when empty")
	flag.StringVar(&tc.HolidaysCSV, "holidays", tc.HolidaysCSV, "public holiday flags CSV; derived from the calendar when empty")
	flag.StringVar(&tc.CasesCSV, "cases", tc.CasesCSV, "case admissions CSV (Fall_Eintritt_Datum)")
	flag.StringVar(&tc.TableCSV, "table", tc.TableCSV, "write the merged training table to this CSV")
	flag.Int64Var(&tc.Seed, "seed", tc.Seed, "random seed for the split and the model")
	flag.Float64Var(&tc.TestFraction, "test-fraction", tc.TestFraction, "held-out fraction")
	calendarPath := flag.String("calendar", cfg.CalendarPath, "calendar YAML")
	modelPath := flag.String("out", cfg.ModelPath, "model artifact path")
	flag.Parse()

	sugar, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer sugar.Sync() //nolint:errcheck

	if err := run(tc, *calendarPath, *modelPath, sugar); err != nil {
		sugar.Errorw("training failed", "error", err)
		sugar.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(tc config.TrainingConfig, calendarPath, modelPath string, log *zap.SugaredLogger) error {
	cal, err := calendar.Load(calendarPath)
	if err != nil {
		return err
	}
	registry, err := features.NewRegistry(cal.VacationRegions(), cal.HolidayRegions())
	if err != nil {
		return err
	}

	src, err := dataset.Load(dataset.Paths{
		Weather:   tc.WeatherCSV,
		Moon:      tc.MoonCSV,
		Vacations: tc.VacationsCSV,
		Holidays:  tc.HolidaysCSV,
		Cases:     tc.CasesCSV,
	}, cal, weather.DefaultClimatology(), log)
	if err != nil {
		return err
	}

	records, rep, err := dataset.Merge(registry, src)
	if err != nil {
		return err
	}
	log.Infow("dataset merged",
		"weather_days", rep.WeatherDays,
		"rows", rep.Rows,
		"missing_moon", rep.MissingMoon,
		"incomplete_window", rep.IncompleteWindow,
		"first", common.DateKey(rep.First),
		"last", common.DateKey(rep.Last),
	)

	table := registry.NewTable(records)
	if tc.TableCSV != "" {
		if err := writeTable(tc.TableCSV, table); err != nil {
			return err
		}
		log.Infow("training table written", "path", tc.TableCSV)
	}

	trainCfg := model.DefaultTrainConfig()
	trainCfg.Seed = tc.Seed
	trainCfg.TestFraction = tc.TestFraction

	pipeline, err := model.Train(registry, table, trainCfg)
	if err != nil {
		return err
	}
	log.Infow("model trained",
		"run_id", pipeline.RunID,
		"train_rows", pipeline.Metrics.TrainRows,
		"test_rows", pipeline.Metrics.TestRows,
		"mse", pipeline.Metrics.MSE,
		"mae", pipeline.Metrics.MAE,
		"r2", pipeline.Metrics.R2,
	)

	if err := model.Save(modelPath, pipeline); err != nil {
		return err
	}
	log.Infow("model saved", "path", modelPath)
	return nil
}

func writeTable(path string, t *features.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
