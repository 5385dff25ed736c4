// Command arimaeval searches a grid of ARIMA(p, d, q) orders for the one with
// the lowest walk-forward MAPE on a single column of a CSV dataset.
//
// Usage:
//
//	arimaeval [flags] <dataset> <column>
//
// The dataset is read from <data dir>/<dataset>.csv and every evaluated order
// is appended to <results dir>/<dataset>/<column>_MAPE.csv.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sartorproj/arimagrid/arima"
	"github.com/sartorproj/arimagrid/config"
	"github.com/sartorproj/arimagrid/grid"
	"github.com/sartorproj/arimagrid/report"
	"github.com/sartorproj/arimagrid/timeseries"
	"github.com/sartorproj/arimagrid/walkforward"
)

const tableRows = 10

type options struct {
	configPath string
	workers    int
	verbose    bool
	jsonLog    bool
	noTable    bool
	chart      bool
	noSummary  bool
	cpuProfile string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to YAML config file (default: built-in reference grid)")
	flag.IntVar(&opts.workers, "workers", 0, "orders evaluated concurrently (overrides config)")
	flag.BoolVar(&opts.verbose, "verbose", false, "set log level to debug")
	flag.BoolVar(&opts.jsonLog, "json-log", false, "log as JSON instead of console text")
	flag.BoolVar(&opts.noTable, "no-table", false, "do not print the ranking table")
	flag.BoolVar(&opts.chart, "chart", false, "write an HTML bar chart of the scores")
	flag.BoolVar(&opts.noSummary, "no-summary", false, "do not write the JSON run summary")
	flag.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile to this directory")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <dataset> <column>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	dataset, column := flag.Arg(0), flag.Arg(1)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arimaeval: load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, opts)

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arimaeval: build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if opts.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.cpuProfile), profile.Quiet).Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, dataset, column); err != nil {
		logger.Error("arimaeval failed", zap.Error(err))
		// deferred calls are skipped by os.Exit
		cancel()
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.workers > 0 {
		cfg.Search.Workers = opts.workers
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.jsonLog {
		cfg.Log.Format = "json"
	}
	if opts.noTable {
		cfg.Results.Table = false
	}
	if opts.chart {
		cfg.Results.Chart = true
	}
	if opts.noSummary {
		cfg.Results.Summary = false
	}
}

// newLogger builds a console logger for terminals or a JSON logger for
// machines, writing to stderr at the configured level.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableCaller = true
	zcfg.DisableStacktrace = true

	return zcfg.Build()
}

func run(ctx context.Context, logger *zap.Logger, cfg *config.Config, dataset, column string) error {
	runID := uuid.New()
	logger = logger.With(zap.String("run_id", runID.String()))

	dataPath := report.DatasetPath(cfg.Data.Dir, dataset)
	series, err := timeseries.LoadColumn(dataPath, column)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	stats := report.DescribeSeries(series)
	logger.Info("dataset loaded",
		zap.String("path", dataPath),
		zap.String("column", column),
		zap.Int("observations", series.Len()),
		zap.Float64("mean", stats.Mean),
		zap.Float64("variance", stats.Variance),
		zap.Float64("min", stats.Min),
		zap.Float64("max", stats.Max),
	)

	results, err := report.CreateResultsLog(report.ResultsPath(cfg.Results.Dir, dataset, column))
	if err != nil {
		return err
	}
	defer results.Close()

	console := report.NewConsole()
	evaluator := walkforward.NewEvaluator(
		walkforward.WithTrainRatio(cfg.Search.TrainRatio),
		walkforward.WithLogger(logger.Named("walkforward")),
	)
	searcher := grid.New(logger.Named("grid"), evaluator,
		grid.WithWorkers(cfg.Search.Workers),
		grid.WithObserver(console),
		grid.WithObserver(results),
	)

	startedAt := time.Now()
	res, err := searcher.Search(ctx, series, cfg.Search.Candidates)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := console.Best(res.Best); err != nil {
		return err
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close results log: %w", err)
	}
	logger.Info("results written", zap.String("path", results.Path()), zap.Int("rows", results.Rows()))

	if cfg.Results.Table && len(res.Records) > 0 {
		if err := report.RankingTable(os.Stdout, res.Records, tableRows); err != nil {
			return err
		}
	}

	var bestModel *report.ModelSummary
	if res.Best.Found() {
		bestModel, err = refit(series, res.Best.Order)
		if err != nil {
			logger.Warn("best order refit failed", zap.Stringer("order", res.Best.Order), zap.Error(err))
		} else {
			logger.Info("best order refit",
				zap.Stringer("order", res.Best.Order),
				zap.Float64("next_forecast", bestModel.NextForecast),
				zap.Float64("residual_rms", bestModel.ResidualRMS),
			)
		}
	}

	if cfg.Results.Summary {
		ratio := evaluator.TrainRatio()
		info := report.RunInfo{
			RunID:        runID,
			Dataset:      dataset,
			Column:       column,
			Observations: series.Len(),
			TrainSize:    walkforward.SplitIndex(series.Len(), ratio),
			TrainRatio:   ratio,
			Series:       stats,
			Candidates:   cfg.Search.Candidates,
			StartedAt:    startedAt,
		}
		summary := report.NewSummary(info, res)
		summary.BestModel = bestModel
		path := report.SummaryPath(cfg.Results.Dir, dataset, column)
		if err := summary.WriteFile(path); err != nil {
			return err
		}
		logger.Info("summary written", zap.String("path", path))
	}

	if cfg.Results.Chart {
		path := report.ChartPath(cfg.Results.Dir, dataset, column)
		if err := writeChart(path, fmt.Sprintf("%s/%s walk-forward MAPE", dataset, column), res.Records); err != nil {
			return err
		}
		logger.Info("chart written", zap.String("path", path))
	}

	return nil
}

// refit fits order on the whole series and describes the result.
func refit(series *timeseries.Series, order arima.Order) (*report.ModelSummary, error) {
	model := arima.NewWithOrder(order)
	if err := model.Fit(series); err != nil {
		return nil, err
	}
	return report.DescribeModel(model)
}

func writeChart(path, title string, records []grid.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := report.WriteChart(f, title, records); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}
