package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"quantbt/internal/cli"
	"quantbt/internal/config"
	"quantbt/internal/svc"
	"quantbt/pkg/backtest"
	"quantbt/pkg/batch"
	"quantbt/pkg/confkit"
	"quantbt/pkg/journal"
	"quantbt/pkg/predictor"
	"quantbt/pkg/walkforward"
)

func main() {
	var (
		configPath  = flag.String("config", confkit.MustProjectPath("etc/quantbt.yaml"), "path to application configuration")
		dataDir     = flag.String("data-dir", "", "directory of per-instrument CSV files; defaults to the configured dataDir")
		instruments = flag.String("instruments", "", "comma-separated instrument names; defaults to every CSV under the data dir")
		lags        = flag.Int("lags", 5, "number of lagged returns used as model features")
	)
	flag.Parse()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		logx.Infof("failed to load app config (%v), using defaults", err)
		appCfg = &config.Config{Env: "test", DataDir: "data", ArtifactDir: "artifacts", JournalDir: "journal"}
	}
	cli.LogConfigSummary(appCfg)

	svcCtx := svc.NewServiceContext(*appCfg)

	dir := *dataDir
	if dir == "" {
		dir = appCfg.DataDir
	}

	units, err := discoverUnits(dir, *instruments)
	if err != nil {
		logx.Errorf("discover instruments in %s: %v", dir, err)
		os.Exit(1)
	}
	if len(units) == 0 {
		logx.Errorf("no instruments to evaluate under %s", dir)
		os.Exit(1)
	}
	logx.Infof("evaluating %d instruments with %d-lag features", len(units), *lags)

	wfCfg := walkforward.Config{}
	if svcCtx.WalkForwardConfig != nil {
		wfCfg = *svcCtx.WalkForwardConfig
	}
	batchCfg := batch.Config{}
	if svcCtx.BatchConfig != nil {
		batchCfg = *svcCtx.BatchConfig
	}

	pipeline := newPipeline(svcCtx, wfCfg, dir, *lags)
	summary := batch.NewRunner(batchCfg, pipeline).Run(context.Background(), units)
	summary.Log()

	if summary.Succeeded == 0 {
		os.Exit(1)
	}
}

// newPipeline builds the per-instrument evaluation: load prices, derive
// lagged features, walk-forward train and test a linear model, and score the
// stitched out-of-sample windows as one report.
func newPipeline(svcCtx *svc.ServiceContext, wfCfg walkforward.Config, dir string, lags int) batch.Pipeline {
	return func(ctx context.Context, unit batch.Unit) (*backtest.Report, error) {
		rows, err := backtest.ReadRowsCSVFile(filepath.Join(dir, unit.ID+".csv"))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", unit.ID, err)
		}

		ds := walkforward.BuildLaggedDataset(rows, lags)
		sched := walkforward.NewScheduler(wfCfg, predictor.LinearTrainer{})
		periods, err := sched.Run(ctx, ds)
		if err != nil {
			return nil, err
		}
		if len(periods) == 0 {
			return nil, fmt.Errorf("%w: %d usable rows for %s", batch.ErrInsufficientData, len(ds.Rows), unit.ID)
		}

		res, err := walkforward.StitchOutOfSample(ctx, wfCfg, ds, periods)
		if err != nil {
			return nil, err
		}

		if _, err := svcCtx.Journal.WriteRun(&journal.RunRecord{
			Instrument: unit.ID,
			Kind:       "backtest",
			Report:     res.Report,
			TradeCount: len(res.Trades),
			Success:    true,
		}); err != nil {
			logx.Errorf("journal %s: %v", unit.ID, err)
		}
		if svcCtx.Repos != nil {
			runID, err := svcCtx.Repos.Results.InsertRun(ctx, unit.ID, "backtest", 0, res.Report)
			if err != nil {
				logx.Errorf("persist run %s: %v", unit.ID, err)
			} else if err := svcCtx.Repos.Results.InsertTrades(ctx, runID, res.Trades); err != nil {
				logx.Errorf("persist trades for run %d: %v", runID, err)
			}
		}

		return &res.Report, nil
	}
}

// discoverUnits lists the instruments to evaluate, either from the explicit
// comma-separated override or from the CSV files present under dir.
func discoverUnits(dir, explicit string) ([]batch.Unit, error) {
	var names []string
	if strings.TrimSpace(explicit) != "" {
		for _, name := range strings.Split(explicit, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
				continue
			}
			names = append(names, strings.TrimSuffix(entry.Name(), ".csv"))
		}
		sort.Strings(names)
	}

	units := make([]batch.Unit, 0, len(names))
	for _, name := range names {
		units = append(units, batch.Unit{ID: name, Name: name})
	}
	return units, nil
}
