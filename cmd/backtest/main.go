package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"quantbt/internal/cli"
	"quantbt/internal/config"
	"quantbt/internal/svc"
	"quantbt/pkg/backtest"
	"quantbt/pkg/confkit"
	"quantbt/pkg/journal"
	"quantbt/pkg/predictor"
	"quantbt/pkg/walkforward"
)

func main() {
	var (
		configPath = flag.String("config", confkit.MustProjectPath("etc/quantbt.yaml"), "path to application configuration")
		instrument = flag.String("instrument", "BTC", "instrument name, used for data lookup and journaling")
		dataPath   = flag.String("data", "", "price history CSV; defaults to <dataDir>/<instrument>.csv")
		predsPath  = flag.String("predictions", "", "precomputed predictions CSV; runs one backtest instead of walk-forward")
		lags       = flag.Int("lags", 5, "number of lagged returns used as model features")
		history    = flag.Int("history", 0, "after evaluating, log the N most recent persisted runs for the instrument")
	)
	flag.Parse()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		logx.Infof("failed to load app config (%v), using defaults", err)
		appCfg = &config.Config{Env: "test", DataDir: "data", ArtifactDir: "artifacts", JournalDir: "journal"}
	}
	cli.LogConfigSummary(appCfg)

	svcCtx := svc.NewServiceContext(*appCfg)

	wfCfg := walkforward.Config{}
	if svcCtx.WalkForwardConfig != nil {
		wfCfg = *svcCtx.WalkForwardConfig
	}

	path := *dataPath
	if path == "" {
		path = filepath.Join(appCfg.DataDir, *instrument+".csv")
	}
	rows, err := backtest.ReadRowsCSVFile(path)
	if err != nil {
		logx.Errorf("load price history %s: %v", path, err)
		os.Exit(1)
	}
	logx.Infof("loaded %d rows for %s from %s", len(rows), *instrument, path)

	ctx := context.Background()
	if *predsPath != "" {
		runSingle(ctx, svcCtx, wfCfg, *instrument, rows, *predsPath)
	} else {
		runWalkForward(ctx, svcCtx, wfCfg, *instrument, rows, *lags)
	}

	if *history > 0 {
		showHistory(ctx, svcCtx, *instrument, *history)
	}
}

// showHistory lists previously persisted runs for the instrument, newest
// first. Requires a configured Postgres DSN.
func showHistory(ctx context.Context, svcCtx *svc.ServiceContext, instrument string, limit int) {
	if svcCtx.Repos == nil {
		logx.Info("history requested but Postgres is not configured")
		return
	}
	runs, err := svcCtx.Repos.Results.RecentRuns(ctx, instrument, limit)
	if err != nil {
		logx.Errorf("load history for %s: %v", instrument, err)
		return
	}
	for _, run := range runs {
		logx.Infof("run %d %s %s period=%d at %s: return=%+.2f%% sharpe=%.2f trades=%d",
			run.ID, run.Instrument, run.Kind, run.Period, run.CreatedAt.Format(time.RFC3339),
			run.TotalReturn*100, run.SharpeRatio, run.TotalTrades)
	}
}

func runSingle(ctx context.Context, svcCtx *svc.ServiceContext, wfCfg walkforward.Config, instrument string, rows []backtest.Row, predsPath string) {
	preds, err := readPredictions(predsPath)
	if err != nil {
		logx.Errorf("load predictions %s: %v", predsPath, err)
		os.Exit(1)
	}

	runner := backtest.NewRunner(wfCfg.Backtest)
	res, err := runner.Run(rows, preds)
	if err != nil {
		logx.Errorf("backtest %s: %v", instrument, err)
		os.Exit(1)
	}

	logReport("backtest", res.Report)
	persist(ctx, svcCtx, instrument, "backtest", 0, res.Report, res.Trades, nil, "")
}

func runWalkForward(ctx context.Context, svcCtx *svc.ServiceContext, wfCfg walkforward.Config, instrument string, rows []backtest.Row, lags int) {
	ds := walkforward.BuildLaggedDataset(rows, lags)

	sched := walkforward.NewScheduler(wfCfg, predictor.LinearTrainer{}).WithArtifacts(svcCtx.Artifacts)
	periods, err := sched.Run(ctx, ds)
	if err != nil {
		logx.Errorf("walk-forward %s: %v", instrument, err)
		os.Exit(1)
	}
	if len(periods) == 0 {
		logx.Errorf("walk-forward %s: %d usable rows cannot fill one train+test pair", instrument, len(ds.Rows))
		os.Exit(1)
	}

	for _, pr := range periods {
		logx.Infof("period %d rows[%d:%d]->[%d:%d] return=%+.2f%% sharpe=%.2f trades=%d dir_acc=%.1f%% ic=%.3f artifact=%s",
			pr.Index, pr.TrainStart, pr.TrainEnd, pr.TestStart, pr.TestEnd,
			pr.Report.TotalReturn*100, pr.Report.SharpeRatio, pr.Report.TotalTrades,
			pr.Errors.DirectionAccuracy*100, pr.Errors.IC, pr.ArtifactPath)
		errs := pr.Errors
		persist(ctx, svcCtx, instrument, "walkforward_period", pr.Index, pr.Report, pr.Trades, &errs, pr.ArtifactPath)
	}

	stitched, err := walkforward.StitchOutOfSample(ctx, wfCfg, ds, periods)
	if err != nil {
		logx.Errorf("stitch %s: %v", instrument, err)
		os.Exit(1)
	}
	logReport("stitched out-of-sample", stitched.Report)
}

func logReport(label string, r backtest.Report) {
	logx.Infof("%s: final value %.2f on %.2f initial", label, r.FinalValue, r.InitialCash)
	logx.Infof("%s: total return %+.2f%% (annualized %+.2f%%, vol %.2f%%)", label,
		r.TotalReturn*100, r.AnnualReturn*100, r.AnnualVolatility*100)
	logx.Infof("%s: sharpe %.2f, max drawdown %.2f%%", label, r.SharpeRatio, r.MaxDrawdown*100)
	logx.Infof("%s: buy-and-hold %+.2f%%, excess %+.2f%%", label, r.BenchmarkReturn*100, r.ExcessReturn*100)
	logx.Infof("%s: %d trades, win rate %.1f%%", label, r.TotalTrades, r.WinRate*100)
}

func persist(ctx context.Context, svcCtx *svc.ServiceContext, instrument, kind string, period int, report backtest.Report, trades []backtest.TradeRecord, errs *walkforward.ErrorMetrics, artifactPath string) {
	if _, err := svcCtx.Journal.WriteRun(&journal.RunRecord{
		Instrument:   instrument,
		Kind:         kind,
		Period:       period,
		Report:       report,
		Errors:       errs,
		TradeCount:   len(trades),
		ArtifactPath: artifactPath,
		Success:      true,
	}); err != nil {
		logx.Errorf("journal %s %s: %v", instrument, kind, err)
	}

	if svcCtx.Repos == nil {
		return
	}
	runID, err := svcCtx.Repos.Results.InsertRun(ctx, instrument, kind, period, report)
	if err != nil {
		logx.Errorf("persist run %s %s: %v", instrument, kind, err)
		return
	}
	if err := svcCtx.Repos.Results.InsertTrades(ctx, runID, trades); err != nil {
		logx.Errorf("persist trades for run %d: %v", runID, err)
	}
}

// readPredictions parses one prediction per line. A single header line and a
// leading timestamp column are tolerated; the last comma-separated field on
// each line is the value.
func readPredictions(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var preds []float64
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[len(fields)-1]), 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, err
		}
		preds = append(preds, v)
	}
	return preds, scanner.Err()
}
