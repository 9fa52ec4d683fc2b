package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/temaptz/trade-agent/internal/account"
	"github.com/temaptz/trade-agent/internal/decision"
	"github.com/temaptz/trade-agent/internal/engine"
	"github.com/temaptz/trade-agent/internal/engine/engineobs"
	"github.com/temaptz/trade-agent/internal/eod"
	"github.com/temaptz/trade-agent/internal/eod/eodobs"
	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/risk"
	"github.com/temaptz/trade-agent/internal/server"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/trace"
	"github.com/temaptz/trade-agent/internal/tradelog"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	defer func() {
		if err := trace.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shut down tracer: %v\n", err)
		}
	}()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	trades, err := store.NewTradeStore(cfg.Store.Path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open trade store", err, "path", cfg.Store.Path)
		return err
	}
	defer trades.Close()

	journal, err := tradelog.New(tradelog.Options{
		Path:       cfg.Journal.Path,
		MaxSizeMB:  cfg.Journal.MaxSizeMB,
		MaxBackups: cfg.Journal.MaxBackups,
		MaxAgeDays: cfg.Journal.MaxAgeDays,
		Compress:   cfg.Journal.Compress,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open journal", err, "path", cfg.Journal.Path)
		return err
	}
	defer journal.Sync()

	tracker := account.NewTracker(cfg.StartingBalance)
	if err := tracker.WarmStart(trades); err != nil {
		logger.ErrorWithErr(ctx, "Failed to restore account from trade store", err)
		return err
	}
	st := tracker.Snapshot()
	logger.Info(ctx, "Account state restored",
		"equity", st.Equity,
		"daily_realized_pnl", st.DailyRealizedPnL,
		"trades_today", st.TradeCountToday,
		"open_position", st.OpenPosition != nil,
	)

	riskMgr, err := risk.New(cfg.Risk)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid risk limits", err)
		return err
	}

	brk, err := initializeBroker(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build broker", err)
		return err
	}
	if err := brk.Start(ctx, []string{cfg.Pair}); err != nil {
		logger.ErrorWithErr(ctx, "Broker session failed to start", err)
		return err
	}
	defer brk.Stop(context.Background())

	if cfg.Mode == "LIVE" {
		if equity, available, err := brk.Balance(ctx); err != nil {
			logger.Warn(ctx, "Could not read exchange balance, keeping restored equity", "error", err)
		} else {
			tracker.SyncBalance(equity, available)
			logger.Info(ctx, "Balance synced from exchange", "equity", equity, "available", available)
		}
	}

	judge := initializeJudge(ctx, cfg)
	newsSvc := initializeNews(cfg)
	sources := initializeSources(cfg, judge, newsSvc)

	decider, err := decision.New(cfg.SignalWeights(), cfg.MinConfidence)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid signal weights", err)
		return err
	}

	eng := engineobs.Wrap(engine.New(engine.Params{
		Cfg:     cfg,
		Broker:  brk,
		Sources: sources,
		Decider: decider,
		Risk:    riskMgr,
		Tracker: tracker,
		Trades:  trades,
		Journal: journal,
	}))

	summarizer := eodobs.Wrap(eod.New(eod.Params{Trades: trades, Journal: journal}))

	srv := server.New(server.Params{Cfg: cfg, Tracker: tracker, Risk: riskMgr, Trades: trades})
	go func() {
		if err := srv.Start(); err != nil {
			logger.ErrorWithErr(ctx, "Operator API failed", err)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.CycleSeconds) * time.Second)
	defer tick.Stop()
	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	logger.Info(ctx, "Bot started", "pair", cfg.Pair, "mode", cfg.Mode, "cycle_seconds", cfg.CycleSeconds)
	step(ctx, eng, srv, cfg.Pair)

	for {
		select {
		case <-tick.C:
			step(ctx, eng, srv, cfg.Pair)
		case <-eodTick.C:
			// Reports cover completed UTC days; failures are logged downstream.
			if due, _ := summarizer.ShouldRunNow(); due {
				_, _ = summarizer.SummarizeDay(time.Now().UTC().AddDate(0, 0, -1))
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			cancel()

			_, _ = summarizer.SummarizeToday()

			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn(shutdownCtx, "Operator API shutdown failed", "error", err)
			}
			return nil
		}
	}
}

func step(ctx context.Context, eng interfaces.Engine, srv *server.Server, pair string) {
	res, err := eng.Step(ctx, pair)
	if err != nil {
		logger.ErrorWithErr(ctx, "Trading step failed", err, "pair", pair)
		return
	}
	srv.RecordStep(res)
}
