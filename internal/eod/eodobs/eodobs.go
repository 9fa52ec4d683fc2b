package eodobs

import (
	"context"
	"time"

	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/trace"
)

type observableSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableSummarizer{
		summarizer: summarizer,
	}
}

func (obs *observableSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "eod.SummarizeDay")
	defer span.End()

	day := t.UTC().Format("2006-01-02")
	csvPath, err := obs.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Day report failed", err,
			"day", day,
		)
		return "", err
	}

	if csvPath == "" {
		logger.DebugSkip(ctx, 1, "No trades to report",
			"day", day,
		)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Day report written",
		"day", day,
		"csv_path", csvPath,
	)
	return csvPath, nil
}

func (obs *observableSummarizer) SummarizeToday() (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "eod.SummarizeToday")
	defer span.End()

	csvPath, err := obs.summarizer.SummarizeToday()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Day report failed", err)
		return "", err
	}

	if csvPath == "" {
		logger.DebugSkip(ctx, 1, "No trades to report today")
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Day report written",
		"csv_path", csvPath,
	)
	return csvPath, nil
}

func (obs *observableSummarizer) ShouldRunNow() (bool, string) {
	ctx, span := trace.StartSpan(context.Background(), "eod.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := obs.summarizer.ShouldRunNow()

	logger.DebugSkip(ctx, 1, "Day report check",
		"should_run", shouldRun,
		"csv_path", csvPath,
	)
	return shouldRun, csvPath
}
