package tradelog

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/temaptz/trade-agent/internal/types"
)

// Journal is the append-only audit record of every cycle: decisions,
// risk outcomes, fills, closes, halts. One JSON line per event, rotated
// by size and age. The slog pipeline is for operators; the journal is
// replayable data.
type Journal struct {
	lg *zap.Logger
}

type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func New(opts Options) (*Journal, error) {
	if opts.Path == "" {
		opts.Path = filepath.Join("data", "journal.jsonl")
	}
	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "event"
	encCfg.LevelKey = zapcore.OmitKey
	encCfg.CallerKey = zapcore.OmitKey
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	})

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zapcore.InfoLevel)
	return &Journal{lg: zap.New(core)}, nil
}

func (j *Journal) Decision(pair string, price float64, d types.Decision) {
	j.lg.Info("decision",
		zap.String("pair", pair),
		zap.Float64("price", price),
		zap.String("direction", string(d.Direction)),
		zap.Float64("aggregate_strength", d.AggregateStrength),
		zap.Float64("aggregate_confidence", d.AggregateConfidence),
		zap.Bool("gated", d.Gated),
		zap.Any("signals", d.Signals),
	)
}

func (j *Journal) Outcome(pair string, d types.Decision, o types.Outcome) {
	fields := []zap.Field{
		zap.String("pair", pair),
		zap.String("direction", string(d.Direction)),
		zap.String("verdict", string(o.Verdict)),
	}
	if o.Reason != "" {
		fields = append(fields, zap.String("reason", o.Reason))
	}
	if o.Approved() {
		fields = append(fields,
			zap.Float64("size", o.Size),
			zap.Float64("stop_loss_price", o.StopLossPrice),
			zap.Float64("take_profit_price", o.TakeProfitPrice),
			zap.Bool("close_existing", o.CloseExisting),
		)
	}
	j.lg.Info("outcome", fields...)
}

func (j *Journal) Trade(pair, side string, qty, price float64, orderID, reason string) {
	j.lg.Info("trade",
		zap.String("pair", pair),
		zap.String("side", side),
		zap.Float64("quantity", qty),
		zap.Float64("price", price),
		zap.String("order_id", orderID),
		zap.String("reason", reason),
	)
}

func (j *Journal) PositionClosed(pair string, pnl float64, reason string) {
	j.lg.Info("position_closed",
		zap.String("pair", pair),
		zap.Float64("realized_pnl", pnl),
		zap.String("reason", reason),
	)
}

func (j *Journal) Halt(pair, reason string) {
	j.lg.Warn("halt",
		zap.String("pair", pair),
		zap.String("reason", reason),
	)
}

func (j *Journal) DaySummary(day string, trades int, realizedPnL float64, csvPath string) {
	j.lg.Info("day_summary",
		zap.String("day", day),
		zap.Int("trades", trades),
		zap.Float64("realized_pnl", realizedPnL),
		zap.String("csv_path", csvPath),
	)
}

// Sync flushes buffered lines; call before shutdown
func (j *Journal) Sync() error {
	return j.lg.Sync()
}
