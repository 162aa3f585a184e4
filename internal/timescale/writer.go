// Package timescale records quote cycles and fill/hedge outcomes to
// TimescaleDB for offline analysis. Writes are queued and best-effort; a
// full queue drops records rather than stalling the trading loops.
package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"maker-arb-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// QuoteCycle is one refresh loop iteration worth recording.
type QuoteCycle struct {
	Time        time.Time
	RefBid      float64
	RefAsk      float64
	BidTarget   float64
	AskTarget   float64
	BidAction   string
	AskAction   string
	BidResting  float64
	AskResting  float64
	CycleTimeMS int64
}

// HedgeRecord captures one maker fill and the outcome of its hedge.
type HedgeRecord struct {
	Time        time.Time
	FillKey     string
	MakerSide   string
	HedgeSide   string
	Quantity    float64
	FillPrice   float64
	HedgePrice  float64
	Outcome     string
	HedgeTimeMS int64
}

type Writer struct {
	db      *sql.DB
	log     *zap.Logger
	schema  string
	cycles  chan QuoteCycle
	hedges  chan HedgeRecord
	started atomic.Bool

	dropCycles atomic.Uint64
	dropHedges atomic.Uint64
}

func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	writer := &Writer{
		db:     db,
		log:    log,
		schema: schema,
		cycles: make(chan QuoteCycle, 256),
		hedges: make(chan HedgeRecord, 256),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueCycle(cycle QuoteCycle) {
	if w == nil {
		return
	}
	select {
	case w.cycles <- cycle:
		return
	default:
		if w.dropCycles.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale cycle queue full")
		}
	}
}

func (w *Writer) EnqueueHedge(record HedgeRecord) {
	if w == nil {
		return
	}
	select {
	case w.hedges <- record:
		return
	default:
		if w.dropHedges.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale hedge queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cycle := <-w.cycles:
			w.writeCycle(ctx, cycle)
		case record := <-w.hedges:
			w.writeHedge(ctx, record)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		ref_bid DOUBLE PRECISION NOT NULL,
		ref_ask DOUBLE PRECISION NOT NULL,
		bid_target DOUBLE PRECISION NOT NULL,
		ask_target DOUBLE PRECISION NOT NULL,
		bid_action TEXT NOT NULL,
		ask_action TEXT NOT NULL,
		bid_resting DOUBLE PRECISION NOT NULL,
		ask_resting DOUBLE PRECISION NOT NULL,
		cycle_time_ms BIGINT NOT NULL
	)`, w.table("quote_cycles"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		fill_key TEXT NOT NULL,
		maker_side TEXT NOT NULL,
		hedge_side TEXT NOT NULL,
		quantity DOUBLE PRECISION NOT NULL,
		fill_price DOUBLE PRECISION NOT NULL,
		hedge_price DOUBLE PRECISION NOT NULL,
		outcome TEXT NOT NULL,
		hedge_time_ms BIGINT NOT NULL
	)`, w.table("hedge_outcomes"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	for _, table := range []string{"quote_cycles", "hedge_outcomes"} {
		if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table(table))); err != nil && w.log != nil {
			w.log.Warn("timescale hypertable create failed", zap.String("table", table), zap.Error(err))
		}
	}
	return nil
}

func (w *Writer) writeCycle(ctx context.Context, cycle QuoteCycle) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, ref_bid, ref_ask, bid_target, ask_target, bid_action, ask_action,
		bid_resting, ask_resting, cycle_time_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, w.table("quote_cycles"))
	if _, err := w.db.ExecContext(ctx, query,
		cycle.Time,
		cycle.RefBid,
		cycle.RefAsk,
		cycle.BidTarget,
		cycle.AskTarget,
		cycle.BidAction,
		cycle.AskAction,
		cycle.BidResting,
		cycle.AskResting,
		cycle.CycleTimeMS,
	); err != nil && w.log != nil {
		w.log.Warn("timescale cycle insert failed", zap.Error(err))
	}
}

func (w *Writer) writeHedge(ctx context.Context, record HedgeRecord) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, fill_key, maker_side, hedge_side, quantity, fill_price, hedge_price,
		outcome, hedge_time_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, w.table("hedge_outcomes"))
	if _, err := w.db.ExecContext(ctx, query,
		record.Time,
		record.FillKey,
		record.MakerSide,
		record.HedgeSide,
		record.Quantity,
		record.FillPrice,
		record.HedgePrice,
		record.Outcome,
		record.HedgeTimeMS,
	); err != nil && w.log != nil {
		w.log.Warn("timescale hedge insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
