// Package app wires the venue adapters, order tracker and hedging loop into
// the running bot. Quoting is a ticker-driven reconcile loop; hedging is
// event-driven off the quoting venue's fill stream and keeps running even
// when quoting is paused.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"maker-arb-bot/internal/alerts"
	"maker-arb-bot/internal/config"
	"maker-arb-bot/internal/exec"
	"maker-arb-bot/internal/metrics"
	"maker-arb-bot/internal/orders"
	"maker-arb-bot/internal/state"
	"maker-arb-bot/internal/state/sqlite"
	"maker-arb-bot/internal/strategy"
	"maker-arb-bot/internal/timescale"
	"maker-arb-bot/internal/venue"
	"maker-arb-bot/internal/venue/binance"
	"maker-arb-bot/internal/venue/lighter"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg       *config.Config
	log       *zap.Logger
	store     state.Store
	quoting   venue.Adapter
	reference venue.Adapter
	quoteExec *exec.Executor
	hedgeExec *exec.Executor
	tracker   *orders.Tracker
	metrics   *metrics.Metrics
	prom      *metrics.Prometheus
	alerts    *alerts.Telegram
	tsdb      *timescale.Writer

	opsMu          sync.RWMutex
	paused         bool
	operatorWarned bool

	recentMu      sync.Mutex
	recentOutcome []string
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(os.Getenv("BINANCE_API_KEY"))
	apiSecret := strings.TrimSpace(os.Getenv("BINANCE_API_SECRET"))
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET are required")
	}
	quotingSigner, err := binance.NewSigner(apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	quoting := binance.New(
		cfg.Quoting.BaseURL,
		cfg.Quoting.WSURL,
		cfg.Quoting.Timeout,
		cfg.Quoting.ReconnectDelay,
		cfg.Quoting.PingInterval,
		quotingSigner,
		log,
	)

	privateKey := strings.TrimSpace(os.Getenv("LIGHTER_PRIVATE_KEY"))
	if privateKey == "" {
		return nil, errors.New("LIGHTER_PRIVATE_KEY is required")
	}
	referenceSigner, err := lighter.NewSigner(privateKey, uint64(cfg.Reference.ChainID))
	if err != nil {
		return nil, err
	}
	reference := lighter.New(cfg.Reference.BaseURL, cfg.Reference.Timeout, referenceSigner, log)

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	tsdb, err := timescale.New(cfg.Timescale, log)
	if err != nil {
		return nil, fmt.Errorf("timescale: %w", err)
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		quoting:   quoting,
		reference: reference,
		quoteExec: exec.New(quoting, store, log),
		hedgeExec: exec.New(reference, store, log),
		tracker:   orders.New(cfg.Strategy.DriftThreshold, cfg.Strategy.OrderQuantity),
		metrics:   m,
		prom:      prom,
		alerts:    alerts.NewTelegram(cfg.Telegram, log),
		tsdb:      tsdb,
	}, nil
}

// Prometheus returns the metrics registry handler holder, nil when metrics
// are disabled.
func (a *App) Prometheus() *metrics.Prometheus {
	return a.prom
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	if err := a.quoting.Connect(ctx); err != nil {
		return fmt.Errorf("quoting venue connect: %w", err)
	}
	if err := a.reference.Connect(ctx); err != nil {
		return fmt.Errorf("reference venue connect: %w", err)
	}
	a.tsdb.Start(ctx)

	go func() {
		if err := a.quoting.SubscribeFills(ctx, func(fill venue.Fill) {
			a.handleFill(ctx, fill)
		}); err != nil && ctx.Err() == nil {
			a.log.Error("fill subscription ended", zap.Error(err))
		}
	}()

	a.resumePendingHedges(ctx)
	a.startOperator(ctx)

	a.log.Info("bot started",
		zap.String("quoting_symbol", a.cfg.Strategy.QuotingSymbol),
		zap.String("reference_symbol", a.cfg.Strategy.ReferenceSymbol),
		zap.Float64("order_quantity", a.cfg.Strategy.OrderQuantity),
		zap.Duration("refresh_interval", a.cfg.Strategy.RefreshInterval),
	)

	ticker := time.NewTicker(a.cfg.Strategy.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return ctx.Err()
		case <-ticker.C:
			if err := a.refreshCycle(ctx); err != nil {
				a.log.Warn("refresh cycle failed", zap.Error(err))
			}
		}
	}
}

// shutdown cancels resting quotes so the book is clean across restarts. The
// run context is already canceled here, so it uses its own deadline.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.cancelResting(ctx)
	if err := a.quoting.Disconnect(ctx); err != nil {
		a.log.Warn("quoting disconnect failed", zap.Error(err))
	}
	if err := a.reference.Disconnect(ctx); err != nil {
		a.log.Warn("reference disconnect failed", zap.Error(err))
	}
	if err := a.tsdb.Close(); err != nil {
		a.log.Warn("timescale close failed", zap.Error(err))
	}
	a.log.Info("bot stopped")
}

func (a *App) isPaused() bool {
	a.opsMu.RLock()
	defer a.opsMu.RUnlock()
	return a.paused
}

func (a *App) setPaused(paused bool) bool {
	a.opsMu.Lock()
	defer a.opsMu.Unlock()
	a.paused = paused
	return a.paused
}

const maxRecentOutcomes = 5

func (a *App) noteHedgeOutcome(outcome string) {
	a.recentMu.Lock()
	defer a.recentMu.Unlock()
	a.recentOutcome = append(a.recentOutcome, outcome)
	if len(a.recentOutcome) > maxRecentOutcomes {
		a.recentOutcome = a.recentOutcome[len(a.recentOutcome)-maxRecentOutcomes:]
	}
}

func (a *App) recentHedgeOutcomes() []string {
	a.recentMu.Lock()
	defer a.recentMu.Unlock()
	out := make([]string, len(a.recentOutcome))
	copy(out, a.recentOutcome)
	return out
}

func (a *App) strategyParams() strategy.Params {
	return strategy.Params{
		MakerFee:  a.cfg.Strategy.MakerFee,
		TakerFee:  a.cfg.Strategy.TakerFee,
		MinProfit: a.cfg.Strategy.MinProfit,
	}
}

func (a *App) riskLimits() strategy.RiskLimits {
	return strategy.RiskLimits{
		MaxOrderNotionalUSD: a.cfg.Risk.MaxOrderNotionalUSD,
		MaxMarketAge:        a.cfg.Risk.MaxMarketAge,
	}
}
