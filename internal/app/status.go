package app

import (
	"maker-arb-bot/internal/orders"
)

// Status is a read-only view of the engine for operators and diagnostics.
type Status struct {
	Paused       bool
	Resting      map[orders.Side]orders.Resting
	RecentHedges []string
}

func (a *App) Status() Status {
	return Status{
		Paused:       a.isPaused(),
		Resting:      a.tracker.Snapshot(),
		RecentHedges: a.recentHedgeOutcomes(),
	}
}
