package strategy

import "sync"

type HedgeState string

type HedgeEvent string

const (
	HedgeReceived   HedgeState = "RECEIVED"
	HedgeSubmitting HedgeState = "SUBMITTING"
	HedgeConfirmed  HedgeState = "CONFIRMED"
	HedgeFailed     HedgeState = "FAILED"
)

const (
	EventSubmit  HedgeEvent = "SUBMIT"
	EventConfirm HedgeEvent = "CONFIRM"
	EventFail    HedgeEvent = "FAIL"
	EventRetry   HedgeEvent = "RETRY"
)

// HedgeMachine tracks one fill's hedge through its lifecycle. Confirmed is
// terminal; Failed can only re-enter Submitting via an explicit retry.
type HedgeMachine struct {
	mu    sync.Mutex
	State HedgeState
}

func NewHedgeMachine() *HedgeMachine {
	return &HedgeMachine{State: HedgeReceived}
}

func (m *HedgeMachine) Apply(event HedgeEvent) HedgeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State = nextHedgeState(m.State, event)
	return m.State
}

func (m *HedgeMachine) Current() HedgeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State
}

func nextHedgeState(current HedgeState, event HedgeEvent) HedgeState {
	switch current {
	case HedgeReceived:
		if event == EventSubmit {
			return HedgeSubmitting
		}
	case HedgeSubmitting:
		if event == EventConfirm {
			return HedgeConfirmed
		}
		if event == EventFail {
			return HedgeFailed
		}
	case HedgeFailed:
		if event == EventRetry {
			return HedgeSubmitting
		}
	}
	return current
}
