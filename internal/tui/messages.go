package tui

import (
	"time"

	"github.com/verte-zerg/typemaster/internal/session"
)

// metricsTickMsg drives the 1s metrics refresh. Ticks whose id is stale
// are dropped without rescheduling.
type metricsTickMsg struct {
	id int
	at time.Time
}

// textMsg carries a fetched paragraph back to the update loop.
type textMsg struct {
	req      session.Request
	text     string
	prefetch bool
}
