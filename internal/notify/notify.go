// Package notify keeps a transient status banner that clears itself a few
// seconds after being set. The clear runs on its own timer goroutine so it
// never blocks or serializes with booking commands.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notice is the banner content plus a severity hint for the caller.
type Notice struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notifier holds at most one pending notice. A new Set supersedes the
// pending clear of the previous one.
type Notifier struct {
	ttl    time.Duration
	logger *zerolog.Logger

	mu     sync.Mutex
	notice Notice
	gen    uint64
	timer  *time.Timer
	closed bool
}

// New creates a notifier whose notices expire after ttl.
func New(ttl time.Duration, logger *zerolog.Logger) *Notifier {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &Notifier{ttl: ttl, logger: logger}
}

// Set publishes a notice and schedules its clearing. Safe to call after
// Close; it then does nothing.
func (n *Notifier) Set(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	n.notice = Notice{Message: message, Level: level}
	n.gen++
	gen := n.gen

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.ttl, func() {
		n.clear(gen)
	})

	n.logger.Debug().Str("level", level).Str("message", message).Msg("notice set")
}

// clear resets the banner if no newer notice replaced it in the meantime.
func (n *Notifier) clear(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || n.gen != gen {
		return
	}
	n.notice = Notice{}
	n.logger.Debug().Msg("notice expired")
}

// Current returns the visible notice, empty once expired.
func (n *Notifier) Current() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notice
}

// Close tears the notifier down. A timer that fires afterwards is a no-op,
// so the hosting view can go away before the clear runs.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	n.notice = Notice{}
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.logger.Debug().Msg("notifier closed")
}
