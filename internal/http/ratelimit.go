package http

import (
	"sync"
	"time"
)

const (
	// mutationRateLimit caps write requests per client IP per window.
	mutationRateLimit = 60
	limitWindow       = time.Minute

	sweepInterval = 5 * time.Minute
	staleAfter    = 10 * time.Minute
)

// rateLimiter is a fixed-window counter keyed by client IP. Each client's
// window resets lazily on the first request past the window boundary; a
// background sweep evicts clients that have gone quiet.
type rateLimiter struct {
	limit int

	mu      sync.Mutex
	windows map[string]*requestWindow

	done     chan struct{}
	stopOnce sync.Once
}

type requestWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		limit:   limit,
		windows: make(map[string]*requestWindow),
		done:    make(chan struct{}),
	}
	go rl.run()
	return rl
}

func (rl *rateLimiter) run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.sweep(now)
		case <-rl.done:
			return
		}
	}
}

// sweep drops windows whose clients have not been seen since staleAfter.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, w := range rl.windows {
		if now.Sub(w.start) > staleAfter {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *rateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.windows[ip]
	if w == nil || now.Sub(w.start) >= limitWindow {
		rl.windows[ip] = &requestWindow{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= rl.limit
}
