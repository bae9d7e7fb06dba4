package adapters

import (
	"sync"
	"time"
)

// UpgradeLimiter bounds how often one client token may open a socket,
// over a sliding window. Reconnect storms from a broken player script
// otherwise churn the registry and the close-broadcast path.
type UpgradeLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
}

func NewUpgradeLimiter(limit int, interval time.Duration) *UpgradeLimiter {
	return &UpgradeLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *UpgradeLimiter) Allow(token string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[token]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[token] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[token] = fresh
	return true
}
