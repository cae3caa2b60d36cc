package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepAt is the tracked user count that triggers removal of idle limiters.
const sweepAt = 1024

// Cooldown limits each user to one command per interval.
type Cooldown struct {
	users    map[string]*userLimit
	now      func() time.Time
	interval time.Duration
	mu       sync.Mutex
}

type userLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCooldown creates a per-user limiter. A zero interval disables it.
func NewCooldown(interval time.Duration) *Cooldown {
	return &Cooldown{
		users:    make(map[string]*userLimit),
		now:      time.Now,
		interval: interval,
	}
}

// Allow reports whether user may run a command now, and how long to wait otherwise.
func (c *Cooldown) Allow(user string) (bool, time.Duration) {
	if c.interval <= 0 {
		return true, 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.users) >= sweepAt {
		for id, u := range c.users {
			if now.Sub(u.lastSeen) > c.interval {
				delete(c.users, id)
			}
		}
	}

	u, ok := c.users[user]
	if !ok {
		u = &userLimit{limiter: rate.NewLimiter(rate.Every(c.interval), 1)}
		c.users[user] = u
	}
	u.lastSeen = now

	r := u.limiter.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}

	return true, 0
}
