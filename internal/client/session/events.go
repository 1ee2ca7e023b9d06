package session

import (
	"context"
	"fmt"

	"github.com/suraj-driod/swa-antarang/internal/metrics"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

// queuedEvent pairs a pushed event with the generation current when it arrived.
type queuedEvent struct {
	ev  models.AuthEvent
	gen uint64
}

// enqueue is the backend subscription callback. It never blocks: the
// backend may emit from inside a call made by the event loop itself.
func (c *Controller) enqueue(ev models.AuthEvent) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, queuedEvent{ev: ev, gen: c.gen})
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) pop() (queuedEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || len(c.queue) == 0 {
		return queuedEvent{}, false
	}
	q := c.queue[0]
	c.queue = c.queue[1:]
	return q, true
}

// loop handles events one at a time in arrival order.
func (c *Controller) loop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}
		for {
			q, ok := c.pop()
			if !ok {
				break
			}
			c.handle(q)
		}
	}
}

func (c *Controller) handle(q queuedEvent) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	switch q.ev.Type {
	case models.EventInitialSession:
		// bootstrap covers the initial state
	case models.EventSignedOut:
		c.onSignedOut(ctx, q)
	case models.EventTokenRefreshed:
		c.onTokenRefreshed(ctx, q)
	default:
		c.log.Debug(ctx, "auth event ignored", "event", q.ev.Type)
	}
}

func (c *Controller) onSignedOut(ctx context.Context, q queuedEvent) {
	c.mu.Lock()
	if !c.alive || q.gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.advanceLocked()
	had := c.identity != nil
	c.identity = nil
	c.mu.Unlock()

	if had {
		metrics.SessionTransitions.WithLabelValues("signed_out").Inc()
		c.log.Info(ctx, "identity cleared", "event", "signed_out")
	}
}

// onTokenRefreshed reloads the profile for the refreshed session. It runs
// under the generation the event arrived in without starting a new one, so a
// concurrent login for the same session is not invalidated. Its load is
// numbered like any other, so a slower load started earlier cannot overwrite
// the reloaded identity.
func (c *Controller) onTokenRefreshed(ctx context.Context, q queuedEvent) {
	if !c.current(q.gen) {
		return
	}
	gen := q.gen
	seq := c.nextSeq()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error(ctx, "token refresh handler panicked", "panic", fmt.Sprint(r))
			c.cleanSession(ctx, gen, seq)
		}
	}()

	userID := q.ev.Session.UserID()
	if userID == "" {
		c.log.Warn(ctx, "refreshed session carries no user")
		c.cleanSession(ctx, gen, seq)
		return
	}

	id, err := c.loader.Load(ctx, userID)
	if err != nil {
		c.log.Info(ctx, "profile reload after refresh failed", "user_id", userID, "error", err)
		c.cleanSession(ctx, gen, seq)
		return
	}
	c.commit(gen, seq, id, "refreshed")
}
