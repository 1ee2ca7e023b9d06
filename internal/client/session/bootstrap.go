package session

import (
	"context"
	"fmt"
)

// bootstrap restores the persisted session. It never fails: a dead session,
// a missing profile or a panic all end in cleanSession, and Loading is turned
// off on every path.
func (c *Controller) bootstrap(ctx context.Context, gen uint64) {
	outcome := "none"
	var seq uint64
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(ctx, "bootstrap panicked", "panic", fmt.Sprint(r))
			if seq == 0 {
				seq = c.nextSeq()
			}
			c.cleanSession(ctx, gen, seq)
			outcome = "cleaned"
		}
		c.finishLoading(outcome)
	}()

	s, err := c.backend.ReadSession(ctx)
	if err != nil {
		c.log.Warn(ctx, "persisted session unreadable", "error", err)
		c.cleanSession(ctx, gen, c.nextSeq())
		outcome = "cleaned"
		return
	}
	if s == nil {
		return
	}

	u, err := c.backend.GetCurrentUser(ctx)
	if err != nil || u == nil {
		c.log.Info(ctx, "persisted session rejected", "error", err)
		c.cleanSession(ctx, gen, c.nextSeq())
		outcome = "cleaned"
		return
	}

	seq = c.nextSeq()
	id, err := c.loader.Load(ctx, u.ID)
	if err != nil {
		c.log.Info(ctx, "no profile for restored session", "user_id", u.ID, "error", err)
		c.cleanSession(ctx, gen, seq)
		outcome = "cleaned"
		return
	}

	if c.commit(gen, seq, id, "bootstrap") {
		outcome = "restored"
	}
}
