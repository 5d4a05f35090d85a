package world

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// gmSessions is the small, mutex-guarded global set of connections that
// have presented the shared GM password (spec §3, §4.9). It is process-global
// state, like the monster id counter, the room registry and the rate limiter.
// Redis keys are written and deleted as a mirror only; membership checks
// read the in-memory set alone.
type gmSessions struct {
	mu       sync.Mutex
	members  map[string]struct{}
	password string
	cache    *redis.Client
}

func newGMSessions(password string, cache *redis.Client) *gmSessions {
	return &gmSessions{members: make(map[string]struct{}), password: password, cache: cache}
}

func (g *gmSessions) configured() bool {
	return g.password != ""
}

func (g *gmSessions) authenticate(connID, password string) bool {
	if !g.configured() || password != g.password {
		return false
	}
	g.mu.Lock()
	g.members[connID] = struct{}{}
	g.mu.Unlock()
	if g.cache != nil {
		_ = g.cache.Set(context.Background(), "gm:session:"+connID, "1", time.Hour).Err()
	}
	return true
}

func (g *gmSessions) isMember(connID string) bool {
	g.mu.Lock()
	_, ok := g.members[connID]
	g.mu.Unlock()
	return ok
}

func (g *gmSessions) forget(connID string) {
	g.mu.Lock()
	delete(g.members, connID)
	g.mu.Unlock()
	if g.cache != nil {
		_ = g.cache.Del(context.Background(), "gm:session:"+connID).Err()
	}
}

// GmAuth handles the gmAuth event: spec §4.9.
func (s *Service) GmAuth(c *Client, msg GmAuthMsg) {
	if !s.gm.configured() {
		sendTo(c, "gmAuthResult", map[string]any{"success": false, "message": "GM system not configured"})
		return
	}
	if s.gm.authenticate(c.ConnID, msg.Password) {
		sendTo(c, "gmAuthResult", map[string]any{"success": true})
		return
	}
	sendTo(c, "gmAuthResult", map[string]any{"success": false, "message": "invalid password"})
}

// CheckGmAuth handles the checkGmAuth event: spec §4.9.
func (s *Service) CheckGmAuth(c *Client) {
	sendTo(c, "gmAuthStatus", map[string]any{"isGM": s.gm.isMember(c.ConnID)})
}
