package world

import (
	"time"

	"sidescroller-server/internal/domain/game"
)

// The handlers in this file implement spec §4.7: pure relays scoped to the
// sender's room. None of them touch monster, combat, or loot state; they
// exist only so room members observe each other's client-driven visuals.

// UpdatePosition relays the sender's transform to the rest of the room and
// refreshes the liveness stamp the inactivity sweep (§4.3) consults.
func (s *Service) UpdatePosition(c *Client, msg UpdatePositionMsg) {
	odID, mapID := c.OdID, c.MapID
	if odID == "" || mapID == "" {
		return
	}
	if !s.rateLimiter.Admit(odID, actionPosition) {
		return
	}
	s.registry.Submit(mapID, func(r *Room) {
		p, ok := r.players[odID]
		if !ok {
			return
		}
		p.X, p.Y = msg.X, msg.Y
		p.VelocityX, p.VelocityY = msg.VelocityX, msg.VelocityY
		p.AnimationState = msg.AnimationState
		if msg.Facing != "" {
			p.Facing = game.Facing(msg.Facing)
		}
		p.ActiveBuffs = msg.ActiveBuffs
		p.Pet = msg.Pet
		p.LastUpdate = time.Now()
		r.broadcastExcept(odID, "playerMoved", map[string]any{
			"odId": odID, "x": p.X, "y": p.Y, "facing": p.Facing, "animationState": p.AnimationState,
			"velocityX": p.VelocityX, "velocityY": p.VelocityY, "activeBuffs": p.ActiveBuffs, "pet": p.Pet,
		})
	})
}

// ChatMessage relays chatMessage -> playerChat to the whole room.
func (s *Service) ChatMessage(c *Client, msg ChatMessageMsg) {
	if c.OdID == "" || c.MapID == "" {
		return
	}
	s.registry.Submit(c.MapID, func(r *Room) {
		r.broadcast("playerChat", map[string]any{"odId": c.OdID, "message": msg.Message})
	})
}

// Relay dispatches one of the opaque visual-relay events named in spec
// §4.7 to the rest of the sender's room, renaming per the event table.
func (s *Service) Relay(c *Client, outEvent string, msg RelayMsg) {
	if c.OdID == "" || c.MapID == "" {
		return
	}
	payload := make(RelayMsg, len(msg)+1)
	for k, v := range msg {
		payload[k] = v
	}
	payload["odId"] = c.OdID
	s.registry.Submit(c.MapID, func(r *Room) {
		r.broadcastExcept(c.OdID, outEvent, payload)
	})
}

// UpdateAppearance relays updateAppearance -> playerAppearanceUpdated.
func (s *Service) UpdateAppearance(c *Client, msg RelayMsg) {
	s.Relay(c, "playerAppearanceUpdated", msg)
}

// UpdateParty relays updateParty -> playerPartyUpdated and records the
// party id on the player so loot-sharing (§4.6) and monsterKilled's
// partyMembers computation (§4.5) can see it.
func (s *Service) UpdateParty(c *Client, msg UpdatePartyMsg) {
	if c.OdID == "" || c.MapID == "" {
		return
	}
	s.registry.Submit(c.MapID, func(r *Room) {
		if p, ok := r.players[c.OdID]; ok {
			p.PartyID = msg.PartyID
		}
		r.broadcastExcept(c.OdID, "playerPartyUpdated", map[string]any{"odId": c.OdID, "partyId": msg.PartyID})
	})
}

// UpdatePartyStats relays updatePartyStats -> partyMemberStats.
func (s *Service) UpdatePartyStats(c *Client, msg UpdatePartyStatsMsg) {
	if c.OdID == "" || c.MapID == "" {
		return
	}
	s.registry.Submit(c.MapID, func(r *Room) {
		if p, ok := r.players[c.OdID]; ok {
			p.HP, p.MaxHP, p.Level, p.Exp, p.MaxExp = msg.HP, msg.MaxHP, msg.Level, msg.Exp, msg.MaxExp
		}
		r.broadcastExcept(c.OdID, "partyMemberStats", map[string]any{
			"odId": c.OdID, "hp": msg.HP, "maxHp": msg.MaxHP, "level": msg.Level, "exp": msg.Exp, "maxExp": msg.MaxExp,
		})
	})
}

// PlayerDeath relays playerDeath -> playerDied.
func (s *Service) PlayerDeath(c *Client, msg RelayMsg) {
	s.Relay(c, "playerDied", msg)
}

// PlayerRespawn relays playerRespawn -> playerRespawned.
func (s *Service) PlayerRespawn(c *Client, msg RelayMsg) {
	s.Relay(c, "playerRespawned", msg)
}

// LatencyPing answers with latencyPong, the sole liveness signal spec §5
// grants outside the inactivity sweep.
func (s *Service) LatencyPing(c *Client, msg RelayMsg) {
	sendTo(c, "latencyPong", msg)
}

// RequestMonsters unicasts the current live-monster list, per spec §4.7.
func (s *Service) RequestMonsters(c *Client) {
	if c.MapID == "" {
		return
	}
	s.registry.Submit(c.MapID, func(r *Room) {
		sendTo(c, "currentMonsters", r.liveMonsterList())
	})
}
