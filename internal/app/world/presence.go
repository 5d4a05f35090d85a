package world

import (
	"context"
	"time"

	"sidescroller-server/internal/domain/game"
)

func buildPlayer(msg JoinMsg) *game.Player {
	facing := game.FacingRight
	return &game.Player{
		OdID:   msg.OdID,
		Name:   msg.Name,
		MapID:  msg.MapID,
		X:      msg.X,
		Y:      msg.Y,
		Facing: facing,
		Appearance: game.Appearance{
			Equipped:         msg.Equipped,
			CosmeticEquipped: msg.CosmeticEquipped,
			Customization:    msg.Customization,
			Guild:            msg.Guild,
			EquippedMedal:    msg.EquippedMedal,
			DisplayMedals:    msg.DisplayMedals,
		},
		HP:         100,
		MaxHP:      100,
		Level:      max(msg.Level, 1),
		PartyID:    msg.PartyID,
		LastUpdate: time.Now(),
	}
}

// Join implements spec §4.3's join transition: reject on missing identity,
// otherwise install the player, subscribe the connection, hand back the
// current roster and live-monster list, and announce the arrival to the
// rest of the room.
func (s *Service) Join(c *Client, msg JoinMsg) {
	if msg.OdID == "" || msg.Name == "" || msg.MapID == "" {
		sendTo(c, "error", map[string]string{"message": "odId, name, and mapId are required"})
		return
	}
	if msg.X == 0 && msg.Y == 0 && s.snapshots != nil {
		if snap, ok := s.snapshots.Load(context.Background(), msg.OdID); ok {
			msg.X, msg.Y = snap.X, snap.Y
		}
	}

	s.registry.ensureRoom(msg.MapID)
	done := make(chan struct{})
	ok := s.registry.Submit(msg.MapID, func(r *Room) {
		defer close(done)
		s.installPlayerLocked(r, c, msg)
	})
	if !ok {
		sendTo(c, "error", map[string]string{"message": "map is unavailable, try again"})
		return
	}
	<-done
	c.OdID = msg.OdID
	c.MapID = msg.MapID
	if s.telemetry != nil {
		s.telemetry.PublishPlayerJoined(msg.MapID, map[string]any{"odId": msg.OdID, "name": msg.Name})
	}
}

// installPlayerLocked runs on the room's own actor goroutine.
func (s *Service) installPlayerLocked(r *Room, c *Client, msg JoinMsg) {
	player := buildPlayer(msg)
	r.players[player.OdID] = player
	r.subscribers[player.OdID] = c

	sendTo(c, "currentPlayers", othersExcept(r, player.OdID))
	sendTo(c, "currentMonsters", r.liveMonsterList())

	r.broadcastExcept(player.OdID, "playerJoined", player)
}

func othersExcept(r *Room, exceptOdID string) []game.Player {
	out := make([]game.Player, 0, len(r.players))
	for odID, p := range r.players {
		if odID == exceptOdID {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Rejoin implements spec §4.3's rejoin transition: drop any odId the
// connection currently owns (plus an explicit oldOdId) before performing an
// ordinary join, used for character switching on the same socket.
func (s *Service) Rejoin(c *Client, msg RejoinMsg) {
	if c.OdID != "" {
		s.removeOdIDFromClient(c, c.OdID)
	}
	if msg.OldOdID != "" && msg.OldOdID != c.OdID {
		s.removeOdIDFromClient(c, msg.OldOdID)
	}
	s.Join(c, msg.JoinMsg)
}

func (s *Service) removeOdIDFromClient(c *Client, odID string) {
	mapID := c.MapID
	if mapID == "" {
		return
	}
	done := make(chan struct{})
	ok := s.registry.Submit(mapID, func(r *Room) {
		defer close(done)
		s.removePlayerLocked(r, odID)
	})
	if !ok {
		return
	}
	<-done
	if c.OdID == odID {
		c.OdID = ""
		c.MapID = ""
	}
}

// removePlayerLocked deletes odID from r and broadcasts playerLeft. It must
// run on r's own actor goroutine. Room destruction is attempted afterward;
// destroyRoom itself checks emptiness so this is safe even mid-transition.
func (s *Service) removePlayerLocked(r *Room, odID string) {
	if _, ok := r.players[odID]; !ok {
		return
	}
	delete(r.players, odID)
	delete(r.subscribers, odID)
	r.broadcast("playerLeft", map[string]string{"odId": odID})
	if r.empty() {
		s.registry.destroyRoom(r.mapID)
	}
}

// ChangeMap implements spec §4.3: atomically leave the old room and join
// the new one at the supplied spawn.
func (s *Service) ChangeMap(c *Client, msg ChangeMapMsg) {
	oldOdID, oldMapID := c.OdID, c.MapID
	if oldOdID == "" {
		return
	}
	if oldMapID == msg.NewMapID {
		return
	}

	var snapshotForLeaving *game.Player
	if oldMapID != "" {
		done := make(chan struct{})
		ok := s.registry.Submit(oldMapID, func(r *Room) {
			defer close(done)
			if p, ok := r.players[oldOdID]; ok {
				cp := *p
				snapshotForLeaving = &cp
			}
			s.removePlayerLocked(r, oldOdID)
		})
		if !ok {
			sendTo(c, "error", map[string]string{"message": "map is unavailable, try again"})
			return
		}
		<-done
	}

	name := oldOdID
	var joinMsg JoinMsg
	if snapshotForLeaving != nil {
		joinMsg = JoinMsg{
			OdID: oldOdID, Name: snapshotForLeaving.Name, MapID: msg.NewMapID,
			X: msg.X, Y: msg.Y,
			Equipped: snapshotForLeaving.Appearance.Equipped, CosmeticEquipped: snapshotForLeaving.Appearance.CosmeticEquipped,
			Customization: snapshotForLeaving.Appearance.Customization, Guild: snapshotForLeaving.Appearance.Guild,
			EquippedMedal: snapshotForLeaving.Appearance.EquippedMedal, DisplayMedals: snapshotForLeaving.Appearance.DisplayMedals,
			PartyID: snapshotForLeaving.PartyID, Level: snapshotForLeaving.Level,
		}
	} else {
		joinMsg = JoinMsg{OdID: oldOdID, Name: name, MapID: msg.NewMapID, X: msg.X, Y: msg.Y}
	}
	s.Join(c, joinMsg)
}

// Disconnect implements spec §4.3's disconnect transition.
func (s *Service) Disconnect(c *Client) {
	odID, mapID := c.OdID, c.MapID
	if odID == "" {
		return
	}
	var leaving *game.Player
	if mapID != "" {
		done := make(chan struct{})
		ok := s.registry.Submit(mapID, func(r *Room) {
			defer close(done)
			if p, ok := r.players[odID]; ok {
				cp := *p
				leaving = &cp
			}
			s.removePlayerLocked(r, odID)
		})
		if ok {
			<-done
		}
	}
	s.rateLimiter.Forget(odID)
	if leaving != nil && s.snapshots != nil {
		go s.snapshots.Save(context.Background(), game.AppearanceSnapshot{
			OdID: odID, MapID: mapID, X: leaving.X, Y: leaving.Y, Appearance: leaving.Appearance, UpdatedAt: time.Now(),
		})
	}
	c.OdID = ""
	c.MapID = ""
}

// runInactivitySweep is the 10s sweeper (spec §4.3) that treats any player
// whose lastUpdate exceeds the configured timeout as disconnected.
func (s *Service) runInactivitySweep() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepInactivePlayers()
		case <-s.quit:
			return
		}
	}
}

func (s *Service) sweepInactivePlayers() {
	now := time.Now()
	for _, mapID := range s.registry.AllMapIDs() {
		mapID := mapID
		s.registry.Submit(mapID, func(r *Room) {
			var stale []string
			for odID, p := range r.players {
				if now.Sub(p.LastUpdate) > s.cfg.PlayerTimeout {
					stale = append(stale, odID)
				}
			}
			for _, odID := range stale {
				if c, ok := r.subscribers[odID]; ok && c.Conn != nil {
					_ = c.Conn.Close()
				}
				s.rateLimiter.Forget(odID)
				s.removePlayerLocked(r, odID)
			}
		})
	}
}
