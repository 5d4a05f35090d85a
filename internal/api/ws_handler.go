package api

import (
	"encoding/json"
	"time"

	worldapp "sidescroller-server/internal/app/world"
)

// inbound is the wire shape of every client -> server message: an event
// name plus its JSON payload, mirroring worldapp's own envelope (spec §6).
type inbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// relayRenames implements spec §4.7's opaque visual-relay table: incoming
// event name -> outgoing event name broadcast to the rest of the room.
var relayRenames = map[string]string{
	"playerVFX":           "remotePlayerVFX",
	"playerProjectile":    "remoteProjectile",
	"playerProjectileHit": "remoteProjectileHit",
	"playerSkillVFX":      "remoteSkillVFX",
}

// readPump decodes each envelope and dispatches it to the matching
// worldapp.Service method. A payload that doesn't parse into the event's
// expected shape yields a single unicast error and the loop continues
// (spec §7 item 1) — it never tears down the connection.
func (h *Handler) readPump(client *worldapp.Client) {
	defer h.world.UnregisterClient(client)
	if client.Conn == nil {
		return
	}
	client.Conn.SetReadLimit(int64(h.maxBodySize))
	_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg inbound
		if err := client.Conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(client, msg)
	}
}

func (h *Handler) dispatch(client *worldapp.Client, msg inbound) {
	decode := func(v any) bool {
		if len(msg.Payload) == 0 {
			return true
		}
		if err := json.Unmarshal(msg.Payload, v); err != nil {
			h.world.SendError(client, "malformed "+msg.Event+" payload")
			return false
		}
		return true
	}

	switch msg.Event {
	case "join":
		var m worldapp.JoinMsg
		if decode(&m) {
			h.world.Join(client, m)
		}
	case "rejoin":
		var m worldapp.RejoinMsg
		if decode(&m) {
			h.world.Rejoin(client, m)
		}
	case "updatePosition":
		var m worldapp.UpdatePositionMsg
		if decode(&m) {
			h.world.UpdatePosition(client, m)
		}
	case "changeMap":
		var m worldapp.ChangeMapMsg
		if decode(&m) {
			h.world.ChangeMap(client, m)
		}
	case "chatMessage":
		var m worldapp.ChatMessageMsg
		if decode(&m) {
			h.world.ChatMessage(client, m)
		}
	case "initMapMonsters":
		var m worldapp.InitMapMonstersMsg
		if decode(&m) {
			h.world.InitMapMonsters(client, m)
		}
	case "attackMonster":
		var m worldapp.AttackMonsterMsg
		if decode(&m) {
			h.world.AttackMonster(client, m)
		}
	case "transformElite":
		var m worldapp.TransformEliteMsg
		if decode(&m) {
			h.world.TransformElite(client, m)
		}
	case "itemPickup":
		var m worldapp.ItemPickupMsg
		if decode(&m) {
			h.world.ItemPickup(client, m)
		}
	case "playerDropItem":
		var m worldapp.PlayerDropItemMsg
		if decode(&m) {
			h.world.PlayerDropItem(client, m)
		}
	case "updateParty":
		var m worldapp.UpdatePartyMsg
		if decode(&m) {
			h.world.UpdateParty(client, m)
		}
	case "updatePartyStats":
		var m worldapp.UpdatePartyStatsMsg
		if decode(&m) {
			h.world.UpdatePartyStats(client, m)
		}
	case "sharePartyGold":
		var m worldapp.SharePartyGoldMsg
		if decode(&m) {
			h.world.SharePartyGold(client, m)
		}
	case "updateAppearance":
		var m worldapp.RelayMsg
		if decode(&m) {
			h.world.UpdateAppearance(client, m)
		}
	case "playerDeath":
		var m worldapp.RelayMsg
		if decode(&m) {
			h.world.PlayerDeath(client, m)
		}
	case "playerRespawn":
		var m worldapp.RelayMsg
		if decode(&m) {
			h.world.PlayerRespawn(client, m)
		}
	case "gmAuth":
		var m worldapp.GmAuthMsg
		if decode(&m) {
			h.world.GmAuth(client, m)
		}
	case "checkGmAuth":
		h.world.CheckGmAuth(client)
	case "latencyPing":
		var m worldapp.RelayMsg
		if decode(&m) {
			h.world.LatencyPing(client, m)
		}
	case "requestMonsters":
		h.world.RequestMonsters(client)
	case "playerVFX", "playerProjectile", "playerProjectileHit", "playerSkillVFX":
		var m worldapp.RelayMsg
		if decode(&m) {
			h.world.Relay(client, relayRenames[msg.Event], m)
		}
	default:
		h.world.SendError(client, "unknown event: "+msg.Event)
	}
}
