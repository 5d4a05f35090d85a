package world

import (
	"testing"

	"sidescroller-server/internal/domain/game"
)

func setupRelayRoom(t *testing.T, svc *Service, mapID string, players ...*game.Player) map[string]*Client {
	t.Helper()
	clients := make(map[string]*Client, len(players))
	done := make(chan struct{})
	svc.registry.ensureRoom(mapID)
	svc.registry.Submit(mapID, func(r *Room) {
		defer close(done)
		for _, p := range players {
			c := newTestClient()
			c.OdID, c.MapID = p.OdID, mapID
			clients[p.OdID] = c
			r.players[p.OdID] = p
			r.subscribers[p.OdID] = c
		}
	})
	<-done
	return clients
}

func TestUpdatePositionBroadcastsAndRefreshesLastUpdate(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	p2 := &game.Player{OdID: "p2"}
	clients := setupRelayRoom(t, svc, "map-1", p1, p2)

	svc.UpdatePosition(clients["p1"], UpdatePositionMsg{X: 10, Y: 20, Facing: "left"})
	syncRoom(t, svc, "map-1")

	env := readEnvelope(t, clients["p2"])
	if env.Event != "playerMoved" {
		t.Fatalf("expected playerMoved, got %s", env.Event)
	}
	if p1.LastUpdate.IsZero() {
		t.Fatal("expected LastUpdate to be refreshed")
	}
	if p1.Facing != game.Facing("left") {
		t.Fatalf("expected facing to be updated, got %v", p1.Facing)
	}

	select {
	case <-clients["p1"].Send:
		t.Fatal("sender should not receive its own playerMoved broadcast")
	default:
	}
}

func TestUpdatePositionRespectsRateLimit(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	clients := setupRelayRoom(t, svc, "map-1", p1)
	c := clients["p1"]

	for i := 0; i < actionCaps[actionPosition]; i++ {
		svc.UpdatePosition(c, UpdatePositionMsg{X: float64(i)})
	}
	syncRoom(t, svc, "map-1")
	xAfterCap := p1.X

	svc.UpdatePosition(c, UpdatePositionMsg{X: 9999})
	syncRoom(t, svc, "map-1")
	if p1.X != xAfterCap {
		t.Fatalf("expected rate-limited update to be dropped, x changed from %v to %v", xAfterCap, p1.X)
	}
}

func TestChatMessageBroadcastsToWholeRoom(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	p2 := &game.Player{OdID: "p2"}
	clients := setupRelayRoom(t, svc, "map-1", p1, p2)

	svc.ChatMessage(clients["p1"], ChatMessageMsg{Message: "hi"})
	syncRoom(t, svc, "map-1")

	if env := readEnvelope(t, clients["p2"]); env.Event != "playerChat" {
		t.Fatalf("expected playerChat for other player, got %s", env.Event)
	}
	if env := readEnvelope(t, clients["p1"]); env.Event != "playerChat" {
		t.Fatalf("expected sender to also receive playerChat, got %s", env.Event)
	}
}

func TestRelayRenamesEventAndStampsOdID(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	p2 := &game.Player{OdID: "p2"}
	clients := setupRelayRoom(t, svc, "map-1", p1, p2)

	svc.Relay(clients["p1"], "remotePlayerVFX", RelayMsg{"vfxId": "slash"})
	syncRoom(t, svc, "map-1")

	env := readEnvelope(t, clients["p2"])
	if env.Event != "remotePlayerVFX" {
		t.Fatalf("expected remotePlayerVFX, got %s", env.Event)
	}
	payload, ok := env.Payload.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload shape: %#v", env.Payload)
	}
	if payload["odId"] != "p1" {
		t.Fatalf("expected odId to be stamped onto relay payload, got %v", payload["odId"])
	}

	select {
	case <-clients["p1"].Send:
		t.Fatal("sender should not receive its own relay")
	default:
	}
}

func TestUpdatePartyRecordsPartyIDAndBroadcasts(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	p2 := &game.Player{OdID: "p2"}
	clients := setupRelayRoom(t, svc, "map-1", p1, p2)

	svc.UpdateParty(clients["p1"], UpdatePartyMsg{PartyID: "party-9"})
	syncRoom(t, svc, "map-1")

	if p1.PartyID != "party-9" {
		t.Fatalf("expected player's PartyID to be recorded, got %q", p1.PartyID)
	}
	if env := readEnvelope(t, clients["p2"]); env.Event != "playerPartyUpdated" {
		t.Fatalf("expected playerPartyUpdated, got %s", env.Event)
	}
}

func TestUpdatePartyStatsRecordsStatsAndBroadcasts(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	p2 := &game.Player{OdID: "p2"}
	clients := setupRelayRoom(t, svc, "map-1", p1, p2)

	svc.UpdatePartyStats(clients["p1"], UpdatePartyStatsMsg{HP: 40, MaxHP: 100, Level: 5, Exp: 10, MaxExp: 200})
	syncRoom(t, svc, "map-1")

	if p1.HP != 40 || p1.MaxHP != 100 || p1.Level != 5 || p1.Exp != 10 || p1.MaxExp != 200 {
		t.Fatalf("expected player stats recorded, got %+v", p1)
	}
	if env := readEnvelope(t, clients["p2"]); env.Event != "partyMemberStats" {
		t.Fatalf("expected partyMemberStats, got %s", env.Event)
	}
}

func TestLatencyPingEchoesPong(t *testing.T) {
	svc := newTestService(t)
	c := newTestClient()
	svc.LatencyPing(c, RelayMsg{"clientTime": float64(123)})
	env := readEnvelope(t, c)
	if env.Event != "latencyPong" {
		t.Fatalf("expected latencyPong, got %s", env.Event)
	}
}

func TestRequestMonstersUnicastsLiveList(t *testing.T) {
	svc := newTestService(t)
	p1 := &game.Player{OdID: "p1"}
	clients := setupRelayRoom(t, svc, "map-1", p1)
	done := make(chan struct{})
	svc.registry.Submit("map-1", func(r *Room) {
		defer close(done)
		r.monsters["m1"] = &game.Monster{ID: "m1", Type: "slime"}
	})
	<-done

	svc.RequestMonsters(clients["p1"])
	syncRoom(t, svc, "map-1")

	env := readEnvelope(t, clients["p1"])
	if env.Event != "currentMonsters" {
		t.Fatalf("expected currentMonsters, got %s", env.Event)
	}
}
