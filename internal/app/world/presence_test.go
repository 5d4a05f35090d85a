package world

import "testing"

func TestJoinBroadcastsAppearanceToRoomMembers(t *testing.T) {
	svc := newTestService(t)
	c1 := newTestClient()
	c2 := newTestClient()

	svc.Join(c1, JoinMsg{OdID: "p1", Name: "Aria", MapID: "map-1", Guild: "Nightfall"})
	syncRoom(t, svc, "map-1")
	drainClient(c1) // currentPlayers, currentMonsters

	svc.Join(c2, JoinMsg{OdID: "p2", Name: "Bram", MapID: "map-1"})
	syncRoom(t, svc, "map-1")
	drainClient(c2) // currentPlayers, currentMonsters

	env := readEnvelope(t, c1)
	if env.Event != "playerJoined" {
		t.Fatalf("expected playerJoined, got %s", env.Event)
	}
	payload, ok := env.Payload.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload shape: %#v", env.Payload)
	}
	if payload["odId"] != "p2" {
		t.Fatalf("expected playerJoined for p2, got %v", payload["odId"])
	}

	appearance, ok := payload["appearance"].(map[string]any)
	if !ok {
		t.Fatalf("expected an appearance object in the playerJoined payload, got %#v", payload["appearance"])
	}
	if _, present := appearance["guild"]; present {
		t.Fatalf("expected p2's empty guild to be omitted, got %v", appearance["guild"])
	}
}

func TestJoinRoundTripsAppearanceFields(t *testing.T) {
	svc := newTestService(t)
	c1 := newTestClient()
	c2 := newTestClient()

	svc.Join(c1, JoinMsg{
		OdID: "p1", Name: "Aria", MapID: "map-1",
		Guild: "Nightfall", EquippedMedal: "gold-1",
		Equipped: map[string]string{"weapon": "sword"},
	})
	syncRoom(t, svc, "map-1")
	drainClient(c1)

	svc.Join(c2, JoinMsg{OdID: "p2", Name: "Bram", MapID: "map-1"})
	syncRoom(t, svc, "map-1")

	env := readEnvelope(t, c2)
	if env.Event != "currentPlayers" {
		t.Fatalf("expected currentPlayers, got %s", env.Event)
	}
	roster, ok := env.Payload.([]any)
	if !ok || len(roster) != 1 {
		t.Fatalf("expected a one-player roster, got %#v", env.Payload)
	}
	p1, ok := roster[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected roster entry shape: %#v", roster[0])
	}
	appearance, ok := p1["appearance"].(map[string]any)
	if !ok {
		t.Fatalf("expected appearance to be present in the roster entry, got %#v", p1["appearance"])
	}
	if appearance["guild"] != "Nightfall" {
		t.Fatalf("expected guild to round-trip through currentPlayers, got %v", appearance["guild"])
	}
	equipped, ok := appearance["equipped"].(map[string]any)
	if !ok || equipped["weapon"] != "sword" {
		t.Fatalf("expected equipped gear to round-trip, got %#v", appearance["equipped"])
	}
}
