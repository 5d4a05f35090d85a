package world

import (
	"encoding/json"
	"testing"

	"sidescroller-server/internal/domain/game"
)

func setupCombatRoom(t *testing.T, svc *Service, mapID string, m *game.Monster, players ...*game.Player) *Client {
	t.Helper()
	c := newTestClient()
	done := make(chan struct{})
	svc.registry.ensureRoom(mapID)
	svc.registry.Submit(mapID, func(r *Room) {
		defer close(done)
		r.topology = game.Topology{MapWidth: 2000, GroundY: 400, Initialized: true}
		r.monsters[m.ID] = m
		for _, p := range players {
			r.players[p.OdID] = p
			r.subscribers[p.OdID] = c
		}
	})
	<-done
	return c
}

func readEnvelope(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case b := <-c.Send:
		var e envelope
		if err := json.Unmarshal(b, &e); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		return e
	default:
		t.Fatal("expected a queued message, found none")
		return envelope{}
	}
}

func TestAttackMonsterAppliesDamageAndBroadcasts(t *testing.T) {
	svc := newTestService(t)
	m := &game.Monster{ID: "m1", Type: "slime", HP: 100, MaxHP: 100, AIType: game.AIPatrolling, PatrolMinX: 0, PatrolMaxX: 1000}
	p := &game.Player{OdID: "p1", MapID: "map-1"}
	c := setupCombatRoom(t, svc, "map-1", m, p)
	c.OdID, c.MapID = "p1", "map-1"

	svc.AttackMonster(c, AttackMonsterMsg{MonsterID: "m1", Damage: 30, PlayerDirection: 1})
	syncRoom(t, svc, "map-1")

	env := readEnvelope(t, c)
	if env.Event != "monsterDamaged" {
		t.Fatalf("expected monsterDamaged, got %s", env.Event)
	}
	if m.HP != 70 {
		t.Fatalf("expected hp 70 after 30 damage, got %d", m.HP)
	}
	if m.AIState != game.AIChasing || m.TargetPlayer != "p1" {
		t.Fatalf("expected aggro onto attacker, got state=%v target=%v", m.AIState, m.TargetPlayer)
	}
	if m.KnockbackEndTime.IsZero() {
		t.Fatal("expected knockback to be applied")
	}
}

func TestAttackMonsterUnknownMonsterSendsCorrection(t *testing.T) {
	svc := newTestService(t)
	p := &game.Player{OdID: "p1", MapID: "map-1"}
	c := setupCombatRoom(t, svc, "map-1", &game.Monster{ID: "other"}, p)
	c.OdID, c.MapID = "p1", "map-1"

	seq := 7
	svc.AttackMonster(c, AttackMonsterMsg{MonsterID: "missing", Damage: 10, Seq: &seq})
	syncRoom(t, svc, "map-1")

	env := readEnvelope(t, c)
	if env.Event != "attackCorrection" {
		t.Fatalf("expected attackCorrection, got %s", env.Event)
	}
}

func TestAttackMonsterRespectsRateLimit(t *testing.T) {
	svc := newTestService(t)
	m := &game.Monster{ID: "m1", Type: "slime", HP: 100000, MaxHP: 100000, AIType: game.AIPatrolling}
	p := &game.Player{OdID: "p1", MapID: "map-1"}
	c := setupCombatRoom(t, svc, "map-1", m, p)
	c.OdID, c.MapID = "p1", "map-1"

	for i := 0; i < actionCaps[actionAttack]; i++ {
		svc.AttackMonster(c, AttackMonsterMsg{MonsterID: "m1", Damage: 1})
	}
	syncRoom(t, svc, "map-1")
	hpAfterCap := m.HP
	drainClient(c)

	svc.AttackMonster(c, AttackMonsterMsg{MonsterID: "m1", Damage: 1})
	syncRoom(t, svc, "map-1")
	if m.HP != hpAfterCap {
		t.Fatalf("expected rate-limited attack to not apply damage: before=%d after=%d", hpAfterCap, m.HP)
	}
}

func TestKillMonsterAssignsLootRecipientByArgmaxLedger(t *testing.T) {
	svc := newTestService(t)
	m := &game.Monster{ID: "m1", Type: "slime", HP: 10, MaxHP: 10, AIType: game.AIPatrolling}
	p1 := &game.Player{OdID: "p1", MapID: "map-1"}
	p2 := &game.Player{OdID: "p2", MapID: "map-1"}
	c := setupCombatRoom(t, svc, "map-1", m, p1, p2)
	c.OdID, c.MapID = "p2", "map-1"

	done := make(chan struct{})
	svc.registry.Submit("map-1", func(r *Room) {
		defer close(done)
		r.ledger["m1"] = map[string]int{"p1": 9}
	})
	<-done

	svc.AttackMonster(c, AttackMonsterMsg{MonsterID: "m1", Damage: 10})
	syncRoom(t, svc, "map-1")

	drainClient(c) // monsterDamaged
	env := readEnvelope(t, c)
	if env.Event != "monsterKilled" {
		t.Fatalf("expected monsterKilled, got %s", env.Event)
	}
	payload, ok := env.Payload.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload shape: %#v", env.Payload)
	}
	if payload["lootRecipient"] != "p2" {
		t.Fatalf("expected p2 (higher ledger total) to win loot, got %v", payload["lootRecipient"])
	}
	if !m.IsDead {
		t.Fatal("expected monster to be marked dead")
	}
}
