package world

import (
	"testing"

	"sidescroller-server/internal/domain/game"
)

func TestEligibleForEliteExcludesSpecialMonsters(t *testing.T) {
	cases := []struct {
		name string
		m    *game.Monster
		want bool
	}{
		{"plain monster", &game.Monster{Type: "slime"}, true},
		{"dead monster", &game.Monster{Type: "slime", IsDead: true}, false},
		{"mini-boss", &game.Monster{Type: "slime", IsMiniBoss: true}, false},
		{"trial boss", &game.Monster{Type: "slime", IsTrialBoss: true}, false},
		{"already elite", &game.Monster{Type: "slime", IsEliteMonster: true}, false},
		{"test dummy", &game.Monster{Type: "testDummy"}, false},
	}
	for _, tc := range cases {
		if got := eligibleForElite(tc.m); got != tc.want {
			t.Errorf("%s: eligibleForElite() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPromoteRandomEliteLockedAppliesMultipliers(t *testing.T) {
	svc := newTestService(t)
	c := newTestClient()
	done := make(chan struct{})
	svc.registry.ensureRoom("map-1")
	svc.registry.Submit("map-1", func(r *Room) {
		defer close(done)
		r.players["p1"] = &game.Player{OdID: "p1"}
		r.subscribers["p1"] = c
		m := &game.Monster{ID: "m1", Type: "slime", MaxHP: 50, HP: 50, Damage: 10}
		r.monsters["m1"] = m

		svc.promoteRandomEliteLocked(r)

		if !m.IsEliteMonster {
			t.Fatal("expected monster to become elite")
		}
		if m.MaxHP != 50*eliteMaxHPMult || m.HP != m.MaxHP {
			t.Fatalf("expected maxHp/hp scaled by %d, got maxHp=%d hp=%d", eliteMaxHPMult, m.MaxHP, m.HP)
		}
		if m.Damage != 10*eliteDamageMult {
			t.Fatalf("expected damage scaled by %d, got %d", eliteDamageMult, m.Damage)
		}
		if m.OriginalMaxHP != 50 || m.OriginalDamage != 10 {
			t.Fatalf("expected original stats preserved, got maxHp=%d damage=%d", m.OriginalMaxHP, m.OriginalDamage)
		}
		if r.eliteID != "m1" {
			t.Fatalf("expected room's elite pointer set, got %q", r.eliteID)
		}
	})
	<-done
}

func TestPromoteRandomEliteLockedNoEligibleMonstersNoOp(t *testing.T) {
	svc := newTestService(t)
	done := make(chan struct{})
	svc.registry.ensureRoom("map-1")
	svc.registry.Submit("map-1", func(r *Room) {
		defer close(done)
		r.monsters["m1"] = &game.Monster{ID: "m1", Type: "testDummy"}
		svc.promoteRandomEliteLocked(r)
		if r.eliteID != "" {
			t.Fatal("expected no promotion when nothing is eligible")
		}
	})
	<-done
}

func TestMapHasExcludedPrefix(t *testing.T) {
	if !mapHasExcludedPrefix("pq-arena-1", elitePromoterExcludedPrefixes) {
		t.Fatal("expected pq-prefixed map to be excluded")
	}
	if !mapHasExcludedPrefix("dewdrop-forest", elitePromoterExcludedPrefixes) {
		t.Fatal("expected dewdrop-prefixed map to be excluded")
	}
	if mapHasExcludedPrefix("starter-town", elitePromoterExcludedPrefixes) {
		t.Fatal("expected an ordinary map to not be excluded")
	}
}
