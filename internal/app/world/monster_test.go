package world

import (
	"testing"
	"time"

	"sidescroller-server/internal/domain/game"
)

func TestComputePatrolBoundsNarrowSurfaceGoesIdle(t *testing.T) {
	m := &game.Monster{X: 100}
	computePatrolBounds(m, 1000, 90, 40) // width 40 - 2*edgeBuffer(50) < 0
	if m.AIState != game.AIIdle {
		t.Fatalf("expected idle state for narrow surface, got %v", m.AIState)
	}
	if m.PatrolMinX > m.PatrolMaxX {
		t.Fatalf("patrolMinX must never exceed patrolMaxX: got [%v, %v]", m.PatrolMinX, m.PatrolMaxX)
	}

	r := &Room{topology: game.Topology{MapWidth: 1000}}
	updateMonsterAI(m, r, time.Now())
	if m.AIState != game.AIIdle {
		t.Fatalf("expected idle monster to remain idle after a tick, got %v", m.AIState)
	}
}

func TestComputePatrolBoundsWideSurface(t *testing.T) {
	m := &game.Monster{X: 100}
	computePatrolBounds(m, 1000, 100, 300)
	if m.PatrolMaxX-m.PatrolMinX < minPatrolDistance {
		t.Fatalf("expected patrol span >= %v, got %v", minPatrolDistance, m.PatrolMaxX-m.PatrolMinX)
	}
	if m.PatrolMinX > m.PatrolMaxX {
		t.Fatal("patrolMinX must never exceed patrolMaxX")
	}
}

func TestUpdatePatrollingMonsterStaysWithinBounds(t *testing.T) {
	svc := newTestService(t)
	svc.registry.ensureRoom("map-1")
	done := make(chan struct{})
	svc.registry.Submit("map-1", func(r *Room) {
		defer close(done)
		r.topology = game.Topology{MapWidth: 1000, GroundY: 400, Initialized: true}
		m := &game.Monster{ID: "m1", Type: "slime", PatrolMinX: 90, PatrolMaxX: 110, X: 100, Direction: 1, Width: 10}
		r.monsters["m1"] = m
		for i := 0; i < 500; i++ {
			updatePatrollingMonster(m, r)
			if m.X < m.PatrolMinX-0.001 || m.X > m.PatrolMaxX+0.001 {
				t.Fatalf("monster left patrol bounds: x=%v bounds=[%v,%v]", m.X, m.PatrolMinX, m.PatrolMaxX)
			}
		}
	})
	<-done
}

func TestChaseDemotesWithoutSnapBackBeyondRange(t *testing.T) {
	svc := newTestService(t)
	done := make(chan struct{})
	svc.registry.ensureRoom("map-1")
	svc.registry.Submit("map-1", func(r *Room) {
		defer close(done)
		r.topology = game.Topology{MapWidth: 2000, GroundY: 400, Initialized: true}
		m := &game.Monster{
			ID: "m1", Type: "slime", X: 100 + chaseRange + 50, SpawnX: 100, PatrolMinX: 50, PatrolMaxX: 150,
			AIState: game.AIChasing, TargetPlayer: "p1", LastInteractionTime: time.Now(),
		}
		r.monsters["m1"] = m
		r.players["p1"] = &game.Player{OdID: "p1", X: 100}

		updateChasingMonster(m, r, time.Now())

		if m.AIState != game.AIPatrol {
			t.Fatalf("expected demotion to patrol beyond chase range, got %v", m.AIState)
		}
		if m.X != 100+chaseRange+50 {
			t.Fatalf("expected demotion at the current position, got x=%v", m.X)
		}
		if m.PatrolMinX > m.PatrolMaxX {
			t.Fatal("demoted patrol bounds must remain ordered")
		}
	})
	<-done
}

func TestChaseTimeoutDemotesToPatrol(t *testing.T) {
	m := &game.Monster{
		AIState: game.AIChasing, LastInteractionTime: time.Now().Add(-2 * chaseTimeout),
		PatrolMinX: 10, PatrolMaxX: 30, X: 20,
	}
	r := &Room{topology: game.Topology{MapWidth: 1000}}
	updateChasingMonster(m, r, time.Now())
	if m.AIState != game.AIPatrol {
		t.Fatalf("expected timeout to demote to patrol, got %v", m.AIState)
	}
}

func TestStaticMonsterNeverMoves(t *testing.T) {
	m := &game.Monster{AIType: game.AIStatic, X: 42}
	r := &Room{topology: game.Topology{MapWidth: 1000}}
	updateMonsterAI(m, r, time.Now())
	if m.X != 42 || m.VelocityX != 0 {
		t.Fatalf("expected static monster to stay put, got x=%v vx=%v", m.X, m.VelocityX)
	}
}

func TestKnockbackFreezesMovementUntilItExpires(t *testing.T) {
	m := &game.Monster{
		AIType: game.AIPatrolling, AIState: game.AIPatrol, X: 100,
		PatrolMinX: 50, PatrolMaxX: 150, KnockbackEndTime: time.Now().Add(time.Hour),
	}
	r := &Room{topology: game.Topology{MapWidth: 1000}}
	updateMonsterAI(m, r, time.Now())
	if m.X != 100 || m.VelocityX != 0 {
		t.Fatalf("expected knocked-back monster to freeze, got x=%v vx=%v", m.X, m.VelocityX)
	}
}
