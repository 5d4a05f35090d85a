package world

import (
	"math"
	"strings"
	"time"

	"sidescroller-server/internal/domain/game"
)

const (
	edgeBuffer         = 50.0
	minPatrolDistance  = 80.0
	speedMultiplier    = 4.2
	chaseTimeout       = 5 * time.Second
	chaseRange         = 500.0
	patrolChangeChance = 0.02
	shinyChance        = 0.02
	shinyMaxHPMult     = 3
)

var shinyExcludedMapPrefixes = []string{"dewdrop", "pq"}

func mapHasExcludedPrefix(mapID string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(mapID, p) {
			return true
		}
	}
	return false
}

// InitMapMonsters implements spec §4.4's initialization step: the first
// client to join a map supplies its topology and spawn table, which the
// room records and then populates.
func (s *Service) InitMapMonsters(c *Client, msg InitMapMonstersMsg) {
	if c.MapID == "" || msg.MapID != c.MapID {
		return
	}
	s.registry.ensureRoom(msg.MapID)
	s.registry.Submit(msg.MapID, func(r *Room) {
		if r.topology.Initialized {
			return
		}
		r.topology = game.Topology{
			MapWidth:     msg.MapWidth,
			GroundY:      msg.GroundY,
			MonsterTypes: msg.MonsterTypes,
			Initialized:  true,
		}

		spawns := msg.SpawnPositions
		if len(spawns) == 0 {
			spawns = s.fallbackSpawns(r, msg.Monsters)
		}
		for _, sp := range spawns {
			catalog, ok := r.topology.MonsterTypes[sp.Type]
			if !ok {
				continue
			}
			s.spawnMonsterLocked(r, sp, catalog)
		}
	})
}

// fallbackSpawns implements spec §4.4's "no spawn positions supplied"
// fallback: count random X positions per spawner.
func (s *Service) fallbackSpawns(r *Room, spawners []SpawnerMsg) []game.SpawnPosition {
	out := make([]game.SpawnPosition, 0)
	for _, sp := range spawners {
		count := sp.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			x := r.rand.Float64() * math.Max(r.topology.MapWidth, 1)
			out = append(out, game.SpawnPosition{Type: sp.Type, X: x, Y: r.topology.GroundY})
		}
	}
	return out
}

// spawnMonsterLocked mints a monster, computes its patrol bounds, rolls
// shiny eligibility, and announces it to the room. Must run on the room's
// actor goroutine.
func (s *Service) spawnMonsterLocked(r *Room, sp game.SpawnPosition, catalog game.CatalogEntry) *game.Monster {
	id := s.registry.nextMonsterID()
	direction := 1
	if r.rand.Float64() < 0.5 {
		direction = -1
	}

	m := &game.Monster{
		ID:        id,
		Type:      sp.Type,
		X:         sp.X,
		Y:         sp.Y,
		Direction: direction,
		Facing:    directionFacing(direction),
		HP:        catalog.HP,
		MaxHP:     catalog.HP,
		AIType:    catalog.AIType,
		AIState:   game.AIPatrol,
		CanJump:   catalog.CanJump,
		Width:     catalog.Width,
		Height:    catalog.Height,
		SpawnX:    sp.X,
		SpawnY:    sp.Y,
		GroundY:   r.topology.GroundY,
		SurfaceX:  sp.SurfaceX,
		SurfaceWidth: sp.SurfaceWidth,
		LastUpdate: time.Now(),
	}
	if m.AIType == "" {
		m.AIType = game.AIPatrolling
	}

	computePatrolBounds(m, r.topology.MapWidth, sp.SurfaceX, sp.SurfaceWidth)

	if isShinyEligible(m, r.mapID) && r.rand.Float64() < shinyChance {
		m.IsShiny = true
		m.MaxHP *= shinyMaxHPMult
		m.HP = m.MaxHP
	}

	r.monsters[id] = m
	r.broadcast("monsterSpawned", m)
	return m
}

func directionFacing(direction int) game.Facing {
	if direction < 0 {
		return game.FacingLeft
	}
	return game.FacingRight
}

// computePatrolBounds implements spec §4.4's patrol-bound geometry,
// including the "pinned" narrow-surface special case.
func computePatrolBounds(m *game.Monster, mapWidth, surfaceX, surfaceWidth float64) {
	if surfaceWidth > 0 {
		lo := surfaceX + edgeBuffer
		hi := surfaceX + surfaceWidth - edgeBuffer
		lo = clamp(lo, 0, math.Max(mapWidth-edgeBuffer, 0))
		hi = clamp(hi, 0, math.Max(mapWidth-edgeBuffer, 0))
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi-lo < minPatrolDistance {
			center := (lo + hi) / 2
			m.PatrolMinX = center - 10
			m.PatrolMaxX = center + 10
			m.AIState = game.AIIdle
			return
		}
		m.PatrolMinX, m.PatrolMaxX = lo, hi
		return
	}
	m.PatrolMinX = math.Max(0, m.X-150)
	m.PatrolMaxX = math.Min(math.Max(mapWidth-edgeBuffer, 0), m.X+150)
	if m.PatrolMinX > m.PatrolMaxX {
		m.PatrolMinX, m.PatrolMaxX = m.PatrolMaxX, m.PatrolMinX
	}
}

func isShinyEligible(m *game.Monster, mapID string) bool {
	if m.IsMiniBoss || m.IsTrialBoss || m.Type == "testDummy" {
		return false
	}
	return !mapHasExcludedPrefix(mapID, shinyExcludedMapPrefixes)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// runMonsterTickLoop is the single process-wide timer driving C4 (spec
// §4.4). Every tick it fans an updateAI+broadcast command out to each room.
func (s *Service) runMonsterTickLoop() {
	interval := time.Second / time.Duration(s.cfg.TickHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tickAllRooms()
		case <-s.quit:
			return
		}
	}
}

func (s *Service) tickAllRooms() {
	for _, mapID := range s.registry.AllMapIDs() {
		s.registry.Submit(mapID, func(r *Room) {
			now := time.Now()
			for _, m := range r.monsters {
				if m.IsDead {
					continue
				}
				updateMonsterAI(m, r, now)
			}
			if len(r.players) > 0 {
				r.broadcast("monsterPositions", monsterPositionsPayload(r, now))
			}
		})
	}
}

type monsterPositionEntry struct {
	ID        string      `json:"id"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Facing    game.Facing `json:"facing"`
	Direction int         `json:"direction"`
	AIState   game.AIState `json:"aiState"`
	VelocityX float64     `json:"velocityX"`
	VelocityY float64     `json:"velocityY"`
	T         int64       `json:"t"`
}

func monsterPositionsPayload(r *Room, now time.Time) []monsterPositionEntry {
	out := make([]monsterPositionEntry, 0, len(r.monsters))
	t := now.UnixMilli()
	for _, m := range r.monsters {
		if m.IsDead {
			continue
		}
		out = append(out, monsterPositionEntry{
			ID: m.ID, X: m.X, Y: m.Y, Facing: m.Facing, Direction: m.Direction,
			AIState: m.AIState, VelocityX: m.VelocityX, VelocityY: m.VelocityY, T: t,
		})
	}
	return out
}

// updateMonsterAI implements spec §4.4's per-tick state machine exactly.
func updateMonsterAI(m *game.Monster, r *Room, now time.Time) {
	if m.AIType == game.AIStatic {
		m.VelocityX = 0
		m.LastUpdate = now
		return
	}
	if now.Before(m.KnockbackEndTime) {
		m.VelocityX = 0
		return
	}

	if m.AIState == game.AIChasing {
		updateChasingMonster(m, r, now)
		m.LastUpdate = now
		return
	}
	if m.AIState == game.AIIdle {
		m.LastUpdate = now
		return
	}

	updatePatrollingMonster(m, r)
	m.AIState = game.AIPatrol
	m.LastUpdate = now
}

func updateChasingMonster(m *game.Monster, r *Room, now time.Time) {
	if now.Sub(m.LastInteractionTime) > chaseTimeout {
		demoteToPatrol(m)
		return
	}
	target, ok := r.players[m.TargetPlayer]
	if !ok || math.Abs(m.X-m.SpawnX) >= chaseRange {
		demoteToPatrol(m)
		return
	}

	direction := 1
	if target.X < m.X {
		direction = -1
	}
	m.Direction = direction
	m.Facing = directionFacing(direction)

	speed := monsterSpeed(m, r)
	step := float64(direction) * speed * speedMultiplier * 1.5
	next := clamp(m.X+step, 0, math.Max(r.topology.MapWidth-m.Width, 0))
	if next == m.X {
		m.VelocityX = 0
	} else {
		m.VelocityX = step
	}
	m.X = next
}

// demoteToPatrol re-centers patrol bounds on the monster's current position
// so a de-aggroed monster never snaps back to its original spawn (spec
// §4.4's explicit anti-snap-back rule).
func demoteToPatrol(m *game.Monster) {
	radius := (m.PatrolMaxX - m.PatrolMinX) / 2
	if radius <= 0 {
		radius = minPatrolDistance / 2
	}
	m.AIState = game.AIPatrol
	m.TargetPlayer = ""
	m.PatrolMinX = m.X - radius
	m.PatrolMaxX = m.X + radius
	m.SpawnX = m.X
}

func updatePatrollingMonster(m *game.Monster, r *Room) {
	if m.X <= m.PatrolMinX+30 {
		m.Direction = 1
	} else if m.X >= m.PatrolMaxX-30 {
		m.Direction = -1
	} else if r.rand.Float64() < patrolChangeChance {
		m.Direction = -m.Direction
	}

	speed := monsterSpeed(m, r)
	step := float64(m.Direction) * speed * speedMultiplier
	next := m.X + step
	if next >= m.PatrolMinX && next <= m.PatrolMaxX {
		m.X = next
		m.VelocityX = step
	} else {
		if next < m.PatrolMinX {
			m.X = m.PatrolMinX
		} else {
			m.X = m.PatrolMaxX
		}
		m.VelocityX = 0
		m.Direction = -m.Direction
	}

	m.X = clamp(m.X, 0, math.Max(r.topology.MapWidth-m.Width, 0))
}

func monsterSpeed(m *game.Monster, r *Room) float64 {
	if catalog, ok := r.topology.MonsterTypes[m.Type]; ok && catalog.Speed > 0 {
		return catalog.Speed
	}
	return 1
}
