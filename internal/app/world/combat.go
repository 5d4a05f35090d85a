package world

import (
	"time"

	"sidescroller-server/internal/domain/game"
)

const (
	knockbackVelocity   = 6.0
	knockbackDisplace   = 30.0
	knockbackDuration   = 500 * time.Millisecond
	predictionTolerance = 50
	miniBossRespawn     = 300 * time.Second
	normalRespawn       = 8 * time.Second
	corpseRemovalDelay  = 1 * time.Second
)

type attackCorrectionPayload struct {
	Seq       *int    `json:"seq,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Type      string  `json:"type,omitempty"`
	CorrectHP int     `json:"correctHp,omitempty"`
	MaxHP     int     `json:"maxHp,omitempty"`
}

type monsterDamagedPayload struct {
	ID                 string  `json:"id"`
	Seq                *int    `json:"seq,omitempty"`
	Damage             int     `json:"damage"`
	CurrentHP          int     `json:"currentHp"`
	MaxHP              int     `json:"maxHp"`
	AttackerID         string  `json:"attackerId"`
	KnockbackVelocityX float64 `json:"knockbackVelocityX"`
	IsCritical         bool    `json:"isCritical"`
}

type monsterKilledPayload struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	LootRecipient  string   `json:"lootRecipient,omitempty"`
	Drops          []any    `json:"drops"`
	PartyMembers   []string `json:"partyMembers"`
	IsEliteMonster bool     `json:"isEliteMonster"`
	IsShiny        bool     `json:"isShiny"`
}

// AttackMonster implements spec §4.5's attackMonster arbitration.
func (s *Service) AttackMonster(c *Client, msg AttackMonsterMsg) {
	odID, mapID := c.OdID, c.MapID
	if odID == "" || mapID == "" {
		return
	}
	s.registry.Submit(mapID, func(r *Room) {
		m, ok := r.monsters[msg.MonsterID]
		if !ok || m.IsDead {
			sendTo(c, "attackCorrection", attackCorrectionPayload{Seq: msg.Seq, Reason: "monster_not_found"})
			return
		}
		if !s.rateLimiter.Admit(odID, actionAttack) {
			return
		}
		d := ValidateDamage(msg.Damage)
		if d == 0 {
			return
		}
		wasCapped := float64(d) != msg.Damage

		if r.ledger[m.ID] == nil {
			r.ledger[m.ID] = make(map[string]int)
		}
		r.ledger[m.ID][odID] += d
		m.HP -= d
		m.LastUpdate = time.Now()

		if m.AIType != game.AIStatic {
			m.AIState = game.AIChasing
			m.TargetPlayer = odID
			m.LastInteractionTime = time.Now()
		}

		knockbackVX := 0.0
		if m.AIType != game.AIStatic && (msg.PlayerDirection == 1 || msg.PlayerDirection == -1) {
			knockbackVX = float64(msg.PlayerDirection) * knockbackVelocity
			if m.PatrolMaxX > m.PatrolMinX {
				m.X = clamp(m.X+float64(msg.PlayerDirection)*knockbackDisplace, m.PatrolMinX, m.PatrolMaxX)
			} else {
				m.X += float64(msg.PlayerDirection) * knockbackDisplace
			}
			m.KnockbackEndTime = time.Now().Add(knockbackDuration)
		}

		if msg.Seq != nil && msg.PredictedHP != nil {
			diff := m.HP - *msg.PredictedHP
			if diff < 0 {
				diff = -diff
			}
			if diff > predictionTolerance {
				sendTo(c, "attackCorrection", attackCorrectionPayload{
					Seq: msg.Seq, Type: "hp_correction", CorrectHP: m.HP, MaxHP: m.MaxHP,
				})
			}
		}

		isCritical := msg.IsCritical && !wasCapped
		r.broadcast("monsterDamaged", monsterDamagedPayload{
			ID: m.ID, Seq: msg.Seq, Damage: d, CurrentHP: m.HP, MaxHP: m.MaxHP,
			AttackerID: odID, KnockbackVelocityX: knockbackVX, IsCritical: isCritical,
		})

		if m.HP <= 0 {
			s.killMonsterLocked(r, m)
		}
	})
}

// killMonsterLocked implements spec §4.5's killMonster. Must run on r's
// actor goroutine.
func (s *Service) killMonsterLocked(r *Room, m *game.Monster) {
	m.IsDead = true
	m.HP = 0
	if r.eliteID == m.ID {
		r.eliteID = ""
	}

	lootRecipient := argmaxLedger(r.ledger[m.ID])
	drops := s.generateDropsLocked(r, m, lootRecipient)

	var partyMembers []string
	if lootRecipient != "" {
		if looter, ok := r.players[lootRecipient]; ok && looter.PartyID != "" {
			for odID, p := range r.players {
				if odID != lootRecipient && p.PartyID == looter.PartyID {
					partyMembers = append(partyMembers, odID)
				}
			}
		}
	}

	r.broadcast("monsterKilled", monsterKilledPayload{
		ID: m.ID, Type: m.Type, X: m.X, Y: m.Y, LootRecipient: lootRecipient,
		Drops: drops, PartyMembers: partyMembers, IsEliteMonster: m.IsEliteMonster, IsShiny: m.IsShiny,
	})
	delete(r.ledger, m.ID)

	if s.telemetry != nil {
		s.telemetry.PublishMonsterKilled(r.mapID, map[string]any{
			"monsterId": m.ID, "type": m.Type, "lootRecipient": lootRecipient,
		})
	}

	s.scheduleRespawn(r, m)
}

// argmaxLedger returns the odId with the highest recorded damage. The
// ledger keeps totals only, not the order in which attackers reached them,
// so an exact tie goes to whichever tied odId Go's map iteration visits
// first; that choice is not deterministic.
func argmaxLedger(ledger map[string]int) string {
	best := ""
	bestDamage := -1
	for odID, dmg := range ledger {
		if dmg > bestDamage {
			best, bestDamage = odID, dmg
		}
	}
	return best
}

type respawnContext struct {
	mapID        string
	monsterType  string
	surfaceX     float64
	surfaceWidth float64
	spawnY       float64
	mapWidth     float64
	groundY      float64
	maxHP        int
	isMiniBoss   bool
}

// scheduleRespawn implements spec §4.5's respawn step: pq-prefixed maps get
// a 1s corpse-only removal, everything else gets a delayed respawn using the
// monster's remembered spawn context.
func (s *Service) scheduleRespawn(r *Room, m *game.Monster) {
	if mapHasExcludedPrefix(r.mapID, []string{"pq"}) {
		mapID, monsterID := r.mapID, m.ID
		time.AfterFunc(corpseRemovalDelay, func() {
			s.registry.Submit(mapID, func(r *Room) {
				delete(r.monsters, monsterID)
			})
		})
		return
	}

	ctx := respawnContext{
		mapID: r.mapID, monsterType: m.Type, surfaceX: m.SurfaceX, surfaceWidth: m.SurfaceWidth,
		spawnY: m.SpawnY, mapWidth: r.topology.MapWidth, groundY: r.topology.GroundY,
		maxHP: m.OriginalMaxHP, isMiniBoss: m.IsMiniBoss,
	}
	if ctx.maxHP == 0 {
		ctx.maxHP = m.MaxHP
	}
	delay := normalRespawn
	if ctx.isMiniBoss {
		delay = miniBossRespawn
	}
	monsterID := m.ID
	time.AfterFunc(delay, func() {
		s.registry.Submit(ctx.mapID, func(r *Room) {
			delete(r.monsters, monsterID)
			if len(r.players) == 0 {
				return
			}
			sp := game.SpawnPosition{Type: ctx.monsterType, Y: ctx.spawnY, SurfaceX: ctx.surfaceX, SurfaceWidth: ctx.surfaceWidth}
			if ctx.surfaceWidth > 0 {
				sp.X = ctx.surfaceX + r.rand.Float64()*ctx.surfaceWidth
			} else {
				sp.X = r.rand.Float64() * ctx.mapWidth
			}
			catalog, ok := r.topology.MonsterTypes[ctx.monsterType]
			if !ok {
				catalog = game.CatalogEntry{HP: ctx.maxHP}
			}
			s.spawnMonsterLocked(r, sp, catalog)
		})
	})
}

// TransformElite implements spec §4.8's client-initiated variant, treated
// as a trusted GM/test path per spec.
func (s *Service) TransformElite(c *Client, msg TransformEliteMsg) {
	mapID := c.MapID
	if mapID == "" {
		return
	}
	s.registry.Submit(mapID, func(r *Room) {
		m, ok := r.monsters[msg.MonsterID]
		if !ok || m.IsDead {
			return
		}
		m.OriginalMaxHP = msg.OriginalMaxHP
		m.OriginalDamage = msg.OriginalDamage
		m.MaxHP = msg.MaxHP
		m.HP = msg.MaxHP
		m.Damage = msg.Damage
		m.IsEliteMonster = true
		r.eliteID = m.ID
		r.broadcast("monsterTransformedElite", map[string]any{
			"monsterId": m.ID, "maxHp": m.MaxHP, "hp": m.HP, "damage": m.Damage,
			"originalMaxHp": m.OriginalMaxHP, "originalDamage": m.OriginalDamage,
		})
	})
}
