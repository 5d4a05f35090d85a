package world

import (
	"math/rand"
	"time"

	"sidescroller-server/internal/domain/game"
)

const (
	elitePromoterMinDelay = 2 * time.Minute
	elitePromoterMaxDelay = 7 * time.Minute
	elitePromoteChance    = 0.3
	eliteMaxHPMult        = 100
	eliteDamageMult       = 3
)

var elitePromoterExcludedPrefixes = []string{"dewdrop", "pq"}

// runElitePromoter is the single process-wide randomized timer described in
// spec §4.8: on each fire it re-arms itself with a fresh uniform delay and
// rolls promotion once per eligible room.
func (s *Service) runElitePromoter() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	timer := time.NewTimer(nextElitePromoterDelay(rng))
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			s.runElitePromotionPass(rng)
			timer.Reset(nextElitePromoterDelay(rng))
		case <-s.quit:
			return
		}
	}
}

func nextElitePromoterDelay(rng *rand.Rand) time.Duration {
	span := elitePromoterMaxDelay - elitePromoterMinDelay
	return elitePromoterMinDelay + time.Duration(rng.Int63n(int64(span)))
}

func (s *Service) runElitePromotionPass(rng *rand.Rand) {
	for _, mapID := range s.registry.AllMapIDs() {
		if mapHasExcludedPrefix(mapID, elitePromoterExcludedPrefixes) {
			continue
		}
		if rng.Float64() >= elitePromoteChance {
			continue
		}
		s.registry.Submit(mapID, func(r *Room) {
			if r.eliteID != "" || len(r.players) == 0 {
				return
			}
			s.promoteRandomEliteLocked(r)
		})
	}
}

// promoteRandomEliteLocked implements spec §4.8's promotion step. Must run
// on r's actor goroutine.
func (s *Service) promoteRandomEliteLocked(r *Room) {
	var eligible []*game.Monster
	for _, m := range r.monsters {
		if eligibleForElite(m) {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return
	}
	m := eligible[r.rand.Intn(len(eligible))]

	m.OriginalMaxHP = m.MaxHP
	m.OriginalDamage = m.Damage
	m.MaxHP *= eliteMaxHPMult
	m.HP = m.MaxHP
	m.Damage *= eliteDamageMult
	m.IsEliteMonster = true
	r.eliteID = m.ID

	r.broadcast("monsterTransformedElite", map[string]any{
		"monsterId": m.ID, "maxHp": m.MaxHP, "hp": m.HP, "damage": m.Damage,
		"originalMaxHp": m.OriginalMaxHP, "originalDamage": m.OriginalDamage,
	})
	if s.telemetry != nil {
		s.telemetry.PublishElitePromoted(r.mapID, map[string]any{"monsterId": m.ID})
	}
}

func eligibleForElite(m *game.Monster) bool {
	if m.IsDead || m.IsMiniBoss || m.IsTrialBoss || m.IsEliteMonster || m.Type == "testDummy" {
		return false
	}
	return true
}
