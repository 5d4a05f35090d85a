package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sidescroller-server/internal/domain/game"
)

const (
	eliteDropRateMult = 3
	eliteGoldMin      = 50000
	eliteGoldMax      = 100000
	eliteTicketMin    = 2
	eliteTicketMax    = 5
	eliteScrollMin    = 4
	eliteScrollMax    = 8

	dropVelocityXMin = -2.0
	dropVelocityXMax = 2.0
	dropVelocityYMin = -5.0
	dropVelocityYMax = -3.0

	celebrationChance = 0.05
)

// celebrationDrops is the small server-side "guaranteed novelty item" table
// spec §4.6 alludes to without pinning down exact contents. Keyed by
// monster type; types not listed fall back to the slime-shaped check below.
var celebrationDrops = map[string]string{
	"babyslime": "Salami Stick",
}

func randRange(r roomRand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// roomRand is the minimal surface loot.go needs from *rand.Rand, kept as an
// alias so this file doesn't need to import math/rand directly.
type roomRand interface {
	Float64() float64
}

func (s *Service) nextDropID(r *Room) string {
	r.dropCounter++
	return fmt.Sprintf("drop_%d_%d_%d", time.Now().UnixMilli(), r.dropCounter, int(r.rand.Float64()*1_000_000))
}

// generateDropsLocked implements spec §4.6's drop-generation table. Must run
// on r's actor goroutine; mints every drop as a room GroundItem and returns
// the payload slice for the monsterKilled broadcast.
func (s *Service) generateDropsLocked(r *Room, m *game.Monster, lootRecipient string) []any {
	drops := make([]any, 0, 4)
	catalog, hasCatalog := r.topology.MonsterTypes[m.Type]

	mult := 1.0
	if m.IsEliteMonster {
		mult = eliteDropRateMult
	}

	if hasCatalog {
		for _, entry := range catalog.Loot {
			if r.rand.Float64() >= entry.Rate*mult {
				continue
			}
			drops = append(drops, s.mintMonsterDrop(r, m, entry, m.IsEliteMonster))
		}
	}

	if m.IsEliteMonster {
		goldAmount := eliteGoldMin + int(r.rand.Float64()*float64(eliteGoldMax-eliteGoldMin))
		drops = append(drops, s.mintGoldDrop(r, m, goldAmount))
		tickets := eliteTicketMin + int(r.rand.Float64()*float64(eliteTicketMax-eliteTicketMin+1))
		drops = append(drops, s.mintItemDrop(r, m, "Gachapon Ticket", tickets))
		scrolls := eliteScrollMin + int(r.rand.Float64()*float64(eliteScrollMax-eliteScrollMin+1))
		drops = append(drops, s.mintItemDrop(r, m, "Enhancement Scroll", scrolls))
	}

	if name, ok := celebrationDrops[m.Type]; ok {
		drops = append(drops, s.mintItemDrop(r, m, name, 1))
	} else if isSlimeShaped(m.Type) && r.rand.Float64() < celebrationChance {
		drops = append(drops, s.mintItemDrop(r, m, "Salami Stick", 1))
	}

	return drops
}

func isSlimeShaped(monsterType string) bool {
	t := strings.ToLower(monsterType)
	return strings.Contains(t, "slime")
}

func (s *Service) mintMonsterDrop(r *Room, m *game.Monster, entry game.LootEntry, isElite bool) any {
	if entry.Min > 0 || entry.Max > 0 {
		amount := entry.Min
		if entry.Max > entry.Min {
			amount += int(r.rand.Float64() * float64(entry.Max-entry.Min+1))
		}
		if isElite {
			amount *= 20
		}
		return s.mintGoldOrItem(r, m, entry.Name, &amount)
	}
	return s.mintGoldOrItem(r, m, entry.Name, nil)
}

func (s *Service) mintGoldDrop(r *Room, m *game.Monster, amount int) any {
	return s.mintGoldOrItem(r, m, "Gold", &amount)
}

func (s *Service) mintItemDrop(r *Room, m *game.Monster, name string, quantity int) any {
	item := &game.GroundItem{
		ItemID: s.nextDropID(r), Name: name, X: m.X, Y: m.Y,
		VelocityX: randRange(r.rand, dropVelocityXMin, dropVelocityXMax),
		VelocityY: randRange(r.rand, dropVelocityYMin, dropVelocityYMax),
		DroppedBy: game.MonsterDroppedBy, Timestamp: time.Now().UnixMilli(),
		Quantity: quantity,
	}
	r.groundItems[item.ItemID] = item
	return item
}

func (s *Service) mintGoldOrItem(r *Room, m *game.Monster, name string, amount *int) any {
	item := &game.GroundItem{
		ItemID: s.nextDropID(r), Name: name, X: m.X, Y: m.Y,
		VelocityX: randRange(r.rand, dropVelocityXMin, dropVelocityXMax),
		VelocityY: randRange(r.rand, dropVelocityYMin, dropVelocityYMax),
		DroppedBy: game.MonsterDroppedBy, Timestamp: time.Now().UnixMilli(),
		Amount: amount,
	}
	r.groundItems[item.ItemID] = item
	return item
}

// PlayerDropItem implements spec §4.6's playerDropItem.
func (s *Service) PlayerDropItem(c *Client, msg PlayerDropItemMsg) {
	odID, mapID := c.OdID, c.MapID
	if odID == "" || mapID == "" {
		return
	}
	s.registry.Submit(mapID, func(r *Room) {
		id := "pdrop_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + strconv.Itoa(int(r.rand.Float64()*1_000_000))
		vx := randRange(r.rand, dropVelocityXMin, dropVelocityXMax)
		vy := randRange(r.rand, dropVelocityYMin, dropVelocityYMax)
		item := &game.GroundItem{
			ItemID: id, Name: msg.Name, X: msg.X, Y: msg.Y, VelocityX: vx, VelocityY: vy,
			DroppedBy: odID, Timestamp: time.Now().UnixMilli(),
			Stats: msg.Stats, Rarity: msg.Rarity, Enhancement: msg.Enhancement,
			Quantity: msg.Quantity, LevelReq: msg.LevelReq, IsQuestItem: msg.IsQuestItem,
		}
		if msg.IsGold {
			amt := msg.Amount
			item.Amount = &amt
		}
		r.groundItems[id] = item
		r.broadcastExcept(odID, "playerItemDropped", item)
		sendTo(c, "playerDropConfirm", map[string]any{"id": id, "velocityX": vx, "velocityY": vy})
	})
}

// ItemPickup implements spec §4.6's itemPickup: rate-limited, atomic
// first-come-wins consumption of a ground item.
func (s *Service) ItemPickup(c *Client, msg ItemPickupMsg) {
	odID, mapID := c.OdID, c.MapID
	if odID == "" || mapID == "" {
		return
	}
	s.registry.Submit(mapID, func(r *Room) {
		if !s.rateLimiter.Admit(odID, actionPickup) {
			return
		}
		item, ok := r.groundItems[msg.ItemID]
		if !ok {
			sendTo(c, "itemPickupRejected", map[string]any{
				"itemId": msg.ItemID, "itemName": msg.ItemName, "reason": "already_picked_up",
			})
			return
		}
		delete(r.groundItems, msg.ItemID)
		name, ok2 := r.players[odID]
		pickedUpByName := ""
		if ok2 {
			pickedUpByName = name.Name
		}
		r.broadcast("itemPickedUp", map[string]any{
			"itemId": item.ItemID, "itemName": item.Name, "x": item.X, "y": item.Y,
			"pickedUpBy": odID, "pickedUpByName": pickedUpByName,
		})
		if s.telemetry != nil {
			s.telemetry.PublishItemPickedUp(mapID, map[string]any{"itemId": item.ItemID, "itemName": item.Name, "odId": odID})
		}
	})
}

// SharePartyGold implements spec §4.6's sharePartyGold split arithmetic.
func (s *Service) SharePartyGold(c *Client, msg SharePartyGoldMsg) {
	odID, mapID := c.OdID, c.MapID
	if odID == "" || mapID == "" {
		return
	}
	s.registry.Submit(mapID, func(r *Room) {
		looter, ok := r.players[odID]
		if !ok || looter.PartyID == "" {
			return
		}
		var memberIDs []string
		for otherID, p := range r.players {
			if otherID != odID && p.PartyID == looter.PartyID {
				memberIDs = append(memberIDs, otherID)
			}
		}
		m := 1 + len(memberIDs)
		if m == 1 {
			return
		}
		share := int(math.Max(1, math.Ceil(float64(msg.TotalAmount)/float64(m))))
		for _, memberID := range memberIDs {
			if client, ok := r.subscribers[memberID]; ok {
				sendTo(client, "partyGoldShare", map[string]any{"amount": share, "fromName": looter.Name})
			}
		}
		looterShare := int(math.Max(1, float64(msg.TotalAmount-share*(m-1))))
		sendTo(c, "partyGoldShareResult", map[string]any{
			"originalAmount": msg.TotalAmount, "yourShare": looterShare, "memberCount": m,
		})
	})
}
