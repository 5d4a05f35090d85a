package world

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Registry is the process-wide mapping mapId -> Room (spec §4.2). The
// registry mutex only ever guards creation/lookup/destruction of a Room
// entry; it is never held while a room's own state is mutated.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	logger zerolog.Logger

	monsterSeq atomic.Uint64
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{rooms: make(map[string]*Room), logger: logger}
}

// ensureRoom returns the room for mapID, creating an empty one if absent.
func (reg *Registry) ensureRoom(mapID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok := reg.rooms[mapID]; ok {
		return room
	}
	room := newRoom(mapID, reg, reg.logger)
	reg.rooms[mapID] = room
	return room
}

// lookup returns the room for mapID without creating it.
func (reg *Registry) lookup(mapID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[mapID]
	return room, ok
}

// destroyRoom removes mapID from the registry. Must only be called from
// inside that room's own actor goroutine once it has confirmed zero present
// players, per spec §4.2. Pending timers addressed to this mapID observe
// the room's absence via Submit and no-op.
func (reg *Registry) destroyRoom(mapID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[mapID]
	if !ok || !room.empty() {
		return
	}
	close(room.quit)
	delete(reg.rooms, mapID)
}

// Submit enqueues fn on mapID's room actor if that room still exists. It
// returns false, doing nothing, if the room has been destroyed — this is
// the idempotency guard every scheduled callback (respawn, elite check)
// relies on instead of explicit cancellation (spec §5, §9).
func (reg *Registry) Submit(mapID string, fn roomCmd) bool {
	room, ok := reg.lookup(mapID)
	if !ok {
		return false
	}
	select {
	case room.inbox <- fn:
		return true
	default:
		reg.logger.Warn().Str("mapId", mapID).Msg("room inbox full, dropping command")
		return false
	}
}

// AllMapIDs returns a snapshot of every currently-registered mapId, used by
// the tick loop, the elite promoter, and the inactivity sweep to fan work
// out to each room's actor.
func (reg *Registry) AllMapIDs() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (reg *Registry) nextMonsterID() string {
	n := reg.monsterSeq.Add(1)
	return "m_" + strconv.FormatUint(n, 10)
}

// Snapshot summarizes every room for the HTTP health surface (spec §6).
type RoomSummary struct {
	ID       string `json:"id"`
	Players  int    `json:"players"`
	Monsters int    `json:"monsters"`
}

func (reg *Registry) Snapshot() (totalPlayers, totalMonsters int, maps []RoomSummary) {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	ids := make([]string, 0, len(reg.rooms))
	for id, room := range reg.rooms {
		rooms = append(rooms, room)
		ids = append(ids, id)
	}
	reg.mu.Unlock()

	maps = make([]RoomSummary, 0, len(rooms))
	for i := range rooms {
		done := make(chan RoomSummary, 1)
		ok := reg.Submit(ids[i], func(r *Room) {
			live := 0
			for _, m := range r.monsters {
				if !m.IsDead {
					live++
				}
			}
			done <- RoomSummary{ID: r.mapID, Players: len(r.players), Monsters: live}
		})
		if !ok {
			continue
		}
		summary := <-done
		totalPlayers += summary.Players
		totalMonsters += summary.Monsters
		maps = append(maps, summary)
	}
	return totalPlayers, totalMonsters, maps
}
