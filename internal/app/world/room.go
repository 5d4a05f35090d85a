package world

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"sidescroller-server/internal/domain/game"
)

// roomCmd is one unit of serialized work inside a room's actor loop.
type roomCmd func(r *Room)

// Room owns everything scoped to one mapId: players, monsters, topology,
// ground items, the damage ledger, and the current elite pointer. All
// mutation happens on the single goroutine draining inbox, so nothing in
// this struct needs its own lock (spec §5).
type Room struct {
	mapID string

	players     map[string]*game.Player
	subscribers map[string]*Client
	monsters    map[string]*game.Monster
	topology    game.Topology
	groundItems map[string]*game.GroundItem
	ledger      map[string]map[string]int // monsterID -> odId -> damage
	eliteID     string

	rand *rand.Rand

	inbox chan roomCmd
	quit  chan struct{}

	registry *Registry
	logger   zerolog.Logger

	dropCounter int
}

func newRoom(mapID string, registry *Registry, logger zerolog.Logger) *Room {
	r := &Room{
		mapID:       mapID,
		players:     make(map[string]*game.Player),
		subscribers: make(map[string]*Client),
		monsters:    make(map[string]*game.Monster),
		groundItems: make(map[string]*game.GroundItem),
		ledger:      make(map[string]map[string]int),
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		inbox:       make(chan roomCmd, 512),
		quit:        make(chan struct{}),
		registry:    registry,
		logger:      logger.With().Str("mapId", mapID).Logger(),
	}
	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case cmd := <-r.inbox:
			cmd(r)
		case <-r.quit:
			return
		}
	}
}

func (r *Room) empty() bool {
	return len(r.players) == 0
}

func (r *Room) playerList() []game.Player {
	out := make([]game.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	return out
}

func (r *Room) liveMonsterList() []game.Monster {
	out := make([]game.Monster, 0, len(r.monsters))
	for _, m := range r.monsters {
		if !m.IsDead {
			out = append(out, *m)
		}
	}
	return out
}
