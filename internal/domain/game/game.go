// Package game holds the wire-visible data model shared by every room: the
// player, monster, loot, and topology shapes that internal/app/world
// mutates and internal/api serializes. Nothing in this package owns a lock
// or a goroutine; it is pure state.
package game

import "time"

type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// AIType classifies whether a monster ever moves under its own power.
type AIType string

const (
	AIStatic     AIType = "static"
	AIPatrolling AIType = "patrolling"
)

// AIState is a monster's current behavior mode.
type AIState string

const (
	AIIdle    AIState = "idle"
	AIPatrol  AIState = "patrolling"
	AIChasing AIState = "chasing"
)

// Appearance bundles the purely cosmetic fields a client renders but the
// server never interprets.
type Appearance struct {
	Equipped         map[string]string `json:"equipped,omitempty"`
	CosmeticEquipped map[string]string `json:"cosmeticEquipped,omitempty"`
	Customization    map[string]string `json:"customization,omitempty"`
	Guild            string            `json:"guild,omitempty"`
	EquippedMedal    string            `json:"equippedMedal,omitempty"`
	DisplayMedals    []string          `json:"displayMedals,omitempty"`
}

// Player is the authoritative record of one connected character. Position,
// HP, and combat stats are all client-asserted and merely recorded here;
// see spec Non-goals. Y and velocityY are advisory only (client owns
// gravity/jump integration).
type Player struct {
	OdID           string     `json:"odId"`
	Name           string     `json:"name"`
	MapID          string     `json:"mapId"`
	X              float64    `json:"x"`
	Y              float64    `json:"y"`
	Facing         Facing     `json:"facing"`
	AnimationState string     `json:"animationState"`
	VelocityX      float64    `json:"velocityX"`
	VelocityY      float64    `json:"velocityY"`
	Appearance     Appearance `json:"appearance"`
	HP             int        `json:"hp"`
	MaxHP          int        `json:"maxHp"`
	Level          int        `json:"level"`
	Exp            int        `json:"exp"`
	MaxExp         int        `json:"maxExp"`
	PartyID        string     `json:"partyId,omitempty"`
	ActiveBuffs    []string   `json:"activeBuffs,omitempty"`
	Pet            any        `json:"pet,omitempty"`
	LastUpdate     time.Time  `json:"-"`
}

// LootEntry is one row of a monster type's drop table.
type LootEntry struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
	Min  int     `json:"min,omitempty"`
	Max  int     `json:"max,omitempty"`
}

// CatalogEntry describes one monster type as supplied by the first client
// to join a map. The server never invents these values.
type CatalogEntry struct {
	HP         int         `json:"hp"`
	Speed      float64     `json:"speed"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	AIType     AIType      `json:"aiType"`
	IsMiniBoss bool        `json:"isMiniBoss"`
	CanJump    bool        `json:"canJump"`
	JumpForce  float64     `json:"jumpForce"`
	Loot       []LootEntry `json:"loot"`
}

// SpawnPosition is one requested monster spawn, as supplied by a client's
// initMapMonsters payload.
type SpawnPosition struct {
	Type         string  `json:"type"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	SurfaceX     float64 `json:"surfaceX"`
	SurfaceWidth float64 `json:"surfaceWidth"`
}

// Topology is the map-wide geometry and catalog a room learns from the
// first initMapMonsters it receives.
type Topology struct {
	MapWidth     float64                 `json:"mapWidth"`
	GroundY      float64                 `json:"groundY"`
	MonsterTypes map[string]CatalogEntry `json:"monsterTypes"`
	Initialized  bool                    `json:"-"`
}

// Monster is one server-driven simulated actor within a room.
type Monster struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
	Direction int     `json:"direction"`
	Facing    Facing  `json:"facing"`
	HP        int     `json:"hp"`
	MaxHP     int     `json:"maxHp"`
	Damage    int     `json:"damage"`

	AIType  AIType  `json:"aiType"`
	AIState AIState `json:"aiState"`

	IsDead         bool `json:"isDead"`
	IsMiniBoss     bool `json:"isMiniBoss"`
	IsEliteMonster bool `json:"isEliteMonster"`
	IsTrialBoss    bool `json:"isTrialBoss"`
	IsShiny        bool `json:"isShiny"`
	CanJump        bool `json:"canJump"`
	IsJumping      bool `json:"isJumping"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	PatrolMinX   float64 `json:"-"`
	PatrolMaxX   float64 `json:"-"`
	SurfaceX     float64 `json:"-"`
	SurfaceWidth float64 `json:"-"`

	SpawnX  float64 `json:"-"`
	SpawnY  float64 `json:"-"`
	GroundY float64 `json:"-"`

	TargetPlayer string `json:"-"`

	KnockbackEndTime    time.Time `json:"-"`
	LastInteractionTime time.Time `json:"-"`
	LastUpdate          time.Time `json:"-"`

	OriginalMaxHP  int `json:"-"`
	OriginalDamage int `json:"-"`
}

// GroundItem is a server-authoritative, single-consumer item on the floor
// of a room.
type GroundItem struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VelocityX float64 `json:"velocityX,omitempty"`
	VelocityY float64 `json:"velocityY,omitempty"`
	DroppedBy string  `json:"droppedBy"`
	Timestamp int64   `json:"timestamp"`

	Amount *int `json:"amount,omitempty"`

	Stats       map[string]any `json:"stats,omitempty"`
	Rarity      string         `json:"rarity,omitempty"`
	Enhancement int            `json:"enhancement,omitempty"`
	Quantity    int            `json:"quantity,omitempty"`
	LevelReq    int            `json:"levelReq,omitempty"`
	IsQuestItem bool           `json:"isQuestItem,omitempty"`
}

// MonsterDroppedBy is the sentinel droppedBy owner for monster-minted loot.
const MonsterDroppedBy = "__monster__"

// AppearanceSnapshot is the best-effort last-known position/appearance
// record for a returning odId. A missing snapshot or a failed lookup never
// prevents a join, though the join does wait for the lookup; see
// SPEC_FULL.md §4.11.
type AppearanceSnapshot struct {
	OdID       string     `json:"odId"`
	MapID      string     `json:"mapId"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Appearance Appearance `json:"appearance"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
