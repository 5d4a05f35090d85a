package world

import "sidescroller-server/internal/domain/game"

// The structs below are the typed ingress commands spec §6 lists as loosely
// shaped JSON bags. Decoding into one of these at the transport edge is the
// "tagged variant" redesign spec §9 calls for: a payload that doesn't parse
// yields a single unicast error, never a state change.

type JoinMsg struct {
	OdID             string            `json:"odId"`
	Name             string            `json:"name"`
	MapID            string            `json:"mapId"`
	X                float64           `json:"x"`
	Y                float64           `json:"y"`
	Customization    map[string]string `json:"customization,omitempty"`
	Level            int               `json:"level,omitempty"`
	PlayerClass      string            `json:"playerClass,omitempty"`
	Guild            string            `json:"guild,omitempty"`
	Equipped         map[string]string `json:"equipped,omitempty"`
	CosmeticEquipped map[string]string `json:"cosmeticEquipped,omitempty"`
	EquippedMedal    string            `json:"equippedMedal,omitempty"`
	DisplayMedals    []string          `json:"displayMedals,omitempty"`
	PartyID          string            `json:"partyId,omitempty"`
}

type RejoinMsg struct {
	JoinMsg
	OldOdID string `json:"oldOdId,omitempty"`
}

type UpdatePositionMsg struct {
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	Facing         string   `json:"facing"`
	AnimationState string   `json:"animationState"`
	VelocityX      float64  `json:"velocityX"`
	VelocityY      float64  `json:"velocityY"`
	ActiveBuffs    []string `json:"activeBuffs,omitempty"`
	Pet            any      `json:"pet,omitempty"`
}

type ChangeMapMsg struct {
	NewMapID string  `json:"newMapId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type ChatMessageMsg struct {
	Message string `json:"message"`
}

type SpawnerMsg struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type InitMapMonstersMsg struct {
	MapID          string                       `json:"mapId"`
	Monsters       []SpawnerMsg                 `json:"monsters"`
	SpawnPositions []game.SpawnPosition         `json:"spawnPositions"`
	MapWidth       float64                      `json:"mapWidth"`
	GroundY        float64                      `json:"groundY"`
	MonsterTypes   map[string]game.CatalogEntry `json:"monsterTypes"`
}

type AttackMonsterMsg struct {
	Seq             *int    `json:"seq,omitempty"`
	MonsterID       string  `json:"monsterId"`
	Damage          float64 `json:"damage"`
	IsCritical      bool    `json:"isCritical"`
	AttackType      string  `json:"attackType,omitempty"`
	PlayerDirection int     `json:"playerDirection"`
	PredictedHP     *int    `json:"predictedHp,omitempty"`
}

type TransformEliteMsg struct {
	MonsterID      string `json:"monsterId"`
	MaxHP          int    `json:"maxHp"`
	Damage         int    `json:"damage"`
	OriginalMaxHP  int    `json:"originalMaxHp"`
	OriginalDamage int    `json:"originalDamage"`
}

type ItemPickupMsg struct {
	ItemID   string  `json:"itemId"`
	ItemName string  `json:"itemName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type PlayerDropItemMsg struct {
	Name        string         `json:"name"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Stats       map[string]any `json:"stats,omitempty"`
	Rarity      string         `json:"rarity,omitempty"`
	Enhancement int            `json:"enhancement,omitempty"`
	Quantity    int            `json:"quantity,omitempty"`
	LevelReq    int            `json:"levelReq,omitempty"`
	IsQuestItem bool           `json:"isQuestItem,omitempty"`
	IsGold      bool           `json:"isGold,omitempty"`
	Amount      int            `json:"amount,omitempty"`
}

type UpdatePartyMsg struct {
	PartyID string `json:"partyId"`
}

type UpdatePartyStatsMsg struct {
	HP     int `json:"hp"`
	MaxHP  int `json:"maxHp"`
	Level  int `json:"level"`
	Exp    int `json:"exp"`
	MaxExp int `json:"maxExp"`
}

type SharePartyGoldMsg struct {
	TotalAmount int `json:"totalAmount"`
}

// RelayMsg covers playerVFX / playerProjectile / playerProjectileHit /
// playerSkillVFX / updateAppearance / playerDeath / playerRespawn /
// latencyPing: none of these are interpreted by the server. The relays pass
// them on to the rest of the room with the sender's odId added; latencyPing
// echoes its payload back to the sender.
type RelayMsg map[string]any

type GmAuthMsg struct {
	Password string `json:"password"`
}
