package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is the thin persisted-identity record a client authenticates as
// before it ever presents an odId to the room engine. It has no bearing on
// room membership, combat, or loot; it exists only to admit a WebSocket
// connection.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
