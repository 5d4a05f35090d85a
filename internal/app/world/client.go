package world

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one live socket connection. A connection may own at most one
// odId at a time (rejoin swaps it); OdID/MapID are set by the presence
// handlers (Join, Rejoin, ChangeMap, Disconnect) on the connection's own
// goroutine once the room command they submitted has completed.
type Client struct {
	ConnID    string
	Conn      *websocket.Conn
	AccountID string
	OdID      string
	MapID     string
	Send      chan []byte
}

func newClient(conn *websocket.Conn, accountID string) *Client {
	return &Client{ConnID: uuid.NewString(), Conn: conn, AccountID: accountID, Send: make(chan []byte, 256)}
}

func nonBlockingSend(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
	default:
	}
}
