package world

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(zerolog.Nop(), Config{TickHz: 10, PlayerTimeout: time.Minute}, nil, nil, nil)
	t.Cleanup(svc.Stop)
	return svc
}

// syncRoom blocks until every command already queued on mapID's room has
// drained, relying on the room actor's FIFO processing order (spec §5).
func syncRoom(t *testing.T, svc *Service, mapID string) {
	t.Helper()
	done := make(chan struct{})
	if !svc.registry.Submit(mapID, func(r *Room) { close(done) }) {
		t.Fatalf("room %s does not exist", mapID)
	}
	<-done
}

func newTestClient() *Client {
	return &Client{ConnID: "conn-1", Send: make(chan []byte, 64)}
}

func drainClient(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}
