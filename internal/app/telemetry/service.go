// Package telemetry publishes fire-and-forget analytics events over NATS.
// Nothing in the room engine ever waits on or branches on a publish result;
// an unreachable broker degrades this package to a no-op exactly like the
// teacher's mq.NewNoopPublisher fallback.
package telemetry

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"sidescroller-server/internal/platform/mq"
)

type Service struct {
	logger zerolog.Logger
	pub    mq.Publisher
}

func NewService(logger zerolog.Logger, pub mq.Publisher) *Service {
	if pub == nil {
		pub = mq.NewNoopPublisher()
	}
	return &Service{logger: logger, pub: pub}
}

const (
	subjectMonsterKilled   = "game.monster.killed"
	subjectItemPickedUp    = "game.item.pickedup"
	subjectPlayerJoined    = "game.player.joined"
	subjectElitePromoted   = "game.monster.elite_promoted"
)

func (s *Service) PublishMonsterKilled(mapID string, payload any) { s.publish(subjectMonsterKilled, mapID, payload) }
func (s *Service) PublishItemPickedUp(mapID string, payload any)  { s.publish(subjectItemPickedUp, mapID, payload) }
func (s *Service) PublishPlayerJoined(mapID string, payload any)  { s.publish(subjectPlayerJoined, mapID, payload) }
func (s *Service) PublishElitePromoted(mapID string, payload any) { s.publish(subjectElitePromoted, mapID, payload) }

func (s *Service) publish(subject, mapID string, payload any) {
	envelope := map[string]any{"mapId": mapID, "data": payload}
	b, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	if err := s.pub.Publish(context.Background(), subject, b); err != nil {
		s.logger.Debug().Err(err).Str("subject", subject).Msg("telemetry publish failed")
	}
}
