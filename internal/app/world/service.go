package world

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sidescroller-server/internal/app/snapshot"
	"sidescroller-server/internal/app/telemetry"
)

// Config bundles the tunables spec §4.3 and §9 call out as configurable
// rather than hard-coded: tick cadence, inactivity timeout, and GM password.
type Config struct {
	TickHz        int
	PlayerTimeout time.Duration
	GMPassword    string
}

// Service is the facade internal/api drives: it owns the room registry, the
// process-global rate limiter and GM session set, and the background
// schedulers spec §5 calls the "suspension/blocking points" (tick timer,
// elite promoter, inactivity sweep). It also holds the optional ambient
// collaborators (snapshot store, telemetry publisher) that never sit on the
// critical path of a spec-mandated invariant.
type Service struct {
	logger      zerolog.Logger
	registry    *Registry
	rateLimiter *RateLimiter
	gm          *gmSessions

	snapshots *snapshot.Service
	telemetry *telemetry.Service

	cfg Config

	quit chan struct{}
}

func NewService(logger zerolog.Logger, cfg Config, redisClient *redis.Client, snapshots *snapshot.Service, tel *telemetry.Service) *Service {
	if cfg.TickHz <= 0 {
		cfg.TickHz = 10
	}
	if cfg.PlayerTimeout <= 0 {
		cfg.PlayerTimeout = 5 * time.Minute
	}
	return &Service{
		logger:      logger,
		registry:    NewRegistry(logger),
		rateLimiter: NewRateLimiter(),
		gm:          newGMSessions(cfg.GMPassword, redisClient),
		snapshots:   snapshots,
		telemetry:   tel,
		cfg:         cfg,
		quit:        make(chan struct{}),
	}
}

// Start launches the three process-wide schedulers described in spec §5:
// the monster tick loop, the elite/shiny promoter, and the 10s inactivity
// sweep. All three fan work out to room actors via Registry.Submit and
// never mutate room state directly.
func (s *Service) Start() {
	go s.runMonsterTickLoop()
	go s.runInactivitySweep()
	go s.runElitePromoter()
}

func (s *Service) Stop() {
	close(s.quit)
}

// RegisterClient admits a new socket connection prior to any join event. It
// does not touch any room; a connection is only associated with a room once
// it sends a join or rejoin event.
func (s *Service) RegisterClient(conn *websocket.Conn, accountID string) *Client {
	return newClient(conn, accountID)
}

// UnregisterClient tears down a socket connection: it is the disconnect
// path (spec §4.3) plus GM/rate-limiter cleanup that isn't scoped to any
// single room.
func (s *Service) UnregisterClient(c *Client) {
	s.Disconnect(c)
	s.gm.forget(c.ConnID)
	if c.Send != nil {
		close(c.Send)
	}
}

func (s *Service) HealthSnapshot() (totalPlayers, totalMonsters int, maps []RoomSummary) {
	return s.registry.Snapshot()
}

// SendError unicasts spec §7's malformed-ingress reply: a targeted error
// with no state change. The transport layer calls this when a payload
// fails to decode into the event's expected shape.
func (s *Service) SendError(c *Client, message string) {
	sendTo(c, "error", map[string]string{"message": message})
}
