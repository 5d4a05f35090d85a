// Package snapshot persists a best-effort last-known position/appearance
// per odId (spec component C10/C11). It is never part of room, combat, or
// loot authority: a Postgres or Redis outage silently disables it and every
// spec.md-mandated join/disconnect behavior continues unchanged.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sidescroller-server/internal/domain/game"
)

type Service struct {
	logger   zerolog.Logger
	db       *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(logger zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{logger: logger, db: db, cache: cache, cacheTTL: cacheTTL}
}

// Save upserts the snapshot for odId, fire-and-forget: called from the
// presence manager's disconnect path and must never delay a playerLeft
// broadcast, so callers should invoke this in its own goroutine.
func (s *Service) Save(ctx context.Context, snap game.AppearanceSnapshot) {
	if s.db != nil {
		appearance, _ := json.Marshal(snap.Appearance)
		_, err := s.db.Exec(ctx, `
INSERT INTO appearance_snapshots (od_id, map_id, x, y, appearance, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (od_id) DO UPDATE
SET map_id = $2, x = $3, y = $4, appearance = $5, updated_at = NOW()
`, snap.OdID, snap.MapID, snap.X, snap.Y, appearance)
		if err != nil {
			s.logger.Warn().Err(err).Str("odId", snap.OdID).Msg("save appearance snapshot failed")
		}
	}
	s.invalidateCache(ctx, snap.OdID)
}

// Load returns the last-known snapshot for odId, if any. It checks the
// cache first, then falls back to Postgres and repopulates the cache.
func (s *Service) Load(ctx context.Context, odID string) (game.AppearanceSnapshot, bool) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cacheKey(odID)).Result(); err == nil {
			var snap game.AppearanceSnapshot
			if json.Unmarshal([]byte(cached), &snap) == nil {
				return snap, true
			}
		}
	}
	if s.db == nil {
		return game.AppearanceSnapshot{}, false
	}

	var snap game.AppearanceSnapshot
	var appearance []byte
	err := s.db.QueryRow(ctx, `
SELECT od_id, map_id, x, y, appearance, updated_at
FROM appearance_snapshots WHERE od_id = $1
`, odID).Scan(&snap.OdID, &snap.MapID, &snap.X, &snap.Y, &appearance, &snap.UpdatedAt)
	if err != nil {
		if err != pgx.ErrNoRows {
			s.logger.Warn().Err(err).Str("odId", odID).Msg("load appearance snapshot failed")
		}
		return game.AppearanceSnapshot{}, false
	}
	_ = json.Unmarshal(appearance, &snap.Appearance)

	if s.cache != nil {
		if b, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, s.cacheKey(odID), b, s.cacheTTL).Err()
		}
	}
	return snap, true
}

func (s *Service) cacheKey(odID string) string {
	return "snapshot:appearance:" + odID
}

func (s *Service) invalidateCache(ctx context.Context, odID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cacheKey(odID)).Err()
}
