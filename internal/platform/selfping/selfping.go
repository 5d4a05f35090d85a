// Package selfping is the background keep-alive ticker SPEC_FULL.md §4.14
// describes: a periodic GET against an external URL to prevent idle-timeout
// eviction on free-tier hosts. It has no effect on room/combat/loot
// behavior; it exists purely for deployment posture.
package selfping

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	interval    = 10 * time.Minute
	dialTimeout = 5 * time.Second
)

// Start launches the ticker if url is non-empty and returns a stop func.
// A no-op url produces a no-op stop func, matching the ambient-stack
// contract every other optional collaborator in this repo follows.
func Start(logger zerolog.Logger, url string) func() {
	if url == "" {
		return func() {}
	}
	quit := make(chan struct{})
	client := &http.Client{Timeout: dialTimeout}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resp, err := client.Get(url)
				if err != nil {
					logger.Debug().Err(err).Str("url", url).Msg("self-ping failed")
					continue
				}
				resp.Body.Close()
			case <-quit:
				return
			}
		}
	}()
	return func() { close(quit) }
}
