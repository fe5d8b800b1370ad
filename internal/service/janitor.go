package service

import (
	"context"
	"time"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/store"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/log"
)

// Janitor periodically evicts rooms that have had no subscribers for
// longer than the configured retention. A retention of zero disables
// eviction entirely: rooms then live for the life of the process.
type Janitor struct {
	rooms     *store.RoomStore
	retention time.Duration
	interval  time.Duration
}

// NewJanitor creates a janitor for the given store.
func NewJanitor(rooms *store.RoomStore, retention, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		rooms:     rooms,
		retention: retention,
		interval:  interval,
	}
}

// Run sweeps on a fixed interval until ctx is done. It always returns
// nil so it can sit in an errgroup next to the HTTP server.
func (j *Janitor) Run(ctx context.Context) error {
	if j.retention <= 0 {
		<-ctx.Done()
		return nil
	}

	l := log.L()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := j.rooms.EvictIdle(j.retention); evicted > 0 {
				l.Info().
					Int("evicted", evicted).
					Int("remaining", j.rooms.RoomCount()).
					Msg("evicted idle rooms")
			}
		}
	}
}
