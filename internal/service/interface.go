package service

import (
	"context"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/store"
)

// SyncService coordinates room state mutation and live fan-out.
type SyncService interface {
	// Apply merges the patch into the room's state, pushes the result
	// to every subscriber, and returns it so the caller can echo it back.
	Apply(ctx context.Context, roomID string, patch domain.StatePatch) domain.RoomState

	// Subscribe registers the sink with the room and returns the state
	// snapshot to deliver as the subscriber's first frame.
	Subscribe(ctx context.Context, roomID string, sink store.Sink) domain.RoomState

	// Unsubscribe detaches the sink from the room. Safe to call more
	// than once and for sinks that were never attached.
	Unsubscribe(roomID, sinkID string)

	// State returns the room's current state, creating the room if needed.
	State(ctx context.Context, roomID string) domain.RoomState
}
