package service

import (
	"context"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/audit"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/store"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/stream"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/log"
)

// syncServiceImpl implements SyncService on top of the room store.
type syncServiceImpl struct {
	rooms *store.RoomStore
}

// NewSyncService creates a new sync service.
func NewSyncService(rooms *store.RoomStore) SyncService {
	return &syncServiceImpl{rooms: rooms}
}

// Apply merges the patch and fans the resulting state out to every
// subscriber of the room. Delivery is fire-and-forget: a failing sink
// only affects that subscriber.
func (s *syncServiceImpl) Apply(ctx context.Context, roomID string, patch domain.StatePatch) domain.RoomState {
	state, sinks := s.rooms.Merge(roomID, patch)

	audit.Log(ctx, audit.ActionUpdateState, roomID, "room state updated")

	s.pushToAll(ctx, roomID, state, sinks)
	return state
}

// pushToAll serializes the state once and attempts delivery to each
// sink in turn, outside any room lock. Sinks that fail are removed and
// closed; the rest still receive the frame.
func (s *syncServiceImpl) pushToAll(ctx context.Context, roomID string, state domain.RoomState, sinks []store.Sink) {
	if len(sinks) == 0 {
		return
	}
	l := log.Ctx(ctx)

	frame, err := stream.StateFrame(state)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to serialize state frame")
		return
	}

	for _, sink := range sinks {
		if err := sink.Push(frame); err != nil {
			l.Warn().Err(err).
				Str(log.FieldRoomID, roomID).
				Str(log.FieldSinkID, sink.ID()).
				Msg("dropping subscriber after failed push")
			s.rooms.Unsubscribe(roomID, sink.ID())
			_ = sink.Close()
		}
	}
}

func (s *syncServiceImpl) Subscribe(ctx context.Context, roomID string, sink store.Sink) domain.RoomState {
	state := s.rooms.Subscribe(roomID, sink)
	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldSinkID, sink.ID()).
		Int("subscribers", s.rooms.SubscriberCount(roomID)).
		Msg("subscriber attached")
	return state
}

func (s *syncServiceImpl) Unsubscribe(roomID, sinkID string) {
	s.rooms.Unsubscribe(roomID, sinkID)
}

func (s *syncServiceImpl) State(ctx context.Context, roomID string) domain.RoomState {
	return s.rooms.GetOrInit(roomID)
}
