package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/store"
)

type fakeSink struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	closed int
	fail   bool
}

func (s *fakeSink) ID() string { return s.id }

func (s *fakeSink) Push(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink broken")
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSink) lastFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *fakeSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *fakeSink) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func idx(i int) *int { return &i }

func queueOf(ids ...string) *[]domain.Song {
	songs := make([]domain.Song, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, domain.Song{ID: id})
	}
	return &songs
}

func newService() (SyncService, *store.RoomStore) {
	rooms := store.NewRoomStore()
	return NewSyncService(rooms), rooms
}

func TestSyncService_ApplyReturnsMergedState(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	state := svc.Apply(ctx, "ABCD", domain.StatePatch{Queue: queueOf("s1"), CurrentIndex: idx(0)})
	if len(state.Queue) != 1 || state.CurrentIndex != 0 {
		t.Fatalf("first apply = %+v", state)
	}

	// A patch with an unchanged queue keeps the prior queue.
	state = svc.Apply(ctx, "ABCD", domain.StatePatch{CurrentIndex: idx(0)})
	if len(state.Queue) != 1 || state.Queue[0].ID != "s1" || state.CurrentIndex != 0 {
		t.Errorf("second apply = %+v, want queue retained", state)
	}
}

func TestSyncService_BroadcastReachesAllSubscribers(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	s1 := &fakeSink{id: "s1"}
	s2 := &fakeSink{id: "s2"}
	svc.Subscribe(ctx, "ABCD", s1)
	svc.Subscribe(ctx, "ABCD", s2)

	svc.Apply(ctx, "ABCD", domain.StatePatch{Queue: queueOf("a"), CurrentIndex: idx(0)})

	if s1.frameCount() != 1 || s2.frameCount() != 1 {
		t.Fatalf("frame counts = %d, %d, want 1 each", s1.frameCount(), s2.frameCount())
	}
	if !bytes.Equal(s1.lastFrame(), s2.lastFrame()) {
		t.Errorf("subscribers diverged:\n%s\n%s", s1.lastFrame(), s2.lastFrame())
	}
}

func TestSyncService_FailingSinkDoesNotBlockOthers(t *testing.T) {
	svc, rooms := newService()
	ctx := context.Background()

	bad := &fakeSink{id: "bad", fail: true}
	good := &fakeSink{id: "good"}
	svc.Subscribe(ctx, "ABCD", bad)
	svc.Subscribe(ctx, "ABCD", good)

	svc.Apply(ctx, "ABCD", domain.StatePatch{CurrentIndex: idx(-1)})

	if good.frameCount() != 1 {
		t.Errorf("good sink got %d frames, want 1", good.frameCount())
	}
	if bad.closeCount() == 0 {
		t.Error("failing sink should be closed")
	}
	if n := rooms.SubscriberCount("ABCD"); n != 1 {
		t.Errorf("subscriber count after prune = %d, want 1", n)
	}

	// The pruned sink receives nothing further.
	svc.Apply(ctx, "ABCD", domain.StatePatch{CurrentIndex: idx(-1)})
	if good.frameCount() != 2 {
		t.Errorf("good sink got %d frames, want 2", good.frameCount())
	}
}

func TestSyncService_SubscribeSnapshotReflectsPriorWrites(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	svc.Apply(ctx, "ABCD", domain.StatePatch{Queue: queueOf("s1"), CurrentIndex: idx(0)})
	svc.Apply(ctx, "ABCD", domain.StatePatch{Queue: queueOf("s1", "s2")})

	late := &fakeSink{id: "late"}
	snapshot := svc.Subscribe(ctx, "ABCD", late)
	if len(snapshot.Queue) != 2 || snapshot.CurrentIndex != 0 {
		t.Errorf("snapshot = %+v, want result of both patches", snapshot)
	}
	if late.frameCount() != 0 {
		t.Errorf("late subscriber already has %d pushed frames, want 0", late.frameCount())
	}
}

func TestSyncService_SubscribeFreshRoom(t *testing.T) {
	svc, _ := newService()

	snapshot := svc.Subscribe(context.Background(), "NEWR", &fakeSink{id: "a"})
	if len(snapshot.Queue) != 0 || snapshot.CurrentIndex != -1 {
		t.Errorf("fresh room snapshot = %+v, want defaults", snapshot)
	}
}

func TestSyncService_UnsubscribeStopsDelivery(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	sink := &fakeSink{id: "a"}
	svc.Subscribe(ctx, "ABCD", sink)
	svc.Unsubscribe("ABCD", sink.ID())
	svc.Unsubscribe("ABCD", sink.ID())

	svc.Apply(ctx, "ABCD", domain.StatePatch{CurrentIndex: idx(-1)})
	if sink.frameCount() != 0 {
		t.Errorf("unsubscribed sink got %d frames, want 0", sink.frameCount())
	}
}

func TestSyncService_EndToEndMergeScenario(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	// First patch creates the room implicitly.
	svc.Apply(ctx, "ABCD", domain.StatePatch{Queue: queueOf("s1"), CurrentIndex: idx(0)})

	sub := &fakeSink{id: "sub"}
	snapshot := svc.Subscribe(ctx, "ABCD", sub)
	if len(snapshot.Queue) != 1 || snapshot.CurrentIndex != 0 {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	// Index-only patch: queue must be retained in the pushed frame.
	state := svc.Apply(ctx, "ABCD", domain.StatePatch{CurrentIndex: idx(0)})
	if len(state.Queue) != 1 || state.Queue[0].ID != "s1" {
		t.Fatalf("merged state = %+v", state)
	}
	if sub.frameCount() != 1 {
		t.Fatalf("subscriber got %d frames, want 1", sub.frameCount())
	}
	if !bytes.Contains(sub.lastFrame(), []byte(`"s1"`)) {
		t.Errorf("pushed frame lost the queue: %s", sub.lastFrame())
	}
}
