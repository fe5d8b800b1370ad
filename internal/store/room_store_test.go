package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
)

// testSink records pushed frames and can be told to fail.
type testSink struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	closed int
	fail   bool
}

func newTestSink(id string) *testSink {
	return &testSink{id: id}
}

func (s *testSink) ID() string { return s.id }

func (s *testSink) Push(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("push failed")
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *testSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *testSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func idx(i int) *int { return &i }

func queueOf(ids ...string) *[]domain.Song {
	songs := make([]domain.Song, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, domain.Song{ID: id})
	}
	return &songs
}

func TestRoomStore_GetOrInitDefaults(t *testing.T) {
	s := NewRoomStore()

	state := s.GetOrInit("ABCD")
	if len(state.Queue) != 0 || state.CurrentIndex != -1 {
		t.Errorf("got %+v, want empty queue and index -1", state)
	}

	if _, ok := s.Get("ABCD"); !ok {
		t.Error("room should exist after GetOrInit")
	}
	if _, ok := s.Get("NOPE"); ok {
		t.Error("Get must not create rooms")
	}
}

func TestRoomStore_MergePartialPatch(t *testing.T) {
	s := NewRoomStore()

	state, _ := s.Merge("ABCD", domain.StatePatch{Queue: queueOf("s1"), CurrentIndex: idx(0)})
	if len(state.Queue) != 1 || state.CurrentIndex != 0 {
		t.Fatalf("after first merge: %+v", state)
	}

	// Omitted queue keeps prior value.
	state, _ = s.Merge("ABCD", domain.StatePatch{CurrentIndex: idx(-1)})
	if len(state.Queue) != 1 {
		t.Errorf("queue length = %d, want 1 (omitted field overwritten)", len(state.Queue))
	}
	if state.CurrentIndex != -1 {
		t.Errorf("currentIndex = %d, want -1", state.CurrentIndex)
	}
}

func TestRoomStore_MergeInitializesAbsentRoom(t *testing.T) {
	s := NewRoomStore()

	state, sinks := s.Merge("NEWR", domain.StatePatch{CurrentIndex: idx(-1)})
	if len(state.Queue) != 0 || state.CurrentIndex != -1 {
		t.Errorf("got %+v, want defaults", state)
	}
	if len(sinks) != 0 {
		t.Errorf("got %d sinks, want 0", len(sinks))
	}
}

func TestRoomStore_SnapshotAfterSequenceOfMerges(t *testing.T) {
	s := NewRoomStore()

	s.Merge("ABCD", domain.StatePatch{Queue: queueOf("s1"), CurrentIndex: idx(0)})
	s.Merge("ABCD", domain.StatePatch{Queue: queueOf("s1", "s2")})
	s.Merge("ABCD", domain.StatePatch{CurrentIndex: idx(1)})

	state := s.Subscribe("ABCD", newTestSink("late"))
	if len(state.Queue) != 2 || state.CurrentIndex != 1 {
		t.Errorf("late subscriber snapshot = %+v, want merged result of all patches", state)
	}
}

func TestRoomStore_SubscribeRegistersForDelivery(t *testing.T) {
	s := NewRoomStore()
	sink := newTestSink("a")

	s.Subscribe("ABCD", sink)

	_, sinks := s.Merge("ABCD", domain.StatePatch{CurrentIndex: idx(-1)})
	if len(sinks) != 1 || sinks[0].ID() != "a" {
		t.Fatalf("merge snapshot sinks = %v, want the registered sink", sinks)
	}
}

func TestRoomStore_SubscribeSameSinkTwice(t *testing.T) {
	s := NewRoomStore()
	sink := newTestSink("a")

	s.Subscribe("ABCD", sink)
	s.Subscribe("ABCD", sink)

	if n := s.SubscriberCount("ABCD"); n != 1 {
		t.Errorf("subscriber count = %d, want 1 (set semantics)", n)
	}
}

func TestRoomStore_UnsubscribeIdempotent(t *testing.T) {
	s := NewRoomStore()
	a, b := newTestSink("a"), newTestSink("b")
	s.Subscribe("ABCD", a)
	s.Subscribe("ABCD", b)

	s.Unsubscribe("ABCD", "a")
	s.Unsubscribe("ABCD", "a")
	s.Unsubscribe("ABCD", "missing")
	s.Unsubscribe("GONE", "a")

	if n := s.SubscriberCount("ABCD"); n != 1 {
		t.Errorf("subscriber count = %d, want 1", n)
	}
	if sinks := s.SnapshotSinks("ABCD"); len(sinks) != 1 || sinks[0].ID() != "b" {
		t.Errorf("remaining sinks = %v, want only b", sinks)
	}
}

func TestRoomStore_RoomsAreIndependent(t *testing.T) {
	s := NewRoomStore()

	s.Merge("AAAA", domain.StatePatch{Queue: queueOf("s1"), CurrentIndex: idx(0)})
	s.Subscribe("AAAA", newTestSink("a"))

	state := s.GetOrInit("BBBB")
	if len(state.Queue) != 0 || state.CurrentIndex != -1 {
		t.Errorf("room BBBB = %+v, want defaults", state)
	}
	if n := s.SubscriberCount("BBBB"); n != 0 {
		t.Errorf("room BBBB has %d subscribers, want 0", n)
	}
}

func TestRoomStore_ConcurrentMergesKeepLastWriteVisible(t *testing.T) {
	s := NewRoomStore()
	const writers = 16
	const writesEach = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			room := fmt.Sprintf("R%d", w%4)
			for i := 0; i < writesEach; i++ {
				s.Merge(room, domain.StatePatch{Queue: queueOf("s1", "s2"), CurrentIndex: idx(i % 2)})
			}
		}(w)
	}
	wg.Wait()

	for r := 0; r < 4; r++ {
		state, ok := s.Get(fmt.Sprintf("R%d", r))
		if !ok {
			t.Fatalf("room R%d missing", r)
		}
		if len(state.Queue) != 2 || !state.Consistent() {
			t.Errorf("room R%d ended inconsistent: %+v", r, state)
		}
	}
}

func TestRoomStore_ConcurrentSubscribeAndUnsubscribe(t *testing.T) {
	s := NewRoomStore()
	const n = 32

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink := newTestSink(fmt.Sprintf("sink-%d", i))
			s.Subscribe("ABCD", sink)
			if i%2 == 0 {
				s.Unsubscribe("ABCD", sink.ID())
				s.Unsubscribe("ABCD", sink.ID())
			}
		}(i)
	}
	wg.Wait()

	if got := s.SubscriberCount("ABCD"); got != n/2 {
		t.Errorf("subscriber count = %d, want %d", got, n/2)
	}
}

func TestRoomStore_EvictIdle(t *testing.T) {
	s := NewRoomStore()

	s.GetOrInit("IDLE")
	s.Subscribe("BUSY", newTestSink("a"))

	time.Sleep(10 * time.Millisecond)

	if evicted := s.EvictIdle(5 * time.Millisecond); evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}
	if _, ok := s.Get("IDLE"); ok {
		t.Error("idle room should be gone")
	}
	if _, ok := s.Get("BUSY"); !ok {
		t.Error("room with a live sink must survive eviction")
	}
}

func TestRoomStore_SubscribeDuringEvictionSweep(t *testing.T) {
	s := NewRoomStore()

	// Hold an entry pointer across the sweep, the way Subscribe does
	// between its map lookup and taking the room mutex.
	stale := s.getOrCreate("RACE")

	time.Sleep(time.Millisecond)
	if evicted := s.EvictIdle(0); evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}

	stale.mu.Lock()
	dead := stale.evicted
	stale.mu.Unlock()
	if !dead {
		t.Fatal("swept entry must be marked evicted")
	}

	sink := newTestSink("a")
	s.Subscribe("RACE", sink)

	_, sinks := s.Merge("RACE", domain.StatePatch{CurrentIndex: idx(0)})
	if len(sinks) != 1 || sinks[0].ID() != "a" {
		t.Fatalf("merge snapshot sinks = %v, want the sink registered after the sweep", sinks)
	}

	stale.mu.Lock()
	orphaned := len(stale.sinks)
	stale.mu.Unlock()
	if orphaned != 0 {
		t.Errorf("evicted entry holds %d sinks, want 0", orphaned)
	}
}

func TestRoomStore_EvictIdleRespectsRetention(t *testing.T) {
	s := NewRoomStore()
	s.GetOrInit("KEEP")

	if evicted := s.EvictIdle(time.Hour); evicted != 0 {
		t.Errorf("evicted = %d, want 0 inside retention window", evicted)
	}
}
