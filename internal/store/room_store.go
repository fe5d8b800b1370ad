package store

import (
	"sync"
	"time"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
)

// Sink receives serialized push frames for one subscriber connection.
// Implementations must serialize their own writes and tolerate Close
// being called more than once.
type Sink interface {
	ID() string
	Push(frame []byte) error
	Close() error
}

// room is one registry entry. Its mutex covers both the playback state
// and the subscriber set: holding it across "register sink, read
// snapshot" and "merge state, snapshot sinks" is what guarantees a
// subscriber never misses an update applied after it subscribed and
// never sees one twice.
type room struct {
	mu         sync.Mutex
	state      domain.RoomState
	sinks      map[string]Sink
	emptySince time.Time
	// evicted is set under mu when the sweep removes the entry from the
	// map. A caller that locked the entry through a stale pointer must
	// treat it as gone and go back to the map.
	evicted bool
}

func (r *room) sinkSnapshot() []Sink {
	out := make([]Sink, 0, len(r.sinks))
	for _, s := range r.sinks {
		out = append(out, s)
	}
	return out
}

// RoomStore owns every room's state and subscriber set for the life of
// the process. Rooms are created lazily on first access and only
// removed by the idle eviction sweep. Independent rooms never contend:
// the store-level lock guards only the map, each room has its own.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRoomStore creates an empty room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*room),
	}
}

func (s *RoomStore) getOrCreate(roomID string) *room {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok = s.rooms[roomID]; ok {
		return r
	}
	r = &room{
		state:      domain.NewRoomState(),
		sinks:      make(map[string]Sink),
		emptySince: time.Now(),
	}
	s.rooms[roomID] = r
	return r
}

// acquire returns the room's entry with its mutex held, creating the
// room if needed. The eviction sweep can remove an entry between the
// map lookup and taking its mutex, so retry until the locked entry is
// still the one in the map.
func (s *RoomStore) acquire(roomID string) *room {
	for {
		r := s.getOrCreate(roomID)
		r.mu.Lock()
		if !r.evicted {
			return r
		}
		r.mu.Unlock()
	}
}

func (s *RoomStore) lookup(roomID string) (*room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	return r, ok
}

// GetOrInit returns the room's current state, creating the room with
// the default state if it does not exist yet.
func (s *RoomStore) GetOrInit(roomID string) domain.RoomState {
	r := s.acquire(roomID)
	defer r.mu.Unlock()
	return r.state
}

// Get returns the room's state without creating it.
func (s *RoomStore) Get(roomID string) (domain.RoomState, bool) {
	r, ok := s.lookup(roomID)
	if !ok {
		return domain.RoomState{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return domain.RoomState{}, false
	}
	return r.state, true
}

// Merge overlays the patch onto the room's state, initializing the room
// first if needed, and returns the resulting state together with a
// point-in-time snapshot of the room's sinks. State write and sink
// snapshot happen in one critical section so that delivery can run
// outside the lock without racing a concurrent Subscribe.
func (s *RoomStore) Merge(roomID string, patch domain.StatePatch) (domain.RoomState, []Sink) {
	r := s.acquire(roomID)
	defer r.mu.Unlock()
	r.state = r.state.Apply(patch)
	return r.state, r.sinkSnapshot()
}

// Subscribe registers the sink with the room and returns the state
// snapshot it should receive first, atomically: any merge committed
// after this call will find the sink in its delivery snapshot.
// Registering the same sink twice is safe; sinks are keyed by identity.
func (s *RoomStore) Subscribe(roomID string, sink Sink) domain.RoomState {
	r := s.acquire(roomID)
	defer r.mu.Unlock()
	r.sinks[sink.ID()] = sink
	return r.state
}

// Unsubscribe removes the sink from the room's subscriber set. It is a
// no-op if the room or the sink is absent, and safe to call from both
// the normal-close and error paths concurrently.
func (s *RoomStore) Unsubscribe(roomID, sinkID string) {
	r, ok := s.lookup(roomID)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sinks[sinkID]; !ok {
		return
	}
	delete(r.sinks, sinkID)
	if len(r.sinks) == 0 {
		r.emptySince = time.Now()
	}
}

// SnapshotSinks returns a point-in-time copy of the room's subscriber
// set. The copy may be iterated without holding any lock.
func (s *RoomStore) SnapshotSinks(roomID string) []Sink {
	r, ok := s.lookup(roomID)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sinkSnapshot()
}

// SubscriberCount returns the number of sinks attached to the room.
func (s *RoomStore) SubscriberCount(roomID string) int {
	r, ok := s.lookup(roomID)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks)
}

// RoomCount returns the number of rooms currently held.
func (s *RoomStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// EvictIdle removes rooms that have had zero subscribers for longer
// than retention and returns how many were evicted. Rooms with live
// sinks are never touched.
func (s *RoomStore) EvictIdle(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, r := range s.rooms {
		r.mu.Lock()
		if len(r.sinks) == 0 && r.emptySince.Before(cutoff) {
			r.evicted = true
			delete(s.rooms, id)
			evicted++
		}
		r.mu.Unlock()
	}
	return evicted
}
