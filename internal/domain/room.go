package domain

import (
	"errors"
	"strings"
)

// MaxRoomIDLength bounds room identifiers; codes are short and shareable.
const MaxRoomIDLength = 10

var ErrInvalidRoomID = errors.New("invalid room id")

// Song is a single queue entry. Songs are immutable once queued;
// a patch that changes the queue replaces every entry wholesale.
type Song struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     string `json:"duration,omitempty"`
}

// RoomState is the shared playback state synchronized to every
// subscriber of a room. CurrentIndex is -1 when nothing is playing,
// otherwise an index into Queue.
type RoomState struct {
	Queue        []Song `json:"queue"`
	CurrentIndex int    `json:"currentIndex"`
}

// NewRoomState returns the default state for a room with no writes yet.
func NewRoomState() RoomState {
	return RoomState{
		Queue:        []Song{},
		CurrentIndex: -1,
	}
}

// StatePatch is a partial update. Pointer fields distinguish an
// explicitly supplied value (including currentIndex -1) from an
// omitted one; omitted fields leave the stored state untouched.
type StatePatch struct {
	Queue        *[]Song `json:"queue"`
	CurrentIndex *int    `json:"currentIndex"`
}

// Apply overlays the fields present in the patch onto s and returns
// the result. Supplying a queue replaces the whole sequence.
func (s RoomState) Apply(p StatePatch) RoomState {
	next := s
	if p.Queue != nil {
		next.Queue = *p.Queue
		if next.Queue == nil {
			next.Queue = []Song{}
		}
	}
	if p.CurrentIndex != nil {
		next.CurrentIndex = *p.CurrentIndex
	}
	return next
}

// Consistent reports whether the currentIndex invariant holds.
// Validation of inconsistent patches is the caller's responsibility;
// the store does not re-derive validity from the queue length.
func (s RoomState) Consistent() bool {
	return s.CurrentIndex == -1 || (s.CurrentIndex >= 0 && s.CurrentIndex < len(s.Queue))
}

// NormalizeRoomID validates a room identifier and maps it to its
// canonical upper-case form. Room codes are matched case-insensitively.
func NormalizeRoomID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxRoomIDLength {
		return "", ErrInvalidRoomID
	}
	for _, r := range id {
		if r < '!' || r > '~' {
			return "", ErrInvalidRoomID
		}
	}
	return strings.ToUpper(id), nil
}
