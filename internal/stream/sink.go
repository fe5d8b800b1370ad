package stream

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSinkClosed = errors.New("sink is closed")
	ErrBufferFull = errors.New("sink buffer is full")
)

// Sink buffers push frames for a single subscriber connection. The
// connection's write pump drains Frames in one goroutine, so broadcast
// pushes and keep-alives never interleave mid-frame. Push is
// non-blocking: a subscriber that stops draining gets ErrBufferFull and
// is pruned by the broadcaster instead of stalling delivery to others.
type Sink struct {
	id        string
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewSink creates a sink with the given frame buffer capacity.
func NewSink(buffer int) *Sink {
	if buffer < 1 {
		buffer = 1
	}
	return &Sink{
		id:     uuid.New().String(),
		frames: make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// ID returns the sink's identity key.
func (s *Sink) ID() string {
	return s.id
}

// Push enqueues a frame for delivery. It never blocks.
func (s *Sink) Push(frame []byte) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	select {
	case s.frames <- frame:
		return nil
	case <-s.done:
		return ErrSinkClosed
	default:
		return ErrBufferFull
	}
}

// Close marks the sink closed. Idempotent: concurrent triggers from a
// failed write and a remote disconnect may both land here.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Frames is the channel the write pump drains.
func (s *Sink) Frames() <-chan []byte {
	return s.frames
}

// Done is closed when the sink has been closed.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}
