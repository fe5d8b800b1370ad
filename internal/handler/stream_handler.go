package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/service"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/stream"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/log"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/response"
)

// StreamHandler serves the long-lived SSE subscription endpoint. Each
// request runs one session: register a sink, emit the current snapshot,
// relay broadcast frames and keep-alives, and clean up on disconnect.
type StreamHandler struct {
	syncSvc    service.SyncService
	keepAlive  time.Duration
	sinkBuffer int
	shutdown   context.Context
}

// NewStreamHandler creates a new stream handler. shutdown is a
// server-wide context; cancelling it closes every open session.
func NewStreamHandler(syncSvc service.SyncService, keepAlive time.Duration, sinkBuffer int, shutdown context.Context) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &StreamHandler{
		syncSvc:    syncSvc,
		keepAlive:  keepAlive,
		sinkBuffer: sinkBuffer,
		shutdown:   shutdown,
	}
}

// RegisterRoutes registers the stream route.
func (h *StreamHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/v1/rooms/:id/stream", h.HandleStream)
}

// HandleStream runs a subscription session until the client
// disconnects, a write fails, or the server shuts down.
func (h *StreamHandler) HandleStream(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, err := domain.NormalizeRoomID(c.Param("id"))
	if err != nil {
		response.Error(c, 400, "INVALID_ROOM_ID", "room id must be 1-10 printable characters")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sink := stream.NewSink(h.sinkBuffer)
	snapshot := h.syncSvc.Subscribe(ctx, roomID, sink)
	defer func() {
		h.syncSvc.Unsubscribe(roomID, sink.ID())
		_ = sink.Close()
		l.Debug().Str(log.FieldRoomID, roomID).Str(log.FieldSinkID, sink.ID()).Msg("stream session closed")
	}()

	first, err := stream.StateFrame(snapshot)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to serialize snapshot")
		return
	}
	if !h.write(c, first) {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.shutdown.Done():
			return
		case <-sink.Done():
			// Pruned by the broadcaster after a failed push.
			return
		case frame := <-sink.Frames():
			if !h.write(c, frame) {
				return
			}
		case <-ticker.C:
			if !h.write(c, stream.KeepAliveFrame()) {
				return
			}
		}
	}
}

// write sends one frame and flushes it through any buffering layers.
// A false return means the connection is gone.
func (h *StreamHandler) write(c *gin.Context, frame []byte) bool {
	if _, err := c.Writer.Write(frame); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}
