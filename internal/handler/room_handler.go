package handler

import (
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/audit"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/domain"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/service"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/log"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/middleware"
	"github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/response"
)

// RoomHandler handles room code minting and state read/update requests.
type RoomHandler struct {
	syncSvc        service.SyncService
	authMiddleware *middleware.AuthMiddleware
	codeLength     int
	codeAlphabet   string
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(syncSvc service.SyncService, authMiddleware *middleware.AuthMiddleware, codeLength int, codeAlphabet string) *RoomHandler {
	return &RoomHandler{
		syncSvc:        syncSvc,
		authMiddleware: authMiddleware,
		codeLength:     codeLength,
		codeAlphabet:   codeAlphabet,
	}
}

// RegisterRoutes registers all room routes.
func (h *RoomHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("/:id/state", h.GetState)
			rooms.PATCH("/:id/state", h.UpdateState)

			rooms.POST("", h.authMiddleware.RequireAuth(), h.CreateRoom)
		}
	}
}

// CreateRoom mints a short shareable room code. Rooms themselves are
// created lazily on first state access, so this touches no registry.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	code, err := gonanoid.Generate(h.codeAlphabet, h.codeLength)
	if err != nil {
		l.Error().Err(err).Msg("failed to generate room code")
		response.InternalError(c, "failed to generate room code")
		return
	}

	audit.LogActor(ctx, audit.ActionCreateRoom, middleware.GetUserID(c), code, "room code created")

	response.Created(c, gin.H{"room_id": code})
}

// GetState returns the room's current full state as a one-shot snapshot.
func (h *RoomHandler) GetState(c *gin.Context) {
	roomID, err := domain.NormalizeRoomID(c.Param("id"))
	if err != nil {
		response.Error(c, 400, "INVALID_ROOM_ID", "room id must be 1-10 printable characters")
		return
	}

	response.Success(c, h.syncSvc.State(c.Request.Context(), roomID))
}

// UpdateState applies a partial patch to the room's state and echoes
// the resulting full state back. Fields absent from the body keep
// their stored values; the state is broadcast to every subscriber.
func (h *RoomHandler) UpdateState(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, err := domain.NormalizeRoomID(c.Param("id"))
	if err != nil {
		response.Error(c, 400, "INVALID_ROOM_ID", "room id must be 1-10 printable characters")
		return
	}

	var patch domain.StatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to bind state patch")
		response.Error(c, 400, "MALFORMED_PATCH", err.Error())
		return
	}

	state := h.syncSvc.Apply(ctx, roomID, patch)
	response.Success(c, state)
}
