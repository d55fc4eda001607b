package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/ports/in"
	"github.com/skillswap/session-service/internal/core/services/session_service"
)

type SessionController struct {
	useCase in.SessionUseCase
	cfg     *config.Config
}

func NewSessionController(useCase in.SessionUseCase, cfg *config.Config) *SessionController {
	return &SessionController{
		useCase: useCase,
		cfg:     cfg,
	}
}

func (c *SessionController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.Use(basicAuth(c.cfg))
	{
		api.GET("/sessions/:appointmentId/state", c.sessionState)
		api.POST("/sessions/:appointmentId/join", c.join)
		api.POST("/sessions/:appointmentId/end", c.end)
		api.POST("/sessions/:appointmentId/screen-share", c.setScreenShare)
		api.POST("/sessions/:appointmentId/screen-audio", c.setScreenAudioMuted)
		api.DELETE("/sessions/:appointmentId", c.dispose)
	}
}

func (c *SessionController) sessionState(ctx *gin.Context) {
	appointmentID, userID, ok := c.sessionIDs(ctx, ctx.Query("userId"))
	if !ok {
		return
	}

	call, remaining, err := c.useCase.SessionState(ctx.Request.Context(), appointmentID, userID)
	if err != nil {
		ctx.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, sessionCallResponse(call, remaining))
}

type JoinSessionRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

func (c *SessionController) join(ctx *gin.Context) {
	var req JoinSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointmentID, userID, ok := c.sessionIDs(ctx, req.UserID.String())
	if !ok {
		return
	}

	call, err := c.useCase.Join(ctx.Request.Context(), appointmentID, userID)
	if err != nil {
		ctx.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, sessionCallResponse(call, 0))
}

type EndSessionRequest struct {
	UserID    uuid.UUID `json:"userId" binding:"required"`
	Confirmed bool      `json:"confirmed"`
}

func (c *SessionController) end(ctx *gin.Context) {
	var req EndSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointmentID, userID, ok := c.sessionIDs(ctx, req.UserID.String())
	if !ok {
		return
	}

	call, err := c.useCase.End(ctx.Request.Context(), appointmentID, userID, req.Confirmed)
	if err != nil {
		ctx.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, sessionCallResponse(call, 0))
}

type ScreenShareRequest struct {
	UserID    uuid.UUID `json:"userId" binding:"required"`
	Enabled   bool      `json:"enabled"`
	WithAudio bool      `json:"withAudio"`
}

func (c *SessionController) setScreenShare(ctx *gin.Context) {
	var req ScreenShareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointmentID, userID, ok := c.sessionIDs(ctx, req.UserID.String())
	if !ok {
		return
	}

	call, err := c.useCase.SetScreenShare(ctx.Request.Context(), appointmentID, userID, req.Enabled, req.WithAudio)
	if err != nil {
		ctx.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, sessionCallResponse(call, 0))
}

type ScreenAudioRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
	Muted  *bool     `json:"muted" binding:"required"`
}

func (c *SessionController) setScreenAudioMuted(ctx *gin.Context) {
	var req ScreenAudioRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointmentID, userID, ok := c.sessionIDs(ctx, req.UserID.String())
	if !ok {
		return
	}

	call, err := c.useCase.SetScreenAudioMuted(ctx.Request.Context(), appointmentID, userID, *req.Muted)
	if err != nil {
		ctx.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, sessionCallResponse(call, 0))
}

func (c *SessionController) dispose(ctx *gin.Context) {
	appointmentID, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return
	}

	c.useCase.Dispose(appointmentID)

	ctx.Status(http.StatusNoContent)
}

func (c *SessionController) sessionIDs(ctx *gin.Context, rawUserID string) (uuid.UUID, uuid.UUID, bool) {
	appointmentID, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, uuid.Nil, false
	}

	return appointmentID, userID, true
}

func sessionCallResponse(call domain.SessionCall, remaining time.Duration) gin.H {
	response := gin.H{
		"appointmentId":       call.AppointmentID,
		"localParticipantId":  call.LocalParticipantID,
		"remoteParticipantId": call.RemoteParticipantID,
		"phase":               call.Phase,
		"outgoing": gin.H{
			"video":            call.Outgoing.Video,
			"micEnabled":       call.Outgoing.MicEnabled,
			"screenAudioMuted": call.Outgoing.ScreenAudioMuted,
		},
	}

	if call.Phase == domain.SessionPhaseAwaitingWindow {
		response["countdownSeconds"] = int(remaining.Seconds())
	}
	if call.EndReason != "" {
		response["endReason"] = call.EndReason
	}

	return response
}

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, session_service.ErrAppointmentMissing):
		return http.StatusNotFound
	case errors.Is(err, session_service.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, session_service.ErrNotEligible),
		errors.Is(err, session_service.ErrNotJoinable),
		errors.Is(err, session_service.ErrEndNotConfirmed),
		errors.Is(err, session_service.ErrNotConnected),
		errors.Is(err, session_service.ErrSessionEnded),
		errors.Is(err, session_service.ErrUnparseableStart):
		return http.StatusConflict
	case errors.Is(err, session_service.ErrMediaUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
