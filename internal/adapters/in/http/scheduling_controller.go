package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/core/ports/in"
	"github.com/skillswap/session-service/internal/core/services/availability_service"
	"github.com/skillswap/session-service/internal/utils"
)

type SchedulingController struct {
	useCase in.SchedulingUseCase
	cfg     *config.Config
}

func NewSchedulingController(useCase in.SchedulingUseCase, cfg *config.Config) *SchedulingController {
	return &SchedulingController{
		useCase: useCase,
		cfg:     cfg,
	}
}

func (c *SchedulingController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.Use(basicAuth(c.cfg))
	{
		api.GET("/availability/selectable", c.isDateSelectable)
		api.GET("/availability/slots", c.slotsForDate)

		api.POST("/appointments", c.createAppointment)
		api.GET("/appointments", c.listAppointments)
		api.GET("/appointments/next", c.nextAppointment)
		api.POST("/appointments/:appointmentId/accept", c.acceptAppointment)
		api.POST("/appointments/:appointmentId/decline", c.declineAppointment)
		api.POST("/appointments/:appointmentId/reschedule", c.rescheduleAppointment)
	}
}

func (c *SchedulingController) isDateSelectable(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Query("userId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	date, err := utils.ParseDate(ctx.Query("date"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	var courseID *uuid.UUID
	if raw := ctx.Query("courseId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID format"})
			return
		}
		courseID = &parsed
	}

	selectable, err := c.useCase.IsDateSelectable(ctx.Request.Context(), userID, date, courseID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"userId":     userID,
		"date":       date.Format("2006-01-02"),
		"selectable": selectable,
	})
}

func (c *SchedulingController) slotsForDate(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Query("userId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	date, err := utils.ParseDate(ctx.Query("date"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	flow := domain.BookingFlow(ctx.DefaultQuery("flow", string(domain.BookingFlowCourse)))
	if flow != domain.BookingFlowCourse && flow != domain.BookingFlowReschedule {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flow"})
		return
	}

	slots, debug, err := c.useCase.SlotsForDate(ctx.Request.Context(), userID, date, flow)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"userId": userID,
		"date":   date.Format("2006-01-02"),
		"flow":   flow,
		"slots":  slots,
	}
	// Замеры времени выполнения отдаем только в локальном окружении
	if c.cfg.IsLocal() {
		response["debug"] = debug
	}

	ctx.JSON(http.StatusOK, response)
}

func (c *SchedulingController) createAppointment(ctx *gin.Context) {
	var appointment domain.Appointment
	if err := ctx.ShouldBindJSON(&appointment); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.useCase.CreateAppointment(ctx.Request.Context(), &appointment); err != nil {
		ctx.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, appointment)
}

func (c *SchedulingController) listAppointments(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Query("userId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	appointments, err := c.useCase.ListAppointments(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

func (c *SchedulingController) nextAppointment(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Query("userId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	appointment, err := c.useCase.NextAppointment(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if appointment == nil {
		ctx.JSON(http.StatusOK, gin.H{"appointment": nil})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

func (c *SchedulingController) acceptAppointment(ctx *gin.Context) {
	appointmentID, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return
	}

	if err := c.useCase.AcceptAppointment(ctx.Request.Context(), appointmentID); err != nil {
		ctx.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointmentId": appointmentID, "status": domain.AppointmentStatusConfirmed})
}

func (c *SchedulingController) declineAppointment(ctx *gin.Context) {
	appointmentID, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return
	}

	if err := c.useCase.DeclineAppointment(ctx.Request.Context(), appointmentID); err != nil {
		ctx.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointmentId": appointmentID, "status": domain.AppointmentStatusCanceled})
}

type RescheduleAppointmentRequest struct {
	Date string               `json:"date" binding:"required"`
	Time json_types.ClockTime `json:"time" binding:"required"`
}

func (c *SchedulingController) rescheduleAppointment(ctx *gin.Context) {
	appointmentID, err := uuid.Parse(ctx.Param("appointmentId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID format"})
		return
	}

	var req RescheduleAppointmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	if err := c.useCase.RescheduleAppointment(ctx.Request.Context(), appointmentID, date, req.Time); err != nil {
		ctx.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointmentId": appointmentID})
}

func schedulingErrorStatus(err error) int {
	switch {
	case errors.Is(err, availability_service.ErrAppointmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, availability_service.ErrMissingDateTime),
		errors.Is(err, availability_service.ErrDateNotSelectable),
		errors.Is(err, availability_service.ErrInvalidStatusChange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func basicAuth(cfg *config.Config) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Backend.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Backend.Password)) != 1 {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Next()
	}
}
