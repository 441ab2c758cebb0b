package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/middleware"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/response"
)

type occurrenceService interface {
	List(ctx context.Context, filter models.OccurrenceFilter, window query.Window) ([]dto.OccurrenceView, models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.OccurrenceView, error)
	Create(ctx context.Context, req dto.CreateOccurrenceRequest, reporterID string) (*dto.OccurrenceView, error)
	Update(ctx context.Context, id string, req dto.UpdateOccurrenceRequest) (*dto.OccurrenceView, error)
	Delete(ctx context.Context, id string) error
}

// OccurrenceHandler exposes the NADE occurrence endpoints.
type OccurrenceHandler struct {
	occurrences occurrenceService
}

// NewOccurrenceHandler constructs OccurrenceHandler.
func NewOccurrenceHandler(occurrences occurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{occurrences: occurrences}
}

// List godoc
// @Summary List occurrences
// @Description Newest first. A bare YYYY-MM-DD dateTo includes that whole day.
// @Tags Occurrences
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID"
// @Param type query string false "Occurrence type"
// @Param status query string false "Status"
// @Param dateFrom query string false "Lower date bound"
// @Param dateTo query string false "Upper date bound"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.OccurrenceListResponse
// @Router /occurrences [get]
func (h *OccurrenceHandler) List(c *gin.Context) {
	filter, window := query.OccurrenceParams(c.Request.URL.Query())
	views, pagination, err := h.occurrences.List(c.Request.Context(), filter, window)
	if err != nil {
		response.Error(c, err)
		return
	}
	if views == nil {
		views = []dto.OccurrenceView{}
	}
	response.List(c, "occurrences", views, pagination)
}

// Get godoc
// @Summary Get occurrence
// @Tags Occurrences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {object} dto.OccurrenceEnvelope
// @Failure 404 {object} errors.Error
// @Router /occurrences/{id} [get]
func (h *OccurrenceHandler) Get(c *gin.Context) {
	view, err := h.occurrences.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "occurrence", view)
}

// Create godoc
// @Summary Register an occurrence
// @Description The session user is recorded as reporter.
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateOccurrenceRequest true "Occurrence payload"
// @Success 201 {object} dto.OccurrenceEnvelope
// @Failure 400 {object} errors.Error
// @Router /occurrences [post]
func (h *OccurrenceHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOccurrenceRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.occurrences.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, view.ID)
	response.Created(c, "occurrence", view)
}

// Update godoc
// @Summary Update an occurrence
// @Tags Occurrences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Param payload body dto.UpdateOccurrenceRequest true "Fields to change"
// @Success 200 {object} dto.OccurrenceEnvelope
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /occurrences/{id} [put]
func (h *OccurrenceHandler) Update(c *gin.Context) {
	var req dto.UpdateOccurrenceRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.occurrences.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "occurrence", view)
}

// Delete godoc
// @Summary Delete an occurrence
// @Tags Occurrences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.Error
// @Router /occurrences/{id} [delete]
func (h *OccurrenceHandler) Delete(c *gin.Context) {
	if err := h.occurrences.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Ocorrência excluída com sucesso")
}
