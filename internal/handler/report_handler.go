package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	"github.com/noah-isme/nade-api/pkg/response"
)

type reportService interface {
	OccurrencePDF(ctx context.Context, id string) (*dto.ReportFile, error)
	OccurrenceHTML(ctx context.Context, id string) (*dto.ReportFile, error)
	SummaryPDF(ctx context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error)
	SummaryCSV(ctx context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error)
	SummaryXLSX(ctx context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error)
}

// ReportHandler streams generated NADE documents.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// OccurrencePDF godoc
// @Summary NADE form of one occurrence
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {file} binary
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /occurrences/{id}/report.pdf [get]
func (h *ReportHandler) OccurrencePDF(c *gin.Context) {
	h.send(c, func(ctx context.Context) (*dto.ReportFile, error) {
		return h.reports.OccurrencePDF(ctx, c.Param("id"))
	}, true)
}

// OccurrenceHTML godoc
// @Summary Print view of one occurrence
// @Tags Reports
// @Produce text/html
// @Security BearerAuth
// @Param id path string true "Occurrence ID"
// @Success 200 {string} string
// @Failure 404 {object} errors.Error
// @Router /occurrences/{id}/report.html [get]
func (h *ReportHandler) OccurrenceHTML(c *gin.Context) {
	h.send(c, func(ctx context.Context) (*dto.ReportFile, error) {
		return h.reports.OccurrenceHTML(ctx, c.Param("id"))
	}, false)
}

// SummaryPDF godoc
// @Summary General occurrence report (PDF)
// @Description Accepts the same filters as GET /occurrences; pagination is ignored.
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /reports/occurrences.pdf [get]
func (h *ReportHandler) SummaryPDF(c *gin.Context) {
	filter, _ := query.OccurrenceParams(c.Request.URL.Query())
	h.send(c, func(ctx context.Context) (*dto.ReportFile, error) {
		return h.reports.SummaryPDF(ctx, filter)
	}, true)
}

// SummaryCSV godoc
// @Summary General occurrence report (CSV)
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /reports/occurrences.csv [get]
func (h *ReportHandler) SummaryCSV(c *gin.Context) {
	filter, _ := query.OccurrenceParams(c.Request.URL.Query())
	h.send(c, func(ctx context.Context) (*dto.ReportFile, error) {
		return h.reports.SummaryCSV(ctx, filter)
	}, true)
}

// SummaryXLSX godoc
// @Summary General occurrence report (XLSX)
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /reports/occurrences.xlsx [get]
func (h *ReportHandler) SummaryXLSX(c *gin.Context) {
	filter, _ := query.OccurrenceParams(c.Request.URL.Query())
	h.send(c, func(ctx context.Context) (*dto.ReportFile, error) {
		return h.reports.SummaryXLSX(ctx, filter)
	}, true)
}

func (h *ReportHandler) send(c *gin.Context, render func(context.Context) (*dto.ReportFile, error), download bool) {
	file, err := render(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if download {
		response.Attachment(c, file.Filename, file.ContentType, file.Body)
		return
	}
	response.Inline(c, file.Filename, file.ContentType, file.Body)
}
