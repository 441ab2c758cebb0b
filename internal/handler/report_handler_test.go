package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/report"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

type fakeReportSrv struct {
	filter models.OccurrenceFilter
	id     string
	err    error
}

func (f *fakeReportSrv) file(name, contentType string) (*dto.ReportFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ReportFile{Filename: name, ContentType: contentType, Body: []byte("body")}, nil
}

func (f *fakeReportSrv) OccurrencePDF(_ context.Context, id string) (*dto.ReportFile, error) {
	f.id = id
	return f.file("Relatorio_NADE_Ana_2024-05-14.pdf", "application/pdf")
}

func (f *fakeReportSrv) OccurrenceHTML(_ context.Context, id string) (*dto.ReportFile, error) {
	f.id = id
	return f.file("Relatorio_NADE_Ana_2024-05-14.html", "text/html; charset=utf-8")
}

func (f *fakeReportSrv) SummaryPDF(_ context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error) {
	f.filter = filter
	return f.file("Relatorio_Geral_NADE_2024-05-14.pdf", "application/pdf")
}

func (f *fakeReportSrv) SummaryCSV(_ context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error) {
	f.filter = filter
	return f.file("Relatorio_Geral_NADE_2024-05-14.csv", "text/csv; charset=utf-8")
}

func (f *fakeReportSrv) SummaryXLSX(_ context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error) {
	f.filter = filter
	return f.file("Relatorio_Geral_NADE_2024-05-14.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func TestOccurrencePDFIsAttachment(t *testing.T) {
	srv := &fakeReportSrv{}
	h := NewReportHandler(srv)
	c, rec := newContext(http.MethodGet, "/occurrences/o1/report.pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: "o1"}}

	h.OccurrencePDF(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "o1", srv.id)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Relatorio_NADE_Ana_2024-05-14.pdf"`, rec.Header().Get("Content-Disposition"))
}

func TestOccurrenceHTMLIsInline(t *testing.T) {
	h := NewReportHandler(&fakeReportSrv{})
	c, rec := newContext(http.MethodGet, "/occurrences/o1/report.html", nil)

	h.OccurrenceHTML(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
}

func TestSummaryCSVUsesListFilters(t *testing.T) {
	srv := &fakeReportSrv{}
	h := NewReportHandler(srv)
	c, rec := newContext(http.MethodGet, "/reports/occurrences.csv?status=closed&studentId=s1", nil)

	h.SummaryCSV(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "closed", srv.filter.Status)
	assert.Equal(t, "s1", srv.filter.StudentID)
}

func TestSummaryXLSXIsAttachment(t *testing.T) {
	srv := &fakeReportSrv{}
	h := NewReportHandler(srv)
	c, rec := newContext(http.MethodGet, "/reports/occurrences.xlsx?type=Dano", nil)

	h.SummaryXLSX(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dano", srv.filter.Type)
	assert.Equal(t, `attachment; filename="Relatorio_Geral_NADE_2024-05-14.xlsx"`, rec.Header().Get("Content-Disposition"))
}

func TestReportEmptyCaptureIsBadRequest(t *testing.T) {
	err := appErrors.Wrap(report.ErrEmptyCapture, appErrors.ErrValidation.Code, http.StatusBadRequest, "Não foi possível gerar o relatório: conteúdo vazio")
	h := NewReportHandler(&fakeReportSrv{err: err})
	c, rec := newContext(http.MethodGet, "/reports/occurrences.pdf", nil)

	h.SummaryPDF(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Não foi possível gerar o relatório: conteúdo vazio", decode(t, rec)["error"])
}

func TestReportNotFound(t *testing.T) {
	h := NewReportHandler(&fakeReportSrv{err: appErrors.Clone(appErrors.ErrNotFound, "Ocorrência não encontrada")})
	c, rec := newContext(http.MethodGet, "/occurrences/x/report.pdf", nil)

	h.OccurrencePDF(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
