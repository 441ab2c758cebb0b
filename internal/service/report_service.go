package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/report"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/export"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	reportKindForm    = "form_pdf"
	reportKindHTML    = "form_html"
	reportKindSummary = "summary_pdf"
	reportKindCSV     = "summary_csv"
	reportKindXLSX    = "summary_xlsx"
)

type occurrenceReader interface {
	List(ctx context.Context, filter models.OccurrenceFilter) ([]dto.OccurrenceView, int64, error)
	FindByID(ctx context.Context, id string) (*dto.OccurrenceView, error)
}

type planRenderer interface {
	Measurer() report.Measurer
	RenderPlan(plan report.Plan) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportServiceConfig configures report output.
type ReportServiceConfig struct {
	Header     []string
	Page       report.PageSpec
	MaxSummary int
}

// ReportService renders NADE forms and the general occurrence report.
type ReportService struct {
	occurrences occurrenceReader
	pdf         planRenderer
	csv         tableRenderer
	sheet       tableRenderer
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ReportServiceConfig
	now         func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(occurrences occurrenceReader, pdf planRenderer, csv, sheet tableRenderer, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Page.Width <= 0 {
		cfg.Page = report.A4()
	}
	if cfg.MaxSummary <= 0 {
		cfg.MaxSummary = 500
	}
	return &ReportService{occurrences: occurrences, pdf: pdf, csv: csv, sheet: sheet, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// OccurrencePDF renders the NADE form of one occurrence.
func (s *ReportService) OccurrencePDF(ctx context.Context, id string) (*dto.ReportFile, error) {
	form, err := s.form(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := report.Layout(form, s.cfg.Page, s.pdf.Measurer())
	if len(plan.Truncated) > 0 {
		s.logger.Info("report text truncated", zap.String("occurrence_id", id), zap.Strings("blocks", plan.Truncated))
	}
	body, err := s.pdf.RenderPlan(plan)
	s.metrics.ReportGenerated(reportKindForm, err)
	if err != nil {
		return nil, renderError(err, "render occurrence pdf")
	}
	return &dto.ReportFile{
		Filename:    report.FileName(form.Subject, s.now()),
		ContentType: contentTypePDF,
		Body:        body,
	}, nil
}

// OccurrenceHTML renders the print-mode page of one occurrence.
func (s *ReportService) OccurrenceHTML(ctx context.Context, id string) (*dto.ReportFile, error) {
	form, err := s.form(ctx, id)
	if err != nil {
		return nil, err
	}
	body, err := report.RenderHTML(form)
	s.metrics.ReportGenerated(reportKindHTML, err)
	if err != nil {
		return nil, appErrors.Internal(err, "render occurrence html")
	}
	name := report.FileName(form.Subject, s.now())
	return &dto.ReportFile{
		Filename:    name[:len(name)-len(".pdf")] + ".html",
		ContentType: contentTypeHTML,
		Body:        body,
	}, nil
}

// SummaryPDF renders the general report for every occurrence matching filter.
func (s *ReportService) SummaryPDF(ctx context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error) {
	views, err := s.summaryRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	plan := report.LayoutSummary(report.SummaryEntries(views), now, s.cfg.Page, s.pdf.Measurer())
	body, err := s.pdf.RenderPlan(plan)
	s.metrics.ReportGenerated(reportKindSummary, err)
	if err != nil {
		return nil, renderError(err, "render summary pdf")
	}
	return &dto.ReportFile{Filename: report.SummaryFileName(now, "pdf"), ContentType: contentTypePDF, Body: body}, nil
}

// summaryHeaders are the tabular columns of the general report.
var summaryHeaders = []string{"Aluno", "Turma", "Matrícula", "Tipo", "Gravidade", "Status", "Data", "Hora", "Local", "Solicitante", "Descrição", "Registrado por"}

// SummaryCSV exports the occurrences matching filter as CSV.
func (s *ReportService) SummaryCSV(ctx context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error) {
	views, err := s.summaryRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	body, err := s.csv.Render(SummaryDataset(views))
	s.metrics.ReportGenerated(reportKindCSV, err)
	if err != nil {
		return nil, appErrors.Internal(err, "render summary csv")
	}
	return &dto.ReportFile{Filename: report.SummaryFileName(s.now(), "csv"), ContentType: contentTypeCSV, Body: body}, nil
}

// SummaryXLSX exports the occurrences matching filter as a spreadsheet.
func (s *ReportService) SummaryXLSX(ctx context.Context, filter models.OccurrenceFilter) (*dto.ReportFile, error) {
	views, err := s.summaryRows(ctx, filter)
	if err != nil {
		return nil, err
	}
	body, err := s.sheet.Render(SummaryDataset(views))
	s.metrics.ReportGenerated(reportKindXLSX, err)
	if err != nil {
		return nil, appErrors.Internal(err, "render summary xlsx")
	}
	return &dto.ReportFile{Filename: report.SummaryFileName(s.now(), "xlsx"), ContentType: contentTypeXLSX, Body: body}, nil
}

// SummaryDataset flattens populated occurrences into table rows.
func SummaryDataset(views []dto.OccurrenceView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		row := map[string]string{
			"Tipo":        v.Type,
			"Gravidade":   string(v.Severity),
			"Status":      string(v.Status),
			"Data":        report.FormatDate(v.Date),
			"Hora":        v.Time,
			"Local":       v.Location,
			"Solicitante": v.Solicitante,
			"Descrição":   v.Description,
		}
		if v.Student != nil {
			row["Aluno"] = v.Student.Name
			row["Turma"] = v.Student.Class
			row["Matrícula"] = v.Student.EnrollmentNumber
		}
		if v.ReportedBy != nil {
			row["Registrado por"] = v.ReportedBy.Name
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: summaryHeaders, Rows: rows}
}

func (s *ReportService) form(ctx context.Context, id string) (report.Form, error) {
	view, err := s.occurrences.FindByID(ctx, id)
	if err != nil {
		return report.Form{}, lookupError(err, "Ocorrência não encontrada", "load occurrence for report")
	}
	return report.BuildForm(*view, s.cfg.Header), nil
}

func (s *ReportService) summaryRows(ctx context.Context, filter models.OccurrenceFilter) ([]dto.OccurrenceView, error) {
	filter.Offset = 0
	filter.Limit = s.cfg.MaxSummary
	views, total, err := s.occurrences.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list occurrences for report")
	}
	if total > int64(len(views)) {
		s.logger.Warn("general report capped",
			zap.Int("rows", len(views)),
			zap.Int64("matching", total),
			zap.Int("max_rows", s.cfg.MaxSummary))
	}
	return views, nil
}

func renderError(err error, op string) error {
	if errors.Is(err, report.ErrEmptyCapture) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Não foi possível gerar o relatório: conteúdo vazio")
	}
	return appErrors.Internal(err, op)
}
