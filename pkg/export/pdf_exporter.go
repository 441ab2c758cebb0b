package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/nade-api/internal/report"
)

const fontFamily = "Arial"

// PDFExporter draws report plans with gofpdf. Core fonts are used with the
// cp1252 translator so Portuguese accents print correctly.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Measurer returns a text measurer matching the fonts RenderPlan uses.
func (e *PDFExporter) Measurer() report.Measurer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont(fontFamily, "", 10)
	return &fontMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// RenderPlan produces the PDF bytes for plan. Empty plans are rejected with
// report.ErrEmptyCapture before any document is assembled.
func (e *PDFExporter) RenderPlan(plan report.Plan) ([]byte, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	spec := plan.Spec
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: spec.Width, Ht: spec.Height},
	})
	pdf.SetMargins(spec.Margin, spec.Margin, spec.Margin)
	pdf.SetAutoPageBreak(false, spec.Margin)
	pdf.SetLineWidth(0.3)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range plan.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op.Kind {
			case report.OpText:
				pdf.SetFont(fontFamily, fontStyle(op.Bold), op.Size)
				pdf.SetXY(op.X, op.Y)
				pdf.CellFormat(op.W, op.H, tr(op.Text), "", 0, string(op.Align), false, 0, "")
			case report.OpRect:
				pdf.Rect(op.X, op.Y, op.W, op.H, "D")
			case report.OpLine:
				pdf.Line(op.X, op.Y, op.X+op.W, op.Y+op.H)
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type fontMeasurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (m *fontMeasurer) Width(text string, size float64, bold bool) float64 {
	m.pdf.SetFont(fontFamily, fontStyle(bold), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func fontStyle(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}
