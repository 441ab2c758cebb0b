package report

import (
	"fmt"
	"time"

	"github.com/noah-isme/nade-api/internal/dto"
)

// SummaryTitle heads the general occurrences report.
const SummaryTitle = "RELATÓRIO GERAL DE OCORRÊNCIAS - NADE"

// SummaryEntry is one numbered item of the general report.
type SummaryEntry struct {
	Name        string
	Class       string
	Type        string
	Date        time.Time
	Location    string
	Description string
}

// SummaryEntries converts populated occurrences into report entries.
func SummaryEntries(views []dto.OccurrenceView) []SummaryEntry {
	out := make([]SummaryEntry, 0, len(views))
	for _, v := range views {
		e := SummaryEntry{
			Name:        "Nome não informado",
			Class:       "N/A",
			Type:        orNA(v.Type),
			Date:        v.Date,
			Location:    orNA(v.Location),
			Description: v.Description,
		}
		if v.Student != nil {
			if v.Student.Name != "" {
				e.Name = v.Student.Name
			}
			e.Class = orNA(v.Student.Class)
		}
		out = append(out, e)
	}
	return out
}

// LayoutSummary paginates the general report. Each entry is kept on one
// page unless it is taller than a page by itself.
func LayoutSummary(entries []SummaryEntry, generatedAt time.Time, spec PageSpec, m Measurer) Plan {
	b := builder{spec: spec, m: m}
	w := spec.contentWidth()

	head := block{name: "title"}
	title := b.text(spec.Margin, w, SummaryTitle, 14, true, AlignCenter)
	title.H = spec.LineHeight + 3
	head.rows = append(head.rows,
		row{height: spec.LineHeight + 5, ops: []Op{title}},
		row{height: spec.LineHeight + 1, ops: []Op{b.text(spec.Margin, w,
			fmt.Sprintf("Gerado em: %s às %s", FormatDate(generatedAt), generatedAt.Format("15:04:05")), sizeLabel, false, AlignLeft)}},
		row{height: spec.LineHeight + 2, ops: []Op{b.text(spec.Margin, w,
			fmt.Sprintf("Total de ocorrências: %d", len(entries)), sizeLabel, false, AlignLeft)}},
		row{height: pad * 2, ops: []Op{{Kind: OpLine, X: spec.Margin, Y: pad, W: w}}},
	)

	blocks := []block{head}
	for i, e := range entries {
		blk := block{name: fmt.Sprintf("entry-%d", i+1)}
		blk.rows = append(blk.rows, row{height: spec.LineHeight + 1, ops: []Op{
			b.text(spec.Margin, w, fmt.Sprintf("%d. %s", i+1, e.Name), sizeLabel+1, true, AlignLeft),
		}})
		for _, info := range []string{
			"Turma: " + e.Class,
			"Tipo: " + e.Type,
			"Data: " + FormatDate(e.Date),
			"Local: " + e.Location,
		} {
			blk.rows = append(blk.rows, row{height: spec.LineHeight, ops: []Op{
				b.text(spec.Margin+5, w-5, info, sizeBody, false, AlignLeft),
			}})
		}
		if e.Description != "" {
			blk.rows = append(blk.rows, row{height: spec.LineHeight, ops: []Op{
				b.text(spec.Margin+5, w-5, "Descrição:", sizeBody, false, AlignLeft),
			}})
			for _, l := range Wrap(m, e.Description, sizeBody, w-10) {
				blk.rows = append(blk.rows, row{height: spec.LineHeight, ops: []Op{
					b.text(spec.Margin+10, w-10, l, sizeBody, false, AlignLeft),
				}})
			}
		}
		blocks = append(blocks, blk)
	}

	return paginate(spec, blocks)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
