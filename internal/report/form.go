// Package report lays out NADE occurrence forms for printing. Layout is
// independent of the PDF library: text is measured through a Measurer and
// the result is a Plan of positioned drawing operations.
package report

import (
	"strings"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
)

// DefaultHeader is printed when no institutional lines are configured.
var DefaultHeader = []string{
	"SECRETARIA DE EDUCAÇÃO E CULTURA",
	"Núcleo de Apoio Disciplinar Escolar - NADE",
	"Relatório de atendimento",
}

// Signatures are the fixed signature lines at the end of the form.
var Signatures = []string{"Solicitante(s)", "Envolvido(s)", "Representante(s) NADE"}

// Field is a labelled value in the info row.
type Field struct {
	Label string
	Value string
}

// Checkbox is one enumerated tag and whether the occurrence carries it.
type Checkbox struct {
	Label   string
	Checked bool
}

// Form is the printable content of one occurrence.
type Form struct {
	Header      []string
	Info        []Field
	StudentInfo []Field
	Solicitante string
	Envolvidos  string
	Motivos     []Checkbox
	Acoes       []Checkbox
	Conclusao   string
	Observacoes string
	Signatures  []string
	Subject     string
}

// BuildForm maps a populated occurrence onto the form. Checkbox order is
// the declared tag order regardless of selection.
func BuildForm(view dto.OccurrenceView, header []string) Form {
	if len(header) == 0 {
		header = DefaultHeader
	}

	f := Form{
		Header: header,
		Info: []Field{
			{Label: "LOCAL", Value: view.Location},
			{Label: "DATA", Value: FormatDate(view.Date)},
			{Label: "HORA", Value: view.Time},
		},
		Solicitante: view.Solicitante,
		Envolvidos:  JoinEnvolvidos(view.Envolvidos),
		Motivos:     checkboxes(models.Motivos, view.Motivos),
		Acoes:       checkboxes(models.Acoes, view.Acoes),
		Conclusao:   view.Conclusao,
		Observacoes: view.Observacoes,
		Signatures:  Signatures,
	}

	if view.Student != nil {
		f.StudentInfo = []Field{
			{Label: "ALUNO", Value: view.Student.Name},
			{Label: "TURMA", Value: view.Student.Class},
			{Label: "MATRÍCULA", Value: view.Student.EnrollmentNumber},
		}
		f.Subject = view.Student.Name
	}

	return f
}

// JoinEnvolvidos trims names, drops blanks and joins with ", ".
func JoinEnvolvidos(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, ", ")
}

func checkboxes(declared, selected []string) []Checkbox {
	out := make([]Checkbox, len(declared))
	for i, tag := range declared {
		out[i] = Checkbox{Label: tag, Checked: models.Contains(selected, tag)}
	}
	return out
}

// Glyph renders the checkbox marker.
func (c Checkbox) Glyph() string {
	if c.Checked {
		return "[X]"
	}
	return "[ ]"
}

// Text is the checkbox as printed in the PDF grid.
func (c Checkbox) Text() string {
	return c.Glyph() + " " + c.Label
}
