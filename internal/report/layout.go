package report

import (
	"errors"
	"math"
	"strings"
)

// ErrEmptyCapture is returned when a plan has nothing to print.
var ErrEmptyCapture = errors.New("report: nothing to render")

// PageSpec describes the target page in millimetres.
type PageSpec struct {
	Width      float64
	Height     float64
	Margin     float64
	LineHeight float64
}

// A4 is the default page: 210x297 mm, 10 mm margins, 5 mm lines.
func A4() PageSpec {
	return PageSpec{Width: 210, Height: 297, Margin: 10, LineHeight: 5}
}

func (p PageSpec) contentWidth() float64  { return p.Width - 2*p.Margin }
func (p PageSpec) contentHeight() float64 { return p.Height - 2*p.Margin }
func (p PageSpec) bottom() float64        { return p.Height - p.Margin }

// OpKind is the type of a drawing operation.
type OpKind int

const (
	OpText OpKind = iota
	OpRect
	OpLine
)

// Align is the horizontal alignment of a text operation.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
)

// Op is one positioned drawing instruction. For text, (X, Y) is the top
// left of a W x H cell. For lines, (X, Y) to (X+W, Y+H).
type Op struct {
	Kind  OpKind
	X, Y  float64
	W, H  float64
	Text  string
	Size  float64
	Bold  bool
	Align Align
}

// Page holds the operations drawn on one sheet.
type Page struct {
	Ops []Op
}

// Plan is the fully paginated document.
type Plan struct {
	Spec          PageSpec
	Pages         []Page
	ContentHeight float64
	// Truncated names the capped blocks whose text did not fit.
	Truncated []string
}

// Validate rejects plans that would produce an empty document.
func (p Plan) Validate() error {
	if len(p.Pages) == 0 || p.ContentHeight <= 0 {
		return ErrEmptyCapture
	}
	return nil
}

// Font sizes in points.
const (
	sizeTitle = 12
	sizeLabel = 10
	sizeBody  = 9
	sizeGrid  = 8
)

const (
	pad         = 2.0
	blockGap    = 3.0
	signatureH  = 14.0
	conclusaoH  = 40.0
	observacaoH = 30.0
)

// gridIndent offsets the continuation lines of a wrapped checkbox label.
const gridIndent = "    "

// row is an atomic line of a block; pages only break between rows.
type row struct {
	height float64
	ops    []Op
}

type block struct {
	name      string
	rows      []row
	framed    bool
	truncated bool
}

func (b block) height() float64 {
	h := 0.0
	for _, r := range b.rows {
		h += r.height
	}
	return h
}

// Layout paginates the form. A block that does not fit in the remaining
// space starts a new page; a block taller than a full page is split between
// rows, so nothing is dropped except the text beyond a capped block's limit.
func Layout(form Form, spec PageSpec, m Measurer) Plan {
	b := builder{spec: spec, m: m}

	blocks := []block{
		b.header(form.Header),
		b.infoRow(form.Info, form.StudentInfo),
		b.textBlock("solicitante", "SOLICITANTE(S):", form.Solicitante, 0),
		b.textBlock("envolvidos", "ENVOLVIDO(S):", form.Envolvidos, 0),
		b.grid("motivos", "MOTIVO(S):", form.Motivos, 3),
		b.grid("acoes", "AÇÃO ADOTADA:", form.Acoes, 2),
		b.textBlock("conclusao", "CONCLUSÃO:", form.Conclusao, conclusaoH),
		b.textBlock("observacoes", "OBSERVAÇÕES:", form.Observacoes, observacaoH),
		b.signatures(form.Signatures),
	}

	return paginate(spec, blocks)
}

func paginate(spec PageSpec, blocks []block) Plan {
	plan := Plan{Spec: spec}
	var page *Page
	y := spec.Margin

	newPage := func() {
		plan.Pages = append(plan.Pages, Page{})
		page = &plan.Pages[len(plan.Pages)-1]
		y = spec.Margin
	}

	for _, blk := range blocks {
		h := blk.height()
		if h <= 0 {
			continue
		}
		plan.ContentHeight += h
		if blk.truncated {
			plan.Truncated = append(plan.Truncated, blk.name)
		}

		if page == nil || (y+h > spec.bottom() && y > spec.Margin && h <= spec.contentHeight()) {
			newPage()
		}

		segTop := y
		for _, r := range blk.rows {
			if y+r.height > spec.bottom() && y > spec.Margin {
				if blk.framed {
					page.Ops = append(page.Ops, frame(spec, segTop, y))
				}
				newPage()
				segTop = y
			}
			for _, op := range r.ops {
				op.Y += y
				page.Ops = append(page.Ops, op)
			}
			y += r.height
		}
		if blk.framed {
			page.Ops = append(page.Ops, frame(spec, segTop, y))
		}
		y += blockGap
	}

	return plan
}

func frame(spec PageSpec, top, bottom float64) Op {
	return Op{Kind: OpRect, X: spec.Margin, Y: top, W: spec.contentWidth(), H: bottom - top}
}

type builder struct {
	spec PageSpec
	m    Measurer
}

func (b builder) text(x, w float64, s string, size float64, bold bool, align Align) Op {
	return Op{Kind: OpText, X: x, W: w, H: b.spec.LineHeight, Text: s, Size: size, Bold: bold, Align: align}
}

func (b builder) header(lines []string) block {
	blk := block{name: "header"}
	lh := b.spec.LineHeight + 1
	for i, l := range lines {
		size := float64(sizeLabel + 1)
		if i == 0 {
			size = sizeTitle
		}
		op := b.text(b.spec.Margin, b.spec.contentWidth(), l, size, true, AlignCenter)
		op.H = lh
		blk.rows = append(blk.rows, row{height: lh, ops: []Op{op}})
	}
	if len(blk.rows) > 0 {
		rule := Op{Kind: OpLine, X: b.spec.Margin, Y: pad, W: b.spec.contentWidth()}
		blk.rows = append(blk.rows, row{height: pad * 2, ops: []Op{rule}})
	}
	return blk
}

// infoRow renders LOCAL/DATA/HORA, and ALUNO/TURMA/MATRÍCULA when present,
// as bordered cells. The first column is twice as wide as the others.
func (b builder) infoRow(info, student []Field) block {
	blk := block{name: "info", framed: true}
	for _, fields := range [][]Field{info, student} {
		if len(fields) == 0 {
			continue
		}
		blk.rows = append(blk.rows, b.fieldRows(fields)...)
	}
	return blk
}

func (b builder) fieldRows(fields []Field) []row {
	weights := make([]float64, len(fields))
	total := 0.0
	for i := range fields {
		weights[i] = 1
		if i == 0 {
			weights[i] = 2
		}
		total += weights[i]
	}

	x := b.spec.Margin
	cells := make([][]string, len(fields))
	xs := make([]float64, len(fields))
	ws := make([]float64, len(fields))
	maxLines := 1
	for i, f := range fields {
		w := b.spec.contentWidth() * weights[i] / total
		xs[i], ws[i] = x, w
		// The first line is drawn bold, so the cell is measured bold.
		lines := WrapBold(b.m, f.Label+": "+f.Value, sizeBody, w-2*pad)
		if len(lines) == 0 {
			lines = []string{f.Label + ":"}
		}
		cells[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
		x += w
	}

	rows := make([]row, 0, maxLines)
	for li := 0; li < maxLines; li++ {
		var ops []Op
		for i := range fields {
			if li < len(cells[i]) {
				ops = append(ops, b.text(xs[i]+pad, ws[i]-2*pad, cells[i][li], sizeBody, li == 0, AlignLeft))
			}
			if i > 0 {
				ops = append(ops, Op{Kind: OpLine, X: xs[i], Y: 0, H: b.spec.LineHeight})
			}
		}
		rows = append(rows, row{height: b.spec.LineHeight, ops: ops})
	}
	rows[len(rows)-1].ops = append(rows[len(rows)-1].ops,
		Op{Kind: OpLine, X: b.spec.Margin, Y: b.spec.LineHeight, W: b.spec.contentWidth()})
	return rows
}

// textBlock is a bold label followed by wrapped text. A positive cap bounds
// the body height; lines past it are dropped and the block is flagged.
func (b builder) textBlock(name, label, body string, capHeight float64) block {
	blk := block{name: name, framed: true}
	blk.rows = append(blk.rows, row{
		height: b.spec.LineHeight,
		ops:    []Op{b.text(b.spec.Margin+pad, b.spec.contentWidth()-2*pad, label, sizeLabel, true, AlignLeft)},
	})

	lines := Wrap(b.m, body, sizeBody, b.spec.contentWidth()-2*pad)
	if capHeight > 0 {
		maxLines := int(math.Floor(capHeight / b.spec.LineHeight))
		if len(lines) > maxLines {
			lines = lines[:maxLines]
			blk.truncated = true
		}
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	for _, l := range lines {
		blk.rows = append(blk.rows, row{
			height: b.spec.LineHeight,
			ops:    []Op{b.text(b.spec.Margin+pad, b.spec.contentWidth()-2*pad, l, sizeBody, false, AlignLeft)},
		})
	}
	return blk
}

// grid lays checkboxes out left to right in cols columns. A label that
// wraps makes its whole grid row taller.
func (b builder) grid(name, label string, boxes []Checkbox, cols int) block {
	blk := block{name: name, framed: true}
	blk.rows = append(blk.rows, row{
		height: b.spec.LineHeight + 1,
		ops: []Op{
			b.text(b.spec.Margin+pad, b.spec.contentWidth()-2*pad, label, sizeLabel, true, AlignLeft),
			{Kind: OpLine, X: b.spec.Margin, Y: b.spec.LineHeight + 0.5, W: b.spec.contentWidth()},
		},
	})

	colW := b.spec.contentWidth() / float64(cols)
	indent := b.m.Width(gridIndent, sizeGrid, false)
	for start := 0; start < len(boxes); start += cols {
		end := start + cols
		if end > len(boxes) {
			end = len(boxes)
		}
		cells := make([][]string, 0, cols)
		height := 1
		for _, box := range boxes[start:end] {
			lines := Wrap(b.m, box.Text(), sizeGrid, colW-2*pad-indent)
			cells = append(cells, lines)
			if len(lines) > height {
				height = len(lines)
			}
		}
		for li := 0; li < height; li++ {
			var ops []Op
			for ci, lines := range cells {
				if li >= len(lines) {
					continue
				}
				text := lines[li]
				if li > 0 {
					text = gridIndent + text
				}
				x := b.spec.Margin + float64(ci)*colW + pad
				ops = append(ops, b.text(x, colW-2*pad, text, sizeGrid, false, AlignLeft))
			}
			blk.rows = append(blk.rows, row{height: b.spec.LineHeight, ops: ops})
		}
	}
	return blk
}

func (b builder) signatures(labels []string) block {
	blk := block{name: "signatures"}
	if len(labels) == 0 {
		return blk
	}
	blk.rows = append(blk.rows, row{
		height: b.spec.LineHeight + pad,
		ops:    []Op{b.text(b.spec.Margin, b.spec.contentWidth(), "ASSINATURAS:", sizeLabel, true, AlignLeft)},
	})
	for _, l := range labels {
		blk.rows = append(blk.rows, row{
			height: signatureH,
			ops: []Op{
				b.text(b.spec.Margin, b.spec.contentWidth(), l+":", sizeBody, false, AlignLeft),
				{Kind: OpLine, X: b.spec.Margin, Y: signatureH - 3, W: b.spec.contentWidth()},
			},
		})
	}
	return blk
}

// FitsOnOnePage reports whether the plan has a single page.
func (p Plan) FitsOnOnePage() bool { return len(p.Pages) == 1 }

// Texts returns every text operation on the plan in order, mostly useful
// for assertions and plain-text previews.
func (p Plan) Texts() []string {
	var out []string
	for _, pg := range p.Pages {
		for _, op := range pg.Ops {
			if op.Kind == OpText && strings.TrimSpace(op.Text) != "" {
				out = append(out, op.Text)
			}
		}
	}
	return out
}
