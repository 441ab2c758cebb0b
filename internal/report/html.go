package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/form.html
var templatesFS embed.FS

var formTemplate = template.Must(template.ParseFS(templatesFS, "templates/form.html"))

// RenderHTML renders the bordered paper form used for on-screen viewing and
// browser printing. All values are escaped by html/template.
func RenderHTML(form Form) ([]byte, error) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, form); err != nil {
		return nil, fmt.Errorf("render form html: %w", err)
	}
	return buf.Bytes(), nil
}
