package report

import (
	"regexp"
	"strings"
	"time"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// SanitizeSubject keeps ASCII letters, digits and whitespace, then joins
// the words with underscores. Accented letters are dropped, not folded.
func SanitizeSubject(subject string) string {
	s := nonAlnum.ReplaceAllString(subject, "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "_")
	return s
}

// FileName names an occurrence PDF: Relatorio_NADE_<subject>_<YYYY-MM-DD>.pdf,
// dated with the day the file is generated.
func FileName(subject string, date time.Time) string {
	s := SanitizeSubject(subject)
	if s == "" {
		s = "Ocorrencia"
	}
	return "Relatorio_NADE_" + s + "_" + isoDate(date) + ".pdf"
}

// SummaryFileName names the general report with the given extension.
func SummaryFileName(date time.Time, ext string) string {
	return "Relatorio_Geral_NADE_" + isoDate(date) + "." + strings.TrimPrefix(ext, ".")
}

// FormatDate renders dd/mm/yyyy in server local time, the same day file
// names use.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006")
}

func isoDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
