// Package query turns raw list parameters into repository filters.
// Malformed values never fail a request: they fall back to defaults or are
// ignored.
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/nade-api/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Window is a page of results.
type Window struct {
	Page  int
	Limit int
}

// Page parses page/limit. Non-numeric or non-positive input falls back to
// the defaults; limit is capped at MaxLimit.
func Page(rawPage, rawLimit string) Window {
	w := Window{Page: DefaultPage, Limit: DefaultLimit}
	if p, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil && p > 0 {
		w.Page = p
	}
	if l, err := strconv.Atoi(strings.TrimSpace(rawLimit)); err == nil && l > 0 {
		w.Limit = l
	}
	if w.Limit > MaxLimit {
		w.Limit = MaxLimit
	}
	return w
}

// Skip is the number of records before this page.
func (w Window) Skip() int {
	return (w.Page - 1) * w.Limit
}

// Pages is ceil(total/limit).
func (w Window) Pages(total int64) int {
	if total <= 0 || w.Limit <= 0 {
		return 0
	}
	return int((total + int64(w.Limit) - 1) / int64(w.Limit))
}

// Pagination builds the response metadata for total matches.
func (w Window) Pagination(total int64) models.Pagination {
	return models.Pagination{Page: w.Page, Limit: w.Limit, Total: total, Pages: w.Pages(total)}
}

// OccurrenceParams reads studentId, type, status, dateFrom, dateTo, page
// and limit. A bare YYYY-MM-DD upper bound covers that whole day.
func OccurrenceParams(values url.Values) (models.OccurrenceFilter, Window) {
	w := Page(values.Get("page"), values.Get("limit"))
	f := models.OccurrenceFilter{
		StudentID: strings.TrimSpace(values.Get("studentId")),
		Type:      strings.TrimSpace(values.Get("type")),
		Status:    strings.TrimSpace(values.Get("status")),
		Offset:    w.Skip(),
		Limit:     w.Limit,
	}

	if from, _, ok := parseBound(values.Get("dateFrom")); ok {
		f.DateFrom = &from
	}
	if to, dayOnly, ok := parseBound(values.Get("dateTo")); ok {
		if dayOnly {
			next := to.AddDate(0, 0, 1)
			f.DateBefore = &next
		} else {
			f.DateTo = &to
		}
	}

	return f, w
}

// StudentParams reads search, page and limit.
func StudentParams(values url.Values) (models.StudentFilter, Window) {
	w := Page(values.Get("page"), values.Get("limit"))
	return models.StudentFilter{
		Search: strings.TrimSpace(values.Get("search")),
		Offset: w.Skip(),
		Limit:  w.Limit,
	}, w
}

// RegexLiteral escapes s for use inside a Mongo $regex.
func RegexLiteral(s string) string {
	return regexp.QuoteMeta(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikeContains returns an ILIKE pattern matching s anywhere, with LIKE
// wildcards in s escaped.
func LikeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func parseBound(raw string) (t time.Time, dayOnly bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, true, true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}
