package dto

import (
	"time"

	"github.com/noah-isme/nade-api/internal/models"
)

// CreateOccurrenceRequest is the POST /occurrences body. Actions is the
// legacy alias of Acoes and is folded into it at ingest.
type CreateOccurrenceRequest struct {
	Student     *string  `json:"student"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Location    string   `json:"location"`
	Severity    string   `json:"severity" validate:"omitempty,oneof=low medium high"`
	Solicitante string   `json:"solicitante"`
	Envolvidos  []string `json:"envolvidos"`
	Motivos     []string `json:"motivos"`
	Acoes       []string `json:"acoes"`
	Actions     []string `json:"actions"`
	Conclusao   string   `json:"conclusao"`
	Observacoes string   `json:"observacoes"`
}

// UpdateOccurrenceRequest is the PUT /occurrences/:id body. Omitted fields
// are left untouched; the student reference cannot be changed.
type UpdateOccurrenceRequest struct {
	Type           *string   `json:"type"`
	Description    *string   `json:"description"`
	Date           *string   `json:"date"`
	Time           *string   `json:"time"`
	Location       *string   `json:"location"`
	Severity       *string   `json:"severity" validate:"omitempty,oneof=low medium high"`
	Status         *string   `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	Solicitante    *string   `json:"solicitante"`
	Envolvidos     *[]string `json:"envolvidos"`
	Motivos        *[]string `json:"motivos"`
	Acoes          *[]string `json:"acoes"`
	Actions        *[]string `json:"actions"`
	Conclusao      *string   `json:"conclusao"`
	Observacoes    *string   `json:"observacoes"`
	ParentNotified *bool     `json:"parentNotified"`
	Student        *string   `json:"student"`
}

// StudentRef is the populated student of an occurrence.
type StudentRef struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Class            string `json:"class"`
	EnrollmentNumber string `json:"enrollmentNumber"`
}

// UserRef is the populated reporter of an occurrence.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OccurrenceView is an occurrence with its references resolved. A reference
// to a deleted document is rendered as null.
type OccurrenceView struct {
	models.Occurrence
	Student    *StudentRef `json:"student"`
	ReportedBy *UserRef    `json:"reportedBy"`
}

// OccurrenceListResponse documents GET /occurrences.
type OccurrenceListResponse struct {
	Occurrences []OccurrenceView  `json:"occurrences"`
	Pagination  models.Pagination `json:"pagination"`
}

// OccurrenceEnvelope documents single-occurrence responses.
type OccurrenceEnvelope struct {
	Occurrence OccurrenceView `json:"occurrence"`
}

// ParseDate accepts YYYY-MM-DD (local midnight) or RFC3339.
func ParseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
