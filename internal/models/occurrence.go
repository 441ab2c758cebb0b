package models

import "time"

// Severity classifies the gravity of an occurrence.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// OccurrenceStatus is advisory; any value may be set directly.
type OccurrenceStatus string

const (
	StatusOpen       OccurrenceStatus = "open"
	StatusInProgress OccurrenceStatus = "in_progress"
	StatusResolved   OccurrenceStatus = "resolved"
	StatusClosed     OccurrenceStatus = "closed"
)

func (s OccurrenceStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// OpenStatuses are counted as "open" on the dashboard.
var OpenStatuses = []OccurrenceStatus{StatusOpen, StatusInProgress}

// DefaultOccurrenceType is applied when a request omits the type.
const DefaultOccurrenceType = "Indisciplina"

// OccurrenceTypes lists the accepted categories.
var OccurrenceTypes = []string{
	"Indisciplina",
	"Bullying",
	"Palestra",
	"Uso de fato",
	"Porte de drogas",
	"Porte de objeto que causa perigo",
	"Dano",
	"Transporte escolar",
	"Reunião pedagógica",
	"Uso da internet para discriminar",
	"Ameaça",
	"Aconselhamento",
	"Treinamento",
	"Lesão corporal",
	"Análise estrutural",
	"Visita rotineira",
	"Outros",
}

// Motivos are the reason tags of the NADE form, in printed order.
var Motivos = []string{
	"Indisciplina",
	"Bullying",
	"Palestra",
	"Uso de fato",
	"Porte de drogas",
	"Porte de objeto que causa perigo",
	"Dano",
	"Transporte escolar",
	"Reunião pedagógica",
	"Uso da internet para discriminar ou medo/ameaças",
	"Ameaça",
	"Aconselhamento",
	"Treinamento",
	"Lesão corporal",
	"Análise estrutural",
	"Visita rotineira",
	"Outro",
}

// Acoes are the action tags of the NADE form, in printed order.
var Acoes = []string{
	"Aconselhamento",
	"Advertência",
	"Suspensão",
	"Transferência",
	"Outro",
}

// Occurrence is a NADE record. StudentID is nil for records that are not
// tied to a specific learner. Tag lists are never nil once normalised.
type Occurrence struct {
	ID               string           `db:"id" json:"id"`
	StudentID        *string          `db:"student_id" json:"studentId"`
	Type             string           `db:"type" json:"type"`
	Description      string           `db:"description" json:"description"`
	Date             time.Time        `db:"date" json:"date"`
	Time             string           `db:"time" json:"time"`
	Location         string           `db:"location" json:"location"`
	ReportedBy       string           `db:"reported_by" json:"reportedById"`
	Severity         Severity         `db:"severity" json:"severity"`
	Status           OccurrenceStatus `db:"status" json:"status"`
	Solicitante      string           `db:"solicitante" json:"solicitante"`
	Envolvidos       []string         `db:"envolvidos" json:"envolvidos"`
	Motivos          []string         `db:"motivos" json:"motivos"`
	Acoes            []string         `db:"acoes" json:"acoes"`
	Conclusao        string           `db:"conclusao" json:"conclusao"`
	Observacoes      string           `db:"observacoes" json:"observacoes"`
	ParentNotified   bool             `db:"parent_notified" json:"parentNotified"`
	ParentNotifiedAt *time.Time       `db:"parent_notified_at" json:"parentNotifiedAt,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// OccurrenceFilter is produced by the query builder. DateTo is inclusive;
// DateBefore is exclusive and is used when the upper bound is a whole day.
type OccurrenceFilter struct {
	StudentID  string
	Type       string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	DateBefore *time.Time
	Offset     int
	Limit      int
}

// OccurrencePatch carries the mutable fields of an update. Nil means keep.
type OccurrencePatch struct {
	Type             *string
	Description      *string
	Date             *time.Time
	Time             *string
	Location         *string
	Severity         *Severity
	Status           *OccurrenceStatus
	Solicitante      *string
	Envolvidos       *[]string
	Motivos          *[]string
	Acoes            *[]string
	Conclusao        *string
	Observacoes      *string
	ParentNotified   *bool
	ParentNotifiedAt *time.Time
	UpdatedAt        time.Time
}

// TypeCount is one row of the occurrences-by-type aggregation.
type TypeCount struct {
	Type  string `db:"type" json:"type" bson:"type"`
	Count int64  `db:"count" json:"count" bson:"count"`
}

// Contains reports whether tag is present in list.
func Contains(list []string, tag string) bool {
	for _, v := range list {
		if v == tag {
			return true
		}
	}
	return false
}
