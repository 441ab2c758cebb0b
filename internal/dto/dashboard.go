package dto

import (
	"time"

	"github.com/noah-isme/nade-api/internal/models"
)

// DashboardStats is the GET /dashboard/stats payload.
type DashboardStats struct {
	OpenOccurrences   int64              `json:"openOccurrences"`
	TodayOccurrences  int64              `json:"todayOccurrences"`
	RecentOccurrences []RecentOccurrence `json:"recentOccurrences"`
	OccurrencesByType []models.TypeCount `json:"occurrencesByType"`
}

// RecentOccurrence is the minimal projection listed on the dashboard.
type RecentOccurrence struct {
	ID        string          `json:"id" db:"id"`
	Type      string          `json:"type" db:"type"`
	Severity  models.Severity `json:"severity" db:"severity"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	Student   *StudentBrief   `json:"student"`
}

// StudentBrief is the student part of a RecentOccurrence.
type StudentBrief struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}
