package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
)

const occurrenceSelect = `SELECT o.id, o.student_id, o.type, o.description, o.date, o.time, o.location, o.reported_by, o.severity, o.status,
o.solicitante, o.envolvidos, o.motivos, o.acoes, o.conclusao, o.observacoes, o.parent_notified, o.parent_notified_at, o.created_at, o.updated_at,
s.id AS ref_student_id, s.name AS ref_student_name, s.class AS ref_student_class, s.enrollment_number AS ref_student_enrollment,
u.id AS ref_user_id, u.name AS ref_user_name
FROM occurrences o
LEFT JOIN students s ON s.id = o.student_id
LEFT JOIN users u ON u.id = o.reported_by`

// occurrenceRow maps the joined query. Tag lists travel as text[].
type occurrenceRow struct {
	ID               string         `db:"id"`
	StudentID        sql.NullString `db:"student_id"`
	Type             string         `db:"type"`
	Description      string         `db:"description"`
	Date             time.Time      `db:"date"`
	Time             string         `db:"time"`
	Location         string         `db:"location"`
	ReportedBy       string         `db:"reported_by"`
	Severity         string         `db:"severity"`
	Status           string         `db:"status"`
	Solicitante      string         `db:"solicitante"`
	Envolvidos       pq.StringArray `db:"envolvidos"`
	Motivos          pq.StringArray `db:"motivos"`
	Acoes            pq.StringArray `db:"acoes"`
	Conclusao        string         `db:"conclusao"`
	Observacoes      string         `db:"observacoes"`
	ParentNotified   bool           `db:"parent_notified"`
	ParentNotifiedAt *time.Time     `db:"parent_notified_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`

	RefStudentID         sql.NullString `db:"ref_student_id"`
	RefStudentName       sql.NullString `db:"ref_student_name"`
	RefStudentClass      sql.NullString `db:"ref_student_class"`
	RefStudentEnrollment sql.NullString `db:"ref_student_enrollment"`
	RefUserID            sql.NullString `db:"ref_user_id"`
	RefUserName          sql.NullString `db:"ref_user_name"`
}

func (r occurrenceRow) view() dto.OccurrenceView {
	v := dto.OccurrenceView{Occurrence: models.Occurrence{
		ID:               r.ID,
		Type:             r.Type,
		Description:      r.Description,
		Date:             r.Date,
		Time:             r.Time,
		Location:         r.Location,
		ReportedBy:       r.ReportedBy,
		Severity:         models.Severity(r.Severity),
		Status:           models.OccurrenceStatus(r.Status),
		Solicitante:      r.Solicitante,
		Envolvidos:       nonNil(r.Envolvidos),
		Motivos:          nonNil(r.Motivos),
		Acoes:            nonNil(r.Acoes),
		Conclusao:        r.Conclusao,
		Observacoes:      r.Observacoes,
		ParentNotified:   r.ParentNotified,
		ParentNotifiedAt: r.ParentNotifiedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}}
	if r.StudentID.Valid {
		id := r.StudentID.String
		v.StudentID = &id
	}
	if r.RefStudentID.Valid {
		v.Student = &dto.StudentRef{
			ID:               r.RefStudentID.String,
			Name:             r.RefStudentName.String,
			Class:            r.RefStudentClass.String,
			EnrollmentNumber: r.RefStudentEnrollment.String,
		}
	}
	if r.RefUserID.Valid {
		v.ReportedBy = &dto.UserRef{ID: r.RefUserID.String, Name: r.RefUserName.String}
	}
	return v
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// OccurrenceRepository stores occurrences in Postgres.
type OccurrenceRepository struct {
	db *sqlx.DB
}

// NewOccurrenceRepository creates a new instance of OccurrenceRepository.
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

func occurrenceWhere(filter models.OccurrenceFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.StudentID != "" {
		add("o.student_id = $%d", filter.StudentID)
	}
	if filter.Type != "" {
		add("o.type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("o.status = $%d", filter.Status)
	}
	if filter.DateFrom != nil {
		add("o.date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("o.date <= $%d", *filter.DateTo)
	}
	if filter.DateBefore != nil {
		add("o.date < $%d", *filter.DateBefore)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of populated occurrences, newest first.
func (r *OccurrenceRepository) List(ctx context.Context, filter models.OccurrenceFilter) ([]dto.OccurrenceView, int64, error) {
	where, args := occurrenceWhere(filter)

	q := fmt.Sprintf("%s%s ORDER BY o.created_at DESC", occurrenceSelect, where)
	if filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}
	var rows []occurrenceRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list occurrences: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM occurrences o"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count occurrences: %w", err)
	}

	views := make([]dto.OccurrenceView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, total, nil
}

// FindByID returns one populated occurrence.
func (r *OccurrenceRepository) FindByID(ctx context.Context, id string) (*dto.OccurrenceView, error) {
	var row occurrenceRow
	if err := r.db.GetContext(ctx, &row, occurrenceSelect+" WHERE o.id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find occurrence: %w", err)
	}
	v := row.view()
	return &v, nil
}

// Create inserts an occurrence, assigning id and timestamps.
func (r *OccurrenceRepository) Create(ctx context.Context, o *models.Occurrence) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	const q = `INSERT INTO occurrences (id, student_id, type, description, date, time, location, reported_by, severity, status,
solicitante, envolvidos, motivos, acoes, conclusao, observacoes, parent_notified, parent_notified_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.db.ExecContext(ctx, q,
		o.ID, o.StudentID, o.Type, o.Description, o.Date, o.Time, o.Location, o.ReportedBy, o.Severity, o.Status,
		o.Solicitante, pq.Array(o.Envolvidos), pq.Array(o.Motivos), pq.Array(o.Acoes), o.Conclusao, o.Observacoes,
		o.ParentNotified, o.ParentNotifiedAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of patch. student_id is never written.
func (r *OccurrenceRepository) Update(ctx context.Context, id string, patch models.OccurrencePatch) error {
	var sets []string
	args := []interface{}{id}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Type != nil {
		set("type", *patch.Type)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Date != nil {
		set("date", *patch.Date)
	}
	if patch.Time != nil {
		set("time", *patch.Time)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Severity != nil {
		set("severity", *patch.Severity)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Solicitante != nil {
		set("solicitante", *patch.Solicitante)
	}
	if patch.Envolvidos != nil {
		set("envolvidos", pq.Array(*patch.Envolvidos))
	}
	if patch.Motivos != nil {
		set("motivos", pq.Array(*patch.Motivos))
	}
	if patch.Acoes != nil {
		set("acoes", pq.Array(*patch.Acoes))
	}
	if patch.Conclusao != nil {
		set("conclusao", *patch.Conclusao)
	}
	if patch.Observacoes != nil {
		set("observacoes", *patch.Observacoes)
	}
	if patch.ParentNotified != nil {
		set("parent_notified", *patch.ParentNotified)
	}
	if patch.ParentNotifiedAt != nil {
		set("parent_notified_at", *patch.ParentNotifiedAt)
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set("updated_at", updatedAt)

	q := fmt.Sprintf("UPDATE occurrences SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update occurrence: %w", err)
	}
	return requireAffected(res, "update occurrence")
}

// Delete removes an occurrence.
func (r *OccurrenceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete occurrence: %w", err)
	}
	return requireAffected(res, "delete occurrence")
}

// CountByStatus counts occurrences whose status is one of statuses.
func (r *OccurrenceRepository) CountByStatus(ctx context.Context, statuses []models.OccurrenceStatus) (int64, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM occurrences WHERE status = ANY($1)`, pq.Array(values)); err != nil {
		return 0, fmt.Errorf("count occurrences by status: %w", err)
	}
	return n, nil
}

// CountCreatedBetween counts occurrences with from <= created_at < to.
func (r *OccurrenceRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM occurrences WHERE created_at >= $1 AND created_at < $2`, from, to); err != nil {
		return 0, fmt.Errorf("count occurrences created between: %w", err)
	}
	return n, nil
}

// CountByType groups by type, largest first, ties by type name.
func (r *OccurrenceRepository) CountByType(ctx context.Context, limit int) ([]models.TypeCount, error) {
	counts := []models.TypeCount{}
	const q = `SELECT type, COUNT(*) AS count FROM occurrences GROUP BY type ORDER BY count DESC, type ASC LIMIT $1`
	if err := r.db.SelectContext(ctx, &counts, q, limit); err != nil {
		return nil, fmt.Errorf("count occurrences by type: %w", err)
	}
	return counts, nil
}

type recentRow struct {
	dto.RecentOccurrence
	StudentName  sql.NullString `db:"student_name"`
	StudentClass sql.NullString `db:"student_class"`
}

// Recent returns the newest occurrences with the student's name and class.
func (r *OccurrenceRepository) Recent(ctx context.Context, limit int) ([]dto.RecentOccurrence, error) {
	const q = `SELECT o.id, o.type, o.severity, o.created_at, s.name AS student_name, s.class AS student_class
FROM occurrences o LEFT JOIN students s ON s.id = o.student_id ORDER BY o.created_at DESC LIMIT $1`
	var rows []recentRow
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("recent occurrences: %w", err)
	}

	out := make([]dto.RecentOccurrence, 0, len(rows))
	for _, row := range rows {
		rec := row.RecentOccurrence
		if row.StudentName.Valid {
			rec.Student = &dto.StudentBrief{Name: row.StudentName.String, Class: row.StudentClass.String}
		}
		out = append(out, rec)
	}
	return out, nil
}
