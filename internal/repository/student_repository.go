package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
)

const studentColumns = `id, name, class, grade, birth_date, parent_name, parent_phone, parent_email, enrollment_number, status, created_at, updated_at`

// StudentRepository stores students in Postgres.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns one page of students ordered by name and the total match count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int64, error) {
	base := `FROM students WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		args = append(args, query.LikeContains(filter.Search))
		n := len(args)
		base += fmt.Sprintf(" AND (name ILIKE $%d OR class ILIKE $%d OR enrollment_number ILIKE $%d)", n, n, n)
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", studentColumns, base, filter.Limit, filter.Offset)
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEnrollment returns the student holding an enrollment number.
func (r *StudentRepository) FindByEnrollment(ctx context.Context, enrollment string) (*models.Student, error) {
	return r.findOne(ctx, "enrollment_number", enrollment)
}

func (r *StudentRepository) findOne(ctx context.Context, column, value string) (*models.Student, error) {
	q := fmt.Sprintf("SELECT %s FROM students WHERE %s = $1 LIMIT 1", studentColumns, column)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find student by %s: %w", column, err)
	}
	return &student, nil
}

// Create inserts a student, assigning id and timestamps.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const q = `INSERT INTO students (` + studentColumns + `) VALUES (:id, :name, :class, :grade, :birth_date, :parent_name, :parent_phone, :parent_email, :enrollment_number, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, student); err != nil {
		return fmt.Errorf("create student: %w", translate(err))
	}
	return nil
}

// Update overwrites the mutable fields. The enrollment number is not written.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const q = `UPDATE students SET name = :name, class = :class, grade = :grade, birth_date = :birth_date, parent_name = :parent_name, parent_phone = :parent_phone, parent_email = :parent_email, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, q, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(res, "update student")
}

// Delete hard-deletes a student. Occurrences keep their dangling reference.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res, "delete student")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
