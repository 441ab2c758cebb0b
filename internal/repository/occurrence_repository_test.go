package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nade-api/internal/models"
)

var occurrenceRowColumns = []string{
	"id", "student_id", "type", "description", "date", "time", "location", "reported_by", "severity", "status",
	"solicitante", "envolvidos", "motivos", "acoes", "conclusao", "observacoes", "parent_notified", "parent_notified_at", "created_at", "updated_at",
	"ref_student_id", "ref_student_name", "ref_student_class", "ref_student_enrollment", "ref_user_id", "ref_user_name",
}

func TestOccurrenceWhere(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	where, args := occurrenceWhere(models.OccurrenceFilter{StudentID: "s1", Status: "open", DateFrom: &from, DateBefore: &before})
	assert.Equal(t, " WHERE o.student_id = $1 AND o.status = $2 AND o.date >= $3 AND o.date < $4", where)
	assert.Equal(t, []interface{}{"s1", "open", from, before}, args)

	where, args = occurrenceWhere(models.OccurrenceFilter{})
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestOccurrenceListPopulatesReferences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(occurrenceRowColumns).
		AddRow("o1", "s1", "Bullying", "desc", now, "10:30", "Pátio", "u1", "high", "open",
			"Coordenação", "{Ana,Bruno}", "{Bullying}", "{}", "", "", false, nil, now, now,
			"s1", "Ana", "7A", "2024001", "u1", "Prof. Lima").
		AddRow("o2", nil, "Palestra", "", now, "09:00", "Auditório", "gone", "low", "closed",
			"Direção", "{}", "{}", "{}", "", "", false, nil, now, now,
			nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.type = $1 ORDER BY o.created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("Bullying").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM occurrences o WHERE o.type = $1")).
		WithArgs("Bullying").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	views, total, err := repo.List(context.Background(), models.OccurrenceFilter{Type: "Bullying", Limit: 10})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), total)

	assert.Equal(t, []string{"Ana", "Bruno"}, views[0].Envolvidos)
	require.NotNil(t, views[0].Student)
	assert.Equal(t, "7A", views[0].Student.Class)
	require.NotNil(t, views[0].ReportedBy)
	assert.Equal(t, "Prof. Lima", views[0].ReportedBy.Name)

	assert.Nil(t, views[1].StudentID)
	assert.Nil(t, views[1].Student)
	assert.Nil(t, views[1].ReportedBy)
	assert.NotNil(t, views[1].Acoes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1")).WithArgs("x").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOccurrenceUpdateWritesOnlyPatchedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	status := models.StatusResolved
	conclusao := "Resolvido com os pais"
	updated := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE occurrences SET status = $2, conclusao = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("o1", status, conclusao, updated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "o1", models.OccurrencePatch{Status: &status, Conclusao: &conclusao, UpdatedAt: updated})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceCountByTypeOrdering(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY type ORDER BY count DESC, type ASC LIMIT $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).
			AddRow("Bullying", 4).
			AddRow("Dano", 2).
			AddRow("Indisciplina", 2))

	counts, err := repo.CountByType(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, models.TypeCount{Type: "Bullying", Count: 4}, counts[0])
	assert.Equal(t, "Dano", counts[1].Type)
}

func TestOccurrenceRecentWithDanglingStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY o.created_at DESC LIMIT $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "severity", "created_at", "student_name", "student_class"}).
			AddRow("o1", "Dano", "medium", now, "Ana", "7A").
			AddRow("o2", "Palestra", "low", now, nil, nil))

	recent, err := repo.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.NotNil(t, recent[0].Student)
	assert.Equal(t, "Ana", recent[0].Student.Name)
	assert.Nil(t, recent[1].Student)
}

func TestOccurrenceCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountByStatus(context.Background(), models.OpenStatuses)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
