package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

type occurrenceFixture struct {
	svc         *OccurrenceService
	repo        *fakeOccurrenceRepo
	cache       *fakeCache
	students    *fakeStudentRepo
	invalidated int
}

func newOccurrenceFixture(t *testing.T) *occurrenceFixture {
	t.Helper()
	students := newFakeStudentRepo(models.Student{ID: "s1", Name: "Ana Souza", Class: "9A", EnrollmentNumber: "2024001"})
	users := newFakeUserRepo(models.User{ID: "u1", Name: "Coord. Paula", Role: models.RoleCoordinator})
	repo := newFakeOccurrenceRepo(students, users)
	cache := newFakeCache()
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)

	svc := NewOccurrenceService(repo, students, cacheSvc, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 14, 5, 0, 0, time.Local) }
	return &occurrenceFixture{svc: svc, repo: repo, cache: cache, students: students}
}

func strPtr(s string) *string { return &s }

func TestOccurrenceCreateRequiresSolicitanteAndLocation(t *testing.T) {
	f := newOccurrenceFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "  ", Location: "Pátio"}, "u1")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Campos obrigatórios: solicitante e local", appErr.Message)
	assert.Empty(t, f.repo.items)
}

func TestOccurrenceCreateAppliesDefaults(t *testing.T) {
	f := newOccurrenceFixture(t)
	f.cache.entries["dash:stats:2024-03-10"] = &dto.DashboardStats{OpenOccurrences: 1}

	view, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{
		Solicitante: "Prof. Carlos",
		Location:    "Pátio",
		Envolvidos:  []string{" João ", "", "Maria"},
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, models.DefaultOccurrenceType, view.Type)
	assert.Equal(t, models.SeverityMedium, view.Severity)
	assert.Equal(t, models.StatusOpen, view.Status)
	assert.Equal(t, "Registro NADE", view.Description)
	assert.Equal(t, "14:05", view.Time)
	assert.Equal(t, []string{"João", "Maria"}, view.Envolvidos)
	assert.NotNil(t, view.Motivos)
	assert.NotNil(t, view.Acoes)
	assert.Nil(t, view.StudentID)
	assert.Nil(t, view.Student)
	require.NotNil(t, view.ReportedBy)
	assert.Equal(t, "Coord. Paula", view.ReportedBy.Name)
	assert.Empty(t, f.cache.entries, "dashboard snapshot must be dropped")
	assert.Equal(t, []string{DashboardCachePattern}, f.cache.deleted)
}

func TestOccurrenceCreateDescriptionFallsBackToConclusao(t *testing.T) {
	f := newOccurrenceFixture(t)

	view, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{
		Solicitante: "Direção",
		Location:    "Sala 3",
		Conclusao:   "Pais orientados",
		Date:        "2024-03-01",
		Time:        "08:30",
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, "Pais orientados", view.Description)
	assert.Equal(t, "2024-03-01", view.Date.Format("2006-01-02"))
	assert.Equal(t, "08:30", view.Time)
}

func TestOccurrenceCreateActionsAlias(t *testing.T) {
	f := newOccurrenceFixture(t)

	view, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{
		Solicitante: "Direção",
		Location:    "Sala 3",
		Actions:     []string{"Advertência", "Advertência", "Aconselhamento"},
		Motivos:     []string{"Bullying"},
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"Advertência", "Aconselhamento"}, view.Acoes)
	assert.Equal(t, []string{"Bullying"}, view.Motivos)
}

func TestOccurrenceCreateRejectsUnknownTags(t *testing.T) {
	f := newOccurrenceFixture(t)

	cases := map[string]dto.CreateOccurrenceRequest{
		"Tipo de ocorrência inválido: Furto": {Type: "Furto"},
		"Motivo inválido: Atraso":            {Motivos: []string{"Atraso"}},
		"Ação inválida: Expulsão":            {Acoes: []string{"Expulsão"}},
	}
	for msg, req := range cases {
		req.Solicitante, req.Location = "Direção", "Pátio"
		_, err := f.svc.Create(context.Background(), req, "u1")
		require.Error(t, err, msg)
		assert.Equal(t, msg, appErrors.FromError(err).Message)
	}
	assert.Empty(t, f.repo.items)
}

func TestOccurrenceCreateRejectsInvalidSeverity(t *testing.T) {
	f := newOccurrenceFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "b", Severity: "critical"}, "u1")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestOccurrenceCreateWithStudent(t *testing.T) {
	f := newOccurrenceFixture(t)

	view, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Student: strPtr("s1"), Solicitante: "a", Location: "b"}, "u1")
	require.NoError(t, err)
	require.NotNil(t, view.Student)
	assert.Equal(t, "Ana Souza", view.Student.Name)
	assert.Equal(t, "2024001", view.Student.EnrollmentNumber)

	_, err = f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Student: strPtr("missing"), Solicitante: "a", Location: "b"}, "u1")
	require.Error(t, err)
	assert.Equal(t, "Aluno não encontrado", appErrors.FromError(err).Message)
}

func TestOccurrenceCreateRequiresReporter(t *testing.T) {
	f := newOccurrenceFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "b"}, "")

	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestOccurrenceCreateStoreFailure(t *testing.T) {
	f := newOccurrenceFixture(t)
	f.repo.createErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "b"}, "u1")

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.Empty(t, f.cache.deleted)
}

func TestOccurrenceUpdatePatchesOnlyPresentFields(t *testing.T) {
	f := newOccurrenceFixture(t)
	created, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "Pátio", Conclusao: "inicial"}, "u1")
	require.NoError(t, err)
	f.cache.deleted = nil

	status := "resolved"
	notified := true
	view, err := f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Status: &status, ParentNotified: &notified})

	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, view.Status)
	assert.Equal(t, "Pátio", view.Location)
	assert.Equal(t, "inicial", view.Conclusao)
	assert.True(t, view.ParentNotified)
	require.NotNil(t, view.ParentNotifiedAt)
	assert.Nil(t, f.repo.lastPatch.Location)
	assert.Equal(t, []string{DashboardCachePattern}, f.cache.deleted)
}

func TestOccurrenceUpdateRejectsStudentChange(t *testing.T) {
	f := newOccurrenceFixture(t)
	created, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Student: strPtr("s1"), Solicitante: "a", Location: "b"}, "u1")
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Student: strPtr("s2")})
	require.Error(t, err)
	assert.Equal(t, "Não é possível alterar o aluno de uma ocorrência", appErrors.FromError(err).Message)

	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Student: strPtr("s1")})
	assert.NoError(t, err, "echoing the same student is allowed")
}

func TestOccurrenceUpdateValidation(t *testing.T) {
	f := newOccurrenceFixture(t)
	created, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "b"}, "u1")
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Location: strPtr(" ")})
	assert.Equal(t, "Campos obrigatórios: solicitante e local", appErrors.FromError(err).Message)

	bad := []string{"Inventado"}
	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Motivos: &bad})
	assert.Equal(t, "Motivo inválido: Inventado", appErrors.FromError(err).Message)

	status := "archived"
	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Status: &status})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestOccurrenceUpdateKeepsLegacyTagsUntouched(t *testing.T) {
	f := newOccurrenceFixture(t)
	created, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "b"}, "u1")
	require.NoError(t, err)
	f.repo.items[created.ID].Motivos = []string{"Motivo antigo"}

	_, err = f.svc.Update(context.Background(), created.ID, dto.UpdateOccurrenceRequest{Type: strPtr("Bullying")})

	assert.NoError(t, err)
}

func TestOccurrenceGetAndDeleteNotFound(t *testing.T) {
	f := newOccurrenceFixture(t)

	_, err := f.svc.Get(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Equal(t, "Ocorrência não encontrada", appErrors.FromError(err).Message)

	err = f.svc.Delete(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestOccurrenceDeleteInvalidatesCache(t *testing.T) {
	f := newOccurrenceFixture(t)
	created, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Solicitante: "a", Location: "b"}, "u1")
	require.NoError(t, err)
	f.cache.deleted = nil

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	assert.Empty(t, f.repo.items)
	assert.Equal(t, []string{DashboardCachePattern}, f.cache.deleted)
}

func TestOccurrenceListRendersDanglingStudentAsNull(t *testing.T) {
	f := newOccurrenceFixture(t)
	_, err := f.svc.Create(context.Background(), dto.CreateOccurrenceRequest{Student: strPtr("s1"), Solicitante: "a", Location: "b"}, "u1")
	require.NoError(t, err)
	delete(f.students.students, "s1")

	views, pagination, err := f.svc.List(context.Background(), models.OccurrenceFilter{Limit: 10}, query.Window{Page: 1, Limit: 10})

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.NotNil(t, views[0].StudentID)
	assert.Nil(t, views[0].Student)
	assert.Equal(t, int64(1), pagination.Total)
	assert.Equal(t, 1, pagination.Pages)
}
