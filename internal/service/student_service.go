package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	"github.com/noah-isme/nade-api/internal/repository"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int64, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEnrollment(ctx context.Context, enrollment string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

var errDuplicateEnrollment = appErrors.Clone(appErrors.ErrDuplicate, "Número de matrícula já existe")

// StudentService manages the student registry.
type StudentService struct {
	repo      studentRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a StudentService. When cache is set, dashboard
// snapshots are dropped after a student is edited or removed.
func NewStudentService(repo studentRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students matching the search window.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter, window query.Window) ([]models.Student, models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Internal(err, "list students")
	}
	return students, window.Pagination(total), nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Aluno não encontrado", "load student")
	}
	return student, nil
}

// Create registers a student after checking enrollment uniqueness.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	req = trimStudent(req)
	if req.Name == "" || req.Class == "" || req.Grade == "" || req.EnrollmentNumber == "" {
		return nil, validation("Campos obrigatórios: nome, turma, série e matrícula")
	}
	student, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEnrollment(ctx, req.EnrollmentNumber); err == nil {
		return nil, errDuplicateEnrollment
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "check enrollment number")
	}

	student.EnrollmentNumber = req.EnrollmentNumber
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateEnrollment
		}
		return nil, appErrors.Internal(err, "create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update rewrites the mutable fields. The enrollment number identifies the
// student and may be echoed back but not changed.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	req = trimStudent(req)
	if req.Name == "" || req.Class == "" || req.Grade == "" {
		return nil, validation("Campos obrigatórios: nome, turma, série e matrícula")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EnrollmentNumber != "" && req.EnrollmentNumber != current.EnrollmentNumber {
		return nil, validation("Número de matrícula não pode ser alterado")
	}

	updated, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	updated.ID = current.ID
	updated.EnrollmentNumber = current.EnrollmentNumber
	updated.CreatedAt = current.CreatedAt
	if req.Status == "" {
		updated.Status = current.Status
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, lookupError(err, "Aluno não encontrado", "update student")
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete permanently removes a student. Occurrences keep pointing at the
// removed id and render without a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "Aluno não encontrado", "delete student")
	}
	s.invalidate(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
}

func (s *StudentService) fromRequest(req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Dados do aluno inválidos")
	}
	student := &models.Student{
		Name:        req.Name,
		Class:       req.Class,
		Grade:       req.Grade,
		ParentName:  req.ParentName,
		ParentPhone: req.ParentPhone,
		ParentEmail: strings.ToLower(req.ParentEmail),
		Status:      models.StudentStatus(orDefault(req.Status, string(models.StudentActive))),
	}
	if req.BirthDate != "" {
		birth, ok := dto.ParseDate(req.BirthDate)
		if !ok {
			return nil, validation("Data de nascimento inválida")
		}
		student.BirthDate = &birth
	}
	return student, nil
}

func trimStudent(req dto.StudentRequest) dto.StudentRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Class = strings.TrimSpace(req.Class)
	req.Grade = strings.TrimSpace(req.Grade)
	req.BirthDate = strings.TrimSpace(req.BirthDate)
	req.ParentName = strings.TrimSpace(req.ParentName)
	req.ParentPhone = strings.TrimSpace(req.ParentPhone)
	req.ParentEmail = strings.TrimSpace(req.ParentEmail)
	req.EnrollmentNumber = strings.TrimSpace(req.EnrollmentNumber)
	req.Status = strings.TrimSpace(req.Status)
	return req
}
