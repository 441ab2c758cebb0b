package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	"github.com/noah-isme/nade-api/internal/repository"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

const defaultDescription = "Registro NADE"

type occurrenceRepository interface {
	List(ctx context.Context, filter models.OccurrenceFilter) ([]dto.OccurrenceView, int64, error)
	FindByID(ctx context.Context, id string) (*dto.OccurrenceView, error)
	Create(ctx context.Context, occurrence *models.Occurrence) error
	Update(ctx context.Context, id string, patch models.OccurrencePatch) error
	Delete(ctx context.Context, id string) error
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// OccurrenceService owns the occurrence lifecycle: defaults, required
// fields, enumeration checks and cache invalidation on every write.
type OccurrenceService struct {
	repo      occurrenceRepository
	students  studentFinder
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewOccurrenceService creates an OccurrenceService.
func NewOccurrenceService(repo occurrenceRepository, students studentFinder, cache cacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OccurrenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceService{
		repo:      repo,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns one page of populated occurrences.
func (s *OccurrenceService) List(ctx context.Context, filter models.OccurrenceFilter, window query.Window) ([]dto.OccurrenceView, models.Pagination, error) {
	start := time.Now()
	views, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveStore("occurrences.list", time.Since(start))
	if err != nil {
		return nil, models.Pagination{}, appErrors.Internal(err, "list occurrences")
	}
	return views, window.Pagination(total), nil
}

// Get returns one populated occurrence.
func (s *OccurrenceService) Get(ctx context.Context, id string) (*dto.OccurrenceView, error) {
	view, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Ocorrência não encontrada", "load occurrence")
	}
	return view, nil
}

// Create validates and defaults a request, persists it and returns the
// populated record. Store and fetch are separate round trips.
func (s *OccurrenceService) Create(ctx context.Context, req dto.CreateOccurrenceRequest, reporterID string) (*dto.OccurrenceView, error) {
	solicitante := strings.TrimSpace(req.Solicitante)
	location := strings.TrimSpace(req.Location)
	if solicitante == "" || location == "" {
		return nil, validation("Campos obrigatórios: solicitante e local")
	}
	if reporterID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Gravidade inválida")
	}

	now := s.now()
	occurrence := &models.Occurrence{
		Type:        orDefault(strings.TrimSpace(req.Type), models.DefaultOccurrenceType),
		Date:        now,
		Time:        strings.TrimSpace(req.Time),
		Location:    location,
		ReportedBy:  reporterID,
		Severity:    models.Severity(orDefault(req.Severity, string(models.SeverityMedium))),
		Status:      models.StatusOpen,
		Solicitante: solicitante,
		Envolvidos:  cleanNames(req.Envolvidos),
		Motivos:     dedupe(req.Motivos),
		Acoes:       dedupe(firstNonNil(req.Acoes, req.Actions)),
		Conclusao:   strings.TrimSpace(req.Conclusao),
		Observacoes: strings.TrimSpace(req.Observacoes),
	}
	occurrence.Description = orDefault(strings.TrimSpace(req.Description), orDefault(occurrence.Conclusao, defaultDescription))
	if date, ok := dto.ParseDate(strings.TrimSpace(req.Date)); ok {
		occurrence.Date = date
	}
	if occurrence.Time == "" {
		occurrence.Time = now.Format("15:04")
	}

	if err := checkEnumerations(occurrence.Type, occurrence.Motivos, occurrence.Acoes); err != nil {
		return nil, err
	}

	if req.Student != nil && strings.TrimSpace(*req.Student) != "" {
		studentID := strings.TrimSpace(*req.Student)
		if _, err := s.students.FindByID(ctx, studentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, validation("Aluno não encontrado")
			}
			return nil, appErrors.Internal(err, "load occurrence student")
		}
		occurrence.StudentID = &studentID
	}

	if err := s.repo.Create(ctx, occurrence); err != nil {
		return nil, appErrors.Internal(err, "create occurrence")
	}
	s.invalidate(ctx)
	s.metrics.OccurrenceCreated(occurrence.Type, string(occurrence.Severity))
	s.logger.Info("occurrence created",
		zap.String("occurrence_id", occurrence.ID),
		zap.String("type", occurrence.Type),
		zap.String("reported_by", reporterID))

	return s.Get(ctx, occurrence.ID)
}

// Update applies the fields present in req. The student reference is fixed
// at creation; any attempt to point the record elsewhere is rejected.
func (s *OccurrenceService) Update(ctx context.Context, id string, req dto.UpdateOccurrenceRequest) (*dto.OccurrenceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Gravidade ou status inválido")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Student != nil && !sameStudent(current.StudentID, *req.Student) {
		return nil, validation("Não é possível alterar o aluno de uma ocorrência")
	}

	patch, err := s.buildPatch(current, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, lookupError(err, "Ocorrência não encontrada", "update occurrence")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *OccurrenceService) buildPatch(current *dto.OccurrenceView, req dto.UpdateOccurrenceRequest) (models.OccurrencePatch, error) {
	now := s.now()
	patch := models.OccurrencePatch{UpdatedAt: now.UTC()}

	if req.Solicitante != nil {
		v := strings.TrimSpace(*req.Solicitante)
		if v == "" {
			return patch, validation("Campos obrigatórios: solicitante e local")
		}
		patch.Solicitante = &v
	}
	if req.Location != nil {
		v := strings.TrimSpace(*req.Location)
		if v == "" {
			return patch, validation("Campos obrigatórios: solicitante e local")
		}
		patch.Location = &v
	}
	if req.Type != nil {
		v := orDefault(strings.TrimSpace(*req.Type), models.DefaultOccurrenceType)
		patch.Type = &v
	}
	if req.Description != nil {
		v := strings.TrimSpace(*req.Description)
		patch.Description = &v
	}
	if req.Date != nil {
		date, ok := dto.ParseDate(strings.TrimSpace(*req.Date))
		if !ok {
			return patch, validation("Data inválida")
		}
		patch.Date = &date
	}
	if req.Time != nil {
		v := strings.TrimSpace(*req.Time)
		patch.Time = &v
	}
	if req.Severity != nil {
		v := models.Severity(*req.Severity)
		patch.Severity = &v
	}
	if req.Status != nil {
		v := models.OccurrenceStatus(*req.Status)
		patch.Status = &v
	}
	if req.Envolvidos != nil {
		v := cleanNames(*req.Envolvidos)
		patch.Envolvidos = &v
	}
	if req.Motivos != nil {
		v := dedupe(*req.Motivos)
		patch.Motivos = &v
	}
	if acoes := req.Acoes; acoes != nil || req.Actions != nil {
		if acoes == nil {
			acoes = req.Actions
		}
		v := dedupe(*acoes)
		patch.Acoes = &v
	}
	if req.Conclusao != nil {
		v := strings.TrimSpace(*req.Conclusao)
		patch.Conclusao = &v
	}
	if req.Observacoes != nil {
		v := strings.TrimSpace(*req.Observacoes)
		patch.Observacoes = &v
	}
	if req.ParentNotified != nil {
		patch.ParentNotified = req.ParentNotified
		if *req.ParentNotified && !current.ParentNotified {
			at := now.UTC()
			patch.ParentNotifiedAt = &at
		}
	}

	typ := current.Type
	if patch.Type != nil {
		typ = *patch.Type
	}
	motivos := current.Motivos
	if patch.Motivos != nil {
		motivos = *patch.Motivos
	}
	acoes := current.Acoes
	if patch.Acoes != nil {
		acoes = *patch.Acoes
	}
	// stored values predating the enumerations are only checked when touched
	if patch.Type != nil || patch.Motivos != nil || patch.Acoes != nil {
		if err := checkEnumerations(typ, onlyIf(patch.Motivos != nil, motivos), onlyIf(patch.Acoes != nil, acoes)); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

// Delete removes an occurrence permanently.
func (s *OccurrenceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "Ocorrência não encontrada", "delete occurrence")
	}
	s.invalidate(ctx)
	s.logger.Info("occurrence deleted", zap.String("occurrence_id", id))
	return nil
}

func (s *OccurrenceService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// failures are logged by the cache layer; the write itself succeeded
	_ = s.cache.Invalidate(ctx, DashboardCachePattern)
}

func checkEnumerations(typ string, motivos, acoes []string) error {
	if !models.Contains(models.OccurrenceTypes, typ) {
		return validation(fmt.Sprintf("Tipo de ocorrência inválido: %s", typ))
	}
	for _, m := range motivos {
		if !models.Contains(models.Motivos, m) {
			return validation(fmt.Sprintf("Motivo inválido: %s", m))
		}
	}
	for _, a := range acoes {
		if !models.Contains(models.Acoes, a) {
			return validation(fmt.Sprintf("Ação inválida: %s", a))
		}
	}
	return nil
}

func sameStudent(current *string, requested string) bool {
	requested = strings.TrimSpace(requested)
	if current == nil {
		return requested == ""
	}
	return *current == requested
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func firstNonNil(primary, alias []string) []string {
	if primary != nil {
		return primary
	}
	return alias
}

func onlyIf(cond bool, list []string) []string {
	if !cond {
		return nil
	}
	return list
}

// cleanNames trims every entry and drops blanks, keeping order.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// dedupe trims tags and removes repeats, keeping first occurrence order.
func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
