package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/logger"
)

// MinPasswordLength applies to creation, admin resets and the reset flow.
const MinPasswordLength = 6

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

var (
	errEmailInUse    = appErrors.Clone(appErrors.ErrDuplicate, "Email já está em uso")
	errInvalidRole   = validation("Função inválida")
	errShortPassword = validation("Senha deve ter pelo menos 6 caracteres")
	errUserNotFound  = appErrors.Clone(appErrors.ErrNotFound, "Usuário não encontrado")
)

// UserService handles staff account management and the last-admin policy.
//
// The admin count is read immediately before the write with no lock held;
// two concurrent demotions of the last two admins can both pass the check.
type UserService struct {
	repo       userRepository
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = 12
	}
	return &UserService{repo: repo, validator: validate, logger: logger, bcryptCost: bcryptCost, now: time.Now}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "list users")
	}
	return users, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, appErrors.Internal(err, "load user")
	}
	return user, nil
}

// Create adds a new staff account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return nil, validation("Campos obrigatórios: nome, email, senha e função")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Email inválido")
	}
	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}
	role := models.UserRole(req.Role)
	if !role.Valid() {
		return nil, errInvalidRole
	}
	if len(req.Password) < MinPasswordLength {
		return nil, errShortPassword
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: req.Email, PasswordHash: hash, Name: req.Name, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errEmailInUse
		}
		return nil, appErrors.Internal(err, "create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), logger.Email("email", user.Email), zap.String("role", string(role)))
	return user, nil
}

// Update changes name, email and role. Demoting the last admin is refused.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Role == "" {
		return nil, validation("Campos obrigatórios: nome, email e função")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Email inválido")
	}
	role := models.UserRole(req.Role)
	if !role.Valid() {
		return nil, errInvalidRole
	}
	if err := s.ensureEmailFree(ctx, req.Email, id); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() && role != models.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, "Não é possível alterar a função do último administrador"); err != nil {
			return nil, err
		}
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errEmailInUse
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, appErrors.Internal(err, "update user")
	}
	return user, nil
}

// SetPassword lets an admin replace another account's password.
func (s *UserService) SetPassword(ctx context.Context, id string, req dto.UpdatePasswordRequest) error {
	if req.NewPassword == "" {
		return validation("Nova senha é obrigatória")
	}
	if len(req.NewPassword) < MinPasswordLength {
		return errShortPassword
	}
	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUserNotFound
		}
		return appErrors.Internal(err, "update password")
	}
	s.logger.Info("user password changed", zap.String("user_id", id))
	return nil
}

// Delete removes an account. Users cannot delete themselves and the last
// admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return validation("Não é possível excluir seu próprio usuário")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		if err := s.ensureAnotherAdmin(ctx, "Não é possível excluir o último administrador"); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUserNotFound
		}
		return appErrors.Internal(err, "delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

// HashPassword hashes with the configured bcrypt cost.
func (s *UserService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", appErrors.Internal(err, "hash password")
	}
	return string(hash), nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return errEmailInUse
		}
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return appErrors.Internal(err, "check email uniqueness")
	}
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context, message string) error {
	admins, err := s.repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return appErrors.Internal(err, "count admins")
	}
	if admins <= 1 {
		return appErrors.Clone(appErrors.ErrLastAdmin, message)
	}
	return nil
}
