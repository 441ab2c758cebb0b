package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/logger"
)

// ForgotPasswordMessage is returned whether or not the email exists.
const ForgotPasswordMessage = "Se o email estiver cadastrado, você receberá um link de recuperação."

const resetTokenBytes = 32

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	ResetTokenTTL     time.Duration
	ResetURL          string
	BcryptCost        int
	// LogResetLinks writes reset links to the log; development only.
	LogResetLinks bool
}

// AuthService issues sessions and runs the password reset flow.
type AuthService struct {
	repo      authUserRepository
	mailer    resetMailer
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
	random    func([]byte) (int, error)
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, mailer resetMailer, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = 10 * time.Minute
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	if config.BcryptCost < bcrypt.MinCost {
		config.BcryptCost = 12
	}
	return &AuthService{repo: repo, mailer: mailer, validator: validate, logger: logger, config: config, now: time.Now, random: rand.Read}
}

// Login authenticates a user and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Email e senha são obrigatórios")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Internal(err, "load user for login")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, issuedAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Internal(err, "sign access token")
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        userInfo(user),
	}, nil
}

// Me returns the current account. A token for a deleted user is rejected.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Internal(err, "load session user")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// ForgotPassword stores the hash of a fresh reset token and mails the raw
// token. The caller always receives the same generic outcome so the
// endpoint cannot be used to probe which emails exist.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return validation("Email é obrigatório")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email", logger.Email("email", email))
			return nil
		}
		return appErrors.Internal(err, "load user for password reset")
	}

	token, err := s.newResetToken()
	if err != nil {
		return appErrors.Internal(err, "generate reset token")
	}
	expires := s.now().Add(s.config.ResetTokenTTL).UTC()
	if err := s.repo.SetResetToken(ctx, user.ID, HashResetToken(token), expires); err != nil {
		return appErrors.Internal(err, "store reset token")
	}

	link := s.resetLink(token)
	if s.config.LogResetLinks {
		s.logger.Info("password reset link (development only)", zap.String("user_id", user.ID), zap.String("reset_url", link))
	}
	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, link); err != nil {
			s.logger.Warn("password reset mail not queued", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The
// token fields are cleared in the same write as the new hash.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" || req.Password == "" {
		return validation("Token e senha são obrigatórios")
	}
	if len(req.Password) < MinPasswordLength {
		return errShortPassword
	}

	user, err := s.repo.FindByResetToken(ctx, HashResetToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation("Token inválido ou expirado")
		}
		return appErrors.Internal(err, "load user by reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return appErrors.Internal(err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), s.now().UTC()); err != nil {
		return appErrors.Internal(err, "update password")
	}
	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

// HashResetToken is the SHA-256 hex digest persisted instead of the token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := s.random(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *AuthService) resetLink(token string) string {
	base := s.config.ResetURL
	if base == "" {
		base = "/reset-password"
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
}
