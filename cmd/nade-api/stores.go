package main

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
	"github.com/noah-isme/nade-api/internal/repository/mongostore"
	"github.com/noah-isme/nade-api/pkg/config"
	"github.com/noah-isme/nade-api/pkg/database"
)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int64, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEnrollment(ctx context.Context, enrollment string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type userStore interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	Delete(ctx context.Context, id string) error
}

type occurrenceStore interface {
	List(ctx context.Context, filter models.OccurrenceFilter) ([]dto.OccurrenceView, int64, error)
	FindByID(ctx context.Context, id string) (*dto.OccurrenceView, error)
	Create(ctx context.Context, occurrence *models.Occurrence) error
	Update(ctx context.Context, id string, patch models.OccurrencePatch) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, statuses []models.OccurrenceStatus) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountByType(ctx context.Context, limit int) ([]models.TypeCount, error)
	Recent(ctx context.Context, limit int) ([]dto.RecentOccurrence, error)
}

// stores bundles the repositories of the selected backend.
type stores struct {
	students    studentStore
	users       userStore
	occurrences occurrenceStore
	ping        pingFunc
	close       func(context.Context) error
}

// pingFunc adapts a backend health call to the readiness probe.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		m, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &stores{
			students:    mongostore.NewStudentStore(m.DB),
			users:       mongostore.NewUserStore(m.DB),
			occurrences: mongostore.NewOccurrenceStore(m.DB),
			ping:        m.Ping,
			close:       m.Close,
		}, nil
	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &stores{
			students:    repository.NewStudentRepository(db),
			users:       repository.NewUserRepository(db),
			occurrences: repository.NewOccurrenceRepository(db),
			ping:        db.PingContext,
			close:       func(context.Context) error { return db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
