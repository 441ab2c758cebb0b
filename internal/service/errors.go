package service

import (
	"errors"

	"github.com/noah-isme/nade-api/internal/repository"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

// DashboardCachePattern matches every cached dashboard snapshot.
const DashboardCachePattern = "dash:stats:*"

func validation(message string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

// lookupError maps a repository miss to a 404 carrying message and anything
// else to a 500 annotated with op.
func lookupError(err error, message, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Internal(err, op)
}
