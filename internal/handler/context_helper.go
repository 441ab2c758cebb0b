package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/middleware"
	"github.com/noah-isme/nade-api/internal/models"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/response"
)

var errInvalidPayload = appErrors.Clone(appErrors.ErrValidation, "Dados inválidos")

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// bindJSON decodes the body into dest, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, errInvalidPayload.Code, http.StatusBadRequest, errInvalidPayload.Message))
		return false
	}
	return true
}
