package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/models"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

// JSON sends payload as-is with no-store cache headers.
func JSON(c *gin.Context, status int, payload interface{}) {
	noStore(c)
	c.JSON(status, payload)
}

// OK wraps a single resource under key: {"<key>": data}.
func OK(c *gin.Context, key string, data interface{}) {
	JSON(c, http.StatusOK, gin.H{key: data})
}

// Created responds 201 with {"<key>": data}.
func Created(c *gin.Context, key string, data interface{}) {
	JSON(c, http.StatusCreated, gin.H{key: data})
}

// List responds with {"<key>": items, "pagination": {...}}.
func List(c *gin.Context, key string, items interface{}, pagination models.Pagination) {
	JSON(c, http.StatusOK, gin.H{key: items, "pagination": pagination})
}

// Message responds 200 with {"message": msg}.
func Message(c *gin.Context, msg string) {
	JSON(c, http.StatusOK, gin.H{"message": msg})
}

// Error renders {"error": message, "code": CODE} using the error's status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	noStore(c)
	c.AbortWithStatusJSON(appErr.Status, appErr)
}

// Attachment streams a generated file for download.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	noStore(c)
	c.Data(http.StatusOK, contentType, body)
}

// Inline sends a generated document meant to be displayed, not saved.
func Inline(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	noStore(c)
	c.Data(http.StatusOK, contentType, body)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
