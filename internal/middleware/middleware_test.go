package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

var tokens = stubValidator{
	"admin":   {UserID: "u1", Role: models.RoleAdmin},
	"coord":   {UserID: "u2", Role: models.RoleCoordinator},
	"teacher": {UserID: "u3", Role: models.RoleTeacher},
}

func guardedRouter(roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.Use(JWT(tokens))
	r.DELETE("/occurrences/:id", RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})
	return r
}

func doRequest(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingOrInvalidToken(t *testing.T) {
	r := guardedRouter(models.RoleAdmin)

	for _, header := range []string{"", "Bearer", "Basic admin", "Bearer nope"} {
		w := doRequest(r, http.MethodDelete, "/occurrences/1", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), "Não autorizado")
	}
}

func TestRequireRoles(t *testing.T) {
	r := guardedRouter(models.RoleAdmin)

	w := doRequest(r, http.MethodDelete, "/occurrences/1", "Bearer admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	w = doRequest(r, http.MethodDelete, "/occurrences/1", "bearer coord")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Permissão insuficiente")
}

func TestRequireRolesWithoutSession(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRoles(Editors...), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, http.MethodGet, "/x", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/occurrences/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	doRequest(r, http.MethodGet, "/occurrences/abc", "")
	doRequest(r, http.MethodGet, "/occurrences/def", "")
	doRequest(r, http.MethodGet, "/nowhere", "")

	body := doRequest(metrics.Handler(), http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/occurrences/:id",status="204"} 2`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "/occurrences/abc")
}

func TestAuditLogsSuccessfulWritesOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(JWT(tokens))
	r.PUT("/users/:id", Audit(zap.New(core), "user.update", "user"), func(c *gin.Context) {
		if c.Param("id") == "bad" {
			c.Status(http.StatusBadRequest)
			return
		}
		SetAuditResource(c, c.Param("id"))
		c.Status(http.StatusOK)
	})

	doRequest(r, http.MethodPut, "/users/u9", "Bearer admin")
	doRequest(r, http.MethodPut, "/users/bad", "Bearer admin")

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "user.update", fields["action"])
	assert.Equal(t, "u1", fields["actor_id"])
	assert.Equal(t, "u9", fields["resource_id"])
	assert.Equal(t, "/users/:id", fields["route"])
}

func TestSetCacheHit(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SetCacheHit(c, true)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	SetCacheHit(c, false)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
}
