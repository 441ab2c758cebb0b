package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/nade-api/internal/handler"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/service"
	"github.com/noah-isme/nade-api/pkg/config"
)

type tokenTable map[string]models.UserRole

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := t[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &models.JWTClaims{UserID: "u-" + token, Role: role}, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api"}
	metrics := service.NewMetricsService()
	tokens := tokenTable{
		"admin":   models.RoleAdmin,
		"coord":   models.RoleCoordinator,
		"teacher": models.RoleTeacher,
	}
	return newRouter(cfg, zap.NewNop(), tokens, metrics, handlers{
		auth:        handler.NewAuthHandler(nil),
		students:    handler.NewStudentHandler(nil),
		occurrences: handler.NewOccurrenceHandler(nil),
		users:       handler.NewUserHandler(nil),
		dashboard:   handler.NewDashboardHandler(nil),
		reports:     handler.NewReportHandler(nil),
		ops:         handler.NewMetricsHandler(metrics, nil, zap.NewNop()),
	})
}

func TestRouterAccessPolicy(t *testing.T) {
	r := testRouter()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous list", http.MethodGet, "/api/students", "", http.StatusUnauthorized},
		{"invalid token", http.MethodGet, "/api/occurrences", "forged", http.StatusUnauthorized},
		{"teacher cannot create student", http.MethodPost, "/api/students", "teacher", http.StatusForbidden},
		{"teacher cannot create occurrence", http.MethodPost, "/api/occurrences", "teacher", http.StatusForbidden},
		{"teacher cannot edit occurrence", http.MethodPut, "/api/occurrences/o1", "teacher", http.StatusForbidden},
		{"coordinator cannot delete occurrence", http.MethodDelete, "/api/occurrences/o1", "coord", http.StatusForbidden},
		{"coordinator cannot delete student", http.MethodDelete, "/api/students/s1", "coord", http.StatusForbidden},
		{"coordinator cannot list users", http.MethodGet, "/api/users", "coord", http.StatusForbidden},
		{"teacher cannot reset passwords", http.MethodPut, "/api/users/u1/password", "teacher", http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/classes", "admin", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRouterOpsEndpoints(t *testing.T) {
	r := testRouter()

	for path, status := range map[string]int{
		"/health":          http.StatusOK,
		"/ready":           http.StatusOK,
		"/metrics":         http.StatusOK,
		"/docs/index.html": http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}
