package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/middleware"
	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/query"
	"github.com/noah-isme/nade-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter, window query.Window) ([]models.Student, models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches name, class or enrollment number"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.StudentListResponse
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter, window := query.StudentParams(c.Request.URL.Query())
	students, pagination, err := h.students.List(c.Request.Context(), filter, window)
	if err != nil {
		response.Error(c, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	response.List(c, "students", students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} errors.Error
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "student", student)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} models.Student
// @Failure 400 {object} errors.Error
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, student.ID)
	response.Created(c, "student", student)
}

// Update godoc
// @Summary Update student
// @Description The enrollment number cannot be changed.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} models.Student
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "student", student)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.Error
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Aluno excluído com sucesso")
}
