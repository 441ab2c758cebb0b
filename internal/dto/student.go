package dto

import "github.com/noah-isme/nade-api/internal/models"

// StudentRequest is the body of POST and PUT /students.
type StudentRequest struct {
	Name             string `json:"name"`
	Class            string `json:"class"`
	Grade            string `json:"grade"`
	BirthDate        string `json:"birthDate"`
	ParentName       string `json:"parentName"`
	ParentPhone      string `json:"parentPhone"`
	ParentEmail      string `json:"parentEmail" validate:"omitempty,email"`
	EnrollmentNumber string `json:"enrollmentNumber"`
	Status           string `json:"status" validate:"omitempty,oneof=active inactive transferred"`
}

// StudentListResponse documents GET /students.
type StudentListResponse struct {
	Students   []models.Student  `json:"students"`
	Pagination models.Pagination `json:"pagination"`
}
