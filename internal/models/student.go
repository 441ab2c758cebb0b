package models

import "time"

// StudentStatus tracks whether a learner is still enrolled.
type StudentStatus string

const (
	StudentActive      StudentStatus = "active"
	StudentInactive    StudentStatus = "inactive"
	StudentTransferred StudentStatus = "transferred"
)

func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentTransferred:
		return true
	}
	return false
}

// Student is a learner. EnrollmentNumber is unique and never changes after
// creation.
type Student struct {
	ID               string        `db:"id" json:"id"`
	Name             string        `db:"name" json:"name"`
	Class            string        `db:"class" json:"class"`
	Grade            string        `db:"grade" json:"grade"`
	BirthDate        *time.Time    `db:"birth_date" json:"birthDate,omitempty"`
	ParentName       string        `db:"parent_name" json:"parentName,omitempty"`
	ParentPhone      string        `db:"parent_phone" json:"parentPhone,omitempty"`
	ParentEmail      string        `db:"parent_email" json:"parentEmail,omitempty"`
	EnrollmentNumber string        `db:"enrollment_number" json:"enrollmentNumber"`
	Status           StudentStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// StudentFilter is produced by the query builder from request parameters.
type StudentFilter struct {
	Search string
	Offset int
	Limit  int
}
