package dto

// CreateUserRequest is the POST /users body.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the PUT /users/:id body.
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role"`
}

// UpdatePasswordRequest is the PUT /users/:id/password body.
type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}
