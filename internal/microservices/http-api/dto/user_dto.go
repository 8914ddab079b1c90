package dto

import (
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"
)

// UserResponse is the public representation of a user
type UserResponse struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// CreateUserRequest is used by admins to create a user directly
type CreateUserRequest struct {
	Username  string      `json:"username" binding:"required,username"`
	Email     string      `json:"email" binding:"required,email"`
	FirstName string      `json:"first_name" binding:"max=150"`
	LastName  string      `json:"last_name" binding:"max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

func (r CreateUserRequest) Input() service.UserInput {
	return service.UserInput{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}

// UpdateUserRequest is a partial user update; absent fields are left unchanged.
// An unknown role is rejected at binding, before the service decides whether
// the caller may change roles at all.
type UpdateUserRequest struct {
	Username  *string      `json:"username" binding:"omitempty,username"`
	Email     *string      `json:"email" binding:"omitempty,email"`
	FirstName *string      `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string      `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" binding:"omitempty,oneof=user moderator admin"`
}

func (r UpdateUserRequest) Patch() service.UserPatch {
	return service.UserPatch{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}
