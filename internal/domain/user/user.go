package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleHRManager = "hr_manager"
	RoleEmployee  = "employee"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleHRManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID           string     `json:"userId"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("username or email already in use")
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin hr_manager employee"`
}

// all-pointer payload so absent fields can be told apart from zero values
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin hr_manager employee"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=255"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	FirstName       string `json:"firstName" binding:"required,max=100"`
	LastName        string `json:"lastName" binding:"required,max=100"`
	IDNumber        string `json:"idNumber" binding:"required,len=9,numeric"`
	Phone           string `json:"phone" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required_without=Email"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}
