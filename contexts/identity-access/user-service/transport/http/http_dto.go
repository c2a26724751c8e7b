package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User UserDTO `json:"user"`
	// SentToEmail mirrors the storefront contract: the token travels by
	// mail, never in this response.
	SentToEmail string `json:"sent_to_email"`
}

type VerifyEmailResponse struct {
	User UserDTO `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

type GetUserResponse struct {
	User UserDTO `json:"user"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type ChangeRoleResponse struct {
	User UserDTO `json:"user"`
}
