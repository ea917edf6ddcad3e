package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AuthClaims is the identity decoded from an access token.
type AuthClaims struct {
	UserID    string    `json:"sub"`
	Role      string    `json:"role"`
	TokenID   string    `json:"jti,omitempty"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

func (c AuthClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type AuthUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (u User) AuthUser() AuthUser {
	return AuthUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

type LoginResult struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    AuthUser `json:"user"`
}

type RegisterResult struct {
	Message                   string `json:"message"`
	UserID                    string `json:"user_id"`
	EmailVerificationRequired bool   `json:"email_verification_required"`
}

type UserQuery struct {
	Search  string
	Page    int
	PerPage int
}

type UserList struct {
	Users []User `json:"users"`
}

// UserInfo is the short owner reference attached to admin listings.
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type StatusToggleResult struct {
	Message  string `json:"message"`
	IsActive bool   `json:"is_active"`
}
