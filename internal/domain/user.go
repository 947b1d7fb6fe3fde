package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignupResult carries the generated activation code back to the caller.
// Out-of-band delivery (email, SMS) is not this service's concern.
type SignupResult struct {
	UserID           int64     `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	IsActive         bool      `json:"is_active"`
	ActivationCode   string    `json:"activation_code"`
	ActivationExpiry time.Time `json:"activation_expiry"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SigninResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ActivateRequest struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
}

// UserInfo is the profile shape exposed over the wire, without secrets.
type UserInfo struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var codeRegex = regexp.MustCompile(`^[0-9]{6}$`)

func (r *SignupRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

func (r *SignupRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Name) > 255 {
		return fmt.Errorf("name must be at most 255 characters")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("passwords do not match")
	}
	return nil
}

func (r *SigninRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SigninRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func (r *ActivateRequest) Validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if !codeRegex.MatchString(r.Code) {
		return fmt.Errorf("code must be exactly 6 digits")
	}
	return nil
}
