package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// Session is the authenticated identity of one console user.
type Session struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	TokenExpiry time.Time `json:"token_expiry"`
	AccessToken string    `json:"-"`
}

func (s *Session) IsAdmin() bool   { return s != nil && s.Role == RoleAdmin }
func (s *Session) IsCashier() bool { return s != nil && s.Role == RoleCashier }

// Expired reports whether the token expiry is known and has passed.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.TokenExpiry.IsZero() && !now.Before(s.TokenExpiry)
}

// StoredUser is the denormalized identity persisted next to the access token.
type StoredUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Credential is what the console persists per browser session.
type Credential struct {
	AccessToken string
	User        StoredUser
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
}

func (r *LoginResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken string `json:"access_token"`
		Email       string `json:"email"`
		Name        string `json:"name"`
		Role        Role   `json:"role"`
		Rol         Role   `json:"rol"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = LoginResponse{
		AccessToken: raw.AccessToken,
		Email:       raw.Email,
		Name:        raw.Name,
		Role:        pickRole(raw.Role, raw.Rol),
	}
	return nil
}

// UserProfile is the body of GET /auth/profile.
type UserProfile struct {
	ID    FlexibleID `json:"id"`
	Sub   string     `json:"sub"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  Role       `json:"role"`
	Iat   int64      `json:"iat"`
	Exp   int64      `json:"exp"`
}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type alias UserProfile
	var raw struct {
		alias
		Rol Role `json:"rol"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = UserProfile(raw.alias)
	p.Role = pickRole(raw.alias.Role, raw.Rol)
	return nil
}

func pickRole(roles ...Role) Role {
	for _, r := range roles {
		if r != "" {
			return Role(strings.ToLower(string(r)))
		}
	}
	return ""
}

// FlexibleID decodes a numeric id sent either as a JSON number or a numeric
// string. Anything else, including non-positive values, decodes to zero.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		*id = 0
		return nil
	}
	*id = FlexibleID(n)
	return nil
}
