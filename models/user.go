package models

import (
	"encoding/json"
)

// User is an account as listed by the admin console.
type User struct {
	ID    FlexibleID `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  Role       `json:"role"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		Rol Role `json:"rol"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	u.Role = pickRole(raw.alias.Role, raw.Rol)
	return nil
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required,oneof=admin cashier"`
}

// UpdateUserRequest leaves the password untouched when it is empty.
type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Password string `json:"password,omitempty" binding:"omitempty,min=6"`
	Role     Role   `json:"role,omitempty" binding:"omitempty,oneof=admin cashier"`
}
