package models

import "time"

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// User is a marketplace account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Specialty    string    `json:"specialty"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile is what other users may see.
type PublicProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Specialty string    `json:"specialty"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		Specialty: u.Specialty,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

// ProfileUpdate carries optional profile fields; empty strings keep the current value.
type ProfileUpdate struct {
	Name      string
	Specialty string
	Bio       string
}
