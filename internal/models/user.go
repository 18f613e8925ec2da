package models

import "time"

// User is an account in the marketplace. The messaging service owns the
// users table only as far as registration and name resolution go.
type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PublicUser is the user shape exposed in API responses.
type PublicUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Public strips credential fields from a User.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name}
}
