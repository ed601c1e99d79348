package models

import (
	"strings"
	"time"
)

// User represents a registered identity. Username, first and last name are
// lowercased at sign-up.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Password  string    `json:"-" db:"password_hash"` // Never expose in JSON
	Thumbnail *string   `json:"thumbnail,omitempty" db:"thumbnail"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the public view of a user sent to clients.
type Profile struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	Thumbnail *string `json:"thumbnail"`
}

// ToProfile converts a User to its public view. The display name is the
// capitalized "First Last" form of the stored lowercase names.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Name:      capitalize(u.FirstName) + " " + capitalize(u.LastName),
		Thumbnail: u.Thumbnail,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
