package entity

import "time"

type UserRole string

const (
	RoleViewer  UserRole = "viewer"
	RoleCreator UserRole = "creator"
)

// User is the authentication principal backed by the credential store.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the user's document in the document store. The posts list holds
// published video ids; every id must reference an existing video owned by
// this user.
type Profile struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	Passions       []string  `json:"passions"`
	ProfilePicture string    `json:"profile_picture"`
	Followers      int       `json:"followers"`
	Following      int       `json:"following"`
	Posts          []string  `json:"posts"`
	CreatedAt      time.Time `json:"created_at"`
}
