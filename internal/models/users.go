package models

import "golang.org/x/crypto/bcrypt"

// Role: user role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User: table users
type User struct {
	Base
	Username     string  `gorm:"uniqueIndex;not null"`
	Email        *string `gorm:"uniqueIndex"` // optional; used for moderation notices
	PasswordHash string  `gorm:"not null"`
	Role         Role    `gorm:"type:varchar(16);not null;default:'user'"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID      uint
	IsAdmin bool
}

// AsActor returns the identity u acts with.
func (u *User) AsActor() Actor {
	return Actor{ID: u.ID, IsAdmin: u.IsAdmin()}
}

// HashPassword turns a plain password into a bcrypt hash
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword compares a password with its hash
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
