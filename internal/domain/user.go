package domain

import "time"

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	FullName          string     `gorm:"size:200" json:"full_name"`
	PhoneNumber       string     `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	Email             string     `gorm:"size:255;index" json:"email,omitempty"`
	Address           string     `gorm:"size:255" json:"address,omitempty"`
	Password          string     `gorm:"size:255" json:"-"`
	Active            bool       `gorm:"not null;default:true" json:"active"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	FacebookAccountID string     `gorm:"size:64" json:"-"`
	GoogleAccountID   string     `gorm:"size:64" json:"-"`
	RoleID            uint       `gorm:"index;not null" json:"role_id"`
	Role              Role       `json:"role"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Username is the login identifier embedded as the token subject.
func (u *User) Username() string { return u.PhoneNumber }

// RoleNames returns the role labels carried into access-token claims.
func (u *User) RoleNames() []string {
	if u.Role.Name == "" {
		return nil
	}
	return []string{u.Role.Name}
}

// IsSocialAccount reports whether the account was created through a linked
// social identity and therefore has no local password.
func (u *User) IsSocialAccount() bool {
	return u.FacebookAccountID != "" || u.GoogleAccountID != ""
}
