// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone        string     `json:"phone,omitempty" gorm:"size:30"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;index"`
	Location     string     `json:"location,omitempty" gorm:"size:255"`
	Verified     bool       `json:"verified" gorm:"default:false"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:FarmerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// PublicProfile is the subset of a user shown to other users.
type PublicProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Role     Role   `json:"role"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:       u.ID.String(),
		Name:     u.Name,
		Phone:    u.Phone,
		Location: u.Location,
		Role:     u.Role,
	}
}
