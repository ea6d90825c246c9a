package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"column:name;not null" json:"name"`
	Email        string `gorm:"column:email;unique;not null" json:"email"`
	Password     string `gorm:"column:password;not null" json:"password,omitempty"`
	Role         string `gorm:"column:role;default:user" json:"role"`
	IsBlocked    bool   `gorm:"column:is_blocked;default:false" json:"is_blocked"`
	RefreshToken string `gorm:"column:refresh_token" json:"-"`

	ProfilePic string     `gorm:"column:profile_pic" json:"profile_pic,omitempty"`
	Address    string     `gorm:"column:address" json:"address,omitempty"`
	Age        int        `gorm:"column:age" json:"age,omitempty"`
	BirthDate  *time.Time `gorm:"column:birth_date" json:"birth_date,omitempty"`
	Gender     string     `gorm:"column:gender" json:"gender,omitempty"`
	Phone      string     `gorm:"column:phone" json:"phone,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Sanitized returns a copy safe to hand to clients.
func (u User) Sanitized() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}
