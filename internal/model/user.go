package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Tutor   UserRole = "tutor"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"size:100;not null" json:"-"`
	Role        UserRole  `gorm:"size:20;default:'student'" json:"role"`
	Name        string    `gorm:"size:100" json:"name"`
	Surname     string    `gorm:"size:100" json:"surname"`
	PhoneNumber string    `gorm:"size:15" json:"phoneNumber"`
	Address     string    `gorm:"type:text" json:"address"`
	Bio         string    `gorm:"type:text" json:"bio"`
	LastLogin   time.Time `json:"lastLogin"`
	LastSeen    time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.Name == "" && u.Surname == "" {
		return u.Username
	}
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}
