package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a player account. Its ID is the identity reactions are recorded under.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"size:100" json:"name"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	u.ID = newID(u.ID)
	return nil
}

// Admin is a back-office account allowed to manage catalog content.
type Admin struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username         string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password         string    `gorm:"not null" json:"-"`
	CurrentTokenHash *string   `gorm:"size:64" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (a *Admin) BeforeCreate(_ *gorm.DB) error {
	a.ID = newID(a.ID)
	return nil
}
