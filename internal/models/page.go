package models

import (
	"time"

	"gorm.io/gorm"
)

// Page is a static content page addressed by slug.
type Page struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Slug          string    `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	HTMLContent   string    `gorm:"column:html_content;type:text;not null" json:"htmlContent"`
	PublishStatus bool      `gorm:"not null;default:false" json:"publishStatus"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p *Page) BeforeCreate(_ *gorm.DB) error {
	p.ID = newID(p.ID)
	return nil
}
