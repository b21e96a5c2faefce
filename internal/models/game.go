package models

import (
	"time"

	"gorm.io/gorm"
)

// Game is a playable title listed in the catalog.
type Game struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	Rating        float64    `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	Icon          string     `gorm:"size:512" json:"icon,omitempty"`
	Video         string     `gorm:"size:512" json:"video,omitempty"`
	URL           string     `gorm:"column:url;size:512" json:"url,omitempty"`
	PublishStatus bool       `gorm:"not null;default:false;index" json:"publishStatus"`
	IsTrending    bool       `gorm:"not null;default:false;index" json:"isTrending"`
	PlayCount     int64      `gorm:"not null;default:0" json:"playCount"`
	PublishedAt   *time.Time `gorm:"index" json:"publishedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	Categories []Category `gorm:"many2many:game_categories;constraint:OnDelete:CASCADE" json:"categories"`
}

func (g *Game) BeforeCreate(_ *gorm.DB) error {
	g.ID = newID(g.ID)
	return nil
}

// GameCategory links a game to a category.
type GameCategory struct {
	GameID     string    `gorm:"type:varchar(36);primaryKey" json:"gameId"`
	CategoryID string    `gorm:"type:varchar(36);primaryKey;index" json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (GameCategory) TableName() string {
	return "game_categories"
}

// Category groups games for browsing.
type Category struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Icon      string    `gorm:"size:512" json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	c.ID = newID(c.ID)
	return nil
}
