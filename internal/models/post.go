package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a blog post. Only its author may mutate it.
type Post struct {
	ID         string       `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Title      string       `gorm:"not null" json:"title" bson:"title"`
	Content    string       `gorm:"type:text;not null" json:"content" bson:"content"`
	AuthorID   string       `gorm:"type:varchar(36);not null;index" json:"-" bson:"author"`
	Author     *UserRef     `gorm:"foreignKey:AuthorID" json:"author" bson:"-"`
	CategoryID string       `gorm:"type:varchar(36);not null;index" json:"-" bson:"category"`
	Category   *CategoryRef `gorm:"foreignKey:CategoryID" json:"category" bson:"-"`
	Image      string       `gorm:"not null;default:''" json:"image" bson:"image"`
	CreatedAt  time.Time    `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
