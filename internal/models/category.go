package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups posts. Deleting one leaves posts pointing at it.
type Category struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name" bson:"name"`
	Description string    `gorm:"not null;default:''" json:"description" bson:"description"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CategoryRef is the category projection hydrated into posts.
type CategoryRef struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// TableName maps the projection onto the categories table.
func (CategoryRef) TableName() string { return "categories" }
