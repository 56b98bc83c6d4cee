package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCommentLength is the upper bound on trimmed comment content.
const MaxCommentLength = 1000

// Comment is a top-level comment when ParentCommentID is nil, otherwise a reply.
// Replies are only hydrated one level deep.
type Comment struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Content         string    `gorm:"type:text;not null" json:"content" bson:"content"`
	PostID          string    `gorm:"type:varchar(36);not null;index:idx_comments_post_created,priority:1" json:"post" bson:"post"`
	AuthorID        string    `gorm:"type:varchar(36);not null;index" json:"-" bson:"author"`
	Author          *UserRef  `gorm:"foreignKey:AuthorID" json:"author" bson:"-"`
	ParentCommentID *string   `gorm:"type:varchar(36);index" json:"parentComment" bson:"parentComment"`
	Replies         []Comment `gorm:"foreignKey:ParentCommentID" json:"replies,omitempty" bson:"-"`
	IsEdited        bool      `gorm:"not null;default:false" json:"isEdited" bson:"isEdited"`
	CreatedAt       time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsReply reports whether the comment has a parent.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}
