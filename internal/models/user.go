// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account together with its OTP state.
// OTP codes are either "" or six digits; expiries are epoch milliseconds and 0 when cleared.
type User struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Name              string    `gorm:"not null" json:"name" bson:"name"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	Password          string    `gorm:"not null" json:"-" bson:"password"`
	IsAccountVerified bool      `gorm:"not null;default:false" json:"isAccountVerified" bson:"isAccountVerified"`
	VerifyOTP         string    `gorm:"column:verify_otp;not null;default:''" json:"-" bson:"verifyOtp"`
	VerifyOTPExpireAt int64     `gorm:"column:verify_otp_expire_at;not null;default:0" json:"verifyOtpExpireAt" bson:"verifyOtpExpireAt"`
	ResetOTP          string    `gorm:"column:reset_otp;not null;default:''" json:"-" bson:"resetOtp"`
	ResetOTPExpireAt  int64     `gorm:"column:reset_otp_expire_at;not null;default:0" json:"resetOtpExpireAt" bson:"resetOtpExpireAt"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Public is the projection returned by register and login.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// PublicUser is the id/name/email projection of a user.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserData is the projection served by /api/user/data.
type UserData struct {
	Name              string `json:"name"`
	IsAccountVerified bool   `json:"isAccountVerified"`
}

// UserRef is the author projection hydrated into posts and comments.
type UserRef struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// TableName maps the projection onto the users table.
func (UserRef) TableName() string { return "users" }
