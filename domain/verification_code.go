package domain

import "time"

// VerificationCode is a short-lived one-time code mailed to an address and
// consumed exactly once by registration or password reset.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"column:email;index;not null" json:"email"`
	Code      string    `gorm:"column:code;not null" json:"code"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

func (v VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
