package domain

import "time"

// ReviewImages mirrors the product image storage: hosted links plus the
// storage public ids needed for later removal.
type ReviewImages struct {
	ImageLinks []string `json:"image_links,omitempty"`
	PublicIDs  []string `json:"public_ids,omitempty"`
}

type Review struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"column:user_id;index;not null" json:"user_id"`
	ProductID uint         `gorm:"column:product_id;index;not null" json:"product_id"`
	Rating    int          `gorm:"column:rating;not null" json:"rating"`
	Review    string       `gorm:"column:review;type:text;not null" json:"review"`
	Images    ReviewImages `gorm:"column:images;serializer:json" json:"images"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}
