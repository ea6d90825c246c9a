package domain

import "time"

// ProductSpecs is the nested spec block, stored as a JSON column.
type ProductSpecs struct {
	CPU     string   `json:"cpu,omitempty"`
	RAM     string   `json:"ram,omitempty"`
	Storage string   `json:"storage,omitempty"`
	GPU     string   `json:"gpu,omitempty"`
	Display string   `json:"display,omitempty"`
	Battery string   `json:"battery,omitempty"`
	OS      string   `json:"os,omitempty"`
	Ports   []string `json:"ports,omitempty"`
	Others  string   `json:"others,omitempty"`
}

// ProductImage keeps the hosted URL together with the storage public id so
// the image can be removed again later.
type ProductImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Category      string         `gorm:"column:category;not null;default:Other" json:"category"`
	Brand         string         `gorm:"column:brand;not null" json:"brand"`
	Model         string         `gorm:"column:model" json:"model,omitempty"`
	Description   string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Price         float64        `gorm:"column:price;not null" json:"price"`
	DiscountPrice float64        `gorm:"column:discount_price" json:"discount_price,omitempty"`
	Specs         ProductSpecs   `gorm:"column:specs;serializer:json" json:"specs"`
	Images        []ProductImage `gorm:"column:images;serializer:json" json:"images"`
	Stock         int            `gorm:"column:stock;default:0" json:"stock"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
