package postgres

import (
	"context"
	"errors"
	"laptopVision/domain"

	"gorm.io/gorm"
)

// ProductListParams carries the catalog browsing query: pagination, title
// search, category filter and sort order.
type ProductListParams struct {
	Page       int
	Limit      int
	Search     string
	Categories []string
	SortField  string // "title" or "created_at"
	SortDesc   bool
}

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.DB.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (domain.Product, error) {
	var product domain.Product

	err := r.DB.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, errors.New("product not found")
		}
		return domain.Product{}, err
	}

	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]domain.Product, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}

	query := r.DB.WithContext(ctx).Model(&domain.Product{})

	if params.Search != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?)", "%"+params.Search+"%")
	}

	if len(params.Categories) > 0 {
		query = query.Where("category IN ?", params.Categories)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := "created_at"
	if params.SortField == "title" {
		sortField = "title"
	}
	order := sortField
	if params.SortDesc {
		order += " DESC"
	}

	var products []domain.Product
	err := query.Order(order).
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	result := r.DB.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", product.ID).
		Select("title", "category", "brand", "model", "description", "price",
			"discount_price", "specs", "images", "stock").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}

	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.Product{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}

	return nil
}
