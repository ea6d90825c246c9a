package postgres

import (
	"context"
	"errors"
	"laptopVision/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	DB *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{
		DB: db,
	}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return r.DB.WithContext(ctx).Create(review).Error
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint) (domain.Review, error) {
	var review domain.Review

	err := r.DB.WithContext(ctx).First(&review, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Review{}, errors.New("review not found")
		}
		return domain.Review{}, err
	}

	return review, nil
}

func (r *ReviewRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Review, error) {
	var reviews []domain.Review

	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *ReviewRepository) FindByProduct(ctx context.Context, productID uint) ([]domain.Review, error) {
	var reviews []domain.Review

	err := r.DB.WithContext(ctx).Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	result := r.DB.WithContext(ctx).Model(&domain.Review{}).
		Where("id = ? AND user_id = ?", review.ID, review.UserID).
		Select("rating", "review", "images").
		Updates(review)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("review not found")
	}

	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Review{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("review not found")
	}

	return nil
}
