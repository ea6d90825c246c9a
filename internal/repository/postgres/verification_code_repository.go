package postgres

import (
	"context"
	"errors"
	"laptopVision/domain"
	"time"

	"gorm.io/gorm"
)

type VerificationCodeRepository struct {
	DB *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{
		DB: db,
	}
}

func (r *VerificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	return r.DB.WithContext(ctx).Create(code).Error
}

// Find returns the stored code row for an email/code pair, expired or not.
// Expiry is the caller's decision so an expired row can be deleted and
// reported distinctly.
func (r *VerificationCodeRepository) Find(ctx context.Context, email, code string) (domain.VerificationCode, error) {
	var vc domain.VerificationCode

	err := r.DB.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		Order("created_at DESC").
		First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VerificationCode{}, errors.New("verification code not found")
		}
		return domain.VerificationCode{}, err
	}

	return vc, nil
}

func (r *VerificationCodeRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&domain.VerificationCode{}, id).Error
}

// DeleteExpired clears stale rows; called opportunistically.
func (r *VerificationCodeRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.VerificationCode{}).Error
}
