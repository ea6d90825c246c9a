package postgres

import (
	"context"
	"errors"
	"laptopVision/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, errors.New("user not found")
		}
		return domain.User{}, err
	}

	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, errors.New("user not found")
		}
		return domain.User{}, err
	}

	return user, nil
}

func (r *UserRepository) FindBlocked(ctx context.Context) ([]domain.User, error) {
	var users []domain.User

	if err := r.DB.WithContext(ctx).Where("is_blocked = ?", true).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).
		Select("name", "address", "age", "birth_date", "gender", "phone", "profile_pic").
		Updates(user)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("password", passwordHash)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}

	return nil
}

func (r *UserRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	result := r.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).
		Update("password", passwordHash)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}

	return nil
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id uint, token string) error {
	return r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("refresh_token", token).Error
}

func (r *UserRepository) SetBlocked(ctx context.Context, id uint, blocked bool) error {
	result := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("is_blocked", blocked)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}

	return nil
}

func (r *UserRepository) UpdateProfilePic(ctx context.Context, id uint, url string) error {
	result := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Update("profile_pic", url)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.User{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New("user not found or already deleted")
	}

	return nil
}
