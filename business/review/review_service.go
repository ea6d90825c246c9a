package review

import (
	"context"
	"io"
	"laptopVision/domain"
	"laptopVision/internal/repository/cloudinary"
	"laptopVision/pkg/apperr"
	"laptopVision/pkg/logger"
)

// ReviewRepository contract interface
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id uint) (domain.Review, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Review, error)
	FindByProduct(ctx context.Context, productID uint) ([]domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id, userID uint) error
}

// OrdersRepository contract interface (purchase check)
type OrdersRepository interface {
	ExistsByUserAndProduct(ctx context.Context, userID, productID uint) (bool, error)
}

// ProductRepository contract interface
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Product, error)
}

// ImageRepository contract interface
type ImageRepository interface {
	Upload(ctx context.Context, filename string, file io.Reader, subFolder string) (cloudinary.UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// ImageFile is one uploaded file from a multipart request.
type ImageFile struct {
	Filename string
	Reader   io.Reader
}

type ReviewInput struct {
	ProductID uint
	Rating    int
	Review    string
}

type ReviewService struct {
	reviewRepo  ReviewRepository
	orderRepo   OrdersRepository
	productRepo ProductRepository
	imageRepo   ImageRepository
}

func NewReviewService(reviewRepo ReviewRepository, orderRepo OrdersRepository, productRepo ProductRepository, imageRepo ImageRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		imageRepo:   imageRepo,
	}
}

func validateReviewInput(input ReviewInput) error {
	if input.ProductID == 0 {
		return apperr.InvalidInput("product id is required")
	}

	if input.Rating < 1 || input.Rating > 5 {
		return apperr.InvalidInput("rating must be between 1 and 5")
	}

	if input.Review == "" {
		return apperr.InvalidInput("review text is required")
	}

	return nil
}

func (s *ReviewService) uploadImages(ctx context.Context, files []ImageFile) (domain.ReviewImages, error) {
	var images domain.ReviewImages
	for _, f := range files {
		result, err := s.imageRepo.Upload(ctx, f.Filename, f.Reader, "reviews")
		if err != nil {
			for _, pid := range images.PublicIDs {
				if destroyErr := s.imageRepo.Destroy(ctx, pid); destroyErr != nil {
					logger.Warn("Failed to clean up uploaded image", "public_id", pid, "error", destroyErr)
				}
			}
			return domain.ReviewImages{}, apperr.Upstream("image upload failed", err)
		}
		images.ImageLinks = append(images.ImageLinks, result.SecureURL)
		images.PublicIDs = append(images.PublicIDs, result.PublicID)
	}

	return images, nil
}

// AddReview is purchase gated: the caller must have an order containing the
// product before a review is accepted.
func (s *ReviewService) AddReview(ctx context.Context, userID uint, input ReviewInput, files []ImageFile) (domain.Review, error) {
	if err := validateReviewInput(input); err != nil {
		return domain.Review{}, err
	}

	if _, err := s.productRepo.FindByID(ctx, input.ProductID); err != nil {
		return domain.Review{}, apperr.NotFound("product not found")
	}

	purchased, err := s.orderRepo.ExistsByUserAndProduct(ctx, userID, input.ProductID)
	if err != nil {
		logger.Error("Failed to check purchase history", err)
		return domain.Review{}, err
	}

	if !purchased {
		return domain.Review{}, apperr.Forbidden("you can only review products you have purchased")
	}

	images, err := s.uploadImages(ctx, files)
	if err != nil {
		return domain.Review{}, err
	}

	newReview := domain.Review{
		UserID:    userID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Review:    input.Review,
		Images:    images,
	}

	if err := s.reviewRepo.Create(ctx, &newReview); err != nil {
		logger.Error("Failed to create review", err)
		return domain.Review{}, err
	}

	return newReview, nil
}

// EditReview updates rating and text. Ownership is enforced by the
// conditional repository update.
func (s *ReviewService) EditReview(ctx context.Context, reviewID, userID uint, rating int, text string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, apperr.InvalidInput("rating must be between 1 and 5")
	}

	if text == "" {
		return domain.Review{}, apperr.InvalidInput("review text is required")
	}

	existing, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return domain.Review{}, apperr.NotFound("review not found")
	}

	if existing.UserID != userID {
		return domain.Review{}, apperr.Forbidden("not your review")
	}

	existing.Rating = rating
	existing.Review = text

	if err := s.reviewRepo.Update(ctx, &existing); err != nil {
		logger.Error("Failed to update review", err)
		return domain.Review{}, err
	}

	return existing, nil
}

// RemoveReview deletes the caller's review and best-effort removes its hosted
// images.
func (s *ReviewService) RemoveReview(ctx context.Context, reviewID, userID uint) error {
	existing, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return apperr.NotFound("review not found")
	}

	if existing.UserID != userID {
		return apperr.Forbidden("not your review")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID, userID); err != nil {
		logger.Error("Failed to delete review", err)
		return err
	}

	for _, pid := range existing.Images.PublicIDs {
		if err := s.imageRepo.Destroy(ctx, pid); err != nil {
			logger.Warn("Failed to delete review image", "public_id", pid, "error", err)
		}
	}

	return nil
}

func (s *ReviewService) MyReviews(ctx context.Context, userID uint) ([]domain.Review, error) {
	return s.reviewRepo.FindByUser(ctx, userID)
}

func (s *ReviewService) ProductReviews(ctx context.Context, productID uint) ([]domain.Review, error) {
	return s.reviewRepo.FindByProduct(ctx, productID)
}
