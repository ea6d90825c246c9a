package product

import (
	"context"
	"io"
	"laptopVision/domain"
	"laptopVision/internal/repository/cloudinary"
	"laptopVision/internal/repository/postgres"
	"laptopVision/pkg/apperr"
	"laptopVision/pkg/logger"
)

// ProductRepository contract interface
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uint) (domain.Product, error)
	List(ctx context.Context, params postgres.ProductListParams) ([]domain.Product, int64, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uint) error
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

type ProductInput struct {
	Title         string
	Category      string
	Brand         string
	Model         string
	Description   string
	Price         float64
	DiscountPrice float64
	Specs         domain.ProductSpecs
	Stock         int
}

// ListResult carries one page of the catalog plus the total match count so
// clients can render pagination.
type ListResult struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

type ProductService struct {
	productRepo ProductRepository
	imageRepo   ImageRepository
}

func NewProductService(productRepo ProductRepository, imageRepo ImageRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		imageRepo:   imageRepo,
	}
}

func validateProductInput(input ProductInput) error {
	if input.Title == "" || input.Brand == "" {
		return apperr.InvalidInput("title and brand are required")
	}

	if input.Price <= 0 {
		return apperr.InvalidInput("price must be positive")
	}

	if input.Stock < 0 {
		return apperr.InvalidInput("stock cannot be negative")
	}

	return nil
}

// uploadImages pushes each file to the image host. A failure mid-batch cleans
// up whatever already made it up.
func (s *ProductService) uploadImages(ctx context.Context, files []ImageFile) ([]domain.ProductImage, error) {
	images := make([]domain.ProductImage, 0, len(files))
	for _, f := range files {
		result, err := s.imageRepo.Upload(ctx, f.Filename, f.Reader, "products")
		if err != nil {
			for _, img := range images {
				if destroyErr := s.imageRepo.Destroy(ctx, img.PublicID); destroyErr != nil {
					logger.Warn("Failed to clean up uploaded image", "public_id", img.PublicID, "error", destroyErr)
				}
			}
			return nil, apperr.Upstream("image upload failed", err)
		}
		images = append(images, domain.ProductImage{
			URL:      result.SecureURL,
			PublicID: result.PublicID,
		})
	}

	return images, nil
}

// CreateProduct is admin only; enforced by the router.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput, files []ImageFile) (domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return domain.Product{}, err
	}

	images, err := s.uploadImages(ctx, files)
	if err != nil {
		return domain.Product{}, err
	}

	category := input.Category
	if category == "" {
		category = "Other"
	}

	newProduct := domain.Product{
		Title:         input.Title,
		Category:      category,
		Brand:         input.Brand,
		Model:         input.Model,
		Description:   input.Description,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Specs:         input.Specs,
		Images:        images,
		Stock:         input.Stock,
	}

	if err := s.productRepo.Create(ctx, &newProduct); err != nil {
		logger.Error("Failed to create product", err)
		return domain.Product{}, err
	}

	return newProduct, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (domain.Product, error) {
	found, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, apperr.NotFound("product not found")
	}

	return found, nil
}

func (s *ProductService) ListProducts(ctx context.Context, params postgres.ProductListParams) (ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		logger.Error("Failed to list products", err)
		return ListResult{}, err
	}

	return ListResult{
		Products: products,
		Total:    total,
		Page:     params.Page,
		Limit:    params.Limit,
	}, nil
}

// UpdateProduct replaces the mutable fields. New image files are appended to
// the existing set; removing images is done by public id.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input ProductInput, files []ImageFile, removePublicIDs []string) (domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, apperr.NotFound("product not found")
	}

	remove := make(map[string]bool, len(removePublicIDs))
	for _, pid := range removePublicIDs {
		remove[pid] = true
	}

	kept := make([]domain.ProductImage, 0, len(existing.Images))
	for _, img := range existing.Images {
		if remove[img.PublicID] {
			if err := s.imageRepo.Destroy(ctx, img.PublicID); err != nil {
				logger.Warn("Failed to delete product image", "public_id", img.PublicID, "error", err)
			}
			continue
		}
		kept = append(kept, img)
	}

	added, err := s.uploadImages(ctx, files)
	if err != nil {
		return domain.Product{}, err
	}

	existing.Title = input.Title
	if input.Category != "" {
		existing.Category = input.Category
	}
	existing.Brand = input.Brand
	existing.Model = input.Model
	existing.Description = input.Description
	existing.Price = input.Price
	existing.DiscountPrice = input.DiscountPrice
	existing.Specs = input.Specs
	existing.Images = append(kept, added...)
	existing.Stock = input.Stock

	if err := s.productRepo.Update(ctx, &existing); err != nil {
		logger.Error("Failed to update product", err)
		return domain.Product{}, err
	}

	return existing, nil
}

// DeleteProduct removes the row and best-effort deletes the hosted images.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return apperr.NotFound("product not found")
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete product", err)
		return err
	}

	for _, img := range existing.Images {
		if err := s.imageRepo.Destroy(ctx, img.PublicID); err != nil {
			logger.Warn("Failed to delete product image", "public_id", img.PublicID, "error", err)
		}
	}

	return nil
}
