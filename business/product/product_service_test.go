package product

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"laptopVision/domain"
	"laptopVision/internal/repository/cloudinary"
	"laptopVision/internal/repository/postgres"
	"laptopVision/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductRepo struct {
	products map[uint]*domain.Product
	nextID   uint
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint]*domain.Product), nextID: 1}
}

func (f *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	p.ID = f.nextID
	f.nextID++
	copied := *p
	f.products[p.ID] = &copied
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uint) (domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, errors.New("product not found")
	}
	return *p, nil
}

func (f *fakeProductRepo) List(_ context.Context, params postgres.ProductListParams) ([]domain.Product, int64, error) {
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return errors.New("product not found")
	}
	copied := *p
	f.products[p.ID] = &copied
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.products[id]; !ok {
		return errors.New("product not found")
	}
	delete(f.products, id)
	return nil
}

type fakeImageRepo struct {
	uploads   int
	destroyed []string
	failAfter int // fail uploads once this many succeeded; 0 means never fail
}

func (f *fakeImageRepo) Upload(_ context.Context, filename string, _ io.Reader, subFolder string) (cloudinary.UploadResult, error) {
	if f.failAfter > 0 && f.uploads >= f.failAfter {
		return cloudinary.UploadResult{}, errors.New("upload quota exceeded")
	}
	f.uploads++
	return cloudinary.UploadResult{
		SecureURL: "https://img.example.com/" + subFolder + "/" + filename,
		PublicID:  subFolder + "/" + filename,
	}, nil
}

func (f *fakeImageRepo) Destroy(_ context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func validProductInput() ProductInput {
	return ProductInput{
		Title:    "ThinkPad X1 Carbon",
		Category: "Ultrabook",
		Brand:    "Lenovo",
		Price:    1899,
		Specs:    domain.ProductSpecs{CPU: "Core i7", RAM: "16GB"},
		Stock:    4,
	}
}

func files(names ...string) []ImageFile {
	out := make([]ImageFile, 0, len(names))
	for _, n := range names {
		out = append(out, ImageFile{Filename: n, Reader: strings.NewReader("img")})
	}
	return out
}

func TestCreateProduct(t *testing.T) {
	repo := newFakeProductRepo()
	images := &fakeImageRepo{}
	svc := NewProductService(repo, images)

	created, err := svc.CreateProduct(context.Background(), validProductInput(), files("a.jpg", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad X1 Carbon", created.Title)
	require.Len(t, created.Images, 2)
	assert.Equal(t, "products/a.jpg", created.Images[0].PublicID)
	assert.Equal(t, 2, images.uploads)
}

func TestCreateProductDefaultCategory(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), &fakeImageRepo{})

	input := validProductInput()
	input.Category = ""

	created, err := svc.CreateProduct(context.Background(), input, nil)
	require.NoError(t, err)
	assert.Equal(t, "Other", created.Category)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), &fakeImageRepo{})

	cases := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"missing title", func(in *ProductInput) { in.Title = "" }},
		{"missing brand", func(in *ProductInput) { in.Brand = "" }},
		{"zero price", func(in *ProductInput) { in.Price = 0 }},
		{"negative stock", func(in *ProductInput) { in.Stock = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validProductInput()
			tc.mutate(&input)
			_, err := svc.CreateProduct(context.Background(), input, nil)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestCreateProductUploadFailureCleansUp(t *testing.T) {
	repo := newFakeProductRepo()
	images := &fakeImageRepo{failAfter: 1}
	svc := NewProductService(repo, images)

	_, err := svc.CreateProduct(context.Background(), validProductInput(), files("a.jpg", "b.jpg"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))

	// The upload that made it through is destroyed again.
	assert.Equal(t, []string{"products/a.jpg"}, images.destroyed)
	assert.Empty(t, repo.products)
}

func TestUpdateProductImages(t *testing.T) {
	repo := newFakeProductRepo()
	images := &fakeImageRepo{}
	svc := NewProductService(repo, images)

	created, err := svc.CreateProduct(context.Background(), validProductInput(), files("a.jpg", "b.jpg"))
	require.NoError(t, err)

	input := validProductInput()
	input.Price = 1799

	updated, err := svc.UpdateProduct(context.Background(), created.ID, input, files("c.jpg"), []string{"products/a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 1799.0, updated.Price)

	// a.jpg removed, b.jpg kept, c.jpg appended.
	require.Len(t, updated.Images, 2)
	assert.Equal(t, "products/b.jpg", updated.Images[0].PublicID)
	assert.Equal(t, "products/c.jpg", updated.Images[1].PublicID)
	assert.Contains(t, images.destroyed, "products/a.jpg")
}

func TestDeleteProductDestroysImages(t *testing.T) {
	repo := newFakeProductRepo()
	images := &fakeImageRepo{}
	svc := NewProductService(repo, images)

	created, err := svc.CreateProduct(context.Background(), validProductInput(), files("a.jpg"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(context.Background(), created.ID))
	assert.Contains(t, images.destroyed, "products/a.jpg")

	err = svc.DeleteProduct(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListProductsClampsPaging(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), &fakeImageRepo{})

	result, err := svc.ListProducts(context.Background(), postgres.ProductListParams{Page: -3, Limit: 100000})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
}
