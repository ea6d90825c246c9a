package rest

import (
	"context"
	"encoding/json"
	"laptopVision/business/product"
	"laptopVision/domain"
	"laptopVision/internal/repository/postgres"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsonres "laptopVision/pkg/response"

	"github.com/AMFarhan21/fres"

	"github.com/labstack/echo/v4"
)

type ProductService interface {
	CreateProduct(ctx context.Context, input product.ProductInput, files []product.ImageFile) (domain.Product, error)
	GetProduct(ctx context.Context, id uint) (domain.Product, error)
	ListProducts(ctx context.Context, params postgres.ProductListParams) (product.ListResult, error)
	UpdateProduct(ctx context.Context, id uint, input product.ProductInput, files []product.ImageFile, removePublicIDs []string) (domain.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type ProductHandler struct {
	productService ProductService
	timeout        time.Duration
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		timeout:        30 * time.Second,
	}
}

// productInputFromForm reads the multipart fields shared by create and
// update. Specs arrive as a JSON-encoded string field.
func productInputFromForm(c echo.Context) (product.ProductInput, error) {
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return product.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	var discountPrice float64
	if v := c.FormValue("discount_price"); v != "" {
		discountPrice, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return product.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid discount price")
		}
	}

	var stock int
	if v := c.FormValue("stock"); v != "" {
		stock, err = strconv.Atoi(v)
		if err != nil {
			return product.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid stock")
		}
	}

	var specs domain.ProductSpecs
	if v := c.FormValue("specs"); v != "" {
		if err := json.Unmarshal([]byte(v), &specs); err != nil {
			return product.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid specs json")
		}
	}

	return product.ProductInput{
		Title:         c.FormValue("title"),
		Category:      c.FormValue("category"),
		Brand:         c.FormValue("brand"),
		Model:         c.FormValue("model"),
		Description:   c.FormValue("description"),
		Price:         price,
		DiscountPrice: discountPrice,
		Specs:         specs,
		Stock:         stock,
	}, nil
}

// imageFilesFromForm opens every uploaded "images" file. The returned closer
// releases them once the service is done.
func imageFilesFromForm(c echo.Context) ([]product.ImageFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No files attached is fine.
		return nil, func() {}, nil
	}

	headers := form.File["images"]
	files := make([]product.ImageFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))

	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, src)
		files = append(files, product.ImageFile{
			Filename: header.Filename,
			Reader:   src,
		})
	}

	return files, closeAll, nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	input, err := productInputFromForm(c)
	if err != nil {
		return err
	}

	files, closeFiles, err := imageFilesFromForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "cannot read uploaded files", nil))
	}
	defer closeFiles()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.productService.CreateProduct(ctx, input, files)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid product id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	found, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(found))
}

// ListProducts supports ?page, ?limit, ?search, ?categories (comma separated),
// ?sort (title|created_at) and ?order (asc|desc).
func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	var categories []string
	if raw := c.QueryParam("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				categories = append(categories, cat)
			}
		}
	}

	params := postgres.ProductListParams{
		Page:       page,
		Limit:      limit,
		Search:     c.QueryParam("search"),
		Categories: categories,
		SortField:  c.QueryParam("sort"),
		SortDesc:   strings.EqualFold(c.QueryParam("order"), "desc"),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.productService.ListProducts(ctx, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid product id", nil))
	}

	input, err := productInputFromForm(c)
	if err != nil {
		return err
	}

	files, closeFiles, err := imageFilesFromForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "cannot read uploaded files", nil))
	}
	defer closeFiles()

	var removeIDs []string
	if raw := c.FormValue("remove_public_ids"); raw != "" {
		for _, pid := range strings.Split(raw, ",") {
			if pid = strings.TrimSpace(pid); pid != "" {
				removeIDs = append(removeIDs, pid)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.productService.UpdateProduct(ctx, id, input, files, removeIDs)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid product id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.DeleteProduct(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Product deleted successfully"))
}
