package rest

import (
	"context"
	"laptopVision/business/review"
	"laptopVision/domain"
	"net/http"
	"strconv"
	"time"

	jsonres "laptopVision/pkg/response"

	"github.com/AMFarhan21/fres"

	"github.com/labstack/echo/v4"
)

type ReviewService interface {
	AddReview(ctx context.Context, userID uint, input review.ReviewInput, files []review.ImageFile) (domain.Review, error)
	EditReview(ctx context.Context, reviewID, userID uint, rating int, text string) (domain.Review, error)
	RemoveReview(ctx context.Context, reviewID, userID uint) error
	MyReviews(ctx context.Context, userID uint) ([]domain.Review, error)
	ProductReviews(ctx context.Context, productID uint) ([]domain.Review, error)
}

type ReviewHandler struct {
	reviewService ReviewService
	timeout       time.Duration
}

func NewReviewHandler(reviewService ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		timeout:       30 * time.Second,
	}
}

type EditReviewRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// AddReview accepts a multipart form: product_id, rating, review plus
// optional "images" files.
func (h *ReviewHandler) AddReview(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	productID, err := strconv.ParseUint(c.FormValue("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid product id", nil))
	}

	rating, err := strconv.Atoi(c.FormValue("rating"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid rating", nil))
	}

	var files []review.ImageFile
	if form, err := c.MultipartForm(); err == nil {
		for _, header := range form.File["images"] {
			src, err := header.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "cannot read uploaded files", nil))
			}
			defer src.Close()
			files = append(files, review.ImageFile{
				Filename: header.Filename,
				Reader:   src,
			})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.reviewService.AddReview(ctx, userID, review.ReviewInput{
		ProductID: uint(productID),
		Rating:    rating,
		Review:    c.FormValue("review"),
	}, files)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *ReviewHandler) EditReview(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid review id", nil))
	}

	var req EditReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.reviewService.EditReview(ctx, reviewID, userID, req.Rating, req.Review)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *ReviewHandler) RemoveReview(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	reviewID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid review id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.reviewService.RemoveReview(ctx, reviewID, userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("Review deleted successfully"))
}

func (h *ReviewHandler) MyReviews(c echo.Context) error {
	userID, _, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.reviewService.MyReviews(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *ReviewHandler) ProductReviews(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid product id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.reviewService.ProductReviews(ctx, productID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}
