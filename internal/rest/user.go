package rest

import (
	"context"
	"io"
	"laptopVision/business/user"
	"laptopVision/domain"
	"laptopVision/pkg/logger"
	"net/http"
	"strconv"
	"time"

	jsonres "laptopVision/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	SendVerificationCode(ctx context.Context, email string) error
	Register(ctx context.Context, input user.RegisterInput, ipAddress, userAgent string) (user.AuthResult, error)
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (user.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, domain.User, error)
	Logout(ctx context.Context, userID uint) error
	Profile(ctx context.Context, userID uint) (domain.User, error)
	UpdateProfile(ctx context.Context, userID uint, input user.UpdateProfileInput) (domain.User, error)
	UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	UpdateProfilePicture(ctx context.Context, userID uint, filename string, file io.Reader) (domain.User, error)
	ForgotPasswordCode(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	DeleteUser(ctx context.Context, id uint) error
	BlockUser(ctx context.Context, id uint) (domain.User, error)
	UnblockUser(ctx context.Context, id uint) (domain.User, error)
	ListBlockedUsers(ctx context.Context) ([]domain.User, error)
}

type UserHandler struct {
	userService UserService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RegisterRequest struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6"`
	VerificationCode string `json:"verification_code" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateProfileRequest struct {
	Name      string     `json:"name" validate:"required"`
	Address   string     `json:"address,omitempty"`
	Age       int        `json:"age,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	Phone     string     `json:"phone,omitempty"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *UserHandler) SendVerificationCode(c echo.Context) error {
	var req SendCodeRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.SendVerificationCode(ctx, req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Verification code sent to your email", nil))
}

func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.userService.Register(ctx, user.RegisterInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		VerificationCode: req.VerificationCode,
	}, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		logger.Error("Failed to register user", err)
		return err
	}

	return c.JSON(http.StatusCreated, jsonres.OK("Registration successful", result))
}

func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.userService.Login(ctx, req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Login successful", result))
}

func (h *UserHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	token, refreshed, err := h.userService.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Token refreshed", map[string]interface{}{
		"token": token,
		"user":  refreshed,
	}))
}

func (h *UserHandler) Logout(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.Logout(ctx, userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Logged out", nil))
}

func (h *UserHandler) Profile(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, err := h.userService.Profile(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Profile fetched", profile))
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.userService.UpdateProfile(ctx, userID, user.UpdateProfileInput{
		Name:      req.Name,
		Address:   req.Address,
		Age:       req.Age,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Profile updated", updated))
}

func (h *UserHandler) UpdatePassword(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	var req UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.UpdatePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Password updated", nil))
}

// UpdateProfilePicture accepts a multipart form with a single "photo" file.
func (h *UserHandler) UpdateProfilePicture(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "User not authenticated", nil))
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "photo file is required", nil))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "cannot read uploaded file", nil))
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	updated, err := h.userService.UpdateProfilePicture(ctx, userID, fileHeader.Filename, src)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Profile picture updated", updated))
}

func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req SendCodeRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.ForgotPasswordCode(ctx, req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Password reset code sent to your email", nil))
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.ResetPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Password reset successful", nil))
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid user id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.DeleteUser(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("User deleted", nil))
}

func (h *UserHandler) BlockUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid user id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	blocked, err := h.userService.BlockUser(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("User blocked", blocked))
}

func (h *UserHandler) UnblockUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("INVALID_INPUT", "invalid user id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	unblocked, err := h.userService.UnblockUser(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("User unblocked", unblocked))
}

func (h *UserHandler) ListBlockedUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	users, err := h.userService.ListBlockedUsers(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jsonres.OK("Blocked users fetched", users))
}
