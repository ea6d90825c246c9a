package user

import (
	"context"
	"fmt"
	"io"
	"laptopVision/domain"
	"laptopVision/internal/repository/cloudinary"
	redisrepo "laptopVision/internal/repository/redis"
	"laptopVision/pkg/apperr"
	"laptopVision/pkg/logger"
	"laptopVision/pkg/metrics"
	"laptopVision/pkg/utils"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindBlocked(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id uint, token string) error
	SetBlocked(ctx context.Context, id uint, blocked bool) error
	UpdateProfilePic(ctx context.Context, id uint, url string) error
	Delete(ctx context.Context, id uint) error
}

// VerificationCodeRepository contract interface
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	Find(ctx context.Context, email, code string) (domain.VerificationCode, error)
	Delete(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendEmail(toName, toEmail, subject, htmlBody string) error
}

// TokenRepository contract interface (refresh-token store)
type TokenRepository interface {
	StoreToken(ctx context.Context, userID string, data redisrepo.RefreshTokenData, ttl time.Duration) error
	ValidateToken(ctx context.Context, token string) (string, error)
	DeleteToken(ctx context.Context, userID string) error
}

// ImageRepository contract interface
type ImageRepository interface {
	Upload(ctx context.Context, filename string, file io.Reader, subFolder string) (cloudinary.UploadResult, error)
}

const (
	verificationCodeTTL = 15 * time.Minute

	SubjectAccountCode   = "LaptopVision Account Creation Code"
	SubjectPasswordReset = "Code for Password Reset"

	emailBodyAccountCode   = `<h2>Email Verification</h2><p>Thank you for signing up for <strong>LaptopVision</strong>! Use the verification code below:</p><div style="font-size:24px;font-weight:bold">%v</div><p>Do not share this code with anyone. It expires in %v minutes.</p>`
	emailBodyPasswordReset = `<h2>Your password reset code is: <b>%v</b></h2><p>It expires in %v minutes.</p>`
)

// AuthResult bundles what a successful register/login hands back.
type AuthResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         domain.User `json:"user"`
}

type userService struct {
	userRepo  UserRepository
	codeRepo  VerificationCodeRepository
	notifRepo NotificationRepository
	tokenRepo TokenRepository
	imageRepo ImageRepository
	validate  *validator.Validate
}

func NewUserService(
	userRepo UserRepository,
	codeRepo VerificationCodeRepository,
	notifRepo NotificationRepository,
	tokenRepo TokenRepository,
	imageRepo ImageRepository,
	validate *validator.Validate,
) *userService {
	return &userService{
		userRepo:  userRepo,
		codeRepo:  codeRepo,
		notifRepo: notifRepo,
		tokenRepo: tokenRepo,
		imageRepo: imageRepo,
		validate:  validate,
	}
}

func newVerificationCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// SendVerificationCode mails a 6-digit one-time code for account creation.
// Unlike order-flow notifications this email is the whole point of the call,
// so a delivery failure is surfaced.
func (s *userService) SendVerificationCode(ctx context.Context, email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperr.InvalidInput("invalid email format")
	}

	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing.ID > 0 {
		return apperr.Conflict("user already exists")
	}

	// Opportunistic cleanup of stale codes.
	_ = s.codeRepo.DeleteExpired(ctx, time.Now())

	code := newVerificationCode()
	ttlMinutes := int(verificationCodeTTL.Minutes())

	body := fmt.Sprintf(emailBodyAccountCode, code, ttlMinutes)
	if err := s.notifRepo.SendEmail("", email, SubjectAccountCode, body); err != nil {
		logger.Error("Failed to send verification code email", err)
		metrics.EmailSendFailures.Inc()
		return apperr.Upstream("failed to send verification email", err)
	}

	return s.codeRepo.Create(ctx, &domain.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(verificationCodeTTL),
	})
}

// consumeCode validates and burns a one-time code. Expired rows are deleted
// on sight.
func (s *userService) consumeCode(ctx context.Context, email, code string) error {
	stored, err := s.codeRepo.Find(ctx, email, code)
	if err != nil {
		return apperr.InvalidInput("invalid or expired code")
	}

	if stored.Expired(time.Now()) {
		_ = s.codeRepo.Delete(ctx, stored.ID)
		return apperr.InvalidInput("code expired")
	}

	return s.codeRepo.Delete(ctx, stored.ID)
}

type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	VerificationCode string
}

func (s *userService) Register(ctx context.Context, input RegisterInput, ipAddress, userAgent string) (AuthResult, error) {
	if err := s.validate.Var(input.Email, "required,email"); err != nil {
		return AuthResult{}, apperr.InvalidInput("invalid email format")
	}

	if err := s.validate.Var(input.Password, "required,min=6"); err != nil {
		return AuthResult{}, apperr.InvalidInput("password must be at least 6 characters")
	}

	if input.Name == "" || input.VerificationCode == "" {
		return AuthResult{}, apperr.InvalidInput("all fields are required")
	}

	if existing, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil && existing.ID > 0 {
		return AuthResult{}, apperr.Conflict("email already exists")
	}

	if err := s.consumeCode(ctx, input.Email, input.VerificationCode); err != nil {
		return AuthResult{}, err
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return AuthResult{}, err
	}

	newUser := domain.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: passwordHash,
		Role:     domain.RoleUser,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", err)
		return AuthResult{}, err
	}

	return s.issueTokens(ctx, newUser, ipAddress, userAgent)
}

func (s *userService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, apperr.NotFound("user not found")
	}

	if user.IsBlocked {
		return AuthResult{}, apperr.Unauthorized("your account is blocked")
	}

	if !utils.CheckPassword(password, user.Password) {
		return AuthResult{}, apperr.Unauthorized("password does not match")
	}

	return s.issueTokens(ctx, user, ipAddress, userAgent)
}

// issueTokens mints the access/refresh pair and persists the refresh token on
// the user row plus the redis lookup.
func (s *userService) issueTokens(ctx context.Context, user domain.User, ipAddress, userAgent string) (AuthResult, error) {
	userIDStr := strconv.FormatUint(uint64(user.ID), 10)

	accessToken, err := utils.GenerateJWT(userIDStr, user.Role)
	if err != nil {
		logger.Error("Failed to generate access token", err)
		return AuthResult{}, err
	}

	refreshToken, err := utils.GenerateRefreshJWT(userIDStr, user.Role)
	if err != nil {
		logger.Error("Failed to generate refresh token", err)
		return AuthResult{}, err
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		logger.Error("Failed to persist refresh token", err)
		return AuthResult{}, err
	}

	now := time.Now()
	err = s.tokenRepo.StoreToken(ctx, userIDStr, redisrepo.RefreshTokenData{
		UserID:    userIDStr,
		Role:      user.Role,
		Token:     refreshToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(utils.RefreshTokenTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}, utils.RefreshTokenTTL)
	if err != nil {
		logger.Warn("Failed to store refresh token in redis", err)
	}

	return AuthResult{
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         user.Sanitized(),
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new access token.
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (string, domain.User, error) {
	claims, err := utils.ParseJWT(refreshToken)
	if err != nil {
		return "", domain.User{}, apperr.Unauthorized("invalid refresh token")
	}

	storedUserID, err := s.tokenRepo.ValidateToken(ctx, refreshToken)
	if err != nil || storedUserID != claims.UserID {
		return "", domain.User{}, apperr.Unauthorized("invalid refresh token")
	}

	userID, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return "", domain.User{}, apperr.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, uint(userID))
	if err != nil || user.RefreshToken != refreshToken {
		return "", domain.User{}, apperr.Unauthorized("invalid refresh token")
	}

	if user.IsBlocked {
		return "", domain.User{}, apperr.Unauthorized("your account is blocked")
	}

	newAccessToken, err := utils.GenerateJWT(claims.UserID, user.Role)
	if err != nil {
		logger.Error("Failed to generate access token", err)
		return "", domain.User{}, err
	}

	return newAccessToken, user.Sanitized(), nil
}

func (s *userService) Logout(ctx context.Context, userID uint) error {
	userIDStr := strconv.FormatUint(uint64(userID), 10)
	if err := s.tokenRepo.DeleteToken(ctx, userIDStr); err != nil {
		logger.Warn("Failed to delete refresh token from redis", err)
	}

	return s.userRepo.UpdateRefreshToken(ctx, userID, "")
}

func (s *userService) Profile(ctx context.Context, userID uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, apperr.NotFound("user not found")
	}

	return user.Sanitized(), nil
}

type UpdateProfileInput struct {
	Name      string
	Address   string
	Age       int
	BirthDate *time.Time
	Gender    string
	Phone     string
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (domain.User, error) {
	if input.Name == "" {
		return domain.User{}, apperr.InvalidInput("name is required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, apperr.NotFound("user not found")
	}

	user.Name = input.Name
	user.Address = input.Address
	user.Age = input.Age
	user.BirthDate = input.BirthDate
	user.Gender = input.Gender
	user.Phone = input.Phone

	if err := s.userRepo.Update(ctx, &user); err != nil {
		logger.Error("Failed to update profile", err)
		return domain.User{}, err
	}

	return user.Sanitized(), nil
}

func (s *userService) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if err := s.validate.Var(newPassword, "required,min=6"); err != nil {
		return apperr.InvalidInput("password must be at least 6 characters")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperr.NotFound("user not found")
	}

	if !utils.CheckPassword(oldPassword, user.Password) {
		return apperr.Unauthorized("incorrect old password")
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return err
	}

	return s.userRepo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *userService) UpdateProfilePicture(ctx context.Context, userID uint, filename string, file io.Reader) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, apperr.NotFound("user not found")
	}

	result, err := s.imageRepo.Upload(ctx, filename, file, "userPhoto")
	if err != nil {
		logger.Error("Failed to upload profile picture", err)
		return domain.User{}, apperr.Upstream("image upload failed", err)
	}

	if err := s.userRepo.UpdateProfilePic(ctx, userID, result.SecureURL); err != nil {
		return domain.User{}, err
	}

	user.ProfilePic = result.SecureURL
	return user.Sanitized(), nil
}

// ForgotPasswordCode mails a reset code to an existing account.
func (s *userService) ForgotPasswordCode(ctx context.Context, email string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		return apperr.NotFound("no user found with this email")
	}

	code := newVerificationCode()
	ttlMinutes := int(verificationCodeTTL.Minutes())

	body := fmt.Sprintf(emailBodyPasswordReset, code, ttlMinutes)
	if err := s.notifRepo.SendEmail("", email, SubjectPasswordReset, body); err != nil {
		logger.Error("Failed to send password reset email", err)
		metrics.EmailSendFailures.Inc()
		return apperr.Upstream("failed to send reset email", err)
	}

	return s.codeRepo.Create(ctx, &domain.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(verificationCodeTTL),
	})
}

func (s *userService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" || newPassword == "" {
		return apperr.InvalidInput("all fields are required")
	}

	if err := s.validate.Var(newPassword, "required,min=6"); err != nil {
		return apperr.InvalidInput("password must be at least 6 characters")
	}

	if err := s.consumeCode(ctx, email, code); err != nil {
		return err
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return err
	}

	return s.userRepo.UpdatePasswordByEmail(ctx, email, passwordHash)
}

// DeleteUser hard-removes an account. Admin only; enforced by the router.
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return apperr.NotFound("user not found")
	}

	return s.userRepo.Delete(ctx, id)
}

func (s *userService) BlockUser(ctx context.Context, id uint) (domain.User, error) {
	if err := s.userRepo.SetBlocked(ctx, id, true); err != nil {
		return domain.User{}, apperr.NotFound("user not found")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	return user.Sanitized(), nil
}

func (s *userService) UnblockUser(ctx context.Context, id uint) (domain.User, error) {
	if err := s.userRepo.SetBlocked(ctx, id, false); err != nil {
		return domain.User{}, apperr.NotFound("user not found")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	return user.Sanitized(), nil
}

func (s *userService) ListBlockedUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindBlocked(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		users[i] = users[i].Sanitized()
	}

	return users, nil
}
