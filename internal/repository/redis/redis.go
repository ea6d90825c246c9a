package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshTokenData is what gets stored alongside a refresh token so a stolen
// token can be traced to the session that minted it.
type RefreshTokenData struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// TokenRepository stores one active refresh token per user with a reverse
// lookup from token to user id.
type TokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{
		client: client,
	}
}

func userKey(userID string) string {
	return fmt.Sprintf("refresh:user:%s", userID)
}

func lookupKey(token string) string {
	return fmt.Sprintf("refresh:lookup:%s", token)
}

func (r *TokenRepository) StoreToken(ctx context.Context, userID string, data RefreshTokenData, ttl time.Duration) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	// Drop the previous token's reverse lookup so refresh rotates cleanly.
	if old, err := r.GetTokenData(ctx, userID); err == nil {
		_ = r.client.Del(ctx, lookupKey(old.Token)).Err()
	}

	if err := r.client.Set(ctx, userKey(userID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in redis: %w", err)
	}

	if err := r.client.Set(ctx, lookupKey(data.Token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token lookup: %w", err)
	}

	return nil
}

func (r *TokenRepository) GetTokenData(ctx context.Context, userID string) (*RefreshTokenData, error) {
	val, err := r.client.Get(ctx, userKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.New("token not found")
		}
		return nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	var data RefreshTokenData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	return &data, nil
}

// ValidateToken resolves a refresh token to the user id it belongs to.
func (r *TokenRepository) ValidateToken(ctx context.Context, token string) (string, error) {
	userID, err := r.client.Get(ctx, lookupKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", errors.New("token not found or expired")
		}
		return "", fmt.Errorf("failed to validate token: %w", err)
	}

	return userID, nil
}

// DeleteToken invalidates the user's refresh token (logout).
func (r *TokenRepository) DeleteToken(ctx context.Context, userID string) error {
	data, err := r.GetTokenData(ctx, userID)
	if err == nil {
		_ = r.client.Del(ctx, lookupKey(data.Token)).Err()
	}

	return r.client.Del(ctx, userKey(userID)).Err()
}
