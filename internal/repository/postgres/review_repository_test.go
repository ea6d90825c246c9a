package postgres

import (
	"context"
	"testing"

	"laptopVision/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReview(t *testing.T, repo *ReviewRepository, userID, productID uint) domain.Review {
	t.Helper()

	review := domain.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    4,
		Review:    "Solid machine for the price.",
		Images: domain.ReviewImages{
			ImageLinks: []string{"https://img.example.com/r.jpg"},
			PublicIDs:  []string{"reviews/r"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &review))
	return review
}

func TestReviewCreateAndList(t *testing.T) {
	repo := NewReviewRepository(newTestDB(t))
	ctx := context.Background()

	seedReview(t, repo, 1, 10)
	seedReview(t, repo, 1, 11)
	seedReview(t, repo, 2, 10)

	mine, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	forProduct, err := repo.FindByProduct(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, forProduct, 2)
}

func TestReviewUpdateOwnerScoped(t *testing.T) {
	repo := NewReviewRepository(newTestDB(t))
	ctx := context.Background()

	created := seedReview(t, repo, 1, 10)
	created.Rating = 2
	created.Review = "Battery died after a month."

	require.NoError(t, repo.Update(ctx, &created))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Rating)

	// A different user id does not match the update guard.
	stolen := created
	stolen.UserID = 2
	stolen.Rating = 5
	assert.Error(t, repo.Update(ctx, &stolen))
}

func TestReviewDeleteOwnerScoped(t *testing.T) {
	repo := NewReviewRepository(newTestDB(t))
	ctx := context.Background()

	created := seedReview(t, repo, 1, 10)

	assert.Error(t, repo.Delete(ctx, created.ID, 2))

	require.NoError(t, repo.Delete(ctx, created.ID, 1))
	_, err := repo.FindByID(ctx, created.ID)
	assert.Error(t, err)
}
