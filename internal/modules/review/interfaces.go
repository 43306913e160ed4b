package review

import (
	"context"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/review"

	"github.com/google/uuid"
)

type Gate interface {
	CreateReview(ctx context.Context, c access.Caller, bookingID uuid.UUID, req review.CreateRequest) (*review.Review, error)
	BookingReviews(ctx context.Context, c access.Caller, bookingID uuid.UUID) ([]review.Review, error)
	PublishReview(ctx context.Context, c access.Caller, reviewID uuid.UUID, published bool) (*review.Review, error)
}

// PublicReviews serves the unauthenticated listing.
type PublicReviews interface {
	ListPublished(ctx context.Context, limit, offset int) ([]review.Review, error)
}
