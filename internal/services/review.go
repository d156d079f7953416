package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/internal/events"
	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

const (
	minRating        = 1
	maxRating        = 5
	maxCommentLength = 1000
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Get(ctx context.Context, id int) (types.Review, error)
	ListApprovedByProduct(ctx context.Context, productID int) ([]types.Review, error)
	ListPending(ctx context.Context) ([]types.Review, error)
	SetApproval(ctx context.Context, id int, approved bool) (types.Review, error)
}

// ReviewEvent is the payload published for review events.
type ReviewEvent struct {
	ReviewID  int  `json:"reviewId"`
	ProductID int  `json:"productId"`
	UserID    int  `json:"userId"`
	Rating    int  `json:"rating"`
	Approved  bool `json:"approved"`
}

// EventKey orders events per review.
func (e ReviewEvent) EventKey() string {
	return fmt.Sprintf("review-%d", e.ReviewID)
}

// ReviewService handles review submission and moderation.
type ReviewService struct {
	reviews  ReviewRepository
	products ProductRepository
	events   EventPublisher
}

func NewReviewService(reviews ReviewRepository, products ProductRepository, publisher EventPublisher) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, events: publisher}
}

// Submit stores an unapproved review by a user-table principal.
func (s *ReviewService) Submit(ctx context.Context, p types.Principal, productID, rating int, comment string) (types.Review, error) {
	if p.Source != types.SourceUser {
		return types.Review{}, ErrForbidden
	}
	if rating < minRating || rating > maxRating {
		return types.Review{}, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, minRating, maxRating)
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return types.Review{}, fmt.Errorf("%w: comment is too long", ErrInvalidInput)
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, fmt.Errorf("load product: %w", err)
	}
	if product.Deleted {
		return types.Review{}, ErrNotFound
	}

	review, err := s.reviews.Create(ctx, types.Review{
		ProductID: productID,
		UserID:    p.ID,
		Username:  p.Username,
		Rating:    rating,
		Comment:   comment,
		Approved:  false,
	})
	if err != nil {
		return types.Review{}, fmt.Errorf("create review: %w", err)
	}

	s.publish(ctx, events.TypeReviewSubmitted, review)
	return review, nil
}

// ListApproved returns the reviews shown publicly for a product.
func (s *ReviewService) ListApproved(ctx context.Context, productID int) ([]types.Review, error) {
	return s.reviews.ListApprovedByProduct(ctx, productID)
}

// ListPending returns the moderation queue; admin only.
func (s *ReviewService) ListPending(ctx context.Context, actor types.Principal) ([]types.Review, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.reviews.ListPending(ctx)
}

// SetApproval approves or unapproves a review; admin only.
func (s *ReviewService) SetApproval(ctx context.Context, actor types.Principal, id int, approved bool) (types.Review, error) {
	if !actor.IsAdmin() {
		return types.Review{}, ErrForbidden
	}
	review, err := s.reviews.SetApproval(ctx, id, approved)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, fmt.Errorf("set review approval: %w", err)
	}

	s.publish(ctx, events.TypeReviewModerated, review)
	return review, nil
}

func (s *ReviewService) publish(ctx context.Context, eventType string, review types.Review) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.ChannelReviews, eventType, ReviewEvent{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Approved:  review.Approved,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("review_id", review.ID).Str("event", eventType).Msg("failed to publish review event")
	}
}
