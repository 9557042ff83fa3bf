package services

import (
	"context"
	"errors"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/models"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"
)

type ReviewService interface {
	SubmitReview(ctx context.Context, viewerID string, req *dto.SubmitReviewRequest) (*dto.ReviewDTO, error)
	ListEventReviews(ctx context.Context, viewerID, eventID string, page dto.PageRequest) (*dto.PaginatedResponse[dto.ReviewDTO], error)
	MarkHelpful(ctx context.Context, viewerID, reviewID string) (*dto.ReviewDTO, error)
	ListPendingReviews(ctx context.Context, viewerID string, page dto.PageRequest) (*dto.PaginatedResponse[dto.PendingReviewDTO], error)

	// Moderation
	ListModerationQueue(ctx context.Context, page dto.PageRequest) (*dto.PaginatedResponse[dto.ReviewDTO], error)
	ModerateReview(ctx context.Context, reviewID string, approve bool) (*dto.ReviewDTO, error)
}

type reviewService struct {
	reviewRepo  repositories.ReviewRepository
	bookingRepo repositories.BookingRepository
	tracker     *ReviewExpiryTracker
	now         func() time.Time
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	bookingRepo repositories.BookingRepository,
	tracker *ReviewExpiryTracker,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		tracker:     tracker,
		now:         time.Now,
	}
}

// ---------------- Reviews ----------------

func (s *reviewService) SubmitReview(ctx context.Context, viewerID string, req *dto.SubmitReviewRequest) (*dto.ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.ValidationError(map[string]string{"rating": "Must be between 1 and 5"})
	}

	booking, err := s.bookingRepo.FindBookingByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, apperrors.ErrNotFound(err, "review", "Booking")
		}
		return nil, apperrors.InternalError(err)
	}
	// чужое бронирование выглядит как несуществующее
	if booking.PayerID != viewerID {
		return nil, apperrors.ErrNotFound(repositories.ErrBookingNotFound, "review", "Booking")
	}
	if !s.tracker.Eligible(booking) {
		return nil, apperrors.ErrReviewWindowClosed
	}

	review := &models.Review{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		AuthorID:  viewerID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Status:    models.ReviewStatusPending,
	}
	if err := s.reviewRepo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repositories.ErrReviewAlreadyExists) {
			return nil, apperrors.ErrReviewAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Review submitted", "review_id", review.ID, "booking_id", booking.ID)
	return toReviewDTO(review, false, true), nil
}

func (s *reviewService) ListEventReviews(ctx context.Context, viewerID, eventID string, page dto.PageRequest) (*dto.PaginatedResponse[dto.ReviewDTO], error) {
	page = page.Normalize()
	reviews, total, err := s.reviewRepo.FindReviewsByEvent(ctx, eventID, models.ReviewStatusApproved, page.Size, page.Offset())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	votes, err := s.reviewRepo.FindHelpfulVotes(ctx, viewerID, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.ReviewDTO, 0, len(reviews))
	for i := range reviews {
		items = append(items, *toReviewDTO(&reviews[i], votes[reviews[i].ID], false))
	}

	resp := dto.PageOf(page.Index0(), page.Size, total, items)
	return &resp, nil
}

// MarkHelpful идемпотентен для одного зрителя: повторная отметка не меняет счетчик
func (s *reviewService) MarkHelpful(ctx context.Context, viewerID, reviewID string) (*dto.ReviewDTO, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status != models.ReviewStatusApproved {
		return nil, apperrors.ErrNotFound(repositories.ErrReviewNotFound, "review", "Review")
	}
	if review.AuthorID == viewerID {
		return nil, apperrors.ErrInvalidOperation("review", "Cannot mark your own review as helpful")
	}

	added, err := s.reviewRepo.AddHelpfulVote(ctx, reviewID, viewerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if added {
		review.HelpfulCount++
	}

	logger.CtxDebug(ctx, "Helpful vote", "review_id", reviewID, "added", added)
	return toReviewDTO(review, true, false), nil
}

func (s *reviewService) ListPendingReviews(ctx context.Context, viewerID string, page dto.PageRequest) (*dto.PaginatedResponse[dto.PendingReviewDTO], error) {
	bookings, err := s.bookingRepo.FindReviewableByPayer(ctx, viewerID, s.tracker.OpenSince())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	reviewed, err := s.reviewRepo.ReviewedBookingIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := dto.PageSlice(page, s.tracker.Pending(bookings, reviewed))
	return &resp, nil
}

// ---------------- Moderation ----------------

func (s *reviewService) ListModerationQueue(ctx context.Context, page dto.PageRequest) (*dto.PaginatedResponse[dto.ReviewDTO], error) {
	page = page.Normalize()
	reviews, total, err := s.reviewRepo.FindReviewsByStatus(ctx, models.ReviewStatusPending, page.Size, page.Offset())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.ReviewDTO, 0, len(reviews))
	for i := range reviews {
		items = append(items, *toReviewDTO(&reviews[i], false, true))
	}
	resp := dto.PageOf(page.Index0(), page.Size, total, items)
	return &resp, nil
}

// ModerateReview допускает только pending -> approved | rejected
func (s *reviewService) ModerateReview(ctx context.Context, reviewID string, approve bool) (*dto.ReviewDTO, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status != models.ReviewStatusPending {
		return nil, apperrors.ErrInvalidModerationStatus
	}

	target := models.ReviewStatusRejected
	if approve {
		target = models.ReviewStatusApproved
	}
	now := s.now()
	if err := s.reviewRepo.UpdateReviewStatus(ctx, reviewID, models.ReviewStatusPending, target, now); err != nil {
		if errors.Is(err, repositories.ErrReviewStatusChanged) {
			return nil, apperrors.ErrInvalidModerationStatus
		}
		return nil, apperrors.InternalError(err)
	}
	review.Status = target
	review.ModeratedAt = &now

	logger.CtxInfo(ctx, "Review moderated", "review_id", reviewID, "status", target)
	return toReviewDTO(review, false, true), nil
}

func (s *reviewService) findReview(ctx context.Context, reviewID string) (*models.Review, error) {
	review, err := s.reviewRepo.FindReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrReviewNotFound) {
			return nil, apperrors.ErrNotFound(err, "review", "Review")
		}
		return nil, apperrors.InternalError(err)
	}
	return review, nil
}

func toReviewDTO(r *models.Review, isHelpful, withStatus bool) *dto.ReviewDTO {
	out := &dto.ReviewDTO{
		ID:           r.ID,
		EventID:      r.EventID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt,
		HelpfulCount: r.HelpfulCount,
		IsHelpful:    isHelpful,
	}
	if withStatus {
		out.Status = string(r.Status)
	}
	return out
}
