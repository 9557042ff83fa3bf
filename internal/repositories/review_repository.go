package repositories

import (
	"context"
	"errors"
	"time"

	"trekhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists for this booking")
	ErrReviewStatusChanged = errors.New("review status changed concurrently")
)

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	FindReviewByID(ctx context.Context, id string) (*models.Review, error)
	FindReviewsByEvent(ctx context.Context, eventID string, status models.ReviewStatus, limit, offset int) ([]models.Review, int64, error)
	ReviewedBookingIDs(ctx context.Context, bookingIDs []string) (map[string]bool, error)

	// Helpful votes
	FindHelpfulVotes(ctx context.Context, voterID string, reviewIDs []string) (map[string]bool, error)
	AddHelpfulVote(ctx context.Context, reviewID, voterID string) (bool, error)

	// Moderation
	UpdateReviewStatus(ctx context.Context, id string, from, to models.ReviewStatus, at time.Time) error
	FindReviewsByStatus(ctx context.Context, status models.ReviewStatus, limit, offset int) ([]models.Review, int64, error)
}

type ReviewRepositoryImpl struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &ReviewRepositoryImpl{db: db}
}

func (r *ReviewRepositoryImpl) CreateReview(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Create(review).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrReviewAlreadyExists
	}
	return err
}

func (r *ReviewRepositoryImpl) FindReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) FindReviewsByEvent(ctx context.Context, eventID string, status models.ReviewStatus, limit, offset int) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("event_id = ? AND status = ?", eventID, status)
	return r.paginate(query, limit, offset)
}

func (r *ReviewRepositoryImpl) FindReviewsByStatus(ctx context.Context, status models.ReviewStatus, limit, offset int) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("status = ?", status)
	return r.paginate(query, limit, offset)
}

func (r *ReviewRepositoryImpl) paginate(query *gorm.DB, limit, offset int) ([]models.Review, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := query.Session(&gorm.Session{}).Order("created_at DESC, id ASC").Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

func (r *ReviewRepositoryImpl) ReviewedBookingIDs(ctx context.Context, bookingIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return result, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("booking_id IN ?", bookingIDs).
		Pluck("booking_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *ReviewRepositoryImpl) FindHelpfulVotes(ctx context.Context, voterID string, reviewIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(reviewIDs))
	if voterID == "" || len(reviewIDs) == 0 {
		return result, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).Model(&models.ReviewHelpfulVote{}).
		Where("voter_id = ? AND review_id IN ?", voterID, reviewIDs).
		Pluck("review_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// AddHelpfulVote записывает голос и увеличивает счетчик в одной транзакции.
// Повторный голос того же пользователя ничего не меняет и возвращает false.
func (r *ReviewRepositoryImpl) AddHelpfulVote(ctx context.Context, reviewID, voterID string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote := &models.ReviewHelpfulVote{ReviewID: reviewID, VoterID: voterID}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		added = true
		return tx.Model(&models.Review{}).
			Where("id = ?", reviewID).
			UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1")).Error
	})
	return added, err
}

func (r *ReviewRepositoryImpl) UpdateReviewStatus(ctx context.Context, id string, from, to models.ReviewStatus, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "moderated_at": at, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewStatusChanged
	}
	return nil
}
