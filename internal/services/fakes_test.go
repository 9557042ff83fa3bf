package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"trekhub_backend/internal/models"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"

	"github.com/stretchr/testify/mock"
)

type memoryOtpStore struct {
	mu      sync.Mutex
	records map[string]models.OtpRecord
}

func newMemoryOtpStore() *memoryOtpStore {
	return &memoryOtpStore{records: make(map[string]models.OtpRecord)}
}

func (s *memoryOtpStore) SaveOtp(_ context.Context, record *models.OtpRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	cp.Code = ""
	s.records[record.Subject] = cp
	return nil
}

func (s *memoryOtpStore) FindOtp(_ context.Context, subject string) (*models.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[subject]
	if !ok {
		return nil, repositories.ErrOtpNotFound
	}
	return &r, nil
}

func (s *memoryOtpStore) UpdateOtp(_ context.Context, record *models.OtpRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[record.Subject]
	if !ok || r.CodeHash != record.CodeHash {
		return repositories.ErrOtpNotFound
	}
	r.Consumed = record.Consumed
	r.Attempts = record.Attempts
	s.records[record.Subject] = r
	return nil
}

func (s *memoryOtpStore) DeleteOtp(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, subject)
	return nil
}

func (s *memoryOtpStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, r := range s.records {
		if r.Consumed || now.Add(-repositories.OtpRetention).After(r.ExpiresAt) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

type recordingQueue struct {
	mu        sync.Mutex
	envelopes []dto.Envelope
	err       error
}

func (q *recordingQueue) Enqueue(_ context.Context, env dto.Envelope) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.envelopes = append(q.envelopes, env)
	return nil
}

func (q *recordingQueue) all() []dto.Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]dto.Envelope, len(q.envelopes))
	copy(out, q.envelopes)
	return out
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memoryBookingRepo эмулирует условную запись по (version, status)
type memoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	history  map[string][]models.BookingTransition
	// beforeApply вызывается перед проверкой версии, имитирует конкурирующую запись
	beforeApply func(stored *models.Booking)
}

func newMemoryBookingRepo() *memoryBookingRepo {
	return &memoryBookingRepo{
		bookings: make(map[string]models.Booking),
		history:  make(map[string][]models.BookingTransition),
	}
}

func (r *memoryBookingRepo) put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.Version == 0 {
		b.Version = 1
	}
	r.bookings[b.ID] = b
}

func (r *memoryBookingRepo) CreateBooking(_ context.Context, booking *models.Booking, initial *models.BookingTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID == "" {
		booking.ID = "booking-" + strconv.Itoa(len(r.bookings)+1)
	}
	initial.BookingID = booking.ID
	r.bookings[booking.ID] = *booking
	r.history[booking.ID] = append(r.history[booking.ID], *initial)
	return nil
}

func (r *memoryBookingRepo) FindBookingByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repositories.ErrBookingNotFound
	}
	return &b, nil
}

func (r *memoryBookingRepo) ApplyTransition(_ context.Context, booking *models.Booking, to models.PaymentStatus, transition *models.BookingTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.bookings[booking.ID]
	if r.beforeApply != nil {
		r.beforeApply(&stored)
		r.bookings[booking.ID] = stored
	}
	if stored.Version != booking.Version || stored.Status != booking.Status {
		return repositories.ErrStaleBooking
	}

	stored.Status = to
	stored.Version++
	if to == models.PaymentStatusCompleted {
		at := transition.OccurredAt
		stored.CompletedAt = &at
	}
	r.bookings[booking.ID] = stored

	transition.BookingID = booking.ID
	r.history[booking.ID] = append(r.history[booking.ID], *transition)

	booking.Status = stored.Status
	booking.Version = stored.Version
	booking.CompletedAt = stored.CompletedAt
	return nil
}

func (r *memoryBookingRepo) FindHistory(_ context.Context, bookingID string) ([]models.BookingTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.BookingTransition(nil), r.history[bookingID]...), nil
}

func (r *memoryBookingRepo) FindReviewableByPayer(_ context.Context, payerID string, completedAfter time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.PayerID == payerID && isReviewable(b.Status) && b.CompletedAt != nil && b.CompletedAt.After(completedAfter) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memoryBookingRepo) FindReviewableCompletedBetween(_ context.Context, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if isReviewable(b.Status) && b.CompletedAt != nil && b.CompletedAt.After(from) && !b.CompletedAt.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *mockEventRepo) SearchEvents(ctx context.Context, query string, limit int) ([]models.Event, error) {
	args := m.Called(ctx, query, limit)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

type memoryReviewRepo struct {
	mu      sync.Mutex
	reviews []models.Review
	votes   map[string]map[string]bool
}

func newMemoryReviewRepo() *memoryReviewRepo {
	return &memoryReviewRepo{votes: make(map[string]map[string]bool)}
}

func (r *memoryReviewRepo) CreateReview(_ context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.BookingID == review.BookingID {
			return repositories.ErrReviewAlreadyExists
		}
	}
	if review.ID == "" {
		review.ID = "review-" + strconv.Itoa(len(r.reviews)+1)
	}
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *memoryReviewRepo) FindReviewByID(_ context.Context, id string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ID == id {
			return &rv, nil
		}
	}
	return nil, repositories.ErrReviewNotFound
}

func (r *memoryReviewRepo) filter(keep func(models.Review) bool, limit, offset int) ([]models.Review, int64) {
	var matched []models.Review
	for _, rv := range r.reviews {
		if keep(rv) {
			matched = append(matched, rv)
		}
	}
	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total
}

func (r *memoryReviewRepo) FindReviewsByEvent(_ context.Context, eventID string, status models.ReviewStatus, limit, offset int) ([]models.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, total := r.filter(func(rv models.Review) bool { return rv.EventID == eventID && rv.Status == status }, limit, offset)
	return out, total, nil
}

func (r *memoryReviewRepo) FindReviewsByStatus(_ context.Context, status models.ReviewStatus, limit, offset int) ([]models.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, total := r.filter(func(rv models.Review) bool { return rv.Status == status }, limit, offset)
	return out, total, nil
}

func (r *memoryReviewRepo) ReviewedBookingIDs(_ context.Context, bookingIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range bookingIDs {
		for _, rv := range r.reviews {
			if rv.BookingID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (r *memoryReviewRepo) FindHelpfulVotes(_ context.Context, voterID string, reviewIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range reviewIDs {
		if r.votes[id][voterID] {
			out[id] = true
		}
	}
	return out, nil
}

func (r *memoryReviewRepo) AddHelpfulVote(_ context.Context, reviewID, voterID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.votes[reviewID] == nil {
		r.votes[reviewID] = make(map[string]bool)
	}
	if r.votes[reviewID][voterID] {
		return false, nil
	}
	r.votes[reviewID][voterID] = true
	for i := range r.reviews {
		if r.reviews[i].ID == reviewID {
			r.reviews[i].HelpfulCount++
		}
	}
	return true, nil
}

func (r *memoryReviewRepo) UpdateReviewStatus(_ context.Context, id string, from, to models.ReviewStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.reviews {
		if r.reviews[i].ID == id {
			if r.reviews[i].Status != from {
				return repositories.ErrReviewStatusChanged
			}
			r.reviews[i].Status = to
			r.reviews[i].ModeratedAt = &at
			return nil
		}
	}
	return repositories.ErrReviewStatusChanged
}
