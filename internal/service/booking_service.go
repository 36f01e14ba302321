package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lessonhub/settlement-service/internal/models"
	"github.com/lessonhub/settlement-service/internal/payment"
	"github.com/lessonhub/settlement-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Publisher emits settlement events to the platform bus. A nil Publisher
// disables publication; delivery failures are logged, never surfaced.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type CreateBookingInput struct {
	StudentID string
	TutorID   string
	SlotID    string
	Amount    decimal.Decimal
	Currency  string
}

// CreatedBooking pairs the persisted hold with the checkout URL of its
// payment session.
type CreatedBooking struct {
	Booking     *models.Booking
	RedirectURL string
}

type BookingService interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreatedBooking, error)
	GetBooking(ctx context.Context, publicID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, publicID string) (*models.Booking, error)
	// ApplyPaymentUpdate resolves the hold on a provider callback. Replays
	// with the same outcome are idempotent no-ops; a conflicting outcome on
	// a resolved booking returns the current booking with ErrAlreadyResolved.
	ApplyPaymentUpdate(ctx context.Context, publicID string, succeeded bool) (*models.Booking, error)
	// ExpireHolds resolves every timed-out hold. One booking's failure never
	// aborts the sweep; stuck holds are retried on the next run.
	ExpireHolds(ctx context.Context) (int, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	walletSvc   WalletService
	gateway     payment.Gateway
	publisher   Publisher
	holdWindow  time.Duration
}

func NewBookingService(bookingRepo repository.BookingRepository, walletSvc WalletService, gateway payment.Gateway, publisher Publisher, holdWindow time.Duration) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		walletSvc:   walletSvc,
		gateway:     gateway,
		publisher:   publisher,
		holdWindow:  holdWindow,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreatedBooking, error) {
	if input.StudentID == "" || input.TutorID == "" || input.SlotID == "" {
		return nil, fmt.Errorf("%w: student_id, tutor_id and slot_id are required", ErrInvalidInput)
	}
	if err := validateMoney(input.Amount, input.Currency); err != nil {
		return nil, err
	}

	var result *CreatedBooking
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Pre-check for a friendly error; the partial unique index on
		// active slot bookings is the real guard against the race.
		_, err := s.bookingRepo.FindActiveBySlot(ctx, tx, input.SlotID)
		if err == nil {
			return ErrSlotUnavailable
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		expiry := time.Now().Add(s.holdWindow)
		booking := &models.Booking{
			PublicID:      uuid.NewString(),
			StudentID:     input.StudentID,
			TutorID:       input.TutorID,
			SlotID:        input.SlotID,
			Status:        models.StatusHold,
			HoldExpiresAt: &expiry,
			Amount:        input.Amount,
			Currency:      input.Currency,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotUnavailable
			}
			return err
		}

		// A gateway failure rolls the hold back; the slot is not kept
		// reserved for a booking nobody can pay.
		session, err := s.gateway.InitiatePayment(ctx, booking)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}
		booking.PaymentEngine = session.Provider
		booking.PaymentSessionID = session.SessionID
		if err := s.bookingRepo.Save(ctx, tx, booking); err != nil {
			return err
		}

		result = &CreatedBooking{Booking: booking, RedirectURL: session.RedirectURL}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": result.Booking.PublicID,
		"slot_id":    input.SlotID,
		"amount":     input.Amount.String(),
		"currency":   input.Currency,
	}).Info("booking hold created")
	s.publish("booking.created", result.Booking)
	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, publicID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, publicID string) (*models.Booking, error) {
	var booking *models.Booking
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookingRepo.FindByPublicIDForUpdate(ctx, tx, publicID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		booking = b
		if b.Status.Resolved() {
			return ErrAlreadyResolved
		}
		if _, err := s.bookingRepo.ResolveHold(ctx, tx, b.ID, models.StatusCancelled); err != nil {
			return err
		}
		b.Status = models.StatusCancelled
		b.HoldExpiresAt = nil
		return nil
	})
	if err != nil {
		return booking, err
	}

	s.cancelUpstream(ctx, booking)
	logrus.WithField("booking_id", booking.PublicID).Info("booking cancelled")
	s.publish("booking.cancelled", booking)
	return booking, nil
}

func (s *bookingService) ApplyPaymentUpdate(ctx context.Context, publicID string, succeeded bool) (*models.Booking, error) {
	var booking *models.Booking
	var replayed bool
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookingRepo.FindByPublicIDForUpdate(ctx, tx, publicID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		booking = b

		if b.Status.Resolved() {
			// Provider callbacks are delivered at least once. A replay
			// carrying the outcome the booking already has is a no-op;
			// anything else is a genuine state conflict.
			if (succeeded && b.Status == models.StatusConfirmed) ||
				(!succeeded && b.Status == models.StatusCancelled) {
				replayed = true
				return nil
			}
			return ErrAlreadyResolved
		}

		target := models.StatusConfirmed
		if !succeeded {
			target = models.StatusCancelled
		}
		if _, err := s.bookingRepo.ResolveHold(ctx, tx, b.ID, target); err != nil {
			return err
		}
		b.Status = target
		b.HoldExpiresAt = nil

		if succeeded {
			// Settlement credit rides the same transaction as the
			// status flip, so a confirmed booking without its credit
			// (or the reverse) can never be persisted. The booking id
			// in the reference keys the ledger row to its booking.
			_, err := s.walletSvc.CreditSaleTx(ctx, tx, b.TutorID, b.Amount, b.Currency,
				"booking:"+b.PublicID, "lesson settlement")
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return booking, err
	}
	if replayed {
		return booking, nil
	}

	if booking.Status == models.StatusConfirmed {
		logrus.WithFields(logrus.Fields{
			"booking_id": booking.PublicID,
			"tutor_id":   booking.TutorID,
			"amount":     booking.Amount.String(),
			"currency":   booking.Currency,
		}).Info("booking confirmed and settled")
		s.publish("booking.confirmed", booking)
	} else {
		logrus.WithField("booking_id", booking.PublicID).Info("booking cancelled on failed payment")
		s.publish("booking.cancelled", booking)
	}
	return booking, nil
}

func (s *bookingService) ExpireHolds(ctx context.Context) (int, error) {
	holds, err := s.bookingRepo.FindExpiredHolds(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("scan expired holds: %w", err)
	}

	expired := 0
	for i := range holds {
		b := &holds[i]
		var resolved bool
		err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := s.bookingRepo.ResolveHold(ctx, tx, b.ID, models.StatusExpired)
			resolved = ok
			return err
		})
		if err != nil {
			// Leave the booking in hold; the next sweep retries it.
			logrus.WithFields(logrus.Fields{
				"booking_id": b.PublicID,
				"error":      err.Error(),
			}).Error("failed to expire hold")
			continue
		}
		if !resolved {
			// Lost the race against a concurrent cancel or payment.
			continue
		}
		expired++
		b.Status = models.StatusExpired
		b.HoldExpiresAt = nil
		s.cancelUpstream(ctx, b)
		s.publish("booking.expired", b)
	}

	if expired > 0 {
		logrus.WithField("count", expired).Info("expired timed-out holds")
	}
	return expired, nil
}

// cancelUpstream tells the provider to drop the checkout session. Best
// effort only: local state is authoritative and already committed.
func (s *bookingService) cancelUpstream(ctx context.Context, b *models.Booking) {
	if b.PaymentSessionID == "" {
		return
	}
	if err := s.gateway.CancelPayment(ctx, b.PaymentSessionID); err != nil {
		logrus.WithFields(logrus.Fields{
			"booking_id": b.PublicID,
			"session_id": b.PaymentSessionID,
			"error":      err.Error(),
		}).Warn("upstream payment cancel failed")
	}
}

func (s *bookingService) publish(routingKey string, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, booking); err != nil {
		logrus.WithFields(logrus.Fields{
			"routing_key": routingKey,
			"booking_id":  booking.PublicID,
			"error":       err.Error(),
		}).Warn("failed to publish settlement event")
	}
}
