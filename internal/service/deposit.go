package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/payment"
	"toolrent-backend/internal/repository"
)

// depositService runs the deposit automation: renters save a payment method
// through a setup intent, a reminder goes out before the rental starts and
// the deposit is charged off-session shortly before pickup. The sweeps are
// driven by the scheduler; each one re-reads eligibility from the database so
// a missed run is caught by the next one.
type depositService struct {
	bookingRepo repository.BookingRepository
	jobRepo     repository.DepositJobRepository
	toolRepo    repository.ToolRepository
	userRepo    repository.UserRepository
	txm         repository.TxManager
	gateway     payment.Gateway
	emailSvc    EmailService
	notifier    AdminNotifier
	params      PlatformParams
}

func NewDepositService(
	bookingRepo repository.BookingRepository,
	jobRepo repository.DepositJobRepository,
	toolRepo repository.ToolRepository,
	userRepo repository.UserRepository,
	txm repository.TxManager,
	gateway payment.Gateway,
	emailSvc EmailService,
	notifier AdminNotifier,
	params PlatformParams,
) DepositService {
	return &depositService{
		bookingRepo: bookingRepo,
		jobRepo:     jobRepo,
		toolRepo:    toolRepo,
		userRepo:    userRepo,
		txm:         txm,
		gateway:     gateway,
		emailSvc:    emailSvc,
		notifier:    notifier,
		params:      params,
	}
}

// depositCents sizes the deposit hold as a share of the booking total.
func (s *depositService) depositCents(b *domain.Booking) int64 {
	return shareCents(b.TotalPriceCents, s.params.DepositBps)
}

func (s *depositService) StartSetup(ctx context.Context, bookingID string) (*payment.SetupIntent, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending && booking.Status != domain.BookingStatusAccepted {
		return nil, domain.NewConflictError("booking %s is %s, deposit setup is closed", booking.ID, booking.Status)
	}

	renter, err := s.userRepo.GetByID(ctx, booking.RenterID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.gateway.CreateOrGetCustomer(ctx, renter.Email, renter.Name)
	if err != nil {
		return nil, domain.NewExternalServiceError("payment gateway", fmt.Errorf("create customer: %w", err))
	}

	intent, err := s.gateway.CreateSetupIntent(ctx, customerID, booking.ID)
	if err != nil {
		return nil, domain.NewExternalServiceError("payment gateway", fmt.Errorf("create setup intent: %w", err))
	}

	booking.SetupIntentID = intent.ID
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	logger.Info("Deposit setup started",
		"booking_id", booking.ID, "setup_intent_id", intent.ID, "customer_id", customerID)
	return intent, nil
}

func (s *depositService) ConfirmSetup(ctx context.Context, bookingID, setupIntentID string) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.SetupIntentID == "" || booking.SetupIntentID != setupIntentID {
		return domain.NewValidationError("setup intent does not belong to this booking")
	}

	conf, err := s.gateway.ConfirmSetupIntent(ctx, setupIntentID)
	if err != nil {
		return domain.NewExternalServiceError("payment gateway", fmt.Errorf("confirm setup intent: %w", err))
	}
	if !conf.Success || conf.PaymentMethodID == "" {
		return domain.NewValidationError("setup intent is not confirmed yet")
	}

	renter, err := s.userRepo.GetByID(ctx, booking.RenterID)
	if err != nil {
		return err
	}
	customerID, err := s.gateway.CreateOrGetCustomer(ctx, renter.Email, renter.Name)
	if err != nil {
		return domain.NewExternalServiceError("payment gateway", fmt.Errorf("create customer: %w", err))
	}

	toolName := booking.ToolID
	if tool, terr := s.toolRepo.GetByID(ctx, booking.ToolID); terr == nil {
		toolName = tool.Name
	}

	pickup := booking.PickupInstant().UTC()
	captureAt := pickup.Add(-s.params.CaptureOffset)
	notifyAt := pickup.Add(-s.params.NotifyOffset)

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		booking.DepositPaymentMethodID = conf.PaymentMethodID
		booking.DepositCaptureStatus = domain.DepositCapturePending
		booking.DepositCaptureScheduledAt = &captureAt
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return err
		}

		meta := map[string]string{
			domain.DepositMetaAmountCents: strconv.FormatInt(s.depositCents(booking), 10),
			domain.DepositMetaCurrency:    s.params.Currency,
			domain.DepositMetaRenterEmail: renter.Email,
			domain.DepositMetaToolName:    toolName,
			domain.DepositMetaCustomerID:  customerID,
			domain.DepositMetaNotifyAt:    notifyAt.Format(time.RFC3339),
			domain.DepositMetaCaptureAt:   captureAt.Format(time.RFC3339),
		}

		// One live job per booking: reuse the existing row on re-confirmation.
		job, jerr := s.jobRepo.GetByBookingID(ctx, booking.ID)
		if jerr != nil {
			if !domain.IsNotFound(jerr) {
				return jerr
			}
			return s.jobRepo.Create(ctx, &domain.DepositCaptureJob{
				ID:          uuid.NewString(),
				BookingID:   booking.ID,
				ScheduledAt: captureAt,
				Status:      domain.DepositJobScheduled,
				Metadata:    meta,
			})
		}
		if domain.IsTerminalDepositJob(job.Status) {
			return domain.NewConflictError("deposit for booking %s is already settled", booking.ID)
		}
		job.ScheduledAt = captureAt
		job.Status = domain.DepositJobScheduled
		job.RetryCount = 0
		job.LastError = ""
		job.Metadata = meta
		return s.jobRepo.Update(ctx, job)
	})
}

func (s *depositService) RunNotificationSweep(ctx context.Context, now time.Time) (int, error) {
	horizon := now.Add(s.params.NotifyOffset)
	due, err := s.bookingRepo.ListDepositNotificationDue(ctx, horizon)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		booking := &due[i]
		if err := s.notifyDeposit(ctx, booking, now); err != nil {
			logger.Error("Deposit reminder failed",
				"booking_id", booking.ID, "error", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		logger.Info("Deposit notification sweep finished", "reminders_sent", sent, "due", len(due))
	}
	return sent, nil
}

func (s *depositService) notifyDeposit(ctx context.Context, booking *domain.Booking, now time.Time) error {
	job, err := s.jobRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return err
	}

	email := job.Metadata[domain.DepositMetaRenterEmail]
	toolName := job.Metadata[domain.DepositMetaToolName]
	if email == "" {
		renter, uerr := s.userRepo.GetByID(ctx, booking.RenterID)
		if uerr != nil {
			return uerr
		}
		email = renter.Email
	}

	captureAt := booking.PickupInstant().UTC().Add(-s.params.CaptureOffset)
	if err := s.emailSvc.SendDepositReminder(ctx, email, toolName, s.depositCents(booking), captureAt); err != nil {
		return err
	}

	ts := now.UTC()
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		booking.DepositNotificationSentAt = &ts
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return err
		}
		job.NotificationSentAt = &ts
		job.Status = domain.DepositJobNotificationSent
		return s.jobRepo.Update(ctx, job)
	})
}

func (s *depositService) RunCaptureSweep(ctx context.Context, now time.Time) (int, error) {
	horizon := now.Add(s.params.CaptureOffset)
	due, err := s.bookingRepo.ListDepositCaptureDue(ctx, horizon)
	if err != nil {
		return 0, err
	}

	captured := 0
	for i := range due {
		booking := &due[i]
		if err := s.captureDeposit(ctx, booking, now); err != nil {
			logger.Error("Deposit capture failed",
				"booking_id", booking.ID, "error", err)
			continue
		}
		captured++
	}
	if len(due) > 0 {
		logger.Info("Deposit capture sweep finished", "captured", captured, "due", len(due))
	}
	return captured, nil
}

func (s *depositService) captureDeposit(ctx context.Context, booking *domain.Booking, now time.Time) error {
	job, err := s.jobRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return err
	}

	customerID := job.Metadata[domain.DepositMetaCustomerID]
	if customerID == "" {
		renter, uerr := s.userRepo.GetByID(ctx, booking.RenterID)
		if uerr != nil {
			return uerr
		}
		customerID, uerr = s.gateway.CreateOrGetCustomer(ctx, renter.Email, renter.Name)
		if uerr != nil {
			return domain.NewExternalServiceError("payment gateway", fmt.Errorf("create customer: %w", uerr))
		}
	}

	job.Status = domain.DepositJobCapturing
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return err
	}

	amount := s.depositCents(booking)
	desc := fmt.Sprintf("Security deposit for booking %s", booking.ID)
	intent, chargeErr := s.gateway.ChargeOffSession(ctx, customerID, booking.DepositPaymentMethodID, amount, s.params.Currency, desc)

	ts := now.UTC()
	job.CaptureAttemptedAt = &ts

	if chargeErr != nil {
		return s.recordCaptureFailure(ctx, booking, job, chargeErr)
	}

	if job.Metadata == nil {
		job.Metadata = map[string]string{}
	}
	job.Metadata[domain.DepositMetaChargeIntentID] = intent.ID

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		booking.DepositCaptureStatus = domain.DepositCaptureSuccess
		booking.DepositCapturedAt = &ts
		booking.DepositFailureReason = ""
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return err
		}
		job.Status = domain.DepositJobSuccess
		job.LastError = ""
		return s.jobRepo.Update(ctx, job)
	})
	if err != nil {
		return err
	}

	logger.Info("Deposit captured",
		"booking_id", booking.ID, "amount_cents", amount, "charge_intent_id", intent.ID)

	if email := job.Metadata[domain.DepositMetaRenterEmail]; email != "" {
		if merr := s.emailSvc.SendDepositCaptured(ctx, email, job.Metadata[domain.DepositMetaToolName], amount); merr != nil {
			logger.Warn("Deposit captured email failed", "booking_id", booking.ID, "error", merr)
		}
	}
	return nil
}

// recordCaptureFailure marks the attempt failed but keeps the booking and job
// eligible for the next sweep. There is no retry cap; after the warn
// threshold every further failure raises an admin alert.
func (s *depositService) recordCaptureFailure(ctx context.Context, booking *domain.Booking, job *domain.DepositCaptureJob, cause error) error {
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		booking.DepositCaptureStatus = domain.DepositCaptureFailed
		booking.DepositFailureReason = cause.Error()
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return err
		}
		job.Status = domain.DepositJobFailed
		job.RetryCount++
		job.LastError = cause.Error()
		return s.jobRepo.Update(ctx, job)
	})
	if err != nil {
		return err
	}

	logger.Warn("Deposit charge declined",
		"booking_id", booking.ID, "retry_count", job.RetryCount, "error", cause)

	// The renter hears about every declined charge; only the admin alert is
	// gated behind the warn threshold.
	if email := job.Metadata[domain.DepositMetaRenterEmail]; email != "" {
		if merr := s.emailSvc.SendDepositFailed(ctx, email, job.Metadata[domain.DepositMetaToolName], cause.Error()); merr != nil {
			logger.Warn("Deposit failed email failed", "booking_id", booking.ID, "error", merr)
		}
	}

	if job.RetryCount >= s.params.RetryWarnAfter {
		if aerr := s.notifier.Alert(ctx,
			"Deposit capture keeps failing",
			fmt.Sprintf("Booking %s: %d failed deposit charge attempts, last error: %s", booking.ID, job.RetryCount, cause.Error()),
			"DEPOSIT_CAPTURE_FAILED",
			domain.NotificationPriorityHigh,
			"deposits"); aerr != nil {
			logger.Warn("Admin alert failed", "booking_id", booking.ID, "error", aerr)
		}
	}
	return cause
}

func (s *depositService) PurgeJobs(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.params.JobRetention)
	removed, err := s.jobRepo.DeleteTerminalOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("Purged settled deposit jobs", "rows", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func (s *depositService) RefundDeposit(ctx context.Context, bookingID, adminID string) (string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.DepositCaptureStatus != domain.DepositCaptureSuccess {
		return "", domain.NewConflictError("deposit for booking %s is %s, nothing to refund", booking.ID, booking.DepositCaptureStatus)
	}

	job, err := s.jobRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return "", err
	}
	intentID := job.Metadata[domain.DepositMetaChargeIntentID]
	if intentID == "" {
		return "", domain.NewValidationError(fmt.Sprintf("deposit job for booking %s carries no charge reference", booking.ID))
	}

	res, err := s.gateway.CreateRefund(ctx, intentID, 0)
	if err != nil {
		return "", domain.NewExternalServiceError("payment gateway", fmt.Errorf("refund deposit: %w", err))
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		booking.DepositCaptureStatus = domain.DepositCaptureCancelled
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return err
		}
		job.Status = domain.DepositJobCancelled
		return s.jobRepo.Update(ctx, job)
	})
	if err != nil {
		return "", err
	}

	logger.Info("Deposit refunded",
		"booking_id", booking.ID, "gateway_refund_id", res.ID, "processed_by", adminID)
	return res.ID, nil
}
