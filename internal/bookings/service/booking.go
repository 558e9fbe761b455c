package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	bookingerrors "corealign/internal/bookings/errors"
	"corealign/internal/bookings/repository"
	bookingvalidator "corealign/internal/bookings/validator"
	classtypeerrors "corealign/internal/classtypes/errors"
	classtyperepo "corealign/internal/classtypes/repository"
	sloterrors "corealign/internal/slots/errors"
	slotrepo "corealign/internal/slots/repository"
	"corealign/internal/notify"
	"corealign/pkg/config"
	apperrors "corealign/pkg/errors"
	"corealign/pkg/logger"
	"corealign/pkg/model"
	"corealign/pkg/sanitizer"
	"corealign/pkg/timegrid"
)

// compensationTimeout bounds the detached contexts used to unwind
// partially applied bookings after the caller's context is gone.
const compensationTimeout = 5 * time.Second

var codeSpace = big.NewInt(1_000_000)

// CreateBookingRequest carries the raw customer input for a new booking.
type CreateBookingRequest struct {
	SlotID        string `json:"slot_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// BookingService orchestrates the booking lifecycle. Writes follow a
// fixed order (exclusivity buckets, then seat, then booking document)
// and every failure unwinds the steps that already applied in reverse.
type BookingService interface {
	Create(ctx context.Context, req *CreateBookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	ListBySlot(ctx context.Context, slotID string) ([]*model.Booking, error)
	ListByPhone(ctx context.Context, phone string, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, id string) error
	MarkNoShow(ctx context.Context, id string) error
	Reassign(ctx context.Context, bookingID, newSlotID string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	CancelSlot(ctx context.Context, slotID string) error
	DeleteSlot(ctx context.Context, slotID string) error
	AutoCancelUnderbooked(ctx context.Context, now time.Time) (int, error)
}

type bookingService struct {
	bookings   repository.BookingRepository
	slots      slotrepo.SlotRepository
	classTypes classtyperepo.ClassTypeRepository
	locks      *LockManager
	validator  *bookingvalidator.BookingValidator
	dispatcher *notify.Dispatcher
	cfg        *config.Config
	logger     *logger.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	slots slotrepo.SlotRepository,
	classTypes classtyperepo.ClassTypeRepository,
	locks *LockManager,
	validator *bookingvalidator.BookingValidator,
	dispatcher *notify.Dispatcher,
	cfg *config.Config,
	log *logger.Logger,
) BookingService {
	log.Info("Booking service initialized successfully")
	return &bookingService{
		bookings:   bookings,
		slots:      slots,
		classTypes: classTypes,
		locks:      locks,
		validator:  validator,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     log,
	}
}

// Create books one seat in a slot. Steps, in order: validate input,
// load the slot and its class type, claim exclusivity buckets, reserve
// a seat under the capacity guard, then persist the booking with a
// fresh 6-digit code. A failure at any step rolls back the earlier
// steps before returning.
func (s *bookingService) Create(ctx context.Context, req *CreateBookingRequest) (*model.Booking, error) {
	input := &bookingvalidator.CreateBookingInput{
		SlotID:        sanitizer.TrimAndNormalize(req.SlotID),
		CustomerName:  sanitizer.NormalizeName(req.CustomerName),
		CustomerPhone: sanitizer.NormalizePhone(req.CustomerPhone),
		CustomerEmail: sanitizer.NormalizeEmail(req.CustomerEmail),
	}
	if input.CustomerPhone == "" && req.CustomerPhone != "" {
		return nil, apperrors.Validation("customer_phone is not a valid phone number", nil)
	}
	if err := s.validator.ValidateCreate(input); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	slot, err := s.loadSlot(ctx, input.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Cancelled {
		return nil, apperrors.Conflict("Slot is cancelled")
	}

	classType, err := s.loadClassType(ctx, slot.ClassTypeID)
	if err != nil {
		return nil, err
	}
	if !classType.Active {
		return nil, apperrors.Conflict("Class type is not active")
	}

	inserted, err := s.claimExclusivity(ctx, classType, slot, "")
	if err != nil {
		return nil, err
	}

	updated, err := s.slots.ReserveSeat(ctx, slot.ID, classType.ID, classType.Capacity)
	if err != nil {
		s.compensate(ctx, classType, slot, inserted, false)
		return nil, apperrors.Internal("Failed to reserve seat", err)
	}
	if updated == nil {
		s.compensate(ctx, classType, slot, inserted, false)
		return nil, apperrors.Conflict("Slot is full")
	}

	booking := &model.Booking{
		SlotID:        slot.ID,
		ClassTypeID:   classType.ID,
		ExclusiveKey:  classType.ExclusiveKey,
		DateKey:       slot.DateKey,
		StartMin:      slot.StartMin,
		EndMin:        slot.EndMin,
		Status:        model.BookingConfirmed,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
	}

	if err := s.persistWithCode(ctx, booking); err != nil {
		s.compensate(ctx, classType, slot, inserted, true)
		return nil, err
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"code", booking.Code,
		"slot_id", slot.ID,
		"class_type_id", classType.ID,
	)

	event := notify.EventFor(notify.EventBookingConfirmed, booking)
	event.ClassTypeName = classType.Name
	s.dispatcher.Dispatch(event)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return s.loadBooking(ctx, id)
}

func (s *bookingService) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	code = sanitizer.TrimAndNormalize(code)
	if len(code) != 6 {
		return nil, apperrors.InvalidInput("Booking code must be exactly 6 digits")
	}

	booking, err := s.bookings.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking")
		}
		return nil, apperrors.Internal("Failed to find booking by code", err)
	}
	return booking, nil
}

func (s *bookingService) ListBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	if _, err := s.loadSlot(ctx, slotID); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.FindBySlot(ctx, slotID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings for slot", err)
	}
	return bookings, nil
}

// ListByPhone pages through a customer's booking history. Returns the
// page and the total count for that phone.
func (s *bookingService) ListByPhone(ctx context.Context, phone string, limit int, offset int64) ([]*model.Booking, int64, error) {
	normalized := sanitizer.NormalizePhone(phone)
	if normalized == "" {
		return nil, 0, apperrors.InvalidInput("phone is not a valid phone number")
	}

	total, err := s.bookings.CountByPhone(ctx, normalized)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count bookings for phone", err)
	}

	bookings, err := s.bookings.FindByPhone(ctx, normalized, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list bookings for phone", err)
	}
	return bookings, total, nil
}

// Cancel marks a booking cancelled and releases its seat and
// exclusivity buckets. Cancelling an already cancelled booking is a
// no-op; a no-show booking is terminal and stays that way.
func (s *bookingService) Cancel(ctx context.Context, id string) error {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}

	switch booking.Status {
	case model.BookingCancelled:
		return nil
	case model.BookingNoShow:
		return apperrors.Conflict("No-show bookings cannot be cancelled")
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingConfirmed, model.BookingCancelled); err != nil {
		if errors.Is(err, bookingerrors.ErrStaleStatus) {
			current, lerr := s.loadBooking(ctx, id)
			if lerr == nil && current.Status == model.BookingCancelled {
				return nil
			}
			return apperrors.Conflict("Booking changed status concurrently")
		}
		return apperrors.Internal("Failed to cancel booking", err)
	}

	s.releaseAfterTerminal(ctx, booking)

	s.logger.Info("booking cancelled", "booking_id", booking.ID, "code", booking.Code)
	s.dispatcher.Dispatch(notify.EventFor(notify.EventBookingCancelled, booking))
	return nil
}

// MarkNoShow records that the customer did not attend. The seat and
// exclusivity buckets stay consumed: the slot ran with that seat held.
func (s *bookingService) MarkNoShow(ctx context.Context, id string) error {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}

	switch booking.Status {
	case model.BookingNoShow:
		return nil
	case model.BookingCancelled:
		return apperrors.Conflict("Cancelled bookings cannot be marked as no-show")
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingConfirmed, model.BookingNoShow); err != nil {
		if errors.Is(err, bookingerrors.ErrStaleStatus) {
			current, lerr := s.loadBooking(ctx, id)
			if lerr == nil && current.Status == model.BookingNoShow {
				return nil
			}
			return apperrors.Conflict("Booking changed status concurrently")
		}
		return apperrors.Internal("Failed to mark booking as no-show", err)
	}

	event := notify.EventFor(notify.EventBookingNoShow, booking)
	count, cerr := s.bookings.CountByPhone(ctx, booking.CustomerPhone)
	if cerr != nil {
		s.logger.Warn("failed to count bookings by phone for no-show event",
			"booking_id", booking.ID,
			"error", cerr,
		)
	} else {
		event.FirstTime = count <= 1
	}

	s.logger.Info("booking marked as no-show", "booking_id", booking.ID, "first_time", event.FirstTime)
	s.dispatcher.Dispatch(event)
	return nil
}

// Reassign moves a detached confirmed booking into a new slot. The new
// claim is fully acquired before the old one is released, so the
// customer's time is covered throughout.
func (s *bookingService) Reassign(ctx context.Context, bookingID, newSlotID string) (*model.Booking, error) {
	input := &bookingvalidator.ReassignInput{
		BookingID: sanitizer.TrimAndNormalize(bookingID),
		NewSlotID: sanitizer.TrimAndNormalize(newSlotID),
	}
	if err := s.validator.ValidateReassign(input); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	booking, err := s.loadBooking(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingConfirmed {
		return nil, apperrors.Conflict("Only confirmed bookings can be reassigned")
	}
	if !booking.Detached() {
		return nil, apperrors.Conflict("Booking is still attached to a slot")
	}

	slot, err := s.loadSlot(ctx, input.NewSlotID)
	if err != nil {
		return nil, err
	}
	if slot.Cancelled {
		return nil, apperrors.Conflict("Slot is cancelled")
	}

	classType, err := s.loadClassType(ctx, slot.ClassTypeID)
	if err != nil {
		return nil, err
	}
	if !classType.Active {
		return nil, apperrors.Conflict("Class type is not active")
	}

	old := *booking

	inserted, err := s.claimExclusivity(ctx, classType, slot, booking.ID)
	if err != nil {
		return nil, err
	}

	updated, err := s.slots.ReserveSeat(ctx, slot.ID, classType.ID, classType.Capacity)
	if err != nil {
		s.compensate(ctx, classType, slot, inserted, false)
		return nil, apperrors.Internal("Failed to reserve seat", err)
	}
	if updated == nil {
		s.compensate(ctx, classType, slot, inserted, false)
		return nil, apperrors.Conflict("Slot is full")
	}

	booking.SlotID = slot.ID
	booking.ClassTypeID = classType.ID
	booking.ExclusiveKey = classType.ExclusiveKey
	booking.DateKey = slot.DateKey
	booking.StartMin = slot.StartMin
	booking.EndMin = slot.EndMin

	if err := s.bookings.Reassign(ctx, booking.ID, booking); err != nil {
		s.compensate(ctx, classType, slot, inserted, true)
		if errors.Is(err, bookingerrors.ErrStaleStatus) {
			return nil, apperrors.Conflict("Booking changed status concurrently")
		}
		return nil, apperrors.Internal("Failed to reassign booking", err)
	}

	// The document now carries the new snapshot, so the coverage scan
	// inside Release no longer counts the old one.
	if old.ExclusiveKey != "" {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		if rerr := s.locks.Release(rctx, old.ExclusiveKey, old.DateKey, old.ClassTypeID, old.StartMin, old.EndMin); rerr != nil {
			s.logger.Error("failed to release old claim after reassignment",
				"booking_id", booking.ID,
				"exclusive_key", old.ExclusiveKey,
				"date_key", old.DateKey,
				"error", rerr,
			)
		}
		cancel()
	}

	s.logger.Info("booking reassigned",
		"booking_id", booking.ID,
		"code", booking.Code,
		"slot_id", slot.ID,
	)

	event := notify.EventFor(notify.EventBookingConfirmed, booking)
	event.ClassTypeName = classType.Name
	event.Reason = "reassigned"
	s.dispatcher.Dispatch(event)

	return booking, nil
}

// Delete permanently removes a cancelled booking. Confirmed and
// no-show bookings are history and cannot be purged.
func (s *bookingService) Delete(ctx context.Context, id string) error {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != model.BookingCancelled {
		return apperrors.Conflict("Only cancelled bookings can be deleted")
	}

	if err := s.bookings.Delete(ctx, booking.ID); err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to delete booking", err)
	}

	s.logger.Info("booking deleted", "booking_id", booking.ID, "code", booking.Code)
	return nil
}

// CancelSlot takes a slot out of service and force-cancels its
// confirmed bookings. The slot flips first: once its cancelled flag is
// set the seat guard rejects new reservations, so the confirmed set
// read afterwards is final.
func (s *bookingService) CancelSlot(ctx context.Context, slotID string) error {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return err
	}

	cancelled, err := s.slots.Cancel(ctx, slot.ID)
	if err != nil {
		return apperrors.Internal("Failed to cancel slot", err)
	}
	if !cancelled {
		return nil
	}

	// The cancelled flag is committed; the cascade must finish even if
	// the request aborts, so it runs on a detached context like every
	// other post-terminal release.
	sctx, sweepDone := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer sweepDone()

	confirmed, err := s.bookings.FindConfirmedBySlot(sctx, slot.ID)
	if err != nil {
		return apperrors.Internal("Failed to list bookings of cancelled slot", err)
	}

	for _, b := range confirmed {
		if err := s.bookings.UpdateStatus(sctx, b.ID, model.BookingConfirmed, model.BookingCancelled); err != nil {
			if !errors.Is(err, bookingerrors.ErrStaleStatus) {
				s.logger.Error("failed to cancel booking during slot cancellation",
					"booking_id", b.ID,
					"slot_id", slot.ID,
					"error", err,
				)
			}
			continue
		}

		// Seat counts were zeroed together with the cancelled flag;
		// only lock buckets remain to release.
		if b.ExclusiveKey != "" {
			if rerr := s.locks.Release(sctx, b.ExclusiveKey, b.DateKey, b.ClassTypeID, b.StartMin, b.EndMin); rerr != nil {
				s.logger.Error("failed to release buckets during slot cancellation",
					"booking_id", b.ID,
					"error", rerr,
				)
			}
		}

		event := notify.EventFor(notify.EventSlotCancelled, b)
		event.Reason = "slot cancelled"
		s.dispatcher.Dispatch(event)
	}

	s.logger.Info("slot cancelled", "slot_id", slot.ID, "bookings_cancelled", len(confirmed))
	return nil
}

// DeleteSlot removes a cancelled slot. Confirmed bookings still
// pointing at it are detached rather than lost: they keep their
// snapshot and their lock coverage until an admin reassigns them.
func (s *bookingService) DeleteSlot(ctx context.Context, slotID string) error {
	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if !slot.Cancelled {
		return apperrors.Conflict("Only cancelled slots can be deleted")
	}

	detached, err := s.bookings.DetachConfirmedBySlot(ctx, slot.ID)
	if err != nil {
		return apperrors.Internal("Failed to detach bookings from slot", err)
	}
	if detached > 0 {
		s.logger.Warn("detached confirmed bookings from deleted slot",
			"slot_id", slot.ID,
			"count", detached,
		)
	}

	if err := s.slots.Delete(ctx, slot.ID); err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to delete slot", err)
	}

	s.logger.Info("slot deleted", "slot_id", slot.ID)
	return nil
}

// AutoCancelUnderbooked cancels slots that start within their class
// type's cutoff window and have fewer bookings than the minimum.
// Intended to run periodically; returns how many slots it cancelled.
func (s *bookingService) AutoCancelUnderbooked(ctx context.Context, now time.Time) (int, error) {
	classTypes, err := s.classTypes.FindAll(ctx)
	if err != nil {
		return 0, apperrors.Internal("Failed to list class types", err)
	}

	cancelled := 0
	for _, ct := range classTypes {
		if ct.MinBookings <= 0 || ct.CutoffHours <= 0 {
			continue
		}

		from := s.slotInstant(now)
		to := s.slotInstant(now.Add(time.Duration(ct.CutoffHours) * time.Hour))

		underbooked, err := s.slots.FindUnderbooked(ctx, ct.ID, ct.MinBookings, from, to)
		if err != nil {
			s.logger.Error("underbooked scan failed", "class_type_id", ct.ID, "error", err)
			continue
		}

		for _, slot := range underbooked {
			if err := s.CancelSlot(ctx, slot.ID); err != nil {
				s.logger.Error("auto-cancel failed", "slot_id", slot.ID, "error", err)
				continue
			}
			cancelled++
			s.logger.Info("auto-cancelled underbooked slot",
				"slot_id", slot.ID,
				"class_type_id", ct.ID,
				"booked_count", slot.BookedCount,
				"min_bookings", ct.MinBookings,
			)
		}
	}

	return cancelled, nil
}

// claimExclusivity runs the cheap overlap pre-check against confirmed
// bookings of other class types in the same group, then acquires the
// bucket locks. excludeBookingID keeps a booking being reassigned from
// colliding with its own snapshot in the pre-check.
func (s *bookingService) claimExclusivity(ctx context.Context, ct *model.ClassType, slot *model.Slot, excludeBookingID string) ([]int, error) {
	if ct.ExclusiveKey == "" {
		return nil, nil
	}

	others, err := s.bookings.FindConfirmedByKeyAndDate(ctx, ct.ExclusiveKey, slot.DateKey)
	if err != nil {
		return nil, apperrors.Internal("Failed to check exclusivity conflicts", err)
	}
	for _, b := range others {
		if b.ID == excludeBookingID || b.ClassTypeID == ct.ID {
			continue
		}
		if timegrid.Overlaps(slot.StartMin, slot.EndMin, b.StartMin, b.EndMin) {
			return nil, apperrors.Conflict("Time range is already booked by another class")
		}
	}

	inserted, err := s.locks.Acquire(ctx, ct.ExclusiveKey, slot.DateKey, ct.ID, slot.StartMin, slot.EndMin)
	if err != nil {
		if errors.Is(err, ErrTimeClaimed) {
			return nil, apperrors.Conflict("Time range is already booked by another class")
		}
		return nil, apperrors.Internal("Failed to acquire exclusivity locks", err)
	}
	return inserted, nil
}

// compensate unwinds a partially applied booking in reverse order: the
// seat first when one was reserved, then the lock buckets this attempt
// inserted. It runs on a detached context so an aborted request still
// gets cleaned up.
func (s *bookingService) compensate(ctx context.Context, ct *model.ClassType, slot *model.Slot, inserted []int, releaseSeat bool) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if releaseSeat {
		if err := s.slots.ReleaseSeat(cctx, slot.ID); err != nil {
			s.logger.Error("compensation failed to release seat",
				"slot_id", slot.ID,
				"error", err,
			)
		}
	}
	if len(inserted) > 0 {
		if err := s.locks.RollbackInserted(cctx, ct.ExclusiveKey, slot.DateKey, ct.ID, inserted); err != nil {
			s.logger.Error("compensation failed to roll back lock buckets",
				"exclusive_key", ct.ExclusiveKey,
				"date_key", slot.DateKey,
				"buckets", inserted,
				"error", err,
			)
		}
	}
}

// releaseAfterTerminal frees the seat and lock buckets of a booking
// whose status transition has already committed. Failures are logged
// and leak until an operator reconciles; the terminal status is never
// rolled back.
func (s *bookingService) releaseAfterTerminal(ctx context.Context, b *model.Booking) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if !b.Detached() {
		if err := s.slots.ReleaseSeat(rctx, b.SlotID); err != nil {
			s.logger.Error("failed to release seat after cancellation",
				"booking_id", b.ID,
				"slot_id", b.SlotID,
				"error", err,
			)
		}
	}
	if b.ExclusiveKey != "" {
		if err := s.locks.Release(rctx, b.ExclusiveKey, b.DateKey, b.ClassTypeID, b.StartMin, b.EndMin); err != nil {
			s.logger.Error("failed to release exclusivity buckets after cancellation",
				"booking_id", b.ID,
				"exclusive_key", b.ExclusiveKey,
				"error", err,
			)
		}
	}
}

// persistWithCode inserts the booking, regenerating the code on
// collision up to the configured attempt bound.
func (s *bookingService) persistWithCode(ctx context.Context, booking *model.Booking) error {
	for attempt := 1; attempt <= s.cfg.BookingCodeAttempts; attempt++ {
		code, err := generateBookingCode()
		if err != nil {
			return apperrors.Internal("Failed to generate booking code", err)
		}
		booking.Code = code

		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if errors.Is(err, bookingerrors.ErrCodeTaken) {
			s.logger.Warn("booking code collision, regenerating", "attempt", attempt)
			continue
		}
		return apperrors.Internal("Failed to persist booking", err)
	}
	return apperrors.Internal(
		fmt.Sprintf("Failed to allocate a unique booking code after %d attempts", s.cfg.BookingCodeAttempts),
		bookingerrors.ErrCodeTaken,
	)
}

// generateBookingCode draws a uniform 6-digit code, zero padded.
func generateBookingCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *bookingService) slotInstant(t time.Time) slotrepo.SlotInstant {
	return slotrepo.SlotInstant{
		DateKey: timegrid.DateKey(t, s.cfg.StudioLoc),
		Minute:  timegrid.MinuteOfDay(t, s.cfg.StudioLoc),
	}
}

func (s *bookingService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to load booking", err)
	}
	return booking, nil
}

func (s *bookingService) loadSlot(ctx context.Context, id string) (*model.Slot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Slot", id)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid slot ID format")
		}
		return nil, apperrors.Internal("Failed to load slot", err)
	}
	return slot, nil
}

func (s *bookingService) loadClassType(ctx context.Context, id string) (*model.ClassType, error) {
	classType, err := s.classTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, classtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class type", id)
		}
		if errors.Is(err, classtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid class type ID format")
		}
		return nil, apperrors.Internal("Failed to load class type", err)
	}
	return classType, nil
}
