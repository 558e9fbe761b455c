package service

import (
	"context"
	"errors"
	"fmt"

	bookingerrors "corealign/internal/bookings/errors"
	"corealign/internal/bookings/repository"
	"corealign/pkg/config"
	"corealign/pkg/model"
	"corealign/pkg/timegrid"
)

// ErrTimeClaimed reports that another class type in the exclusive group
// already holds part of the requested time range. Retryable by the
// customer: pick another time.
var ErrTimeClaimed = errors.New("time range already claimed by another class type")

// LockManager owns the exclusivity bucket protocol. It guarantees that
// two class types sharing an exclusive key never both hold confirmed
// bookings overlapping in time on one date, without capping either
// class type's seat capacity.
//
// Buckets are acquired one at a time in increasing order and rolled
// back on the first foreign-owned bucket. This keeps the conflict
// window small but is not a two-phase commit: a crash between an insert
// and the rollback can leak buckets until the next release scan for
// that key/date sweeps them. Accepted trade-off; the rest of the
// system does not rely on tighter guarantees.
type LockManager struct {
	locks    repository.ExclusiveLockRepository
	bookings repository.BookingRepository
	cfg      *config.Config
}

func NewLockManager(locks repository.ExclusiveLockRepository, bookings repository.BookingRepository, cfg *config.Config) *LockManager {
	return &LockManager{
		locks:    locks,
		bookings: bookings,
		cfg:      cfg,
	}
}

// Acquire claims every bucket covering [startMin, endMin) for the class
// type and returns the buckets this call inserted. Buckets already
// owned by the same class type (an earlier booking, or a retried
// request) count as held but are not returned: they belong to whoever
// inserted them and must survive this call's rollback.
//
// An empty exclusive key is a no-op success: unlinked class types never
// take locks.
func (m *LockManager) Acquire(ctx context.Context, exclusiveKey, dateKey, classTypeID string, startMin, endMin int) ([]int, error) {
	if exclusiveKey == "" {
		return nil, nil
	}

	buckets := timegrid.Buckets(startMin, endMin)
	inserted := make([]int, 0, len(buckets))

	for _, bucket := range buckets {
		err := m.locks.Insert(ctx, &model.ExclusiveLockBucket{
			ExclusiveKey: exclusiveKey,
			DateKey:      dateKey,
			Bucket:       bucket,
			ClassTypeID:  classTypeID,
		})
		if err == nil {
			inserted = append(inserted, bucket)
			continue
		}

		if !errors.Is(err, bookingerrors.ErrBucketHeld) {
			m.rollback(ctx, exclusiveKey, dateKey, classTypeID, inserted)
			return nil, fmt.Errorf("failed acquiring bucket %d: %w", bucket, err)
		}

		owner, findErr := m.locks.FindOwner(ctx, exclusiveKey, dateKey, bucket)
		if findErr != nil {
			m.rollback(ctx, exclusiveKey, dateKey, classTypeID, inserted)
			return nil, fmt.Errorf("failed checking bucket %d owner: %w", bucket, findErr)
		}
		if owner == classTypeID {
			// Idempotent re-acquire: bucket pre-owned by us.
			continue
		}

		// Foreign owner, or the row vanished between insert and
		// lookup: either way we lost the race and report conflict.
		m.rollback(ctx, exclusiveKey, dateKey, classTypeID, inserted)
		return nil, ErrTimeClaimed
	}

	return inserted, nil
}

// RollbackInserted removes exactly the buckets a prior Acquire call
// inserted. Used by compensation paths (seat race lost, booking persist
// failed). Never touches buckets held from before the call.
func (m *LockManager) RollbackInserted(ctx context.Context, exclusiveKey, dateKey, classTypeID string, inserted []int) error {
	if exclusiveKey == "" || len(inserted) == 0 {
		return nil
	}
	return m.locks.DeleteOwned(ctx, exclusiveKey, dateKey, classTypeID, inserted)
}

func (m *LockManager) rollback(ctx context.Context, exclusiveKey, dateKey, classTypeID string, inserted []int) {
	if err := m.RollbackInserted(ctx, exclusiveKey, dateKey, classTypeID, inserted); err != nil {
		m.cfg.Log.Error("Failed to roll back lock buckets",
			"exclusive_key", exclusiveKey,
			"date_key", dateKey,
			"class_type_id", classTypeID,
			"buckets", inserted,
			"error", err,
		)
	}
}

// Release frees the buckets of [startMin, endMin) that no remaining
// confirmed booking of this class type still covers. Called after a
// booking leaves confirmed (cancellation) or moves away (reassignment);
// the departing booking must already be transitioned/updated so the
// coverage scan no longer counts it. No-shows never release: the class
// happened and the time was genuinely used.
func (m *LockManager) Release(ctx context.Context, exclusiveKey, dateKey, classTypeID string, startMin, endMin int) error {
	if exclusiveKey == "" {
		return nil
	}

	targets := timegrid.Buckets(startMin, endMin)
	if len(targets) == 0 {
		return nil
	}

	remaining, err := m.bookings.FindConfirmedByKeyAndDate(ctx, exclusiveKey, dateKey)
	if err != nil {
		return fmt.Errorf("failed scanning confirmed bookings for release: %w", err)
	}

	covered := make(map[int]bool)
	for _, b := range remaining {
		if b.ClassTypeID != classTypeID {
			continue
		}
		for _, bucket := range timegrid.Buckets(b.StartMin, b.EndMin) {
			covered[bucket] = true
		}
	}

	free := make([]int, 0, len(targets))
	for _, bucket := range targets {
		if !covered[bucket] {
			free = append(free, bucket)
		}
	}
	if len(free) == 0 {
		return nil
	}

	return m.locks.DeleteOwned(ctx, exclusiveKey, dateKey, classTypeID, free)
}
