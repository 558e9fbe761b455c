package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	bookingerrors "corealign/internal/bookings/errors"
	classtypeerrors "corealign/internal/classtypes/errors"
	sloterrors "corealign/internal/slots/errors"
	slotrepo "corealign/internal/slots/repository"
	"corealign/pkg/config"
	"corealign/pkg/logger"
	"corealign/pkg/model"
)

// In-memory repositories backing the service tests. Each one enforces
// the same atomicity its Mongo counterpart gets from unique indexes
// and conditional updates, just with a mutex.

func testConfig() *config.Config {
	return &config.Config{
		BookingCodeAttempts: 5,
		StudioLoc:           time.UTC,
		Log:                 logger.New(logger.Config{Output: io.Discard}),
	}
}

// --- lock repository ---

type fakeLockRepo struct {
	mu     sync.Mutex
	owners map[string]string

	insertErr error
	failAfter int // fail inserts once this many rows exist, 0 disables
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{owners: make(map[string]string)}
}

func lockRowKey(exclusiveKey, dateKey string, bucket int) string {
	return exclusiveKey + "|" + dateKey + "|" + strconv.Itoa(bucket)
}

func (r *fakeLockRepo) Insert(_ context.Context, lock *model.ExclusiveLockBucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil && (r.failAfter == 0 || len(r.owners) >= r.failAfter) {
		return r.insertErr
	}

	key := lockRowKey(lock.ExclusiveKey, lock.DateKey, lock.Bucket)
	if _, held := r.owners[key]; held {
		return bookingerrors.ErrBucketHeld
	}
	r.owners[key] = lock.ClassTypeID
	return nil
}

func (r *fakeLockRepo) FindOwner(_ context.Context, exclusiveKey, dateKey string, bucket int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners[lockRowKey(exclusiveKey, dateKey, bucket)], nil
}

func (r *fakeLockRepo) DeleteOwned(ctx context.Context, exclusiveKey, dateKey, classTypeID string, buckets []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bucket := range buckets {
		key := lockRowKey(exclusiveKey, dateKey, bucket)
		if r.owners[key] == classTypeID {
			delete(r.owners, key)
		}
	}
	return nil
}

func (r *fakeLockRepo) ownerOf(exclusiveKey, dateKey string, bucket int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners[lockRowKey(exclusiveKey, dateKey, bucket)]
}

func (r *fakeLockRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}

// --- booking repository ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	nextID   int
	bookings map[string]*model.Booking
	codes    map[string]string // code -> booking ID

	createErr     error
	alwaysCollide bool // every insert reports a code collision
	countErr      error
	statusUpdates int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[string]*model.Booking),
		codes:    make(map[string]string),
	}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	if r.alwaysCollide {
		return bookingerrors.ErrCodeTaken
	}
	if _, taken := r.codes[booking.Code]; taken {
		return bookingerrors.ErrCodeTaken
	}

	r.nextID++
	booking.ID = fmt.Sprintf("%024d", r.nextID)
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	copied := *booking
	r.bookings[booking.ID] = &copied
	r.codes[booking.Code] = booking.ID
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) FindByCode(_ context.Context, code string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.codes[code]
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	copied := *r.bookings[id]
	return &copied, nil
}

func (r *fakeBookingRepo) FindBySlot(_ context.Context, slotID string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.SlotID == slotID }), nil
}

func (r *fakeBookingRepo) FindConfirmedBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.filter(func(b *model.Booking) bool {
		return b.SlotID == slotID && b.Status == model.BookingConfirmed
	}), nil
}

func (r *fakeBookingRepo) FindConfirmedByKeyAndDate(_ context.Context, exclusiveKey, dateKey string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.ExclusiveKey == exclusiveKey && b.DateKey == dateKey && b.Status == model.BookingConfirmed
	}), nil
}

func (r *fakeBookingRepo) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out
}

func (r *fakeBookingRepo) FindByPhone(_ context.Context, phone string, limit int, offset int64) ([]*model.Booking, error) {
	all := r.filter(func(b *model.Booking) bool { return b.CustomerPhone == phone })
	if offset >= int64(len(all)) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != fromStatus {
		return bookingerrors.ErrStaleStatus
	}
	b.Status = toStatus
	b.UpdatedAt = time.Now().UTC()
	r.statusUpdates++
	return nil
}

func (r *fakeBookingRepo) Reassign(_ context.Context, id string, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != model.BookingConfirmed || b.SlotID != "" {
		return bookingerrors.ErrStaleStatus
	}
	b.SlotID = booking.SlotID
	b.ClassTypeID = booking.ClassTypeID
	b.ExclusiveKey = booking.ExclusiveKey
	b.DateKey = booking.DateKey
	b.StartMin = booking.StartMin
	b.EndMin = booking.EndMin
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeBookingRepo) DetachConfirmedBySlot(_ context.Context, slotID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.SlotID == slotID && b.Status == model.BookingConfirmed {
			b.SlotID = ""
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) CountByPhone(_ context.Context, phone string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, b := range r.bookings {
		if b.CustomerPhone == phone {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingerrors.ErrNotFound
	}
	delete(r.codes, b.Code)
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) get(id string) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil
	}
	copied := *b
	return &copied
}

func (r *fakeBookingRepo) add(b *model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if b.ID == "" {
		b.ID = fmt.Sprintf("%024d", r.nextID)
	}
	copied := *b
	r.bookings[b.ID] = &copied
	if b.Code != "" {
		r.codes[b.Code] = b.ID
	}
}

// --- slot repository ---

type fakeSlotRepo struct {
	mu     sync.Mutex
	nextID int
	slots  map[string]*model.Slot

	reserveErr error
	cancelHook func() // runs right after a cancel commits
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[string]*model.Slot)}
}

func (r *fakeSlotRepo) add(s *model.Slot) *model.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if s.ID == "" {
		s.ID = fmt.Sprintf("%024d", r.nextID+1000)
	}
	copied := *s
	r.slots[s.ID] = &copied
	return s
}

func (r *fakeSlotRepo) get(id string) *model.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil
	}
	copied := *s
	return &copied
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *model.Slot) error {
	r.add(slot)
	return nil
}

func (r *fakeSlotRepo) FindByID(_ context.Context, id string) (*model.Slot, error) {
	s := r.get(id)
	if s == nil {
		return nil, sloterrors.ErrNotFound
	}
	return s, nil
}

func (r *fakeSlotRepo) FindExact(_ context.Context, classTypeID, dateKey string, startMin, endMin int) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.ClassTypeID == classTypeID && s.DateKey == dateKey && s.StartMin == startMin && s.EndMin == endMin {
			copied := *s
			return &copied, nil
		}
	}
	return nil, sloterrors.ErrNotFound
}

func (r *fakeSlotRepo) FindByDate(_ context.Context, dateKey string) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Slot
	for _, s := range r.slots {
		if s.DateKey == dateKey {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) FindUnderbooked(_ context.Context, classTypeID string, minBookings int, from, to slotrepo.SlotInstant) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Slot
	for _, s := range r.slots {
		if s.ClassTypeID != classTypeID || s.Cancelled || s.BookedCount >= minBookings {
			continue
		}
		afterFrom := s.DateKey > from.DateKey || (s.DateKey == from.DateKey && s.StartMin >= from.Minute)
		beforeTo := s.DateKey < to.DateKey || (s.DateKey == to.DateKey && s.StartMin < to.Minute)
		if afterFrom && beforeTo {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) ReserveSeat(_ context.Context, slotID, classTypeID string, capacity int) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reserveErr != nil {
		return nil, r.reserveErr
	}
	s, ok := r.slots[slotID]
	if !ok || s.ClassTypeID != classTypeID || s.Cancelled || s.BookedCount >= capacity {
		return nil, nil
	}
	s.BookedCount++
	copied := *s
	return &copied, nil
}

func (r *fakeSlotRepo) ReleaseSeat(_ context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if ok && s.BookedCount > 0 {
		s.BookedCount--
	}
	return nil
}

func (r *fakeSlotRepo) Cancel(_ context.Context, slotID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.Cancelled {
		return false, nil
	}
	s.Cancelled = true
	s.BookedCount = 0
	if r.cancelHook != nil {
		r.cancelHook()
	}
	return true, nil
}

func (r *fakeSlotRepo) Delete(_ context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[slotID]; !ok {
		return sloterrors.ErrNotFound
	}
	delete(r.slots, slotID)
	return nil
}

// --- class type repository ---

type fakeClassTypeRepo struct {
	mu         sync.Mutex
	nextID     int
	classTypes map[string]*model.ClassType
}

func newFakeClassTypeRepo() *fakeClassTypeRepo {
	return &fakeClassTypeRepo{classTypes: make(map[string]*model.ClassType)}
}

func (r *fakeClassTypeRepo) add(ct *model.ClassType) *model.ClassType {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if ct.ID == "" {
		ct.ID = fmt.Sprintf("%024d", r.nextID+2000)
	}
	copied := *ct
	r.classTypes[ct.ID] = &copied
	return ct
}

func (r *fakeClassTypeRepo) Create(_ context.Context, ct *model.ClassType) error {
	r.add(ct)
	return nil
}

func (r *fakeClassTypeRepo) FindByID(_ context.Context, id string) (*model.ClassType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ct, ok := r.classTypes[id]
	if !ok {
		return nil, classtypeerrors.ErrNotFound
	}
	copied := *ct
	return &copied, nil
}

func (r *fakeClassTypeRepo) FindAll(_ context.Context) ([]*model.ClassType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ClassType
	for _, ct := range r.classTypes {
		copied := *ct
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeClassTypeRepo) Update(_ context.Context, id string, ct *model.ClassType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classTypes[id]; !ok {
		return classtypeerrors.ErrNotFound
	}
	copied := *ct
	copied.ID = id
	r.classTypes[id] = &copied
	return nil
}

func (r *fakeClassTypeRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ct, ok := r.classTypes[id]
	if !ok {
		return classtypeerrors.ErrNotFound
	}
	ct.Active = active
	return nil
}
