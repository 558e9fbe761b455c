package service

import (
	"context"
	"regexp"
	"sync"
	"testing"

	bookingvalidator "corealign/internal/bookings/validator"
	"corealign/internal/notify"
	apperrors "corealign/pkg/errors"
	"corealign/pkg/model"
	"corealign/pkg/timegrid"
)

const testPhone = "+972502345678"

var codePattern = regexp.MustCompile(`^\d{6}$`)

type testEnv struct {
	svc        BookingService
	bookings   *fakeBookingRepo
	slots      *fakeSlotRepo
	classTypes *fakeClassTypeRepo
	locks      *fakeLockRepo
}

func newTestEnv() *testEnv {
	cfg := testConfig()
	locks := newFakeLockRepo()
	bookings := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	classTypes := newFakeClassTypeRepo()

	svc := NewBookingService(
		bookings,
		slots,
		classTypes,
		NewLockManager(locks, bookings, cfg),
		bookingvalidator.NewBookingValidator(cfg.Log),
		notify.NewDispatcher(&notify.LogNotifier{Log: cfg.Log}, cfg.Log),
		cfg,
		cfg.Log,
	)

	return &testEnv{
		svc:        svc,
		bookings:   bookings,
		slots:      slots,
		classTypes: classTypes,
		locks:      locks,
	}
}

func (e *testEnv) seed(exclusiveKey string, capacity, startMin, endMin int) (*model.ClassType, *model.Slot) {
	ct := &model.ClassType{
		Name:         "Reformer Flow",
		Capacity:     capacity,
		ExclusiveKey: exclusiveKey,
		Active:       true,
	}
	e.classTypes.add(ct)

	slot := &model.Slot{
		ClassTypeID: ct.ID,
		DateKey:     testDate,
		StartMin:    startMin,
		EndMin:      endMin,
	}
	e.slots.add(slot)
	return ct, slot
}

func (e *testEnv) request(slotID string) *CreateBookingRequest {
	return &CreateBookingRequest{
		SlotID:        slotID,
		CustomerName:  "Dana Levi",
		CustomerPhone: testPhone,
		CustomerEmail: "dana@example.com",
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	env := newTestEnv()
	ct, slot := env.seed(testKey, 5, 540, 600)

	booking, err := env.svc.Create(context.Background(), env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !codePattern.MatchString(booking.Code) {
		t.Fatalf("booking code %q is not 6 digits", booking.Code)
	}
	if booking.Status != model.BookingConfirmed {
		t.Fatalf("status %q, want confirmed", booking.Status)
	}
	if booking.ExclusiveKey != testKey || booking.DateKey != testDate {
		t.Fatalf("snapshot not taken from slot: %+v", booking)
	}

	if got := env.slots.get(slot.ID).BookedCount; got != 1 {
		t.Fatalf("booked count %d, want 1", got)
	}
	for _, bucket := range timegrid.Buckets(540, 600) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != ct.ID {
			t.Fatalf("bucket %d owned by %q, want %q", bucket, owner, ct.ID)
		}
	}
}

func TestCreateBookingWithoutExclusiveKeyTakesNoLocks(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed("", 5, 540, 600)

	if _, err := env.svc.Create(context.Background(), env.request(slot.ID)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if env.locks.rowCount() != 0 {
		t.Fatalf("unlinked class type claimed %d buckets", env.locks.rowCount())
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)

	cases := []struct {
		name string
		req  *CreateBookingRequest
	}{
		{"missing name", &CreateBookingRequest{SlotID: slot.ID, CustomerPhone: testPhone}},
		{"bad phone", &CreateBookingRequest{SlotID: slot.ID, CustomerName: "Dana Levi", CustomerPhone: "not-a-phone"}},
		{"bad email", &CreateBookingRequest{SlotID: slot.ID, CustomerName: "Dana Levi", CustomerPhone: testPhone, CustomerEmail: "nope"}},
		{"bad slot id", &CreateBookingRequest{SlotID: "zzz", CustomerName: "Dana Levi", CustomerPhone: testPhone}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), tc.req)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.HTTPStatus < 400 || appErr.HTTPStatus > 422 {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if env.locks.rowCount() != 0 {
		t.Fatalf("rejected requests left %d lock rows", env.locks.rowCount())
	}
}

func TestCreateBookingFullSlotLeavesNoResidue(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 1, 540, 600)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, env.request(slot.ID)); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := env.svc.Create(ctx, env.request(slot.ID))
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict for full slot, got %v", err)
	}

	// The losing attempt must not have freed the winner's buckets or
	// touched the seat count.
	if got := env.slots.get(slot.ID).BookedCount; got != 1 {
		t.Fatalf("booked count %d after failed create, want 1", got)
	}
	if env.locks.rowCount() != len(timegrid.Buckets(540, 600)) {
		t.Fatalf("lock rows changed: %d", env.locks.rowCount())
	}
}

func TestCreateBookingExclusivityAcrossClassTypes(t *testing.T) {
	env := newTestEnv()
	_, slotA := env.seed(testKey, 5, 540, 600)
	ctB := &model.ClassType{Name: "Tower", Capacity: 5, ExclusiveKey: testKey, Active: true}
	env.classTypes.add(ctB)
	slotB := &model.Slot{ClassTypeID: ctB.ID, DateKey: testDate, StartMin: 570, EndMin: 630}
	env.slots.add(slotB)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, env.request(slotA.ID)); err != nil {
		t.Fatalf("first class booking failed: %v", err)
	}

	// 9:30-10:30 overlaps the claimed 9:00-10:00.
	_, err := env.svc.Create(ctx, env.request(slotB.ID))
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected exclusivity conflict, got %v", err)
	}
	for _, bucket := range timegrid.Buckets(600, 630) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != "" {
			t.Fatalf("loser kept bucket %d (owner %q)", bucket, owner)
		}
	}
}

func TestConcurrentCreateNeverOversells(t *testing.T) {
	env := newTestEnv()
	const capacity = 3
	_, slot := env.seed(testKey, capacity, 540, 600)
	ctx := context.Background()

	const attempts = 12
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Create(ctx, env.request(slot.ID))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !apperrors.IsConflict(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != capacity {
		t.Fatalf("%d bookings succeeded, want %d", successes, capacity)
	}
	if got := env.slots.get(slot.ID).BookedCount; got != capacity {
		t.Fatalf("booked count %d, want %d", got, capacity)
	}
}

func TestCreateBookingCodeExhaustionCompensates(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)
	env.bookings.alwaysCollide = true

	_, err := env.svc.Create(context.Background(), env.request(slot.ID))
	if err == nil {
		t.Fatal("expected error after exhausting code attempts")
	}

	if got := env.slots.get(slot.ID).BookedCount; got != 0 {
		t.Fatalf("seat leaked after failed persist: booked count %d", got)
	}
	if env.locks.rowCount() != 0 {
		t.Fatalf("lock rows leaked after failed persist: %d", env.locks.rowCount())
	}
}

func TestCancelReleasesSeatAndLocksThenFreesTime(t *testing.T) {
	env := newTestEnv()
	_, slotA := env.seed(testKey, 5, 540, 600)
	ctB := &model.ClassType{Name: "Tower", Capacity: 5, ExclusiveKey: testKey, Active: true}
	env.classTypes.add(ctB)
	slotB := &model.Slot{ClassTypeID: ctB.ID, DateKey: testDate, StartMin: 570, EndMin: 630}
	env.slots.add(slotB)
	ctx := context.Background()

	booking, err := env.svc.Create(ctx, env.request(slotA.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// While the booking holds 09:00-10:00, the overlapping Tower slot
	// is blocked.
	if _, err := env.svc.Create(ctx, env.request(slotB.ID)); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict on overlapping class type, got %v", err)
	}

	if err := env.svc.Cancel(ctx, booking.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := env.bookings.get(booking.ID).Status; got != model.BookingCancelled {
		t.Fatalf("status %q, want cancelled", got)
	}
	if got := env.slots.get(slotA.ID).BookedCount; got != 0 {
		t.Fatalf("seat not released: booked count %d", got)
	}
	if env.locks.rowCount() != 0 {
		t.Fatalf("%d lock rows survived cancellation", env.locks.rowCount())
	}

	// Cancel again: no-op.
	if err := env.svc.Cancel(ctx, booking.ID); err != nil {
		t.Fatalf("repeat cancel failed: %v", err)
	}

	// The freed time is available to the other class type now.
	if _, err := env.svc.Create(ctx, env.request(slotB.ID)); err != nil {
		t.Fatalf("booking after release failed: %v", err)
	}
}

func TestCancelKeepsBucketsCoveredByRemainingBookings(t *testing.T) {
	env := newTestEnv()
	ct, slotA := env.seed(testKey, 5, 540, 600)
	slotB := &model.Slot{ClassTypeID: ct.ID, DateKey: testDate, StartMin: 570, EndMin: 630}
	env.slots.add(slotB)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, env.request(slotA.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := env.svc.Create(ctx, env.request(slotB.ID)); err != nil {
		t.Fatalf("overlapping same-class create failed: %v", err)
	}

	if err := env.svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// 9:30-10:30 is still booked; only 9:00-9:30 frees.
	for _, bucket := range timegrid.Buckets(540, 570) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != "" {
			t.Fatalf("bucket %d not freed (owner %q)", bucket, owner)
		}
	}
	for _, bucket := range timegrid.Buckets(570, 630) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != ct.ID {
			t.Fatalf("covered bucket %d lost (owner %q)", bucket, owner)
		}
	}
}

func TestMarkNoShowReleasesNothing(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)
	ctx := context.Background()

	booking, err := env.svc.Create(ctx, env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := env.svc.MarkNoShow(ctx, booking.ID); err != nil {
		t.Fatalf("no-show failed: %v", err)
	}
	if got := env.bookings.get(booking.ID).Status; got != model.BookingNoShow {
		t.Fatalf("status %q, want no_show", got)
	}

	// The class ran; seat and buckets stay consumed.
	if got := env.slots.get(slot.ID).BookedCount; got != 1 {
		t.Fatalf("no-show released a seat: booked count %d", got)
	}
	if env.locks.rowCount() != len(timegrid.Buckets(540, 600)) {
		t.Fatalf("no-show released lock rows: %d left", env.locks.rowCount())
	}

	// Repeat is a no-op, and the terminal states do not cross.
	if err := env.svc.MarkNoShow(ctx, booking.ID); err != nil {
		t.Fatalf("repeat no-show failed: %v", err)
	}
	if err := env.svc.Cancel(ctx, booking.ID); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict cancelling a no-show, got %v", err)
	}
}

func TestCancelSlotCascades(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := env.svc.Create(ctx, &CreateBookingRequest{
		SlotID:        slot.ID,
		CustomerName:  "Noa Katz",
		CustomerPhone: "+972528345678",
	})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	if err := env.svc.CancelSlot(ctx, slot.ID); err != nil {
		t.Fatalf("cancel slot failed: %v", err)
	}

	got := env.slots.get(slot.ID)
	if !got.Cancelled || got.BookedCount != 0 {
		t.Fatalf("slot not zeroed out: %+v", got)
	}
	for _, id := range []string{first.ID, second.ID} {
		if status := env.bookings.get(id).Status; status != model.BookingCancelled {
			t.Fatalf("booking %s status %q, want cancelled", id, status)
		}
	}
	if env.locks.rowCount() != 0 {
		t.Fatalf("%d lock rows survived slot cancellation", env.locks.rowCount())
	}

	// Repeat is a no-op; booking into a cancelled slot conflicts.
	if err := env.svc.CancelSlot(ctx, slot.ID); err != nil {
		t.Fatalf("repeat cancel slot failed: %v", err)
	}
	if _, err := env.svc.Create(ctx, env.request(slot.ID)); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict booking a cancelled slot, got %v", err)
	}
}

func TestCancelSlotFinishesAfterRequestAborts(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)

	booking, err := env.svc.Create(context.Background(), env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Abort the admin request the moment the cancelled flag commits.
	// The cascade runs on a detached context and must still finish.
	ctx, abort := context.WithCancel(context.Background())
	defer abort()
	env.slots.cancelHook = abort

	if err := env.svc.CancelSlot(ctx, slot.ID); err != nil {
		t.Fatalf("cancel slot failed: %v", err)
	}
	if got := env.bookings.get(booking.ID).Status; got != model.BookingCancelled {
		t.Fatalf("booking status %q, want cancelled", got)
	}
	if env.locks.rowCount() != 0 {
		t.Fatalf("%d lock rows survived the cascade", env.locks.rowCount())
	}
}

func TestDeleteSlotDetachesConfirmedBookings(t *testing.T) {
	env := newTestEnv()
	ct, slot := env.seed(testKey, 5, 540, 600)
	ctx := context.Background()

	booking, err := env.svc.Create(ctx, env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := env.svc.DeleteSlot(ctx, slot.ID); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict deleting a live slot, got %v", err)
	}

	// Flip the slot cancelled without the cascade, as if the cascade
	// died between the flag and the booking sweep.
	if _, err := env.slots.Cancel(ctx, slot.ID); err != nil {
		t.Fatalf("direct cancel failed: %v", err)
	}
	if err := env.svc.DeleteSlot(ctx, slot.ID); err != nil {
		t.Fatalf("delete slot failed: %v", err)
	}

	detached := env.bookings.get(booking.ID)
	if detached.SlotID != "" {
		t.Fatalf("booking still attached to %q", detached.SlotID)
	}
	if detached.Status != model.BookingConfirmed {
		t.Fatalf("detached booking status %q, want confirmed", detached.Status)
	}

	// Detached confirmed bookings keep their exclusivity claim.
	for _, bucket := range timegrid.Buckets(540, 600) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != ct.ID {
			t.Fatalf("bucket %d lost after detach (owner %q)", bucket, owner)
		}
	}
}

func TestReassignMovesClaimToNewSlot(t *testing.T) {
	env := newTestEnv()
	ct, slot := env.seed(testKey, 5, 540, 600)
	ctx := context.Background()

	booking, err := env.svc.Create(ctx, env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := env.svc.Reassign(ctx, booking.ID, slot.ID); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict reassigning an attached booking, got %v", err)
	}

	if _, err := env.slots.Cancel(ctx, slot.ID); err != nil {
		t.Fatalf("direct cancel failed: %v", err)
	}
	if err := env.svc.DeleteSlot(ctx, slot.ID); err != nil {
		t.Fatalf("delete slot failed: %v", err)
	}

	newSlot := &model.Slot{ClassTypeID: ct.ID, DateKey: testDate, StartMin: 720, EndMin: 780}
	env.slots.add(newSlot)

	moved, err := env.svc.Reassign(ctx, booking.ID, newSlot.ID)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if moved.SlotID != newSlot.ID || moved.StartMin != 720 || moved.EndMin != 780 {
		t.Fatalf("snapshot not updated: %+v", moved)
	}
	if moved.Code != booking.Code {
		t.Fatalf("code changed on reassignment: %q -> %q", booking.Code, moved.Code)
	}

	if got := env.slots.get(newSlot.ID).BookedCount; got != 1 {
		t.Fatalf("new slot booked count %d, want 1", got)
	}
	for _, bucket := range timegrid.Buckets(540, 600) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != "" {
			t.Fatalf("old claim bucket %d not freed (owner %q)", bucket, owner)
		}
	}
	for _, bucket := range timegrid.Buckets(720, 780) {
		if owner := env.locks.ownerOf(testKey, testDate, bucket); owner != ct.ID {
			t.Fatalf("new claim bucket %d missing (owner %q)", bucket, owner)
		}
	}
}

func TestDeleteBookingRequiresCancelledStatus(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)
	ctx := context.Background()

	booking, err := env.svc.Create(ctx, env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := env.svc.Delete(ctx, booking.ID); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict deleting a confirmed booking, got %v", err)
	}

	if err := env.svc.Cancel(ctx, booking.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := env.svc.Delete(ctx, booking.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if env.bookings.get(booking.ID) != nil {
		t.Fatal("booking still present after delete")
	}
}

func TestAutoCancelUnderbookedSweep(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ct := &model.ClassType{
		Name:        "Mat Basics",
		Capacity:    10,
		Active:      true,
		MinBookings: 2,
		CutoffHours: 4,
	}
	env.classTypes.add(ct)

	now, err := timegrid.SlotStart(testDate, 480, testConfig().StudioLoc)
	if err != nil {
		t.Fatalf("bad test instant: %v", err)
	}

	// 10:00 is inside the 4h window with one booking; 16:00 is outside.
	inside := env.slots.add(&model.Slot{ClassTypeID: ct.ID, DateKey: testDate, StartMin: 600, EndMin: 660})
	outside := env.slots.add(&model.Slot{ClassTypeID: ct.ID, DateKey: testDate, StartMin: 960, EndMin: 1020})

	booking, err := env.svc.Create(ctx, env.request(inside.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := env.svc.AutoCancelUnderbooked(ctx, now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("sweep cancelled %d slots, want 1", cancelled)
	}

	if got := env.slots.get(inside.ID); !got.Cancelled {
		t.Fatal("underbooked slot inside window not cancelled")
	}
	if got := env.slots.get(outside.ID); got.Cancelled {
		t.Fatal("slot outside window was cancelled")
	}
	if got := env.bookings.get(booking.ID).Status; got != model.BookingCancelled {
		t.Fatalf("booking status %q after sweep, want cancelled", got)
	}
}

func TestListByPhone(t *testing.T) {
	env := newTestEnv()
	ct, slotA := env.seed("", 5, 540, 600)
	slotB := &model.Slot{ClassTypeID: ct.ID, DateKey: testDate, StartMin: 660, EndMin: 720}
	env.slots.add(slotB)
	ctx := context.Background()

	for _, id := range []string{slotA.ID, slotB.ID} {
		if _, err := env.svc.Create(ctx, env.request(id)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, total, err := env.svc.ListByPhone(ctx, testPhone, 1, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total %d, want 2", total)
	}
	if len(page) != 1 {
		t.Fatalf("page size %d, want 1", len(page))
	}

	if _, _, err := env.svc.ListByPhone(ctx, "garbage", 10, 0); err == nil {
		t.Fatal("expected error for invalid phone")
	}
}

func TestGetByCode(t *testing.T) {
	env := newTestEnv()
	_, slot := env.seed(testKey, 5, 540, 600)
	ctx := context.Background()

	booking, err := env.svc.Create(ctx, env.request(slot.ID))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := env.svc.GetByCode(ctx, booking.Code)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found.ID != booking.ID {
		t.Fatalf("found booking %s, want %s", found.ID, booking.ID)
	}

	if _, err := env.svc.GetByCode(ctx, "12345"); err == nil {
		t.Fatal("expected error for short code")
	}

	unknown := "000000"
	if unknown == booking.Code {
		unknown = "111111"
	}
	if _, err := env.svc.GetByCode(ctx, unknown); err == nil {
		t.Fatal("expected error for unknown code")
	}
}
