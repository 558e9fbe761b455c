package main

import (
	"context"
	"time"

	bookingrepo "corealign/internal/bookings/repository"
	bookingservice "corealign/internal/bookings/service"
	bookingvalidator "corealign/internal/bookings/validator"
	classtyperepo "corealign/internal/classtypes/repository"
	"corealign/internal/notify"
	slotrepo "corealign/internal/slots/repository"
	"corealign/pkg/config"
)

const JobName = "autocancel"

// The auto-cancel sweep runs as a standalone job (cron, scheduled
// container). It cancels slots inside their class type's cutoff
// window that did not reach the booking minimum.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting auto-cancel sweep")

	slotRepo := slotrepo.NewMongoSlotRepository(cfg)
	classTypeRepo := classtyperepo.NewMongoClassTypeRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepo.NewMongoExclusiveLockRepository(cfg)

	dispatcher := initDispatcher(cfg)

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		slotRepo,
		classTypeRepo,
		bookingservice.NewLockManager(lockRepo, bookingRepo, cfg),
		bookingvalidator.NewBookingValidator(cfg.Log),
		dispatcher,
		cfg,
		cfg.Log,
	)

	cancelled, err := bookingService.AutoCancelUnderbooked(ctx, time.Now())
	if err != nil {
		cfg.Log.Fatal("Auto-cancel sweep failed", "error", err)
	}

	cfg.Log.Info("Auto-cancel sweep finished", "slots_cancelled", cancelled)
}

func initDispatcher(cfg *config.Config) *notify.Dispatcher {
	if len(cfg.NotifyBrokers) == 0 {
		return notify.NewDispatcher(&notify.LogNotifier{Log: cfg.Log}, cfg.Log)
	}
	notifier, err := notify.NewKafkaNotifier(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka notifier", "error", err)
	}
	return notify.NewDispatcher(notifier, cfg.Log)
}
