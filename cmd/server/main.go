package main

import (
	bookinghandler "corealign/internal/bookings/handler"
	bookingrepo "corealign/internal/bookings/repository"
	bookingservice "corealign/internal/bookings/service"
	bookingvalidator "corealign/internal/bookings/validator"
	classtypehandler "corealign/internal/classtypes/handler"
	classtyperepo "corealign/internal/classtypes/repository"
	classtypeservice "corealign/internal/classtypes/service"
	classtypevalidator "corealign/internal/classtypes/validator"
	"corealign/internal/notify"
	slothandler "corealign/internal/slots/handler"
	slotrepo "corealign/internal/slots/repository"
	slotservice "corealign/internal/slots/service"
	slotvalidator "corealign/internal/slots/validator"
	"corealign/pkg/app"
	"corealign/pkg/config"
)

const ServiceName = "corealign-server"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting CoreAlign studio server")
	cfg.SetMongo()

	serverApp := app.NewApplication(cfg)

	slotRepo := slotrepo.NewMongoSlotRepository(cfg)
	classTypeRepo := classtyperepo.NewMongoClassTypeRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepo.NewMongoExclusiveLockRepository(cfg)

	lockManager := bookingservice.NewLockManager(lockRepo, bookingRepo, cfg)
	dispatcher := initDispatcher(cfg, serverApp)

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		slotRepo,
		classTypeRepo,
		lockManager,
		bookingvalidator.NewBookingValidator(cfg.Log),
		dispatcher,
		cfg,
		cfg.Log,
	)
	slotService := slotservice.NewSlotService(
		slotRepo,
		classTypeRepo,
		slotvalidator.NewSlotValidator(cfg.Log),
		cfg,
		cfg.Log,
	)
	classTypeService := classtypeservice.NewClassTypeService(
		classTypeRepo,
		classtypevalidator.NewClassTypeValidator(cfg.Log),
		cfg.Log,
	)

	serverApp.SetApp(
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		slothandler.NewSlotHandler(slotService, bookingService, cfg.Log),
		classtypehandler.NewClassTypeHandler(classTypeService, cfg.Log),
	)
	serverApp.Run()
}

// initDispatcher wires notification delivery through Kafka when
// brokers are configured, and falls back to log output otherwise.
func initDispatcher(cfg *config.Config, serverApp *app.Application) *notify.Dispatcher {
	if len(cfg.NotifyBrokers) == 0 {
		cfg.Log.Warn("no notification brokers configured, events will only be logged")
		return notify.NewDispatcher(&notify.LogNotifier{Log: cfg.Log}, cfg.Log)
	}

	notifier, err := notify.NewKafkaNotifier(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka notifier", "error", err)
	}
	serverApp.OnShutdown(func() {
		if cerr := notifier.Close(); cerr != nil {
			cfg.Log.Error("failed to close Kafka notifier", "error", cerr)
		}
	})
	return notify.NewDispatcher(notifier, cfg.Log)
}
