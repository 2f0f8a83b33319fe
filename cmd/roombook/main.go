package main

import (
	"context"
	"time"

	authhandler "roombook/internal/auth/handler"
	authrepo "roombook/internal/auth/repository"
	authservice "roombook/internal/auth/service"
	bookinghandler "roombook/internal/bookings/handler"
	bookingrepo "roombook/internal/bookings/repository"
	bookingservice "roombook/internal/bookings/service"
	bookingvalidator "roombook/internal/bookings/validator"
	roomhandler "roombook/internal/rooms/handler"
	roomrepo "roombook/internal/rooms/repository"
	roomservice "roombook/internal/rooms/service"
	roomvalidator "roombook/internal/rooms/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
)

const ServiceName = "roombook"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Roombook service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	userRepo := authrepo.NewMongoUserRepository(cfg)
	tokenRepo := authrepo.NewMongoTokenRepository(cfg)
	roomRepo := roomrepo.NewMongoRoomRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepo.NewRoomLockRepository(cfg)

	ensureIndexes(cfg, userRepo, tokenRepo, roomRepo, bookingRepo, lockRepo)

	authService := authservice.NewAuthService(userRepo, tokenRepo, cfg)
	bootstrapSuperuser(cfg, authService)

	producer := initProducer(cfg)

	roomValidator := roomvalidator.NewRoomValidator(cfg.Log)
	roomService := roomservice.NewRoomService(roomRepo, bookingRepo, roomValidator, cfg)

	bookingValidator := bookingvalidator.NewBookingValidator(cfg.Log)
	var events bookingservice.EventPublisher
	if producer != nil {
		events = producer
	}
	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		lockRepo,
		roomRepo,
		bookingValidator,
		events,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(authService,
		authhandler.NewAuthHandler(authService, cfg.Log),
		roomhandler.NewRoomHandler(roomService, roomValidator, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	)
	if producer != nil {
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
	}
	serverApp.Run()
}

type indexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(cfg *config.Config, repos ...indexEnsurer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, repo := range repos {
		if err := repo.EnsureIndexes(ctx); err != nil {
			cfg.Log.Fatal("Failed to ensure indexes", "error", err)
		}
	}
	cfg.Log.Info("Database indexes ensured")
}

func bootstrapSuperuser(cfg *config.Config, auth authservice.AuthService) {
	if cfg.AdminUsername == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := auth.EnsureSuperuser(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		cfg.Log.Fatal("Failed to bootstrap superuser", "error", err)
	}
}

func initProducer(cfg *config.Config) *kafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return nil
	}

	producer, err := kafka.NewProducer(kafka_config.New(cfg.KafkaBrokers), cfg.KafkaBookingTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.KafkaBookingTopic)
	return producer
}
