package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"cortate/internal/config"
	"cortate/internal/database"
	"cortate/internal/modules/availability"
	"cortate/internal/modules/booking"
	"cortate/internal/modules/penalty"
	"cortate/internal/modules/pricing"
	"cortate/internal/repository"
)

// One-shot sweep for external schedulers. The API binary runs the same
// jobs on its own cron; this exists for deployments that prefer a
// system cron or a k8s CronJob.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	policy, err := config.LoadPolicy()
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	barberRepo := repository.NewBarberRepository(db)
	clientRepo := repository.NewClientRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	penaltyRepo := repository.NewPenaltyRepository(db)

	penaltyEngine := penalty.NewEngine(policy, penaltyRepo, barberRepo)
	checker := availability.NewChecker(policy, bookingRepo)
	calculator := pricing.NewCalculator(policy)

	bookingService := booking.NewService(
		policy,
		bookingRepo,
		barberRepo,
		clientRepo,
		userRepo,
		checker,
		calculator,
		penaltyEngine,
		nil,
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := bookingService.ExpireSweep(ctx)
	if err != nil {
		log.Fatalf("expire sweep failed: %v", err)
	}

	voided, err := penaltyRepo.VoidExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Fatalf("void penalties failed: %v", err)
	}

	log.Printf("sweep completed: bookings_expired=%d penalties_voided=%d", expired, voided)
}
