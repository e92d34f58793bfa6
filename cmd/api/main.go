package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cortate/internal/config"
	"cortate/internal/database"
	"cortate/internal/middleware"
	"cortate/internal/modules/availability"
	"cortate/internal/modules/booking"
	"cortate/internal/modules/events"
	"cortate/internal/modules/penalty"
	"cortate/internal/modules/pricing"
	"cortate/internal/modules/stats"
	"cortate/internal/modules/sweeper"
	jwtsvc "cortate/internal/pkg/jwt"
	"cortate/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatal(err)
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

	j := jwtsvc.New(secret, 24*time.Hour)

	hub := events.NewHub()
	defer hub.Close()
	emitter := events.NewEmitter(hub)
	wsHandler := events.NewWSHandler(hub, j)

	penaltyEngine := penalty.NewEngine(policy, penaltyRepo, barberRepo)
	aggregator := stats.NewAggregator(barberRepo, clientRepo)
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
		aggregator,
		emitter,
	)
	bookingHandler := booking.NewHandler(bookingService)

	sw := sweeper.New(policy, bookingService, penaltyRepo)
	if err := sw.Start(); err != nil {
		log.Fatal(err)
	}
	defer sw.Stop()

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/events", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			bookingHandler.RegisterRoutes(protected)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
