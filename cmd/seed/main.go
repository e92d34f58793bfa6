package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"cortate/internal/database"
	"cortate/internal/domain"
	"cortate/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "cortate.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := repository.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatal("EnsureIndexes failed:", err)
	}

	// Clean in FK-safe order.
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM penalties")
	db.Exec("DELETE FROM booking_timeline")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM barbers")
	db.Exec("DELETE FROM clients")
	db.Exec("DELETE FROM users")

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	barbers := repository.NewBarberRepository(db)
	clients := repository.NewClientRepository(db)

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("bcrypt failed:", err)
		}
		return string(h)
	}

	admin := &domain.User{
		Email:        "admin@cortate.cl",
		PasswordHash: hash("admin123"),
		Role:         domain.RoleAdmin,
		Name:         "Admin",
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal("seed admin failed:", err)
	}

	fullWeek := map[string]string{
		"monday":    "10:00-20:00",
		"tuesday":   "10:00-20:00",
		"wednesday": "10:00-20:00",
		"thursday":  "10:00-20:00",
		"friday":    "10:00-21:00",
		"saturday":  "11:00-19:00",
	}

	barberSeeds := []struct {
		name     string
		email    string
		phone    string
		shop     string
		address  string
		area     domain.ServiceArea
		haircut  int64
		combo    int64
		addons   []domain.AddOn
		imm      bool
		schedule map[string]string
	}{
		{
			name: "Carlos Rojas", email: "carlos@cortate.cl", phone: "912345001",
			shop: "Barbería El Tigre", address: "Av. Providencia 1234, Providencia",
			area: domain.AreaBoth, haircut: 12000, combo: 18000,
			addons:   []domain.AddOn{domain.AddOnEyebrows, domain.AddOnBeardLine},
			imm:      true,
			schedule: fullWeek,
		},
		{
			name: "Javier Muñoz", email: "javier@cortate.cl", phone: "912345002",
			shop: "Corte Clásico", address: "San Diego 850, Santiago Centro",
			area: domain.AreaLocal, haircut: 9000, combo: 14000,
			addons:   []domain.AddOn{domain.AddOnHairWash, domain.AddOnKidsCut},
			imm:      false,
			schedule: fullWeek,
		},
		{
			name: "Felipe Soto", email: "felipe@cortate.cl", phone: "912345003",
			shop: "Fade a Domicilio", address: "Ñuñoa",
			area: domain.AreaHome, haircut: 15000, combo: 22000,
			addons:   []domain.AddOn{domain.AddOnEyebrows},
			imm:      true,
			schedule: fullWeek,
		},
	}

	for _, s := range barberSeeds {
		u := &domain.User{
			Email:        s.email,
			PasswordHash: hash("barber123"),
			Role:         domain.RoleBarber,
			Name:         s.name,
			Phone:        s.phone,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatal("seed barber user failed:", err)
		}

		b := &domain.Barber{
			UserID:            u.ID,
			ShopName:          s.shop,
			Address:           s.address,
			Phone:             s.phone,
			WhatsApp:          s.phone,
			ServiceArea:       s.area,
			PriceHaircut:      s.haircut,
			PriceHaircutBeard: s.combo,
			DeclaredAddOns:    s.addons,
			IsActive:          true,
			IsVerified:        true,
			AcceptsImmediate:  s.imm,
			LiveStatus:        domain.LiveAvailable,
			WeekSchedule:      s.schedule,
		}
		if err := barbers.Create(ctx, b); err != nil {
			log.Fatal("seed barber failed:", err)
		}
		log.Printf("seeded barber %s (%s)", s.name, s.shop)
	}

	for i := 1; i <= 5; i++ {
		u := &domain.User{
			Email:        fmt.Sprintf("cliente%d@cortate.cl", i),
			PasswordHash: hash("client123"),
			Role:         domain.RoleClient,
			Name:         fmt.Sprintf("Cliente %d", i),
			Phone:        fmt.Sprintf("9876540%02d", i),
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatal("seed client user failed:", err)
		}
		if err := clients.Create(ctx, &domain.Client{UserID: u.ID}); err != nil {
			log.Fatal("seed client failed:", err)
		}
	}

	log.Println("Seed completed.")
}
