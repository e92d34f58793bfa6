package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// EnsureIndexes creates the partial unique index that makes two
// concurrent creates for the same barber and slot impossible to both
// commit. One insert wins, the other surfaces as a unique violation.
func EnsureIndexes(db *gorm.DB) error {
	q := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_no_double_booking
ON bookings (barber_id, scheduled_for)
WHERE status IN ('pending', 'accepted', 'confirmed', 'in_progress')
`
	return db.Exec(q).Error
}
