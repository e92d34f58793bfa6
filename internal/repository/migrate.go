package repository

import "gorm.io/gorm"

// Migrate creates or updates every table the repositories use. The
// double-booking index is separate, see database.EnsureIndexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&barberModel{},
		&clientModel{},
		&bookingModel{},
		&timelineModel{},
		&penaltyModel{},
	)
}
