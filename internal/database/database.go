package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/events"
	"github.com/BearerOP/projekt-yukti/internal/ledger"
	"github.com/BearerOP/projekt-yukti/internal/market"
	"github.com/BearerOP/projekt-yukti/internal/position"
)

// NewDatabase initializes and returns a new GORM DB connection at path.
// TranslateError turns driver unique-constraint failures into
// gorm.ErrDuplicatedKey so market id collisions surface as conflicts.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&market.Market{},
		&position.Bid{},
		&ledger.Account{},
		&events.Event{},
	)
}
