package market

import (
	"time"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateMarket(m *Market) error {
	return d.db.Create(m).Error
}

// GetMarket loads a market by id; gorm.ErrRecordNotFound when missing.
func (d *Database) GetMarket(marketID string) (*Market, error) {
	return GetMarket(d.db, marketID)
}

// GetMarket is the transaction-aware variant used by other services that
// read or mutate a market inside their own transaction.
func GetMarket(tx *gorm.DB, marketID string) (*Market, error) {
	var m Market
	if err := tx.Where("market_id = ?", marketID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMarket persists mutated market state inside tx.
func SaveMarket(tx *gorm.DB, m *Market) error {
	return tx.Save(m).Error
}

func (d *Database) UpdateMarket(m *Market) error {
	return d.db.Save(m).Error
}

func (d *Database) ListMarkets() ([]Market, error) {
	var markets []Market
	if err := d.db.Order("created_at DESC").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

// GetExpiredActiveMarkets returns ACTIVE markets whose end time has passed.
func (d *Database) GetExpiredActiveMarkets(now time.Time) ([]Market, error) {
	var markets []Market
	if err := d.db.Where("status = ? AND end_time <= ?", StatusActive, now).Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}
