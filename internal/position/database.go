package position

import (
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetBid(bidID string) (*Bid, error) {
	return getBid(d.db, bidID)
}

func getBid(tx *gorm.DB, bidID string) (*Bid, error) {
	var b Bid
	if err := tx.Where("bid_id = ?", bidID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBidsByMarketAndBettor returns one bettor's bids on a market, in
// placement order.
func (d *Database) GetBidsByMarketAndBettor(marketID, bettor string) ([]Bid, error) {
	var bids []Bid
	if err := d.db.Where("market_id = ? AND bettor = ?", marketID, bettor).
		Order("bid_index ASC").
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}
