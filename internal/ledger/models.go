package ledger

import (
	"time"

	"gorm.io/gorm"
)

// Account is one balance-holding account: a participant, a market vault or
// the platform treasury. Balances are in the smallest currency unit.
type Account struct {
	gorm.Model `json:"-"`
	AccountRef string    `gorm:"uniqueIndex" json:"account_ref"`
	Balance    uint64    `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
