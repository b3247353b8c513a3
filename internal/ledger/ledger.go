// Package ledger is the value-transfer substrate: it owns account balances
// and the atomic transfer primitive every other component moves funds with.
package ledger

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/auth"
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/response"
	"github.com/BearerOP/projekt-yukti/pkg/safe"
)

// getOrCreate loads the account row for ref, provisioning it at zero balance
// when missing. Must run inside the caller's transaction.
func getOrCreate(tx *gorm.DB, ref string) (*Account, error) {
	var account Account
	err := tx.Where("account_ref = ?", ref).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = Account{AccountRef: ref}
		if err := tx.Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to provision account %s: %w", ref, err)
		}
		return &account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", ref, err)
	}
	return &account, nil
}

// Transfer moves amount from one account to another inside tx. The source
// must hold at least amount; the destination is provisioned on first use.
// A zero-amount transfer is a no-op (a fee split can legitimately round to 0).
func Transfer(tx *gorm.DB, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return fmt.Errorf("%w: transfer from an account to itself", types.ErrValidation)
	}

	src, err := getOrCreate(tx, from)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: account %s holds %d, needs %d", types.ErrInsufficientFunds, from, src.Balance, amount)
	}

	dst, err := getOrCreate(tx, to)
	if err != nil {
		return err
	}

	newSrc, err := safe.Sub(src.Balance, amount)
	if err != nil {
		return err
	}
	newDst, err := safe.Add(dst.Balance, amount)
	if err != nil {
		return err
	}

	if err := tx.Model(src).Update("balance", newSrc).Error; err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if err := tx.Model(dst).Update("balance", newDst).Error; err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}

// Credit mints amount into the account. Operator-only; exposed through the
// internal faucet endpoint and used by the simulation and tests to fund
// participants.
func Credit(tx *gorm.DB, ref string, amount uint64) error {
	account, err := getOrCreate(tx, ref)
	if err != nil {
		return err
	}
	newBalance, err := safe.Add(account.Balance, amount)
	if err != nil {
		return err
	}
	return tx.Model(account).Update("balance", newBalance).Error
}

// Balance returns the current balance of ref. Unknown accounts read as zero.
func Balance(db *gorm.DB, ref string) (uint64, error) {
	var account Account
	err := db.Where("account_ref = ?", ref).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Service exposes account queries and the operator faucet.
type Service struct {
	db *gorm.DB
}

// NewService creates a new ledger service with the given database connection
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetBalance returns the balance of the given account.
func (s *Service) GetBalance(ref string) (uint64, error) {
	return Balance(s.db, ref)
}

// Faucet credits amount to the given account in its own transaction.
func (s *Service) Faucet(ref string, amount uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return Credit(tx, ref, amount)
	})
}

// GinHandlers contains HTTP handlers for ledger endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for ledger endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetBalanceHandler handles GET requests for the caller's balance
func (h *GinHandlers) GetBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}

		ref := auth.GetAccountRef(claims)
		if ref == "" {
			response.Unauthorized(c, "Invalid account ref in token")
			return
		}

		balance, err := h.service.GetBalance(ref)
		response.Handle(c, gin.H{"account_ref": ref, "balance": balance}, err)
	}
}

// FaucetHandler handles POST requests to credit an account. Internal only.
func (h *GinHandlers) FaucetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			AccountRef string `json:"account_ref" binding:"required"`
			Amount     uint64 `json:"amount" binding:"required"`
		}

		if err := c.ShouldBindJSON(&request); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.Faucet(request.AccountRef, request.Amount); err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"message": "account credited"})
	}
}
