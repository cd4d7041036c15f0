package model

import "time"

// TransactionType distinguishes cash leaving the ATM from cash loaded into it.
type TransactionType string

const (
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionRefill     TransactionType = "REFILL"
)

// CashInventory is an append-only snapshot of an ATM's note counts. The
// newest row by CreatedAt is the current inventory; rows are never updated
// in place. TotalAmount always equals n1000*1000 + n500*500 + n200*200.
type CashInventory struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AtmID       string    `gorm:"size:36;index;not null" json:"atmId"`
	TotalAmount int       `gorm:"not null;default:0" json:"totalAmount"`
	N1000       int       `gorm:"not null;default:0" json:"n1000"`
	N500        int       `gorm:"not null;default:0" json:"n500"`
	N200        int       `gorm:"not null;default:0" json:"n200"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`

	ATM ATM `gorm:"foreignKey:AtmID;constraint:OnDelete:CASCADE" json:"-"`
}

// Transaction is an append-only record of a dispense or refill.
type Transaction struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	AtmID           string          `gorm:"size:36;index;not null" json:"atmId"`
	TotalAmount     int             `gorm:"not null" json:"totalAmount"`
	N1000           int             `gorm:"not null;default:0" json:"n1000"`
	N500            int             `gorm:"not null;default:0" json:"n500"`
	N200            int             `gorm:"not null;default:0" json:"n200"`
	TransactionType TransactionType `gorm:"size:16;not null" json:"transactionType"`
	CreatedAt       time.Time       `gorm:"not null" json:"createdAt"`

	ATM ATM `gorm:"foreignKey:AtmID;constraint:OnDelete:CASCADE" json:"-"`
}
