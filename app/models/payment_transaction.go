package models

import "time"

const (
	PaymentStatusVerified = "verified"
)

// PaymentTransaction records a successfully verified payment. Rows are written
// exactly once per gateway payment id; verification is the only code path that
// creates them.
type PaymentTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	OrderID   string    `gorm:"type:varchar(191);not null;index" json:"order_id"`
	PaymentID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"payment_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency  string    `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	Status    string    `gorm:"type:varchar(32);not null;default:'verified'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
