package models

import (
	"time"

	"github.com/adisyo/adisyo-pos/billing"
)

const (
	OrderOpen      = "open"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

// Order is one table's open tab. Monetary fields are authoritative
// here; clients always replace their local snapshot with the
// round-tripped order instead of deriving totals themselves.
type Order struct {
	ID             uint                  `gorm:"primaryKey" json:"id"`
	TableID        uint                  `gorm:"index" json:"table_id"`
	Table          Table                 `gorm:"foreignKey:TableID" json:"-"`
	TableName      string                `gorm:"-" json:"table_name,omitempty"`
	Status         string                `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	OpenedAt       time.Time             `gorm:"not null" json:"opened_at"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
	Subtotal       float64               `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	TaxRate        float64               `gorm:"type:decimal(5,2);not null;default:10" json:"tax_rate"`
	TaxAmount      float64               `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	DiscountAmount float64               `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	DiscountType   billing.DiscountType  `gorm:"type:varchar(20)" json:"discount_type,omitempty"`
	Total          float64               `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	PaymentMethod  billing.PaymentMethod `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	UserID         *uint                 `gorm:"index" json:"user_id,omitempty"`
	// Version is bumped by every item mutation. Mutations carrying a
	// stale expected version are rejected with 409.
	Version   uint        `gorm:"not null;default:0" json:"version"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RecalcTotals recomputes subtotal, tax and total from the loaded
// items. Call inside the same transaction that mutated them.
func (o *Order) RecalcTotals() {
	var subtotal float64
	for _, item := range o.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	o.Subtotal = subtotal
	o.TaxAmount = subtotal * (o.TaxRate / 100)
	total := o.Subtotal + o.TaxAmount - o.DiscountAmount
	if total < 0 {
		total = 0
	}
	o.Total = total
}
