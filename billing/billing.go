package billing

import "fmt"

// DiscountType enumerates the discount forms a payment may carry.
type DiscountType string

const (
	DiscountNone    DiscountType = "none"
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
	// DiscountTreat (ikram) writes the whole bill off.
	DiscountTreat DiscountType = "treat"
)

func (d DiscountType) Valid() bool {
	switch d {
	case DiscountNone, DiscountPercent, DiscountFixed, DiscountTreat:
		return true
	}
	return false
}

// PaymentMethod enumerates how the bill gets settled.
type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PayCash || m == PayCard
}

// Draft is the client-local discount proposal. It is never persisted
// until the payment is committed.
type Draft struct {
	DiscountType  DiscountType  `json:"discount_type"`
	DiscountValue float64       `json:"discount_value"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// NewDraft returns the default draft: no discount, cash.
func NewDraft() Draft {
	return Draft{DiscountType: DiscountNone, PaymentMethod: PayCash}
}

func (d Draft) Validate() error {
	if !d.DiscountType.Valid() {
		return fmt.Errorf("unknown discount type %q", d.DiscountType)
	}
	if !d.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", d.PaymentMethod)
	}
	if d.DiscountType == DiscountPercent && (d.DiscountValue < 0 || d.DiscountValue > 100) {
		return fmt.Errorf("percent discount must be within 0-100, got %v", d.DiscountValue)
	}
	if d.DiscountType == DiscountFixed && d.DiscountValue < 0 {
		return fmt.Errorf("fixed discount must not be negative, got %v", d.DiscountValue)
	}
	return nil
}

// Preview holds the reconciled amounts for a draft applied to an order.
type Preview struct {
	Subtotal  float64 `json:"subtotal"`
	TaxAmount float64 `json:"tax_amount"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// PreviewPayment computes the discount and final total for a draft
// applied to the given subtotal and tax. Pure: no side effects, same
// inputs always yield the same output. The server runs the exact same
// function on commit, so a client preview can never drift from the
// committed total.
//
// The total floors at zero; a discount never exceeds subtotal + tax.
func PreviewPayment(subtotal, taxAmount float64, draft Draft) Preview {
	var discount float64
	switch draft.DiscountType {
	case DiscountPercent:
		discount = subtotal * draft.DiscountValue / 100
	case DiscountFixed:
		discount = draft.DiscountValue
	case DiscountTreat:
		discount = subtotal + taxAmount
	case DiscountNone:
		discount = 0
	}

	total := subtotal + taxAmount - discount
	if total < 0 {
		total = 0
	}

	return Preview{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Discount:  discount,
		Total:     total,
	}
}
