package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreviewPaymentPercent(t *testing.T) {
	draft := Draft{DiscountType: DiscountPercent, DiscountValue: 10, PaymentMethod: PayCash}
	preview := PreviewPayment(100, 10, draft)

	assert.Equal(t, 10.0, preview.Discount)
	assert.Equal(t, 100.0, preview.Total)
}

func TestPreviewPaymentFixed(t *testing.T) {
	draft := Draft{DiscountType: DiscountFixed, DiscountValue: 15, PaymentMethod: PayCard}
	preview := PreviewPayment(50, 5, draft)

	assert.Equal(t, 15.0, preview.Discount)
	assert.Equal(t, 40.0, preview.Total)
}

func TestPreviewPaymentTreatZeroesTheBill(t *testing.T) {
	draft := Draft{DiscountType: DiscountTreat, PaymentMethod: PayCash}
	preview := PreviewPayment(123.45, 12.35, draft)

	assert.Equal(t, 123.45+12.35, preview.Discount)
	assert.Equal(t, 0.0, preview.Total)
}

func TestPreviewPaymentNone(t *testing.T) {
	draft := Draft{DiscountType: DiscountNone, PaymentMethod: PayCash}
	preview := PreviewPayment(80, 8, draft)

	assert.Equal(t, 0.0, preview.Discount)
	assert.Equal(t, 88.0, preview.Total)
}

// Two portions at 25.00 with 10% tax and a 20% discount: the till
// must show 10.00 off and 45.00 due.
func TestPreviewPaymentTableScenario(t *testing.T) {
	subtotal := 2 * 25.00
	tax := subtotal * 0.10

	draft := Draft{DiscountType: DiscountPercent, DiscountValue: 20, PaymentMethod: PayCash}
	preview := PreviewPayment(subtotal, tax, draft)

	assert.InDelta(t, 10.00, preview.Discount, 1e-9)
	assert.InDelta(t, 45.00, preview.Total, 1e-9)
}

func TestPreviewPaymentNeverNegative(t *testing.T) {
	cases := []Draft{
		{DiscountType: DiscountFixed, DiscountValue: 1000},
		{DiscountType: DiscountPercent, DiscountValue: 100},
		{DiscountType: DiscountTreat},
	}
	for _, draft := range cases {
		preview := PreviewPayment(30, 3, draft)
		assert.GreaterOrEqual(t, preview.Total, 0.0, "draft %+v", draft)
	}
}

func TestPreviewPaymentIsPure(t *testing.T) {
	draft := Draft{DiscountType: DiscountPercent, DiscountValue: 12.5, PaymentMethod: PayCard}

	first := PreviewPayment(200, 20, draft)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, PreviewPayment(200, 20, draft))
	}
}

func TestDraftValidate(t *testing.T) {
	assert.NoError(t, NewDraft().Validate())
	assert.NoError(t, Draft{DiscountType: DiscountTreat, PaymentMethod: PayCard}.Validate())

	assert.Error(t, Draft{DiscountType: "half-off", PaymentMethod: PayCash}.Validate())
	assert.Error(t, Draft{DiscountType: DiscountNone, PaymentMethod: "check"}.Validate())
	assert.Error(t, Draft{DiscountType: DiscountPercent, DiscountValue: 150, PaymentMethod: PayCash}.Validate())
	assert.Error(t, Draft{DiscountType: DiscountPercent, DiscountValue: -1, PaymentMethod: PayCash}.Validate())
	assert.Error(t, Draft{DiscountType: DiscountFixed, DiscountValue: -5, PaymentMethod: PayCash}.Validate())
}
