package order

import (
	"fmt"

	"millorders/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PricingInput carries the discount and tax settings of an order
type PricingInput struct {
	DiscountPercentage decimal.Decimal
	DiscountFixed      decimal.Decimal
	IsTaxable          bool
	TaxPercentage      decimal.Decimal
}

// Breakdown is the financial snapshot of an order. All four figures come from
// the same items and inputs.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// LineTotal is quantity * ratePerUnit
func LineTotal(quantity, ratePerUnit decimal.Decimal) decimal.Decimal {
	return quantity.Mul(ratePerUnit)
}

// Subtotal sums the recomputed line totals; any TotalAmount on the items is ignored.
func Subtotal(items []model.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it.Quantity, it.RatePerUnit))
	}
	return sum
}

// DiscountAmount applies the percentage when it is positive, otherwise the
// fixed amount. The result is clamped to [0, subtotal].
func DiscountAmount(subtotal, percentage, fixed decimal.Decimal) (decimal.Decimal, error) {
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: percentage %s is outside 0-100", ErrInvalidDiscount, percentage)
	}
	if fixed.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: fixed amount %s is negative", ErrInvalidDiscount, fixed)
	}

	amount := fixed
	if percentage.IsPositive() {
		amount = subtotal.Mul(percentage).Div(hundred)
	}

	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	if amount.GreaterThan(subtotal) {
		return decimal.Max(subtotal, decimal.Zero), nil
	}
	return amount, nil
}

// TaxAmount is subtotal * percentage / 100 for taxable orders, zero otherwise
func TaxAmount(subtotal decimal.Decimal, isTaxable bool, percentage decimal.Decimal) (decimal.Decimal, error) {
	if !isTaxable {
		return decimal.Zero, nil
	}
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: percentage %s is outside 0-100", ErrInvalidTax, percentage)
	}
	return subtotal.Mul(percentage).Div(hundred), nil
}

// Total is subtotal - discount + tax, floored at zero
func Total(subtotal, discountAmount, taxAmount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discountAmount).Add(taxAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// DerivePaymentStatus maps the paid amount against the total. It never returns
// overdue; that status is set by the overdue sweep.
func DerivePaymentStatus(paidAmount, total decimal.Decimal) model.PaymentStatus {
	switch {
	case !paidAmount.IsPositive():
		return model.PaymentStatusPending
	case paidAmount.GreaterThanOrEqual(total):
		return model.PaymentStatusPaid
	default:
		return model.PaymentStatusPartial
	}
}

// settlePaymentStatus keeps an overdue mark until the order is paid in full
func settlePaymentStatus(current model.PaymentStatus, paidAmount, total decimal.Decimal) model.PaymentStatus {
	derived := DerivePaymentStatus(paidAmount, total)
	if current == model.PaymentStatusOverdue && derived != model.PaymentStatusPaid {
		return model.PaymentStatusOverdue
	}
	return derived
}

// Compute derives the full breakdown from items and pricing inputs
func Compute(items []model.OrderItem, in PricingInput) (Breakdown, error) {
	subtotal := Subtotal(items)

	discount, err := DiscountAmount(subtotal, in.DiscountPercentage, in.DiscountFixed)
	if err != nil {
		return Breakdown{}, err
	}
	tax, err := TaxAmount(subtotal, in.IsTaxable, in.TaxPercentage)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          Total(subtotal, discount, tax),
	}, nil
}

// InputOf extracts the pricing inputs stored on an order
func InputOf(o model.Order) PricingInput {
	return PricingInput{
		DiscountPercentage: o.DiscountPercentage,
		DiscountFixed:      o.DiscountFixed,
		IsTaxable:          o.IsTaxable,
		TaxPercentage:      o.TaxPercentage,
	}
}

// Recalculate returns a copy of o with every line total, the four money
// figures and the payment status rewritten from its items and inputs.
// On error o is left as it was and nothing is partially applied.
func Recalculate(o model.Order) (model.Order, error) {
	next := Clone(o)
	for i := range next.Items {
		next.Items[i].TotalAmount = LineTotal(next.Items[i].Quantity, next.Items[i].RatePerUnit)
		next.Items[i].Position = i + 1
	}

	b, err := Compute(next.Items, InputOf(next))
	if err != nil {
		return model.Order{}, err
	}

	next.Subtotal = b.Subtotal
	next.Discount = b.DiscountAmount
	next.TaxAmount = b.TaxAmount
	next.TotalAmount = b.Total
	next.PaymentStatus = settlePaymentStatus(o.PaymentStatus, next.PaidAmount, b.Total)
	return next, nil
}

// ApplyPayment adds amount to the paid total and re-derives the payment status
// from a freshly computed total.
func ApplyPayment(o model.Order, amount decimal.Decimal) (model.Order, error) {
	if !amount.IsPositive() {
		return model.Order{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidPayment, amount)
	}
	if o.Status == model.OrderStatusRejected || o.Status == model.OrderStatusCancelled {
		return model.Order{}, fmt.Errorf("%w: order is %s", ErrInvalidPayment, o.Status)
	}

	next, err := Recalculate(o)
	if err != nil {
		return model.Order{}, err
	}
	next.PaidAmount = next.PaidAmount.Add(amount)
	next.PaymentStatus = settlePaymentStatus(o.PaymentStatus, next.PaidAmount, next.TotalAmount)
	return next, nil
}

// Outstanding is what remains to be collected, never negative
func Outstanding(o model.Order) decimal.Decimal {
	rest := o.TotalAmount.Sub(o.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
