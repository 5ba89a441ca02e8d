package order

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"millorders/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Packaging labels. Bag sizes use the "<N>kg Bags" form.
const (
	PackagingLoose    = "Loose"
	PackagingStandard = "Standard"
	PackagingCustom   = "Custom"
)

var bagPackaging = regexp.MustCompile(`(?i)^\s*(\d+)\s*kg\s+bags?\s*$`)

// ParseBagSizeKg extracts N from a "<N>kg Bags" packaging label
func ParseBagSizeKg(packaging string) (int, bool) {
	m := bagPackaging.FindStringSubmatch(packaging)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// BagPackaging formats a bag size as a packaging label
func BagPackaging(sizeKg int) string {
	return fmt.Sprintf("%dkg Bags", sizeKg)
}

// ValidPackaging accepts the fixed labels, bag sizes, and the empty string (loose)
func ValidPackaging(packaging string) bool {
	switch packaging {
	case "", PackagingLoose, PackagingStandard, PackagingCustom:
		return true
	}
	_, ok := ParseBagSizeKg(packaging)
	return ok
}

// NormalizeItem fills the unit and, for bag selections, derives the quantity
// from pieces and bag size. After this the quantity is authoritative.
func NormalizeItem(it model.OrderItem) model.OrderItem {
	it.ProductName = strings.TrimSpace(it.ProductName)
	it.Unit = strings.ToUpper(strings.TrimSpace(it.Unit))
	if it.Unit == "" {
		it.Unit = model.UnitKG
	}
	if it.IsBagSelection && it.BagPieces > 0 {
		if size, ok := ParseBagSizeKg(it.Packaging); ok {
			it.Quantity = decimal.NewFromInt(int64(it.BagPieces) * int64(size))
		}
	}
	it.TotalAmount = LineTotal(it.Quantity, it.RatePerUnit)
	return it
}

// ValidateItem runs every item check and returns all failures
func ValidateItem(it model.OrderItem) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(it.ProductName) == "" {
		errs = append(errs, ValidationError{Code: CodeMissingProductName, Message: "product name is required"})
	}
	if !it.Quantity.IsPositive() {
		errs = append(errs, ValidationError{Code: CodeInvalidQuantity, Message: "quantity must be greater than 0"})
	}
	if strings.TrimSpace(it.Unit) == "" {
		errs = append(errs, ValidationError{Code: CodeMissingUnit, Message: "unit is required"})
	}
	if !it.RatePerUnit.IsPositive() {
		errs = append(errs, ValidationError{Code: CodeInvalidRate, Message: "rate per unit must be greater than 0"})
	}
	if !ValidPackaging(it.Packaging) {
		errs = append(errs, ValidationError{Code: CodeInvalidPackaging, Message: fmt.Sprintf("unknown packaging %q", it.Packaging)})
	} else if it.IsBagSelection {
		if _, ok := ParseBagSizeKg(it.Packaging); !ok {
			errs = append(errs, ValidationError{Code: CodeInvalidPackaging, Message: "bag selection needs a bag size packaging"})
		}
	}
	return errs
}

// ValidateOrder checks the order header and every item. Item failures are
// prefixed with the item's 1-based position.
func ValidateOrder(o model.Order) ValidationErrors {
	var errs ValidationErrors
	if o.CustomerID == uuid.Nil {
		errs = append(errs, ValidationError{Code: CodeMissingCustomer, Message: "customer is required"})
	}
	if len(o.Items) == 0 {
		errs = append(errs, ValidationError{Code: CodeMissingItems, Message: "at least one item is required"})
	}
	if strings.TrimSpace(o.PaymentTerms) == "" {
		errs = append(errs, ValidationError{Code: CodeMissingPaymentTerms, Message: "payment terms are required"})
	}
	for i, it := range o.Items {
		for _, e := range ValidateItem(it) {
			e.Message = fmt.Sprintf("Item %d: %s", i+1, e.Message)
			errs = append(errs, e)
		}
	}
	return errs
}
