package order_test

import (
	"testing"

	"millorders/internal/model"
	"millorders/internal/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name string
		item model.OrderItem
		want []order.Code
	}{
		{
			name: "blank name and zero quantity",
			item: model.OrderItem{ProductName: "", Quantity: d("0"), Unit: "KG", RatePerUnit: d("10")},
			want: []order.Code{order.CodeMissingProductName, order.CodeInvalidQuantity},
		},
		{
			name: "everything wrong",
			item: model.OrderItem{ProductName: " ", Quantity: d("-1"), Unit: "", RatePerUnit: d("0"), Packaging: "Sack"},
			want: []order.Code{order.CodeMissingProductName, order.CodeInvalidQuantity, order.CodeMissingUnit, order.CodeInvalidRate, order.CodeInvalidPackaging},
		},
		{
			name: "valid loose item",
			item: model.OrderItem{ProductName: "Sooji", Quantity: d("12.5"), Unit: "KG", RatePerUnit: d("38"), Packaging: order.PackagingLoose},
			want: []order.Code{},
		},
		{
			name: "bag selection without bag packaging",
			item: model.OrderItem{ProductName: "Atta", Quantity: d("50"), Unit: "KG", RatePerUnit: d("30"), Packaging: order.PackagingStandard, IsBagSelection: true, BagPieces: 2},
			want: []order.Code{order.CodeInvalidPackaging},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, order.ValidateItem(tt.item).Codes())
		})
	}
}

func TestValidateOrder(t *testing.T) {
	o := model.Order{
		Items: []model.OrderItem{
			{ProductName: "Atta", Quantity: d("10"), Unit: "KG", RatePerUnit: d("25")},
			{ProductName: "", Quantity: d("5"), Unit: "KG", RatePerUnit: d("0")},
		},
	}

	errs := order.ValidateOrder(o)
	assert.Equal(t, []order.Code{
		order.CodeMissingCustomer,
		order.CodeMissingPaymentTerms,
		order.CodeMissingProductName,
		order.CodeInvalidRate,
	}, errs.Codes())
	assert.Equal(t, "Item 2: product name is required", errs[2].Message)
	assert.Equal(t, "Item 2: rate per unit must be greater than 0", errs[3].Message)
	assert.Error(t, errs.Err())
}

func TestValidateOrder_NoItems(t *testing.T) {
	errs := order.ValidateOrder(model.Order{CustomerID: uuid.New(), PaymentTerms: "Cash"})
	assert.Equal(t, []order.Code{order.CodeMissingItems}, errs.Codes())
}

func TestValidateOrder_Valid(t *testing.T) {
	o := model.Order{CustomerID: uuid.New(), PaymentTerms: "15 days", Items: sampleItems()}
	assert.NoError(t, order.ValidateOrder(o).Err())
}

func TestParseBagSizeKg(t *testing.T) {
	size, ok := order.ParseBagSizeKg("50kg Bags")
	assert.True(t, ok)
	assert.Equal(t, 50, size)

	size, ok = order.ParseBagSizeKg("25 KG bags")
	assert.True(t, ok)
	assert.Equal(t, 25, size)

	_, ok = order.ParseBagSizeKg("Loose")
	assert.False(t, ok)
	_, ok = order.ParseBagSizeKg("0kg Bags")
	assert.False(t, ok)

	assert.Equal(t, "10kg Bags", order.BagPackaging(10))
}

func TestNormalizeItem_BagSelection(t *testing.T) {
	it := order.NormalizeItem(model.OrderItem{
		ProductName:    " Chakki Atta ",
		Quantity:       d("1"),
		RatePerUnit:    d("32"),
		Packaging:      "25kg Bags",
		IsBagSelection: true,
		BagPieces:      4,
	})

	assert.Equal(t, "Chakki Atta", it.ProductName)
	assert.Equal(t, model.UnitKG, it.Unit)
	assertDecimal(t, "100", it.Quantity)
	assertDecimal(t, "3200", it.TotalAmount)
}

func TestNormalizeItem_QuantityAuthoritativeWithoutBags(t *testing.T) {
	it := order.NormalizeItem(model.OrderItem{ProductName: "Maida", Quantity: d("7"), Unit: "kg", RatePerUnit: d("40"), Packaging: "50kg Bags"})
	assert.Equal(t, "KG", it.Unit)
	assertDecimal(t, "7", it.Quantity)
}
