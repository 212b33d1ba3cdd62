package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

func testReceiptSale() *domain.Sale {
	return &domain.Sale{
		ID:     uuid.MustParse("11111111-2222-3333-4444-555566667777"),
		UserID: uuid.New(),
		Customer: domain.Customer{
			Name:   "Asha",
			Mobile: "9876543210",
		},
		Items: []domain.SaleItem{
			{
				ProductID: uuid.New(),
				Name:      "Almonds",
				Quantity:  decimal.NewFromInt(500),
				Unit:      domain.UnitKg,
				Price:     decimal.NewFromInt(900),
			},
			{
				ProductID: uuid.New(),
				Name:      "Dates Box",
				Quantity:  decimal.NewFromInt(2),
				Unit:      domain.UnitPackets,
				Price:     decimal.NewFromInt(150),
			},
		},
		Total:         decimal.NewFromInt(750),
		PaymentMethod: domain.PaymentCard,
		Status:        domain.SaleCompleted,
		CreatedAt:     time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestNewReceipt(t *testing.T) {
	header := domain.ReceiptHeader{StoreName: "Tajalli", Currency: "₹", Footer: "Thank you! Visit Again"}
	r := domain.NewReceipt(testReceiptSale(), header, "Ravi")

	assert.Equal(t, "66667777", r.Number)
	require.Len(t, r.Lines, 2)

	assert.Equal(t, "0.5 kg", r.Lines[0].DisplayQuantity)
	assert.True(t, r.Lines[0].Total.Equal(decimal.NewFromInt(450)))

	assert.Equal(t, "2 packets", r.Lines[1].DisplayQuantity)
	assert.True(t, r.Lines[1].Total.Equal(decimal.NewFromInt(300)))

	assert.True(t, r.SubTotal.Equal(decimal.NewFromInt(750)))
	assert.True(t, r.Total.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, domain.PaymentCard, r.PaymentMethod)
}

func TestReceipt_WriteText(t *testing.T) {
	header := domain.ReceiptHeader{
		StoreName: "Tajalli",
		GSTIN:     "29ABCDE1234F1Z5",
		Currency:  "Rs.",
		Footer:    "Thank you! Visit Again",
	}
	r := domain.NewReceipt(testReceiptSale(), header, "")

	var b strings.Builder
	require.NoError(t, r.WriteText(&b))
	out := b.String()

	assert.Contains(t, out, "TAJALLI")
	assert.Contains(t, out, "GSTIN: 29ABCDE1234F1Z5")
	assert.Contains(t, out, "Receipt #: 66667777")
	assert.Contains(t, out, "Customer: Asha")
	assert.Contains(t, out, "0.5 kg x Rs.900.00")
	assert.Contains(t, out, "2 packets x Rs.150.00")
	assert.Contains(t, out, "Rs.750.00")
	assert.Contains(t, out, "Payment: CARD")
	assert.Contains(t, out, "Visit Again")
	assert.NotContains(t, out, "Cashier:")
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1.25 kg", domain.FormatQuantity(decimal.NewFromInt(1250), domain.UnitKg))
	assert.Equal(t, "3 pcs", domain.FormatQuantity(decimal.NewFromInt(3), ""))
}
