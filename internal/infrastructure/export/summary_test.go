package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func samplePayload() submission.Payload {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return submission.Payload{
		Type:        entity.ExpenseTypeInvoice,
		Description: "Design work",
		Currency:    "USD",
		Payee:       submission.PayeeInput{Kind: entity.PayeeKindInvitedIndividual, Name: "Bob"},
		Items: []submission.ItemInput{
			{Description: "Logo", IncurredAt: &day, Amount: entity.Amount{ValueInCents: 10000, Currency: "USD"}},
			{
				Description: "Icons",
				IncurredAt:  &day,
				Amount:      entity.Amount{ValueInCents: 5000, Currency: "EUR"},
				ExchangeRate: &submission.ExchangeRateInput{
					Value:        decimal.RequireFromString("1.1"),
					Source:       entity.RateSourceOpenCollective,
					FromCurrency: "EUR",
					ToCurrency:   "USD",
					Date:         day,
				},
			},
		},
		Taxes:       []submission.TaxInput{{Type: entity.TaxTypeVAT, Rate: 0.2}},
		TaxAmount:   3100,
		TotalAmount: 18600,
		Tags:        []string{"design", "q1"},
	}
}

func TestSummaryExporter_Write(t *testing.T) {
	exporter := NewSummaryExporter(zap.NewNop())

	data, err := exporter.Bytes(samplePayload())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, itemsSheet}, f.GetSheetList())

	cell := func(sheet, axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "INVOICE", cell(summarySheet, "B1"))
	assert.Equal(t, "Bob", cell(summarySheet, "B3"))
	assert.Equal(t, "155.00", cell(summarySheet, "B6"))
	assert.Equal(t, "31.00", cell(summarySheet, "B7"))
	assert.Equal(t, "186.00", cell(summarySheet, "B8"))

	rows, err := f.GetRows(itemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Amount in USD", rows[0][7])
	assert.Equal(t, []string{"1", "Logo", "2024-03-01", "100.00", "USD", "", "", "100.00"}, rows[1])
	assert.Equal(t, []string{"2", "Icons", "2024-03-01", "50.00", "EUR", "1.1", "OPEN_COLLECTIVE", "55.00"}, rows[2])
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.34", formatCents(1234, "USD"))
	assert.Equal(t, "1200", formatCents(1200, "JPY"))
	assert.Equal(t, "1.234", formatCents(1234, "KWD"))
	assert.Equal(t, "-0.50", formatCents(-50, "EUR"))
}
