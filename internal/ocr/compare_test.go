package ocr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

func ptrTime(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &t
}

func TestCompare(t *testing.T) {
	parsed := &entity.ParsingResult{
		Description: "Taxi  to airport",
		Amount:      &entity.Amount{ValueInCents: 4250, Currency: "EUR"},
		IncurredAt:  ptrTime(2024, 3, 1, 0),
	}

	tests := []struct {
		name string
		item entity.ExpenseItem
		want map[Field]bool
	}{
		{
			name: "matching values",
			item: entity.ExpenseItem{
				Description: "taxi to airport",
				Amount:      entity.Amount{ValueInCents: 4250, Currency: "EUR"},
				IncurredAt:  ptrTime(2024, 3, 1, 18),
			},
			want: map[Field]bool{FieldDescription: false, FieldAmount: false, FieldIncurredAt: false},
		},
		{
			name: "currency differs",
			item: entity.ExpenseItem{
				Description: "Taxi to airport",
				Amount:      entity.Amount{ValueInCents: 4250, Currency: "USD"},
				IncurredAt:  ptrTime(2024, 3, 1, 0),
			},
			want: map[Field]bool{FieldDescription: false, FieldAmount: true, FieldIncurredAt: false},
		},
		{
			name: "empty user values mismatch",
			item: entity.ExpenseItem{},
			want: map[Field]bool{FieldDescription: true, FieldAmount: true, FieldIncurredAt: true},
		},
		{
			name: "value and date differ",
			item: entity.ExpenseItem{
				Description: "Taxi to airport",
				Amount:      entity.Amount{ValueInCents: 4200, Currency: "EUR"},
				IncurredAt:  ptrTime(2024, 3, 2, 0),
			},
			want: map[Field]bool{FieldDescription: false, FieldAmount: true, FieldIncurredAt: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.item.ParsingResult = parsed
			got := Compare(tt.item)

			require.Len(t, got, len(tt.want))
			for field, mismatch := range tt.want {
				assert.Equal(t, mismatch, got[field].HasMismatch, "field %s", field)
			}
		})
	}
}

func TestCompare_SkipsFieldsWithoutOCRValue(t *testing.T) {
	item := entity.ExpenseItem{
		Description:   "Lunch",
		ParsingResult: &entity.ParsingResult{Amount: &entity.Amount{ValueInCents: 1200}},
	}

	got := Compare(item)
	assert.NotContains(t, got, FieldDescription)
	assert.NotContains(t, got, FieldIncurredAt)
	assert.True(t, got[FieldAmount].HasMismatch)
	assert.True(t, got.HasMismatch())

	assert.Empty(t, Compare(entity.ExpenseItem{Description: "no parsing"}))
}

func TestCompareAll_IndexedByPosition(t *testing.T) {
	items := []entity.ExpenseItem{
		{Description: "a"},
		{Description: "b", ParsingResult: &entity.ParsingResult{Description: "c"}},
	}

	got := CompareAll(items)
	require.Len(t, got, 2)
	assert.False(t, got[0].HasMismatch())
	assert.True(t, got[1].HasMismatch())
}

func TestPrefill(t *testing.T) {
	parsed := &entity.ParsingResult{
		Description: " Hotel ",
		Amount:      &entity.Amount{ValueInCents: 12000, Currency: "eur"},
		IncurredAt:  ptrTime(2024, 4, 2, 0),
	}

	filled, changed := Prefill(entity.ExpenseItem{ID: "i1", ParsingResult: parsed})
	require.True(t, changed)
	assert.Equal(t, "Hotel", filled.Description)
	assert.Equal(t, entity.Amount{ValueInCents: 12000, Currency: "EUR"}, filled.Amount)
	assert.Equal(t, *parsed.IncurredAt, *filled.IncurredAt)
	assert.False(t, Compare(filled).HasMismatch())

	edited := entity.ExpenseItem{Description: "Hotel Paris", Amount: entity.Amount{ValueInCents: 100, Currency: "USD"}, IncurredAt: ptrTime(2024, 4, 1, 0), ParsingResult: parsed}
	same, changed := Prefill(edited)
	assert.False(t, changed)
	assert.Equal(t, edited, same)
}
