package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	summarySheet = "Summary"
	itemsSheet   = "Items"
	dateLayout   = "2006-01-02"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SummaryExporter renders a prepared payload as an XLSX workbook
type SummaryExporter struct {
	logger *zap.Logger
}

// NewSummaryExporter creates a new exporter
func NewSummaryExporter(logger *zap.Logger) *SummaryExporter {
	return &SummaryExporter{logger: logger}
}

// Write renders the workbook to w
func (e *SummaryExporter) Write(w io.Writer, payload submission.Payload) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return fmt.Errorf("failed to create items sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := e.writeSummary(f, payload, bold); err != nil {
		return err
	}
	if err := e.writeItems(f, payload, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Expense summary exported",
		zap.String("type", string(payload.Type)),
		zap.Int("items", len(payload.Items)))
	return nil
}

// Bytes renders the workbook in memory
func (e *SummaryExporter) Bytes(payload submission.Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *SummaryExporter) writeSummary(f *excelize.File, p submission.Payload, bold int) error {
	rows := [][]interface{}{
		{"Type", string(p.Type)},
		{"Description", p.Description},
		{"Payee", payeeLabel(p.Payee)},
		{"Payee kind", string(p.Payee.Kind)},
		{"Currency", p.Currency},
		{"Subtotal", formatCents(p.TotalAmount-p.TaxAmount, p.Currency)},
		{"Taxes", formatCents(p.TaxAmount, p.Currency)},
		{"Total", formatCents(p.TotalAmount, p.Currency)},
		{"Approximate", p.TotalIsApproximate},
	}
	if p.PayoutMethod != nil {
		rows = append(rows, []interface{}{"Payout method", string(p.PayoutMethod.Type)})
	}
	if p.Reference != "" {
		rows = append(rows, []interface{}{"Reference", p.Reference})
	}
	if len(p.Tags) > 0 {
		rows = append(rows, []interface{}{"Tags", strings.Join(p.Tags, ", ")})
	}
	for _, tax := range p.Taxes {
		rows = append(rows, []interface{}{"Tax " + string(tax.Type), tax.Rate})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	end, _ := excelize.CoordinatesToCellName(1, len(rows))
	if err := f.SetCellStyle(summarySheet, "A1", end, bold); err != nil {
		e.logger.Warn("Failed to style summary labels", zap.Error(err))
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 16); err != nil {
		e.logger.Warn("Failed to size summary column", zap.Error(err))
	}
	return nil
}

func (e *SummaryExporter) writeItems(f *excelize.File, p submission.Payload, bold int) error {
	header := []interface{}{"#", "Description", "Date", "Amount", "Currency", "Rate", "Rate source", "Amount in " + p.Currency}
	if err := f.SetSheetRow(itemsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write items header: %w", err)
	}
	if err := f.SetCellStyle(itemsSheet, "A1", "H1", bold); err != nil {
		e.logger.Warn("Failed to style items header", zap.Error(err))
	}

	for i, item := range p.Items {
		itemCurrency := item.Amount.Currency
		if itemCurrency == "" {
			itemCurrency = p.Currency
		}

		date := ""
		if item.IncurredAt != nil {
			date = item.IncurredAt.Format(dateLayout)
		}

		rate, source, converted := "", "", ""
		switch {
		case itemCurrency == p.Currency:
			converted = formatCents(item.Amount.ValueInCents, p.Currency)
		case item.ExchangeRate != nil:
			rate = item.ExchangeRate.Value.String()
			source = string(item.ExchangeRate.Source)
			converted = formatCents(entity.ConvertCents(item.Amount.ValueInCents, item.ExchangeRate.Value), p.Currency)
		}

		row := []interface{}{
			i + 1,
			item.Description,
			date,
			formatCents(item.Amount.ValueInCents, itemCurrency),
			itemCurrency,
			rate,
			source,
			converted,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(itemsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write item row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(itemsSheet, "B", "B", 32); err != nil {
		e.logger.Warn("Failed to size items column", zap.Error(err))
	}
	return nil
}

func payeeLabel(p submission.PayeeInput) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Organization != nil:
		return p.Organization.Name
	case p.ID != nil:
		return *p.ID
	default:
		return ""
	}
}

// formatCents renders an amount in minor units with the currency's decimals
func formatCents(cents int64, code string) string {
	units := currency.MinorUnits(code)
	return decimal.New(cents, -int32(units)).StringFixed(int32(units))
}
