package services

import (
	"fmt"
	"io"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Enquiries"

var exportHeaders = []string{
	"ID", "Customer", "Phone", "Product", "Status", "Stage",
	"Quoted", "Final", "Invoice", "Payment", "Created", "Updated",
}

// ExportEnquiries writes enquiries as an XLSX workbook.
func ExportEnquiries(w io.Writer, enquiries []models.Enquiry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	for col, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i := range enquiries {
		e := &enquiries[i]
		invoice, payment := "", ""
		if b := e.Billing(); b != nil {
			invoice, payment = b.InvoiceNumber, string(b.PaymentStatus)
		}
		quoted, _ := e.QuotedAmount.Float64()
		final, _ := e.FinalAmount.Float64()
		row := []any{
			e.ID, e.CustomerName, e.Phone, e.ProductType, string(e.Status), string(e.CurrentStage),
			quoted, final, invoice, payment,
			e.CreatedAt.Format("2006-01-02 15:04"), e.UpdatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("export row %d: %w", e.ID, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "B", "D", 22); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
