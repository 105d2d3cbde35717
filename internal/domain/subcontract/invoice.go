package subcontract

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"solarops/internal/domain/customer"
	"solarops/internal/platform/money"
)

// WriteInvoice renders the contractor invoice for a subcontract job.
func WriteInvoice(w io.Writer, job customer.Job, contractor *Contractor, ledger Ledger) error {
	sub := customer.SubcontractOf(job)
	if sub == nil {
		return ErrNotSubcontract
	}
	base := job.Base()

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Subcontract Invoice")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if contractor != nil {
		name := contractor.Name
		if contractor.Company != "" {
			name = fmt.Sprintf("%s (%s)", contractor.Name, contractor.Company)
		}
		pdf.Cell(0, 6, "Contractor: "+name)
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Job: "+base.Name)
	pdf.Ln(6)
	if base.Address != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Site: %s, %s %s %s", base.Address, base.City, base.State, base.Zip))
		pdf.Ln(6)
	}
	if sub.InvoiceSentDate != "" {
		pdf.Cell(0, 6, "Invoice date: "+sub.InvoiceSentDate)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	line := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(130, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, money.Format(amount), "", 1, "R", false, 0, "")
	}

	switch j := job.(type) {
	case *customer.SubcontractNewInstall:
		line(fmt.Sprintf("Install %s kW at %s/W", j.SystemSizeKW.String(), j.PricePerWatt.StringFixed(2)), ledger.Gross)
	case *customer.SubcontractDetachReset:
		line(fmt.Sprintf("Detach/reset %d panels at %s", j.PanelQuantity, money.Format(j.PricePerPanel)), ledger.Gross)
	}
	for _, adder := range sub.Adders {
		line(fmt.Sprintf("Adder: %s (%s)", adder.Name, adder.Type), AdderAmount(adder, systemSize(job), panelCount(job)))
	}
	line("Labor", ledger.Labor.Neg())
	line("Expenses", ledger.Expenses.Neg())

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 8, "Net", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, money.Format(ledger.Net), "T", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func systemSize(job customer.Job) decimal.Decimal {
	if j, ok := job.(*customer.SubcontractNewInstall); ok {
		return j.SystemSizeKW
	}
	return decimal.Zero
}

func panelCount(job customer.Job) int {
	if j, ok := job.(*customer.SubcontractDetachReset); ok {
		return j.PanelQuantity
	}
	return 0
}
