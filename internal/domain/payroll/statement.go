package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"solarops/internal/platform/money"
)

// WriteStatement renders one employee's pay statement as a PDF.
func WriteStatement(w io.Writer, summary EmployeeSummary) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Pay Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", summary.Name))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", summary.Period.Start, summary.Period.End))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Pay date: %s", summary.Period.PayDate))
	pdf.Ln(10)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(120, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, money.Format(amount), "", 1, "R", false, 0, "")
	}

	section("Hours")
	if summary.IsSalary {
		pdf.Cell(0, 6, fmt.Sprintf("Salaried: %s hours recorded", summary.Hours.TotalHours.StringFixed(2)))
		pdf.Ln(6)
	} else {
		line(fmt.Sprintf("Regular (%s h)", summary.Hours.RegularHours.StringFixed(2)), summary.HourlyPay.RegularPay)
		line(fmt.Sprintf("Overtime (%s h)", summary.Hours.OvertimeHours.StringFixed(2)), summary.HourlyPay.OvertimePay)
	}
	pdf.Ln(4)

	if len(summary.PieceRate.Lines) > 0 {
		section("Installations")
		for _, l := range summary.PieceRate.Lines {
			line(fmt.Sprintf("%s (%s)", l.CustomerName, l.Basis), l.Amount)
		}
		pdf.Ln(4)
	}

	if len(summary.Commissions.Lines) > 0 {
		section("Commissions")
		for _, l := range summary.Commissions.Lines {
			line(fmt.Sprintf("%s %s", l.CustomerName, l.Target), l.Amount)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money.Format(summary.Total), "T", 1, "R", false, 0, "")

	return pdf.Output(w)
}
