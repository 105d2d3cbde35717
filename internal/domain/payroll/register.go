package payroll

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const registerSheet = "Register"

var registerHeader = []any{
	"Employee ID", "Name", "Role", "Regular Hours", "Overtime Hours",
	"Regular Pay", "Overtime Pay", "Piece Rate", "Commission M1", "Commission M2",
	"Override M1", "Override M2", "Total",
}

// WriteRegister renders the period summary as an xlsx workbook, one row per employee.
func WriteRegister(w io.Writer, summary PeriodSummary) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(registerSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	title := fmt.Sprintf("Pay period %s to %s (pay date %s)", summary.Period.Start, summary.Period.End, summary.Period.PayDate)
	if err := f.SetCellValue(registerSheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(registerSheet, "A3", &registerHeader); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(registerSheet, "A1", "A1", headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(registerSheet, "A3", "M3", headerStyle); err != nil {
		return err
	}

	row := 4
	for _, e := range summary.Employees {
		values := []any{
			e.EmployeeID, e.Name, e.Role,
			e.Hours.RegularHours.InexactFloat64(), e.Hours.OvertimeHours.InexactFloat64(),
			e.HourlyPay.RegularPay.InexactFloat64(), e.HourlyPay.OvertimePay.InexactFloat64(),
			e.PieceRate.Total.InexactFloat64(),
			e.Commissions.M1.InexactFloat64(), e.Commissions.M2.InexactFloat64(),
			e.Commissions.OverrideM1.InexactFloat64(), e.Commissions.OverrideM2.InexactFloat64(),
			e.Total.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	totalsCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	totals := []any{"", "Totals", "", "", "", "", "", summary.TotalPieceRate.InexactFloat64(), "", "", "", "", summary.Total.InexactFloat64()}
	if err := f.SetSheetRow(registerSheet, totalsCell, &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(registerSheet, "F4", fmt.Sprintf("M%d", row), moneyStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(registerSheet, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(registerSheet, "C", "M", 15); err != nil {
		return err
	}

	return f.Write(w)
}
