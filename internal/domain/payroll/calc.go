package payroll

import (
	"strconv"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/timeclock"
)

var wattsPerKW = decimal.NewFromInt(1000)

// BatteryBucket maps a battery count to its rate key: "1", "2", "3" or "4+".
func BatteryBucket(quantity int) string {
	if quantity >= BatteryBucketMax {
		return strconv.Itoa(BatteryBucketMax) + "+"
	}
	return strconv.Itoa(quantity)
}

// TicketPay prices one install. Battery and per-watt pay are exclusive: any battery
// selects the battery rate, even when that bucket has no rate configured.
func TicketPay(ticket InstallTicket, rates PieceRates) PieceLine {
	line := PieceLine{TicketID: ticket.TicketID, CustomerName: ticket.CustomerName, Basis: BasisNone}
	if ticket.BatteryQuantity > 0 {
		line.Basis = BasisBattery
		if rate, ok := rates.BatteryPayRates[BatteryBucket(ticket.BatteryQuantity)]; ok {
			line.Amount = rate.Round(2)
		}
		return line
	}
	if rates.PerWattRate != nil && rates.PerWattRate.IsPositive() {
		line.Basis = BasisPerWatt
		line.Amount = ticket.SystemSizeKW.Mul(wattsPerKW).Mul(*rates.PerWattRate).Round(2)
	}
	return line
}

func ComputePieceRate(tickets []InstallTicket, rates PieceRates) PieceRate {
	out := PieceRate{Lines: make([]PieceLine, 0, len(tickets))}
	for _, ticket := range tickets {
		line := TicketPay(ticket, rates)
		out.Total = out.Total.Add(line.Amount)
		out.Lines = append(out.Lines, line)
	}
	return out
}

// ComputeHourly prices a tally at rate; salaried employees and missing rates price at zero.
func ComputeHourly(tally timeclock.Tally, rate *decimal.Decimal, isSalary bool) timeclock.Pay {
	if isSalary || rate == nil {
		return timeclock.Pay{}
	}
	return timeclock.HourlyPay(tally, *rate)
}

func (s *EmployeeSummary) computeTotal() {
	s.Total = s.HourlyPay.Total.Add(s.PieceRate.Total).Add(s.Commissions.Total)
}

func (p *PeriodSummary) add(summary EmployeeSummary) {
	p.Employees = append(p.Employees, summary)
	p.TotalHourly = p.TotalHourly.Add(summary.HourlyPay.Total)
	p.TotalPieceRate = p.TotalPieceRate.Add(summary.PieceRate.Total)
	p.TotalCommissions = p.TotalCommissions.Add(summary.Commissions.Total)
	p.Total = p.Total.Add(summary.Total)
}
