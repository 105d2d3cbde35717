package payroll

import (
	"testing"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/timeclock"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestBatteryBucket(t *testing.T) {
	tests := map[int]string{1: "1", 2: "2", 3: "3", 4: "4+", 7: "4+"}
	for quantity, want := range tests {
		if got := BatteryBucket(quantity); got != want {
			t.Fatalf("quantity %d: expected %s, got %s", quantity, want, got)
		}
	}
}

func TestTicketPayBatteryExcludesPerWatt(t *testing.T) {
	rates := PieceRates{
		PerWattRate:     decPtr("0.05"),
		BatteryPayRates: map[string]decimal.Decimal{"2": dec("150"), "4+": dec("300")},
	}
	line := TicketPay(InstallTicket{TicketID: "t1", SystemSizeKW: dec("8"), BatteryQuantity: 2}, rates)
	if line.Basis != BasisBattery || !line.Amount.Equal(dec("150")) {
		t.Fatalf("expected $150 battery pay, got %+v", line)
	}
}

func TestTicketPay(t *testing.T) {
	rates := PieceRates{
		PerWattRate:     decPtr("0.05"),
		BatteryPayRates: map[string]decimal.Decimal{"2": dec("150"), "4+": dec("300")},
	}
	tests := []struct {
		name      string
		ticket    InstallTicket
		rates     PieceRates
		wantBasis string
		want      string
	}{
		{name: "per watt in watts", ticket: InstallTicket{SystemSizeKW: dec("8")}, rates: rates, wantBasis: BasisPerWatt, want: "400"},
		{name: "four plus bucket", ticket: InstallTicket{SystemSizeKW: dec("8"), BatteryQuantity: 6}, rates: rates, wantBasis: BasisBattery, want: "300"},
		{name: "battery bucket missing pays zero", ticket: InstallTicket{SystemSizeKW: dec("8"), BatteryQuantity: 1}, rates: rates, wantBasis: BasisBattery, want: "0"},
		{name: "no rates", ticket: InstallTicket{SystemSizeKW: dec("8")}, rates: PieceRates{}, wantBasis: BasisNone, want: "0"},
		{name: "zero per watt rate", ticket: InstallTicket{SystemSizeKW: dec("8")}, rates: PieceRates{PerWattRate: decPtr("0")}, wantBasis: BasisNone, want: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			line := TicketPay(tc.ticket, tc.rates)
			if line.Basis != tc.wantBasis || !line.Amount.Equal(dec(tc.want)) {
				t.Fatalf("expected %s %s, got %s %s", tc.wantBasis, tc.want, line.Basis, line.Amount)
			}
		})
	}
}

func TestTicketPayNeverUsesBothRates(t *testing.T) {
	rates := PieceRates{
		PerWattRate: decPtr("0.10"),
		BatteryPayRates: map[string]decimal.Decimal{
			"1": dec("100"), "2": dec("150"), "3": dec("200"), "4+": dec("300"),
		},
	}
	perWatt := dec("7.2").Mul(dec("1000")).Mul(dec("0.10"))
	for quantity := 0; quantity <= 6; quantity++ {
		line := TicketPay(InstallTicket{SystemSizeKW: dec("7.2"), BatteryQuantity: quantity}, rates)
		if quantity == 0 {
			if line.Basis != BasisPerWatt || !line.Amount.Equal(perWatt) {
				t.Fatalf("expected per-watt pay %s without batteries, got %+v", perWatt, line)
			}
			continue
		}
		battery := rates.BatteryPayRates[BatteryBucket(quantity)]
		if line.Basis != BasisBattery || !line.Amount.Equal(battery) {
			t.Fatalf("quantity %d: expected battery pay %s only, got %+v", quantity, battery, line)
		}
	}
}

func TestComputePieceRateTotals(t *testing.T) {
	rates := PieceRates{PerWattRate: decPtr("0.05"), BatteryPayRates: map[string]decimal.Decimal{"2": dec("150")}}
	tickets := []InstallTicket{
		{TicketID: "a", SystemSizeKW: dec("8"), BatteryQuantity: 2},
		{TicketID: "b", SystemSizeKW: dec("6.5")},
	}
	got := ComputePieceRate(tickets, rates)
	if !got.Total.Equal(dec("475")) || len(got.Lines) != 2 {
		t.Fatalf("expected 150 + 325 = 475 over two lines, got %+v", got)
	}
}

func TestComputeHourly(t *testing.T) {
	tally := timeclock.Tally{TotalHours: dec("45"), RegularHours: dec("40"), OvertimeHours: dec("5")}

	pay := ComputeHourly(tally, decPtr("25"), false)
	if !pay.RegularPay.Equal(dec("1000")) || !pay.OvertimePay.Equal(dec("187.5")) {
		t.Fatalf("unexpected hourly pay %+v", pay)
	}
	if pay := ComputeHourly(tally, decPtr("25"), true); !pay.Total.IsZero() {
		t.Fatalf("salaried employee must not be priced hourly, got %s", pay.Total)
	}
	if pay := ComputeHourly(tally, nil, false); !pay.Total.IsZero() {
		t.Fatalf("missing rate must price zero, got %s", pay.Total)
	}
}
