package subcontract

import (
	"time"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/customer"
)

var wattsPerKW = decimal.NewFromInt(1000)

type Ledger struct {
	Gross       decimal.Decimal `json:"gross"`
	AddersTotal decimal.Decimal `json:"addersTotal"`
	Labor       decimal.Decimal `json:"labor"`
	Expenses    decimal.Decimal `json:"expenses"`
	Net         decimal.Decimal `json:"net"`
}

// AdderAmount prices one adder against the job's size: per_watt scales with kW, per_panel with panels.
func AdderAmount(adder customer.Adder, systemSizeKW decimal.Decimal, panels int) decimal.Decimal {
	switch adder.Type {
	case customer.AdderPerWatt:
		return adder.Amount.Mul(systemSizeKW)
	case customer.AdderPerPanel:
		return adder.Amount.Mul(decimal.NewFromInt(int64(panels)))
	default:
		return adder.Amount
	}
}

func compute(gross decimal.Decimal, sub *customer.Subcontract, systemSizeKW decimal.Decimal, panels int) Ledger {
	ledger := Ledger{Gross: gross, Labor: sub.LaborCost, Expenses: sub.Expenses}
	for _, adder := range sub.Adders {
		ledger.AddersTotal = ledger.AddersTotal.Add(AdderAmount(adder, systemSizeKW, panels))
	}
	ledger.Net = ledger.Gross.Add(ledger.AddersTotal).Sub(ledger.Labor).Sub(ledger.Expenses)
	return ledger
}

// Compute derives the ledger from a subcontract job's inputs. CRM customers have no ledger.
func Compute(job customer.Job) (Ledger, error) {
	switch j := job.(type) {
	case *customer.SubcontractNewInstall:
		gross := j.SystemSizeKW.Mul(wattsPerKW).Mul(j.PricePerWatt)
		return compute(gross, &j.Subcontract, j.SystemSizeKW, 0), nil
	case *customer.SubcontractDetachReset:
		gross := decimal.NewFromInt(int64(j.PanelQuantity)).Mul(j.PricePerPanel)
		return compute(gross, &j.Subcontract, decimal.Zero, j.PanelQuantity), nil
	default:
		return Ledger{}, ErrNotSubcontract
	}
}

// LedgerPricer writes the ledger into a job's denormalized columns.
type LedgerPricer struct{}

func (LedgerPricer) Price(job customer.Job) {
	ledger, err := Compute(job)
	if err != nil {
		return
	}
	sub := customer.SubcontractOf(job)
	sub.GrossAmount = ledger.Gross
	sub.AddersTotal = ledger.AddersTotal
	sub.NetAmount = ledger.Net
}

// SetStatus moves a job to status. Entering invoice_sent or paid stamps today's date
// unless the date is already set.
func SetStatus(job customer.Job, status string, today time.Time) error {
	sub := customer.SubcontractOf(job)
	if sub == nil {
		return ErrNotSubcontract
	}
	if !ValidStatus(job.Kind(), status) {
		return ErrInvalidStatus
	}
	date := today.Format(dateLayout)
	switch status {
	case StatusInvoiceSent:
		if sub.InvoiceSentDate == "" {
			sub.InvoiceSentDate = date
		}
	case StatusPaid:
		if sub.PaidDate == "" {
			sub.PaidDate = date
		}
	}
	sub.Status = status
	return nil
}
