package customer

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// row is the flat customers table shape; toJob and fromJob convert at the boundary.
type row struct {
	id               string
	kind             string
	name             string
	email            string
	phone            string
	address          string
	city             string
	state            string
	zip              string
	notes            string
	salesRepID       string
	systemSizeKW     decimal.NullDecimal
	batteryQuantity  int
	panelQuantity    int
	status           string
	contractorID     string
	pricePerWatt     decimal.NullDecimal
	pricePerPanel    decimal.NullDecimal
	adders           []byte
	laborCost        decimal.NullDecimal
	expenses         decimal.NullDecimal
	subcontractState string
	invoiceSentDate  *time.Time
	paidDate         *time.Time
	grossAmount      decimal.NullDecimal
	addersTotal      decimal.NullDecimal
	netAmount        decimal.NullDecimal
	createdAt        time.Time
	updatedAt        time.Time
}

const customerColumns = `
    id, kind, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), COALESCE(city, ''),
    COALESCE(state, ''), COALESCE(zip, ''), COALESCE(notes, ''), COALESCE(sales_rep_id::text, ''),
    system_size_kw, battery_quantity, panel_quantity, COALESCE(status, ''),
    COALESCE(contractor_id::text, ''), price_per_watt, price_per_panel, adders, labor_cost, expenses,
    COALESCE(subcontract_status, ''), invoice_sent_date, paid_date, gross_amount, adders_total, net_amount,
    created_at, updated_at
  `

func (r *row) dest() []any {
	return []any{
		&r.id, &r.kind, &r.name, &r.email, &r.phone, &r.address, &r.city,
		&r.state, &r.zip, &r.notes, &r.salesRepID,
		&r.systemSizeKW, &r.batteryQuantity, &r.panelQuantity, &r.status,
		&r.contractorID, &r.pricePerWatt, &r.pricePerPanel, &r.adders, &r.laborCost, &r.expenses,
		&r.subcontractState, &r.invoiceSentDate, &r.paidDate, &r.grossAmount, &r.addersTotal, &r.netAmount,
		&r.createdAt, &r.updatedAt,
	}
}

func (r *row) toJob() (Job, error) {
	identity := Identity{
		ID:        r.id,
		Name:      r.name,
		Email:     r.email,
		Phone:     r.phone,
		Address:   r.address,
		City:      r.city,
		State:     r.state,
		Zip:       r.zip,
		Notes:     r.notes,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
	switch r.kind {
	case KindCRM:
		return &CrmCustomer{
			Identity:        identity,
			SalesRepID:      r.salesRepID,
			SystemSizeKW:    r.systemSizeKW.Decimal,
			BatteryQuantity: r.batteryQuantity,
			PanelQuantity:   r.panelQuantity,
			Status:          r.status,
		}, nil
	case KindSubcontractNewInstall:
		sub, err := r.subcontract()
		if err != nil {
			return nil, err
		}
		return &SubcontractNewInstall{
			Identity:     identity,
			Subcontract:  sub,
			SystemSizeKW: r.systemSizeKW.Decimal,
			PricePerWatt: r.pricePerWatt.Decimal,
		}, nil
	case KindSubcontractDetachReset:
		sub, err := r.subcontract()
		if err != nil {
			return nil, err
		}
		return &SubcontractDetachReset{
			Identity:      identity,
			Subcontract:   sub,
			PanelQuantity: r.panelQuantity,
			PricePerPanel: r.pricePerPanel.Decimal,
		}, nil
	default:
		return nil, ErrUnknownKind
	}
}

func (r *row) subcontract() (Subcontract, error) {
	sub := Subcontract{
		ContractorID:    r.contractorID,
		Adders:          []Adder{},
		LaborCost:       r.laborCost.Decimal,
		Expenses:        r.expenses.Decimal,
		Status:          r.subcontractState,
		InvoiceSentDate: formatDate(r.invoiceSentDate),
		PaidDate:        formatDate(r.paidDate),
		GrossAmount:     r.grossAmount.Decimal,
		AddersTotal:     r.addersTotal.Decimal,
		NetAmount:       r.netAmount.Decimal,
	}
	if len(r.adders) > 0 {
		if err := json.Unmarshal(r.adders, &sub.Adders); err != nil {
			return Subcontract{}, err
		}
	}
	return sub, nil
}

// values returns the writable columns in writeColumns order.
func values(job Job) ([]any, error) {
	base := job.Base()
	out := []any{
		job.Kind(), base.Name, nullIfEmpty(base.Email), nullIfEmpty(base.Phone), nullIfEmpty(base.Address),
		nullIfEmpty(base.City), nullIfEmpty(base.State), nullIfEmpty(base.Zip), nullIfEmpty(base.Notes),
	}
	var (
		salesRepID, status                          any
		systemSizeKW, pricePerWatt, pricePerPanel   any
		batteryQuantity, panelQuantity              int
		contractorID, subStatus, invoiceSent, paid  any
		adders                                      []byte
		labor, expenses, gross, addersTotal, netAmt any
	)
	switch j := job.(type) {
	case *CrmCustomer:
		salesRepID = nullIfEmpty(j.SalesRepID)
		status = nullIfEmpty(j.Status)
		systemSizeKW = j.SystemSizeKW
		batteryQuantity = j.BatteryQuantity
		panelQuantity = j.PanelQuantity
	case *SubcontractNewInstall:
		systemSizeKW = j.SystemSizeKW
		pricePerWatt = j.PricePerWatt
	case *SubcontractDetachReset:
		panelQuantity = j.PanelQuantity
		pricePerPanel = j.PricePerPanel
	}
	if sub := SubcontractOf(job); sub != nil {
		raw, err := json.Marshal(sub.Adders)
		if err != nil {
			return nil, err
		}
		adders = raw
		contractorID = nullIfEmpty(sub.ContractorID)
		subStatus = nullIfEmpty(sub.Status)
		invoiceSent = nullIfEmpty(sub.InvoiceSentDate)
		paid = nullIfEmpty(sub.PaidDate)
		labor, expenses = sub.LaborCost, sub.Expenses
		gross, addersTotal, netAmt = sub.GrossAmount, sub.AddersTotal, sub.NetAmount
	}
	return append(out,
		salesRepID, systemSizeKW, batteryQuantity, panelQuantity, status,
		contractorID, pricePerWatt, pricePerPanel, adders, labor, expenses,
		subStatus, invoiceSent, paid, gross, addersTotal, netAmt,
	), nil
}

const writeColumns = `kind, name, email, phone, address, city, state, zip, notes,
    sales_rep_id, system_size_kw, battery_quantity, panel_quantity, status,
    contractor_id, price_per_watt, price_per_panel, adders, labor_cost, expenses,
    subcontract_status, invoice_sent_date, paid_date, gross_amount, adders_total, net_amount`

const writeColumnCount = 26

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
