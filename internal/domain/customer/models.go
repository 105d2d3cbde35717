package customer

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Identity is the shape every job variant shares.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Job is one row of the customers table. The concrete type is selected by Kind.
type Job interface {
	Kind() string
	Base() *Identity
	validate() error
}

type CrmCustomer struct {
	Identity
	SalesRepID      string          `json:"salesRepId,omitempty"`
	SystemSizeKW    decimal.Decimal `json:"systemSizeKw"`
	BatteryQuantity int             `json:"batteryQuantity"`
	PanelQuantity   int             `json:"panelQuantity"`
	Status          string          `json:"status,omitempty"`
}

type Adder struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
}

// Subcontract carries what both subcontract variants bill with.
type Subcontract struct {
	ContractorID    string          `json:"contractorId,omitempty"`
	Adders          []Adder         `json:"adders"`
	LaborCost       decimal.Decimal `json:"laborCost"`
	Expenses        decimal.Decimal `json:"expenses"`
	Status          string          `json:"subcontractStatus"`
	InvoiceSentDate string          `json:"invoiceSentDate,omitempty"`
	PaidDate        string          `json:"paidDate,omitempty"`
	GrossAmount     decimal.Decimal `json:"grossAmount"`
	AddersTotal     decimal.Decimal `json:"addersTotal"`
	NetAmount       decimal.Decimal `json:"netAmount"`
}

type SubcontractNewInstall struct {
	Identity
	Subcontract
	SystemSizeKW decimal.Decimal `json:"systemSizeKw"`
	PricePerWatt decimal.Decimal `json:"pricePerWatt"`
}

type SubcontractDetachReset struct {
	Identity
	Subcontract
	PanelQuantity int             `json:"panelQuantity"`
	PricePerPanel decimal.Decimal `json:"pricePerPanel"`
}

func (c *CrmCustomer) Kind() string { return KindCRM }

func (c *CrmCustomer) Base() *Identity { return &c.Identity }

func (j *SubcontractNewInstall) Kind() string { return KindSubcontractNewInstall }

func (j *SubcontractNewInstall) Base() *Identity { return &j.Identity }

func (j *SubcontractDetachReset) Kind() string { return KindSubcontractDetachReset }

func (j *SubcontractDetachReset) Base() *Identity { return &j.Identity }

// SubcontractOf returns the billing terms of a subcontract variant, or nil for CRM customers.
func SubcontractOf(job Job) *Subcontract {
	switch j := job.(type) {
	case *SubcontractNewInstall:
		return &j.Subcontract
	case *SubcontractDetachReset:
		return &j.Subcontract
	default:
		return nil
	}
}

type jobEnvelope struct {
	Kind string `json:"kind"`
}

// DecodeJob reads a JSON job and returns the variant named by its "kind" field.
func DecodeJob(raw []byte) (Job, error) {
	return DecodeJobAs(raw, "")
}

// DecodeJobAs is DecodeJob with fallbackKind used when the payload omits "kind".
func DecodeJobAs(raw []byte, fallbackKind string) (Job, error) {
	var env jobEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Kind == "" {
		env.Kind = fallbackKind
	}
	job, err := newJob(env.Kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, job); err != nil {
		return nil, err
	}
	return job, nil
}

func newJob(kind string) (Job, error) {
	switch kind {
	case KindCRM:
		return &CrmCustomer{}, nil
	case KindSubcontractNewInstall:
		return &SubcontractNewInstall{}, nil
	case KindSubcontractDetachReset:
		return &SubcontractDetachReset{}, nil
	default:
		return nil, ErrUnknownKind
	}
}

// MarshalJob encodes a job with its "kind" discriminant.
func MarshalJob(job Job) ([]byte, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(job.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// View is the JSON shape handlers return for any variant.
type View struct {
	Job Job
}

func (v View) MarshalJSON() ([]byte, error) {
	return MarshalJob(v.Job)
}

type ListFilter struct {
	Kind            string
	Search          string
	SalesRepID      string
	SubcontractOnly bool
	Limit           int
	Offset          int
}

type TimelineEntry struct {
	CustomerID string    `json:"customerId"`
	Milestone  string    `json:"milestone"`
	TicketID   string    `json:"ticketId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Note       string    `json:"note,omitempty"`
}

type Document struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	FileName   string    `json:"fileName"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
