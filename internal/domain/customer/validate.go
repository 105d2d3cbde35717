package customer

import (
	"strings"

	"github.com/shopspring/decimal"
)

func (i *Identity) normalize() error {
	i.Name = strings.TrimSpace(i.Name)
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	i.Phone = strings.TrimSpace(i.Phone)
	if i.Name == "" {
		return ErrNameRequired
	}
	return nil
}

func (c *CrmCustomer) validate() error {
	if err := c.Identity.normalize(); err != nil {
		return err
	}
	if c.SystemSizeKW.IsNegative() || c.BatteryQuantity < 0 || c.PanelQuantity < 0 {
		return ErrNegativeValue
	}
	return nil
}

func (j *SubcontractNewInstall) validate() error {
	if err := j.Identity.normalize(); err != nil {
		return err
	}
	if j.SystemSizeKW.IsNegative() || j.PricePerWatt.IsNegative() {
		return ErrNegativeValue
	}
	return j.Subcontract.validate(AdderPerPanel)
}

func (j *SubcontractDetachReset) validate() error {
	if err := j.Identity.normalize(); err != nil {
		return err
	}
	if j.PanelQuantity < 0 || j.PricePerPanel.IsNegative() {
		return ErrNegativeValue
	}
	return j.Subcontract.validate(AdderPerWatt)
}

// validate checks the adders; unpriced is the adder type the variant has no quantity for.
func (s *Subcontract) validate(unpriced string) error {
	if s.LaborCost.IsNegative() || s.Expenses.IsNegative() {
		return ErrNegativeValue
	}
	if s.Adders == nil {
		s.Adders = []Adder{}
	}
	for i := range s.Adders {
		s.Adders[i].Name = strings.TrimSpace(s.Adders[i].Name)
		if !validAdder(s.Adders[i]) {
			return ErrInvalidAdder
		}
		if s.Adders[i].Type == unpriced {
			return ErrAdderTypeForKind
		}
	}
	return nil
}

func validAdder(a Adder) bool {
	return a.Name != "" && ValidAdderType(a.Type) && !a.Amount.LessThan(decimal.Zero)
}

// Validate normalizes job in place and reports the first rule it breaks.
func Validate(job Job) error {
	if job == nil {
		return ErrUnknownKind
	}
	return job.validate()
}
