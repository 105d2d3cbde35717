package customer

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrUnknownKind      = errors.New("kind must be crm, subcontract_new_install or subcontract_detach_reset")
	ErrKindChange       = errors.New("a job cannot change kind")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidAdder     = errors.New("adders need a name, a non-negative amount and type fixed, per_watt or per_panel")
	ErrAdderTypeForKind = fmt.Errorf("%w: new installs cannot take per_panel adders and detach/reset jobs cannot take per_watt adders", ErrInvalidAdder)
	ErrNegativeValue    = errors.New("sizes, quantities and costs must not be negative")
	ErrUnknownMilestone = errors.New("unknown timeline milestone")
)
