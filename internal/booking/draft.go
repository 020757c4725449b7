package booking

import (
	"fmt"

	"fieldservice/internal/customer"
)

type CustomerMode string

const (
	ModeExisting CustomerMode = "existing"
	ModeNew      CustomerMode = "new"
)

// CustomerDraft resolves to exactly one customer for submission, chosen by Mode. Stashed holds
// the existing customer hidden while new-customer mode is on.
type CustomerDraft struct {
	Mode             CustomerMode              `json:"mode"`
	Existing         *customer.Customer        `json:"existing,omitempty"`
	Stashed          *customer.Customer        `json:"stashed,omitempty"`
	New              customer.NewCustomerInput `json:"new"`
	DefaultFrequency customer.Frequency        `json:"defaultFrequency,omitempty"`
}

func newCustomerDraft(defaultFreq customer.Frequency) CustomerDraft {
	return CustomerDraft{
		Mode:             ModeExisting,
		New:              customer.NewCustomerInput{ServiceFrequency: defaultFreq},
		DefaultFrequency: defaultFreq,
	}
}

// SelectExisting activates c and clears any new-customer input.
func (d CustomerDraft) SelectExisting(c customer.Customer) CustomerDraft {
	d.Mode = ModeExisting
	d.Existing = &c
	d.Stashed = nil
	d.New = customer.NewCustomerInput{ServiceFrequency: d.DefaultFrequency}
	return d
}

// EnableNewCustomerMode switches modes. Turning new mode off brings back the customer that was
// selected before it was turned on.
func (d CustomerDraft) EnableNewCustomerMode(on bool) CustomerDraft {
	if on {
		if d.Mode == ModeNew {
			return d
		}
		d.Mode = ModeNew
		if d.Existing != nil {
			d.Stashed = d.Existing
		}
		d.Existing = nil
		return d
	}

	d.Mode = ModeExisting
	if d.Existing == nil {
		d.Existing = d.Stashed
	}
	d.Stashed = nil
	return d
}

// UpdateNewCustomerField sets one attribute of the new-customer input. Values are not validated.
func (d CustomerDraft) UpdateNewCustomerField(field, value string) (CustomerDraft, error) {
	switch field {
	case "name":
		d.New.Name = value
	case "email":
		d.New.Email = value
	case "phone":
		d.New.Phone = value
	case "address":
		d.New.Address = value
	case "serviceFrequency":
		d.New.ServiceFrequency = customer.Frequency(value)
	default:
		return d, fmt.Errorf("unknown customer field %q", field)
	}
	return d, nil
}

// Valid is the SelectCustomer step predicate.
func (d CustomerDraft) Valid() bool {
	if d.Mode == ModeNew {
		return d.New.Complete()
	}
	return d.Existing != nil
}

// Summary is the contact block shown on the review step.
type Summary struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	New     bool   `json:"new"`
}

func (d CustomerDraft) Summary() *Summary {
	if d.Mode == ModeNew {
		n := d.New
		return &Summary{Name: n.Name, Email: n.Email, Phone: n.Phone, Address: n.Address, New: true}
	}
	if d.Existing == nil {
		return nil
	}
	c := d.Existing
	return &Summary{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}

// BookingDraft is everything the wizard collects before submission.
type BookingDraft struct {
	Customer   CustomerDraft `json:"customer"`
	Selections SelectionSet  `json:"selections"`
	Date       string        `json:"date,omitempty"`
	Frequency  string        `json:"frequency,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	EmailNote  string        `json:"emailNote,omitempty"`
}
