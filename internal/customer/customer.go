package customer

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

type Customer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Address          string    `json:"address"`
	ServiceFrequency Frequency `json:"serviceFrequency,omitempty"`

	ActiveJobs    int `json:"activeJobs"`
	ScheduledJobs int `json:"scheduledJobs"`
	PendingQuotes int `json:"pendingQuotes"`
	TotalInvoices int `json:"totalInvoices"`
}

// NewCustomerInput is a customer that has not been persisted yet.
type NewCustomerInput struct {
	Name             string    `json:"name" validate:"required"`
	Email            string    `json:"email" validate:"required,email"`
	Phone            string    `json:"phone" validate:"required"`
	Address          string    `json:"address" validate:"required"`
	ServiceFrequency Frequency `json:"serviceFrequency,omitempty" validate:"omitempty,oneof=weekly biweekly monthly quarterly"`
}

// Complete reports whether every contact field is non-empty. Whitespace counts as filled.
func (in NewCustomerInput) Complete() bool {
	for _, v := range []string{in.Name, in.Email, in.Phone, in.Address} {
		if v == "" {
			return false
		}
	}
	return true
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Search    string
	Frequency Frequency
}
