package booking

import "fieldservice/internal/customer"

type FlowKind string

const (
	FlowProject FlowKind = "project"
	FlowQuote   FlowKind = "quote"
)

type StepID string

const (
	StepSelectCustomer  StepID = "select-customer"
	StepChooseServices  StepID = "choose-services"
	StepScheduleDetails StepID = "schedule-details"
	StepReview          StepID = "review"
)

type Step struct {
	ID    StepID `json:"id"`
	Label string `json:"label"`
}

// Valid is the gate for leaving the step forward.
func (s Step) Valid(d BookingDraft) bool {
	switch s.ID {
	case StepSelectCustomer:
		return d.Customer.Valid()
	case StepChooseServices:
		return d.Selections.Len() > 0
	case StepScheduleDetails:
		return d.Date != "" && d.Frequency != ""
	case StepReview:
		return true
	default:
		return false
	}
}

// Flow configures the shared sequencer for one booking kind.
type Flow struct {
	Kind  FlowKind
	Steps []Step

	SubmitLabel    string
	SuccessMessage string
	FailureMessage string

	// ReportFetchErrors shows a banner when a preload list could not be read.
	ReportFetchErrors bool
	// ResetsAfterDelay keeps the success banner up for the reset delay before starting over.
	ResetsAfterDelay bool

	// DefaultCustomerFrequency seeds the new-customer form.
	DefaultCustomerFrequency customer.Frequency
	DefaultBookingFrequency  string
	DefaultsDateToToday      bool
}

const JobsRedirect = "/jobs"

var flows = map[FlowKind]Flow{
	FlowProject: {
		Kind: FlowProject,
		Steps: []Step{
			{StepSelectCustomer, "Select Customer"},
			{StepChooseServices, "Choose Services"},
			{StepScheduleDetails, "Schedule & Details"},
			{StepReview, "Review"},
		},
		SubmitLabel:             "Schedule Project",
		FailureMessage:          "Failed to schedule project. Please try again.",
		DefaultBookingFrequency: "once",
		DefaultsDateToToday:     true,
	},
	FlowQuote: {
		Kind: FlowQuote,
		Steps: []Step{
			{StepSelectCustomer, "Select Customer"},
			{StepChooseServices, "Choose Services"},
			{StepReview, "Review & Send"},
		},
		SubmitLabel:              "Create Quote",
		SuccessMessage:           "Quote created successfully!",
		FailureMessage:           "Failed to create quote. Please try again.",
		ReportFetchErrors:        true,
		ResetsAfterDelay:         true,
		DefaultCustomerFrequency: customer.FrequencyMonthly,
	},
}

// FlowFor returns the configuration for kind.
func FlowFor(kind FlowKind) (Flow, bool) {
	f, ok := flows[kind]
	return f, ok
}

func (f Flow) last() int { return len(f.Steps) - 1 }
