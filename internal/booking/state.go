package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fieldservice/internal/catalog"
	"fieldservice/internal/customer"
)

var ErrUnknownFlow = errors.New("unknown booking flow")

type BannerKind string

const (
	BannerError   BannerKind = "error"
	BannerSuccess BannerKind = "success"
)

type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

// Completion records a successful submission.
type Completion struct {
	EntityID   string    `json:"entityId"`
	CustomerID string    `json:"customerId"`
	Redirect   string    `json:"redirect"`
	At         time.Time `json:"at"`
}

// CreatedCustomer remembers a customer row inserted by a submission whose later writes failed, so
// that a retry with the same input does not insert it again.
type CreatedCustomer struct {
	Customer customer.Customer         `json:"customer"`
	From     customer.NewCustomerInput `json:"from"`
}

// WorkflowState is the whole wizard. Every transition takes a state and returns the next one;
// the argument is never modified.
type WorkflowState struct {
	Flow            FlowKind         `json:"flow"`
	Step            int              `json:"step"`
	Draft           BookingDraft     `json:"draft"`
	Banner          *Banner          `json:"banner,omitempty"`
	Completion      *Completion      `json:"completion,omitempty"`
	CreatedCustomer *CreatedCustomer `json:"createdCustomer,omitempty"`
}

// Start returns a fresh workflow for kind.
func Start(kind FlowKind, today time.Time) (WorkflowState, error) {
	f, ok := FlowFor(kind)
	if !ok {
		return WorkflowState{}, fmt.Errorf("%w: %q", ErrUnknownFlow, kind)
	}
	d := BookingDraft{
		Customer:   newCustomerDraft(f.DefaultCustomerFrequency),
		Selections: SelectionSet{Items: []catalog.Offering{}},
		Frequency:  f.DefaultBookingFrequency,
	}
	if f.DefaultsDateToToday {
		d.Date = today.Format("2006-01-02")
	}
	return WorkflowState{Flow: kind, Draft: d}, nil
}

func (s WorkflowState) flow() Flow {
	f, _ := FlowFor(s.Flow)
	return f
}

// Completed reports whether the submission went through and the state awaits its reset.
func (s WorkflowState) Completed() bool { return s.Completion != nil }

func (s WorkflowState) CurrentStep() Step {
	f := s.flow()
	if len(f.Steps) == 0 {
		return Step{}
	}
	return f.Steps[clamp(s.Step, f.last())]
}

// CanNext reports whether Next would advance.
func (s WorkflowState) CanNext() bool {
	if s.Completed() {
		return false
	}
	f := s.flow()
	i := clamp(s.Step, f.last())
	return i < f.last() && f.Steps[i].Valid(s.Draft)
}

func (s WorkflowState) CanBack() bool {
	return !s.Completed() && clamp(s.Step, s.flow().last()) > 0
}

// OnLastStep reports whether the forward action is the submit action.
func (s WorkflowState) OnLastStep() bool {
	return clamp(s.Step, s.flow().last()) == s.flow().last()
}

// Ready reports whether every step is valid and the state can be submitted.
func (s WorkflowState) Ready() bool {
	if s.Completed() || !s.OnLastStep() {
		return false
	}
	for _, st := range s.flow().Steps {
		if !st.Valid(s.Draft) {
			return false
		}
	}
	return true
}

// Next advances one step when the current one is valid. Otherwise it returns s unchanged.
func Next(s WorkflowState) WorkflowState {
	if !s.CanNext() {
		return s
	}
	s.Step = clamp(s.Step+1, s.flow().last())
	return s
}

// Back moves one step back. It is a no-op on the first step.
func Back(s WorkflowState) WorkflowState {
	if !s.CanBack() {
		return s
	}
	s.Step = clamp(s.Step-1, s.flow().last())
	return s
}

func SelectCustomer(s WorkflowState, c customer.Customer) WorkflowState {
	if s.Completed() {
		return s
	}
	s.Draft.Customer = s.Draft.Customer.SelectExisting(c)
	return s
}

func SetNewCustomerMode(s WorkflowState, on bool) WorkflowState {
	if s.Completed() {
		return s
	}
	s.Draft.Customer = s.Draft.Customer.EnableNewCustomerMode(on)
	return s
}

func UpdateNewCustomerField(s WorkflowState, field, value string) (WorkflowState, error) {
	if s.Completed() {
		return s, nil
	}
	d, err := s.Draft.Customer.UpdateNewCustomerField(field, value)
	if err != nil {
		return s, err
	}
	s.Draft.Customer = d
	return s, nil
}

func ToggleOffering(s WorkflowState, o catalog.Offering) WorkflowState {
	if s.Completed() {
		return s
	}
	s.Draft.Selections = s.Draft.Selections.Toggle(o)
	return s
}

// Details is a partial update of the schedule fields; nil fields are left alone.
type Details struct {
	Date      *string `json:"date"`
	Frequency *string `json:"frequency"`
	Notes     *string `json:"notes"`
	EmailNote *string `json:"emailNote"`
}

func UpdateDetails(s WorkflowState, in Details) WorkflowState {
	if s.Completed() {
		return s
	}
	if in.Date != nil {
		s.Draft.Date = *in.Date
	}
	if in.Frequency != nil {
		s.Draft.Frequency = *in.Frequency
	}
	if in.Notes != nil {
		s.Draft.Notes = *in.Notes
	}
	if in.EmailNote != nil {
		s.Draft.EmailNote = *in.EmailNote
	}
	return s
}

func DismissBanner(s WorkflowState) WorkflowState {
	if s.Banner != nil && s.Banner.Kind == BannerError {
		s.Banner = nil
	}
	return s
}

// Settle starts the workflow over once a completed submission has been shown for delay.
// Flows without a delayed reset start over on the first read after completion.
func Settle(s WorkflowState, now time.Time, delay time.Duration) WorkflowState {
	if !s.Completed() {
		return s
	}
	if s.flow().ResetsAfterDelay && now.Sub(s.Completion.At) < delay {
		return s
	}
	fresh, err := Start(s.Flow, now)
	if err != nil {
		return s
	}
	return fresh
}

func clamp(i, last int) int {
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}
	return i
}

// View is the client-facing projection of a state.
type View struct {
	Flow       FlowKind        `json:"flow"`
	Steps      []StepView      `json:"steps"`
	Current    int             `json:"current"`
	StepID     StepID          `json:"stepId"`
	CanNext    bool            `json:"canNext"`
	CanBack    bool            `json:"canBack"`
	CanSubmit  bool            `json:"canSubmit"`
	NextLabel  string          `json:"nextLabel"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	TotalHours decimal.Decimal `json:"totalHours"`
	Customer   *Summary        `json:"customer,omitempty"`
	Banner     *Banner         `json:"banner,omitempty"`
	Completion *Completion     `json:"completion,omitempty"`
}

type StepView struct {
	Step
	Valid bool `json:"valid"`
}

func Project(s WorkflowState) View {
	f := s.flow()
	v := View{
		Flow:       s.Flow,
		Current:    clamp(s.Step, f.last()),
		StepID:     s.CurrentStep().ID,
		CanNext:    s.CanNext(),
		CanBack:    s.CanBack(),
		CanSubmit:  s.Ready(),
		NextLabel:  "Next",
		TotalPrice: s.Draft.Selections.TotalPrice(),
		TotalHours: s.Draft.Selections.TotalHours(),
		Customer:   s.Draft.Customer.Summary(),
		Banner:     s.Banner,
		Completion: s.Completion,
	}
	if s.OnLastStep() {
		v.NextLabel = f.SubmitLabel
	}
	for _, st := range f.Steps {
		v.Steps = append(v.Steps, StepView{Step: st, Valid: st.Valid(s.Draft)})
	}
	return v
}
