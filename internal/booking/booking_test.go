package booking

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice/internal/catalog"
	"fieldservice/internal/customer"
	"fieldservice/internal/job"
	"fieldservice/internal/quote"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func offering(id, name, price, hours string) catalog.Offering {
	return catalog.Offering{
		ID:             id,
		Name:           name,
		IconKey:        "Leaf",
		BasePrice:      decimal.RequireFromString(price),
		EstimatedHours: decimal.RequireFromString(hours),
		Category:       catalog.CategoryMaintenance,
	}
}

var (
	mow  = offering("o1", "Mow", "40", "1")
	trim = offering("o2", "Trim", "20", "0.5")
	edge = offering("o3", "Edge", "15.25", "0.25")

	alice = customer.Customer{ID: "7", Name: "Alice", Email: "a@example.com", Phone: "555", Address: "1 Elm St"}
)

func start(t *testing.T, kind FlowKind) WorkflowState {
	t.Helper()
	s, err := Start(kind, testNow)
	require.NoError(t, err)
	return s
}

func fillNewCustomer(t *testing.T, s WorkflowState) WorkflowState {
	t.Helper()
	s = SetNewCustomerMode(s, true)
	for field, v := range map[string]string{
		"name": "Bob", "email": "bob@example.com", "phone": "555-0101", "address": "9 Oak Ave",
	} {
		var err error
		s, err = UpdateNewCustomerField(s, field, v)
		require.NoError(t, err)
	}
	return s
}

type fakeStore struct {
	customers  []customer.NewCustomerInput
	jobs       []job.NewJob
	quotes     []quote.NewQuote
	itemCalls  [][]quote.NewItem
	audits     []string
	failJob    error
	failQuote  error
	failItems  error
	customerID string
}

func (f *fakeStore) CreateCustomer(ctx context.Context, in customer.NewCustomerInput) (*customer.Customer, error) {
	f.customers = append(f.customers, in)
	id := f.customerID
	if id == "" {
		id = "c-new"
	}
	return &customer.Customer{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address, ServiceFrequency: in.ServiceFrequency}, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, in job.NewJob) (*job.Job, error) {
	f.jobs = append(f.jobs, in)
	if f.failJob != nil {
		return nil, f.failJob
	}
	return &job.Job{ID: "j1", CustomerID: in.CustomerID, Title: in.Title}, nil
}

func (f *fakeStore) CreateQuote(ctx context.Context, in quote.NewQuote) (*quote.Quote, error) {
	f.quotes = append(f.quotes, in)
	if f.failQuote != nil {
		return nil, f.failQuote
	}
	return &quote.Quote{ID: "q1", CustomerID: in.CustomerID}, nil
}

func (f *fakeStore) CreateQuoteItems(ctx context.Context, items []quote.NewItem) error {
	f.itemCalls = append(f.itemCalls, items)
	return f.failItems
}

func (f *fakeStore) RecordAudit(ctx context.Context, entity, entityID, action string, metadata any) error {
	f.audits = append(f.audits, action)
	return nil
}

func dispatcher(store Store) Dispatcher {
	return Dispatcher{
		Store:         store,
		Log:           zap.NewNop(),
		Now:           func() time.Time { return testNow },
		QuoteValidity: 30 * 24 * time.Hour,
	}
}

func TestToggle_MembershipFollowsParity(t *testing.T) {
	pool := []catalog.Offering{mow, trim, edge}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		set := SelectionSet{}
		counts := map[string]int{}
		for i := rng.Intn(20); i > 0; i-- {
			o := pool[rng.Intn(len(pool))]
			set = set.Toggle(o)
			counts[o.ID]++
		}
		for _, o := range pool {
			assert.Equal(t, counts[o.ID]%2 == 1, set.Contains(o.ID), "run %d offering %s", run, o.ID)
		}
		assert.LessOrEqual(t, set.Len(), len(pool))
	}
}

func TestToggle_DoesNotModifyReceiver(t *testing.T) {
	a := SelectionSet{}.Toggle(mow)
	b := a.Toggle(trim)
	c := b.Toggle(mow)

	assert.Equal(t, []string{"Mow"}, a.Names())
	assert.Equal(t, []string{"Mow", "Trim"}, b.Names())
	assert.Equal(t, []string{"Trim"}, c.Names())
}

func TestTotals_RecomputedAfterEveryMutation(t *testing.T) {
	pool := []catalog.Offering{mow, trim, edge}
	rng := rand.New(rand.NewSource(7))

	set := SelectionSet{}
	for i := 0; i < 100; i++ {
		set = set.Toggle(pool[rng.Intn(len(pool))])

		wantPrice, wantHours := decimal.Zero, decimal.Zero
		for _, o := range set.Items {
			wantPrice = wantPrice.Add(o.BasePrice)
			wantHours = wantHours.Add(o.EstimatedHours)
		}
		require.True(t, wantPrice.Equal(set.TotalPrice()), "price %s != %s", set.TotalPrice(), wantPrice)
		require.True(t, wantHours.Equal(set.TotalHours()), "hours %s != %s", set.TotalHours(), wantHours)
	}
}

func TestChooseServices_InvalidAgainWhenEmptied(t *testing.T) {
	s := SelectCustomer(start(t, FlowQuote), alice)
	s = Next(s)
	require.Equal(t, StepChooseServices, s.CurrentStep().ID)

	s = ToggleOffering(s, mow)
	assert.True(t, s.CanNext())

	s = ToggleOffering(s, mow)
	assert.False(t, s.CanNext())
	assert.Equal(t, 1, Next(s).Step)
}

func TestBack_NoOpOnFirstStep(t *testing.T) {
	s := start(t, FlowProject)
	s = Back(s)
	assert.Equal(t, 0, s.Step)
	assert.False(t, s.CanBack())
}

func TestNext_NoOpWhenInvalid(t *testing.T) {
	s := start(t, FlowProject)
	require.False(t, s.CanNext())
	assert.Equal(t, s, Next(s))
}

func TestNext_StopsAtLastStep(t *testing.T) {
	s := SelectCustomer(start(t, FlowQuote), alice)
	s = Next(ToggleOffering(Next(s), mow))
	require.True(t, s.OnLastStep())

	assert.Equal(t, 2, Next(s).Step)
	assert.Equal(t, "Create Quote", Project(s).NextLabel)
}

func TestNewCustomerMode_RestoresExistingSelection(t *testing.T) {
	s := SelectCustomer(start(t, FlowProject), alice)
	s = SetNewCustomerMode(s, true)
	assert.Nil(t, s.Draft.Customer.Existing)
	assert.False(t, s.CanNext())

	s = SetNewCustomerMode(s, false)
	require.NotNil(t, s.Draft.Customer.Existing)
	assert.Equal(t, "7", s.Draft.Customer.Existing.ID)
	assert.True(t, s.CanNext())
}

func TestSelectExisting_ClearsNewInput(t *testing.T) {
	s := fillNewCustomer(t, start(t, FlowQuote))
	s = SelectCustomer(s, alice)

	assert.Equal(t, ModeExisting, s.Draft.Customer.Mode)
	assert.Empty(t, s.Draft.Customer.New.Name)
	assert.Equal(t, customer.FrequencyMonthly, s.Draft.Customer.New.ServiceFrequency)
}

func TestUpdateNewCustomerField_UnknownField(t *testing.T) {
	_, err := UpdateNewCustomerField(start(t, FlowQuote), "fax", "123")
	require.Error(t, err)
}

func TestStart_Defaults(t *testing.T) {
	p := start(t, FlowProject)
	assert.Equal(t, "2026-03-14", p.Draft.Date)
	assert.Equal(t, "once", p.Draft.Frequency)
	assert.Len(t, Project(p).Steps, 4)

	q := start(t, FlowQuote)
	assert.Empty(t, q.Draft.Date)
	assert.Equal(t, customer.FrequencyMonthly, q.Draft.Customer.New.ServiceFrequency)
	assert.Len(t, Project(q).Steps, 3)

	_, err := Start("invoice", testNow)
	require.ErrorIs(t, err, ErrUnknownFlow)
}

func TestScheduleDetails_RequiresDateAndFrequency(t *testing.T) {
	s := SelectCustomer(start(t, FlowProject), alice)
	s = Next(ToggleOffering(Next(s), mow))
	require.Equal(t, StepScheduleDetails, s.CurrentStep().ID)
	assert.True(t, s.CanNext())

	empty := ""
	s = UpdateDetails(s, Details{Date: &empty})
	assert.False(t, s.CanNext())

	date := "2026-04-01"
	s = UpdateDetails(s, Details{Date: &date, Frequency: &empty})
	assert.False(t, s.CanNext())

	blank := " "
	s = UpdateDetails(s, Details{Date: &blank, Frequency: &blank})
	assert.True(t, s.CanNext(), "whitespace counts as set")
}

// Scenario A.
func TestProjectSubmit_ExistingCustomer(t *testing.T) {
	s := SelectCustomer(start(t, FlowProject), alice)
	s = Next(s)
	s = ToggleOffering(ToggleOffering(s, mow), trim)

	v := Project(s)
	assert.Equal(t, "60", v.TotalPrice.String())
	assert.Equal(t, "1.5", v.TotalHours.String())

	s = Next(Next(s))
	require.True(t, s.Ready())
	assert.Equal(t, "Schedule Project", Project(s).NextLabel)

	store := &fakeStore{}
	out, err := dispatcher(store).Submit(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, store.jobs, 1)
	j := store.jobs[0]
	assert.Equal(t, "Mow, Trim", j.Title)
	assert.Equal(t, "60", j.Price.String())
	assert.Equal(t, "1.5", j.EstimatedHours.String())
	assert.Equal(t, "7", j.CustomerID)
	assert.Equal(t, "1 Elm St", j.Address)
	assert.Equal(t, job.StatusScheduled, j.Status)
	assert.Equal(t, "Services: Mow, Trim", j.Description)
	assert.Equal(t, []string{}, j.Crew)
	assert.Empty(t, store.customers)
	assert.Empty(t, store.quotes)
	assert.Empty(t, store.itemCalls)

	require.NotNil(t, out.Completion)
	assert.Equal(t, "/jobs", out.Completion.Redirect)
	assert.Equal(t, "j1", out.Completion.EntityID)
	assert.Equal(t, []string{"JOB_SCHEDULED"}, store.audits)
}

// Scenario B.
func TestSelectCustomer_NewCustomerNeedsAllFields(t *testing.T) {
	s := fillNewCustomer(t, start(t, FlowProject))
	assert.True(t, s.CanNext())

	s, err := UpdateNewCustomerField(s, "email", "")
	require.NoError(t, err)
	assert.False(t, s.CanNext())
	assert.Equal(t, 0, Next(s).Step)

	s, err = UpdateNewCustomerField(s, "email", "   ")
	require.NoError(t, err)
	assert.True(t, s.CanNext(), "whitespace counts as filled")
}

func TestSelectCustomer_WhitespaceFieldsAreFilled(t *testing.T) {
	s := SetNewCustomerMode(start(t, FlowProject), true)
	for _, field := range []string{"name", "email", "phone", "address"} {
		var err error
		s, err = UpdateNewCustomerField(s, field, " ")
		require.NoError(t, err)
	}
	assert.True(t, s.CanNext())
	assert.Equal(t, 1, Next(s).Step)
}

// Scenario C.
func TestQuoteSubmit_OneItemPerOffering(t *testing.T) {
	s := SelectCustomer(start(t, FlowQuote), alice)
	s = ToggleOffering(ToggleOffering(Next(s), mow), trim)
	notes, emailNote := "Front yard only", "See you Monday"
	s = Next(UpdateDetails(s, Details{Notes: &notes, EmailNote: &emailNote}))
	require.True(t, s.Ready())

	store := &fakeStore{}
	out, err := dispatcher(store).Submit(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, store.quotes, 1)
	q := store.quotes[0]
	assert.Equal(t, "60", q.TotalAmount.String())
	assert.Equal(t, quote.StatusPending, q.Status)
	assert.Equal(t, "Front yard only\n\nEmail Note: See you Monday", q.Notes)
	assert.Equal(t, testNow.Add(30*24*time.Hour), q.ValidUntil)

	require.Len(t, store.itemCalls, 1)
	items := store.itemCalls[0]
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, 1, it.Quantity)
		assert.Equal(t, "q1", it.QuoteID)
	}
	assert.Equal(t, "Mow", items[0].Description)
	assert.Equal(t, "o2", items[1].ProductID)
	assert.Equal(t, "0.5", items[1].EstimatedHours.String())
	assert.Empty(t, store.jobs)

	require.NotNil(t, out.Banner)
	assert.Equal(t, "Quote created successfully!", out.Banner.Message)
}

func TestQuoteSubmit_EmptyNotesTrimmed(t *testing.T) {
	s := SelectCustomer(start(t, FlowQuote), alice)
	s = Next(ToggleOffering(Next(s), mow))

	store := &fakeStore{}
	_, err := dispatcher(store).Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Email Note:", store.quotes[0].Notes)
}

func TestProjectSubmit_NewCustomerTakesBookingFrequency(t *testing.T) {
	s := fillNewCustomer(t, start(t, FlowProject))
	s = ToggleOffering(Next(s), mow)
	weekly := "weekly"
	s = Next(UpdateDetails(Next(s), Details{Frequency: &weekly}))

	store := &fakeStore{customerID: "c9"}
	_, err := dispatcher(store).Submit(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, store.customers, 1)
	assert.Equal(t, customer.FrequencyWeekly, store.customers[0].ServiceFrequency)
	assert.Equal(t, "c9", store.jobs[0].CustomerID)
	assert.Equal(t, "9 Oak Ave", store.jobs[0].Address)
}

func TestSubmit_FailureKeepsDraftAndReusesCustomer(t *testing.T) {
	s := fillNewCustomer(t, start(t, FlowProject))
	s = Next(Next(ToggleOffering(Next(s), mow)))
	require.True(t, s.Ready())

	store := &fakeStore{failJob: errors.New("connection reset")}
	d := dispatcher(store)

	out, err := d.Submit(context.Background(), s)
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, StageJob, werr.Stage)
	assert.Nil(t, out.Completion)
	assert.Equal(t, s.Step, out.Step)
	assert.Equal(t, s.Draft, out.Draft)
	require.NotNil(t, out.Banner)
	assert.Equal(t, "Failed to schedule project. Please try again.", out.Banner.Message)
	require.NotNil(t, out.CreatedCustomer)

	out = DismissBanner(out)
	assert.Nil(t, out.Banner)

	store.failJob = nil
	done, err := d.Submit(context.Background(), out)
	require.NoError(t, err)
	assert.Len(t, store.customers, 1, "retry must not insert the customer again")
	assert.Len(t, store.jobs, 2)
	assert.Nil(t, done.CreatedCustomer)
}

func TestSubmit_QuoteItemsFailureStopsChain(t *testing.T) {
	s := SelectCustomer(start(t, FlowQuote), alice)
	s = Next(ToggleOffering(Next(s), mow))

	store := &fakeStore{failItems: errors.New("boom")}
	out, err := dispatcher(store).Submit(context.Background(), s)
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, StageQuoteItems, werr.Stage)
	assert.Equal(t, "Failed to create quote. Please try again.", out.Banner.Message)
	assert.Empty(t, store.audits)
}

func TestSubmit_NotReady(t *testing.T) {
	store := &fakeStore{}
	_, err := dispatcher(store).Submit(context.Background(), start(t, FlowProject))
	require.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, store.jobs)
}

func TestSettle_QuoteResetsAfterDelay(t *testing.T) {
	s := SelectCustomer(start(t, FlowQuote), alice)
	s = Next(ToggleOffering(Next(s), mow))
	out, err := dispatcher(&fakeStore{}).Submit(context.Background(), s)
	require.NoError(t, err)

	held := Settle(out, testNow.Add(time.Second), 2*time.Second)
	assert.True(t, held.Completed())
	assert.Equal(t, out, ToggleOffering(held, trim), "completed state ignores edits")

	fresh := Settle(out, testNow.Add(2*time.Second), 2*time.Second)
	assert.False(t, fresh.Completed())
	assert.Equal(t, 0, fresh.Step)
	assert.Zero(t, fresh.Draft.Selections.Len())
	assert.Nil(t, fresh.Banner)
}

func TestSettle_ProjectResetsImmediately(t *testing.T) {
	s := SelectCustomer(start(t, FlowProject), alice)
	s = Next(Next(ToggleOffering(Next(s), mow)))
	out, err := dispatcher(&fakeStore{}).Submit(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, Settle(out, testNow, 2*time.Second).Completed())
}

func TestLoadBanner_OnlyOnQuoteFlow(t *testing.T) {
	failed := Lists{OfferingsErr: &FetchError{Source: "offerings", Err: errors.New("down")}}

	q := WithLoadBanner(start(t, FlowQuote), failed)
	require.NotNil(t, q.Banner)
	assert.Equal(t, "Failed to load products", q.Banner.Message)

	p := WithLoadBanner(start(t, FlowProject), failed)
	assert.Nil(t, p.Banner)
}
