package booking

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fieldservice/internal/catalog"
	"fieldservice/internal/customer"
)

type OfferingSource interface {
	ListOfferings(ctx context.Context) ([]catalog.Offering, error)
}

type CustomerSource interface {
	ListCustomers(ctx context.Context) ([]customer.Customer, error)
}

// LoadOfferings reads the catalog ordered by name.
func LoadOfferings(ctx context.Context, src OfferingSource) ([]catalog.Offering, error) {
	items, err := src.ListOfferings(ctx)
	if err != nil {
		return nil, &FetchError{Source: "offerings", Err: err}
	}
	for i := range items {
		items[i].IconKey = catalog.ResolveIcon(items[i].IconKey)
	}
	return items, nil
}

func LoadCustomers(ctx context.Context, src CustomerSource) ([]customer.Customer, error) {
	items, err := src.ListCustomers(ctx)
	if err != nil {
		return nil, &FetchError{Source: "customers", Err: err}
	}
	return items, nil
}

// Lists is what the wizard offers to pick from. A list whose read failed is empty and its error
// is kept.
type Lists struct {
	Offerings    []catalog.Offering  `json:"offerings"`
	Customers    []customer.Customer `json:"customers"`
	OfferingsErr error               `json:"-"`
	CustomersErr error               `json:"-"`
}

// Preload reads both lists concurrently. Failures are logged and degrade to empty lists.
func Preload(ctx context.Context, offerings OfferingSource, customers CustomerSource, log *zap.Logger) Lists {
	var out Lists
	var g errgroup.Group
	g.Go(func() error {
		out.Offerings, out.OfferingsErr = LoadOfferings(ctx, offerings)
		return nil
	})
	g.Go(func() error {
		out.Customers, out.CustomersErr = LoadCustomers(ctx, customers)
		return nil
	})
	_ = g.Wait()

	if out.OfferingsErr != nil {
		log.Warn("booking preload degraded", zap.Error(out.OfferingsErr))
	}
	if out.CustomersErr != nil {
		log.Warn("booking preload degraded", zap.Error(out.CustomersErr))
	}
	if out.Offerings == nil {
		out.Offerings = []catalog.Offering{}
	}
	if out.Customers == nil {
		out.Customers = []customer.Customer{}
	}
	return out
}

// WithLoadBanner surfaces preload failures on flows that show them.
func WithLoadBanner(s WorkflowState, l Lists) WorkflowState {
	if !s.flow().ReportFetchErrors {
		return s
	}
	switch {
	case l.OfferingsErr != nil:
		s.Banner = &Banner{Kind: BannerError, Message: "Failed to load products"}
	case l.CustomersErr != nil:
		s.Banner = &Banner{Kind: BannerError, Message: "Failed to load customers"}
	}
	return s
}

func (l Lists) Offering(id string) (catalog.Offering, bool) {
	for _, o := range l.Offerings {
		if o.ID == id {
			return o, true
		}
	}
	return catalog.Offering{}, false
}

func (l Lists) Customer(id string) (customer.Customer, bool) {
	for _, c := range l.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return customer.Customer{}, false
}
