package booking

import (
	"github.com/shopspring/decimal"

	"fieldservice/internal/catalog"
)

// SelectionSet is the set of chosen offerings, keyed by offering id. Insertion order is kept for
// display and job titles; totals do not depend on it.
type SelectionSet struct {
	Items []catalog.Offering `json:"items"`
}

func (s SelectionSet) Contains(id string) bool {
	for _, o := range s.Items {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Toggle removes o when it is selected and adds it otherwise. The receiver is not modified.
func (s SelectionSet) Toggle(o catalog.Offering) SelectionSet {
	out := make([]catalog.Offering, 0, len(s.Items)+1)
	removed := false
	for _, it := range s.Items {
		if it.ID == o.ID {
			removed = true
			continue
		}
		out = append(out, it)
	}
	if !removed {
		out = append(out, o)
	}
	return SelectionSet{Items: out}
}

func (s SelectionSet) Len() int { return len(s.Items) }

func (s SelectionSet) TotalPrice() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range s.Items {
		sum = sum.Add(o.BasePrice)
	}
	return sum
}

func (s SelectionSet) TotalHours() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range s.Items {
		sum = sum.Add(o.EstimatedHours)
	}
	return sum
}

func (s SelectionSet) Names() []string {
	out := make([]string, 0, len(s.Items))
	for _, o := range s.Items {
		out = append(out, o.Name)
	}
	return out
}
