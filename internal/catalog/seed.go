package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Offerings []seedOffering `yaml:"offerings"`
}

type seedOffering struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Icon           string `yaml:"icon"`
	BasePrice      string `yaml:"base_price"`
	EstimatedHours string `yaml:"estimated_hours"`
	Category       string `yaml:"category"`
}

// ParseSeed reads a catalog seed document. Prices and hours are decimal strings; a missing
// estimated_hours means one hour.
func ParseSeed(r io.Reader) ([]Input, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]Input, 0, len(f.Offerings))
	for i, o := range f.Offerings {
		in := DefaultInput()
		in.Name = o.Name
		in.Description = o.Description
		if o.Icon != "" {
			in.IconKey = o.Icon
		}
		if o.Category != "" {
			in.Category = Category(o.Category)
		}
		var err error
		if o.BasePrice != "" {
			if in.BasePrice, err = decimal.NewFromString(o.BasePrice); err != nil {
				return nil, fmt.Errorf("offering %d: base_price: %w", i, err)
			}
		}
		if o.EstimatedHours != "" {
			if in.EstimatedHours, err = decimal.NewFromString(o.EstimatedHours); err != nil {
				return nil, fmt.Errorf("offering %d: estimated_hours: %w", i, err)
			}
		}
		if in, err = in.Normalize(); err != nil {
			return nil, fmt.Errorf("offering %d: %w", i, err)
		}
		out = append(out, in)
	}
	return out, nil
}

// Seed creates every input whose name is not already in the catalog (case-insensitive) and
// returns how many were created.
func Seed(ctx context.Context, s Store, inputs []Input) (int, error) {
	existing, err := s.ListOfferings(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, o := range existing {
		seen[strings.ToLower(o.Name)] = true
	}

	created := 0
	for _, in := range inputs {
		key := strings.ToLower(in.Name)
		if seen[key] {
			continue
		}
		if _, err := s.Create(ctx, in); err != nil {
			return created, fmt.Errorf("create %q: %w", in.Name, err)
		}
		seen[key] = true
		created++
	}
	return created, nil
}
