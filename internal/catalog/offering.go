package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Offering is a sellable service from the catalog. Bookings reference offerings by ID.
type Offering struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	IconKey        string          `json:"icon"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	Category       Category        `json:"category"`
}

type Category string

const (
	CategoryMaintenance  Category = "maintenance"
	CategoryInstallation Category = "installation"
	CategoryDesign       Category = "design"
	CategoryCleanup      Category = "cleanup"
)

// Icons are the keys the UI knows how to draw.
var Icons = []string{"Leaf", "Tree", "Shovel", "Scissors", "Spray", "Ruler", "Rain", "Sun"}

const DefaultIcon = "Leaf"

// ResolveIcon maps unknown or empty keys to DefaultIcon.
func ResolveIcon(key string) string {
	for _, k := range Icons {
		if k == key {
			return k
		}
	}
	return DefaultIcon
}

// Input is the create/update form for an offering.
type Input struct {
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description"`
	IconKey        string          `json:"icon" validate:"omitempty,oneof=Leaf Tree Shovel Scissors Spray Ruler Rain Sun"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
	Category       Category        `json:"category" validate:"omitempty,oneof=maintenance installation design cleanup"`
}

// DefaultInput mirrors the empty product form.
func DefaultInput() Input {
	return Input{
		IconKey:        DefaultIcon,
		BasePrice:      decimal.Zero,
		EstimatedHours: decimal.NewFromInt(1),
		Category:       CategoryMaintenance,
	}
}

// ValidationError is a rejected Input. Message is safe to show to the user.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// Normalize fills defaults and checks the numeric fields struct tags cannot express.
func (in Input) Normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Input{}, ValidationError{Code: "NAME_REQUIRED", Message: "name is required"}
	}
	if in.IconKey == "" {
		in.IconKey = DefaultIcon
	}
	if in.Category == "" {
		in.Category = CategoryMaintenance
	}
	if in.BasePrice.IsNegative() {
		return Input{}, ValidationError{Code: "PRICE_INVALID", Message: "basePrice must be >= 0"}
	}
	if !in.EstimatedHours.IsPositive() {
		return Input{}, ValidationError{Code: "HOURS_INVALID", Message: "estimatedHours must be > 0"}
	}
	return in, nil
}
