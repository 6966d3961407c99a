// Package models defines the domain types for propscope.
package models

// Status is the lifecycle label a property carries on the map.
type Status string

const (
	StatusOffMarket Status = "off-market"
	StatusForSale   Status = "for-sale"
	StatusTrending  Status = "trending"
	StatusFlagged   Status = "flagged"
)

// Statuses lists every status in the fixed order used for redistribution and legends.
var Statuses = []Status{StatusOffMarket, StatusForSale, StatusTrending, StatusFlagged}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable form shown on cards and legends.
func (s Status) Label() string {
	switch s {
	case StatusOffMarket:
		return "Off Market"
	case StatusForSale:
		return "For Sale"
	case StatusTrending:
		return "Trending"
	case StatusFlagged:
		return "Flagged"
	default:
		return string(s)
	}
}

// Color returns the marker color the map legend uses for s.
// Unknown statuses fall back to the for-sale blue.
func (s Status) Color() string {
	switch s {
	case StatusOffMarket:
		return "#06b6d4"
	case StatusTrending:
		return "#eab308"
	case StatusFlagged:
		return "#ef4444"
	default:
		return "#3b82f6"
	}
}

// Property is one record of the property dataset.
type Property struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Address       string   `json:"address"`
	Type          string   `json:"type"`
	Class         string   `json:"class,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Sqft          *float64 `json:"sqft,omitempty"`
	Status        Status   `json:"status"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	YearBuilt     *int     `json:"yearBuilt,omitempty"`
	Occupancy     *float64 `json:"occupancy,omitempty"`
	TrustScore    *float64 `json:"trustScore,omitempty"`
	LastUpdated   string   `json:"lastUpdated,omitempty"`
	Images        []string `json:"images,omitempty"`
	KeyFeatures   []string `json:"keyFeatures,omitempty"`
	Risks         []string `json:"risks,omitempty"`
	Opportunities []string `json:"opportunities,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// HasPrice reports whether the record carries a usable price.
func (p Property) HasPrice() bool {
	return p.Price != nil
}
