package catalog

import (
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/status"
)

// Stats summarizes the catalog for dashboards.
type Stats struct {
	Count     int                   `json:"count"`
	ByStatus  map[models.Status]int `json:"byStatus"`
	ByType    map[string]int        `json:"byType"`
	Priced    int                   `json:"priced"`
	MinPrice  *float64              `json:"minPrice,omitempty"`
	MaxPrice  *float64              `json:"maxPrice,omitempty"`
	AvgPrice  *float64              `json:"avgPrice,omitempty"`
	TotalSqft float64               `json:"totalSqft"`
}

// Stats computes summary figures over the current snapshot.
func (c *Catalog) Stats() Stats {
	return Summarize(c.All())
}

// Summarize computes summary figures over items.
func Summarize(items []models.Property) Stats {
	s := Stats{
		Count:    len(items),
		ByStatus: status.Tally(items),
		ByType:   make(map[string]int),
	}

	var sum, lo, hi float64
	for _, p := range items {
		s.ByType[p.Type]++
		if p.Sqft != nil {
			s.TotalSqft += *p.Sqft
		}
		if !p.HasPrice() {
			continue
		}
		v := *p.Price
		if s.Priced == 0 || v < lo {
			lo = v
		}
		if s.Priced == 0 || v > hi {
			hi = v
		}
		sum += v
		s.Priced++
	}
	if s.Priced > 0 {
		avg := sum / float64(s.Priced)
		s.MinPrice, s.MaxPrice, s.AvgPrice = &lo, &hi, &avg
	}
	return s
}
