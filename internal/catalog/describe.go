package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/starford/propscope/internal/models"
)

// Describe builds a prose description of p from its structured fields.
func Describe(p models.Property) string {
	parts := make([]string, 0, 12)

	head := fmt.Sprintf("%s at %s is a %s", p.Title, p.Address, p.Type)
	if p.Class != "" {
		head += ", Class " + p.Class
	}
	parts = append(parts, head+" asset.")

	if p.Sqft != nil && *p.Sqft != 0 {
		parts = append(parts, fmt.Sprintf("The property comprises approximately %s square feet.", groupDigits(*p.Sqft)))
	}
	if p.YearBuilt != nil && *p.YearBuilt != 0 {
		parts = append(parts, fmt.Sprintf("Originally delivered in %d, it has been maintained to modern standards.", *p.YearBuilt))
	}
	if p.Occupancy != nil {
		parts = append(parts, fmt.Sprintf("Current reported occupancy is %s%%.", formatNumber(*p.Occupancy)))
	}
	if p.Price != nil && *p.Price != 0 {
		parts = append(parts, fmt.Sprintf("Pricing guidance is around $%s.", groupDigits(*p.Price)))
	}
	if p.Status != "" {
		parts = append(parts, fmt.Sprintf("Current status: %s.", strings.Replace(string(p.Status), "-", " ", 1)))
	}
	if len(p.KeyFeatures) > 0 {
		parts = append(parts, fmt.Sprintf("Key features include %s.", strings.Join(p.KeyFeatures, ", ")))
	}
	if len(p.Opportunities) > 0 {
		parts = append(parts, fmt.Sprintf("Opportunities: %s.", strings.Join(p.Opportunities, ", ")))
	}
	if len(p.Risks) > 0 {
		parts = append(parts, fmt.Sprintf("Considerations/Risks: %s.", strings.Join(p.Risks, ", ")))
	}
	if p.TrustScore != nil {
		parts = append(parts, fmt.Sprintf("Trust score: %s based on verified sources and data freshness.", formatNumber(*p.TrustScore)))
	}
	parts = append(parts, "Location context, tenant appeal, and surrounding amenities support continued interest from target user groups.")

	return strings.Join(parts, " ")
}

// WithDescription returns p with Description filled in when it was empty.
func WithDescription(p models.Property) models.Property {
	if strings.TrimSpace(p.Description) == "" {
		p.Description = Describe(p)
	}
	return p
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupDigits renders v with thousands separators and at most three decimals.
func groupDigits(v float64) string {
	neg := v < 0
	v = math.Round(math.Abs(v)*1000) / 1000

	whole, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
