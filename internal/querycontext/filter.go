// Package querycontext narrows the property catalog to the slice worth sending
// along with a free-text question. The parsing is a best-effort heuristic: it
// never fails, and when it finds nothing to filter on it passes everything
// through up to the cap.
package querycontext

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/propscope/internal/models"
)

// DefaultMaxItems bounds the context payload when the caller does not.
const DefaultMaxItems = 50

// nearBand is the relative tolerance of near mode.
const nearBand = 0.1

// Mode is the price comparison inferred from the question.
type Mode string

const (
	ModeAtLeast Mode = "at-least"
	ModeAtMost  Mode = "at-most"
	ModeNear    Mode = "near"
)

// Criteria is what Parse extracted from a question.
type Criteria struct {
	MatchedLocationTokens []string `json:"matchedLocationTokens"`
	PriceThreshold        *float64 `json:"priceThreshold,omitempty"`
	Mode                  Mode     `json:"comparisonMode"`
}

// HasLocation reports whether any state matched.
func (c Criteria) HasLocation() bool { return len(c.MatchedLocationTokens) > 0 }

// HasPrice reports whether a usable price threshold was found.
func (c Criteria) HasPrice() bool { return c.PriceThreshold != nil && *c.PriceThreshold > 0 }

var (
	priceRe = regexp.MustCompile(`\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(billion|million|b|m)?\b`)
	wordRe  = regexp.MustCompile(`[a-z]+`)
	atLeast = regexp.MustCompile(`more than|over|above|greater than|at least|>=`)
	atMost  = regexp.MustCompile(`less than|under|below|at most|<=`)
)

// Parse extracts location tokens, a price threshold and the comparison mode from question.
func Parse(question string) Criteria {
	q := strings.ToLower(question)

	words := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(q, -1) {
		words[w] = struct{}{}
	}

	var c Criteria
	for _, st := range states {
		_, abbrHit := words[st.abbr]
		if strings.Contains(q, st.name) || abbrHit {
			c.MatchedLocationTokens = append(c.MatchedLocationTokens, st.name, st.abbr)
		}
	}

	c.PriceThreshold = parsePrice(q)

	switch {
	case atLeast.MatchString(q):
		c.Mode = ModeAtLeast
	case atMost.MatchString(q):
		c.Mode = ModeAtMost
	default:
		c.Mode = ModeNear
	}
	return c
}

func parsePrice(q string) *float64 {
	m := priceRe.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	base, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || math.IsNaN(base) || math.IsInf(base, 0) {
		return nil
	}
	switch m[2] {
	case "b", "billion":
		base *= 1_000_000_000
	case "m", "million":
		base *= 1_000_000
	}
	return &base
}

// Select returns the items relevant to question, capped at maxItems
// (DefaultMaxItems when maxItems <= 0). Input order is preserved and items is
// never modified. An empty result is a valid answer, not an error.
func Select(question string, items []models.Property, maxItems int) []models.Property {
	return Apply(Parse(question), items, maxItems)
}

// Apply filters items by already parsed criteria.
func Apply(c Criteria, items []models.Property, maxItems int) []models.Property {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	out := make([]models.Property, 0, min(len(items), maxItems))
	for _, item := range items {
		if len(out) == maxItems {
			break
		}
		if c.HasLocation() && !addressMatches(item.Address, c.MatchedLocationTokens) {
			continue
		}
		if c.HasPrice() && !priceMatches(item, *c.PriceThreshold, c.Mode) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func addressMatches(address string, tokens []string) bool {
	addr := strings.ToLower(address)
	for _, t := range tokens {
		if strings.Contains(addr, t) {
			return true
		}
	}
	return false
}

func priceMatches(item models.Property, threshold float64, mode Mode) bool {
	if !item.HasPrice() {
		return false
	}
	price := *item.Price
	if math.IsNaN(price) {
		return false
	}
	switch mode {
	case ModeAtLeast:
		return price >= threshold
	case ModeAtMost:
		return price <= threshold
	default:
		return math.Abs(price-threshold) <= threshold*nearBand
	}
}
