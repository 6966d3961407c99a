// Package catalog holds the in-memory property snapshot loaded from the
// dataset file and answers read queries against it.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/checksum"
	"github.com/starford/propscope/internal/metrics"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/status"
)

// MaxCompare bounds how many properties Compare accepts.
const MaxCompare = 4

// Options configures a Catalog.
type Options struct {
	Path         string
	Redistribute bool
	Weights      status.Weights
	Logger       *slog.Logger
}

// Catalog is safe for concurrent use. Readers always see a complete snapshot.
type Catalog struct {
	opts   Options
	logger *slog.Logger

	loadMu sync.Mutex

	mu       sync.RWMutex
	items    []models.Property
	byID     map[string]int
	checksum string
}

// New creates an empty catalog. Call Load to populate it.
func New(opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Weights == nil {
		opts.Weights = status.DefaultWeights()
	}
	return &Catalog{opts: opts, logger: logger, byID: map[string]int{}}
}

// NewFromItems builds a catalog around an in-memory snapshot.
func NewFromItems(items []models.Property) *Catalog {
	c := New(Options{})
	c.swap(items, "")
	return c
}

// Path returns the dataset file the catalog loads from.
func (c *Catalog) Path() string { return c.opts.Path }

// Checksum returns the checksum of the last loaded dataset file.
func (c *Catalog) Checksum() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checksum
}

// Load reads the dataset file and swaps in the new snapshot. It reports
// false without touching the snapshot when the file is unchanged.
func (c *Catalog) Load() (bool, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	data, err := os.ReadFile(c.opts.Path)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return false, fmt.Errorf("catalog: read dataset: %w", err)
	}
	sum := checksum.Sum(data)
	if sum == c.Checksum() {
		metrics.CatalogReloads.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	items, err := c.decode(data)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return false, err
	}
	c.swap(items, sum)
	metrics.CatalogReloads.WithLabelValues("loaded").Inc()
	c.logger.Info("catalog: loaded",
		slog.String("path", c.opts.Path),
		slog.Int("properties", len(items)))
	return true, nil
}

func (c *Catalog) decode(data []byte) ([]models.Property, error) {
	var items []models.Property
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: decode dataset: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	for _, p := range items {
		if _, dup := seen[p.ID]; dup {
			c.logger.Warn("catalog: duplicate property id", slog.String("id", p.ID))
		}
		seen[p.ID] = struct{}{}
	}

	if c.opts.Redistribute {
		out, err := status.Redistribute(items, c.opts.Weights)
		if err != nil {
			return nil, fmt.Errorf("catalog: redistribute: %w", err)
		}
		items = out
	}
	return items, nil
}

func (c *Catalog) swap(items []models.Property, sum string) {
	byID := make(map[string]int, len(items))
	for i, p := range items {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = i
		}
	}
	c.mu.Lock()
	c.items = items
	c.byID = byID
	c.checksum = sum
	c.mu.Unlock()
	metrics.CatalogSize.Set(float64(len(items)))
}

// All returns a copy of the current snapshot in dataset order.
func (c *Catalog) All() []models.Property {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Property, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of properties in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the property with id. The first record wins when ids repeat.
func (c *Catalog) Get(id string) (models.Property, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return models.Property{}, fmt.Errorf("catalog: property %q: %w", id, apperr.ErrNotFound)
	}
	return c.items[i], nil
}

// Sort orders accepted by List.
const (
	SortDefault   = ""
	SortPriceAsc  = "price"
	SortPriceDesc = "-price"
	SortTitle     = "title"
	SortTrust     = "-trust"
)

// ListQuery filters and pages List results.
type ListQuery struct {
	Query  string
	Status models.Status
	Type   string
	Sort   string
	Limit  int
	Offset int
}

// List returns the page of properties matching q and the total match count.
// Query matches case-insensitively against title, address and type.
func (c *Catalog) List(q ListQuery) ([]models.Property, int, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, q.Status)
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: limit and offset must be nonnegative", apperr.ErrInvalidInput)
	}

	needle := strings.ToLower(strings.TrimSpace(q.Query))
	var out []models.Property
	for _, p := range c.All() {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.Type != "" && !strings.EqualFold(p.Type, q.Type) {
			continue
		}
		if needle != "" && !matchesQuery(p, needle) {
			continue
		}
		out = append(out, p)
	}

	if err := sortProperties(out, q.Sort); err != nil {
		return nil, 0, err
	}

	total := len(out)
	if q.Offset >= total {
		return []models.Property{}, total, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func matchesQuery(p models.Property, needle string) bool {
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Address), needle) ||
		strings.Contains(strings.ToLower(p.Type), needle)
}

func sortProperties(items []models.Property, by string) error {
	switch by {
	case SortDefault:
	case SortPriceAsc, SortPriceDesc:
		desc := by == SortPriceDesc
		// Unpriced records always sort last.
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].Price, items[j].Price
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			if desc {
				return *a > *b
			}
			return *a < *b
		})
	case SortTitle:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		})
	case SortTrust:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].TrustScore, items[j].TrustScore
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return *a > *b
		})
	default:
		return fmt.Errorf("%w: unknown sort %q", apperr.ErrInvalidInput, by)
	}
	return nil
}

// Compare returns the requested properties in request order.
func (c *Catalog) Compare(ids []string) ([]models.Property, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no property ids to compare", apperr.ErrInvalidInput)
	}
	if len(ids) > MaxCompare {
		return nil, fmt.Errorf("%w: at most %d properties can be compared", apperr.ErrInvalidInput, MaxCompare)
	}
	out := make([]models.Property, 0, len(ids))
	for _, id := range ids {
		p, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Marker is the map pin for one property.
type Marker struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Lat    float64       `json:"lat"`
	Lng    float64       `json:"lng"`
	Status models.Status `json:"status"`
	Color  string        `json:"color"`
	Price  *float64      `json:"price,omitempty"`
}

// Markers returns pins for every property that has coordinates.
func (c *Catalog) Markers() []Marker {
	items := c.All()
	out := make([]Marker, 0, len(items))
	for _, p := range items {
		if p.Lat == nil || p.Lng == nil {
			continue
		}
		out = append(out, Marker{
			ID:     p.ID,
			Title:  p.Title,
			Lat:    *p.Lat,
			Lng:    *p.Lng,
			Status: p.Status,
			Color:  p.Status.Color(),
			Price:  p.Price,
		})
	}
	return out
}
