// Package status relabels property statuses so the dataset matches a target mix.
package status

import (
	"fmt"
	"math"
	"sort"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/models"
)

// Weights maps each status to a nonnegative weight. Weights are normalized,
// so they do not need to sum to 1. Missing statuses weigh zero.
type Weights map[models.Status]float64

// DefaultWeights is the mix the demo dataset ships with.
func DefaultWeights() Weights {
	return Weights{
		models.StatusOffMarket: 0.4,
		models.StatusForSale:   0.3,
		models.StatusTrending:  0.2,
		models.StatusFlagged:   0.1,
	}
}

// Validate checks that w can be normalized.
func (w Weights) Validate() error {
	_, err := w.normalized()
	return err
}

func (w Weights) normalized() ([]float64, error) {
	for st, v := range w {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q in weights", apperr.ErrInvalidConfiguration, st)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: weight for %q must be a finite nonnegative number", apperr.ErrInvalidConfiguration, st)
		}
	}

	var total float64
	for _, st := range models.Statuses {
		total += w[st]
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: status weights sum to zero", apperr.ErrInvalidConfiguration)
	}

	out := make([]float64, len(models.Statuses))
	for i, st := range models.Statuses {
		out[i] = w[st] / total
	}
	return out, nil
}

// Counts returns how many of n items each status receives under w.
// The result is indexed in models.Statuses order and always sums to n.
func Counts(n int, w Weights) ([]int, error) {
	norm, err := w.normalized()
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(norm))
	assigned := 0
	for i, share := range norm {
		counts[i] = int(math.Floor(share * float64(n)))
		assigned += counts[i]
	}
	for i := 0; assigned < n; i = (i + 1) % len(counts) {
		counts[i]++
		assigned++
	}
	return counts, nil
}

// Redistribute returns a copy of items in the same order with the Status field
// rewritten so the status proportions follow w. Assignment is keyed on the
// sorted id position, so the same set of items gets the same labels no matter
// what order it arrives in or what statuses it carried before.
//
// Items sharing an id all receive the label of the last of them in sorted order.
func Redistribute(items []models.Property, w Weights) ([]models.Property, error) {
	counts, err := Counts(len(items), w)
	if err != nil {
		return nil, err
	}

	labels := make([]models.Status, 0, len(items))
	for i, st := range models.Statuses {
		for j := 0; j < counts[i]; j++ {
			labels = append(labels, st)
		}
	}

	sorted := make([]models.Property, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[string]models.Status, len(sorted))
	for i := range sorted {
		byID[sorted[i].ID] = labels[i]
	}

	out := make([]models.Property, len(items))
	for i, item := range items {
		out[i] = item
		if st, ok := byID[item.ID]; ok {
			out[i].Status = st
		}
	}
	return out, nil
}

// Tally counts how many items carry each status. Statuses outside the known
// set are counted under their raw value.
func Tally(items []models.Property) map[models.Status]int {
	out := make(map[models.Status]int, len(models.Statuses))
	for _, st := range models.Statuses {
		out[st] = 0
	}
	for _, item := range items {
		out[item.Status]++
	}
	return out
}
