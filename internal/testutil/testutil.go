// Package testutil provides shared test helpers for setting up stores and datasets.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/store"
)

// TestKV creates a temporary SQLite key-value store that is automatically cleaned up.
func TestKV(t *testing.T) *store.SQLite {
	t.Helper()
	kv, err := store.Open(filepath.Join(t.TempDir(), "propscope-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

// TestDataset writes items to a temporary dataset file and returns its path.
func TestDataset(t *testing.T, items []models.Property) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.json")
	if err := catalog.WriteDataset(path, items); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestCatalog returns a catalog holding Properties().
func TestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.NewFromItems(Properties())
}

func f64(v float64) *float64 { return &v }

// Properties is a small fixed dataset spanning several states and price bands.
func Properties() []models.Property {
	return []models.Property{
		{ID: "dal-001", Title: "Commerce Street Tower", Address: "500 Commerce St, Dallas, Texas", Type: "Office", Class: "A", Price: f64(42_000_000), Status: models.StatusForSale, Lat: f64(32.78), Lng: f64(-96.80)},
		{ID: "aus-002", Title: "Eastside Logistics", Address: "2100 E 5th St, Austin, TX 78702", Type: "Industrial", Price: f64(5_500_000), Status: models.StatusTrending, Lat: f64(30.26), Lng: f64(-97.72)},
		{ID: "lb-003", Title: "Harbor Distribution", Address: "12 Harbor Way, Long Beach, California", Type: "Industrial", Price: f64(18_000_000), Status: models.StatusOffMarket, Lat: f64(33.77), Lng: f64(-118.19)},
		{ID: "mia-004", Title: "Brickell Retail Row", Address: "88 Brickell Ave, Miami, Florida", Type: "Retail", Status: models.StatusFlagged, Lat: f64(25.76), Lng: f64(-80.19)},
		{ID: "chi-005", Title: "Fulton Market Lofts", Address: "900 W Fulton St, Chicago, Illinois", Type: "Mixed-Use", Price: f64(2_000_000), Status: models.StatusForSale},
	}
}
