package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/status"
)

func f64(v float64) *float64 { return &v }

func sampleItems() []models.Property {
	return []models.Property{
		{ID: "p1", Title: "Harbor Point", Address: "1 Harbor Way, Long Beach, California", Type: "Industrial", Price: f64(12_000_000), Status: models.StatusForSale, Lat: f64(33.76), Lng: f64(-118.19)},
		{ID: "p2", Title: "Congress Tower", Address: "100 Congress Ave, Austin, TX", Type: "Office", Price: f64(48_000_000), Status: models.StatusTrending, Lat: f64(30.26), Lng: f64(-97.74), TrustScore: f64(91)},
		{ID: "p3", Title: "Midtown Lofts", Address: "55 Peachtree St, Atlanta, Georgia", Type: "Residential", Status: models.StatusOffMarket},
		{ID: "p4", Title: "Lakeside Retail", Address: "8 Lake St, Chicago, Illinois", Type: "Retail", Price: f64(3_500_000), Status: models.StatusFlagged, Lat: f64(41.88), Lng: f64(-87.63), TrustScore: f64(64)},
	}
}

func writeDataset(t *testing.T, items []models.Property) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.json")
	if err := WriteDataset(path, items); err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}
	return path
}

func TestLoad_ReadsDataset(t *testing.T) {
	c := New(Options{Path: writeDataset(t, sampleItems())})
	changed, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !changed {
		t.Fatal("first load reported unchanged")
	}
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}
	if c.Checksum() == "" {
		t.Error("checksum not recorded")
	}
}

func TestLoad_UnchangedIsNoop(t *testing.T) {
	c := New(Options{Path: writeDataset(t, sampleItems())})
	if _, err := c.Load(); err != nil {
		t.Fatal(err)
	}
	changed, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second load of same file reported changed")
	}
}

func TestLoad_RedistributesStatuses(t *testing.T) {
	items := make([]models.Property, 20)
	for i := range items {
		items[i] = models.Property{ID: fmt.Sprintf("id-%02d", i), Status: models.StatusForSale}
	}
	c := New(Options{Path: writeDataset(t, items), Redistribute: true, Weights: status.DefaultWeights()})
	if _, err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := status.Tally(c.All())
	if got[models.StatusOffMarket] != 8 || got[models.StatusForSale] != 6 || got[models.StatusTrending] != 4 || got[models.StatusFlagged] != 2 {
		t.Errorf("tally = %v", got)
	}
}

func TestLoad_InvalidWeightsKeepsPreviousSnapshot(t *testing.T) {
	path := writeDataset(t, sampleItems())
	c := New(Options{Path: path})
	if _, err := c.Load(); err != nil {
		t.Fatal(err)
	}

	c.opts.Redistribute = true
	c.opts.Weights = status.Weights{}
	if err := WriteDataset(path, sampleItems()[:2]); err != nil {
		t.Fatal(err)
	}
	_, err := c.Load()
	if !errors.Is(err, apperr.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
	if c.Len() != 4 {
		t.Errorf("snapshot replaced after failed load: Len = %d", c.Len())
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.json")
	if err := os.WriteFile(path, []byte("[{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Options{Path: path}).Load(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := New(Options{Path: filepath.Join(t.TempDir(), "nope.json")}).Load(); err == nil {
		t.Fatal("expected read error")
	}
}

func TestGet(t *testing.T) {
	c := NewFromItems(sampleItems())
	p, err := c.Get("p2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Title != "Congress Tower" {
		t.Errorf("title = %q", p.Title)
	}
	if _, err := c.Get("zzz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := NewFromItems(sampleItems())
	all := c.All()
	all[0].Title = "changed"
	if p, _ := c.Get("p1"); p.Title != "Harbor Point" {
		t.Error("All exposed the internal snapshot")
	}
}

func TestList_Query(t *testing.T) {
	c := NewFromItems(sampleItems())

	tests := []struct {
		name string
		q    ListQuery
		want []string
	}{
		{"title", ListQuery{Query: "tower"}, []string{"p2"}},
		{"address", ListQuery{Query: "ATLANTA"}, []string{"p3"}},
		{"type", ListQuery{Query: "retail"}, []string{"p4"}},
		{"status", ListQuery{Status: models.StatusFlagged}, []string{"p4"}},
		{"type filter", ListQuery{Type: "office"}, []string{"p2"}},
		{"price asc, unpriced last", ListQuery{Sort: SortPriceAsc}, []string{"p4", "p1", "p2", "p3"}},
		{"price desc", ListQuery{Sort: SortPriceDesc}, []string{"p2", "p1", "p4", "p3"}},
		{"trust", ListQuery{Sort: SortTrust}, []string{"p2", "p4", "p1", "p3"}},
		{"page", ListQuery{Sort: SortTitle, Offset: 1, Limit: 2}, []string{"p1", "p4"}},
		{"offset past end", ListQuery{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := c.List(tt.q)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %v", len(got), tt.want)
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("[%d] = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestList_TotalIgnoresPaging(t *testing.T) {
	c := NewFromItems(sampleItems())
	_, total, err := c.List(ListQuery{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}

func TestList_InvalidInput(t *testing.T) {
	c := NewFromItems(sampleItems())
	for _, q := range []ListQuery{{Status: "sold"}, {Sort: "random"}, {Limit: -1}} {
		if _, _, err := c.List(q); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("List(%+v) err = %v, want ErrInvalidInput", q, err)
		}
	}
}

func TestCompare(t *testing.T) {
	c := NewFromItems(sampleItems())
	got, err := c.Compare([]string{"p3", "p1"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p3" || got[1].ID != "p1" {
		t.Errorf("got %v", got)
	}

	if _, err := c.Compare(nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty: err = %v", err)
	}
	if _, err := c.Compare([]string{"p1", "p2", "p3", "p4", "p1"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("too many: err = %v", err)
	}
	if _, err := c.Compare([]string{"p1", "missing"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown: err = %v", err)
	}
}

func TestMarkersSkipMissingCoordinates(t *testing.T) {
	markers := NewFromItems(sampleItems()).Markers()
	if len(markers) != 3 {
		t.Fatalf("len = %d, want 3", len(markers))
	}
	for _, m := range markers {
		if m.ID == "p3" {
			t.Error("p3 has no coordinates")
		}
		if m.Color != m.Status.Color() {
			t.Errorf("%s color = %s", m.ID, m.Color)
		}
	}
}

func TestStats(t *testing.T) {
	s := NewFromItems(sampleItems()).Stats()
	if s.Count != 4 || s.Priced != 3 {
		t.Fatalf("count=%d priced=%d", s.Count, s.Priced)
	}
	if *s.MinPrice != 3_500_000 || *s.MaxPrice != 48_000_000 {
		t.Errorf("min=%v max=%v", *s.MinPrice, *s.MaxPrice)
	}
	if *s.AvgPrice < 21_166_666 || *s.AvgPrice > 21_166_667 {
		t.Errorf("avg = %v", *s.AvgPrice)
	}
	if s.ByStatus[models.StatusFlagged] != 1 || s.ByType["Office"] != 1 {
		t.Errorf("byStatus=%v byType=%v", s.ByStatus, s.ByType)
	}
}

func TestStats_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.MinPrice != nil || s.AvgPrice != nil {
		t.Errorf("got %+v", s)
	}
}
