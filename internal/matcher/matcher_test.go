package matcher

import (
	"math"
	"testing"

	"github.com/zulandar/concierge/internal/models"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"dosa", "dosa", 100},
		{"", "", 100},
		{"abc", "", 0},
		{"dosa", "doss", 75},
		{"abcd", "wxyz", 0},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); math.Abs(got-tt.want) > 0.01 {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"dosa", "i want dosa please", 100},
		{"dosa", "i want dossa", 75},
		{"i want dossa", "dosa", 75},
		{"towel", "towl please", 88.89},
		{"puri bhaji", "poori", 66.67},
		{"poori", "puri", 66.67},
		{"eat", "what", 80},
		{"", "anything", 0},
	}
	for _, tt := range tests {
		if got := PartialRatio(tt.a, tt.b); math.Abs(got-tt.want) > 0.01 {
			t.Errorf("PartialRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func catalog() []models.MenuItem {
	return []models.MenuItem{
		{ID: 1, ItemName: "Idli", Price: 40, Available: true},
		{ID: 2, ItemName: "Dosa", Price: 60, Available: true},
		{ID: 3, ItemName: "Masala Dosa", Price: 80, Available: true},
	}
}

func TestMatchCatalog_FuzzyWinner(t *testing.T) {
	item, ok := MatchCatalog("i want dossa", catalog(), DefaultThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if item.ItemName != "Dosa" {
		t.Errorf("match = %q, want Dosa", item.ItemName)
	}
}

func TestMatchCatalog_NeedleOverhangsPrefix(t *testing.T) {
	items := []models.MenuItem{
		{ID: 1, ItemName: "Idli", Available: true},
		{ID: 2, ItemName: "Dosa", Available: true},
		{ID: 3, ItemName: "Puri Bhaji", Available: true},
	}
	item, ok := MatchCatalog("poori", items, DefaultThreshold)
	if !ok {
		t.Fatal("expected poori to match Puri Bhaji")
	}
	if item.ItemName != "Puri Bhaji" {
		t.Errorf("match = %q, want Puri Bhaji", item.ItemName)
	}
}

func TestMatchCatalog_CaseInsensitive(t *testing.T) {
	item, ok := MatchCatalog("  IDLI ", catalog(), DefaultThreshold)
	if !ok || item.ItemName != "Idli" {
		t.Errorf("match = %q, %v; want Idli", item.ItemName, ok)
	}
}

func TestMatchCatalog_BelowThreshold(t *testing.T) {
	if item, ok := MatchCatalog("pizza", catalog(), DefaultThreshold); ok {
		t.Errorf("unexpected match %q", item.ItemName)
	}
}

func TestMatchCatalog_SkipsUnavailable(t *testing.T) {
	items := catalog()
	items[1].Available = false
	item, ok := MatchCatalog("dosa", items, DefaultThreshold)
	if !ok {
		t.Fatal("expected Masala Dosa to match")
	}
	if item.ItemName != "Masala Dosa" {
		t.Errorf("match = %q, want Masala Dosa", item.ItemName)
	}
}

func TestMatchCatalog_TieKeepsFirst(t *testing.T) {
	items := []models.MenuItem{
		{ID: 1, ItemName: "Tea", Available: true},
		{ID: 2, ItemName: "TEA", Available: true},
	}
	item, ok := MatchCatalog("tea", items, DefaultThreshold)
	if !ok || item.ID != 1 {
		t.Errorf("match = %+v, want first item", item)
	}
}

func TestMatchCatalog_Empty(t *testing.T) {
	if _, ok := MatchCatalog("dosa", nil, DefaultThreshold); ok {
		t.Error("expected no match on empty catalog")
	}
}

func TestAnyAbove(t *testing.T) {
	kws := []string{"towel", "pillow"}
	if !AnyAbove("need a towl", kws, 75) {
		t.Error("expected towl to match towel")
	}
	if AnyAbove("asdfghjkl", kws, 75) {
		t.Error("expected no match for gibberish")
	}
}
