package season

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/private-school-system/backend/internal/models"
)

func makeSeason(order int, names ...string) models.Season {
	return models.Season{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Names:     datatypes.JSONSlice[string](names),
		Order:     order,
		Active:    true,
	}
}

func testSeasons() []models.Season {
	return []models.Season{
		makeSeason(1, "First Season", "وەرزی یەکەم", "الفصل الاول"),
		makeSeason(2, "Second Season", "وەرزی دووەم", "الفصل الثاني"),
		makeSeason(3, "Third Season", "وەرزی سێیەم", "الفصل الثالث"),
	}
}

func TestResolve_Variants(t *testing.T) {
	seasons := testSeasons()

	tests := []struct {
		name  string
		label string
		order int
	}{
		{"Exact English name", "First Season", 1},
		{"Case insensitive", "fIrSt SeAsOn", 1},
		{"Surrounding whitespace", "  Second Season  ", 2},
		{"Inner whitespace collapsed", "Third   Season", 3},
		{"Kurdish name", "وەرزی دووەم", 2},
		{"Arabic name", "الفصل الثالث", 3},
		{"Canonical form", "Season 2", 2},
		{"Canonical form lower", "season 3", 3},
		{"Bare order", "1", 1},
		{"Arabic-Indic digit", "٢", 2},
		{"Extended Arabic-Indic canonical", "season ۳", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.label, seasons)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.label, err)
			}
			if got.Order != tt.order {
				t.Errorf("Resolve(%q) = season %d, want %d", tt.label, got.Order, tt.order)
			}
		})
	}
}

func TestResolve_EveryVariantRoundTrips(t *testing.T) {
	seasons := testSeasons()
	for _, s := range seasons {
		for _, v := range Variants(s) {
			got, err := Resolve(v, seasons)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", v, err)
			}
			if got.ID != s.ID {
				t.Errorf("Resolve(%q) = season %d, want %d", v, got.Order, s.Order)
			}
		}
	}
}

func TestResolve_NumericFallback(t *testing.T) {
	seasons := testSeasons()

	tests := []struct {
		name  string
		label string
		order int
	}{
		{"Misspelled with number", "Saeson 2 ", 2},
		{"Number buried in text", "term no. 3 marks", 3},
		{"Arabic-Indic in legacy text", "وەرز ١", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.label, seasons)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.label, err)
			}
			if got.Order != tt.order {
				t.Errorf("Resolve(%q) = season %d, want %d", tt.label, got.Order, tt.order)
			}
		})
	}
}

func TestResolve_NotResolved(t *testing.T) {
	seasons := testSeasons()

	tests := []struct {
		name  string
		label string
	}{
		{"Empty label", ""},
		{"Whitespace only", "   "},
		{"No season no number", "midterm"},
		{"Number with no matching order", "Seson  9"},
		{"Misspelled missing order", "Seson  4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.label, seasons); err != ErrNotResolved {
				t.Errorf("Resolve(%q) error = %v, want ErrNotResolved", tt.label, err)
			}
		})
	}
}

func TestResolve_DuplicateVariantPicksLowestOrder(t *testing.T) {
	// Should not happen under correct data, but must stay deterministic.
	seasons := []models.Season{
		makeSeason(2, "Autumn"),
		makeSeason(1, "Autumn"),
	}

	got, err := Resolve("autumn", seasons)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Order != 1 {
		t.Errorf("Resolve on duplicate variant = season %d, want 1", got.Order)
	}
}

func TestResolve_NoSilentDefault(t *testing.T) {
	got, err := Resolve("anything", nil)
	if err != ErrNotResolved {
		t.Errorf("Resolve with no seasons error = %v, want ErrNotResolved", err)
	}
	if got != nil {
		t.Errorf("Resolve with no seasons returned %v, want nil", got)
	}
}
