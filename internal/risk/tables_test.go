package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-risk/internal/model"
)

func TestTables_CountryScore(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name    string
		country string
		want    int
	}{
		{"known country", "Germany", 10},
		{"case insensitive", "germany", 10},
		{"multi word lowercased", "united kingdom", 15},
		{"unknown country", "Atlantis", 50},
		{"empty", "", 50},
		{"whitespace", "  Germany  ", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.CountryScore(tt.country))
		})
	}
}

func TestTables_SectorScore(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name string
		code string
		want int
	}{
		{"known prefix", "C24", 60},
		{"longer code keyed by prefix", "C2410", 60},
		{"lowercase code", "c24", 60},
		{"no code at all", "", 40},
		{"unmapped prefix", "Z99", 50},
		{"short unmapped code", "X1", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.SectorScore(tt.code))
		})
	}
}

func TestTables_ImpactFor(t *testing.T) {
	tables := DefaultTables()

	delta, ok := tables.ImpactFor(model.CategoryChemicalContent, "uses_pfas", "yes")
	require.True(t, ok)
	assert.Equal(t, 15, delta)

	// Boolean-equivalent answers normalize.
	delta, ok = tables.ImpactFor(model.CategoryChemicalContent, "uses_pfas", "TRUE")
	require.True(t, ok)
	assert.Equal(t, 15, delta)

	// Non-triggering answer.
	_, ok = tables.ImpactFor(model.CategoryChemicalContent, "uses_pfas", "no")
	assert.False(t, ok)

	// Unknown question key.
	_, ok = tables.ImpactFor(model.CategoryChemicalContent, "made_up_key", "yes")
	assert.False(t, ok)

	// Unknown category.
	_, ok = tables.ImpactFor(model.Category("mystery"), "uses_pfas", "yes")
	assert.False(t, ok)
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"yes", "yes"},
		{"Yes", "yes"},
		{"TRUE", "yes"},
		{"y", "yes"},
		{"1", "yes"},
		{"no", "no"},
		{"False", "no"},
		{"n", "no"},
		{"0", "no"},
		{"  Partial  ", "partial"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAnswer(tt.in), tt.in)
	}
}

func TestLoadTables_OverridesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	content := `
tables:
  country_risk:
    Germany: 99
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	// Overridden section replaces the default table wholesale.
	assert.Equal(t, 99, tables.CountryScore("Germany"))
	assert.Equal(t, 50, tables.CountryScore("France"))

	// Untouched sections fall back to defaults.
	assert.Equal(t, 60, tables.SectorScore("C24"))
	delta, ok := tables.ImpactFor(model.CategoryHumanRights, "no_child_labor", "no")
	require.True(t, ok)
	assert.Equal(t, 25, delta)
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read tables")
}
