package density

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const jsonTable = `{
  "default": {"density_g_cm3": 1.0},
  "apple":   {"density_g_cm3": 0.8, "notes": "fresh"},
  "Banana":  {"density_g_cm3": 0.94},
  "broken":  {"density_g_cm3": 0}
}`

const yamlTable = `
default:
  density_g_cm3: 0.9
potato:
  density_g_cm3: 1.08
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"density_db.json": {Data: []byte(jsonTable)},
		"density_db.yaml": {Data: []byte(yamlTable)},
		"malformed.json":  {Data: []byte(`{"apple": `)},
		"no_default.json": {Data: []byte(`{"apple": {"density_g_cm3": 0.8}}`)},
	}
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	table, err := LoadTable(testFS(), "density_db.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "broken"}, table.Labels())
	assert.Equal(t, "fresh", table["apple"].Notes)

	table, err = LoadTable(testFS(), "density_db.yaml")
	require.NoError(t, err)
	d, ok := table.Lookup("potato")
	require.True(t, ok)
	assert.Equal(t, 1.08, d)

	_, err = LoadTable(testFS(), "missing.json")
	assert.Error(t, err)

	_, err = LoadTable(testFS(), "malformed.json")
	assert.Error(t, err)

	_, err = LoadTable(nil, "density_db.json")
	assert.Error(t, err)
}

func TestResolve_Exact(t *testing.T) {
	t.Parallel()

	logger, logs := observed(zapcore.WarnLevel)
	r := NewResolver(testFS(), "density_db.json", logger)

	got := r.Resolve("apple")
	assert.Equal(t, Lookup{Label: "apple", Density: 0.8, Tier: TierExact}, got)
	assert.Zero(t, logs.Len(), "an exact hit is not a fallback")
}

func TestResolve_CaseInsensitive(t *testing.T) {
	t.Parallel()

	r := NewResolver(testFS(), "density_db.json", nil)
	assert.Equal(t, r.Resolve("apple").Density, r.Resolve("Apple").Density)
	assert.Equal(t, TierExact, r.Resolve("APPLE ").Tier)
	assert.Equal(t, 0.94, r.Resolve("banana").Density)
}

func TestResolve_DefaultTier(t *testing.T) {
	t.Parallel()

	logger, logs := observed(zapcore.WarnLevel)
	r := NewResolver(testFS(), "density_db.json", logger)

	got := r.Resolve("unobtainium")
	assert.Equal(t, TierDefault, got.Tier)
	assert.Equal(t, 1.0, got.Density)

	entries := logs.FilterMessage("label not in density table, falling back").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "default", entries[0].ContextMap()["tier"])
	assert.Equal(t, "unobtainium", entries[0].ContextMap()["label"])
}

func TestResolve_NonPositiveRecordFallsBack(t *testing.T) {
	t.Parallel()

	r := NewResolver(testFS(), "density_db.json", nil)
	got := r.Resolve("broken")
	assert.Equal(t, TierDefault, got.Tier)
}

func TestResolve_YAMLDefault(t *testing.T) {
	t.Parallel()

	r := NewResolver(testFS(), "density_db.yaml", nil)
	got := r.Resolve("apple")
	assert.Equal(t, TierDefault, got.Tier)
	assert.Equal(t, 0.9, got.Density)
}

func TestResolve_ConstantTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		message string
	}{
		{"missing file", "missing.json", "density table unavailable, using constant"},
		{"malformed file", "malformed.json", "density table unavailable, using constant"},
		{"no default record", "no_default.json", "label not in density table, falling back"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observed(zapcore.WarnLevel)
			r := NewResolver(testFS(), tt.path, logger)

			got := r.Resolve("pear")
			assert.Equal(t, TierConstant, got.Tier)
			assert.Equal(t, WaterDensity, got.Density)
			assert.Equal(t, 1, logs.FilterMessage(tt.message).Len())
		})
	}
}

func TestLoadTable_FoldedKeys(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"mixed.json": {Data: []byte(`{
  "Apple": {"density_g_cm3": 0.5},
  "apple": {"density_g_cm3": 0.8},
  "PEAR":  {"density_g_cm3": 0.6},
  "Pear":  {"density_g_cm3": 0.7}
}`)},
	}

	r := NewResolver(fsys, "mixed.json", nil)
	for i := 0; i < 50; i++ {
		require.Equal(t, 0.8, r.Resolve("apple").Density, "lowercase key wins")
		require.Equal(t, 0.8, r.Resolve("Apple").Density)
		require.Equal(t, 0.6, r.Resolve("pear").Density, "first spelling in sorted order wins")
	}

	table, err := LoadTable(fsys, "mixed.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "pear"}, table.Labels())
}

func TestTiers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Tier{TierExact, TierDefault, TierConstant}, Tiers())
}
