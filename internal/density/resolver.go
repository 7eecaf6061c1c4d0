package density

import (
	"io/fs"

	"go.uber.org/zap"
)

// WaterDensity is the last-resort density in g/cm³, used only when the table
// cannot be read at all.
const WaterDensity = 1.0

// Tier names the fallback level that produced a density.
type Tier string

const (
	TierExact    Tier = "exact"
	TierDefault  Tier = "default"
	TierConstant Tier = "constant"
)

// Lookup is the outcome of resolving a label.
type Lookup struct {
	Label   string
	Density float64 // g/cm³
	Tier    Tier
}

// source is one step of the fallback chain.
type source struct {
	tier   Tier
	lookup func(t Table, label string) (float64, bool)
}

// fallbackChain is evaluated in order; the first hit wins.
var fallbackChain = []source{
	{TierExact, func(t Table, label string) (float64, bool) { return t.Lookup(label) }},
	{TierDefault, func(t Table, _ string) (float64, bool) { return t.Lookup(DefaultKey) }},
	{TierConstant, func(Table, string) (float64, bool) { return WaterDensity, true }},
}

// Tiers returns the fallback order.
func Tiers() []Tier {
	tiers := make([]Tier, len(fallbackChain))
	for i, s := range fallbackChain {
		tiers[i] = s.tier
	}
	return tiers
}

// Resolver looks up densities in a table file. The table is re-read on every
// call, so edits take effect on the next lookup.
type Resolver struct {
	FS     fs.FS
	Path   string
	Logger *zap.Logger
}

// NewResolver creates a resolver for the table at path inside fsys.
func NewResolver(fsys fs.FS, path string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{FS: fsys, Path: path, Logger: logger}
}

// Resolve returns a density for label. It always succeeds: an unknown label
// falls back to the table's default record, and an unreadable table falls
// back to WaterDensity. Each fallback is logged at warn level.
func (r *Resolver) Resolve(label string) Lookup {
	log := r.Logger.With(zap.String("label", label))

	table, err := r.Table()
	if err != nil {
		log.Warn("density table unavailable, using constant",
			zap.String("path", r.Path), zap.Error(err), zap.Float64("density_g_cm3", WaterDensity))
		return Lookup{Label: label, Density: WaterDensity, Tier: TierConstant}
	}

	for _, src := range fallbackChain {
		d, ok := src.lookup(table, label)
		if !ok {
			continue
		}
		if src.tier == TierExact {
			log.Debug("density found", zap.Float64("density_g_cm3", d))
		} else {
			log.Warn("label not in density table, falling back",
				zap.String("tier", string(src.tier)), zap.Float64("density_g_cm3", d))
		}
		return Lookup{Label: label, Density: d, Tier: src.tier}
	}

	// unreachable: the constant tier always hits
	return Lookup{Label: label, Density: WaterDensity, Tier: TierConstant}
}

// Table loads the current table contents.
func (r *Resolver) Table() (Table, error) {
	return LoadTable(r.FS, r.Path)
}
