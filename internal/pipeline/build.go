package pipeline

import (
	"fmt"

	"weight-estimator/internal/config"
	"weight-estimator/internal/scale"

	"go.uber.org/zap"
)

// StrategyFromConfig returns the calibration strategy named by cfg.Mode.
// The choice is explicit: a failed reference detection is never replaced by
// the manual value.
func StrategyFromConfig(cfg config.ScaleConfig, logger *zap.Logger) (scale.Strategy, error) {
	switch cfg.Mode {
	case config.ScaleManual:
		s, err := scale.NewManual(cfg.ManualCmPerPx)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ScaleReference:
		params := scale.DefaultReferenceParams().
			WithHSV(cfg.HSV.HueMin, cfg.HSV.HueMax, cfg.HSV.SatMin, cfg.HSV.SatMax, cfg.HSV.ValMin, cfg.HSV.ValMax).
			WithOpenIterations(cfg.OpenIterations)
		return scale.NewReference(cfg.ReferenceSizeCm, params, logger), nil
	default:
		return nil, fmt.Errorf("unknown scale mode %q", cfg.Mode)
	}
}
