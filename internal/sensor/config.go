package sensor

import (
	"fmt"

	"codeberg.org/arlen/sensorctl/internal/errors"
)

type Resolution string

const (
	ResolutionHigh   Resolution = "high"
	ResolutionMedium Resolution = "medium"
	ResolutionLow    Resolution = "low"
)

func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionHigh, ResolutionMedium, ResolutionLow:
		return true
	default:
		return false
	}
}

func (r Resolution) String() string {
	return string(r)
}

// Config is the per-session generation configuration. It is immutable in
// use: mutation happens only through validated Apply calls on the owning
// control service.
type Config struct {
	RateHz     float64
	Resolution Resolution
	RangeMinM  float64
	RangeMaxM  float64
}

// Limits bounds the configurable fields for one sensor family.
type Limits struct {
	MinRateHz  float64
	MaxRateHz  float64
	MinRangeM  float64
	MaxRangeM  float64
}

// Patch is a partial configuration update. Nil fields are left unchanged.
type Patch struct {
	RateHz     *float64
	Resolution *Resolution
	RangeMinM  *float64
	RangeMaxM  *float64
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.RateHz == nil && p.Resolution == nil && p.RangeMinM == nil && p.RangeMaxM == nil
}

// Apply validates every present field of the patch against lim and returns
// the merged configuration. On any validation error the receiver is
// returned unchanged and no field is merged.
func (c Config) Apply(p Patch, lim Limits) (Config, error) {
	errFactory := errors.New()

	if p.RateHz != nil {
		if *p.RateHz < lim.MinRateHz || *p.RateHz > lim.MaxRateHz {
			return c, errFactory.WithData(ErrInvalidRate, fmt.Sprintf(
				"rate %.2f Hz outside [%.1f, %.1f]", *p.RateHz, lim.MinRateHz, lim.MaxRateHz))
		}
	}

	if p.Resolution != nil && !p.Resolution.IsValid() {
		return c, errFactory.WithData(ErrInvalidResolution, string(*p.Resolution))
	}

	rangeMin := c.RangeMinM
	rangeMax := c.RangeMaxM
	if p.RangeMinM != nil {
		rangeMin = *p.RangeMinM
	}
	if p.RangeMaxM != nil {
		rangeMax = *p.RangeMaxM
	}
	if p.RangeMinM != nil || p.RangeMaxM != nil {
		if rangeMin < lim.MinRangeM || rangeMax > lim.MaxRangeM || rangeMin >= rangeMax {
			return c, errFactory.WithData(ErrInvalidRange, fmt.Sprintf(
				"min=%.2f max=%.2f outside %.1f <= min < max <= %.1f",
				rangeMin, rangeMax, lim.MinRangeM, lim.MaxRangeM))
		}
	}

	merged := c
	if p.RateHz != nil {
		merged.RateHz = *p.RateHz
	}
	if p.Resolution != nil {
		merged.Resolution = *p.Resolution
	}
	merged.RangeMinM = rangeMin
	merged.RangeMaxM = rangeMax

	return merged, nil
}
