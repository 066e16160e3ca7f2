// Package clap builds the per-beat clap sound: every sample of the clap bank,
// randomly pitch shifted and nudged in time, layered into one composite and
// levelled against the loudness of the preceding beats.
package clap

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Params tunes composite construction.
type Params struct {
	PitchShiftMinOctave float64 // lower bound of the per-sample pitch shift
	PitchShiftMaxOctave float64 // upper bound of the per-sample pitch shift
	TimeShiftMaxMs      float64 // max delay of each layered sample after the first

	// VolumeLookbehindBeats is how many beats back the loudness baseline
	// reaches. 0 disables analysis: the clap always gets Gain.
	VolumeLookbehindBeats int

	Gain float64 // dB, added on top of the measured baseline
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		PitchShiftMinOctave:   -0.5,
		PitchShiftMaxOctave:   0.5,
		TimeShiftMaxMs:        5,
		VolumeLookbehindBeats: 4,
		Gain:                  20,
	}
}

// Validate reports every out-of-range field.
func (p Params) Validate() error {
	var err error

	for _, f := range []struct {
		name string
		v    float64
	}{
		{"pitch shift min", p.PitchShiftMinOctave},
		{"pitch shift max", p.PitchShiftMaxOctave},
		{"time shift max", p.TimeShiftMaxMs},
		{"gain", p.Gain},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be finite, got %v", f.name, f.v))
		}
	}

	if p.PitchShiftMinOctave > p.PitchShiftMaxOctave {
		err = multierr.Append(err, fmt.Errorf("pitch shift min %v exceeds max %v",
			p.PitchShiftMinOctave, p.PitchShiftMaxOctave))
	}
	if p.TimeShiftMaxMs < 0 {
		err = multierr.Append(err, fmt.Errorf("time shift max must be >= 0, got %v", p.TimeShiftMaxMs))
	}
	if p.VolumeLookbehindBeats < 0 {
		err = multierr.Append(err, fmt.Errorf("volume lookbehind must be >= 0, got %d", p.VolumeLookbehindBeats))
	}

	return err
}
