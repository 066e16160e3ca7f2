package clap

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/binaryphile/clapper/internal/audio"
)

// Compositor builds one composite clap per beat from a bank of samples.
// The bank is never modified. A Compositor is not safe for concurrent use
// because it draws from a single Rand; use WithRand to give each goroutine
// its own source.
type Compositor struct {
	params Params
	bank   []*audio.Segment
	rng    Rand
}

// NewCompositor creates a compositor over bank.
func NewCompositor(params Params, bank []*audio.Segment, rng Rand) *Compositor {
	return &Compositor{params: params, bank: bank, rng: rng}
}

// WithRand returns a copy of c drawing from rng.
func (c *Compositor) WithRand(rng Rand) *Compositor {
	cp := *c
	cp.rng = rng
	return &cp
}

// Fork returns a copy of c with its own PCG source, seeded by two draws from
// c's source. Forks taken in the same order from the same seed replay the
// same sequences.
func (c *Compositor) Fork() *Compositor {
	return c.WithRand(rand.New(rand.NewPCG(c.rng.Uint64(), c.rng.Uint64())))
}

// Params returns the compositor's tuning.
func (c *Compositor) Params() Params {
	return c.params
}

// Millis converts a beat timestamp in seconds to whole milliseconds,
// truncating.
func Millis(seconds float64) int {
	return int(seconds * 1000)
}

// VolumeAdjustment returns the gain in dB for the clap at beat i.
//
// With no lookbehind it is Params.Gain. Otherwise it is the loudness of src
// between beat max(0, i-lookbehind) and beat i, plus Params.Gain. Windows
// that are empty or silent measure as audio.SilenceFloorDB, which is what
// beat 0 always gets.
//
// The bool is false when no clap should be emitted; no current setting
// produces that.
func (c *Compositor) VolumeAdjustment(src *audio.Segment, beats []float64, i int) (float64, bool) {
	if c.params.VolumeLookbehindBeats == 0 {
		return c.params.Gain, true
	}

	start := i - c.params.VolumeLookbehindBeats
	if start < 0 {
		start = 0
	}

	window := src.Slice(Millis(beats[start]), Millis(beats[i]))
	loudness := window.DBFS()
	if math.IsNaN(loudness) || loudness < audio.SilenceFloorDB {
		loudness = audio.SilenceFloorDB
	}
	return loudness + c.params.Gain, true
}

// Composite returns the clap for beat i, or nil when this beat gets no clap.
//
// Every bank sample is used once, in random order. Each is pitch shifted by
// a uniform draw from [PitchShiftMinOctave, PitchShiftMaxOctave]. The first
// becomes the base; each later one is mixed onto it at a uniform delay in
// [0, TimeShiftMaxMs]. The result is levelled by VolumeAdjustment.
func (c *Compositor) Composite(src *audio.Segment, beats []float64, i int) (*audio.Segment, error) {
	db, ok := c.VolumeAdjustment(src, beats, i)
	if !ok {
		return nil, nil
	}
	if len(c.bank) == 0 {
		return nil, nil
	}

	var acc *audio.Segment
	for _, idx := range c.rng.Perm(len(c.bank)) {
		shift := uniform(c.rng, c.params.PitchShiftMinOctave, c.params.PitchShiftMaxOctave)
		shifted, err := c.bank[idx].PitchShift(shift)
		if err != nil {
			return nil, fmt.Errorf("clap %d: %w", idx, err)
		}
		if acc, err = c.layer(acc, shifted); err != nil {
			return nil, fmt.Errorf("clap %d: %w", idx, err)
		}
	}

	return acc.ApplyGain(db), nil
}

// layer folds one shifted sample into the accumulator. A nil accumulator is
// replaced by the sample itself; otherwise the sample is mixed in at a
// random delay. Both arguments are owned by the caller's fold.
func (c *Compositor) layer(acc, sample *audio.Segment) (*audio.Segment, error) {
	if acc == nil {
		return sample, nil
	}
	offset := uniform(c.rng, 0, c.params.TimeShiftMaxMs)
	if err := acc.MixInto(sample, int(offset)); err != nil {
		return nil, err
	}
	return acc, nil
}
