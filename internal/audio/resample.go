package audio

import (
	"fmt"
	"math"

	"github.com/dh1tw/gosamplerate"
)

// PitchShift shifts pitch by the given number of octaves. The samples are
// reinterpreted at rate*2^octaves and then converted back to the original
// rate, so pitch and duration change together: +1 octave plays an octave
// higher in half the time. A shift that leaves the rate unchanged returns an
// exact copy.
func (s *Segment) PitchShift(octaves float64) (*Segment, error) {
	relabeled := int(float64(s.SampleRate) * math.Pow(2, octaves))
	if relabeled == s.SampleRate {
		return s.Clone(), nil
	}
	if relabeled <= 0 {
		return nil, fmt.Errorf("pitch shift %.3f octaves: rate %d out of range", octaves, relabeled)
	}
	return s.convert(relabeled, s.SampleRate)
}

// Resample converts s to sampleRate.
func (s *Segment) Resample(sampleRate int) (*Segment, error) {
	if sampleRate == s.SampleRate {
		return s.Clone(), nil
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("resample: invalid rate %d", sampleRate)
	}
	return s.convert(s.SampleRate, sampleRate)
}

// convert treats the samples as recorded at from Hz and converts them to to Hz
// with linear interpolation.
func (s *Segment) convert(from, to int) (*Segment, error) {
	out := &Segment{
		SampleRate: to,
		Channels:   s.Channels,
		BitDepth:   s.BitDepth,
	}
	if len(s.Samples) == 0 {
		out.Samples = []float64{}
		return out, nil
	}

	in := make([]float32, len(s.Samples))
	for i, v := range s.Samples {
		in[i] = float32(v)
	}
	converted, err := gosamplerate.Simple(in, float64(to)/float64(from), s.Channels, gosamplerate.SRC_LINEAR)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d Hz: %w", from, to, err)
	}

	out.Samples = make([]float64, len(converted)-len(converted)%s.Channels)
	for i := range out.Samples {
		out.Samples[i] = float64(converted[i])
	}
	return out, nil
}
