// Package audio holds decoded PCM in memory and the edits the clap engine
// performs on it: slicing, loudness measurement, pitch shifting, overlaying
// and gain.
//
// A Segment is a plain value. Operations that produce audio return a new
// Segment and leave the receiver untouched, except MixInto, which mixes into
// the receiver and is meant for buffers the caller owns exclusively.
package audio

import (
	"fmt"
	"math"
	"time"
)

// DefaultBitDepth is used on export when a segment carries no bit depth.
const DefaultBitDepth = 16

// SilenceFloorDB is the level of one least significant bit at 16 bits,
// 20*log10(1/32768). Loudness measurements never report less than this.
const SilenceFloorDB = -90.30899869919435

// Segment is interleaved PCM normalized to [-1, 1].
type Segment struct {
	SampleRate int
	Channels   int
	BitDepth   int // source bit depth, kept for export
	Samples    []float64
}

// New creates a segment over the given interleaved samples.
// The slice is not copied.
func New(sampleRate, channels int, samples []float64) *Segment {
	return &Segment{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   DefaultBitDepth,
		Samples:    samples,
	}
}

// Silent returns durationMs of digital silence.
func Silent(durationMs, sampleRate, channels int) *Segment {
	frames := int(float64(durationMs) * float64(sampleRate) / 1000.0)
	if frames < 0 {
		frames = 0
	}
	return New(sampleRate, channels, make([]float64, frames*channels))
}

// Frames returns the number of sample frames (samples per channel).
func (s *Segment) Frames() int {
	if s.Channels <= 0 {
		return 0
	}
	return len(s.Samples) / s.Channels
}

// Len returns the duration in whole milliseconds.
func (s *Segment) Len() int {
	if s.SampleRate <= 0 {
		return 0
	}
	return int(math.Round(1000 * float64(s.Frames()) / float64(s.SampleRate)))
}

// Duration returns the exact duration.
func (s *Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Frames()) / float64(s.SampleRate) * float64(time.Second))
}

func (s *Segment) String() string {
	return fmt.Sprintf("Segment(rate=%d channels=%d frames=%d)", s.SampleRate, s.Channels, s.Frames())
}

// Clone returns a deep copy.
func (s *Segment) Clone() *Segment {
	samples := make([]float64, len(s.Samples))
	copy(samples, s.Samples)
	return &Segment{
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitDepth:   s.BitDepth,
		Samples:    samples,
	}
}

// frameAt converts a millisecond position to a frame index, clamped to the segment.
func (s *Segment) frameAt(ms int) int {
	f := int(int64(ms) * int64(s.SampleRate) / 1000)
	if f < 0 {
		return 0
	}
	if n := s.Frames(); f > n {
		return n
	}
	return f
}

// Slice returns a copy of [startMs, endMs). Both bounds are clamped to the
// segment; an inverted range yields an empty segment.
func (s *Segment) Slice(startMs, endMs int) *Segment {
	start := s.frameAt(startMs)
	end := s.frameAt(endMs)
	if end < start {
		end = start
	}
	samples := make([]float64, (end-start)*s.Channels)
	copy(samples, s.Samples[start*s.Channels:end*s.Channels])
	return &Segment{
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitDepth:   s.BitDepth,
		Samples:    samples,
	}
}

// DBFS returns the RMS level over all samples in decibels relative to full
// scale. Empty or all-zero segments report -Inf.
func (s *Segment) DBFS() float64 {
	if len(s.Samples) == 0 {
		return math.Inf(-1)
	}
	sum := 0.0
	for _, v := range s.Samples {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(s.Samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// ApplyGain returns a copy scaled by db decibels, saturating at full scale.
func (s *Segment) ApplyGain(db float64) *Segment {
	out := s.Clone()
	factor := math.Pow(10, db/20)
	for i, v := range out.Samples {
		out.Samples[i] = clip(v * factor)
	}
	return out
}

// Overlay returns a copy of s with other mixed in from positionMs. The result
// keeps the length of s; whatever of other runs past the end is dropped.
func (s *Segment) Overlay(other *Segment, positionMs int) (*Segment, error) {
	out := s.Clone()
	if err := out.MixInto(other, positionMs); err != nil {
		return nil, err
	}
	return out, nil
}

// MixInto adds other into s starting at positionMs, in place. other is
// converted to the sample rate and channel layout of s first.
func (s *Segment) MixInto(other *Segment, positionMs int) error {
	if other == nil {
		return nil
	}
	o, err := other.Conform(s.SampleRate, s.Channels)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}

	start := s.frameAt(positionMs) * s.Channels
	n := len(o.Samples)
	if start+n > len(s.Samples) {
		n = len(s.Samples) - start
	}
	for i := 0; i < n; i++ {
		s.Samples[start+i] = clip(s.Samples[start+i] + o.Samples[i])
	}
	return nil
}

// Conform returns s converted to the given rate and channel count. When s
// already matches, s itself is returned.
func (s *Segment) Conform(sampleRate, channels int) (*Segment, error) {
	out := s
	if out.Channels != channels {
		out = out.remix(channels)
	}
	if out.SampleRate != sampleRate {
		var err error
		out, err = out.Resample(sampleRate)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// remix changes the channel count. Mono is duplicated into every output
// channel; anything else is averaged down to mono first.
func (s *Segment) remix(channels int) *Segment {
	frames := s.Frames()
	mono := s.Samples
	if s.Channels != 1 {
		mono = s.Mono()
	}
	samples := make([]float64, frames*channels)
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			samples[f*channels+c] = mono[f]
		}
	}
	return &Segment{
		SampleRate: s.SampleRate,
		Channels:   channels,
		BitDepth:   s.BitDepth,
		Samples:    samples,
	}
}

// Mono returns the per-frame average over all channels.
func (s *Segment) Mono() []float64 {
	frames := s.Frames()
	mono := make([]float64, frames)
	if s.Channels == 1 {
		copy(mono, s.Samples)
		return mono
	}
	for f := 0; f < frames; f++ {
		sum := 0.0
		for c := 0; c < s.Channels; c++ {
			sum += s.Samples[f*s.Channels+c]
		}
		mono[f] = sum / float64(s.Channels)
	}
	return mono
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
