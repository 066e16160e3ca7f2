// Package track lays beat sounds onto a whole track, either mixed over the
// original recording or onto silence of the same length.
package track

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/binaryphile/clapper/internal/audio"
	"github.com/binaryphile/clapper/internal/clap"
)

// Mode selects what is played on each beat.
type Mode string

const (
	ModeBeats Mode = "beats" // a fixed tone
	ModeClaps Mode = "claps" // a randomized clap composite
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeBeats, ModeClaps:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeBeats, ModeClaps)
}

// Job is one assembly run.
type Job struct {
	Mode    Mode
	Source  *audio.Segment
	Beats   []float64 // seconds, ascending
	Overlay bool      // mix onto Source instead of silence

	BeatSound  *audio.Segment   // ModeBeats
	Compositor *clap.Compositor // ModeClaps
}

// Assembler builds output tracks. Workers bounds how many clap composites are
// built concurrently; they are always mixed in beat order.
type Assembler struct {
	log     *zap.SugaredLogger
	workers int
}

// NewAssembler creates an assembler. workers below 1 is treated as 1.
func NewAssembler(log *zap.SugaredLogger, workers int) *Assembler {
	if workers < 1 {
		workers = 1
	}
	return &Assembler{log: log, workers: workers}
}

// Run assembles job and returns the finished track.
func (a *Assembler) Run(ctx context.Context, job Job) (*audio.Segment, error) {
	if job.Source == nil {
		return nil, errors.New("no source track")
	}

	var (
		out *audio.Segment
		err error
	)
	switch job.Mode {
	case ModeBeats:
		if job.BeatSound == nil {
			return nil, errors.New("beats mode: no beat sound")
		}
		out, err = a.ApplyBeats(job.Source, job.BeatSound, job.Beats, job.Overlay)
	case ModeClaps:
		if job.Compositor == nil {
			return nil, errors.New("claps mode: no compositor")
		}
		out, err = a.ApplyClaps(ctx, job.Source, job.Compositor, job.Beats, job.Overlay)
	default:
		return nil, fmt.Errorf("unknown mode %q", job.Mode)
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("processed audio is nil")
	}
	return out, nil
}

// ApplyBeats mixes sound in at every beat.
func (a *Assembler) ApplyBeats(src, sound *audio.Segment, beats []float64, overlay bool) (*audio.Segment, error) {
	out := a.destination(src, overlay, "beat")

	for _, b := range beats {
		if err := out.MixInto(sound, clap.Millis(b)); err != nil {
			return nil, fmt.Errorf("beat at %.3fs: %w", b, err)
		}
	}

	a.log.Infow("Finished overlaying beats", "beats", len(beats))
	return out, nil
}

// ApplyClaps mixes a fresh composite from comp in at every beat. Beats for
// which comp yields nothing stay silent.
//
// Each beat draws from its own fork of comp, forked in beat order, so the
// result depends on comp's seed but not on the number of workers. Composites
// are mixed in beat order as they complete, and no more than the worker count
// are held at once.
func (a *Assembler) ApplyClaps(ctx context.Context, src *audio.Segment, comp *clap.Compositor, beats []float64, overlay bool) (*audio.Segment, error) {
	out := a.destination(src, overlay, "clap")

	start := func(i int) func() (*audio.Segment, error) {
		fork := comp.Fork()
		return func() (*audio.Segment, error) {
			c, err := fork.Composite(src, beats, i)
			if err != nil {
				return nil, fmt.Errorf("beat %d: %w", i, err)
			}
			return c, nil
		}
	}

	skipped := 0
	mix := func(i int, c *audio.Segment) error {
		if c == nil {
			skipped++
			return nil
		}
		if err := out.MixInto(c, clap.Millis(beats[i])); err != nil {
			return fmt.Errorf("beat %d: %w", i, err)
		}
		return nil
	}

	if err := mergeInOrder(ctx, len(beats), a.workers, start, mix); err != nil {
		return nil, err
	}

	if skipped > 0 {
		a.log.Debugw("Skipped beats without a clap", "skipped", skipped)
	}
	a.log.Infow("Finished overlaying claps", "beats", len(beats), "workers", a.workers)
	return out, nil
}

// destination returns a copy of src to overlay onto, or silence of the same
// length, rate and layout.
func (a *Assembler) destination(src *audio.Segment, overlay bool, kind string) *audio.Segment {
	if overlay {
		a.log.Infof("Overlaying %ss", kind)
		return src.Clone()
	}
	a.log.Infof("Making a new %s track", kind)
	return &audio.Segment{
		SampleRate: src.SampleRate,
		Channels:   src.Channels,
		BitDepth:   src.BitDepth,
		Samples:    make([]float64, len(src.Samples)),
	}
}
