package beat

import (
	"context"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/binaryphile/clapper/internal/audio"
)

// Onset analysis settings.
const (
	FrameSize = 1024
	HopSize   = 512

	MinBPM     = 60.0
	MaxBPM     = 200.0
	DefaultBPM = 120.0

	anchorSearch = 5.0 // seconds searched for the phase anchor
	minFrames    = 100 // below this the tempo estimate falls back to DefaultBPM
)

// OnsetDetector estimates a constant tempo from the spectral flux of the
// track and lays a beat grid over it, anchored on the strongest onset near
// the start. It suits music with a steady pulse.
type OnsetDetector struct{}

// NewOnsetDetector creates an onset detector.
func NewOnsetDetector() *OnsetDetector {
	return &OnsetDetector{}
}

// Detect returns beats from the first anchor-aligned grid position up to the
// end of the track, rounded to the millisecond.
func (d *OnsetDetector) Detect(ctx context.Context, track *audio.Segment) (Timeline, error) {
	if track.SampleRate <= 0 || track.Frames() == 0 {
		return Timeline{}, nil
	}

	onset, err := onsetEnvelope(ctx, track.Mono(), FrameSize, HopSize)
	if err != nil {
		return nil, err
	}

	duration := float64(track.Frames()) / float64(track.SampleRate)
	bpm := estimateBPM(onset, track.SampleRate, HopSize)
	return beatGrid(onset, track.SampleRate, HopSize, duration, bpm), nil
}

// onsetEnvelope returns the positive spectral flux per hop.
func onsetEnvelope(ctx context.Context, samples []float64, frameSize, hopSize int) ([]float64, error) {
	numFrames := (len(samples) - frameSize) / hopSize
	if numFrames <= 0 {
		return nil, nil
	}

	fft := fourier.NewFFT(frameSize)
	window := hannWindow(frameSize)
	frame := make([]float64, frameSize)
	coeffs := make([]complex128, frameSize/2+1)
	prevMag := make([]float64, frameSize/2+1)
	mag := make([]float64, frameSize/2+1)
	onset := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		start := i * hopSize
		for j := range frame {
			frame[j] = samples[start+j] * window[j]
		}
		coeffs = fft.Coefficients(coeffs, frame)

		flux := 0.0
		for j, c := range coeffs {
			mag[j] = cmplx.Abs(c)
			if d := mag[j] - prevMag[j]; d > 0 {
				flux += d
			}
		}
		onset[i] = flux
		copy(prevMag, mag)
	}
	return onset, nil
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// estimateBPM picks the autocorrelation peak of the onset envelope within
// MinBPM..MaxBPM, weighted towards 120 BPM to avoid octave errors, and
// refines it by parabolic interpolation.
func estimateBPM(onset []float64, sr, hopSize int) float64 {
	if len(onset) < minFrames {
		return DefaultBPM
	}

	minLag := int(float64(sr) * 60 / (MaxBPM * float64(hopSize)))
	maxLag := int(float64(sr) * 60 / (MinBPM * float64(hopSize)))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if maxLag < minLag {
		return DefaultBPM
	}

	scores := make([]float64, maxLag+2)
	for lag := minLag; lag <= maxLag+1 && lag < len(onset); lag++ {
		corr := 0.0
		count := 0
		for i := 0; i+lag < len(onset); i++ {
			corr += onset[i] * onset[i+lag]
			count++
		}
		if count > 0 {
			corr /= float64(count)
		}
		bpm := 60.0 / (float64(lag) * float64(hopSize) / float64(sr))
		weight := math.Exp(-0.5 * math.Pow((bpm-120.0)/40.0, 2))
		scores[lag] = corr * (0.8 + 0.2*weight)
	}

	bestLag := minLag
	for lag := minLag; lag <= maxLag; lag++ {
		if scores[lag] > scores[bestLag] {
			bestLag = lag
		}
	}
	if scores[bestLag] <= 0 {
		return DefaultBPM
	}

	lag := float64(bestLag)
	if bestLag > minLag && bestLag < maxLag {
		a, b, c := scores[bestLag-1], scores[bestLag], scores[bestLag+1]
		if den := a - 2*b + c; den < 0 {
			lag += 0.5 * (a - c) / den
		}
	}

	bpm := 60.0 / (lag * float64(hopSize) / float64(sr))
	for bpm > MaxBPM {
		bpm /= 2
	}
	for bpm < MinBPM {
		bpm *= 2
	}
	return bpm
}

// beatGrid places beats every 60/bpm seconds through the strongest onset of
// the first few seconds, both backwards to zero and forwards to duration.
func beatGrid(onset []float64, sr, hopSize int, duration, bpm float64) Timeline {
	period := 60.0 / bpm

	anchor := 0.0
	if len(onset) > 0 {
		search := int(anchorSearch * float64(sr) / float64(hopSize))
		if search > len(onset) {
			search = len(onset)
		}
		best := 0
		for i := 1; i < search; i++ {
			if onset[i] > onset[best] {
				best = i
			}
		}
		// the flux of a frame belongs to its centre
		anchor = (float64(best*hopSize) + FrameSize/2) / float64(sr)
		if anchor >= duration {
			anchor = 0
		}
	}

	var beats []float64
	for t := anchor; t >= 0; t -= period {
		beats = append(beats, math.Round(t*1000)/1000)
	}
	for t := anchor + period; t < duration; t += period {
		beats = append(beats, math.Round(t*1000)/1000)
	}
	sort.Float64s(beats)

	out := beats[:0]
	for i, b := range beats {
		if i > 0 && b <= out[len(out)-1] {
			continue
		}
		out = append(out, b)
	}
	return Timeline(out)
}
