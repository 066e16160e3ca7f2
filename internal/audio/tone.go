package audio

import "math"

// Beat tone defaults: a short 880 Hz burst at -6 dBFS.
const (
	ToneFrequency = 880.0
	ToneDuration  = 100 // ms
	toneAmplitude = 0.5
	toneFadeMs    = 5
)

// Tone synthesizes a sine burst with short linear fades at both ends so the
// burst starts and stops without clicks.
func Tone(freqHz float64, durationMs, sampleRate, channels int) *Segment {
	seg := Silent(durationMs, sampleRate, channels)
	frames := seg.Frames()
	fade := toneFadeMs * sampleRate / 1000
	if fade > frames/2 {
		fade = frames / 2
	}

	for f := 0; f < frames; f++ {
		env := 1.0
		switch {
		case f < fade:
			env = float64(f) / float64(fade)
		case f >= frames-fade:
			env = float64(frames-1-f) / float64(fade)
		}
		v := toneAmplitude * env * math.Sin(2*math.Pi*freqHz*float64(f)/float64(sampleRate))
		for c := 0; c < channels; c++ {
			seg.Samples[f*channels+c] = v
		}
	}
	return seg
}
