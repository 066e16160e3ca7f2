package audio

import (
	"math"
	"testing"
)

// ramp returns a mono segment at 1 kHz whose sample i is i/1000.
func ramp(frames int) *Segment {
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = float64(i) / 1000
	}
	return New(1000, 1, samples)
}

func TestSilent(t *testing.T) {
	seg := Silent(10000, 44100, 2)

	if seg.Len() != 10000 {
		t.Errorf("Len() = %d, want 10000", seg.Len())
	}
	if seg.Frames() != 441000 {
		t.Errorf("Frames() = %d, want 441000", seg.Frames())
	}
	for i, v := range seg.Samples {
		if v != 0 {
			t.Fatalf("sample[%d] = %v, want 0", i, v)
		}
	}
}

func TestSlice(t *testing.T) {
	seg := ramp(1000) // 1 ms per frame

	tests := []struct {
		name       string
		start, end int
		wantFrames int
		wantFirst  float64
	}{
		{"middle", 200, 350, 150, 0.2},
		{"clamped end", 900, 5000, 100, 0.9},
		{"negative start", -50, 10, 10, 0},
		{"empty", 500, 500, 0, 0},
		{"inverted", 600, 400, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seg.Slice(tt.start, tt.end)
			if got.Frames() != tt.wantFrames {
				t.Fatalf("Frames() = %d, want %d", got.Frames(), tt.wantFrames)
			}
			if tt.wantFrames > 0 && got.Samples[0] != tt.wantFirst {
				t.Errorf("first sample = %v, want %v", got.Samples[0], tt.wantFirst)
			}
		})
	}
}

func TestSlice_DoesNotAlias(t *testing.T) {
	seg := ramp(100)
	part := seg.Slice(0, 50)
	part.Samples[0] = 0.99

	if seg.Samples[0] != 0 {
		t.Errorf("source sample[0] = %v after editing slice, want 0", seg.Samples[0])
	}
}

func TestDBFS(t *testing.T) {
	full := New(1000, 1, []float64{1, -1, 1, -1})
	if got := full.DBFS(); math.Abs(got) > 1e-9 {
		t.Errorf("full-scale square DBFS() = %v, want 0", got)
	}

	half := New(1000, 1, []float64{0.5, -0.5, 0.5, -0.5})
	if got, want := half.DBFS(), 20*math.Log10(0.5); math.Abs(got-want) > 1e-9 {
		t.Errorf("half-scale square DBFS() = %v, want %v", got, want)
	}
}

func TestDBFS_SilenceIsNegativeInfinity(t *testing.T) {
	if got := Silent(100, 1000, 1).DBFS(); !math.IsInf(got, -1) {
		t.Errorf("silent DBFS() = %v, want -Inf", got)
	}
	if got := New(1000, 1, nil).DBFS(); !math.IsInf(got, -1) {
		t.Errorf("empty DBFS() = %v, want -Inf", got)
	}
}

func TestApplyGain(t *testing.T) {
	seg := New(1000, 1, []float64{0.1, -0.1, 0.6})

	up := seg.ApplyGain(20 * math.Log10(2))
	want := []float64{0.2, -0.2, 1} // last sample saturates
	for i, v := range up.Samples {
		if math.Abs(v-want[i]) > 1e-9 {
			t.Errorf("sample[%d] = %v, want %v", i, v, want[i])
		}
	}

	if seg.Samples[0] != 0.1 {
		t.Errorf("ApplyGain modified its receiver: sample[0] = %v", seg.Samples[0])
	}
}

func TestOverlay_MixesAtPosition(t *testing.T) {
	base := Silent(10, 1000, 1)
	burst := New(1000, 1, []float64{0.25, 0.5})

	got, err := base.Overlay(burst, 3)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}

	want := []float64{0, 0, 0, 0.25, 0.5, 0, 0, 0, 0, 0}
	for i, v := range got.Samples {
		if v != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, v, want[i])
		}
	}
	if base.Samples[3] != 0 {
		t.Error("Overlay modified its receiver")
	}
}

func TestOverlay_KeepsReceiverLength(t *testing.T) {
	base := Silent(5, 1000, 1)
	long := New(1000, 1, []float64{0.1, 0.1, 0.1, 0.1})

	got, err := base.Overlay(long, 3)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if got.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", got.Frames())
	}
	if got.Samples[4] != 0.1 {
		t.Errorf("sample[4] = %v, want 0.1", got.Samples[4])
	}
}

func TestOverlay_PastEndIsNoop(t *testing.T) {
	base := Silent(5, 1000, 1)
	got, err := base.Overlay(New(1000, 1, []float64{1}), 5000)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	for i, v := range got.Samples {
		if v != 0 {
			t.Errorf("sample[%d] = %v, want 0", i, v)
		}
	}
}

func TestOverlay_Saturates(t *testing.T) {
	base := New(1000, 1, []float64{0.8, -0.8})
	got, err := base.Overlay(New(1000, 1, []float64{0.5, -0.5}), 0)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if got.Samples[0] != 1 || got.Samples[1] != -1 {
		t.Errorf("Samples = %v, want [1 -1]", got.Samples)
	}
}

func TestOverlay_MonoOntoStereo(t *testing.T) {
	base := Silent(2, 1000, 2)
	got, err := base.Overlay(New(1000, 1, []float64{0.3, 0.4}), 0)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	want := []float64{0.3, 0.3, 0.4, 0.4}
	for i, v := range got.Samples {
		if v != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestMono(t *testing.T) {
	seg := New(1000, 2, []float64{0.2, 0.4, -1, 1})
	got := seg.Mono()
	want := []float64{0.3, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("mono[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPitchShift_ZeroIsIdentity(t *testing.T) {
	seg := ramp(500)
	got, err := seg.PitchShift(0)
	if err != nil {
		t.Fatalf("PitchShift(0) failed: %v", err)
	}
	if got.SampleRate != seg.SampleRate {
		t.Errorf("SampleRate = %d, want %d", got.SampleRate, seg.SampleRate)
	}
	if len(got.Samples) != len(seg.Samples) {
		t.Fatalf("len = %d, want %d", len(got.Samples), len(seg.Samples))
	}
	for i := range seg.Samples {
		if got.Samples[i] != seg.Samples[i] {
			t.Fatalf("sample[%d] = %v, want %v", i, got.Samples[i], seg.Samples[i])
		}
	}
}

func TestPitchShift_OctaveUpHalvesDuration(t *testing.T) {
	seg := Tone(440, 1000, 8000, 1)

	up, err := seg.PitchShift(1)
	if err != nil {
		t.Fatalf("PitchShift(1) failed: %v", err)
	}
	if up.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000 (label preserved)", up.SampleRate)
	}
	if got := up.Frames(); got < 3960 || got > 4040 {
		t.Errorf("Frames() = %d, want about 4000", got)
	}

	down, err := seg.PitchShift(-1)
	if err != nil {
		t.Fatalf("PitchShift(-1) failed: %v", err)
	}
	if got := down.Frames(); got < 15900 || got > 16100 {
		t.Errorf("Frames() = %d, want about 16000", got)
	}
}

func TestTone(t *testing.T) {
	seg := Tone(ToneFrequency, ToneDuration, 44100, 2)

	if seg.Len() != ToneDuration {
		t.Errorf("Len() = %d, want %d", seg.Len(), ToneDuration)
	}
	if seg.Samples[0] != 0 {
		t.Errorf("first sample = %v, want 0 (fade in)", seg.Samples[0])
	}
	peak := 0.0
	for _, v := range seg.Samples {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > toneAmplitude+1e-9 || peak < toneAmplitude*0.9 {
		t.Errorf("peak = %v, want about %v", peak, toneAmplitude)
	}
}
