package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes s as PCM WAV at its bit depth (16, 24 or 32; anything
// else is written at 16).
func (s *Segment) EncodeWAV(w io.WriteSeeker) error {
	depth := s.BitDepth
	switch depth {
	case 16, 24, 32:
	default:
		depth = DefaultBitDepth
	}

	scale := math.Pow(2, float64(depth-1))
	lo, hi := -scale, scale-1
	data := make([]int, len(s.Samples))
	for i, v := range s.Samples {
		q := math.Round(v * scale)
		if q > hi {
			q = hi
		} else if q < lo {
			q = lo
		}
		data[i] = int(q)
	}

	enc := wav.NewEncoder(w, s.SampleRate, depth, s.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: s.Channels,
			SampleRate:  s.SampleRate,
		},
		Data:           data,
		SourceBitDepth: depth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes s to path as WAV.
func (s *Segment) WriteWAVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.EncodeWAV(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
