package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// FFmpeg output format for files that are neither WAV nor MP3.
const (
	FFmpegSampleRate = 44100
	FFmpegChannels   = 2
)

// Decode loads an audio file into memory. WAV and MP3 are decoded natively;
// any other container, and WAV encodings other than PCM or float, go through
// ffmpeg.
func Decode(path string) (*Segment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		seg, err := DecodeWAV(f)
		if errors.Is(err, ErrUnsupportedWAV) && FFmpegAvailable() {
			return DecodeFFmpeg(path)
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return seg, nil
	case ".mp3":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		seg, err := DecodeMP3(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return seg, nil
	default:
		return DecodeFFmpeg(path)
	}
}

// ErrUnsupportedWAV reports a WAV file whose sample encoding is neither
// integer PCM nor IEEE float.
var ErrUnsupportedWAV = errors.New("unsupported WAV encoding")

// WAV format codes. Extensible files carry the real code in their subformat.
const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

type wavFormat struct {
	code     uint16
	channels int
	rate     int
	bits     int
}

// DecodeWAV reads an integer PCM or IEEE float WAV stream. Any other
// encoding fails with ErrUnsupportedWAV.
func DecodeWAV(r io.ReadSeeker) (*Segment, error) {
	f, _, err := readWAV(r, false)
	if err != nil {
		return nil, fmt.Errorf("invalid WAV file: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch f.code {
	case wavFormatPCM:
		return decodePCMWAV(r)
	case wavFormatFloat:
		return decodeFloatWAV(r)
	default:
		return nil, fmt.Errorf("%w: format 0x%04X", ErrUnsupportedWAV, f.code)
	}
}

func decodePCMWAV(r io.ReadSeeker) (*Segment, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM: %w", err)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		return nil, errors.New("unknown WAV bit depth")
	}
	channels := int(d.NumChans)
	if channels == 0 {
		return nil, errors.New("WAV file has no channels")
	}

	samples := make([]float64, len(buf.Data)-len(buf.Data)%channels)
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		for i := range samples {
			samples[i] = float64(buf.Data[i]-128) / 128
		}
	} else {
		scale := math.Pow(2, float64(bitDepth-1))
		for i := range samples {
			samples[i] = float64(buf.Data[i]) / scale
		}
	}

	return &Segment{
		SampleRate: int(d.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
		Samples:    samples,
	}, nil
}

// decodeFloatWAV clips samples to [-1, 1]. The segment exports as 32-bit
// integer PCM.
func decodeFloatWAV(r io.Reader) (*Segment, error) {
	f, data, err := readWAV(r, true)
	if err != nil {
		return nil, fmt.Errorf("invalid WAV file: %w", err)
	}
	if f.channels == 0 {
		return nil, errors.New("WAV file has no channels")
	}

	width := f.bits / 8
	if f.bits != 32 && f.bits != 64 {
		return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedWAV, f.bits)
	}
	n := len(data) / width
	n -= n % f.channels
	samples := make([]float64, n)
	for i := range samples {
		var v float64
		if width == 4 {
			v = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		} else {
			v = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		if math.IsNaN(v) {
			v = 0
		}
		samples[i] = clip(v)
	}

	return &Segment{
		SampleRate: f.rate,
		Channels:   f.channels,
		BitDepth:   32,
		Samples:    samples,
	}, nil
}

// readWAV walks the RIFF chunks of r. It stops at the fmt chunk, or at the
// data chunk when withData is set, and returns the data chunk contents.
func readWAV(r io.Reader, withData bool) (wavFormat, []byte, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return wavFormat{}, nil, err
	}
	if p.Format != riff.WavFormatID {
		return wavFormat{}, nil, fmt.Errorf("RIFF form %q is not WAVE", p.Format[:])
	}

	var f wavFormat
	haveFmt := false
	for {
		ch, err := p.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if !haveFmt {
					return f, nil, errors.New("fmt chunk not found")
				}
				return f, nil, errors.New("data chunk not found")
			}
			return f, nil, err
		}

		switch ch.ID {
		case riff.FmtID:
			buf, err := io.ReadAll(io.LimitReader(ch, int64(ch.Size)))
			if err != nil {
				return f, nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			if len(buf) < 16 {
				return f, nil, fmt.Errorf("fmt chunk is %d bytes", len(buf))
			}
			f = wavFormat{
				code:     binary.LittleEndian.Uint16(buf[0:]),
				channels: int(binary.LittleEndian.Uint16(buf[2:])),
				rate:     int(binary.LittleEndian.Uint32(buf[4:])),
				bits:     int(binary.LittleEndian.Uint16(buf[14:])),
			}
			// the subformat GUID begins with the plain format code
			if f.code == wavFormatExtensible && len(buf) >= 26 {
				f.code = binary.LittleEndian.Uint16(buf[24:])
			}
			haveFmt = true
			if !withData {
				return f, nil, nil
			}
		case riff.DataFormatID:
			if !haveFmt {
				return f, nil, errors.New("data chunk before fmt chunk")
			}
			data, err := io.ReadAll(io.LimitReader(ch, int64(ch.Size)))
			if err != nil {
				return f, nil, fmt.Errorf("read data chunk: %w", err)
			}
			return f, data, nil
		default:
			ch.Drain()
		}
	}
}

// DecodeMP3 reads an MP3 stream. The decoder always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (*Segment, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decoder: %w", err)
	}
	data, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("read mp3: %w", err)
	}

	seg := fromS16LE(data, 2)
	seg.SampleRate = d.SampleRate()
	return seg, nil
}

// DecodeFFmpeg runs ffmpeg to decode path to 16-bit PCM at
// FFmpegSampleRate, FFmpegChannels.
func DecodeFFmpeg(path string) (*Segment, error) {
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(FFmpegSampleRate),
		"-ac", fmt.Sprint(FFmpegChannels),
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	seg := fromS16LE(out, FFmpegChannels)
	seg.SampleRate = FFmpegSampleRate
	return seg, nil
}

// FFmpegAvailable checks if ffmpeg is installed and accessible
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// fromS16LE converts little-endian int16 PCM to a segment, dropping any
// trailing partial frame.
func fromS16LE(data []byte, channels int) *Segment {
	n := len(data) / 2
	n -= n % channels
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
	}
	return &Segment{
		Channels: channels,
		BitDepth: 16,
		Samples:  samples,
	}
}
