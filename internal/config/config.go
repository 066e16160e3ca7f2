// Package config loads clapper settings from CLAPPER_* environment variables,
// with command-line flags taking precedence.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"

	"github.com/binaryphile/clapper/internal/clap"
	"github.com/binaryphile/clapper/internal/track"
)

// Prefix is the environment variable prefix.
const Prefix = "clapper"

// Config holds every clapper setting. Each field maps to CLAPPER_ plus its
// name in upper snake case, for example CLAPPER_PITCH_SHIFT_MIN_OCTAVE.
type Config struct {
	Mode    string `default:"claps"`
	Overlay bool   `default:"true"`

	PitchShiftMinOctave   float64 `split_words:"true" default:"-0.5"`
	PitchShiftMaxOctave   float64 `split_words:"true" default:"0.5"`
	TimeShiftMaxMs        float64 `split_words:"true" default:"5"`
	VolumeLookbehindBeats int     `split_words:"true" default:"4"`
	Gain                  float64 `default:"20"`

	ClapsDir  string `split_words:"true" default:"sounds/claps"`
	BeatSound string `split_words:"true"`
	BeatsFile string `split_words:"true"`
	OutputDir string `split_words:"true" default:"output"`

	Workers int    `default:"1"`
	Seed    uint64 `default:"0"`
	Quality int    `default:"2"`
	Verbose bool
}

// Load reads the environment into a Config, filling defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// RegisterFlags binds every field to a flag on fs, using the current values
// as flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Mode, "mode", c.Mode, "Output mode: beats or claps")
	fs.BoolVar(&c.Overlay, "overlay", c.Overlay, "Mix onto the source instead of a silent track")
	fs.Float64Var(&c.PitchShiftMinOctave, "pitch-min", c.PitchShiftMinOctave, "Lowest clap pitch shift in octaves")
	fs.Float64Var(&c.PitchShiftMaxOctave, "pitch-max", c.PitchShiftMaxOctave, "Highest clap pitch shift in octaves")
	fs.Float64Var(&c.TimeShiftMaxMs, "time-shift", c.TimeShiftMaxMs, "Largest delay between layered claps in ms")
	fs.IntVar(&c.VolumeLookbehindBeats, "lookbehind", c.VolumeLookbehindBeats, "Beats of audio measured for clap loudness (0 = fixed gain)")
	fs.Float64Var(&c.Gain, "gain", c.Gain, "Clap gain in dB")
	fs.StringVar(&c.ClapsDir, "claps", c.ClapsDir, "Directory of clap samples")
	fs.StringVar(&c.BeatSound, "beat-sound", c.BeatSound, "Sound placed on each beat in beats mode (default: 880 Hz tone)")
	fs.StringVar(&c.BeatsFile, "beats", c.BeatsFile, "Read beat timestamps from this file instead of detecting them")
	fs.StringVar(&c.OutputDir, "o", c.OutputDir, "Output directory")
	fs.StringVar(&c.OutputDir, "output", c.OutputDir, "Output directory")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Goroutines building claps")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Random seed (0 = random)")
	fs.IntVar(&c.Quality, "q", c.Quality, "LAME VBR quality (0=best, 9=worst)")
	fs.IntVar(&c.Quality, "quality", c.Quality, "LAME VBR quality (0=best, 9=worst)")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Verbose output")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Verbose output")
}

// ClapParams returns the clap compositor settings.
func (c Config) ClapParams() clap.Params {
	return clap.Params{
		PitchShiftMinOctave:   c.PitchShiftMinOctave,
		PitchShiftMaxOctave:   c.PitchShiftMaxOctave,
		TimeShiftMaxMs:        c.TimeShiftMaxMs,
		VolumeLookbehindBeats: c.VolumeLookbehindBeats,
		Gain:                  c.Gain,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	if _, merr := track.ParseMode(c.Mode); merr != nil {
		err = multierr.Append(err, merr)
	}
	err = multierr.Append(err, c.ClapParams().Validate())
	if c.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Quality < 0 || c.Quality > 9 {
		err = multierr.Append(err, fmt.Errorf("quality must be 0-9, got %d", c.Quality))
	}
	if c.OutputDir == "" {
		err = multierr.Append(err, errors.New("output dir must not be empty"))
	}
	return err
}
