package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/binaryphile/clapper/internal/audio"
	"github.com/binaryphile/clapper/internal/beat"
	"github.com/binaryphile/clapper/internal/clap"
	"github.com/binaryphile/clapper/internal/config"
	"github.com/binaryphile/clapper/internal/encode"
	"github.com/binaryphile/clapper/internal/logger"
	"github.com/binaryphile/clapper/internal/metadata"
	"github.com/binaryphile/clapper/internal/musicbrainz"
	"github.com/binaryphile/clapper/internal/track"
)

const (
	appName    = "clapper"
	appVersion = "1.0"
	appURL     = "https://github.com/binaryphile/clapper"
)

// options are the flags that only make sense for a single invocation.
type options struct {
	out      string // output path, overrides OutputDir and the generated name
	format   string // mp3 or wav, when out is not given
	metaFile string
	search   string
	dryRun   bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var opts options
	cfg.RegisterFlags(flag.CommandLine)
	flag.StringVar(&opts.out, "out", "", "Output file (default: <output-dir>/<source>-<mode>.<format>)")
	flag.StringVar(&opts.format, "format", "mp3", "Output format when -out is not given: mp3 or wav")
	flag.StringVar(&opts.metaFile, "metadata", "", "JSON file with artist/album/title/year/genre/coverArt tags")
	flag.StringVar(&opts.search, "search", "", "Search MusicBrainz for tags (e.g. \"Artist Album\")")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Detect beats and show what would be done")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <source-audio>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Put claps (or a tone) on every beat of a track.\n")
		fmt.Fprintf(os.Stderr, "Every setting can also be given as CLAPPER_<NAME> in the environment.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, cfg, opts, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.SugaredLogger, cfg config.Config, opts options, sourcePath string) error {
	mode, err := track.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	outPath, err := outputPath(cfg.OutputDir, opts, sourcePath, mode)
	if err != nil {
		return err
	}
	if !opts.dryRun && strings.EqualFold(filepath.Ext(outPath), ".mp3") && !encode.LameAvailable() {
		return errors.New("lame not found; install it or use -format wav")
	}

	var clapFiles []string
	if mode == track.ModeClaps {
		clapFiles, err = findAudioFiles(cfg.ClapsDir)
		if err != nil {
			return fmt.Errorf("clap bank: %w", err)
		}
		if len(clapFiles) == 0 {
			return fmt.Errorf("no clap samples found in %s", cfg.ClapsDir)
		}
	}

	seed := resolveSeed(cfg.Seed)

	fmt.Printf("clapper - %s on every beat\n", mode)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Source: %s\n", sourcePath)

	src, err := audio.Decode(sourcePath)
	if err != nil {
		return err
	}
	fmt.Printf("Decoded: %s\n", src)

	var detector beat.Detector = beat.NewOnsetDetector()
	if cfg.BeatsFile != "" {
		detector = beat.NewFileDetector(cfg.BeatsFile)
	}
	beats, err := detector.Detect(ctx, src)
	if err != nil {
		return fmt.Errorf("beat detection: %w", err)
	}
	fmt.Printf("Beats: %d\n", len(beats))
	log.Debugw("Detected beats", "count", len(beats), "beats", []float64(beats))

	job := track.Job{
		Mode:    mode,
		Source:  src,
		Beats:   beats,
		Overlay: cfg.Overlay,
	}

	switch mode {
	case track.ModeBeats:
		job.BeatSound, err = loadBeatSound(cfg.BeatSound, src)
		if err != nil {
			return err
		}
	case track.ModeClaps:
		bank, err := loadClapBank(clapFiles, src)
		if err != nil {
			return err
		}
		fmt.Printf("Claps: %d samples from %s\n", len(bank), cfg.ClapsDir)
		job.Compositor = clap.NewCompositor(cfg.ClapParams(), bank, clap.NewRand(seed))
	}

	fmt.Printf("Output: %s\n", outPath)
	if mode == track.ModeClaps {
		fmt.Printf("Seed: %d\n", seed)
	}
	if opts.dryRun {
		fmt.Println("\n[DRY RUN] Nothing written")
		return nil
	}

	out, err := track.NewAssembler(log, cfg.Workers).Run(ctx, job)
	if err != nil {
		return err
	}

	var tags *encode.TagSet
	if strings.EqualFold(filepath.Ext(outPath), ".mp3") {
		meta, err := trackMeta(ctx, log, opts, sourcePath)
		if err != nil {
			return err
		}
		if mode != track.ModeClaps {
			seed = 0
		}
		t := encode.BuildTags(encode.SourceName(sourcePath), string(mode), seed, meta)
		tags = &t
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	encOpts := encode.EncodeOptions{Quality: cfg.Quality, Verbose: cfg.Verbose}
	if err := encode.Export(ctx, out, outPath, encOpts, tags); err != nil {
		return err
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("Done! Wrote %s\n", outPath)
	return nil
}

// outputPath picks the output file: -out when given, otherwise a generated
// name in dir.
func outputPath(dir string, opts options, sourcePath string, mode track.Mode) (string, error) {
	if opts.out != "" {
		switch strings.ToLower(filepath.Ext(opts.out)) {
		case ".mp3", ".wav", ".wave":
			return opts.out, nil
		}
		return "", fmt.Errorf("output %s: extension must be .mp3 or .wav", opts.out)
	}

	format := strings.ToLower(strings.TrimPrefix(opts.format, "."))
	if format != "mp3" && format != "wav" {
		return "", fmt.Errorf("unknown format %q (want mp3 or wav)", opts.format)
	}
	return filepath.Join(dir, encode.GenerateFilename(sourcePath, string(mode), format)), nil
}

// resolveSeed replaces seed 0 with a random one so every render can be
// repeated from the seed it reports.
func resolveSeed(seed uint64) uint64 {
	for seed == 0 {
		seed = rand.Uint64()
	}
	return seed
}

// loadBeatSound returns the sound played on each beat in the source's
// format: the decoded file at path, or the default tone.
func loadBeatSound(path string, src *audio.Segment) (*audio.Segment, error) {
	if path == "" {
		return audio.Tone(audio.ToneFrequency, audio.ToneDuration, src.SampleRate, src.Channels), nil
	}
	sound, err := audio.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("beat sound: %w", err)
	}
	return sound.Conform(src.SampleRate, src.Channels)
}

// loadClapBank decodes files in order, converted to the source's format.
func loadClapBank(files []string, src *audio.Segment) ([]*audio.Segment, error) {
	bank := make([]*audio.Segment, 0, len(files))
	for _, f := range files {
		seg, err := audio.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("clap bank: %w", err)
		}
		seg, err = seg.Conform(src.SampleRate, src.Channels)
		if err != nil {
			return nil, fmt.Errorf("clap bank %s: %w", f, err)
		}
		bank = append(bank, seg)
	}
	return bank, nil
}

var audioExts = map[string]bool{
	".wav": true, ".wave": true, ".mp3": true,
	".flac": true, ".ogg": true, ".m4a": true, ".aiff": true,
}

func findAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if audioExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// trackMeta gathers tags from the -metadata file and the -search lookup.
// Search results fill only fields the file left empty. Lookup problems are
// logged as warnings; the track is still exported.
func trackMeta(ctx context.Context, log *zap.SugaredLogger, opts options, sourcePath string) (encode.TrackMeta, error) {
	var meta encode.TrackMeta

	if opts.metaFile != "" {
		tags, err := metadata.ParseJSON(opts.metaFile)
		if err != nil {
			return meta, err
		}
		for _, w := range tags.Validate() {
			log.Warnw("Metadata problem", "file", opts.metaFile, "error", w)
		}
		meta, err = tags.ToTrackMeta()
		if err != nil {
			return meta, err
		}
	}

	if opts.search == "" {
		return meta, nil
	}

	found, err := searchMeta(ctx, log, opts.search, encode.SourceName(sourcePath))
	if err != nil {
		log.Warnw("MusicBrainz lookup failed", "query", opts.search, "error", err)
		return meta, nil
	}
	return mergeMeta(meta, found), nil
}

func searchMeta(ctx context.Context, log *zap.SugaredLogger, query, sourceName string) (encode.TrackMeta, error) {
	client := musicbrainz.NewClient(appName, appVersion, appURL)
	defer client.Close()

	fmt.Printf("Searching MusicBrainz for: %s\n", query)
	releases, err := client.Search(ctx, query)
	if err != nil {
		return encode.TrackMeta{}, err
	}
	if len(releases) == 0 {
		return encode.TrackMeta{}, fmt.Errorf("no releases found for %q", query)
	}

	release := &releases[0]
	fmt.Printf("Found: %s - %s (%d)\n", release.Artist, release.Title, release.Year)

	var matched *musicbrainz.Track
	if full, err := client.GetReleaseTracks(ctx, release.MBID); err != nil {
		log.Warnw("Could not fetch track list", "release", release.MBID, "error", err)
	} else {
		release = full
		if t, ok := release.FindTrack(sourceName); ok {
			matched = &t
			log.Infow("Matched track", "num", t.Num, "title", t.Title)
		}
	}

	meta := release.TrackMeta(matched)

	cover, mime, err := client.GetCoverArt(ctx, release.MBID)
	switch {
	case err != nil:
		log.Warnw("Cover art fetch failed", "release", release.MBID, "error", err)
	case cover == nil:
		log.Debugw("No cover art", "release", release.MBID)
	default:
		meta.Cover, meta.CoverMIME = cover, mime
	}

	return meta, nil
}

// mergeMeta fills the empty fields of base from extra.
func mergeMeta(base, extra encode.TrackMeta) encode.TrackMeta {
	if base.Artist == "" {
		base.Artist = extra.Artist
	}
	if base.Album == "" {
		base.Album = extra.Album
	}
	if base.Title == "" {
		base.Title = extra.Title
	}
	if base.Year == 0 {
		base.Year = extra.Year
	}
	if base.Genre == "" {
		base.Genre = extra.Genre
	}
	if len(base.Cover) == 0 {
		base.Cover, base.CoverMIME = extra.Cover, extra.CoverMIME
	}
	return base
}
