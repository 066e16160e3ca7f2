package encode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// EncodeOptions configures the lame encoder
type EncodeOptions struct {
	Quality int  // VBR quality (0-9, lower is better, default 2)
	Verbose bool // Show lame output
}

// DefaultEncodeOptions returns the options used when nothing is configured.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Quality: 2, // -V 2 is high quality VBR (~190 kbps)
	}
}

// EncodeWAV encodes a WAV file to MP3 with the external lame binary.
// A partial or empty output file is removed on failure.
func EncodeWAV(ctx context.Context, inputPath, outputPath string, opts EncodeOptions) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if opts.Quality < 0 || opts.Quality > 9 {
		return fmt.Errorf("lame quality must be 0-9, got %d", opts.Quality)
	}

	args := []string{fmt.Sprintf("-V%d", opts.Quality)}
	if !opts.Verbose {
		args = append(args, "--quiet")
	}
	args = append(args, inputPath, outputPath)

	cmd := exec.CommandContext(ctx, "lame", args...)
	if opts.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("lame encoding failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(outputPath)
		return errors.New("output file is empty")
	}

	return nil
}

// LameAvailable checks if lame is installed and accessible
func LameAvailable() bool {
	_, err := exec.LookPath("lame")
	return err == nil
}
