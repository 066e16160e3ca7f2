package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binaryphile/clapper/internal/audio"
)

// Export writes seg to path. A .wav path is written directly. A .mp3 path
// is rendered to a temporary WAV, encoded with lame, tagged and then moved
// into place, so a failed export leaves no partial file behind.
func Export(ctx context.Context, seg *audio.Segment, path string, opts EncodeOptions, tags *TagSet) error {
	if seg == nil {
		return fmt.Errorf("export %s: no audio", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		return seg.WriteWAVFile(path)
	case ".mp3":
		return exportMP3(ctx, seg, path, opts, tags)
	default:
		return fmt.Errorf("export %s: unsupported format %q", path, ext)
	}
}

func exportMP3(ctx context.Context, seg *audio.Segment, path string, opts EncodeOptions, tags *TagSet) error {
	if !LameAvailable() {
		return fmt.Errorf("export %s: lame not found", path)
	}

	tmpDir, err := os.MkdirTemp("", "clapper-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "track.wav")
	if err := seg.WriteWAVFile(wavPath); err != nil {
		return err
	}

	mp3Path := filepath.Join(tmpDir, "track.mp3")
	if err := EncodeWAV(ctx, wavPath, mp3Path, opts); err != nil {
		return err
	}

	if tags != nil {
		if err := tags.Apply(mp3Path); err != nil {
			return err
		}
	}

	return move(mp3Path, path)
}

// move renames src to dst, copying when they are on different filesystems.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		os.Remove(dst)
		return fmt.Errorf("move %s: %w", dst, err)
	}
	return nil
}
