package beat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/binaryphile/clapper/internal/audio"
)

// FileDetector reads precomputed beats from a file, such as the output of
// an external beat tracker.
type FileDetector struct {
	Path string
}

// NewFileDetector creates a detector for the beats file at path.
func NewFileDetector(path string) *FileDetector {
	return &FileDetector{Path: path}
}

// Detect ignores the track and returns the beats stored in the file.
func (d *FileDetector) Detect(ctx context.Context, _ *audio.Segment) (Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read beats: %w", err)
	}
	defer f.Close()

	beats, err := ParseBeats(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Path, err)
	}
	return beats, nil
}

// ParseBeats reads beat timestamps in seconds. The input is either a JSON
// array of numbers or text with one beat per line, where only the first
// column is read and "#" starts a comment.
func ParseBeats(r io.Reader) (Timeline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read beats: %w", err)
	}

	var beats Timeline
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &beats); err != nil {
			return nil, fmt.Errorf("parse beats: %w", err)
		}
	} else {
		beats, err = parseColumns(data)
		if err != nil {
			return nil, err
		}
	}

	if beats == nil {
		beats = Timeline{}
	}
	if err := beats.Validate(); err != nil {
		return nil, err
	}
	return beats, nil
}

func parseColumns(data []byte) (Timeline, error) {
	var beats Timeline
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid timestamp %q", line, fields[0])
		}
		beats = append(beats, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read beats: %w", err)
	}
	return beats, nil
}
