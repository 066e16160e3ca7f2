// Package metadata parses the optional JSON tag file for the exported track.
// Used when a MusicBrainz search is not wanted or finds nothing useful.
//
//	{"artist": "...", "album": "...", "title": "...", "year": "1973",
//	 "genre": "...", "coverArt": "cover.jpg"}
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/binaryphile/clapper/internal/encode"
)

// Tags represents track metadata from a JSON file.
type Tags struct {
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Title    string `json:"title"`
	Year     string `json:"year"`
	Genre    string `json:"genre"`
	CoverArt string `json:"coverArt"`
}

// ParseJSON reads and parses a metadata JSON file. A relative coverArt path
// is resolved against the file's directory.
func ParseJSON(path string) (*Tags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var tags Tags
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if tags.CoverArt != "" && !filepath.IsAbs(tags.CoverArt) {
		tags.CoverArt = filepath.Join(filepath.Dir(path), tags.CoverArt)
	}
	return &tags, nil
}

// Validate checks field formats and returns any validation errors.
// All issues are returned as warnings - caller decides whether to proceed.
func (t *Tags) Validate() []error {
	var errs []error

	if t.Artist == "" && t.Album == "" && t.Title == "" {
		errs = append(errs, errors.New("no artist, album or title given"))
	}
	if t.Year != "" {
		if y, err := strconv.Atoi(t.Year); err != nil || y <= 0 {
			errs = append(errs, fmt.Errorf("year %q is not a positive number", t.Year))
		}
	}
	if t.CoverArt != "" {
		if _, err := os.Stat(t.CoverArt); err != nil {
			errs = append(errs, fmt.Errorf("cover art: %w", err))
		}
	}

	return errs
}

// ToTrackMeta converts Tags to encode.TrackMeta, loading the cover art.
func (t *Tags) ToTrackMeta() (encode.TrackMeta, error) {
	year, _ := strconv.Atoi(t.Year) // ignore error, default 0

	cover, mime, err := t.LoadCoverArt()
	if err != nil {
		return encode.TrackMeta{}, err
	}

	return encode.TrackMeta{
		Artist:    t.Artist,
		Album:     t.Album,
		Title:     t.Title,
		Year:      year,
		Genre:     t.Genre,
		Cover:     cover,
		CoverMIME: mime,
	}, nil
}

// LoadCoverArt reads the cover art file if specified.
// Returns (data, mimeType, error). Returns nil,nil,nil if CoverArt is empty.
func (t *Tags) LoadCoverArt() ([]byte, string, error) {
	if t.CoverArt == "" {
		return nil, "", nil
	}
	data, err := os.ReadFile(t.CoverArt)
	if err != nil {
		return nil, "", fmt.Errorf("cover art: %w", err)
	}
	return data, detectMIME(t.CoverArt), nil
}

// detectMIME returns MIME type based on file extension.
func detectMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "image/jpeg" // fallback
	}
}
