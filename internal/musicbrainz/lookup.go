// Package musicbrainz looks up release metadata used to tag exported tracks.
package musicbrainz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uploadedlobster.com/mbtypes"
	"go.uploadedlobster.com/musicbrainzws2"

	"github.com/binaryphile/clapper/internal/encode"
)

// requestInterval keeps clients within the MusicBrainz rate limit of one
// request per second.
const requestInterval = time.Second

// Release contains metadata for an album/release
type Release struct {
	MBID        string  // MusicBrainz ID
	Title       string  // Album title
	Artist      string  // Artist name (may be "Various Artists" for compilations)
	Year        int     // Release year
	Country     string  // Release country code
	TrackCount  int     // Number of tracks
	Tracks      []Track // Filled by GetReleaseTracks
	Compilation bool    // True if Various Artists
}

// Track contains metadata for a single track
type Track struct {
	Num    int
	Title  string
	Artist string // May differ from album artist on compilations
}

// Client wraps the MusicBrainz API
type Client struct {
	client    *musicbrainzws2.Client
	userAgent string
}

// NewClient creates a new MusicBrainz API client
func NewClient(appName, version, contact string) *Client {
	client := musicbrainzws2.NewClient(musicbrainzws2.AppInfo{
		Name:    appName,
		Version: version,
		URL:     contact,
	})
	return &Client{
		client:    client,
		userAgent: fmt.Sprintf("%s/%s ( %s )", appName, version, contact),
	}
}

// Close releases client resources
func (c *Client) Close() error {
	return c.client.Close()
}

// Search searches for releases by text query (artist, album, etc).
func (c *Client) Search(ctx context.Context, query string) ([]Release, error) {
	if err := wait(ctx); err != nil {
		return nil, err
	}

	filter := musicbrainzws2.SearchFilter{
		Query: query,
	}
	result, err := c.client.SearchReleases(ctx, filter, musicbrainzws2.DefaultPaginator())
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	releases := make([]Release, 0, len(result.Releases))
	for _, r := range result.Releases {
		releases = append(releases, Release{
			MBID:        string(r.ID),
			Title:       r.Title,
			Artist:      getArtistName(r.ArtistCredit),
			Year:        r.Date.Year,
			Country:     string(r.CountryCode),
			TrackCount:  getTotalTracks(r.Media),
			Compilation: isCompilation(r.ArtistCredit),
		})
	}

	return releases, nil
}

// GetReleaseTracks fetches full track information for a release found by
// Search.
func (c *Client) GetReleaseTracks(ctx context.Context, mbid string) (*Release, error) {
	if err := wait(ctx); err != nil {
		return nil, err
	}

	filter := musicbrainzws2.IncludesFilter{
		Includes: []string{"recordings", "artists", "artist-credits"},
	}
	r, err := c.client.LookupRelease(ctx, mbtypes.MBID(mbid), filter)
	if err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}

	release := Release{
		MBID:        string(r.ID),
		Title:       r.Title,
		Artist:      getArtistName(r.ArtistCredit),
		Year:        r.Date.Year,
		Country:     string(r.CountryCode),
		TrackCount:  getTotalTracks(r.Media),
		Compilation: isCompilation(r.ArtistCredit),
	}
	for _, medium := range r.Media {
		for _, track := range medium.Tracks {
			release.Tracks = append(release.Tracks, Track{
				Num:    track.Position,
				Title:  track.Title,
				Artist: getTrackArtist(track, r.ArtistCredit),
			})
		}
	}

	return &release, nil
}

// FindTrack returns the track whose title matches title, ignoring case and
// surrounding space.
func (r *Release) FindTrack(title string) (Track, bool) {
	title = strings.TrimSpace(title)
	for _, t := range r.Tracks {
		if strings.EqualFold(strings.TrimSpace(t.Title), title) {
			return t, true
		}
	}
	return Track{}, false
}

// TrackMeta returns tag metadata for the release. A matched track supplies
// the title and, on compilations, the artist.
func (r *Release) TrackMeta(track *Track) encode.TrackMeta {
	meta := encode.TrackMeta{
		Artist: r.Artist,
		Album:  r.Title,
		Year:   r.Year,
	}
	if track != nil {
		meta.Title = track.Title
		if track.Artist != "" {
			meta.Artist = track.Artist
		}
	}
	return meta
}

func wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(requestInterval):
		return nil
	}
}

func getArtistName(credit musicbrainzws2.ArtistCredit) string {
	if len(credit) == 0 {
		return "Unknown Artist"
	}
	return credit.String()
}

func getTrackArtist(track musicbrainzws2.Track, albumCredit musicbrainzws2.ArtistCredit) string {
	if len(track.ArtistCredit) > 0 {
		return track.ArtistCredit.String()
	}
	if len(track.Recording.ArtistCredit) > 0 {
		return track.Recording.ArtistCredit.String()
	}
	return getArtistName(albumCredit)
}

func isCompilation(credit musicbrainzws2.ArtistCredit) bool {
	if len(credit) == 0 {
		return false
	}
	return getArtistName(credit) == "Various Artists"
}

func getTotalTracks(media []musicbrainzws2.Medium) int {
	total := 0
	for _, m := range media {
		total += m.TrackCount
	}
	return total
}
