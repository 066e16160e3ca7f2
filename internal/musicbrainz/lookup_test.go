package musicbrainz

import (
	"context"
	"errors"
	"testing"

	"go.uploadedlobster.com/musicbrainzws2"
)

func TestNewClient(t *testing.T) {
	// Smoke test: client can be created and closed
	client := NewClient("test-app", "1.0", "test@example.com")
	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	if client.client == nil {
		t.Fatal("Inner client is nil")
	}

	// Should close without error
	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestGetArtistName_Single(t *testing.T) {
	credit := musicbrainzws2.ArtistCredit{
		{Name: "The Beatles", JoinPhrase: ""},
	}

	got := getArtistName(credit)
	want := "The Beatles"

	if got != want {
		t.Errorf("getArtistName() = %q, want %q", got, want)
	}
}

func TestGetArtistName_Multiple(t *testing.T) {
	credit := musicbrainzws2.ArtistCredit{
		{Name: "Queen", JoinPhrase: " & "},
		{Name: "David Bowie", JoinPhrase: ""},
	}

	got := getArtistName(credit)
	want := "Queen & David Bowie"

	if got != want {
		t.Errorf("getArtistName() = %q, want %q", got, want)
	}
}

func TestGetArtistName_Empty(t *testing.T) {
	credit := musicbrainzws2.ArtistCredit{}

	got := getArtistName(credit)
	want := "Unknown Artist"

	if got != want {
		t.Errorf("getArtistName() = %q, want %q", got, want)
	}
}

func TestIsCompilation_True(t *testing.T) {
	credit := musicbrainzws2.ArtistCredit{
		{Name: "Various Artists", JoinPhrase: ""},
	}

	if !isCompilation(credit) {
		t.Error("isCompilation() = false, want true")
	}
}

func TestIsCompilation_False(t *testing.T) {
	credit := musicbrainzws2.ArtistCredit{
		{Name: "Pink Floyd", JoinPhrase: ""},
	}

	if isCompilation(credit) {
		t.Error("isCompilation() = true, want false")
	}
}

func TestIsCompilation_Empty(t *testing.T) {
	credit := musicbrainzws2.ArtistCredit{}

	if isCompilation(credit) {
		t.Error("isCompilation() = true for empty credit, want false")
	}
}

func TestGetTotalTracks(t *testing.T) {
	media := []musicbrainzws2.Medium{
		{TrackCount: 12},
		{TrackCount: 10},
	}

	got := getTotalTracks(media)
	want := 22

	if got != want {
		t.Errorf("getTotalTracks() = %d, want %d", got, want)
	}
}

func TestGetTotalTracks_Empty(t *testing.T) {
	media := []musicbrainzws2.Medium{}

	got := getTotalTracks(media)
	want := 0

	if got != want {
		t.Errorf("getTotalTracks() = %d, want %d", got, want)
	}
}

func TestGetTotalTracks_Single(t *testing.T) {
	media := []musicbrainzws2.Medium{
		{TrackCount: 8},
	}

	got := getTotalTracks(media)
	want := 8

	if got != want {
		t.Errorf("getTotalTracks() = %d, want %d", got, want)
	}
}

func TestNewClient_UserAgent(t *testing.T) {
	client := NewClient("clapper", "1.0", "https://example.com")
	defer client.Close()

	want := "clapper/1.0 ( https://example.com )"
	if client.userAgent != want {
		t.Errorf("userAgent = %q, want %q", client.userAgent, want)
	}
}

func TestSearch_Cancelled(t *testing.T) {
	client := NewClient("test-app", "1.0", "test@example.com")
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Search(ctx, "Pink Floyd"); !errors.Is(err, context.Canceled) {
		t.Errorf("Search error = %v, want context.Canceled", err)
	}
}

func TestFindTrack(t *testing.T) {
	r := &Release{
		Tracks: []Track{
			{Num: 1, Title: "Come Together", Artist: "The Beatles"},
			{Num: 2, Title: "Something", Artist: "The Beatles"},
		},
	}

	got, ok := r.FindTrack("  something ")
	if !ok {
		t.Fatal("FindTrack did not match")
	}
	if got.Num != 2 {
		t.Errorf("Num = %d, want 2", got.Num)
	}

	if _, ok := r.FindTrack("Octopus's Garden"); ok {
		t.Error("FindTrack matched a missing title")
	}
}

func TestTrackMeta(t *testing.T) {
	r := &Release{Title: "Hits", Artist: "Various Artists", Year: 1985, Compilation: true}

	meta := r.TrackMeta(nil)
	if meta.Artist != "Various Artists" || meta.Album != "Hits" || meta.Year != 1985 {
		t.Errorf("TrackMeta(nil) = %+v", meta)
	}
	if meta.Title != "" {
		t.Errorf("Title = %q, want empty", meta.Title)
	}

	meta = r.TrackMeta(&Track{Num: 5, Title: "Take On Me", Artist: "A-ha"})
	if meta.Artist != "A-ha" {
		t.Errorf("Artist = %q, want %q", meta.Artist, "A-ha")
	}
	if meta.Title != "Take On Me" {
		t.Errorf("Title = %q, want %q", meta.Title, "Take On Me")
	}
}

func TestRelease_Struct(t *testing.T) {
	r := Release{
		MBID:        "12345678-1234-1234-1234-123456789012",
		Title:       "Test Album",
		Artist:      "Test Artist",
		Year:        2024,
		Country:     "US",
		TrackCount:  12,
		Compilation: false,
		Tracks: []Track{
			{Num: 1, Title: "Track One", Artist: "Test Artist"},
			{Num: 2, Title: "Track Two", Artist: "Test Artist"},
		},
	}

	if r.MBID == "" {
		t.Error("MBID is empty")
	}
	if len(r.Tracks) != 2 {
		t.Errorf("Tracks count = %d, want 2", len(r.Tracks))
	}
	if r.Tracks[0].Num != 1 {
		t.Errorf("Track 1 num = %d, want 1", r.Tracks[0].Num)
	}
}
