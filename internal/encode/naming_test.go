package encode

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestSourceName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"song.mp3", "song"},
		{"/music/Abbey Road/Come Together.flac", "Come Together"},
		{"noext", "noext"},
		{"archive.tar.gz", "archive.tar"},
	}
	for _, tt := range tests {
		if got := SourceName(tt.path); got != tt.want {
			t.Errorf("SourceName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGenerateFilename_Basic(t *testing.T) {
	got := GenerateFilename("song.mp3", "claps", ".mp3")
	want := "song-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_SpacesToUnderscores(t *testing.T) {
	got := GenerateFilename("/music/Come Together.wav", "beats", ".wav")
	want := "Come_Together-beats.wav"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_ExtensionForms(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".mp3", "song-claps.mp3"},
		{"mp3", "song-claps.mp3"},
		{".WAV", "song-claps.wav"},
		{"", "song-claps"},
	}
	for _, tt := range tests {
		if got := GenerateFilename("song.flac", "claps", tt.ext); got != tt.want {
			t.Errorf("GenerateFilename(ext %q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestGenerateFilename_BackslashReplaced(t *testing.T) {
	got := GenerateFilename("Test\\Song.mp3", "claps", ".mp3")
	want := "Test_Song-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_RemovesQuotes(t *testing.T) {
	got := GenerateFilename(`Won't Get "Fooled" Again.mp3`, "claps", ".mp3")
	want := "Wont_Get_Fooled_Again-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_RemovesSmartQuotes(t *testing.T) {
	// Smart/curly quotes are non-ASCII so they get removed
	got := GenerateFilename("“Smart” ‘Quotes’.mp3", "claps", ".mp3")
	want := "Smart_Quotes-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_ShellSafe(t *testing.T) {
	got := GenerateFilename("$ong?.mp3", "claps", ".mp3")
	want := "ong-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}

	escaped := shellEscape(got)
	if escaped != got {
		t.Errorf("Filename requires escaping: %q -> %q", got, escaped)
	}
}

// shellEscape simulates what printf %q does for simple cases
func shellEscape(s string) string {
	needsEscape := false
	for _, c := range s {
		switch c {
		case '\'', '"', '`', '$', '!', '*', '?', '[', ']', '(', ')', '{', '}', '<', '>', '|', '&', ';', ' ', '\\':
			needsEscape = true
		}
	}
	if needsEscape {
		return "NEEDS_ESCAPE:" + s
	}
	return s
}

func TestGenerateFilename_ShellSafe_Integration(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	sources := []string{
		"Hells Bells.mp3",
		"Who's Next.mp3",
		`Richard "Groove" Holmes.wav`,
		"Track (Live) [Deluxe].mp3",
		"Song & Dance.mp3",
		"Part 1; Part 2.flac",
	}

	tmpDir := t.TempDir()

	for _, source := range sources {
		filename := GenerateFilename(source, "claps", ".mp3")
		fullPath := filepath.Join(tmpDir, filename)

		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Errorf("Failed to create file %q: %v", filename, err)
			continue
		}

		// bash -c "cat $filename" fails if the filename needs quoting
		cmd := exec.Command("bash", "-c", "cat "+filename)
		cmd.Dir = tmpDir
		output, err := cmd.Output()
		if err != nil {
			t.Errorf("Filename %q requires shell quoting: %v", filename, err)
			continue
		}
		if string(output) != "test" {
			t.Errorf("Filename %q: unexpected output %q", filename, output)
		}
	}
}

func TestGenerateFilename_KeepsColon(t *testing.T) {
	// Colons are kept (shell-safe, though illegal on Windows)
	got := GenerateFilename("Song: Extended Mix.mp3", "claps", ".mp3")
	want := "Song:_Extended_Mix-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_CollapsesUnderscores(t *testing.T) {
	// " & " becomes "___" without collapsing
	got := GenerateFilename("Heavy D & The Boyz.mp3", "beats", ".mp3")
	want := "Heavy_D_The_Boyz-beats.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_CollapsesUnderscores_Multiple(t *testing.T) {
	got := GenerateFilename("(A) & [B] { C }.mp3", "claps", ".mp3")
	want := "A_B_C-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_NonASCII(t *testing.T) {
	// Non-ASCII should be normalized to ASCII equivalents
	got := GenerateFilename("Tone-Lōc Café.mp3", "claps", ".mp3")
	want := "Tone-Loc_Cafe-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

func TestGenerateFilename_NothingLeft(t *testing.T) {
	got := GenerateFilename("???.mp3", "claps", ".mp3")
	want := "track-claps.mp3"

	if got != want {
		t.Errorf("GenerateFilename() = %q, want %q", got, want)
	}
}

// BenchmarkSanitize measures the performance of filename sanitization.
// Run with: go test -bench=. -benchmem ./internal/encode/
func BenchmarkSanitize(b *testing.B) {
	inputs := []string{
		"Simple Song.mp3",
		"AC-DC Hells Bells.mp3",
		"The Who's Greatest Hits.flac",
		`Richard "Groove" Holmes.wav`,
		"Test$Artist & Friends (Live) [Deluxe Edition].mp3",
		"Complex: Title; Part 1 | Part 2 <Remix>.mp3",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, input := range inputs {
			_ = GenerateFilename(input, "claps", ".mp3")
		}
	}
}
