package encode

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// TrackMeta is user-supplied metadata for the exported track. Empty fields
// are left untagged.
type TrackMeta struct {
	Artist string
	Album  string
	Title  string
	Year   int
	Genre  string

	Cover     []byte // Front cover image, optional
	CoverMIME string
}

// TagSet contains the ID3 tags to be written
type TagSet struct {
	Artist  string
	Album   string
	Title   string
	Year    int
	Genre   string
	Comment string

	Cover     []byte
	CoverMIME string
}

// BuildTags creates the tags for a track rendered from source in mode.
// The title defaults to "<source> (<mode>)" and the comment records the
// random seed so the render can be repeated.
func BuildTags(source, mode string, seed uint64, meta TrackMeta) TagSet {
	title := meta.Title
	if title == "" {
		title = fmt.Sprintf("%s (%s)", source, mode)
	}

	comment := fmt.Sprintf("clapper %s", mode)
	if seed != 0 {
		comment += fmt.Sprintf(", seed %d", seed)
	}

	return TagSet{
		Artist:  meta.Artist,
		Album:   meta.Album,
		Title:   title,
		Year:    meta.Year,
		Genre:   meta.Genre,
		Comment: comment,

		Cover:     meta.Cover,
		CoverMIME: meta.CoverMIME,
	}
}

// Apply writes the tags to an MP3 file as ID3v2.4.
func (t TagSet) Apply(filepath string) error {
	tag, err := id3v2.Open(filepath, id3v2.Options{Parse: false})
	if err != nil {
		return fmt.Errorf("open mp3: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetVersion(4)

	tag.SetTitle(t.Title)
	if t.Artist != "" {
		tag.SetArtist(t.Artist)
	}
	if t.Album != "" {
		tag.SetAlbum(t.Album)
	}
	if t.Genre != "" {
		tag.SetGenre(t.Genre)
	}
	if t.Year > 0 {
		tag.SetYear(strconv.Itoa(t.Year))
	}

	if t.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "",
			Text:        t.Comment,
		})
	}

	if len(t.Cover) > 0 {
		mime := t.CoverMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     t.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}

	return nil
}
