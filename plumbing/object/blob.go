package object

import (
	"unicode/utf8"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

// Blob is the raw content of a single file. Git attaches no structure to a
// blob's body at all; it is whatever bytes the file contained.
type Blob struct {
	ID   hash.ID
	Size int64

	raw []byte
}

// ParseBlob wraps an inflated blob body. There is nothing to parse: the
// body is the content, verbatim.
func ParseBlob(id hash.ID, body []byte) (*Blob, error) {
	return &Blob{ID: id, Size: int64(len(body)), raw: body}, nil
}

// Bytes returns the blob's full content.
func (b *Blob) Bytes() []byte {
	return b.raw
}

// Text decodes the blob's content as UTF-8, reporting false when the bytes
// are not valid UTF-8 rather than substituting replacement characters.
func (b *Blob) Text() (string, bool) {
	if !utf8.Valid(b.raw) {
		return "", false
	}
	return string(b.raw), true
}

// imageMagic is a magic-byte prefix that identifies one of the common web
// image formats.
var imageMagic = [][]byte{
	{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, // PNG
	{0xff, 0xd8, 0xff},                            // JPEG
	{'G', 'I', 'F', '8', '7', 'a'},                // GIF87a
	{'G', 'I', 'F', '8', '9', 'a'},                // GIF89a
	{'B', 'M'},                                    // BMP
}

// IsImage reports whether the blob's content starts with the magic-byte
// signature of a PNG, JPEG, GIF, BMP or WEBP image.
func (b *Blob) IsImage() bool {
	for _, magic := range imageMagic {
		if len(b.raw) >= len(magic) && hasPrefix(b.raw, magic) {
			return true
		}
	}
	// WEBP: "RIFF" + 4-byte size + "WEBP".
	if len(b.raw) >= 12 && hasPrefix(b.raw, []byte("RIFF")) && string(b.raw[8:12]) == "WEBP" {
		return true
	}
	return false
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, c := range prefix {
		if b[i] != c {
			return false
		}
	}
	return true
}
