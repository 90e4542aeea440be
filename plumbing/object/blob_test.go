package object

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

type BlobSuite struct {
	suite.Suite
}

func TestBlobSuite(t *testing.T) {
	suite.Run(t, new(BlobSuite))
}

func (s *BlobSuite) TestParseBlob() {
	b, err := ParseBlob(hash.Zero, []byte("package main\n"))
	s.NoError(err)
	s.EqualValues(13, b.Size)
	s.Equal("package main\n", string(b.Bytes()))
}

func (s *BlobSuite) TestParseBlobEmpty() {
	b, err := ParseBlob(hash.Zero, nil)
	s.NoError(err)
	s.EqualValues(0, b.Size)
	s.Empty(b.Bytes())
}

func (s *BlobSuite) TestTextValidUTF8() {
	b, _ := ParseBlob(hash.Zero, []byte("package main\n"))
	text, ok := b.Text()
	s.True(ok)
	s.Equal("package main\n", text)
}

func (s *BlobSuite) TestTextRejectsInvalidUTF8() {
	b, _ := ParseBlob(hash.Zero, []byte{0xff, 0xfe, 0x00})
	_, ok := b.Text()
	s.False(ok)
}

func (s *BlobSuite) TestIsImageDetectsPNGMagic() {
	b, _ := ParseBlob(hash.Zero, []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0})
	s.True(b.IsImage())
}

func (s *BlobSuite) TestIsImageFalseForText() {
	b, _ := ParseBlob(hash.Zero, []byte("hello\n"))
	s.False(b.IsImage())
}
