package packfile

import (
	"bytes"
	"testing"

	kzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
)

type ReaderSuite struct {
	suite.Suite
}

func TestReaderSuite(t *testing.T) {
	suite.Run(t, new(ReaderSuite))
}

func deflateBytes(t *testing.T, body []byte) []byte {
	var buf bytes.Buffer
	w := kzlib.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// encodeOffsetDelta is the reverse of decodeOffsetDelta, used only to
// construct OFS_DELTA fixtures for this test.
func encodeOffsetDelta(v uint64) []byte {
	buf := []byte{byte(v & 0x7f)}
	v >>= 7
	for v > 0 {
		v--
		buf = append([]byte{0x80 | byte(v&0x7f)}, buf...)
		v >>= 7
	}
	return buf
}

func packObjectHeader(typ int, size uint64) []byte {
	first := byte(typ<<4) | byte(size&0x0f)
	size >>= 4
	var out []byte
	for size > 0 {
		out = append(out, first|0x80)
		first = byte(size & 0x7f)
		size >>= 7
	}
	out = append(out, first)
	return out
}

func (s *ReaderSuite) TestObjectPlainBlob() {
	body := []byte("hello world")
	var buf bytes.Buffer
	buf.Write(packObjectHeader(typeBlob, uint64(len(body))))
	buf.Write(deflateBytes(s.T(), body))

	r := NewReader(bytes.NewReader(buf.Bytes()), nil)
	obj, err := r.Object(hash.Zero, 0)
	s.Require().NoError(err)
	s.Equal(object.BlobObject, obj.Type)
	s.Equal("hello world", string(obj.Blob.Bytes()))
}

func (s *ReaderSuite) TestObjectOfsDelta() {
	baseBody := []byte("hello world")
	var buf bytes.Buffer

	baseHeader := packObjectHeader(typeBlob, uint64(len(baseBody)))
	buf.Write(baseHeader)
	buf.Write(deflateBytes(s.T(), baseBody))

	deltaObjOffset := int64(buf.Len())

	deltaContent := []byte{11, 11, 0x90, 0x05, 6, ' ', 't', 'h', 'e', 'r', 'e'}
	deltaHeader := packObjectHeader(typeOfsDelta, uint64(len(deltaContent)))
	relOffset := uint64(deltaObjOffset) - 0 // base object starts at offset 0
	offsetBytes := encodeOffsetDelta(relOffset)

	buf.Write(deltaHeader)
	buf.Write(offsetBytes)
	buf.Write(deflateBytes(s.T(), deltaContent))

	r := NewReader(bytes.NewReader(buf.Bytes()), nil)
	obj, err := r.Object(hash.Zero, deltaObjOffset)
	s.Require().NoError(err)
	s.Require().NotNil(obj.Blob)
	s.Equal("hello there", string(obj.Blob.Bytes()))
}

func (s *ReaderSuite) TestVerifyHeader() {
	var buf bytes.Buffer
	buf.Write(packMagic[:])
	buf.Write([]byte{0, 0, 0, 2}) // version 2
	buf.Write([]byte{0, 0, 0, 3}) // 3 objects

	count, err := VerifyHeader(bytes.NewReader(buf.Bytes()))
	s.NoError(err)
	s.EqualValues(3, count)
}

func (s *ReaderSuite) TestVerifyHeaderBadMagic() {
	_, err := VerifyHeader(bytes.NewReader(make([]byte, 12)))
	s.ErrorIs(err, ErrBadSignature)
}
