package idxfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

type IdxfileSuite struct {
	suite.Suite
}

func TestIdxfileSuite(t *testing.T) {
	suite.Run(t, new(IdxfileSuite))
}

type fakeEntry struct {
	id     hash.ID
	offset uint32
}

// buildIndex assembles a minimal, well-formed version-2 idx file from a
// pre-sorted list of entries (by id) for use as test fixture data.
func buildIndex(entries []fakeEntry) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	binary.Write(&buf, binary.BigEndian, uint32(VersionSupported))

	var fanout [256]uint32
	for _, e := range entries {
		fanout[e.id[0]]++
	}
	var running uint32
	for i := range fanout {
		running += fanout[i]
		fanout[i] = running
	}
	for _, f := range fanout {
		binary.Write(&buf, binary.BigEndian, f)
	}

	for _, e := range entries {
		buf.Write(e.id[:])
	}
	for range entries {
		binary.Write(&buf, binary.BigEndian, uint32(0)) // CRC32, unused by reader
	}
	for _, e := range entries {
		binary.Write(&buf, binary.BigEndian, e.offset)
	}

	var zero [20]byte
	buf.Write(zero[:]) // packfile checksum
	buf.Write(zero[:]) // idx checksum

	return buf.Bytes()
}

func (s *IdxfileSuite) TestFindOffset() {
	e1 := fakeEntry{id: hash.MustFromHex("000000000000000000000000000000000000000a"), offset: 12}
	e2 := fakeEntry{id: hash.MustFromHex("0000000000000000000000000000000000000014"), offset: 512}
	e3 := fakeEntry{id: hash.MustFromHex("ffffffffffffffffffffffffffffffffffffffff"), offset: 9999}
	data := buildIndex([]fakeEntry{e1, e2, e3})

	idx, err := Open(bytes.NewReader(data), int64(len(data)))
	s.Require().NoError(err)
	s.Equal(3, idx.Count())

	off, found, err := idx.FindOffset(e2.id)
	s.NoError(err)
	s.True(found)
	s.EqualValues(512, off)

	_, found, err = idx.FindOffset(hash.MustFromHex("111111111111111111111111111111111111111a"))
	s.NoError(err)
	s.False(found)
}

func (s *IdxfileSuite) TestOpenBadMagic() {
	data := make([]byte, headerSize+fanoutSize+trailerSize)
	_, err := Open(bytes.NewReader(data), int64(len(data)))
	s.ErrorIs(err, ErrUnsupportedVersion)
}

func (s *IdxfileSuite) TestOpenTooSmall() {
	_, err := Open(bytes.NewReader(nil), 0)
	s.ErrorIs(err, ErrCorruptedIndex)
}

func (s *IdxfileSuite) TestIDAt() {
	e1 := fakeEntry{id: hash.MustFromHex("000000000000000000000000000000000000000a"), offset: 12}
	data := buildIndex([]fakeEntry{e1})
	idx, err := Open(bytes.NewReader(data), int64(len(data)))
	s.Require().NoError(err)

	id, err := idx.IDAt(0)
	s.NoError(err)
	s.Equal(e1.id, id)

	_, err = idx.IDAt(5)
	s.ErrorIs(err, ErrCorruptedIndex)
}
