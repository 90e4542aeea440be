// Package idxfile reads a packfile's ".idx" companion: the fanout table and
// sorted hash/offset tables Git uses to locate an object inside a pack
// without scanning it end to end.
package idxfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

const (
	headerSize  = 8
	fanoutSize  = 256 * 4
	crcSize     = 4
	off32Size   = 4
	off64Size   = 8
	trailerSize = hash.Size * 2

	is64BitMask = uint32(1) << 31

	// VersionSupported is the only on-disk idx version this reader handles.
	VersionSupported = 2
)

var magic = [4]byte{0xff, 't', 'O', 'c'}

// ErrUnsupportedVersion is returned for any idx file whose magic or version
// word does not match the version-2 format.
var ErrUnsupportedVersion = errors.New("unsupported pack index version")

// ErrCorruptedIndex is returned for a short read anywhere in the fixed-size
// sections of the file.
var ErrCorruptedIndex = errors.New("corrupted pack index")

// Index is a parsed, lazily-seeking view of a ".idx" file: the fanout table
// is held in memory (1 KiB) but the name/CRC/offset tables are read on
// demand through the underlying io.ReaderAt.
type Index struct {
	r      io.ReaderAt
	fanout [256]uint32
	count  int

	namesStart int
	crcStart   int
	off32Start int
	off64Start int
}

// Open parses the header and fanout table of r, an io.ReaderAt over a
// version-2 ".idx" file of the given total size.
func Open(r io.ReaderAt, size int64) (*Index, error) {
	minSize := int64(headerSize + fanoutSize + trailerSize)
	if size < minSize {
		return nil, fmt.Errorf("%w: file too small", ErrCorruptedIndex)
	}

	var header [headerSize]byte
	if n, err := r.ReadAt(header[:], 0); err != nil || n != headerSize {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorruptedIndex, err)
	}
	if !bytes.Equal(header[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrUnsupportedVersion)
	}
	if version := binary.BigEndian.Uint32(header[4:]); version != VersionSupported {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}

	idx := &Index{r: r}

	var fanoutBuf [fanoutSize]byte
	if n, err := r.ReadAt(fanoutBuf[:], headerSize); err != nil || n != fanoutSize {
		return nil, fmt.Errorf("%w: reading fanout table: %v", ErrCorruptedIndex, err)
	}
	for i := 0; i < 256; i++ {
		idx.fanout[i] = binary.BigEndian.Uint32(fanoutBuf[i*4 : i*4+4])
	}

	idx.count = int(idx.fanout[255])
	idx.namesStart = headerSize + fanoutSize
	idx.crcStart = idx.namesStart + idx.count*hash.Size
	idx.off32Start = idx.crcStart + idx.count*crcSize
	idx.off64Start = idx.off32Start + idx.count*off32Size

	return idx, nil
}

// Count returns the number of objects indexed.
func (idx *Index) Count() int {
	return idx.count
}

// FindOffset returns the pack offset of the object identified by id, or
// false if the index has no such entry.
func (idx *Index) FindOffset(id hash.ID) (int64, bool, error) {
	first := int(id[0])
	lo := 0
	if first > 0 {
		lo = int(idx.fanout[first-1])
	}
	hi := int(idx.fanout[first])

	pos, found, err := idx.search(lo, hi, id)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}

	off, err := idx.offsetAt(pos)
	if err != nil {
		return 0, false, err
	}
	return int64(off), true, nil
}

func (idx *Index) search(lo, hi int, want hash.ID) (int, bool, error) {
	var searchErr error
	n := hi - lo
	pos := lo + sort.Search(n, func(i int) bool {
		cmp, err := idx.compareHashAt(lo+i, want)
		if err != nil {
			searchErr = err
			return true
		}
		return cmp >= 0
	})
	if searchErr != nil {
		return 0, false, searchErr
	}
	if pos >= hi {
		return 0, false, nil
	}
	cmp, err := idx.compareHashAt(pos, want)
	if err != nil {
		return 0, false, err
	}
	return pos, cmp == 0, nil
}

func (idx *Index) compareHashAt(pos int, want hash.ID) (int, error) {
	var buf [hash.Size]byte
	off := int64(idx.namesStart + pos*hash.Size)
	if n, err := idx.r.ReadAt(buf[:], off); err != nil || n != hash.Size {
		return 0, fmt.Errorf("%w: reading hash entry %d: %v", ErrCorruptedIndex, pos, err)
	}
	return bytes.Compare(buf[:], want[:]), nil
}

func (idx *Index) offsetAt(pos int) (uint64, error) {
	var buf [off32Size]byte
	off := int64(idx.off32Start + pos*off32Size)
	if n, err := idx.r.ReadAt(buf[:], off); err != nil || n != off32Size {
		return 0, fmt.Errorf("%w: reading offset32 %d: %v", ErrCorruptedIndex, pos, err)
	}

	v := binary.BigEndian.Uint32(buf[:])
	if v&is64BitMask == 0 {
		return uint64(v), nil
	}

	largeIdx := int(v &^ is64BitMask)
	var buf64 [off64Size]byte
	off64 := int64(idx.off64Start + largeIdx*off64Size)
	if n, err := idx.r.ReadAt(buf64[:], off64); err != nil || n != off64Size {
		return 0, fmt.Errorf("%w: reading offset64 %d: %v", ErrCorruptedIndex, largeIdx, err)
	}
	return binary.BigEndian.Uint64(buf64[:]), nil
}

// IDAt returns the object id stored at index position pos (0 <= pos <
// Count()), in fanout/sorted order. Used to enumerate all objects in a
// pack for diagnostics and tests.
func (idx *Index) IDAt(pos int) (hash.ID, error) {
	if pos < 0 || pos >= idx.count {
		return hash.ID{}, fmt.Errorf("%w: position %d out of range", ErrCorruptedIndex, pos)
	}
	var buf [hash.Size]byte
	off := int64(idx.namesStart + pos*hash.Size)
	if n, err := idx.r.ReadAt(buf[:], off); err != nil || n != hash.Size {
		return hash.ID{}, fmt.Errorf("%w: reading hash entry %d: %v", ErrCorruptedIndex, pos, err)
	}
	return hash.FromBytes(buf[:])
}
