package index

import (
	"bufio"
	"bytes"
	"crypto"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/brillcp/SwiftGit-sub000/plumbing/filemode"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
)

var indexSignature = []byte{'D', 'I', 'R', 'C'}

var treeExtSignature = [4]byte{'T', 'R', 'E', 'E'}

// ErrMalformedSignature is returned when the file does not begin "DIRC".
var ErrMalformedSignature = errors.New("index: malformed signature")

// ErrUnsupportedVersion is returned for any version outside 2-4.
var ErrUnsupportedVersion = errors.New("index: unsupported version")

// ErrInvalidChecksum is returned when the trailing SHA-1 does not match
// the content actually read.
var ErrInvalidChecksum = errors.New("index: invalid checksum")

const entryHeaderLength = 62 // fixed fields + hash + flags, before the name

// CacheTreeEntry is one path-prefix's worth of cached-tree metadata:
// how many index entries it covers and, if valid, its tree object id.
// Decoded opportunistically but never consulted by the status engine.
type CacheTreeEntry struct {
	Path    string
	Entries int
	Trees   int
	ID      hash.ID
	Valid   bool
}

// Decode reads a full index file from r.
func Decode(r io.Reader) (*Index, error) {
	h := hash.New(crypto.SHA1)
	buf := bufio.NewReader(r)
	tee := io.TeeReader(buf, h)

	idx := &Index{ByPath: make(map[string]*Entry)}

	version, err := readHeader(tee)
	if err != nil {
		return nil, err
	}
	idx.Version = version

	count, err := readUint32(tee)
	if err != nil {
		return nil, err
	}

	var lastName string
	seen := make(map[string]int)
	for i := uint32(0); i < count; i++ {
		e, err := readEntry(tee, idx.Version, lastName)
		if err != nil {
			return nil, fmt.Errorf("index: entry %d: %w", i, err)
		}
		lastName = e.Name

		idx.Entries = append(idx.Entries, e)
		seen[e.Name]++
		if _, exists := idx.ByPath[e.Name]; !exists {
			idx.ByPath[e.Name] = e
		}
	}

	for path, n := range seen {
		if n > 1 {
			idx.ConflictedPaths = append(idx.ConflictedPaths, path)
		}
	}

	if err := readExtensions(tee, buf, idx); err != nil {
		return nil, err
	}

	expected := h.Sum(nil)
	var trailer [hash.Size]byte
	if _, err := io.ReadFull(buf, trailer[:]); err != nil {
		return nil, fmt.Errorf("index: reading checksum: %w", err)
	}
	if !bytes.Equal(trailer[:], expected) {
		return nil, ErrInvalidChecksum
	}

	return idx, nil
}

func readHeader(r io.Reader) (uint32, error) {
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return 0, fmt.Errorf("index: reading signature: %w", err)
	}
	if !bytes.Equal(sig[:], indexSignature) {
		return 0, ErrMalformedSignature
	}

	version, err := readUint32(r)
	if err != nil {
		return 0, fmt.Errorf("index: reading version: %w", err)
	}
	if version < 2 || version > 4 {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return version, nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readEntry(r io.Reader, version uint32, lastName string) (*Entry, error) {
	e := &Entry{}

	var sec, nsec, msec, mnsec uint32
	var err error

	for _, dst := range []*uint32{&sec, &nsec, &msec, &mnsec, &e.Dev, &e.Inode} {
		if *dst, err = readUint32(r); err != nil {
			return nil, err
		}
	}

	var mode uint32
	if mode, err = readUint32(r); err != nil {
		return nil, err
	}
	e.Mode = filemode.FileMode(mode)

	for _, dst := range []*uint32{&e.UID, &e.GID, &e.Size} {
		if *dst, err = readUint32(r); err != nil {
			return nil, err
		}
	}

	var idBuf [hash.Size]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return nil, err
	}
	e.ID, err = hash.FromBytes(idBuf[:])
	if err != nil {
		return nil, err
	}

	flags, err := readUint16(r)
	if err != nil {
		return nil, err
	}

	if sec != 0 || nsec != 0 {
		e.CreatedAt = time.Unix(int64(sec), int64(nsec))
	}
	if msec != 0 || mnsec != 0 {
		e.ModifiedAt = time.Unix(int64(msec), int64(mnsec))
	}
	e.Stage = uint8((flags >> 12) & 0x3)

	read := entryHeaderLength
	const extendedBit = 0x4000
	if flags&extendedBit != 0 {
		if _, err := readUint16(r); err != nil {
			return nil, err
		}
		read += 2
	}

	var name string
	switch version {
	case 2, 3:
		nameLen := int(flags & 0xfff)
		buf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		name = string(buf)
	case 4:
		stripLen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		base := ""
		if stripLen <= len(lastName) {
			base = lastName[:len(lastName)-stripLen]
		}
		suffix, err := readUntilNUL(r)
		if err != nil {
			return nil, err
		}
		name = base + string(suffix)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	name = stripLeadingDotSlash(name)
	e.Name = name

	if version != 4 {
		// The name field is not itself NUL-terminated on disk; padding
		// (always at least one NUL) brings the entry up to the next
		// 8-byte boundary measured from its start.
		entrySize := read + len(name)
		pad := 8 - entrySize%8
		if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func stripLeadingDotSlash(name string) string {
	if len(name) >= 2 && name[0] == '.' && name[1] == '/' {
		return name[2:]
	}
	return name
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// readVarint reads the 7-bit-per-byte, MSB-continuation varint used by
// index v4's path-compression prefix length.
func readVarint(r io.Reader) (int, error) {
	var v int
	for {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		v = (v << 7) | int(b[0]&0x7f)
		if b[0]&0x80 == 0 {
			return v, nil
		}
		v++
	}
}

func readUntilNUL(r io.Reader) ([]byte, error) {
	var out []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if b[0] == 0 {
			return out, nil
		}
		out = append(out, b[0])
	}
}

// readExtensions consumes any trailer extensions preceding the final
// checksum. Only the TREE cache extension is interpreted; any other
// extension is skipped by its declared length (optional extensions are
// tagged 'A'-'Z' per the index format and may always be ignored; this
// reader treats every unknown extension the same way, since nothing here
// depends on them).
func readExtensions(tee io.Reader, buf *bufio.Reader, idx *Index) error {
	for {
		peekLen := 4 + 4 + hash.Size
		peeked, _ := buf.Peek(peekLen)
		if len(peeked) < peekLen {
			return nil
		}

		var header [4]byte
		if _, err := io.ReadFull(tee, header[:]); err != nil {
			return err
		}
		length, err := readUint32(tee)
		if err != nil {
			return err
		}

		body := io.LimitReader(tee, int64(length))

		if header == treeExtSignature {
			entries, err := decodeTreeExtension(body)
			if err != nil {
				return fmt.Errorf("index: TREE extension: %w", err)
			}
			idx.CacheTree = entries
		} else {
			if _, err := io.Copy(io.Discard, body); err != nil {
				return fmt.Errorf("index: skipping extension %q: %w", header, err)
			}
		}
	}
}

func decodeTreeExtension(r io.Reader) ([]CacheTreeEntry, error) {
	var entries []CacheTreeEntry
	for {
		path, err := readUntilNUL(r)
		if err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return nil, err
		}

		countStr, err := readUntilByte(r, ' ')
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(string(countStr))
		if err != nil {
			return nil, err
		}

		treesStr, err := readUntilByte(r, '\n')
		if err != nil {
			return nil, err
		}
		trees, err := strconv.Atoi(string(treesStr))
		if err != nil {
			return nil, err
		}

		e := CacheTreeEntry{Path: string(path), Entries: count, Trees: trees}
		if count >= 0 {
			var idBuf [hash.Size]byte
			if _, err := io.ReadFull(r, idBuf[:]); err != nil {
				return nil, err
			}
			id, err := hash.FromBytes(idBuf[:])
			if err != nil {
				return nil, err
			}
			e.ID = id
			e.Valid = true
		}

		entries = append(entries, e)
	}
}

func readUntilByte(r io.Reader, delim byte) ([]byte, error) {
	var out []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if b[0] == delim {
			return out, nil
		}
		out = append(out, b[0])
	}
}
