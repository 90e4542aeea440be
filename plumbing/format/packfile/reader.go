// Package packfile reads object bodies out of a Git packfile: the
// variable-length per-object header, the zlib-compressed body, and
// OFS_DELTA/REF_DELTA chains resolved against a companion pack index.
package packfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/brillcp/SwiftGit-sub000/plumbing/format/idxfile"
	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
)

// packMagic is the 4-byte signature at the start of every packfile.
var packMagic = [4]byte{'P', 'A', 'C', 'K'}

// ErrBadSignature is returned when a file does not begin with "PACK".
var ErrBadSignature = errors.New("packfile: bad signature")

// ErrBaseObjectNotFound is returned when a REF_DELTA's base hash has no
// entry in the accompanying pack index.
var ErrBaseObjectNotFound = errors.New("packfile: base object not found")

// object kind values as they appear in the 3-bit type field of a pack
// object header.
const (
	typeCommit   = 1
	typeTree     = 2
	typeBlob     = 3
	typeTag      = 4
	typeOfsDelta = 6
	typeRefDelta = 7
)

// Reader resolves individual objects out of a packfile given their byte
// offset, following delta chains as needed. It holds no state across
// calls to Object beyond the per-call memoization cache, so a single
// Reader may safely be shared by concurrent callers as long as the
// underlying ReaderAt is.
type Reader struct {
	r   io.ReaderAt
	idx *idxfile.Index
}

// NewReader wraps r (the full packfile contents) and idx (its parsed
// ".idx" companion) into a Reader.
func NewReader(r io.ReaderAt, idx *idxfile.Index) *Reader {
	return &Reader{r: r, idx: idx}
}

// VerifyHeader reads and checks the 12-byte packfile header (magic,
// version, object count). Versions 2 and 3 are accepted.
func VerifyHeader(r io.ReaderAt) (objectCount uint32, err error) {
	var buf [12]byte
	if n, err := r.ReadAt(buf[:], 0); err != nil || n != len(buf) {
		return 0, fmt.Errorf("reading pack header: %w", err)
	}
	if !bytes.Equal(buf[:4], packMagic[:]) {
		return 0, ErrBadSignature
	}
	version := be32(buf[4:8])
	if version != 2 && version != 3 {
		return 0, fmt.Errorf("packfile: unsupported version %d", version)
	}
	return be32(buf[8:12]), nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// resolved is a fully delta-resolved object: its real type and inflated
// body, independent of how many OFS_DELTA/REF_DELTA hops it took to get
// there.
type resolved struct {
	typ  int
	body []byte
}

// Object resolves and parses the object stored at the given pack offset.
func (r *Reader) Object(id hash.ID, offset int64) (*object.Object, error) {
	memo := make(map[int64]resolved)
	res, err := r.resolve(offset, memo)
	if err != nil {
		return nil, err
	}

	t, err := typeFromPackType(res.typ)
	if err != nil {
		return nil, fmt.Errorf("offset %d: %w", offset, err)
	}

	return object.DecodeBody(id, append([]byte(t.String()+" "), appendSizedBody(res.body)...))
}

// appendSizedBody re-synthesizes the "<size>\0<body>" portion DecodeBody
// expects, since by the time a delta chain is resolved we only have the
// raw body bytes, not the original header.
func appendSizedBody(body []byte) []byte {
	out := []byte(fmt.Sprintf("%d\x00", len(body)))
	return append(out, body...)
}

func typeFromPackType(t int) (object.Type, error) {
	switch t {
	case typeCommit:
		return object.CommitObject, nil
	case typeTree:
		return object.TreeObject, nil
	case typeBlob:
		return object.BlobObject, nil
	case typeTag:
		return object.TagObject, nil
	default:
		return object.InvalidObject, object.ErrUnsupportedObjectType
	}
}

// resolve reads the object header at offset, inflating and following
// delta chains until a base (non-delta) object is reached, then replaying
// the chain's deltas back down to offset.
func (r *Reader) resolve(offset int64, memo map[int64]resolved) (resolved, error) {
	if v, ok := memo[offset]; ok {
		return v, nil
	}

	typ, size, headerLen, raw, err := r.readHeader(offset)
	if err != nil {
		return resolved{}, err
	}

	switch typ {
	case typeOfsDelta:
		relOffset, rest, err := decodeOffsetDelta(raw)
		if err != nil {
			return resolved{}, err
		}
		baseOffset := offset - int64(relOffset)
		if baseOffset < 0 || baseOffset >= offset {
			return resolved{}, fmt.Errorf("%w: offset %d", ErrInvalidDelta, offset)
		}

		base, err := r.resolve(baseOffset, memo)
		if err != nil {
			return resolved{}, err
		}

		deltaBody, err := r.inflateBody(offset+int64(headerLen)+int64(len(raw)-len(rest)), size)
		if err != nil {
			return resolved{}, err
		}

		body, err := ApplyDelta(base.body, deltaBody)
		if err != nil {
			return resolved{}, fmt.Errorf("offset %d: %w", offset, err)
		}

		res := resolved{typ: base.typ, body: body}
		memo[offset] = res
		return res, nil

	case typeRefDelta:
		if len(raw) < hash.Size {
			return resolved{}, fmt.Errorf("%w: truncated ref-delta base hash", ErrInvalidDelta)
		}
		baseID, err := hash.FromBytes(raw[:hash.Size])
		if err != nil {
			return resolved{}, err
		}

		baseOffset, found, err := r.idx.FindOffset(baseID)
		if err != nil {
			return resolved{}, err
		}
		if !found {
			return resolved{}, fmt.Errorf("%w: %s", ErrBaseObjectNotFound, baseID)
		}

		base, err := r.resolve(baseOffset, memo)
		if err != nil {
			return resolved{}, err
		}

		deltaBody, err := r.inflateBody(offset+int64(headerLen)+hash.Size, size)
		if err != nil {
			return resolved{}, err
		}

		body, err := ApplyDelta(base.body, deltaBody)
		if err != nil {
			return resolved{}, fmt.Errorf("offset %d: %w", offset, err)
		}

		res := resolved{typ: base.typ, body: body}
		memo[offset] = res
		return res, nil

	default:
		body, err := r.inflateBody(offset+int64(headerLen), size)
		if err != nil {
			return resolved{}, err
		}
		res := resolved{typ: typ, body: body}
		memo[offset] = res
		return res, nil
	}
}

// readHeader reads and decodes the variable-length object header at
// offset. It returns the type, the declared uncompressed size, the
// header's length in bytes, and any trailing bytes already buffered past
// the header (an OFS_DELTA offset or REF_DELTA base hash, partially or
// fully read ahead for convenience).
func (r *Reader) readHeader(offset int64) (typ int, size int64, headerLen int, trailing []byte, err error) {
	// Read a generous window; the header plus a REF_DELTA hash is at most
	// 1 (first byte) + 9 (size continuation bytes) + 20 (ref hash) bytes.
	const maxHeader = 32
	buf := make([]byte, maxHeader)
	n, rerr := r.r.ReadAt(buf, offset)
	if n == 0 && rerr != nil {
		return 0, 0, 0, nil, fmt.Errorf("reading object header at %d: %w", offset, rerr)
	}
	buf = buf[:n]

	if len(buf) == 0 {
		return 0, 0, 0, nil, fmt.Errorf("reading object header at %d: empty read", offset)
	}

	c := buf[0]
	typ = int(c>>4) & 0x07
	size = int64(c & 0x0f)
	shift := uint(4)
	i := 1
	for c&0x80 != 0 {
		if i >= len(buf) {
			return 0, 0, 0, nil, fmt.Errorf("reading object header at %d: truncated", offset)
		}
		c = buf[i]
		size |= int64(c&0x7f) << shift
		shift += 7
		i++
	}

	return typ, size, i, buf[i:], nil
}

// inflateBody zlib-inflates the object body beginning at offset, reading
// exactly size uncompressed bytes.
func (r *Reader) inflateBody(offset int64, size int64) ([]byte, error) {
	sr := io.NewSectionReader(r.r, offset, maxSectionLen)
	zr, err := zlib.NewReader(sr)
	if err != nil {
		return nil, fmt.Errorf("inflating object at %d: %w", offset, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, zr, size); err != nil && err != io.EOF {
		return nil, fmt.Errorf("inflating object at %d: %w", offset, err)
	}
	return buf.Bytes(), nil
}

// maxSectionLen bounds the section reader passed to zlib; the actual
// packfile is almost always far larger than any single object, and zlib
// stops consuming once it has produced size bytes, so this only needs to
// be "large enough", not exact.
const maxSectionLen = 1 << 33
