package packfile

import (
	"errors"
)

// ErrInvalidDelta is returned when a delta stream is truncated or its
// declared sizes don't match the base/result bytes actually available.
var ErrInvalidDelta = errors.New("invalid delta")

// ErrDeltaCmd is returned for a delta instruction byte that is neither a
// copy-from-base nor an insert-literal command.
var ErrDeltaCmd = errors.New("invalid delta command")

var copyOffsetBits = []struct {
	mask  byte
	shift uint
}{
	{0x01, 0},
	{0x02, 8},
	{0x04, 16},
	{0x08, 24},
}

var copySizeBits = []struct {
	mask  byte
	shift uint
}{
	{0x10, 0},
	{0x20, 8},
	{0x40, 16},
}

const defaultCopySize = 0x10000

// ApplyDelta reconstructs a full object body by replaying delta against
// base, per the OFS_DELTA/REF_DELTA instruction stream: two leading
// base-128 varints (base size, result size) followed by copy/insert
// instructions.
func ApplyDelta(base, delta []byte) ([]byte, error) {
	if len(delta) < 4 {
		return nil, ErrInvalidDelta
	}

	baseSz, delta, err := decodeVarint(delta)
	if err != nil {
		return nil, err
	}
	if baseSz != uint64(len(base)) {
		return nil, ErrInvalidDelta
	}

	resultSz, delta, err := decodeVarint(delta)
	if err != nil {
		return nil, err
	}

	result := make([]byte, 0, resultSz)

	for len(delta) > 0 {
		cmd := delta[0]
		delta = delta[1:]

		switch {
		case cmd&0x80 != 0:
			var offset, size uint64
			offset, delta, err = decodeCopyOffset(cmd, delta)
			if err != nil {
				return nil, err
			}
			size, delta, err = decodeCopySize(cmd, delta)
			if err != nil {
				return nil, err
			}
			if offset+size > uint64(len(base)) || offset+size < offset {
				return nil, ErrInvalidDelta
			}
			result = append(result, base[offset:offset+size]...)

		case cmd != 0:
			size := int(cmd)
			if size > len(delta) {
				return nil, ErrInvalidDelta
			}
			result = append(result, delta[:size]...)
			delta = delta[size:]

		default:
			return nil, ErrDeltaCmd
		}
	}

	if uint64(len(result)) != resultSz {
		return nil, ErrInvalidDelta
	}

	return result, nil
}

func decodeCopyOffset(cmd byte, delta []byte) (uint64, []byte, error) {
	var offset uint64
	for _, b := range copyOffsetBits {
		if cmd&b.mask != 0 {
			if len(delta) == 0 {
				return 0, nil, ErrInvalidDelta
			}
			offset |= uint64(delta[0]) << b.shift
			delta = delta[1:]
		}
	}
	return offset, delta, nil
}

func decodeCopySize(cmd byte, delta []byte) (uint64, []byte, error) {
	var size uint64
	for _, b := range copySizeBits {
		if cmd&b.mask != 0 {
			if len(delta) == 0 {
				return 0, nil, ErrInvalidDelta
			}
			size |= uint64(delta[0]) << b.shift
			delta = delta[1:]
		}
	}
	if size == 0 {
		size = defaultCopySize
	}
	return size, delta, nil
}

// decodeVarint reads Git's little-endian, 7-bits-per-byte, MSB-continuation
// varint used for the delta header's base and result sizes.
func decodeVarint(b []byte) (uint64, []byte, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		c := b[i]
		v |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return v, b[i+1:], nil
		}
		shift += 7
	}
	return 0, nil, ErrInvalidDelta
}

// decodeOffsetDelta decodes the OFS_DELTA base-offset varint: big-endian,
// 7 bits per byte, with +1 added to the accumulator on each continuation
// (so that distinct encodings never collide), per Git's pack format.
func decodeOffsetDelta(b []byte) (uint64, []byte, error) {
	if len(b) == 0 {
		return 0, nil, ErrInvalidDelta
	}
	c := b[0]
	v := uint64(c & 0x7f)
	b = b[1:]
	for c&0x80 != 0 {
		if len(b) == 0 {
			return 0, nil, ErrInvalidDelta
		}
		c = b[0]
		b = b[1:]
		v = ((v + 1) << 7) | uint64(c&0x7f)
	}
	return v, b, nil
}
