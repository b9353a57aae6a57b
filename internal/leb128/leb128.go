// Package leb128 encodes and decodes the variable-length integers used
// throughout the WebAssembly binary format (section sizes, indices, i32/i64
// constants).
package leb128

import (
	"errors"
	"fmt"
	"io"
)

// maxVarintLen32/64 bound how many continuation bytes a well-formed LEB128
// stream may use for the given bit width, so decoders can reject malformed
// (too-long or out-of-range) input instead of looping forever.
const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

var errOverflow = errors.New("leb128: overflows 32-bit integer")

// DecodeUint32 reads an unsigned LEB128-encoded uint32 from r, returning the
// value and the number of bytes consumed.
func DecodeUint32(r io.ByteReader) (uint32, uint64, error) {
	var result uint32
	var shift uint32
	var read uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("leb128: %w", err)
		}
		read++
		if shift == 28 && b&0xf0 != 0 {
			return 0, 0, errOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift >= 32 && (b>>(32-shift)) != 0 {
				return 0, 0, errOverflow
			}
			return result, read, nil
		}
		shift += 7
		if read > maxVarintLen32 {
			return 0, 0, errOverflow
		}
	}
}

// LoadUint32 is the allocation-free counterpart of DecodeUint32 for callers
// that already hold the encoded bytes in memory.
func LoadUint32(buf []byte) (uint32, uint64, error) {
	var result uint32
	var shift uint32
	for i := 0; ; i++ {
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b := buf[i]
		if shift == 28 && b&0xf0 != 0 {
			return 0, 0, errOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift >= 32 && (b>>(32-shift)) != 0 {
				return 0, 0, errOverflow
			}
			return result, uint64(i + 1), nil
		}
		shift += 7
		if i+1 >= maxVarintLen32 {
			return 0, 0, errOverflow
		}
	}
}

// DecodeUint64 reads an unsigned LEB128-encoded uint64 from r.
func DecodeUint64(r io.ByteReader) (uint64, uint64, error) {
	var result uint64
	var shift uint32
	var read uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("leb128: %w", err)
		}
		read++
		if shift == 63 && b&0xfe != 0 {
			return 0, 0, errors.New("leb128: overflows 64-bit integer")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, read, nil
		}
		shift += 7
		if read > maxVarintLen64 {
			return 0, 0, errors.New("leb128: overflows 64-bit integer")
		}
	}
}

// LoadUint64 is the byte-slice counterpart of DecodeUint64.
func LoadUint64(buf []byte) (uint64, uint64, error) {
	var result uint64
	var shift uint32
	for i := 0; ; i++ {
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b := buf[i]
		if shift == 63 && b&0xfe != 0 {
			return 0, 0, errors.New("leb128: overflows 64-bit integer")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, uint64(i + 1), nil
		}
		shift += 7
		if i+1 >= maxVarintLen64 {
			return 0, 0, errors.New("leb128: overflows 64-bit integer")
		}
	}
}

// DecodeInt32 reads a signed LEB128-encoded int32 from r.
func DecodeInt32(r io.ByteReader) (int32, uint64, error) {
	v, n, err := decodeSigned(r, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), n, nil
}

// LoadInt32 is the byte-slice counterpart of DecodeInt32.
func LoadInt32(buf []byte) (int32, uint64, error) {
	v, n, err := decodeSignedBuf(buf, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), n, nil
}

// DecodeInt64 reads a signed LEB128-encoded int64 from r.
func DecodeInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeSigned(r, 64)
}

// LoadInt64 is the byte-slice counterpart of DecodeInt64.
func LoadInt64(buf []byte) (int64, uint64, error) {
	return decodeSignedBuf(buf, 64)
}

// DecodeInt33AsInt64 decodes a 33-bit signed LEB128 value (used by constant
// data-segment offset expressions, which are encoded as i32 but whose
// immediate is read with one extra sign-extension bit in the reference
// decoder) and sign-extends it to int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeSigned(r, 33)
}

func decodeSigned(r io.ByteReader, size uint32) (int64, uint64, error) {
	var result int64
	var shift uint32
	var read uint64
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("leb128: %w", err)
		}
		read++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if read > maxVarintLen64 {
			return 0, 0, errors.New("leb128: overflows 64-bit integer")
		}
	}
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}
	if size < 64 {
		// Reject encodings whose value doesn't fit once sign-extended to
		// the requested width, mirroring the WebAssembly spec's strict
		// LEB128 validation.
		shiftedBack := (result << (64 - size)) >> (64 - size)
		if shiftedBack != result {
			return 0, 0, errOverflow
		}
	}
	return result, read, nil
}

func decodeSignedBuf(buf []byte, size uint32) (int64, uint64, error) {
	var result int64
	var shift uint32
	var b byte
	i := 0
	for {
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b = buf[i]
		i++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if i >= maxVarintLen64 {
			return 0, 0, errors.New("leb128: overflows 64-bit integer")
		}
	}
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}
	if size < 64 {
		shiftedBack := (result << (64 - size)) >> (64 - size)
		if shiftedBack != result {
			return 0, 0, errOverflow
		}
	}
	return result, uint64(i), nil
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	out := make([]byte, 0, 10)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			return out
		}
	}
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	out := make([]byte, 0, 10)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}
