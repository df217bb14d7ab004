// Package bitstream provides the bit-granular reader/writer used by the
// SRLA codec core. It wraps github.com/icza/bitio's byte-boundary bit
// accumulator and adds the zero-run, zig-zag and Elias-gamma primitives the
// codec needs on top of it.
package bitstream

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Writer is a bit-level cursor over an io.Writer.
type Writer struct {
	bw *bitio.Writer
}

// NewWriter returns a Writer that bit-packs into w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bitio.NewWriter(w)}
}

// PutBits writes the low n bits of v MSB-first. n must be in [0, 64]; n=0 is
// a no-op.
func (w *Writer) PutBits(v uint64, n uint8) error {
	if n == 0 {
		return nil
	}
	if err := w.bw.WriteBits(v, n); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// PutZeroRun writes k zero bits followed by a terminating one bit, so
// PutZeroRun(0) writes a single 1 bit.
func (w *Writer) PutZeroRun(k uint32) error {
	for k >= 31 {
		if err := w.PutBits(0, 31); err != nil {
			return err
		}
		k -= 31
	}
	// k zeros then a 1, packed as a (k+1)-bit field with value 1.
	if err := w.PutBits(1, uint8(k+1)); err != nil {
		return err
	}
	return nil
}

// PutZigZag writes the zig-zag mapping of the signed value s in n bits.
func (w *Writer) PutZigZag(s int32, n uint8) error {
	return w.PutBits(uint64(EncodeZigZag(s)), n)
}

// PutGamma writes u using Elias-gamma coding: let v = u+1 and
// d = bit-length(v); emits d-1 zero bits followed by v in d bits (whose
// leading bit is always 1, so u=0 collapses to a single 1 bit).
func (w *Writer) PutGamma(u uint32) error {
	v := u + 1
	d := bitLen32(v)
	if err := w.PutBits(0, uint8(d-1)); err != nil {
		return err
	}
	return w.PutBits(uint64(v), uint8(d))
}

// Flush pads the partial byte with zeros to the next byte boundary.
func (w *Writer) Flush() error {
	if err := w.bw.Close(); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// Reader is a bit-level cursor over an io.Reader.
type Reader struct {
	br *bitio.Reader
}

// NewReader returns a Reader that reads bit-packed data from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bitio.NewReader(r)}
}

// GetBits reads and returns the next n bits as an unsigned value, n in
// [0, 64].
func (r *Reader) GetBits(n uint8) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	v, err := r.br.ReadBits(n)
	if err != nil {
		return 0, errutil.Err(err)
	}
	return v, nil
}

// GetZeroRun counts leading zero bits up to and including the terminating
// one bit, returning the count of zeros (not counting the terminator).
func (r *Reader) GetZeroRun() (uint32, error) {
	var n uint32
	for {
		b, err := r.br.ReadBits(1)
		if err != nil {
			return 0, errutil.Err(err)
		}
		if b == 1 {
			return n, nil
		}
		n++
	}
}

// GetZigZag reads n bits and decodes them as a zig-zag mapped signed value.
func (r *Reader) GetZigZag(n uint8) (int32, error) {
	v, err := r.GetBits(n)
	if err != nil {
		return 0, err
	}
	return DecodeZigZag(uint32(v)), nil
}

// GetGamma reads an Elias-gamma coded unsigned value. The terminating one
// bit that GetZeroRun consumes doubles as the leading bit of the value
// field, so only the remaining n bits need to be read after it.
func (r *Reader) GetGamma() (uint32, error) {
	n, err := r.GetZeroRun()
	if err != nil {
		return 0, err
	}
	rest, err := r.GetBits(uint8(n))
	if err != nil {
		return 0, err
	}
	v := (uint32(1) << n) | uint32(rest)
	return v - 1, nil
}

// bitLen32 returns the number of bits needed to represent v (v>=1).
func bitLen32(v uint32) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// DecodeZigZag decodes a zig-zag mapped unsigned integer.
//
//	0 =>  0
//	1 => -1
//	2 =>  1
//	3 => -2
func DecodeZigZag(x uint32) int32 {
	return int32(x>>1) ^ -int32(x&1)
}

// EncodeZigZag zig-zag encodes a signed integer.
//
//	 0 => 0
//	-1 => 1
//	 1 => 2
//	-2 => 3
func EncodeZigZag(x int32) uint32 {
	return uint32(x<<1) ^ uint32(x>>31)
}

// IntN sign-extends the low n bits of x, interpreting them as a two's
// complement integer of width n.
func IntN(x uint64, n uint) int64 {
	signBitMask := uint64(1) << (n - 1)
	if x&signBitMask == 0 {
		return int64(x)
	}
	v := int64(x ^ signBitMask)
	v -= int64(signBitMask)
	return v
}
