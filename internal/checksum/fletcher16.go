// Package checksum implements the Fletcher-16 checksum used to guard SRLA
// block payloads, styled as a hash.Hash-like type after the
// github.com/mewkiz/flac/internal/hashutil.Hash16 pattern.
package checksum

import "hash"

// Size of a Fletcher-16 checksum in bytes.
const Size = 2

// maxBlockSize is the number of input bytes accumulated between modular
// reductions, matching the original implementation's overflow-avoidance
// bound for 8-bit sums accumulated in a wider integer.
const maxBlockSize = 5802

// Hash16 is the interface implemented by 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	// Sum16 returns the 16-bit checksum of the hash.
	Sum16() uint16
}

type digest struct {
	c0, c1 uint32
}

// New returns a new Hash16 computing the Fletcher-16 checksum.
func New() Hash16 {
	return &digest{}
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }

func (d *digest) Reset() {
	d.c0, d.c1 = 0, 0
}

func (d *digest) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		chunk := p
		if len(chunk) > maxBlockSize {
			chunk = chunk[:maxBlockSize]
		}
		for _, b := range chunk {
			d.c0 += uint32(b)
			d.c1 += d.c0
		}
		d.c0 = mod255(d.c0)
		d.c1 = mod255(d.c1)
		p = p[len(chunk):]
	}
	return n, nil
}

// Sum16 returns the Fletcher-16 checksum.
func (d *digest) Sum16() uint16 {
	return uint16(d.c1<<8) | uint16(d.c0)
}

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}

// mod255 reduces x modulo 255 as (x + x/255) & 0xFF: writing x = 255k + r,
// the sum is 256k + r, whose low byte is r.
func mod255(x uint32) uint32 {
	return (x + x/255) & 0xFF
}

// Checksum returns the Fletcher-16 checksum of data in one call.
func Checksum(data []byte) uint16 {
	d := New()
	_, _ = d.Write(data)
	return d.Sum16()
}
