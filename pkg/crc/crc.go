// Package crc implements the reflected CRC-32 (IEEE, polynomial 0xEDB88320)
// used by ZIP and DEFLATE.
package crc

import "hash"

// Size of a CRC-32 checksum in bytes.
const Size = 4

const polynomial = 0xedb88320

var table = makeTable()

func makeTable() *[256]uint32 {
	t := new([256]uint32)
	for i := range t {
		c := uint32(i)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = polynomial ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		t[i] = c
	}
	return t
}

// Update returns the result of adding the bytes in p to crc.
// crc is a finished checksum, so Update(0, p) == Checksum(p).
func Update(crc uint32, p []byte) uint32 {
	r := ^crc
	for _, b := range p {
		r = table[byte(r)^b] ^ (r >> 8)
	}
	return ^r
}

// UpdateByte folds a single byte into a raw (non-inverted) register.
// It is the primitive stream ciphers in the ZIP format are built on.
func UpdateByte(register uint32, b byte) uint32 {
	return table[byte(register)^b] ^ (register >> 8)
}

// Checksum returns the CRC-32 of p.
func Checksum(p []byte) uint32 { return Update(0, p) }

type digest struct {
	crc uint32
}

// New returns a hash.Hash32 computing the same checksum incrementally.
func New() hash.Hash32 { return &digest{} }

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }
func (d *digest) Reset()         { d.crc = 0 }
func (d *digest) Sum32() uint32  { return d.crc }

func (d *digest) Write(p []byte) (int, error) {
	d.crc = Update(d.crc, p)
	return len(p), nil
}

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum32()
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}
