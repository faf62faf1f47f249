// Package zipcrypto implements the traditional PKWARE stream cipher used by
// password protected ZIP entries.
package zipcrypto

import (
	"errors"
	"fmt"

	"github.com/alec-rabold/zipkit/pkg/crc"
	"github.com/alec-rabold/zipkit/pkg/header"
)

// HeaderLen is the length of the encryption header preceding the data.
const HeaderLen = 12

// ErrPassword indicates a password whose check byte does not match the entry.
var ErrPassword = errors.New("zipcrypto: invalid password")

type keys [3]uint32

func newKeys(password []byte) *keys {
	k := &keys{0x12345678, 0x23456789, 0x34567890}
	for _, b := range password {
		k.update(b)
	}
	return k
}

func (k *keys) update(b byte) {
	k[0] = crc.UpdateByte(k[0], b)
	k[1] = (k[1]+k[0]&0xff)*134775813 + 1
	k[2] = crc.UpdateByte(k[2], byte(k[1]>>24))
}

func (k *keys) stream() byte {
	t := uint16(k[2] | 2)
	return byte(t * (t ^ 1) >> 8)
}

func (k *keys) decrypt(b byte) byte {
	p := b ^ k.stream()
	k.update(p)
	return p
}

// checkByte is the value the last header byte decrypts to.
func checkByte(h *header.CentralRecord) byte {
	if h.Flags.DataDescriptor() {
		return byte(h.ModTime >> 8)
	}
	return byte(h.CRC32 >> 24)
}

// Cipher decrypts entries with the traditional PKWARE scheme.
type Cipher struct{}

// Decrypt strips and verifies the encryption header and returns the
// decrypted compressed bytes.
func (Cipher) Decrypt(data []byte, h *header.CentralRecord, password []byte) ([]byte, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("zipcrypto: %d bytes is shorter than the encryption header", len(data))
	}
	k := newKeys(password)
	var last byte
	for _, b := range data[:HeaderLen] {
		last = k.decrypt(b)
	}
	if last != checkByte(h) {
		return nil, ErrPassword
	}
	out := make([]byte, len(data)-HeaderLen)
	for i, b := range data[HeaderLen:] {
		out[i] = k.decrypt(b)
	}
	return out, nil
}
