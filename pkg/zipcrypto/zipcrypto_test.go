package zipcrypto

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alec-rabold/zipkit/pkg/crc"
	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/header"
)

func TestRoundTrip(t *testing.T) {
	plain := []byte("attack at dawn")
	h := &header.CentralRecord{CRC32: crc.Checksum(plain)}

	enc, err := encrypt(plain, h, []byte("pw"))
	require.NoError(t, err)
	require.Len(t, enc, HeaderLen+len(plain))
	assert.NotEqual(t, plain, enc[HeaderLen:])

	got, err := Cipher{}.Decrypt(enc, h, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	_, err = Cipher{}.Decrypt(enc, h, []byte("wrong"))
	// A wrong password passes the one-byte check with probability 1/256.
	if err != nil {
		assert.ErrorIs(t, err, ErrPassword)
	}
}

func TestCheckByteUsesModTimeWithDataDescriptor(t *testing.T) {
	h := &header.CentralRecord{Flags: header.FlagDataDescriptor, ModTime: 0xab12, CRC32: 0x01020304}
	assert.Equal(t, byte(0xab), checkByte(h))
	h.Flags = 0
	assert.Equal(t, byte(0x01), checkByte(h))
}

func TestShortInput(t *testing.T) {
	_, err := Cipher{}.Decrypt(make([]byte, 5), &header.CentralRecord{}, []byte("pw"))
	assert.Error(t, err)
}

func TestEntryDecryption(t *testing.T) {
	plain := bytes.Repeat([]byte("classified "), 50)
	cen := &header.CentralRecord{
		Flags:            header.FlagEncrypted,
		Method:           header.Store,
		CRC32:            crc.Checksum(plain),
		UncompressedSize: uint64(len(plain)),
		Name:             []byte("secret.txt"),
	}
	enc, err := encrypt(plain, cen, []byte("hunter2"))
	require.NoError(t, err)
	cen.CompressedSize = uint64(len(enc))

	opts := entry.DefaultOptions()
	opts.Cipher = Cipher{}
	e, err := entry.Decode(cen, append(cen.Local().Encode(), enc...), opts)
	require.NoError(t, err)

	got, err := e.GetData([]byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	_, err = e.GetData(nil)
	assert.ErrorIs(t, err, entry.ErrIncompatiblePassword)
}

// encrypt prefixes data with a random encryption header and encrypts it.
// The header's check byte is derived from h, which must already carry the
// entry's CRC or modification time.
func encrypt(data []byte, h *header.CentralRecord, password []byte) ([]byte, error) {
	out := make([]byte, HeaderLen+len(data))
	if _, err := rand.Read(out[:HeaderLen-1]); err != nil {
		return nil, fmt.Errorf("zipcrypto: %w", err)
	}
	out[HeaderLen-1] = checkByte(h)
	k := newKeys(password)
	for i, b := range out[:HeaderLen] {
		out[i] = k.encrypt(b)
	}
	for i, b := range data {
		out[HeaderLen+i] = k.encrypt(b)
	}
	return out, nil
}

func (k *keys) encrypt(b byte) byte {
	c := b ^ k.stream()
	k.update(b)
	return c
}
