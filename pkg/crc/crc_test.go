package crc

import (
	"hash/crc32"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumGolden(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 0x00000000},
		{"123456789", 0xcbf43926},
		{"a", 0xe8b7be43},
		{"The quick brown fox jumps over the lazy dog", 0x414fa339},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Checksum([]byte(tt.in)), "crc(%q)", tt.in)
	}
}

func TestChecksumMatchesIEEE(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 7, 64, 1000, 1 << 16} {
		b := make([]byte, n)
		r.Read(b)
		assert.Equal(t, crc32.ChecksumIEEE(b), Checksum(b), "len %d", n)
	}
}

func TestUpdateIsIncremental(t *testing.T) {
	b := []byte("hello, incremental world")
	c := Update(0, b[:5])
	c = Update(c, b[5:])
	assert.Equal(t, Checksum(b), c)
}

func TestHash(t *testing.T) {
	h := New()
	_, err := h.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = h.Write([]byte("56789"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcbf43926), h.Sum32())
	assert.Equal(t, []byte{0xcb, 0xf4, 0x39, 0x26}, h.Sum(nil))

	h.Reset()
	assert.Equal(t, uint32(0), h.Sum32())
}
