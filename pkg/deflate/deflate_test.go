package deflate

import (
	"bytes"
	"compress/flate"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayloads() map[string][]byte {
	r := rand.New(rand.NewSource(42))
	random := make([]byte, 200<<10)
	r.Read(random)
	return map[string][]byte{
		"empty":      {},
		"short":      []byte("hello, world"),
		"repetitive": bytes.Repeat([]byte("abcabcabd"), 50000),
		"random":     random,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, src := range testPayloads() {
		t.Run(name, func(t *testing.T) {
			c, err := Deflate(src, DefaultLevel)
			require.NoError(t, err)
			got, err := Inflate(c, len(src))
			require.NoError(t, err)
			assert.Equal(t, len(src), len(got))
			assert.True(t, bytes.Equal(src, got))
		})
	}
}

// Output is raw DEFLATE, readable by an unrelated inflater.
func TestDeflateIsRaw(t *testing.T) {
	src := bytes.Repeat([]byte("interop "), 1000)
	c, err := Deflate(src, 9)
	require.NoError(t, err)
	got, err := io.ReadAll(flate.NewReader(bytes.NewReader(c)))
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestInflateStdlibStream(t *testing.T) {
	src := []byte("written by compress/flate")
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestSpeed)
	require.NoError(t, err)
	_, err = fw.Write(src)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	got, err := Inflate(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestAsyncMatchesSync(t *testing.T) {
	for name, src := range testPayloads() {
		t.Run(name, func(t *testing.T) {
			want, err := Deflate(src, DefaultLevel)
			require.NoError(t, err)

			var got []byte
			n, err := DeflateAsync(src, DefaultLevel, func(p []byte) { got = append(got, p...) }).Wait()
			require.NoError(t, err)
			assert.Equal(t, int64(len(want)), n)
			assert.True(t, bytes.Equal(want, got))

			var plain []byte
			task := InflateAsync(want, func(p []byte) { plain = append(plain, p...) })
			<-task.Done()
			assert.NoError(t, task.Err())
			assert.True(t, bytes.Equal(src, plain))
		})
	}
}

func TestCorruptInput(t *testing.T) {
	_, err := Inflate([]byte{0xff, 0xff, 0xff}, 0)
	assert.Error(t, err)

	task := InflateAsync([]byte{0xff, 0xff, 0xff}, func([]byte) {})
	<-task.Failed()
	assert.Error(t, task.Err())
	_, err = task.Wait()
	assert.Error(t, err)
}

func TestTruncatedInput(t *testing.T) {
	c, err := Deflate(bytes.Repeat([]byte("truncate me "), 1000), DefaultLevel)
	require.NoError(t, err)
	_, err = Inflate(c[:len(c)/2], 0)
	assert.Error(t, err)
}

func TestInvalidLevel(t *testing.T) {
	_, err := Deflate([]byte("x"), 42)
	assert.Error(t, err)
}

func TestTaskOutcome(t *testing.T) {
	boom := errors.New("boom")
	n, err := Go(func() (int64, error) { return 3, boom }).Wait()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(3), n)

	task := Go(func() (int64, error) { return 7, nil })
	<-task.Done()
	assert.NoError(t, task.Err())
	n, err = task.Wait()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	// waiting twice is fine
	_, err = task.Wait()
	assert.NoError(t, err)
}
