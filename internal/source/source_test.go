package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const sample = `<osm version="0.6"><node id="1" lat="1" lon="2"/></osm>`

func gzipped(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func xzed(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenFormats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		{"monaco.osm", []byte(sample), None},
		{"monaco.osm.gz", gzipped(t, sample), Gzip},
		{"monaco.osm.zst", zstded(t, sample), Zstd},
		{"monaco.osm.xz", xzed(t, sample), XZ},
		// Detection does not rely on the extension
		{"monaco.dat", gzipped(t, sample), Gzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(writeFile(t, tt.name, tt.data), 0)
			require.NoError(t, err)
			defer doc.Close()

			assert.Equal(t, tt.want, doc.Compression)
			assert.Equal(t, sample, string(doc.Data))
			assert.Equal(t, int64(len(tt.data)), doc.RawSize)
		})
	}
}

func TestOpenEmptyFile(t *testing.T) {
	doc, err := Open(writeFile(t, "empty.osm", nil), 0)
	require.NoError(t, err)
	assert.Empty(t, doc.Data)
	assert.NoError(t, doc.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.osm"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenLimit(t *testing.T) {
	path := writeFile(t, "big.osm", []byte(sample))
	_, err := Open(path, 10)
	assert.ErrorIs(t, err, ErrTooLarge)

	doc, err := Open(path, int64(len(sample)))
	require.NoError(t, err)
	doc.Close()
}

func TestDecompressedLimit(t *testing.T) {
	// Compresses well below the limit but expands beyond it
	large := strings.Repeat(sample, 100)
	compressed := gzipped(t, large)
	require.Less(t, len(compressed), 1000)

	_, err := Open(writeFile(t, "bomb.osm.gz", compressed), 1000)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRead(t *testing.T) {
	doc, err := Read(bytes.NewReader(xzed(t, sample)), 0)
	require.NoError(t, err)
	assert.Equal(t, XZ, doc.Compression)
	assert.Equal(t, Stdin, doc.Path)

	data, err := readAll(doc.Reader(), 0)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
}

func TestCorruptCompressedInput(t *testing.T) {
	data := gzipped(t, sample)
	_, err := Read(bytes.NewReader(data[:len(data)/2]), 0)
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	assert.Equal(t, None, Detect(nil))
	assert.Equal(t, None, Detect([]byte("<?xml")))
	assert.Equal(t, Gzip, Detect([]byte{0x1f, 0x8b, 0x08}))
}
