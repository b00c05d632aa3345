// Package source loads an OSM XML document into memory. Plain files are
// memory-mapped; gzip, zstd and xz input is detected by its magic bytes
// and decompressed.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Stdin is the path that selects standard input
const Stdin = "-"

// ErrTooLarge is returned when the input exceeds the configured limit
var ErrTooLarge = errors.New("input exceeds size limit")

// Compression identifies the container format of the input
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
	XZ   Compression = "xz"
)

var magics = []struct {
	prefix []byte
	kind   Compression
}{
	{[]byte{0x1f, 0x8b}, Gzip},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, Zstd},
	{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, XZ},
}

// Detect identifies the compression of data from its leading bytes
func Detect(data []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.prefix) {
			return m.kind
		}
	}
	return None
}

// Document is a loaded input. Data stays valid until Close.
type Document struct {
	Path        string
	Data        []byte
	Compression Compression
	RawSize     int64 // bytes read from the file or stream

	mapped mmap.MMap
}

// Reader returns a reader over the document contents
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.Data)
}

// Close releases the mapping, if any
func (d *Document) Close() error {
	if d.mapped == nil {
		return nil
	}
	err := d.mapped.Unmap()
	d.mapped = nil
	d.Data = nil
	return err
}

// Open loads path, or standard input for "-". A positive limit caps both
// the raw and the decompressed size.
func Open(path string, limit int64) (*Document, error) {
	if path == Stdin {
		return Read(os.Stdin, limit)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.Mode().IsRegular() {
		doc, err := Read(f, limit)
		if doc != nil {
			doc.Path = path
		}
		return doc, err
	}
	if err := checkLimit(info.Size(), limit); err != nil {
		return nil, err
	}

	doc := &Document{Path: path, RawSize: info.Size()}
	// Zero-length files cannot be mapped
	if info.Size() == 0 {
		doc.Compression = None
		return doc, nil
	}

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping input: %w", err)
	}

	doc.Compression = Detect(mapped)
	if doc.Compression == None {
		doc.Data = mapped
		doc.mapped = mapped
		return doc, nil
	}

	// The mapping only feeds the decompressor
	defer mapped.Unmap()
	data, err := decompress(doc.Compression, bytes.NewReader(mapped), limit)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	doc.Data = data
	return doc, nil
}

// Read loads a document from a stream
func Read(r io.Reader, limit int64) (*Document, error) {
	raw, err := readAll(r, limit)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: Stdin, RawSize: int64(len(raw)), Compression: Detect(raw)}
	if doc.Compression == None {
		doc.Data = raw
		return doc, nil
	}

	data, err := decompress(doc.Compression, bytes.NewReader(raw), limit)
	if err != nil {
		return nil, fmt.Errorf("decompressing input: %w", err)
	}
	doc.Data = data
	return doc, nil
}

func decompress(kind Compression, r io.Reader, limit int64) ([]byte, error) {
	switch kind {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readAll(zr, limit)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readAll(zr, limit)
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return readAll(xr, limit)
	}
	return nil, fmt.Errorf("unsupported compression %q", kind)
}

// readAll reads r completely, failing once more than limit bytes arrive
func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if err := checkLimit(int64(len(data)), limit); err != nil {
		return nil, err
	}
	return data, nil
}

func checkLimit(size, limit int64) error {
	if limit > 0 && size > limit {
		return fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.Bytes(uint64(limit)))
	}
	return nil
}
