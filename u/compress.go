package u

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies how data is compressed
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionGzip   Compression = "gz"
	CompressionBzip2  Compression = "bz2"
	CompressionZstd   Compression = "zstd"
	CompressionBrotli Compression = "br"
)

var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// SniffCompression detects compression from the first bytes of data.
// Brotli has no magic number so it can't be detected this way.
func SniffCompression(d []byte) Compression {
	switch {
	case bytes.HasPrefix(d, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(d, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(d, magicBzip2) && len(d) > 3 && d[3] >= '1' && d[3] <= '9':
		return CompressionBzip2
	}
	return CompressionNone
}

// CompressionFromExt returns compression based on file extension
func CompressionFromExt(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".bz2":
		return CompressionBzip2
	case ".zst", ".zstd":
		return CompressionZstd
	case ".br":
		return CompressionBrotli
	}
	return CompressionNone
}

type readCloser struct {
	r       io.Reader
	closers []func() error
}

func (rc *readCloser) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func (rc *readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		errs = append(errs, c())
	}
	return FirstErr(errs...)
}

func newDecompressor(r io.Reader, c Compression) (io.Reader, func() error, error) {
	noClose := func() error { return nil }
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), noClose, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case CompressionBrotli:
		return brotli.NewReader(r), noClose, nil
	}
	return r, noClose, nil
}

// NewReaderMaybeCompressed returns a reader that decompresses r if its
// content starts with gzip, bzip2 or zstd magic bytes. If content isn't
// recognized, fallback is used (e.g. CompressionBrotli for .br files).
func NewReaderMaybeCompressed(r io.Reader, fallback Compression) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	hdr, _ := br.Peek(4)
	c := SniffCompression(hdr)
	if c == CompressionNone {
		c = fallback
	}
	dr, closer, err := newDecompressor(br, c)
	if err != nil {
		return nil, err
	}
	return &readCloser{r: dr, closers: []func() error{closer}}, nil
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip
// or bzip2 or zstd or brotli. Content is sniffed first, extension is used
// when sniffing doesn't recognize the format.
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReaderMaybeCompressed(f, CompressionFromExt(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	res := rc.(*readCloser)
	res.closers = append(res.closers, f.Close)
	return res, nil
}

// ReadFileMaybeCompressed reads a file, decompressing it if needed
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ReadAllMaybeCompressed reads r, decompressing it if it's gzip, bzip2 or zstd
func ReadAllMaybeCompressed(r io.Reader) ([]byte, error) {
	rc, err := NewReaderMaybeCompressed(r, CompressionNone)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func BrCompressData(d []byte, level int) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, level)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = FirstErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func BrCompressDataBest(d []byte) ([]byte, error) {
	return BrCompressData(d, brotli.BestCompression)
}

func BrDecompressData(d []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(d)))
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// SpeedBestCompression is much slower and not much better
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func ZstdCompressData(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w, err := zstdNewWriter(&dst)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = FirstErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func ZstdDecompressData(d []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(d))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
