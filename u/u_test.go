package u

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testData = []byte(strings.Repeat("id:'x1'|count:3|done:false\n", 64))

func gzipData(t *testing.T, d []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(d)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestPanicIf(t *testing.T) {
	PanicIf(false, "not reached")
	assert.PanicsWithValue(t, "condition failed", func() { PanicIf(true) })
	assert.PanicsWithValue(t, "bad 5", func() { PanicIf(true, "bad %d", 5) })
}

func TestSniffCompression(t *testing.T) {
	zd, err := ZstdCompressData(testData)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, SniffCompression(zd))
	assert.Equal(t, CompressionGzip, SniffCompression(gzipData(t, testData)))
	assert.Equal(t, CompressionBzip2, SniffCompression([]byte("BZh91AY")))
	assert.Equal(t, CompressionNone, SniffCompression([]byte("BZh")))
	assert.Equal(t, CompressionNone, SniffCompression(testData))
	assert.Equal(t, CompressionNone, SniffCompression(nil))

	assert.Equal(t, CompressionBrotli, CompressionFromExt("a/b.BR"))
	assert.Equal(t, CompressionZstd, CompressionFromExt("x.zst"))
	assert.Equal(t, CompressionNone, CompressionFromExt("x.txt"))
}

func TestReadFileMaybeCompressed(t *testing.T) {
	dir := t.TempDir()
	zd, err := ZstdCompressData(testData)
	require.NoError(t, err)
	bd, err := BrCompressDataBest(testData)
	require.NoError(t, err)

	files := map[string][]byte{
		"plain.txt": testData,
		"a.gz":      gzipData(t, testData),
		// sniffed, extension doesn't matter
		"gz-no-ext": gzipData(t, testData),
		"b.zstd":    zd,
		"zstd.bin":  zd,
		"c.br":      bd,
	}
	for name, d := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, d, 0644))
		got, err := ReadFileMaybeCompressed(path)
		require.NoError(t, err, "name: %s", name)
		assert.Equal(t, testData, got, "name: %s", name)
	}

	_, err = ReadFileMaybeCompressed(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	got, err := ReadAllMaybeCompressed(bytes.NewReader(zd))
	require.NoError(t, err)
	assert.Equal(t, testData, got)
}

func TestCompressRoundTrip(t *testing.T) {
	zd, err := ZstdCompressData(testData)
	require.NoError(t, err)
	assert.Less(t, len(zd), len(testData))
	got, err := ZstdDecompressData(zd)
	require.NoError(t, err)
	assert.Equal(t, testData, got)

	bd, err := BrCompressData(testData, 5)
	require.NoError(t, err)
	got, err = BrDecompressData(bd)
	require.NoError(t, err)
	assert.Equal(t, testData, got)

	_, err = ZstdDecompressData([]byte("not zstd"))
	assert.Error(t, err)
}

func TestParseEnv(t *testing.T) {
	d := []byte("# comment\r\nSCRIPT_PROD_URL=https://x.y/exec?a=b\n\nexport GAS_API_SECRET = 's3cr=t'\nEMPTY=\nQ=\"quoted\"\n")
	m, err := ParseEnv(d)
	require.NoError(t, err)
	exp := map[string]string{
		"SCRIPT_PROD_URL": "https://x.y/exec?a=b",
		"GAS_API_SECRET":  "s3cr=t",
		"EMPTY":           "",
		"Q":               "quoted",
	}
	assert.Equal(t, exp, m)

	_, err = ParseEnv([]byte("A=1\nnoequals\n"))
	assert.Error(t, err)
	_, err = ParseEnv([]byte("=1"))
	assert.Error(t, err)
}

func TestToTrimmedLines(t *testing.T) {
	got := ToTrimmedLines("  a \r\n\n b\rc\n  ")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, ToTrimmedLines(""))
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	assert.False(t, FileExists(path))
	assert.Equal(t, int64(-1), FileSize(path))
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))
	assert.True(t, FileExists(path))
	assert.Equal(t, int64(3), FileSize(path))
	assert.False(t, FileExists(dir))
}
