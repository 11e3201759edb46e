package recordstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/petopia/pipecodec/atomicfile"
	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/u"
)

type Options struct {
	// default: "index.txt"
	IndexFileName string
	// default: "data.bin"
	DataFileName string
	// if true, data of new entries is compressed with zstd
	Compress bool
	// for tests, default: time.Now
	Now func() time.Time
}

type Store struct {
	Dir      string
	Compress bool

	indexPath string
	dataPath  string
	now       func() time.Time

	mu      sync.Mutex
	entries []*Entry
	// kind + "\x00" + key => index in entries of latest entry
	latest map[string]int
}

func latestKey(kind, key string) string {
	return kind + "\x00" + key
}

// Open opens the store in dir, creating dir and files if needed
func Open(dir string, opts *Options) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is not set. For current directory, use '.'")
	}
	if opts == nil {
		opts = &Options{}
	}
	indexName := opts.IndexFileName
	if indexName == "" {
		indexName = "index.txt"
	}
	dataName := opts.DataFileName
	if dataName == "" {
		dataName = "data.bin"
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", dir, err)
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	s := &Store{
		Dir:       dir,
		Compress:  opts.Compress,
		indexPath: filepath.Join(dir, indexName),
		dataPath:  filepath.Join(dir, dataName),
		now:       opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if err = s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.indexPath)
	if os.IsNotExist(err) {
		s.setEntries(nil)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := ParseIndex(f)
	if err != nil {
		return fmt.Errorf("failed to read index '%s': %w", s.indexPath, err)
	}
	dataSize := max(u.FileSize(s.dataPath), 0)
	for _, e := range entries {
		if e.Offset+e.Size > dataSize {
			return fmt.Errorf("entry %s/%s points past end of data file (%d + %d > %d)", e.Kind, e.Key, e.Offset, e.Size, dataSize)
		}
	}
	s.setEntries(entries)
	log.Verbosef("recordstore: opened '%s' with %d entries\n", s.Dir, len(entries))
	return nil
}

// must be called with s.mu locked or before s is shared
func (s *Store) setEntries(entries []*Entry) {
	s.entries = entries
	s.latest = map[string]int{}
	for i, e := range entries {
		s.latest[latestKey(e.Kind, e.Key)] = i
	}
}

// Files returns paths of index and data files
func (s *Store) Files() (indexPath string, dataPath string) {
	return s.indexPath, s.dataPath
}

// Entries returns all entries in the order they were appended
func (s *Store) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Entry{}, s.entries...)
}

// Latest returns the most recently appended entry for kind and key
func (s *Store) Latest(kind, key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.latest[latestKey(kind, key)]
	if !ok {
		return nil, false
	}
	return s.entries[i], true
}

// returns offset at which the data was written
func appendToFileRobust(path string, data []byte) (int64, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	offset := st.Size()
	_, err = f.Write(data)
	err2 := f.Sync()
	err3 := f.Close()
	if err = u.FirstErr(err, err2, err3); err != nil {
		return 0, err
	}
	return offset, nil
}

// Append adds an entry. meta is optional.
func (s *Store) Append(kind, key string, meta *pipe.Record, data []byte) (*Entry, error) {
	if err := validateName("kind", kind); err != nil {
		return nil, err
	}
	if err := validateName("key", key); err != nil {
		return nil, err
	}
	e := &Entry{
		Codec: CodecRaw,
		Kind:  kind,
		Key:   key,
	}
	if meta.Len() > 0 {
		e.Meta = meta.Clone()
	}
	if s.Compress && len(data) > 0 {
		d, err := u.ZstdCompressData(data)
		if err != nil {
			return nil, fmt.Errorf("zstd compression failed: %w", err)
		}
		data = d
		e.Codec = CodecZstd
	}
	e.Size = int64(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	e.TimestampMs = s.now().UTC().UnixMilli()
	if len(data) > 0 {
		var err error
		e.Offset, err = appendToFileRobust(s.dataPath, data)
		if err != nil {
			return nil, err
		}
	}
	line, err := FormatIndexLine(e)
	if err != nil {
		return nil, err
	}
	if _, err = appendToFileRobust(s.indexPath, []byte(line)); err != nil {
		return nil, err
	}
	s.entries = append(s.entries, e)
	s.latest[latestKey(kind, key)] = len(s.entries) - 1
	return e, nil
}

// readFilePart reads size bytes at offset
func readFilePart(path string, offset int64, size int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, size)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, fmt.Errorf("failed to read %d bytes at offset %d of '%s': %w", size, offset, path, err)
	}
	return buf, nil
}

func decodeData(e *Entry, d []byte) ([]byte, error) {
	if e.Codec != CodecZstd {
		return d, nil
	}
	res, err := u.ZstdDecompressData(d)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s/%s: %w", e.Kind, e.Key, err)
	}
	return res, nil
}

// Read returns the (decompressed) data of e.
// Entries returned before Compact are not valid after it.
func (s *Store) Read(e *Entry) ([]byte, error) {
	if e.Size == 0 {
		return nil, nil
	}
	s.mu.Lock()
	d, err := readFilePart(s.dataPath, e.Offset, e.Size)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return decodeData(e, d)
}

// ReadLatest is Latest followed by Read
func (s *Store) ReadLatest(kind, key string) ([]byte, bool, error) {
	e, ok := s.Latest(kind, key)
	if !ok {
		return nil, false, nil
	}
	d, err := s.Read(e)
	return d, true, err
}

// Compact rewrites the store keeping only the latest entry for each
// kind and key. Data is copied as is, without re-compressing.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*Entry
	for i, e := range s.entries {
		if s.latest[latestKey(e.Kind, e.Key)] == i {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.entries) {
		return nil
	}

	var data bytes.Buffer
	var index bytes.Buffer
	newEntries := make([]*Entry, 0, len(kept))
	for _, e := range kept {
		ne := *e
		ne.Offset = 0
		if e.Size > 0 {
			d, err := readFilePart(s.dataPath, e.Offset, e.Size)
			if err != nil {
				return err
			}
			ne.Offset = int64(data.Len())
			data.Write(d)
		}
		line, err := FormatIndexLine(&ne)
		if err != nil {
			return err
		}
		index.WriteString(line)
		newEntries = append(newEntries, &ne)
	}

	// TODO: the two renames are not atomic as a pair, write a new
	// generation of files and switch to it in a single rename
	if err := atomicfile.WriteFile(s.dataPath, data.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", s.dataPath, err)
	}
	if err := atomicfile.WriteFile(s.indexPath, index.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", s.indexPath, err)
	}
	log.Verbosef("recordstore: compacted '%s' from %d to %d entries\n", s.Dir, len(s.entries), len(newEntries))
	s.setEntries(newEntries)
	return nil
}
