// Package backup uploads snapshots of a record store to S3 or an sftp
// server and restores them.
//
// A snapshot is stored under <prefix>/<YYYY-MM-DD_HHMMSS>/ as:
//
//	manifest.txt     created:'...'|entries:12|index:'index.txt'|data:'data.bin'
//	index.txt.br     brotli-compressed index file
//	data.bin.br      brotli-compressed data file
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/petopia/pipecodec/atomicfile"
	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/recordstore"
	"github.com/petopia/pipecodec/u"
)

const (
	manifestName   = "manifest.txt"
	snapshotLayout = "2006-01-02_150405"
)

var ErrNoSnapshot = errors.New("backup: no snapshot found")

// Manifest describes a snapshot
type Manifest struct {
	Name      string
	Created   time.Time
	Entries   int
	IndexFile string
	DataFile  string
}

func (m *Manifest) record() *pipe.Record {
	return pipe.RecordOf(
		"created", pipe.String(m.Created.UTC().Format(time.RFC3339)),
		"entries", pipe.Number(float64(m.Entries)),
		"index", pipe.String(m.IndexFile),
		"data", pipe.String(m.DataFile),
	)
}

func parseManifest(name string, d []byte) (*Manifest, error) {
	rec := pipe.DecodeLine(strings.TrimSpace(string(d)))
	m := &Manifest{Name: name}
	var ok bool
	m.IndexFile, ok = rec.GetString("index")
	if !ok || m.IndexFile == "" {
		return nil, fmt.Errorf("manifest of '%s' has no index file", name)
	}
	m.DataFile, ok = rec.GetString("data")
	if !ok || m.DataFile == "" {
		return nil, fmt.Errorf("manifest of '%s' has no data file", name)
	}
	if v, ok := rec.Get("entries"); ok && v.Kind() == pipe.KindNumber {
		m.Entries = int(v.Num())
	}
	if s, ok := rec.GetString("created"); ok {
		m.Created, _ = time.Parse(time.RFC3339, s)
	}
	return m, nil
}

func snapshotDir(prefix string, name string) string {
	return path.Join(prefix, name)
}

// Run uploads a snapshot of s and returns its manifest
func Run(ctx context.Context, s *recordstore.Store, t Target, prefix string, now time.Time) (*Manifest, error) {
	indexPath, dataPath := s.Files()
	m := &Manifest{
		Name:      now.UTC().Format(snapshotLayout),
		Created:   now,
		Entries:   len(s.Entries()),
		IndexFile: filepath.Base(indexPath),
		DataFile:  filepath.Base(dataPath),
	}
	dir := snapshotDir(prefix, m.Name)
	timeStart := time.Now()
	// index first: data is appended before index so data read
	// later covers everything the index refers to
	var total int
	for _, p := range []string{indexPath, dataPath} {
		d, err := os.ReadFile(p)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		cd, err := u.BrCompressDataBest(d)
		if err != nil {
			return nil, err
		}
		key := path.Join(dir, filepath.Base(p)+".br")
		if err = t.Put(ctx, key, cd); err != nil {
			return nil, fmt.Errorf("upload of '%s' failed with '%w'", key, err)
		}
		total += len(cd)
	}
	// manifest is written last so that incomplete snapshots are ignored
	manifest := pipe.EncodeLine(m.record()) + "\n"
	if err := t.Put(ctx, path.Join(dir, manifestName), []byte(manifest)); err != nil {
		return nil, err
	}
	log.EventWithDuration("backup.run", time.Since(timeStart), "snapshot", m.Name, "size", total, "entries", m.Entries)
	log.Logf("backup: uploaded snapshot '%s' (%d entries, %d bytes) in %s\n", dir, m.Entries, total, time.Since(timeStart))
	return m, nil
}

// Snapshots returns names of complete snapshots under prefix, oldest first
func Snapshots(ctx context.Context, t Target, prefix string) ([]string, error) {
	listPrefix := prefix
	if listPrefix != "" && !strings.HasSuffix(listPrefix, "/") {
		listPrefix += "/"
	}
	keys, err := t.List(ctx, listPrefix)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, listPrefix)
		name, file, ok := strings.Cut(rest, "/")
		if !ok || file != manifestName {
			continue
		}
		if _, err := time.Parse(snapshotLayout, name); err != nil {
			continue
		}
		res = append(res, name)
	}
	// snapshotLayout sorts chronologically
	return res, nil
}

// Latest returns the manifest of the newest snapshot under prefix
func Latest(ctx context.Context, t Target, prefix string) (*Manifest, error) {
	names, err := Snapshots(ctx, t, prefix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoSnapshot
	}
	return ReadManifest(ctx, t, prefix, names[len(names)-1])
}

func ReadManifest(ctx context.Context, t Target, prefix string, name string) (*Manifest, error) {
	d, err := t.Get(ctx, path.Join(snapshotDir(prefix, name), manifestName))
	if err != nil {
		return nil, err
	}
	return parseManifest(name, d)
}

// Restore downloads snapshot m into dir. Existing files are replaced
// atomically. The store in dir must not be open.
func Restore(ctx context.Context, t Target, prefix string, m *Manifest, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	sdir := snapshotDir(prefix, m.Name)
	files := map[string][]byte{}
	for _, name := range []string{m.DataFile, m.IndexFile} {
		key := path.Join(sdir, name+".br")
		cd, err := t.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("download of '%s' failed with '%w'", key, err)
		}
		d, err := u.BrDecompressData(cd)
		if err != nil {
			return fmt.Errorf("decompressing '%s' failed with '%w'", key, err)
		}
		files[name] = d
	}
	// data first so that index never points past the end of data
	for _, name := range []string{m.DataFile, m.IndexFile} {
		dst := filepath.Join(dir, filepath.Base(name))
		if err := atomicfile.WriteFile(dst, files[name], 0644); err != nil {
			return err
		}
	}
	log.Logf("backup: restored snapshot '%s' to '%s'\n", sdir, dir)
	return nil
}
