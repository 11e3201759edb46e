package backup

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, dir string, compress bool) *recordstore.Store {
	s, err := recordstore.Open(dir, &recordstore.Options{Compress: compress})
	require.NoError(t, err)
	return s
}

func TestRunAndRestore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), true)
	for i, key := range []string{"a", "b", "a"} {
		meta := pipe.RecordOf("n", pipe.Number(float64(i)))
		_, err := s.Append("history", key, meta, []byte("payload "+key))
		require.NoError(t, err)
	}

	target := NewMemTarget()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	m, err := Run(ctx, s, target, "backups", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04_050607", m.Name)
	assert.Equal(t, 3, m.Entries)

	keys, _ := target.List(ctx, "backups/")
	assert.Equal(t, []string{
		"backups/2026-03-04_050607/data.bin.br",
		"backups/2026-03-04_050607/index.txt.br",
		"backups/2026-03-04_050607/manifest.txt",
	}, keys)

	latest, err := Latest(ctx, target, "backups")
	require.NoError(t, err)
	assert.Equal(t, m.Name, latest.Name)
	assert.Equal(t, "index.txt", latest.IndexFile)
	assert.Equal(t, "data.bin", latest.DataFile)
	assert.Equal(t, 3, latest.Entries)
	assert.True(t, now.Equal(latest.Created))

	dir := t.TempDir()
	require.NoError(t, Restore(ctx, target, "backups", latest, dir))
	restored := openStore(t, dir, false)
	assert.Len(t, restored.Entries(), 3)
	d, ok, err := restored.ReadLatest("history", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload a", string(d))
}

func TestLatestPicksNewest(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), false)
	_, err := s.Append("k", "x", nil, []byte("1"))
	require.NoError(t, err)

	target := NewMemTarget()
	_, err = Latest(ctx, target, "p")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = Run(ctx, s, target, "p", t1)
	require.NoError(t, err)
	_, err = s.Append("k", "x", nil, []byte("2"))
	require.NoError(t, err)
	_, err = Run(ctx, s, target, "p", t1.Add(time.Hour))
	require.NoError(t, err)

	// snapshot without manifest is incomplete and ignored
	require.NoError(t, target.Put(ctx, "p/2026-01-02_000000/index.txt.br", []byte("x")))
	// not a snapshot directory
	require.NoError(t, target.Put(ctx, "p/junk/manifest.txt", []byte("x")))

	names, err := Snapshots(ctx, target, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-01_000000", "2026-01-01_010000"}, names)

	m, err := Latest(ctx, target, "p")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01_010000", m.Name)
	assert.Equal(t, 2, m.Entries)
}

func TestRestoreMissingFile(t *testing.T) {
	ctx := context.Background()
	target := NewMemTarget()
	require.NoError(t, target.Put(ctx, "p/2026-01-01_000000/manifest.txt", []byte("index:'index.txt'|data:'data.bin'\n")))
	m, err := Latest(ctx, target, "p")
	require.NoError(t, err)
	err = Restore(ctx, target, "p", m, t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist), "err: %v", err)
}

func TestBadManifest(t *testing.T) {
	ctx := context.Background()
	target := NewMemTarget()
	require.NoError(t, target.Put(ctx, "p/2026-01-01_000000/manifest.txt", []byte("data:'data.bin'\n")))
	_, err := Latest(ctx, target, "p")
	assert.Error(t, err)
}

func TestTargetConfigErrors(t *testing.T) {
	_, err := NewS3Target(context.Background(), nil)
	assert.Error(t, err)
	_, err = NewS3Target(context.Background(), &S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewSFTPTarget(nil)
	assert.Error(t, err)
	_, err = NewSFTPTarget(&SFTPConfig{User: "u", Host: "h"})
	assert.Error(t, err)
	_, err = NewSFTPTarget(&SFTPConfig{User: "u", Host: "h", Dir: "/b", KeyPath: "/does/not/exist"})
	assert.Error(t, err)
}
