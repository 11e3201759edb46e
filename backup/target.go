package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/melbahja/goph"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/sftp"
)

// Target is a remote place where snapshots are stored.
// Keys are slash-separated paths.
type Target interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns keys starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}

// MemTarget keeps objects in memory
type MemTarget struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemTarget() *MemTarget {
	return &MemTarget{objects: map[string][]byte{}}
}

func (t *MemTarget) Put(ctx context.Context, key string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects[key] = append([]byte(nil), data...)
	return nil
}

func (t *MemTarget) Get(ctx context.Context, key string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.objects[key]
	if !ok {
		return nil, fmt.Errorf("'%s': %w", key, os.ErrNotExist)
	}
	return append([]byte(nil), d...), nil
}

func (t *MemTarget) List(ctx context.Context, prefix string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var res []string
	for k := range t.objects {
		if strings.HasPrefix(k, prefix) {
			res = append(res, k)
		}
	}
	sort.Strings(res)
	return res, nil
}

type S3Config struct {
	Endpoint string
	Access   string
	Secret   string
	Bucket   string
	Region   string
	// use http instead of https e.g. for local minio
	Insecure bool
}

// S3Target stores objects in S3-compatible storage
type S3Target struct {
	Client *minio.Client
	Bucket string
}

func NewS3Target(ctx context.Context, c *S3Config) (*S3Target, error) {
	if c == nil {
		return nil, errors.New("must provide config")
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide endpoint, access, secret and bucket")
	}
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &S3Target{Client: mc, Bucket: c.Bucket}, nil
}

func (t *S3Target) Put(ctx context.Context, key string, data []byte) error {
	opts := minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}
	r := bytes.NewReader(data)
	_, err := t.Client.PutObject(ctx, t.Bucket, key, r, int64(len(data)), opts)
	return err
}

func (t *S3Target) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := t.Client.GetObject(ctx, t.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (t *S3Target) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	var res []string
	for oi := range t.Client.ListObjects(ctx, t.Bucket, opts) {
		if oi.Err != nil {
			return nil, oi.Err
		}
		res = append(res, oi.Key)
	}
	sort.Strings(res)
	return res, nil
}

type SFTPConfig struct {
	User string
	// server address, ssh on port 22
	Host string
	// path of private key file
	KeyPath string
	// directory on the server where keys are stored
	Dir string
}

// SFTPTarget stores objects as files on a server, over ssh
type SFTPTarget struct {
	client *goph.Client
	sftp   *sftp.Client
	dir    string
}

func NewSFTPTarget(c *SFTPConfig) (*SFTPTarget, error) {
	if c == nil {
		return nil, errors.New("must provide config")
	}
	if c.User == "" || c.Host == "" || c.KeyPath == "" || c.Dir == "" {
		return nil, errors.New("must provide user, host, key path and dir")
	}
	auth, err := goph.Key(c.KeyPath, "")
	if err != nil {
		return nil, fmt.Errorf("goph.Key('%s') failed with '%w'", c.KeyPath, err)
	}
	client, err := goph.New(c.User, c.Host, auth)
	if err != nil {
		return nil, fmt.Errorf("goph.New('%s@%s') failed with '%w'", c.User, c.Host, err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("NewSftp() failed with '%w'", err)
	}
	return &SFTPTarget{client: client, sftp: sc, dir: c.Dir}, nil
}

func (t *SFTPTarget) remotePath(key string) string {
	return path.Join(t.dir, key)
}

func (t *SFTPTarget) Put(ctx context.Context, key string, data []byte) error {
	p := t.remotePath(key)
	if err := t.sftp.MkdirAll(path.Dir(p)); err != nil {
		return fmt.Errorf("sftp.MkdirAll('%s') failed with '%w'", path.Dir(p), err)
	}
	f, err := t.sftp.Create(p)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	err2 := f.Close()
	if err != nil {
		return err
	}
	return err2
}

func (t *SFTPTarget) Get(ctx context.Context, key string) ([]byte, error) {
	f, err := t.sftp.Open(t.remotePath(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (t *SFTPTarget) List(ctx context.Context, prefix string) ([]string, error) {
	var res []string
	w := t.sftp.Walk(t.dir)
	for w.Step() {
		if err := w.Err(); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if w.Stat().IsDir() {
			continue
		}
		key := strings.TrimPrefix(w.Path(), t.dir)
		key = strings.TrimPrefix(key, "/")
		if strings.HasPrefix(key, prefix) {
			res = append(res, key)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	sort.Strings(res)
	return res, nil
}

func (t *SFTPTarget) Close() error {
	err := t.sftp.Close()
	err2 := t.client.Close()
	return errors.Join(err, err2)
}
