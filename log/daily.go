package log

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WriteDaily writes to a file per day, named YYYY-MM-DD.txt (UTC).
// All methods are safe to call on nil receiver.
type WriteDaily struct {
	Dir string

	mu   sync.Mutex
	day  string
	file *os.File
	// for tests
	now func() time.Time
}

func NewWriteDaily(dir string) *WriteDaily {
	return &WriteDaily{
		Dir: dir,
	}
}

func (w *WriteDaily) timeNow() time.Time {
	if w.now != nil {
		return w.now().UTC()
	}
	return time.Now().UTC()
}

// Path returns path of the log file for a given time
func (w *WriteDaily) Path(t time.Time) string {
	return filepath.Join(w.Dir, t.UTC().Format("2006-01-02")+".txt")
}

// must be called with w.mu locked
func (w *WriteDaily) fileForToday() (*os.File, error) {
	now := w.timeNow()
	day := now.Format("2006-01-02")
	if w.file != nil && w.day == day {
		return w.file, nil
	}
	if err := w.close(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(w.Path(now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	w.file = f
	w.day = day
	return f, nil
}

// Write writes data to today's file, creating it if needed
func (w *WriteDaily) Write(d []byte) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.fileForToday()
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	return err
}

func (w *WriteDaily) WriteString(s string) error {
	return w.Write([]byte(s))
}

func (w *WriteDaily) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.day = ""
	return err
}

// Close syncs and closes the current file
func (w *WriteDaily) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.file != nil {
		err = w.file.Sync()
	}
	return errors.Join(err, w.close())
}
