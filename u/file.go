package u

import (
	"os"
)

// FileExists returns true if path is a regular file, following symlinks
func FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// FileSize returns size of file or -1 if it can't be read
func FileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return st.Size()
}
