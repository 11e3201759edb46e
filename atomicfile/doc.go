/*
Package atomicfile writes files so that readers see either the old
content or the complete new content, never a partially written file.

Data is written to a temporary file in the destination directory which
is renamed over the destination on Close. If any Write fails, or the
file is cancelled, the temporary file is removed and the destination
is left untouched.

	err := atomicfile.WriteFile(path, data, 0644)

For streaming writes:

	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	// Cancel after a successful Close is a no-op
	defer f.Cancel()
	if err = enc.Encode(f); err != nil {
		return err
	}
	return f.Close()
*/
package atomicfile
