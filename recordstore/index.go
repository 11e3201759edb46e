package recordstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/petopia/pipecodec/pipe"
)

const (
	CodecRaw  = "raw"
	CodecZstd = "zstd"
)

type Entry struct {
	// offset in data file
	Offset int64
	// size of (possibly compressed) data in data file
	Size int64
	// time in utc unix milliseconds
	TimestampMs int64
	// CodecRaw or CodecZstd
	Codec string
	// kind of the entry, e.g. "history". Can't contain spaces or newlines
	Kind string
	// Key identifies the entry within a kind. Can't contain spaces or newlines
	Key string
	// optional metadata, nil if none
	Meta *pipe.Record
}

func validateName(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s is empty", what)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return fmt.Errorf("%s '%s' can't contain whitespace", what, s)
	}
	return nil
}

func encodeMeta(meta *pipe.Record) (string, error) {
	if meta.Len() == 0 {
		return "", nil
	}
	s := pipe.EncodeLine(meta)
	if strings.ContainsAny(s, "\r\n") {
		return "", errors.New("metadata can't contain newlines")
	}
	return s, nil
}

// FormatIndexLine returns index line for e, including trailing newline
func FormatIndexLine(e *Entry) (string, error) {
	meta, err := encodeMeta(e.Meta)
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("%d %d %d %s %s %s", e.Offset, e.Size, e.TimestampMs, e.Codec, e.Kind, e.Key)
	if meta != "" {
		line += " " + meta
	}
	return line + "\n", nil
}

// ParseIndexLine parses a line written by FormatIndexLine
func ParseIndexLine(line string) (*Entry, error) {
	parts := strings.SplitN(line, " ", 7)
	if len(parts) < 6 {
		return nil, fmt.Errorf("invalid index line: '%s'", line)
	}
	var err error
	e := &Entry{}
	e.Offset, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid offset in index line: '%s'", line)
	}
	e.Size, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid size in index line: '%s'", line)
	}
	e.TimestampMs, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid time in index line: '%s'", line)
	}
	if e.Offset < 0 || e.Size < 0 || e.TimestampMs < 0 {
		return nil, fmt.Errorf("invalid index line: '%s'", line)
	}
	e.Codec = parts[3]
	if e.Codec != CodecRaw && e.Codec != CodecZstd {
		return nil, fmt.Errorf("unknown codec '%s' in index line: '%s'", e.Codec, line)
	}
	e.Kind = parts[4]
	e.Key = parts[5]
	if len(parts) > 6 {
		e.Meta = pipe.DecodeLine(parts[6])
	}
	return e, nil
}

// ParseIndex parses all index lines from r, skipping empty lines
func ParseIndex(r io.Reader) ([]*Entry, error) {
	var res []*Entry
	scanner := bufio.NewScanner(r)
	// meta can make lines longer than default 64 kB limit
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		e, err := ParseIndexLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		res = append(res, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading index: %w", err)
	}
	return res, nil
}
