package pipe

import (
	"fmt"

	"github.com/petopia/pipecodec/log"
)

// Level is the severity of a Diagnostic
type Level int

const (
	// LevelDebug is for parse attempts that failed and fell through
	LevelDebug Level = iota
	LevelWarn
	// LevelError is for contract violations by the caller
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Diagnostic describes a problem the codec recovered from.
// Diagnostics never change what an operation returns.
type Diagnostic struct {
	Level Level
	// name of the operation e.g. "EncodeBlock"
	Op    string
	Input string
	Err   error
}

func (d Diagnostic) String() string {
	in := d.Input
	if len(in) > 80 {
		in = in[:80] + "..."
	}
	return fmt.Sprintf("%s: %s: %v (input: %q)", d.Level, d.Op, d.Err, in)
}

// Sink receives diagnostics. It may be called from multiple goroutines.
type Sink func(Diagnostic)

// LogSink sends diagnostics to the log package
func LogSink(d Diagnostic) {
	if d.Level == LevelDebug {
		log.Verbosef("pipe: %s\n", d)
		return
	}
	log.Errorf("pipe: %s", d)
}

// DiscardSink ignores all diagnostics
func DiscardSink(Diagnostic) {}

// Codec implements the encoding and type coercion operations.
// It has no mutable state and is safe for concurrent use.
type Codec struct {
	// if nil, diagnostics are dropped
	Sink Sink
}

// Default is used by package-level functions
var Default = &Codec{Sink: LogSink}

// New returns a codec reporting to sink
func New(sink Sink) *Codec {
	return &Codec{Sink: sink}
}

func (c *Codec) report(level Level, op string, input string, err error) {
	if c == nil || c.Sink == nil {
		return
	}
	c.Sink(Diagnostic{
		Level: level,
		Op:    op,
		Input: input,
		Err:   err,
	})
}

func (c *Codec) debug(op string, input string, err error) {
	c.report(LevelDebug, op, input, err)
}
