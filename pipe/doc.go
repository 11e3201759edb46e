// Package pipe implements a small text format for lists of flat records
// and a lenient type coercion engine that goes with it.
//
// # Block format
//
// Each record is one line of key:value pairs separated with '|':
//
//	id:'x1'|count:3|done:false|tags:['a','b']
//
// Strings are single-quoted with ' escaped as \'. Numbers and booleans
// are written as is. Lists and records are written as loose object
// literals: JSON with single-quoted strings and bare keys.
//
//	block := pipe.EncodeBlock([]*pipe.Record{
//	    pipe.RecordOf("id", pipe.String("x1"), "count", pipe.Number(3)),
//	})
//	// block: id:'x1'|count:3
//
//	v := pipe.DecodeBlock(block)
//	// v is a list with one record
//
// Decoding is dual-mode: if the text contains '|' anywhere the result is
// a list with one record per line. Otherwise all lines are merged into
// a single record, later lines overwriting earlier keys.
//
// # Values
//
// [ParseValue] interprets a single token, trying in order: loose object
// or array literal, number, boolean, quoted string. Anything else is
// kept as a string. [FormatValue] is its inverse.
//
// [Normalize] walks a nested value and converts strings that look like
// blocks, JSON, booleans or numbers into typed values.
//
// # Diagnostics
//
// No operation returns an error. Problems the codec recovers from are
// reported to the [Sink] of a [Codec]. Package-level functions use
// [Default] which logs them with the log package.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package pipe
