// Package recordstore is an append-only store of blobs with a text index.
//
// # Store Structure
//
// A store is a directory with two files:
//   - an index file (default: "index.txt"), one line per entry
//   - a data file (default: "data.bin") with the data of entries
//
// Index line format:
//
//	<offset> <size> <timestamp ms> <codec> <kind> <key>[ <meta>]
//
// codec is "raw" or "zstd". kind and key can't contain spaces.
// meta is a record encoded as a single pipe line, e.g. user:'u1'|n:3
//
// # Basic Usage
//
//	s, err := recordstore.Open("./data", nil)
//	if err != nil {
//	    return err
//	}
//	meta := pipe.RecordOf("user", pipe.String("u1"))
//	e, err := s.Append("history", "u1", meta, []byte(block))
//
//	e, ok := s.Latest("history", "u1")
//	d, err := s.Read(e)
//
// Entries are never modified. Appending an entry with the same kind and
// key shadows the older one. [Store.Compact] drops shadowed entries.
//
// # Thread Safety
//
// The Store is safe for concurrent use.
package recordstore
