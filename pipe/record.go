package pipe

// Entry is a key/value pair of a Record
type Entry struct {
	Key   string
	Value Value
}

// Record is an ordered mapping from string keys to values.
// Order is insertion order: re-setting an existing key
// keeps its original position.
type Record struct {
	entries []Entry
	index   map[string]int
}

func NewRecord() *Record {
	return &Record{}
}

// RecordOf builds a record from alternating key, value arguments
// e.g. RecordOf("a", Number(1), "b", String("x")).
// Panics on odd number of arguments or non-string key.
func RecordOf(kv ...any) *Record {
	panicIf(len(kv)%2 != 0, "RecordOf: odd number of arguments (%d)", len(kv))
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		panicIf(!ok, "RecordOf: key at %d is %T, not string", i, kv[i])
		v, ok := kv[i+1].(Value)
		panicIf(!ok, "RecordOf: value at %d is %T, not Value", i+1, kv[i+1])
		r.Set(k, v)
	}
	return r
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Set sets value for a key
func (r *Record) Set(key string, v Value) {
	if idx, ok := r.index[key]; ok {
		r.entries[idx].Value = v
		return
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry{Key: key, Value: v})
}

// Get returns a value for a given key
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	idx, ok := r.index[key]
	if !ok {
		return Value{}, false
	}
	return r.entries[idx].Value, true
}

// GetString returns the value of key if it's a string
func (r *Record) GetString(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok || v.Kind() != KindString {
		return "", false
	}
	return v.Str(), true
}

func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	res := make([]string, len(r.entries))
	for i, e := range r.entries {
		res[i] = e.Key
	}
	return res
}

// Entries returns a copy of the entries in insertion order
func (r *Record) Entries() []Entry {
	if r == nil {
		return nil
	}
	return append([]Entry(nil), r.entries...)
}

// Merge sets all entries of o in r, like Object.assign
func (r *Record) Merge(o *Record) {
	if o == nil {
		return
	}
	for _, e := range o.entries {
		r.Set(e.Key, e.Value)
	}
}

// Clone returns a shallow copy
func (r *Record) Clone() *Record {
	res := NewRecord()
	res.Merge(r)
	return res
}

// Equal compares records ignoring key order
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	if r == nil || o == nil {
		return true
	}
	for _, e := range r.entries {
		v, ok := o.Get(e.Key)
		if !ok || !e.Value.Equal(v) {
			return false
		}
	}
	return true
}
