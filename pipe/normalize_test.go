package pipe

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStrings(t *testing.T) {
	tests := []struct {
		in  string
		exp Value
	}{
		{"TRUE", Bool(true)},
		{" false ", Bool(false)},
		{"42", Number(42)},
		{" 42 ", Number(42)},
		{"-1.5", Number(-1.5)},
		{"0.1", Number(0.1)},
		{"007", String("007")},
		{"1e2", String("1e2")},
		{"-0", String("-0")},
		{"1.50", String("1.50")},
		{"", String("")},
		{"  padded  ", String("  padded  ")},
		{"Infinity", String("Infinity")},
		{"null", String("null")},
		{`{"a":"1"}`, rec("a", Number(1))},
		{`["true", "x"]`, List(Bool(true), String("x"))},
		{"{a:1}", String("{a:1}")},
		{"x:1|y:2", List(rec("x", Number(1), "y", Number(2)))},
		{"x:1\ny:'true'", rec("x", Number(1), "y", Bool(true))},
	}
	c, _ := newTestCodec()
	for _, test := range tests {
		got := c.Normalize(String(test.in))
		assertValue(t, test.exp, got, "in: %q", test.in)
	}
}

func TestNormalizeNested(t *testing.T) {
	in := rec(
		"id", String("p1"),
		"note", String("x:1|y:2"),
		"count", String("3"),
		"flags", List(String("true"), Number(1), Null()),
		"keep", Bool(false),
		"inner", rec("json", String(`{"k":"v","n":"2"}`)),
	)
	orig := in.Record().Clone()
	c, _ := newTestCodec()
	got := c.Normalize(in)
	exp := rec(
		"id", String("p1"),
		"note", List(rec("x", Number(1), "y", Number(2))),
		"count", Number(3),
		"flags", List(Bool(true), Number(1), Null()),
		"keep", Bool(false),
		"inner", rec("json", rec("k", String("v"), "n", Number(2))),
	)
	assertValue(t, exp, got)
	assert.Equal(t, []string{"id", "note", "count", "flags", "keep", "inner"}, got.Record().Keys())

	// input is not modified
	assert.True(t, orig.Equal(in.Record()))

	// normalizing twice gives the same result
	assertValue(t, got, c.Normalize(got))
}

func TestNormalizeReportsBadJSON(t *testing.T) {
	c, dc := newTestCodec()
	got := c.Normalize(String("[1,2"))
	assertValue(t, String("[1,2"), got)
	assert.Empty(t, dc.atLeast(LevelWarn))

	got = c.Normalize(String("{not json}"))
	assertValue(t, String("{not json}"), got)
	diags := dc.atLeast(LevelDebug)
	require.Len(t, diags, 1)
	assert.Equal(t, "Normalize", diags[0].Op)
}

func TestLookupByKey(t *testing.T) {
	items := []*Record{
		RecordOf("key", String("svc-groom"), "value", String("[1,2]")),
		RecordOf("key", String("plain"), "value", String("hello")),
		RecordOf("key", String("num"), "value", Number(7)),
		RecordOf("key", String("zero"), "value", Number(0)),
		RecordOf("key", String("empty"), "value", String("")),
		RecordOf("key", String("plain"), "value", String("second")),
		RecordOf("key", String("bad"), "value", String("[bad]")),
		RecordOf("other", String("x")),
	}
	c, dc := newTestCodec()

	v, ok := c.LookupByKey(items, "svc-groom")
	require.True(t, ok)
	assertValue(t, List(Number(1), Number(2)), v)

	// first match wins
	v, ok = c.LookupByKey(items, "plain")
	require.True(t, ok)
	assertValue(t, String("hello"), v)

	v, ok = c.LookupByKey(items, "num")
	require.True(t, ok)
	assertValue(t, Number(7), v)

	v, ok = c.LookupByKey(items, "zero")
	require.True(t, ok)
	assertValue(t, Number(0), v)

	v, ok = c.LookupByKey(items, "empty")
	require.True(t, ok)
	assertValue(t, String(""), v)

	v, ok = c.LookupByKey(items, "missing")
	assert.False(t, ok)
	assert.True(t, v.IsUndefined())
	assert.Empty(t, dc.atLeast(LevelDebug))

	v, ok = c.LookupByKey(items, "bad")
	require.True(t, ok)
	assert.True(t, v.IsNull())
	diags := dc.atLeast(LevelError)
	require.Len(t, diags, 1)
	assert.Equal(t, "LookupByKey", diags[0].Op)
	assert.Equal(t, "[bad]", diags[0].Input)

	_, ok = c.LookupByKey(nil, "x")
	assert.False(t, ok)
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"z":1,"a":[true,null,"s"],"m":{"k":2.5}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, v.Record().Keys())
	exp := rec(
		"z", Number(1),
		"a", List(Bool(true), Null(), String("s")),
		"m", rec("k", Number(2.5)),
	)
	assertValue(t, exp, v)

	v, err = ParseJSON([]byte("1e400"))
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.Num(), 1))

	for _, s := range []string{"", "{", "[1,]", "{\"a\":1} x", "[1] [2]", "{1:2}", "'x'"} {
		_, err = ParseJSON([]byte(s))
		assert.Error(t, err, "s: %q", s)
	}
}

func TestMarshalJSON(t *testing.T) {
	v := rec(
		"b", Number(1),
		"skip", Undefined(),
		"a", List(Undefined(), Number(math.Inf(1)), String("<&>")),
		"n", Null(),
	)
	assert.Equal(t, `{"b":1,"a":[null,null,"<&>"],"n":null}`, string(MarshalJSON(v)))

	// works through encoding/json
	d, err := json.Marshal(map[string]Value{"v": List(Number(1e21))})
	require.NoError(t, err)
	assert.Equal(t, `{"v":[1e+21]}`, string(d))

	var got Value
	require.NoError(t, json.Unmarshal([]byte(`{"y":1,"x":"s"}`), &got))
	assert.Equal(t, []string{"y", "x"}, got.Record().Keys())
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"b":    1,
		"a":    []any{"x", true, nil},
		"rec":  RecordOf("k", String("v")),
		"strs": []string{"p"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "rec", "strs"}, v.Record().Keys())
	exp := rec(
		"a", List(String("x"), Bool(true), Null()),
		"b", Number(1),
		"rec", rec("k", String("v")),
		"strs", List(String("p")),
	)
	assertValue(t, exp, v)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)

	m := v.Any().(map[string]any)
	assert.Equal(t, 1.0, m["b"])
	assert.Equal(t, []any{"x", true, nil}, m["a"])
}
