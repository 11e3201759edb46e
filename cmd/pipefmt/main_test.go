package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petopia/pipecodec/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv isolates tests from config files and environment of the machine
func setupEnv(t *testing.T) string {
	dir := t.TempDir()
	for _, k := range []string{"SCRIPT_PROD_URL", "GAS_API_SECRET", "PIPECODEC_LOG_DIR", "S3_ACCESS", "S3_SECRET", "S3_BUCKET", "S3_ENDPOINT"} {
		t.Setenv(k, "")
	}
	t.Setenv("PIPECODEC_STORE_DIR", filepath.Join(dir, "store"))
	return dir
}

func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	base := []string{
		"--config", filepath.Join(dir, "none.yaml"),
		"--env", filepath.Join(dir, ".env"),
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func runJSON(t *testing.T, dir string, stdin string, args ...string) pipe.Value {
	out, err := run(t, dir, stdin, args...)
	require.NoError(t, err)
	v, err := pipe.ParseJSON([]byte(out))
	require.NoError(t, err, "output: %s", out)
	return v
}

func assertJSON(t *testing.T, exp string, got pipe.Value) {
	t.Helper()
	v, err := pipe.ParseJSON([]byte(exp))
	require.NoError(t, err)
	assert.True(t, v.Equal(got), "exp: %s\ngot: %s", exp, pipe.MarshalJSON(got))
}

func TestDecode(t *testing.T) {
	dir := setupEnv(t)
	v := runJSON(t, dir, "id:'a'|n:1\nid:'b'|n:2\n", "decode")
	assertJSON(t, `[{"id":"a","n":1},{"id":"b","n":2}]`, v)

	v = runJSON(t, dir, "a:1\nb:'x'", "decode")
	assertJSON(t, `{"a":1,"b":"x"}`, v)

	v = runJSON(t, dir, "a:'TRUE'|b:'42'|c:'x'", "decode", "--normalize")
	assertJSON(t, `[{"a":true,"b":42,"c":"x"}]`, v)
}

func TestEncode(t *testing.T) {
	dir := setupEnv(t)
	out, err := run(t, dir, `[{"id":"a","n":1},{"id":"b","tags":["x"]}]`, "encode")
	require.NoError(t, err)
	assert.Equal(t, "id:'a'|n:1\nid:'b'|tags:['x']\n", out)

	out, err = run(t, dir, `{"id":"a","ok":true}`, "encode")
	require.NoError(t, err)
	assert.Equal(t, "id:'a'|ok:true\n", out)

	_, err = run(t, dir, `42`, "encode")
	assert.Error(t, err)
	_, err = run(t, dir, `{`, "encode")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	dir := setupEnv(t)
	v := runJSON(t, dir, `{"a":"TRUE","b":"42","c":"x:1|y:2","d":"007"}`, "normalize")
	assertJSON(t, `{"a":true,"b":42,"c":[{"x":1,"y":2}],"d":"007"}`, v)
}

func TestValue(t *testing.T) {
	dir := setupEnv(t)
	out, err := run(t, dir, "", "value", "'hi'")
	require.NoError(t, err)
	assert.Equal(t, "string: \"hi\"\n", out)

	out, err = run(t, dir, "", "value", "0x10")
	require.NoError(t, err)
	assert.Equal(t, "number: 16\n", out)
}

func TestLookup(t *testing.T) {
	dir := setupEnv(t)
	in := `[{"key":"a","value":"[1,2]"},{"key":"b","value":"x"}]`
	v := runJSON(t, dir, in, "lookup", "--key", "a")
	assertJSON(t, `[1,2]`, v)

	v = runJSON(t, dir, "key:'b'|value:'x'", "lookup", "--key", "b")
	assertJSON(t, `"x"`, v)

	_, err := run(t, dir, in, "lookup", "--key", "c")
	assert.Error(t, err)
	_, err = run(t, dir, in, "lookup")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	dir := setupEnv(t)
	offerings := `[{"offeringId":"o1","name":"A"},{"offeringId":2,"name":"B"},{"name":"no id"}]`

	v := runJSON(t, dir, offerings, "history", "gen")
	require.Equal(t, pipe.KindRecord, v.Kind())
	assert.Equal(t, []string{"o1", "2"}, v.Record().Keys())

	v = runJSON(t, dir, offerings, "history", "gen", "--user", "u1")
	assert.Equal(t, []string{"o1", "2"}, v.Record().Keys())

	out, err := run(t, dir, "", "history", "add", "--user", "u1", "--offering", "o1", "--status", "done", "--notes", "all good")
	require.NoError(t, err)
	assert.Equal(t, "o1: done\n", out)

	_, err = run(t, dir, "", "history", "add", "--user", "u1", "--offering", "o1", "--status", "a|b")
	assert.Error(t, err)

	v = runJSON(t, dir, "", "history", "show", "--user", "u1", "--key", "o")
	rec := v.Record()
	require.NotNil(t, rec)
	o1, _ := rec.Get("o1")
	require.Equal(t, pipe.KindList, o1.Kind())
	require.Len(t, o1.Items(), 2)
	last := o1.Items()[1].Record()
	status, _ := last.GetString("status")
	notes, _ := last.GetString("notes")
	assert.Equal(t, "done", status)
	assert.Equal(t, "all good", notes)
	// not matching --key, stays a block
	two, _ := rec.Get("2")
	assert.Equal(t, pipe.KindString, two.Kind())
}

func TestToonOutput(t *testing.T) {
	dir := setupEnv(t)
	out, err := run(t, dir, "name:'x'", "--toon", "decode")
	require.NoError(t, err)
	assert.Contains(t, out, "name: x")
}

func TestConfigErrors(t *testing.T) {
	dir := setupEnv(t)
	_, err := run(t, dir, "", "backup")
	assert.Error(t, err)
	_, err = run(t, dir, "", "restore")
	assert.Error(t, err)
	_, err = run(t, dir, "", "serve")
	assert.Error(t, err)

	t.Setenv("SCRIPT_PROD_URL", "https://example.com/exec")
	_, err = run(t, dir, "a:1", "decode")
	assert.Error(t, err, "url without secret must fail validation")
}
