package history

import (
	"regexp"
	"testing"
	"time"

	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 21, 5, 9, 0, time.UTC)

func TestNewID(t *testing.T) {
	rx := regexp.MustCompile(`^[0-9a-z]{7}$`)
	rxPrefix := regexp.MustCompile(`^svc-[0-9a-z]{7}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID("")
		assert.Regexp(t, rx, id)
		seen[id] = true
		assert.Regexp(t, rxPrefix, NewID("svc"))
	}
	assert.Greater(t, len(seen), 90)
}

func TestTimestamps(t *testing.T) {
	assert.Equal(t, "3/1/2026 9:05:09 PM", Timestamp(testNow))
	assert.Equal(t, "12/31/2025 12:00:00 AM", Timestamp(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "01032026210509", CompactTimestamp(testNow))
}

func TestGenerate(t *testing.T) {
	offerings := []Offering{
		{OfferingID: "svc-groom"},
		{Name: "no id"},
		{OfferingID: "svc-walk"},
	}
	rec := Generate(offerings, testNow)
	assert.Equal(t, []string{"svc-groom", "svc-walk"}, rec.Keys())

	block, ok := rec.GetString("svc-groom")
	require.True(t, ok)
	assert.Regexp(t, `^id:'[0-9a-z]{7}'\|date:'3/1/2026 9:05:09 PM'\|status:'pending'\|notes:''$`, block)

	parsed := pipe.DecodeBlock(block)
	require.Equal(t, pipe.KindList, parsed.Kind())
	require.Len(t, parsed.Items(), 1)
	entry := parsed.Items()[0].Record()
	status, _ := entry.GetString("status")
	assert.Equal(t, StatusPending, status)
	notes, ok := entry.GetString("notes")
	require.True(t, ok)
	assert.Equal(t, "", notes)

	assert.Equal(t, 0, Generate(nil, testNow).Len())
}

func TestOfferingsFromRecords(t *testing.T) {
	recs := pipe.DecodeRecords("offeringId:'svc-1'|name:'Grooming'\nofferingId:7|name:'Walk'\nname:'Broken'|x:1")
	got := OfferingsFromRecords(recs)
	exp := []Offering{
		{OfferingID: "svc-1", Name: "Grooming"},
		{OfferingID: "7", Name: "Walk"},
		{Name: "Broken"},
	}
	assert.Equal(t, exp, got)
}

func TestParseServiceData(t *testing.T) {
	data := pipe.RecordOf(
		"svc-groom", pipe.String("id:'a'|status:'pending'"),
		"svc-count", pipe.Number(3),
		"name", pipe.String("id:'x'|y:1"),
	)
	got := ParseServiceData(data, "svc-")
	assert.Equal(t, []string{"svc-groom", "svc-count", "name"}, got.Keys())

	v, _ := got.Get("svc-groom")
	exp := pipe.List(pipe.Obj(pipe.RecordOf("id", pipe.String("a"), "status", pipe.String("pending"))))
	assert.True(t, exp.Equal(v))
	v, _ = got.Get("svc-count")
	assert.Equal(t, 3.0, v.Num())
	// keys without the prefix are not decoded
	v, _ = got.Get("name")
	assert.Equal(t, "id:'x'|y:1", v.Str())
}

func TestAddEntry(t *testing.T) {
	block := pipe.EncodeBlock([]*pipe.Record{newEntry(StatusPending, "", testNow)})
	later := testNow.Add(time.Hour)
	block, err := AddEntry(block, "done", "it's ok", later)
	require.NoError(t, err)

	recs := pipe.DecodeRecords(block)
	require.Len(t, recs, 2)
	notes, _ := recs[1].GetString("notes")
	assert.Equal(t, "it's ok", notes)
	date, _ := recs[1].GetString("date")
	assert.Equal(t, "3/1/2026 10:05:09 PM", date)
	status, ok := CurrentStatus(block)
	require.True(t, ok)
	assert.Equal(t, "done", status)

	// empty block
	block, err = AddEntry("", "pending", "", testNow)
	require.NoError(t, err)
	assert.Len(t, pipe.DecodeRecords(block), 1)

	for _, bad := range [][2]string{{"", ""}, {"a|b", ""}, {"done", "x\ny"}, {"done", "x|y"}} {
		_, err = AddEntry(block, bad[0], bad[1], testNow)
		assert.Error(t, err, "status: '%s', notes: '%s'", bad[0], bad[1])
	}

	_, ok = CurrentStatus("")
	assert.False(t, ok)
}

func newTestStore(t *testing.T) *Store {
	rs, err := recordstore.Open(t.TempDir(), &recordstore.Options{Compress: true})
	require.NoError(t, err)
	s := NewStore(rs)
	s.Now = func() time.Time { return testNow }
	return s
}

func TestStore(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Load("u1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())

	offerings := []Offering{{OfferingID: "svc-groom"}, {OfferingID: "svc-walk"}}
	rec, err = s.Init("u1", offerings)
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-groom", "svc-walk"}, rec.Keys())

	rec, err = s.AddStatus("u1", "svc-walk", "done", "walked 5km")
	require.NoError(t, err)

	loaded, err := s.Load("u1")
	require.NoError(t, err)
	assert.True(t, rec.Equal(loaded))
	assert.Equal(t, []string{"svc-groom", "svc-walk"}, loaded.Keys())
	block, _ := loaded.GetString("svc-walk")
	status, _ := CurrentStatus(block)
	assert.Equal(t, "done", status)

	// Init keeps existing history and adds new offerings
	rec, err = s.Init("u1", append(offerings, Offering{OfferingID: "svc-vet"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-groom", "svc-walk", "svc-vet"}, rec.Keys())
	block, _ = rec.GetString("svc-walk")
	assert.Len(t, pipe.DecodeRecords(block), 2)

	// other users are separate
	other, err := s.Load("u2")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())

	_, err = s.AddStatus("u1", "svc-walk", "", "")
	assert.Error(t, err)
	_, err = s.AddStatus("bad user", "svc-walk", "done", "")
	assert.Error(t, err)
}
