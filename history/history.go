// Package history keeps per-offering service history as pipe blocks.
//
// A user's history is a record mapping offering id to a block with one
// line per status change:
//
//	svc-groom: id:'k2j9x0a'|date:'3/1/2026 9:15:00 AM'|status:'pending'|notes:''
//	           id:'p0q8m1z'|date:'3/2/2026 1:00:00 PM'|status:'done'|notes:'ok'
package history

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
)

const StatusPending = "pending"

const idChars = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns 7 random base-36 characters, prefixed with "<prefix>-"
// if prefix is not empty
func NewID(prefix string) string {
	var sb strings.Builder
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteByte('-')
	}
	for i := 0; i < 7; i++ {
		sb.WriteByte(idChars[rand.IntN(len(idChars))])
	}
	return sb.String()
}

// Timestamp formats t as en-US locale date and time e.g. "3/1/2026 9:15:00 AM"
func Timestamp(t time.Time) string {
	return t.Format("1/2/2006 3:04:05 PM")
}

// CompactTimestamp formats t as DDMMYYYYHHMMSS
func CompactTimestamp(t time.Time) string {
	return t.Format("02012006150405")
}

type Offering struct {
	OfferingID string
	Name       string
}

// OfferingsFromRecords reads offerings from records with "offeringId"
// and optional "name" fields
func OfferingsFromRecords(recs []*pipe.Record) []Offering {
	var res []Offering
	for _, r := range recs {
		var o Offering
		if v, ok := r.Get("offeringId"); ok {
			o.OfferingID = valueToID(v)
		}
		o.Name, _ = r.GetString("name")
		res = append(res, o)
	}
	return res
}

// offering ids can be numbers in spreadsheets
func valueToID(v pipe.Value) string {
	switch v.Kind() {
	case pipe.KindString:
		return v.Str()
	case pipe.KindNumber:
		return pipe.FormatValue(v)
	}
	return ""
}

func newEntry(status string, notes string, now time.Time) *pipe.Record {
	return pipe.RecordOf(
		"id", pipe.String(NewID("")),
		"date", pipe.String(Timestamp(now)),
		"status", pipe.String(status),
		"notes", pipe.String(notes),
	)
}

// Generate creates initial history for offerings: a single pending entry
// per offering. Offerings without id are skipped with a warning.
func Generate(offerings []Offering, now time.Time) *pipe.Record {
	res := pipe.NewRecord()
	for _, o := range offerings {
		if o.OfferingID == "" {
			log.Logf("history.Generate: offering '%s' doesn't have an offeringId\n", o.Name)
			continue
		}
		block := pipe.EncodeBlock([]*pipe.Record{newEntry(StatusPending, "", now)})
		res.Set(o.OfferingID, pipe.String(block))
	}
	return res
}

// ParseServiceData returns a copy of data where string values of keys
// starting with searchKey are decoded as blocks
func ParseServiceData(data *pipe.Record, searchKey string) *pipe.Record {
	res := pipe.NewRecord()
	for _, e := range data.Entries() {
		v := e.Value
		if strings.HasPrefix(e.Key, searchKey) && v.Kind() == pipe.KindString {
			v = pipe.DecodeBlock(v.Str())
		}
		res.Set(e.Key, v)
	}
	return res
}

var errInvalidStatus = errors.New("status must be non-empty, status and notes can't contain '|' or newlines")

// '|' isn't escaped in values so it would split the field
func validateText(s string) bool {
	return !strings.ContainsAny(s, "|\r\n")
}

// AddEntry appends a status entry to block and returns the new block
func AddEntry(block string, status string, notes string, now time.Time) (string, error) {
	if status == "" || !validateText(status) || !validateText(notes) {
		return "", errInvalidStatus
	}
	recs := pipe.DecodeRecords(block)
	recs = append(recs, newEntry(status, notes, now))
	return pipe.EncodeBlock(recs), nil
}

// CurrentStatus returns status of the last entry in block
func CurrentStatus(block string) (string, bool) {
	recs := pipe.DecodeRecords(block)
	if len(recs) == 0 {
		return "", false
	}
	return recs[len(recs)-1].GetString("status")
}
