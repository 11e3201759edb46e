package history

import (
	"fmt"
	"time"

	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/recordstore"
)

const storeKind = "history"

// Store persists history records per user. Every save appends
// a new version; only the latest is used.
type Store struct {
	rs *recordstore.Store
	// for tests, default: time.Now
	Now func() time.Time
}

func NewStore(rs *recordstore.Store) *Store {
	return &Store{rs: rs, Now: time.Now}
}

// Save stores rec as the current history of user
func (s *Store) Save(user string, rec *pipe.Record) error {
	d := pipe.MarshalJSON(pipe.Obj(rec))
	meta := pipe.RecordOf("offerings", pipe.Number(float64(rec.Len())))
	if _, err := s.rs.Append(storeKind, user, meta, d); err != nil {
		return fmt.Errorf("history.Save('%s'): %w", user, err)
	}
	return nil
}

// Load returns the current history of user.
// Returns an empty record if there's none.
func (s *Store) Load(user string) (*pipe.Record, error) {
	d, ok, err := s.rs.ReadLatest(storeKind, user)
	if err != nil {
		return nil, fmt.Errorf("history.Load('%s'): %w", user, err)
	}
	if !ok {
		return pipe.NewRecord(), nil
	}
	v, err := pipe.ParseJSON(d)
	if err != nil {
		return nil, fmt.Errorf("history.Load('%s'): %w", user, err)
	}
	if v.Kind() != pipe.KindRecord {
		return nil, fmt.Errorf("history.Load('%s'): expected object, got %s", user, v.Kind())
	}
	return v.Record(), nil
}

// Init creates pending history for offerings the user doesn't have yet
func (s *Store) Init(user string, offerings []Offering) (*pipe.Record, error) {
	rec, err := s.Load(user)
	if err != nil {
		return nil, err
	}
	var missing []Offering
	for _, o := range offerings {
		if _, ok := rec.Get(o.OfferingID); !ok {
			missing = append(missing, o)
		}
	}
	added := Generate(missing, s.Now())
	if added.Len() == 0 {
		return rec, nil
	}
	rec.Merge(added)
	if err = s.Save(user, rec); err != nil {
		return nil, err
	}
	log.Event("history.init", "user", user, "added", added.Len())
	return rec, nil
}

// AddStatus appends a status entry to the history of an offering
func (s *Store) AddStatus(user string, offeringID string, status string, notes string) (*pipe.Record, error) {
	rec, err := s.Load(user)
	if err != nil {
		return nil, err
	}
	block, _ := rec.GetString(offeringID)
	block, err = AddEntry(block, status, notes, s.Now())
	if err != nil {
		return nil, err
	}
	rec.Set(offeringID, pipe.String(block))
	if err = s.Save(user, rec); err != nil {
		return nil, err
	}
	log.Event("history.add", "user", user, "offering", offeringID, "status", status)
	return rec, nil
}
