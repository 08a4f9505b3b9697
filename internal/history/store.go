package history

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	revisionsBucket = []byte("revisions")
	runsBucket      = []byte("runs")
)

type Source string

const (
	SourceForm     Source = "form"
	SourceRaw      Source = "raw"
	SourceExternal Source = "external"
)

// Revision is one observed version of the config file.
type Revision struct {
	ID        string    `json:"id"`
	Source    Source    `json:"source"`
	Checksum  string    `json:"checksum"`
	Size      int       `json:"size"`
	Raw       string    `json:"raw,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunRecord is one preview or run invocation.
type RunRecord struct {
	ID        string        `json:"id"`
	Mode      string        `json:"mode"`
	OK        bool          `json:"ok"`
	Code      int           `json:"code"`
	Output    string        `json:"output,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// maxOutput caps stored run output.
const maxOutput = 16 * 1024

type Store interface {
	Close() error
	AddRevision(source Source, raw string) (*Revision, bool, error)
	Revisions(limit int) ([]Revision, error)
	AddRun(rec *RunRecord) error
	Runs(limit int) ([]RunRecord, error)
}

type BBoltStore struct {
	db *bolt.DB
}

func OpenBBolt(path string) (*BBoltStore, error) {
	if path == "" {
		return nil, errors.New("bbolt path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir history dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(revisionsBucket); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(runsBucket); e != nil {
			return e
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BBoltStore{db: db}, nil
}

func (s *BBoltStore) Close() error {
	return s.db.Close()
}

// Checksum is the hex sha256 of raw.
func Checksum(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// AddRevision records raw unless it matches the latest revision. The bool
// reports whether a new revision was written.
func (s *BBoltStore) AddRevision(source Source, raw string) (*Revision, bool, error) {
	rev := &Revision{
		ID:        uuid.New().String(),
		Source:    source,
		Checksum:  Checksum(raw),
		Size:      len(raw),
		Raw:       raw,
		CreatedAt: time.Now(),
	}
	added := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(revisionsBucket)
		if _, v := bkt.Cursor().Last(); v != nil {
			var last Revision
			if err := json.Unmarshal(v, &last); err != nil {
				return err
			}
			if last.Checksum == rev.Checksum {
				*rev = last
				return nil
			}
		}
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		added = true
		return putJSON(bkt, seqKey(seq), rev)
	})
	if err != nil {
		return nil, false, err
	}
	return rev, added, nil
}

// Revisions returns up to limit revisions, newest first.
func (s *BBoltStore) Revisions(limit int) ([]Revision, error) {
	out := []Revision{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return latest(tx.Bucket(revisionsBucket), limit, func(v []byte) error {
			var rev Revision
			if err := json.Unmarshal(v, &rev); err != nil {
				return err
			}
			out = append(out, rev)
			return nil
		})
	})
	return out, err
}

func (s *BBoltStore) AddRun(rec *RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if len(rec.Output) > maxOutput {
		cut := len(rec.Output) - maxOutput
		for cut < len(rec.Output) && !utf8.RuneStart(rec.Output[cut]) {
			cut++
		}
		rec.Output = rec.Output[cut:]
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(runsBucket)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		return putJSON(bkt, seqKey(seq), rec)
	})
}

// Runs returns up to limit run records, newest first.
func (s *BBoltStore) Runs(limit int) ([]RunRecord, error) {
	out := []RunRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return latest(tx.Bucket(runsBucket), limit, func(v []byte) error {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

func latest(b *bolt.Bucket, limit int, fn func(v []byte) error) error {
	c := b.Cursor()
	n := 0
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		if limit > 0 && n >= limit {
			break
		}
		if err := fn(v); err != nil {
			return err
		}
		n++
	}
	return nil
}

func putJSON(b *bolt.Bucket, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(k, data)
}

// seqKey encodes a bucket sequence big-endian so cursor order is insert order.
func seqKey(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
