package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const historyBucket = "history"

// BoltStore keeps one nested bucket per session under "history", keyed by the
// big-endian sequence number so cursor order is sequence order.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens or creates a BoltDB file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(historyBucket)); err != nil {
			return fmt.Errorf("create history bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(historyBucket))
		if root == nil {
			return fmt.Errorf("history bucket is missing")
		}
		bucket, err := root.CreateBucketIfNotExists([]byte(rec.SessionID))
		if err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}

		if last, _ := bucket.Cursor().Last(); last != nil {
			if prev := binary.BigEndian.Uint64(last); prev >= rec.Seq {
				return fmt.Errorf("%w: session %s seq %d after %d", ErrSequence, rec.SessionID, rec.Seq, prev)
			}
		}

		return bucket.Put(seqKey(rec.Seq), payload)
	})
}

func (s *BoltStore) Load(ctx context.Context, sessionID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := sessionBucket(tx, sessionID)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BoltStore) Latest(ctx context.Context, sessionID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := sessionBucket(tx, sessionID)
		if err != nil {
			return err
		}
		_, v := bucket.Cursor().Last()
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		return nil
	})
	return rec, err
}

func (s *BoltStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(historyBucket))
		if root == nil {
			return fmt.Errorf("history bucket is missing")
		}
		return root.ForEachBucket(func(k []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (s *BoltStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(historyBucket))
		if root == nil {
			return fmt.Errorf("history bucket is missing")
		}
		err := root.DeleteBucket([]byte(sessionID))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sessionBucket(tx *bbolt.Tx, sessionID string) (*bbolt.Bucket, error) {
	root := tx.Bucket([]byte(historyBucket))
	if root == nil {
		return nil, fmt.Errorf("history bucket is missing")
	}
	bucket := root.Bucket([]byte(sessionID))
	if bucket == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return bucket, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
