// SPDX-License-Identifier: MIT

// Package badgerstore persists the event journal in a Badger key-value
// store.
package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/eventstore"
)

// Key layout:
// - "evt:" + big-endian seq -> JSON envelope
// - "meta:lastseq"          -> big-endian last assigned sequence
var (
	evtPrefix  = []byte("evt:")
	lastSeqKey = []byte("meta:lastseq")
)

// Store is a Badger-backed Journal.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the journal at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger journal: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func evtKey(seq uint64) []byte {
	key := make([]byte, len(evtPrefix)+8)
	copy(key, evtPrefix)
	binary.BigEndian.PutUint64(key[len(evtPrefix):], seq)
	return key
}

func readSeq(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(lastSeqKey)
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt sequence value of %d bytes", len(val))
		}
		seq = binary.BigEndian.Uint64(val)
		return nil
	})
	return seq, err
}

func (s *Store) Append(_ context.Context, evt event.Event) error {
	env, err := event.Wrap(evt)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		seq, err := readSeq(txn)
		if err != nil {
			return err
		}
		seq++
		buf, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if err := txn.Set(evtKey(seq), buf); err != nil {
			return err
		}
		seqBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBuf, seq)
		return txn.Set(lastSeqKey, seqBuf)
	})
}

func (s *Store) ReadSince(_ context.Context, since uint64, limit int) ([]eventstore.Record, error) {
	var out []eventstore.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = evtPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(evtKey(since + 1)); it.Valid(); it.Next() {
			item := it.Item()
			seq := binary.BigEndian.Uint64(item.Key()[len(evtPrefix):])
			var env event.Envelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return fmt.Errorf("decode record %d: %w", seq, err)
			}
			out = append(out, eventstore.Record{Seq: seq, Envelope: env})
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LastSeq(_ context.Context) (uint64, error) {
	var seq uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		seq, err = readSeq(txn)
		return err
	})
	return seq, err
}

var _ eventstore.Journal = (*Store)(nil)
