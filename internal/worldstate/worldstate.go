/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package worldstate implements the versioned KV store: a
// durable, MVCC-aware key-value abstraction keyed by (channel, userKey),
// backed by goleveldb the way fabric's stateleveldb backs its
// VersionedDB. Two column families are maintained per key — "state" for
// the current value, "version" for the (blockNum, txNum) height that last
// wrote it; the third family, "index", belongs to the
// ledger store (package ledgerstore), which is the only consumer of it.
package worldstate

import (
	"sort"
	"strings"

	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/storage/leveldbhelper"
	"github.com/litefab/litefab/internal/version"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

var logger = flogging.MustGetLogger("worldstate")

const (
	stateKeyPrefix   = "state:"
	versionKeyPrefix = "version:"
)

// Store is the versioned world-state KV store.
type Store struct {
	db *leveldbhelper.DB
}

// Open opens (creating if necessary) a world-state store rooted at dbPath.
func Open(dbPath string) (*Store, error) {
	db := leveldbhelper.CreateDB(dbPath)
	if err := db.Open(); err != nil {
		return nil, errors.Wrap(err, "worldstate: failed opening store")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying store.
func (s *Store) Close() error {
	return s.db.Close()
}

func stateKey(channel, key string) []byte {
	return []byte(stateKeyPrefix + channel + ":" + key)
}

func versionKey(channel, key string) []byte {
	return []byte(versionKeyPrefix + channel + ":" + key)
}

// Get returns the current value for key, or nil if the key has never been
// written or was last written as a delete.
func (s *Store) Get(channel, key string) ([]byte, error) {
	v, err := s.db.Get(stateKey(channel, key))
	if err != nil {
		return nil, errors.Wrapf(err, "worldstate: get %s/%s", channel, key)
	}
	return v, nil
}

// GetVersion returns the version last written for key, or nil if the key
// was never written.
func (s *Store) GetVersion(channel, key string) (*version.Height, error) {
	b, err := s.db.Get(versionKey(channel, key))
	if err != nil {
		return nil, errors.Wrapf(err, "worldstate: get version %s/%s", channel, key)
	}
	if b == nil {
		return nil, nil
	}
	h, _, err := version.NewHeightFromBytes(b)
	if err != nil {
		return nil, errors.Wrapf(err, "worldstate: decode version %s/%s", channel, key)
	}
	return h, nil
}

// Put is a raw mutator: it writes key's value without touching its
// version. Apply does not call it; Apply writes values and versions in
// one batch.
func (s *Store) Put(channel, key string, value []byte) error {
	return s.db.Put(stateKey(channel, key), value, false)
}

// Del is a raw mutator: it deletes key's value without touching its
// version. Apply does not call it; Apply writes values and versions in
// one batch.
func (s *Store) Del(channel, key string) error {
	return s.db.Delete(stateKey(channel, key), false)
}

// Apply applies every write entry in writes, in order, stamping each
// written key's version to (blockNum, txNum) — including keys that were
// deleted, honoring the invariant that getVersion reflects every write
// regardless of put-vs-delete. All mutations for this call (one
// transaction's writes, as the committer calls it) are written as a single
// leveldb batch, so they are atomic relative to concurrent readers on this
// store; a block of several transactions is applied in several batches.
func (s *Store) Apply(channel string, writes []model.WriteEntry, blockNum, txNum uint64) error {
	if len(writes) == 0 {
		return nil
	}
	h := version.NewHeight(blockNum, txNum)
	batch := new(leveldb.Batch)
	for _, w := range writes {
		if w.Value == nil {
			batch.Delete(stateKey(channel, w.Key))
		} else {
			batch.Put(stateKey(channel, w.Key), []byte(*w.Value))
		}
		batch.Put(versionKey(channel, w.Key), h.ToBytes())
	}
	if err := s.db.WriteBatch(batch, false); err != nil {
		return errors.Wrap(err, "worldstate: apply batch")
	}
	return nil
}

// ValidateReadSet checks every read entry against the current version of
// its key, requiring strict equality including the ∅-vs-present
// distinction. It returns false and the first conflicting key on
// mismatch.
func (s *Store) ValidateReadSet(channel string, reads []model.ReadEntry) (bool, string, error) {
	for _, r := range reads {
		current, err := s.GetVersion(channel, r.Key)
		if err != nil {
			return false, "", err
		}
		if !version.AreSame(r.Version, current) {
			return false, r.Key, nil
		}
	}
	return true, "", nil
}

// KeysByPrefix returns, in sorted order, every key in channel's namespace
// whose userKey starts with prefix.
func (s *Store) KeysByPrefix(channel, prefix string) ([]string, error) {
	startKey := stateKey(channel, prefix)
	endKey := append(append([]byte{}, startKey...), 0xff)

	itr := s.db.GetIterator(startKey, endKey)
	defer itr.Release()

	nsPrefix := stateKeyPrefix + channel + ":"
	var keys []string
	for itr.Next() {
		full := string(itr.Key())
		if !strings.HasPrefix(full, nsPrefix) {
			continue
		}
		userKey := strings.TrimPrefix(full, nsPrefix)
		if strings.HasPrefix(userKey, prefix) {
			keys = append(keys, userKey)
		}
	}
	if err := itr.Error(); err != nil {
		return nil, errors.Wrap(err, "worldstate: iteration error")
	}
	sort.Strings(keys)
	return keys, nil
}
