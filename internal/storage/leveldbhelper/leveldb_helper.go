/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package leveldbhelper wraps a single goleveldb database with the
// open/close lifecycle and sync-on-demand write options litefab's world
// state and ledger stores both need. It is adapted from fabric's
// common/ledger/util/leveldbhelper, trimmed to the subset litefab's
// stores actually call (no file-lock helper, no bytes-range iteration
// beyond what keysByPrefix needs).
package leveldbhelper

import (
	"os"
	"sync"

	"github.com/litefab/litefab/internal/flogging"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	goleveldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

var logger = flogging.MustGetLogger("leveldbhelper")

type dbState int32

const (
	closed dbState = iota
	opened
)

// DB is a wrapper around a goleveldb database.
type DB struct {
	dbPath  string
	db      *leveldb.DB
	dbState dbState
	mutex   sync.RWMutex

	readOpts        *opt.ReadOptions
	writeOptsNoSync *opt.WriteOptions
	writeOptsSync   *opt.WriteOptions
}

// CreateDB constructs a DB rooted at dbPath. Open must be called before use.
func CreateDB(dbPath string) *DB {
	writeOptsSync := &opt.WriteOptions{Sync: true}
	return &DB{
		dbPath:          dbPath,
		dbState:         closed,
		readOpts:        &opt.ReadOptions{},
		writeOptsNoSync: &opt.WriteOptions{},
		writeOptsSync:   writeOptsSync,
	}
}

// Open opens the underlying db, creating its directory if missing.
func (dbInst *DB) Open() error {
	dbInst.mutex.Lock()
	defer dbInst.mutex.Unlock()
	if dbInst.dbState == opened {
		return nil
	}

	dirEmpty, err := createDirIfMissing(dbInst.dbPath)
	if err != nil {
		return errors.Wrapf(err, "error creating dir [%s]", dbInst.dbPath)
	}
	dbOpts := &opt.Options{ErrorIfMissing: !dirEmpty}
	db, err := leveldb.OpenFile(dbInst.dbPath, dbOpts)
	if err != nil {
		return errors.Wrapf(err, "error opening leveldb at [%s]", dbInst.dbPath)
	}
	dbInst.db = db
	dbInst.dbState = opened
	return nil
}

// Close closes the underlying db. Safe to call more than once.
func (dbInst *DB) Close() error {
	dbInst.mutex.Lock()
	defer dbInst.mutex.Unlock()
	if dbInst.dbState == closed {
		return nil
	}
	if err := dbInst.db.Close(); err != nil {
		logger.Errorf("error closing leveldb at [%s]: %s", dbInst.dbPath, err)
		return err
	}
	dbInst.dbState = closed
	return nil
}

// Get returns the value for key, or nil if key is absent.
func (dbInst *DB) Get(key []byte) ([]byte, error) {
	dbInst.mutex.RLock()
	defer dbInst.mutex.RUnlock()
	value, err := dbInst.db.Get(key, dbInst.readOpts)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error retrieving leveldb key [%#v]", key)
	}
	return value, nil
}

// Put saves key/value, fsyncing when sync is true.
func (dbInst *DB) Put(key []byte, value []byte, sync bool) error {
	dbInst.mutex.RLock()
	defer dbInst.mutex.RUnlock()
	wo := dbInst.writeOptsNoSync
	if sync {
		wo = dbInst.writeOptsSync
	}
	if err := dbInst.db.Put(key, value, wo); err != nil {
		return errors.Wrapf(err, "error writing leveldb key [%#v]", key)
	}
	return nil
}

// Delete removes key, fsyncing when sync is true.
func (dbInst *DB) Delete(key []byte, sync bool) error {
	dbInst.mutex.RLock()
	defer dbInst.mutex.RUnlock()
	wo := dbInst.writeOptsNoSync
	if sync {
		wo = dbInst.writeOptsSync
	}
	if err := dbInst.db.Delete(key, wo); err != nil {
		return errors.Wrapf(err, "error deleting leveldb key [%#v]", key)
	}
	return nil
}

// WriteBatch writes batch atomically, fsyncing when sync is true.
func (dbInst *DB) WriteBatch(batch *leveldb.Batch, sync bool) error {
	dbInst.mutex.RLock()
	defer dbInst.mutex.RUnlock()
	wo := dbInst.writeOptsNoSync
	if sync {
		wo = dbInst.writeOptsSync
	}
	if err := dbInst.db.Write(batch, wo); err != nil {
		return errors.Wrap(err, "error writing batch to leveldb")
	}
	return nil
}

// GetIterator returns an iterator over [startKey, endKey). A nil startKey
// starts from the first key; a nil endKey runs to the last key. The
// iterator must be Release()d by the caller.
func (dbInst *DB) GetIterator(startKey, endKey []byte) iterator.Iterator {
	dbInst.mutex.RLock()
	defer dbInst.mutex.RUnlock()
	return dbInst.db.NewIterator(&goleveldbutil.Range{Start: startKey, Limit: endKey}, dbInst.readOpts)
}

func createDirIfMissing(path string) (dirEmpty bool, err error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, os.MkdirAll(path, 0o755)
		}
		return false, err
	}
	return len(entries) == 0, nil
}
