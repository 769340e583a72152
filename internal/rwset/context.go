/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rwset implements the chaincode execution context: a
// read/write recorder layered over a world-state snapshot, producing the
// RWSet an endorser attaches to its proposal response. It plays the role
// fabric's core/ledger/kvledger/txmgmt/rwsetutil and the simulator's TxSimulator
// play together, collapsed into one package.
package rwset

import (
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/version"
)

// Snapshot is the read-only view of world state an execution context
// simulates against. The endorser builds one over a *worldstate.Store and
// its channel with chaincode.NewSnapshot; it is kept as an interface here
// so chaincode tests can simulate
// against an in-memory fake instead of a real leveldb-backed store.
type Snapshot interface {
	Get(key string) ([]byte, error)
	GetVersion(key string) (*version.Height, error)
}

// Context is a per-transaction execution context. It is not safe for
// concurrent use: chaincode executes single-threaded per transaction.
type Context struct {
	snapshot Snapshot

	reads     []model.ReadEntry
	readIndex map[string]int // key -> index into reads, for first-read dedup

	writes     []model.WriteEntry
	writeIndex map[string]int // key -> index into writes, for read-your-own-writes + overwrite-in-place
}

// New returns a fresh execution context over snapshot.
func New(snapshot Snapshot) *Context {
	return &Context{
		snapshot:   snapshot,
		readIndex:  make(map[string]int),
		writeIndex: make(map[string]int),
	}
}

// GetState returns the logical value of key: a pending write from earlier
// in this same transaction if one exists (read-your-own-writes), else the
// committed world-state value. The first time a key is read in this
// transaction, its *world-state* version is recorded as a read entry —
// a requirement for MVCC validation at commit time: the RWSet must record
// the original version even when a later read observes a not-yet-committed
// write.
func (c *Context) GetState(key string) ([]byte, error) {
	if _, ok := c.readIndex[key]; !ok {
		ver, err := c.snapshot.GetVersion(key)
		if err != nil {
			return nil, err
		}
		c.readIndex[key] = len(c.reads)
		c.reads = append(c.reads, model.ReadEntry{Key: key, Version: ver})
	}

	if wi, ok := c.writeIndex[key]; ok {
		return valueOf(c.writes[wi]), nil
	}
	return c.snapshot.Get(key)
}

// PutState records a pending write of value for key, visible to
// subsequent GetState calls in this transaction.
func (c *Context) PutState(key string, value []byte) {
	c.recordWrite(key, &value)
}

// DelState records a pending delete for key, visible to subsequent
// GetState calls in this transaction as an absent value.
func (c *Context) DelState(key string) {
	c.recordWrite(key, nil)
}

func (c *Context) recordWrite(key string, value *[]byte) {
	entry := model.WriteEntry{Key: key, Value: stringPtrOf(value)}
	if i, ok := c.writeIndex[key]; ok {
		c.writes[i] = entry
		return
	}
	c.writeIndex[key] = len(c.writes)
	c.writes = append(c.writes, entry)
}

// RWSet returns the accumulated read-write set. The context must not be
// reused after this call.
func (c *Context) RWSet() model.RWSet {
	return model.RWSet{Reads: c.reads, Writes: c.writes}
}

func valueOf(w model.WriteEntry) []byte {
	if w.Value == nil {
		return nil
	}
	return []byte(*w.Value)
}

func stringPtrOf(value *[]byte) *string {
	if value == nil {
		return nil
	}
	s := string(*value)
	return &s
}
