/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledgerstore implements the append-only block log: block
// bodies keyed by number, a block-hash index, the latest block number, and
// an optional secondary transaction-id index. It is built on the same
// leveldbhelper wrapper as package worldstate, following fabric's pattern
// of a small purpose-built KV layer under each ledger component
// (core/ledger/blkstorage, core/ledger/kvledger/txmgmt/statedb) rather
// than one shared generic store.
package ledgerstore

import (
	"encoding/json"
	"strconv"

	"github.com/litefab/litefab/internal/canonical"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/storage/leveldbhelper"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("ledgerstore")

const (
	blockKeyPrefix = "block:"
	hashKeyPrefix  = "hash:"
	txKeyPrefix    = "tx:"
	latestKey      = "meta:latest"
)

// Store is the append-only block ledger.
type Store struct {
	db *leveldbhelper.DB
}

// Open opens (creating if necessary) a ledger store rooted at dbPath.
func Open(dbPath string) (*Store, error) {
	db := leveldbhelper.CreateDB(dbPath)
	if err := db.Open(); err != nil {
		return nil, errors.Wrap(err, "ledgerstore: failed opening store")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying store.
func (s *Store) Close() error {
	return s.db.Close()
}

func blockKey(n uint64) []byte { return []byte(blockKeyPrefix + strconv.FormatUint(n, 10)) }
func hashKey(h string) []byte  { return []byte(hashKeyPrefix + h) }
func txKey(txID string) []byte { return []byte(txKeyPrefix + txID) }

// TransactionsDataHash computes header.dataHash = H(canonical_concat(txs)),
// the digest an orderer stamps into a block header at cut time.
func TransactionsDataHash(txs []model.TransactionEnvelope) string {
	var data []byte
	for _, tx := range txs {
		data = append(data, canonical.MarshalStruct(tx)...)
	}
	return idcrypto.DigestHex(data)
}

// BlockHash computes the block hash as:
// H(canonical(header) || concat(canonical(tx) for tx in transactions) || canonical(metadata)).
func BlockHash(b model.Block) string {
	data := canonical.MarshalStruct(b.Header)
	for _, tx := range b.Transactions {
		data = append(data, canonical.MarshalStruct(tx)...)
	}
	data = append(data, canonical.MarshalStruct(b.Metadata)...)
	return idcrypto.DigestHex(data)
}

// PutBlock persists block keyed by header.number, updates the hash index
// and latest-block marker, and (if txIndex is true) the per-transaction
// index. To satisfy the atomicity requirement that a reader must never
// observe a hash-index entry for a block whose body hasn't landed, or vice
// versa — the block body is written before the hash/latest entries.
func (s *Store) PutBlock(block model.Block, txIndex bool) error {
	body, err := json.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "ledgerstore: marshal block")
	}
	if err := s.db.Put(blockKey(block.Header.Number), body, true); err != nil {
		return errors.Wrap(err, "ledgerstore: put block body")
	}

	hash := BlockHash(block)
	if err := s.db.Put(hashKey(hash), []byte(strconv.FormatUint(block.Header.Number, 10)), true); err != nil {
		return errors.Wrap(err, "ledgerstore: put hash index")
	}
	if err := s.db.Put([]byte(latestKey), []byte(strconv.FormatUint(block.Header.Number, 10)), true); err != nil {
		return errors.Wrap(err, "ledgerstore: put latest marker")
	}

	if txIndex {
		for txNum, tx := range block.Transactions {
			if err := s.PutTxIndex(tx.TxID, block.Header.Number, uint64(txNum)); err != nil {
				return err
			}
		}
	}

	logger.Infof("committed block %d with hash %s (%d transactions)",
		block.Header.Number, hash, len(block.Transactions))
	return nil
}

// GetBlock returns the block at number n.
func (s *Store) GetBlock(n uint64) (*model.Block, error) {
	body, err := s.db.Get(blockKey(n))
	if err != nil {
		return nil, errors.Wrapf(err, "ledgerstore: get block %d", n)
	}
	if body == nil {
		return nil, nil
	}
	var b model.Block
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, errors.Wrapf(err, "ledgerstore: decode block %d", n)
	}
	return &b, nil
}

// GetBlockByHash returns the block whose computed hash is h.
func (s *Store) GetBlockByHash(h string) (*model.Block, error) {
	numBytes, err := s.db.Get(hashKey(h))
	if err != nil {
		return nil, errors.Wrapf(err, "ledgerstore: get hash index %s", h)
	}
	if numBytes == nil {
		return nil, nil
	}
	n, err := strconv.ParseUint(string(numBytes), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "ledgerstore: decode block number from hash index")
	}
	return s.GetBlock(n)
}

// GetLatestBlockNumber returns the highest committed block number, or -1
// if the ledger is empty.
func (s *Store) GetLatestBlockNumber() (int64, error) {
	b, err := s.db.Get([]byte(latestKey))
	if err != nil {
		return -1, errors.Wrap(err, "ledgerstore: get latest marker")
	}
	if b == nil {
		return -1, nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return -1, errors.Wrap(err, "ledgerstore: decode latest marker")
	}
	return int64(n), nil
}

// GetLatestBlockHash returns the hash of the latest committed block, or ""
// if the ledger is empty. Used by the orderer to chain a new block's
// previousHash to real ledger state instead of a hard-coded constant
//.
func (s *Store) GetLatestBlockHash() (string, error) {
	latest, err := s.GetLatestBlockNumber()
	if err != nil {
		return "", err
	}
	if latest < 0 {
		return "", nil
	}
	block, err := s.GetBlock(uint64(latest))
	if err != nil {
		return "", err
	}
	if block == nil {
		return "", errors.Errorf("ledgerstore: latest marker points at missing block %d", latest)
	}
	return BlockHash(*block), nil
}

// PutTxIndex records the (blockNum, txNum) location of txID, enabling
// GetTransactionLocation lookups.
func (s *Store) PutTxIndex(txID string, blockNum, txNum uint64) error {
	loc := strconv.FormatUint(blockNum, 10) + ":" + strconv.FormatUint(txNum, 10)
	if err := s.db.Put(txKey(txID), []byte(loc), false); err != nil {
		return errors.Wrapf(err, "ledgerstore: put tx index %s", txID)
	}
	return nil
}

// GetTransactionLocation looks up txID's (blockNum, txNum), returning
// found=false if no index entry exists.
func (s *Store) GetTransactionLocation(txID string) (blockNum, txNum uint64, found bool, err error) {
	b, err := s.db.Get(txKey(txID))
	if err != nil {
		return 0, 0, false, errors.Wrapf(err, "ledgerstore: get tx index %s", txID)
	}
	if b == nil {
		return 0, 0, false, nil
	}
	var bnStr, tnStr string
	if _, err := splitLocation(string(b), &bnStr, &tnStr); err != nil {
		return 0, 0, false, errors.Wrap(err, "ledgerstore: decode tx index")
	}
	bn, err := strconv.ParseUint(bnStr, 10, 64)
	if err != nil {
		return 0, 0, false, err
	}
	tn, err := strconv.ParseUint(tnStr, 10, 64)
	if err != nil {
		return 0, 0, false, err
	}
	return bn, tn, true, nil
}

func splitLocation(s string, bn, tn *string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			*bn, *tn = s[:i], s[i+1:]
			return i, nil
		}
	}
	return 0, errors.Errorf("malformed tx location %q", s)
}
