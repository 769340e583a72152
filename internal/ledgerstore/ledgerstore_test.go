/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledgerstore

import (
	"testing"

	"github.com/litefab/litefab/internal/model"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func genesisBlock() model.Block {
	return model.Block{
		Header: model.BlockHeader{Number: 0, PreviousHash: "", DataHash: "genesis"},
		Metadata: model.BlockMetadata{
			Timestamp: "2026-08-02T00:00:00Z",
			OrdererID: "orderer0",
		},
	}
}

func TestLatestBlockNumberStartsAtMinusOne(t *testing.T) {
	s := openTestStore(t)
	n, err := s.GetLatestBlockNumber()
	require.NoError(t, err)
	require.Equal(t, int64(-1), n)

	hash, err := s.GetLatestBlockHash()
	require.NoError(t, err)
	require.Equal(t, "", hash)
}

func TestPutBlockUpdatesAllIndexes(t *testing.T) {
	s := openTestStore(t)
	b0 := genesisBlock()
	require.NoError(t, s.PutBlock(b0, true))

	n, err := s.GetLatestBlockNumber()
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	got, err := s.GetBlock(0)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(0), got.Header.Number)

	hash := BlockHash(b0)
	byHash, err := s.GetBlockByHash(hash)
	require.NoError(t, err)
	require.NotNil(t, byHash)
	require.Equal(t, uint64(0), byHash.Header.Number)

	latestHash, err := s.GetLatestBlockHash()
	require.NoError(t, err)
	require.Equal(t, hash, latestHash)
}

func TestHashChainContinuity(t *testing.T) {
	s := openTestStore(t)
	b0 := genesisBlock()
	require.NoError(t, s.PutBlock(b0, true))

	hash0 := BlockHash(b0)
	b1 := model.Block{
		Header: model.BlockHeader{Number: 1, PreviousHash: hash0, DataHash: "d1"},
		Transactions: []model.TransactionEnvelope{
			{TxID: "tx1", CreatorID: "c1"},
		},
		Metadata: model.BlockMetadata{Timestamp: "2026-08-02T00:00:01Z", OrdererID: "orderer0"},
	}
	require.NoError(t, s.PutBlock(b1, true))

	got, err := s.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, hash0, got.Header.PreviousHash)

	loc, txNum, found, err := s.GetTransactionLocation("tx1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(1), loc)
	require.Equal(t, uint64(0), txNum)
}

func TestUnknownBlockAndHashReturnNilNotError(t *testing.T) {
	s := openTestStore(t)
	b, err := s.GetBlock(42)
	require.NoError(t, err)
	require.Nil(t, b)

	b, err = s.GetBlockByHash("does-not-exist")
	require.NoError(t, err)
	require.Nil(t, b)

	_, _, found, err := s.GetTransactionLocation("does-not-exist")
	require.NoError(t, err)
	require.False(t, found)
}

func TestBlockHashChangesWithContent(t *testing.T) {
	b0 := genesisBlock()
	b1 := genesisBlock()
	b1.Metadata.OrdererID = "orderer1"
	require.NotEqual(t, BlockHash(b0), BlockHash(b1))
}
