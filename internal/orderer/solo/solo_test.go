/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package solo

import (
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/litefab/litefab/internal/ledgerstore"
	"github.com/litefab/litefab/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestConsensus(t *testing.T, opts ...Option) (*Consensus, *ledgerstore.Store, chan model.Block) {
	t.Helper()
	ledger, err := ledgerstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	committed := make(chan model.Block, 100)
	sign := func(subset []byte) (string, error) { return "sig", nil }
	sink := func(b model.Block) { committed <- b }

	c := New(ledger, "orderer0", sign, sink, opts...)
	return c, ledger, committed
}

func env(txID string) model.TransactionEnvelope { return model.TransactionEnvelope{TxID: txID} }

func TestCutsImmediatelyAtBlockSize(t *testing.T) {
	c, _, committed := newTestConsensus(t, WithBlockSize(2))
	require.NoError(t, c.Submit(env("tx1")))
	select {
	case <-committed:
		t.Fatal("must not cut before blockSize reached")
	default:
	}
	require.NoError(t, c.Submit(env("tx2")))

	select {
	case block := <-committed:
		require.Equal(t, uint64(0), block.Header.Number)
		require.Len(t, block.Transactions, 2)
		require.Equal(t, "sig", block.Metadata.OrdererSignature)
	default:
		t.Fatal("expected a cut block")
	}
	require.Equal(t, 0, c.PendingCount())
}

func TestTimerCutsBelowThreshold(t *testing.T) {
	fc := fakeclock.NewFakeClock(time.Now())
	c, _, committed := newTestConsensus(t, WithBlockSize(10), WithBlockTimeout(2*time.Second), WithClock(fc))

	stop := make(chan struct{})
	defer close(stop)
	go c.Run(stop)

	require.NoError(t, c.Submit(env("tx1")))

	require.Eventually(t, func() bool { return fc.WatcherCount() > 0 }, time.Second, time.Millisecond)
	fc.WaitForWatcherAndIncrement(2 * time.Second)

	select {
	case block := <-committed:
		require.Len(t, block.Transactions, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("expected timer-triggered cut")
	}
}

func TestSecondBlockChainsToFirst(t *testing.T) {
	c, ledger, committed := newTestConsensus(t, WithBlockSize(1))
	require.NoError(t, c.Submit(env("tx1")))
	block0 := <-committed
	require.NoError(t, ledger.PutBlock(block0, false))

	require.NoError(t, c.Submit(env("tx2")))
	block1 := <-committed
	require.Equal(t, uint64(1), block1.Header.Number)
	require.Equal(t, ledgerstore.BlockHash(block0), block1.Header.PreviousHash)
}

func TestCutFlushesPartialBatch(t *testing.T) {
	c, _, committed := newTestConsensus(t, WithBlockSize(10))
	require.NoError(t, c.Submit(env("tx1")))
	require.NoError(t, c.Cut())

	select {
	case block := <-committed:
		require.Len(t, block.Transactions, 1)
	default:
		t.Fatal("expected Cut to flush the pending batch")
	}
	require.NoError(t, c.Cut(), "Cut on an empty queue must be a no-op")
}
