/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package solo implements the single-node Solo consensus: a
// pending-transaction queue cut into blocks by a size threshold or a
// timeout, whichever comes first. It is grounded on fabric's
// orderer/consensus/solo main loop (sendChan/exitChan/timer select) and,
// for the timer itself, on the etcdraft chain's use of
// code.cloudfoundry.org/clock in place of the raw time package, which
// lets tests drive the timeout deterministically with a fake clock.
package solo

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/ledgerstore"
	"github.com/litefab/litefab/internal/metrics"
	"github.com/litefab/litefab/internal/model"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("orderer.consensus.solo")

const (
	// DefaultBlockSize is the pending-transaction count that triggers an
	// immediate cut.
	DefaultBlockSize = 10
	// DefaultBlockTimeout is how long a non-empty, below-threshold queue
	// waits before it is cut anyway.
	DefaultBlockTimeout = 2000 * time.Millisecond
)

var blocksCutOpts = metrics.CounterOpts{
	Namespace: "orderer",
	Subsystem: "solo",
	Name:      "blocks_cut_total",
	Help:      "Number of blocks cut by the Solo consenter.",
}

// CommitSink receives a cut, signed block. Consensus does not persist it;
// the sink does (start-orderer's sink writes it to the ledger and then
// broadcasts it), and the next cut numbers and chains from the ledger.
type CommitSink func(block model.Block)

// Signer signs a block's signable subset with the orderer's identity.
type Signer func(signedSubset []byte) (signature string, err error)

// Consensus is a single-node, single-channel Solo consenter.
type Consensus struct {
	ledger        *ledgerstore.Store
	ordererID     string
	sign          Signer
	sink          CommitSink
	clock         clock.Clock
	blockSize     int
	blockTimeout  time.Duration
	blocksCut     metrics.Counter

	mu      sync.Mutex
	pending []model.TransactionEnvelope
	timer   clock.Timer
	timerC  <-chan time.Time
}

// Option configures a Consensus at construction time.
type Option func(*Consensus)

// WithBlockSize overrides DefaultBlockSize.
func WithBlockSize(n int) Option { return func(c *Consensus) { c.blockSize = n } }

// WithBlockTimeout overrides DefaultBlockTimeout.
func WithBlockTimeout(d time.Duration) Option { return func(c *Consensus) { c.blockTimeout = d } }

// WithClock overrides the real clock, for deterministic tests.
func WithClock(cl clock.Clock) Option { return func(c *Consensus) { c.clock = cl } }

// WithMetrics reports cut-block counts through provider instead of the
// default no-op.
func WithMetrics(provider metrics.Provider) Option {
	return func(c *Consensus) { c.blocksCut = provider.NewCounter(blocksCutOpts) }
}

// New returns a Solo consenter that reads the latest block number and hash
// from ledger, signs cut blocks as ordererID via sign, and hands each cut
// block to sink.
func New(ledger *ledgerstore.Store, ordererID string, sign Signer, sink CommitSink, opts ...Option) *Consensus {
	c := &Consensus{
		ledger:       ledger,
		ordererID:    ordererID,
		sign:         sign,
		sink:         sink,
		clock:        clock.NewClock(),
		blockSize:    DefaultBlockSize,
		blockTimeout: DefaultBlockTimeout,
		blocksCut:    (&metrics.DisabledProvider{}).NewCounter(blocksCutOpts),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit appends env to the pending queue. If the queue reaches
// blockSize it is cut immediately; otherwise, if no timer is armed, one
// is armed for blockTimeout.
func (c *Consensus) Submit(env model.TransactionEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, env)
	logger.Debugw("accepted transaction", "txId", env.TxID, "pending", len(c.pending))

	if len(c.pending) >= c.blockSize {
		c.stopTimerLocked()
		return c.cutLocked()
	}
	if c.timer == nil {
		c.armTimerLocked()
	}
	return nil
}

func (c *Consensus) armTimerLocked() {
	c.timer = c.clock.NewTimer(c.blockTimeout)
	c.timerC = c.timer.C()
	logger.Debugf("armed block-cut timer for %s", c.blockTimeout)
}

func (c *Consensus) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.timerC = nil
	}
}

// Cut forces an immediate cut of whatever is pending, canceling any armed
// timer. It is a no-op if the queue is empty. Used by graceful shutdown
// to flush a partial batch instead of losing it.
func (c *Consensus) Cut() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	c.stopTimerLocked()
	return c.cutLocked()
}

// cutLocked drains pending, builds and signs the next block, chained to the
// latest block in the ledger, and hands it to the commit sink. Caller must
// hold mu.
func (c *Consensus) cutLocked() error {
	txs := c.pending
	c.pending = nil

	latest, err := c.ledger.GetLatestBlockNumber()
	if err != nil {
		return errors.Wrap(err, "solo: reading latest block number")
	}
	previousHash, err := c.ledger.GetLatestBlockHash()
	if err != nil {
		return errors.Wrap(err, "solo: reading latest block hash")
	}

	block := model.Block{
		Header: model.BlockHeader{
			Number:       uint64(latest + 1),
			PreviousHash: previousHash,
			DataHash:     ledgerstore.TransactionsDataHash(txs),
		},
		Transactions: txs,
		Metadata: model.BlockMetadata{
			Timestamp: c.clock.Now().UTC().Format(time.RFC3339),
			OrdererID: c.ordererID,
		},
	}

	sig, err := c.sign(block.SignedSubset())
	if err != nil {
		return errors.Wrap(err, "solo: signing block")
	}
	block.Metadata.OrdererSignature = sig

	logger.Infow("cut block", "number", block.Header.Number, "transactions", len(txs))
	c.blocksCut.Add(1)
	c.sink(block)
	return nil
}

// pollInterval bounds how long Run can go between checking whether a new
// timer has been armed by Submit; it does not affect cut latency, since a
// timer's own firing always wakes Run immediately via timerChan.
const pollInterval = 20 * time.Millisecond

func (c *Consensus) timerChan() <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timerC
}

// Run waits for the block-cut timer to fire and cuts on expiry, looping
// until stopCh is closed. Callers start it in its own goroutine at
// process startup; there is exactly one Run loop per Consensus.
func (c *Consensus) Run(stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		timerC := c.timerChan()
		if timerC == nil {
			select {
			case <-stopCh:
				return
			case <-c.clock.After(pollInterval):
			}
			continue
		}

		select {
		case <-stopCh:
			return
		case <-timerC:
			c.mu.Lock()
			c.timer = nil
			c.timerC = nil
			if len(c.pending) == 0 {
				logger.Warn("block-cut timer fired with no pending transactions")
				c.mu.Unlock()
				continue
			}
			err := c.cutLocked()
			c.mu.Unlock()
			if err != nil {
				logger.Errorf("block-cut timer fire failed: %s", err)
			}
		case <-c.clock.After(pollInterval):
			// re-read timerChan: a size-threshold cut may have stopped this
			// timer and a later Submit armed a new one
		}
	}
}

// PendingCount reports the current queue depth, for observability/tests.
func (c *Consensus) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
