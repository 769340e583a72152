/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package broadcaster fans a committed block out to every configured peer
// address concurrently, best-effort. It plays the role fabric's
// orderer/common/broadcast and deliver services play together in the
// gRPC original, collapsed to an HTTP POST per peer since litefab's
// transport is HTTP+JSON, with failures logged rather than
// propagated — consensus does not wait on peer catch-up.
package broadcaster

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/model"
)

var logger = flogging.MustGetLogger("broadcaster")

// Broadcaster sends blocks to a fixed set of peer addresses.
type Broadcaster struct {
	peerAddrs []string
	client    *http.Client
}

// New returns a Broadcaster posting to peerAddrs (each a base URL like
// "http://localhost:7051"), with each request bounded by timeout.
func New(peerAddrs []string, timeout time.Duration) *Broadcaster {
	return &Broadcaster{
		peerAddrs: peerAddrs,
		client:    &http.Client{Timeout: timeout},
	}
}

// Broadcast posts block to every configured peer concurrently and waits
// for all attempts to finish. A peer that errors or times out is logged
// and otherwise ignored: Broadcast returns nothing, so a failing peer never
// fails the caller, and a slow or unreachable peer delays the return by at
// most the per-request timeout.
func (b *Broadcaster) Broadcast(block model.Block) {
	body, err := json.Marshal(block)
	if err != nil {
		logger.Errorf("broadcaster: failed marshaling block %d: %s", block.Header.Number, err)
		return
	}

	var wg sync.WaitGroup
	for _, addr := range b.peerAddrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			b.send(addr, block.Header.Number, body)
		}(addr)
	}
	wg.Wait()
}

func (b *Broadcaster) send(addr string, blockNum uint64, body []byte) {
	resp, err := b.client.Post(addr+"/block", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Warnw("broadcast failed", "peer", addr, "blockNum", blockNum, "error", err.Error())
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Warnw("broadcast rejected", "peer", addr, "blockNum", blockNum, "status", resp.StatusCode)
		return
	}
	logger.Debugw("broadcast delivered", "peer", addr, "blockNum", blockNum)
}
