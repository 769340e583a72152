/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package broadcaster

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/litefab/litefab/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBroadcastDeliversToAllPeers(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := New([]string{srv.URL, srv.URL}, time.Second)
	b.Broadcast(model.Block{Header: model.BlockHeader{Number: 1}})

	require.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestBroadcastToleratesUnreachablePeer(t *testing.T) {
	b := New([]string{"http://127.0.0.1:1"}, 100 * time.Millisecond)
	require.NotPanics(t, func() {
		b.Broadcast(model.Block{Header: model.BlockHeader{Number: 1}})
	})
}

func TestBroadcastToleratesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := New([]string{srv.URL}, time.Second)
	require.NotPanics(t, func() {
		b.Broadcast(model.Block{Header: model.BlockHeader{Number: 1}})
	})
}
