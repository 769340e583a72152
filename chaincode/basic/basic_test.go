/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package basic

import (
	"testing"

	"github.com/litefab/litefab/internal/rwset"
	"github.com/litefab/litefab/internal/version"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	state map[string][]byte
	vers  map[string]*version.Height
}

func newFakeSnapshot() *fakeSnapshot {
	return &fakeSnapshot{state: map[string][]byte{}, vers: map[string]*version.Height{}}
}

func (f *fakeSnapshot) Get(key string) ([]byte, error)                  { return f.state[key], nil }
func (f *fakeSnapshot) GetVersion(key string) (*version.Height, error)   { return f.vers[key], nil }
func (f *fakeSnapshot) apply(key string, value []byte, h *version.Height) {
	f.state[key] = value
	f.vers[key] = h
}

func TestInitStartsSupplyAtZero(t *testing.T) {
	snap := newFakeSnapshot()
	ctx := rwset.New(snap)

	_, err := Chaincode{}.Init(ctx, nil)
	require.NoError(t, err)

	rws := ctx.RWSet()
	require.Len(t, rws.Writes, 1)
	require.Equal(t, totalSupplyKey, rws.Writes[0].Key)
	require.Equal(t, "0", *rws.Writes[0].Value)
}

func TestMintCreditsAccountAndSupply(t *testing.T) {
	snap := newFakeSnapshot()
	ctx := rwset.New(snap)

	result, err := Chaincode{}.Invoke(ctx, "mint", []string{"500", "Alice"})
	require.NoError(t, err)
	require.Equal(t, "500", result)

	rws := ctx.RWSet()
	byKey := map[string]string{}
	for _, w := range rws.Writes {
		byKey[w.Key] = *w.Value
	}
	require.Equal(t, "500", byKey[balanceKey("Alice")])
	require.Equal(t, "500", byKey[totalSupplyKey])
}

func TestTransferMovesBalance(t *testing.T) {
	snap := newFakeSnapshot()
	snap.apply(balanceKey("Alice"), []byte("500"), version.NewHeight(1, 0))

	ctx := rwset.New(snap)
	result, err := Chaincode{}.Invoke(ctx, "transfer", []string{"200", "Alice", "Bob"})
	require.NoError(t, err)
	require.Equal(t, "300", result)

	byKey := map[string]string{}
	for _, w := range ctx.RWSet().Writes {
		byKey[w.Key] = *w.Value
	}
	require.Equal(t, "300", byKey[balanceKey("Alice")])
	require.Equal(t, "200", byKey[balanceKey("Bob")])
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	snap := newFakeSnapshot()
	snap.apply(balanceKey("Alice"), []byte("100"), version.NewHeight(1, 0))

	ctx := rwset.New(snap)
	_, err := Chaincode{}.Invoke(ctx, "transfer", []string{"200", "Alice", "Bob"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient balance")
}

func TestBalanceOfUnknownAccountIsZero(t *testing.T) {
	snap := newFakeSnapshot()
	ctx := rwset.New(snap)

	result, err := Chaincode{}.Invoke(ctx, "balance", []string{"Nobody"})
	require.NoError(t, err)
	require.Equal(t, "0", result)
}

func TestMintRejectsNonPositiveAmount(t *testing.T) {
	snap := newFakeSnapshot()
	ctx := rwset.New(snap)

	_, err := Chaincode{}.Invoke(ctx, "mint", []string{"0", "Alice"})
	require.Error(t, err)
}

func TestInvokeUnknownFunctionErrors(t *testing.T) {
	snap := newFakeSnapshot()
	ctx := rwset.New(snap)

	_, err := Chaincode{}.Invoke(ctx, "burn", []string{"1", "Alice"})
	require.Error(t, err)
}
