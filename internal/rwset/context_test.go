/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rwset

import (
	"testing"

	"github.com/litefab/litefab/internal/version"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	values   map[string][]byte
	versions map[string]*version.Height
}

func newFakeSnapshot() *fakeSnapshot {
	return &fakeSnapshot{values: map[string][]byte{}, versions: map[string]*version.Height{}}
}

func (f *fakeSnapshot) Get(key string) ([]byte, error) { return f.values[key], nil }
func (f *fakeSnapshot) GetVersion(key string) (*version.Height, error) {
	return f.versions[key], nil
}

func (f *fakeSnapshot) seed(key, value string, h *version.Height) {
	f.values[key] = []byte(value)
	f.versions[key] = h
}

func TestGetStateRecordsReadOnFirstAccessOnly(t *testing.T) {
	snap := newFakeSnapshot()
	snap.seed("alice", "100", version.NewHeight(1, 0))

	ctx := New(snap)
	v1, err := ctx.GetState("alice")
	require.NoError(t, err)
	require.Equal(t, "100", string(v1))

	v2, err := ctx.GetState("alice")
	require.NoError(t, err)
	require.Equal(t, "100", string(v2))

	rw := ctx.RWSet()
	require.Len(t, rw.Reads, 1, "second read of the same key must not add another read entry")
	require.Equal(t, "alice", rw.Reads[0].Key)
	require.Equal(t, version.NewHeight(1, 0), rw.Reads[0].Version)
}

func TestReadYourOwnWrites(t *testing.T) {
	snap := newFakeSnapshot()
	snap.seed("alice", "100", version.NewHeight(1, 0))

	ctx := New(snap)
	_, err := ctx.GetState("alice")
	require.NoError(t, err)

	ctx.PutState("alice", []byte("50"))

	v, err := ctx.GetState("alice")
	require.NoError(t, err)
	require.Equal(t, "50", string(v), "getState after putState must return the pending write")

	rw := ctx.RWSet()
	require.Len(t, rw.Reads, 1, "read-your-own-writes must not add a second read entry")
	require.Equal(t, version.NewHeight(1, 0), rw.Reads[0].Version,
		"the recorded read version must be the original world-state version, unaffected by the pending write")
	require.Len(t, rw.Writes, 1)
	require.Equal(t, "50", *rw.Writes[0].Value)
}

func TestDelStateThenGetStateReturnsNil(t *testing.T) {
	snap := newFakeSnapshot()
	snap.seed("alice", "100", version.NewHeight(1, 0))

	ctx := New(snap)
	ctx.DelState("alice")

	v, err := ctx.GetState("alice")
	require.NoError(t, err)
	require.Nil(t, v)

	rw := ctx.RWSet()
	require.Len(t, rw.Writes, 1)
	require.Nil(t, rw.Writes[0].Value)
}

func TestRepeatedWritesToSameKeyCollapseToLastValue(t *testing.T) {
	ctx := New(newFakeSnapshot())
	ctx.PutState("k", []byte("first"))
	ctx.PutState("k", []byte("second"))

	rw := ctx.RWSet()
	require.Len(t, rw.Writes, 1)
	require.Equal(t, "second", *rw.Writes[0].Value)
}

func TestReadOfNeverWrittenKeyRecordsNilVersion(t *testing.T) {
	ctx := New(newFakeSnapshot())
	v, err := ctx.GetState("ghost")
	require.NoError(t, err)
	require.Nil(t, v)

	rw := ctx.RWSet()
	require.Len(t, rw.Reads, 1)
	require.Nil(t, rw.Reads[0].Version)
}
