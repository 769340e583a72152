/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package worldstate

import (
	"testing"

	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/version"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApplyStampsVersionOnPutAndDelete(t *testing.T) {
	s := openTestStore(t)

	err := s.Apply("ch", []model.WriteEntry{{Key: "alice", Value: strp("100")}}, 1, 0)
	require.NoError(t, err)

	v, err := s.Get("ch", "alice")
	require.NoError(t, err)
	require.Equal(t, "100", string(v))

	ver, err := s.GetVersion("ch", "alice")
	require.NoError(t, err)
	require.Equal(t, version.NewHeight(1, 0), ver)

	// delete must still stamp a version
	err = s.Apply("ch", []model.WriteEntry{{Key: "alice", Value: nil}}, 2, 0)
	require.NoError(t, err)

	v, err = s.Get("ch", "alice")
	require.NoError(t, err)
	require.Nil(t, v)

	ver, err = s.GetVersion("ch", "alice")
	require.NoError(t, err)
	require.Equal(t, version.NewHeight(2, 0), ver)
}

func TestValidateReadSetStrictEquality(t *testing.T) {
	s := openTestStore(t)

	ok, _, err := s.ValidateReadSet("ch", []model.ReadEntry{{Key: "never-written", Version: nil}})
	require.NoError(t, err)
	require.True(t, ok, "unwritten key with nil recorded version must validate")

	require.NoError(t, s.Apply("ch", []model.WriteEntry{{Key: "k", Value: strp("v1")}}, 1, 0))

	ok, _, err = s.ValidateReadSet("ch", []model.ReadEntry{{Key: "k", Version: version.NewHeight(1, 0)}})
	require.NoError(t, err)
	require.True(t, ok)

	ok, badKey, err := s.ValidateReadSet("ch", []model.ReadEntry{{Key: "k", Version: nil}})
	require.NoError(t, err)
	require.False(t, ok, "recorded absence but key now exists must fail")
	require.Equal(t, "k", badKey)

	require.NoError(t, s.Apply("ch", []model.WriteEntry{{Key: "k", Value: strp("v2")}}, 2, 0))
	ok, _, err = s.ValidateReadSet("ch", []model.ReadEntry{{Key: "k", Version: version.NewHeight(1, 0)}})
	require.NoError(t, err)
	require.False(t, ok, "stale version must fail")
}

func TestApplyIsOrderedWithinOneCall(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Apply("ch", []model.WriteEntry{
		{Key: "k", Value: strp("first")},
		{Key: "k", Value: strp("second")},
	}, 1, 0))

	v, err := s.Get("ch", "k")
	require.NoError(t, err)
	require.Equal(t, "second", string(v))
}

func TestKeysByPrefixIsOrdered(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Apply("ch", []model.WriteEntry{
		{Key: "balance:bob", Value: strp("1")},
		{Key: "balance:alice", Value: strp("2")},
		{Key: "chaincode:basic", Value: strp("3")},
	}, 1, 0))

	keys, err := s.KeysByPrefix("ch", "balance:")
	require.NoError(t, err)
	require.Equal(t, []string{"balance:alice", "balance:bob"}, keys)
}

func TestChannelsAreIsolated(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Apply("ch1", []model.WriteEntry{{Key: "k", Value: strp("a")}}, 1, 0))
	require.NoError(t, s.Apply("ch2", []model.WriteEntry{{Key: "k", Value: strp("b")}}, 1, 0))

	v1, err := s.Get("ch1", "k")
	require.NoError(t, err)
	v2, err := s.Get("ch2", "k")
	require.NoError(t, err)
	require.Equal(t, "a", string(v1))
	require.Equal(t, "b", string(v2))
}
