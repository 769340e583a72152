/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package raft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartsAsFollower(t *testing.T) {
	n := NewNode(1)
	require.Equal(t, Follower, n.Role())
	require.Equal(t, uint64(0), n.Term())
}

func TestSubmitRejectedUnlessLeader(t *testing.T) {
	n := NewNode(1)
	require.ErrorIs(t, n.Submit(), ErrNotLeader)

	n.BecomeCandidate()
	require.ErrorIs(t, n.Submit(), ErrNotLeader)

	n.BecomeLeader()
	require.NoError(t, n.Submit())
}

func TestElectionTimeoutIsWithinBounds(t *testing.T) {
	n := NewNode(42)
	for i := 0; i < 100; i++ {
		d := n.ElectionTimeout()
		require.GreaterOrEqual(t, d, electionTimeoutMin)
		require.Less(t, d, electionTimeoutMax)
	}
}

func TestBecomeCandidateIncrementsTerm(t *testing.T) {
	n := NewNode(1)
	n.BecomeCandidate()
	require.Equal(t, uint64(1), n.Term())
	require.Equal(t, Candidate, n.Role())
}

func TestLeaderIgnoresBecomeCandidate(t *testing.T) {
	n := NewNode(1)
	n.BecomeCandidate()
	n.BecomeLeader()
	n.BecomeCandidate()
	require.Equal(t, Leader, n.Role(), "a Leader must not revert to Candidate on its own timer")
}

func TestRoleStringer(t *testing.T) {
	require.Equal(t, "Follower", Follower.String())
	require.Equal(t, "Candidate", Candidate.String())
	require.Equal(t, "Leader", Leader.String())
}
