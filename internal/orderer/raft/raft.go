/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package raft specifies, at interface level only, the Raft consensus
// state machine: Follower/Candidate/Leader roles, a
// randomized election timeout, and a Leader-only heartbeat and submit
// gate. This is deliberately a skeleton — no log
// replication, no RequestVote/AppendEntries RPCs, no persistence — unlike
// fabric's orderer/consensus/etcdraft, which wraps etcd's production
// raft library. Reproducing that library's simulated multi-node voting
// without real networked RPCs would be worse than not having it: this
// type exists so a future networked Raft implementation has a seam to
// grow into, not to behave correctly as multi-node consensus today.
package raft

import (
	"math/rand"
	"sync"
	"time"

	"github.com/litefab/litefab/internal/flogging"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("orderer.consensus.raft")

// Role is a node's position in the Raft state machine.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	default:
		return "Unknown"
	}
}

const (
	electionTimeoutMin = 150 * time.Millisecond
	electionTimeoutMax = 300 * time.Millisecond
	heartbeatInterval  = 50 * time.Millisecond
)

// ErrNotLeader is returned by Submit when the node is not currently
// Leader; callers (the orderer HTTP layer) use it to reject or redirect
// a submit.
var ErrNotLeader = errors.New("raft: not leader")

// Node is an interface-level Raft participant. Role transitions happen
// only through explicit BecomeCandidate/BecomeLeader/BecomeFollower calls;
// the Node runs no election timer of its own (ElectionTimeout only draws a
// duration), and there is no vote collection or term negotiation, so a
// Node never actually contends for leadership against peers.
type Node struct {
	mu   sync.Mutex
	role Role
	term uint64
	rng  *rand.Rand
}

// NewNode returns a Node starting as Follower.
func NewNode(seed int64) *Node {
	return &Node{role: Follower, rng: rand.New(rand.NewSource(seed))}
}

// Role returns the node's current role.
func (n *Node) Role() Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

// Term returns the node's current term.
func (n *Node) Term() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.term
}

// ElectionTimeout draws a randomized timeout in [150ms, 300ms), the
// window a Follower or Candidate waits for a heartbeat before standing
// for election.
func (n *Node) ElectionTimeout() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	span := electionTimeoutMax - electionTimeoutMin
	return electionTimeoutMin + time.Duration(n.rng.Int63n(int64(span)))
}

// HeartbeatInterval is the fixed interval a Leader emits heartbeats at.
func (n *Node) HeartbeatInterval() time.Duration { return heartbeatInterval }

// BecomeCandidate transitions Follower -> Candidate on election-timeout
// expiry. It is a no-op if the node is already Leader.
func (n *Node) BecomeCandidate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.role == Leader {
		return
	}
	n.term++
	n.role = Candidate
	logger.Debugf("became Candidate for term %d", n.term)
}

// BecomeLeader transitions Candidate -> Leader. Since no votes are ever
// collected, this is exposed only for tests and single-node bring-up; a
// real multi-node implementation would call it only after a quorum of
// votes, which this skeleton does not implement.
func (n *Node) BecomeLeader() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.role = Leader
	logger.Debugf("became Leader for term %d", n.term)
}

// BecomeFollower transitions to Follower, as on observing a higher-term
// heartbeat.
func (n *Node) BecomeFollower() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.role = Follower
}

// Submit gates transaction acceptance on leadership: only a Leader may
// accept a submit. Log replication of the accepted entry to
// followers is not implemented.
func (n *Node) Submit() error {
	if n.Role() != Leader {
		return ErrNotLeader
	}
	return nil
}
