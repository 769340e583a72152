/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peerapi exposes a peer's endorser, committer, and world state
// over an HTTP+JSON wire protocol, routed with gorilla/mux the way
// fabric's operations server (internal/operations) routes its own HTTP
// endpoints, trimmed to litefab's four routes.
package peerapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/litefab/litefab/internal/apierror"
	"github.com/litefab/litefab/internal/committer"
	"github.com/litefab/litefab/internal/endorser"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/worldstate"
)

var logger = flogging.MustGetLogger("peerapi")

// OrdererForwarder submits an envelope to an orderer. The start-peer
// implementation tries the configured addresses in order, moving to the
// next on failure.
type OrdererForwarder interface {
	Submit(env model.TransactionEnvelope) error
}

// Server wires the four peer HTTP endpoints to their backing components.
type Server struct {
	endorser  *endorser.Endorser
	committer *committer.Committer
	state     *worldstate.Store
	channel   string
	forwarder OrdererForwarder
	router    *mux.Router
}

// New builds a peer HTTP server. forwarder may be nil if this peer does
// not forward submits (e.g. a test double that only exercises
// proposal/query/block).
func New(e *endorser.Endorser, c *committer.Committer, state *worldstate.Store, channel string, forwarder OrdererForwarder) *Server {
	s := &Server{endorser: e, committer: c, state: state, channel: channel, forwarder: forwarder}
	r := mux.NewRouter()
	r.HandleFunc("/proposal", s.handleProposal).Methods(http.MethodPost)
	r.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodGet)
	r.HandleFunc("/block", s.handleBlock).Methods(http.MethodPost)
	s.router = r
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	var proposal model.Proposal
	if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
		writeError(w, apierror.BadRequestError{Reason: "malformed proposal body: " + err.Error()})
		return
	}

	resp, err := s.endorser.Endorse(proposal)
	if err != nil {
		logger.Warnw("proposal rejected", "txId", proposal.TxID, "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSubmit forwards a client's envelope to a configured orderer
// instead of silently dropping it, so a client can submit through this
// peer rather than contacting an orderer directly.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var env model.TransactionEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, apierror.BadRequestError{Reason: "malformed envelope body: " + err.Error()})
		return
	}
	if s.forwarder == nil {
		writeError(w, apierror.StorageError{Reason: "peer has no configured orderer forwarder"})
		return
	}
	if err := s.forwarder.Submit(env); err != nil {
		logger.Warnw("submit forwarding failed", "txId", env.TxID, "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, apierror.BadRequestError{Reason: "missing required query parameter \"key\""})
		return
	}
	value, err := s.state.Get(s.channel, key)
	if err != nil {
		writeError(w, apierror.StorageError{Reason: err.Error()})
		return
	}
	var out interface{}
	if value != nil {
		out = string(value)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"value": out})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var block model.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		writeError(w, apierror.BadRequestError{Reason: "malformed block body: " + err.Error()})
		return
	}
	if err := s.committer.CommitBlock(block); err != nil {
		logger.Errorw("block commit failed", "blockNum", block.Header.Number, "error", err.Error())
		writeError(w, apierror.StorageError{Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "committed"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apierror.HTTPStatusOf(err), map[string]string{"error": err.Error()})
}
