/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ordererapi exposes an orderer's submit/broadcast endpoints over
// an HTTP+JSON wire protocol, routed with gorilla/mux as peerapi
// routes the peer's endpoints.
package ordererapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/litefab/litefab/internal/apierror"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/ledgerstore"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/msp"
)

var logger = flogging.MustGetLogger("ordererapi")

// Consenter accepts a verified envelope into the block-cutting pipeline.
type Consenter interface {
	Submit(env model.TransactionEnvelope) error
}

// Server wires the orderer's two HTTP endpoints: submit (client envelopes
// enter consensus) and broadcast (a committed block is stored locally,
// used when this orderer is a non-leader replica or a standalone ledger
// mirror receiving another orderer's cut block).
type Server struct {
	msp      *msp.MSP
	consenter Consenter
	ledger   *ledgerstore.Store
	router   *mux.Router
}

// New builds an orderer HTTP server.
func New(m *msp.MSP, consenter Consenter, ledger *ledgerstore.Store) *Server {
	s := &Server{msp: m, consenter: consenter, ledger: ledger}
	r := mux.NewRouter()
	r.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/broadcast", s.handleBroadcast).Methods(http.MethodPost)
	s.router = r
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var env model.TransactionEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, apierror.BadRequestError{Reason: "malformed envelope body: " + err.Error()})
		return
	}

	clientRole := model.RoleClient
	verify := s.msp.VerifySignature(env.SigningBytes(), env.ClientSignature, env.CreatorID, &clientRole)
	if !verify.Valid {
		logger.Warnw("rejecting submit", "txId", env.TxID, "creatorId", env.CreatorID)
		writeError(w, apierror.SignatureInvalidError{Reason: "client signature invalid or creator is not a CLIENT identity"})
		return
	}

	if err := s.consenter.Submit(env); err != nil {
		writeError(w, apierror.StorageError{Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var block model.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		writeError(w, apierror.BadRequestError{Reason: "malformed block body: " + err.Error()})
		return
	}
	if err := s.ledger.PutBlock(block, true); err != nil {
		writeError(w, apierror.StorageError{Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apierror.HTTPStatusOf(err), map[string]string{"error": err.Error()})
}
