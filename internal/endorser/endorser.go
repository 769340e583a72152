/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package endorser implements the peer-side proposal simulation:
// verify the proposer's signature, simulate the transaction against world
// state via the chaincode host, and sign the resulting read-write set as
// this peer's endorsement. It plays the role of fabric's
// core/endorser.Endorser, trimmed to a single-channel, single-simulation
// flow (no parallel validation plugins, no private-data collections).
package endorser

import (
	"crypto/rsa"

	"github.com/litefab/litefab/internal/apierror"
	"github.com/litefab/litefab/internal/chaincode"
	"github.com/litefab/litefab/internal/chainmeta"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/msp"
	"github.com/litefab/litefab/internal/version"
	"github.com/litefab/litefab/internal/worldstate"
)

var logger = flogging.MustGetLogger("endorser")

// Endorser simulates client proposals and signs the resulting read-write
// sets with the peer's own identity.
type Endorser struct {
	identityID string
	orgID      string
	privateKey *rsa.PrivateKey
	msp        *msp.MSP
	host       *chaincode.Host
	state      *worldstate.Store
	channel    string
}

// New returns an Endorser identified as identityID/orgID, signing with
// privateKey, authorizing proposers via m, executing chaincode via host,
// and simulating against channel's world state.
func New(identityID, orgID string, privateKey *rsa.PrivateKey, m *msp.MSP, host *chaincode.Host, state *worldstate.Store, channel string) *Endorser {
	return &Endorser{
		identityID: identityID,
		orgID:      orgID,
		privateKey: privateKey,
		msp:        m,
		host:       host,
		state:      state,
		channel:    channel,
	}
}

// Endorse runs the five-step simulation against proposal and returns the signed
// ProposalResponse, or an error matching the caller-facing status code the
// step that failed calls for (see internal/apierror).
func (e *Endorser) Endorse(proposal model.Proposal) (*model.ProposalResponse, error) {
	clientRole := model.RoleClient
	verify := e.msp.VerifySignature(proposal.SigningBytes(), proposal.Signature, proposal.CreatorID, &clientRole)
	if !verify.Valid {
		logger.Warnw("rejecting proposal: signature invalid", "txId", proposal.TxID, "creatorId", proposal.CreatorID)
		return nil, apierror.SignatureInvalidError{Reason: "proposal signature invalid or creator is not a CLIENT identity"}
	}

	if proposal.Payload.Type == model.TxInvoke {
		meta, err := chainmeta.Get(e.state, e.channel, proposal.Payload.ChaincodeID)
		if err != nil {
			return nil, apierror.StorageError{Reason: err.Error()}
		}
		if meta == nil {
			return nil, apierror.NotFoundError{Reason: "chaincode " + proposal.Payload.ChaincodeID + " is not deployed"}
		}
	}

	snapshot := chaincode.NewSnapshot(
		func(key string) ([]byte, error) { return e.state.Get(e.channel, key) },
		func(key string) (*version.Height, error) { return e.state.GetVersion(e.channel, key) },
	)

	result, err := e.host.ExecuteTransaction(snapshot, proposal.Payload)
	if err != nil {
		return nil, apierror.ChaincodeExecutionError{Reason: err.Error()}
	}

	envelopeStub := model.TransactionEnvelope{
		TxID:    proposal.TxID,
		Payload: proposal.Payload,
		RWSet:   result.RWSet,
		Result:  result.Result,
	}
	sig, err := idcrypto.Sign(e.privateKey, envelopeStub.EndorsementSigningBytes())
	if err != nil {
		return nil, err
	}

	logger.Debugw("endorsed proposal", "txId", proposal.TxID, "chaincodeId", proposal.Payload.ChaincodeID)
	return &model.ProposalResponse{
		Proposal: proposal,
		RWSet:    result.RWSet,
		Result:   result.Result,
		Endorsement: model.Endorsement{
			EndorserID:    e.identityID,
			EndorserOrgID: e.orgID,
			Signature:     sig,
		},
	}, nil
}
