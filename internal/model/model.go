/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package model defines the wire and domain entities:
// identities, transaction payloads, read-write sets, envelopes, and blocks.
// Every signed field is transmitted in the canonical encoding of package
// canonical; JSON struct tags here control both the wire format and the
// field set canonical.MarshalStruct walks.
package model

import "github.com/litefab/litefab/internal/version"

// Role is one of the four identity roles enforced by the MSP.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleClient  Role = "CLIENT"
	RolePeer    Role = "PEER"
	RoleOrderer Role = "ORDERER"
)

// Identity is an MSP-managed principal: a unique id, its owning
// organization, its role, and its public key in PEM form.
type Identity struct {
	ID        string `json:"id"`
	OrgID     string `json:"orgId"`
	Role      Role   `json:"role"`
	PublicKey string `json:"publicKey"`
}

// TxType distinguishes chaincode lifecycle operations from invocations.
type TxType string

const (
	TxDeploy TxType = "DEPLOY"
	TxInvoke TxType = "INVOKE"
)

// PolicyType is the boolean predicate kind an EndorsementPolicy evaluates.
type PolicyType string

const (
	PolicyAny      PolicyType = "ANY"
	PolicyAll      PolicyType = "ALL"
	PolicyMajority PolicyType = "MAJORITY"
)

// EndorsementPolicy requires endorsements from a set of orgs, combined by
// Type (ANY/ALL/MAJORITY).
type EndorsementPolicy struct {
	Type PolicyType `json:"type"`
	Orgs []string   `json:"orgs"`
}

// TxPayload is the application-level request carried inside a proposal and
// an envelope. DEPLOY carries a Policy; INVOKE carries a FunctionName.
type TxPayload struct {
	Type              TxType             `json:"type"`
	ChaincodeID       string             `json:"chaincodeId"`
	FunctionName      string             `json:"functionName,omitempty"`
	Args              []string           `json:"args,omitempty"`
	EndorsementPolicy *EndorsementPolicy `json:"endorsementPolicy,omitempty"`
	// Version is the chaincode version a DEPLOY installs, a semver string.
	// A redeploy of an already-deployed chaincode must strictly increase it.
	Version string `json:"version,omitempty"`
}

// Proposal is what a client sends to an endorser.
type Proposal struct {
	TxID          string    `json:"txId"`
	CreatorID     string    `json:"creatorId"`
	CreatorOrgID  string    `json:"creatorOrgId"`
	CreatorPubKey string    `json:"creatorPubKey"`
	Payload       TxPayload `json:"payload"`
	Signature     string    `json:"signature"`
}

// SigningBytes returns the canonical bytes the proposal's Signature must
// cover: every field except the signature itself.
func (p Proposal) SigningBytes() []byte {
	return canonicalStructFields(struct {
		TxID          string    `json:"txId"`
		CreatorID     string    `json:"creatorId"`
		CreatorOrgID  string    `json:"creatorOrgId"`
		CreatorPubKey string    `json:"creatorPubKey"`
		Payload       TxPayload `json:"payload"`
	}{p.TxID, p.CreatorID, p.CreatorOrgID, p.CreatorPubKey, p.Payload})
}

// ReadEntry records a key observed during simulation together with the
// world-state version seen at read time; Version is nil when the key had
// no prior write.
type ReadEntry struct {
	Key     string          `json:"key"`
	Version *version.Height `json:"version"`
}

// WriteEntry records a key written during simulation. A nil Value denotes
// a delete.
type WriteEntry struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// RWSet is the ordered read-set and write-set produced by simulating a
// transaction.
type RWSet struct {
	Reads  []ReadEntry  `json:"reads"`
	Writes []WriteEntry `json:"writes"`
}

// EndorsementPayload is the canonicalized, signed subset shared by an
// endorsement and by the committer's endorsement-signature check.
type EndorsementPayload struct {
	Proposal ProposalRef `json:"proposal"`
	RWSet    RWSet       `json:"rwSet"`
	Result   string      `json:"result"`
}

// ProposalRef is the (txId, payload) pair that an endorsement and a
// commit-time signature both bind to, without pulling in the proposal's
// own signature.
type ProposalRef struct {
	TxID    string    `json:"txId"`
	Payload TxPayload `json:"payload"`
}

// Endorsement is a peer's signed attestation over an EndorsementPayload.
type Endorsement struct {
	EndorserID    string `json:"endorserId"`
	EndorserOrgID string `json:"endorserOrgId"`
	Signature     string `json:"signature"`
}

// ProposalResponse is returned by an endorser's /proposal handler.
type ProposalResponse struct {
	Proposal    Proposal    `json:"proposal"`
	RWSet       RWSet       `json:"rwSet"`
	Result      string      `json:"result"`
	Endorsement Endorsement `json:"endorsement"`
}

// TransactionEnvelope is the fully endorsed transaction a client submits
// to an orderer.
type TransactionEnvelope struct {
	TxID            string        `json:"txId"`
	CreatorID       string        `json:"creatorId"`
	CreatorOrgID    string        `json:"creatorOrgId"`
	CreatorPubKey   string        `json:"creatorPubKey"`
	Payload         TxPayload     `json:"payload"`
	RWSet           RWSet         `json:"rwSet"`
	Result          string        `json:"result"`
	Endorsements    []Endorsement `json:"endorsements"`
	ClientSignature string        `json:"clientSignature"`
}

// SigningBytes returns the canonical bytes the client's signature covers:
// every envelope field except the signature itself.
func (e TransactionEnvelope) SigningBytes() []byte {
	return canonicalStructFields(struct {
		TxID          string        `json:"txId"`
		CreatorID     string        `json:"creatorId"`
		CreatorOrgID  string        `json:"creatorOrgId"`
		CreatorPubKey string        `json:"creatorPubKey"`
		Payload       TxPayload     `json:"payload"`
		RWSet         RWSet         `json:"rwSet"`
		Result        string        `json:"result"`
		Endorsements  []Endorsement `json:"endorsements"`
	}{e.TxID, e.CreatorID, e.CreatorOrgID, e.CreatorPubKey, e.Payload, e.RWSet, e.Result, e.Endorsements})
}

// EndorsementSigningBytes returns the canonical bytes an endorsement's
// signature covers, derived from the envelope.
func (e TransactionEnvelope) EndorsementSigningBytes() []byte {
	return canonicalStructFields(EndorsementPayload{
		Proposal: ProposalRef{TxID: e.TxID, Payload: e.Payload},
		RWSet:    e.RWSet,
		Result:   e.Result,
	})
}

// BlockHeader identifies a block's position and links it to its
// predecessor.
type BlockHeader struct {
	Number       uint64 `json:"number"`
	PreviousHash string `json:"previousHash"`
	DataHash     string `json:"dataHash"`
}

// ValidationCode classifies the outcome of committing one transaction.
type ValidationCode string

const (
	ValidationValid                    ValidationCode = "VALID"
	ValidationEndorsementPolicyFailure ValidationCode = "ENDORSEMENT_POLICY_FAILURE"
	ValidationMVCCReadConflict         ValidationCode = "MVCC_READ_CONFLICT"
	ValidationBadPayload               ValidationCode = "BAD_PAYLOAD"
	ValidationMSPValidationFailed      ValidationCode = "MSP_VALIDATION_FAILED"
)

// ValidationInfo records the outcome of validating one transaction in a
// block, populated by the committer.
type ValidationInfo struct {
	TxID    string         `json:"txId"`
	Code    ValidationCode `json:"code"`
	Message string         `json:"message,omitempty"`
}

// BlockMetadata carries information produced by the orderer at cut time
// and augmented by the committer at commit time.
type BlockMetadata struct {
	Timestamp        string           `json:"timestamp"`
	OrdererID        string           `json:"ordererId"`
	OrdererSignature string           `json:"ordererSignature"`
	ValidationInfo   []ValidationInfo `json:"validationInfo,omitempty"`
}

// SignedSubset returns the timestamp/ordererId portion of metadata, the
// only part of metadata the orderer's signature covers (Block.SignedSubset
// adds the header and transactions and canonicalizes the result).
// validationInfo and the signature itself are excluded, since
// the committer fills validationInfo in after the orderer has already
// signed.
func (b BlockMetadata) SignedSubset() struct {
	Timestamp string `json:"timestamp"`
	OrdererID string `json:"ordererId"`
} {
	return struct {
		Timestamp string `json:"timestamp"`
		OrdererID string `json:"ordererId"`
	}{b.Timestamp, b.OrdererID}
}

// Block is a batch of transactions with a header linking it to its
// predecessor and metadata describing its provenance and per-transaction
// outcomes.
type Block struct {
	Header       BlockHeader            `json:"header"`
	Transactions []TransactionEnvelope  `json:"transactions"`
	Metadata     BlockMetadata          `json:"metadata"`
}

// SignedSubset returns the canonical bytes an orderer signs when cutting a
// block.
func (b Block) SignedSubset() []byte {
	return canonicalStructFields(struct {
		Header       BlockHeader           `json:"header"`
		Transactions []TransactionEnvelope `json:"transactions"`
		Metadata     struct {
			Timestamp string `json:"timestamp"`
			OrdererID string `json:"ordererId"`
		} `json:"metadata"`
	}{b.Header, b.Transactions, b.Metadata.SignedSubset()})
}

// ChaincodeMetadata is the deployed-chaincode record stored in world state
// under the "$chaincode:<id>" key family (package chainmeta). The endorser
// checks that it exists for INVOKE; the committer reads its endorsement
// policy for INVOKE and its version for a redeploy.
type ChaincodeMetadata struct {
	ChaincodeID       string            `json:"chaincodeId"`
	Version           string            `json:"version"`
	EndorsementPolicy EndorsementPolicy `json:"endorsementPolicy"`
}
