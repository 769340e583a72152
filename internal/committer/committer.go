/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package committer implements the peer-side block validation pipeline:
// per-transaction signature checks, endorsement-policy evaluation,
// sequential MVCC read-set validation, and application to world state,
// followed by durable persistence of the block with its validation codes
// attached. It plays the role of fabric's core/committer/txvalidator and
// core/ledger/kvledger's commit path, collapsed into a single pipeline
// sized for this scope's single-channel, no-private-data world.
package committer

import (
	"time"

	semver "github.com/hashicorp/go-version"
	"github.com/litefab/litefab/internal/chainmeta"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/ledgerstore"
	"github.com/litefab/litefab/internal/metrics"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/msp"
	"github.com/litefab/litefab/internal/policy"
	"github.com/litefab/litefab/internal/worldstate"
)

const defaultChaincodeVersion = "1.0"

var logger = flogging.MustGetLogger("committer")

var (
	blocksCommittedOpts = metrics.CounterOpts{
		Namespace:  "committer",
		Name:       "blocks_committed_total",
		Help:       "Number of blocks committed.",
		LabelNames: []string{"channel"},
	}
	blockCommitTimeOpts = metrics.HistogramOpts{
		Namespace:  "committer",
		Name:       "block_commit_time",
		Help:       "Time taken in seconds to validate and commit a block.",
		LabelNames: []string{"channel"},
		Buckets:    []float64{0.005, 0.01, 0.015, 0.05, 0.1, 1, 10},
	}
)

// Committer validates and commits blocks to a channel's world state and
// ledger.
type Committer struct {
	msp     *msp.MSP
	state   *worldstate.Store
	ledger  *ledgerstore.Store
	channel string

	blocksCommitted metrics.Counter
	blockCommitTime metrics.Histogram
}

// New returns a Committer for channel, authorizing signers via m and
// mutating state and ledger. Block-commit counts and latency are
// reported through provider.
func New(m *msp.MSP, state *worldstate.Store, ledger *ledgerstore.Store, channel string, provider metrics.Provider) *Committer {
	return &Committer{
		msp:             m,
		state:           state,
		ledger:          ledger,
		channel:         channel,
		blocksCommitted: provider.NewCounter(blocksCommittedOpts),
		blockCommitTime: provider.NewHistogram(blockCommitTimeOpts),
	}
}

// CommitBlock runs the four-step validation pipeline over every transaction in
// block, in order, then persists the block with its recorded validation
// codes. It never aborts partway through a block: every transaction gets
// a ValidationInfo entry, valid or not.
func (c *Committer) CommitBlock(block model.Block) error {
	start := time.Now()
	infos := make([]model.ValidationInfo, 0, len(block.Transactions))

	for txNum, tx := range block.Transactions {
		code, message := c.validateAndApply(tx, block.Header.Number, uint64(txNum))
		infos = append(infos, model.ValidationInfo{TxID: tx.TxID, Code: code, Message: message})
		logger.Infow("validated transaction", "txId", tx.TxID, "blockNum", block.Header.Number, "txNum", txNum, "code", code)
	}

	block.Metadata.ValidationInfo = infos
	if err := c.ledger.PutBlock(block, true); err != nil {
		return err
	}
	c.blocksCommitted.With(c.channel).Add(1)
	c.blockCommitTime.With(c.channel).Observe(time.Since(start).Seconds())
	return nil
}

func (c *Committer) validateAndApply(tx model.TransactionEnvelope, blockNum, txNum uint64) (model.ValidationCode, string) {
	clientRole := model.RoleClient
	verify := c.msp.VerifySignature(tx.SigningBytes(), tx.ClientSignature, tx.CreatorID, &clientRole)
	if !verify.Valid {
		return model.ValidationMSPValidationFailed, "client signature invalid"
	}

	endorsementPolicy, code, message := c.resolvePolicy(tx)
	if code != "" {
		return code, message
	}

	if tx.Payload.Type == model.TxDeploy {
		if code, message := c.validateChaincodeVersion(tx); code != "" {
			return code, message
		}
	}

	endorsingOrgs, code, message := c.verifyEndorsements(tx)
	if code != "" {
		return code, message
	}
	if !policy.Evaluate(*endorsementPolicy, endorsingOrgs) {
		return model.ValidationEndorsementPolicyFailure, "endorsement policy " + policy.String(*endorsementPolicy) + " not satisfied by " + policy.String(model.EndorsementPolicy{Orgs: endorsingOrgs})
	}

	ok, badKey, err := c.state.ValidateReadSet(c.channel, tx.RWSet.Reads)
	if err != nil {
		return model.ValidationBadPayload, err.Error()
	}
	if !ok {
		return model.ValidationMVCCReadConflict, "stale read on key " + badKey
	}

	if err := c.state.Apply(c.channel, tx.RWSet.Writes, blockNum, txNum); err != nil {
		return model.ValidationBadPayload, err.Error()
	}

	if tx.Payload.Type == model.TxDeploy {
		if err := c.putChaincodeMetadata(tx, blockNum, txNum); err != nil {
			return model.ValidationBadPayload, err.Error()
		}
	}

	return model.ValidationValid, ""
}

// resolvePolicy implements the pipeline's policy resolution: DEPLOY uses
// its own policy (or falls back to ANY:creatorOrgId); INVOKE loads the
// policy from the deployed chaincode's metadata entry.
func (c *Committer) resolvePolicy(tx model.TransactionEnvelope) (*model.EndorsementPolicy, model.ValidationCode, string) {
	if tx.Payload.Type == model.TxDeploy {
		if tx.Payload.EndorsementPolicy != nil {
			return tx.Payload.EndorsementPolicy, "", ""
		}
		return &model.EndorsementPolicy{Type: model.PolicyAny, Orgs: []string{tx.CreatorOrgID}}, "", ""
	}

	meta, err := c.getChaincodeMetadata(tx.Payload.ChaincodeID)
	if err != nil {
		return nil, model.ValidationBadPayload, err.Error()
	}
	if meta == nil {
		return nil, model.ValidationBadPayload, "chaincode " + tx.Payload.ChaincodeID + " has no deployed metadata"
	}
	return &meta.EndorsementPolicy, "", ""
}

// validateChaincodeVersion enforces that a redeploy of an already-deployed
// chaincode strictly increases its semver version, the way fabric's
// lifecycle rejects an upgrade that doesn't bump sequence/version. A
// first-time deploy is unconstrained.
func (c *Committer) validateChaincodeVersion(tx model.TransactionEnvelope) (model.ValidationCode, string) {
	newVersion := tx.Payload.Version
	if newVersion == "" {
		newVersion = defaultChaincodeVersion
	}
	next, err := semver.NewVersion(newVersion)
	if err != nil {
		return model.ValidationBadPayload, "invalid chaincode version " + newVersion
	}

	existing, err := c.getChaincodeMetadata(tx.Payload.ChaincodeID)
	if err != nil {
		return model.ValidationBadPayload, err.Error()
	}
	if existing == nil {
		return "", ""
	}

	current, err := semver.NewVersion(existing.Version)
	if err != nil {
		return model.ValidationBadPayload, "corrupt deployed chaincode version " + existing.Version
	}
	if !next.GreaterThan(current) {
		return model.ValidationBadPayload, "chaincode " + tx.Payload.ChaincodeID + " version must increase on redeploy: have " + existing.Version + ", got " + newVersion
	}
	return "", ""
}

func (c *Committer) verifyEndorsements(tx model.TransactionEnvelope) ([]string, model.ValidationCode, string) {
	peerRole := model.RolePeer
	signingBytes := tx.EndorsementSigningBytes()

	var orgs []string
	for _, e := range tx.Endorsements {
		verify := c.msp.VerifySignature(signingBytes, e.Signature, e.EndorserID, &peerRole)
		if verify.Valid {
			orgs = append(orgs, e.EndorserOrgID)
		}
	}
	return policy.DistinctOrgs(orgs), "", ""
}

func (c *Committer) putChaincodeMetadata(tx model.TransactionEnvelope, blockNum, txNum uint64) error {
	p := tx.Payload.EndorsementPolicy
	if p == nil {
		p = &model.EndorsementPolicy{Type: model.PolicyAny, Orgs: []string{tx.CreatorOrgID}}
	}
	version := tx.Payload.Version
	if version == "" {
		version = defaultChaincodeVersion
	}
	meta := model.ChaincodeMetadata{ChaincodeID: tx.Payload.ChaincodeID, Version: version, EndorsementPolicy: *p}
	encoded := chainmeta.Encode(meta)
	return c.state.Apply(c.channel, []model.WriteEntry{{Key: chainmeta.Key(tx.Payload.ChaincodeID), Value: &encoded}}, blockNum, txNum)
}

func (c *Committer) getChaincodeMetadata(chaincodeID string) (*model.ChaincodeMetadata, error) {
	return chainmeta.Get(c.state, c.channel, chaincodeID)
}
