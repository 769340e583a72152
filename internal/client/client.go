/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client implements the client-side SDK: assemble and sign a
// proposal, gather one endorsement from the first configured peer that
// returns one, assemble and sign the resulting envelope, and submit it to
// an orderer — trying the next configured address on failure at each of
// those two hops. It plays the role fabric's
// gateway/client (and, in the classic SDK, fabric-sdk-go's channel
// client) play, trimmed to round-robin HTTP instead of a service
// discovery + gRPC channel.
package client

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/model"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("client")

// Client submits transactions as a single identity against a set of peer
// and orderer addresses.
type Client struct {
	identityID   string
	orgID        string
	publicKeyPEM string
	privateKey   *rsa.PrivateKey

	peerAddrs    []string
	ordererAddrs []string

	http *http.Client
}

// New returns a Client identified as identityID/orgID, signing with
// privateKey, trying peerAddrs for proposals/queries and ordererAddrs for
// submits, in order, with requests bounded by timeout.
func New(identityID, orgID string, privateKey *rsa.PrivateKey, peerAddrs, ordererAddrs []string, timeout time.Duration) (*Client, error) {
	pub, err := idcrypto.MarshalPublicKeyPEM(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Client{
		identityID:   identityID,
		orgID:        orgID,
		publicKeyPEM: pub,
		privateKey:   privateKey,
		peerAddrs:    peerAddrs,
		ordererAddrs: ordererAddrs,
		http:         &http.Client{Timeout: timeout},
	}, nil
}

// Deploy assembles, endorses, and submits a DEPLOY transaction for
// chaincodeID at the given semver version under policy, per the
// `client deploy` CLI operation. Redeploying an existing chaincodeID
// requires version to be strictly greater than what's already deployed.
func (c *Client) Deploy(chaincodeID, version string, policy model.EndorsementPolicy, args []string) (string, error) {
	payload := model.TxPayload{Type: model.TxDeploy, ChaincodeID: chaincodeID, Version: version, Args: args, EndorsementPolicy: &policy}
	return c.invokePipeline(payload)
}

// Invoke assembles, endorses, and submits an INVOKE transaction for
// chaincodeID's function fn.
func (c *Client) Invoke(chaincodeID, fn string, args []string) (string, error) {
	payload := model.TxPayload{Type: model.TxInvoke, ChaincodeID: chaincodeID, FunctionName: fn, Args: args}
	return c.invokePipeline(payload)
}

// Query performs a read-only world-state lookup against the first
// reachable peer, bypassing the endorse/order/commit pipeline entirely
// (there is no transaction to record).
func (c *Client) Query(key string) (*string, error) {
	var lastErr error
	for _, addr := range c.peerAddrs {
		resp, err := c.http.Get(addr + "/query?key=" + key)
		if err != nil {
			lastErr = err
			logger.Warnw("query failed, trying next peer", "peer", addr, "error", err.Error())
			continue
		}
		defer resp.Body.Close()
		var out struct {
			Value *string `json:"value"`
			Error string  `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 300 {
			lastErr = errors.New(out.Error)
			continue
		}
		return out.Value, nil
	}
	return nil, errors.Wrap(lastErr, "client: query failed against every configured peer")
}

func (c *Client) invokePipeline(payload model.TxPayload) (string, error) {
	txID := uuid.NewString()
	proposal := model.Proposal{
		TxID:          txID,
		CreatorID:     c.identityID,
		CreatorOrgID:  c.orgID,
		CreatorPubKey: c.publicKeyPEM,
		Payload:       payload,
	}
	sig, err := idcrypto.Sign(c.privateKey, proposal.SigningBytes())
	if err != nil {
		return "", err
	}
	proposal.Signature = sig

	resp, err := c.sendProposal(proposal)
	if err != nil {
		return "", err
	}

	env := model.TransactionEnvelope{
		TxID:          txID,
		CreatorID:     c.identityID,
		CreatorOrgID:  c.orgID,
		CreatorPubKey: c.publicKeyPEM,
		Payload:       payload,
		RWSet:         resp.RWSet,
		Result:        resp.Result,
		Endorsements:  []model.Endorsement{resp.Endorsement},
	}
	clientSig, err := idcrypto.Sign(c.privateKey, env.SigningBytes())
	if err != nil {
		return "", err
	}
	env.ClientSignature = clientSig

	if err := c.submit(env); err != nil {
		return "", err
	}
	return resp.Result, nil
}

// sendProposal tries each configured peer address in order, returning on
// the first success.
func (c *Client) sendProposal(proposal model.Proposal) (*model.ProposalResponse, error) {
	body, err := json.Marshal(proposal)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, addr := range c.peerAddrs {
		resp, err := c.http.Post(addr+"/proposal", "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			logger.Warnw("proposal failed, trying next peer", "peer", addr, "error", err.Error())
			continue
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			var out struct {
				Error string `json:"error"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&out)
			lastErr = fmt.Errorf("peer %s: %s", addr, out.Error)
			continue
		}

		var out model.ProposalResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			lastErr = err
			continue
		}
		return &out, nil
	}
	return nil, errors.Wrap(lastErr, "client: proposal failed against every configured peer")
}

// submit tries each configured orderer address in order, returning on the
// first success.
func (c *Client) submit(env model.TransactionEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	var lastErr error
	for _, addr := range c.ordererAddrs {
		resp, err := c.http.Post(addr+"/submit", "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			logger.Warnw("submit failed, trying next orderer", "orderer", addr, "error", err.Error())
			continue
		}
		defer resp.Body.Close()
		if resp.StatusCode < 300 {
			return nil
		}
		var out struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		lastErr = fmt.Errorf("orderer %s: %s", addr, out.Error)
	}
	return errors.Wrap(lastErr, "client: submit failed against every configured orderer")
}
