/*
Copyright IBM Corp. 2016 All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package msp implements the Membership Service Provider: a
// read-only, process-wide directory of organizations and identities loaded
// once at startup, used to verify signed requests and enforce role
// predicates. It is a much smaller cousin of fabric's msp/mspimpl.go,
// trading X.509 certificate chains and BCCSP-pluggable crypto for
// litefab's fixed RSA-2048/SHA-256 primitives (package idcrypto).
package msp

import (
	"crypto/rsa"
	"fmt"

	"github.com/litefab/litefab/internal/flogging"
	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/model"
	"github.com/pkg/errors"
)

var mspLogger = flogging.MustGetLogger("msp")

// IdentityConfig describes one identity as loaded from a network MSP
// config file.
type IdentityConfig struct {
	ID        string    `mapstructure:"id" yaml:"id"`
	Role      model.Role `mapstructure:"role" yaml:"role"`
	PublicKey string    `mapstructure:"publicKey" yaml:"publicKey"`
}

// OrgConfig describes one organization and its member identities.
type OrgConfig struct {
	OrgID          string           `mapstructure:"orgId" yaml:"orgId"`
	RootPublicKeys []string         `mapstructure:"rootPublicKeys" yaml:"rootPublicKeys"`
	Identities     []IdentityConfig `mapstructure:"identities" yaml:"identities"`
}

// NetworkConfig is the top-level network MSP configuration document.
type NetworkConfig struct {
	Orgs []OrgConfig `mapstructure:"orgs" yaml:"orgs"`
}

// Organization is a loaded OrgMSP: its id, its root public keys, and the
// identity ids it owns.
type Organization struct {
	OrgID          string
	RootPublicKeys []*rsa.PublicKey
	IdentityIDs    []string
}

type identityEntry struct {
	identity model.Identity
	pubKey   *rsa.PublicKey
}

// MSP is the loaded, read-only membership directory.
type MSP struct {
	orgs       map[string]*Organization
	identities map[string]*identityEntry
}

// Load parses a NetworkConfig into an MSP, decoding every identity's
// PEM-encoded public key up front so signature verification never touches
// the filesystem at request time.
func Load(cfg NetworkConfig) (*MSP, error) {
	m := &MSP{
		orgs:       map[string]*Organization{},
		identities: map[string]*identityEntry{},
	}

	for _, orgCfg := range cfg.Orgs {
		if orgCfg.OrgID == "" {
			return nil, errors.New("msp: organization missing orgId")
		}
		org := &Organization{OrgID: orgCfg.OrgID}
		for _, rootPEM := range orgCfg.RootPublicKeys {
			pub, err := idcrypto.LoadPublicKey([]byte(rootPEM))
			if err != nil {
				return nil, errors.Wrapf(err, "msp: org %s root public key", orgCfg.OrgID)
			}
			org.RootPublicKeys = append(org.RootPublicKeys, pub)
		}

		for _, idCfg := range orgCfg.Identities {
			if _, exists := m.identities[idCfg.ID]; exists {
				return nil, errors.Errorf("msp: duplicate identity id %s", idCfg.ID)
			}
			pub, err := idcrypto.LoadPublicKey([]byte(idCfg.PublicKey))
			if err != nil {
				return nil, errors.Wrapf(err, "msp: identity %s public key", idCfg.ID)
			}
			m.identities[idCfg.ID] = &identityEntry{
				identity: model.Identity{
					ID:        idCfg.ID,
					OrgID:     orgCfg.OrgID,
					Role:      idCfg.Role,
					PublicKey: idCfg.PublicKey,
				},
				pubKey: pub,
			}
			org.IdentityIDs = append(org.IdentityIDs, idCfg.ID)
		}

		m.orgs[orgCfg.OrgID] = org
	}

	mspLogger.Infof("loaded MSP config: %d orgs, %d identities", len(m.orgs), len(m.identities))
	return m, nil
}

// GetIdentity returns the identity registered under id.
func (m *MSP) GetIdentity(id string) (*model.Identity, error) {
	entry, ok := m.identities[id]
	if !ok {
		return nil, errors.Errorf("msp: unknown identity %s", id)
	}
	idCopy := entry.identity
	return &idCopy, nil
}

// GetOrganization returns the organization registered under orgID.
func (m *MSP) GetOrganization(orgID string) (*Organization, error) {
	org, ok := m.orgs[orgID]
	if !ok {
		return nil, errors.Errorf("msp: unknown organization %s", orgID)
	}
	return org, nil
}

// IsRole reports whether id has the given role.
func (m *MSP) IsRole(id string, role model.Role) bool {
	entry, ok := m.identities[id]
	return ok && entry.identity.Role == role
}

// VerifyResult is the outcome of VerifySignature: exactly one of (valid,
// identity) or (invalid, error) is populated. Signature failures are
// reported through this struct, never thrown as a Go error.
type VerifyResult struct {
	Valid    bool
	Identity *model.Identity
	Err      error
}

// VerifySignature looks up signerID, optionally enforces expectedRole, and
// verifies sig over data against the identity's public key. All failure
// modes — unknown signer, role mismatch, bad signature — are reported as
// VerifyResult{Valid: false}, never as a returned Go error.
func (m *MSP) VerifySignature(data []byte, sig string, signerID string, expectedRole *model.Role) VerifyResult {
	entry, ok := m.identities[signerID]
	if !ok {
		return VerifyResult{Valid: false, Err: errors.Errorf("msp: unknown identity %s", signerID)}
	}
	if expectedRole != nil && entry.identity.Role != *expectedRole {
		return VerifyResult{Valid: false, Err: errors.Errorf(
			"msp: identity %s has role %s, expected %s", signerID, entry.identity.Role, *expectedRole)}
	}

	valid, err := idcrypto.Verify(entry.pubKey, data, sig)
	if err != nil {
		return VerifyResult{Valid: false, Err: errors.Wrap(err, "msp: signature verification error")}
	}
	if !valid {
		return VerifyResult{Valid: false, Err: fmt.Errorf("msp: signature does not verify for identity %s", signerID)}
	}

	idCopy := entry.identity
	return VerifyResult{Valid: true, Identity: &idCopy}
}
