/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package chainmeta stores and looks up chaincode deployment records
// in world state under a reserved key namespace, shared by the endorser
// (existence check for INVOKE) and the
// committer (write on DEPLOY, policy lookup for INVOKE). Keeping the
// namespace and encoding in one place avoids the two call sites drifting.
package chainmeta

import (
	"encoding/json"

	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/worldstate"
	"github.com/pkg/errors"
)

const keyPrefix = "$chaincode:"

// Key returns the reserved world-state key a chaincode's metadata is
// stored under.
func Key(chaincodeID string) string { return keyPrefix + chaincodeID }

// Encode serializes meta for storage as a WriteEntry value.
func Encode(meta model.ChaincodeMetadata) string {
	b, err := json.Marshal(meta)
	if err != nil {
		// meta is a plain data struct with no cyclic or unsupported
		// fields; a marshal failure here would be a programming error.
		panic(err)
	}
	return string(b)
}

// Decode parses a metadata record previously produced by Encode.
func Decode(raw []byte) (*model.ChaincodeMetadata, error) {
	var meta model.ChaincodeMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errors.Wrap(err, "chainmeta: decode")
	}
	return &meta, nil
}

// Get looks up chaincodeID's deployment record in channel's world state,
// returning nil if it has not been deployed.
func Get(state *worldstate.Store, channel, chaincodeID string) (*model.ChaincodeMetadata, error) {
	raw, err := state.Get(channel, Key(chaincodeID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return Decode(raw)
}
