/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the litefab command line: config bootstrap, node
// startup, and the client subcommands, modeled on fabric's cmd/peer +
// cmd/orderer split into one cobra.Command per concern (Cmd() functions
// wired up from a single main package).
package cli

import (
	"os"
	"path/filepath"

	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/msp"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// GenerateConfigCmd bootstraps a runnable single-org sample network: an
// RSA keypair and MSP entry each for one peer, one orderer, and one
// client identity, and a peer.yaml/orderer.yaml pair wired to that MSP,
// all written under a fresh output directory.
func GenerateConfigCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a sample single-org litefab network under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateConfig(outDir)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "./sample-network", "directory to write the generated network into")
	return cmd
}

type keyedIdentity struct {
	id      string
	orgID   string
	role    model.Role
	privPEM string
	pubPEM  string
}

func generateSampleIdentity(id, orgID string, role model.Role) (*keyedIdentity, error) {
	key, err := idcrypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	pub, err := idcrypto.MarshalPublicKeyPEM(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &keyedIdentity{
		id:      id,
		orgID:   orgID,
		role:    role,
		privPEM: idcrypto.MarshalPrivateKeyPEM(key),
		pubPEM:  pub,
	}, nil
}

func generateConfig(outDir string) error {
	if _, err := os.Stat(outDir); err == nil {
		return errors.Errorf("cli: output directory %s already exists", outDir)
	}
	if err := os.MkdirAll(filepath.Join(outDir, "keys"), 0o755); err != nil {
		return errors.Wrap(err, "cli: creating output directory")
	}

	peer0, err := generateSampleIdentity("peer0", "Org1", model.RolePeer)
	if err != nil {
		return err
	}
	client1, err := generateSampleIdentity("client1", "Org1", model.RoleClient)
	if err != nil {
		return err
	}
	orderer0, err := generateSampleIdentity("orderer0", "OrdererOrg", model.RoleOrderer)
	if err != nil {
		return err
	}

	for _, id := range []*keyedIdentity{peer0, client1, orderer0} {
		keyPath := filepath.Join(outDir, "keys", id.id+".key")
		if err := os.WriteFile(keyPath, []byte(id.privPEM), 0o600); err != nil {
			return errors.Wrapf(err, "cli: writing key for %s", id.id)
		}
	}

	netCfg := msp.NetworkConfig{
		Orgs: []msp.OrgConfig{
			{
				OrgID: "Org1",
				Identities: []msp.IdentityConfig{
					{ID: peer0.id, Role: peer0.role, PublicKey: peer0.pubPEM},
					{ID: client1.id, Role: client1.role, PublicKey: client1.pubPEM},
				},
			},
			{
				OrgID: "OrdererOrg",
				Identities: []msp.IdentityConfig{
					{ID: orderer0.id, Role: orderer0.role, PublicKey: orderer0.pubPEM},
				},
			},
		},
	}

	peerYAML := map[string]interface{}{
		"identity": map[string]interface{}{
			"id":             peer0.id,
			"orgId":          peer0.orgID,
			"privateKeyFile": filepath.Join(outDir, "keys", peer0.id+".key"),
		},
		"listenAddr":   "127.0.0.1:7051",
		"channel":      "mychannel",
		"dataDir":      filepath.Join(outDir, "data", "peer0"),
		"ordererAddrs": []string{"http://127.0.0.1:7050"},
		"msp":          netCfg,
	}
	ordererYAML := map[string]interface{}{
		"identity": map[string]interface{}{
			"id":             orderer0.id,
			"orgId":          orderer0.orgID,
			"privateKeyFile": filepath.Join(outDir, "keys", orderer0.id+".key"),
		},
		"listenAddr":   "127.0.0.1:7050",
		"channel":      "mychannel",
		"dataDir":      filepath.Join(outDir, "data", "orderer0"),
		"peerAddrs":    []string{"http://127.0.0.1:7051"},
		"blockSize":    10,
		"blockTimeout": "2s",
		"msp":          netCfg,
	}

	if err := writeYAML(filepath.Join(outDir, "peer.yaml"), peerYAML); err != nil {
		return err
	}
	if err := writeYAML(filepath.Join(outDir, "orderer.yaml"), ordererYAML); err != nil {
		return err
	}

	clientYAML := map[string]interface{}{
		"identity": map[string]interface{}{
			"id":             client1.id,
			"orgId":          client1.orgID,
			"privateKeyFile": filepath.Join(outDir, "keys", client1.id+".key"),
		},
		"peerAddrs":    []string{"http://127.0.0.1:7051"},
		"ordererAddrs": []string{"http://127.0.0.1:7050"},
	}
	if err := writeYAML(filepath.Join(outDir, "client.yaml"), clientYAML); err != nil {
		return err
	}

	return nil
}

func writeYAML(path string, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "cli: marshaling %s", path)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "cli: writing %s", path)
	}
	return nil
}
