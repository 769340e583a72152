/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/stretchr/testify/require"
)

const peerYAML = `
identity:
  id: peer0
  orgId: Org1
  privateKeyFile: peer0.key
listenAddr: 127.0.0.1:7051
channel: mychannel
dataDir: /tmp/peer0
ordererAddrs:
  - http://127.0.0.1:7050
msp:
  orgs:
    - orgId: Org1
      rootPublicKeys: []
      identities: []
`

const ordererYAML = `
identity:
  id: orderer0
  orgId: OrdererOrg
  privateKeyFile: orderer0.key
listenAddr: 127.0.0.1:7050
channel: mychannel
dataDir: /tmp/orderer0
peerAddrs:
  - http://127.0.0.1:7051
blockSize: 5
blockTimeout: 1500ms
msp:
  orgs: []
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPeerConfigAppliesDefaultTimeout(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "peer.yaml", peerYAML)

	cfg, err := LoadPeerConfig(path)
	require.NoError(t, err)
	require.Equal(t, "peer0", cfg.Identity.ID)
	require.Equal(t, "Org1", cfg.Identity.OrgID)
	require.Equal(t, "mychannel", cfg.Channel)
	require.Equal(t, []string{"http://127.0.0.1:7050"}, cfg.OrdererAddrs)
	require.Len(t, cfg.MSP.Orgs, 1)
	require.Equal(t, "Org1", cfg.MSP.Orgs[0].OrgID)
	require.Equal(t, 5000000000, int(cfg.RequestTimeout))
}

func TestLoadOrdererConfigKeepsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orderer.yaml", ordererYAML)

	cfg, err := LoadOrdererConfig(path)
	require.NoError(t, err)
	require.Equal(t, "orderer0", cfg.Identity.ID)
	require.Equal(t, 5, cfg.BlockSize)
	require.Equal(t, "1.5s", cfg.BlockTimeout.String())
	require.Equal(t, []string{"http://127.0.0.1:7051"}, cfg.PeerAddrs)
}

func TestLoadOrdererConfigAppliesDefaultsWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orderer.yaml", `
identity:
  id: orderer0
  orgId: OrdererOrg
  privateKeyFile: orderer0.key
listenAddr: 127.0.0.1:7050
channel: mychannel
dataDir: /tmp/orderer0
msp:
  orgs: []
`)

	cfg, err := LoadOrdererConfig(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.BlockSize)
	require.Equal(t, "2s", cfg.BlockTimeout.String())
}

func TestLoadPeerConfigMissingFileReturnsError(t *testing.T) {
	_, err := LoadPeerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadIdentityKeyRoundTrips(t *testing.T) {
	key, err := idcrypto.GenerateKeyPair()
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeFile(t, dir, "id.key", idcrypto.MarshalPrivateKeyPEM(key))

	loaded, err := LoadIdentityKey(Identity{PrivateKeyFile: path})
	require.NoError(t, err)
	require.Equal(t, key.D, loaded.D)
}

func TestLoadIdentityKeyMissingFileReturnsError(t *testing.T) {
	_, err := LoadIdentityKey(Identity{PrivateKeyFile: filepath.Join(t.TempDir(), "missing.key")})
	require.Error(t, err)
}
