/*
Copyright IBM Corp. 2016 All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"testing"

	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/model"
	"github.com/stretchr/testify/require"
)

func genPEM(t *testing.T) string {
	t.Helper()
	key, err := idcrypto.GenerateKeyPair()
	require.NoError(t, err)
	pem, err := idcrypto.MarshalPublicKeyPEM(&key.PublicKey)
	require.NoError(t, err)
	return pem
}

func TestLoadAndVerifySignature(t *testing.T) {
	key, err := idcrypto.GenerateKeyPair()
	require.NoError(t, err)
	pub, err := idcrypto.MarshalPublicKeyPEM(&key.PublicKey)
	require.NoError(t, err)

	cfg := NetworkConfig{Orgs: []OrgConfig{
		{
			OrgID:          "Org1",
			RootPublicKeys: []string{genPEM(t)},
			Identities: []IdentityConfig{
				{ID: "org1client", Role: model.RoleClient, PublicKey: pub},
			},
		},
	}}

	m, err := Load(cfg)
	require.NoError(t, err)

	id, err := m.GetIdentity("org1client")
	require.NoError(t, err)
	require.Equal(t, "Org1", id.OrgID)

	org, err := m.GetOrganization("Org1")
	require.NoError(t, err)
	require.Len(t, org.IdentityIDs, 1)

	data := []byte("hello")
	sig, err := idcrypto.Sign(key, data)
	require.NoError(t, err)

	res := m.VerifySignature(data, sig, "org1client", nil)
	require.True(t, res.Valid)
	require.Equal(t, "org1client", res.Identity.ID)

	clientRole := model.RoleClient
	res = m.VerifySignature(data, sig, "org1client", &clientRole)
	require.True(t, res.Valid)

	peerRole := model.RolePeer
	res = m.VerifySignature(data, sig, "org1client", &peerRole)
	require.False(t, res.Valid)

	res = m.VerifySignature([]byte("tampered"), sig, "org1client", nil)
	require.False(t, res.Valid)

	res = m.VerifySignature(data, sig, "unknown", nil)
	require.False(t, res.Valid)
}
