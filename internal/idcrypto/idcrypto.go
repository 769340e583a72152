/*
Copyright IBM Corp. 2016 All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package idcrypto implements litefab's fixed cryptographic primitives:
// SHA-256 digests and RSA-2048 signatures with SHA-256, base64-armored
// on the wire. Key generation tooling is out of scope; apart from
// GenerateKeyPair, which generate-config uses to bootstrap a sample
// network, this package loads, marshals, signs, and verifies.
package idcrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"

	"github.com/pkg/errors"
)

// Digest returns the SHA-256 digest of data.
func Digest(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// DigestHex returns the SHA-256 digest of data as a lowercase hex string,
// used for block and hash-chain digests in the ledger store.
func DigestHex(data []byte) string {
	return hexEncode(Digest(data))
}

// LoadPrivateKey parses a PEM-encoded PKCS#1 or PKCS#8 RSA private key.
func LoadPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("idcrypto: no PEM block found in private key")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "idcrypto: failed parsing private key")
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("idcrypto: private key is not RSA")
	}
	return rsaKey, nil
}

// LoadPublicKey parses a PEM-encoded PKIX RSA public key.
func LoadPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("idcrypto: no PEM block found in public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "idcrypto: failed parsing public key")
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("idcrypto: public key is not RSA")
	}
	return rsaKey, nil
}

// MarshalPublicKeyPEM renders pub as a PEM-encoded PKIX public key, the
// form stored in Identity.PublicKey and in MSP config files.
func MarshalPublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", errors.Wrap(err, "idcrypto: failed marshaling public key")
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// GenerateKeyPair creates a fresh RSA-2048 keypair. Used only by
// generate-config's bundled key bootstrap; real deployments manage keys
// out of band.
func GenerateKeyPair() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "idcrypto: failed generating RSA-2048 keypair")
	}
	return key, nil
}

// MarshalPrivateKeyPEM renders key as a PEM-encoded PKCS#1 private key.
func MarshalPrivateKeyPEM(key *rsa.PrivateKey) string {
	der := x509.MarshalPKCS1PrivateKey(key)
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

// Sign produces a base64-armored RSA-PKCS1v15/SHA-256 signature over data.
// The returned string is the literal wire representation used in
// Signature/ClientSignature/OrdererSignature fields, so model types declare
// those fields as string rather than []byte (which encoding/json would
// otherwise base64-encode a second time).
func Sign(key *rsa.PrivateKey, data []byte) (string, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", errors.Wrap(err, "idcrypto: signing failed")
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64-armored RSA-PKCS1v15/SHA-256 signature produced
// by Sign.
func Verify(pub *rsa.PublicKey, data []byte, sig string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false, errors.Wrap(err, "idcrypto: malformed base64 signature")
	}
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], raw); err != nil {
		return false, nil
	}
	return true, nil
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}
