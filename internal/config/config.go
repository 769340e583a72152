/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads peer and orderer node configuration from YAML via
// viper, the way fabric's common/configtx/tool/localconfig and
// core/peer/config load their own node configuration, trimmed to
// litefab's flatter node/MSP/consensus shape.
package config

import (
	"crypto/rsa"
	"os"
	"time"

	"github.com/litefab/litefab/internal/idcrypto"
	"github.com/litefab/litefab/internal/msp"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Identity names the process's own MSP identity and private key file.
type Identity struct {
	ID             string `mapstructure:"id"`
	OrgID          string `mapstructure:"orgId"`
	PrivateKeyFile string `mapstructure:"privateKeyFile"`
}

// PeerConfig is a peer node's full configuration.
type PeerConfig struct {
	Identity       Identity          `mapstructure:"identity"`
	ListenAddr     string            `mapstructure:"listenAddr"`
	Channel        string            `mapstructure:"channel"`
	DataDir        string            `mapstructure:"dataDir"`
	OrdererAddrs   []string          `mapstructure:"ordererAddrs"`
	MSP            msp.NetworkConfig `mapstructure:"msp"`
	RequestTimeout time.Duration     `mapstructure:"requestTimeout"`
}

// OrdererConfig is an orderer node's full configuration.
type OrdererConfig struct {
	Identity     Identity          `mapstructure:"identity"`
	ListenAddr   string            `mapstructure:"listenAddr"`
	Channel      string            `mapstructure:"channel"`
	DataDir      string            `mapstructure:"dataDir"`
	PeerAddrs    []string          `mapstructure:"peerAddrs"`
	MSP          msp.NetworkConfig `mapstructure:"msp"`
	BlockSize    int               `mapstructure:"blockSize"`
	BlockTimeout time.Duration     `mapstructure:"blockTimeout"`
}

// ClientConfig is the configuration a `litefab client` invocation loads
// to act as a given identity against a set of peers and orderers.
type ClientConfig struct {
	Identity       Identity      `mapstructure:"identity"`
	PeerAddrs      []string      `mapstructure:"peerAddrs"`
	OrdererAddrs   []string      `mapstructure:"ordererAddrs"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

// LoadClientConfig reads and unmarshals a client config file at path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &cfg, nil
}

// LoadPeerConfig reads and unmarshals a peer config file at path.
func LoadPeerConfig(path string) (*PeerConfig, error) {
	var cfg PeerConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &cfg, nil
}

// LoadOrdererConfig reads and unmarshals an orderer config file at path.
func LoadOrdererConfig(path string) (*OrdererConfig, error) {
	var cfg OrdererConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = 10
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 2000 * time.Millisecond
	}
	return &cfg, nil
}

// LoadIdentityKey reads and parses the PEM private key file named by the
// Identity's PrivateKeyFile, relative to nothing in particular — callers
// pass whatever path the config file itself names.
func LoadIdentityKey(id Identity) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(id.PrivateKeyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading private key file %s", id.PrivateKeyFile)
	}
	key, err := idcrypto.LoadPrivateKey(pemBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "config: parsing private key file %s", id.PrivateKeyFile)
	}
	return key, nil
}

func load(path string, out interface{}) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "config: reading %s", path)
	}
	if err := v.Unmarshal(out); err != nil {
		return errors.Wrapf(err, "config: unmarshaling %s", path)
	}
	return nil
}
