/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package chaincode implements the chaincode host: a registry of
// in-process application modules addressed by chaincode id, dispatched
// against a fresh execution context per transaction. Fabric's core/chaincode
// loads modules out-of-process over a shim protocol; that ecosystem
// convenience is dropped here in favor of a compiled-in registry, the way
// fabric's own core/scc (system chaincodes) are registered in-process.
package chaincode

import (
	"github.com/litefab/litefab/internal/model"
	"github.com/litefab/litefab/internal/rwset"
	"github.com/litefab/litefab/internal/version"
	"github.com/pkg/errors"
)

// Module is a chaincode application. Init runs once on deploy; Invoke runs
// on every subsequent transaction naming a function.
type Module interface {
	Init(ctx *rwset.Context, args []string) (string, error)
	Invoke(ctx *rwset.Context, fn string, args []string) (string, error)
}

// Host is the registry of deployed chaincode modules.
type Host struct {
	modules map[string]Module
}

// NewHost returns an empty chaincode host.
func NewHost() *Host {
	return &Host{modules: make(map[string]Module)}
}

// Register binds chaincodeID to module. Intended to be called at process
// startup for every compiled-in chaincode; redeploying an id replaces it.
func (h *Host) Register(chaincodeID string, module Module) {
	h.modules[chaincodeID] = module
}

// Has reports whether chaincodeID has a registered module.
func (h *Host) Has(chaincodeID string) bool {
	_, ok := h.modules[chaincodeID]
	return ok
}

// Result is the outcome of simulating a transaction: the recorded
// read/write set and the module's return value.
type Result struct {
	RWSet  model.RWSet
	Result string
}

// ExecuteTransaction instantiates a fresh execution context over snapshot
// and dispatches payload to the named chaincode's Init (DEPLOY) or Invoke
// (INVOKE) operation. A panic or error from the module fails the
// whole simulation with BAD_PAYLOAD semantics — callers surface that by
// checking the returned error, never a partial RWSet.
func (h *Host) ExecuteTransaction(snapshot rwset.Snapshot, payload model.TxPayload) (result Result, err error) {
	module, ok := h.modules[payload.ChaincodeID]
	if !ok {
		return Result{}, errors.Errorf("chaincode: no module registered for %q", payload.ChaincodeID)
	}

	ctx := rwset.New(snapshot)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("chaincode: panic during execution: %v", r)
		}
	}()

	var out string
	switch payload.Type {
	case model.TxDeploy:
		out, err = module.Init(ctx, payload.Args)
	case model.TxInvoke:
		if payload.FunctionName == "" {
			return Result{}, errors.New("chaincode: INVOKE payload missing functionName")
		}
		out, err = module.Invoke(ctx, payload.FunctionName, payload.Args)
	default:
		return Result{}, errors.Errorf("chaincode: unknown payload type %q", payload.Type)
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "chaincode: execution failed")
	}

	return Result{RWSet: ctx.RWSet(), Result: out}, nil
}

// snapshotFunc adapts get/getVersion closures (in the endorser, closures
// over a worldstate.Store and its channel) to rwset.Snapshot without this
// package importing worldstate directly, keeping the host
// free of a dependency on the storage layer's concrete type. Callers in
// the endorser wire it up; see internal/endorser.
type snapshotFunc struct {
	get        func(key string) ([]byte, error)
	getVersion func(key string) (*version.Height, error)
}

func (f snapshotFunc) Get(key string) ([]byte, error)               { return f.get(key) }
func (f snapshotFunc) GetVersion(key string) (*version.Height, error) { return f.getVersion(key) }

// NewSnapshot adapts plain get/getVersion closures to an rwset.Snapshot.
func NewSnapshot(get func(string) ([]byte, error), getVersion func(string) (*version.Height, error)) rwset.Snapshot {
	return snapshotFunc{get: get, getVersion: getVersion}
}
