/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package basic is a minimal fungible-token chaincode exercising
// deploy/invoke scenarios: mint, transfer, balance, and totalSupply,
// grounded on the trivial "asset transfer" sample chaincodes bundled with
// fabric's own samples (simple get/put-state handlers, no private data or
// collections).
package basic

import (
	"strconv"

	"github.com/litefab/litefab/internal/rwset"
	"github.com/pkg/errors"
)

const totalSupplyKey = "totalSupply"

func balanceKey(account string) string { return "balance:" + account }

// Chaincode implements chaincode.Module for the basic token.
type Chaincode struct{}

// Init runs once at DEPLOY time. It takes no arguments and starts total
// supply at zero; accounts are created implicitly by Mint.
func (Chaincode) Init(ctx *rwset.Context, args []string) (string, error) {
	ctx.PutState(totalSupplyKey, []byte("0"))
	return "initialized", nil
}

// Invoke dispatches fn to the matching handler.
func (c Chaincode) Invoke(ctx *rwset.Context, fn string, args []string) (string, error) {
	switch fn {
	case "mint":
		return c.mint(ctx, args)
	case "transfer":
		return c.transfer(ctx, args)
	case "balance":
		return c.balance(ctx, args)
	case "totalSupply":
		return c.totalSupply(ctx)
	default:
		return "", errors.Errorf("basic: unknown function %q", fn)
	}
}

// mint(amount, account) credits account with amount and increases total
// supply by the same amount.
func (c Chaincode) mint(ctx *rwset.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("basic: mint requires (amount, account)")
	}
	amount, err := parsePositiveAmount(args[0])
	if err != nil {
		return "", err
	}
	account := args[1]

	bal, err := c.readBalance(ctx, account)
	if err != nil {
		return "", err
	}
	supply, err := c.readTotalSupply(ctx)
	if err != nil {
		return "", err
	}

	c.writeBalance(ctx, account, bal+amount)
	c.writeTotalSupply(ctx, supply+amount)
	return strconv.FormatInt(bal+amount, 10), nil
}

// transfer(amount, from, to) moves amount from from's balance to to's,
// throwing if from's balance is insufficient.
func (c Chaincode) transfer(ctx *rwset.Context, args []string) (string, error) {
	if len(args) != 3 {
		return "", errors.New("basic: transfer requires (amount, from, to)")
	}
	amount, err := parsePositiveAmount(args[0])
	if err != nil {
		return "", err
	}
	from, to := args[1], args[2]

	fromBal, err := c.readBalance(ctx, from)
	if err != nil {
		return "", err
	}
	if fromBal < amount {
		return "", errors.Errorf("basic: insufficient balance for %s: have %d, need %d", from, fromBal, amount)
	}
	toBal, err := c.readBalance(ctx, to)
	if err != nil {
		return "", err
	}

	c.writeBalance(ctx, from, fromBal-amount)
	c.writeBalance(ctx, to, toBal+amount)
	return strconv.FormatInt(fromBal-amount, 10), nil
}

// balance(account) returns account's current balance.
func (c Chaincode) balance(ctx *rwset.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("basic: balance requires (account)")
	}
	bal, err := c.readBalance(ctx, args[0])
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(bal, 10), nil
}

// totalSupply returns the running total of minted tokens.
func (c Chaincode) totalSupply(ctx *rwset.Context) (string, error) {
	supply, err := c.readTotalSupply(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(supply, 10), nil
}

func (c Chaincode) readBalance(ctx *rwset.Context, account string) (int64, error) {
	raw, err := ctx.GetState(balanceKey(account))
	if err != nil {
		return 0, err
	}
	return parseAmount(raw)
}

func (c Chaincode) writeBalance(ctx *rwset.Context, account string, balance int64) {
	ctx.PutState(balanceKey(account), []byte(strconv.FormatInt(balance, 10)))
}

func (c Chaincode) readTotalSupply(ctx *rwset.Context) (int64, error) {
	raw, err := ctx.GetState(totalSupplyKey)
	if err != nil {
		return 0, err
	}
	return parseAmount(raw)
}

func (c Chaincode) writeTotalSupply(ctx *rwset.Context, supply int64) {
	ctx.PutState(totalSupplyKey, []byte(strconv.FormatInt(supply, 10)))
}

func parseAmount(raw []byte) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "basic: corrupt numeric state")
	}
	return v, nil
}

func parsePositiveAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "basic: invalid amount %q", s)
	}
	if v <= 0 {
		return 0, errors.Errorf("basic: amount must be positive, got %d", v)
	}
	return v, nil
}
