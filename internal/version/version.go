/*
Copyright IBM Corp. 2016 All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package version implements the (blockNum, txNum) height used to version
// every key in world state.
package version

import (
	"bytes"
	"encoding/binary"
)

// Height identifies the block and transaction that last wrote a key.
type Height struct {
	BlockNum uint64
	TxNum    uint64
}

// NewHeight constructs a Height.
func NewHeight(blockNum, txNum uint64) *Height {
	return &Height{BlockNum: blockNum, TxNum: txNum}
}

// Compare returns -1, 0, or 1 as h is less than, equal to, or greater than
// other. BlockNum is the primary ordering key, TxNum breaks ties within a
// block.
func (h *Height) Compare(other *Height) int {
	switch {
	case h.BlockNum != other.BlockNum:
		if h.BlockNum < other.BlockNum {
			return -1
		}
		return 1
	case h.TxNum != other.TxNum:
		if h.TxNum < other.TxNum {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// AreSame reports whether h1 and h2 represent the same height, treating two
// nil heights as equal and a nil height as distinct from any non-nil one.
// This mirrors the ∅-vs-present distinction the MVCC check requires.
func AreSame(h1, h2 *Height) bool {
	if h1 == nil || h2 == nil {
		return h1 == h2
	}
	return h1.Compare(h2) == 0
}

// ToBytes returns a sortable big-endian encoding of h.
func (h *Height) ToBytes() []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], h.BlockNum)
	binary.BigEndian.PutUint64(buf[8:], h.TxNum)
	return buf
}

// NewHeightFromBytes decodes a Height from the head of b, returning the
// number of bytes consumed. Extra trailing bytes are not an error.
func NewHeightFromBytes(b []byte) (*Height, int, error) {
	if len(b) < 16 {
		return nil, 0, errTooShort(len(b))
	}
	return &Height{
		BlockNum: binary.BigEndian.Uint64(b[:8]),
		TxNum:    binary.BigEndian.Uint64(b[8:16]),
	}, 16, nil
}

type errTooShort int

func (e errTooShort) Error() string {
	return "version: byte slice too short to decode a Height"
}

// Equal is a byte-level equality check of two heights' encodings,
// treating two nil heights as equal.
func Equal(h1, h2 *Height) bool {
	if h1 == nil || h2 == nil {
		return h1 == h2
	}
	return bytes.Equal(h1.ToBytes(), h2.ToBytes())
}
